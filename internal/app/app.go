// Package app assembles the order bot: configuration, persistent store,
// panel client, domain services, and the Telegram run options consumed by
// the core runner.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/m3rciful/orderbot/core/bootstrap"
	coretelegram "github.com/m3rciful/orderbot/core/telegram"
	"github.com/m3rciful/orderbot/core/telegram/router"
	"github.com/m3rciful/orderbot/core/telegram/session"
	"github.com/m3rciful/orderbot/internal/bot"
	"github.com/m3rciful/orderbot/internal/catalog"
	"github.com/m3rciful/orderbot/internal/moderation"
	"github.com/m3rciful/orderbot/internal/order"
	"github.com/m3rciful/orderbot/internal/provider"
	"github.com/m3rciful/orderbot/internal/store"
	"github.com/m3rciful/orderbot/internal/users"
)

// catalogTTL bounds how long a fetched service list is reused before asking
// the panel again.
const catalogTTL = 5 * time.Minute

// App owns the wired application.
type App struct {
	cfg *Config

	store      *store.Store
	users      *users.Service
	moderation *moderation.Service
	panel      *provider.Client
	workflow   *order.Workflow
	bot        *bot.Bot

	catalogMu sync.Mutex
	catalog   *catalog.Catalog
	fetchedAt time.Time
}

// Bootstrap initializes logging and storage through the shared pipeline and
// wires the domain services on top.
func Bootstrap(cfg *Config) (*App, error) {
	a := &App{cfg: cfg}

	_, err := bootstrap.Run(bootstrap.Options{
		Config: cfg.CoreConfig(),
		OpenStore: func() (bootstrap.Storage, error) {
			st, err := store.Open(cfg.Store)
			if err != nil {
				return nil, err
			}
			if err := st.EnsureInitialized(); err != nil {
				return nil, err
			}
			a.store = st
			return st, nil
		},
	})
	if err != nil {
		return nil, err
	}

	providerCfg := cfg.Provider
	if providerCfg.HTTPClient == nil {
		providerCfg.HTTPClient = coretelegram.BuildHTTPClient()
	}
	a.panel, err = provider.New(providerCfg)
	if err != nil {
		return nil, fmt.Errorf("app: provider client: %w", err)
	}

	a.users = users.NewService(a.store)
	a.moderation = moderation.NewService(moderation.NewList(cfg.Moderation.BannedFile), a.store)
	a.workflow = order.NewWorkflow(a.store, a.panel)

	a.bot = bot.New(bot.Options{
		Users:      a.users,
		Moderation: a.moderation,
		Workflow:   a.workflow,
		Panel:      a.panel,
		Catalog:    a.Catalog,
		Sessions:   session.NewCache(0),
		AdminIDs:   cfg.Core.Telegram.AdminIDs,
		Shop: bot.ShopSettings{
			MinDeposit:    cfg.Shop.MinDeposit,
			SupportHandle: cfg.Shop.SupportHandle,
			NotifyGroupID: cfg.Shop.NotifyGroupID,
			CurrencyLabel: cfg.Shop.CurrencyLabel,
		},
	})
	return a, nil
}

// Catalog returns the current catalog snapshot, refreshing it from the
// panel when the cached one is older than the TTL. A stale snapshot is
// served if the refresh fails and an older one exists.
func (a *App) Catalog(ctx context.Context) (*catalog.Catalog, error) {
	a.catalogMu.Lock()
	defer a.catalogMu.Unlock()

	if a.catalog != nil && time.Since(a.fetchedAt) < catalogTTL {
		return a.catalog, nil
	}
	services, err := a.panel.Services(ctx)
	if err != nil {
		if a.catalog != nil {
			return a.catalog, nil
		}
		return nil, err
	}
	a.catalog = catalog.Build(services, a.cfg.Shop.MarginPercent)
	a.fetchedAt = time.Now()
	return a.catalog, nil
}

// TelegramRunOptions builds the registry, middleware chain, and routes for
// the core Telegram runner.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	cfg := a.cfg.CoreConfig()

	reg := coretelegram.NewRegistry()
	a.bot.Register(reg)

	middlewares := coretelegram.DefaultMiddlewares(cfg, a.bot.RateLimitedHandler())
	middlewares = append(middlewares, coretelegram.Middleware{
		Name: "ban_gate",
		Use: a.moderation.Gate(moderation.GateOptions{
			IsAdmin:   a.bot.IsAdmin,
			OnBlocked: a.bot.BlockedHandler(),
		}),
	})

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminIDs:      cfg.Telegram.AdminIDs,
		OnAdminReject: a.bot.AdminRejectHandler(),
	})
	routes = append(routes, router.TextRoutes(a.bot.FSM(), reg, router.TextOptions{})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))

	return coretelegram.RunOptions{
		Config:      cfg,
		Registry:    reg,
		Middlewares: middlewares,
		Routes:      routes,
	}, nil
}

package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/m3rciful/orderbot/core/config"
	"github.com/m3rciful/orderbot/internal/provider"
	"github.com/m3rciful/orderbot/internal/store"
)

// ShopConfig holds the commerce knobs: resale margin, deposit rules, and
// where to announce sales.
type ShopConfig struct {
	// MarginPercent is added on top of the raw panel price.
	MarginPercent int64 `yaml:"margin_percent" envconfig:"SHOP_MARGIN_PERCENT"`
	// MinDeposit is the smallest accepted top-up, in whole currency units.
	MinDeposit int64 `yaml:"min_deposit" envconfig:"SHOP_MIN_DEPOSIT"`
	// SupportHandle is the Telegram username users contact for deposits
	// and help, without the leading @.
	SupportHandle string `yaml:"support_handle" envconfig:"SHOP_SUPPORT_HANDLE"`
	// NotifyGroupID receives a censored note about each successful order;
	// 0 disables the announcements.
	NotifyGroupID int64 `yaml:"notify_group_id" envconfig:"SHOP_NOTIFY_GROUP_ID"`
	// CurrencyLabel prefixes money amounts in user-facing messages.
	CurrencyLabel string `yaml:"currency_label" envconfig:"SHOP_CURRENCY_LABEL"`
}

// ModerationConfig locates the ban list file.
type ModerationConfig struct {
	BannedFile string `yaml:"banned_file" envconfig:"MODERATION_BANNED_FILE"`
}

// Config aggregates the core bot configuration with the shop-specific
// sections.
type Config struct {
	Core       coreconfig.Config `yaml:",inline"`
	Provider   provider.Config   `yaml:"provider"`
	Store      store.Config      `yaml:"store"`
	Shop       ShopConfig        `yaml:"shop"`
	Moderation ModerationConfig  `yaml:"moderation"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Core
}

// LoadConfig reads the YAML file, applies environment overrides, and
// validates both the core and shop sections.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("app: read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("app: parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("app: process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	if err := normalizeShop(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func normalizeShop(cfg *Config) error {
	if strings.TrimSpace(cfg.Provider.BaseURL) == "" {
		return fmt.Errorf("app: provider.base_url is required")
	}
	if strings.TrimSpace(cfg.Provider.APIID) == "" || strings.TrimSpace(cfg.Provider.APIKey) == "" {
		return fmt.Errorf("app: provider.api_id and provider.api_key are required")
	}
	if cfg.Shop.MarginPercent < 0 {
		return fmt.Errorf("app: shop.margin_percent must be >= 0")
	}
	if cfg.Shop.MarginPercent == 0 {
		cfg.Shop.MarginPercent = 10
	}
	if cfg.Shop.MinDeposit < 0 {
		return fmt.Errorf("app: shop.min_deposit must be >= 0")
	}
	if cfg.Shop.MinDeposit == 0 {
		cfg.Shop.MinDeposit = 10000
	}
	if cfg.Shop.CurrencyLabel == "" {
		cfg.Shop.CurrencyLabel = "Rp"
	}
	cfg.Shop.SupportHandle = strings.TrimPrefix(strings.TrimSpace(cfg.Shop.SupportHandle), "@")
	return nil
}

package bootstrap

import (
	"context"
	"fmt"

	coreconfig "github.com/m3rciful/orderbot/core/config"
	"github.com/m3rciful/orderbot/core/logger"
)

// Storage represents shared persistence infrastructure passed to optional modules.
type Storage interface{}

// Options control the generic bootstrap pipeline shared between bots.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	OpenStore  func() (Storage, error)
	Seeders    []Seeder
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	Store Storage
}

// Run initializes the logger, opens the persistent store, and executes seeders.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	var storage Storage
	if opts.OpenStore != nil {
		st, err := opts.OpenStore()
		if err != nil {
			return nil, fmt.Errorf("bootstrap: store initialization failed: %w", err)
		}
		storage = st
	}

	ctx := context.Background()
	for _, seeder := range opts.Seeders {
		if seeder == nil {
			continue
		}
		if err := seeder.Seed(ctx, storage); err != nil {
			return nil, fmt.Errorf("bootstrap: seeding failed: %w", err)
		}
	}

	return &Result{Store: storage}, nil
}

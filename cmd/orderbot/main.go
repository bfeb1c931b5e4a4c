package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/m3rciful/orderbot/core/cmd"
	"github.com/m3rciful/orderbot/internal/app"
)

func main() {
	// .env is optional; deployments usually set real environment variables.
	_ = godotenv.Load()

	err := cmd.Run(cmd.Options{
		DefaultConfigPath: "config.yml",
		LoadConfig: func(path string) (cmd.ConfigCarrier, error) {
			return app.LoadConfig(path)
		},
		Bootstrap: func(carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
			cfg, ok := carrier.(*app.Config)
			if !ok {
				return nil, fmt.Errorf("unexpected config type %T", carrier)
			}
			return app.Bootstrap(cfg)
		},
	})
	if err != nil {
		log.Fatalf("orderbot: %v", err)
	}
}

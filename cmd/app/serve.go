package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/narayanprabad/InvestWise/internal/di"
	"github.com/narayanprabad/InvestWise/pkg/config"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, stream and background workers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadWithEnv(*configPath)
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}

			app, err := di.InitializeApp(cfg)
			if err != nil {
				return fmt.Errorf("app initialization failed: %w", err)
			}
			// Blocks until SIGINT or SIGTERM.
			return app.Run()
		},
	}
}

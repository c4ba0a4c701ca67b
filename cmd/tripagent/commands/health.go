package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tripagent/tripagent/internal/transport"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check AgentCore service health",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.BaseURL == "" {
			return fmt.Errorf("no base URL configured")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		client := transport.NewClient(cfg.BaseURL)
		if err := client.Health(ctx); err != nil {
			return fmt.Errorf("unhealthy: %w", err)
		}
		fmt.Printf("%s is healthy\n", cfg.BaseURL)
		return nil
	},
}

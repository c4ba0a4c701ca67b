// Package commands provides the CLI commands for tripagent.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tripagent/tripagent/internal/config"
	"github.com/tripagent/tripagent/internal/logging"
)

var (
	// Version information set at build time
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Global flags
var (
	logLevel string
	pretty   bool
	baseURL  string
)

var rootCmd = &cobra.Command{
	Use:   "tripagent",
	Short: "tripagent - travel-planning client for AgentCore",
	Long: `tripagent is a terminal client for the AgentCore travel orchestration
service. It streams agent responses - thinking status, per-tool progress,
and structured results - into an interactive chat.

Run 'tripagent chat' to start a conversation, or 'tripagent mock' to run a
local stand-in service to develop against.`,
	Version: Version,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG|INFO|WARN|ERROR)")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", false, "Human-readable log output")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "AgentCore base URL (overrides config)")

	rootCmd.SetVersionTemplate(fmt.Sprintf("tripagent %s (%s)\n", Version, BuildTime))

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(mockCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads configuration and initializes logging from it plus the
// global flags.
func loadConfig() (*config.Config, error) {
	workDir, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(workDir)
	if err != nil {
		return nil, err
	}

	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if pretty {
		cfg.Pretty = true
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(cfg.LogLevel)
	logCfg.Pretty = cfg.Pretty
	logging.Init(logCfg)

	return cfg, nil
}

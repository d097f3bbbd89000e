package cli

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/proximalabs/proxima-go/internal/infrastructure/config"
)

// NewConfigCommand creates the config command with subcommands
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage Proxima daemon configuration.

Configuration is loaded from multiple sources with priority:
1. Environment variables (PROXIMA_* prefix, plus DB_URI, EXPERIMENT_ID,
   UPDATE_RATE_MS, UPDATE_CYCLES, READ_ONLY)
2. Config file (config.yaml)
3. Default values

Examples:
  proxima config show`,
	}

	cmd.AddCommand(newConfigShowCommand())

	return cmd
}

// newConfigShowCommand creates the config show subcommand
func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				fmt.Printf("Warning: failed to load config: %v\n", err)
				fmt.Println("Using default configuration.")
				cfg = config.LoadConfigOrDefault(configPath)
			}

			fmt.Println("Proxima Configuration")
			fmt.Println("=====================")

			fmt.Println("Database:")
			fmt.Printf("  Type:             %s\n", cfg.Database.Type)
			if cfg.Database.URL != "" {
				fmt.Printf("  URL:              %s\n", maskPassword(cfg.Database.URL))
			} else if cfg.Database.Type == "sqlite" {
				fmt.Printf("  Path:             %s\n", cfg.Database.Path)
			} else {
				fmt.Printf("  Host:             %s\n", cfg.Database.Host)
				fmt.Printf("  Port:             %d\n", cfg.Database.Port)
				fmt.Printf("  Database:         %s\n", cfg.Database.Name)
				fmt.Printf("  User:             %s\n", cfg.Database.User)
			}
			fmt.Printf("  Max Connections:  %d\n", cfg.Database.Pool.MaxOpen)

			fmt.Println("\nRunner:")
			if cfg.Runner.ExperimentID != "" {
				fmt.Printf("  Experiment:       %s\n", cfg.Runner.ExperimentID)
			} else {
				fmt.Printf("  Experiment:       (not set)\n")
			}
			fmt.Printf("  Update Rate:      %d ms\n", cfg.Runner.UpdateRateMs)
			fmt.Printf("  Update Cycles:    %d\n", cfg.Runner.UpdateCycles)
			fmt.Printf("  Snapshot Every:   %d\n", cfg.Runner.SnapshotEvery)
			fmt.Printf("  Read Only:        %t\n", cfg.Runner.ReadOnly)

			fmt.Println("\nMetrics:")
			fmt.Printf("  Enabled:          %t\n", cfg.Metrics.Enabled)
			if cfg.Metrics.Enabled {
				fmt.Printf("  Endpoint:         http://%s:%d%s\n",
					cfg.Metrics.Host, cfg.Metrics.Port, cfg.Metrics.Path)
			}

			fmt.Println("\nLogging:")
			fmt.Printf("  Level:            %s\n", cfg.Logging.Level)
			fmt.Printf("  Format:           %s\n", cfg.Logging.Format)
			fmt.Printf("  Output:           %s\n", cfg.Logging.Output)

			return nil
		},
	}
}

// maskPassword masks credentials in connection strings for display
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, has := u.User.Password(); !has {
		return raw
	}
	masked := url.UserPassword(u.User.Username(), "****")
	return strings.Replace(raw, u.User.String(), masked.String(), 1)
}

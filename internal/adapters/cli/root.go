package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/proximalabs/proxima-go/internal/domain/kernel"
)

// Exit codes. Scripts drive experiments; the code tells them what broke.
const (
	ExitOK        = 0
	ExitRuntime   = 1
	ExitConfig    = 2
	ExitOverdraft = 3
	ExitStore     = 4
)

var (
	// Global flags
	configPath string
	verbose    bool
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "proxima",
		Short: "Proxima - lunar base simulation daemon",
		Long: `Proxima runs agent-based lunar base experiments against a document store.

The daemon loads a world template, applies the experiment's overrides,
and drives the step loop, writing one snapshot per step to the
simulation log. The dashboard reads the log and deposits control
commands (pause, resume, goal and policy updates) that are drained at
step boundaries.

Examples:
  proxima run --experiment exp-baseline-01
  proxima run --experiment exp-dust-study --max-steps 8760 --read-only
  proxima experiments list
  proxima control pause --experiment exp-baseline-01
  proxima config show`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default: config.yaml in search paths)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")

	// Add command groups
	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewExperimentsCommand())
	rootCmd.AddCommand(NewControlCommand())
	rootCmd.AddCommand(NewConfigCommand())

	return rootCmd
}

// Execute runs the root command and maps errors to exit codes
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, kernel.ErrConfig):
		return ExitConfig
	case errors.Is(err, kernel.ErrCommitOverdraft):
		return ExitOverdraft
	case errors.Is(err, kernel.ErrStoreUnavailable):
		return ExitStore
	default:
		return ExitRuntime
	}
}

package cli

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/proximalabs/proxima-go/internal/adapters/logsink"
	"github.com/proximalabs/proxima-go/internal/adapters/metrics"
	"github.com/proximalabs/proxima-go/internal/adapters/persistence"
	"github.com/proximalabs/proxima-go/internal/application/common"
	"github.com/proximalabs/proxima-go/internal/application/setup"
	simCommands "github.com/proximalabs/proxima-go/internal/application/simulation/commands"
	"github.com/proximalabs/proxima-go/internal/infrastructure/config"
	"github.com/proximalabs/proxima-go/internal/infrastructure/database"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	var (
		experimentID  string
		maxSteps      int64
		updateRateMs  int
		snapshotEvery int64
		readOnly      bool
		csvLog        string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one experiment to completion",
		Long: `Run an experiment's step loop until its step cap, a stop command,
or an interrupt.

Flags override the runner settings from configuration; the experiment
id falls back to EXPERIMENT_ID.

Examples:
  proxima run --experiment exp-baseline-01
  proxima run --experiment exp-dust-study --max-steps 8760
  proxima run --experiment exp-replay --read-only --update-rate-ms 0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if experimentID == "" {
				experimentID = cfg.Runner.ExperimentID
			}
			if experimentID == "" {
				return fmt.Errorf("no experiment id: pass --experiment or set EXPERIMENT_ID")
			}
			if !cmd.Flags().Changed("max-steps") {
				maxSteps = cfg.Runner.UpdateCycles
			}
			if !cmd.Flags().Changed("update-rate-ms") {
				updateRateMs = cfg.Runner.UpdateRateMs
			}
			if !cmd.Flags().Changed("snapshot-every") {
				snapshotEvery = cfg.Runner.SnapshotEvery
			}
			if !cmd.Flags().Changed("read-only") {
				readOnly = cfg.Runner.ReadOnly
			}

			db, err := database.NewConnection(&cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer database.Close(db)
			if err := database.AutoMigrate(db); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}

			var observer common.RunObserver
			if cfg.Metrics.Enabled {
				metrics.InitRegistry()
				collector := metrics.NewSimulationMetricsCollector()
				if err := collector.Register(); err != nil {
					return fmt.Errorf("failed to register metrics: %w", err)
				}
				observer = collector
				go func() { _ = metrics.Serve(cfg.Metrics) }()
			}

			logRepo := persistence.NewGormSimulationLogRepository(db)
			var sink common.LogSink = logsink.NewRetrySink(logRepo, logsink.RetryOptions{})
			if csvLog != "" {
				csvSink, err := logsink.NewCSVSink(csvLog)
				if err != nil {
					return err
				}
				defer csvSink.Close()
				sink = logsink.NewMultiSink(sink, csvSink)
			}

			registry := setup.NewHandlerRegistry(
				persistence.NewGormDocumentRepository(db),
				sink,
				persistence.NewGormCommandRepository(db),
				observer,
			)
			m, err := registry.BuildMediator()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			logger := newConsoleLogger(verbose)
			if cfg.Logging.Format == "json" {
				logger = newJSONLogger(verbose)
			}
			ctx = common.WithLogger(ctx, logger)

			resp, err := m.Send(ctx, &simCommands.RunExperimentCommand{
				ExperimentID:  experimentID,
				UpdateRate:    time.Duration(updateRateMs) * time.Millisecond,
				MaxSteps:      maxSteps,
				SnapshotEvery: snapshotEvery,
				ReadOnly:      readOnly,
			})
			if err != nil {
				return err
			}

			result := resp.(*simCommands.RunExperimentResponse)
			fmt.Printf("experiment %s finished: state=%s steps=%d dropped_snapshots=%d\n",
				result.ExperimentID, result.FinalState, result.StepsRun, result.DroppedLogs)
			return nil
		},
	}

	cmd.Flags().StringVar(&experimentID, "experiment", "", "Experiment document id")
	cmd.Flags().Int64Var(&maxSteps, "max-steps", 0, "Step cap (0 = experiment default)")
	cmd.Flags().IntVar(&updateRateMs, "update-rate-ms", 0, "Loop pacing in milliseconds (0 = unpaced)")
	cmd.Flags().Int64Var(&snapshotEvery, "snapshot-every", 1, "Write every Nth snapshot")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "Run without writing snapshots or consuming commands")
	cmd.Flags().StringVar(&csvLog, "csv-log", "", "Also append snapshots to a CSV file at this path")

	return cmd
}

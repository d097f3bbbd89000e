package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/proximalabs/proxima-go/internal/adapters/persistence"
	"github.com/proximalabs/proxima-go/internal/application/common"
	simCommands "github.com/proximalabs/proxima-go/internal/application/simulation/commands"
)

// NewControlCommand creates the control command group
func NewControlCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "control",
		Short: "Send control commands to a running experiment",
		Long: `Deposit control commands in the store. The running daemon drains
them at the next step boundary, in timestamp order.

Examples:
  proxima control pause --experiment exp-baseline-01
  proxima control resume --experiment exp-baseline-01
  proxima control stop --experiment exp-baseline-01
  proxima control set-param --experiment exp-baseline-01 \
      --payload '{"sector":"science","param":"throttle_factor","value":0.5}'
  proxima control inject-event --experiment exp-baseline-01 \
      --payload '{"topic":"resource_request","body":{"requester":"science","resource":"He3_kg","amount":40}}'`,
	}

	cmd.AddCommand(newControlSubcommand("pause", "Pause the step loop", common.CommandPause, false))
	cmd.AddCommand(newControlSubcommand("resume", "Resume a paused run", common.CommandResume, false))
	cmd.AddCommand(newControlSubcommand("stop", "Stop the run and flush the final snapshot", common.CommandStop, false))
	cmd.AddCommand(newControlSubcommand("set-goal", "Replace or retune a goal", common.CommandSetGoal, true))
	cmd.AddCommand(newControlSubcommand("set-policy", "Enable or disable a policy", common.CommandSetPolicy, true))
	cmd.AddCommand(newControlSubcommand("set-param", "Adjust a sector parameter", common.CommandSetParam, true))
	cmd.AddCommand(newControlSubcommand("inject-event", "Publish an event into the next step", common.CommandInjectEvent, true))

	return cmd
}

func newControlSubcommand(use, short string, kind common.CommandKind, needsPayload bool) *cobra.Command {
	var (
		experimentID string
		payload      string
		payloadFile  string
	)

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := resolvePayload(payload, payloadFile, needsPayload)
			if err != nil {
				return err
			}

			_, db, err := openStore()
			if err != nil {
				return err
			}
			defer closeStore(db)

			handler := simCommands.NewSubmitControlHandler(persistence.NewGormCommandRepository(db))
			resp, err := handler.Handle(cmd.Context(), &simCommands.SubmitControlCommand{
				ExperimentID: experimentID,
				Kind:         kind,
				Payload:      raw,
			})
			if err != nil {
				return err
			}
			result := resp.(*simCommands.SubmitControlResponse)
			fmt.Printf("command %s (%s) queued for %s\n", result.CommandID, kind, experimentID)
			return nil
		},
	}

	cmd.Flags().StringVar(&experimentID, "experiment", "", "Target experiment id")
	_ = cmd.MarkFlagRequired("experiment")
	if needsPayload {
		cmd.Flags().StringVar(&payload, "payload", "", "Command payload as inline JSON")
		cmd.Flags().StringVar(&payloadFile, "payload-file", "", "Path to a JSON payload file")
	}

	return cmd
}

func resolvePayload(inline, file string, required bool) (json.RawMessage, error) {
	var raw []byte
	switch {
	case inline != "" && file != "":
		return nil, fmt.Errorf("--payload and --payload-file are mutually exclusive")
	case inline != "":
		raw = []byte(inline)
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read payload: %w", err)
		}
		raw = data
	case required:
		return nil, fmt.Errorf("a payload is required: pass --payload or --payload-file")
	default:
		return nil, nil
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("payload is not valid JSON")
	}
	return json.RawMessage(raw), nil
}

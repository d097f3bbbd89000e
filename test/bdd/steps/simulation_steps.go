package steps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cucumber/godog"

	"github.com/proximalabs/proxima-go/internal/adapters/persistence"
	"github.com/proximalabs/proxima-go/internal/application/common"
	"github.com/proximalabs/proxima-go/internal/application/setup"
	simCommands "github.com/proximalabs/proxima-go/internal/application/simulation/commands"
	simQueries "github.com/proximalabs/proxima-go/internal/application/simulation/queries"
	"github.com/proximalabs/proxima-go/internal/domain/agent"
	"github.com/proximalabs/proxima-go/internal/domain/evaluation"
	"github.com/proximalabs/proxima-go/internal/domain/kernel"
	"github.com/proximalabs/proxima-go/internal/domain/sector"
	"github.com/proximalabs/proxima-go/internal/domain/world"
	"github.com/proximalabs/proxima-go/internal/infrastructure/database"
)

type simulationContext struct {
	docs     common.DocumentRepository
	logs     *persistence.GormSimulationLogRepository
	cmds     common.CommandRepository
	mediator common.Mediator

	resp *simCommands.RunExperimentResponse
	err  error
}

func (sc *simulationContext) reset() error {
	db, err := database.NewTestConnection()
	if err != nil {
		return fmt.Errorf("test database: %w", err)
	}
	sc.docs = persistence.NewGormDocumentRepository(db)
	sc.logs = persistence.NewGormSimulationLogRepository(db)
	sc.cmds = persistence.NewGormCommandRepository(db)
	sc.mediator, err = setup.NewHandlerRegistry(sc.docs, sc.logs, sc.cmds, nil).BuildMediator()
	if err != nil {
		return fmt.Errorf("mediator: %w", err)
	}
	sc.resp = nil
	sc.err = nil
	return nil
}

// templateConfig is the world document behind every scenario template:
// one oversized generator and a rover fleet that never needs the grid.
func templateConfig(rovers int) world.Config {
	return world.Config{
		Seed:       1,
		CommitMode: "lenient",
		Environment: world.EnvironmentConfig{
			DistanceKm:    384400,
			StepsPerMonth: 720,
		},
		Energy: world.EnergyDoc{
			Generators: []agent.PowerGeneratorConfig{{MaxOutputKWh: 10000}},
		},
		Science: world.ScienceDoc{
			Config: sector.ScienceConfig{
				RoverTemplate: agent.ScienceRoverConfig{
					PowerUsageKWh:      10,
					ScienceGeneration:  2,
					BatteryCapacityKWh: 100000,
				},
				RateMetric: sector.MetricContribution{MetricID: "SCI-RATE", Value: 1},
			},
			InitialRovers: rovers,
		},
		Metrics: []evaluation.MetricDef{{ID: "SCI-RATE", Kind: evaluation.KindGauge}},
	}
}

func (sc *simulationContext) aWorldTemplateWithScienceRovers(id string, rovers int) error {
	return sc.docs.SaveWorldTemplate(context.Background(), id, templateConfig(rovers))
}

func (sc *simulationContext) aComponentTemplateWithDocument(id string, doc *godog.DocString) error {
	return sc.docs.SaveComponentTemplate(context.Background(), id, json.RawMessage(doc.Content))
}

func (sc *simulationContext) aWorldTemplateUsingRoverComponent(id, component string, rovers int) error {
	cfg := templateConfig(rovers)
	cfg.Science.Config.RoverTemplate = agent.ScienceRoverConfig{Template: component}
	return sc.docs.SaveWorldTemplate(context.Background(), id, cfg)
}

func (sc *simulationContext) anExperimentCappedAtSteps(id, templateID string, maxSteps int) error {
	return sc.docs.SaveExperiment(context.Background(), &common.ExperimentDocument{
		ID:         id,
		TemplateID: templateID,
		MaxSteps:   int64(maxSteps),
	})
}

func (sc *simulationContext) anExperimentWithOverrides(id, templateID string, maxSteps int, overrides *godog.DocString) error {
	return sc.docs.SaveExperiment(context.Background(), &common.ExperimentDocument{
		ID:         id,
		TemplateID: templateID,
		MaxSteps:   int64(maxSteps),
		Overrides:  json.RawMessage(overrides.Content),
	})
}

func (sc *simulationContext) aPendingCommandFor(kind, experimentID string) error {
	_, err := sc.mediator.Send(context.Background(), &simCommands.SubmitControlCommand{
		ExperimentID: experimentID,
		Kind:         common.CommandKind(kind),
	})
	return err
}

func (sc *simulationContext) iRunTheExperiment(id string) error {
	resp, err := sc.mediator.Send(context.Background(), &simCommands.RunExperimentCommand{
		ExperimentID: id,
	})
	sc.err = err
	if err != nil {
		return nil
	}
	runResp, ok := resp.(*simCommands.RunExperimentResponse)
	if !ok {
		return fmt.Errorf("unexpected response type %T", resp)
	}
	sc.resp = runResp
	return nil
}

func (sc *simulationContext) iSubmitACommandFor(kind, experimentID string) error {
	return sc.aPendingCommandFor(kind, experimentID)
}

func (sc *simulationContext) theRunEndsInStateAfterSteps(state string, steps int) error {
	if sc.err != nil {
		return fmt.Errorf("run failed: %v", sc.err)
	}
	if sc.resp == nil {
		return errors.New("no run response recorded")
	}
	if sc.resp.FinalState != state {
		return fmt.Errorf("expected state %q, got %q", state, sc.resp.FinalState)
	}
	if sc.resp.StepsRun != int64(steps) {
		return fmt.Errorf("expected %d steps, got %d", steps, sc.resp.StepsRun)
	}
	return nil
}

func (sc *simulationContext) snapshotsArePersistedFor(count int, experimentID string) error {
	snaps, err := sc.logs.Range(context.Background(), experimentID, 0, 1<<40)
	if err != nil {
		return err
	}
	if len(snaps) != count {
		return fmt.Errorf("expected %d snapshots, got %d", count, len(snaps))
	}
	return nil
}

func (sc *simulationContext) theLatestSnapshotReportsActiveRovers(experimentID string, rovers int) error {
	snap, err := sc.logs.Latest(context.Background(), experimentID)
	if err != nil {
		return err
	}
	if snap == nil {
		return errors.New("no snapshot persisted")
	}
	active := snap.Sectors[sector.Science]["rovers_active"]
	if active != float64(rovers) {
		return fmt.Errorf("expected %d active rovers, got %v", rovers, active)
	}
	return nil
}

func (sc *simulationContext) snapshotHistoriesMatch(expA, expB string) error {
	snapsA, err := sc.logs.Range(context.Background(), expA, 0, 1<<40)
	if err != nil {
		return err
	}
	snapsB, err := sc.logs.Range(context.Background(), expB, 0, 1<<40)
	if err != nil {
		return err
	}
	if len(snapsA) != len(snapsB) {
		return fmt.Errorf("history lengths differ: %d vs %d", len(snapsA), len(snapsB))
	}
	for i := range snapsA {
		docA, err := json.Marshal(snapsA[i])
		if err != nil {
			return err
		}
		docB, err := json.Marshal(snapsB[i])
		if err != nil {
			return err
		}
		if string(docA) != string(docB) {
			return fmt.Errorf("histories diverge at step %d", snapsA[i].Step)
		}
	}
	return nil
}

func (sc *simulationContext) theLatestSnapshotReportsScienceRate(experimentID string, rate int) error {
	snap, err := sc.logs.Latest(context.Background(), experimentID)
	if err != nil {
		return err
	}
	if snap == nil {
		return errors.New("no snapshot persisted")
	}
	if got := snap.Evaluation.Metrics["SCI-RATE"]; got != float64(rate) {
		return fmt.Errorf("expected science rate %d, got %v", rate, got)
	}
	return nil
}

func (sc *simulationContext) theRunFailsWithAConfigurationError() error {
	if sc.err == nil {
		return errors.New("expected the run to fail")
	}
	if !errors.Is(sc.err, kernel.ErrConfig) {
		return fmt.Errorf("expected a configuration error, got: %v", sc.err)
	}
	return nil
}

func (sc *simulationContext) listingExperimentsReturnsEntries(count int) error {
	resp, err := sc.mediator.Send(context.Background(), &simQueries.ListExperimentsQuery{})
	if err != nil {
		return err
	}
	listResp, ok := resp.(*simQueries.ListExperimentsResponse)
	if !ok {
		return fmt.Errorf("unexpected response type %T", resp)
	}
	if len(listResp.Experiments) != count {
		return fmt.Errorf("expected %d experiments, got %d", count, len(listResp.Experiments))
	}
	return nil
}

func (sc *simulationContext) theExperimentHasPendingCommands(experimentID string, count int) error {
	pending, err := sc.cmds.FetchPending(context.Background(), experimentID)
	if err != nil {
		return err
	}
	if len(pending) != count {
		return fmt.Errorf("expected %d pending commands, got %d", count, len(pending))
	}
	return nil
}

// InitializeSimulationScenario registers the simulation lifecycle and
// control command steps.
func InitializeSimulationScenario(ctx *godog.ScenarioContext) {
	sc := &simulationContext{}

	ctx.Before(func(c context.Context, _ *godog.Scenario) (context.Context, error) {
		return c, sc.reset()
	})

	ctx.Step(`^a world template "([^"]*)" with (\d+) science rovers$`, sc.aWorldTemplateWithScienceRovers)
	ctx.Step(`^a component template "([^"]*)" with document:$`, sc.aComponentTemplateWithDocument)
	ctx.Step(`^a world template "([^"]*)" whose rovers use component "([^"]*)" with (\d+) science rovers$`, sc.aWorldTemplateUsingRoverComponent)
	ctx.Step(`^an experiment "([^"]*)" on template "([^"]*)" capped at (\d+) steps$`, sc.anExperimentCappedAtSteps)
	ctx.Step(`^an experiment "([^"]*)" on template "([^"]*)" capped at (\d+) steps with overrides:$`, sc.anExperimentWithOverrides)
	ctx.Step(`^a pending "([^"]*)" command for "([^"]*)"$`, sc.aPendingCommandFor)
	ctx.Step(`^I run the experiment "([^"]*)"$`, sc.iRunTheExperiment)
	ctx.Step(`^I submit a "([^"]*)" command for "([^"]*)"$`, sc.iSubmitACommandFor)
	ctx.Step(`^the run ends in state "([^"]*)" after (\d+) steps$`, sc.theRunEndsInStateAfterSteps)
	ctx.Step(`^(\d+) snapshots are persisted for "([^"]*)"$`, sc.snapshotsArePersistedFor)
	ctx.Step(`^the latest snapshot for "([^"]*)" reports (\d+) active rovers$`, sc.theLatestSnapshotReportsActiveRovers)
	ctx.Step(`^the latest snapshot for "([^"]*)" reports a science rate of (\d+)$`, sc.theLatestSnapshotReportsScienceRate)
	ctx.Step(`^the snapshot histories of "([^"]*)" and "([^"]*)" match$`, sc.snapshotHistoriesMatch)
	ctx.Step(`^the run fails with a configuration error$`, sc.theRunFailsWithAConfigurationError)
	ctx.Step(`^listing experiments returns (\d+) entries$`, sc.listingExperimentsReturnsEntries)
	ctx.Step(`^the experiment "([^"]*)" has (\d+) pending commands?$`, sc.theExperimentHasPendingCommands)
}

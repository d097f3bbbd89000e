package setup

import (
	"github.com/proximalabs/proxima-go/internal/application/common"
	simCommands "github.com/proximalabs/proxima-go/internal/application/simulation/commands"
	simQueries "github.com/proximalabs/proxima-go/internal/application/simulation/queries"
)

// HandlerRegistry holds the adapter dependencies the application
// handlers need. Adapters construct one and register everything on a
// mediator; tests swap in fakes.
type HandlerRegistry struct {
	documents common.DocumentRepository
	sink      common.LogSink
	commands  common.CommandRepository
	observer  common.RunObserver
}

// NewHandlerRegistry creates a new handler registry with required dependencies
func NewHandlerRegistry(
	documents common.DocumentRepository,
	sink common.LogSink,
	commandRepo common.CommandRepository,
	observer common.RunObserver,
) *HandlerRegistry {
	return &HandlerRegistry{
		documents: documents,
		sink:      sink,
		commands:  commandRepo,
		observer:  observer,
	}
}

// RegisterSimulationHandlers registers all simulation command and query
// handlers with the mediator
//
// This method registers:
//   - RunExperimentCommand → RunExperimentHandler (drives one run end to end)
//   - SubmitControlCommand → SubmitControlHandler (deposits dashboard commands)
//   - ListExperimentsQuery → ListExperimentsHandler (enumerates experiments)
func (r *HandlerRegistry) RegisterSimulationHandlers(m common.Mediator) error {
	if err := common.RegisterHandler[*simCommands.RunExperimentCommand](
		m, simCommands.NewRunExperimentHandler(r.documents, r.sink, r.commands, r.observer),
	); err != nil {
		return err
	}
	if err := common.RegisterHandler[*simCommands.SubmitControlCommand](
		m, simCommands.NewSubmitControlHandler(r.commands),
	); err != nil {
		return err
	}
	return common.RegisterHandler[*simQueries.ListExperimentsQuery](
		m, simQueries.NewListExperimentsHandler(r.documents),
	)
}

// BuildMediator wires a fresh mediator with every handler registered.
func (r *HandlerRegistry) BuildMediator() (common.Mediator, error) {
	m := common.NewMediator()
	if err := r.RegisterSimulationHandlers(m); err != nil {
		return nil, err
	}
	return m, nil
}

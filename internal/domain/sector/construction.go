package sector

import (
	"github.com/proximalabs/proxima-go/internal/domain/agent"
	"github.com/proximalabs/proxima-go/internal/domain/kernel"
)

// ProjectStatus tracks a module job through the build pipeline.
type ProjectStatus string

const (
	ProjectQueued     ProjectStatus = "QUEUED"
	ProjectInProgress ProjectStatus = "IN_PROGRESS"
	ProjectCompleted  ProjectStatus = "COMPLETED"
)

// Project is one module build job. A construction request for quantity
// N expands into N projects.
type Project struct {
	RequestID     string
	Requester     string
	ModuleID      string
	ShellsNeeded  int
	EquipmentType string
	Status        ProjectStatus
	assembler     string
}

// ConstructionConfig configures the construction sector.
type ConstructionConfig struct {
	InitialStocks map[string]float64 `mapstructure:"initial_stocks" json:"initial_stocks"`

	// ShellTarget drives make-to-stock shell printing: printers start
	// new shells while stock plus work in progress is below Min.
	ShellTarget BufferTarget `mapstructure:"shell_target" json:"shell_target"`

	// Regolith is requested from manufacturing in batches when the local
	// buffer drops below the threshold.
	RegolithThresholdKg float64 `mapstructure:"regolith_threshold_kg" json:"regolith_threshold_kg"`
	RegolithBatchKg     float64 `mapstructure:"regolith_batch_kg" json:"regolith_batch_kg"`

	// EquipmentMap names the specialized equipment each module type
	// needs, one unit per module.
	EquipmentMap map[string]string `mapstructure:"equipment_map" json:"equipment_map"`

	// MaxConcurrentProjects caps assemblies running at once. Zero means
	// the assembler fleet is the only limit.
	MaxConcurrentProjects int `mapstructure:"max_concurrent_projects" json:"max_concurrent_projects"`

	// CompletionMetric receives one contribution per finished module.
	CompletionMetric MetricContribution `mapstructure:"completion_metric" json:"completion_metric"`
}

// ConstructionSector prints structural shells to stock and assembles
// base modules on request. Shells and equipment are reserved through
// the ledger when assembly starts.
type ConstructionSector struct {
	ctx        *kernel.Context
	cfg        ConstructionConfig
	printers   []*agent.PrintingRobot
	assemblers []*agent.AssemblyRobot
	stocks     *kernel.StockSet

	projects         []*Project
	pendingEquipment map[string]int
	regolithPending  bool

	contribs  map[string]float64
	completed int
	powerUsed float64
}

// NewConstructionSector wires the sector and its bus subscriptions.
func NewConstructionSector(ctx *kernel.Context, cfg ConstructionConfig, printers []*agent.PrintingRobot, assemblers []*agent.AssemblyRobot) *ConstructionSector {
	s := &ConstructionSector{
		ctx:              ctx,
		cfg:              cfg,
		printers:         printers,
		assemblers:       assemblers,
		stocks:           kernel.NewStockSet(cfg.InitialStocks),
		pendingEquipment: map[string]int{},
		contribs:         map[string]float64{},
	}
	ctx.Bus.Subscribe(kernel.TopicConstructionRequest, s.onConstructionRequest)
	ctx.Bus.Subscribe(kernel.TopicEquipmentAllocated, s.onEquipmentAllocated)
	ctx.Bus.Subscribe(kernel.TopicResourceAllocated, s.onResourceAllocated)
	return s
}

func (s *ConstructionSector) ID() string               { return Construction }
func (s *ConstructionSector) Stocks() *kernel.StockSet { return s.stocks }

// Projects returns the job list, completed projects included.
func (s *ConstructionSector) Projects() []*Project { return s.projects }

func (s *ConstructionSector) onConstructionRequest(ev kernel.Event) {
	req, ok := ev.Payload.(kernel.ConstructionRequested)
	if !ok {
		return
	}
	qty := req.Quantity
	if qty <= 0 {
		qty = 1
	}
	for i := 0; i < qty; i++ {
		s.projects = append(s.projects, &Project{
			RequestID:     req.RequestID,
			Requester:     req.Requester,
			ModuleID:      req.ModuleID,
			ShellsNeeded:  req.Shells,
			EquipmentType: s.cfg.EquipmentMap[req.ModuleID],
			Status:        ProjectQueued,
		})
	}
}

func (s *ConstructionSector) onEquipmentAllocated(ev kernel.Event) {
	alloc, ok := ev.Payload.(kernel.EquipmentAllocated)
	if !ok || alloc.Recipient != Construction {
		return
	}
	s.pendingEquipment[alloc.EquipmentType] -= alloc.Quantity
	if s.pendingEquipment[alloc.EquipmentType] < 0 {
		s.pendingEquipment[alloc.EquipmentType] = 0
	}
}

func (s *ConstructionSector) onResourceAllocated(ev kernel.Event) {
	alloc, ok := ev.Payload.(kernel.ResourceAllocated)
	if !ok || alloc.Recipient != Construction {
		return
	}
	if alloc.Resource == agent.ResourceRegolith {
		s.regolithPending = false
	}
}

// PowerDemand covers active robots plus the printers that would start a
// shell this step.
func (s *ConstructionSector) PowerDemand() float64 {
	var total float64
	deficit := s.shellDeficit()
	for _, p := range s.printers {
		if !p.Available() {
			continue
		}
		if p.Mode() == agent.ModeActive {
			total += p.PowerDemand()
		} else if deficit > 0 {
			total += p.Config().MaxPowerUsageKWh
			deficit--
		}
	}
	for _, a := range s.assemblers {
		if a.Available() && a.Mode() == agent.ModeActive {
			total += a.PowerDemand()
		}
	}
	return total
}

// shellDeficit counts shells still to be started toward the buffer
// target, work in progress included.
func (s *ConstructionSector) shellDeficit() int {
	inProgress := 0
	for _, p := range s.printers {
		if p.Mode() == agent.ModeActive {
			inProgress++
		}
	}
	want := int(s.cfg.ShellTarget.Min) - int(s.stocks.Level(agent.ResourceShells)) - inProgress
	if want < 0 {
		return 0
	}
	return want
}

// Step runs one construction cycle: replenish regolith, start and
// advance shell prints, request equipment for queued jobs, start and
// advance assemblies.
func (s *ConstructionSector) Step(in StepInput) {
	s.contribs = map[string]float64{}
	s.completed = 0
	s.powerUsed = 0

	for _, p := range s.printers {
		p.Tick()
	}
	for _, a := range s.assemblers {
		a.Tick()
	}

	s.requestRegolith()

	budget := in.PowerKWh
	budget = s.runPrinters(budget)
	s.requestEquipment()
	s.startAssemblies()
	s.runAssemblers(budget)

	if s.completed > 0 && s.cfg.CompletionMetric.MetricID != "" {
		s.contribs[s.cfg.CompletionMetric.MetricID] = float64(s.completed) * s.cfg.CompletionMetric.Value
	}
}

// requestRegolith keeps one batch request outstanding while the local
// buffer sits below the threshold.
func (s *ConstructionSector) requestRegolith() {
	if s.cfg.RegolithBatchKg <= 0 || s.regolithPending {
		return
	}
	if s.stocks.Level(agent.ResourceRegolith) >= s.cfg.RegolithThresholdKg {
		return
	}
	s.regolithPending = true
	s.ctx.Bus.Publish(kernel.TopicResourceRequest, kernel.ResourceRequested{
		Requester: Construction,
		Resource:  agent.ResourceRegolith,
		Amount:    s.cfg.RegolithBatchKg,
	})
}

func (s *ConstructionSector) runPrinters(budget float64) float64 {
	deficit := s.shellDeficit()
	reserved := 0.0
	for _, p := range s.printers {
		if !p.Available() {
			continue
		}
		if p.Mode() == agent.ModeIdle {
			if deficit <= 0 {
				continue
			}
			need := p.Config().RegolithUsageKg
			if !s.stocks.Has(agent.ResourceRegolith, need+reserved) {
				continue
			}
			if p.StartPrint() {
				reserved += need
				deficit--
			}
		}
		if p.Mode() != agent.ModeActive {
			continue
		}
		powered := budget >= p.PowerDemand()
		if powered {
			budget -= p.PowerDemand()
			s.powerUsed += p.PowerDemand()
		}
		res := p.Step(powered)
		if res.ShellCompleted {
			s.ctx.Ledger.Consume(Construction, agent.ResourceRegolith, res.RegolithConsumedKg)
			s.ctx.Ledger.Produce(Construction, agent.ResourceShells, 1)
		}
	}
	return budget
}

// requestEquipment issues one tracked request per equipment type:
// while units are on order no further request for that type goes out.
func (s *ConstructionSector) requestEquipment() {
	needed := map[string]int{}
	for _, proj := range s.projects {
		if proj.Status == ProjectQueued && proj.EquipmentType != "" {
			needed[proj.EquipmentType]++
		}
	}
	// Deterministic order over the closed equipment map.
	for _, eq := range sortedKeys(needed) {
		onHand := int(s.stocks.Level(eq))
		missing := needed[eq] - onHand - s.pendingEquipment[eq]
		if missing <= 0 {
			continue
		}
		s.pendingEquipment[eq] += missing
		s.ctx.Bus.Publish(kernel.TopicEquipmentRequest, kernel.EquipmentRequested{
			Requester:     Construction,
			EquipmentType: eq,
			Quantity:      missing,
		})
	}
}

// startAssemblies reserves shells and equipment for queued jobs and
// hands them to idle assemblers, oldest job first.
func (s *ConstructionSector) startAssemblies() {
	shellsFree := s.stocks.Level(agent.ResourceShells)
	equipFree := map[string]float64{}
	running := 0
	for _, proj := range s.projects {
		if proj.Status == ProjectInProgress {
			running++
		}
	}

	for _, proj := range s.projects {
		if s.cfg.MaxConcurrentProjects > 0 && running >= s.cfg.MaxConcurrentProjects {
			return
		}
		if proj.Status != ProjectQueued {
			continue
		}
		if _, ok := equipFree[proj.EquipmentType]; !ok && proj.EquipmentType != "" {
			equipFree[proj.EquipmentType] = s.stocks.Level(proj.EquipmentType)
		}
		if shellsFree < float64(proj.ShellsNeeded) {
			continue
		}
		if proj.EquipmentType != "" && equipFree[proj.EquipmentType] < 1 {
			continue
		}
		robot := s.idleAssembler()
		if robot == nil {
			return
		}
		robot.StartAssembly(proj.ModuleID)
		proj.Status = ProjectInProgress
		proj.assembler = robot.ID()
		running++
		shellsFree -= float64(proj.ShellsNeeded)
		s.ctx.Ledger.Consume(Construction, agent.ResourceShells, float64(proj.ShellsNeeded))
		if proj.EquipmentType != "" {
			equipFree[proj.EquipmentType]--
			s.ctx.Ledger.Consume(Construction, proj.EquipmentType, 1)
		}
	}
}

func (s *ConstructionSector) idleAssembler() *agent.AssemblyRobot {
	for _, a := range s.assemblers {
		if a.Available() && a.Mode() == agent.ModeIdle {
			return a
		}
	}
	return nil
}

func (s *ConstructionSector) runAssemblers(budget float64) {
	for _, a := range s.assemblers {
		if a.Mode() != agent.ModeActive {
			continue
		}
		powered := budget >= a.PowerDemand()
		if powered {
			budget -= a.PowerDemand()
			s.powerUsed += a.PowerDemand()
		}
		done := a.Step(powered)
		if done == "" {
			continue
		}
		proj := s.projectFor(a.ID(), done)
		if proj == nil {
			continue
		}
		proj.Status = ProjectCompleted
		proj.assembler = ""
		s.completed++
		s.ctx.Bus.Publish(kernel.TopicModuleCompleted, kernel.ModuleCompleted{
			Requester:     proj.Requester,
			ModuleID:      proj.ModuleID,
			EquipmentType: proj.EquipmentType,
		})
	}
}

func (s *ConstructionSector) projectFor(assemblerID, moduleID string) *Project {
	for _, proj := range s.projects {
		if proj.Status == ProjectInProgress && proj.assembler == assemblerID && proj.ModuleID == moduleID {
			return proj
		}
	}
	return nil
}

// Metrics returns the sector's step metrics.
func (s *ConstructionSector) Metrics() map[string]float64 {
	queued, inProgress, done := 0, 0, 0
	for _, proj := range s.projects {
		switch proj.Status {
		case ProjectQueued:
			queued++
		case ProjectInProgress:
			inProgress++
		case ProjectCompleted:
			done++
		}
	}
	m := map[string]float64{
		"projects_queued":      float64(queued),
		"projects_in_progress": float64(inProgress),
		"projects_completed":   float64(done),
		"modules_completed":    float64(s.completed),
		"power_consumed_kwh":   s.powerUsed,
	}
	for res, qty := range s.stocks.Snapshot() {
		m["stock_"+res] = qty
	}
	return m
}

// Contributions returns this step's metric deltas.
func (s *ConstructionSector) Contributions() map[string]float64 { return s.contribs }

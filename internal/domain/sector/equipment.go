package sector

import (
	"fmt"

	"github.com/proximalabs/proxima-go/internal/domain/kernel"
)

// EquipmentConfig configures the equipment manufacturing sector.
type EquipmentConfig struct {
	// InitialInventory is the on-hand equipment per type, in units.
	InitialInventory map[string]float64 `mapstructure:"initial_inventory" json:"initial_inventory"`

	// PayloadKgPerUnit converts equipment units to transport payload
	// mass and back at intake.
	PayloadKgPerUnit float64 `mapstructure:"payload_kg_per_unit" json:"payload_kg_per_unit"`

	// MinimumLevels are per-type safety stocks. Inventory plus units on
	// order is kept at or above these levels.
	MinimumLevels map[string]int `mapstructure:"minimum_levels" json:"minimum_levels"`
}

// equipmentOrder is a backlogged equipment demand.
type equipmentOrder struct {
	requester     string
	equipmentType string
	quantity      int
}

// EquipmentSector stocks specialized equipment and resupplies from
// Earth. Requests it cannot serve from inventory stay backlogged while
// a transport order covers the missing units; pending orders prevent
// duplicate resupply requests for the same shortfall.
type EquipmentSector struct {
	ctx    *kernel.Context
	cfg    EquipmentConfig
	stocks *kernel.StockSet

	backlog   []equipmentOrder
	pending   map[string]int
	nextOrder int

	// arrivedUnits buffers intake between the delivery phase and this
	// step's commit: the ledger credit has not landed yet when resupply
	// runs, so these units count as on hand.
	arrivedUnits map[string]int

	contribs  map[string]float64
	allocated int
	arrived   int
}

// NewEquipmentSector wires the sector and its bus subscriptions.
func NewEquipmentSector(ctx *kernel.Context, cfg EquipmentConfig) *EquipmentSector {
	if cfg.PayloadKgPerUnit <= 0 {
		cfg.PayloadKgPerUnit = 20
	}
	s := &EquipmentSector{
		ctx:          ctx,
		cfg:          cfg,
		stocks:       kernel.NewStockSet(cfg.InitialInventory),
		pending:      map[string]int{},
		arrivedUnits: map[string]int{},
		contribs:     map[string]float64{},
	}
	ctx.Bus.Subscribe(kernel.TopicEquipmentRequest, s.onEquipmentRequest)
	ctx.Bus.Subscribe(kernel.TopicPayloadDelivered, s.onPayloadDelivered)
	return s
}

func (s *EquipmentSector) ID() string               { return Equipment }
func (s *EquipmentSector) Stocks() *kernel.StockSet { return s.stocks }
func (s *EquipmentSector) PowerDemand() float64     { return 0 }

// Backlog returns the number of unserved equipment orders.
func (s *EquipmentSector) Backlog() int { return len(s.backlog) }

// PendingUnits returns the units of a type currently on order.
func (s *EquipmentSector) PendingUnits(equipmentType string) int { return s.pending[equipmentType] }

func (s *EquipmentSector) onEquipmentRequest(ev kernel.Event) {
	req, ok := ev.Payload.(kernel.EquipmentRequested)
	if !ok || req.Quantity <= 0 {
		return
	}
	s.backlog = append(s.backlog, equipmentOrder{
		requester:     req.Requester,
		equipmentType: req.EquipmentType,
		quantity:      req.Quantity,
	})
}

// onPayloadDelivered takes resupply arrivals into physical inventory.
// Only lunar deliveries addressed to this sector count.
func (s *EquipmentSector) onPayloadDelivered(ev kernel.Event) {
	del, ok := ev.Payload.(kernel.PayloadDelivered)
	if !ok || del.Requester != Equipment || del.Destination != kernel.LocationMoon {
		return
	}
	for _, eq := range sortedKeys(del.Payload) {
		units := int(del.Payload[eq] / s.cfg.PayloadKgPerUnit)
		if units <= 0 {
			continue
		}
		s.ctx.Ledger.Produce(Equipment, eq, float64(units))
		s.arrivedUnits[eq] += units
		s.pending[eq] -= units
		if s.pending[eq] < 0 {
			s.pending[eq] = 0
		}
	}
}

// Step serves the order backlog FIFO from inventory and requests
// transport for whatever inventory plus in-transit units cannot cover.
func (s *EquipmentSector) Step(StepInput) {
	s.contribs = map[string]float64{}
	s.allocated = 0
	s.arrived = 0
	for _, n := range s.arrivedUnits {
		s.arrived += n
	}

	s.serveBacklog()
	s.resupply()

	s.arrivedUnits = map[string]int{}
}

func (s *EquipmentSector) serveBacklog() {
	committed := map[string]float64{}
	kept := s.backlog[:0]
	for _, order := range s.backlog {
		qty := float64(order.quantity)
		available := s.stocks.Level(order.equipmentType) - committed[order.equipmentType]
		if available < qty {
			kept = append(kept, order)
			continue
		}
		committed[order.equipmentType] += qty
		s.ctx.Ledger.Transfer(Equipment, order.requester, order.equipmentType, qty)
		s.ctx.Bus.Publish(kernel.TopicEquipmentAllocated, kernel.EquipmentAllocated{
			Recipient:     order.requester,
			EquipmentType: order.equipmentType,
			Quantity:      order.quantity,
		})
		s.allocated += order.quantity
	}
	s.backlog = kept
}

// resupply orders the units that safety stock plus backlog demand
// need beyond inventory and in-transit units. One transport request
// covers each step's shortfall.
func (s *EquipmentSector) resupply() {
	required := map[string]int{}
	for eq, level := range s.cfg.MinimumLevels {
		required[eq] = level
	}
	for _, order := range s.backlog {
		required[order.equipmentType] += order.quantity
	}

	payload := map[string]float64{}
	for _, eq := range sortedKeys(required) {
		missing := required[eq] - int(s.stocks.Level(eq)) - s.arrivedUnits[eq] - s.pending[eq]
		if missing <= 0 {
			continue
		}
		s.pending[eq] += missing
		payload[eq] = float64(missing) * s.cfg.PayloadKgPerUnit
	}
	if len(payload) == 0 {
		return
	}

	s.nextOrder++
	s.ctx.Bus.Publish(kernel.TopicTransportRequest, kernel.TransportRequested{
		RequestID:   fmt.Sprintf("equipment-resupply-%d", s.nextOrder),
		Requester:   Equipment,
		Payload:     payload,
		Origin:      kernel.LocationEarth,
		Destination: kernel.LocationMoon,
	})
}

// Metrics returns the sector's step metrics.
func (s *EquipmentSector) Metrics() map[string]float64 {
	var pendingUnits int
	for _, n := range s.pending {
		pendingUnits += n
	}
	m := map[string]float64{
		"backlog_depth":   float64(len(s.backlog)),
		"units_allocated": float64(s.allocated),
		"units_arrived":   float64(s.arrived),
		"units_pending":   float64(pendingUnits),
	}
	for res, qty := range s.stocks.Snapshot() {
		m["stock_"+res] = qty
	}
	return m
}

// Contributions returns this step's metric deltas.
func (s *EquipmentSector) Contributions() map[string]float64 { return s.contribs }

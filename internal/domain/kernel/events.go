package kernel

// Topic identifies an event stream on the bus. Topics are a closed
// enumeration; sectors never invent topics at runtime.
type Topic string

const (
	TopicConstructionRequest Topic = "construction_request"
	TopicEquipmentRequest    Topic = "equipment_request"
	TopicEquipmentAllocated  Topic = "equipment_allocated"
	TopicTransportRequest    Topic = "transport_request"
	TopicResourceRequest     Topic = "resource_request"
	TopicResourceAllocated   Topic = "resource_allocated"
	TopicPayloadDelivered    Topic = "payload_delivered"
	TopicModuleCompleted     Topic = "module_completed"
)

// Locations for transport missions.
const (
	LocationEarth = "earth"
	LocationMoon  = "moon"
)

// Event is a bus message. Payload is one of the typed payload structs
// below; subscribers type-switch on it.
type Event struct {
	Topic   Topic
	Payload any
}

// ConstructionRequested asks the construction sector to build modules.
type ConstructionRequested struct {
	RequestID string
	Requester string
	ModuleID  string
	Quantity  int
	Shells    int
}

// EquipmentRequested asks the equipment sector for specialized equipment.
type EquipmentRequested struct {
	Requester     string
	EquipmentType string
	Quantity      int
}

// EquipmentAllocated confirms equipment handed to a sector.
type EquipmentAllocated struct {
	Recipient     string
	EquipmentType string
	Quantity      int
}

// TransportRequested asks the transportation sector for an Earth-Moon run.
type TransportRequested struct {
	RequestID   string
	Requester   string
	Payload     map[string]float64
	Origin      string
	Destination string
}

// ResourceRequested asks the manufacturing sector for a raw resource.
type ResourceRequested struct {
	Requester string
	Resource  string
	Amount    float64
}

// ResourceAllocated confirms a resource transfer out of manufacturing.
type ResourceAllocated struct {
	Recipient string
	Resource  string
	Amount    float64
}

// PayloadDelivered announces a rocket arrival. Fire-and-forget; any
// sector interested in the destination drains it from the bus.
type PayloadDelivered struct {
	Requester   string
	Destination string
	Payload     map[string]float64
}

// ModuleCompleted announces a finished construction project.
type ModuleCompleted struct {
	Requester     string
	ModuleID      string
	EquipmentType string
}

package protocol

import "encoding/json"

// Message is the closed set of decoded inbound frames. Consumers switch on
// the concrete type; anything outside the known tag set arrives as Unknown.
//
//sumtype:decl
type Message interface {
	Tag() string
	Stamp() string
	message()
}

// Meta is embedded in every Message.
type Meta struct {
	Type      string `json:"-"`
	Timestamp string `json:"-"`
}

func (m Meta) Tag() string   { return m.Type }
func (m Meta) Stamp() string { return m.Timestamp }
func (Meta) message()        {}

type Connection struct {
	Meta
	Status  string
	Message string
	Clients int
}

// FieldUpdate is a partial field snapshot. Only keys present on the wire
// are Set.
type FieldUpdate struct {
	Meta
	ID        ID
	Crop      Opt[string]
	CropIcon  Opt[string]
	Moisture  Opt[float64]
	Growth    Opt[float64]
	Health    Opt[float64]
	ScanLevel Opt[float64]
	Stage     Opt[string]
	Sprinkler Opt[bool]
	Disease   Opt[string]
	Planted   Opt[bool]
}

type MoistureReading struct {
	Meta
	Field     ID
	Moisture  float64
	Threshold Opt[float64]
}

// DroneStatus covers the DRONE_* lifecycle tags; Tag() tells them apart.
type DroneStatus struct {
	Meta
	Drone string
	Field ID
	To    ID
}

// Movement is DRONE_MOVE (harvesters and drones) or AGENT_MOVE.
type Movement struct {
	Meta
	Agent string
	From  ID
	To    ID
	State string
}

type AgentUpdate struct {
	Meta
	ID       string
	Kind     Opt[string]
	Battery  Opt[float64]
	Location Opt[string]
	Status   Opt[string]
	Busy     Opt[bool]
}

type HarvestComplete struct {
	Meta
	Field  ID
	Crop   string
	Amount float64
}

// SupplierEvent is SUPPLIER_PROPOSAL, SUPPLIER_WON or SUPPLIER_LOST.
type SupplierEvent struct {
	Meta
	Supplier string
	Price    float64
}

type SupplierStanding struct {
	Name   string
	Budget Opt[float64]
	Spent  float64
	Wins   int
}

type SupplierRoster struct {
	Meta
	Suppliers []SupplierStanding
}

type AuctionStart struct {
	Meta
	Suppliers int
	Message   string
}

type AuctionProposal struct {
	Meta
	Supplier string
	Price    float64
}

type Bid struct {
	Supplier string  `json:"supplier"`
	Amount   float64 `json:"bid"`
}

type AuctionAccept struct {
	Meta
	Bids       []Bid
	Winner     string
	WinningBid float64
	Payment    float64
}

type AuctionReject struct {
	Meta
	Supplier string
}

type BDIUpdate struct {
	Meta
	Beliefs    []string
	Desires    []string
	Intentions []string
}

type EconomyUpdate struct {
	Meta
	Income   float64
	Expenses float64
}

type PredictionUpdate struct {
	Meta
	Prediction float64
	Confidence float64
	Samples    int
}

type WeatherUpdate struct {
	Meta
	Condition   string
	Icon        string
	Evaporation float64
	RainChance  float64
}

type TimeUpdate struct {
	Meta
	Day     int
	Hour    int
	Display string
}

type InventoryUpdate struct {
	Meta
	Water     float64
	Fungicide float64
	Seeds     float64
	Crops     float64
	Money     float64
}

// AgentLifecycle is AGENT_START or AGENT_STOP.
type AgentLifecycle struct {
	Meta
	Agent string
	Kind  string
}

type Interaction struct {
	Meta
	From        string
	FromType    string
	To          string
	ToType      string
	MessageType string
	Content     string
	Step        int
}

type SensorAlert struct {
	Meta
	Field   ID
	Kind    string
	Value   float64
	Message string
}

type LogNotice struct {
	Meta
	Message string
}

// Unknown carries a frame whose tag is not recognised.
type Unknown struct {
	Meta
	Data json.RawMessage
}

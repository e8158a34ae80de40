package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Inbound message tags.
const (
	TypeConnection = "CONNECTION"
	TypeConnected  = "CONNECTED"

	TypeFieldUpdate     = "FIELD_UPDATE"
	TypeMoistureReading = "MOISTURE_READING"

	TypeDroneDispatch         = "DRONE_DISPATCH"
	TypeDroneMoving           = "DRONE_MOVING"
	TypeDroneArrived          = "DRONE_ARRIVED"
	TypeDroneInspecting       = "DRONE_INSPECTING"
	TypeDroneInspectionDone   = "DRONE_INSPECTION_DONE"
	TypeDroneReturning        = "DRONE_RETURNING"
	TypeDroneConfirmationSent = "DRONE_CONFIRMATION_SENT"

	TypeDroneMove   = "DRONE_MOVE"
	TypeAgentMove   = "AGENT_MOVE"
	TypeAgentUpdate = "AGENT_UPDATE"

	TypeHarvestComplete = "HARVEST_COMPLETE"

	TypeSupplierProposal = "SUPPLIER_PROPOSAL"
	TypeSupplierWon      = "SUPPLIER_WON"
	TypeSupplierLost     = "SUPPLIER_LOST"
	TypeSupplierUpdate   = "SUPPLIER_UPDATE"

	TypeCNPStart    = "CNP_START"
	TypeCNPProposal = "CNP_PROPOSAL"
	TypeCNPAccept   = "CNP_ACCEPT"
	TypeCNPReject   = "CNP_REJECT"

	TypeBDIUpdate        = "BDI_UPDATE"
	TypeEconomyUpdate    = "ECONOMY_UPDATE"
	TypePredictionUpdate = "PREDICTION_UPDATE"
	TypeWeatherUpdate    = "WEATHER_UPDATE"
	TypeTimeUpdate       = "TIME_UPDATE"
	TypeInventoryUpdate  = "INVENTORY_UPDATE"

	TypeAgentStart = "AGENT_START"
	TypeAgentStop  = "AGENT_STOP"

	TypeAgentInteraction = "AGENT_INTERACTION"
	TypeSensorAlert      = "SENSOR_ALERT"
	TypeLog              = "LOG"

	// Outbound.
	TypeCommand = "COMMAND"
)

var ErrEmptyFrame = errors.New("empty frame")

// Envelope is the outer shape of every inbound frame.
type Envelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`

	// Some handshake frames carry their text at the top level.
	Message string `json:"message,omitempty"`
}

func DecodeEnvelope(b []byte) (Envelope, error) {
	var e Envelope
	if len(bytes.TrimSpace(b)) == 0 {
		return e, ErrEmptyFrame
	}
	err := json.Unmarshal(b, &e)
	return e, err
}

// DecodeError reports a frame that could not be turned into a Message.
// Tag is empty when the envelope itself was unreadable.
type DecodeError struct {
	Tag string
	Err error
}

func (e *DecodeError) Error() string {
	if e.Tag == "" {
		return "decode frame: " + e.Err.Error()
	}
	return "decode " + e.Tag + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }

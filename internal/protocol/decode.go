package protocol

import (
	"encoding/json"
	"errors"
	"strings"
)

var (
	errMissingType = errors.New("missing type")
	errMissingData = errors.New("missing data")
	errMissingID   = errors.New("missing id")
)

type decodeFn func(m Meta, env Envelope) (Message, error)

var decoders = map[string]decodeFn{
	TypeConnection: decodeConnection,
	TypeConnected:  decodeConnection,

	TypeFieldUpdate:     decodeFieldUpdate,
	TypeMoistureReading: decodeMoisture,

	TypeDroneDispatch:         decodeDroneStatus,
	TypeDroneMoving:           decodeDroneStatus,
	TypeDroneArrived:          decodeDroneStatus,
	TypeDroneInspecting:       decodeDroneStatus,
	TypeDroneInspectionDone:   decodeDroneStatus,
	TypeDroneReturning:        decodeDroneStatus,
	TypeDroneConfirmationSent: decodeDroneStatus,

	TypeDroneMove:   decodeMovement,
	TypeAgentMove:   decodeMovement,
	TypeAgentUpdate: decodeAgentUpdate,

	TypeHarvestComplete: decodeHarvest,

	TypeSupplierProposal: decodeSupplierEvent,
	TypeSupplierWon:      decodeSupplierEvent,
	TypeSupplierLost:     decodeSupplierEvent,
	TypeSupplierUpdate:   decodeSupplierRoster,

	TypeCNPStart:    decodeAuctionStart,
	TypeCNPProposal: decodeAuctionProposal,
	TypeCNPAccept:   decodeAuctionAccept,
	TypeCNPReject:   decodeAuctionReject,

	TypeBDIUpdate:        decodeBDI,
	TypeEconomyUpdate:    decodeEconomy,
	TypePredictionUpdate: decodePrediction,
	TypeWeatherUpdate:    decodeWeather,
	TypeTimeUpdate:       decodeTime,
	TypeInventoryUpdate:  decodeInventory,

	TypeAgentStart: decodeLifecycle,
	TypeAgentStop:  decodeLifecycle,

	TypeAgentInteraction: decodeInteraction,
	TypeSensorAlert:      decodeSensorAlert,
	TypeLog:              decodeLog,
}

// Known reports whether tag is part of the inbound vocabulary.
func Known(tag string) bool {
	_, ok := decoders[tag]
	return ok
}

// Decode parses one inbound frame. Unrecognised tags yield Unknown with a
// nil error; malformed frames and payloads yield a *DecodeError.
func Decode(frame []byte) (Message, error) {
	env, err := DecodeEnvelope(frame)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	tag := strings.TrimSpace(env.Type)
	if tag == "" {
		return nil, &DecodeError{Err: errMissingType}
	}
	meta := Meta{Type: tag, Timestamp: env.Timestamp}
	dec, ok := decoders[tag]
	if !ok {
		return Unknown{Meta: meta, Data: env.Data}, nil
	}
	msg, err := dec(meta, env)
	if err != nil {
		return nil, &DecodeError{Tag: tag, Err: err}
	}
	return msg, nil
}

func payload[T any](env Envelope) (T, error) {
	var v T
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return v, errMissingData
	}
	err := json.Unmarshal(env.Data, &v)
	return v, err
}

func decodeConnection(m Meta, env Envelope) (Message, error) {
	var w struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Clients int    `json:"clients"`
	}
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
	}
	return Connection{
		Meta:    m,
		Status:  w.Status,
		Message: firstString(w.Message, env.Message),
		Clients: w.Clients,
	}, nil
}

func decodeFieldUpdate(m Meta, env Envelope) (Message, error) {
	w, err := payload[struct {
		ID        ID           `json:"id"`
		FieldID   ID           `json:"fieldId"`
		Crop      Opt[string]  `json:"crop"`
		CropIcon  Opt[string]  `json:"cropIcon"`
		Moisture  Opt[float64] `json:"moisture"`
		Growth    Opt[float64] `json:"growth"`
		Health    Opt[float64] `json:"health"`
		ScanLevel Opt[float64] `json:"scanLevel"`
		Stage     Opt[string]  `json:"stage"`
		Sprinkler Opt[bool]    `json:"sprinklerOn"`
		Disease   Opt[string]  `json:"disease"`
		Planted   Opt[bool]    `json:"planted"`
	}](env)
	if err != nil {
		return nil, err
	}
	id := firstID(w.ID, w.FieldID)
	if id == "" {
		return nil, errMissingID
	}
	return FieldUpdate{
		Meta:      m,
		ID:        id,
		Crop:      w.Crop,
		CropIcon:  w.CropIcon,
		Moisture:  w.Moisture,
		Growth:    w.Growth,
		Health:    w.Health,
		ScanLevel: w.ScanLevel,
		Stage:     w.Stage,
		Sprinkler: w.Sprinkler,
		Disease:   w.Disease,
		Planted:   w.Planted,
	}, nil
}

func decodeMoisture(m Meta, env Envelope) (Message, error) {
	w, err := payload[struct {
		FieldID   ID           `json:"fieldId"`
		ID        ID           `json:"id"`
		Moisture  Opt[float64] `json:"moisture"`
		Value     Opt[float64] `json:"value"`
		Threshold Opt[float64] `json:"threshold"`
	}](env)
	if err != nil {
		return nil, err
	}
	id := firstID(w.FieldID, w.ID)
	if id == "" {
		return nil, errMissingID
	}
	v, ok := firstNum(w.Moisture, w.Value).Get()
	if !ok {
		return nil, errors.New("missing moisture")
	}
	return MoistureReading{Meta: m, Field: id, Moisture: v, Threshold: w.Threshold}, nil
}

func decodeDroneStatus(m Meta, env Envelope) (Message, error) {
	w, err := payload[struct {
		DroneID string `json:"droneId"`
		Drone   string `json:"drone"`
		FieldID ID     `json:"fieldId"`
		Target  ID     `json:"target"`
		To      ID     `json:"to"`
	}](env)
	if err != nil {
		return nil, err
	}
	drone := firstString(w.DroneID, w.Drone)
	if drone == "" {
		return nil, errors.New("missing drone")
	}
	return DroneStatus{Meta: m, Drone: drone, Field: firstID(w.FieldID, w.Target), To: w.To}, nil
}

func decodeMovement(m Meta, env Envelope) (Message, error) {
	w, err := payload[struct {
		DroneID string `json:"droneId"`
		Agent   string `json:"agent"`
		From    ID     `json:"from"`
		To      ID     `json:"to"`
		State   string `json:"state"`
	}](env)
	if err != nil {
		return nil, err
	}
	agent := firstString(w.DroneID, w.Agent)
	if agent == "" {
		return nil, errors.New("missing agent")
	}
	return Movement{Meta: m, Agent: agent, From: w.From, To: w.To, State: w.State}, nil
}

func decodeAgentUpdate(m Meta, env Envelope) (Message, error) {
	w, err := payload[struct {
		ID       ID           `json:"id"`
		Type     Opt[string]  `json:"type"`
		Battery  Opt[float64] `json:"battery"`
		Location Opt[string]  `json:"location"`
		Status   Opt[string]  `json:"status"`
		Busy     Opt[bool]    `json:"busy"`
	}](env)
	if err != nil {
		return nil, err
	}
	if w.ID == "" {
		return nil, errMissingID
	}
	return AgentUpdate{
		Meta:     m,
		ID:       string(w.ID),
		Kind:     w.Type,
		Battery:  w.Battery,
		Location: w.Location,
		Status:   w.Status,
		Busy:     w.Busy,
	}, nil
}

func decodeHarvest(m Meta, env Envelope) (Message, error) {
	w, err := payload[struct {
		FieldID ID           `json:"fieldId"`
		Crop    string       `json:"crop"`
		Amount  Opt[float64] `json:"amount"`
		Value   Opt[float64] `json:"value"`
	}](env)
	if err != nil {
		return nil, err
	}
	return HarvestComplete{
		Meta:   m,
		Field:  w.FieldID,
		Crop:   w.Crop,
		Amount: firstNum(w.Amount, w.Value).Or(0),
	}, nil
}

type supplierWire struct {
	Supplier   string       `json:"supplier"`
	SupplierID string       `json:"supplierId"`
	Price      Opt[float64] `json:"price"`
	Bid        Opt[float64] `json:"bid"`
}

func (w supplierWire) resolve() (string, float64, error) {
	name := firstString(w.Supplier, w.SupplierID)
	if name == "" {
		return "", 0, errors.New("missing supplier")
	}
	return name, firstNum(w.Price, w.Bid).Or(0), nil
}

func decodeSupplierEvent(m Meta, env Envelope) (Message, error) {
	w, err := payload[supplierWire](env)
	if err != nil {
		return nil, err
	}
	name, price, err := w.resolve()
	if err != nil {
		return nil, err
	}
	return SupplierEvent{Meta: m, Supplier: name, Price: price}, nil
}

func decodeSupplierRoster(m Meta, env Envelope) (Message, error) {
	w, err := payload[[]struct {
		Name       string       `json:"name"`
		ID         string       `json:"id"`
		Budget     Opt[float64] `json:"budget"`
		Spent      Opt[float64] `json:"spent"`
		TotalSpent Opt[float64] `json:"totalSpent"`
		Wins       int          `json:"wins"`
	}](env)
	if err != nil {
		return nil, err
	}
	out := SupplierRoster{Meta: m, Suppliers: make([]SupplierStanding, 0, len(w))}
	for _, s := range w {
		name := firstString(s.Name, s.ID)
		if name == "" {
			continue
		}
		out.Suppliers = append(out.Suppliers, SupplierStanding{
			Name:   name,
			Budget: s.Budget,
			Spent:  firstNum(s.Spent, s.TotalSpent).Or(0),
			Wins:   s.Wins,
		})
	}
	return out, nil
}

func decodeAuctionStart(m Meta, env Envelope) (Message, error) {
	w, err := payload[struct {
		Suppliers int    `json:"suppliers"`
		Message   string `json:"message"`
	}](env)
	if err != nil {
		return nil, err
	}
	return AuctionStart{Meta: m, Suppliers: w.Suppliers, Message: w.Message}, nil
}

func decodeAuctionProposal(m Meta, env Envelope) (Message, error) {
	w, err := payload[supplierWire](env)
	if err != nil {
		return nil, err
	}
	name, price, err := w.resolve()
	if err != nil {
		return nil, err
	}
	return AuctionProposal{Meta: m, Supplier: name, Price: price}, nil
}

// CNP_ACCEPT comes in a full form (bids, winner, winningBid, payment) and a
// short form (supplier, price).
func decodeAuctionAccept(m Meta, env Envelope) (Message, error) {
	w, err := payload[struct {
		Bids       []Bid        `json:"bids"`
		Winner     string       `json:"winner"`
		WinningBid Opt[float64] `json:"winningBid"`
		Payment    Opt[float64] `json:"payment"`
		Supplier   string       `json:"supplier"`
		Price      Opt[float64] `json:"price"`
	}](env)
	if err != nil {
		return nil, err
	}
	winner := firstString(w.Winner, w.Supplier)
	if winner == "" {
		return nil, errors.New("missing winner")
	}
	bid := firstNum(w.WinningBid, w.Price, w.Payment)
	return AuctionAccept{
		Meta:       m,
		Bids:       w.Bids,
		Winner:     winner,
		WinningBid: bid.Or(0),
		Payment:    firstNum(w.Payment, bid).Or(0),
	}, nil
}

func decodeAuctionReject(m Meta, env Envelope) (Message, error) {
	w, err := payload[supplierWire](env)
	if err != nil {
		return nil, err
	}
	name, _, err := w.resolve()
	if err != nil {
		return nil, err
	}
	return AuctionReject{Meta: m, Supplier: name}, nil
}

func decodeBDI(m Meta, env Envelope) (Message, error) {
	w, err := payload[struct {
		Beliefs    []string `json:"beliefs"`
		Desires    []string `json:"desires"`
		Intentions []string `json:"intentions"`
	}](env)
	if err != nil {
		return nil, err
	}
	return BDIUpdate{Meta: m, Beliefs: w.Beliefs, Desires: w.Desires, Intentions: w.Intentions}, nil
}

func decodeEconomy(m Meta, env Envelope) (Message, error) {
	w, err := payload[struct {
		Income   float64 `json:"income"`
		Expenses float64 `json:"expenses"`
	}](env)
	if err != nil {
		return nil, err
	}
	return EconomyUpdate{Meta: m, Income: w.Income, Expenses: w.Expenses}, nil
}

func decodePrediction(m Meta, env Envelope) (Message, error) {
	w, err := payload[struct {
		Prediction float64 `json:"prediction"`
		Confidence float64 `json:"confidence"`
		Samples    int     `json:"samples"`
	}](env)
	if err != nil {
		return nil, err
	}
	return PredictionUpdate{Meta: m, Prediction: w.Prediction, Confidence: w.Confidence, Samples: w.Samples}, nil
}

func decodeWeather(m Meta, env Envelope) (Message, error) {
	w, err := payload[struct {
		Condition   string  `json:"condition"`
		Weather     string  `json:"weather"`
		Name        string  `json:"name"`
		Icon        string  `json:"icon"`
		Emoji       string  `json:"emoji"`
		Evaporation float64 `json:"evaporation"`
		RainChance  float64 `json:"rainChance"`
	}](env)
	if err != nil {
		return nil, err
	}
	return WeatherUpdate{
		Meta:        m,
		Condition:   firstString(w.Condition, w.Weather, w.Name),
		Icon:        firstString(w.Icon, w.Emoji),
		Evaporation: w.Evaporation,
		RainChance:  w.RainChance,
	}, nil
}

func decodeTime(m Meta, env Envelope) (Message, error) {
	w, err := payload[struct {
		Day     int    `json:"day"`
		Hour    int    `json:"hour"`
		Display string `json:"display"`
	}](env)
	if err != nil {
		return nil, err
	}
	return TimeUpdate{Meta: m, Day: w.Day, Hour: w.Hour, Display: w.Display}, nil
}

func decodeInventory(m Meta, env Envelope) (Message, error) {
	w, err := payload[struct {
		Water     float64 `json:"water"`
		Fungicide float64 `json:"fungicide"`
		Seeds     float64 `json:"seeds"`
		Crops     float64 `json:"crops"`
		Money     float64 `json:"money"`
	}](env)
	if err != nil {
		return nil, err
	}
	return InventoryUpdate{
		Meta:      m,
		Water:     w.Water,
		Fungicide: w.Fungicide,
		Seeds:     w.Seeds,
		Crops:     w.Crops,
		Money:     w.Money,
	}, nil
}

func decodeLifecycle(m Meta, env Envelope) (Message, error) {
	w, err := payload[struct {
		Agent string `json:"agent"`
		Type  string `json:"type"`
	}](env)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(w.Agent) == "" {
		return nil, errors.New("missing agent")
	}
	return AgentLifecycle{Meta: m, Agent: strings.TrimSpace(w.Agent), Kind: w.Type}, nil
}

func decodeInteraction(m Meta, env Envelope) (Message, error) {
	w, err := payload[struct {
		From        string `json:"from"`
		FromType    string `json:"fromType"`
		To          string `json:"to"`
		ToType      string `json:"toType"`
		MessageType string `json:"messageType"`
		Content     string `json:"content"`
		Step        int    `json:"step"`
	}](env)
	if err != nil {
		return nil, err
	}
	return Interaction{
		Meta:        m,
		From:        w.From,
		FromType:    w.FromType,
		To:          w.To,
		ToType:      w.ToType,
		MessageType: w.MessageType,
		Content:     w.Content,
		Step:        w.Step,
	}, nil
}

func decodeSensorAlert(m Meta, env Envelope) (Message, error) {
	w, err := payload[struct {
		FieldID ID      `json:"fieldId"`
		Type    string  `json:"type"`
		Value   float64 `json:"value"`
		Message string  `json:"message"`
	}](env)
	if err != nil {
		return nil, err
	}
	return SensorAlert{Meta: m, Field: w.FieldID, Kind: w.Type, Value: w.Value, Message: w.Message}, nil
}

func decodeLog(m Meta, env Envelope) (Message, error) {
	var w struct {
		Message string `json:"message"`
	}
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, err
		}
	}
	msg := firstString(w.Message, env.Message)
	if msg == "" {
		return nil, errors.New("missing message")
	}
	return LogNotice{Meta: m, Message: msg}, nil
}

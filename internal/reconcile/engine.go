package reconcile

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"farmview.ai/internal/history"
	"farmview.ai/internal/protocol"
	"farmview.ai/internal/store"
)

type Options struct {
	Logger *slog.Logger
	Now    func() time.Time
}

// Engine routes decoded frames to handlers that update the store and the
// history buffers. Handlers never fail: payloads that make no sense are
// dropped. Not safe for concurrent use.
type Engine struct {
	st   *store.Store
	hist *history.Buffers
	log  *slog.Logger
	now  func() time.Time

	stats Stats
}

type Stats struct {
	Frames       uint64
	DecodeErrors uint64
	Unknown      uint64
	ByTag        map[string]uint64
}

// Outcome describes what Dispatch did with one frame.
type Outcome struct {
	Tag     string
	Err     error
	Unknown bool
}

func New(st *store.Store, hist *history.Buffers, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		st:    st,
		hist:  hist,
		log:   opts.Logger,
		now:   opts.Now,
		stats: Stats{ByTag: map[string]uint64{}},
	}
}

func (e *Engine) Store() store.Reader       { return e.st }
func (e *Engine) History() *history.Buffers { return e.hist }
func (e *Engine) Balance() float64          { return e.st.Aggregates().Balance() }

func (e *Engine) Stats() Stats {
	s := e.stats
	s.ByTag = make(map[string]uint64, len(e.stats.ByTag))
	for k, v := range e.stats.ByTag {
		s.ByTag[k] = v
	}
	return s
}

// Dispatch decodes one frame and applies it.
func (e *Engine) Dispatch(frame []byte) Outcome {
	e.stats.Frames++
	msg, err := protocol.Decode(frame)
	if err != nil {
		e.stats.DecodeErrors++
		e.log.Warn("decode failed", "err", err)
		e.hist.Append(history.System, e.now(), history.CatError, "Decode error: "+err.Error())
		out := Outcome{Err: err}
		var de *protocol.DecodeError
		if errors.As(err, &de) {
			out.Tag = de.Tag
		}
		return out
	}
	e.Apply(msg)
	_, unknown := msg.(protocol.Unknown)
	return Outcome{Tag: msg.Tag(), Unknown: unknown}
}

// Apply routes an already decoded message to its handler.
func (e *Engine) Apply(msg protocol.Message) {
	at := protocol.OccurredAt(msg, e.now())
	switch m := msg.(type) {
	case protocol.Connection:
		e.onConnection(m, at)
	case protocol.FieldUpdate:
		e.onFieldUpdate(m)
	case protocol.MoistureReading:
		e.onMoisture(m)
	case protocol.DroneStatus:
		e.onDroneStatus(m, at)
	case protocol.Movement:
		e.onMovement(m, at)
	case protocol.AgentUpdate:
		e.onAgentUpdate(m)
	case protocol.AgentLifecycle:
		e.onLifecycle(m, at)
	case protocol.HarvestComplete:
		e.onHarvest(m, at)
	case protocol.SupplierEvent:
		e.onSupplierEvent(m, at)
	case protocol.SupplierRoster:
		e.onSupplierRoster(m)
	case protocol.AuctionStart:
		e.onAuctionStart(m, at)
	case protocol.AuctionProposal:
		e.onAuctionProposal(m, at)
	case protocol.AuctionAccept:
		e.onAuctionAccept(m, at)
	case protocol.AuctionReject:
		e.onAuctionReject(m)
	case protocol.BDIUpdate:
		e.st.ReplaceBDI(store.BDI{Beliefs: m.Beliefs, Desires: m.Desires, Intentions: m.Intentions})
	case protocol.EconomyUpdate:
		e.st.ReplaceEconomy(store.Economy{Income: m.Income, Expenses: m.Expenses})
	case protocol.PredictionUpdate:
		e.st.ReplacePrediction(store.Prediction{Liters: m.Prediction, Confidence: m.Confidence, Samples: m.Samples})
	case protocol.WeatherUpdate:
		e.onWeather(m, at)
	case protocol.TimeUpdate:
		e.st.ReplaceClock(store.Clock{Day: m.Day, Hour: m.Hour, Display: m.Display})
	case protocol.InventoryUpdate:
		e.st.ReplaceInventory(store.Inventory{
			Water:     m.Water,
			Fungicide: m.Fungicide,
			Seeds:     m.Seeds,
			Crops:     m.Crops,
			Money:     m.Money,
		})
	case protocol.Interaction:
		e.onInteraction(m, at)
	case protocol.SensorAlert:
		e.onSensorAlert(m, at)
	case protocol.LogNotice:
		e.hist.Append(history.System, at, history.CatMessage, m.Message)
	case protocol.Unknown:
		e.stats.Unknown++
		e.log.Debug("unknown message", "type", m.Tag())
		return
	default:
		e.log.Debug("unhandled message", "type", msg.Tag())
		return
	}
	e.stats.ByTag[msg.Tag()]++
}

// Notef appends a locally generated line, e.g. connection or purchase
// notices from the session.
func (e *Engine) Notef(ch history.Channel, category, format string, args ...any) {
	e.hist.Appendf(ch, e.now(), category, format, args...)
}

func (e *Engine) onConnection(m protocol.Connection, at time.Time) {
	text := m.Message
	if text == "" {
		text = "Connected to simulation"
	}
	if m.Clients > 0 {
		e.hist.Appendf(history.System, at, history.CatSuccess, "%s (%d clients)", text, m.Clients)
		return
	}
	e.hist.Append(history.System, at, history.CatSuccess, text)
}

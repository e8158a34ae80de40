package reconcile

import (
	"strings"
	"time"

	"farmview.ai/internal/history"
	"farmview.ai/internal/protocol"
	"farmview.ai/internal/store"
)

const basePlace = "Base"

func ptr[T any](v T) *T { return &v }

func (e *Engine) onDroneStatus(m protocol.DroneStatus, at time.Time) {
	kind := store.KindDrone
	p := store.AgentPatch{Kind: &kind}
	field := string(m.Field)

	switch m.Tag() {
	case protocol.TypeDroneDispatch:
		p.Status = ptr("dispatched")
		if field != "" {
			p.Target = ptr(store.FieldID(field))
		}
		e.hist.Appendf(history.Drone, at, history.CatDispatch, "%s -> Field %s", m.Drone, orUnknown(field))
	case protocol.TypeDroneMoving:
		p.Status = ptr("flying")
		p.Location = ptr(store.Location{})
		dest := string(m.To)
		if dest == "" {
			dest = field
		}
		if dest != "" {
			p.Target = ptr(store.FieldID(dest))
		}
		e.hist.Appendf(history.Drone, at, history.CatFlying, "%s flying to Field %s", m.Drone, orUnknown(dest))
	case protocol.TypeDroneArrived:
		p.Status = ptr("arrived")
		if field == "" {
			if a, ok := e.st.Agent(m.Drone); ok {
				field = string(a.Target)
			}
		}
		if field != "" {
			p.Location = ptr(store.AtField(store.FieldID(field)))
		}
		e.hist.Appendf(history.Drone, at, history.CatArrive, "%s arrived at Field %s", m.Drone, orUnknown(field))
	case protocol.TypeDroneInspecting:
		p.Status = ptr("scanning")
		e.hist.Appendf(history.Drone, at, history.CatScan, "%s scanning Field %s...", m.Drone, orUnknown(field))
	case protocol.TypeDroneInspectionDone:
		p.Status = ptr("done")
		e.hist.Appendf(history.Drone, at, history.CatComplete, "%s inspection complete", m.Drone)
	case protocol.TypeDroneReturning:
		p.Status = ptr("returning")
		p.Target = ptr(store.FieldID(""))
		p.Location = ptr(store.Location{})
		e.hist.Appendf(history.Drone, at, history.CatReturn, "%s returning to base", m.Drone)
	case protocol.TypeDroneConfirmationSent:
		p.Status = ptr("idle")
		p.Location = ptr(store.AtPlace(basePlace))
	}
	e.st.UpsertAgent(m.Drone, p)
}

// onMovement handles DRONE_MOVE (used for harvesters) and AGENT_MOVE. An
// agent that is driving or returning is in transit towards To; any other
// state means it is at To.
func (e *Engine) onMovement(m protocol.Movement, at time.Time) {
	kind := store.InferKind("", m.Agent)
	p := store.AgentPatch{Kind: &kind}
	to := store.ParseLocation(string(m.To))
	state := strings.ToLower(strings.TrimSpace(m.State))
	if state != "" {
		p.Status = ptr(state)
	}

	switch state {
	case "driving", "returning", "flying":
		p.Location = ptr(store.Location{})
		p.Target = ptr(to.Field)
	default:
		p.Location = &to
		p.Target = ptr(store.FieldID(""))
	}
	e.st.UpsertAgent(m.Agent, p)

	switch state {
	case "driving":
		e.hist.Appendf(channelFor(kind), at, history.CatDriving, "%s -> %s", m.Agent, to)
	case "":
		from := store.ParseLocation(string(m.From))
		e.hist.Appendf(channelFor(kind), at, history.CatMove, "%s moving: %s -> %s", m.Agent, from, to)
	}
}

func (e *Engine) onAgentUpdate(m protocol.AgentUpdate) {
	p := store.AgentPatch{
		Status:  m.Status.Ptr(),
		Battery: m.Battery.Ptr(),
		Busy:    m.Busy.Ptr(),
	}
	if typ, ok := m.Kind.Get(); ok {
		k := store.InferKind(typ, m.ID)
		p.Kind = &k
	}
	if raw, ok := m.Location.Get(); ok {
		loc := store.ParseLocation(raw)
		p.Location = &loc
	} else if m.Location.Null {
		p.Location = ptr(store.Location{})
	}
	e.st.UpsertAgent(m.ID, p)
}

func (e *Engine) onLifecycle(m protocol.AgentLifecycle, at time.Time) {
	kind := store.InferKind(m.Kind, m.Agent)
	if m.Tag() == protocol.TypeAgentStop {
		e.st.UpsertAgent(m.Agent, store.AgentPatch{Active: ptr(false)})
		e.hist.Appendf(history.System, at, history.CatSystem, "%s stopped", m.Agent)
		return
	}
	e.st.UpsertAgent(m.Agent, store.AgentPatch{
		Kind:   &kind,
		Status: ptr("idle"),
		Active: ptr(true),
	})
	if kind == store.KindSupplier {
		e.st.UpsertCounterparty(m.Agent, store.CounterpartyPatch{})
	}
	e.hist.Appendf(history.System, at, history.CatSystem, "%s started", m.Agent)
}

func channelFor(k store.AgentKind) history.Channel {
	switch k {
	case store.KindDrone:
		return history.Drone
	case store.KindHarvester:
		return history.Harvester
	case store.KindSupplier:
		return history.Market
	default:
		return history.System
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}

package view

import (
	"sort"
	"strings"

	"farmview.ai/internal/conn"
	"farmview.ai/internal/history"
	"farmview.ai/internal/store"
)

// Sink renders view models. created is true the first time an id is
// handed over and false on every later change.
type Sink interface {
	Field(f store.Field, occupants []string, created bool)
	Agent(a store.Agent, created bool)
	Counterparty(c store.Counterparty, created bool)
	Aggregates(a store.Aggregates)
	Log(e history.Entry)
	Status(s conn.State, detail string)
}

// Materializer remembers what it last handed to the sink and forwards only
// the differences.
type Materializer struct {
	sink Sink

	fields  map[store.FieldID]fieldMark
	agents  map[string]uint64
	parties map[string]uint64
	aggRev  uint64
	logSeq  uint64

	status    conn.State
	statusSet bool
}

type fieldMark struct {
	rev       uint64
	occupants string
}

func NewMaterializer(sink Sink) *Materializer {
	return &Materializer{
		sink:    sink,
		fields:  map[store.FieldID]fieldMark{},
		agents:  map[string]uint64{},
		parties: map[string]uint64{},
	}
}

// Sync pushes every entity whose revision moved since the previous call,
// then any history entries appended since.
func (m *Materializer) Sync(r store.Reader, h *history.Buffers) {
	for _, f := range r.Fields() {
		occ := r.Occupants(f.ID)
		mark := fieldMark{rev: r.Revision(store.KindField, string(f.ID)), occupants: strings.Join(occ, ",")}
		prev, seen := m.fields[f.ID]
		if seen && prev == mark {
			continue
		}
		m.fields[f.ID] = mark
		m.sink.Field(f, occ, !seen)
	}
	for _, a := range r.Agents() {
		rev := r.Revision(store.KindAgent, a.ID)
		prev, seen := m.agents[a.ID]
		if seen && prev == rev {
			continue
		}
		m.agents[a.ID] = rev
		m.sink.Agent(a, !seen)
	}
	for _, c := range r.Counterparties() {
		rev := r.Revision(store.KindCounterparty, c.Name)
		prev, seen := m.parties[c.Name]
		if seen && prev == rev {
			continue
		}
		m.parties[c.Name] = rev
		m.sink.Counterparty(c, !seen)
	}
	if rev := r.AggregatesRevision(); rev != m.aggRev {
		m.aggRev = rev
		m.sink.Aggregates(r.Aggregates())
	}
	if h != nil && h.Seq() != m.logSeq {
		var fresh []history.Entry
		for _, ch := range history.Channels() {
			fresh = append(fresh, h.Since(ch, m.logSeq)...)
		}
		sort.SliceStable(fresh, func(i, j int) bool { return fresh[i].Seq < fresh[j].Seq })
		for _, e := range fresh {
			m.sink.Log(e)
		}
		m.logSeq = h.Seq()
	}
}

// SetStatus forwards connection state changes; repeats are dropped.
func (m *Materializer) SetStatus(s conn.State, detail string) {
	if m.statusSet && m.status == s {
		return
	}
	m.status, m.statusSet = s, true
	m.sink.Status(s, detail)
}

// Known reports how many ids of each kind have been handed to the sink.
func (m *Materializer) Known() (fields, agents, parties int) {
	return len(m.fields), len(m.agents), len(m.parties)
}

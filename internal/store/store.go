package store

import (
	"reflect"
	"sort"
)

// Reader is the read-only face of the store handed to views.
type Reader interface {
	Field(id FieldID) (Field, bool)
	Fields() []Field
	Agent(id string) (Agent, bool)
	Agents() []Agent
	Counterparty(name string) (Counterparty, bool)
	Counterparties() []Counterparty
	Occupants(id FieldID) []string
	Aggregates() Aggregates
	Revision(kind Kind, id string) uint64
	AggregatesRevision() uint64
}

type Kind string

const (
	KindField        Kind = "field"
	KindAgent        Kind = "agent"
	KindCounterparty Kind = "counterparty"
)

// Store keeps one snapshot per entity and the aggregate values. It is
// owned by a single goroutine and does no locking.
type Store struct {
	fields  table[Field]
	agents  table[Agent]
	parties table[Counterparty]

	occupants map[FieldID]map[string]struct{}

	agg    Aggregates
	aggRev uint64
}

func New() *Store {
	return &Store{
		fields:    newTable[Field](),
		agents:    newTable[Agent](),
		parties:   newTable[Counterparty](),
		occupants: map[FieldID]map[string]struct{}{},
	}
}

// UpsertField merges p into field id, creating a default field first.
func (s *Store) UpsertField(id FieldID, p FieldPatch) Field {
	cur, ok := s.fields.get(string(id))
	if !ok {
		cur = newField(id)
	}
	return s.fields.put(string(id), cur.apply(p))
}

// UpsertAgent merges p into agent id. A Location in p first removes the
// agent from wherever it was recorded before.
func (s *Store) UpsertAgent(id string, p AgentPatch) Agent {
	cur, ok := s.agents.get(id)
	if !ok {
		cur = newAgent(id)
	}
	next := cur.apply(p)
	if p.Location != nil && next.Location != cur.Location {
		s.detach(id, cur.Location)
		s.attach(id, next.Location)
	}
	return s.agents.put(id, next)
}

func (s *Store) UpsertCounterparty(name string, p CounterpartyPatch) Counterparty {
	cur, ok := s.parties.get(name)
	if !ok {
		cur = Counterparty{Name: name}
	}
	return s.parties.put(name, cur.apply(p))
}

func (s *Store) detach(agent string, loc Location) {
	if loc.Field == "" {
		return
	}
	set := s.occupants[loc.Field]
	delete(set, agent)
	if len(set) == 0 {
		delete(s.occupants, loc.Field)
	}
}

func (s *Store) attach(agent string, loc Location) {
	if loc.Field == "" {
		return
	}
	set := s.occupants[loc.Field]
	if set == nil {
		set = map[string]struct{}{}
		s.occupants[loc.Field] = set
	}
	set[agent] = struct{}{}
}

func (s *Store) ReplaceEconomy(v Economy) {
	s.replace(func(a *Aggregates) { a.Economy, a.HasEconomy = v, true })
}

func (s *Store) ReplaceBDI(v BDI) {
	s.replace(func(a *Aggregates) { a.BDI, a.HasBDI = v, true })
}

func (s *Store) ReplacePrediction(v Prediction) {
	s.replace(func(a *Aggregates) { a.Prediction, a.HasPrediction = v, true })
}

func (s *Store) ReplaceWeather(v Weather) {
	s.replace(func(a *Aggregates) { a.Weather, a.HasWeather = v, true })
}

func (s *Store) ReplaceClock(v Clock) {
	s.replace(func(a *Aggregates) { a.Clock, a.HasClock = v, true })
}

func (s *Store) ReplaceInventory(v Inventory) {
	s.replace(func(a *Aggregates) { a.Inventory, a.HasInventory = v, true })
}

func (s *Store) replace(fn func(*Aggregates)) {
	next := s.agg.clone()
	fn(&next)
	if reflect.DeepEqual(next, s.agg) {
		return
	}
	s.agg = next
	s.aggRev++
}

func (s *Store) Field(id FieldID) (Field, bool)                { return s.fields.get(string(id)) }
func (s *Store) Fields() []Field                               { return s.fields.all() }
func (s *Store) Agent(id string) (Agent, bool)                 { return s.agents.get(id) }
func (s *Store) Agents() []Agent                               { return s.agents.all() }
func (s *Store) Counterparty(name string) (Counterparty, bool) { return s.parties.get(name) }
func (s *Store) Counterparties() []Counterparty                { return s.parties.all() }
func (s *Store) Aggregates() Aggregates                        { return s.agg.clone() }
func (s *Store) AggregatesRevision() uint64                    { return s.aggRev }

// Occupants lists the agents currently at field id, sorted.
func (s *Store) Occupants(id FieldID) []string {
	set := s.occupants[id]
	out := make([]string, 0, len(set))
	for a := range set {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Revision is bumped each time the entity's snapshot actually changes;
// zero means the entity has never been seen.
func (s *Store) Revision(kind Kind, id string) uint64 {
	switch kind {
	case KindField:
		return s.fields.rev(id)
	case KindAgent:
		return s.agents.rev(id)
	case KindCounterparty:
		return s.parties.rev(id)
	}
	return 0
}

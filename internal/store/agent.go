package store

import (
	"regexp"
	"strings"
)

type AgentKind string

const (
	KindUnknown   AgentKind = ""
	KindDrone     AgentKind = "drone"
	KindHarvester AgentKind = "harvester"
	KindSprayer   AgentKind = "sprayer"
	KindIrrigator AgentKind = "irrigator"
	KindSupplier  AgentKind = "supplier"
)

// InferKind resolves a kind from an explicit type token, falling back to
// the agent's name ("Drone-1", "HarvesterAgent").
func InferKind(typ, name string) AgentKind {
	for _, s := range []string{typ, name} {
		l := strings.ToLower(s)
		switch {
		case l == "":
			continue
		case strings.Contains(l, "drone"):
			return KindDrone
		case strings.Contains(l, "harvest"):
			return KindHarvester
		case strings.Contains(l, "spray"):
			return KindSprayer
		case strings.Contains(l, "irrigat"), strings.Contains(l, "sprinkler"):
			return KindIrrigator
		case strings.Contains(l, "supplier"):
			return KindSupplier
		}
	}
	return KindUnknown
}

// Location is where an agent is: a field, a named place, or nowhere.
type Location struct {
	Field FieldID
	Place string
}

func AtField(id FieldID) Location { return Location{Field: id} }
func AtPlace(p string) Location   { return Location{Place: p} }

func (l Location) IsZero() bool { return l.Field == "" && l.Place == "" }

func (l Location) String() string {
	switch {
	case l.Field != "":
		return "Field " + string(l.Field)
	case l.Place != "":
		return l.Place
	default:
		return "-"
	}
}

var fieldRef = regexp.MustCompile(`(?i)^(?:field)?[-_ ]?(?:container[-_ ]?)?(\d+)$`)

// ParseLocation reads location tokens such as "Field-Container-3",
// "Field-3", "3", "Base-Container" or "Base".
func ParseLocation(s string) Location {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return Location{}
	}
	if m := fieldRef.FindStringSubmatch(s); m != nil {
		return AtField(FieldID(m[1]))
	}
	place := s
	for _, suf := range []string{"-Container", "_Container", " Container"} {
		if len(place) > len(suf) && strings.EqualFold(place[len(place)-len(suf):], suf) {
			place = place[:len(place)-len(suf)]
		}
	}
	return AtPlace(place)
}

type Agent struct {
	ID         string
	Kind       AgentKind
	Status     string
	Location   Location
	Target     FieldID
	Battery    float64
	HasBattery bool
	Busy       bool
	Active     bool
}

func newAgent(id string) Agent {
	return Agent{ID: id, Kind: InferKind("", id), Status: "idle", Active: true}
}

// AgentPatch replaces every non-nil attribute. Location is where the agent
// is now; Target is where it is heading. The store keeps its occupancy
// index in step with Location.
type AgentPatch struct {
	Kind     *AgentKind
	Status   *string
	Location *Location
	Target   *FieldID
	Battery  *float64
	Busy     *bool
	Active   *bool
}

func (a Agent) apply(p AgentPatch) Agent {
	if p.Kind != nil && *p.Kind != KindUnknown {
		a.Kind = *p.Kind
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.Location != nil {
		a.Location = *p.Location
	}
	if p.Target != nil {
		a.Target = *p.Target
	}
	if p.Battery != nil {
		a.Battery = clamp(*p.Battery, 0, 100)
		a.HasBattery = true
	}
	if p.Busy != nil {
		a.Busy = *p.Busy
	}
	if p.Active != nil {
		a.Active = *p.Active
	}
	return a
}

// LowBattery is the warning threshold used by views.
func (a Agent) LowBattery() bool { return a.HasBattery && a.Battery < 20 }

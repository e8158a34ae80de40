package store

import "strings"

type FieldID string

type Stage string

const (
	StageIdle       Stage = "idle"
	StageGrowing    Stage = "growing"
	StageInspecting Stage = "inspecting"
	StageHarvesting Stage = "harvesting"
	StageEmpty      Stage = "empty"
)

func ParseStage(s string) (Stage, bool) {
	switch st := Stage(strings.ToLower(strings.TrimSpace(s))); st {
	case StageIdle, StageGrowing, StageInspecting, StageHarvesting, StageEmpty:
		return st, true
	}
	return "", false
}

// Tier is the moisture severity shown on a field.
type Tier string

const (
	TierCritical Tier = "critical"
	TierWarning  Tier = "warning"
	TierGood     Tier = "good"
)

const (
	criticalMoisture = 30
	warningMoisture  = 50
	readyGrowth      = 100
)

// Badge is the single status marker of a field. Disease wins over ready.
type Badge string

const (
	BadgeNone    Badge = ""
	BadgeDisease Badge = "disease"
	BadgeReady   Badge = "ready"
)

type Field struct {
	ID        FieldID
	Crop      string
	CropIcon  string
	Moisture  float64
	Growth    float64
	Health    float64
	ScanLevel float64
	Stage     Stage
	Sprinkler bool
	Disease   string
	Planted   bool
}

func newField(id FieldID) Field {
	return Field{
		ID:        id,
		Health:    100,
		ScanLevel: 100,
		Stage:     StageIdle,
		Planted:   true,
	}
}

// FieldPatch replaces every non-nil attribute. A non-nil empty Disease
// clears it.
type FieldPatch struct {
	Crop      *string
	CropIcon  *string
	Moisture  *float64
	Growth    *float64
	Health    *float64
	ScanLevel *float64
	Stage     *Stage
	Sprinkler *bool
	Disease   *string
	Planted   *bool
}

func (f Field) apply(p FieldPatch) Field {
	if p.Crop != nil {
		f.Crop = *p.Crop
	}
	if p.CropIcon != nil {
		f.CropIcon = *p.CropIcon
	}
	if p.Moisture != nil {
		f.Moisture = clamp(*p.Moisture, 0, 100)
	}
	if p.Growth != nil {
		f.Growth = clamp(*p.Growth, 0, -1)
	}
	if p.Health != nil {
		f.Health = clamp(*p.Health, 0, 100)
	}
	if p.ScanLevel != nil {
		f.ScanLevel = clamp(*p.ScanLevel, 0, 100)
	}
	if p.Stage != nil {
		f.Stage = *p.Stage
	}
	if p.Sprinkler != nil {
		f.Sprinkler = *p.Sprinkler
	}
	if p.Disease != nil {
		f.Disease = NormalizeDisease(*p.Disease)
	}
	if p.Planted != nil {
		f.Planted = *p.Planted
	}
	return f
}

// NormalizeDisease maps the "no disease" spellings the simulation uses to "".
func NormalizeDisease(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "null", "none", "healthy":
		return ""
	}
	return s
}

func (f Field) MoistureTier() Tier {
	switch {
	case f.Moisture < criticalMoisture:
		return TierCritical
	case f.Moisture < warningMoisture:
		return TierWarning
	default:
		return TierGood
	}
}

func (f Field) Ready() bool    { return f.Growth >= readyGrowth && !f.Diseased() }
func (f Field) Diseased() bool { return f.Disease != "" }
func (f Field) Empty() bool    { return !f.Planted || f.Stage == StageEmpty }

func (f Field) Badge() Badge {
	switch {
	case f.Empty():
		return BadgeNone
	case f.Diseased():
		return BadgeDisease
	case f.Ready():
		return BadgeReady
	default:
		return BadgeNone
	}
}

// clamp bounds v to [lo, hi]; a negative hi means no upper bound.
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if hi >= 0 && v > hi {
		return hi
	}
	return v
}

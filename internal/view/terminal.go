package view

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"farmview.ai/internal/conn"
	"farmview.ai/internal/history"
	"farmview.ai/internal/store"
)

// TerminalSink prints one line per view change.
type TerminalSink struct {
	mu  sync.Mutex
	out io.Writer

	// ShowOverlay also prints the compact overlay channel.
	ShowOverlay bool

	good    *color.Color
	warn    *color.Color
	bad     *color.Color
	info    *color.Color
	muted   *color.Color
	created *color.Color
}

func NewTerminalSink(out io.Writer) *TerminalSink {
	return &TerminalSink{
		out:     out,
		good:    color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		bad:     color.New(color.FgRed),
		info:    color.New(color.FgCyan),
		muted:   color.New(color.FgHiBlack),
		created: color.New(color.FgHiWhite, color.Bold),
	}
}

func (t *TerminalSink) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format+"\n", args...)
}

func (t *TerminalSink) mark(created bool) string {
	if created {
		return t.created.Sprint("+")
	}
	return t.muted.Sprint("~")
}

func (t *TerminalSink) Field(f store.Field, occupants []string, created bool) {
	var tier *color.Color
	switch f.MoistureTier() {
	case store.TierCritical:
		tier = t.bad
	case store.TierWarning:
		tier = t.warn
	default:
		tier = t.good
	}
	crop := f.Crop
	if crop == "" {
		crop = "Unknown"
	}
	if f.Empty() {
		crop = "(empty)"
	}
	line := fmt.Sprintf("%s field %-4s %-10s water %s growth %3.0f%% health %3.0f%% %s",
		t.mark(created), f.ID, crop,
		tier.Sprintf("%3.0f%%", f.Moisture),
		f.Growth, f.Health, f.Stage)
	switch f.Badge() {
	case store.BadgeDisease:
		line += " " + t.bad.Sprintf("[%s]", f.Disease)
	case store.BadgeReady:
		line += " " + t.good.Sprint("[ready]")
	}
	if f.Sprinkler {
		line += " " + t.info.Sprint("irrigating")
	}
	if len(occupants) > 0 {
		line += " " + t.muted.Sprintf("<%s>", strings.Join(occupants, ","))
	}
	t.printf("%s", line)
}

func (t *TerminalSink) Agent(a store.Agent, created bool) {
	kind := string(a.Kind)
	if kind == "" {
		kind = "agent"
	}
	line := fmt.Sprintf("%s %-9s %-14s %-10s @ %s", t.mark(created), kind, a.ID, a.Status, a.Location)
	if a.Target != "" {
		line += fmt.Sprintf(" -> Field %s", a.Target)
	}
	if a.HasBattery {
		c := t.good
		if a.LowBattery() {
			c = t.bad
		}
		line += " " + c.Sprintf("%3.0f%%", a.Battery)
	}
	if a.Busy {
		line += " " + t.warn.Sprint("busy")
	}
	if !a.Active {
		line += " " + t.muted.Sprint("(stopped)")
	}
	t.printf("%s", line)
}

func (t *TerminalSink) Counterparty(c store.Counterparty, created bool) {
	line := fmt.Sprintf("%s supplier  %-14s wins %d paid $%.2f", t.mark(created), c.Name, c.Wins, c.Paid)
	if rem, ok := c.Remaining(); ok {
		line += fmt.Sprintf(" budget $%.2f left $%.2f", c.Budget, rem)
	}
	t.printf("%s", line)
}

func (t *TerminalSink) Aggregates(a store.Aggregates) {
	var parts []string
	if a.HasClock {
		phase := "day"
		if a.Clock.Night() {
			phase = "night"
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", a.Clock.Display, phase))
	}
	if a.HasWeather {
		parts = append(parts, fmt.Sprintf("weather %s %s", a.Weather.Icon, a.Weather.Condition))
	}
	if a.HasInventory {
		parts = append(parts, t.good.Sprintf("$%.0f", a.Inventory.Money),
			fmt.Sprintf("water %.0f seeds %.0f fungicide %.0f crops %.0f",
				a.Inventory.Water, a.Inventory.Seeds, a.Inventory.Fungicide, a.Inventory.Crops))
	}
	if a.HasEconomy {
		c := t.good
		if a.Economy.Profit() < 0 {
			c = t.bad
		}
		parts = append(parts, c.Sprintf("profit $%.2f", a.Economy.Profit()))
	}
	if a.HasPrediction {
		parts = append(parts, fmt.Sprintf("predicted %.0fL (%.0f%%, %d samples)",
			a.Prediction.Liters, a.Prediction.Confidence, a.Prediction.Samples))
	}
	if a.HasBDI && len(a.BDI.Intentions) > 0 {
		parts = append(parts, "intends "+strings.Join(a.BDI.Intentions, "; "))
	}
	if len(parts) == 0 {
		return
	}
	t.printf("%s %s", t.info.Sprint("="), strings.Join(parts, " | "))
}

func (t *TerminalSink) Log(e history.Entry) {
	if e.Channel == history.Overlay && !t.ShowOverlay {
		return
	}
	c := t.muted
	switch e.Category {
	case history.CatError, history.CatAlert, history.CatLose:
		c = t.bad
	case history.CatSuccess, history.CatWin, history.CatAccept, history.CatHarvest:
		c = t.good
	case history.CatHighlight, history.CatWeather, history.CatCNP, history.CatAuction:
		c = t.info
	case history.CatBid, history.CatDispatch:
		c = t.warn
	}
	t.printf("%s %-9s %s", t.muted.Sprint(e.Time.Format("15:04:05")), "["+string(e.Channel)+"]", c.Sprint(e.Text))
}

func (t *TerminalSink) Status(s conn.State, detail string) {
	c := t.warn
	switch s {
	case conn.Connected:
		c = t.good
	case conn.Disconnected:
		c = t.bad
	}
	if detail != "" {
		t.printf("%s %s", c.Sprintf("* %s", s), t.muted.Sprint(detail))
		return
	}
	t.printf("%s", c.Sprintf("* %s", s))
}

package reconcile

import (
	"strings"
	"time"

	"farmview.ai/internal/history"
	"farmview.ai/internal/protocol"
	"farmview.ai/internal/store"
)

func (e *Engine) onWeather(m protocol.WeatherUpdate, at time.Time) {
	prev := e.st.Aggregates()
	w := store.Weather{
		Condition:   m.Condition,
		Icon:        m.Icon,
		Evaporation: m.Evaporation,
		RainChance:  m.RainChance,
	}
	e.st.ReplaceWeather(w)
	if !prev.HasWeather || prev.Weather.Condition != w.Condition {
		cond := w.Condition
		if cond == "" {
			cond = "unknown"
		}
		e.hist.Appendf(history.Market, at, history.CatWeather, "Weather: %s", cond)
	}
}

// onInteraction routes agent-to-agent messages to the channel of the
// first party that is a drone, else a harvester, else the market.
func (e *Engine) onInteraction(m protocol.Interaction, at time.Time) {
	ch := history.Market
	switch {
	case involves(m, "drone"):
		ch = history.Drone
	case involves(m, "harvester"):
		ch = history.Harvester
	}
	text := m.Content
	if text == "" {
		text = m.MessageType
	}
	e.hist.Appendf(ch, at, history.CatMessage, "%s -> %s: %s", m.From, m.To, text)
}

func involves(m protocol.Interaction, kind string) bool {
	for _, s := range []string{m.From, m.FromType, m.To, m.ToType} {
		if strings.Contains(strings.ToLower(s), kind) {
			return true
		}
	}
	return false
}

func (e *Engine) onSensorAlert(m protocol.SensorAlert, at time.Time) {
	msg := m.Message
	if msg == "" {
		msg = "low moisture"
	}
	e.hist.Appendf(history.Drone, at, history.CatAlert, "Sensor alert: Field %s - %s", orUnknown(string(m.Field)), msg)
}

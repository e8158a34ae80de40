package view

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"farmview.ai/internal/conn"
	"farmview.ai/internal/history"
	"farmview.ai/internal/store"
)

type call struct {
	kind    string
	id      string
	created bool
}

type recordingSink struct {
	calls  []call
	logs   []history.Entry
	status []conn.State
	aggs   int
}

func (r *recordingSink) Field(f store.Field, _ []string, created bool) {
	r.calls = append(r.calls, call{"field", string(f.ID), created})
}
func (r *recordingSink) Agent(a store.Agent, created bool) {
	r.calls = append(r.calls, call{"agent", a.ID, created})
}
func (r *recordingSink) Counterparty(c store.Counterparty, created bool) {
	r.calls = append(r.calls, call{"party", c.Name, created})
}
func (r *recordingSink) Aggregates(store.Aggregates)   { r.aggs++ }
func (r *recordingSink) Log(e history.Entry)           { r.logs = append(r.logs, e) }
func (r *recordingSink) Status(s conn.State, _ string) { r.status = append(r.status, s) }

func f64(v float64) *float64 { return &v }

func TestMaterializer_CreateThenUpdate(t *testing.T) {
	st := store.New()
	h := history.NewBuffers(50, 5)
	sink := &recordingSink{}
	m := NewMaterializer(sink)

	st.UpsertField("1", store.FieldPatch{Moisture: f64(40)})
	m.Sync(st, h)
	st.UpsertField("1", store.FieldPatch{Moisture: f64(41)})
	m.Sync(st, h)
	// Unchanged: nothing should be rendered.
	st.UpsertField("1", store.FieldPatch{Moisture: f64(41)})
	m.Sync(st, h)

	want := []call{{"field", "1", true}, {"field", "1", false}}
	if len(sink.calls) != len(want) {
		t.Fatalf("calls: %+v", sink.calls)
	}
	for i := range want {
		if sink.calls[i] != want[i] {
			t.Fatalf("call %d: got %+v want %+v", i, sink.calls[i], want[i])
		}
	}
}

func TestMaterializer_OccupancyChangeRerendersField(t *testing.T) {
	st := store.New()
	sink := &recordingSink{}
	m := NewMaterializer(sink)

	st.UpsertField("1", store.FieldPatch{})
	st.UpsertField("2", store.FieldPatch{})
	m.Sync(st, nil)
	sink.calls = nil

	l := store.AtField("2")
	st.UpsertAgent("Drone-1", store.AgentPatch{Location: &l})
	m.Sync(st, nil)

	var fields, agents []call
	for _, c := range sink.calls {
		switch c.kind {
		case "field":
			fields = append(fields, c)
		case "agent":
			agents = append(agents, c)
		}
	}
	if len(fields) != 1 || fields[0].id != "2" || fields[0].created {
		t.Fatalf("expected field 2 update, got %+v", fields)
	}
	if len(agents) != 1 || !agents[0].created {
		t.Fatalf("expected agent create, got %+v", agents)
	}
	if f, a, p := m.Known(); f != 2 || a != 1 || p != 0 {
		t.Fatalf("known: %d %d %d", f, a, p)
	}
}

func TestMaterializer_LogsAndAggregatesOnce(t *testing.T) {
	st := store.New()
	h := history.NewBuffers(50, 5)
	sink := &recordingSink{}
	m := NewMaterializer(sink)

	now := time.Now()
	h.Append(history.Drone, now, history.CatDispatch, "a")
	h.Append(history.System, now, history.CatSystem, "b")
	st.ReplaceEconomy(store.Economy{Income: 1})
	m.Sync(st, h)
	m.Sync(st, h)

	// System entries arrive twice: once for system and once for overlay.
	if len(sink.logs) != 3 {
		t.Fatalf("logs: %+v", sink.logs)
	}
	if sink.logs[0].Text != "a" || sink.logs[1].Text != "b" {
		t.Fatalf("logs out of order: %+v", sink.logs)
	}
	if sink.aggs != 1 {
		t.Fatalf("aggregates rendered %d times", sink.aggs)
	}

	h.Append(history.Market, now, history.CatBid, "c")
	m.Sync(st, h)
	if len(sink.logs) != 4 || sink.logs[3].Text != "c" {
		t.Fatalf("new entry not forwarded: %+v", sink.logs)
	}
}

func TestMaterializer_StatusDeduped(t *testing.T) {
	sink := &recordingSink{}
	m := NewMaterializer(sink)
	m.SetStatus(conn.Connecting, "")
	m.SetStatus(conn.Connecting, "")
	m.SetStatus(conn.Connected, "")
	if len(sink.status) != 2 {
		t.Fatalf("status calls: %v", sink.status)
	}
}

func TestTerminalSink(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	var buf bytes.Buffer
	ts := NewTerminalSink(&buf)
	st := store.New()
	crop := "CORN"
	disease := "Rust"
	f := st.UpsertField("3", store.FieldPatch{Crop: &crop, Moisture: f64(22), Growth: f64(100), Disease: &disease})
	ts.Field(f, []string{"Drone-1"}, true)
	ts.Agent(store.Agent{ID: "Drone-1", Kind: store.KindDrone, Status: "scanning", Location: store.AtField("3"), Battery: 12, HasBattery: true, Active: true}, false)
	ts.Log(history.Entry{Channel: history.Overlay, Text: "hidden"})
	ts.Log(history.Entry{Channel: history.Market, Category: history.CatWin, Text: "A WINS"})
	ts.Status(conn.Disconnected, "retry in 1s")

	out := buf.String()
	for _, want := range []string{"+ field 3", "CORN", " 22%", "[Rust]", "<Drone-1>", "~ drone", "@ Field 3", " 12%", "[market]  A WINS", "* disconnected retry in 1s"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "hidden") || strings.Contains(out, "[ready]") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

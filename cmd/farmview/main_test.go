package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"farmview.ai/internal/catalog"
	"farmview.ai/internal/config"
	"farmview.ai/internal/conn"
	"farmview.ai/internal/journal"
	"farmview.ai/internal/market"
	"farmview.ai/internal/protocol"
	"farmview.ai/internal/session"
)

type fakeController struct {
	calls []string
	err   error
}

func (f *fakeController) record(s string) { f.calls = append(f.calls, s) }

func (f *fakeController) Buy(ctx context.Context, id string) (market.Intent, error) {
	f.record("buy " + id)
	it, ok := catalog.Default().ByID(id)
	if !ok {
		return market.Intent{}, market.ErrUnknownItem
	}
	return market.Intent{Item: it, Balance: 3000, Projected: 3000 - it.Price, Affordable: true}, nil
}

func (f *fakeController) Confirm(ctx context.Context) (protocol.Command, error) {
	f.record("confirm")
	return protocol.BuyField("WHEAT"), f.err
}

func (f *fakeController) Cancel(ctx context.Context) error {
	f.record("cancel")
	return nil
}

func (f *fakeController) Plant(ctx context.Context, field protocol.ID, crop string) (protocol.Command, error) {
	f.record("plant " + string(field) + " " + crop)
	return protocol.Plant(field, crop), nil
}

func (f *fakeController) Start(ctx context.Context) (protocol.Command, error) {
	f.record("start")
	return protocol.StartSimulation(), nil
}

func (f *fakeController) Pause(ctx context.Context) (protocol.Command, error) {
	f.record("pause")
	return protocol.PauseSimulation(), nil
}

func (f *fakeController) SetSpeed(ctx context.Context, n int) (protocol.Command, error) {
	f.record("speed " + strings.Repeat("x", n))
	return protocol.SetSpeed(n), nil
}

func (f *fakeController) Reconnect(ctx context.Context) (bool, error) {
	f.record("reconnect")
	return false, nil
}

func (f *fakeController) Status(ctx context.Context) (session.Status, error) {
	f.record("status")
	return session.Status{State: conn.Connected, Balance: 1500}, nil
}

func TestInterpret_RoutesCommands(t *testing.T) {
	ctx := context.Background()
	c := &fakeController{}
	var out bytes.Buffer
	lines := []string{"buy wheat_field", "confirm", "cancel", "plant 3 wheat", "plant 4", "start", "pause", "speed 2x", "status", "reconnect", "   "}
	for _, l := range lines {
		if err := interpret(ctx, c, l, &out); err != nil {
			t.Fatalf("%q: %v", l, err)
		}
	}
	want := []string{"buy WHEAT_FIELD", "confirm", "cancel", "plant 3 wheat", "plant 4 ", "start", "pause", "speed xx", "status", "reconnect"}
	if strings.Join(c.calls, "|") != strings.Join(want, "|") {
		t.Fatalf("calls=%q want %q", c.calls, want)
	}
	text := out.String()
	for _, s := range []string{"Wheat Field: $1000 (balance $3000 -> $2000)", "sent BUY_FIELD WHEAT", "state=connected", "already connected"} {
		if !strings.Contains(text, s) {
			t.Fatalf("output missing %q:\n%s", s, text)
		}
	}
}

func TestInterpret_Errors(t *testing.T) {
	ctx := context.Background()
	c := &fakeController{err: market.ErrNotConnected}
	var out bytes.Buffer
	if err := interpret(ctx, c, "quit", &out); !errors.Is(err, errQuit) {
		t.Fatalf("quit: %v", err)
	}
	if err := interpret(ctx, c, "confirm", &out); !errors.Is(err, market.ErrNotConnected) {
		t.Fatalf("confirm: %v", err)
	}
	for _, l := range []string{"buy", "plant", "speed", "speed fast", "dance"} {
		if err := interpret(ctx, c, l, &out); err == nil {
			t.Fatalf("%q: expected an error", l)
		}
	}
}

func TestPrintCatalog_Filters(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer
	printCatalog(&out, catalog.Default(), catalog.Land)
	text := out.String()
	if !strings.Contains(text, "WHEAT_FIELD") || !strings.Contains(text, "CORN_FIELD") {
		t.Fatalf("land items missing:\n%s", text)
	}
	if strings.Contains(text, "SPEED_CHIP") {
		t.Fatalf("upgrade item listed under LAND:\n%s", text)
	}
}

func TestReplay_RebuildsStateFromJournal(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "journal")
	w := journal.NewWriter(dir, journal.DefaultPrefix)
	rec := journal.NewRecorder("s-1", w, nil)
	frames := []string{
		`{"type":"FIELD_UPDATE","data":{"fieldId":1,"moisture":30,"growth":40}}`,
		`{"type":"FIELD_UPDATE","data":{"fieldId":2}}`,
		`{"type":"INVENTORY_UPDATE","data":{"money":900}}`,
		`{"type":"SOMETHING_NEW","data":{}}`,
		`{oops`,
	}
	for _, f := range frames {
		if err := rec.Frame([]byte(f), "", journal.OutcomeOK, nil); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	_ = rec.Command(protocol.StartSimulation())
	if err := rec.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	res, err := replay(dir, "", config.Defaults().History, nil)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if res.Records != 6 || res.Sessions != 1 {
		t.Fatalf("records=%d sessions=%d", res.Records, res.Sessions)
	}
	st := res.Engine.Stats()
	if st.Frames != 5 || st.DecodeErrors != 1 || st.Unknown != 1 {
		t.Fatalf("stats=%+v", st)
	}
	if len(res.Engine.Store().Fields()) != 2 || res.Engine.Balance() != 900 {
		t.Fatalf("fields=%d balance=%v", len(res.Engine.Store().Fields()), res.Engine.Balance())
	}

	var out bytes.Buffer
	printSummary(&out, res)
	if !strings.Contains(out.String(), "replayed 6 records from 1 session(s)") {
		t.Fatalf("summary:\n%s", out.String())
	}

	none, err := replay(dir, "other", config.Defaults().History, nil)
	if err != nil || none.Records != 0 {
		t.Fatalf("session filter: records=%d err=%v", none.Records, err)
	}
}

func TestRootCmd_CatalogRuns(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--no-color", "--log-stderr", "off", "catalog", "--category", "upgrade"})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cmd.ExecuteContext(ctx); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), "WATER_OPT") || strings.Contains(out.String(), "WHEAT_FIELD") {
		t.Fatalf("output:\n%s", out.String())
	}
}

func TestOpenRecorder_IndexNeedsDir(t *testing.T) {
	a := appFrom(context.Background())
	a.cfg.Journal.Index = filepath.Join(t.TempDir(), "index.sqlite")
	if _, err := openRecorder(a); err == nil || !strings.Contains(err.Error(), "journal directory") {
		t.Fatalf("expected index-without-dir error, got %v", err)
	}

	a.cfg.Journal.Index = ""
	rec, err := openRecorder(a)
	if err != nil || rec != nil {
		t.Fatalf("journaling off: rec=%v err=%v", rec, err)
	}
}

func TestPrintIndex_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typo.sqlite")
	var out bytes.Buffer
	if err := printIndex(context.Background(), &out, path); err == nil {
		t.Fatalf("expected error for missing index")
	}
	if out.Len() != 0 {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

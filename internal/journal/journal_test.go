package journal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestWriter_RotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "")
	now := time.Date(2024, 5, 1, 9, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	if err := w.Write(map[string]int{"n": 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	first := w.Path()
	now = now.Add(2 * time.Minute)
	if err := w.Write(map[string]int{"n": 2}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if filepath.Base(first) != "frames-2024-05-01-09.jsonl.zst" {
		t.Fatalf("first file=%q", first)
	}
	files, err := ListFiles(dir, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files=%v want 2", files)
	}
	if !strings.HasSuffix(files[1], "frames-2024-05-01-10.jsonl.zst") {
		t.Fatalf("second file=%q", files[1])
	}
}

func TestRecorder_RoundTripsThroughReadDir(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "")
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	w.now = fixedClock(at)
	rec := NewRecorder("s-1", w, nil)
	rec.now = fixedClock(at)

	if err := rec.Frame([]byte(`{"type":"FIELD_UPDATE","data":{"fieldId":1}}`), "FIELD_UPDATE", OutcomeOK, nil); err != nil {
		t.Fatalf("frame: %v", err)
	}
	if err := rec.Frame([]byte(`{`), "", OutcomeDecodeError, errors.New("bad json")); err != nil {
		t.Fatalf("frame: %v", err)
	}
	if err := rec.Command(map[string]string{"type": "COMMAND", "command": "START_SIMULATION"}); err != nil {
		t.Fatalf("command: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var got []Record
	if err := ReadDir(dir, "", func(r Record) error {
		got = append(got, r)
		return nil
	}); err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("records=%d want 3", len(got))
	}
	for i, r := range got {
		if r.Seq != uint64(i+1) || r.Session != "s-1" {
			t.Fatalf("record %d: seq=%d session=%q", i, r.Seq, r.Session)
		}
	}
	if got[0].Dir != Inbound || got[0].Tag != "FIELD_UPDATE" || got[0].Frame != `{"type":"FIELD_UPDATE","data":{"fieldId":1}}` {
		t.Fatalf("first record=%+v", got[0])
	}
	if got[1].Outcome != OutcomeDecodeError || got[1].Err != "bad json" {
		t.Fatalf("second record=%+v", got[1])
	}
	if got[2].Dir != Outbound || got[2].Tag != "COMMAND" {
		t.Fatalf("third record=%+v", got[2])
	}
}

func TestReadDir_StopEndsWalk(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "")
	for i := 0; i < 5; i++ {
		if err := w.Write(Record{Seq: uint64(i + 1), Frame: "{}"}); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	_ = w.Close()

	n := 0
	err := ReadDir(dir, "", func(r Record) error {
		n++
		if n == 2 {
			return ErrStop
		}
		return nil
	})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n != 2 {
		t.Fatalf("visited=%d want 2", n)
	}
}

func TestListFiles_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "other")
	_ = w.Write(Record{Seq: 1})
	_ = w.Close()

	files, err := ListFiles(dir, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("files=%v want none", files)
	}
}

func TestIndex_WritesFramesCommandsAndSessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index", "journal.sqlite")
	ix, err := OpenIndex(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rec := NewRecorder("s-1", nil, ix)
	_ = rec.Frame([]byte(`{"type":"FIELD_UPDATE"}`), "FIELD_UPDATE", OutcomeOK, nil)
	_ = rec.Frame([]byte(`{"type":"FIELD_UPDATE"}`), "FIELD_UPDATE", OutcomeOK, nil)
	_ = rec.Frame([]byte(`{"type":"WEATHER_UPDATE"}`), "WEATHER_UPDATE", OutcomeOK, nil)
	_ = rec.Command(map[string]string{"type": "COMMAND", "command": "BUY_FIELD", "payload": "WHEAT"})
	if err := rec.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	ix, err = OpenIndex(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer ix.Close()

	counts, err := ix.TagCounts(context.Background())
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts["FIELD_UPDATE"] != 2 || counts["WEATHER_UPDATE"] != 1 {
		t.Fatalf("counts=%v", counts)
	}

	var cmd, payload string
	if err := ix.db.QueryRow(`SELECT command, payload FROM commands WHERE session='s-1'`).Scan(&cmd, &payload); err != nil {
		t.Fatalf("query command: %v", err)
	}
	if cmd != "BUY_FIELD" || payload != "WHEAT" {
		t.Fatalf("command row=%q %q", cmd, payload)
	}

	sessions, err := ix.Sessions(context.Background())
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Frames != 3 || sessions[0].Commands != 1 {
		t.Fatalf("sessions=%+v", sessions)
	}
}

func TestIndex_ReadOnly(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "typo.sqlite")
	if _, err := OpenIndexReadOnly(missing); err == nil {
		t.Fatalf("expected error for missing index")
	}
	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Fatalf("read-only open must not create the file, stat err=%v", err)
	}

	path := filepath.Join(dir, "journal.sqlite")
	ix, err := OpenIndex(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rec := NewRecorder("s-2", nil, ix)
	_ = rec.Frame([]byte(`{"type":"LOG"}`), "LOG", OutcomeOK, nil)
	if err := rec.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	ro, err := OpenIndexReadOnly(path)
	if err != nil {
		t.Fatalf("open read-only: %v", err)
	}
	defer ro.Close()
	sessions, err := ro.Sessions(context.Background())
	if err != nil || len(sessions) != 1 || sessions[0].ID != "s-2" {
		t.Fatalf("sessions=%+v err=%v", sessions, err)
	}
	if err := ro.Append(Record{Session: "s-2", Seq: 9}); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
}

func TestIndex_DropsWhenQueueFull(t *testing.T) {
	ix := &Index{ch: make(chan Record, 1)}
	ix.ch <- Record{Seq: 1}

	_ = ix.Append(Record{Seq: 2})
	_ = ix.Append(Record{Seq: 3})

	st := ix.Stats()
	if st.Dropped != 2 {
		t.Fatalf("Dropped=%d want 2", st.Dropped)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}
}

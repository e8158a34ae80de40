package conn

import (
	"errors"
	"testing"
	"time"
)

func testPolicy() Policy {
	return Policy{BaseDelay: 100 * time.Millisecond, MaxDelay: 500 * time.Millisecond, MaxAttempts: 10}
}

func TestPolicyDelay(t *testing.T) {
	p := testPolicy()
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{5, 500 * time.Millisecond},
		{9, 500 * time.Millisecond},
	}
	for _, c := range cases {
		if got := p.Delay(c.attempt); got != c.want {
			t.Fatalf("Delay(%d) = %v, want %v", c.attempt, got, c.want)
		}
	}
}

func TestTracker_RetrySchedule(t *testing.T) {
	tr := NewTracker(testPolicy())
	gen, _ := tr.Begin()
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond}
	for i, w := range want {
		r, ok := tr.Closed(gen, errors.New("refused"))
		if !ok {
			t.Fatalf("failure %d: expected retry", i+1)
		}
		if r.Delay != w || r.Attempt != i+1 {
			t.Fatalf("failure %d: got attempt %d delay %v, want %v", i+1, r.Attempt, r.Delay, w)
		}
		gen, ok = tr.Fire(r.Gen)
		if !ok {
			t.Fatalf("failure %d: timer fire refused", i+1)
		}
	}
	if !tr.Opened(gen) {
		t.Fatalf("open refused")
	}
	if tr.Attempts() != 0 || tr.State() != Connected {
		t.Fatalf("expected reset counter and connected, got %d %v", tr.Attempts(), tr.State())
	}
}

func TestTracker_GivesUpAfterMaxAttempts(t *testing.T) {
	p := testPolicy()
	p.MaxAttempts = 3
	tr := NewTracker(p)
	gen, _ := tr.Begin()
	for i := 0; i < 3; i++ {
		r, ok := tr.Closed(gen, nil)
		if !ok {
			t.Fatalf("failure %d: expected retry", i+1)
		}
		gen, _ = tr.Fire(r.Gen)
	}
	if _, ok := tr.Closed(gen, nil); ok {
		t.Fatalf("expected give-up after %d retries", p.MaxAttempts)
	}
	if !tr.GaveUp() {
		t.Fatalf("GaveUp should be true")
	}
	if _, ok := tr.Begin(); ok {
		t.Fatalf("Begin must be refused after give-up")
	}
	tr.Resume()
	if _, ok := tr.Begin(); !ok {
		t.Fatalf("Begin should succeed after Resume")
	}
}

func TestTracker_StaleTimerIsNoop(t *testing.T) {
	tr := NewTracker(testPolicy())
	gen, _ := tr.Begin()
	r, _ := tr.Closed(gen, nil)

	// Something else reconnected before the timer fired.
	newGen, ok := tr.Begin()
	if !ok {
		t.Fatalf("manual begin refused")
	}
	if _, ok := tr.Fire(r.Gen); ok {
		t.Fatalf("stale timer must not start an attempt")
	}
	if !tr.Opened(newGen) {
		t.Fatalf("open refused")
	}
	if _, ok := tr.Fire(newGen); ok {
		t.Fatalf("timer must not fire while connected")
	}
}

func TestTracker_StaleCloseIgnored(t *testing.T) {
	tr := NewTracker(testPolicy())
	g1, _ := tr.Begin()
	r, _ := tr.Closed(g1, nil)
	g2, _ := tr.Fire(r.Gen)
	tr.Opened(g2)
	if _, ok := tr.Closed(g1, nil); ok {
		t.Fatalf("close for an old generation must be ignored")
	}
	if tr.State() != Connected {
		t.Fatalf("state changed by stale close: %v", tr.State())
	}
}

func TestTracker_Listeners(t *testing.T) {
	tr := NewTracker(testPolicy())
	var seen []State
	tr.OnChange(func(tn Transition) { seen = append(seen, tn.To) })
	gen, _ := tr.Begin()
	tr.Opened(gen)
	tr.Closed(gen, errors.New("eof"))
	want := []State{Connecting, Connected, Disconnected}
	if len(seen) != len(want) {
		t.Fatalf("transitions: got %v", seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("transitions: got %v want %v", seen, want)
		}
	}
}

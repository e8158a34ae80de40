package conn

import "time"

// Retry is the plan returned after a connection attempt ends.
type Retry struct {
	Attempt int
	Delay   time.Duration
	Gen     uint64
}

// Tracker owns the connection state, the consecutive-failure counter and
// the generation counter. It does no I/O and is not safe for concurrent
// use; the session loop is its only caller.
type Tracker struct {
	policy    Policy
	state     State
	attempts  int
	gen       uint64
	gaveUp    bool
	listeners []func(Transition)
}

func NewTracker(p Policy) *Tracker {
	return &Tracker{policy: p, state: Disconnected}
}

func (t *Tracker) State() State    { return t.state }
func (t *Tracker) Attempts() int   { return t.attempts }
func (t *Tracker) Gen() uint64     { return t.gen }
func (t *Tracker) GaveUp() bool    { return t.gaveUp }
func (t *Tracker) Connected() bool { return t.state == Connected }
func (t *Tracker) Policy() Policy  { return t.policy }

func (t *Tracker) OnChange(fn func(Transition)) {
	if fn != nil {
		t.listeners = append(t.listeners, fn)
	}
}

// Begin starts a connection attempt. It refuses when an attempt is in
// flight, when already connected, or after giving up.
func (t *Tracker) Begin() (uint64, bool) {
	if t.state != Disconnected || t.gaveUp {
		return 0, false
	}
	t.gen++
	t.set(Connecting, nil)
	return t.gen, true
}

// Opened records a successful handshake for gen. A stale gen is ignored.
func (t *Tracker) Opened(gen uint64) bool {
	if gen != t.gen || t.state != Connecting {
		return false
	}
	t.attempts = 0
	t.set(Connected, nil)
	return true
}

// Closed records the end of connection gen, whether it failed to open or
// dropped later. When ok is true the caller should arm a timer for
// r.Delay and call Fire(r.Gen) when it expires.
func (t *Tracker) Closed(gen uint64, err error) (r Retry, ok bool) {
	if gen != t.gen || t.state == Disconnected {
		return Retry{}, false
	}
	t.set(Disconnected, err)
	if t.attempts >= t.policy.MaxAttempts {
		t.gaveUp = true
		return Retry{}, false
	}
	t.attempts++
	return Retry{Attempt: t.attempts, Delay: t.policy.Delay(t.attempts), Gen: t.gen}, true
}

// Fire is the reconnect timer guard: it starts a new attempt only when the
// timer belongs to the current generation and nothing else reconnected
// in the meantime.
func (t *Tracker) Fire(gen uint64) (uint64, bool) {
	if gen != t.gen || t.state != Disconnected {
		return 0, false
	}
	return t.Begin()
}

// Resume clears a give-up so a manual reconnect can start over.
func (t *Tracker) Resume() {
	t.gaveUp = false
	t.attempts = 0
}

func (t *Tracker) set(s State, err error) {
	if s == t.state {
		return
	}
	tr := Transition{From: t.state, To: s, Gen: t.gen, Err: err}
	t.state = s
	for _, fn := range t.listeners {
		fn(tr)
	}
}

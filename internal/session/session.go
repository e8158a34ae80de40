package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"farmview.ai/internal/catalog"
	"farmview.ai/internal/conn"
	"farmview.ai/internal/history"
	"farmview.ai/internal/journal"
	"farmview.ai/internal/market"
	"farmview.ai/internal/observability"
	"farmview.ai/internal/protocol"
	"farmview.ai/internal/reconcile"
	"farmview.ai/internal/store"
	"farmview.ai/internal/view"
)

var ErrStopped = errors.New("session stopped")

// Timer is the part of *time.Timer the loop needs.
type Timer interface {
	Stop() bool
}

type Options struct {
	Endpoint string
	Dialer   conn.Dialer
	Policy   conn.Policy
	Engine   *reconcile.Engine
	Catalog  *catalog.Catalog

	// Sink, when set, receives view updates after every event.
	Sink view.Sink
	// Recorder, when set, journals every inbound frame and outbound command.
	Recorder *journal.Recorder
	Logger   *slog.Logger

	// AfterFunc schedules reconnect timers; defaults to time.AfterFunc.
	AfterFunc func(d time.Duration, f func()) Timer
}

// Session is the single flow of control: it owns the connection tracker,
// the engine and the desk, and mutates them only from Run. Dialers, readers
// and timers post events; user actions go through Do.
type Session struct {
	opts    Options
	log     *slog.Logger
	eng     *reconcile.Engine
	tracker *conn.Tracker
	desk    *market.Desk
	mat     *view.Materializer

	events  chan event
	stopped chan struct{}

	ctx    context.Context
	cur    conn.Conn
	curGen uint64
	timer  Timer
}

type eventKind int

const (
	evDialed eventKind = iota + 1
	evFrame
	evClosed
	evFire
	evAction
)

type event struct {
	kind  eventKind
	gen   uint64
	conn  conn.Conn
	frame []byte
	err   error
	fn    func()
	done  chan struct{}
}

func New(opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = observability.Discard()
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.Policy == (conn.Policy{}) {
		opts.Policy = conn.DefaultPolicy()
	}
	if opts.AfterFunc == nil {
		opts.AfterFunc = func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
	}
	s := &Session{
		opts:    opts,
		log:     opts.Logger,
		eng:     opts.Engine,
		tracker: conn.NewTracker(opts.Policy),
		events:  make(chan event, 256),
		stopped: make(chan struct{}),
	}
	s.desk = market.NewDesk(opts.Catalog, loopEnv{s})
	if opts.Sink != nil {
		s.mat = view.NewMaterializer(opts.Sink)
	}
	s.tracker.OnChange(s.onTransition)
	return s
}

// Run connects and processes events until ctx is done. It returns nil on
// cancellation.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.stopped)
	s.ctx = ctx
	s.connect()
	s.sync()

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return nil
		case ev := <-s.events:
			s.handle(ev)
			s.sync()
		}
	}
}

// Do runs fn on the loop and waits for it to finish.
func (s *Session) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case s.events <- event{kind: evAction, fn: fn, done: done}:
	case <-s.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-s.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) handle(ev event) {
	switch ev.kind {
	case evDialed:
		s.onDialed(ev.gen, ev.conn, ev.err)
	case evFrame:
		s.onFrame(ev.gen, ev.frame)
	case evClosed:
		s.onClosed(ev.gen, ev.err)
	case evFire:
		if gen, ok := s.tracker.Fire(ev.gen); ok {
			s.dial(gen)
		} else {
			s.log.Debug("stale reconnect timer", "gen", ev.gen, "current", s.tracker.Gen())
		}
	case evAction:
		ev.fn()
		close(ev.done)
	}
}

func (s *Session) connect() bool {
	gen, ok := s.tracker.Begin()
	if !ok {
		return false
	}
	s.dial(gen)
	return true
}

func (s *Session) dial(gen uint64) {
	ctx := s.ctx
	endpoint := s.opts.Endpoint
	s.log.Debug("dialing", "endpoint", endpoint, "gen", gen)
	go func() {
		c, err := s.opts.Dialer.Dial(ctx, endpoint)
		if !s.post(ctx, event{kind: evDialed, gen: gen, conn: c, err: err}) && c != nil {
			_ = c.Close()
		}
	}()
}

func (s *Session) onDialed(gen uint64, c conn.Conn, err error) {
	if err != nil {
		s.log.Warn("connect failed", "endpoint", s.opts.Endpoint, "gen", gen, "err", err)
		s.onClosed(gen, err)
		return
	}
	if !s.tracker.Opened(gen) {
		_ = c.Close()
		return
	}
	s.cur = c
	s.curGen = gen
	go s.read(gen, c)
}

func (s *Session) read(gen uint64, c conn.Conn) {
	for {
		b, err := c.Read()
		if err != nil {
			s.post(s.ctx, event{kind: evClosed, gen: gen, err: err})
			return
		}
		if !s.post(s.ctx, event{kind: evFrame, gen: gen, frame: b}) {
			return
		}
	}
}

func (s *Session) post(ctx context.Context, ev event) bool {
	select {
	case s.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Session) onFrame(gen uint64, b []byte) {
	if gen != s.curGen || s.cur == nil {
		return
	}
	out := s.eng.Dispatch(b)
	if out.Unknown {
		s.log.Debug("unknown message type dropped", "tag", out.Tag)
	}
	if s.opts.Recorder == nil {
		return
	}
	outcome := journal.OutcomeOK
	switch {
	case out.Err != nil:
		outcome = journal.OutcomeDecodeError
	case out.Unknown:
		outcome = journal.OutcomeUnknown
	}
	if err := s.opts.Recorder.Frame(b, out.Tag, outcome, out.Err); err != nil {
		s.log.Warn("journal write failed", "err", err)
	}
}

func (s *Session) onClosed(gen uint64, err error) {
	if gen == s.curGen && s.cur != nil {
		_ = s.cur.Close()
		s.cur = nil
	}
	wasLive := s.tracker.State() != conn.Disconnected
	retry, ok := s.tracker.Closed(gen, err)
	if !ok {
		if wasLive && s.tracker.GaveUp() {
			s.log.Error("giving up on reconnect", "attempts", s.tracker.Attempts())
			s.eng.Notef(history.System, history.CatError, "Connection lost. Gave up after %d attempts", s.tracker.Attempts())
		}
		return
	}
	s.log.Info("reconnect scheduled", "attempt", retry.Attempt, "delay", retry.Delay, "gen", retry.Gen)
	s.eng.Notef(history.System, history.CatSystem, "Reconnecting in %s (attempt %d/%d)",
		retry.Delay, retry.Attempt, s.tracker.Policy().MaxAttempts)
	s.arm(retry)
}

func (s *Session) arm(r conn.Retry) {
	if s.timer != nil {
		s.timer.Stop()
	}
	ctx := s.ctx
	s.timer = s.opts.AfterFunc(r.Delay, func() {
		s.post(ctx, event{kind: evFire, gen: r.Gen})
	})
}

func (s *Session) onTransition(tr conn.Transition) {
	detail := ""
	switch tr.To {
	case conn.Connected:
		s.eng.Notef(history.System, history.CatSuccess, "Connected to %s", s.opts.Endpoint)
	case conn.Disconnected:
		if tr.Err != nil {
			detail = tr.Err.Error()
			s.eng.Notef(history.System, history.CatError, "Disconnected: %s", detail)
		} else {
			s.eng.Notef(history.System, history.CatSystem, "Disconnected")
		}
	}
	s.log.Info("connection state", "from", tr.From.String(), "to", tr.To.String(), "gen", tr.Gen)
	if s.mat != nil {
		s.mat.SetStatus(tr.To, detail)
	}
}

func (s *Session) sync() {
	if s.mat != nil {
		s.mat.Sync(s.eng.Store(), s.eng.History())
	}
}

func (s *Session) shutdown() {
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.cur != nil {
		_ = s.cur.Close()
		s.cur = nil
	}
}

func (s *Session) send(cmd protocol.Command) error {
	if s.cur == nil {
		return market.ErrNotConnected
	}
	b, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	if err := s.cur.Write(b); err != nil {
		return err
	}
	s.log.Debug("command sent", "command", cmd.Command)
	if s.opts.Recorder != nil {
		if err := s.opts.Recorder.Command(cmd); err != nil {
			s.log.Warn("journal write failed", "err", err)
		}
	}
	return nil
}

// loopEnv gives the desk access to session state. Only used on the loop.
type loopEnv struct{ s *Session }

func (e loopEnv) Balance() float64 { return e.s.eng.Balance() }
func (e loopEnv) Connected() bool  { return e.s.tracker.Connected() && e.s.cur != nil }
func (e loopEnv) HasField(id string) bool {
	_, ok := e.s.eng.Store().Field(store.FieldID(id))
	return ok
}
func (e loopEnv) Send(cmd protocol.Command) error { return e.s.send(cmd) }

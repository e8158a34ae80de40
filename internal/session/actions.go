package session

import (
	"context"
	"fmt"

	"farmview.ai/internal/conn"
	"farmview.ai/internal/history"
	"farmview.ai/internal/market"
	"farmview.ai/internal/protocol"
	"farmview.ai/internal/reconcile"
)

type Status struct {
	State    conn.State
	Attempts int
	GaveUp   bool
	Balance  float64
	Pending  *market.Intent
	Stats    reconcile.Stats
}

func (s *Session) Status(ctx context.Context) (Status, error) {
	var st Status
	err := s.Do(ctx, func() {
		st = Status{
			State:    s.tracker.State(),
			Attempts: s.tracker.Attempts(),
			GaveUp:   s.tracker.GaveUp(),
			Balance:  s.eng.Balance(),
			Stats:    s.eng.Stats(),
		}
		if in, ok := s.desk.Pending(); ok {
			st.Pending = &in
		}
	})
	return st, err
}

// Buy stages a purchase. Nothing is sent until Confirm.
func (s *Session) Buy(ctx context.Context, itemID string) (market.Intent, error) {
	var (
		in     market.Intent
		actErr error
	)
	err := s.Do(ctx, func() {
		in, actErr = s.desk.Open(itemID)
		if actErr != nil {
			return
		}
		if !in.Affordable {
			s.eng.Notef(history.Market, history.CatAlert, "%s costs $%.0f, balance $%.0f", in.Item.Name, in.Item.Price, in.Balance)
		}
	})
	if err != nil {
		return market.Intent{}, err
	}
	return in, actErr
}

func (s *Session) Confirm(ctx context.Context) (protocol.Command, error) {
	var (
		cmd    protocol.Command
		actErr error
	)
	err := s.Do(ctx, func() {
		in, ok := s.desk.Pending()
		cmd, actErr = s.desk.Confirm()
		if actErr != nil {
			s.eng.Notef(history.System, history.CatError, "Purchase failed: %v", actErr)
			return
		}
		if ok {
			s.eng.Notef(history.System, history.CatHighlight, "Requesting %s for $%.0f...", in.Item.Name, in.Item.Price)
		}
	})
	if err != nil {
		return protocol.Command{}, err
	}
	return cmd, actErr
}

func (s *Session) Cancel(ctx context.Context) error {
	return s.Do(ctx, s.desk.Cancel)
}

func (s *Session) Plant(ctx context.Context, field protocol.ID, crop string) (protocol.Command, error) {
	return s.command(ctx, func() (protocol.Command, error) { return s.desk.Plant(field, crop) })
}

func (s *Session) Start(ctx context.Context) (protocol.Command, error) {
	return s.command(ctx, s.desk.Start)
}

func (s *Session) Pause(ctx context.Context) (protocol.Command, error) {
	return s.command(ctx, s.desk.Pause)
}

func (s *Session) SetSpeed(ctx context.Context, speed int) (protocol.Command, error) {
	return s.command(ctx, func() (protocol.Command, error) { return s.desk.SetSpeed(speed) })
}

// Reconnect is the manual intervention after automatic retries gave up. It
// also short-circuits a pending backoff timer. It reports whether a new
// attempt was started.
func (s *Session) Reconnect(ctx context.Context) (bool, error) {
	var started bool
	err := s.Do(ctx, func() {
		s.tracker.Resume()
		started = s.connect()
		if started {
			s.eng.Notef(history.System, history.CatSystem, "Reconnecting to %s", s.opts.Endpoint)
		}
	})
	return started, err
}

func (s *Session) command(ctx context.Context, fn func() (protocol.Command, error)) (protocol.Command, error) {
	var (
		cmd    protocol.Command
		actErr error
	)
	err := s.Do(ctx, func() {
		cmd, actErr = fn()
		if actErr != nil {
			s.eng.Notef(history.System, history.CatError, "%v", actErr)
			return
		}
		s.eng.Notef(history.System, history.CatSystem, "Sent %s", describe(cmd))
	})
	if err != nil {
		return protocol.Command{}, err
	}
	return cmd, actErr
}

func describe(cmd protocol.Command) string {
	switch cmd.Command {
	case protocol.CmdPlant:
		return fmt.Sprintf("%s %s on field %s", cmd.Command, cmd.Crop, cmd.FieldID)
	case protocol.CmdSetSpeed:
		return fmt.Sprintf("%s %dx", cmd.Command, cmd.Speed)
	}
	return cmd.Command
}

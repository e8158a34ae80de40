package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"farmview.ai/internal/market"
	"farmview.ai/internal/protocol"
	"farmview.ai/internal/session"
)

// controller is the slice of *session.Session the prompt drives.
type controller interface {
	Buy(ctx context.Context, itemID string) (market.Intent, error)
	Confirm(ctx context.Context) (protocol.Command, error)
	Cancel(ctx context.Context) error
	Plant(ctx context.Context, field protocol.ID, crop string) (protocol.Command, error)
	Start(ctx context.Context) (protocol.Command, error)
	Pause(ctx context.Context) (protocol.Command, error)
	SetSpeed(ctx context.Context, speed int) (protocol.Command, error)
	Reconnect(ctx context.Context) (bool, error)
	Status(ctx context.Context) (session.Status, error)
}

var errQuit = errors.New("quit")

const promptHelp = `commands:
  buy <item>            stage a purchase (see "farmview catalog")
  confirm | cancel      confirm or drop the staged purchase
  plant <field> [crop]  plant a crop on a field (default CORN)
  start | pause         simulation control
  speed <1|2|5>         simulation speed
  status                connection, balance and counters
  reconnect             retry after the client gave up
  quit`

// interpret runs one prompt line against c and writes the reply to out.
func interpret(ctx context.Context, c controller, line string, out io.Writer) error {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil
	}
	switch strings.ToLower(args[0]) {
	case "help", "?":
		fmt.Fprintln(out, promptHelp)
	case "quit", "exit":
		return errQuit
	case "buy":
		if len(args) < 2 {
			return fmt.Errorf("usage: buy <item>")
		}
		in, err := c.Buy(ctx, strings.ToUpper(args[1]))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s: $%.0f (balance $%.0f -> $%.0f)\n", in.Item.Icon, in.Item.Name, in.Item.Price, in.Balance, in.Projected)
		if in.Affordable {
			fmt.Fprintln(out, `type "confirm" to buy or "cancel"`)
		} else {
			fmt.Fprintln(out, "insufficient funds")
		}
	case "confirm":
		cmd, err := c.Confirm(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "sent %s %s\n", cmd.Command, cmd.Payload)
	case "cancel":
		return c.Cancel(ctx)
	case "plant":
		if len(args) < 2 {
			return fmt.Errorf("usage: plant <field> [crop]")
		}
		crop := ""
		if len(args) > 2 {
			crop = args[2]
		}
		_, err := c.Plant(ctx, protocol.ID(args[1]), crop)
		return err
	case "start":
		_, err := c.Start(ctx)
		return err
	case "pause":
		_, err := c.Pause(ctx)
		return err
	case "speed":
		if len(args) < 2 {
			return fmt.Errorf("usage: speed <1|2|5>")
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.ToLower(args[1]), "x"))
		if err != nil {
			return fmt.Errorf("speed: %w", err)
		}
		_, err = c.SetSpeed(ctx, n)
		return err
	case "status":
		st, err := c.Status(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "state=%s attempts=%d gave_up=%t balance=$%.0f frames=%d decode_errors=%d unknown=%d\n",
			st.State, st.Attempts, st.GaveUp, st.Balance, st.Stats.Frames, st.Stats.DecodeErrors, st.Stats.Unknown)
		if st.Pending != nil {
			fmt.Fprintf(out, "pending purchase: %s ($%.0f)\n", st.Pending.Item.Name, st.Pending.Item.Price)
		}
	case "reconnect":
		started, err := c.Reconnect(ctx)
		if err != nil {
			return err
		}
		if !started {
			fmt.Fprintln(out, "already connected or connecting")
		}
	default:
		return fmt.Errorf("unknown command %q (try help)", args[0])
	}
	return nil
}

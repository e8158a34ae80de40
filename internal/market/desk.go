package market

import (
	"errors"
	"fmt"
	"strings"

	"farmview.ai/internal/catalog"
	"farmview.ai/internal/protocol"
)

var (
	ErrUnknownItem       = errors.New("unknown catalog item")
	ErrNoIntent          = errors.New("no purchase pending")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotConnected      = errors.New("not connected")
	ErrBadSpeed          = errors.New("unsupported speed")
	ErrUnknownField      = errors.New("unknown field")
)

// Env is what the desk needs from the running session.
type Env interface {
	Balance() float64
	Connected() bool
	HasField(id string) bool
	Send(cmd protocol.Command) error
}

// Intent is a staged purchase awaiting confirmation.
type Intent struct {
	Item       catalog.Item
	Balance    float64
	Projected  float64
	Affordable bool
}

// Desk stages and confirms purchases and sends the other user commands.
// It never changes the balance itself; the next inventory update does.
type Desk struct {
	cat    *catalog.Catalog
	env    Env
	intent *Intent
}

func NewDesk(cat *catalog.Catalog, env Env) *Desk {
	return &Desk{cat: cat, env: env}
}

func (d *Desk) Catalog() *catalog.Catalog { return d.cat }

// Open stages id, replacing any previous intent.
func (d *Desk) Open(id string) (Intent, error) {
	it, ok := d.cat.ByID(strings.TrimSpace(id))
	if !ok {
		return Intent{}, fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	bal := d.env.Balance()
	in := Intent{
		Item:       it,
		Balance:    bal,
		Projected:  bal - it.Price,
		Affordable: bal >= it.Price,
	}
	d.intent = &in
	return in, nil
}

func (d *Desk) Pending() (Intent, bool) {
	if d.intent == nil {
		return Intent{}, false
	}
	return *d.intent, true
}

func (d *Desk) Cancel() {
	d.intent = nil
}

// Confirm re-checks the connection and the current balance, sends one
// purchase command and discards the intent. On any error the intent stays.
func (d *Desk) Confirm() (protocol.Command, error) {
	if d.intent == nil {
		return protocol.Command{}, ErrNoIntent
	}
	if !d.env.Connected() {
		return protocol.Command{}, ErrNotConnected
	}
	it := d.intent.Item
	if bal := d.env.Balance(); bal < it.Price {
		return protocol.Command{}, fmt.Errorf("%w: balance %.0f, price %.0f", ErrInsufficientFunds, bal, it.Price)
	}
	cmd := protocol.BuyItem(it.Command)
	if it.Category == catalog.Land {
		cmd = protocol.BuyField(it.Command)
	}
	if err := d.env.Send(cmd); err != nil {
		return protocol.Command{}, fmt.Errorf("send %s: %w", cmd.Command, err)
	}
	d.intent = nil
	return cmd, nil
}

// Plant asks the simulation to plant crop on field.
func (d *Desk) Plant(field protocol.ID, crop string) (protocol.Command, error) {
	if field == "" {
		return protocol.Command{}, fmt.Errorf("plant: empty field id")
	}
	if !d.env.HasField(field.String()) {
		return protocol.Command{}, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	crop = strings.ToUpper(strings.TrimSpace(crop))
	if crop == "" {
		crop = "CORN"
	}
	return d.send(protocol.Plant(field, crop))
}

func (d *Desk) Start() (protocol.Command, error) { return d.send(protocol.StartSimulation()) }
func (d *Desk) Pause() (protocol.Command, error) { return d.send(protocol.PauseSimulation()) }

func (d *Desk) SetSpeed(speed int) (protocol.Command, error) {
	if !protocol.ValidSpeed(speed) {
		return protocol.Command{}, fmt.Errorf("%w: %d", ErrBadSpeed, speed)
	}
	return d.send(protocol.SetSpeed(speed))
}

func (d *Desk) send(cmd protocol.Command) (protocol.Command, error) {
	if !d.env.Connected() {
		return protocol.Command{}, ErrNotConnected
	}
	if err := d.env.Send(cmd); err != nil {
		return protocol.Command{}, fmt.Errorf("send %s: %w", cmd.Command, err)
	}
	return cmd, nil
}

package history

import (
	"fmt"
	"time"
)

const (
	DefaultCapacity        = 50
	DefaultOverlayCapacity = 5
)

// Buffers holds one ring per channel. Appends to System are mirrored into
// Overlay. Not safe for concurrent use.
type Buffers struct {
	rings map[Channel]*Ring
	seq   uint64
}

func NewBuffers(capacity, overlayCapacity int) *Buffers {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if overlayCapacity <= 0 {
		overlayCapacity = DefaultOverlayCapacity
	}
	b := &Buffers{rings: map[Channel]*Ring{}}
	for _, ch := range []Channel{System, Drone, Harvester, Market} {
		b.rings[ch] = NewRing(capacity)
	}
	b.rings[Overlay] = NewRing(overlayCapacity)
	return b
}

// Channels lists the channels in display order.
func Channels() []Channel {
	return []Channel{System, Drone, Harvester, Market, Overlay}
}

func (b *Buffers) Append(ch Channel, at time.Time, category, text string) Entry {
	r, ok := b.rings[ch]
	if !ok {
		ch, r = System, b.rings[System]
	}
	b.seq++
	e := Entry{Seq: b.seq, Time: at, Channel: ch, Category: category, Text: text}
	r.Append(e)
	if ch == System {
		m := e
		m.Channel = Overlay
		b.rings[Overlay].Append(m)
	}
	return e
}

func (b *Buffers) Appendf(ch Channel, at time.Time, category, format string, args ...any) Entry {
	return b.Append(ch, at, category, fmt.Sprintf(format, args...))
}

func (b *Buffers) Entries(ch Channel) []Entry {
	if r, ok := b.rings[ch]; ok {
		return r.Entries()
	}
	return nil
}

func (b *Buffers) Since(ch Channel, seq uint64) []Entry {
	if r, ok := b.rings[ch]; ok {
		return r.Since(seq)
	}
	return nil
}

// Seq is the sequence number of the most recent append.
func (b *Buffers) Seq() uint64 { return b.seq }

package history

import "time"

type Channel string

const (
	System    Channel = "system"
	Drone     Channel = "drone"
	Harvester Channel = "harvester"
	Market    Channel = "market"
	// Overlay is the compact view that mirrors System.
	Overlay Channel = "overlay"
)

// Entry categories.
const (
	CatSystem    = "system"
	CatSuccess   = "success"
	CatError     = "error"
	CatAlert     = "alert"
	CatHighlight = "highlight"
	CatMessage   = "msg"
	CatWeather   = "weather"

	CatDispatch = "dispatch"
	CatFlying   = "flying"
	CatArrive   = "arrive"
	CatScan     = "scan"
	CatComplete = "complete"
	CatReturn   = "return"
	CatDriving  = "driving"
	CatHarvest  = "harvest"
	CatMove     = "move"

	CatAuction = "auction"
	CatBid     = "bid"
	CatWin     = "win"
	CatLose    = "lose"
	CatCNP     = "cnp"
	CatAccept  = "accept"
)

type Entry struct {
	Seq      uint64
	Time     time.Time
	Channel  Channel
	Category string
	Text     string
}

// Ring is a fixed-capacity FIFO; appending to a full ring evicts the
// oldest entry.
type Ring struct {
	buf   []Entry
	start int
	n     int
}

func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{buf: make([]Entry, capacity)}
}

func (r *Ring) Cap() int { return len(r.buf) }
func (r *Ring) Len() int { return r.n }

func (r *Ring) Append(e Entry) {
	if r.n < len(r.buf) {
		r.buf[(r.start+r.n)%len(r.buf)] = e
		r.n++
		return
	}
	r.buf[r.start] = e
	r.start = (r.start + 1) % len(r.buf)
}

// Entries returns the contents oldest first.
func (r *Ring) Entries() []Entry {
	out := make([]Entry, 0, r.n)
	for i := 0; i < r.n; i++ {
		out = append(out, r.buf[(r.start+i)%len(r.buf)])
	}
	return out
}

// Since returns entries with Seq greater than seq, oldest first.
func (r *Ring) Since(seq uint64) []Entry {
	var out []Entry
	for i := 0; i < r.n; i++ {
		e := r.buf[(r.start+i)%len(r.buf)]
		if e.Seq > seq {
			out = append(out, e)
		}
	}
	return out
}

package journal

import (
	"encoding/json"
	"time"
)

type Direction string

const (
	Inbound  Direction = "in"
	Outbound Direction = "out"
)

// Outcome values for inbound frames.
const (
	OutcomeOK          = "ok"
	OutcomeUnknown     = "unknown"
	OutcomeDecodeError = "decode_error"
	OutcomeSent        = "sent"
)

// Record is one line of the frame journal. Frame holds the raw text as it
// crossed the wire, so replay decodes it again with the current decoder.
type Record struct {
	Session string    `json:"session"`
	Seq     uint64    `json:"seq"`
	At      time.Time `json:"at"`
	Dir     Direction `json:"dir"`
	Tag     string    `json:"tag,omitempty"`
	Outcome string    `json:"outcome,omitempty"`
	Err     string    `json:"err,omitempty"`
	Frame   string    `json:"frame"`
}

// Recorder stamps frames with a session id and sequence number and fans
// them out to the file journal and an optional index.
type Recorder struct {
	session string
	now     func() time.Time
	seq     uint64

	w     *Writer
	index *Index
}

func NewRecorder(session string, w *Writer, index *Index) *Recorder {
	return &Recorder{session: session, now: time.Now, w: w, index: index}
}

func (r *Recorder) Session() string { return r.session }

// Frame journals one inbound frame.
func (r *Recorder) Frame(frame []byte, tag, outcome string, err error) error {
	rec := r.next(Inbound, frame)
	rec.Tag = tag
	rec.Outcome = outcome
	if err != nil {
		rec.Err = err.Error()
	}
	return r.append(rec)
}

// Command journals one outbound command.
func (r *Recorder) Command(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	rec := r.next(Outbound, b)
	rec.Tag = "COMMAND"
	rec.Outcome = OutcomeSent
	return r.append(rec)
}

func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	var err error
	if r.w != nil {
		err = r.w.Close()
	}
	if r.index != nil {
		if e := r.index.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

func (r *Recorder) next(dir Direction, frame []byte) Record {
	r.seq++
	return Record{
		Session: r.session,
		Seq:     r.seq,
		At:      r.now().UTC(),
		Dir:     dir,
		Frame:   string(frame),
	}
}

func (r *Recorder) append(rec Record) error {
	if r.index != nil {
		_ = r.index.Append(rec)
	}
	if r.w == nil {
		return nil
	}
	return r.w.Write(rec)
}

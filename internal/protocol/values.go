package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID is an entity identifier that the simulation sends either as a JSON
// number or as a string. Numbers keep their literal text ("3").
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id.numeric() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// numeric reports whether id is a canonical integer literal. "007" and
// "-0" stay strings so they survive a round trip unchanged.
func (id ID) numeric() bool {
	n, err := strconv.ParseInt(string(id), 10, 64)
	return err == nil && strconv.FormatInt(n, 10) == string(id)
}

func (id ID) String() string { return string(id) }

// Opt records whether a key was present in a payload, and whether it was
// an explicit null. Absent keys leave Set false.
type Opt[T any] struct {
	Set  bool
	Null bool
	V    T
}

func Some[T any](v T) Opt[T] { return Opt[T]{Set: true, V: v} }

func (o *Opt[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(bytes.TrimSpace(b)) == "null" {
		o.Null = true
		var zero T
		o.V = zero
		return nil
	}
	return json.Unmarshal(b, &o.V)
}

// Get returns the value when the key was present and not null.
func (o Opt[T]) Get() (T, bool) {
	return o.V, o.Set && !o.Null
}

// Ptr is Get in pointer form; nil means "leave unchanged".
func (o Opt[T]) Ptr() *T {
	if !o.Set || o.Null {
		return nil
	}
	v := o.V
	return &v
}

func (o Opt[T]) Or(def T) T {
	if v, ok := o.Get(); ok {
		return v
	}
	return def
}

// firstString returns the first non-empty candidate.
func firstString(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func firstID(vals ...ID) ID {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNum(vals ...Opt[float64]) Opt[float64] {
	for _, v := range vals {
		if _, ok := v.Get(); ok {
			return v
		}
	}
	return Opt[float64]{}
}

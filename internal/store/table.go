package store

import "reflect"

type row[T any] struct {
	v   T
	rev uint64
}

// table keeps rows in first-seen order.
type table[T any] struct {
	rows  map[string]*row[T]
	order []string
}

func newTable[T any]() table[T] {
	return table[T]{rows: map[string]*row[T]{}}
}

func (t *table[T]) get(id string) (T, bool) {
	r, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, false
	}
	return r.v, true
}

func (t *table[T]) put(id string, v T) T {
	r, ok := t.rows[id]
	if !ok {
		t.rows[id] = &row[T]{v: v, rev: 1}
		t.order = append(t.order, id)
		return v
	}
	if reflect.DeepEqual(r.v, v) {
		return v
	}
	r.v = v
	r.rev++
	return v
}

func (t *table[T]) rev(id string) uint64 {
	if r, ok := t.rows[id]; ok {
		return r.rev
	}
	return 0
}

func (t *table[T]) all() []T {
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.rows[id].v)
	}
	return out
}

package memory

import (
	"sort"

	"github.com/google/uuid"
)

type row[T any] struct {
	seq int
	v   T
}

// table keeps rows by id and remembers insertion order for listings.
type table[T any] struct {
	rows map[uuid.UUID]row[T]
	next int
}

func newTable[T any]() table[T] {
	return table[T]{rows: make(map[uuid.UUID]row[T])}
}

func (t table[T]) clone() table[T] {
	c := table[T]{rows: make(map[uuid.UUID]row[T], len(t.rows)), next: t.next}
	for k, v := range t.rows {
		c.rows[k] = v
	}
	return c
}

func (t table[T]) get(id uuid.UUID) (T, bool) {
	r, ok := t.rows[id]
	return r.v, ok
}

func (t *table[T]) insert(id uuid.UUID, v T) {
	t.next++
	t.rows[id] = row[T]{seq: t.next, v: v}
}

func (t *table[T]) replace(id uuid.UUID, v T) bool {
	r, ok := t.rows[id]
	if !ok {
		return false
	}
	r.v = v
	t.rows[id] = r
	return true
}

func (t table[T]) filter(match func(T) bool) []T {
	rs := make([]row[T], 0)
	for _, r := range t.rows {
		if match(r.v) {
			rs = append(rs, r)
		}
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i].seq < rs[j].seq })
	out := make([]T, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.v)
	}
	return out
}

package ui

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrInvalidHandle is returned for handles that were released, never issued, or
// belong to another handle table.
var ErrInvalidHandle = errors.New("ui: invalid handle")

// handle is an index into a handle table plus the generation of the slot when the
// handle was issued and the table that issued it. The zero handle is never valid.
type handle struct {
	owner      uint32
	index      uint32
	generation uint32
}

var tableIDs atomic.Uint32

// GeometryHandle refers to geometry compiled by RmlRenderer.CompileGeometry.
type GeometryHandle struct{ h handle }

// TextureHandle refers to a texture loaded or generated by RmlRenderer. The zero
// value means "no texture".
type TextureHandle struct{ h handle }

// IsZero reports whether the handle is the zero value.
func (t TextureHandle) IsZero() bool { return t.h == handle{} }

// IsZero reports whether the handle is the zero value.
func (g GeometryHandle) IsZero() bool { return g.h == handle{} }

func (t TextureHandle) String() string  { return fmt.Sprintf("texture(%d:%d)", t.h.index, t.h.generation) }
func (g GeometryHandle) String() string { return fmt.Sprintf("geometry(%d:%d)", g.h.index, g.h.generation) }

type slot[T any] struct {
	value      T
	generation uint32
	live       bool
}

// handleTable stores values behind generation-checked handles. Released slots are
// reused with a bumped generation, so stale handles never resolve to a new value.
type handleTable[T any] struct {
	owner uint32
	slots []slot[T]
	free  []uint32
	live  int
}

func newHandleTable[T any]() *handleTable[T] {
	return &handleTable[T]{owner: tableIDs.Add(1)}
}

func (t *handleTable[T]) insert(value T) handle {
	var index uint32
	if n := len(t.free); n > 0 {
		index = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		// slot 0 stays unused so the zero handle is invalid
		if len(t.slots) == 0 {
			t.slots = append(t.slots, slot[T]{})
		}
		index = uint32(len(t.slots))
		t.slots = append(t.slots, slot[T]{})
	}
	s := &t.slots[index]
	s.generation++
	s.value = value
	s.live = true
	t.live++
	return handle{owner: t.owner, index: index, generation: s.generation}
}

func (t *handleTable[T]) get(h handle) (T, error) {
	var zero T
	if h.owner != t.owner || h.index == 0 || int(h.index) >= len(t.slots) {
		return zero, ErrInvalidHandle
	}
	s := &t.slots[h.index]
	if !s.live || s.generation != h.generation {
		return zero, ErrInvalidHandle
	}
	return s.value, nil
}

func (t *handleTable[T]) remove(h handle) (T, error) {
	value, err := t.get(h)
	if err != nil {
		return value, err
	}
	s := &t.slots[h.index]
	var zero T
	s.value = zero
	s.live = false
	t.free = append(t.free, h.index)
	t.live--
	return value, nil
}

func (t *handleTable[T]) len() int { return t.live }

package cadence

import (
	"sync/atomic"
	"weak"
)

// lease is the strong half of a handle's ownership. Handles hold the only
// strong pointer; the registry keeps a weak pointer. The slot is pruned once
// the lease is released or garbage collected.
type lease struct {
	released atomic.Bool
	label    string
}

func newLease(label string) *lease {
	return &lease{label: label}
}

func (l *lease) release() {
	if l != nil {
		l.released.Store(true)
	}
}

type slot[T any] struct {
	gen      uint32
	occupied bool
	owned    bool
	owner    weak.Pointer[lease]
	value    T
}

// alive reports whether the slot's owner (if any) still holds its lease.
func (s *slot[T]) alive() bool {
	if !s.owned {
		return true
	}
	l := s.owner.Value()
	return l != nil && !l.released.Load()
}

// table is a generational slot map. It is not safe for concurrent use; the
// scheduler guards every table with its single mutex.
type table[T any] struct {
	slots []slot[T]
	free  []uint32
	live  int
}

// insert stores v and returns its key. A non-nil owner makes the slot
// prunable once the owner's lease is gone.
func (t *table[T]) insert(v T, owner *lease) key {
	var idx uint32
	if n := len(t.free); n > 0 {
		idx = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		idx = uint32(len(t.slots))
		t.slots = append(t.slots, slot[T]{gen: 1})
	}
	s := &t.slots[idx]
	s.occupied = true
	s.value = v
	s.owned = owner != nil
	if owner != nil {
		s.owner = weak.Make(owner)
	} else {
		s.owner = weak.Pointer[lease]{}
	}
	t.live++
	return key{index: idx, gen: s.gen}
}

// get returns the value for k, or nil when k is stale.
func (t *table[T]) get(k key) *T {
	if int(k.index) >= len(t.slots) {
		return nil
	}
	s := &t.slots[k.index]
	if !s.occupied || s.gen != k.gen {
		return nil
	}
	return &s.value
}

// remove frees k's slot and bumps its generation so k and any copies of it
// become stale.
func (t *table[T]) remove(k key) bool {
	if t.get(k) == nil {
		return false
	}
	t.release(k.index)
	return true
}

func (t *table[T]) release(idx uint32) {
	s := &t.slots[idx]
	var zero T
	s.value = zero
	s.occupied = false
	s.owned = false
	s.owner = weak.Pointer[lease]{}
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	t.free = append(t.free, idx)
	t.live--
}

// prune frees every slot whose owner is gone and calls onPrune for each
// before its value is cleared.
func (t *table[T]) prune(onPrune func(k key, v *T)) int {
	n := 0
	for i := range t.slots {
		s := &t.slots[i]
		if !s.occupied || s.alive() {
			continue
		}
		if onPrune != nil {
			onPrune(key{index: uint32(i), gen: s.gen}, &s.value)
		}
		t.release(uint32(i))
		n++
	}
	return n
}

// each visits occupied slots in index order.
func (t *table[T]) each(fn func(k key, v *T)) {
	for i := range t.slots {
		s := &t.slots[i]
		if s.occupied {
			fn(key{index: uint32(i), gen: s.gen}, &s.value)
		}
	}
}

func (t *table[T]) count() int { return t.live }

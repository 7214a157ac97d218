// Package kbest implements a fixed-capacity collection that retains the K
// highest-scored entries ever offered to it.
package kbest

import (
	"container/heap"
	"sort"
)

// Entry is a scored payload held by a List.
type Entry[T any] struct {
	Score   float64
	Payload T

	seq uint64
}

// List keeps the capacity highest-scored entries added to it.
//
// Ties are resolved by insertion order: an entry whose score equals the
// lowest held score of a full list is rejected, and among held entries with
// equal scores the most recently inserted one is evicted first. Entries
// therefore reports equal scores earliest-insertion first.
//
// A List is not safe for concurrent use.
type List[T any] struct {
	capacity int
	next     uint64
	h        minHeap[T]
}

// initialCap bounds the storage reserved up front; the heap grows as entries
// are added, so a large capacity costs nothing until it is used.
const initialCap = 64

// New returns an empty list holding at most capacity entries.
// It panics if capacity < 1.
func New[T any](capacity int) *List[T] {
	if capacity < 1 {
		panic("kbest: capacity must be at least 1")
	}
	return &List[T]{
		capacity: capacity,
		h:        make(minHeap[T], 0, min(capacity, initialCap)),
	}
}

// Add offers an entry to the list and reports whether it was kept.
func (l *List[T]) Add(score float64, payload T) bool {
	e := Entry[T]{Score: score, Payload: payload, seq: l.next}
	l.next++

	if len(l.h) < l.capacity {
		heap.Push(&l.h, e)
		return true
	}
	if score <= l.h[0].Score {
		return false
	}
	l.h[0] = e
	heap.Fix(&l.h, 0)
	return true
}

// Entries returns the held entries ordered by descending score. The returned
// slice is a copy; the list is not modified.
func (l *List[T]) Entries() []Entry[T] {
	out := make([]Entry[T], len(l.h))
	copy(out, l.h)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].seq < out[j].seq
	})
	return out
}

// Len returns the number of held entries.
func (l *List[T]) Len() int { return len(l.h) }

// Cap returns the capacity the list was created with.
func (l *List[T]) Cap() int { return l.capacity }

// Min returns the lowest held score. ok is false when the list is empty.
func (l *List[T]) Min() (score float64, ok bool) {
	if len(l.h) == 0 {
		return 0, false
	}
	return l.h[0].Score, true
}

// minHeap orders entries so that the root is the next one to evict: the
// lowest score, and for equal scores the latest insertion.
type minHeap[T any] []Entry[T]

func (h minHeap[T]) Len() int { return len(h) }

func (h minHeap[T]) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].seq > h[j].seq
}

func (h minHeap[T]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *minHeap[T]) Push(x any) { *h = append(*h, x.(Entry[T])) }

func (h *minHeap[T]) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

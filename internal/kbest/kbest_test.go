package kbest

import (
	"math/rand"
	"sort"
	"testing"
)

func TestSingleInsertion(t *testing.T) {
	t.Parallel()

	for _, capacity := range []int{1, 2, 10} {
		l := New[string](capacity)
		if !l.Add(-1.5, "only") {
			t.Fatalf("cap %d: expected entry to be kept", capacity)
		}
		got := l.Entries()
		if len(got) != 1 || got[0].Score != -1.5 || got[0].Payload != "only" {
			t.Fatalf("cap %d: got %+v", capacity, got)
		}
	}
}

func TestKeepsHighestScores(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		capacity := 1 + rng.Intn(8)
		n := rng.Intn(40)

		type offered struct {
			score float64
			idx   int
		}
		all := make([]offered, 0, n)
		l := New[int](capacity)
		for i := 0; i < n; i++ {
			// Coarse scores so ties are frequent.
			score := float64(rng.Intn(6))
			all = append(all, offered{score: score, idx: i})
			l.Add(score, i)
			if l.Len() > capacity {
				t.Fatalf("trial %d: size %d exceeds capacity %d", trial, l.Len(), capacity)
			}
		}

		sort.SliceStable(all, func(i, j int) bool { return all[i].score > all[j].score })
		want := all[:min(capacity, len(all))]

		got := l.Entries()
		if len(got) != len(want) {
			t.Fatalf("trial %d: got %d entries, want %d", trial, len(got), len(want))
		}
		for i := range want {
			if got[i].Score != want[i].score || got[i].Payload != want[i].idx {
				t.Fatalf("trial %d: entry %d = (%v, %d), want (%v, %d)",
					trial, i, got[i].Score, got[i].Payload, want[i].score, want[i].idx)
			}
		}
	}
}

func TestTieAgainstMinimumIsRejected(t *testing.T) {
	t.Parallel()

	l := New[string](2)
	l.Add(1, "a")
	l.Add(1, "b")
	if l.Add(1, "c") {
		t.Fatal("equal score against a full list should be rejected")
	}
	got := l.Entries()
	if got[0].Payload != "a" || got[1].Payload != "b" {
		t.Fatalf("got %v, %v, want a, b", got[0].Payload, got[1].Payload)
	}

	// A better entry evicts the latest of the tied pair.
	l.Add(2, "d")
	got = l.Entries()
	if got[0].Payload != "d" || got[1].Payload != "a" {
		t.Fatalf("got %v, %v, want d, a", got[0].Payload, got[1].Payload)
	}
}

func TestEntriesDoesNotMutate(t *testing.T) {
	t.Parallel()

	l := New[int](3)
	for i, s := range []float64{0.5, -2, 3, 1} {
		l.Add(s, i)
	}
	first := l.Entries()
	first[0].Score = 100
	second := l.Entries()
	if second[0].Score != 3 {
		t.Fatalf("Entries exposed internal storage: got %v", second[0].Score)
	}
	if l.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", l.Len())
	}
	if m, ok := l.Min(); !ok || m != 0.5 {
		t.Fatalf("Min() = %v, %v, want 0.5, true", m, ok)
	}
}

func TestEmptyList(t *testing.T) {
	t.Parallel()

	l := New[int](4)
	if got := l.Entries(); len(got) != 0 {
		t.Fatalf("expected no entries, got %v", got)
	}
	if _, ok := l.Min(); ok {
		t.Fatal("Min on empty list should report !ok")
	}
	if l.Cap() != 4 {
		t.Fatalf("Cap() = %d, want 4", l.Cap())
	}
}

func TestNewPanicsOnZeroCapacity(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	New[int](0)
}

func TestLargeCapacityGrowsOnDemand(t *testing.T) {
	t.Parallel()

	l := New[int](1 << 40)
	if l.Cap() != 1<<40 || l.Len() != 0 {
		t.Fatalf("Cap() = %d, Len() = %d", l.Cap(), l.Len())
	}
	if got := cap(l.h); got > initialCap {
		t.Fatalf("reserved %d slots up front, want at most %d", got, initialCap)
	}
	for i := range 200 {
		l.Add(float64(i), i)
	}
	if l.Len() != 200 {
		t.Fatalf("Len() = %d, want 200", l.Len())
	}
	if e := l.Entries(); e[0].Payload != 199 || e[199].Payload != 0 {
		t.Fatalf("unexpected order: first %d last %d", e[0].Payload, e[199].Payload)
	}
}

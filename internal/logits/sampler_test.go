package logits

import "testing"

// TestSamplerDeterminism ensures that two samplers configured identically
// produce identical results when sampling the same scores.
func TestSamplerDeterminism(t *testing.T) {
	t.Parallel()

	scores := []float32{0, 1, 2, 3, 4, 5}
	s1 := NewSampler(SamplerConfig{Seed: 42, Temperature: 0.9, TopK: 4, TopP: 0.95})
	s2 := NewSampler(SamplerConfig{Seed: 42, Temperature: 0.9, TopK: 4, TopP: 0.95})
	for i := 0; i < 20; i++ {
		a := s1.Sample(scores, nil, nil)
		b := s2.Sample(scores, nil, nil)
		if a != b {
			t.Fatalf("draw %d: expected deterministic sample, got %d vs %d", i, a, b)
		}
	}
}

func TestSamplerGreedy(t *testing.T) {
	t.Parallel()

	scores := []float32{-1, 5, 3, 7, 2}
	s := NewSampler(SamplerConfig{Seed: 99, Temperature: 0})
	if idx := s.Sample(scores, nil, nil); idx != 3 {
		t.Fatalf("expected greedy index 3, got %d", idx)
	}
}

// With top-p below the first candidate's probability only that candidate
// can ever be drawn.
func TestSamplerTopP(t *testing.T) {
	t.Parallel()

	scores := []float32{10, 0, 0, 0, 0}
	s := NewSampler(SamplerConfig{Seed: 7, Temperature: 1.0, TopK: 5, TopP: 0.5})
	for i := 0; i < 10; i++ {
		if idx := s.Sample(scores, nil, nil); idx != 0 {
			t.Fatalf("top-p sampling returned unexpected index %d", idx)
		}
	}
}

func TestSamplerTopKRestrictsShortlist(t *testing.T) {
	t.Parallel()

	scores := []float32{0, 3, 0.1, 2.9, 0}
	s := NewSampler(SamplerConfig{Seed: 3, Temperature: 1.5, TopK: 2})
	for i := 0; i < 50; i++ {
		idx := s.Sample(scores, nil, nil)
		if idx != 1 && idx != 3 {
			t.Fatalf("draw %d: got index %d outside the top-2 shortlist", i, idx)
		}
	}
}

func TestSamplerRepeatPenaltyDoesNotModifyInput(t *testing.T) {
	t.Parallel()

	scores := []float32{2, 1.9, -1}
	s := NewSampler(SamplerConfig{Seed: 1, Temperature: 0, RepeatPenalty: 4})
	idx := s.Sample(scores, []int{0}, nil)
	if idx != 1 {
		t.Fatalf("expected penalised token 0 to lose to token 1, got %d", idx)
	}
	if scores[0] != 2 {
		t.Fatalf("input scores were modified: %v", scores)
	}

	// Excluded ids are never penalised.
	if idx := s.Sample(scores, []int{0}, []int{0}); idx != 0 {
		t.Fatalf("expected excluded token 0 to win, got %d", idx)
	}
}

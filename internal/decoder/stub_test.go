package decoder

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"
)

// stubState is the handle type of stubModel: the full emitted history.
type stubState struct {
	tokens []TokenID
}

// stubModel scores a history with a fixed function, so every run sees the
// same distributions.
type stubModel struct {
	info   ModelInfo
	scores func(history []TokenID) []float32

	// failScoreAt makes ScoreDistribution fail for histories of this length.
	failScoreAt  int
	panicAdvance bool
	onScore      func(history []TokenID)

	encodes  atomic.Int32
	advances atomic.Int32

	mu     sync.Mutex
	source []TokenID
}

func newStub(vocab int, scores func([]TokenID) []float32) *stubModel {
	return &stubModel{
		info:   ModelInfo{SOS: 0, EOS: 1, VocabSize: vocab},
		scores: scores,
	}
}

func (m *stubModel) Info() ModelInfo { return m.info }

func (m *stubModel) Encode(source []TokenID) error {
	m.encodes.Add(1)
	m.mu.Lock()
	m.source = append([]TokenID(nil), source...)
	m.mu.Unlock()
	return nil
}

func (m *stubModel) InitialState() (Handle, []float32, error) {
	return stubState{tokens: []TokenID{m.info.SOS}}, make([]float32, 2), nil
}

func (m *stubModel) ScoreDistribution(h Handle) ([]float32, error) {
	st := h.(stubState)
	if m.onScore != nil {
		m.onScore(st.tokens)
	}
	if m.failScoreAt > 0 && len(st.tokens) == m.failScoreAt {
		return nil, errors.New("forced score failure")
	}
	return m.scores(st.tokens), nil
}

func (m *stubModel) Advance(h Handle, tok TokenID) (Handle, error) {
	m.advances.Add(1)
	if m.panicAdvance {
		panic("advance boom")
	}
	st := h.(stubState)
	next := append(slices.Clone(st.tokens), tok)
	return stubState{tokens: next}, nil
}

// constScores returns the same distribution for every history.
func constScores(dist ...float32) func([]TokenID) []float32 {
	return func([]TokenID) []float32 {
		return slices.Clone(dist)
	}
}

// hashedScores derives a pseudo-random but fixed distribution from the
// history, so different prefixes prefer different tokens.
func hashedScores(vocab int) func([]TokenID) []float32 {
	return func(history []TokenID) []float32 {
		h := uint32(2166136261)
		for _, t := range history {
			h ^= uint32(t)
			h *= 16777619
		}
		out := make([]float32, vocab)
		for j := range out {
			x := h ^ (uint32(j) * 2654435761)
			x ^= x >> 13
			out[j] = -float32(x%1000) / 100
		}
		return out
	}
}

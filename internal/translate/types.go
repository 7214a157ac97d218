package translate

import (
	"time"

	"github.com/samcharles93/seqgen/internal/decoder"
	"github.com/samcharles93/seqgen/internal/logits"
)

// Options control a single translation.
type Options struct {
	// K is the number of hypotheses to return. 0 means 1.
	K int
	// BeamWidth is the frontier size. 0 uses the service default.
	BeamWidth int

	// Sampling, when set, draws one hypothesis by sampling instead of
	// running beam search. K and BeamWidth are ignored.
	Sampling *logits.SamplerConfig
}

type Hypothesis struct {
	Score  float64           `json:"score"`
	Tokens []decoder.TokenID `json:"tokens"`
	Text   string            `json:"text"`
}

type Stats struct {
	Steps    int           `json:"steps"`
	Duration time.Duration `json:"duration_ns"`
}

// Result is the translation of one source sentence.
type Result struct {
	Source     string       `json:"source"`
	Hypotheses []Hypothesis `json:"hypotheses"`
	Partial    bool         `json:"partial,omitempty"`
	Stats      Stats        `json:"stats"`
}

// Best returns the top hypothesis text, or the empty string.
func (r *Result) Best() string {
	if r == nil || len(r.Hypotheses) == 0 {
		return ""
	}
	return r.Hypotheses[0].Text
}

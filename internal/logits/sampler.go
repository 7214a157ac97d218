package logits

import (
	"math"
	"math/rand"

	"github.com/samcharles93/seqgen/internal/kbest"
)

// SamplerConfig configures the behaviour of a Sampler.
type SamplerConfig struct {
	Seed          int64
	Temperature   float32
	TopK          int
	TopP          float32
	MinP          float32
	RepeatPenalty float32
	RepeatLastN   int
}

// Sampler draws token ids from score vectors. It keeps scratch buffers and
// an RNG, so a Sampler must not be shared between concurrent decodes.
type Sampler struct {
	rng      *rand.Rand
	cfg      SamplerConfig
	greedy   bool
	scratch  []float32
	prob     []float64
	shortIdx []int
	seen     map[int]struct{}
}

// NewSampler returns a new sampler with the provided configuration.
func NewSampler(cfg SamplerConfig) *Sampler {
	greedy := cfg.Temperature <= 0
	if cfg.Temperature <= 0 {
		cfg.Temperature = 1
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 40
	}
	if cfg.TopP <= 0 || cfg.TopP > 1 {
		cfg.TopP = 1
	}
	if cfg.RepeatPenalty <= 0 {
		cfg.RepeatPenalty = 1.0
	}
	if cfg.RepeatLastN <= 0 {
		cfg.RepeatLastN = 64
	}
	return &Sampler{
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		cfg:    cfg,
		greedy: greedy,
		seen:   make(map[int]struct{}),
	}
}

// Sample draws a single index from scores, which may be raw logits or
// log-probabilities. scores is never modified.
//
//  1. Apply the repetition penalty to ids in the recent window, skipping
//     excludePenalty.
//  2. Greedy configurations return the argmax.
//  3. Otherwise the scores are scaled by 1/temperature and the top k kept.
//  4. A softmax over the shortlist is filtered by min-p and truncated at
//     cumulative top-p.
//  5. A uniform draw selects from what remains.
func (s *Sampler) Sample(scores []float32, recent []int, excludePenalty []int) int {
	if len(scores) == 0 {
		return 0
	}
	work := scores
	if s.cfg.RepeatPenalty > 1.0 && len(recent) > 0 {
		work = s.penalise(scores, recent, excludePenalty)
	}

	if s.greedy || (s.cfg.TopK == 1 && s.cfg.TopP >= 1 && s.cfg.Temperature == 1) {
		return argmax(work)
	}

	invTemp := 1.0 / float64(s.cfg.Temperature)
	short := kbest.New[int](min(s.cfg.TopK, len(work)))
	for i, v := range work {
		if math.IsInf(float64(v), -1) {
			continue
		}
		short.Add(float64(v)*invTemp, i)
	}
	entries := short.Entries()
	if len(entries) == 0 {
		return argmax(work)
	}

	if cap(s.prob) < len(entries) {
		s.prob = make([]float64, len(entries))
		s.shortIdx = make([]int, len(entries))
	}
	prob := s.prob[:len(entries)]
	idx := s.shortIdx[:len(entries)]

	maxv := entries[0].Score
	var sum float64
	for i, e := range entries {
		p := math.Exp(e.Score - maxv)
		prob[i] = p
		idx[i] = e.Payload
		sum += p
	}
	if sum == 0 {
		return idx[0]
	}
	for i := range prob {
		prob[i] /= sum
	}

	if s.cfg.MinP > 0 {
		threshold := prob[0] * float64(s.cfg.MinP)
		n := 0
		var kept float64
		for i := range prob {
			if prob[i] >= threshold {
				prob[n] = prob[i]
				idx[n] = idx[i]
				kept += prob[i]
				n++
			}
		}
		prob, idx = prob[:n], idx[:n]
		if kept > 0 {
			for i := range prob {
				prob[i] /= kept
			}
		}
	}

	cut := len(prob)
	if s.cfg.TopP < 1 {
		var c float64
		for i := range prob {
			c += prob[i]
			if float32(c) >= s.cfg.TopP {
				cut = i + 1
				break
			}
		}
	}

	r := s.rng.Float64()
	var c float64
	for i := 0; i < cut; i++ {
		c += prob[i]
		if r <= c {
			return idx[i]
		}
	}
	return idx[cut-1]
}

func (s *Sampler) penalise(scores []float32, recent []int, exclude []int) []float32 {
	if cap(s.scratch) < len(scores) {
		s.scratch = make([]float32, len(scores))
	}
	work := s.scratch[:len(scores)]
	copy(work, scores)

	clear(s.seen)
	start := max(len(recent)-s.cfg.RepeatLastN, 0)
	for _, id := range recent[start:] {
		if id >= 0 && id < len(work) {
			s.seen[id] = struct{}{}
		}
	}
	for _, id := range exclude {
		delete(s.seen, id)
	}
	for id := range s.seen {
		if work[id] > 0 {
			work[id] /= s.cfg.RepeatPenalty
		} else {
			work[id] *= s.cfg.RepeatPenalty
		}
	}
	return work
}

// argmax returns the index of the maximum value, preferring the lowest index
// on ties. It panics on an empty slice.
func argmax(x []float32) int {
	if len(x) == 0 {
		panic("argmax: empty slice")
	}
	bestI := 0
	bestV := x[0]
	for i := 1; i < len(x); i++ {
		if x[i] > bestV {
			bestV = x[i]
			bestI = i
		}
	}
	return bestI
}

package decoder

import (
	"context"

	"github.com/samcharles93/seqgen/internal/logits"
)

// Sample draws one output sequence by ancestral sampling from the fused
// ensemble distribution, stopping at EOS or MaxLength. The hypothesis score
// is the sum of the fused scores of the drawn tokens.
//
// Cancellation is checked before every step; a cancelled decode returns the
// prefix drawn so far with Partial set.
func (d *Decoder) Sample(ctx context.Context, source []TokenID, cfg logits.SamplerConfig) (*KBest, error) {
	sampler := logits.NewSampler(cfg)

	d.mu.Lock()
	defer d.mu.Unlock()

	h, err := d.begin(source)
	if err != nil {
		return nil, err
	}

	var (
		score  float64
		recent []int
		res    = &KBest{}
	)
	for t := 1; t <= d.cfg.MaxLength; t++ {
		if err := ctx.Err(); err != nil {
			d.log.Info("sampling cancelled", "step", t)
			res.Partial = true
			break
		}
		fused, err := d.distribution(h)
		if err != nil {
			return nil, err
		}
		tok := TokenID(sampler.Sample(fused, recent, []int{int(d.cfg.EOS)}))
		score += float64(fused[tok])
		recent = append(recent, int(tok))
		res.Steps = t

		if tok == d.cfg.EOS || t == d.cfg.MaxLength {
			h = &ensembleHypothesis{tokens: extend(h.tokens, tok)}
			break
		}
		h = newPending(h, tok)
	}

	res.Hypotheses = []Hypothesis{{Score: score, Tokens: h.tokens}}
	return res, nil
}

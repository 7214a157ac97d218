package decoder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/samcharles93/seqgen/internal/kbest"
	"github.com/samcharles93/seqgen/internal/logger"
	"github.com/samcharles93/seqgen/internal/logits"
)

// DefaultBeamWidth is the beam used when Config.BeamWidth is zero.
const DefaultBeamWidth = 10

// Config configures a Decoder.
type Config struct {
	// MaxLength bounds the number of emitted tokens after SOS.
	MaxLength int
	SOS       TokenID
	EOS       TokenID

	// BeamWidth is the frontier size used by Translate. Zero selects
	// DefaultBeamWidth; negative values are rejected.
	BeamWidth int

	// Workers bounds how many hypotheses are expanded in parallel within a
	// step. Values below 2 expand sequentially.
	Workers int

	Logger logger.Logger
}

// Hypothesis is a completed output sequence and its cumulative score.
type Hypothesis struct {
	Score  float64
	Tokens []TokenID
}

// KBest is the outcome of one decode. Partial is set when the decode was
// cancelled before reaching its final step.
type KBest struct {
	Hypotheses []Hypothesis
	Partial    bool
	Steps      int
}

// Best returns the highest-scoring hypothesis, if any.
func (k *KBest) Best() (Hypothesis, bool) {
	if k == nil || len(k.Hypotheses) == 0 {
		return Hypothesis{}, false
	}
	return k.Hypotheses[0], true
}

// Decoder runs beam search over an ensemble of sequence models.
//
// The decoder owns its models' encoder state, so decodes on one Decoder are
// serialised. Run independent decodes concurrently on separate Decoders built
// from separate model instances.
type Decoder struct {
	mu     sync.Mutex
	models []SequenceModel
	cfg    Config
	vocab  int
	fuser  logits.Fuser
	log    logger.Logger
}

// New validates the ensemble and configuration and returns a Decoder.
// All errors are *ConfigurationError and are reported before any model is
// invoked.
func New(models []SequenceModel, cfg Config) (*Decoder, error) {
	if len(models) == 0 {
		return nil, newConfigError("ensemble", "at least one model is required")
	}
	if cfg.MaxLength <= 0 {
		return nil, newConfigError("max length", "must be positive, got %d", cfg.MaxLength)
	}
	if cfg.BeamWidth == 0 {
		cfg.BeamWidth = DefaultBeamWidth
	}
	if cfg.BeamWidth < 0 {
		return nil, newConfigError("beam width", "must be positive, got %d", cfg.BeamWidth)
	}
	if cfg.SOS == cfg.EOS {
		return nil, newConfigError("special tokens", "SOS and EOS share id %d", cfg.SOS)
	}

	vocab := 0
	for i, m := range models {
		if m == nil {
			return nil, newConfigError("ensemble", "member %d is nil", i)
		}
		info := m.Info()
		if info.SOS != cfg.SOS || info.EOS != cfg.EOS {
			return nil, newConfigError("special tokens",
				"member %d uses SOS=%d EOS=%d, decoder expects SOS=%d EOS=%d",
				i, info.SOS, info.EOS, cfg.SOS, cfg.EOS)
		}
		if info.VocabSize <= 0 {
			return nil, newConfigError("vocabulary", "member %d reports size %d", i, info.VocabSize)
		}
		if i == 0 {
			vocab = info.VocabSize
		} else if info.VocabSize != vocab {
			return nil, newConfigError("vocabulary",
				"member %d has %d entries, member 0 has %d", i, info.VocabSize, vocab)
		}
		if int(cfg.SOS) < 0 || int(cfg.SOS) >= vocab || int(cfg.EOS) < 0 || int(cfg.EOS) >= vocab {
			return nil, newConfigError("special tokens",
				"SOS=%d EOS=%d outside vocabulary of %d", cfg.SOS, cfg.EOS, vocab)
		}
	}

	log := cfg.Logger
	if log == nil {
		log = logger.FromContext(context.Background())
	}

	return &Decoder{
		models: append([]SequenceModel(nil), models...),
		cfg:    cfg,
		vocab:  vocab,
		fuser:  logits.NewFuser(len(models)),
		log:    log.With("component", "decoder", "ensemble", len(models)),
	}, nil
}

// Ensemble returns the number of models the decoder fuses.
func (d *Decoder) Ensemble() int { return len(d.models) }

// Config returns the decoder's effective configuration.
func (d *Decoder) Config() Config { return d.cfg }

// Translate returns the single best output for source with its leading SOS
// removed. It returns nil when no sequence completed, which only happens if
// ctx is cancelled before the first completion.
func (d *Decoder) Translate(ctx context.Context, source []TokenID) ([]TokenID, error) {
	res, err := d.TranslateKBest(ctx, source, 1, d.cfg.BeamWidth)
	if err != nil {
		return nil, err
	}
	best, ok := res.Best()
	if !ok {
		return nil, nil
	}
	out := best.Tokens
	if len(out) > 0 && out[0] == d.cfg.SOS {
		out = out[1:]
	}
	return out, nil
}

// TranslateKBest returns up to k completed sequences for source, best first,
// found by a beam search of width beamWidth. Every sequence starts with SOS
// and either ends with EOS or holds exactly MaxLength tokens after SOS.
//
// ctx is checked once at the top of every step. A cancelled decode is not an
// error: it returns what has completed so far with Partial set.
func (d *Decoder) TranslateKBest(ctx context.Context, source []TokenID, k, beamWidth int) (*KBest, error) {
	if k <= 0 {
		return nil, newConfigError("k", "must be positive, got %d", k)
	}
	if beamWidth <= 0 {
		return nil, newConfigError("beam width", "must be positive, got %d", beamWidth)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	start := time.Now()
	log := d.log.With("k", k, "beam", beamWidth, "source_len", len(source))

	initial, err := d.begin(source)
	if err != nil {
		return nil, err
	}

	completed := kbest.New[[]TokenID](k)
	frontier := kbest.New[*ensembleHypothesis](beamWidth)
	frontier.Add(0, initial)

	res := &KBest{}
	for t := 1; t <= d.cfg.MaxLength; t++ {
		if err := ctx.Err(); err != nil {
			log.Info("decode cancelled", "step", t, "completed", completed.Len())
			res.Partial = true
			break
		}
		active := frontier.Entries()
		if len(active) == 0 {
			log.Debug("frontier exhausted", "step", t)
			break
		}

		candidates, err := d.expandAll(active, beamWidth)
		if err != nil {
			return nil, err
		}

		next := kbest.New[*ensembleHypothesis](beamWidth)
		for i, parent := range active {
			for _, c := range candidates[i] {
				score := parent.Score + c.Score
				if c.Payload == d.cfg.EOS || t == d.cfg.MaxLength {
					completed.Add(score, extend(parent.Payload.tokens, c.Payload))
					continue
				}
				// Skip building a pending hypothesis that could not be kept.
				if next.Len() == next.Cap() {
					if low, _ := next.Min(); score <= low {
						continue
					}
				}
				next.Add(score, newPending(parent.Payload, c.Payload))
			}
		}
		frontier = next
		res.Steps = t
		log.Debug("step", "t", t, "frontier", frontier.Len(), "completed", completed.Len())
	}

	for _, e := range completed.Entries() {
		res.Hypotheses = append(res.Hypotheses, Hypothesis{Score: e.Score, Tokens: e.Payload})
	}
	log.Debug("decode finished", "steps", res.Steps, "results", len(res.Hypotheses),
		"partial", res.Partial, "elapsed", time.Since(start))
	return res, nil
}

// begin encodes source on every member and builds the initial hypothesis.
func (d *Decoder) begin(source []TokenID) (*ensembleHypothesis, error) {
	tokens := []TokenID{d.cfg.SOS}
	members := make([]PartialHypothesis, len(d.models))
	for i, m := range d.models {
		if err := safeEncode(m, source); err != nil {
			return nil, &ModelInvocationError{Member: i, Op: "Encode", Err: err}
		}
		h, err := safeInitialState(m)
		if err != nil {
			return nil, &ModelInvocationError{Member: i, Op: "InitialState", Err: err}
		}
		members[i] = PartialHypothesis{Tokens: tokens, Handle: h}
	}
	return &ensembleHypothesis{tokens: tokens, members: members}, nil
}

// expandAll scores every active hypothesis and returns, per hypothesis, its
// top-width candidate tokens with their fused scores. Work may run in
// parallel, but results are indexed by frontier rank so the caller merges
// them in a fixed order.
func (d *Decoder) expandAll(active []kbest.Entry[*ensembleHypothesis], width int) ([][]kbest.Entry[TokenID], error) {
	out := make([][]kbest.Entry[TokenID], len(active))
	if d.cfg.Workers < 2 || len(active) < 2 {
		for i, e := range active {
			c, err := d.expand(e.Payload, width)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	}

	var g errgroup.Group
	g.SetLimit(d.cfg.Workers)
	for i, e := range active {
		g.Go(func() error {
			c, err := d.expand(e.Payload, width)
			if err != nil {
				return err
			}
			out[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Decoder) expand(h *ensembleHypothesis, width int) ([]kbest.Entry[TokenID], error) {
	fused, err := d.distribution(h)
	if err != nil {
		return nil, err
	}
	best := kbest.New[TokenID](min(width, len(fused)))
	for j, s := range fused {
		best.Add(float64(s), TokenID(j))
	}
	return best.Entries(), nil
}

// distribution materializes h and returns the fused next-token scores. Any
// member failure abandons the whole hypothesis; no partial fusion is done.
func (d *Decoder) distribution(h *ensembleHypothesis) ([]float32, error) {
	if err := h.materialize(d.models); err != nil {
		return nil, err
	}
	dists := make([][]float32, len(d.models))
	for i, m := range d.models {
		dist, err := safeScore(m, h.members[i].Handle)
		if err == nil {
			err = validateDistribution(dist, d.vocab)
		}
		if err != nil {
			return nil, &ModelInvocationError{Member: i, Op: "ScoreDistribution", Err: err}
		}
		dists[i] = dist
	}
	fused, err := d.fuser.Fuse(dists)
	if err != nil {
		return nil, fmt.Errorf("%w: fuse distributions: %v", ErrModelInvocation, err)
	}
	if err := checkFused(fused); err != nil {
		return nil, err
	}
	return fused, nil
}

// Package translate turns text into token ids, runs the beam decoder and
// maps the results back to text.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/samcharles93/seqgen/internal/decoder"
	"github.com/samcharles93/seqgen/internal/ensemble"
	"github.com/samcharles93/seqgen/internal/logger"
)

// ErrUnknownWord is returned for source words that a vocabulary without an
// unknown token cannot represent.
var ErrUnknownWord = errors.New("word not in source vocabulary")

// Config configures a Service.
type Config struct {
	MaxLength int
	BeamWidth int
	Workers   int

	// PoolSize is the number of independent decoders, and so the number of
	// sentences translated at once. 0 means 1.
	PoolSize int

	Logger logger.Logger
}

// Service translates sentences with a fixed pool of decoders. Each decoder
// owns its own ensemble instances.
type Service struct {
	bundle *ensemble.Bundle
	cfg    Config
	log    logger.Logger

	sem  *semaphore.Weighted
	mu   sync.Mutex
	free []*decoder.Decoder
}

// New builds PoolSize decoders from b.Factory.
func New(b *ensemble.Bundle, cfg Config) (*Service, error) {
	if b == nil || b.Factory == nil {
		return nil, errors.New("translate: ensemble bundle is required")
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 1
	}
	if cfg.MaxLength <= 0 && b.Def != nil {
		cfg.MaxLength = b.Def.MaxLength
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}

	s := &Service{
		bundle: b,
		cfg:    cfg,
		log:    cfg.Logger,
		sem:    semaphore.NewWeighted(int64(cfg.PoolSize)),
	}
	for i := range cfg.PoolSize {
		models, err := b.Factory()
		if err != nil {
			return nil, fmt.Errorf("build ensemble %d: %w", i, err)
		}
		dec, err := decoder.New(models, decoder.Config{
			MaxLength: cfg.MaxLength,
			SOS:       b.SOS,
			EOS:       b.EOS,
			BeamWidth: cfg.BeamWidth,
			Workers:   cfg.Workers,
			Logger:    cfg.Logger.With("decoder", i),
		})
		if err != nil {
			return nil, err
		}
		s.free = append(s.free, dec)
	}
	s.cfg.BeamWidth = s.free[0].Config().BeamWidth
	s.log.Info("translation service ready",
		"pool", cfg.PoolSize,
		"members", s.free[0].Ensemble(),
		"max_length", cfg.MaxLength,
		"beam", s.cfg.BeamWidth,
	)
	return s, nil
}

// PoolSize returns the number of decoders.
func (s *Service) PoolSize() int { return s.cfg.PoolSize }

func (s *Service) acquire(ctx context.Context) (*decoder.Decoder, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	s.mu.Lock()
	dec := s.free[len(s.free)-1]
	s.free = s.free[:len(s.free)-1]
	s.mu.Unlock()
	return dec, nil
}

func (s *Service) release(dec *decoder.Decoder) {
	s.mu.Lock()
	s.free = append(s.free, dec)
	s.mu.Unlock()
	s.sem.Release(1)
}

// EncodeSource converts text to source ids wrapped in the source SOS and
// EOS tokens.
func (s *Service) EncodeSource(text string) ([]decoder.TokenID, error) {
	words := s.bundle.Source.Encode(text)
	ids := make([]decoder.TokenID, 0, len(words)+2)
	ids = append(ids, s.bundle.SourceSOS)
	for i, id := range words {
		if id < 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownWord, strings.Fields(text)[i])
		}
		ids = append(ids, decoder.TokenID(id))
	}
	return append(ids, s.bundle.SourceEOS), nil
}

// DecodeTarget renders target ids as text, leaving out SOS and EOS.
func (s *Service) DecodeTarget(ids []decoder.TokenID) string {
	words := make([]int, 0, len(ids))
	for _, id := range ids {
		if id == s.bundle.SOS || id == s.bundle.EOS {
			continue
		}
		words = append(words, int(id))
	}
	return s.bundle.Target.Decode(words)
}

// unknownWords counts the source positions mapped to the unknown token.
func (s *Service) unknownWords(src []decoder.TokenID) int {
	unk := s.bundle.Source.UnknownID()
	if unk < 0 {
		return 0
	}
	n := 0
	for _, id := range src {
		if int(id) == unk {
			n++
		}
	}
	return n
}

// Translate decodes one sentence. A cancelled decode returns the hypotheses
// completed so far with Partial set and no error.
func (s *Service) Translate(ctx context.Context, text string, opts Options) (*Result, error) {
	src, err := s.EncodeSource(text)
	if err != nil {
		return nil, err
	}
	k := opts.K
	if k == 0 {
		k = 1
	}
	beam := opts.BeamWidth
	if beam == 0 {
		beam = s.cfg.BeamWidth
	}

	dec, err := s.acquire(ctx)
	if err != nil {
		return &Result{Source: text, Hypotheses: []Hypothesis{}, Partial: true}, nil
	}
	defer s.release(dec)

	start := time.Now()
	var kb *decoder.KBest
	if opts.Sampling != nil {
		kb, err = dec.Sample(ctx, src, *opts.Sampling)
	} else {
		kb, err = dec.TranslateKBest(ctx, src, k, beam)
	}
	if err != nil {
		s.log.Warn("translation failed", "error", err, "words", len(src)-2)
		return nil, err
	}

	res := &Result{
		Source:     text,
		Hypotheses: make([]Hypothesis, 0, len(kb.Hypotheses)),
		Partial:    kb.Partial,
		Stats:      Stats{Steps: kb.Steps, Duration: time.Since(start)},
	}
	for _, h := range kb.Hypotheses {
		res.Hypotheses = append(res.Hypotheses, Hypothesis{
			Score:  h.Score,
			Tokens: h.Tokens,
			Text:   s.DecodeTarget(h.Tokens),
		})
	}
	s.log.Info("translated",
		"words", len(src)-2,
		"unknown", s.unknownWords(src),
		"hypotheses", len(res.Hypotheses),
		"partial", res.Partial,
		"duration", res.Stats.Duration,
	)
	return res, nil
}

// TranslateBatch translates texts concurrently, at most PoolSize at a time.
// Results keep the order of texts. The first error cancels the rest.
func (s *Service) TranslateBatch(ctx context.Context, texts []string, opts Options) ([]*Result, error) {
	out := make([]*Result, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.PoolSize)
	for i, text := range texts {
		g.Go(func() error {
			res, err := s.Translate(gctx, text, opts)
			if err != nil {
				return fmt.Errorf("input %d: %w", i, err)
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ParseLine splits a "source ||| reference" line. The reference is empty
// when the line has no separator.
func ParseLine(line string) (source, reference string) {
	source, reference, _ = strings.Cut(line, "|||")
	return strings.TrimSpace(source), strings.TrimSpace(reference)
}

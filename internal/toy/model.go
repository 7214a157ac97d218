// Package toy provides a small deterministic encoder-decoder that satisfies
// decoder.SequenceModel. Its weights come from a seed rather than training,
// which makes it useful for exercising the search end to end.
package toy

import (
	"errors"
	"fmt"

	"github.com/samcharles93/seqgen/internal/decoder"
	"github.com/samcharles93/seqgen/internal/logits"
	"github.com/samcharles93/seqgen/internal/tensor"
)

var errNotEncoded = errors.New("toy: Encode must be called before decoding")

// Config describes a toy model.
type Config struct {
	SourceVocab int
	TargetVocab int
	Hidden      int
	Seed        int64

	// Scale bounds the random weights; 0 means 1.
	Scale float32

	SOS decoder.TokenID
	EOS decoder.TokenID
}

// Model is a toy recurrent encoder-decoder.
//
// The encoder averages source embeddings into a context vector. The decoder
// state is h' = tanh(h/2 + E[tok] + ctx) and the next-token scores are
// log-softmax(h*W + b).
type Model struct {
	cfg Config

	SrcEmb tensor.Mat // [SourceVocab x Hidden]
	TgtEmb tensor.Mat // [TargetVocab x Hidden]
	Proj   tensor.Mat // [Hidden x TargetVocab]
	Bias   []float32  // [TargetVocab]

	context []float32
}

// state is the Handle type. Its vector is never written after creation.
type state struct {
	h []float32
}

// New builds a model with weights derived from cfg.Seed.
func New(cfg Config) (*Model, error) {
	if cfg.SourceVocab <= 0 || cfg.TargetVocab <= 0 {
		return nil, fmt.Errorf("toy: vocabulary sizes must be positive (source %d, target %d)", cfg.SourceVocab, cfg.TargetVocab)
	}
	if cfg.Hidden <= 0 {
		return nil, fmt.Errorf("toy: hidden size must be positive, got %d", cfg.Hidden)
	}
	if cfg.Scale == 0 {
		cfg.Scale = 1
	}
	m := &Model{
		cfg:    cfg,
		SrcEmb: tensor.NewMat(cfg.SourceVocab, cfg.Hidden),
		TgtEmb: tensor.NewMat(cfg.TargetVocab, cfg.Hidden),
		Proj:   tensor.NewMat(cfg.Hidden, cfg.TargetVocab),
		Bias:   make([]float32, cfg.TargetVocab),
	}
	tensor.FillRand(&m.SrcEmb, cfg.Seed+11, cfg.Scale)
	tensor.FillRand(&m.TgtEmb, cfg.Seed+23, cfg.Scale)
	tensor.FillRand(&m.Proj, cfg.Seed+37, cfg.Scale)
	bias := tensor.NewMatFromData(1, cfg.TargetVocab, m.Bias)
	tensor.FillRand(&bias, cfg.Seed+41, cfg.Scale/10)
	return m, nil
}

func (m *Model) Info() decoder.ModelInfo {
	return decoder.ModelInfo{SOS: m.cfg.SOS, EOS: m.cfg.EOS, VocabSize: m.cfg.TargetVocab}
}

// Encode replaces the encoder context. It must not run concurrently with any
// other call on the same model.
func (m *Model) Encode(source []decoder.TokenID) error {
	ctx := make([]float32, m.cfg.Hidden)
	for _, tok := range source {
		if int(tok) < 0 || int(tok) >= m.cfg.SourceVocab {
			return fmt.Errorf("toy: source token %d outside vocabulary of %d", tok, m.cfg.SourceVocab)
		}
		tensor.AddScaled(ctx, 1, m.SrcEmb.Row(int(tok)))
	}
	if len(source) > 0 {
		inv := 1 / float32(len(source))
		for i := range ctx {
			ctx[i] *= inv
		}
	}
	m.context = ctx
	return nil
}

func (m *Model) InitialState() (decoder.Handle, []float32, error) {
	if m.context == nil {
		return nil, nil, errNotEncoded
	}
	emb := append([]float32(nil), m.TgtEmb.Row(int(m.cfg.SOS))...)
	h := make([]float32, m.cfg.Hidden)
	copy(h, emb)
	tensor.AddScaled(h, 1, m.context)
	tensor.Tanh(h)
	return &state{h: h}, emb, nil
}

func (m *Model) ScoreDistribution(h decoder.Handle) ([]float32, error) {
	st, err := m.state(h)
	if err != nil {
		return nil, err
	}
	scores := make([]float32, m.cfg.TargetVocab)
	tensor.VecMat(scores, st.h, &m.Proj)
	tensor.AddScaled(scores, 1, m.Bias)
	return logits.LogSoftmax(scores), nil
}

func (m *Model) Advance(h decoder.Handle, tok decoder.TokenID) (decoder.Handle, error) {
	st, err := m.state(h)
	if err != nil {
		return nil, err
	}
	if int(tok) < 0 || int(tok) >= m.cfg.TargetVocab {
		return nil, fmt.Errorf("toy: target token %d outside vocabulary of %d", tok, m.cfg.TargetVocab)
	}
	next := make([]float32, m.cfg.Hidden)
	tensor.AddScaled(next, 0.5, st.h)
	tensor.AddScaled(next, 1, m.TgtEmb.Row(int(tok)))
	tensor.AddScaled(next, 1, m.context)
	tensor.Tanh(next)
	return &state{h: next}, nil
}

func (m *Model) state(h decoder.Handle) (*state, error) {
	if m.context == nil {
		return nil, errNotEncoded
	}
	st, ok := h.(*state)
	if !ok || st == nil {
		return nil, fmt.Errorf("toy: unexpected handle type %T", h)
	}
	return st, nil
}

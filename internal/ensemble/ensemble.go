// Package ensemble reads ensemble definition files and builds the member
// models they describe.
package ensemble

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/samcharles93/seqgen/internal/decoder"
	"github.com/samcharles93/seqgen/internal/toy"
	"github.com/samcharles93/seqgen/internal/vocab"
)

// KindToy selects the seeded toy encoder-decoder.
const KindToy = "toy"

// Member describes one model of the ensemble.
type Member struct {
	Name   string  `yaml:"name"`
	Kind   string  `yaml:"kind"`
	Hidden int     `yaml:"hidden"`
	Seed   int64   `yaml:"seed"`
	Scale  float32 `yaml:"scale"`
}

// Definition is the on-disk description of an ensemble.
type Definition struct {
	SOS         string   `yaml:"sos"`
	EOS         string   `yaml:"eos"`
	SourceVocab string   `yaml:"source_vocab"`
	TargetVocab string   `yaml:"target_vocab"`
	MaxLength   int      `yaml:"max_length"`
	Models      []Member `yaml:"models"`
}

// Factory returns a fresh set of member models. Each call must return new
// instances, because a model's encoder state belongs to a single decoder.
type Factory func() ([]decoder.SequenceModel, error)

// Load parses and validates a definition. Relative vocabulary paths are
// resolved against the directory holding path.
func Load(path string) (*Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var def Definition
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("parse ensemble %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	def.SourceVocab = resolve(dir, def.SourceVocab)
	def.TargetVocab = resolve(dir, def.TargetVocab)
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("ensemble %s: %w", path, err)
	}
	return &def, nil
}

func resolve(dir, p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// Validate checks the definition without touching the filesystem.
func (d *Definition) Validate() error {
	var errs []error
	if d.SOS == "" {
		d.SOS = vocab.SOS
	}
	if d.EOS == "" {
		d.EOS = vocab.EOS
	}
	if d.SOS == d.EOS {
		errs = append(errs, fmt.Errorf("sos and eos must differ (both %q)", d.SOS))
	}
	if d.SourceVocab == "" {
		errs = append(errs, errors.New("source_vocab is required"))
	}
	if d.TargetVocab == "" {
		errs = append(errs, errors.New("target_vocab is required"))
	}
	if d.MaxLength < 0 {
		errs = append(errs, fmt.Errorf("max_length must not be negative, got %d", d.MaxLength))
	}
	if len(d.Models) == 0 {
		errs = append(errs, errors.New("at least one model is required"))
	}
	for i, m := range d.Models {
		label := m.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}
		switch m.Kind {
		case KindToy, "":
		default:
			errs = append(errs, fmt.Errorf("model %s: unknown kind %q", label, m.Kind))
		}
		if m.Hidden <= 0 {
			errs = append(errs, fmt.Errorf("model %s: hidden must be positive, got %d", label, m.Hidden))
		}
	}
	return errors.Join(errs...)
}

// Bundle is a loaded ensemble: both vocabularies, the resolved special
// token ids and a model factory.
type Bundle struct {
	Def    *Definition
	Source *vocab.Dict
	Target *vocab.Dict

	// SourceSOS and SourceEOS wrap every source sentence.
	SourceSOS decoder.TokenID
	SourceEOS decoder.TokenID

	SOS decoder.TokenID
	EOS decoder.TokenID

	Factory Factory
}

// Open loads both vocabularies named by d and resolves the special tokens.
func Open(d *Definition) (*Bundle, error) {
	src, err := vocab.Load(d.SourceVocab)
	if err != nil {
		return nil, fmt.Errorf("source vocabulary: %w", err)
	}
	tgt, err := vocab.Load(d.TargetVocab)
	if err != nil {
		return nil, fmt.Errorf("target vocabulary: %w", err)
	}
	return Assemble(d, src, tgt)
}

// Assemble builds a Bundle from vocabularies that are already in memory.
func Assemble(d *Definition, src, tgt *vocab.Dict) (*Bundle, error) {
	b := &Bundle{Def: d, Source: src, Target: tgt}
	var err error
	if b.SourceSOS, err = lookup(src, "source", d.SOS); err != nil {
		return nil, err
	}
	if b.SourceEOS, err = lookup(src, "source", d.EOS); err != nil {
		return nil, err
	}
	if b.SOS, err = lookup(tgt, "target", d.SOS); err != nil {
		return nil, err
	}
	if b.EOS, err = lookup(tgt, "target", d.EOS); err != nil {
		return nil, err
	}
	b.Factory = d.Factory(src.Size(), tgt.Size(), b.SOS, b.EOS)
	return b, nil
}

func lookup(d *vocab.Dict, side, word string) (decoder.TokenID, error) {
	if !d.Contains(word) {
		return 0, fmt.Errorf("%s vocabulary has no %q token", side, word)
	}
	return decoder.TokenID(d.Convert(word)), nil
}

// Factory returns a Factory building the members of d for the given
// vocabulary sizes and target special tokens.
func (d *Definition) Factory(srcSize, tgtSize int, sos, eos decoder.TokenID) Factory {
	members := append([]Member(nil), d.Models...)
	return func() ([]decoder.SequenceModel, error) {
		models := make([]decoder.SequenceModel, 0, len(members))
		for i, m := range members {
			switch m.Kind {
			case KindToy, "":
				tm, err := toy.New(toy.Config{
					SourceVocab: srcSize,
					TargetVocab: tgtSize,
					Hidden:      m.Hidden,
					Seed:        m.Seed,
					Scale:       m.Scale,
					SOS:         sos,
					EOS:         eos,
				})
				if err != nil {
					return nil, fmt.Errorf("model %d (%s): %w", i, m.Name, err)
				}
				models = append(models, tm)
			default:
				return nil, fmt.Errorf("model %d (%s): unknown kind %q", i, m.Name, m.Kind)
			}
		}
		return models, nil
	}
}

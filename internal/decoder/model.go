package decoder

// TokenID identifies a vocabulary entry. Every ensemble member must agree on
// the ids of the start- and end-of-sequence tokens.
type TokenID int

// Handle is a SequenceModel's opaque state after some emitted prefix.
//
// Handles are immutable: Advance returns a new handle and leaves its input
// valid, so one parent can be extended in several directions.
type Handle any

// ModelInfo describes the token space a SequenceModel scores.
type ModelInfo struct {
	SOS       TokenID
	EOS       TokenID
	VocabSize int
}

// SequenceModel is the scoring and state-transition capability of one
// trained sequence-to-sequence model.
//
// Encode mutates the model's encoder state and is not reentrant: an instance
// must not serve two decodes at the same time. After Encode returns,
// ScoreDistribution and Advance must be safe for concurrent use because a
// decoder may expand several hypotheses in parallel.
type SequenceModel interface {
	Info() ModelInfo

	// Encode prepares the encoder state for one source sequence.
	Encode(source []TokenID) error

	// InitialState returns the state at t=0, seeded by SOS, along with the
	// decoder input embedding it was built from.
	InitialState() (Handle, []float32, error)

	// ScoreDistribution returns one log-scale score per vocabulary entry
	// for the next token after h. It has no side effects.
	ScoreDistribution(h Handle) ([]float32, error)

	// Advance returns the state after emitting tok from h.
	Advance(h Handle, tok TokenID) (Handle, error)
}

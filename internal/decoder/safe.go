package decoder

import (
	"errors"
	"fmt"
	"math"
)

var (
	errNaNScore    = errors.New("distribution contains NaN")
	errPosInfScore = errors.New("distribution contains +Inf")
)

// The safe* wrappers turn panics inside a model into errors so that one
// misbehaving member fails its decode instead of the process.

func safeEncode(m SequenceModel, source []TokenID) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in Encode: %v", rec)
		}
	}()
	return m.Encode(source)
}

func safeInitialState(m SequenceModel) (h Handle, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in InitialState: %v", rec)
		}
	}()
	h, _, err = m.InitialState()
	return h, err
}

func safeScore(m SequenceModel, h Handle) (dist []float32, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in ScoreDistribution: %v", rec)
		}
	}()
	return m.ScoreDistribution(h)
}

func safeAdvance(m SequenceModel, h Handle, tok TokenID) (next Handle, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in Advance: %v", rec)
		}
	}()
	return m.Advance(h, tok)
}

// checkFused rejects a fused distribution that cannot rank candidates.
func checkFused(fused []float32) error {
	for i, v := range fused {
		if math.IsNaN(float64(v)) {
			return fmt.Errorf("%w: fused score for token %d is NaN", ErrModelInvocation, i)
		}
	}
	return nil
}

func validateDistribution(dist []float32, vocabSize int) error {
	if len(dist) != vocabSize {
		return fmt.Errorf("distribution has %d entries, want %d", len(dist), vocabSize)
	}
	for _, v := range dist {
		switch {
		case math.IsNaN(float64(v)):
			return errNaNScore
		case math.IsInf(float64(v), 1):
			return errPosInfScore
		}
	}
	return nil
}

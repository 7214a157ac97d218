package logits

import (
	"errors"
	"fmt"
)

var errNoDistributions = errors.New("no distributions to fuse")

// Fuser combines the per-member next-token distributions of an ensemble
// into the single distribution candidates are selected from.
type Fuser interface {
	Fuse(dists [][]float32) ([]float32, error)
}

// NewFuser returns the fusion step for an ensemble of the given size.
// A single member's distribution passes through untouched. Larger ensembles
// average the members' log-probabilities and renormalise the mean with
// log-softmax, since a mean of log-probabilities is not itself normalised.
func NewFuser(members int) Fuser {
	if members == 1 {
		return identityFuser{}
	}
	return meanFuser{members: members}
}

type identityFuser struct{}

func (identityFuser) Fuse(dists [][]float32) ([]float32, error) {
	if len(dists) != 1 {
		return nil, fmt.Errorf("identity fusion expects 1 distribution, got %d", len(dists))
	}
	return dists[0], nil
}

type meanFuser struct {
	members int
}

func (f meanFuser) Fuse(dists [][]float32) ([]float32, error) {
	if len(dists) == 0 {
		return nil, errNoDistributions
	}
	if len(dists) != f.members {
		return nil, fmt.Errorf("mean fusion expects %d distributions, got %d", f.members, len(dists))
	}
	v := len(dists[0])
	for i, d := range dists[1:] {
		if len(d) != v {
			return nil, fmt.Errorf("distribution %d has length %d, want %d", i+1, len(d), v)
		}
	}
	return LogSoftmax(Mean(dists)), nil
}

package decoder

import "slices"

// PartialHypothesis is one ensemble member's view of a hypothesis: the
// emitted tokens, SOS first, and the member's state after them.
type PartialHypothesis struct {
	Tokens []TokenID
	Handle Handle
}

// ensembleHypothesis holds one PartialHypothesis per ensemble member. All
// members share a single token history slice, which is never appended to in
// place.
//
// A hypothesis selected onto a frontier starts out pending: it knows its
// parent and the token that extends it, and its members are built by
// advancing the parent's handles only when it is expanded. Pruned and
// terminal extensions therefore never cost an Advance.
type ensembleHypothesis struct {
	tokens  []TokenID
	members []PartialHypothesis

	parent *ensembleHypothesis
	token  TokenID
}

func newPending(parent *ensembleHypothesis, tok TokenID) *ensembleHypothesis {
	return &ensembleHypothesis{
		tokens: extend(parent.tokens, tok),
		parent: parent,
		token:  tok,
	}
}

// extend returns a new history with tok appended; the input is untouched.
func extend(tokens []TokenID, tok TokenID) []TokenID {
	return append(slices.Clip(tokens), tok)
}

// materialize advances every member of a pending hypothesis from its
// parent's handles. It is a no-op for hypotheses that already have members.
func (h *ensembleHypothesis) materialize(models []SequenceModel) error {
	if h.members != nil {
		return nil
	}
	members := make([]PartialHypothesis, len(models))
	for i, m := range models {
		next, err := safeAdvance(m, h.parent.members[i].Handle, h.token)
		if err != nil {
			return &ModelInvocationError{Member: i, Op: "Advance", Err: err}
		}
		members[i] = PartialHypothesis{Tokens: h.tokens, Handle: next}
	}
	h.members = members
	// The parent is no longer needed once this hypothesis has its own state.
	h.parent = nil
	return nil
}

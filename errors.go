package dendro

import "fmt"

// FormatError reports a topology string that violates the newick grammar:
// unbalanced parentheses, a non-numeric identity or height token, or a
// malformed mapping literal. Decoding stops before any structure is built.
type FormatError struct {
	// Offset is the byte offset into the topology string where the problem
	// was detected, or -1 when no single position applies. Offsets refer to
	// the working buffer at the time of detection, which may already have
	// had deeper groups excised.
	Offset int
	Msg    string
}

func (e *FormatError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("dendro: malformed topology at offset %d: %s", e.Offset, e.Msg)
	}
	return fmt.Sprintf("dendro: malformed topology: %s", e.Msg)
}

// ConsistencyError reports a mismatch between the decoded topology and the
// label image: a leaf identity that owns no labeled pixels, a labeled pixel
// whose identity never appears in the topology, a label pointing at a branch,
// or data/labels arrays of different shape.
type ConsistencyError struct {
	// ID is the offending identity, or 0 when the error is not tied to one
	// (labels are strictly positive, so 0 is never a real identity).
	ID  int
	Msg string
}

func (e *ConsistencyError) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("dendro: inconsistent structure %d: %s", e.ID, e.Msg)
	}
	return "dendro: " + e.Msg
}

// ReferenceError reports a topology whose flat group table does not link into
// a single forest: a group definition that no parent entry ever references,
// or an identity referenced from more than one parent.
type ReferenceError struct {
	ID  int
	Msg string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("dendro: unresolved reference %d: %s", e.ID, e.Msg)
}

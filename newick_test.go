package dendro

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseNewick_FlatForest(t *testing.T) {
	// Trunk directly lists two leaves, no branch nesting.
	topo, err := ParseNewick("(1:2.0,2:3.0):")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := &Topology{Entries: []TopologyEntry{
		{ID: 1, Height: 2.0},
		{ID: 2, Height: 3.0},
	}}
	if diff := cmp.Diff(want, topo); diff != "" {
		t.Errorf("topology mismatch (-want +got):\n%s", diff)
	}
}

func TestParseNewick_SingleBranch(t *testing.T) {
	// One branch, identity 3, merging leaves 1 and 2. The branch's own
	// height (4.0) is carried by its entry in the trunk's mapping.
	topo, err := ParseNewick("((1:1.0,2:1.5):3:4.0):")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := &Topology{Entries: []TopologyEntry{
		{ID: 3, Height: 4.0, Sub: &Topology{Entries: []TopologyEntry{
			{ID: 1, Height: 1.0},
			{ID: 2, Height: 1.5},
		}}},
	}}
	if diff := cmp.Diff(want, topo); diff != "" {
		t.Errorf("topology mismatch (-want +got):\n%s", diff)
	}
}

func TestParseNewick_NestedBranches(t *testing.T) {
	// Branch 5 merges branch 3 (leaves 1, 2) with leaf 4:
	//
	//	trunk
	//	└── 5 @ 4.0
	//	    ├── 3 @ 2.5
	//	    │   ├── 1 @ 1.0
	//	    │   └── 2 @ 1.5
	//	    └── 4 @ 3.0
	topo, err := ParseNewick("(((1:1.0,2:1.5):3:2.5,4:3.0):5:4.0):")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := &Topology{Entries: []TopologyEntry{
		{ID: 5, Height: 4.0, Sub: &Topology{Entries: []TopologyEntry{
			{ID: 3, Height: 2.5, Sub: &Topology{Entries: []TopologyEntry{
				{ID: 1, Height: 1.0},
				{ID: 2, Height: 1.5},
			}}},
			{ID: 4, Height: 3.0},
		}}},
	}}
	if diff := cmp.Diff(want, topo); diff != "" {
		t.Errorf("topology mismatch (-want +got):\n%s", diff)
	}
}

func TestParseNewick_SiblingBranches(t *testing.T) {
	// Two branches at the same nesting depth; spans must be excised right
	// to left so the earlier span's offsets stay valid.
	topo, err := ParseNewick("((1:1.0,2:1.5):3:5.0,(4:2.0,5:2.5):6:5.5):")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(topo.Entries) != 2 {
		t.Fatalf("expected 2 trunk entries, got %d", len(topo.Entries))
	}
	if topo.Entries[0].ID != 3 || topo.Entries[1].ID != 6 {
		t.Errorf("trunk order: got %d, %d; want 3, 6", topo.Entries[0].ID, topo.Entries[1].ID)
	}
	for _, e := range topo.Entries {
		if e.Sub == nil || len(e.Sub.Entries) != 2 {
			t.Errorf("entry %d: expected branch with 2 children", e.ID)
		}
	}
}

func TestParseNewick_WhitespaceTolerated(t *testing.T) {
	topo, err := ParseNewick("( 1 : 2.0 , 2 : 3.0 ):")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(topo.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(topo.Entries))
	}
}

func TestParseNewick_ScientificNotationHeights(t *testing.T) {
	topo, err := ParseNewick("(1:1e-3,2:2.5e2):")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if topo.Entries[0].Height != 1e-3 || topo.Entries[1].Height != 2.5e2 {
		t.Errorf("heights: got %v, %v", topo.Entries[0].Height, topo.Entries[1].Height)
	}
}

func TestParseNewick_Deterministic(t *testing.T) {
	const s = "((1:1.0,2:1.5):3:5.0,(4:2.0,5:2.5):6:5.5,7:1.0):"
	first, err := ParseNewick(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := ParseNewick(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("two decodes of the same string differ (-first +second):\n%s", diff)
	}
}

func TestParseNewick_FormatErrors(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"unmatched open", "((1:2.0,2:3.0):"},
		{"unmatched close", "(1:2.0)):"},
		{"empty string", ""},
		{"entry without colon", "(1):"},
		{"non-numeric identity", "(x:2.0):"},
		{"non-numeric height", "(1:high):"},
		{"non-numeric group identity", "(1:2.0):junk"},
		{"zero identity", "(0:2.0):"},
		{"negative identity", "(-4:2.0):"},
		{"text outside trunk", "9:1.0,(1:2.0):"},
		{"duplicate group identity", "((1:1.0):9:2.0,(2:2.0):9:3.0):"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseNewick(tc.input)
			var ferr *FormatError
			if !errors.As(err, &ferr) {
				t.Fatalf("expected *FormatError, got %v", err)
			}
		})
	}
}

func TestParseNewick_UnmatchedCloseOffset(t *testing.T) {
	_, err := ParseNewick("(1:2.0)):")
	var ferr *FormatError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected *FormatError, got %v", err)
	}
	if ferr.Offset != 7 {
		t.Errorf("offset: got %d, want 7", ferr.Offset)
	}
}

func TestParseNewick_ReferenceErrors(t *testing.T) {
	// Identity 9 defined once but referenced by two trunk entries.
	_, err := ParseNewick("((1:1.0,2:1.5):9:4.0,9:5.0):")
	var rerr *ReferenceError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *ReferenceError, got %v", err)
	}
	if rerr.ID != 9 {
		t.Errorf("identity: got %d, want 9", rerr.ID)
	}

	// Identity 9 referencing itself from inside its own group.
	_, err = ParseNewick("((9:1.0):9:2.0):")
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *ReferenceError for self-reference, got %v", err)
	}
}

func TestLinkTopology_OrphanGroup(t *testing.T) {
	// A flat table with a group definition no parent entry ever references
	// cannot be produced by well-formed text, but a corrupt file can carry
	// it; linking must reject it rather than silently dropping the group.
	table := map[int][]TopologyEntry{
		TrunkID: {{ID: 1, Height: 2.0}},
		9:       {{ID: 2, Height: 1.0}},
	}
	_, err := linkTopology(table)
	var rerr *ReferenceError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *ReferenceError, got %v", err)
	}
	if rerr.ID != 9 {
		t.Errorf("identity: got %d, want 9", rerr.ID)
	}
}

func TestFormatNewick_RendersHeightsAsFloats(t *testing.T) {
	trunk := []*Structure{
		{ID: 1, Coords: [][]int{{0}}, Values: []float64{1}, Height: 2},
		{ID: 2, Coords: [][]int{{1}}, Values: []float64{1}, Height: 3.25},
	}
	got := FormatNewick(trunk)
	if got != "(1:2.0,2:3.25):" {
		t.Errorf("got %q, want %q", got, "(1:2.0,2:3.25):")
	}
}

func TestFormatNewick_Inverse(t *testing.T) {
	for _, s := range []string{
		"(1:2.0,2:3.0):",
		"((1:1.0,2:1.5):3:4.0):",
		"(((1:1.0,2:1.5):3:2.5,4:3.0):5:4.0):",
		"((1:1.0,2:1.5):3:5.0,(4:2.0,5:2.5):6:5.5,7:1.0):",
	} {
		topo, err := ParseNewick(s)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", s, err)
		}
		if got := FormatNewick(structuresFromTopology(topo)); got != s {
			t.Errorf("round trip of %q produced %q", s, got)
		}
	}
}

// structuresFromTopology builds bare structures (no pixel payloads) straight
// from a decoded topology, for exercising the encoder without a label image.
func structuresFromTopology(topo *Topology) []*Structure {
	out := make([]*Structure, 0, len(topo.Entries))
	for _, e := range topo.Entries {
		s := &Structure{ID: e.ID, Height: e.Height, level: -1}
		if e.Sub != nil {
			s.Children = structuresFromTopology(e.Sub)
			for _, c := range s.Children {
				c.parent = s
			}
		}
		out = append(out, s)
	}
	return out
}

func TestFormatHeight_SpecialValues(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{2, "2.0"},
		{3.25, "3.25"},
		{1e-3, "0.001"},
		{math.Inf(1), "+Inf"},
		{math.Inf(-1), "-Inf"},
	}
	for _, tc := range cases {
		if got := formatHeight(tc.in); got != tc.want {
			t.Errorf("formatHeight(%v): got %q, want %q", tc.in, got, tc.want)
		}
	}
}

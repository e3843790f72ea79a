package dendro

import (
	"strconv"
	"strings"
)

// TrunkID is the reserved identity of the implicit super-root grouping the
// top-level structures. It is written as an empty identity token in the text
// form. Label values are strictly positive, so -1 never collides with a real
// structure.
const TrunkID = -1

// Topology is the decoded intermediate form of a newick string: an ordered
// list of entries, one per child of a group. It carries no pixel data; the
// tree builder fuses it with aggregated label groups to produce live
// structures.
type Topology struct {
	Entries []TopologyEntry
}

// TopologyEntry is one `identity:height` entry of a group. A nil Sub marks a
// leaf; a non-nil Sub marks a branch whose own group was resolved from the
// flat table during linking.
type TopologyEntry struct {
	ID     int
	Height float64
	Sub    *Topology
}

// ParseNewick decodes the flat text form of a dendrogram topology.
//
// The grammar is not a simple recursive-descent form: a group's own identity
// trails its closing parenthesis, so groups are resolved by nesting depth.
// Decoding runs in two phases. Phase 1 repeatedly finds the deepest
// parenthesized spans, parses each span's interior as an `id:height` mapping
// literal stored in a flat table under the group's trailing identity, and
// excises the span so the group collapses to an ordinary `id:height` entry
// of its parent. Phase 2 links the flat table into a single nested topology
// rooted at the trunk.
//
// Errors are *FormatError for grammar violations and *ReferenceError for a
// flat table that does not link into one forest.
func ParseNewick(s string) (*Topology, error) {
	// The working buffer is excised in place level by level. It is owned
	// exclusively by this call.
	buf := []byte(s)

	maxLevel, err := scanDepth(buf)
	if err != nil {
		return nil, err
	}

	table := make(map[int][]TopologyEntry)

	for level := maxLevel; level >= 1; level-- {
		spans := spansAtLevel(buf, level)

		// Excise right to left so earlier spans' offsets stay valid.
		for i := len(spans) - 1; i >= 0; i-- {
			start, end := spans[i][0], spans[i][1]

			id, cut, err := readGroupID(buf, end)
			if err != nil {
				return nil, err
			}
			entries, err := parseMapping(buf[start+1:end], start+1)
			if err != nil {
				return nil, err
			}
			if _, dup := table[id]; dup {
				return nil, &FormatError{Offset: end, Msg: "duplicate group identity " + groupName(id)}
			}
			table[id] = entries

			// Remove the group (and the colon separating it from its
			// identity) so the parent sees `identity:height`.
			buf = append(buf[:start], buf[cut:]...)
		}
	}

	// Whatever remains at top level is itself a mapping literal describing
	// the trunk, unless the trunk was already defined by an outer group.
	if rest := strings.TrimSpace(string(buf)); rest != "" {
		if _, ok := table[TrunkID]; ok {
			return nil, &FormatError{Offset: 0, Msg: "text outside the trunk group"}
		}
		entries, err := parseMapping([]byte(rest), 0)
		if err != nil {
			return nil, err
		}
		table[TrunkID] = entries
	}

	return linkTopology(table)
}

// scanDepth returns the maximum parenthesis nesting depth of buf, or a
// FormatError if the parentheses are unbalanced.
func scanDepth(buf []byte) (int, error) {
	depth, max := 0, 0
	for i, c := range buf {
		switch c {
		case '(':
			depth++
			if depth > max {
				max = depth
			}
		case ')':
			depth--
			if depth < 0 {
				return 0, &FormatError{Offset: i, Msg: "unmatched closing parenthesis"}
			}
		}
	}
	if depth != 0 {
		return 0, &FormatError{Offset: len(buf), Msg: "unclosed parenthesis"}
	}
	return max, nil
}

// spansAtLevel returns the [start, end] index pairs of every matched
// parenthesis span whose opening paren sits at the given nesting level,
// in left-to-right order.
func spansAtLevel(buf []byte, level int) [][2]int {
	var spans [][2]int
	depth, start := 0, 0
	for i, c := range buf {
		switch c {
		case '(':
			depth++
			if depth == level {
				start = i
			}
		case ')':
			if depth == level {
				spans = append(spans, [2]int{start, i})
			}
			depth--
		}
	}
	return spans
}

// readGroupID reads the identity trailing a group's closing parenthesis at
// end: a colon, then digits up to the next colon or end of input. An empty
// token (or no trailing colon at all) is the trunk. Returns the identity and
// the offset just past the separating colon, where excision resumes.
func readGroupID(buf []byte, end int) (id, cut int, err error) {
	if end+1 >= len(buf) || buf[end+1] != ':' {
		return TrunkID, end + 1, nil
	}
	stop := end + 2
	for stop < len(buf) && buf[stop] != ':' {
		stop++
	}
	tok := strings.TrimSpace(string(buf[end+2 : stop]))
	if tok == "" {
		return TrunkID, end + 2, nil
	}
	id, perr := strconv.Atoi(tok)
	if perr != nil || id <= 0 {
		return 0, 0, &FormatError{Offset: end + 2, Msg: "invalid group identity " + strconv.Quote(tok)}
	}
	return id, end + 2, nil
}

// parseMapping parses the text strictly between a group's parentheses as a
// comma-separated `identity:height` literal. This replaces the original
// design's general expression evaluation with a parser that rejects anything
// outside that exact syntax. base is the offset of text in the working
// buffer, used only for error positions. Blank text yields no entries.
func parseMapping(text []byte, base int) ([]TopologyEntry, error) {
	if strings.TrimSpace(string(text)) == "" {
		return nil, nil
	}
	var entries []TopologyEntry
	pos := base
	for _, item := range strings.Split(string(text), ",") {
		idTok, heightTok, ok := strings.Cut(item, ":")
		if !ok {
			return nil, &FormatError{Offset: pos, Msg: "entry " + strconv.Quote(item) + " is not identity:height"}
		}
		id, err := strconv.Atoi(strings.TrimSpace(idTok))
		if err != nil || id <= 0 {
			return nil, &FormatError{Offset: pos, Msg: "invalid identity " + strconv.Quote(strings.TrimSpace(idTok))}
		}
		height, err := strconv.ParseFloat(strings.TrimSpace(heightTok), 64)
		if err != nil {
			return nil, &FormatError{Offset: pos, Msg: "invalid height " + strconv.Quote(strings.TrimSpace(heightTok))}
		}
		entries = append(entries, TopologyEntry{ID: id, Height: height})
		pos += len(item) + 1
	}
	return entries, nil
}

// linkTopology resolves the flat group table into one nested topology rooted
// at the trunk. Every non-trunk group must be referenced by exactly one
// parent entry.
func linkTopology(table map[int][]TopologyEntry) (*Topology, error) {
	trunk, ok := table[TrunkID]
	if !ok {
		return nil, &FormatError{Offset: -1, Msg: "no trunk group"}
	}
	linked := make(map[int]bool, len(table))
	entries, err := linkEntries(trunk, table, linked)
	if err != nil {
		return nil, err
	}
	for id := range table {
		if id != TrunkID && !linked[id] {
			return nil, &ReferenceError{ID: id, Msg: "group defined but never referenced by a parent"}
		}
	}
	return &Topology{Entries: entries}, nil
}

// linkEntries substitutes each entry whose identity has a group definition
// with that group's linked entries, recursively. Entry order is preserved so
// child ordering is deterministic.
func linkEntries(entries []TopologyEntry, table map[int][]TopologyEntry, linked map[int]bool) ([]TopologyEntry, error) {
	out := make([]TopologyEntry, len(entries))
	copy(out, entries)
	for i := range out {
		sub, ok := table[out[i].ID]
		if !ok {
			continue // leaf
		}
		if linked[out[i].ID] {
			return nil, &ReferenceError{ID: out[i].ID, Msg: "identity referenced by more than one parent"}
		}
		linked[out[i].ID] = true
		subEntries, err := linkEntries(sub, table, linked)
		if err != nil {
			return nil, err
		}
		out[i].Sub = &Topology{Entries: subEntries}
	}
	return out, nil
}

// FormatNewick encodes a forest of top-level structures as the flat text
// form, the structural inverse of ParseNewick: leaves as `id:height`,
// branches as `(entries):id:height`, and the whole forest wrapped in the
// trunk group `(...)` with an empty trailing identity.
func FormatNewick(trunk []*Structure) string {
	var b strings.Builder
	b.WriteByte('(')
	for i, s := range trunk {
		if i > 0 {
			b.WriteByte(',')
		}
		writeStructure(&b, s)
	}
	b.WriteString("):")
	return b.String()
}

func writeStructure(b *strings.Builder, s *Structure) {
	if s.IsBranch() {
		b.WriteByte('(')
		for i, c := range s.Children {
			if i > 0 {
				b.WriteByte(',')
			}
			writeStructure(b, c)
		}
		b.WriteString("):")
		b.WriteString(strconv.Itoa(s.ID))
	} else {
		b.WriteString(strconv.Itoa(s.ID))
	}
	b.WriteByte(':')
	b.WriteString(formatHeight(s.Height))
}

// formatHeight renders a height with the shortest representation that parses
// back exactly, keeping a trailing ".0" on integral values so heights always
// read as floating-point literals.
func formatHeight(h float64) string {
	s := strconv.FormatFloat(h, 'g', -1, 64)
	// "f" and "N" also exempt the Inf and NaN renderings.
	if !strings.ContainsAny(s, ".eEfN") {
		s += ".0"
	}
	return s
}

// groupName renders an identity for error messages, naming the trunk.
func groupName(id int) string {
	if id == TrunkID {
		return "trunk"
	}
	return strconv.Itoa(id)
}

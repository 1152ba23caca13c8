package syntax

import (
	"fmt"
	"sort"
	"strings"
)

type edit struct {
	start, end int
	text       string
	seq        int
}

// Editor collects byte-range replacements against one source text and
// applies them in a single pass. Offsets always refer to the original text.
type Editor struct {
	src   string
	edits []edit
}

// NewEditor returns an editor for src.
func NewEditor(src string) *Editor {
	return &Editor{src: src}
}

// Replace replaces the text covered by n.
func (e *Editor) Replace(n *Node, text string) {
	e.ReplaceRange(n.Start, n.End, text)
}

// ReplaceRange replaces src[start:end] with text.
func (e *Editor) ReplaceRange(start, end int, text string) {
	e.edits = append(e.edits, edit{start: start, end: end, text: text, seq: len(e.edits)})
}

// Insert inserts text at pos. Insertions at the same offset keep their
// call order.
func (e *Editor) Insert(pos int, text string) {
	e.ReplaceRange(pos, pos, text)
}

// SetLiteralValue replaces the value of a string literal, keeping its
// quote character.
func (e *Editor) SetLiteralValue(n *Node, value string) error {
	if !n.Is(KindString, KindTemplate) {
		return fmt.Errorf("schemaflow: cannot set literal value of %s node", n.Kind)
	}
	quote := n.Text()[0]
	e.Replace(n, Quote(value, quote))
	return nil
}

// Len returns the number of pending edits.
func (e *Editor) Len() int {
	return len(e.edits)
}

// Apply returns the source with all edits applied. Overlapping edits are
// an error.
func (e *Editor) Apply() (string, error) {
	edits := make([]edit, len(e.edits))
	copy(edits, e.edits)
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].start != edits[j].start {
			return edits[i].start < edits[j].start
		}
		if edits[i].end != edits[j].end {
			return edits[i].end < edits[j].end
		}
		return edits[i].seq < edits[j].seq
	})
	var sb strings.Builder
	last := 0
	for i, ed := range edits {
		if ed.start < last || ed.end < ed.start || ed.end > len(e.src) {
			prev := edits[max(i-1, 0)]
			return "", fmt.Errorf("schemaflow: edit [%d,%d) overlaps edit [%d,%d)", ed.start, ed.end, prev.start, prev.end)
		}
		sb.WriteString(e.src[last:ed.start])
		sb.WriteString(ed.text)
		last = ed.end
	}
	sb.WriteString(e.src[last:])
	return sb.String(), nil
}

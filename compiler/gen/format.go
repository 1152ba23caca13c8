package gen

import (
	"strings"

	"github.com/syssam/schemaflow/syntax"
)

// listStyle is the formatting of an object or array literal as found in
// the source.
type listStyle struct {
	inline        bool
	padded        bool // inline with spaces inside the brackets
	indent        string
	closeIndent   string
	trailingComma bool
	open          string   // comment on the line of the opening bracket
	dangling      []string // comments before the closing bracket
	lead          map[*syntax.Node][]string
	trail         map[*syntax.Node]string
}

// styleOf reads the layout of a bracketed list node and the comments
// attached to its members. A comment on the line a member ends belongs to
// that member; comments on the lines before a member lead it.
func (r *regenerator) styleOf(list *syntax.Node) *listStyle {
	src := r.src
	body := src[list.Start+1 : list.End-1]
	st := &listStyle{
		inline:      len(list.Children) > 0 && !strings.Contains(body, "\n"),
		padded:      strings.HasPrefix(body, " "),
		closeIndent: indentAt(src, list.Start),
		lead:        make(map[*syntax.Node][]string),
		trail:       make(map[*syntax.Node]string),
	}
	if end := list.End - 1; startsLine(src, end) {
		st.closeIndent = indentAt(src, end)
	}
	st.indent = st.closeIndent + r.cfg.Indent
	if len(list.Children) > 0 && startsLine(src, list.Children[0].Start) {
		st.indent = indentAt(src, list.Children[0].Start)
	}

	prev, prevEnd := (*syntax.Node)(nil), list.Start+1
	for _, m := range list.Children {
		trail, lead, _ := splitGap(src[prevEnd:m.Start])
		if prev == nil {
			st.open = trail
		} else {
			st.trail[prev] = trail
		}
		st.lead[m] = lead
		prev, prevEnd = m, m.End
	}
	trail, dangling, comma := splitGap(src[prevEnd : list.End-1])
	if prev == nil {
		st.open = trail
		st.trailingComma = true
	} else {
		st.trail[prev] = trail
		st.trailingComma = comma
	}
	st.dangling = dangling
	return st
}

// render rebuilds the list node with the given members in the layout of
// the original.
func (r *regenerator) render(list *syntax.Node, open, close string, entries []entry) string {
	st := r.styleOf(list)
	var b strings.Builder
	b.WriteString(open)
	if st.inline {
		if st.padded && len(entries) > 0 {
			b.WriteString(" ")
		}
		for i, e := range entries {
			if i > 0 {
				b.WriteString(", ")
			}
			for _, c := range st.lead[e.orig] {
				b.WriteString(c)
				b.WriteString(" ")
			}
			b.WriteString(e.text)
			if c := st.trail[e.orig]; c != "" {
				b.WriteString(" ")
				b.WriteString(c)
			}
		}
		if st.trailingComma && len(entries) > 0 {
			b.WriteString(",")
		}
		if st.padded && len(entries) > 0 {
			b.WriteString(" ")
		}
		b.WriteString(close)
		return b.String()
	}
	if len(entries) == 0 && len(st.dangling) == 0 && st.open == "" {
		b.WriteString(close)
		return b.String()
	}
	if st.open != "" {
		b.WriteString(" ")
		b.WriteString(st.open)
	}
	b.WriteString("\n")
	for i, e := range entries {
		for _, c := range st.lead[e.orig] {
			b.WriteString(st.indent)
			b.WriteString(c)
			b.WriteString("\n")
		}
		b.WriteString(st.indent)
		b.WriteString(e.text)
		if i < len(entries)-1 || st.trailingComma {
			b.WriteString(",")
		}
		if c := st.trail[e.orig]; c != "" {
			b.WriteString(" ")
			b.WriteString(c)
		}
		b.WriteString("\n")
	}
	for _, c := range st.dangling {
		b.WriteString(st.indent)
		b.WriteString(c)
		b.WriteString("\n")
	}
	b.WriteString(st.closeIndent)
	b.WriteString(close)
	return b.String()
}

// splitGap returns the comments in the text between two list members.
// Comments before the first line break trail the previous member, the
// rest lead the next one. comma reports a separator outside comments.
func splitGap(gap string) (trail string, lead []string, comma bool) {
	var trailing []string
	newline := false
	add := func(c string) {
		if newline {
			lead = append(lead, c)
		} else {
			trailing = append(trailing, c)
		}
	}
	for i := 0; i < len(gap); i++ {
		switch {
		case gap[i] == '\n':
			newline = true
		case gap[i] == ',':
			comma = true
		case strings.HasPrefix(gap[i:], "//"):
			end := strings.IndexByte(gap[i:], '\n')
			if end < 0 {
				end = len(gap) - i
			}
			add(strings.TrimRight(gap[i:i+end], " \t\r"))
			i += end - 1
		case strings.HasPrefix(gap[i:], "/*"):
			end := len(gap)
			if j := strings.Index(gap[i+2:], "*/"); j >= 0 {
				end = i + 2 + j + 2
			}
			add(gap[i:end])
			i = end - 1
		}
	}
	return strings.Join(trailing, " "), lead, comma
}

func lineStart(src string, pos int) int {
	return strings.LastIndexByte(src[:pos], '\n') + 1
}

// indentAt returns the leading whitespace of the line containing pos.
func indentAt(src string, pos int) string {
	start := lineStart(src, pos)
	end := start
	for end < len(src) && (src[end] == ' ' || src[end] == '\t') {
		end++
	}
	return src[start:end]
}

// startsLine reports whether only whitespace precedes pos on its line.
func startsLine(src string, pos int) bool {
	return strings.TrimLeft(src[lineStart(src, pos):pos], " \t") == ""
}

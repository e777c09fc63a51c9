package markup

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSyntax matches every *SyntaxError via errors.Is.
var ErrSyntax = errors.New("markup: syntax error")

// SyntaxError reports a structural problem at a specific source line.
type SyntaxError struct {
	// Line is the 1-based line number.
	Line int
	// Text is the trimmed content of the offending line.
	Text string
	// Reason describes what was wrong.
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("markup: line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// Is makes errors.Is(err, ErrSyntax) succeed.
func (e *SyntaxError) Is(target error) bool { return target == ErrSyntax }

const commentMarker = "#"

// line is one meaningful source line; blank and comment lines never become
// a line.
type line struct {
	num     int
	indent  int
	content string
}

// frame pairs an indentation width with the container being filled at that
// depth. Frame indents strictly increase from the root (-1) upwards.
type frame struct {
	indent int
	node   Node
}

type parser struct {
	lines []line
	stack []frame
}

// Parse builds the document tree for text. The root is always a mapping.
// Any structural error aborts the parse; no partial tree is returned.
func Parse(text string) (*Mapping, error) {
	root := NewMapping()
	p := &parser{
		lines: scanLines(text),
		stack: []frame{{indent: -1, node: root}},
	}
	for i := range p.lines {
		if err := p.parseLine(i); err != nil {
			return nil, err
		}
	}
	return root, nil
}

// ParseBytes is Parse for a byte slice.
func ParseBytes(data []byte) (*Mapping, error) {
	return Parse(string(data))
}

func scanLines(text string) []line {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var out []line
	for i, raw := range strings.Split(text, "\n") {
		content := strings.TrimSpace(raw)
		if content == "" || strings.HasPrefix(content, commentMarker) {
			continue
		}
		out = append(out, line{
			num:     i + 1,
			indent:  len(raw) - len(strings.TrimLeft(raw, " \t")),
			content: content,
		})
	}
	return out
}

func (p *parser) top() frame { return p.stack[len(p.stack)-1] }

func (p *parser) push(indent int, n Node) {
	p.stack = append(p.stack, frame{indent: indent, node: n})
}

func (p *parser) parseLine(i int) error {
	l := p.lines[i]
	for len(p.stack) > 1 && l.indent <= p.top().indent {
		p.stack = p.stack[:len(p.stack)-1]
	}

	switch parent := p.top().node.(type) {
	case *Sequence:
		if !isListItem(l.content) {
			return syntaxError(l, "mapping entry inside a sequence")
		}
		return p.listItem(i, parent)
	case *Mapping:
		if isListItem(l.content) {
			return syntaxError(l, "list item where a mapping was expected")
		}
		if !strings.Contains(l.content, ":") {
			return syntaxError(l, "expected a list item or a key: value pair")
		}
		return p.entry(i, parent, l.content, l.indent)
	default:
		return syntaxError(l, "scalar cannot hold children")
	}
}

func (p *parser) listItem(i int, seq *Sequence) error {
	l := p.lines[i]
	rest := strings.TrimLeft(l.content[1:], " \t")

	switch {
	case rest == "":
		m := NewMapping()
		seq.Append(m)
		p.push(l.indent, m)
		return nil
	case strings.Contains(rest, ":"):
		m := NewMapping()
		seq.Append(m)
		p.push(l.indent, m)
		// The inline key sits at the column after the marker; its own
		// children must be indented past that column.
		keyColumn := l.indent + len(l.content) - len(rest)
		return p.entry(i, m, rest, keyColumn)
	default:
		seq.Append(Coerce(rest))
		return nil
	}
}

// entry handles a `key: value` form whose key starts at column indent.
func (p *parser) entry(i int, m *Mapping, text string, indent int) error {
	l := p.lines[i]
	idx := strings.Index(text, ":")
	key := unquote(strings.TrimSpace(text[:idx]))
	if key == "" {
		return syntaxError(l, "empty key")
	}

	if value := strings.TrimSpace(text[idx+1:]); value != "" {
		m.Set(key, Coerce(value))
		return nil
	}

	// A key without an inline value owns the following block only when that
	// block is indented deeper. Anything else, including a dedent back to an
	// ancestor, leaves the key bound to an empty mapping.
	if i+1 >= len(p.lines) || p.lines[i+1].indent <= indent {
		m.Set(key, NewMapping())
		return nil
	}

	var child Node
	if isListItem(p.lines[i+1].content) {
		child = NewSequence()
	} else {
		child = NewMapping()
	}
	m.Set(key, child)
	p.push(indent, child)
	return nil
}

func isListItem(content string) bool {
	return content == "-" || strings.HasPrefix(content, "- ") || strings.HasPrefix(content, "-\t")
}

func unquote(s string) string {
	out, _ := stripQuotes(s)
	return out
}

func syntaxError(l line, reason string) error {
	return &SyntaxError{Line: l.num, Text: l.content, Reason: reason}
}

package extent

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// layoutJSON rewrites a JSON document in the layout of Python's json.dumps:
// ", " and ": " separators when compact, and one member per line with
// indent spaces per level otherwise. Key order is preserved. Numbers are
// passed through number before being written.
func layoutJSON(src []byte, indent int, number func(json.Number) string) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(src))
	dec.UseNumber()

	l := &layout{indent: indent, number: number}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("relayout json: %w", err)
		}
		if err := l.token(tok); err != nil {
			return nil, err
		}
	}
	return l.buf.Bytes(), nil
}

type layoutFrame struct {
	object bool
	// n counts the keys and values written so far.
	n int
}

type layout struct {
	buf    bytes.Buffer
	indent int
	number func(json.Number) string
	stack  []layoutFrame
}

func (l *layout) token(tok json.Token) error {
	if d, ok := tok.(json.Delim); ok && (d == '}' || d == ']') {
		top := l.stack[len(l.stack)-1]
		l.stack = l.stack[:len(l.stack)-1]
		if top.n > 0 {
			l.newline()
		}
		l.buf.WriteRune(rune(d))
		return nil
	}

	if len(l.stack) > 0 {
		top := &l.stack[len(l.stack)-1]
		isKey := top.object && top.n%2 == 0
		if !top.object || isKey {
			if top.n > 0 {
				l.itemSeparator()
			}
			l.newline()
		}
		top.n++
		if isKey {
			if err := l.scalar(tok); err != nil {
				return err
			}
			l.buf.WriteString(": ")
			return nil
		}
	}

	if d, ok := tok.(json.Delim); ok {
		l.buf.WriteRune(rune(d))
		l.stack = append(l.stack, layoutFrame{object: d == '{'})
		return nil
	}
	return l.scalar(tok)
}

func (l *layout) scalar(tok json.Token) error {
	switch v := tok.(type) {
	case json.Number:
		l.buf.WriteString(l.number(v))
	case string:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		l.buf.Write(b)
	case bool:
		fmt.Fprint(&l.buf, v)
	case nil:
		l.buf.WriteString("null")
	default:
		return fmt.Errorf("relayout json: unexpected token %v", tok)
	}
	return nil
}

func (l *layout) itemSeparator() {
	if l.indent < 0 {
		l.buf.WriteString(", ")
		return
	}
	l.buf.WriteByte(',')
}

func (l *layout) newline() {
	if l.indent < 0 {
		return
	}
	l.buf.WriteByte('\n')
	l.buf.WriteString(strings.Repeat(" ", l.indent*len(l.stack)))
}

// realNumber writes coordinates as reals, so 100 becomes 100.0.
func realNumber(n json.Number) string {
	f, err := n.Float64()
	if err != nil {
		return n.String()
	}
	return FormatFloat(f)
}

func integerNumber(n json.Number) string { return n.String() }

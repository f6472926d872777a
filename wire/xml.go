package wire

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// SyntaxError is the error returned when text cannot be parsed into a
// Node tree.
type SyntaxError struct {
	// Line is the input line at which the problem was detected, or 0
	// if unknown.
	Line int
	// Reason is what went wrong.
	Reason error
}

func (e SyntaxError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("invalid XML: %s", e.Reason)
	}
	return fmt.Sprintf("invalid XML on line %d: %s", e.Line, e.Reason)
}

func (e SyntaxError) Unwrap() error {
	return e.Reason
}

// Parse reads a single XML document from r and returns its root
// element.
//
// The document must contain exactly one root element. The XML
// declaration, comments, processing instructions and directives are
// skipped. Whitespace-only text between child elements is discarded,
// while text in leaf elements is kept verbatim. An element that
// contains both child elements and non-whitespace text is rejected.
func Parse(r io.Reader) (*Node, error) {
	d := xml.NewDecoder(r)

	var (
		root  *Node
		stack []*Node
		texts []strings.Builder
	)
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			var serr *xml.SyntaxError
			if errors.As(err, &serr) {
				return nil, SyntaxError{serr.Line, errors.New(serr.Msg)}
			}
			return nil, SyntaxError{0, err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) == 0 && root != nil {
				return nil, syntaxErr(d, "content after root element <%s>", root.Name)
			}
			n := &Node{Name: t.Name.Local}
			if len(stack) == 0 {
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
			texts = append(texts, strings.Builder{})
		case xml.EndElement:
			n := stack[len(stack)-1]
			text := texts[len(texts)-1].String()
			stack = stack[:len(stack)-1]
			texts = texts[:len(texts)-1]
			if len(n.Children) > 0 {
				if strings.TrimSpace(text) != "" {
					return nil, syntaxErr(d, "element <%s> mixes text and child elements", n.Name)
				}
			} else {
				n.Text = text
			}
		case xml.CharData:
			if len(stack) == 0 {
				if len(strings.TrimSpace(string(t))) != 0 {
					return nil, syntaxErr(d, "text outside of root element")
				}
				continue
			}
			texts[len(texts)-1].Write(t)
		}
	}

	if root == nil {
		return nil, SyntaxError{0, errors.New("no root element")}
	}
	return root, nil
}

// ParseString is like [Parse], but reads from s.
func ParseString(s string) (*Node, error) {
	return Parse(strings.NewReader(s))
}

func syntaxErr(d *xml.Decoder, msg string, args ...any) error {
	line, _ := d.InputPos()
	return SyntaxError{line, fmt.Errorf(msg, args...)}
}

// Encode writes the XML encoding of n to w.
//
// If indent is empty, the output is compact. Otherwise, each element
// begins on a new line, indented by one copy of indent per level of
// nesting. Text content is never reformatted.
func Encode(w io.Writer, n *Node, indent string) error {
	if n == nil {
		return errors.New("cannot encode nil Node")
	}
	e := xml.NewEncoder(w)
	e.Indent("", indent)
	if err := encodeNode(e, n); err != nil {
		return err
	}
	return e.Close()
}

func encodeNode(e *xml.Encoder, n *Node) error {
	start := xml.StartElement{Name: xml.Name{Local: n.Name}}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if len(n.Children) == 0 {
		if n.Text != "" {
			if err := e.EncodeToken(xml.CharData(n.Text)); err != nil {
				return err
			}
		}
	} else {
		for _, child := range n.Children {
			if err := encodeNode(e, child); err != nil {
				return err
			}
		}
	}
	return e.EncodeToken(start.End())
}

// WriteTo writes the compact XML encoding of n to w.
func (n *Node) WriteTo(w io.Writer) (int64, error) {
	cw := countWriter{w: w}
	err := Encode(&cw, n, "")
	return cw.n, err
}

type countWriter struct {
	w io.Writer
	n int64
}

func (c *countWriter) Write(bs []byte) (int, error) {
	n, err := c.w.Write(bs)
	c.n += int64(n)
	return n, err
}

package xmlrpc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/danderson/xmlrpc/wire"
)

// MaxDepth is the maximum nesting depth of arrays and structs that
// EncodeValue and DecodeValue will process. Deeper values fail with
// [DepthExceeded] rather than exhausting the stack.
const MaxDepth = 512

// EncodeValue returns the wire encoding of v.
//
// Scalars encode to a single element holding their text
// representation: <string>, <i4>, <double>, <boolean>,
// <dateTime.iso8601> or <base64>.
//
// An [Array] encodes to <array><data> with one <value> child per
// element, in order. A [Struct] encodes to <struct> with one <member>
// per struct member, in order, each holding a <name> and a <value>.
// An empty struct encodes to a <struct> with no children.
//
// The returned element is the value itself, without an enclosing
// <value> element.
//
// EncodeValue returns an [EncodeError] if v, or any value nested in
// it, is nil, is a [Double] that is NaN or infinite, or is nested more
// than [MaxDepth] levels deep.
func EncodeValue(v Value) (*wire.Node, error) {
	e := encoder{}
	return e.value(v)
}

// EncodeString returns the compact XML text encoding of v.
func EncodeString(v Value) (string, error) {
	n, err := EncodeValue(v)
	if err != nil {
		return "", err
	}
	var ret strings.Builder
	if err := wire.Encode(&ret, n, ""); err != nil {
		return "", EncodeError{Code: InvalidXML, Reason: err}
	}
	return ret.String(), nil
}

type encoder struct {
	// path locates the value being encoded, for error reporting.
	path []string
	// depth is the number of arrays and structs being encoded.
	depth int
}

func (e *encoder) err(code Code, reason error) error {
	return EncodeError{
		Code:   code,
		Path:   strings.Join(e.path, "/"),
		Reason: reason,
	}
}

func (e *encoder) push(elem string) {
	e.path = append(e.path, elem)
}

func (e *encoder) pop() {
	e.path = e.path[:len(e.path)-1]
}

// enter records entry into an array or struct. It fails once more
// than MaxDepth containers are open, as decoder.enter does.
func (e *encoder) enter() error {
	e.depth++
	if e.depth > MaxDepth {
		return e.err(DepthExceeded, fmt.Errorf("more than %d nested arrays and structs", MaxDepth))
	}
	return nil
}

func (e *encoder) leave() {
	e.depth--
}

func (e *encoder) value(v Value) (*wire.Node, error) {
	if KindOf(v) == InvalidKind {
		return nil, e.err(UnsupportedValue, errors.New("nil value"))
	}

	if n, ok, err := encodePrimitive(v); err != nil {
		return nil, e.err(UnsupportedValue, err)
	} else if ok {
		return n, nil
	}

	if err := e.enter(); err != nil {
		return nil, err
	}
	defer e.leave()

	switch v := v.(type) {
	case Array:
		data := wire.Elem(TagData)
		data.Children = make([]*wire.Node, 0, len(v))
		for i, elem := range v {
			e.push(strconv.Itoa(i))
			n, err := e.value(elem)
			if err != nil {
				return nil, err
			}
			e.pop()
			data.Children = append(data.Children, wire.Elem(TagValue, n))
		}
		return wire.Elem(TagArray, data), nil
	case *Struct:
		ret := wire.Elem(TagStruct)
		ret.Children = make([]*wire.Node, 0, v.Len())
		for name, val := range v.All() {
			e.push(name)
			n, err := e.value(val)
			if err != nil {
				return nil, err
			}
			e.pop()
			ret.Children = append(ret.Children, wire.Elem(TagMember,
				wire.Text(TagName, name),
				wire.Elem(TagValue, n)))
		}
		return ret, nil
	}

	return nil, e.err(UnsupportedValue, fmt.Errorf("unknown value type %T", v))
}

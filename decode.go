package xmlrpc

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/danderson/xmlrpc/wire"
)

// DecodeValue returns the XML-RPC value encoded by n.
//
// n must be a value element (<string>, <i4>, <int>, <double>,
// <boolean>, <dateTime.iso8601>, <base64>, <array> or <struct>), not
// a <value> wrapper. Decoding is strict: the element must follow the
// XML-RPC value grammar exactly, and scalar text must be in the
// canonical lexical form for its type. Any deviation anywhere in the
// tree aborts the decode with a [DecodeError], and no partial value is
// returned.
//
// Struct members are returned in document order. A struct with two
// members of the same name is rejected with [DuplicateKey].
//
// Elements of the XML-RPC call envelope, such as <methodCall> and
// <param>, are not values, and are rejected with [UnrecognizedTag].
func DecodeValue(n *wire.Node) (Value, error) {
	d := decoder{}
	return d.value(n)
}

// DecodeString parses s as XML and decodes the root element with
// [DecodeValue].
func DecodeString(s string) (Value, error) {
	return Decode(strings.NewReader(s))
}

// Decode parses the XML document read from r and decodes its root
// element with [DecodeValue].
func Decode(r io.Reader) (Value, error) {
	n, err := wire.Parse(r)
	if err != nil {
		return nil, DecodeError{Code: InvalidXML, Reason: err}
	}
	return DecodeValue(n)
}

type decoder struct {
	path []string
	// depth is the number of arrays and structs enclosing the element
	// being decoded.
	depth int
}

func (d *decoder) err(code Code, reason error) error {
	return DecodeError{
		Code:   code,
		Path:   strings.Join(d.path, "/"),
		Reason: reason,
	}
}

func (d *decoder) errf(code Code, msg string, args ...any) error {
	return d.err(code, fmt.Errorf(msg, args...))
}

// push appends an element to the current path. If the element is one
// of several siblings, idx is its position, otherwise idx is -1.
func (d *decoder) push(name string, idx int) {
	if idx >= 0 {
		name = fmt.Sprintf("%s[%d]", name, idx)
	}
	d.path = append(d.path, name)
}

func (d *decoder) pop() {
	d.path = d.path[:len(d.path)-1]
}

func (d *decoder) value(n *wire.Node) (Value, error) {
	if n == nil {
		return nil, d.err(UnrecognizedTag, errors.New("no element"))
	}
	d.push(n.Name, -1)
	defer d.pop()

	switch {
	case scalarTags.Has(n.Name):
		v, code, err := decodePrimitive(n)
		if err != nil {
			return nil, d.err(code, err)
		}
		return v, nil
	case n.Name == TagArray:
		return d.array(n)
	case n.Name == TagStruct:
		return d.structure(n)
	case IsEnvelopeTag(n.Name):
		return nil, d.errf(UnrecognizedTag, "<%s> is part of the call envelope, not a value", n.Name)
	default:
		return nil, d.errf(UnrecognizedTag, "<%s> is not an XML-RPC value", n.Name)
	}
}

func (d *decoder) enter() error {
	d.depth++
	if d.depth > MaxDepth {
		return d.errf(DepthExceeded, "more than %d nested arrays and structs", MaxDepth)
	}
	return nil
}

func (d *decoder) leave() {
	d.depth--
}

func (d *decoder) array(n *wire.Node) (Value, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()

	data, ok := n.SingleChildNamed(TagData)
	if !ok {
		return nil, d.err(MalformedArray, errors.New("<array> must contain exactly one <data>"))
	}
	d.push(TagData, -1)
	defer d.pop()
	if data.HasStrayText() {
		return nil, d.err(MalformedArray, errors.New("<data> contains text"))
	}

	ret := make(Array, 0, len(data.Children))
	for i, wrapper := range data.Children {
		d.push(wrapper.Name, i)
		var (
			v   Value
			err error
		)
		if inner, ok := wrapper.SingleChild(); ok {
			v, err = d.value(inner)
		} else {
			err = d.errf(MalformedArray, "array element <%s> must contain exactly one value", wrapper.Name)
		}
		d.pop()
		if err != nil {
			return nil, err
		}
		ret = append(ret, v)
	}
	return ret, nil
}

func (d *decoder) structure(n *wire.Node) (Value, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()

	if n.HasStrayText() {
		return nil, d.err(MalformedMember, errors.New("<struct> contains text"))
	}

	ret := &Struct{}
	for i, member := range n.Children {
		d.push(member.Name, i)
		name, v, err := d.member(member)
		if err == nil && ret.Has(name) {
			err = d.errf(DuplicateKey, "member %q already defined", name)
		}
		d.pop()
		if err != nil {
			return nil, err
		}
		ret.Set(name, v)
	}
	return ret, nil
}

func (d *decoder) member(n *wire.Node) (string, Value, error) {
	if n.Name != TagMember {
		return "", nil, d.errf(MalformedMember, "unexpected <%s> in <struct>", n.Name)
	}
	nameNode, valueNode, ok := n.ChildPair(TagName, TagValue)
	if !ok {
		return "", nil, d.err(MalformedMember, errors.New("<member> must contain exactly <name> then <value>"))
	}
	name, ok := nameNode.Content()
	if !ok {
		return "", nil, d.err(MalformedMember, errors.New("<name> has no text"))
	}
	inner, ok := valueNode.SingleChild()
	if !ok {
		return "", nil, d.errf(MalformedMember, "<value> of member %q must contain exactly one value", name)
	}
	d.push(TagValue, -1)
	defer d.pop()
	v, err := d.value(inner)
	if err != nil {
		return "", nil, err
	}
	return name, v, nil
}

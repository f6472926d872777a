package xmlrpc

import (
	"fmt"
	"reflect"
)

// A Code classifies encode and decode failures.
//
// Codes are errors, so that callers can test for a failure class with
// [errors.Is]:
//
//	if errors.Is(err, xmlrpc.InvalidBoolean) { ... }
type Code int

const (
	// UnsupportedValue is the code for values that cannot be
	// represented in XML-RPC.
	UnsupportedValue Code = iota + 1
	// UnrecognizedTag is the code for elements that are not part of
	// the XML-RPC value grammar.
	UnrecognizedTag
	// InvalidInteger is the code for malformed or out of range
	// integers.
	InvalidInteger
	// InvalidReal is the code for malformed doubles.
	InvalidReal
	// InvalidBoolean is the code for booleans other than "0" and "1".
	InvalidBoolean
	// InvalidInstant is the code for malformed date-times.
	InvalidInstant
	// InvalidBase64 is the code for undecodable base64 data.
	InvalidBase64
	// MissingContent is the code for scalar elements with child
	// elements instead of text.
	MissingContent
	// MalformedArray is the code for arrays that do not follow the
	// array/data/value structure.
	MalformedArray
	// MalformedMember is the code for structs that do not follow the
	// struct/member/(name, value) structure.
	MalformedMember
	// DuplicateKey is the code for structs containing more than one
	// member with the same name.
	DuplicateKey
	// DepthExceeded is the code for values nested more than
	// [MaxDepth] levels deep.
	DepthExceeded
	// InvalidXML is the code for input that is not well-formed XML.
	InvalidXML
)

var codeNames = map[Code]string{
	UnsupportedValue: "unsupported value",
	UnrecognizedTag:  "unrecognized tag",
	InvalidInteger:   "invalid integer",
	InvalidReal:      "invalid double",
	InvalidBoolean:   "invalid boolean",
	InvalidInstant:   "invalid dateTime",
	InvalidBase64:    "invalid base64",
	MissingContent:   "missing content",
	MalformedArray:   "malformed array",
	MalformedMember:  "malformed struct member",
	DuplicateKey:     "duplicate struct member",
	DepthExceeded:    "maximum nesting depth exceeded",
	InvalidXML:       "invalid XML",
}

func (c Code) Error() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("xmlrpc error code %d", int(c))
}

// EncodeError is the error returned when a value cannot be encoded.
type EncodeError struct {
	// Code is the class of failure.
	Code Code
	// Path locates the failing value within the value being encoded,
	// as a sequence of array indices and struct member names,
	// e.g. "params/2/name".
	Path string
	// Reason is an explanation of the failure, if any.
	Reason error
}

func (e EncodeError) Error() string {
	return formatError("encoding", e.Code, e.Path, e.Reason)
}

func (e EncodeError) Unwrap() []error {
	if e.Reason == nil {
		return []error{e.Code}
	}
	return []error{e.Code, e.Reason}
}

// DecodeError is the error returned when XML does not contain a
// valid XML-RPC value.
type DecodeError struct {
	// Code is the class of failure.
	Code Code
	// Path locates the failing element within the document, as a
	// slash-separated list of element names, with the positions of
	// repeated children in brackets,
	// e.g. "struct/member[1]/value/boolean".
	Path string
	// Reason is an explanation of the failure, if any.
	Reason error
}

func (e DecodeError) Error() string {
	return formatError("decoding", e.Code, e.Path, e.Reason)
}

func (e DecodeError) Unwrap() []error {
	if e.Reason == nil {
		return []error{e.Code}
	}
	return []error{e.Code, e.Reason}
}

func formatError(op string, code Code, path string, reason error) string {
	switch {
	case path == "" && reason == nil:
		return fmt.Sprintf("xmlrpc %s: %s", op, code)
	case path == "":
		return fmt.Sprintf("xmlrpc %s: %s: %s", op, code, reason)
	case reason == nil:
		return fmt.Sprintf("xmlrpc %s %s: %s", op, path, code)
	default:
		return fmt.Sprintf("xmlrpc %s %s: %s: %s", op, path, code, reason)
	}
}

// TypeError is the error returned when a Go type cannot be
// represented as an XML-RPC value.
type TypeError struct {
	// Type is the name of the type that caused the error.
	Type string
	// Reason is an explanation of why the type isn't representable by
	// XML-RPC.
	Reason error
}

func (e TypeError) Error() string {
	return fmt.Sprintf("xmlrpc cannot represent %s: %s", e.Type, e.Reason)
}

func (e TypeError) Unwrap() []error {
	return []error{UnsupportedValue, e.Reason}
}

func typeErr(t reflect.Type, reason string, args ...any) error {
	ts := "nil"
	if t != nil {
		ts = t.String()
	}
	return TypeError{ts, fmt.Errorf(reason, args...)}
}

// UnmarshalTypeError is the error returned when an XML-RPC value
// cannot be stored in a Go value of the requested type.
type UnmarshalTypeError struct {
	// Value is the kind of XML-RPC value that was received.
	Value Kind
	// Type is the Go type that could not hold it.
	Type reflect.Type
	// Path locates the value within the value being unmarshaled.
	Path string
	// Reason is an optional further explanation.
	Reason error
}

func (e UnmarshalTypeError) Error() string {
	where := ""
	if e.Path != "" {
		where = " at " + e.Path
	}
	if e.Reason != nil {
		return fmt.Sprintf("xmlrpc cannot unmarshal %s%s into %s: %s", e.Value, where, e.Type, e.Reason)
	}
	return fmt.Sprintf("xmlrpc cannot unmarshal %s%s into %s", e.Value, where, e.Type)
}

func (e UnmarshalTypeError) Unwrap() error {
	return e.Reason
}

package xmlrpc

import (
	"reflect"

	"github.com/creachadair/mds/mapset"
)

// Element names of the XML-RPC value grammar.
const (
	TagValue  = "value"
	TagArray  = "array"
	TagData   = "data"
	TagStruct = "struct"
	TagMember = "member"
	TagName   = "name"

	TagString   = "string"
	TagI4       = "i4"
	TagInt      = "int"
	TagDouble   = "double"
	TagBoolean  = "boolean"
	TagDateTime = "dateTime.iso8601"
	TagBase64   = "base64"
)

// Element names of the XML-RPC call envelope. They are part of the
// XML-RPC vocabulary, but are not values: [DecodeValue] rejects them
// like any other unrecognized element.
const (
	TagMethodCall     = "methodCall"
	TagMethodName     = "methodName"
	TagMethodResponse = "methodResponse"
	TagParams         = "params"
	TagParam          = "param"
	TagFault          = "fault"
)

var (
	// scalarTags is the set of element names that hold a primitive
	// value.
	scalarTags = mapset.New(
		TagString,
		TagI4,
		TagInt,
		TagDouble,
		TagBoolean,
		TagDateTime,
		TagBase64,
	)

	// envelopeTags is the set of reserved envelope element names.
	envelopeTags = mapset.New(
		TagMethodCall,
		TagMethodName,
		TagMethodResponse,
		TagParams,
		TagParam,
		TagFault,
	)

	// intKinds is the set of reflect.Kinds that map to XML-RPC
	// integers, subject to a range check.
	intKinds = mapset.New(
		reflect.Int,
		reflect.Int8,
		reflect.Int16,
		reflect.Int32,
		reflect.Int64,
	)

	// uintKinds is the set of unsigned reflect.Kinds that map to
	// XML-RPC integers, subject to a range check.
	uintKinds = mapset.New(
		reflect.Uint,
		reflect.Uint8,
		reflect.Uint16,
		reflect.Uint32,
		reflect.Uint64,
	)
)

// IsValueTag reports whether name is an element that can appear as a
// value: one of the scalar elements, array or struct.
func IsValueTag(name string) bool {
	return scalarTags.Has(name) || name == TagArray || name == TagStruct
}

// IsEnvelopeTag reports whether name is one of the reserved XML-RPC
// call envelope elements.
func IsEnvelopeTag(name string) bool {
	return envelopeTags.Has(name)
}

// Package xmlrpc converts between XML-RPC values and their XML
// encoding.
//
// XML-RPC has eight kinds of values: six scalars ([String], [Int],
// [Double], [Bool], [DateTime] and [Base64]) and two containers
// ([Array] and [Struct]). Together they form the [Value] type.
//
// The package works at three levels:
//
//   - [EncodeValue] and [DecodeValue] translate between a [Value] and
//     its element tree, a [wire.Node]. [Decode] and [DecodeString]
//     parse XML text first, and [EncodeString] writes it.
//   - [MarshalValue] and [UnmarshalValue] translate between Go values
//     and [Value], using reflection, in the manner of encoding/json.
//   - [Marshal] and [Unmarshal] combine both, going directly between
//     Go values and XML text.
//
// Decoding is strict. Scalars must be in the exact lexical form the
// XML-RPC specification gives for them, containers must have exactly
// the expected structure, and any deviation anywhere in a document
// fails the whole decode with a [DecodeError] that names the failing
// element.
//
// Only the value sub-language of XML-RPC is handled. Call envelopes
// (<methodCall>, <methodResponse> and friends) are not values, and
// are rejected by the decoder.
package xmlrpc

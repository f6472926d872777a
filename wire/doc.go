// Package wire provides the element tree that XML-RPC values are
// encoded to and decoded from, and the helpers to read and write that
// tree as XML text.
//
// The tree is deliberately minimal. A [Node] has a name and either
// text content or child elements, never both. Attributes, namespaces,
// comments and processing instructions carry no meaning in the
// XML-RPC value grammar, and are dropped when parsing.
//
// You should not need this package unless you are working with
// xmlrpc.EncodeValue/xmlrpc.DecodeValue directly, or embedding XML-RPC
// values in a larger document of your own.
package wire

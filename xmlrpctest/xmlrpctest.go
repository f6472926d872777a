// Package xmlrpctest provides assertions for tests that produce or
// consume XML-RPC values.
package xmlrpctest

import (
	"strings"
	"testing"

	"github.com/danderson/xmlrpc"
	"github.com/danderson/xmlrpc/wire"
	"github.com/google/go-cmp/cmp"
	"github.com/kr/pretty"
)

// MustParse parses s as an XML document. It causes an immediate test
// failure with t.Fatal if s is not well-formed.
func MustParse(t testing.TB, s string) *wire.Node {
	t.Helper()
	n, err := wire.ParseString(s)
	if err != nil {
		t.Fatalf("parsing XML: %v\n%s", err, s)
	}
	return n
}

// Normalize returns a copy of n with formatting differences that are
// insignificant to XML-RPC removed, so that two documents that
// differ only in layout normalize to equal trees.
//
// Whitespace-only text in empty <struct>, <array> and <data> elements
// is dropped. Text in every other element is significant and is kept
// verbatim, including whitespace in <string> elements.
func Normalize(n *wire.Node) *wire.Node {
	if n == nil {
		return nil
	}
	ret := &wire.Node{Name: n.Name, Text: n.Text}
	switch n.Name {
	case xmlrpc.TagStruct, xmlrpc.TagArray, xmlrpc.TagData:
		if strings.TrimSpace(ret.Text) == "" {
			ret.Text = ""
		}
	}
	for _, c := range n.Children {
		ret.Children = append(ret.Children, Normalize(c))
	}
	return ret
}

// AssertXMLEqual checks that got is the same XML-RPC document as
// want, after normalizing both with [Normalize].
func AssertXMLEqual(t testing.TB, got *wire.Node, want string) {
	t.Helper()
	w := Normalize(MustParse(t, want))
	g := Normalize(got)
	if diff := cmp.Diff(g, w); diff != "" {
		t.Errorf("XML documents differ (-got+want):\n%s\ngot:\n%s", diff, g)
	}
}

// AssertRoundTrips checks that the XML-RPC value in doc unmarshals
// into a T, and that the T marshals back to the same document. It
// returns the unmarshaled T.
//
// Struct members that T has no field for are dropped by
// unmarshaling, so doc must only contain members that T knows about.
func AssertRoundTrips[T any](t testing.TB, doc string) T {
	t.Helper()
	var ret T
	if err := xmlrpc.UnmarshalNode(MustParse(t, doc), &ret); err != nil {
		t.Fatalf("Unmarshal into %T got err: %v", ret, err)
	}
	if testing.Verbose() {
		t.Logf("unmarshaled %T: %# v", ret, pretty.Formatter(ret))
	}
	got, err := xmlrpc.MarshalNode(ret)
	if err != nil {
		t.Fatalf("Marshal(%T) got err: %v", ret, err)
	}
	AssertXMLEqual(t, got, doc)
	return ret
}

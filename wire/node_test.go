package wire_test

import (
	"testing"

	"github.com/danderson/xmlrpc/wire"
)

func TestShapeHelpers(t *testing.T) {
	var (
		a      = wire.Text("a", "1")
		b      = wire.Text("b", "2")
		c      = wire.Elem("c")
		leaf   = wire.Text("leaf", "hi")
		empty  = wire.Elem("empty")
		one    = wire.Elem("one", a)
		pair   = wire.Elem("pair", a, b)
		triple = wire.Elem("triple", a, b, c)
	)

	tests := []struct {
		name      string
		in        *wire.Node
		single    *wire.Node
		singleA   *wire.Node
		pairFirst *wire.Node
	}{
		{"leaf", leaf, nil, nil, nil},
		{"empty", empty, nil, nil, nil},
		{"one", one, a, a, nil},
		{"pair", pair, nil, nil, a},
		{"triple", triple, nil, nil, nil},
		{"nil", nil, nil, nil, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tc.in.SingleChild()
			if ok != (tc.single != nil) || got != tc.single {
				t.Errorf("SingleChild() = %v, %v, want %v", got, ok, tc.single)
			}

			got, ok = tc.in.SingleChildNamed("a")
			if ok != (tc.singleA != nil) || got != tc.singleA {
				t.Errorf("SingleChildNamed(a) = %v, %v, want %v", got, ok, tc.singleA)
			}
			if got, ok := tc.in.SingleChildNamed("b"); ok {
				t.Errorf("SingleChildNamed(b) = %v, want no match", got)
			}

			first, second, ok := tc.in.ChildPair("a", "b")
			if ok != (tc.pairFirst != nil) || first != tc.pairFirst {
				t.Errorf("ChildPair(a, b) = %v, %v, %v, want first=%v", first, second, ok, tc.pairFirst)
			}
			if ok && second != b {
				t.Errorf("ChildPair(a, b) second = %v, want %v", second, b)
			}
			if _, _, ok := tc.in.ChildPair("b", "a"); ok {
				t.Errorf("ChildPair(b, a) matched out of order children")
			}
		})
	}
}

func TestContent(t *testing.T) {
	tests := []struct {
		in     *wire.Node
		want   string
		wantOK bool
		stray  bool
	}{
		{wire.Text("string", "foo"), "foo", true, true},
		{wire.Text("string", ""), "", true, false},
		{wire.Text("string", " \n "), " \n ", true, false},
		{wire.Elem("string", wire.Elem("x")), "", false, false},
		{nil, "", false, false},
	}

	for _, tc := range tests {
		got, ok := tc.in.Content()
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("%v.Content() = %q, %v, want %q, %v", tc.in, got, ok, tc.want, tc.wantOK)
		}
		if tc.in == nil {
			continue
		}
		if got := tc.in.HasStrayText(); got != tc.stray {
			t.Errorf("%v.HasStrayText() = %v, want %v", tc.in, got, tc.stray)
		}
	}
}

func TestEqual(t *testing.T) {
	mk := func() *wire.Node {
		return wire.Elem("struct",
			wire.Elem("member",
				wire.Text("name", "a"),
				wire.Elem("value", wire.Text("i4", "1"))))
	}

	if !wire.Equal(mk(), mk()) {
		t.Errorf("identical trees compare unequal")
	}
	if !wire.Equal(nil, nil) {
		t.Errorf("nil trees compare unequal")
	}
	if wire.Equal(mk(), nil) {
		t.Errorf("tree equal to nil")
	}

	diffText := mk()
	diffText.Children[0].Children[1].Children[0].Text = "2"
	if wire.Equal(mk(), diffText) {
		t.Errorf("trees with different text compare equal")
	}

	diffName := mk()
	diffName.Children[0].Children[0].Name = "nom"
	if wire.Equal(mk(), diffName) {
		t.Errorf("trees with different names compare equal")
	}

	extra := mk()
	extra.Children = append(extra.Children, wire.Elem("member"))
	if mk().Equal(extra) {
		t.Errorf("trees with different child counts compare equal")
	}

	// Text of non-leaf nodes is not part of the tree.
	withText := mk()
	withText.Text = "ignored"
	if !wire.Equal(mk(), withText) {
		t.Errorf("text on non-leaf node affected equality")
	}
}

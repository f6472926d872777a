package xmlrpc

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/danderson/xmlrpc/wire"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/kr/pretty"
)

func TestDecodeString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Value
	}{
		{"i4", "<i4>1234</i4>", Int(1234)},
		{"int", "<int>56789</int>", Int(56789)},
		{"base64 with newlines", "<base64>\nw6Vhw6k=\n</base64>\n", Base64("åaé")},
		{"empty string", "<string/>", String("")},
		{"empty struct", "<struct></struct>", NewStruct()},
		{"empty struct whitespace", "<struct>\n  </struct>", NewStruct()},
		{"empty array", "<array><data></data></array>", Array{}},
		{"empty array whitespace", "<array>\n<data>\n</data>\n</array>", Array{}},
		{
			"array",
			`<array><data>
				<value><i4>1</i4></value>
				<value><string>two</string></value>
				<value><array><data><value><boolean>0</boolean></value></data></array></value>
			</data></array>`,
			Array{Int(1), String("two"), Array{Bool(false)}},
		},
		{
			"array element wrapper name not checked",
			"<array><data><v><i4>1</i4></v></data></array>",
			Array{Int(1)},
		},
		{
			"struct document order",
			`<struct>
				<member><name>z</name><value><i4>1</i4></value></member>
				<member><name>a</name><value><double>0.3</double></value></member>
				<member><name></name><value><struct/></value></member>
			</struct>`,
			NewStruct(
				Member{"z", Int(1)},
				Member{"a", Double(0.3)},
				Member{"", NewStruct()},
			),
		},
		{
			"member name verbatim",
			"<struct><member><name> spaced name </name><value><string>x</string></value></member></struct>",
			NewStruct(Member{" spaced name ", String("x")}),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeString(tc.in)
			if err != nil {
				t.Fatalf("DecodeString(%q) got err: %v", tc.in, err)
			}
			if diff := cmp.Diff(got, tc.want); diff != "" {
				t.Errorf("DecodeString(%q) wrong value (-got+want):\n%s", tc.in, diff)
			} else if testing.Verbose() {
				t.Logf("DecodeString(%q) = %# v", tc.in, pretty.Formatter(got))
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantCode Code
		wantPath string
	}{
		{"empty input", "", InvalidXML, ""},
		{"not xml", "The quick brown fox jumps over the lazy dog.", InvalidXML, ""},
		{"unknown tag", "<foo>bar</foo>", UnrecognizedTag, "foo"},
		{"value wrapper", "<value><i4>1</i4></value>", UnrecognizedTag, "value"},
		{"envelope", "<methodCall><methodName>x</methodName></methodCall>", UnrecognizedTag, "methodCall"},
		{"fault", "<fault><value><struct/></value></fault>", UnrecognizedTag, "fault"},
		{"param", "<param><value><i4>1</i4></value></param>", UnrecognizedTag, "param"},

		{"bool -1", "<boolean>-1</boolean>", InvalidBoolean, "boolean"},
		{"bool 2", "<boolean>2</boolean>", InvalidBoolean, "boolean"},
		{"int overflow", "<int>2147483648</int>", InvalidInteger, "int"},
		{"double", "<double>one</double>", InvalidReal, "double"},
		{"datetime", "<dateTime.iso8601>1998-07-17T14:08:55</dateTime.iso8601>", InvalidInstant, "dateTime.iso8601"},
		{"base64", "<base64>a</base64>", InvalidBase64, "base64"},
		{"string with children", "<string><i4>1</i4></string>", MissingContent, "string"},

		{"array text", "<array>-1</array>", MalformedArray, "array"},
		{"array no data", "<array></array>", MalformedArray, "array"},
		{"array two data", "<array><data/><data/></array>", MalformedArray, "array"},
		{"array wrong child", "<array><value/></array>", MalformedArray, "array"},
		{"array empty element", "<array><data><foo></foo></data></array>", MalformedArray, "array/data/foo[0]"},
		{"array data text", "<array><data>x</data></array>", MalformedArray, "array/data"},
		{
			"array two values",
			"<array><data><value><string>bar</string><int>0</int></value></data></array>",
			MalformedArray,
			"array/data/value[0]",
		},
		{
			"array bad element",
			"<array><data><value><foo>bar</foo></value></data></array>",
			UnrecognizedTag,
			"array/data/value[0]/foo",
		},
		{
			"array bad nested",
			"<array><data><value><i4>1</i4></value><value><boolean>yes</boolean></value></data></array>",
			InvalidBoolean,
			"array/data/value[1]/boolean",
		},

		{"struct text", "<struct>-1</struct>", MalformedMember, "struct"},
		{"struct non-member", "<struct><value/></struct>", MalformedMember, "struct/value[0]"},
		{"member missing value", "<struct><member><name>a</name></member></struct>", MalformedMember, "struct/member[0]"},
		{
			"member swapped",
			"<struct><member><value><i4>1</i4></value><name>a</name></member></struct>",
			MalformedMember,
			"struct/member[0]",
		},
		{
			"member extra child",
			"<struct><member><name>a</name><value><i4>1</i4></value><value/></member></struct>",
			MalformedMember,
			"struct/member[0]",
		},
		{
			"member name not text",
			"<struct><member><name><string>a</string></name><value><i4>1</i4></value></member></struct>",
			MalformedMember,
			"struct/member[0]",
		},
		{
			"member empty value",
			"<struct><member><name>a</name><value></value></member></struct>",
			MalformedMember,
			"struct/member[0]",
		},
		{
			"member bad value",
			`<struct>
				<member><name>a</name><value><i4>1</i4></value></member>
				<member><name>b</name><value><array><data><value><i4>x</i4></value></data></array></value></member>
			</struct>`,
			InvalidInteger,
			"struct/member[1]/value/array/data/value[0]/i4",
		},
		{
			"duplicate member",
			`<struct>
				<member><name>a</name><value><i4>1</i4></value></member>
				<member><name>a</name><value><i4>2</i4></value></member>
			</struct>`,
			DuplicateKey,
			"struct/member[1]",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeString(tc.in)
			if err == nil {
				t.Fatalf("DecodeString(%q) = %v, want err", tc.in, got)
			}
			if got != nil {
				t.Errorf("DecodeString(%q) returned partial value %v alongside error", tc.in, got)
			}
			var derr DecodeError
			if !errors.As(err, &derr) {
				t.Fatalf("DecodeString(%q) returned %T, want DecodeError", tc.in, err)
			}
			if derr.Code != tc.wantCode {
				t.Errorf("DecodeString(%q) error code %v, want %v (err: %v)", tc.in, derr.Code, tc.wantCode, err)
			}
			if !errors.Is(err, tc.wantCode) {
				t.Errorf("errors.Is(%v, %v) = false", err, tc.wantCode)
			}
			if derr.Path != tc.wantPath {
				t.Errorf("DecodeString(%q) error path %q, want %q", tc.in, derr.Path, tc.wantPath)
			}
			if testing.Verbose() {
				t.Logf("DecodeString(%q) = err: %v", tc.in, err)
			}
		})
	}
}

func TestDecodeDepthLimit(t *testing.T) {
	deep := func(depth int) string {
		return strings.Repeat("<array><data><value>", depth) + "<i4>1</i4>" + strings.Repeat("</value></data></array>", depth)
	}

	if _, err := DecodeString(deep(MaxDepth)); err != nil {
		t.Errorf("decoding %d nested arrays got err: %v", MaxDepth, err)
	}

	_, err := DecodeString(deep(MaxDepth + 1))
	if !errors.Is(err, DepthExceeded) {
		t.Errorf("decoding %d nested arrays got err %v, want DepthExceeded", MaxDepth+1, err)
	}
}

func TestDecodeNil(t *testing.T) {
	if got, err := DecodeValue(nil); err == nil {
		t.Errorf("DecodeValue(nil) = %v, want err", got)
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []Value{
		String("hi"),
		String(""),
		Int(math.MinInt32),
		Double(math.SmallestNonzeroFloat64),
		Bool(true),
		DateTime{time.Date(2008, 11, 20, 23, 49, 42, 0, time.UTC)},
		Base64("unicode ïåeáî®©†µπœ∑"),
		Base64{},
		Array{},
		NewStruct(),
		Array{
			NewStruct(
				Member{"fgcolor", String("#000000")},
				Member{"username", String("bradfitz")},
				Member{"tags", Array{String("a"), String("b")}},
			),
			NewStruct(
				Member{"empty", NewStruct()},
				Member{"nested", Array{Array{Array{}}}},
			),
		},
		NewStruct(
			Member{"string", String("hi")},
			Member{"doubles", Array{Double(math.Pi), Double(0x1p-1022), Double(0.3), Double(-7.1), Double(12_345_678.9)}},
			Member{"int32s", Array{Int(math.MaxInt32), Int(math.MinInt32), Int(0), Int(-10), Int(256)}},
			Member{"bools", Array{Bool(true), Bool(false), Bool(false), Bool(true)}},
			Member{"dates", Array{DateTime{time.Date(1998, 7, 17, 14, 8, 55, 0, time.UTC)}}},
			Member{"data", Base64("unicode ïåeáî®©†µπœ∑")},
		),
		nest(MaxDepth),
	}

	for _, want := range tests {
		n, err := EncodeValue(want)
		if err != nil {
			t.Errorf("EncodeValue(%v) got err: %v", want, err)
			continue
		}
		got, err := DecodeValue(n)
		if err != nil {
			t.Errorf("DecodeValue(EncodeValue(%v)) got err: %v", want, err)
			continue
		}
		if diff := cmp.Diff(got, want, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("DecodeValue(EncodeValue(%v)) did not round trip (-got+want):\n%s", want, diff)
		}
		if !Equal(got, want) {
			t.Errorf("Equal(DecodeValue(EncodeValue(%v)), ...) = false", want)
		}

		// Also round trip through XML text.
		s, err := EncodeString(want)
		if err != nil {
			t.Errorf("EncodeString(%v) got err: %v", want, err)
			continue
		}
		got, err = DecodeString(s)
		if err != nil {
			t.Errorf("DecodeString(EncodeString(%v)) got err: %v", want, err)
			continue
		}
		if !Equal(got, want) {
			t.Errorf("DecodeString(EncodeString(%v)) = %v, did not round trip", want, got)
		}
	}
}

func TestDecodeEncodeIdentity(t *testing.T) {
	in := wire.Elem("struct",
		wire.Elem("member",
			wire.Text("name", "date_created_gmt"),
			wire.Elem("value", wire.Text("dateTime.iso8601", "20081121T02:54:08"))),
		wire.Elem("member",
			wire.Text("name", "type"),
			wire.Elem("value", wire.Text("string", ""))))

	v, err := DecodeValue(in)
	if err != nil {
		t.Fatal(err)
	}
	out, err := EncodeValue(v)
	if err != nil {
		t.Fatal(err)
	}
	if !wire.Equal(in, out) {
		t.Errorf("decode/encode changed tree:\n  got: %s\n want: %s", out, in)
	}
}

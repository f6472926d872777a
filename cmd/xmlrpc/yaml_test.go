package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/danderson/xmlrpc"
	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestToYAML(t *testing.T) {
	tests := []struct {
		in      xmlrpc.Value
		wantTag string
		wantVal string
	}{
		{xmlrpc.String("42"), "!!str", "42"},
		{xmlrpc.Int(-7), "!!int", "-7"},
		{xmlrpc.Double(0.25), "!!float", "0.25"},
		{xmlrpc.Bool(true), "!!bool", "true"},
		{xmlrpc.NewDateTime(time.Date(1998, 7, 17, 14, 8, 55, 0, time.UTC)), "!!timestamp", "1998-07-17T14:08:55Z"},
		{xmlrpc.Base64("hi"), "!!binary", "aGk="},
	}
	for _, tc := range tests {
		got, err := toYAML(tc.in)
		if err != nil {
			t.Errorf("toYAML(%v) got err: %v", tc.in, err)
			continue
		}
		if got.Kind != yaml.ScalarNode || got.Tag != tc.wantTag || got.Value != tc.wantVal {
			t.Errorf("toYAML(%v) = {%v %q %q}, want scalar %q %q", tc.in, got.Kind, got.Tag, got.Value, tc.wantTag, tc.wantVal)
		}
	}

	if _, err := toYAML(nil); err == nil {
		t.Error("toYAML(nil) succeeded, want err")
	}
	if _, err := toYAML(xmlrpc.Array{xmlrpc.Int(1), nil}); err == nil {
		t.Error("toYAML(array with nil) succeeded, want err")
	}
}

func TestWriteYAML(t *testing.T) {
	v := xmlrpc.NewStruct(
		xmlrpc.Member{Name: "zeta", Value: xmlrpc.String("007")},
		xmlrpc.Member{Name: "alpha", Value: xmlrpc.Array{
			xmlrpc.Int(1),
			xmlrpc.Double(1.5),
			xmlrpc.NewStruct(),
		}},
		xmlrpc.Member{Name: "ok", Value: xmlrpc.Bool(false)},
	)

	var out bytes.Buffer
	if err := writeYAML(&out, v); err != nil {
		t.Fatal(err)
	}
	if testing.Verbose() {
		t.Logf("YAML:\n%s", out.String())
	}

	// Members must be written in struct order, not sorted.
	var doc yaml.Node
	if err := yaml.Unmarshal(out.Bytes(), &doc); err != nil {
		t.Fatalf("parsing output: %v", err)
	}
	m := doc.Content[0]
	var keys []string
	for i := 0; i < len(m.Content); i += 2 {
		keys = append(keys, m.Content[i].Value)
	}
	if diff := cmp.Diff(keys, []string{"zeta", "alpha", "ok"}); diff != "" {
		t.Errorf("YAML member order wrong (-got+want):\n%s", diff)
	}

	var got map[string]any
	if err := yaml.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("parsing output: %v", err)
	}
	want := map[string]any{
		"zeta":  "007",
		"alpha": []any{1, 1.5, map[string]any{}},
		"ok":    false,
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("YAML output wrong (-got+want):\n%s", diff)
	}
}

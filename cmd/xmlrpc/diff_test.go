package main

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWriteDiff(t *testing.T) {
	a := "<struct>\n  <a>1</a>\n  <b>2</b>\n</struct>\n"
	b := "<struct>\n  <a>1</a>\n  <b>3</b>\n  <c>4</c>\n</struct>\n"

	var out strings.Builder
	if err := writeDiff(&out, a, b, false); err != nil {
		t.Fatal(err)
	}
	want := ` <struct>
   <a>1</a>
-  <b>2</b>
+  <b>3</b>
+  <c>4</c>
 </struct>
`
	if diff := cmp.Diff(out.String(), want); diff != "" {
		t.Errorf("writeDiff wrong output (-got+want):\n%s", diff)
	}

	out.Reset()
	if err := writeDiff(&out, a, b, true); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "\x1b[31m") || !strings.Contains(out.String(), "\x1b[32m") {
		t.Errorf("writeDiff(colorize) output has no color codes:\n%q", out.String())
	}

	out.Reset()
	if err := writeDiff(&out, a, a, false); err != nil {
		t.Fatal(err)
	}
	if strings.ContainsAny(out.String(), "+-") {
		t.Errorf("writeDiff(a, a) reported changes:\n%s", out.String())
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a\n", []string{"a"}},
		{"a\nb", []string{"a", "b"}},
		{"a\n\nb\n", []string{"a", "", "b"}},
	}
	for _, tc := range tests {
		if diff := cmp.Diff(splitLines(tc.in), tc.want); diff != "" {
			t.Errorf("splitLines(%q) wrong (-got+want):\n%s", tc.in, diff)
		}
	}
}

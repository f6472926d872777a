package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// writeDiff writes a line diff of a and b to w. Removed lines are
// prefixed with "-", added lines with "+", and unchanged lines with a
// space. If colorize is set, removed and added lines are red and
// green.
func writeDiff(w io.Writer, a, b string, colorize bool) error {
	dmp := diffpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)

	del := color.New(color.FgRed)
	ins := color.New(color.FgGreen)
	if colorize {
		del.EnableColor()
		ins.EnableColor()
	} else {
		del.DisableColor()
		ins.DisableColor()
	}

	for _, d := range diffs {
		var (
			prefix string
			c      *color.Color
		)
		switch d.Type {
		case diffpatch.DiffDelete:
			prefix, c = "-", del
		case diffpatch.DiffInsert:
			prefix, c = "+", ins
		case diffpatch.DiffEqual:
			prefix = " "
		}
		for _, line := range splitLines(d.Text) {
			var err error
			if c != nil {
				_, err = c.Fprintln(w, prefix+line)
			} else {
				_, err = fmt.Fprintln(w, prefix+line)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// splitLines splits s into lines, without their trailing newlines.
func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

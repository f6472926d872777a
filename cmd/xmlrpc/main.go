package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/creachadair/command"
	"github.com/creachadair/flax"
	"github.com/danderson/xmlrpc"
	"github.com/danderson/xmlrpc/wire"
	"github.com/google/go-cmp/cmp"
	"github.com/kr/pretty"
	"github.com/mattn/go-isatty"
)

var globalArgs struct {
	Verbose bool `flag:"verbose,Log progress to stderr"`
}

var dumpArgs struct {
	Format string `flag:"format,default=tree,Output format: tree, go or yaml"`
}

var fmtArgs struct {
	Indent int `flag:"indent,default=2,Spaces of indentation per nesting level, 0 for compact output"`
}

var diffArgs struct {
	Color string `flag:"color,default=auto,Colorize output: auto, always or never"`
}

func main() {
	root := &command.C{
		Name:     "xmlrpc",
		Usage:    "command args...",
		Help:     "Inspect and reformat XML-RPC value documents.",
		SetFlags: command.Flags(flax.MustBind, &globalArgs),
		Commands: []*command.C{
			{
				Name:  "check",
				Usage: "check file...",
				Help: `Check that files contain a valid XML-RPC value.

Each file must hold exactly one value element, such as <struct> or
<array>, as its root. Use "-" to read standard input.

Exits with an error if any file fails to decode.`,
				Run: runCheck,
			},
			{
				Name:  "dump",
				Usage: "dump [file]",
				Help: `Print the XML-RPC value in a file.

The tree format shows each value's kind and content, one value per
line. The go format prints the decoded Go value. The yaml format
converts the value to a YAML document, keeping struct member order.

With no file, or a file of "-", reads standard input.`,
				SetFlags: command.Flags(flax.MustBind, &dumpArgs),
				Run:      runDump,
			},
			{
				Name:  "fmt",
				Usage: "fmt [file]",
				Help: `Print the canonical encoding of the XML-RPC value in a file.

The canonical encoding uses <i4> for integers, the shortest
round-tripping decimal for doubles, unbroken base64, and no
insignificant whitespace in values.

With no file, or a file of "-", reads standard input.`,
				SetFlags: command.Flags(flax.MustBind, &fmtArgs),
				Run:      runFmt,
			},
			{
				Name:  "diff",
				Usage: "diff a b",
				Help: `Compare the XML-RPC values in two files.

Both values are put in canonical form before comparing, so
differences in layout, <int> versus <i4>, or base64 line breaks are
not reported.

Exits with an error if the values differ.`,
				SetFlags: command.Flags(flax.MustBind, &diffArgs),
				Run:      command.Adapt(runDiff),
			},
			command.HelpCommand(nil),
			command.VersionCommand(),
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	env := root.NewEnv(nil).SetContext(ctx)
	command.RunOrFail(env, os.Args[1:])
}

func vlogf(msg string, args ...any) {
	if globalArgs.Verbose {
		log.Printf(msg, args...)
	}
}

func runCheck(env *command.Env) error {
	if len(env.Args) == 0 {
		return env.Usagef("check requires at least one file.")
	}
	var errs []error
	for _, path := range env.Args {
		vlogf("checking %s", path)
		if _, err := readValue(path); err != nil {
			fmt.Printf("%s: %v\n", path, err)
			errs = append(errs, err)
			continue
		}
		fmt.Printf("%s: ok\n", path)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d files are invalid", len(errs), len(env.Args))
	}
	return nil
}

func runDump(env *command.Env) error {
	path, err := optionalFile(env)
	if err != nil {
		return err
	}
	v, err := readValue(path)
	if err != nil {
		return err
	}

	switch dumpArgs.Format {
	case "tree":
		printTree(&indenter{w: os.Stdout}, "", v, 0)
	case "go":
		fmt.Printf("%# v\n", pretty.Formatter(v))
	case "yaml":
		if err := writeYAML(os.Stdout, v); err != nil {
			return fmt.Errorf("writing YAML: %w", err)
		}
	default:
		return env.Usagef("unknown dump format %q", dumpArgs.Format)
	}
	return nil
}

func runFmt(env *command.Env) error {
	path, err := optionalFile(env)
	if err != nil {
		return err
	}
	if fmtArgs.Indent < 0 {
		return env.Usagef("--indent must not be negative")
	}
	v, err := readValue(path)
	if err != nil {
		return err
	}
	bs, err := canonical(v, fmtArgs.Indent)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(bs)
	return err
}

func runDiff(env *command.Env, a, b string) error {
	va, err := readValue(a)
	if err != nil {
		return err
	}
	vb, err := readValue(b)
	if err != nil {
		return err
	}

	na, err := xmlrpc.EncodeValue(va)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", a, err)
	}
	nb, err := xmlrpc.EncodeValue(vb)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", b, err)
	}
	if cmp.Equal(na, nb) {
		vlogf("%s and %s are equal", a, b)
		return nil
	}

	var colorize bool
	switch diffArgs.Color {
	case "auto":
		colorize = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	case "always":
		colorize = true
	case "never":
	default:
		return env.Usagef("unknown --color mode %q", diffArgs.Color)
	}

	ta, err := render(na, 2)
	if err != nil {
		return err
	}
	tb, err := render(nb, 2)
	if err != nil {
		return err
	}
	fmt.Printf("--- %s\n+++ %s\n", a, b)
	if err := writeDiff(os.Stdout, ta, tb, colorize); err != nil {
		return err
	}
	return fmt.Errorf("%s and %s differ", a, b)
}

// readValue decodes the XML-RPC value in the named file, or in
// standard input if path is "-".
func readValue(path string) (xmlrpc.Value, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	v, err := xmlrpc.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return v, nil
}

func optionalFile(env *command.Env) (string, error) {
	switch len(env.Args) {
	case 0:
		return "-", nil
	case 1:
		return env.Args[0], nil
	default:
		return "", env.Usagef("too many arguments")
	}
}

// canonical returns the XML encoding of v, indented by the given
// number of spaces per level, with a trailing newline.
func canonical(v xmlrpc.Value, indent int) ([]byte, error) {
	n, err := xmlrpc.EncodeValue(v)
	if err != nil {
		return nil, err
	}
	s, err := render(n, indent)
	return []byte(s), err
}

func render(n *wire.Node, indent int) (string, error) {
	var ret strings.Builder
	if err := wire.Encode(&ret, n, strings.Repeat(" ", indent)); err != nil {
		return "", err
	}
	ret.WriteByte('\n')
	return ret.String(), nil
}

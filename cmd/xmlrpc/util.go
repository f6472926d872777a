package main

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/danderson/xmlrpc"
)

type indenter struct {
	w          io.Writer
	prefix     string
	indentNext bool
}

func (i *indenter) f(msg string, args ...any) {
	fmt.Fprintf(i, msg+"\n", args...)
}

func (i *indenter) Write(bs []byte) (int, error) {
	ret := 0
	for len(bs) > 0 {
		if i.indentNext {
			i.indentNext = false
			_, err := io.WriteString(i.w, i.prefix)
			if err != nil {
				return ret, err
			}
		}

		var wr []byte
		idx := bytes.IndexByte(bs, '\n')
		if idx >= 0 {
			i.indentNext = true
			wr, bs = bs[:idx+1], bs[idx+1:]
		} else {
			wr, bs = bs, nil
		}

		n, err := i.w.Write(wr)
		ret += n
		if err != nil {
			return ret, err
		}
	}
	return ret, nil
}

func (i *indenter) indent(n int) {
	i.prefix = strings.Repeat("  ", n)
}

// printTree writes v to out, one value per line, with nested values
// indented below their container.
func printTree(out *indenter, label string, v xmlrpc.Value, depth int) {
	out.indent(depth)
	switch v := v.(type) {
	case xmlrpc.Array:
		out.f("%sarray[%d]", label, len(v))
		for i, elem := range v {
			printTree(out, strconv.Itoa(i)+": ", elem, depth+1)
		}
	case *xmlrpc.Struct:
		out.f("%sstruct[%d]", label, v.Len())
		for name, elem := range v.All() {
			printTree(out, name+": ", elem, depth+1)
		}
	default:
		out.f("%s%s %s", label, xmlrpc.KindOf(v), scalarText(v))
	}
}

func scalarText(v xmlrpc.Value) string {
	switch v := v.(type) {
	case xmlrpc.String:
		return strconv.Quote(string(v))
	case xmlrpc.Int:
		return strconv.Itoa(int(v))
	case xmlrpc.Double:
		return strconv.FormatFloat(float64(v), 'g', -1, 64)
	case xmlrpc.Bool:
		return strconv.FormatBool(bool(v))
	case xmlrpc.DateTime:
		return v.Time.UTC().Format(time.RFC3339)
	case xmlrpc.Base64:
		return base64.StdEncoding.EncodeToString(v)
	default:
		return fmt.Sprint(v)
	}
}

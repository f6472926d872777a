package main

import (
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/danderson/xmlrpc"
	"gopkg.in/yaml.v3"
)

// toYAML returns the YAML representation of v. Struct members keep
// their order, and scalars carry an explicit tag so that strings
// which look like numbers stay strings.
func toYAML(v xmlrpc.Value) (*yaml.Node, error) {
	scalar := func(tag, val string) *yaml.Node {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: val}
	}

	switch v := v.(type) {
	case xmlrpc.String:
		return scalar("!!str", string(v)), nil
	case xmlrpc.Int:
		return scalar("!!int", strconv.Itoa(int(v))), nil
	case xmlrpc.Double:
		return scalar("!!float", strconv.FormatFloat(float64(v), 'g', -1, 64)), nil
	case xmlrpc.Bool:
		return scalar("!!bool", strconv.FormatBool(bool(v))), nil
	case xmlrpc.DateTime:
		return scalar("!!timestamp", v.Time.UTC().Format(time.RFC3339)), nil
	case xmlrpc.Base64:
		return scalar("!!binary", base64.StdEncoding.EncodeToString(v)), nil
	case xmlrpc.Array:
		ret := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i, elem := range v {
			n, err := toYAML(elem)
			if err != nil {
				return nil, fmt.Errorf("%d/%w", i, err)
			}
			ret.Content = append(ret.Content, n)
		}
		return ret, nil
	case *xmlrpc.Struct:
		if v == nil {
			break
		}
		ret := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for name, elem := range v.All() {
			n, err := toYAML(elem)
			if err != nil {
				return nil, fmt.Errorf("%s/%w", name, err)
			}
			ret.Content = append(ret.Content, scalar("!!str", name), n)
		}
		return ret, nil
	}
	return nil, fmt.Errorf("unsupported value %v", v)
}

func writeYAML(w io.Writer, v xmlrpc.Value) error {
	n, err := toYAML(v)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(n); err != nil {
		return err
	}
	return enc.Close()
}

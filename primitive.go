package xmlrpc

import (
	"encoding/base64"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/danderson/xmlrpc/wire"
)

// dateTimeLayout is the XML-RPC dateTime.iso8601 format: compact
// date, 'T', extended time, no fractional seconds, no zone.
const dateTimeLayout = "20060102T15:04:05"

// encodePrimitive returns the wire encoding of a scalar value, and
// false if v is not a scalar.
func encodePrimitive(v Value) (*wire.Node, bool, error) {
	switch v := v.(type) {
	case String:
		return wire.Text(TagString, string(v)), true, nil
	case Int:
		return wire.Text(TagI4, strconv.FormatInt(int64(v), 10)), true, nil
	case Double:
		s, err := formatDouble(float64(v))
		if err != nil {
			return nil, true, err
		}
		return wire.Text(TagDouble, s), true, nil
	case Bool:
		if v {
			return wire.Text(TagBoolean, "1"), true, nil
		}
		return wire.Text(TagBoolean, "0"), true, nil
	case DateTime:
		return wire.Text(TagDateTime, formatDateTime(v.Time)), true, nil
	case Base64:
		return wire.Text(TagBase64, base64.StdEncoding.EncodeToString(v)), true, nil
	default:
		return nil, false, nil
	}
}

// decodePrimitive decodes the scalar element n. The caller must have
// checked that n.Name is one of scalarTags.
func decodePrimitive(n *wire.Node) (Value, Code, error) {
	text, ok := n.Content()
	if !ok {
		return nil, MissingContent, errors.New("scalar element has child elements")
	}

	switch n.Name {
	case TagString:
		return String(text), 0, nil
	case TagI4, TagInt:
		i, err := parseInt(text)
		if err != nil {
			return nil, InvalidInteger, err
		}
		return Int(i), 0, nil
	case TagDouble:
		f, err := parseDouble(text)
		if err != nil {
			return nil, InvalidReal, err
		}
		return Double(f), 0, nil
	case TagBoolean:
		switch text {
		case "0":
			return Bool(false), 0, nil
		case "1":
			return Bool(true), 0, nil
		default:
			return nil, InvalidBoolean, strconvErr(text, `want "0" or "1"`)
		}
	case TagDateTime:
		t, err := parseDateTime(text)
		if err != nil {
			return nil, InvalidInstant, err
		}
		return DateTime{t}, 0, nil
	case TagBase64:
		bs, err := decodeBase64(text)
		if err != nil {
			return nil, InvalidBase64, err
		}
		return Base64(bs), 0, nil
	default:
		panic("decodePrimitive called on non-scalar element " + n.Name)
	}
}

func strconvErr(text, reason string) error {
	return errors.New(strconv.Quote(text) + ": " + reason)
}

func parseInt(s string) (int32, error) {
	i, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		var nerr *strconv.NumError
		if errors.As(err, &nerr) && errors.Is(nerr.Err, strconv.ErrRange) {
			return 0, strconvErr(s, "out of range for a 32-bit integer")
		}
		return 0, strconvErr(s, "not a base 10 integer")
	}
	return int32(i), nil
}

// formatDouble returns the shortest decimal representation of f that
// round-trips. Magnitudes in [1e-4, 1e16) use plain decimal notation
// and always include a fractional part, others use exponential
// notation, e.g. "0.3", "12345678.9", "1.0", "5e-324", "1e+16".
func formatDouble(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", errors.New("NaN and infinities are not representable")
	}
	if f == 0 {
		if math.Signbit(f) {
			return "-0.0", nil
		}
		return "0.0", nil
	}
	if exp := math.Abs(f); exp < 1e-4 || exp >= 1e16 {
		return strconv.FormatFloat(f, 'e', -1, 64), nil
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s, nil
}

// parseDouble parses a decimal floating point number, with optional
// sign, fraction and exponent. Hex floats, digit separators, and
// spelled out infinities and NaNs are rejected.
func parseDouble(s string) (float64, error) {
	if s == "" {
		return 0, strconvErr(s, "empty double")
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '+', r == '-', r == '.', r == 'e', r == 'E':
		default:
			return 0, strconvErr(s, "not a decimal number")
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		var nerr *strconv.NumError
		if errors.As(err, &nerr) && errors.Is(nerr.Err, strconv.ErrRange) {
			return 0, strconvErr(s, "out of range for a double")
		}
		return 0, strconvErr(s, "not a decimal number")
	}
	return f, nil
}

func formatDateTime(t time.Time) string {
	return t.UTC().Format(dateTimeLayout)
}

// parseDateTime parses s strictly according to dateTimeLayout. Unlike
// time.Parse alone, it requires every field to have its full width.
func parseDateTime(s string) (time.Time, error) {
	if len(s) != len(dateTimeLayout) {
		return time.Time{}, strconvErr(s, "want format yyyyMMddTHH:mm:ss")
	}
	for i := range len(s) {
		var ok bool
		switch i {
		case 8:
			ok = s[i] == 'T'
		case 11, 14:
			ok = s[i] == ':'
		default:
			ok = s[i] >= '0' && s[i] <= '9'
		}
		if !ok {
			return time.Time{}, strconvErr(s, "want format yyyyMMddTHH:mm:ss")
		}
	}
	t, err := time.ParseInLocation(dateTimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, strconvErr(s, "invalid date or time")
	}
	return t, nil
}

// decodeBase64 decodes standard base64, skipping any byte outside of
// the base64 alphabet (line breaks, spaces, stray punctuation). Padding
// is optional, but may only appear at the end of the data. Text with
// no base64 data at all is an error, whitespace alone is empty data.
func decodeBase64(s string) ([]byte, error) {
	clean := make([]byte, 0, len(s))
	for i := range len(s) {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '+', c == '/', c == '=':
			clean = append(clean, c)
		}
	}
	for len(clean) > 0 && clean[len(clean)-1] == '=' {
		clean = clean[:len(clean)-1]
	}
	if len(clean) == 0 {
		if strings.TrimSpace(s) != "" {
			return nil, strconvErr(s, "no valid base64 data")
		}
		return []byte{}, nil
	}
	ret := make([]byte, base64.RawStdEncoding.DecodedLen(len(clean)))
	n, err := base64.RawStdEncoding.Decode(ret, clean)
	if err != nil {
		return nil, strconvErr(s, "no valid base64 data")
	}
	return ret[:n], nil
}

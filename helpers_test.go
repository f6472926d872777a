package xmlrpc

import (
	"fmt"
	"strings"
	"time"
)

// Simple is a struct with simple fields.
type Simple struct {
	A int16
	B bool
}

// Nested is a struct with a struct field.
type Nested struct {
	A byte
	B Simple
}

// Embedded is a struct that embeds another struct by value.
type Embedded struct {
	Simple
	C byte
}

// EmbeddedShadow is a struct that embeds another struct by value,
// with one of the embedded fields shadowed by an outer field.
type EmbeddedShadow struct {
	Simple
	B string
}

// Embedded_P is a struct that embeds another struct by pointer.
type Embedded_P struct {
	*Simple
	C byte
}

// Embedded_PV is a struct with 2 layers of embedding, first by value
// then by pointers.
type Embedded_PV struct {
	Embedded_P
}

// Embedded_PVP is a struct with 3 layers of embedding, pointer then
// value then pointer.
type Embedded_PVP struct {
	*Embedded_PV
	D byte
}

// Conflict embeds two structs with a field of the same name at the
// same depth, so neither is visible.
type Conflict struct {
	Simple
	Other
	C string
}

// Other is a struct whose A field conflicts with Simple.A.
type Other struct {
	A string
}

// Tagged is a struct with xmlrpc struct tags.
type Tagged struct {
	Name    string  `xmlrpc:"name"`
	Count   int     `xmlrpc:"count,omitempty"`
	Ignored string  `xmlrpc:"-"`
	Note    *string `xmlrpc:"note"`
	Tags    []string
}

// Arrays is a struct with various degrees of complicated arrays
// inside.
type Arrays struct {
	A []string
	B []Simple
	C [][]Nested
}

// Tree is a self-referential struct.
type Tree struct {
	Value    int32
	Children []*Tree `xmlrpc:",omitempty"`
}

// Loop is a self-referential struct whose values can be cyclic.
type Loop struct {
	Next *Loop
}

// Event is the payload of the LiveJournal postevent call.
type Event struct {
	Username    string    `xmlrpc:"username"`
	Password    string    `xmlrpc:"password"`
	Event       string    `xmlrpc:"event"`
	Subject     string    `xmlrpc:"subject"`
	LineEndings string    `xmlrpc:"lineendings"`
	Year        int       `xmlrpc:"year"`
	Mon         int       `xmlrpc:"mon"`
	Day         int       `xmlrpc:"day"`
	Hour        int       `xmlrpc:"hour"`
	Min         int       `xmlrpc:"min"`
	Posted      time.Time `xmlrpc:"posted,omitempty"`
}

// Friend is an entry of the LiveJournal getfriends response. Type is
// only sent for some friends.
type Friend struct {
	FGColor  string  `xmlrpc:"fgcolor"`
	BGColor  string  `xmlrpc:"bgcolor"`
	Username string  `xmlrpc:"username"`
	FullName string  `xmlrpc:"fullname"`
	Type     *string `xmlrpc:"type"`
}

// Celsius implements Marshaler and Unmarshaler with a pointer
// receiver, encoding as a string with a unit.
type Celsius struct {
	Degrees int
}

func (c *Celsius) MarshalXMLRPC() (Value, error) {
	return String(fmt.Sprintf("%dC", c.Degrees)), nil
}

func (c *Celsius) UnmarshalXMLRPC(v Value) error {
	s, ok := v.(String)
	if !ok {
		return fmt.Errorf("want string, got %s", KindOf(v))
	}
	digits, ok := strings.CutSuffix(string(s), "C")
	if !ok {
		return fmt.Errorf("%q is missing unit", s)
	}
	_, err := fmt.Sscanf(digits, "%d", &c.Degrees)
	return err
}

// Weather has a field that implements Marshaler/Unmarshaler with
// pointer method receivers.
type Weather struct {
	City string
	Temp Celsius
}

// Color implements Marshaler and Unmarshaler with value method
// receivers. Note the Unmarshaler implementation is deliberately
// unusable (UnmarshalXMLRPC must have a pointer receiver).
type Color struct {
	R, G, B uint8
}

func (c Color) MarshalXMLRPC() (Value, error) {
	return String(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)), nil
}

func (c Color) UnmarshalXMLRPC(v Value) error {
	_, err := fmt.Sscanf(string(v.(String)), "#%02x%02x%02x", &c.R, &c.G, &c.B)
	return err
}

// Failing implements Marshaler by always failing.
type Failing struct{}

func (Failing) MarshalXMLRPC() (Value, error) {
	return nil, fmt.Errorf("no can do")
}

func ptr[T any](v T) *T {
	return &v
}

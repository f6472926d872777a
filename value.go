package xmlrpc

import (
	"bytes"
	"fmt"
	"iter"
	"math"
	"slices"
	"time"
)

// Value is an XML-RPC value.
//
// The set of Values is closed: it is one of [String], [Int],
// [Double], [Bool], [DateTime], [Base64], [Array] or *[Struct].
type Value interface {
	// Kind returns the kind of the value.
	Kind() Kind

	isValue()
}

// Kind is the kind of a [Value].
type Kind uint8

const (
	InvalidKind Kind = iota
	StringKind
	IntKind
	DoubleKind
	BoolKind
	DateTimeKind
	Base64Kind
	ArrayKind
	StructKind
)

var kindNames = [...]string{
	InvalidKind:  "invalid",
	StringKind:   "string",
	IntKind:      "int",
	DoubleKind:   "double",
	BoolKind:     "boolean",
	DateTimeKind: "dateTime",
	Base64Kind:   "base64",
	ArrayKind:    "array",
	StructKind:   "struct",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// KindOf returns the kind of v, or InvalidKind if v is nil.
func KindOf(v Value) Kind {
	if v == nil {
		return InvalidKind
	}
	if s, ok := v.(*Struct); ok && s == nil {
		return InvalidKind
	}
	return v.Kind()
}

// String is an XML-RPC string.
type String string

// Int is an XML-RPC 32-bit signed integer.
type Int int32

// Double is an XML-RPC double precision float.
type Double float64

// Bool is an XML-RPC boolean.
type Bool bool

// DateTime is an XML-RPC date and time.
//
// XML-RPC date-times have second precision and no time zone. They are
// always encoded and decoded as UTC.
type DateTime struct {
	time.Time
}

// NewDateTime returns t as a DateTime, in UTC and truncated to whole
// seconds.
func NewDateTime(t time.Time) DateTime {
	return DateTime{t.UTC().Truncate(time.Second)}
}

// Equal reports whether d and o represent the same instant.
func (d DateTime) Equal(o DateTime) bool {
	return d.Time.Equal(o.Time)
}

// Base64 is an XML-RPC base64 blob of bytes.
type Base64 []byte

// Array is an XML-RPC array.
type Array []Value

func (String) Kind() Kind   { return StringKind }
func (Int) Kind() Kind      { return IntKind }
func (Double) Kind() Kind   { return DoubleKind }
func (Bool) Kind() Kind     { return BoolKind }
func (DateTime) Kind() Kind { return DateTimeKind }
func (Base64) Kind() Kind   { return Base64Kind }
func (Array) Kind() Kind    { return ArrayKind }
func (*Struct) Kind() Kind  { return StructKind }

func (String) isValue()   {}
func (Int) isValue()      {}
func (Double) isValue()   {}
func (Bool) isValue()     {}
func (DateTime) isValue() {}
func (Base64) isValue()   {}
func (Array) isValue()    {}
func (*Struct) isValue()  {}

// A Member is one named value in a [Struct].
type Member struct {
	Name  string
	Value Value
}

// Struct is an XML-RPC struct: an ordered mapping of unique names to
// values.
//
// Members are kept in insertion order, which is also the order in
// which they are encoded. The zero Struct is an empty struct ready to
// use.
type Struct struct {
	members []Member
	// index maps member names to their position in members. Small
	// structs have no index and are searched linearly.
	index map[string]int
}

// indexThreshold is the struct size above which name lookups use an
// index instead of a linear scan.
const indexThreshold = 8

// NewStruct returns a Struct containing members, in order. If a name
// appears more than once, the last value wins but the member keeps
// the position of the first occurrence.
func NewStruct(members ...Member) *Struct {
	ret := &Struct{}
	for _, m := range members {
		ret.Set(m.Name, m.Value)
	}
	return ret
}

func (s *Struct) find(name string) int {
	if s == nil {
		return -1
	}
	if s.index != nil {
		if i, ok := s.index[name]; ok {
			return i
		}
		return -1
	}
	return slices.IndexFunc(s.members, func(m Member) bool { return m.Name == name })
}

// Len returns the number of members in s.
func (s *Struct) Len() int {
	if s == nil {
		return 0
	}
	return len(s.members)
}

// Get returns the value of the member called name.
func (s *Struct) Get(name string) (v Value, ok bool) {
	i := s.find(name)
	if i < 0 {
		return nil, false
	}
	return s.members[i].Value, true
}

// Has reports whether s has a member called name.
func (s *Struct) Has(name string) bool {
	return s.find(name) >= 0
}

// Set sets the value of the member called name. If the member
// already exists, its value is replaced in place. Otherwise, the
// member is appended to s.
func (s *Struct) Set(name string, v Value) {
	if i := s.find(name); i >= 0 {
		s.members[i].Value = v
		return
	}
	s.members = append(s.members, Member{name, v})
	if s.index != nil {
		s.index[name] = len(s.members) - 1
	} else {
		s.reindex()
	}
}

// reindex builds the name index if s has grown large enough to need
// one. Lookups never modify s, so concurrent reads are safe.
func (s *Struct) reindex() {
	if len(s.members) <= indexThreshold {
		s.index = nil
		return
	}
	s.index = make(map[string]int, len(s.members))
	for i, m := range s.members {
		s.index[m.Name] = i
	}
}

// Delete removes the member called name, if present. The relative
// order of the remaining members is unchanged.
func (s *Struct) Delete(name string) {
	i := s.find(name)
	if i < 0 {
		return
	}
	s.members = slices.Delete(s.members, i, i+1)
	s.reindex()
}

// Keys returns the names of the members of s, in order.
func (s *Struct) Keys() []string {
	if s == nil {
		return nil
	}
	ret := make([]string, 0, len(s.members))
	for _, m := range s.members {
		ret = append(ret, m.Name)
	}
	return ret
}

// Members returns a copy of the members of s, in order.
func (s *Struct) Members() []Member {
	if s == nil {
		return nil
	}
	return slices.Clone(s.members)
}

// All returns an iterator over the members of s, in order.
func (s *Struct) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if s == nil {
			return
		}
		for _, m := range s.members {
			if !yield(m.Name, m.Value) {
				return
			}
		}
	}
}

// Equal reports whether s and o have the same members, with equal
// values, in the same order.
func (s *Struct) Equal(o *Struct) bool {
	if s.Len() != o.Len() {
		return false
	}
	for i := range s.Len() {
		a, b := s.members[i], o.members[i]
		if a.Name != b.Name || !Equal(a.Value, b.Value) {
			return false
		}
	}
	return true
}

func (s *Struct) String() string {
	return fmt.Sprint(s.members)
}

// Equal reports whether a and b are the same XML-RPC value.
//
// Struct members must appear in the same order in both values. Doubles
// are compared bitwise, so that NaN equals NaN and 0 differs from -0.
func Equal(a, b Value) bool {
	if ka, kb := KindOf(a), KindOf(b); ka != kb {
		return false
	} else if ka == InvalidKind {
		return true
	}
	switch a := a.(type) {
	case String:
		return a == b.(String)
	case Int:
		return a == b.(Int)
	case Double:
		return math.Float64bits(float64(a)) == math.Float64bits(float64(b.(Double)))
	case Bool:
		return a == b.(Bool)
	case DateTime:
		return a.Equal(b.(DateTime))
	case Base64:
		return bytes.Equal(a, b.(Base64))
	case Array:
		return slices.EqualFunc(a, b.(Array), Equal)
	case *Struct:
		return a.Equal(b.(*Struct))
	default:
		return false
	}
}

package xmlrpc

import (
	"fmt"
	"iter"
	"reflect"
	"strings"
	"time"
)

// structField is the information about a Go struct field that maps
// to an XML-RPC struct member.
type structField struct {
	// Name is the XML-RPC member name.
	Name string
	// Index is the field's index sequence, partitioned at embedded
	// struct pointers by allocSteps.
	Index [][]int
	Type  reflect.Type
	// OmitEmpty is whether to leave the member out of the encoded
	// struct when the field's value is empty.
	OmitEmpty bool
}

// Lookup loads the struct field from structVal. ok is false if
// loading requires traversing a nil pointer into an embedded struct.
func (f *structField) Lookup(structVal reflect.Value) (v reflect.Value, ok bool) {
	v = structVal
	for i, hop := range f.Index {
		if i > 0 {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		v = v.FieldByIndex(hop)
	}
	return v, true
}

// GetWithAlloc loads the struct field from structVal. If loading
// requires traversing a nil pointer into an embedded struct,
// GetWithAlloc allocates zero values appropriately. The returned
// [reflect.Value] is settable.
func (f *structField) GetWithAlloc(structVal reflect.Value) reflect.Value {
	v := structVal
	for i, hop := range f.Index {
		if i > 0 {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.FieldByIndex(hop)
	}
	return v
}

func (f *structField) String() string {
	kindStr := ""
	if ks := f.Type.Kind().String(); ks != f.Type.String() {
		kindStr = fmt.Sprintf(" (%s)", ks)
	}
	omit := ""
	if f.OmitEmpty {
		omit = ", omitempty"
	}
	return fmt.Sprintf("%s: %s%s at %v%s", f.Name, f.Type, kindStr, f.Index, omit)
}

// structInfo is the information about a struct relevant to
// marshaling/unmarshaling.
type structInfo struct {
	// Name is the struct's name, for use in diagnostics.
	Name string
	// Type is the struct's type, for use in diagnostics.
	Type reflect.Type

	// StructFields is the information about each struct field that
	// maps to an XML-RPC member, in member order.
	StructFields []*structField

	byName map[string]*structField
}

// Field returns the struct field for the XML-RPC member called name,
// or nil if the struct has no such field.
func (s *structInfo) Field(name string) *structField {
	return s.byName[name]
}

func (s *structInfo) String() string {
	var ret strings.Builder
	fmt.Fprintf(&ret, "%s: struct, fields:\n", s.Name)
	for _, f := range s.StructFields {
		ret.WriteString(f.String())
		ret.WriteByte('\n')
	}
	return ret.String()
}

// getStructInfo returns the structInfo for t.
//
// Member names follow the same visibility rules as Go field
// selectors: among fields with the same member name, the least deeply
// embedded one wins. If there is a tie, a field that got its name
// from a struct tag beats one that didn't. If that still leaves more
// than one field, all of them are ignored.
func getStructInfo(t reflect.Type) (*structInfo, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%s is not a struct", t)
	}

	type candidate struct {
		field     reflect.StructField
		name      string
		tagged    bool
		omitEmpty bool
	}
	var (
		cands  []*candidate
		byName = map[string][]*candidate{}
	)
	for field := range structFields(t, nil, nil) {
		if !field.IsExported() {
			continue
		}
		name, omitEmpty, skip := parseStructTag(field)
		if skip {
			continue
		}
		c := &candidate{
			field:     field,
			name:      name,
			tagged:    name != "",
			omitEmpty: omitEmpty,
		}
		if c.name == "" {
			c.name = field.Name
		}
		cands = append(cands, c)
		byName[c.name] = append(byName[c.name], c)
	}

	winner := func(cs []*candidate) *candidate {
		minDepth := len(cs[0].field.Index)
		for _, c := range cs[1:] {
			minDepth = min(minDepth, len(c.field.Index))
		}
		var shallow, tagged []*candidate
		for _, c := range cs {
			if len(c.field.Index) != minDepth {
				continue
			}
			shallow = append(shallow, c)
			if c.tagged {
				tagged = append(tagged, c)
			}
		}
		switch {
		case len(shallow) == 1:
			return shallow[0]
		case len(tagged) == 1:
			return tagged[0]
		default:
			return nil
		}
	}

	ret := &structInfo{
		Name:   t.String(),
		Type:   t,
		byName: map[string]*structField{},
	}
	for _, c := range cands {
		if winner(byName[c.name]) != c {
			continue
		}
		f := &structField{
			Name:      c.name,
			Index:     allocSteps(t, c.field.Index),
			Type:      c.field.Type,
			OmitEmpty: c.omitEmpty,
		}
		ret.StructFields = append(ret.StructFields, f)
		ret.byName[f.Name] = f
	}
	return ret, nil
}

// parseStructTag returns the information contained in field's
// "xmlrpc" struct tag.
func parseStructTag(field reflect.StructField) (name string, omitEmpty, skip bool) {
	tag := field.Tag.Get("xmlrpc")
	if tag == "-" {
		return "", false, true
	}
	name, opts, _ := strings.Cut(tag, ",")
	for _, opt := range strings.Split(opts, ",") {
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return name, omitEmpty, false
}

// isEmptyValue reports whether v is empty for the purposes of the
// omitempty struct tag option.
func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Interface, reflect.Pointer:
		return v.IsZero()
	case reflect.Struct:
		if v.Type() == timeType {
			return v.Interface().(time.Time).IsZero()
		}
	}
	return false
}

// allocSteps partitions a multi-hop traversal of struct fields into
// segments that end at either the final value, or at a struct pointer
// that might be nil.
//
// This partition is used by [structField.Lookup] and
// [structField.GetWithAlloc] to load embedded struct fields that
// require traversing a nil pointer.
func allocSteps(t reflect.Type, idx []int) [][]int {
	var ret [][]int
	prev := 0
	t = t.Field(idx[0]).Type
	for i := 1; i < len(idx); i++ {
		if t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct {
			// Hop through a struct pointer that might be nil, cut.
			ret = append(ret, idx[prev:i])
			prev = i
			t = t.Elem()
		}
		t = t.Field(idx[i]).Type
	}
	ret = append(ret, idx[prev:])
	return ret
}

// structFields iterates over the fields of t in declaration order,
// replacing promotable embedded structs with their own fields. The
// Index of each yielded field is relative to t.
//
// outer is the chain of struct types being walked, to stop at
// recursively embedded types.
func structFields(t reflect.Type, idx []int, outer []reflect.Type) iter.Seq[reflect.StructField] {
	return func(yield func(reflect.StructField) bool) {
		outer := append(outer, t)
		for i := range t.NumField() {
			f := t.Field(i)
			idx = append(idx, i)
			if at, ok := promotable(f, outer); ok {
				for af := range structFields(at, idx, outer) {
					if !yield(af) {
						return
					}
				}
				idx = idx[:len(idx)-1]
				continue
			}
			f.Index = append([]int(nil), idx...)
			if !yield(f) {
				return
			}
			idx = idx[:len(idx)-1]
		}
	}
}

// promotable reports whether f is an embedded struct whose fields
// should be promoted into the outer struct, and if so returns the
// embedded struct type.
func promotable(f reflect.StructField, outer []reflect.Type) (reflect.Type, bool) {
	if !f.Anonymous {
		return nil, false
	}
	if name, _, _ := parseStructTag(f); name != "" {
		// A tag name makes the embedded struct a regular member.
		return nil, false
	}
	at := f.Type
	if at.Kind() == reflect.Pointer {
		if !f.IsExported() {
			// Can't allocate through an unexported pointer.
			return nil, false
		}
		at = at.Elem()
	}
	if at.Kind() != reflect.Struct || hasCustomMapping(at) {
		return nil, false
	}
	for _, o := range outer {
		if o == at {
			return nil, false
		}
	}
	return at, true
}

// hasCustomMapping reports whether t has an XML-RPC mapping other
// than the default one for Go structs.
func hasCustomMapping(t reflect.Type) bool {
	if t == timeType {
		return true
	}
	pt := reflect.PointerTo(t)
	return t.Implements(valueType) || pt.Implements(valueType) ||
		t.Implements(marshalerType) || pt.Implements(marshalerType) ||
		pt.Implements(unmarshalerType)
}

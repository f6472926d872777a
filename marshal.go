package xmlrpc

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/creachadair/mds/mapset"
	"github.com/danderson/xmlrpc/wire"
)

// Marshal returns the compact XML encoding of v, as produced by
// [MarshalValue] and [EncodeValue].
func Marshal(v any) ([]byte, error) {
	n, err := MarshalNode(v)
	if err != nil {
		return nil, err
	}
	var ret bytes.Buffer
	if err := wire.Encode(&ret, n, ""); err != nil {
		return nil, EncodeError{Code: InvalidXML, Reason: err}
	}
	return ret.Bytes(), nil
}

// MarshalNode returns the wire encoding of v, as produced by
// [MarshalValue] and [EncodeValue].
func MarshalNode(v any) (*wire.Node, error) {
	val, err := MarshalValue(v)
	if err != nil {
		return nil, err
	}
	return EncodeValue(val)
}

// MarshalValue returns the XML-RPC value corresponding to the Go
// value v.
//
// MarshalValue traverses the value v recursively. If an encountered
// value implements [Marshaler], MarshalValue calls MarshalXMLRPC on it
// to produce its value. Values that implement [Value] are returned
// as-is.
//
// Otherwise, MarshalValue uses the following type-dependent default
// mappings:
//
// Strings map to [String], bools to [Bool], and float32 and float64 to
// [Double]. NaN and infinite floats cannot be represented.
//
// All integer types map to [Int], which is 32 bits wide. Integers
// outside the range of int32 cannot be represented, and cause
// MarshalValue to return an [EncodeError].
//
// [time.Time] maps to [DateTime], in UTC and truncated to the
// second. []byte maps to [Base64].
//
// Other array and slice values map to [Array]. Nil slices map to an
// empty array.
//
// Struct values map to a [Struct]. Each exported struct field becomes
// a member, in declaration order, named after the field. Embedded
// struct fields are mapped as if their inner exported fields were
// fields in the outer struct, subject to the usual Go visibility
// rules. The member name and options can be customized with a struct
// tag:
//
//	// Member is called "myName".
//	Field int `xmlrpc:"myName"`
//
//	// Member is omitted if the field is empty: false, 0, a nil
//	// pointer or interface, an empty string, array, slice or map, or
//	// a zero time.Time.
//	Field int `xmlrpc:"myName,omitempty"`
//
//	// Field is ignored.
//	Field int `xmlrpc:"-"`
//
// Struct fields holding a nil pointer or nil interface are optional
// values, and are left out of the struct.
//
// Maps with string keys map to a [Struct], with members sorted by
// key. A nil map maps to an empty struct.
//
// Pointer values map to the value pointed to. Interface values map to
// the value they contain. A nil pointer or interface anywhere but in a
// struct field cannot be represented.
//
// Values of other kinds, such as channels, functions or maps with
// non-string keys, cannot be represented. Attempting to marshal them
// causes MarshalValue to return a [TypeError].
//
// Go values can be cyclic, XML-RPC values cannot. Attempting to
// marshal values nested more than [MaxDepth] levels deep, for
// example because of a cycle, fails with [DepthExceeded].
func MarshalValue(v any) (Value, error) {
	if v == nil {
		return nil, EncodeError{Code: UnsupportedValue, Reason: errors.New("nil value")}
	}
	val := reflect.ValueOf(v)
	enc, err := encoderFor(val.Type())
	if err != nil {
		return nil, err
	}
	var st encodeState
	return enc(&st, val)
}

// Marshaler is the interface implemented by types that can marshal
// themselves into an XML-RPC value.
type Marshaler interface {
	MarshalXMLRPC() (Value, error)
}

var (
	marshalerType = reflect.TypeFor[Marshaler]()
	valueType     = reflect.TypeFor[Value]()
	timeType      = reflect.TypeFor[time.Time]()
)

// encoderFunc returns the XML-RPC value corresponding to v.
type encoderFunc func(st *encodeState, v reflect.Value) (Value, error)

// encodeState tracks the position of a marshal in progress, for
// error reporting and depth limiting.
type encodeState struct {
	path []string
}

func (st *encodeState) push(elem string) error {
	st.path = append(st.path, elem)
	if len(st.path) > MaxDepth {
		return st.err(DepthExceeded, fmt.Errorf("more than %d nested arrays and structs", MaxDepth))
	}
	return nil
}

func (st *encodeState) pop() {
	st.path = st.path[:len(st.path)-1]
}

func (st *encodeState) err(code Code, reason error) error {
	return EncodeError{
		Code:   code,
		Path:   strings.Join(st.path, "/"),
		Reason: reason,
	}
}

var encoders cache[reflect.Type, encoderFunc]

// encoderFor returns the encoder func for the given type, if the type
// is representable as an XML-RPC value.
func encoderFor(t reflect.Type) (encoderFunc, error) {
	b := encoderBuilder{inProgress: mapset.New[reflect.Type]()}
	return b.encoderFor(t)
}

// encoderBuilder constructs encoderFuncs for a type and the types it
// references.
type encoderBuilder struct {
	// inProgress is the set of types whose encoders are being
	// constructed further up the stack. A type that refers back to
	// one of them gets a lazy encoder that looks up the finished
	// encoder when called.
	inProgress mapset.Set[reflect.Type]
}

func (b *encoderBuilder) encoderFor(t reflect.Type) (ret encoderFunc, err error) {
	if ret, err := encoders.Get(t); err == nil {
		return ret, nil
	} else if !errors.Is(err, errNotFound) {
		return nil, err
	}
	if b.inProgress.Has(t) {
		return newLazyEncoder(t), nil
	}
	b.inProgress.Add(t)
	// Note, defer captures the type value in case it gets messed with
	// below.
	defer func(t reflect.Type) {
		b.inProgress.Remove(t)
		if err != nil {
			encoders.SetErr(t, err)
		} else {
			encoders.Set(t, ret)
		}
	}(t)

	// If a value's pointer type implements Marshaler, we can use it
	// for addressable values, which requires an additional runtime
	// check.
	if t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(marshalerType) {
		return newCondAddrMarshalEncoder(t), nil
	} else if t.Implements(marshalerType) {
		return newMarshalEncoder(t), nil
	}

	if t.Kind() != reflect.Interface && t.Implements(valueType) {
		return newValueEncoder(), nil
	} else if t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(valueType) {
		// Struct, as opposed to *Struct.
		return newAddrValueEncoder(t), nil
	}
	if t == timeType {
		return newTimeEncoder(), nil
	}

	switch k := t.Kind(); {
	case intKinds.Has(k):
		return newIntEncoder(), nil
	case uintKinds.Has(k):
		return newUintEncoder(), nil
	}

	switch t.Kind() {
	case reflect.Pointer:
		return b.newPtrEncoder(t)
	case reflect.Interface:
		return newInterfaceEncoder(), nil
	case reflect.Bool:
		return newBoolEncoder(), nil
	case reflect.Float32, reflect.Float64:
		return newFloatEncoder(), nil
	case reflect.String:
		return newStringEncoder(), nil
	case reflect.Slice, reflect.Array:
		return b.newSliceEncoder(t)
	case reflect.Struct:
		return b.newStructEncoder(t)
	case reflect.Map:
		return b.newMapEncoder(t)
	}
	return nil, typeErr(t, "no XML-RPC mapping for type")
}

// newLazyEncoder returns an encoder for a recursive type, which looks
// up the type's encoder when called. By then, the encoder has been
// constructed and cached.
func newLazyEncoder(t reflect.Type) encoderFunc {
	return func(st *encodeState, v reflect.Value) (Value, error) {
		enc, err := encoderFor(t)
		if err != nil {
			return nil, err
		}
		return enc(st, v)
	}
}

func newCondAddrMarshalEncoder(t reflect.Type) encoderFunc {
	ptr := newMarshalEncoder(reflect.PointerTo(t))
	if t.Implements(marshalerType) {
		val := newMarshalEncoder(t)
		return func(st *encodeState, v reflect.Value) (Value, error) {
			if v.CanAddr() {
				return ptr(st, v.Addr())
			} else {
				return val(st, v)
			}
		}
	} else {
		return func(st *encodeState, v reflect.Value) (Value, error) {
			if !v.CanAddr() {
				return nil, typeErr(t, "Marshaler is only implemented on pointer receiver, and cannot take the address of given value")
			}
			return ptr(st, v.Addr())
		}
	}
}

func newMarshalEncoder(t reflect.Type) encoderFunc {
	return func(st *encodeState, v reflect.Value) (Value, error) {
		if k := t.Kind(); (k == reflect.Pointer || k == reflect.Interface) && v.IsNil() {
			return nil, st.err(UnsupportedValue, fmt.Errorf("nil %s", t))
		}
		m := v.Interface().(Marshaler)
		ret, err := m.MarshalXMLRPC()
		if err != nil {
			return nil, st.err(UnsupportedValue, fmt.Errorf("calling MarshalXMLRPC on %s: %w", t, err))
		}
		if KindOf(ret) == InvalidKind {
			return nil, st.err(UnsupportedValue, fmt.Errorf("MarshalXMLRPC on %s returned a nil Value", t))
		}
		return ret, nil
	}
}

func newValueEncoder() encoderFunc {
	return func(st *encodeState, v reflect.Value) (Value, error) {
		ret := v.Interface().(Value)
		if KindOf(ret) == InvalidKind {
			return nil, st.err(UnsupportedValue, errors.New("nil value"))
		}
		return ret, nil
	}
}

func newAddrValueEncoder(t reflect.Type) encoderFunc {
	return func(st *encodeState, v reflect.Value) (Value, error) {
		if v.CanAddr() {
			return v.Addr().Interface().(Value), nil
		}
		ptr := reflect.New(t)
		ptr.Elem().Set(v)
		return ptr.Interface().(Value), nil
	}
}

func newTimeEncoder() encoderFunc {
	return func(st *encodeState, v reflect.Value) (Value, error) {
		return NewDateTime(v.Interface().(time.Time)), nil
	}
}

func (b *encoderBuilder) newPtrEncoder(t reflect.Type) (encoderFunc, error) {
	if t.Elem() == t {
		return nil, typeErr(t, "pointer type refers to itself")
	}
	elemEnc, err := b.encoderFor(t.Elem())
	if err != nil {
		return nil, err
	}
	fn := func(st *encodeState, v reflect.Value) (Value, error) {
		if v.IsNil() {
			return nil, st.err(UnsupportedValue, fmt.Errorf("nil %s", t))
		}
		return elemEnc(st, v.Elem())
	}
	return fn, nil
}

// newInterfaceEncoder returns an encoder that dispatches on the
// dynamic type of an interface value.
func newInterfaceEncoder() encoderFunc {
	return func(st *encodeState, v reflect.Value) (Value, error) {
		if v.IsNil() {
			return nil, st.err(UnsupportedValue, errors.New("nil value"))
		}
		elem := v.Elem()
		enc, err := encoderFor(elem.Type())
		if err != nil {
			return nil, err
		}
		return enc(st, elem)
	}
}

func newBoolEncoder() encoderFunc {
	return func(st *encodeState, v reflect.Value) (Value, error) {
		return Bool(v.Bool()), nil
	}
}

func newIntEncoder() encoderFunc {
	return func(st *encodeState, v reflect.Value) (Value, error) {
		i := v.Int()
		if i < math.MinInt32 || i > math.MaxInt32 {
			return nil, st.err(UnsupportedValue, fmt.Errorf("%d overflows a 32-bit XML-RPC integer", i))
		}
		return Int(i), nil
	}
}

func newUintEncoder() encoderFunc {
	return func(st *encodeState, v reflect.Value) (Value, error) {
		u := v.Uint()
		if u > math.MaxInt32 {
			return nil, st.err(UnsupportedValue, fmt.Errorf("%d overflows a 32-bit XML-RPC integer", u))
		}
		return Int(u), nil
	}
}

func newFloatEncoder() encoderFunc {
	return func(st *encodeState, v reflect.Value) (Value, error) {
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, st.err(UnsupportedValue, fmt.Errorf("%v cannot be represented as an XML-RPC double", f))
		}
		return Double(f), nil
	}
}

func newStringEncoder() encoderFunc {
	return func(st *encodeState, v reflect.Value) (Value, error) {
		return String(v.String()), nil
	}
}

func (b *encoderBuilder) newSliceEncoder(t reflect.Type) (encoderFunc, error) {
	if t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8 && !hasCustomMapping(t.Elem()) {
		// []byte
		return func(st *encodeState, v reflect.Value) (Value, error) {
			return Base64(bytes.Clone(v.Bytes())), nil
		}, nil
	}

	elemEnc, err := b.encoderFor(t.Elem())
	if err != nil {
		return nil, err
	}

	fn := func(st *encodeState, v reflect.Value) (Value, error) {
		ret := make(Array, 0, v.Len())
		for i := range v.Len() {
			if err := st.push(strconv.Itoa(i)); err != nil {
				return nil, err
			}
			elem, err := elemEnc(st, v.Index(i))
			if err != nil {
				return nil, err
			}
			st.pop()
			ret = append(ret, elem)
		}
		return ret, nil
	}
	return fn, nil
}

func (b *encoderBuilder) newStructEncoder(t reflect.Type) (encoderFunc, error) {
	fs, err := getStructInfo(t)
	if err != nil {
		return nil, fmt.Errorf("getting struct info for %s: %w", t, err)
	}

	fieldEncs := make([]encoderFunc, 0, len(fs.StructFields))
	for _, f := range fs.StructFields {
		fEnc, err := b.encoderFor(f.Type)
		if err != nil {
			return nil, err
		}
		fieldEncs = append(fieldEncs, fEnc)
	}

	fn := func(st *encodeState, v reflect.Value) (Value, error) {
		ret := &Struct{}
		for i, f := range fs.StructFields {
			fv, ok := f.Lookup(v)
			if !ok {
				// Field of a nil embedded struct pointer.
				continue
			}
			if f.OmitEmpty && isEmptyValue(fv) {
				continue
			}
			if k := fv.Kind(); (k == reflect.Pointer || k == reflect.Interface) && fv.IsNil() {
				// Optional value that isn't set.
				continue
			}
			if err := st.push(f.Name); err != nil {
				return nil, err
			}
			mv, err := fieldEncs[i](st, fv)
			if err != nil {
				return nil, err
			}
			st.pop()
			ret.Set(f.Name, mv)
		}
		return ret, nil
	}
	return fn, nil
}

func (b *encoderBuilder) newMapEncoder(t reflect.Type) (encoderFunc, error) {
	kt := t.Key()
	if kt.Kind() != reflect.String {
		return nil, typeErr(t, "map key type %s is not a string", kt)
	}
	vEnc, err := b.encoderFor(t.Elem())
	if err != nil {
		return nil, err
	}

	fn := func(st *encodeState, v reflect.Value) (Value, error) {
		ks := v.MapKeys()
		slices.SortFunc(ks, func(a, b reflect.Value) int {
			return cmp.Compare(a.String(), b.String())
		})
		ret := &Struct{}
		for _, mk := range ks {
			name := mk.String()
			if err := st.push(name); err != nil {
				return nil, err
			}
			mv, err := vEnc(st, v.MapIndex(mk))
			if err != nil {
				return nil, err
			}
			st.pop()
			ret.Set(name, mv)
		}
		return ret, nil
	}
	return fn, nil
}

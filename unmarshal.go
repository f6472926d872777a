package xmlrpc

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/creachadair/mds/mapset"
	"github.com/danderson/xmlrpc/wire"
)

// Unmarshal decodes the XML-RPC value in data, and stores the result
// in the value pointed to by v. See [UnmarshalValue] for the mapping
// of XML-RPC values to Go values.
func Unmarshal(data []byte, v any) error {
	val, err := Decode(bytes.NewReader(data))
	if err != nil {
		return err
	}
	return UnmarshalValue(val, v)
}

// UnmarshalNode decodes the XML-RPC value in n, and stores the result
// in the value pointed to by v. See [UnmarshalValue] for the mapping
// of XML-RPC values to Go values.
func UnmarshalNode(n *wire.Node, v any) error {
	val, err := DecodeValue(n)
	if err != nil {
		return err
	}
	return UnmarshalValue(val, v)
}

// UnmarshalValue stores the XML-RPC value val in the value pointed to
// by v. If v is nil or not a pointer, UnmarshalValue returns a
// [TypeError].
//
// Generally, UnmarshalValue applies the inverse of the rules used by
// [MarshalValue]. The kind of each XML-RPC value must match the Go
// type it is stored in, or UnmarshalValue returns an
// [UnmarshalTypeError].
//
// UnmarshalValue traverses the value v recursively. If an encountered
// value implements [Unmarshaler], UnmarshalValue calls UnmarshalXMLRPC
// to unmarshal it. Types implementing [Unmarshaler] must implement
// UnmarshalXMLRPC with a pointer receiver. Attempting to unmarshal
// using an UnmarshalXMLRPC method with a value receiver results in a
// [TypeError].
//
// Otherwise, UnmarshalValue uses the following type-dependent default
// mappings:
//
// Go types that implement [Value], such as [String] or *[Struct], and
// the Value interface itself, receive the XML-RPC value as-is. So do
// empty interfaces.
//
// [String] decodes into strings, [Bool] into bools, and [Double] into
// float32 and float64.
//
// [Int] decodes into all integer types. If the integer does not fit in
// the target type, UnmarshalValue returns an [UnmarshalTypeError].
//
// [DateTime] decodes into [time.Time], in UTC. [Base64] decodes into
// []byte.
//
// [Array] decodes into arrays and slices. When decoding into an
// array, the XML-RPC array's length must match the target array's
// length. When decoding into a slice, UnmarshalValue resets the slice
// length to zero and then appends each element to the slice.
//
// [Struct] decodes into maps with string keys and into Go structs. When
// decoding into a map, UnmarshalValue first clears the map, or
// allocates a new one if the target map is nil. When decoding into a
// Go struct, each member is stored in the field it would have been
// marshaled from, as described in [MarshalValue]. Members with no
// corresponding field are ignored, and fields with no corresponding
// member are left untouched.
//
// Pointers decode as the value pointed to. UnmarshalValue allocates
// zero values as needed when it encounters nil pointers.
//
// Other interface types, channels, functions and maps with non-string
// keys cannot hold XML-RPC values. Attempting to decode into them
// causes UnmarshalValue to return a [TypeError].
func UnmarshalValue(val Value, v any) error {
	if v == nil {
		return typeErr(nil, "can't unmarshal into nil interface")
	}
	ptr := reflect.ValueOf(v)
	if ptr.Kind() != reflect.Pointer {
		return typeErr(ptr.Type(), "can't unmarshal into a non-pointer")
	}
	if ptr.IsNil() {
		return typeErr(ptr.Type(), "can't unmarshal into a nil pointer")
	}
	if KindOf(val) == InvalidKind {
		return UnmarshalTypeError{Value: InvalidKind, Type: ptr.Type().Elem(), Reason: errors.New("nil value")}
	}
	dec, err := decoderFor(ptr.Type().Elem())
	if err != nil {
		return err
	}
	var st decodeState
	return dec(&st, val, ptr.Elem())
}

// Unmarshaler is the interface implemented by types that can
// unmarshal themselves from an XML-RPC value.
//
// UnmarshalXMLRPC must have a pointer receiver. If UnmarshalValue
// encounters an Unmarshaler whose UnmarshalXMLRPC method takes a value
// receiver, it will return a [TypeError].
type Unmarshaler interface {
	UnmarshalXMLRPC(Value) error
}

var (
	unmarshalerType = reflect.TypeFor[Unmarshaler]()
	anyType         = reflect.TypeFor[any]()
	structType      = reflect.TypeFor[Struct]()
)

// decoderFunc stores val into v.
type decoderFunc func(st *decodeState, val Value, v reflect.Value) error

// decodeState tracks the position of an unmarshal in progress, for
// error reporting and depth limiting.
type decodeState struct {
	path []string
}

func (st *decodeState) push(elem string) error {
	st.path = append(st.path, elem)
	if len(st.path) > MaxDepth {
		return DecodeError{
			Code:   DepthExceeded,
			Path:   strings.Join(st.path, "/"),
			Reason: fmt.Errorf("more than %d nested arrays and structs", MaxDepth),
		}
	}
	return nil
}

func (st *decodeState) pop() {
	st.path = st.path[:len(st.path)-1]
}

// mismatch returns an UnmarshalTypeError for storing val into a
// value of type t.
func (st *decodeState) mismatch(val Value, t reflect.Type, reason error) error {
	return UnmarshalTypeError{
		Value:  KindOf(val),
		Type:   t,
		Path:   strings.Join(st.path, "/"),
		Reason: reason,
	}
}

// want returns an error if val is not of kind k.
func (st *decodeState) want(val Value, k Kind, t reflect.Type) error {
	if KindOf(val) != k {
		return st.mismatch(val, t, nil)
	}
	return nil
}

var decoders cache[reflect.Type, decoderFunc]

// decoderFor returns the decoder func for the given type, if the type
// can hold XML-RPC values.
func decoderFor(t reflect.Type) (decoderFunc, error) {
	b := decoderBuilder{inProgress: mapset.New[reflect.Type]()}
	return b.decoderFor(t)
}

// decoderBuilder constructs decoderFuncs for a type and the types it
// references.
type decoderBuilder struct {
	// inProgress is the set of types whose decoders are being
	// constructed further up the stack.
	inProgress mapset.Set[reflect.Type]
}

func (b *decoderBuilder) decoderFor(t reflect.Type) (ret decoderFunc, err error) {
	if ret, err := decoders.Get(t); err == nil {
		return ret, nil
	} else if !errors.Is(err, errNotFound) {
		return nil, err
	}
	if b.inProgress.Has(t) {
		return newLazyDecoder(t), nil
	}
	b.inProgress.Add(t)
	// Note, defer captures the type value before we mess with it
	// below.
	defer func(t reflect.Type) {
		b.inProgress.Remove(t)
		if err != nil {
			decoders.SetErr(t, err)
		} else {
			decoders.Set(t, ret)
		}
	}(t)

	// We only want Unmarshalers with pointer receivers, since a value
	// receiver would silently discard the results of the
	// UnmarshalXMLRPC call and lead to confusing bugs. There are two
	// cases we need to look for.
	//
	// The first is a pointer that implements Unmarshaler, and whose
	// pointed-to type does not implement Unmarshaler. This means the
	// type implements Unmarshaler with pointer receivers, and we can
	// call it.
	//
	// The second is a value that does not implement Unmarshaler, but
	// whose pointer does. In that case, we can take the value's
	// address and use the pointer unmarshaler. UnmarshalValue only
	// hands us values that are addressable, so we don't need an
	// addressability check to do this.
	isPtr := t.Kind() == reflect.Pointer
	if t.Kind() != reflect.Interface && t.Implements(unmarshalerType) {
		if !isPtr || t.Elem().Implements(unmarshalerType) {
			return nil, typeErr(t, "refusing to use xmlrpc.Unmarshaler implementation with value receiver, Unmarshalers must use pointer receivers.")
		} else {
			// First case, can unmarshal into pointer.
			return newUnmarshalDecoder(t), nil
		}
	} else if !isPtr && reflect.PointerTo(t).Implements(unmarshalerType) {
		// Second case, unmarshal into value.
		return newAddrUnmarshalDecoder(t), nil
	}

	switch {
	case t == valueType || t == anyType:
		return newInterfaceDecoder(), nil
	case t == structType:
		return nil, typeErr(t, "use *xmlrpc.Struct to hold XML-RPC structs")
	case t.Kind() != reflect.Interface && t.Implements(valueType):
		return newValueDecoder(t), nil
	case t == timeType:
		return newTimeDecoder(), nil
	case intKinds.Has(t.Kind()):
		return newIntDecoder(t), nil
	case uintKinds.Has(t.Kind()):
		return newUintDecoder(t), nil
	}

	switch t.Kind() {
	case reflect.Pointer:
		// Note, pointers to Unmarshaler are handled above.
		return b.newPtrDecoder(t)
	case reflect.Bool:
		return newBoolDecoder(), nil
	case reflect.Float32, reflect.Float64:
		return newFloatDecoder(t), nil
	case reflect.String:
		return newStringDecoder(), nil
	case reflect.Slice, reflect.Array:
		return b.newSliceDecoder(t)
	case reflect.Struct:
		return b.newStructDecoder(t)
	case reflect.Map:
		return b.newMapDecoder(t)
	case reflect.Interface:
		return nil, typeErr(t, "only the empty interface and xmlrpc.Value can hold XML-RPC values")
	}

	return nil, typeErr(t, "no XML-RPC mapping for type")
}

// newLazyDecoder returns a decoder for a recursive type, which looks
// up the type's decoder when called.
func newLazyDecoder(t reflect.Type) decoderFunc {
	return func(st *decodeState, val Value, v reflect.Value) error {
		dec, err := decoderFor(t)
		if err != nil {
			return err
		}
		return dec(st, val, v)
	}
}

func newAddrUnmarshalDecoder(t reflect.Type) decoderFunc {
	ptr := newUnmarshalDecoder(reflect.PointerTo(t))
	return func(st *decodeState, val Value, v reflect.Value) error {
		return ptr(st, val, v.Addr())
	}
}

func newUnmarshalDecoder(t reflect.Type) decoderFunc {
	return func(st *decodeState, val Value, v reflect.Value) error {
		if v.IsNil() {
			elem := reflect.New(t.Elem())
			v.Set(elem)
		}
		m := v.Interface().(Unmarshaler)
		if err := m.UnmarshalXMLRPC(val); err != nil {
			return st.mismatch(val, t, err)
		}
		return nil
	}
}

func newInterfaceDecoder() decoderFunc {
	return func(st *decodeState, val Value, v reflect.Value) error {
		v.Set(reflect.ValueOf(val))
		return nil
	}
}

// newValueDecoder returns a decoder for one of the concrete Value
// types.
func newValueDecoder(t reflect.Type) decoderFunc {
	return func(st *decodeState, val Value, v reflect.Value) error {
		rv := reflect.ValueOf(val)
		if rv.Type() != t {
			return st.mismatch(val, t, nil)
		}
		v.Set(rv)
		return nil
	}
}

func newTimeDecoder() decoderFunc {
	return func(st *decodeState, val Value, v reflect.Value) error {
		if err := st.want(val, DateTimeKind, timeType); err != nil {
			return err
		}
		v.Set(reflect.ValueOf(val.(DateTime).Time.UTC()))
		return nil
	}
}

func (b *decoderBuilder) newPtrDecoder(t reflect.Type) (decoderFunc, error) {
	if t.Elem() == t {
		return nil, typeErr(t, "pointer type refers to itself")
	}
	elem := t.Elem()
	elemDec, err := b.decoderFor(elem)
	if err != nil {
		return nil, err
	}
	fn := func(st *decodeState, val Value, v reflect.Value) error {
		if v.IsNil() {
			if !v.CanSet() {
				panic("got an unsettable nil pointer, should be impossible!")
			}
			elem := reflect.New(elem)
			if err := elemDec(st, val, elem.Elem()); err != nil {
				return err
			}
			v.Set(elem)
		} else if err := elemDec(st, val, v.Elem()); err != nil {
			return err
		}
		return nil
	}
	return fn, nil
}

func newBoolDecoder() decoderFunc {
	return func(st *decodeState, val Value, v reflect.Value) error {
		if err := st.want(val, BoolKind, v.Type()); err != nil {
			return err
		}
		v.SetBool(bool(val.(Bool)))
		return nil
	}
}

func newIntDecoder(t reflect.Type) decoderFunc {
	return func(st *decodeState, val Value, v reflect.Value) error {
		if err := st.want(val, IntKind, t); err != nil {
			return err
		}
		i := int64(val.(Int))
		if v.OverflowInt(i) {
			return st.mismatch(val, t, fmt.Errorf("%d overflows %s", i, t))
		}
		v.SetInt(i)
		return nil
	}
}

func newUintDecoder(t reflect.Type) decoderFunc {
	return func(st *decodeState, val Value, v reflect.Value) error {
		if err := st.want(val, IntKind, t); err != nil {
			return err
		}
		i := int64(val.(Int))
		if i < 0 || v.OverflowUint(uint64(i)) {
			return st.mismatch(val, t, fmt.Errorf("%d overflows %s", i, t))
		}
		v.SetUint(uint64(i))
		return nil
	}
}

func newFloatDecoder(t reflect.Type) decoderFunc {
	return func(st *decodeState, val Value, v reflect.Value) error {
		if err := st.want(val, DoubleKind, t); err != nil {
			return err
		}
		f := float64(val.(Double))
		if v.OverflowFloat(f) {
			return st.mismatch(val, t, fmt.Errorf("%v overflows %s", f, t))
		}
		v.SetFloat(f)
		return nil
	}
}

func newStringDecoder() decoderFunc {
	return func(st *decodeState, val Value, v reflect.Value) error {
		if err := st.want(val, StringKind, v.Type()); err != nil {
			return err
		}
		v.SetString(string(val.(String)))
		return nil
	}
}

func (b *decoderBuilder) newSliceDecoder(t reflect.Type) (decoderFunc, error) {
	if t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8 && !hasCustomMapping(t.Elem()) {
		// []byte
		return func(st *decodeState, val Value, v reflect.Value) error {
			if err := st.want(val, Base64Kind, t); err != nil {
				return err
			}
			bs := val.(Base64)
			v.Set(reflect.MakeSlice(t, len(bs), len(bs)))
			reflect.Copy(v, reflect.ValueOf([]byte(bs)))
			return nil
		}, nil
	}

	elemDec, err := b.decoderFor(t.Elem())
	if err != nil {
		return nil, err
	}
	isArray := t.Kind() == reflect.Array

	fn := func(st *decodeState, val Value, v reflect.Value) error {
		if err := st.want(val, ArrayKind, t); err != nil {
			return err
		}
		arr := val.(Array)
		if isArray {
			if len(arr) != t.Len() {
				return st.mismatch(val, t, fmt.Errorf("got %d elements, want %d", len(arr), t.Len()))
			}
		} else {
			v.SetLen(0)
		}
		for i, elem := range arr {
			if err := st.push(strconv.Itoa(i)); err != nil {
				return err
			}
			if KindOf(elem) == InvalidKind {
				return st.mismatch(elem, t.Elem(), errors.New("nil value"))
			}
			if isArray {
				if err := elemDec(st, elem, v.Index(i)); err != nil {
					return err
				}
			} else {
				v.Grow(1)
				v.SetLen(i + 1)
				ev := v.Index(i)
				ev.SetZero()
				if err := elemDec(st, elem, ev); err != nil {
					return err
				}
			}
			st.pop()
		}
		if !isArray && v.IsNil() {
			// An empty array decodes to an empty slice, not nil.
			v.Set(reflect.MakeSlice(t, 0, 0))
		}
		return nil
	}
	return fn, nil
}

func (b *decoderBuilder) newStructDecoder(t reflect.Type) (decoderFunc, error) {
	fs, err := getStructInfo(t)
	if err != nil {
		return nil, fmt.Errorf("getting struct info for %s: %w", t, err)
	}

	fieldDecs := map[*structField]decoderFunc{}
	for _, f := range fs.StructFields {
		fDec, err := b.decoderFor(f.Type)
		if err != nil {
			return nil, err
		}
		fieldDecs[f] = fDec
	}

	fn := func(st *decodeState, val Value, v reflect.Value) error {
		if err := st.want(val, StructKind, t); err != nil {
			return err
		}
		for name, mv := range val.(*Struct).All() {
			f := fs.Field(name)
			if f == nil {
				continue
			}
			if err := st.push(name); err != nil {
				return err
			}
			if KindOf(mv) == InvalidKind {
				return st.mismatch(mv, f.Type, errors.New("nil value"))
			}
			if err := fieldDecs[f](st, mv, f.GetWithAlloc(v)); err != nil {
				return err
			}
			st.pop()
		}
		return nil
	}
	return fn, nil
}

func (b *decoderBuilder) newMapDecoder(t reflect.Type) (decoderFunc, error) {
	kt := t.Key()
	if kt.Kind() != reflect.String {
		return nil, typeErr(t, "map key type %s is not a string", kt)
	}
	vt := t.Elem()
	vDec, err := b.decoderFor(vt)
	if err != nil {
		return nil, err
	}

	fn := func(st *decodeState, val Value, v reflect.Value) error {
		if err := st.want(val, StructKind, t); err != nil {
			return err
		}
		s := val.(*Struct)
		if v.IsNil() {
			v.Set(reflect.MakeMapWithSize(t, s.Len()))
		} else {
			v.Clear()
		}
		for name, mv := range s.All() {
			if err := st.push(name); err != nil {
				return err
			}
			if KindOf(mv) == InvalidKind {
				return st.mismatch(mv, vt, errors.New("nil value"))
			}
			ev := reflect.New(vt).Elem()
			if err := vDec(st, mv, ev); err != nil {
				return err
			}
			st.pop()
			v.SetMapIndex(reflect.ValueOf(name).Convert(kt), ev)
		}
		return nil
	}
	return fn, nil
}

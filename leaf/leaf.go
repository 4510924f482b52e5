package leaf

import (
	"reflect"

	"go.bytecodealliance.org/wit"
)

// Number is satisfied by the ten fundamental leaf types and named types over them.
type Number interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

// Type describes one leaf: its in-memory Go type and its storage encoding.
// A leaf has rank 0 and occupies exactly one slot of a flat buffer.
type Type struct {
	Native  reflect.Type
	Size    uintptr
	Kind    Kind
	Storage StorageID
}

func (t Type) Rank() int  { return 0 }
func (t Type) Count() int { return 1 }

func (t Type) String() string {
	return t.Kind.String()
}

// IsZero reports whether t is the zero Type, which describes no leaf.
func (t Type) IsZero() bool {
	return t.Native == nil
}

// WIT returns the canonical ABI primitive with the same width and signedness.
func (t Type) WIT() wit.Type {
	switch t.Kind {
	case KindI8:
		return wit.S8{}
	case KindU8:
		return wit.U8{}
	case KindI16:
		return wit.S16{}
	case KindU16:
		return wit.U16{}
	case KindI32:
		return wit.S32{}
	case KindU32:
		return wit.U32{}
	case KindI64:
		return wit.S64{}
	case KindU64:
		return wit.U64{}
	case KindF32:
		return wit.F32{}
	case KindF64:
		return wit.F64{}
	default:
		return nil
	}
}

var table = [...]Type{
	KindI8:  {Kind: KindI8, Native: reflect.TypeFor[int8](), Size: 1, Storage: StorageI8LE},
	KindU8:  {Kind: KindU8, Native: reflect.TypeFor[uint8](), Size: 1, Storage: StorageU8LE},
	KindI16: {Kind: KindI16, Native: reflect.TypeFor[int16](), Size: 2, Storage: StorageI16LE},
	KindU16: {Kind: KindU16, Native: reflect.TypeFor[uint16](), Size: 2, Storage: StorageU16LE},
	KindI32: {Kind: KindI32, Native: reflect.TypeFor[int32](), Size: 4, Storage: StorageI32LE},
	KindU32: {Kind: KindU32, Native: reflect.TypeFor[uint32](), Size: 4, Storage: StorageU32LE},
	KindI64: {Kind: KindI64, Native: reflect.TypeFor[int64](), Size: 8, Storage: StorageI64LE},
	KindU64: {Kind: KindU64, Native: reflect.TypeFor[uint64](), Size: 8, Storage: StorageU64LE},
	KindF32: {Kind: KindF32, Native: reflect.TypeFor[float32](), Size: 4, Storage: StorageF32LE},
	KindF64: {Kind: KindF64, Native: reflect.TypeFor[float64](), Size: 8, Storage: StorageF64LE},
}

var reflectKinds = map[reflect.Kind]Kind{
	reflect.Int8:    KindI8,
	reflect.Uint8:   KindU8,
	reflect.Int16:   KindI16,
	reflect.Uint16:  KindU16,
	reflect.Int32:   KindI32,
	reflect.Uint32:  KindU32,
	reflect.Int64:   KindI64,
	reflect.Uint64:  KindU64,
	reflect.Float32: KindF32,
	reflect.Float64: KindF64,
}

// Lookup returns the leaf for t. Named types whose underlying kind is a leaf
// are accepted; the returned Native is the fundamental type, not t.
// Platform-sized integers are rejected.
func Lookup(t reflect.Type) (Type, bool) {
	if t == nil {
		return Type{}, false
	}
	k, ok := reflectKinds[t.Kind()]
	if !ok {
		return Type{}, false
	}
	return table[k], true
}

// Of returns the leaf for T.
func Of[T Number]() Type {
	lt, _ := Lookup(reflect.TypeFor[T]())
	return lt
}

// ByKind returns the leaf for k. It panics on an invalid kind.
func ByKind(k Kind) Type {
	if !k.Valid() {
		panic("leaf: invalid kind " + k.String())
	}
	return table[k]
}

// ByStorage resolves a storage id read back from a backend.
func ByStorage(id StorageID) (Type, bool) {
	for _, t := range table {
		if t.Storage == id {
			return t, true
		}
	}
	return Type{}, false
}

// All returns every leaf in Kind order.
func All() []Type {
	out := make([]Type, len(table))
	copy(out, table[:])
	return out
}

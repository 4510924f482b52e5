package leaf

type Kind uint8

const (
	KindI8 Kind = iota
	KindU8
	KindI16
	KindU16
	KindI32
	KindU32
	KindI64
	KindU64
	KindF32
	KindF64
)

var kindNames = [...]string{
	KindI8:  "i8",
	KindU8:  "u8",
	KindI16: "i16",
	KindU16: "u16",
	KindI32: "i32",
	KindU32: "u32",
	KindI64: "i64",
	KindU64: "u64",
	KindF32: "f32",
	KindF64: "f64",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

func (k Kind) Valid() bool {
	return int(k) < len(kindNames)
}

func (k Kind) IsFloat() bool {
	return k == KindF32 || k == KindF64
}

func (k Kind) IsSigned() bool {
	switch k {
	case KindI8, KindI16, KindI32, KindI64, KindF32, KindF64:
		return true
	default:
		return false
	}
}

// StorageID names the on-disk encoding of a leaf. All encodings are little-endian.
type StorageID uint8

const (
	StorageInvalid StorageID = iota
	StorageI8LE
	StorageU8LE
	StorageI16LE
	StorageU16LE
	StorageI32LE
	StorageU32LE
	StorageI64LE
	StorageU64LE
	StorageF32LE
	StorageF64LE
)

var storageNames = [...]string{
	StorageInvalid: "invalid",
	StorageI8LE:    "STD_I8LE",
	StorageU8LE:    "STD_U8LE",
	StorageI16LE:   "STD_I16LE",
	StorageU16LE:   "STD_U16LE",
	StorageI32LE:   "STD_I32LE",
	StorageU32LE:   "STD_U32LE",
	StorageI64LE:   "STD_I64LE",
	StorageU64LE:   "STD_U64LE",
	StorageF32LE:   "IEEE_F32LE",
	StorageF64LE:   "IEEE_F64LE",
}

func (s StorageID) String() string {
	if int(s) < len(storageNames) {
		return storageNames[s]
	}
	return "unknown"
}

// Size returns the encoded width in bytes, or 0 for invalid ids.
func (s StorageID) Size() int {
	switch s {
	case StorageI8LE, StorageU8LE:
		return 1
	case StorageI16LE, StorageU16LE:
		return 2
	case StorageI32LE, StorageU32LE, StorageF32LE:
		return 4
	case StorageI64LE, StorageU64LE, StorageF64LE:
		return 8
	default:
		return 0
	}
}

// Package leaf is the fixed registry of numeric leaf types.
//
// Ten types qualify: the 8/16/32/64-bit signed and unsigned integers and
// the 32/64-bit IEEE floats. Each has a native Go type and a storage id;
// the pair is what a storage backend needs to pick encodings:
//
//	Kind  Native   Storage      Size
//	────────────────────────────────
//	i8    int8     STD_I8LE     1
//	u8    uint8    STD_U8LE     1
//	i16   int16    STD_I16LE    2
//	u16   uint16   STD_U16LE    2
//	i32   int32    STD_I32LE    4
//	u32   uint32   STD_U32LE    4
//	i64   int64    STD_I64LE    8
//	u64   uint64   STD_U64LE    8
//	f32   float32  IEEE_F32LE   4
//	f64   float64  IEEE_F64LE   8
//
// The table is closed. Strings, records and platform-sized integers are
// not leaves.
package leaf

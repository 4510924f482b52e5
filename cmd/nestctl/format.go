package main

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/flatnest"
	"github.com/wippyai/flatnest/leaf"
)

// formatLeaf renders element i of a little-endian buffer.
func formatLeaf(lt leaf.Type, raw []byte, i int) string {
	b := raw[i*int(lt.Size):]
	switch lt.Kind {
	case leaf.KindI8:
		return strconv.FormatInt(int64(int8(b[0])), 10)
	case leaf.KindU8:
		return strconv.FormatUint(uint64(b[0]), 10)
	case leaf.KindI16:
		return strconv.FormatInt(int64(int16(binary.LittleEndian.Uint16(b))), 10)
	case leaf.KindU16:
		return strconv.FormatUint(uint64(binary.LittleEndian.Uint16(b)), 10)
	case leaf.KindI32:
		return strconv.FormatInt(int64(int32(binary.LittleEndian.Uint32(b))), 10)
	case leaf.KindU32:
		return strconv.FormatUint(uint64(binary.LittleEndian.Uint32(b)), 10)
	case leaf.KindI64:
		return strconv.FormatInt(int64(binary.LittleEndian.Uint64(b)), 10)
	case leaf.KindU64:
		return strconv.FormatUint(binary.LittleEndian.Uint64(b), 10)
	case leaf.KindF32:
		return strconv.FormatFloat(float64(math.Float32frombits(binary.LittleEndian.Uint32(b))), 'g', -1, 32)
	case leaf.KindF64:
		return strconv.FormatFloat(math.Float64frombits(binary.LittleEndian.Uint64(b)), 'g', -1, 64)
	default:
		return "?"
	}
}

// formatValues renders a row-major buffer as nested brackets, one innermost
// row per line. At most limit leaves are printed.
func formatValues(lt leaf.Type, shape []int, raw []byte, limit int) string {
	if len(shape) == 0 {
		return formatLeaf(lt, raw, 0)
	}
	f := &valueFormatter{lt: lt, shape: shape, raw: raw, limit: limit}
	f.axis(0, 0, 0)
	return f.b.String()
}

type valueFormatter struct {
	b       strings.Builder
	lt      leaf.Type
	shape   []int
	raw     []byte
	limit   int
	printed int
}

func (f *valueFormatter) axis(ax, offset, indent int) {
	f.b.WriteByte('[')
	n := f.shape[ax]
	stride := 1
	for _, d := range f.shape[ax+1:] {
		stride *= d
	}
	last := ax == len(f.shape)-1
	for i := 0; i < n; i++ {
		if f.printed >= f.limit {
			f.b.WriteString(" ...")
			break
		}
		if i > 0 {
			if last {
				f.b.WriteByte(' ')
			} else {
				f.b.WriteString("\n")
				f.b.WriteString(strings.Repeat(" ", indent+1))
			}
		}
		if last {
			f.b.WriteString(formatLeaf(f.lt, f.raw, offset+i))
			f.printed++
		} else {
			f.axis(ax+1, offset+i*stride, indent+1)
		}
	}
	f.b.WriteByte(']')
}

func readAll(ds flatnest.Dataset) ([]byte, error) {
	lt := ds.Leaf()
	n := int(lt.Size)
	for _, d := range ds.Shape() {
		n *= d
	}
	raw := make([]byte, n)
	if err := ds.ReadRaw(raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// typeName renders a leaf and shape as a WIT-style type, e.g. list<list<f32>>.
func typeName(lt leaf.Type, shape []int) string {
	name := witName(lt.WIT())
	for range shape {
		name = "list<" + name + ">"
	}
	return name
}

func witName(t wit.Type) string {
	switch t.(type) {
	case wit.U8:
		return "u8"
	case wit.S8:
		return "s8"
	case wit.U16:
		return "u16"
	case wit.S16:
		return "s16"
	case wit.U32:
		return "u32"
	case wit.S32:
		return "s32"
	case wit.U64:
		return "u64"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	default:
		return fmt.Sprintf("%T", t)
	}
}

func shapeString(shape []int) string {
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = strconv.Itoa(d)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

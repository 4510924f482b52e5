package filestore

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/wippyai/flatnest"
	"github.com/wippyai/flatnest/errors"
	"github.com/wippyai/flatnest/leaf"
	"github.com/wippyai/flatnest/nest"
)

// File layout, all integers little-endian:
//
//	magic    "FNST"
//	version  u16
//	flags    u16 (reserved, 0)
//	root     group record
//	digest   u64 xxhash64 of everything before it
//
//	group    attrs, uvarint n, n * (name, group), uvarint n, n * (name, dataset)
//	dataset  u8 storage id, dims, attrs, uvarint len, payload, u64 xxhash64(payload)
//	attrs    uvarint n, n * (name, u8 storage id, dims, uvarint len, data)
//	dims     uvarint rank, rank * uvarint
//	name     uvarint len, bytes
const (
	magic         = "FNST"
	formatVersion = 1
	headerSize    = 8
	digestSize    = 8
)

type encoder struct {
	buf []byte
}

func (e *encoder) uvarint(v uint64) { e.buf = binary.AppendUvarint(e.buf, v) }
func (e *encoder) u8(v uint8)       { e.buf = append(e.buf, v) }
func (e *encoder) u64(v uint64)     { e.buf = binary.LittleEndian.AppendUint64(e.buf, v) }

func (e *encoder) bytes(b []byte) {
	e.uvarint(uint64(len(b)))
	e.buf = append(e.buf, b...)
}

func (e *encoder) dims(shape []int) {
	e.uvarint(uint64(len(shape)))
	for _, d := range shape {
		e.uvarint(uint64(d))
	}
}

func (e *encoder) attrs(a flatnest.Attributes) error {
	names := a.AttributeNames()
	e.uvarint(uint64(len(names)))
	for _, name := range names {
		attr, err := a.Attribute(name)
		if err != nil {
			return err
		}
		e.bytes([]byte(name))
		e.u8(uint8(attr.Leaf.Storage))
		e.dims(attr.Shape)
		e.bytes(attr.Data)
	}
	return nil
}

func (e *encoder) group(g flatnest.Group) error {
	if err := e.attrs(g); err != nil {
		return err
	}

	groups := g.Groups()
	e.uvarint(uint64(len(groups)))
	for _, name := range groups {
		child, err := g.Group(name)
		if err != nil {
			return err
		}
		e.bytes([]byte(name))
		if err := e.group(child); err != nil {
			return err
		}
	}

	datasets := g.Datasets()
	e.uvarint(uint64(len(datasets)))
	for _, name := range datasets {
		ds, err := g.Dataset(name)
		if err != nil {
			return err
		}
		if err := e.dataset(ds); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) dataset(ds flatnest.Dataset) error {
	payload := make([]byte, rawSize(ds.Leaf(), ds.Shape()))
	if err := ds.ReadRaw(payload); err != nil {
		return err
	}
	e.bytes([]byte(ds.Name()))
	e.u8(uint8(ds.Leaf().Storage))
	e.dims(ds.Shape())
	if err := e.attrs(ds); err != nil {
		return err
	}
	e.bytes(payload)
	e.u64(xxhash.Sum64(payload))
	return nil
}

// encode renders a whole store.
func encode(root flatnest.Group) ([]byte, error) {
	e := &encoder{buf: make([]byte, 0, 4096)}
	e.buf = append(e.buf, magic...)
	e.buf = binary.LittleEndian.AppendUint16(e.buf, formatVersion)
	e.buf = binary.LittleEndian.AppendUint16(e.buf, 0)
	if err := e.group(root); err != nil {
		return nil, err
	}
	e.u64(xxhash.Sum64(e.buf))
	return e.buf, nil
}

type decoder struct {
	data []byte
	off  int
	path []string
}

func (d *decoder) fail(detail string) error {
	return errors.New(errors.PhaseLoad, errors.KindInvalidData).
		Path(d.path...).
		Detail("%s at offset %d", detail, d.off).
		Build()
}

func (d *decoder) uvarint() (uint64, error) {
	v, n := binary.Uvarint(d.data[d.off:])
	if n <= 0 {
		return 0, d.fail("bad varint")
	}
	d.off += n
	return v, nil
}

func (d *decoder) count() (int, error) {
	v, err := d.uvarint()
	if err != nil {
		return 0, err
	}
	if v > uint64(len(d.data)-d.off) {
		return 0, d.fail("count exceeds file size")
	}
	return int(v), nil
}

func (d *decoder) u8() (uint8, error) {
	if d.off >= len(d.data) {
		return 0, d.fail("unexpected end of file")
	}
	v := d.data[d.off]
	d.off++
	return v, nil
}

func (d *decoder) u64() (uint64, error) {
	if len(d.data)-d.off < 8 {
		return 0, d.fail("unexpected end of file")
	}
	v := binary.LittleEndian.Uint64(d.data[d.off:])
	d.off += 8
	return v, nil
}

func (d *decoder) bytes() ([]byte, error) {
	n, err := d.count()
	if err != nil {
		return nil, err
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *decoder) name() (string, error) {
	b, err := d.bytes()
	return string(b), err
}

func (d *decoder) leaf() (leaf.Type, error) {
	id, err := d.u8()
	if err != nil {
		return leaf.Type{}, err
	}
	lt, ok := leaf.ByStorage(leaf.StorageID(id))
	if !ok {
		return leaf.Type{}, d.fail("unknown storage id")
	}
	return lt, nil
}

func (d *decoder) dims() ([]int, error) {
	rank, err := d.count()
	if err != nil {
		return nil, err
	}
	shape := make([]int, rank)
	for i := range shape {
		v, err := d.uvarint()
		if err != nil {
			return nil, err
		}
		if v > math.MaxInt32 {
			return nil, d.fail("extent out of range")
		}
		shape[i] = int(v)
	}
	return shape, nil
}

func (d *decoder) attrs(a flatnest.Attributes) error {
	n, err := d.count()
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		name, err := d.name()
		if err != nil {
			return err
		}
		lt, err := d.leaf()
		if err != nil {
			return err
		}
		shape, err := d.dims()
		if err != nil {
			return err
		}
		data, err := d.bytes()
		if err != nil {
			return err
		}
		if err := a.SetAttribute(name, lt, shape, data); err != nil {
			return errors.Wrap(errors.PhaseLoad, errors.KindInvalidData, err, "attribute "+name)
		}
	}
	return nil
}

func (d *decoder) group(g flatnest.Group) error {
	if err := d.attrs(g); err != nil {
		return err
	}

	n, err := d.count()
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		name, err := d.name()
		if err != nil {
			return err
		}
		child, err := g.Group(name)
		if err != nil {
			return err
		}
		d.path = append(d.path, name)
		if err := d.group(child); err != nil {
			return err
		}
		d.path = d.path[:len(d.path)-1]
	}

	n, err = d.count()
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := d.dataset(g); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) dataset(g flatnest.Group) error {
	name, err := d.name()
	if err != nil {
		return err
	}
	d.path = append(d.path, name)
	defer func() { d.path = d.path[:len(d.path)-1] }()

	lt, err := d.leaf()
	if err != nil {
		return err
	}
	shape, err := d.dims()
	if err != nil {
		return err
	}
	if !fits(lt, shape, len(d.data)-d.off) {
		return d.fail("shape exceeds file size")
	}
	ds, err := g.CreateDataset(name, lt, shape)
	if err != nil {
		return err
	}
	if err := d.attrs(ds); err != nil {
		return err
	}
	payload, err := d.bytes()
	if err != nil {
		return err
	}
	want, err := d.u64()
	if err != nil {
		return err
	}
	if got := xxhash.Sum64(payload); got != want {
		return errors.Checksum(d.path, want, got)
	}
	if len(payload) != rawSize(lt, shape) {
		return d.fail("payload size does not match shape")
	}
	return ds.WriteRaw(payload)
}

// fits reports whether a payload of the given shape can fit in limit bytes.
// A shape with a zero axis has an empty payload and always fits; readers
// bound the containers such a shape would instantiate.
func fits(lt leaf.Type, shape []int, limit int) bool {
	n, ok := nest.Shape(shape).ByteSize(int(lt.Size))
	return ok && n <= limit
}

// decode loads a file image into root, which must be empty.
func decode(data []byte, root flatnest.Group) error {
	if len(data) < headerSize+digestSize || !bytes.Equal(data[:4], []byte(magic)) {
		return errors.InvalidData(errors.PhaseLoad, nil, "not a flatnest file")
	}
	if v := binary.LittleEndian.Uint16(data[4:]); v != formatVersion {
		return errors.New(errors.PhaseLoad, errors.KindUnsupported).
			Detail("format version %d", v).
			Build()
	}

	body := data[:len(data)-digestSize]
	want := binary.LittleEndian.Uint64(data[len(body):])
	if got := xxhash.Sum64(body); got != want {
		return errors.Checksum(nil, want, got)
	}

	d := &decoder{data: body, off: headerSize}
	if err := d.group(root); err != nil {
		return err
	}
	if d.off != len(body) {
		return d.fail("trailing bytes")
	}
	return nil
}

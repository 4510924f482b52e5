package nest

import "reflect"

// Rank returns the static nesting depth of T: 0 for a leaf, otherwise one
// more than its element type.
func Rank[T any]() (int, error) {
	return Default().RankOf(reflect.TypeFor[T]())
}

func RankOf(t reflect.Type) (int, error) {
	return Default().RankOf(t)
}

func ShapeOf(v any) (Shape, error) {
	return Default().ShapeOf(v)
}

func SizeOf(v any) (int, error) {
	return Default().SizeOf(v)
}

func Serialize(v any) (*Buffer, error) {
	return Default().Serialize(v)
}

func SerializeInto(v any, dst []byte) (int, error) {
	return Default().SerializeInto(v, dst)
}

func Prepare(ptr any, shape Shape) error {
	return Default().Prepare(ptr, shape)
}

func Deserialize(ptr any, buf []byte) error {
	return Default().Deserialize(ptr, buf)
}

func DeserializeBuffer(ptr any, b *Buffer) error {
	return Default().DeserializeBuffer(ptr, b)
}

func NewDeserializer(ptr any, shape Shape) (*Deserializer, error) {
	return Default().NewDeserializer(ptr, shape)
}

// Decode builds a T of the given shape from buf.
func Decode[T any](buf []byte, shape Shape) (T, error) {
	return DecodeWith[T](Default(), buf, shape)
}

func DecodeWith[T any](c *Codec, buf []byte, shape Shape) (T, error) {
	var v T
	if err := c.Prepare(&v, shape); err != nil {
		return v, err
	}
	if err := c.Deserialize(&v, buf); err != nil {
		return v, err
	}
	return v, nil
}

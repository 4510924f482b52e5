package nest

import (
	"bytes"
	"errors"
	"math"
	"reflect"
	"slices"
	"testing"
	"unsafe"

	fnerrors "github.com/wippyai/flatnest/errors"
)

func f32bytes(vals []float32) []byte {
	if len(vals) == 0 {
		return []byte{}
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&vals[0])), len(vals)*4)
}

func TestPrepare_ListOfLists(t *testing.T) {
	var target List[List[float32]]
	if err := Prepare(&target, Shape{5, 4}); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}

	if target.Len() != 5 {
		t.Fatalf("outer Len = %d, want 5", target.Len())
	}
	for row := range target.All() {
		if row.Len() != 4 {
			t.Fatalf("inner Len = %d, want 4", row.Len())
		}
		if !slices.Equal(row.Values(), []float32{0, 0, 0, 0}) {
			t.Errorf("prepared leaves should be zero, got %v", row.Values())
		}
	}

	if err := Deserialize(&target, f32bytes(gridFlat)); err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	i := 0
	for row := range target.All() {
		for j, v := range row.Values() {
			if want := float32(1 + i*j); v != want {
				t.Errorf("target[%d][%d] = %v, want %v", i, j, v, want)
			}
		}
		i++
	}

	shape, err := ShapeOf(&target)
	if err != nil || !shape.Equal(Shape{5, 4}) {
		t.Errorf("ShapeOf after prepare = %v, %v", shape, err)
	}
}

func TestPrepare_Resizes(t *testing.T) {
	t.Run("grow slice", func(t *testing.T) {
		var v [][]int8
		if err := Prepare(&v, Shape{3, 2}); err != nil {
			t.Fatal(err)
		}
		if len(v) != 3 || len(v[0]) != 2 || len(v[2]) != 2 {
			t.Errorf("got %v", v)
		}
	})

	t.Run("shrink reuses capacity", func(t *testing.T) {
		v := make([]uint32, 8)
		base := &v[0]
		if err := Prepare(&v, Shape{3}); err != nil {
			t.Fatal(err)
		}
		if len(v) != 3 || &v[0] != base {
			t.Error("shrinking should keep the backing array")
		}
	})

	t.Run("regrow zeroes exposed elements", func(t *testing.T) {
		v := []uint32{1, 2, 3, 4}
		v = v[:1]
		if err := Prepare(&v, Shape{4}); err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(v, []uint32{1, 0, 0, 0}) {
			t.Errorf("got %v", v)
		}
	})

	t.Run("array of slices", func(t *testing.T) {
		var v [2][]float64
		if err := Prepare(&v, Shape{2, 3}); err != nil {
			t.Fatal(err)
		}
		if len(v[0]) != 3 || len(v[1]) != 3 {
			t.Errorf("got %v", v)
		}
	})

	t.Run("fixed only", func(t *testing.T) {
		var v [2][3]int16
		if err := Prepare(&v, Shape{2, 3}); err != nil {
			t.Errorf("matching fixed shape should be a no-op: %v", err)
		}
	})

	t.Run("leaf", func(t *testing.T) {
		var v float64
		if err := Prepare(&v, Shape{}); err != nil {
			t.Errorf("leaf prepare: %v", err)
		}
	})

	t.Run("zero outer skips inner checks", func(t *testing.T) {
		v := [][4]float32{{1}}
		if err := Prepare(&v, Shape{0, 0}); err != nil {
			t.Fatal(err)
		}
		if len(v) != 0 {
			t.Errorf("len = %d, want 0", len(v))
		}
	})
}

func TestPrepare_FixedSizeLeavesTargetUntouched(t *testing.T) {
	t.Run("inner array", func(t *testing.T) {
		v := [][3]float32{{1, 2, 3}, {4, 5, 6}}
		err := Prepare(&v, Shape{4, 5})
		if !errors.Is(err, fnerrors.ErrFixedSize) {
			t.Fatalf("error = %v, want fixed size", err)
		}
		if len(v) != 2 || v[1][2] != 6 {
			t.Errorf("target was modified: %v", v)
		}
	})

	t.Run("outer array", func(t *testing.T) {
		v := [2][]float32{{1}, {2}}
		err := Prepare(&v, Shape{3, 4})
		if !errors.Is(err, fnerrors.ErrFixedSize) {
			t.Fatalf("error = %v, want fixed size", err)
		}
		if len(v[0]) != 1 || len(v[1]) != 1 {
			t.Errorf("target was modified: %v", v)
		}
	})

	t.Run("deep array in list", func(t *testing.T) {
		l := NewList([2]int8{1, 2})
		err := Prepare(&l, Shape{5, 3})
		if !errors.Is(err, fnerrors.ErrFixedSize) {
			t.Fatalf("error = %v, want fixed size", err)
		}
		if l.Len() != 1 {
			t.Errorf("list was resized to %d", l.Len())
		}
	})
}

func TestPrepare_Errors(t *testing.T) {
	var v [][]float32
	if err := Prepare(&v, Shape{3}); !errors.Is(err, fnerrors.ErrRankMismatch) {
		t.Errorf("short shape error = %v", err)
	}
	if err := Prepare(&v, Shape{1, 2, 3}); !errors.Is(err, fnerrors.ErrRankMismatch) {
		t.Errorf("long shape error = %v", err)
	}
	if err := Prepare(&v, Shape{-1, 2}); !errors.Is(err, &fnerrors.Error{Kind: fnerrors.KindInvalidInput}) {
		t.Errorf("negative extent error = %v", err)
	}
	if err := Prepare(v, Shape{1, 1}); !errors.Is(err, &fnerrors.Error{Kind: fnerrors.KindInvalidInput}) {
		t.Errorf("non-pointer target error = %v", err)
	}
	if err := Prepare(nil, Shape{}); err == nil {
		t.Error("nil target should fail")
	}
}

func TestPrepare_Bounds(t *testing.T) {
	tests := []struct {
		name   string
		target any
		shape  Shape
		want   error
	}{
		{"huge byte slice", new([]uint8), Shape{1 << 62}, fnerrors.ErrAllocation},
		{"wide outer over empty rows", new([][]float32), Shape{math.MaxInt32, 0}, fnerrors.ErrAllocation},
		{"wide list", new(List[float64]), Shape{1 << 60}, fnerrors.ErrAllocation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Prepare(tt.target, tt.shape)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			var fe *fnerrors.Error
			if !errors.As(err, &fe) || fe.Phase != fnerrors.PhasePrepare {
				t.Errorf("error = %#v, want prepare phase", err)
			}
		})
	}

	if _, err := NewDeserializer(new([][]float32), Shape{1 << 31, 1 << 31}); !errors.Is(err, fnerrors.ErrAllocation) {
		t.Errorf("NewDeserializer error = %v, want allocation", err)
	}

	unbounded, err := NewCodecWithConfig(&Config{MaxAlloc: math.MaxUint64})
	if err != nil {
		t.Fatal(err)
	}
	var rows [][]uint8
	if err := unbounded.Prepare(&rows, Shape{1 << 40, 1 << 40}); !errors.Is(err, fnerrors.ErrInvalidInput) {
		t.Errorf("overflowing element count = %v, want invalid input", err)
	}
	if rows != nil {
		t.Error("overflowing shape must be rejected before resizing")
	}

	c, err := NewCodecWithConfig(&Config{MaxAlloc: 64})
	if err != nil {
		t.Fatal(err)
	}
	var small []float32
	if err := c.Prepare(&small, Shape{16}); err != nil {
		t.Errorf("16 floats within a 64 byte limit: %v", err)
	}
	if err := c.Prepare(&small, Shape{17}); !errors.Is(err, fnerrors.ErrAllocation) {
		t.Errorf("17 floats over a 64 byte limit: %v", err)
	}
	if len(small) != 16 {
		t.Errorf("rejected Prepare resized the target to %d", len(small))
	}
}

func TestDeserialize_SizeMismatch(t *testing.T) {
	v := make([][]float32, 2)
	v[0], v[1] = []float32{9, 9}, []float32{9, 9}

	err := Deserialize(&v, f32bytes([]float32{1, 2, 3}))
	if !errors.Is(err, fnerrors.ErrOutOfBounds) {
		t.Fatalf("error = %v, want out of bounds", err)
	}
	if v[0][0] != 9 {
		t.Error("target must not be written on size mismatch")
	}
}

func TestDeserialize_RaggedTargetUntouched(t *testing.T) {
	v := [][]float32{{9, 9}, {9}, {9, 9}}
	err := Deserialize(&v, f32bytes([]float32{1, 2, 3, 4, 5, 6}))
	if !errors.Is(err, fnerrors.ErrRagged) {
		t.Fatalf("error = %v, want ragged", err)
	}
	if v[0][0] != 9 || v[0][1] != 9 {
		t.Error("no leaf may be written before the ragged level is found")
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		target func() any
	}{
		{"leaf", float64(2.5), func() any { return new(float64) }},
		{"array", [4]float32{1, 2, 3, 4}, func() any { return new([4]float32) }},
		{"slice of arrays", gridRows(), func() any { return new([][4]float32) }},
		{"slice of slices", [][]float64{{1, 2, 3}, {4, 5, 6}}, func() any { return new([][]float64) }},
		{"array of slices", [2][]int8{{-1, -2}, {-3, -4}}, func() any { return new([2][]int8) }},
		{"rank 3", [][2][3]uint16{{{1, 2, 3}, {4, 5, 6}}, {{7, 8, 9}, {10, 11, 12}}}, func() any { return new([][2][3]uint16) }},
		{"slice of lists", []List[int32]{NewList[int32](1, 2), NewList[int32](3, 4)}, func() any { return new([]List[int32]) }},
		{"list of slices", NewList([]uint64{1, 2}, []uint64{3, 4}), func() any { return new(List[[]uint64]) }},
		{"empty", [][]float32{}, func() any { return new([][]float32) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Serialize(tt.value)
			if err != nil {
				t.Fatalf("Serialize failed: %v", err)
			}
			defer b.Release()

			target := tt.target()
			if err := Prepare(target, b.Shape()); err != nil {
				t.Fatalf("Prepare failed: %v", err)
			}
			if err := Deserialize(target, b.Bytes()); err != nil {
				t.Fatalf("Deserialize failed: %v", err)
			}

			shape, err := ShapeOf(target)
			if err != nil {
				t.Fatal(err)
			}
			if !shape.Equal(b.Shape()) {
				t.Errorf("ShapeOf(target) = %v, want %v", shape, b.Shape())
			}

			again, err := Serialize(target)
			if err != nil {
				t.Fatal(err)
			}
			defer again.Release()
			if !bytes.Equal(again.Bytes(), b.Bytes()) {
				t.Error("re-serialized buffer differs")
			}

			// A prepared empty slice stays nil.
			if tt.name != "empty" {
				got := reflect.ValueOf(target).Elem().Interface()
				if !reflect.DeepEqual(got, tt.value) {
					t.Errorf("round trip = %v, want %v", got, tt.value)
				}
			}
		})
	}
}

func TestDeserializeBuffer(t *testing.T) {
	src := [][]int16{{1, 2, 3}, {4, 5, 6}}
	b, err := Serialize(src)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Release()

	var dst List[[3]int16]
	if err := DeserializeBuffer(&dst, b); err != nil {
		t.Fatalf("DeserializeBuffer failed: %v", err)
	}
	if got := dst.Values(); !reflect.DeepEqual(got, [][3]int16{{1, 2, 3}, {4, 5, 6}}) {
		t.Errorf("got %v", got)
	}

	var wrong [][]float32
	if err := DeserializeBuffer(&wrong, b); !errors.Is(err, fnerrors.ErrTypeMismatch) {
		t.Errorf("leaf mismatch error = %v", err)
	}
	if err := DeserializeBuffer(&wrong, nil); err == nil {
		t.Error("nil buffer should fail")
	}
}

func TestDecode(t *testing.T) {
	got, err := Decode[[][4]float32](f32bytes(gridFlat), Shape{5, 4})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !reflect.DeepEqual(got, gridRows()) {
		t.Errorf("Decode = %v", got)
	}

	if _, err := Decode[[][3]float32](f32bytes(gridFlat), Shape{5, 4}); !errors.Is(err, fnerrors.ErrFixedSize) {
		t.Errorf("fixed size error = %v", err)
	}
	if _, err := Decode[[][4]float32](f32bytes(gridFlat[:3]), Shape{5, 4}); !errors.Is(err, fnerrors.ErrOutOfBounds) {
		t.Errorf("short buffer error = %v", err)
	}
}

func TestDeserializer_Aliased(t *testing.T) {
	var grid [][4]float32
	d, err := NewDeserializer(&grid, Shape{5, 4})
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	if !d.Aliased() {
		t.Fatal("contiguous target should be filled in place")
	}
	if len(d.Data()) != 80 || unsafe.Pointer(&d.Data()[0]) != unsafe.Pointer(&grid[0][0]) {
		t.Fatal("Data should alias the target's backing array")
	}
	copy(d.Data(), f32bytes(gridFlat))
	if err := d.Execute(); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(grid, gridRows()) {
		t.Errorf("grid = %v", grid)
	}
}

func TestDeserializer_Scratch(t *testing.T) {
	var target List[List[float32]]
	d, err := NewDeserializer(&target, Shape{5, 4})
	if err != nil {
		t.Fatal(err)
	}

	if d.Aliased() {
		t.Fatal("linked target needs a scratch buffer")
	}
	if !d.Shape().Equal(Shape{5, 4}) {
		t.Errorf("Shape = %v", d.Shape())
	}
	copy(d.Data(), f32bytes(gridFlat))
	if err := d.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := target.Back().Value.Values(); !slices.Equal(got, []float32{1, 5, 9, 13}) {
		t.Errorf("last row = %v", got)
	}

	d.Close()
	d.Close()
	if err := d.Execute(); !errors.Is(err, fnerrors.ErrClosed) {
		t.Errorf("Execute after Close = %v, want closed", err)
	}
}

func TestDeserializer_PrepareFailure(t *testing.T) {
	var v [][2]int32
	if _, err := NewDeserializer(&v, Shape{1, 3}); !errors.Is(err, fnerrors.ErrFixedSize) {
		t.Errorf("error = %v", err)
	}
}

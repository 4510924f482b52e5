package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

type shapeStr string

func (s shapeStr) String() string { return string(s) }

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:    PhaseSerialize,
				Kind:     KindTypeMismatch,
				Path:     []string{"[3]", "[1]"},
				GoType:   "int",
				LeafType: "f32",
				Detail:   "cannot convert",
			},
			contains: []string{"[serialize]", "type_mismatch", "[3][1]", "int", "f32", "cannot convert"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDeserialize,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[deserialize]", "out_of_bounds"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseStorage,
				Kind:   KindAllocation,
				Detail: "memory full",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[storage]", "allocation", "memory full", "caused by", "underlying error"},
		},
		{
			name: "named path segments",
			err: &Error{
				Phase: PhaseLoad,
				Kind:  KindChecksum,
				Path:  []string{"root", "grid", "values"},
			},
			contains: []string{"root.grid.values"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseSerialize,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhasePrepare,
		Kind:  KindFixedSize,
		Path:  []string{"[0]"},
	}

	if !err.Is(&Error{Phase: PhasePrepare, Kind: KindFixedSize}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseSerialize, Kind: KindFixedSize}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhasePrepare, Kind: KindRagged}) {
		t.Error("Is should not match different kind")
	}
	if !errors.Is(err, ErrFixedSize) {
		t.Error("kind-only sentinel should match any phase")
	}
	if errors.Is(err, ErrRagged) {
		t.Error("sentinel of another kind should not match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhasePrepare, KindFixedSize).
		Path("[1]", "[2]").
		GoType("[4]float32").
		LeafType("f32").
		Value(5).
		Cause(cause).
		Detail("fixed length %d, requested %d", 4, 5).
		Build()

	if err.Phase != PhasePrepare {
		t.Errorf("Phase = %v, want %v", err.Phase, PhasePrepare)
	}
	if err.Kind != KindFixedSize {
		t.Errorf("Kind = %v, want %v", err.Kind, KindFixedSize)
	}
	if len(err.Path) != 2 || err.Path[0] != "[1]" || err.Path[1] != "[2]" {
		t.Errorf("Path = %v, want [[1] [2]]", err.Path)
	}
	if err.GoType != "[4]float32" {
		t.Errorf("GoType = %v", err.GoType)
	}
	if err.LeafType != "f32" {
		t.Errorf("LeafType = %v", err.LeafType)
	}
	if err.Value != 5 {
		t.Errorf("Value = %v, want 5", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "fixed length 4, requested 5" {
		t.Errorf("Detail = %v", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("RankMismatch", func(t *testing.T) {
		err := RankMismatch(PhasePrepare, "[][]int8", 2, 3)
		if err.Kind != KindRankMismatch {
			t.Errorf("Kind = %v, want %v", err.Kind, KindRankMismatch)
		}
		if !strings.Contains(err.Detail, "rank 2") {
			t.Errorf("Detail = %q", err.Detail)
		}
	})

	t.Run("ShapeMismatch", func(t *testing.T) {
		err := ShapeMismatch(PhaseStorage, nil, shapeStr("[5 4]"), shapeStr("[4 4]"))
		if err.Kind != KindShapeMismatch {
			t.Errorf("Kind = %v, want %v", err.Kind, KindShapeMismatch)
		}
		if !strings.Contains(err.Detail, "[5 4]") || !strings.Contains(err.Detail, "[4 4]") {
			t.Errorf("Detail = %q", err.Detail)
		}
	})

	t.Run("FixedSize", func(t *testing.T) {
		err := FixedSize([]string{"[0]"}, "[4]float32", 4, 5)
		if err.Phase != PhasePrepare || err.Kind != KindFixedSize {
			t.Errorf("got %v/%v", err.Phase, err.Kind)
		}
		if err.Value != 5 {
			t.Errorf("Value = %v, want 5", err.Value)
		}
	})

	t.Run("Ragged", func(t *testing.T) {
		err := Ragged(PhaseSerialize, []string{"[2]"}, 4, 3)
		if err.Kind != KindRagged {
			t.Errorf("Kind = %v, want %v", err.Kind, KindRagged)
		}
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		err := OutOfBounds(PhaseDeserialize, []string{"list"}, 10, 5)
		if err.Kind != KindOutOfBounds {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOutOfBounds)
		}
		if err.Value != 10 {
			t.Errorf("Value = %v, want 10", err.Value)
		}
	})

	t.Run("BufferSize", func(t *testing.T) {
		err := BufferSize(PhaseDeserialize, 80, 40)
		if !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("BufferSize should be out_of_bounds, got %v", err.Kind)
		}
	})

	t.Run("Unsupported", func(t *testing.T) {
		err := Unsupported(PhaseCompile, []string{"[0]"}, "string")
		if err.Kind != KindUnsupported {
			t.Errorf("Kind = %v, want %v", err.Kind, KindUnsupported)
		}
		if err.GoType != "string" {
			t.Errorf("GoType = %v", err.GoType)
		}
	})

	t.Run("NilPointer", func(t *testing.T) {
		err := NilPointer(PhasePrepare, nil, "*[]float32")
		if err.Kind != KindNilPointer {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNilPointer)
		}
	})

	t.Run("NotFound and Exists", func(t *testing.T) {
		if err := NotFound(PhaseStorage, "dataset", "x"); !errors.Is(err, ErrNotFound) {
			t.Errorf("NotFound kind = %v", err.Kind)
		}
		if err := Exists(PhaseStorage, "dataset", "x"); !errors.Is(err, ErrExists) {
			t.Errorf("Exists kind = %v", err.Kind)
		}
	})

	t.Run("Checksum", func(t *testing.T) {
		err := Checksum([]string{"grid"}, 1, 2)
		if !errors.Is(err, ErrChecksum) {
			t.Errorf("Kind = %v", err.Kind)
		}
		if !strings.Contains(err.Error(), "0000000000000001") {
			t.Errorf("message %q should carry digests", err.Error())
		}
	})

	t.Run("Closed", func(t *testing.T) {
		err := Closed(PhaseStorage, "store")
		if !errors.Is(err, ErrClosed) || err.Error() != "[storage] closed: store is closed" {
			t.Errorf("got %q", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		cause := errors.New("disk full")
		err := Wrap(PhaseStorage, KindInvalidData, cause, "flush")
		if !errors.Is(err, cause) {
			t.Error("Wrap should keep the cause reachable")
		}
	})
}

func TestClassify(t *testing.T) {
	inner := Ragged(PhaseSerialize, []string{"[2]"}, 4, 3)
	wrapped := fmt.Errorf("outer: %w", inner)

	phase, kind, ok := Classify(wrapped)
	if !ok || phase != PhaseSerialize || kind != KindRagged {
		t.Errorf("Classify = %q, %q, %v", phase, kind, ok)
	}
	if _, _, ok := Classify(errors.New("plain")); ok {
		t.Error("plain error should not classify")
	}
}

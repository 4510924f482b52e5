package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseCompile     Phase = "compile"     // type plan construction
	PhaseShape       Phase = "shape"       // shape inference
	PhaseSerialize   Phase = "serialize"   // nested value to flat buffer
	PhasePrepare     Phase = "prepare"     // resizing a target to a shape
	PhaseDeserialize Phase = "deserialize" // flat buffer to nested value
	PhaseStorage     Phase = "storage"     // backend reads and writes
	PhaseLoad        Phase = "load"        // opening persisted stores
	PhaseConfig      Phase = "config"      // configuration parsing
)

// Kind categorizes the error
type Kind string

const (
	KindTypeMismatch  Kind = "type_mismatch"
	KindRankMismatch  Kind = "rank_mismatch"
	KindShapeMismatch Kind = "shape_mismatch"
	KindFixedSize     Kind = "fixed_size"
	KindRagged        Kind = "ragged"
	KindOutOfBounds   Kind = "out_of_bounds"
	KindUnsupported   Kind = "unsupported"
	KindNilPointer    Kind = "nil_pointer"
	KindNotFound      Kind = "not_found"
	KindExists        Kind = "exists"
	KindInvalidData   Kind = "invalid_data"
	KindChecksum      Kind = "checksum"
	KindInvalidInput  Kind = "invalid_input"
	KindAllocation    Kind = "allocation"
	KindClosed        Kind = "closed"
)

// Sentinels match any phase with the given kind.
var (
	ErrTypeMismatch  = &Error{Kind: KindTypeMismatch}
	ErrRankMismatch  = &Error{Kind: KindRankMismatch}
	ErrShapeMismatch = &Error{Kind: KindShapeMismatch}
	ErrFixedSize     = &Error{Kind: KindFixedSize}
	ErrRagged        = &Error{Kind: KindRagged}
	ErrOutOfBounds   = &Error{Kind: KindOutOfBounds}
	ErrUnsupported   = &Error{Kind: KindUnsupported}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrExists        = &Error{Kind: KindExists}
	ErrChecksum      = &Error{Kind: KindChecksum}
	ErrClosed        = &Error{Kind: KindClosed}
	ErrAllocation    = &Error{Kind: KindAllocation}
	ErrInvalidInput  = &Error{Kind: KindInvalidInput}
)

// Error is the structured error type used throughout flatnest
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	GoType   string
	LeafType string
	Detail   string
	Path     []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Phase != "" {
		b.WriteByte('[')
		b.WriteString(string(e.Phase))
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(joinPath(e.Path))
	}

	if e.GoType != "" || e.LeafType != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.LeafType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", leaf type ")
			b.WriteString(e.LeafType)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("leaf type ")
			b.WriteString(e.LeafType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.LeafType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// joinPath renders index segments ("[3]") without a leading dot.
func joinPath(path []string) string {
	var b strings.Builder
	for i, p := range path {
		if i > 0 && !strings.HasPrefix(p, "[") {
			b.WriteByte('.')
		}
		b.WriteString(p)
	}
	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target without a phase matches on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the element path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// LeafType sets the leaf type name
func (b *Builder) LeafType(t string) *Builder {
	b.err.LeafType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, leafType string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindTypeMismatch,
		Path:     path,
		GoType:   goType,
		LeafType: leafType,
	}
}

// RankMismatch reports a shape whose length differs from the type's rank
func RankMismatch(phase Phase, goType string, rank, shapeLen int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindRankMismatch,
		GoType: goType,
		Detail: fmt.Sprintf("type has rank %d, shape has %d axes", rank, shapeLen),
		Value:  shapeLen,
	}
}

// ShapeMismatch reports two shapes that were required to be equal
func ShapeMismatch(phase Phase, path []string, want, got fmt.Stringer) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindShapeMismatch,
		Path:   path,
		Detail: fmt.Sprintf("expected shape %s, got %s", want, got),
	}
}

// FixedSize reports a resize request on a fixed-size container
func FixedSize(path []string, goType string, fixed, requested int) *Error {
	return &Error{
		Phase:  PhasePrepare,
		Kind:   KindFixedSize,
		Path:   path,
		GoType: goType,
		Detail: fmt.Sprintf("fixed length %d cannot hold %d elements", fixed, requested),
		Value:  requested,
	}
}

// Ragged reports a sibling whose element count disagrees with the inferred shape
func Ragged(phase Phase, path []string, want, got int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindRagged,
		Path:   path,
		Detail: fmt.Sprintf("has %d elements, first sibling has %d", got, want),
		Value:  got,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// BufferSize reports a flat buffer whose length does not match the shape
func BufferSize(phase Phase, want, got int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("buffer holds %d bytes, shape needs %d", got, want),
		Value:  got,
	}
}

// Unsupported creates an unsupported type error
func Unsupported(phase Phase, path []string, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Path:   path,
		GoType: goType,
		Detail: "not a leaf or container type",
	}
}

// NilPointer creates a nil pointer error
func NilPointer(phase Phase, path []string, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNilPointer,
		Path:   path,
		GoType: goType,
		Detail: "nil pointer",
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Exists reports a name that is already taken
func Exists(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindExists,
		Detail: fmt.Sprintf("%s %q already exists", what, name),
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Checksum reports a stored digest that does not match the payload
func Checksum(path []string, want, got uint64) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindChecksum,
		Path:   path,
		Detail: fmt.Sprintf("checksum %016x, computed %016x", want, got),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, size, align uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes (align %d)", size, align),
	}
}

// Closed reports use of a store after Close
func Closed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: what + " is closed",
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Classify returns the phase and kind of the first *Error in err's chain.
func Classify(err error) (Phase, Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", "", false
	}
	return e.Phase, e.Kind, true
}

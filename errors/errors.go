package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in layout resolution the error occurred
type Phase string

const (
	PhaseDescribe Phase = "describe" // type descriptor construction
	PhaseClassify Phase = "classify" // packedness classification
	PhaseCheck    Phase = "check"    // container constraint checking
	PhaseAllocate Phase = "allocate" // storage key allocation
	PhaseResolve  Phase = "resolve"  // storable hint resolution
	PhaseEncode   Phase = "encode"   // value to bytes
	PhaseDecode   Phase = "decode"   // bytes to value
	PhaseStore    Phase = "store"    // key-value store access
)

// Kind categorizes the error
type Kind string

const (
	KindMissingCodecSupport     Kind = "missing_codec_support"
	KindIllegalContainerNesting Kind = "illegal_container_nesting"
	KindManualKeyCollision      Kind = "manual_key_collision"
	KindInfiniteLayout          Kind = "infinite_layout"
	KindTypeMismatch            Kind = "type_mismatch"
	KindInvalidData             Kind = "invalid_data"
	KindInvalidTag              Kind = "invalid_tag"
	KindInvalidVariant          Kind = "invalid_variant"
	KindOutOfBounds             Kind = "out_of_bounds"
	KindUnsupported             Kind = "unsupported"
	KindNilPointer              Kind = "nil_pointer"
	KindNotFound                Kind = "not_found"
	KindEmptyCell               Kind = "empty_cell"
	KindCorrupt                 Kind = "corrupt"
)

// Frame records one step of the derivation chain: the type being derived,
// the field within it, and the rule that failed there. Frames are ordered
// innermost first, so the last frame names the top-level declaration.
type Frame struct {
	Type  string
	Field string
	Rule  string
}

func (f Frame) String() string {
	var b strings.Builder
	b.WriteString(f.Type)
	if f.Field != "" {
		b.WriteByte('.')
		b.WriteString(f.Field)
	}
	if f.Rule != "" {
		b.WriteString(": ")
		b.WriteString(f.Rule)
	}
	return b.String()
}

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Type   string
	Field  string
	Detail string
	Frames []Frame
}

// Error implements the error interface. The frame chain is rendered as
// trailing notes, innermost cause first.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Type != "" {
		b.WriteString(" at ")
		b.WriteString(e.Type)
		if e.Field != "" {
			b.WriteByte('.')
			b.WriteString(e.Field)
		}
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	for _, f := range e.Frames {
		b.WriteString("\n  note: required by ")
		b.WriteString(f.String())
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Note appends an enclosing-type frame to the chain. Callers annotate the
// error as it propagates outward through each enclosing composite.
func (e *Error) Note(typeName, fieldName, rule string) *Error {
	e.Frames = append(e.Frames, Frame{Type: typeName, Field: fieldName, Rule: rule})
	return e
}

// Clone returns a copy with an independent frame chain. Resolution results
// are cached, so a propagating error must be cloned before annotation or
// later lookups would see frames from unrelated derivations.
func (e *Error) Clone() *Error {
	dup := *e
	dup.Frames = make([]Frame, len(e.Frames), len(e.Frames)+2)
	copy(dup.Frames, e.Frames)
	return &dup
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

// Type sets the failing type name
func (b *Builder) Type(name string) *Builder {
	b.err.Type = name
	return b
}

// Field sets the failing field name
func (b *Builder) Field(name string) *Builder {
	b.err.Field = name
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

// MissingCodecSupport reports a field type without encode/decode support.
func MissingCodecSupport(phase Phase, typeName, fieldName, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMissingCodecSupport,
		Type:   typeName,
		Field:  fieldName,
		Detail: fmt.Sprintf("type %s has no storage codec", goType),
	}
}

// IllegalContainerNesting reports a container whose value type owns storage
// cells of its own.
func IllegalContainerNesting(typeName, container, value string) *Error {
	return &Error{
		Phase:  PhaseCheck,
		Kind:   KindIllegalContainerNesting,
		Type:   typeName,
		Detail: fmt.Sprintf("container %s holds non-packed value type %s", container, value),
	}
}

// ManualKeyCollision reports two fields resolving to the same key in one scope.
func ManualKeyCollision(typeName, field, other string, key any) *Error {
	return &Error{
		Phase:  PhaseAllocate,
		Kind:   KindManualKeyCollision,
		Type:   typeName,
		Field:  field,
		Detail: fmt.Sprintf("storage key %v already taken by field %q", key, other),
		Value:  key,
	}
}

// InfiniteLayout reports a type that recursively contains itself with no
// intervening cell boundary.
func InfiniteLayout(typeName string, cycle []string) *Error {
	return &Error{
		Phase:  PhaseClassify,
		Kind:   KindInfiniteLayout,
		Type:   typeName,
		Detail: fmt.Sprintf("type recursively contains itself: %s", strings.Join(cycle, " -> ")),
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, typeName, got, expected string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Type:   typeName,
		Detail: fmt.Sprintf("got %s, expected %s", got, expected),
	}
}

// Unsupported creates an unsupported type error
func Unsupported(phase Phase, typeName, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Type:   typeName,
		Detail: what,
	}
}

// OutOfBounds creates an out of bounds decode error
func OutOfBounds(phase Phase, need, have int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("need %d bytes, have %d", need, have),
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, detail string, args ...any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// InvalidTag reports a malformed struct tag on a field.
func InvalidTag(typeName, fieldName, tag string) *Error {
	return &Error{
		Phase:  PhaseDescribe,
		Kind:   KindInvalidTag,
		Type:   typeName,
		Field:  fieldName,
		Detail: fmt.Sprintf("malformed tag %q", tag),
	}
}

// InvalidVariant reports a bad enum discriminant or variant value.
func InvalidVariant(phase Phase, typeName string, detail string, args ...any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidVariant,
		Type:   typeName,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// NilPointer creates a nil pointer error
func NilPointer(phase Phase, typeName string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNilPointer,
		Type:   typeName,
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

// EmptyCell reports a read of a storage cell that holds no value.
func EmptyCell(key any) *Error {
	return &Error{
		Phase:  PhaseStore,
		Kind:   KindEmptyCell,
		Detail: fmt.Sprintf("storage cell %v is empty", key),
		Value:  key,
	}
}

// Corrupt reports undecodable bytes in a storage cell.
func Corrupt(key any, cause error) *Error {
	return &Error{
		Phase:  PhaseStore,
		Kind:   KindCorrupt,
		Detail: fmt.Sprintf("could not decode storage cell %v", key),
		Value:  key,
		Cause:  cause,
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

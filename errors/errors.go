package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseInit     Phase = "init"     // runtime start, assembly registration
	PhaseResolve  Phase = "resolve"  // entry point discovery
	PhaseRequest  Phase = "request"  // wire request to managed request
	PhaseInvoke   Phase = "invoke"   // user handler call
	PhaseResponse Phase = "response" // managed response to wire response
	PhaseWire     Phase = "wire"     // linear memory codec
	PhaseConfig   Phase = "config"   // configuration loading
)

// Kind categorizes the error
type Kind string

const (
	KindNotFound       Kind = "not_found"
	KindException      Kind = "exception"
	KindSetter         Kind = "setter"
	KindGetter         Kind = "getter"
	KindNullResult     Kind = "null_result"
	KindResolve        Kind = "resolve"
	KindInvocation     Kind = "invocation"
	KindOutOfBounds    Kind = "out_of_bounds"
	KindAllocation     Kind = "allocation"
	KindOverflow       Kind = "overflow"
	KindInvalidEnum    Kind = "invalid_enum"
	KindInvalidData    Kind = "invalid_data"
	KindInvalidInput   Kind = "invalid_input"
	KindTypeMismatch   Kind = "type_mismatch"
	KindNotInitialized Kind = "not_initialized"
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Class  string
	Field  string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Class != "" {
		b.WriteString(": ")
		b.WriteString(e.Class)
		if e.Field != "" {
			b.WriteByte('.')
			b.WriteString(e.Field)
		}
	} else if e.Field != "" {
		b.WriteString(": field ")
		b.WriteString(e.Field)
	}

	if e.Detail != "" {
		if e.Class != "" || e.Field != "" {
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

// Path sets the wire value path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Class sets the managed class name
func (b *Builder) Class(name string) *Builder {
	b.err.Class = name
	return b
}

// Field sets the managed field name
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

// Marshaling constructors

// ConversionNotFound reports a class, method or object needed for marshaling that does not exist
func ConversionNotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// ConversionException reports a managed exception raised by a conversion call
func ConversionException(phase Phase, operation string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindException,
		Detail: fmt.Sprintf("%s threw", operation),
		Cause:  cause,
	}
}

// SetterFailed reports a field that could not be written
func SetterFailed(phase Phase, class, field string, cause error) *Error {
	return &Error{
		Phase: phase,
		Kind:  KindSetter,
		Class: class,
		Field: field,
		Cause: cause,
	}
}

// GetterFailed reports a field that could not be read
func GetterFailed(phase Phase, class, field string, cause error) *Error {
	return &Error{
		Phase: phase,
		Kind:  KindGetter,
		Class: class,
		Field: field,
		Cause: cause,
	}
}

// NullResult reports a call that produced no object where one was required
func NullResult(phase Phase, operation string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNullResult,
		Detail: fmt.Sprintf("%s returned null", operation),
	}
}

// Invocation reports an exception thrown by the user handler
func Invocation(cause error) *Error {
	return &Error{
		Phase:  PhaseInvoke,
		Kind:   KindInvocation,
		Detail: "handler threw",
		Cause:  cause,
	}
}

// Resolve reports an entry point resolution failure
func Resolve(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindResolve,
		Detail: detail,
		Cause:  cause,
	}
}

// Codec constructors

// OutOfBounds creates an out of bounds memory access error
func OutOfBounds(phase Phase, path []string, offset, length uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("access of %d bytes at offset %d out of bounds", length, offset),
		Value:  offset,
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

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, limit string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   path,
		Detail: fmt.Sprintf("value %v exceeds %s", value, limit),
		Value:  value,
	}
}

// InvalidEnum creates an invalid enum discriminant error
func InvalidEnum(phase Phase, path []string, value any, enumType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidEnum,
		Path:   path,
		Detail: fmt.Sprintf("invalid enum value %v for %s", value, enumType),
		Value:  value,
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

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// TypeMismatch creates a type mismatch error for a managed field
func TypeMismatch(phase Phase, class, field, want, got string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Class:  class,
		Field:  field,
		Detail: fmt.Sprintf("expected %s, got %s", want, got),
	}
}

// NotInitialized creates a not-initialized error
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
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

package managed

import (
	"fmt"
	"reflect"

	"github.com/wippyai/http-bridge/errors"
)

// Field is a typed descriptor for a named managed field.
// T is the Go type the accessor produces for reads and accepts for writes.
type Field[T any] struct {
	Name string
}

// NewField declares a field descriptor.
func NewField[T any](name string) Field[T] {
	return Field[T]{Name: name}
}

// Get reads the field. A null field reads as the zero T.
func (f Field[T]) Get(acc FieldAccessor, c Class, o Object) (T, error) {
	var zero T
	v, err := acc.GetField(c, o, f.Name)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, errors.TypeMismatch(errors.PhaseResponse, className(c), f.Name,
			reflect.TypeFor[T]().String(), fmt.Sprintf("%T", v))
	}
	return t, nil
}

// Set writes the field.
func (f Field[T]) Set(acc FieldAccessor, c Class, o Object, v T) error {
	return acc.SetField(c, o, f.Name, v)
}

func className(c Class) string {
	if c == nil {
		return ""
	}
	return c.FullName()
}

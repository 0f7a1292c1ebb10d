package vm

import (
	"reflect"

	"github.com/wippyai/http-bridge/errors"
	"github.com/wippyai/http-bridge/managed"
)

// Object is an instance of a struct class. It wraps a *T.
type Object struct {
	class *Class
	val   reflect.Value
}

func (o *Object) Class() managed.Class {
	if o == nil {
		return nil
	}
	return o.class
}

// Value returns the underlying *T.
func (o *Object) Value() any {
	return o.val.Interface()
}

// String is a managed string.
type String struct {
	class *Class
	s     string
}

func (s *String) Class() managed.Class {
	if s == nil {
		return nil
	}
	return s.class
}

func (s *String) String() string { return s.s }

// Box is a value-type result boxed into an object.
type Box struct {
	class *Class
	val   reflect.Value
}

func (b *Box) Class() managed.Class {
	if b == nil {
		return nil
	}
	return b.class
}

// Value returns the boxed value.
func (b *Box) Value() any {
	return b.val.Interface()
}

// Array is a managed array backed by a Go slice.
type Array struct {
	rt    *Runtime
	class *Class
	elem  *Class
	v     reflect.Value
}

func (r *Runtime) wrapArray(v reflect.Value) *Array {
	et := v.Type().Elem()
	if et.Kind() == reflect.Pointer {
		et = et.Elem()
	}
	elem := r.classFor(et)
	return &Array{
		rt:    r,
		elem:  elem,
		class: &Class{ns: elem.ns, name: elem.name + "[]", image: elem.image, typ: v.Type()},
		v:     v,
	}
}

func (a *Array) Class() managed.Class {
	if a == nil {
		return nil
	}
	return a.class
}

// Elem returns the element class.
func (a *Array) Elem() managed.Class { return a.elem }

func (a *Array) Len() int { return a.v.Len() }

// Get returns element i. Reference elements come back as managed objects,
// or nil for a null reference.
func (a *Array) Get(i int) (any, error) {
	if err := a.check(i, 1); err != nil {
		return nil, err
	}
	return a.rt.fromValue(a.v.Index(i)), nil
}

func (a *Array) Set(i int, v any) error {
	if err := a.check(i, 1); err != nil {
		return err
	}
	rv, err := a.rt.toValue(v, a.v.Type().Elem())
	if err != nil {
		return errors.New(errors.PhaseInvoke, errors.KindTypeMismatch).
			Class(a.class.FullName()).
			Path(itoa(i)).
			Cause(err).
			Build()
	}
	a.v.Index(i).Set(rv)
	return nil
}

func (a *Array) CopyFrom(offset int, data []byte) error {
	if a.v.Type().Elem().Kind() != reflect.Uint8 {
		return errors.TypeMismatch(errors.PhaseInvoke, a.class.FullName(), "", "System.Byte[]", a.v.Type().String())
	}
	if len(data) == 0 {
		return nil
	}
	if err := a.check(offset, len(data)); err != nil {
		return err
	}
	reflect.Copy(a.v.Slice(offset, offset+len(data)), reflect.ValueOf(data).Convert(a.v.Type()))
	return nil
}

func (a *Array) Bytes() ([]byte, error) {
	if a.v.Type().Elem().Kind() != reflect.Uint8 {
		return nil, errors.TypeMismatch(errors.PhaseResponse, a.class.FullName(), "", "System.Byte[]", a.v.Type().String())
	}
	out := make([]byte, a.v.Len())
	reflect.Copy(reflect.ValueOf(out), a.v)
	return out, nil
}

func (a *Array) check(offset, n int) error {
	if offset < 0 || n < 0 || offset+n > a.v.Len() {
		return errors.OutOfBounds(errors.PhaseInvoke, []string{a.class.FullName()}, uint32(max(offset, 0)), uint32(max(n, 0)))
	}
	return nil
}

var (
	_ managed.Object = (*Object)(nil)
	_ managed.Object = (*String)(nil)
	_ managed.Object = (*Box)(nil)
	_ managed.Array  = (*Array)(nil)
)

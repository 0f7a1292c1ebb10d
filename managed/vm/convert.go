package vm

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/wippyai/http-bridge/errors"
	"github.com/wippyai/http-bridge/managed"
)

// GetField reads an exported field of o. Named primitive types come back
// as their basic Go type, strings as *String, slices as *Array and struct
// pointers as *Object. Null references read as nil.
func (r *Runtime) GetField(c managed.Class, o managed.Object, name string) (any, error) {
	fv, err := r.field(c, o, name)
	if err != nil {
		return nil, errors.GetterFailed(errors.PhaseResponse, classNameOf(c), name, err)
	}
	return r.fromValue(fv), nil
}

// SetField writes an exported field of o. Values are converted to the
// field type when the kinds match.
func (r *Runtime) SetField(c managed.Class, o managed.Object, name string, v any) error {
	fv, err := r.field(c, o, name)
	if err != nil {
		return errors.SetterFailed(errors.PhaseRequest, classNameOf(c), name, err)
	}
	rv, err := r.toValue(v, fv.Type())
	if err != nil {
		return errors.SetterFailed(errors.PhaseRequest, classNameOf(c), name, err)
	}
	fv.Set(rv)
	return nil
}

func (r *Runtime) field(c managed.Class, o managed.Object, name string) (reflect.Value, error) {
	cls, ok := c.(*Class)
	if !ok || cls == nil || !cls.isReference() {
		return reflect.Value{}, fmt.Errorf("class %s has no fields", classNameOf(c))
	}
	obj, ok := o.(*Object)
	if !ok || obj == nil {
		return reflect.Value{}, fmt.Errorf("target is %T, not an object", o)
	}
	if obj.class.typ != cls.typ {
		return reflect.Value{}, fmt.Errorf("object of class %s is not a %s", obj.class.FullName(), cls.FullName())
	}
	sf, ok := cls.typ.FieldByName(name)
	if !ok || !sf.IsExported() {
		return reflect.Value{}, fmt.Errorf("no field %q", name)
	}
	return obj.val.Elem().FieldByIndex(sf.Index), nil
}

func (r *Runtime) fromValue(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Bool:
		return v.Bool()
	case reflect.Uint8:
		return uint8(v.Uint())
	case reflect.Uint16:
		return uint16(v.Uint())
	case reflect.Uint32:
		return uint32(v.Uint())
	case reflect.Uint64, reflect.Uint:
		return v.Uint()
	case reflect.Int8:
		return int8(v.Int())
	case reflect.Int16:
		return int16(v.Int())
	case reflect.Int32:
		return int32(v.Int())
	case reflect.Int64, reflect.Int:
		return v.Int()
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.String:
		return &String{class: r.stringClass, s: v.String()}
	case reflect.Slice:
		if v.IsNil() {
			return nil
		}
		return r.wrapArray(v)
	case reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		if v.Elem().Kind() == reflect.Struct {
			return &Object{class: r.classFor(v.Elem().Type()), val: v}
		}
		return r.fromValue(v.Elem())
	case reflect.Struct:
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		return &Object{class: r.classFor(v.Type()), val: p}
	case reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return r.fromValue(v.Elem())
	case reflect.Invalid:
		return nil
	}
	return v.Interface()
}

func (r *Runtime) fromResult(v reflect.Value) managed.Object {
	switch x := r.fromValue(v).(type) {
	case nil:
		return nil
	case managed.Object:
		return x
	default:
		typ := v.Type()
		if typ.Kind() == reflect.Interface {
			typ = v.Elem().Type()
		}
		return &Box{class: r.classFor(typ), val: reflect.ValueOf(x)}
	}
}

func (r *Runtime) toValue(x any, t reflect.Type) (reflect.Value, error) {
	switch v := x.(type) {
	case nil:
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Interface, reflect.Map, reflect.Func, reflect.Chan:
			return reflect.Zero(t), nil
		}
	case *Object:
		if v == nil {
			return r.toValue(nil, t)
		}
		if v.val.Type().AssignableTo(t) {
			return v.val, nil
		}
		if v.val.Type().Elem() == t {
			return v.val.Elem(), nil
		}
	case *String:
		if v == nil {
			return r.toValue(nil, t)
		}
		if t.Kind() == reflect.String {
			return reflect.ValueOf(v.s).Convert(t), nil
		}
		if reflect.TypeOf(v).AssignableTo(t) {
			return reflect.ValueOf(v), nil
		}
	case *Array:
		if v == nil {
			return r.toValue(nil, t)
		}
		if v.v.Type().AssignableTo(t) {
			return v.v, nil
		}
		if t.Kind() == reflect.Slice && v.v.Type().ConvertibleTo(t) {
			return v.v.Convert(t), nil
		}
	case *Box:
		if v == nil {
			return r.toValue(nil, t)
		}
		return r.toValue(v.val.Interface(), t)
	default:
		rv := reflect.ValueOf(x)
		if rv.Type().AssignableTo(t) {
			return rv, nil
		}
		if rv.Kind() == t.Kind() && rv.Type().ConvertibleTo(t) {
			return rv.Convert(t), nil
		}
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", x, t)
}

func itoa(i int) string {
	return strconv.Itoa(i)
}

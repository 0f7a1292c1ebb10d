package vm

import (
	"reflect"
	"sort"

	"github.com/wippyai/http-bridge/errors"
	"github.com/wippyai/http-bridge/managed"
)

// Assembly is a unit of managed code bundled with the runtime.
type Assembly struct {
	// Load defines the assembly's classes and methods in img.
	Load func(img *Image) error
	Name string
}

// Image is a loaded assembly.
type Image struct {
	rt      *Runtime
	classes map[string]*Class
	name    string
	order   []*Class
}

func newImage(rt *Runtime, name string) *Image {
	return &Image{rt: rt, name: name, classes: make(map[string]*Class)}
}

func (i *Image) Name() string { return i.name }

// DefineClass registers the Go type of sample as namespace.name.
// A pointer sample registers its element type. Defining the same name
// twice returns the existing class.
func (i *Image) DefineClass(namespace, name string, sample any) *Class {
	full := fullName(namespace, name)
	if c, ok := i.classes[full]; ok {
		return c
	}

	typ := reflect.TypeOf(sample)
	for typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}

	c := &Class{ns: namespace, name: name, image: i, typ: typ}
	i.classes[full] = c
	i.order = append(i.order, c)
	i.rt.bindType(typ, c)
	return c
}

// Classes returns the classes of the image in definition order.
func (i *Image) Classes() []*Class {
	out := make([]*Class, len(i.order))
	copy(out, i.order)
	return out
}

// Class is a managed type backed by a Go type.
type Class struct {
	image   *Image
	typ     reflect.Type
	ns      string
	name    string
	statics []*Method
}

func (c *Class) Namespace() string { return c.ns }
func (c *Class) Name() string { return c.name }
func (c *Class) FullName() string { return fullName(c.ns, c.name) }
func (c *Class) Image() managed.Image { return c.image }
func (c *Class) Type() reflect.Type { return c.typ }
func (c *Class) String() string { return c.FullName() }
func (c *Class) isReference() bool { return c.typ != nil && c.typ.Kind() == reflect.Struct }

// DefineStatic registers fn as a static method of c.
func (c *Class) DefineStatic(name string, fn any, attrs ...managed.Attribute) error {
	if name == "" {
		return errors.InvalidInput(errors.PhaseInit, "method name cannot be empty")
	}
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func {
		return errors.New(errors.PhaseInit, errors.KindTypeMismatch).
			Class(c.FullName()).
			Field(name).
			Detail("static method must be a function, got %T", fn).
			Build()
	}

	c.statics = append(c.statics, &Method{
		class:  c,
		fn:     rv,
		name:   name,
		params: rv.Type().NumIn(),
		static: true,
		attrs:  attrs,
	})
	return nil
}

// Methods returns the static methods of c followed by the exported
// instance methods of *T, sorted by name.
func (c *Class) Methods() []*Method {
	out := make([]*Method, 0, len(c.statics))
	out = append(out, c.statics...)
	if c.typ == nil {
		return out
	}

	ptr := reflect.PointerTo(c.typ)
	var inst []*Method
	for i := 0; i < ptr.NumMethod(); i++ {
		inst = append(inst, c.instanceMethod(ptr.Method(i)))
	}
	sort.Slice(inst, func(a, b int) bool { return inst[a].name < inst[b].name })
	return append(out, inst...)
}

func (c *Class) method(name string, numParams int) (*Method, bool) {
	for _, m := range c.statics {
		if m.name == name && m.params == numParams {
			return m, true
		}
	}
	if c.typ == nil {
		return nil, false
	}
	rm, ok := reflect.PointerTo(c.typ).MethodByName(name)
	if !ok || rm.Type.NumIn()-1 != numParams {
		return nil, false
	}
	return c.instanceMethod(rm), true
}

func (c *Class) instanceMethod(rm reflect.Method) *Method {
	return &Method{
		class:  c,
		fn:     rm.Func,
		name:   rm.Name,
		params: rm.Type.NumIn() - 1,
	}
}

// Method is a static function or an instance method of a class.
type Method struct {
	class  *Class
	fn     reflect.Value
	name   string
	attrs  []managed.Attribute
	params int
	static bool
}

func (m *Method) Name() string { return m.name }
func (m *Method) Class() managed.Class { return m.class }
func (m *Method) NumParams() int { return m.params }
func (m *Method) IsStatic() bool { return m.static }
func (m *Method) Attributes() []managed.Attribute { return m.attrs }
func (m *Method) String() string { return m.class.FullName() + "::" + m.name }

func fullName(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}

package vm

import (
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/http-bridge/errors"
	"github.com/wippyai/http-bridge/managed"
)

// CoreLibrary is the name of the built-in image holding System types.
const CoreLibrary = "System.Private.CoreLib"

// Runtime is a reflection-backed managed runtime.
type Runtime struct {
	log         *zap.Logger
	types       map[reflect.Type]*Class
	corlib      *Image
	byteClass   *Class
	stringClass *Class
	assemblies  []Assembly
	images      []*Image
	mu          sync.RWMutex
	registered  bool
	started     bool
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithAssemblies bundles assemblies with the runtime. They are loaded by
// RegisterBundledAssemblies in the order given.
func WithAssemblies(assemblies ...Assembly) Option {
	return func(r *Runtime) {
		r.assemblies = append(r.assemblies, assemblies...)
	}
}

// WithLogger sets the runtime logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runtime) {
		if l != nil {
			r.log = l
		}
	}
}

// New creates a runtime. Only the core library is loaded until
// RegisterBundledAssemblies is called.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		log:   zap.NewNop(),
		types: make(map[reflect.Type]*Class),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.corlib = newImage(r, CoreLibrary)
	r.byteClass = r.corlib.DefineClass("System", "Byte", uint8(0))
	r.stringClass = r.corlib.DefineClass("System", "String", "")
	r.corlib.DefineClass("System", "Boolean", false)
	r.corlib.DefineClass("System", "UInt16", uint16(0))
	r.corlib.DefineClass("System", "UInt32", uint32(0))
	r.corlib.DefineClass("System", "Int32", int32(0))
	r.corlib.DefineClass("System", "Int64", int64(0))
	r.images = []*Image{r.corlib}
	return r
}

// RegisterBundledAssemblies loads every bundled assembly. Calling it again
// is a no-op.
func (r *Runtime) RegisterBundledAssemblies() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.registered {
		return nil
	}
	for _, asm := range r.assemblies {
		if asm.Name == "" {
			return errors.InvalidInput(errors.PhaseInit, "assembly name cannot be empty")
		}
		img := newImage(r, asm.Name)
		if asm.Load != nil {
			if err := asm.Load(img); err != nil {
				return errors.Wrap(errors.PhaseInit, errors.KindInvalidData, err, "load assembly "+asm.Name)
			}
		}
		r.images = append(r.images, img)
		r.log.Debug("assembly registered",
			zap.String("assembly", asm.Name),
			zap.Int("classes", len(img.order)))
	}
	r.registered = true
	return nil
}

// Start brings the runtime up. Assemblies must be registered first.
func (r *Runtime) Start(args ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.registered {
		return errors.NotInitialized(errors.PhaseInit, "assemblies")
	}
	if r.started {
		return nil
	}
	r.started = true
	r.log.Debug("runtime started", zap.Int("images", len(r.images)), zap.Strings("args", args))
	return nil
}

// Images returns the loaded images, core library first.
func (r *Runtime) Images() []managed.Image {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]managed.Image, len(r.images))
	for i, img := range r.images {
		out[i] = img
	}
	return out
}

// Classes lists the classes of img.
func (r *Runtime) Classes(img managed.Image) []managed.Class {
	im, ok := img.(*Image)
	if !ok {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]managed.Class, len(im.order))
	for i, c := range im.order {
		out[i] = c
	}
	return out
}

// Methods lists the methods of c.
func (r *Runtime) Methods(c managed.Class) []managed.Method {
	cls, ok := c.(*Class)
	if !ok {
		return nil
	}
	methods := cls.Methods()
	out := make([]managed.Method, len(methods))
	for i, m := range methods {
		out[i] = m
	}
	return out
}

func (r *Runtime) ClassFromName(img managed.Image, namespace, name string) (managed.Class, bool) {
	im, ok := img.(*Image)
	if !ok || im == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := im.classes[fullName(namespace, name)]
	if !ok {
		return nil, false
	}
	return c, true
}

func (r *Runtime) MethodFromName(c managed.Class, name string, numParams int) (managed.Method, bool) {
	cls, ok := c.(*Class)
	if !ok || cls == nil {
		return nil, false
	}
	m, ok := cls.method(name, numParams)
	if !ok {
		return nil, false
	}
	return m, true
}

func (r *Runtime) ByteClass() managed.Class { return r.byteClass }

// NewObject allocates a zeroed instance of a struct class.
func (r *Runtime) NewObject(c managed.Class) (managed.Object, error) {
	cls, ok := c.(*Class)
	if !ok || cls == nil || !cls.isReference() {
		return nil, errors.New(errors.PhaseInvoke, errors.KindTypeMismatch).
			Class(classNameOf(c)).
			Detail("class is not instantiable").
			Build()
	}
	return &Object{class: cls, val: reflect.New(cls.typ)}, nil
}

// InitObject runs Init() on o when its type defines one.
func (r *Runtime) InitObject(o managed.Object) (err error) {
	obj, ok := o.(*Object)
	if !ok || obj == nil {
		return errors.InvalidInput(errors.PhaseInvoke, "constructor target is not an object")
	}
	init, ok := obj.val.Interface().(interface{ Init() })
	if !ok {
		return nil
	}

	defer func() {
		if p := recover(); p != nil {
			err = r.exception(p)
		}
	}()
	init.Init()
	return nil
}

func (r *Runtime) NewString(s string) managed.Object {
	return &String{class: r.stringClass, s: s}
}

func (r *Runtime) StringValue(o managed.Object) (string, error) {
	switch v := o.(type) {
	case *String:
		if v == nil {
			return "", errors.NullResult(errors.PhaseResponse, "string value")
		}
		return v.s, nil
	case nil:
		return "", errors.NullResult(errors.PhaseResponse, "string value")
	default:
		return "", errors.TypeMismatch(errors.PhaseResponse, classNameOf(o.Class()), "", "System.String", fmt.Sprintf("%T", o))
	}
}

// NewArray allocates an array of n elements of class elem.
func (r *Runtime) NewArray(elem managed.Class, n int) (managed.Array, error) {
	cls, ok := elem.(*Class)
	if !ok || cls == nil || cls.typ == nil {
		return nil, errors.InvalidInput(errors.PhaseInvoke, "array element class is not a runtime class")
	}
	if n < 0 {
		return nil, errors.Overflow(errors.PhaseInvoke, nil, n, "non-negative array length")
	}
	et := cls.typ
	if cls.isReference() {
		et = reflect.PointerTo(et)
	}
	return r.wrapArray(reflect.MakeSlice(reflect.SliceOf(et), n, n)), nil
}

// Invoke calls m with this as receiver for instance methods.
func (r *Runtime) Invoke(m managed.Method, this managed.Object, args ...any) (result managed.Object, err error) {
	meth, ok := m.(*Method)
	if !ok || meth == nil {
		return nil, errors.InvalidInput(errors.PhaseInvoke, "method is not a runtime method")
	}

	ft := meth.fn.Type()
	in := make([]reflect.Value, 0, ft.NumIn())
	if !meth.static {
		if this == nil {
			return nil, errors.InvalidInput(errors.PhaseInvoke, "instance method "+meth.String()+" called without receiver")
		}
		recv, err := r.toValue(this, ft.In(0))
		if err != nil {
			return nil, errors.Wrap(errors.PhaseInvoke, errors.KindTypeMismatch, err, "receiver")
		}
		in = append(in, recv)
	}
	if len(in)+len(args) != ft.NumIn() {
		return nil, errors.InvalidInput(errors.PhaseInvoke,
			fmt.Sprintf("%s takes %d arguments, got %d", meth, meth.params, len(args)))
	}
	for _, arg := range args {
		v, err := r.toValue(arg, ft.In(len(in)))
		if err != nil {
			return nil, errors.Wrap(errors.PhaseInvoke, errors.KindTypeMismatch, err, "argument")
		}
		in = append(in, v)
	}

	defer func() {
		if p := recover(); p != nil {
			result = nil
			err = r.exception(p)
		}
	}()

	out := meth.fn.Call(in)
	if n := len(out); n > 0 && ft.Out(n-1) == errorType {
		if e := out[n-1]; !e.IsNil() {
			return nil, r.exception(e.Interface())
		}
		out = out[:n-1]
	}
	if len(out) == 0 {
		return nil, nil
	}
	return r.fromResult(out[0]), nil
}

// ToString renders o the way managed code would print it.
func (r *Runtime) ToString(o managed.Object) string {
	switch v := o.(type) {
	case nil:
		return ""
	case *String:
		return v.s
	case *Object:
		return render(v.val)
	case *Box:
		return render(v.val)
	case *Array:
		return v.class.FullName()
	default:
		return fmt.Sprint(o)
	}
}

func (r *Runtime) exception(v any) *managed.Exception {
	var msg string
	switch e := v.(type) {
	case error:
		msg = e.Error()
	case fmt.Stringer:
		msg = e.String()
	default:
		msg = fmt.Sprint(v)
	}
	r.log.Debug("managed exception", zap.String("message", msg))
	return &managed.Exception{Value: v, Object: r.thrown(v), Message: msg}
}

// thrown wraps a panic or error value as the exception object. Errors are
// boxed so ToString renders their Error text.
func (r *Runtime) thrown(v any) managed.Object {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if _, ok := v.(error); ok {
		return &Box{class: r.classFor(rv.Type()), val: rv}
	}
	return r.fromResult(rv)
}

func (r *Runtime) bindType(typ reflect.Type, c *Class) {
	if typ == nil {
		return
	}
	if _, ok := r.types[typ]; !ok {
		r.types[typ] = c
	}
}

// classFor returns the class bound to typ, synthesizing one in the core
// library for types no assembly defined.
func (r *Runtime) classFor(typ reflect.Type) *Class {
	r.mu.RLock()
	c, ok := r.types[typ]
	r.mu.RUnlock()
	if ok {
		return c
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.types[typ]; ok {
		return c
	}
	name := typ.Name()
	if name == "" {
		name = typ.String()
	}
	c = &Class{ns: typ.PkgPath(), name: name, image: r.corlib, typ: typ}
	r.types[typ] = c
	return c
}

var errorType = reflect.TypeFor[error]()

func render(v reflect.Value) string {
	if !v.IsValid() || (v.Kind() == reflect.Pointer && v.IsNil()) {
		return ""
	}
	if e, ok := v.Interface().(error); ok {
		return e.Error()
	}
	if s, ok := v.Interface().(fmt.Stringer); ok {
		return s.String()
	}
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	return fmt.Sprint(v.Interface())
}

func classNameOf(c managed.Class) string {
	if c == nil {
		return ""
	}
	return c.FullName()
}

var (
	_ managed.Runtime = (*Runtime)(nil)
	_ managed.Image   = (*Image)(nil)
	_ managed.Class   = (*Class)(nil)
	_ managed.Method  = (*Method)(nil)
)

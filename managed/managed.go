package managed

// Image is a loaded assembly.
type Image interface {
	Name() string
}

// Class is a managed type.
type Class interface {
	Namespace() string
	Name() string
	// FullName is Namespace + "." + Name, or Name when the namespace is empty.
	FullName() string
	Image() Image
}

// Attribute is a custom attribute attached to a method.
type Attribute struct {
	Properties map[string]string
	// Type is the full name of the attribute class.
	Type string
}

// Property returns a named attribute property.
func (a Attribute) Property(name string) (string, bool) {
	v, ok := a.Properties[name]
	return v, ok
}

// Method is a managed method.
type Method interface {
	Name() string
	Class() Class
	NumParams() int
	IsStatic() bool
	Attributes() []Attribute
}

// Object is any managed value that has a class.
type Object interface {
	Class() Class
}

// Array is a managed single-dimension array.
type Array interface {
	Object
	Len() int
	Get(i int) (any, error)
	Set(i int, v any) error
	// CopyFrom copies raw bytes into a byte array starting at offset.
	CopyFrom(offset int, data []byte) error
	// Bytes returns a copy of a byte array's contents.
	Bytes() ([]byte, error)
}

// FieldAccessor reads and writes instance fields by name.
// Errors are *errors.Error with KindGetter or KindSetter.
type FieldAccessor interface {
	GetField(c Class, o Object, name string) (any, error)
	SetField(c Class, o Object, name string, v any) error
}

// Runtime is a managed object runtime.
type Runtime interface {
	FieldAccessor

	RegisterBundledAssemblies() error
	Start(args ...string) error
	Images() []Image

	// NewObject allocates an instance without running its constructor.
	NewObject(c Class) (Object, error)
	// InitObject runs the default constructor of o.
	InitObject(o Object) error

	NewString(s string) Object
	StringValue(o Object) (string, error)
	NewArray(elem Class, n int) (Array, error)
	ByteClass() Class

	ClassFromName(img Image, namespace, name string) (Class, bool)
	MethodFromName(c Class, name string, numParams int) (Method, bool)

	// Invoke calls m. this is nil for static methods. A fault raised by
	// managed code is returned as *Exception.
	Invoke(m Method, this Object, args ...any) (Object, error)
	ToString(o Object) string
}

// Exception is a fault thrown by managed code.
type Exception struct {
	Value any
	// Object is the thrown value as a managed object; nil for a null throw.
	Object Object
	// Message is the exception text as the runtime rendered it when caught.
	Message string
}

func (e *Exception) Error() string {
	return e.Message
}

// AsException reports whether err is a managed exception.
func AsException(err error) (*Exception, bool) {
	exc, ok := err.(*Exception)
	return exc, ok
}

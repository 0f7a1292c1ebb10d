// Package entrypoint locates the application's request handler inside a
// managed runtime.
//
// The handler is the single static method carrying the handler attribute.
// The request builder class is looked up by name in the image that defines
// the attribute.
package entrypoint

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/http-bridge/managed"
)

// Catalog enumerates the loaded code of a runtime.
type Catalog interface {
	Images() []managed.Image
	Classes(img managed.Image) []managed.Class
	Methods(c managed.Class) []managed.Method
	ClassFromName(img managed.Image, namespace, name string) (managed.Class, bool)
}

// EntryPoint is the result of a successful resolution.
type EntryPoint struct {
	Handler      managed.Method
	BuilderClass managed.Class
	// Image defines the attribute and the builder class.
	Image managed.Image
	// Attribute is the handler attribute instance on Handler.
	Attribute managed.Attribute
}

// ErrorKind classifies resolution failures.
type ErrorKind uint8

const (
	// NoHandlerMethod means no method carries the handler attribute.
	NoHandlerMethod ErrorKind = iota + 1
	// Ambiguous means more than one method carries it.
	Ambiguous
	// LoadFailed covers everything else: missing attribute or builder
	// class, or a handler with the wrong shape.
	LoadFailed
)

func (k ErrorKind) String() string {
	switch k {
	case NoHandlerMethod:
		return "no_handler_method"
	case Ambiguous:
		return "ambiguous"
	case LoadFailed:
		return "load_failed"
	default:
		return "unknown"
	}
}

// Error is a resolution failure.
type Error struct {
	Detail string
	Kind   ErrorKind
}

func (e *Error) Error() string {
	return "entrypoint: " + e.Kind.String() + ": " + e.Detail
}

// Is matches on Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// IsNoHandlerMethod reports whether err, or any error it wraps, means no
// handler method exists.
func IsNoHandlerMethod(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == NoHandlerMethod
}

// Resolver finds entry points in a catalog.
type Resolver struct {
	catalog Catalog
	log     *zap.Logger
}

// New creates a resolver over catalog.
func New(catalog Catalog) *Resolver {
	return &Resolver{catalog: catalog, log: Logger()}
}

// Resolve finds the static method annotated with attributeType, the full
// name of the attribute class, and the builder class named interopType in
// the attribute's namespace.
func (r *Resolver) Resolve(attributeType, interopType string) (*EntryPoint, error) {
	img, attrClass, ok := r.findClass(attributeType)
	if !ok {
		return nil, &Error{Kind: LoadFailed, Detail: fmt.Sprintf("attribute class %s not loaded", attributeType)}
	}

	var (
		handler managed.Method
		attr    managed.Attribute
		found   []string
	)
	for _, im := range r.catalog.Images() {
		for _, c := range r.catalog.Classes(im) {
			for _, m := range r.catalog.Methods(c) {
				if !m.IsStatic() {
					continue
				}
				a, ok := attributeOf(m, attributeType)
				if !ok {
					continue
				}
				if handler == nil {
					handler, attr = m, a
				}
				found = append(found, c.FullName()+"::"+m.Name())
			}
		}
	}

	switch len(found) {
	case 0:
		return nil, &Error{Kind: NoHandlerMethod, Detail: "no static method has " + attributeType}
	case 1:
	default:
		return nil, &Error{Kind: Ambiguous, Detail: strings.Join(found, ", ")}
	}

	if handler.NumParams() != 1 {
		return nil, &Error{
			Kind:   LoadFailed,
			Detail: fmt.Sprintf("handler %s takes %d parameters, want 1", found[0], handler.NumParams()),
		}
	}

	builder, ok := r.catalog.ClassFromName(img, attrClass.Namespace(), interopType)
	if !ok {
		return nil, &Error{
			Kind:   LoadFailed,
			Detail: fmt.Sprintf("builder class %s not found in %s", interopType, img.Name()),
		}
	}

	r.log.Debug("entry point resolved",
		zap.String("handler", found[0]),
		zap.String("builder", builder.FullName()),
		zap.String("image", img.Name()))

	return &EntryPoint{
		Handler:      handler,
		BuilderClass: builder,
		Image:        img,
		Attribute:    attr,
	}, nil
}

func (r *Resolver) findClass(fullName string) (managed.Image, managed.Class, bool) {
	for _, img := range r.catalog.Images() {
		for _, c := range r.catalog.Classes(img) {
			if c.FullName() == fullName {
				return img, c, true
			}
		}
	}
	return nil, nil, false
}

func attributeOf(m managed.Method, attributeType string) (managed.Attribute, bool) {
	for _, a := range m.Attributes() {
		if a.Type == attributeType {
			return a, true
		}
	}
	return managed.Attribute{}, false
}

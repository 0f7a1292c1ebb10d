package bridge

import (
	"strconv"

	"github.com/wippyai/http-bridge/errors"
	"github.com/wippyai/http-bridge/managed"
	"github.com/wippyai/http-bridge/wire"
)

// RequestConverter turns a wire request into the managed domain request.
type RequestConverter struct {
	rt        managed.Runtime
	namespace string
	pairType  string
}

// NewRequestConverter creates a converter that resolves the pair class
// namespace.pairType in the builder's image.
func NewRequestConverter(rt managed.Runtime, namespace, pairType string) *RequestConverter {
	return &RequestConverter{rt: rt, namespace: namespace, pairType: pairType}
}

// Convert populates a new builderClass instance from req and returns the
// result of its Build method. Absent headers, params and body become
// zero-length arrays. Fields are set in order and the first failure aborts.
func (c *RequestConverter) Convert(img managed.Image, builderClass managed.Class, req wire.Request) (managed.Object, error) {
	builder, err := c.newObject(builderClass)
	if err != nil {
		return nil, err
	}

	pairClass, ok := c.rt.ClassFromName(img, c.namespace, c.pairType)
	if !ok {
		return nil, errors.ConversionNotFound(errors.PhaseRequest, "class", fullName(c.namespace, c.pairType))
	}

	if err := builderMethod.Set(c.rt, builderClass, builder, uint8(req.Method)); err != nil {
		return nil, setterError(builderClass, builderMethod.Name, err)
	}
	if err := builderURI.Set(c.rt, builderClass, builder, c.rt.NewString(req.URI)); err != nil {
		return nil, setterError(builderClass, builderURI.Name, err)
	}

	headers, err := c.pairArray(pairClass, req.Headers.Val, "headers")
	if err != nil {
		return nil, err
	}
	if err := builderHeaders.Set(c.rt, builderClass, builder, headers); err != nil {
		return nil, setterError(builderClass, builderHeaders.Name, err)
	}

	params, err := c.pairArray(pairClass, req.Params.Val, "params")
	if err != nil {
		return nil, err
	}
	if err := builderParameters.Set(c.rt, builderClass, builder, params); err != nil {
		return nil, setterError(builderClass, builderParameters.Name, err)
	}

	body, err := c.byteArray(req.Body.Val)
	if err != nil {
		return nil, err
	}
	if err := builderBody.Set(c.rt, builderClass, builder, body); err != nil {
		return nil, setterError(builderClass, builderBody.Name, err)
	}

	build, ok := c.rt.MethodFromName(builderClass, buildMethod, 0)
	if !ok {
		return nil, errors.ConversionNotFound(errors.PhaseRequest, "method", builderClass.FullName()+"."+buildMethod)
	}
	obj, err := c.rt.Invoke(build, builder)
	if err != nil {
		return nil, errors.ConversionException(errors.PhaseRequest, buildMethod, err)
	}
	if obj == nil {
		return nil, errors.NullResult(errors.PhaseRequest, buildMethod)
	}
	return obj, nil
}

// newObject allocates and default-constructs an instance of cls.
func (c *RequestConverter) newObject(cls managed.Class) (managed.Object, error) {
	obj, err := c.rt.NewObject(cls)
	if err != nil || obj == nil {
		return nil, errors.New(errors.PhaseRequest, errors.KindNotFound).
			Class(className(cls)).
			Detail("cannot allocate instance").
			Cause(err).
			Build()
	}
	if err := c.rt.InitObject(obj); err != nil {
		return nil, errors.ConversionException(errors.PhaseRequest, className(cls)+" constructor", err)
	}
	return obj, nil
}

func (c *RequestConverter) pairArray(pairClass managed.Class, pairs wire.Pairs, name string) (managed.Array, error) {
	arr, err := c.rt.NewArray(pairClass, len(pairs))
	if err != nil {
		return nil, errors.New(errors.PhaseRequest, errors.KindAllocation).
			Path(name).
			Class(className(pairClass)).
			Cause(err).
			Build()
	}

	for i, kv := range pairs {
		pair, err := c.newObject(pairClass)
		if err != nil {
			return nil, err
		}
		if err := pairKey.Set(c.rt, pairClass, pair, c.rt.NewString(kv.Key)); err != nil {
			return nil, setterError(pairClass, pairKey.Name, err)
		}
		if err := pairValue.Set(c.rt, pairClass, pair, c.rt.NewString(kv.Value)); err != nil {
			return nil, setterError(pairClass, pairValue.Name, err)
		}
		if err := arr.Set(i, pair); err != nil {
			return nil, errors.New(errors.PhaseRequest, errors.KindSetter).
				Path(name, strconv.Itoa(i)).
				Class(className(arr.Class())).
				Cause(err).
				Build()
		}
	}
	return arr, nil
}

func (c *RequestConverter) byteArray(data []byte) (managed.Array, error) {
	arr, err := c.rt.NewArray(c.rt.ByteClass(), len(data))
	if err != nil {
		return nil, errors.New(errors.PhaseRequest, errors.KindAllocation).Path("body").Cause(err).Build()
	}
	if err := arr.CopyFrom(0, data); err != nil {
		return nil, errors.New(errors.PhaseRequest, errors.KindSetter).Path("body").Cause(err).Build()
	}
	return arr, nil
}

func setterError(cls managed.Class, field string, err error) error {
	if e, ok := err.(*errors.Error); ok && e.Kind == errors.KindSetter {
		return e
	}
	return errors.SetterFailed(errors.PhaseRequest, className(cls), field, err)
}

func className(c managed.Class) string {
	if c == nil {
		return ""
	}
	return c.FullName()
}

func fullName(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}

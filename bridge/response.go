package bridge

import (
	"strconv"

	"github.com/wippyai/http-bridge/errors"
	"github.com/wippyai/http-bridge/managed"
	"github.com/wippyai/http-bridge/wire"
)

// Statuses outside this range are rejected.
const (
	minStatus = 100
	maxStatus = 599
)

// ResponseConverter turns a managed domain response into a wire response.
type ResponseConverter struct {
	rt managed.Runtime
}

// NewResponseConverter creates a response converter.
func NewResponseConverter(rt managed.Runtime) *ResponseConverter {
	return &ResponseConverter{rt: rt}
}

// Convert calls ToInterop on resp and reads the interop fields. Zero-length
// header and body arrays become absent. Any failure aborts the whole
// conversion.
func (c *ResponseConverter) Convert(resp managed.Object) (wire.Response, error) {
	interop, err := c.toInterop(resp)
	if err != nil {
		return wire.Response{}, err
	}
	return c.fromInterop(interop)
}

func (c *ResponseConverter) toInterop(resp managed.Object) (managed.Object, error) {
	if resp == nil {
		return nil, errors.NullResult(errors.PhaseResponse, "handler")
	}
	cls := resp.Class()
	if cls == nil {
		return nil, errors.ConversionNotFound(errors.PhaseResponse, "class", "response")
	}
	m, ok := c.rt.MethodFromName(cls, toInteropMethod, 0)
	if !ok {
		return nil, errors.ConversionNotFound(errors.PhaseResponse, "method", cls.FullName()+"."+toInteropMethod)
	}
	interop, err := c.rt.Invoke(m, resp)
	if err != nil {
		return nil, errors.ConversionException(errors.PhaseResponse, toInteropMethod, err)
	}
	if interop == nil {
		return nil, errors.NullResult(errors.PhaseResponse, toInteropMethod)
	}
	return interop, nil
}

func (c *ResponseConverter) fromInterop(interop managed.Object) (wire.Response, error) {
	var out wire.Response
	cls := interop.Class()

	status, err := interopStatus.Get(c.rt, cls, interop)
	if err != nil {
		return out, getterError(cls, interopStatus.Name, err)
	}
	if status < minStatus || status > maxStatus {
		return out, errors.New(errors.PhaseResponse, errors.KindInvalidData).
			Class(className(cls)).
			Field(interopStatus.Name).
			Value(status).
			Detail("status %d outside [%d, %d]", status, minStatus, maxStatus).
			Build()
	}
	out.Status = status

	headers, err := interopHeaders.Get(c.rt, cls, interop)
	if err != nil {
		return out, getterError(cls, interopHeaders.Name, err)
	}
	if out.Headers, err = c.pairs(headers); err != nil {
		return wire.Response{}, err
	}

	body, err := interopBody.Get(c.rt, cls, interop)
	if err != nil {
		return wire.Response{}, getterError(cls, interopBody.Name, err)
	}
	if body != nil && body.Len() > 0 {
		data, err := body.Bytes()
		if err != nil {
			return wire.Response{}, getterError(cls, interopBody.Name, err)
		}
		out.Body = wire.Some(data)
	}
	return out, nil
}

// pairs reads a pair array. The pair class is taken from the first element.
func (c *ResponseConverter) pairs(arr managed.Array) (wire.Option[wire.Pairs], error) {
	none := wire.None[wire.Pairs]()
	if arr == nil || arr.Len() == 0 {
		return none, nil
	}

	first, err := c.element(arr, 0)
	if err != nil {
		return none, err
	}
	pairClass := first.Class()
	if pairClass == nil {
		return none, errors.ConversionNotFound(errors.PhaseResponse, "class", "header pair")
	}

	out := make(wire.Pairs, arr.Len())
	for i := range out {
		pair, err := c.element(arr, i)
		if err != nil {
			return none, err
		}
		if out[i].Key, err = c.text(pairClass, pair, pairKey); err != nil {
			return none, err
		}
		if out[i].Value, err = c.text(pairClass, pair, pairValue); err != nil {
			return none, err
		}
	}
	return wire.Some(out), nil
}

func (c *ResponseConverter) element(arr managed.Array, i int) (managed.Object, error) {
	v, err := arr.Get(i)
	if err != nil {
		return nil, errors.New(errors.PhaseResponse, errors.KindGetter).
			Path("headers", strconv.Itoa(i)).
			Cause(err).
			Build()
	}
	obj, ok := v.(managed.Object)
	if !ok || obj == nil {
		return nil, errors.New(errors.PhaseResponse, errors.KindNotFound).
			Path("headers", strconv.Itoa(i)).
			Detail("null header pair").
			Build()
	}
	return obj, nil
}

func (c *ResponseConverter) text(cls managed.Class, obj managed.Object, f managed.Field[managed.Object]) (string, error) {
	v, err := f.Get(c.rt, cls, obj)
	if err != nil {
		return "", getterError(cls, f.Name, err)
	}
	s, err := c.rt.StringValue(v)
	if err != nil {
		return "", getterError(cls, f.Name, err)
	}
	return s, nil
}

func getterError(cls managed.Class, field string, err error) error {
	if e, ok := err.(*errors.Error); ok && e.Kind == errors.KindGetter {
		return e
	}
	return errors.GetterFailed(errors.PhaseResponse, className(cls), field, err)
}

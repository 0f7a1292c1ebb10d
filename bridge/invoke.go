package bridge

import (
	"github.com/wippyai/http-bridge/errors"
	"github.com/wippyai/http-bridge/managed"
)

// Invoker calls the user handler.
type Invoker struct {
	rt managed.Runtime
}

// NewInvoker creates an invoker.
func NewInvoker(rt managed.Runtime) *Invoker {
	return &Invoker{rt: rt}
}

// Invoke calls handler with request as its only argument. A managed
// exception comes back as KindInvocation with the exception object rendered
// by the runtime's ToString as Detail and the *managed.Exception as Cause.
// A nil response is KindNullResult.
func (i *Invoker) Invoke(handler managed.Method, request managed.Object) (managed.Object, error) {
	resp, err := i.rt.Invoke(handler, nil, request)
	if err != nil {
		if exc, ok := managed.AsException(err); ok {
			return nil, errors.New(errors.PhaseInvoke, errors.KindInvocation).
				Detail("%s", i.render(exc)).
				Cause(exc).
				Build()
		}
		return nil, errors.Invocation(err)
	}
	if resp == nil {
		return nil, errors.NullResult(errors.PhaseInvoke, handler.Name())
	}
	return resp, nil
}

func (i *Invoker) render(exc *managed.Exception) string {
	if exc.Object != nil {
		if text := i.rt.ToString(exc.Object); text != "" {
			return text
		}
	}
	return exc.Message
}

package bridge

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/wippyai/http-bridge/entrypoint"
	"github.com/wippyai/http-bridge/managed"
	"github.com/wippyai/http-bridge/managed/vm"
	"github.com/wippyai/http-bridge/sdk"
	"github.com/wippyai/http-bridge/wire"
)

type handlers struct{}

// oddResponse has a ToInterop that produces a malformed header array.
type oddResponse struct {
	Headers []*sdk.StringPair
	Status  uint16
}

func (r *oddResponse) ToInterop() *sdk.HttpResponseInterop {
	return &sdk.HttpResponseInterop{Status: r.Status, Headers: r.Headers}
}

type nilInterop struct{}

func (*nilInterop) ToInterop() *sdk.HttpResponseInterop { return nil }

// recorder captures the requests a handler received.
type recorder struct {
	reqs []*sdk.HttpRequest
	mu   sync.Mutex
}

func (r *recorder) add(req *sdk.HttpRequest) {
	r.mu.Lock()
	r.reqs = append(r.reqs, req)
	r.mu.Unlock()
}

func (r *recorder) urls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.reqs))
	for i, req := range r.reqs {
		out[i] = req.Url
	}
	return out
}

func (r *recorder) last() *sdk.HttpRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.reqs) == 0 {
		return nil
	}
	return r.reqs[len(r.reqs)-1]
}

func echo(req *sdk.HttpRequest) *sdk.HttpResponse {
	resp := &sdk.HttpResponse{Status: 200, Body: req.Body}
	for _, kv := range req.Headers {
		resp.SetHeader(kv.Key, kv.Value)
	}
	return resp
}

// appAssembly defines App.Handlers::Handle carrying the handler attribute.
func appAssembly(handler any, attr sdk.HttpHandlerAttribute) vm.Assembly {
	return vm.Assembly{
		Name: "App",
		Load: func(img *vm.Image) error {
			img.DefineClass("App", "OddResponse", oddResponse{})
			img.DefineClass("App", "NilInterop", nilInterop{})
			cls := img.DefineClass("App", "Handlers", handlers{})
			if handler == nil {
				return nil
			}
			return cls.DefineStatic("Handle", handler, attr.Attribute())
		},
	}
}

type spyRuntime struct {
	*vm.Runtime
	registers   atomic.Int32
	starts      atomic.Int32
	panicInvoke atomic.Bool
}

func (s *spyRuntime) RegisterBundledAssemblies() error {
	s.registers.Add(1)
	return s.Runtime.RegisterBundledAssemblies()
}

func (s *spyRuntime) Start(args ...string) error {
	s.starts.Add(1)
	return s.Runtime.Start(args...)
}

func (s *spyRuntime) Invoke(m managed.Method, this managed.Object, args ...any) (managed.Object, error) {
	if s.panicInvoke.Load() && m.Name() == "Handle" {
		panic("runtime fault")
	}
	return s.Runtime.Invoke(m, this, args...)
}

type spyResolver struct {
	inner Resolver
	err   error
	calls atomic.Int32
}

func (s *spyResolver) Resolve(attributeType, interopType string) (*entrypoint.EntryPoint, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.inner.Resolve(attributeType, interopType)
}

type fixture struct {
	rt       *spyRuntime
	resolver *spyResolver
	d        *Dispatcher
}

func newFixture(t *testing.T, handler any, attr sdk.HttpHandlerAttribute, opts ...Option) *fixture {
	t.Helper()
	rt := &spyRuntime{Runtime: vm.New(vm.WithAssemblies(sdk.Assembly(), appAssembly(handler, attr)))}
	res := &spyResolver{inner: entrypoint.New(rt.Runtime)}
	return &fixture{rt: rt, resolver: res, d: New(rt, res, opts...)}
}

func body(resp wire.Response) string {
	return string(resp.Body.Val)
}

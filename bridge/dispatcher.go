package bridge

import (
	stderrors "errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/http-bridge/entrypoint"
	"github.com/wippyai/http-bridge/errors"
	"github.com/wippyai/http-bridge/managed"
	"github.com/wippyai/http-bridge/wire"
)

// Diagnostic bodies of 500 responses.
const (
	MsgNoHandler          = "Assembly does not contain a method with HttpHandlerAttribute"
	MsgLoadFailed         = "Internal error loading HTTP handler"
	MsgRequestConversion  = "Internal error converting request to managed object"
	MsgNoResponse         = "Handler returned no response"
	MsgResponseConversion = "Internal error converting response from managed object"
	MsgInvokeFailed       = "Internal error invoking HTTP handler"
	MsgReadRequest        = "Internal error reading request"
)

// Resolver locates the handler entry point.
type Resolver interface {
	Resolve(attributeType, interopType string) (*entrypoint.EntryPoint, error)
}

// Config names the managed types the bridge binds to.
type Config struct {
	// AttributeType is the full name of the handler attribute class.
	AttributeType string `mapstructure:"attribute_type" validate:"required"`
	// InteropType is the builder class name, looked up in the attribute's namespace.
	InteropType string `mapstructure:"interop_type" validate:"required"`
	// Namespace and PairType name the header/parameter pair class.
	Namespace string `mapstructure:"namespace" validate:"required"`
	PairType  string `mapstructure:"pair_type" validate:"required"`
	// WarmupURI is used when the handler attribute has no WarmupProperty.
	WarmupURI      string `mapstructure:"warmup_uri" validate:"required,startswith=/"`
	WarmupProperty string `mapstructure:"warmup_property"`
}

// DefaultConfig returns the SDK bindings.
func DefaultConfig() Config {
	return Config{
		AttributeType:  "Spin.Sdk.HttpHandlerAttribute",
		InteropType:    "HttpRequestInterop",
		Namespace:      "Spin.Sdk",
		PairType:       "StringPair",
		WarmupURI:      "/",
		WarmupProperty: "WarmupUrl",
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.AttributeType == "" {
		c.AttributeType = d.AttributeType
	}
	if c.InteropType == "" {
		c.InteropType = d.InteropType
	}
	if c.Namespace == "" {
		c.Namespace = d.Namespace
	}
	if c.PairType == "" {
		c.PairType = d.PairType
	}
	if c.WarmupURI == "" {
		c.WarmupURI = d.WarmupURI
	}
	if c.WarmupProperty == "" {
		c.WarmupProperty = d.WarmupProperty
	}
	return c
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithConfig overrides the type bindings. Empty fields keep their defaults.
func WithConfig(cfg Config) Option {
	return func(d *Dispatcher) {
		d.cfg = cfg.withDefaults()
	}
}

// WithLogger sets the dispatcher logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// Dispatcher is the inbound request entry point. It initializes the
// runtime on first use, then runs each request through conversion,
// invocation and response conversion.
//
// A Dispatcher serves one request at a time; callers serialize Handle.
// Initialization alone is guarded and safe to race.
type Dispatcher struct {
	rt        managed.Runtime
	resolver  Resolver
	log       *zap.Logger
	requests  *RequestConverter
	invoker   *Invoker
	responses *ResponseConverter
	cache     cache
	cfg       Config
}

// New creates a dispatcher over rt, resolving the handler with resolver.
func New(rt managed.Runtime, resolver Resolver, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		rt:       rt,
		resolver: resolver,
		log:      Logger(),
		cfg:      DefaultConfig(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.requests = NewRequestConverter(rt, d.cfg.Namespace, d.cfg.PairType)
	d.invoker = NewInvoker(rt)
	d.responses = NewResponseConverter(rt)
	return d
}

// Config returns the active type bindings.
func (d *Dispatcher) Config() Config { return d.cfg }

// State returns the initialization state.
func (d *Dispatcher) State() State { return d.cache.current() }

// Prewarm initializes the dispatcher if it has not been already. It is
// idempotent and safe to call concurrently.
func (d *Dispatcher) Prewarm() {
	d.ensure()
}

// Handle serves one request. It never panics and always returns a status
// in [100, 599]; failures are 500 responses with a diagnostic body and no
// headers.
func (d *Dispatcher) Handle(req wire.Request) (resp wire.Response) {
	defer func() {
		if p := recover(); p != nil {
			d.log.Error("panic while handling request",
				zap.Any("panic", p),
				zap.Stringer("method", req.Method),
				zap.String("uri", req.URI))
			resp = wire.InternalError(MsgInvokeFailed)
		}
	}()

	e, failure := d.ensure()
	if failure != "" {
		return wire.InternalError(failure)
	}
	return d.run(e, req)
}

// ensure drives the state machine to Ready or Failed and returns the
// cached entry, or the sticky failure message.
func (d *Dispatcher) ensure() (entry, string) {
	c := &d.cache
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateReady:
		return c.entry, ""
	case StateFailed:
		return entry{}, c.failure
	}

	c.state = StateInitializing
	e, failure, cause := d.initialize()
	if failure != "" {
		c.failure, c.cause = failure, cause
		c.state = StateFailed
		d.log.Error("handler initialization failed", zap.String("reason", failure), zap.Error(cause))
		return entry{}, failure
	}

	d.warmup(e)
	c.entry = e
	c.state = StateReady
	d.log.Info("handler ready",
		zap.String("handler", e.handler.Class().FullName()+"::"+e.handler.Name()),
		zap.String("builder", e.builderClass.FullName()))
	return e, ""
}

func (d *Dispatcher) initialize() (e entry, failure string, cause error) {
	defer func() {
		if p := recover(); p != nil {
			e, failure, cause = entry{}, MsgLoadFailed, fmt.Errorf("panic during initialization: %v", p)
		}
	}()

	if err := d.rt.RegisterBundledAssemblies(); err != nil {
		return entry{}, MsgLoadFailed, errors.Wrap(errors.PhaseInit, errors.KindInvalidData, err, "register assemblies")
	}
	if err := d.rt.Start(); err != nil {
		return entry{}, MsgLoadFailed, errors.Wrap(errors.PhaseInit, errors.KindInvalidData, err, "start runtime")
	}

	ep, err := d.resolver.Resolve(d.cfg.AttributeType, d.cfg.InteropType)
	if err != nil {
		if entrypoint.IsNoHandlerMethod(err) {
			return entry{}, MsgNoHandler, errors.Resolve("no handler method", err)
		}
		return entry{}, MsgLoadFailed, errors.Resolve("resolve entry point", err)
	}
	if ep == nil || ep.Handler == nil || ep.BuilderClass == nil {
		return entry{}, MsgLoadFailed, errors.Resolve("incomplete entry point", nil)
	}

	uri := d.cfg.WarmupURI
	if v, ok := ep.Attribute.Property(d.cfg.WarmupProperty); ok && v != "" {
		uri = v
	}
	return entry{
		handler:      ep.Handler,
		builderClass: ep.BuilderClass,
		image:        ep.Image,
		warmupURI:    uri,
	}, "", nil
}

// warmup runs one synthetic GET through the pipeline. Its outcome does not
// affect the state.
func (d *Dispatcher) warmup(e entry) {
	defer func() {
		if p := recover(); p != nil {
			d.log.Warn("warm-up request panicked", zap.Any("panic", p))
		}
	}()
	resp := d.run(e, wire.Request{Method: wire.MethodGet, URI: e.warmupURI})
	d.log.Debug("warm-up request completed",
		zap.String("uri", e.warmupURI),
		zap.Uint16("status", resp.Status))
}

func (d *Dispatcher) run(e entry, req wire.Request) wire.Response {
	obj, err := d.requests.Convert(e.image, e.builderClass, req)
	if err != nil {
		d.log.Warn("request conversion failed", zap.Error(err))
		return wire.InternalError(MsgRequestConversion)
	}

	respObj, err := d.invoker.Invoke(e.handler, obj)
	if err != nil {
		d.log.Warn("handler failed", zap.Error(err))
		return wire.InternalError(invocationMessage(err))
	}

	resp, err := d.responses.Convert(respObj)
	if err != nil {
		d.log.Warn("response conversion failed", zap.Error(err))
		return wire.InternalError(MsgResponseConversion)
	}
	return resp
}

func invocationMessage(err error) string {
	var exc *managed.Exception
	if stderrors.As(err, &exc) {
		var e *errors.Error
		if stderrors.As(err, &e) && e.Kind == errors.KindInvocation && e.Detail != "" {
			return e.Detail
		}
		return exc.Message
	}
	if stderrors.Is(err, &errors.Error{Phase: errors.PhaseInvoke, Kind: errors.KindNullResult}) {
		return MsgNoResponse
	}
	return MsgInvokeFailed
}

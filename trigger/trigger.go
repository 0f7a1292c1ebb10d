// Package trigger adapts host transports to a bridge dispatcher.
//
// Every path is routed to the single handler. Calls into the handler are
// serialized, so one dispatcher never sees two requests at once. An
// optional token-bucket limiter rejects excess requests with 429 before
// they reach the handler.
package trigger

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/wippyai/http-bridge/wire"
)

// RequestIDHeader carries the correlation id of a request.
const RequestIDHeader = "X-Request-ID"

// Handler serves wire requests. *bridge.Dispatcher implements it.
type Handler interface {
	Handle(req wire.Request) wire.Response
	Prewarm()
}

// DefaultMaxBodyBytes caps request bodies when Options.MaxBodyBytes is 0.
const DefaultMaxBodyBytes = 10 << 20

// Options configures a trigger.
type Options struct {
	Logger *zap.Logger
	// RateLimit is the sustained requests per second; 0 disables limiting.
	RateLimit float64
	Burst     int
	// MaxBodyBytes caps request bodies; larger ones are answered with 413.
	MaxBodyBytes int64
}

// gate serializes and rate-limits calls into a Handler.
type gate struct {
	h       Handler
	limiter *rate.Limiter
	log     *zap.Logger
	maxBody int64
	mu      sync.Mutex
}

func newGate(h Handler, opts Options) *gate {
	g := &gate{h: h, log: opts.Logger, maxBody: opts.MaxBodyBytes}
	if g.log == nil {
		g.log = zap.NewNop()
	}
	if g.maxBody <= 0 {
		g.maxBody = DefaultMaxBodyBytes
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return g
}

// handle runs req through the handler. It reports false when the request
// was rejected by the limiter.
func (g *gate) handle(id string, req wire.Request) (wire.Response, bool) {
	if g.limiter != nil && !g.limiter.Allow() {
		g.log.Warn("request rejected by rate limiter", zap.String("request_id", id))
		return wire.Response{}, false
	}

	start := time.Now()
	resp := g.call(req)

	g.log.Info("request handled",
		zap.String("request_id", id),
		zap.Stringer("method", req.Method),
		zap.String("uri", req.URI),
		zap.Uint16("status", resp.Status),
		zap.Duration("duration", time.Since(start)))
	return resp, true
}

func (g *gate) call(req wire.Request) wire.Response {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.h.Handle(req)
}

func requestID(h string) string {
	if h != "" {
		return h
	}
	return uuid.New().String()
}

func tooManyRequests() wire.Response {
	return wire.Response{
		Status: http.StatusTooManyRequests,
		Body:   wire.Some([]byte(http.StatusText(http.StatusTooManyRequests))),
	}
}

func bodyTooLarge() wire.Response {
	return wire.Response{
		Status: http.StatusRequestEntityTooLarge,
		Body:   wire.Some([]byte(http.StatusText(http.StatusRequestEntityTooLarge))),
	}
}

func methodNotAllowed(method string) wire.Response {
	return wire.Response{
		Status: http.StatusMethodNotAllowed,
		Body:   wire.Some([]byte("unsupported method " + method)),
	}
}

package trigger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wippyai/http-bridge/wire"
)

// ErrUnsupportedMethod is returned for verbs outside the wire method set.
var ErrUnsupportedMethod = errors.New("unsupported method")

// Server is the HTTP trigger.
type Server struct {
	gate   *gate
	engine *gin.Engine
}

// NewServer creates an HTTP trigger in front of h.
func NewServer(h Handler, opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{gate: newGate(h, opts), engine: gin.New()}
	s.engine.Use(gin.Recovery())
	s.engine.Any("/*path", s.serve)
	s.engine.NoRoute(s.serve)
	return s
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.gate.log.Info("http trigger listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) serve(c *gin.Context) {
	id := requestID(c.GetHeader(RequestIDHeader))
	c.Header(RequestIDHeader, id)

	if c.Request.Body != nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.gate.maxBody)
	}

	req, err := FromHTTP(c.Request)
	if err != nil {
		var tooLarge *http.MaxBytesError
		var resp wire.Response
		switch {
		case errors.Is(err, ErrUnsupportedMethod):
			resp = methodNotAllowed(c.Request.Method)
		case errors.As(err, &tooLarge):
			resp = bodyTooLarge()
		default:
			resp = wire.Response{Status: http.StatusBadRequest, Body: wire.Some([]byte(err.Error()))}
		}
		WriteHTTP(c.Writer, resp)
		return
	}

	resp, ok := s.gate.handle(id, req)
	if !ok {
		resp = tooManyRequests()
	}
	WriteHTTP(c.Writer, resp)
}

// FromHTTP converts an HTTP request. Headers are ordered by name, one pair
// per value; query parameters keep their order in the URL. Empty header
// sets, queries and bodies are absent.
func FromHTTP(r *http.Request) (wire.Request, error) {
	method, ok := wire.ParseMethod(r.Method)
	if !ok {
		return wire.Request{}, fmt.Errorf("%w: %s", ErrUnsupportedMethod, r.Method)
	}

	req := wire.Request{
		Method:  method,
		URI:     r.URL.RequestURI(),
		Headers: headerPairs(r.Header, r.Host),
		Params:  ParseQuery(r.URL.RawQuery),
	}

	if r.Body != nil {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return wire.Request{}, fmt.Errorf("read body: %w", err)
		}
		if len(data) > 0 {
			req.Body = wire.Some(data)
		}
	}
	return req, nil
}

// WriteHTTP writes resp to w, adding headers in order.
func WriteHTTP(w http.ResponseWriter, resp wire.Response) {
	if headers, ok := resp.Headers.Get(); ok {
		for _, kv := range headers {
			w.Header().Add(kv.Key, kv.Value)
		}
	}
	w.WriteHeader(int(resp.Status))
	if body, ok := resp.Body.Get(); ok && len(body) > 0 {
		_, _ = w.Write(body)
	}
}

func headerPairs(h http.Header, host string) wire.Option[wire.Pairs] {
	values := make(map[string][]string, len(h)+1)
	for k, v := range h {
		values[k] = v
	}
	if host != "" && len(values["Host"]) == 0 {
		values["Host"] = []string{host}
	}
	return multiPairs(values)
}

func multiPairs(values map[string][]string) wire.Option[wire.Pairs] {
	if len(values) == 0 {
		return wire.None[wire.Pairs]()
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var pairs wire.Pairs
	for _, k := range keys {
		for _, v := range values[k] {
			pairs = append(pairs, wire.Pair{Key: k, Value: v})
		}
	}
	if len(pairs) == 0 {
		return wire.None[wire.Pairs]()
	}
	return wire.Some(pairs)
}

// ParseQuery splits a raw query string into pairs in URL order. Escapes
// that fail to decode are kept verbatim.
func ParseQuery(raw string) wire.Option[wire.Pairs] {
	if raw == "" {
		return wire.None[wire.Pairs]()
	}

	var pairs wire.Pairs
	for _, part := range strings.Split(raw, "&") {
		if part == "" {
			continue
		}
		k, v, _ := strings.Cut(part, "=")
		if uk, err := url.QueryUnescape(k); err == nil {
			k = uk
		}
		if uv, err := url.QueryUnescape(v); err == nil {
			v = uv
		}
		pairs = append(pairs, wire.Pair{Key: k, Value: v})
	}
	if len(pairs) == 0 {
		return wire.None[wire.Pairs]()
	}
	return wire.Some(pairs)
}

package trigger

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/http-bridge/wire"
)

type fakeHandler struct {
	resp     wire.Response
	reqs     []wire.Request
	prewarms atomic.Int32
	active   atomic.Int32
	overlap  atomic.Bool
	mu       sync.Mutex
}

func (f *fakeHandler) Handle(req wire.Request) wire.Response {
	if f.active.Add(1) > 1 {
		f.overlap.Store(true)
	}
	defer f.active.Add(-1)
	time.Sleep(time.Millisecond)

	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	return f.resp
}

func (f *fakeHandler) Prewarm() { f.prewarms.Add(1) }

func (f *fakeHandler) last() wire.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reqs[len(f.reqs)-1]
}

func okHandler() *fakeHandler {
	return &fakeHandler{resp: wire.Response{
		Status:  200,
		Headers: wire.Some(wire.Pairs{{Key: "Content-Type", Value: "text/plain"}, {Key: "X-Multi", Value: "a"}, {Key: "X-Multi", Value: "b"}}),
		Body:    wire.Some([]byte("hello")),
	}}
}

func TestServer_RoundTrip(t *testing.T) {
	h := okHandler()
	srv := NewServer(h, Options{})

	r := httptest.NewRequest(http.MethodPost, "/items/7?b=2&a=1&a=3", strings.NewReader("payload"))
	r.Header.Set("X-Zeta", "z")
	r.Header.Set("Accept", "text/plain")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "hello", w.Body.String())
	assert.Equal(t, "text/plain", w.Header().Get("Content-Type"))
	assert.Equal(t, []string{"a", "b"}, w.Header().Values("X-Multi"))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := h.last()
	assert.Equal(t, wire.MethodPost, req.Method)
	assert.Equal(t, "/items/7?b=2&a=1&a=3", req.URI)
	assert.Equal(t, "payload", string(req.Body.Val))

	params, ok := req.Params.Get()
	require.True(t, ok)
	assert.Equal(t, wire.Pairs{{Key: "b", Value: "2"}, {Key: "a", Value: "1"}, {Key: "a", Value: "3"}}, params)

	headers, ok := req.Headers.Get()
	require.True(t, ok)
	keys := make([]string, len(headers))
	for i, kv := range headers {
		keys[i] = kv.Key
	}
	assert.Equal(t, []string{"Accept", "Host", "X-Zeta"}, keys)
}

func TestServer_KeepsRequestID(t *testing.T) {
	srv := NewServer(okHandler(), Options{})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)

	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestServer_UnsupportedMethod(t *testing.T) {
	h := okHandler()
	srv := NewServer(h, Options{})

	r := httptest.NewRequest("PROPFIND", "/", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Empty(t, h.reqs)
}

func TestServer_RateLimit(t *testing.T) {
	h := okHandler()
	srv := NewServer(h, Options{RateLimit: 0.001, Burst: 1})

	codes := make([]int, 3)
	for i := range codes {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes[i] = w.Code
	}

	assert.Equal(t, []int{200, 429, 429}, codes)
	assert.Len(t, h.reqs, 1)
}

func TestServer_Serializes(t *testing.T) {
	h := okHandler()
	srv := NewServer(h, Options{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		}()
	}
	wg.Wait()

	assert.False(t, h.overlap.Load())
	assert.Len(t, h.reqs, 16)
}

type panicHandler struct {
	fakeHandler
	panics atomic.Bool
}

func (p *panicHandler) Handle(req wire.Request) wire.Response {
	if p.panics.CompareAndSwap(true, false) {
		panic("handler fault")
	}
	return p.fakeHandler.Handle(req)
}

func TestServer_RecoversFromHandlerPanic(t *testing.T) {
	h := &panicHandler{fakeHandler: fakeHandler{resp: wire.Response{Status: 200}}}
	h.panics.Store(true)
	srv := NewServer(h, Options{})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	done := make(chan int, 1)
	go func() {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		done <- w.Code
	}()
	select {
	case code := <-done:
		assert.Equal(t, http.StatusOK, code)
	case <-time.After(5 * time.Second):
		t.Fatal("handler stayed locked after a panic")
	}
}

func TestServer_BodyTooLarge(t *testing.T) {
	h := okHandler()
	srv := NewServer(h, Options{MaxBodyBytes: 8})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("this is more than eight bytes")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Empty(t, h.reqs)

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small")))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "small", string(h.last().Body.Val))
}

func TestServer_ListenAndServeStops(t *testing.T) {
	srv := NewServer(okHandler(), Options{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, "127.0.0.1:0") }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestFromHTTP_EmptyRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodDelete, "/x", nil)
	r.Host = ""
	r.Header = http.Header{}

	req, err := FromHTTP(r)
	require.NoError(t, err)

	assert.Equal(t, wire.MethodDelete, req.Method)
	assert.False(t, req.Headers.IsSome)
	assert.False(t, req.Params.IsSome)
	assert.False(t, req.Body.IsSome)
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		raw  string
		want wire.Pairs
	}{
		{"", nil},
		{"&&", nil},
		{"a=1", wire.Pairs{{Key: "a", Value: "1"}}},
		{"flag", wire.Pairs{{Key: "flag", Value: ""}}},
		{"q=hello%20world&x=a%2Bb", wire.Pairs{{Key: "q", Value: "hello world"}, {Key: "x", Value: "a+b"}}},
		{"bad=%zz", wire.Pairs{{Key: "bad", Value: "%zz"}}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseQuery(tt.raw).Get()
			if tt.want == nil {
				assert.False(t, ok)
				return
			}
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLambda_RoundTrip(t *testing.T) {
	h := okHandler()
	fn := NewLambda(h, Options{})

	resp, err := fn(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: "PUT",
		Path:       "/things",
		Headers:    map[string]string{"b-header": "2", "a-header": "1"},
		MultiValueQueryStringParameters: map[string][]string{
			"z": {"last"},
			"a": {"1", "2"},
		},
		Body:            base64.StdEncoding.EncodeToString([]byte("data")),
		IsBase64Encoded: true,
		RequestContext:  events.APIGatewayProxyRequestContext{RequestID: "req-1"},
	})
	require.NoError(t, err)

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "hello", resp.Body)
	assert.False(t, resp.IsBase64Encoded)
	assert.Equal(t, []string{"req-1"}, resp.MultiValueHeaders[RequestIDHeader])
	assert.Equal(t, []string{"a", "b"}, resp.MultiValueHeaders["X-Multi"])

	req := h.last()
	assert.Equal(t, wire.MethodPut, req.Method)
	assert.Equal(t, "/things?a=1&a=2&z=last", req.URI)
	assert.Equal(t, "data", string(req.Body.Val))
	assert.Equal(t, wire.Pairs{{Key: "a", Value: "1"}, {Key: "a", Value: "2"}, {Key: "z", Value: "last"}}, req.Params.Val)
	assert.Equal(t, wire.Pairs{{Key: "a-header", Value: "1"}, {Key: "b-header", Value: "2"}}, req.Headers.Val)
}

func TestLambda_Errors(t *testing.T) {
	h := okHandler()
	fn := NewLambda(h, Options{})

	resp, err := fn(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: "CONNECT", Path: "/"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = fn(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:      "POST",
		Path:            "/",
		Body:            "!!not base64!!",
		IsBase64Encoded: true,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, h.reqs)
}

func TestLambda_BodyTooLarge(t *testing.T) {
	h := okHandler()
	fn := NewLambda(h, Options{MaxBodyBytes: 4})

	resp, err := fn(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: "POST", Path: "/", Body: "too long"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Empty(t, h.reqs)
}

func TestToAPIGateway_BinaryBody(t *testing.T) {
	resp := ToAPIGateway(wire.Response{Status: 201, Body: wire.Some([]byte{0xff, 0xfe})}, "id")

	assert.Equal(t, 201, resp.StatusCode)
	assert.True(t, resp.IsBase64Encoded)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{0xff, 0xfe}), resp.Body)
}

// Package sdk is the managed SDK assembly applications program against.
//
// Application handlers receive an *HttpRequest and return an *HttpResponse.
// The interop shapes (HttpRequestInterop, HttpResponseInterop, StringPair)
// are what the bridge reads and writes field by field; applications rarely
// touch them directly.
package sdk

import (
	"fmt"
	"strings"

	"github.com/wippyai/http-bridge/managed"
	"github.com/wippyai/http-bridge/managed/vm"
)

const (
	// Namespace of every SDK class.
	Namespace = "Spin.Sdk"
	// ImageName is the name of the SDK image.
	ImageName = "Spin.Sdk"
	// AttributeType marks the request handler method.
	AttributeType = Namespace + ".HttpHandlerAttribute"
	// WarmupProperty names the attribute property holding the warm-up URI.
	WarmupProperty = "WarmupUrl"
)

// HttpMethod mirrors the wire method discriminants.
type HttpMethod uint8

const (
	Get HttpMethod = iota
	Post
	Put
	Delete
	Patch
	Head
	Options
)

var methodNames = [...]string{"Get", "Post", "Put", "Delete", "Patch", "Head", "Options"}

func (m HttpMethod) String() string {
	if int(m) < len(methodNames) {
		return methodNames[m]
	}
	return fmt.Sprintf("HttpMethod(%d)", uint8(m))
}

// KeyValue is one header or parameter of a domain request or response.
type KeyValue struct {
	Key   string
	Value string
}

// StringPair is the interop form of KeyValue.
type StringPair struct {
	Key   string
	Value string
}

// HttpRequestInterop is populated field by field by the bridge and turned
// into an HttpRequest by Build.
type HttpRequestInterop struct {
	Uri        string
	Headers    []*StringPair
	Parameters []*StringPair
	Body       []byte
	Method     HttpMethod
}

// Build produces the domain request. It panics on an unknown method.
func (b *HttpRequestInterop) Build() *HttpRequest {
	if int(b.Method) >= len(methodNames) {
		panic(fmt.Sprintf("unknown HTTP method %d", uint8(b.Method)))
	}
	req := &HttpRequest{
		Method:     b.Method,
		Url:        b.Uri,
		Headers:    fromPairs(b.Headers),
		Parameters: fromPairs(b.Parameters),
	}
	if len(b.Body) > 0 {
		req.Body = append([]byte(nil), b.Body...)
		req.HasBody = true
	}
	return req
}

// HttpRequest is the request handed to application handlers.
type HttpRequest struct {
	Url        string
	Headers    []KeyValue
	Parameters []KeyValue
	Body       []byte
	Method     HttpMethod
	HasBody    bool
}

// Header returns the first header named key, case-insensitively.
func (r *HttpRequest) Header(key string) (string, bool) {
	return lookup(r.Headers, key)
}

// Parameter returns the first parameter named key.
func (r *HttpRequest) Parameter(key string) (string, bool) {
	for _, kv := range r.Parameters {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// BodyString returns the body as UTF-8 text.
func (r *HttpRequest) BodyString() string {
	return string(r.Body)
}

// HttpResponse is returned by application handlers.
type HttpResponse struct {
	Headers []KeyValue
	Body    []byte
	Status  uint16
}

// SetBodyString sets the body to s.
func (r *HttpResponse) SetBodyString(s string) {
	r.Body = []byte(s)
}

// SetHeader appends a header.
func (r *HttpResponse) SetHeader(key, value string) {
	r.Headers = append(r.Headers, KeyValue{Key: key, Value: value})
}

// ToInterop converts to the shape the bridge reads.
func (r *HttpResponse) ToInterop() *HttpResponseInterop {
	out := &HttpResponseInterop{Status: r.Status}
	if len(r.Headers) > 0 {
		out.Headers = make([]*StringPair, len(r.Headers))
		for i, kv := range r.Headers {
			out.Headers[i] = &StringPair{Key: kv.Key, Value: kv.Value}
		}
	}
	if len(r.Body) > 0 {
		out.Body = append([]byte(nil), r.Body...)
	}
	return out
}

// HttpResponseInterop is read field by field by the bridge.
type HttpResponseInterop struct {
	Headers []*StringPair
	Body    []byte
	Status  uint16
}

// HttpHandlerAttribute marks the request handler. WarmupUrl, when set, is
// the URI of the synthetic request sent during initialization.
type HttpHandlerAttribute struct {
	WarmupUrl string
}

// Attribute returns the attribute instance to attach to a handler method.
func (a HttpHandlerAttribute) Attribute() managed.Attribute {
	props := map[string]string{}
	if a.WarmupUrl != "" {
		props[WarmupProperty] = a.WarmupUrl
	}
	return managed.Attribute{Type: AttributeType, Properties: props}
}

// Assembly returns the SDK assembly.
func Assembly() vm.Assembly {
	return vm.Assembly{
		Name: ImageName,
		Load: func(img *vm.Image) error {
			img.DefineClass(Namespace, "HttpMethod", Get)
			img.DefineClass(Namespace, "StringPair", StringPair{})
			img.DefineClass(Namespace, "KeyValue", KeyValue{})
			img.DefineClass(Namespace, "HttpRequestInterop", HttpRequestInterop{})
			img.DefineClass(Namespace, "HttpRequest", HttpRequest{})
			img.DefineClass(Namespace, "HttpResponse", HttpResponse{})
			img.DefineClass(Namespace, "HttpResponseInterop", HttpResponseInterop{})
			img.DefineClass(Namespace, "HttpHandlerAttribute", HttpHandlerAttribute{})
			return nil
		},
	}
}

func fromPairs(pairs []*StringPair) []KeyValue {
	out := make([]KeyValue, 0, len(pairs))
	for _, p := range pairs {
		if p == nil {
			continue
		}
		out = append(out, KeyValue{Key: p.Key, Value: p.Value})
	}
	return out
}

func lookup(kvs []KeyValue, key string) (string, bool) {
	for _, kv := range kvs {
		if strings.EqualFold(kv.Key, key) {
			return kv.Value, true
		}
	}
	return "", false
}

package trigger

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"

	"github.com/wippyai/http-bridge/wire"
)

// LambdaFunc is the signature accepted by lambda.Start.
type LambdaFunc func(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// NewLambda creates an API Gateway proxy trigger in front of h.
func NewLambda(h Handler, opts Options) LambdaFunc {
	g := newGate(h, opts)

	return func(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		id := requestID(event.RequestContext.RequestID)

		req, err := FromAPIGateway(event)
		if err != nil {
			resp := methodNotAllowed(event.HTTPMethod)
			if !errors.Is(err, ErrUnsupportedMethod) {
				resp = wire.Response{Status: http.StatusBadRequest, Body: wire.Some([]byte(err.Error()))}
			}
			return ToAPIGateway(resp, id), nil
		}

		if req.Body.IsSome && int64(len(req.Body.Val)) > g.maxBody {
			return ToAPIGateway(bodyTooLarge(), id), nil
		}

		resp, ok := g.handle(id, req)
		if !ok {
			resp = tooManyRequests()
		}
		return ToAPIGateway(resp, id), nil
	}
}

// FromAPIGateway converts a proxy event. Headers and query parameters are
// ordered by name; multi-value forms win over single-value ones.
func FromAPIGateway(event events.APIGatewayProxyRequest) (wire.Request, error) {
	method, ok := wire.ParseMethod(event.HTTPMethod)
	if !ok {
		return wire.Request{}, fmt.Errorf("%w: %s", ErrUnsupportedMethod, event.HTTPMethod)
	}

	params := event.MultiValueQueryStringParameters
	if len(params) == 0 {
		params = single(event.QueryStringParameters)
	}
	headers := event.MultiValueHeaders
	if len(headers) == 0 {
		headers = single(event.Headers)
	}

	req := wire.Request{
		Method:  method,
		URI:     event.Path,
		Headers: multiPairs(headers),
		Params:  multiPairs(params),
	}
	if q := encodeQuery(params); q != "" {
		req.URI += "?" + q
	}

	if event.Body != "" {
		data := []byte(event.Body)
		if event.IsBase64Encoded {
			decoded, err := base64.StdEncoding.DecodeString(event.Body)
			if err != nil {
				return wire.Request{}, fmt.Errorf("decode body: %w", err)
			}
			data = decoded
		}
		if len(data) > 0 {
			req.Body = wire.Some(data)
		}
	}
	return req, nil
}

// ToAPIGateway converts a wire response. Non-UTF-8 bodies are base64 encoded.
func ToAPIGateway(resp wire.Response, id string) events.APIGatewayProxyResponse {
	out := events.APIGatewayProxyResponse{
		StatusCode:        int(resp.Status),
		MultiValueHeaders: map[string][]string{RequestIDHeader: {id}},
	}
	if headers, ok := resp.Headers.Get(); ok {
		for _, kv := range headers {
			key := http.CanonicalHeaderKey(kv.Key)
			out.MultiValueHeaders[key] = append(out.MultiValueHeaders[key], kv.Value)
		}
	}
	if body, ok := resp.Body.Get(); ok && len(body) > 0 {
		if utf8.Valid(body) {
			out.Body = string(body)
		} else {
			out.Body = base64.StdEncoding.EncodeToString(body)
			out.IsBase64Encoded = true
		}
	}
	return out
}

func single(m map[string]string) map[string][]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = []string{v}
	}
	return out
}

func encodeQuery(params map[string][]string) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		for _, v := range params[k] {
			parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(v))
		}
	}
	return strings.Join(parts, "&")
}

package wire

import (
	"strings"
)

// Method is the HTTP verb of a wire request. Values are the WIT enum
// discriminants, in declaration order.
type Method uint8

const (
	MethodGet Method = iota
	MethodPost
	MethodPut
	MethodDelete
	MethodPatch
	MethodHead
	MethodOptions
)

var methodNames = [...]string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"}

// String returns the upper-case verb.
func (m Method) String() string {
	if m.Valid() {
		return methodNames[m]
	}
	return "UNKNOWN"
}

// Valid reports whether m is one of the declared verbs.
func (m Method) Valid() bool {
	return int(m) < len(methodNames)
}

// ParseMethod maps a verb to its Method, case-insensitively.
func ParseMethod(s string) (Method, bool) {
	for i, name := range methodNames {
		if strings.EqualFold(s, name) {
			return Method(i), true
		}
	}
	return 0, false
}

// Pair is one header or parameter entry.
type Pair struct {
	Key   string
	Value string
}

// Pairs is an ordered pair sequence. Order is significant and preserved.
type Pairs []Pair

// Get returns the value of the first pair whose key matches, case-insensitively.
func (p Pairs) Get(key string) (string, bool) {
	for _, kv := range p {
		if strings.EqualFold(kv.Key, key) {
			return kv.Value, true
		}
	}
	return "", false
}

// Option is a present-or-absent value.
type Option[T any] struct {
	Val    T
	IsSome bool
}

// Some returns a present option holding v.
func Some[T any](v T) Option[T] {
	return Option[T]{Val: v, IsSome: true}
}

// None returns an absent option.
func None[T any]() Option[T] {
	return Option[T]{}
}

// Get returns the value and whether it is present.
func (o Option[T]) Get() (T, bool) {
	return o.Val, o.IsSome
}

// Request is an inbound HTTP request as handed over by the trigger.
// It is owned by the caller for the duration of the call.
type Request struct {
	URI     string
	Headers Option[Pairs]
	Params  Option[Pairs]
	Body    Option[[]byte]
	Method  Method
}

// Response is the outbound HTTP response produced by the bridge.
// Ownership of its buffers passes to the caller on return.
type Response struct {
	Headers Option[Pairs]
	Body    Option[[]byte]
	Status  uint16
}

// InternalError builds the uniform 500 response carrying message as its body.
func InternalError(message string) Response {
	return Response{
		Status: 500,
		Body:   Some([]byte(message)),
	}
}

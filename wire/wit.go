package wire

import (
	"strings"

	"go.bytecodealliance.org/wit"
)

func named(name string, kind wit.TypeDefKind) *wit.TypeDef {
	return &wit.TypeDef{Name: &name, Kind: kind}
}

// MethodType returns the WIT enum of request methods.
func MethodType() *wit.TypeDef {
	cases := make([]wit.EnumCase, len(methodNames))
	for i, name := range methodNames {
		cases[i] = wit.EnumCase{Name: strings.ToLower(name)}
	}
	return named("method", &wit.Enum{Cases: cases})
}

// PairsType returns list<tuple<string, string>>, the shape of headers and params.
func PairsType(name string) *wit.TypeDef {
	pair := &wit.TypeDef{Kind: &wit.Tuple{Types: []wit.Type{wit.String{}, wit.String{}}}}
	return named(name, &wit.List{Type: pair})
}

// BodyType returns list<u8>.
func BodyType() *wit.TypeDef {
	return named("body", &wit.List{Type: wit.U8{}})
}

func option(t wit.Type) *wit.TypeDef {
	return &wit.TypeDef{Kind: &wit.Option{Type: t}}
}

// RequestType returns the WIT record describing a wire request.
func RequestType() *wit.TypeDef {
	return named("request", &wit.Record{
		Fields: []wit.Field{
			{Name: "method", Type: MethodType()},
			{Name: "uri", Type: wit.String{}},
			{Name: "headers", Type: option(PairsType("headers"))},
			{Name: "params", Type: option(PairsType("params"))},
			{Name: "body", Type: option(BodyType())},
		},
	})
}

// ResponseType returns the WIT record describing a wire response.
func ResponseType() *wit.TypeDef {
	return named("response", &wit.Record{
		Fields: []wit.Field{
			{Name: "status", Type: wit.U16{}},
			{Name: "headers", Type: option(PairsType("headers"))},
			{Name: "body", Type: option(BodyType())},
		},
	})
}

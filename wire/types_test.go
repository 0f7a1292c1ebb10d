package wire

import (
	"testing"
)

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in   string
		want Method
		ok   bool
	}{
		{"GET", MethodGet, true},
		{"post", MethodPost, true},
		{"Put", MethodPut, true},
		{"DELETE", MethodDelete, true},
		{"PATCH", MethodPatch, true},
		{"HEAD", MethodHead, true},
		{"options", MethodOptions, true},
		{"TRACE", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseMethod(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ParseMethod(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestMethod_String(t *testing.T) {
	if MethodOptions.String() != "OPTIONS" {
		t.Errorf("String = %q", MethodOptions.String())
	}
	if Method(42).Valid() {
		t.Error("Method(42) should be invalid")
	}
	if Method(42).String() != "UNKNOWN" {
		t.Errorf("String = %q", Method(42).String())
	}
}

func TestOption(t *testing.T) {
	none := None[Pairs]()
	if _, ok := none.Get(); ok {
		t.Error("None should be absent")
	}

	empty := Some(Pairs{})
	v, ok := empty.Get()
	if !ok || len(v) != 0 {
		t.Error("Some(empty) should be present and empty")
	}
}

func TestPairs_Get(t *testing.T) {
	p := Pairs{{"Content-Type", "text/plain"}, {"X-A", "1"}, {"x-a", "2"}}

	if v, ok := p.Get("content-type"); !ok || v != "text/plain" {
		t.Errorf("Get(content-type) = %q, %v", v, ok)
	}
	if v, _ := p.Get("X-A"); v != "1" {
		t.Errorf("Get should return first match, got %q", v)
	}
	if _, ok := p.Get("missing"); ok {
		t.Error("Get(missing) should fail")
	}
}

func TestInternalError(t *testing.T) {
	resp := InternalError("boom")
	if resp.Status != 500 {
		t.Errorf("Status = %d", resp.Status)
	}
	if resp.Headers.IsSome {
		t.Error("headers should be absent")
	}
	if body, ok := resp.Body.Get(); !ok || string(body) != "boom" {
		t.Errorf("Body = %q, %v", body, ok)
	}
}

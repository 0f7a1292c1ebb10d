package bridge

import (
	"context"
	"reflect"
	"testing"

	"github.com/tetratelabs/wazero"

	"github.com/wippyai/http-bridge/sdk"
	"github.com/wippyai/http-bridge/wire"
)

// (module (memory (export "memory") 1))
var memoryModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x05, 0x03, 0x01, 0x00, 0x01,
	0x07, 0x0a, 0x01, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
}

func linearMemory(t *testing.T) *wire.WazeroMemory {
	t.Helper()
	ctx := context.Background()

	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { _ = rt.Close(ctx) })

	mod, err := rt.Instantiate(ctx, memoryModule)
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	return wire.WrapMemory(mod.Memory())
}

const (
	reqPtr  = 0
	retPtr  = 64
	inBase  = 128
	outBase = 32 * 1024
)

func TestHandleABI_Echo(t *testing.T) {
	f := newFixture(t, echo, sdk.HttpHandlerAttribute{})
	mem := linearMemory(t)

	req := wire.Request{
		Method:  wire.MethodPost,
		URI:     "/echo",
		Headers: wire.Some(wire.Pairs{{Key: "X-A", Value: "1"}, {Key: "X-B", Value: "2"}}),
		Body:    wire.Some([]byte("hi")),
	}
	if err := wire.LowerRequest(mem, wire.NewArena(inBase, outBase), reqPtr, req); err != nil {
		t.Fatalf("LowerRequest: %v", err)
	}

	out := wire.NewArena(outBase, mem.Size())
	if err := f.d.HandleABI(mem, out, reqPtr, retPtr); err != nil {
		t.Fatalf("HandleABI: %v", err)
	}
	if out.Count() == 0 {
		t.Error("response buffers should come from the caller's allocator")
	}

	got, err := wire.LiftResponse(mem, retPtr)
	if err != nil {
		t.Fatalf("LiftResponse: %v", err)
	}
	want := wire.Response{Status: 200, Headers: req.Headers, Body: req.Body}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("response = %+v, want %+v", got, want)
	}
}

func TestHandleABI_UnreadableRequest(t *testing.T) {
	f := newFixture(t, echo, sdk.HttpHandlerAttribute{})
	mem := linearMemory(t)

	if err := mem.WriteU8(reqPtr, 200); err != nil {
		t.Fatal(err)
	}
	if err := f.d.HandleABI(mem, wire.NewArena(outBase, mem.Size()), reqPtr, retPtr); err != nil {
		t.Fatalf("HandleABI: %v", err)
	}

	got, err := wire.LiftResponse(mem, retPtr)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != 500 || body(got) != MsgReadRequest || got.Headers.IsSome {
		t.Errorf("response = %+v", got)
	}
	if f.d.State() != StateUninitialized {
		t.Errorf("State = %v, unreadable requests must not initialize", f.d.State())
	}
}

func TestHandleABI_AllocatorExhausted(t *testing.T) {
	f := newFixture(t, echo, sdk.HttpHandlerAttribute{})
	mem := linearMemory(t)

	req := wire.Request{Method: wire.MethodPost, URI: "/", Body: wire.Some([]byte("a body larger than the arena"))}
	if err := wire.LowerRequest(mem, wire.NewArena(inBase, outBase), reqPtr, req); err != nil {
		t.Fatal(err)
	}
	if err := f.d.HandleABI(mem, wire.NewArena(outBase, outBase+4), reqPtr, retPtr); err == nil {
		t.Error("expected allocation failure")
	}
}

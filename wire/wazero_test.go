package wire

import (
	"context"
	"reflect"
	"testing"

	"github.com/tetratelabs/wazero"
)

// (module (memory (export "memory") 1))
var memoryModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x05, 0x03, 0x01, 0x00, 0x01,
	0x07, 0x0a, 0x01, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
}

func newWazeroMemory(t *testing.T) *WazeroMemory {
	t.Helper()
	ctx := context.Background()

	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { _ = rt.Close(ctx) })

	compiled, err := rt.CompileModule(ctx, memoryModule)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig())
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	return WrapMemory(mod.Memory())
}

func TestWazeroMemory_ReadWrite(t *testing.T) {
	mem := newWazeroMemory(t)

	if mem.Size() != 65536 {
		t.Errorf("Size = %d", mem.Size())
	}
	if err := mem.WriteU32(8, 0xdeadbeef); err != nil {
		t.Fatal(err)
	}
	if v, _ := mem.ReadU32(8); v != 0xdeadbeef {
		t.Errorf("ReadU32 = %#x", v)
	}
	if err := mem.WriteU16(16, 0x1234); err != nil {
		t.Fatal(err)
	}
	if v, _ := mem.ReadU8(16); v != 0x34 {
		t.Errorf("little endian low byte = %#x", v)
	}
	if _, err := mem.Read(65530, 10); err == nil {
		t.Error("expected out of bounds read")
	}
	if err := mem.WriteU8(65536, 1); err == nil {
		t.Error("expected out of bounds write")
	}
}

func TestWazeroMemory_RequestRoundTrip(t *testing.T) {
	mem := newWazeroMemory(t)
	arena := NewArena(1024, mem.Size())

	req := Request{
		Method:  MethodPost,
		URI:     "/echo",
		Headers: Some(Pairs{{"X-A", "1"}}),
		Body:    Some([]byte("hi")),
	}
	if err := LowerRequest(mem, arena, 0, req); err != nil {
		t.Fatalf("LowerRequest: %v", err)
	}
	got, err := LiftRequest(mem, 0)
	if err != nil {
		t.Fatalf("LiftRequest: %v", err)
	}
	if !reflect.DeepEqual(got, req) {
		t.Errorf("got %+v, want %+v", got, req)
	}
}

func TestWrapMemory_Nil(t *testing.T) {
	if WrapMemory(nil) != nil {
		t.Error("WrapMemory(nil) should be nil")
	}
}

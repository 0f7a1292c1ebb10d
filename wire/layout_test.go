package wire

import (
	"testing"

	"go.bytecodealliance.org/wit"
)

func TestLayout_Request(t *testing.T) {
	l := RequestLayout()

	want := []uint32{0, 4, 12, 24, 36}
	if len(l.Offsets) != len(want) {
		t.Fatalf("offsets = %v, want %v", l.Offsets, want)
	}
	for i := range want {
		if l.Offsets[i] != want[i] {
			t.Errorf("offset[%d] = %d, want %d", i, l.Offsets[i], want[i])
		}
	}
	if l.Size != 48 || l.Align != 4 {
		t.Errorf("size/align = %d/%d, want 48/4", l.Size, l.Align)
	}
}

func TestLayout_Response(t *testing.T) {
	l := ResponseLayout()

	want := []uint32{0, 4, 16}
	for i := range want {
		if l.Offsets[i] != want[i] {
			t.Errorf("offset[%d] = %d, want %d", i, l.Offsets[i], want[i])
		}
	}
	if l.Size != 28 || l.Align != 4 {
		t.Errorf("size/align = %d/%d, want 28/4", l.Size, l.Align)
	}
}

func TestLayout_Kinds(t *testing.T) {
	tests := []struct {
		name  string
		typ   wit.Type
		size  uint32
		align uint32
	}{
		{"u8", wit.U8{}, 1, 1},
		{"u16", wit.U16{}, 2, 2},
		{"u32", wit.U32{}, 4, 4},
		{"u64", wit.U64{}, 8, 8},
		{"string", wit.String{}, 8, 4},
		{"method enum", MethodType(), 1, 1},
		{"pair list", PairsType("headers"), 8, 4},
		{"option<u8>", option(wit.U8{}), 2, 1},
		{"option<u64>", option(wit.U64{}), 16, 8},
		{"option<list>", option(BodyType()), 12, 4},
		{"tuple<string,string>", &wit.TypeDef{Kind: &wit.Tuple{Types: []wit.Type{wit.String{}, wit.String{}}}}, 16, 4},
		{"empty record", &wit.TypeDef{Kind: &wit.Record{}}, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := LayoutOf(tt.typ)
			if l.Size != tt.size || l.Align != tt.align {
				t.Errorf("LayoutOf = %d/%d, want %d/%d", l.Size, l.Align, tt.size, tt.align)
			}
		})
	}
}

func TestMethodType_Cases(t *testing.T) {
	enum, ok := MethodType().Kind.(*wit.Enum)
	if !ok {
		t.Fatalf("kind = %T", MethodType().Kind)
	}
	if len(enum.Cases) != 7 {
		t.Fatalf("cases = %d", len(enum.Cases))
	}
	if enum.Cases[MethodPatch].Name != "patch" {
		t.Errorf("case %d = %q", MethodPatch, enum.Cases[MethodPatch].Name)
	}
}

package wire

import (
	"go.bytecodealliance.org/wit"
)

// Layout is the canonical ABI placement of a WIT type in linear memory.
type Layout struct {
	// Offsets holds record field or tuple element offsets, in declaration order.
	Offsets []uint32
	// Elem is the element layout of a list, or the payload layout of an option.
	Elem *Layout
	Size  uint32
	Align uint32
	// Payload is the offset of an option's value past its discriminant.
	Payload uint32
}

// LayoutOf computes the layout of t. Only the kinds used by the wire contract
// are supported: integers, bool, string, record, tuple, enum, list and option.
// Anything else lays out as a zero-sized value.
func LayoutOf(t wit.Type) Layout {
	switch typ := t.(type) {
	case wit.U8, wit.S8, wit.Bool:
		return Layout{Size: 1, Align: 1}
	case wit.U16, wit.S16:
		return Layout{Size: 2, Align: 2}
	case wit.U32, wit.S32, wit.F32, wit.Char:
		return Layout{Size: 4, Align: 4}
	case wit.U64, wit.S64, wit.F64:
		return Layout{Size: 8, Align: 8}
	case wit.String:
		return Layout{Size: 8, Align: 4} // [ptr: u32, len: u32]
	case *wit.TypeDef:
		return layoutOfKind(typ.Kind)
	default:
		return Layout{Size: 0, Align: 1}
	}
}

func layoutOfKind(kind wit.TypeDefKind) Layout {
	switch k := kind.(type) {
	case *wit.Record:
		types := make([]wit.Type, len(k.Fields))
		for i, f := range k.Fields {
			types[i] = f.Type
		}
		return layoutSequence(types)
	case *wit.Tuple:
		return layoutSequence(k.Types)
	case *wit.Enum:
		size := discriminantSize(len(k.Cases))
		return Layout{Size: size, Align: size}
	case *wit.List:
		elem := LayoutOf(k.Type)
		return Layout{Size: 8, Align: 4, Elem: &elem}
	case *wit.Option:
		inner := LayoutOf(k.Type)
		align := inner.Align
		if align < 1 {
			align = 1
		}
		payload := alignTo(1, align)
		return Layout{
			Size:    alignTo(payload+inner.Size, align),
			Align:   align,
			Payload: payload,
			Elem:    &inner,
		}
	case wit.Type:
		return LayoutOf(k)
	default:
		return Layout{Size: 0, Align: 1}
	}
}

func layoutSequence(types []wit.Type) Layout {
	if len(types) == 0 {
		return Layout{Size: 0, Align: 1}
	}

	offsets := make([]uint32, len(types))
	maxAlign := uint32(1)
	offset := uint32(0)

	for i, t := range types {
		l := LayoutOf(t)
		offset = alignTo(offset, l.Align)
		offsets[i] = offset
		if l.Align > maxAlign {
			maxAlign = l.Align
		}
		offset += l.Size
	}

	return Layout{
		Size:    alignTo(offset, maxAlign),
		Align:   maxAlign,
		Offsets: offsets,
	}
}

func discriminantSize(cases int) uint32 {
	switch {
	case cases <= 1<<8:
		return 1
	case cases <= 1<<16:
		return 2
	default:
		return 4
	}
}

func alignTo(offset, align uint32) uint32 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

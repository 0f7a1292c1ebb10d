package wire

import (
	"math"
	"strconv"

	httpbridge "github.com/wippyai/http-bridge"
	"github.com/wippyai/http-bridge/errors"
)

type Memory = httpbridge.Memory
type Allocator = httpbridge.Allocator

const (
	MaxStringSize = 1 << 30 // 1 GB max string size
	MaxListLength = 1 << 27 // 128M max elements
)

// Field indexes into the contract record layouts.
const (
	reqMethod = iota
	reqURI
	reqHeaders
	reqParams
	reqBody
)

const (
	respStatus = iota
	respHeaders
	respBody
)

var (
	requestLayout  = LayoutOf(RequestType())
	responseLayout = LayoutOf(ResponseType())
	pairsLayout    = LayoutOf(option(PairsType("headers")))
	bodyLayout     = LayoutOf(option(BodyType()))
	methodCount    = uint8(len(methodNames))
)

// RequestLayout returns the canonical ABI layout of the request record.
func RequestLayout() Layout { return requestLayout }

// ResponseLayout returns the canonical ABI layout of the response record.
func ResponseLayout() Layout { return responseLayout }

// LiftRequest reads the request record at ptr. Strings and bytes are copied.
func LiftRequest(mem Memory, ptr uint32) (Request, error) {
	var req Request
	off := requestLayout.Offsets

	disc, err := mem.ReadU8(ptr + off[reqMethod])
	if err != nil {
		return req, oob([]string{"method"}, ptr+off[reqMethod], 1, err)
	}
	if disc >= methodCount {
		return req, errors.InvalidEnum(errors.PhaseWire, []string{"method"}, disc, "method")
	}
	req.Method = Method(disc)

	if req.URI, err = readString(mem, ptr+off[reqURI], []string{"uri"}); err != nil {
		return req, err
	}
	if req.Headers, err = readPairsOption(mem, ptr+off[reqHeaders], "headers"); err != nil {
		return req, err
	}
	if req.Params, err = readPairsOption(mem, ptr+off[reqParams], "params"); err != nil {
		return req, err
	}
	if req.Body, err = readBodyOption(mem, ptr+off[reqBody]); err != nil {
		return req, err
	}
	return req, nil
}

// LowerRequest writes req as a request record at ptr, allocating its
// buffers through alloc.
func LowerRequest(mem Memory, alloc Allocator, ptr uint32, req Request) error {
	off := requestLayout.Offsets

	if !req.Method.Valid() {
		return errors.InvalidEnum(errors.PhaseWire, []string{"method"}, uint8(req.Method), "method")
	}
	if err := mem.WriteU8(ptr+off[reqMethod], uint8(req.Method)); err != nil {
		return oob([]string{"method"}, ptr+off[reqMethod], 1, err)
	}
	if err := writeString(mem, alloc, ptr+off[reqURI], req.URI, []string{"uri"}); err != nil {
		return err
	}
	if err := writePairsOption(mem, alloc, ptr+off[reqHeaders], req.Headers, "headers"); err != nil {
		return err
	}
	if err := writePairsOption(mem, alloc, ptr+off[reqParams], req.Params, "params"); err != nil {
		return err
	}
	return writeBodyOption(mem, alloc, ptr+off[reqBody], req.Body)
}

// LiftResponse reads the response record at ptr. Strings and bytes are copied.
func LiftResponse(mem Memory, ptr uint32) (Response, error) {
	var resp Response
	off := responseLayout.Offsets

	status, err := mem.ReadU16(ptr + off[respStatus])
	if err != nil {
		return resp, oob([]string{"status"}, ptr+off[respStatus], 2, err)
	}
	resp.Status = status

	if resp.Headers, err = readPairsOption(mem, ptr+off[respHeaders], "headers"); err != nil {
		return resp, err
	}
	if resp.Body, err = readBodyOption(mem, ptr+off[respBody]); err != nil {
		return resp, err
	}
	return resp, nil
}

// LowerResponse writes resp as a response record at ptr. Every buffer comes
// from alloc and belongs to the reader of the record afterwards.
func LowerResponse(mem Memory, alloc Allocator, ptr uint32, resp Response) error {
	off := responseLayout.Offsets

	if err := mem.WriteU16(ptr+off[respStatus], resp.Status); err != nil {
		return oob([]string{"status"}, ptr+off[respStatus], 2, err)
	}
	if err := writePairsOption(mem, alloc, ptr+off[respHeaders], resp.Headers, "headers"); err != nil {
		return err
	}
	return writeBodyOption(mem, alloc, ptr+off[respBody], resp.Body)
}

func readOptionTag(mem Memory, addr uint32, path []string) (bool, error) {
	tag, err := mem.ReadU8(addr)
	if err != nil {
		return false, oob(path, addr, 1, err)
	}
	switch tag {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, errors.InvalidData(errors.PhaseWire, path, "option discriminant must be 0 or 1")
	}
}

func writeOptionTag(mem Memory, addr uint32, some bool, path []string) error {
	var tag uint8
	if some {
		tag = 1
	}
	if err := mem.WriteU8(addr, tag); err != nil {
		return oob(path, addr, 1, err)
	}
	return nil
}

func readSlice(mem Memory, addr uint32, path []string) (ptr, n uint32, err error) {
	if ptr, err = mem.ReadU32(addr); err != nil {
		return 0, 0, oob(path, addr, 4, err)
	}
	if n, err = mem.ReadU32(addr + 4); err != nil {
		return 0, 0, oob(path, addr+4, 4, err)
	}
	return ptr, n, nil
}

func writeSlice(mem Memory, addr, ptr, n uint32, path []string) error {
	if err := mem.WriteU32(addr, ptr); err != nil {
		return oob(path, addr, 4, err)
	}
	if err := mem.WriteU32(addr+4, n); err != nil {
		return oob(path, addr+4, 4, err)
	}
	return nil
}

func readString(mem Memory, addr uint32, path []string) (string, error) {
	ptr, n, err := readSlice(mem, addr, path)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	if n > MaxStringSize {
		return "", errors.Overflow(errors.PhaseWire, path, n, "max string size")
	}
	data, err := mem.Read(ptr, n)
	if err != nil {
		return "", oob(path, ptr, n, err)
	}
	return string(data), nil
}

func writeString(mem Memory, alloc Allocator, addr uint32, s string, path []string) error {
	n := uint32(len(s))
	if len(s) > MaxStringSize {
		return errors.Overflow(errors.PhaseWire, path, len(s), "max string size")
	}
	if n == 0 {
		return writeSlice(mem, addr, 0, 0, path)
	}
	ptr, err := alloc.Alloc(n, 1)
	if err != nil {
		return errors.New(errors.PhaseWire, errors.KindAllocation).Path(path...).Cause(err).Build()
	}
	if err := mem.Write(ptr, []byte(s)); err != nil {
		return oob(path, ptr, n, err)
	}
	return writeSlice(mem, addr, ptr, n, path)
}

func readPairsOption(mem Memory, addr uint32, name string) (Option[Pairs], error) {
	path := []string{name}
	some, err := readOptionTag(mem, addr, path)
	if err != nil || !some {
		return None[Pairs](), err
	}

	ptr, n, err := readSlice(mem, addr+pairsLayout.Payload, path)
	if err != nil {
		return None[Pairs](), err
	}
	if n > MaxListLength {
		return None[Pairs](), errors.Overflow(errors.PhaseWire, path, n, "max list length")
	}

	elem := pairsLayout.Elem.Elem
	if err := checkRegion(mem, ptr, uint64(n)*uint64(elem.Size), path); err != nil {
		return None[Pairs](), err
	}
	pairs := make(Pairs, n)
	for i := uint32(0); i < n; i++ {
		base := ptr + i*elem.Size
		ipath := []string{name, itoa(i)}
		if pairs[i].Key, err = readString(mem, base+elem.Offsets[0], append(ipath, "key")); err != nil {
			return None[Pairs](), err
		}
		if pairs[i].Value, err = readString(mem, base+elem.Offsets[1], append(ipath, "value")); err != nil {
			return None[Pairs](), err
		}
	}
	return Some(pairs), nil
}

func writePairsOption(mem Memory, alloc Allocator, addr uint32, opt Option[Pairs], name string) error {
	path := []string{name}
	if err := writeOptionTag(mem, addr, opt.IsSome, path); err != nil {
		return err
	}
	if !opt.IsSome {
		return nil
	}

	n := uint32(len(opt.Val))
	if len(opt.Val) > MaxListLength {
		return errors.Overflow(errors.PhaseWire, path, len(opt.Val), "max list length")
	}
	if n == 0 {
		return writeSlice(mem, addr+pairsLayout.Payload, 0, 0, path)
	}

	elem := pairsLayout.Elem.Elem
	ptr, err := alloc.Alloc(n*elem.Size, elem.Align)
	if err != nil {
		return errors.New(errors.PhaseWire, errors.KindAllocation).Path(path...).Cause(err).Build()
	}
	for i, kv := range opt.Val {
		base := ptr + uint32(i)*elem.Size
		ipath := []string{name, itoa(uint32(i))}
		if err := writeString(mem, alloc, base+elem.Offsets[0], kv.Key, append(ipath, "key")); err != nil {
			return err
		}
		if err := writeString(mem, alloc, base+elem.Offsets[1], kv.Value, append(ipath, "value")); err != nil {
			return err
		}
	}
	return writeSlice(mem, addr+pairsLayout.Payload, ptr, n, path)
}

func readBodyOption(mem Memory, addr uint32) (Option[[]byte], error) {
	path := []string{"body"}
	some, err := readOptionTag(mem, addr, path)
	if err != nil || !some {
		return None[[]byte](), err
	}

	ptr, n, err := readSlice(mem, addr+bodyLayout.Payload, path)
	if err != nil {
		return None[[]byte](), err
	}
	if n > MaxStringSize {
		return None[[]byte](), errors.Overflow(errors.PhaseWire, path, n, "max list length")
	}
	if n == 0 {
		return Some([]byte{}), nil
	}
	data, err := mem.Read(ptr, n)
	if err != nil {
		return None[[]byte](), oob(path, ptr, n, err)
	}
	body := make([]byte, n)
	copy(body, data)
	return Some(body), nil
}

func writeBodyOption(mem Memory, alloc Allocator, addr uint32, opt Option[[]byte]) error {
	path := []string{"body"}
	if err := writeOptionTag(mem, addr, opt.IsSome, path); err != nil {
		return err
	}
	if !opt.IsSome {
		return nil
	}

	n := uint32(len(opt.Val))
	if len(opt.Val) > MaxStringSize {
		return errors.Overflow(errors.PhaseWire, path, len(opt.Val), "max list length")
	}
	if n == 0 {
		return writeSlice(mem, addr+bodyLayout.Payload, 0, 0, path)
	}
	ptr, err := alloc.Alloc(n, 1)
	if err != nil {
		return errors.New(errors.PhaseWire, errors.KindAllocation).Path(path...).Cause(err).Build()
	}
	if err := mem.Write(ptr, opt.Val); err != nil {
		return oob(path, ptr, n, err)
	}
	return writeSlice(mem, addr+bodyLayout.Payload, ptr, n, path)
}

// checkRegion verifies that [ptr, ptr+size) lies inside mem before anything
// sized by it is allocated.
func checkRegion(mem Memory, ptr uint32, size uint64, path []string) error {
	if size == 0 {
		return nil
	}
	if size > math.MaxUint32 || uint64(ptr)+size > math.MaxUint32+1 {
		return errors.Overflow(errors.PhaseWire, path, size, "linear memory size")
	}
	if sizer, ok := mem.(httpbridge.MemorySizer); ok {
		if uint64(ptr)+size > uint64(sizer.Size()) {
			return oob(path, ptr, uint32(size), nil)
		}
		return nil
	}
	if _, err := mem.Read(ptr, uint32(size)); err != nil {
		return oob(path, ptr, uint32(size), err)
	}
	return nil
}

func oob(path []string, offset, length uint32, cause error) error {
	e := errors.OutOfBounds(errors.PhaseWire, path, offset, length)
	e.Cause = cause
	return e
}

func itoa(i uint32) string {
	return strconv.FormatUint(uint64(i), 10)
}

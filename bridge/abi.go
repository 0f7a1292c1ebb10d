package bridge

import (
	"go.uber.org/zap"

	httpbridge "github.com/wippyai/http-bridge"
	"github.com/wippyai/http-bridge/wire"
)

// HandleABI serves a request record stored in linear memory. The request
// is lifted from reqPtr, handled, and the response record is lowered at
// retPtr with every buffer taken from alloc; those buffers belong to the
// caller afterwards. A request that cannot be lifted is answered with a 500.
// The error is non-nil only when the response itself cannot be written.
func (d *Dispatcher) HandleABI(mem httpbridge.Memory, alloc httpbridge.Allocator, reqPtr, retPtr uint32) error {
	var resp wire.Response

	req, err := wire.LiftRequest(mem, reqPtr)
	if err != nil {
		d.log.Warn("cannot read request record", zap.Uint32("ptr", reqPtr), zap.Error(err))
		resp = wire.InternalError(MsgReadRequest)
	} else {
		resp = d.Handle(req)
	}

	return wire.LowerResponse(mem, alloc, retPtr, resp)
}

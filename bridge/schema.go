package bridge

import "github.com/wippyai/http-bridge/managed"

// Managed field and method names the bridge depends on.
var (
	builderMethod     = managed.NewField[uint8]("Method")
	builderURI        = managed.NewField[managed.Object]("Uri")
	builderHeaders    = managed.NewField[managed.Array]("Headers")
	builderParameters = managed.NewField[managed.Array]("Parameters")
	builderBody       = managed.NewField[managed.Array]("Body")

	pairKey   = managed.NewField[managed.Object]("Key")
	pairValue = managed.NewField[managed.Object]("Value")

	interopStatus  = managed.NewField[uint16]("Status")
	interopHeaders = managed.NewField[managed.Array]("Headers")
	interopBody    = managed.NewField[managed.Array]("Body")
)

const (
	buildMethod     = "Build"
	toInteropMethod = "ToInterop"
)

// Package managed defines the boundary between the bridge and a managed
// object runtime.
//
// The bridge never touches managed objects directly. It allocates them,
// reads and writes their fields, and invokes their methods through the
// interfaces in this package:
//
//	Runtime        assembly registration, start-up, allocation, invocation
//	FieldAccessor  reflective field get/set by name
//	Image          a loaded assembly
//	Class          a managed type within an image
//	Method         a static or instance method, with its custom attributes
//	Object, Array  managed values
//
// Faults raised inside managed code are returned from Runtime.Invoke as
// *Exception, never as panics.
//
// Field names are declared once as typed descriptors:
//
//	var status = managed.NewField[uint16]("Status")
//	code, err := status.Get(rt, cls, obj)
package managed

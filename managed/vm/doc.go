// Package vm is an in-process managed runtime backed by Go reflection.
//
// Assemblies are Go values that populate an image at registration time:
//
//	var App = vm.Assembly{
//		Name: "App",
//		Load: func(img *vm.Image) error {
//			cls := img.DefineClass("App", "Handler", Handler{})
//			return cls.DefineStatic("Handle", Handle, managed.Attribute{
//				Type: "Spin.Sdk.HttpHandlerAttribute",
//			})
//		},
//	}
//
//	rt := vm.New(vm.WithAssemblies(sdk.Assembly(), App))
//
// Classes wrap Go types. Struct classes are reference types: instances are
// *T, arrays of them are []*T and a nil element is a null reference. Strings
// and byte arrays use the built-in System.String and System.Byte classes.
//
// Static methods are registered explicitly, together with their custom
// attributes. Instance methods are the exported methods of *T.
//
// A panic inside an invoked method, or a non-nil trailing error result, is
// returned from Invoke as *managed.Exception. A type implementing
// Init() has it run as its default constructor by InitObject.
package vm

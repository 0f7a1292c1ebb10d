// Package httpbridge marshals HTTP trigger requests into a managed object
// runtime and managed responses back out.
//
// A host trigger hands the bridge a request in a fixed, versioned wire shape
// (method, URI, headers, query parameters, body). The bridge stages it into a
// managed builder object, builds the application-facing request, invokes the
// single handler method marked with the handler attribute, and converts the
// returned managed response back to the wire shape. Every failure on the way
// becomes a well-formed 500 response.
//
// # Architecture Overview
//
//	httpbridge/          Root package with Memory and Allocator interfaces
//	├── bridge/          Converters, invocation, initialization cache, dispatcher
//	├── wire/            Wire contract types, WIT description, canonical ABI codec
//	├── managed/         Managed runtime boundary (objects, classes, fields, invoke)
//	│   └── vm/          Reflection-backed in-process managed runtime
//	├── entrypoint/      Handler discovery by attribute
//	├── sdk/             Managed SDK shapes (builder, request, response, pairs)
//	├── trigger/         gin and AWS Lambda host triggers
//	├── config/          viper/godotenv configuration and logger setup
//	├── errors/          Structured error types
//	├── cmd/bridge/      Server, Lambda, one-shot and interactive CLI
//	└── examples/        Sample application assembly and in-process usage
//
// # Quick Start
//
//	rt := vm.New(vm.WithAssemblies(sdk.Assembly(), hello.Assembly()))
//	d := bridge.New(rt, entrypoint.New(rt))
//	d.Prewarm()
//
//	resp := d.Handle(wire.Request{Method: wire.MethodGet, URI: "/"})
//	fmt.Println(resp.Status)
//
// # Initialization
//
// The first call to Prewarm or Handle registers the bundled assemblies,
// starts the runtime, resolves the handler and runs one synthetic GET request
// through the whole pipeline. The outcome is cached for the life of the
// Dispatcher: a failed initialization is replayed on every later request.
//
// # Thread Safety
//
// A Dispatcher expects one request at a time and the trigger package
// serializes calls. Initialization is guarded so concurrent first calls block
// until it completes.
//
// # Memory Ownership
//
// Values staged into the managed runtime belong to it once attached to a
// managed object. Buffers lowered into a linear memory for a response belong
// to the caller of HandleABI.
package httpbridge

// Package errors provides structured error types for the HTTP bridge.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the managed class and field involved, a path for nested
// wire values, and a cause chain.
//
// Use the Builder for structured construction:
//
//	err := errors.New(errors.PhaseRequest, errors.KindSetter).
//		Class("Spin.Sdk.HttpRequestInterop").
//		Field("Headers").
//		Detail("array of StringPair not assignable").
//		Build()
//
// Or use convenience constructors for the common failure modes:
//
//	err := errors.SetterFailed(errors.PhaseRequest, "HttpRequestInterop", "Uri", cause)
//	err := errors.NullResult(errors.PhaseResponse, "ToInterop")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors

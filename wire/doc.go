// Package wire defines the fixed HTTP trigger contract exchanged with the host.
//
// The contract is a pair of records, described in WIT:
//
//	enum method { get, post, put, delete, patch, head, options }
//	type headers = list<tuple<string, string>>
//	type params = list<tuple<string, string>>
//	type body = list<u8>
//	record request {
//	    method: method, uri: string,
//	    headers: option<headers>, params: option<params>, body: option<body>,
//	}
//	record response { status: u16, headers: option<headers>, body: option<body> }
//
// Go code works with Request and Response directly. When a request arrives in
// a linear memory, LiftRequest and LowerResponse move it across using the
// canonical ABI layout computed from the WIT description.
//
// # Ownership
//
// Lifting copies every string and byte buffer out of memory, so lifted values
// never alias linear memory. Lowering allocates each buffer through the one
// Allocator passed for that direction; the receiver owns those regions once
// the call returns. Arena is the allocator used for a single request/response
// exchange: nothing is freed individually, Reset releases it all.
//
// # Absent vs Empty
//
// Headers, params and body are options. None and Some of an empty list are
// different wire values and both round-trip unchanged through the codec.
package wire

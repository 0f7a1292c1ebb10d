package bridge

import (
	"sync"

	"github.com/wippyai/http-bridge/managed"
)

// State is the initialization state of a Dispatcher.
type State uint8

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// entry is everything resolved once and reused by every request.
type entry struct {
	handler      managed.Method
	builderClass managed.Class
	image        managed.Image
	warmupURI    string
}

// cache holds the one-time initialization result. Once the state is Ready
// or Failed it never changes again.
type cache struct {
	entry   entry
	cause   error
	failure string
	mu      sync.Mutex
	state   State
}

func (c *cache) current() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

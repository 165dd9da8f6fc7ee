package connector

import "errors"

// Sentinel kinds for connector errors. These allow errors.Is from callers.
var (
	// ErrConnection means the adapter cannot reach its backend. Retried by
	// the manager up to the configured attempt count.
	ErrConnection = errors.New("connection error")

	// ErrQuery means a single pull failed. Logged and skipped for the
	// cycle; never aborts other connectors.
	ErrQuery = errors.New("query error")

	// ErrUnsupportedSystem means the factory got an unknown type tag.
	// Fatal at AddSystem time, never at runtime.
	ErrUnsupportedSystem = errors.New("unsupported system type")

	// ErrNotConnected means a capability was called before Connect.
	ErrNotConnected = errors.New("not connected")
)

package cache

import "errors"

// ErrCache marks transport-level cache failures. Always non-fatal: callers
// treat it identically to a miss.
var ErrCache = errors.New("cache error")

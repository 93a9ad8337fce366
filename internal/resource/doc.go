// Package resource provides the memory budget and IO throttle shared by the
// containers of a map.
//
//   - Memory: block allocations are charged against a weighted semaphore
//     (non-blocking, fail-fast) and tracked with an atomic counter.
//   - IO: a token bucket throttles save/load streams through
//     RateLimitedWriter and RateLimitedReader.
//
// All methods handle a nil Controller gracefully - they become no-ops.
package resource

// Package gid assigns a stable, process-unique identifier to the
// calling goroutine. It exists for two seams that need one:
// record.Record's producing-thread identifier, and queue.Sharded's
// producer/consumer lane assignment maps, which the reference
// implementation keys on an OS thread id (original_source/base/os.h).
//
// Go has no public API for the runtime's internal goroutine id, so
// Current parses the "goroutine N [running]:" header runtime.Stack
// already emits for the calling goroutine — the same portable trick
// every goroutine-id shim in the ecosystem uses. The id is re-read
// from the stack on every call; callers that need it on a hot path
// should cache it themselves for the life of the goroutine.
package gid

import (
	"runtime"
	"strconv"
)

// Current returns a process-unique identifier for the calling
// goroutine. It is stable for the life of the goroutine but is never
// reused while the goroutine that owns it is still running; once a
// goroutine exits, Go may reuse the underlying runtime id for a new
// goroutine, so callers must not persist a Current() value past the
// lifetime of the goroutine that produced it.
func Current() uint64 {
	buf := stackHeader()
	return parseGoroutineID(buf)
}

// stackHeader captures just enough of the calling goroutine's stack
// trace to read off the "goroutine N [...]:" header line.
func stackHeader() []byte {
	buf := make([]byte, 64)
	for {
		n := runtime.Stack(buf, false)
		if n < len(buf) {
			return buf[:n]
		}
		buf = make([]byte, len(buf)*2)
	}
}

// parseGoroutineID extracts N from a "goroutine N [state]:" header.
func parseGoroutineID(stack []byte) uint64 {
	const prefix = "goroutine "
	if len(stack) <= len(prefix) {
		return 0
	}
	i := len(prefix)
	j := i
	for j < len(stack) && stack[j] >= '0' && stack[j] <= '9' {
		j++
	}
	if j == i {
		return 0
	}
	id, err := strconv.ParseUint(string(stack[i:j]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// Package clock supplies the cached wall-clock reading used to
// timestamp records on the hot logging path. It is a thin wrapper
// around agilira/go-timecache (the same cached-time collaborator the
// agilira/lethe pack member uses for its own record timestamps),
// trading a hand-rolled ticker for a maintained dependency that does
// the same job.
package clock

import (
	"time"

	timecache "github.com/agilira/go-timecache"
)

// defaultResolution matches the sub-millisecond cadence log timestamps
// need without forcing every Record construction through time.Now's
// syscall.
const defaultResolution = 200 * time.Microsecond

var shared = timecache.NewWithResolution(defaultResolution)

// Now returns the most recently cached wall-clock time. It is safe for
// concurrent use and never blocks on a syscall.
func Now() time.Time {
	return shared.CachedTime()
}

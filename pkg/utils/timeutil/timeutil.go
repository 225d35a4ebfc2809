// Package timeutil provides a package-level injectable clock for code that
// does not want to thread a clock.Clock through every call.
package timeutil

import (
	"time"

	infraClock "github.com/sudo696/ring/pkg/interfaces/infrastructure/clock"
)

var nowProvider func() time.Time = time.Now

// SetClock overrides the time source, falling back to time.Now when c is nil.
func SetClock(c infraClock.Clock) {
	if c == nil {
		nowProvider = time.Now
		return
	}
	nowProvider = c.Now
}

func Now() time.Time { return nowProvider() }

func NowUnix() uint64 { return uint64(nowProvider().Unix()) }

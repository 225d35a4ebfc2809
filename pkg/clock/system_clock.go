package clock

import "time"

// SystemClock delegates directly to the standard library wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time                  { return time.Now() }
func (SystemClock) Since(t time.Time) time.Duration { return time.Since(t) }
func (SystemClock) Unix() int64                     { return time.Now().Unix() }
func (SystemClock) UnixNano() int64                 { return time.Now().UnixNano() }

package util

import "time"

// Timer measures elapsed durations for per-analysis processing times.
type Timer struct {
	start time.Time
}

// StartTimer creates a timer starting now.
func StartTimer() Timer {
	return Timer{start: time.Now()}
}

// ElapsedMs returns the elapsed milliseconds since start.
func (t Timer) ElapsedMs() int64 {
	if t.start.IsZero() {
		return 0
	}
	return time.Since(t.start).Milliseconds()
}

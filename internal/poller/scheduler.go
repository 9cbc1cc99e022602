package poller

import "time"

// Timer is a pending callback returned by [Scheduler.After].
type Timer interface {
	// Stop prevents the callback from firing. It returns false if the
	// callback has already fired or been stopped.
	Stop() bool
}

// Scheduler invokes callbacks after a delay.
//
// Sessions arm at most one timer at a time and tolerate a timer firing
// concurrently with a Stop request.
type Scheduler interface {
	After(d time.Duration, fn func()) Timer
}

// TimerScheduler is the wall-clock [Scheduler] backed by [time.AfterFunc].
// Callbacks run on their own goroutine.
type TimerScheduler struct{}

// After implements [Scheduler].
func (TimerScheduler) After(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// Package poller provides the status-refresh loop used to follow lecture jobs.
//
// This package is internal to LectureAssist and drives repeated status
// requests for a single job until the job reaches a terminal status or the
// caller stops following it.
//
// The main components are:
//
//   - [Engine]: starts polling sessions against a [Fetcher]
//   - [Session]: one polling lifetime for one job id, with its own state
//   - [Scheduler]: the timer primitive sessions use to wait between attempts
//   - [Snapshot]: the outcome of one successful status request
//
// Sessions never block the caller. All waiting happens through the
// [Scheduler], so tests can drive time by hand instead of sleeping.
//
// Users of the lectureassist library should not need to interact with this
// package directly. Configuration is done through the main lectureassist package.
package poller

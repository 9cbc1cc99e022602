// Package server provides the HTTP server for the LectureAssist dashboard and API.
//
// This package handles all HTTP concerns:
//
//   - Dashboard serving: Serves the embedded HTML/CSS/JS dashboard at "/"
//   - REST API: lecture views, follow/unfollow and plain-text downloads
//     under "/api/lectures", uploads at "/api/upload"
//   - Server-Sent Events: Real-time updates at "/api/sse"
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
//
// Users of the lectureassist library should not need to interact with this
// package directly. The server is started by [lectureassist.LectureAssist.Start].
package server

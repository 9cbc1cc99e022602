// Package api is the HTTP transport to the remote lecture service.
//
// It performs single requests only: uploading an audio file, fetching the
// current result for a job, and fetching the status-only view. Retrying is
// the caller's concern.
//
// Every failure is returned as an [*Error] classified as network, server or
// malformed-response, and matches [ErrNetwork], [ErrServer] or
// [ErrMalformedResponse] with errors.Is.
package api

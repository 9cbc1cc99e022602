package lectureassist

import (
	"errors"

	"github.com/jpalmerr/lectureassist/internal/api"
	"github.com/jpalmerr/lectureassist/internal/poller"
)

// Fetch and upload failures are classified into three kinds. Match them with
// errors.Is; all three are transient to a polling [Session], which reports
// them and keeps retrying.
var (
	// ErrNetwork matches failures where the request could not be sent or
	// the response could not be read.
	ErrNetwork = api.ErrNetwork

	// ErrServer matches non-2xx responses. The error text carries the
	// service's own message when it sent one.
	ErrServer = api.ErrServer

	// ErrMalformedResponse matches responses whose body is not the
	// expected JSON shape.
	ErrMalformedResponse = api.ErrMalformedResponse
)

// ErrUnsupportedFormat is returned for uploads that are not .wav, .mp3,
// .m4a or .ogg files. No request is made.
var ErrUnsupportedFormat = api.ErrUnsupportedFormat

// ErrEmptyJobID is returned when a blank job id is passed to [Client.Watch],
// [Client.Fetch] or [LectureAssist.Follow].
var ErrEmptyJobID = poller.ErrEmptyJobID

// StatusCode returns the HTTP status code carried by a server error, or 0
// if err is not one.
func StatusCode(err error) int {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Kind == api.KindServer {
		return apiErr.StatusCode
	}
	return 0
}

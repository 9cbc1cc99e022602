package lectureassist

import "github.com/jpalmerr/lectureassist/internal/poller"

// Status represents the processing state of a lecture job.
//
// Status is a string type holding one of five predefined values. Values
// received from the service are normalised with [ParseStatus], so a
// [Snapshot] never carries anything else.
type Status string

const (
	// StatusPending indicates the job is queued and not yet being processed.
	StatusPending Status = poller.StatusPending

	// StatusProcessing indicates transcription or summarization is running.
	StatusProcessing Status = poller.StatusProcessing

	// StatusCompleted indicates the transcript and summary are final.
	StatusCompleted Status = poller.StatusCompleted

	// StatusFailed indicates the service gave up on the job.
	StatusFailed Status = poller.StatusFailed

	// StatusUnknown indicates a status value this client does not recognise.
	StatusUnknown Status = poller.StatusUnknown
)

// ParseStatus normalises a wire status. Matching is case-insensitive and any
// unrecognised value becomes [StatusUnknown].
func ParseStatus(raw string) Status {
	return Status(poller.NormalizeStatus(raw))
}

// String returns the string representation of the status.
// This implements the fmt.Stringer interface.
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether the status ends polling: [StatusCompleted] or
// [StatusFailed].
func (s Status) IsTerminal() bool {
	return poller.IsTerminal(string(s))
}

// Snapshot is the state of a job as returned by one successful fetch.
//
// Snapshot is an immutable value; every poll produces a new one that
// replaces the previous one. Text fields are empty strings when the service
// omits them.
type Snapshot struct {
	// JobID is the opaque job identifier.
	JobID string

	// Status is the normalised processing state.
	Status Status

	// Title is the lecture title (the uploaded file name on the reference service).
	Title string

	// Summary is the generated summary.
	Summary string

	// Transcript is the full transcript text.
	Transcript string

	// CreatedAt is the service's creation timestamp, verbatim. May be empty.
	CreatedAt string
}

func snapshotFromPoller(ps poller.Snapshot) Snapshot {
	return Snapshot{
		JobID:      ps.JobID,
		Status:     ParseStatus(ps.Status),
		Title:      ps.Title,
		Summary:    ps.Summary,
		Transcript: ps.Transcript,
		CreatedAt:  ps.CreatedAt,
	}
}

package store

import "time"

// LectureView is the dashboard's view of one followed lecture job.
//
// LectureView is the storage representation used by the REST API and SSE.
// It is decoupled from the polling types so the JSON shape can evolve
// independently.
type LectureView struct {
	// JobID identifies the job on the transcription service.
	JobID string `json:"job_id"`

	// Status is the normalized job status (e.g., "PROCESSING", "COMPLETED").
	Status string `json:"status"`

	Title      string `json:"title"`
	Summary    string `json:"summary"`
	Transcript string `json:"transcript"`
	CreatedAt  string `json:"created_at"`

	// Error holds the message of the most recent failed attempt.
	// nil once a later attempt succeeds.
	Error *string `json:"error"`

	// Attempts is the number of fetches issued for this job.
	Attempts int `json:"attempts"`

	// Following is true while a polling session is active for the job.
	Following bool `json:"following"`

	// UpdatedAt is when the view last changed.
	UpdatedAt time.Time `json:"updated_at"`

	// Removed is set only on the notification sent by Delete.
	Removed bool `json:"removed,omitempty"`
}

// Store defines the interface for storing and subscribing to lecture views.
//
// Store implementations must be safe for concurrent access. The pub/sub
// mechanism allows real-time updates to be pushed to connected clients
// (e.g., via Server-Sent Events).
type Store interface {
	// Update stores a view and notifies all subscribers.
	// Views are keyed by JobID, so later updates replace earlier ones.
	Update(view LectureView)

	// Get returns the view for jobID and whether it exists.
	Get(jobID string) (LectureView, bool)

	// Delete removes the view for jobID and notifies subscribers with a
	// Removed view. Reports whether a view was removed.
	Delete(jobID string) bool

	// GetAll returns all stored views ordered by JobID.
	// The returned slice is a snapshot; modifications do not affect the store.
	GetAll() []LectureView

	// Subscribe returns a channel that receives view updates.
	// The returned channel has a buffer; slow consumers may miss updates.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan LectureView

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan LectureView)
}

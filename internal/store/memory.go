package store

import (
	"sort"
	"sync"
)

const subscriberBuffer = 100

// MemoryStore is an in-memory implementation of [Store].
//
// MemoryStore provides thread-safe storage with a publish-subscribe mechanism
// for real-time updates. Views are keyed by job id, with new views replacing
// previous values.
//
// Subscribers receive updates via buffered channels (buffer size 100). Updates
// are sent non-blocking; if a subscriber's buffer is full, the update is dropped
// for that subscriber to prevent blocking the entire system.
type MemoryStore struct {
	mu          sync.RWMutex
	views       map[string]LectureView
	subscribers map[chan LectureView]struct{}
	subMu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory [Store] implementation.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		views:       make(map[string]LectureView),
		subscribers: make(map[chan LectureView]struct{}),
	}
}

// Update stores a [LectureView] and notifies all subscribers.
func (m *MemoryStore) Update(view LectureView) {
	view.Removed = false

	m.mu.Lock()
	m.views[view.JobID] = view
	m.mu.Unlock()

	m.notifySubscribers(view)
}

// Get returns the view stored for jobID.
func (m *MemoryStore) Get(jobID string) (LectureView, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	view, ok := m.views[jobID]
	return view, ok
}

// Delete removes the view stored for jobID.
func (m *MemoryStore) Delete(jobID string) bool {
	m.mu.Lock()
	view, ok := m.views[jobID]
	if ok {
		delete(m.views, jobID)
	}
	m.mu.Unlock()

	if !ok {
		return false
	}
	view.Following = false
	view.Removed = true
	m.notifySubscribers(view)
	return true
}

// GetAll returns a snapshot of all stored views, sorted by job id.
func (m *MemoryStore) GetAll() []LectureView {
	m.mu.RLock()
	views := make([]LectureView, 0, len(m.views))
	for _, view := range m.views {
		views = append(views, view)
	}
	m.mu.RUnlock()

	sort.Slice(views, func(i, j int) bool { return views[i].JobID < views[j].JobID })
	return views
}

// Subscribe creates a new subscription and returns a channel for receiving updates.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent resource leaks.
func (m *MemoryStore) Subscribe() <-chan LectureView {
	ch := make(chan LectureView, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
// Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan LectureView) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends the view to all active subscribers without
// blocking; full buffers drop the message.
func (m *MemoryStore) notifySubscribers(view LectureView) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- view:
		default:
		}
	}
}

package store

import (
	"sync"
	"testing"
	"time"
)

func TestNewMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	if store == nil {
		t.Fatal("NewMemoryStore() = nil")
	}

	if len(store.GetAll()) != 0 {
		t.Errorf("GetAll() = %v items, want 0", len(store.GetAll()))
	}
}

func TestMemoryStore_Update(t *testing.T) {
	store := NewMemoryStore()

	store.Update(LectureView{
		JobID:     "job-1",
		Status:    "PROCESSING",
		Title:     "Week 1",
		Attempts:  2,
		Following: true,
		UpdatedAt: time.Now(),
	})

	all := store.GetAll()
	if len(all) != 1 {
		t.Fatalf("GetAll() = %v items, want 1", len(all))
	}
	if all[0].JobID != "job-1" {
		t.Errorf("GetAll()[0].JobID = %v, want %v", all[0].JobID, "job-1")
	}
	if all[0].Status != "PROCESSING" {
		t.Errorf("GetAll()[0].Status = %v, want %v", all[0].Status, "PROCESSING")
	}
}

func TestMemoryStore_UpdateOverwrites(t *testing.T) {
	store := NewMemoryStore()

	store.Update(LectureView{JobID: "job-1", Status: "PROCESSING"})
	store.Update(LectureView{JobID: "job-1", Status: "COMPLETED", Summary: "done"})

	all := store.GetAll()
	if len(all) != 1 {
		t.Fatalf("GetAll() = %v items, want 1", len(all))
	}
	if all[0].Status != "COMPLETED" {
		t.Errorf("GetAll()[0].Status = %v, want %v", all[0].Status, "COMPLETED")
	}
	if all[0].Summary != "done" {
		t.Errorf("GetAll()[0].Summary = %q, want %q", all[0].Summary, "done")
	}
}

func TestMemoryStore_GetAllSorted(t *testing.T) {
	store := NewMemoryStore()

	store.Update(LectureView{JobID: "c"})
	store.Update(LectureView{JobID: "a"})
	store.Update(LectureView{JobID: "b"})

	all := store.GetAll()
	if len(all) != 3 {
		t.Fatalf("GetAll() = %v items, want 3", len(all))
	}
	for i, want := range []string{"a", "b", "c"} {
		if all[i].JobID != want {
			t.Errorf("GetAll()[%d].JobID = %q, want %q", i, all[i].JobID, want)
		}
	}
}

func TestMemoryStore_Get(t *testing.T) {
	store := NewMemoryStore()
	store.Update(LectureView{JobID: "job-1", Title: "Week 1"})

	view, ok := store.Get("job-1")
	if !ok {
		t.Fatal("Get(job-1) ok = false, want true")
	}
	if view.Title != "Week 1" {
		t.Errorf("Get(job-1).Title = %q, want %q", view.Title, "Week 1")
	}

	if _, ok := store.Get("missing"); ok {
		t.Error("Get(missing) ok = true, want false")
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore()
	store.Update(LectureView{JobID: "job-1", Following: true})

	ch := store.Subscribe()
	defer store.Unsubscribe(ch)

	if !store.Delete("job-1") {
		t.Fatal("Delete(job-1) = false, want true")
	}
	if _, ok := store.Get("job-1"); ok {
		t.Error("Get() after Delete() ok = true, want false")
	}

	select {
	case view := <-ch:
		if !view.Removed {
			t.Error("notification Removed = false, want true")
		}
		if view.Following {
			t.Error("notification Following = true, want false")
		}
	case <-time.After(time.Second):
		t.Fatal("Delete() did not notify subscribers")
	}

	if store.Delete("job-1") {
		t.Error("second Delete(job-1) = true, want false")
	}
}

func TestMemoryStore_UpdateClearsRemoved(t *testing.T) {
	store := NewMemoryStore()
	store.Update(LectureView{JobID: "job-1", Removed: true})

	view, _ := store.Get("job-1")
	if view.Removed {
		t.Error("stored view Removed = true, want false")
	}
}

func TestMemoryStore_Subscribe(t *testing.T) {
	store := NewMemoryStore()

	ch := store.Subscribe()
	if ch == nil {
		t.Fatal("Subscribe() = nil")
	}

	go func() {
		store.Update(LectureView{JobID: "job-1", Status: "PENDING"})
	}()

	select {
	case view := <-ch:
		if view.JobID != "job-1" {
			t.Errorf("received JobID = %v, want %v", view.JobID, "job-1")
		}
	case <-time.After(1 * time.Second):
		t.Error("Subscribe() channel did not receive update")
	}
}

func TestMemoryStore_MultipleSubscribers(t *testing.T) {
	store := NewMemoryStore()

	subs := []<-chan LectureView{store.Subscribe(), store.Subscribe(), store.Subscribe()}

	go func() {
		store.Update(LectureView{JobID: "job-1"})
	}()

	for i, ch := range subs {
		select {
		case view := <-ch:
			if view.JobID != "job-1" {
				t.Errorf("subscriber %d received JobID = %v, want job-1", i, view.JobID)
			}
		case <-time.After(1 * time.Second):
			t.Errorf("subscriber %d did not receive update", i)
		}
	}
}

func TestMemoryStore_Unsubscribe(t *testing.T) {
	store := NewMemoryStore()

	ch := store.Subscribe()
	store.Unsubscribe(ch)

	_, ok := <-ch
	if ok {
		t.Error("channel should be closed after Unsubscribe()")
	}

	// second unsubscribe is a no-op
	store.Unsubscribe(ch)

	// updates after unsubscribe must not panic
	store.Update(LectureView{JobID: "job-1"})
}

func TestMemoryStore_SlowSubscriberDoesNotBlock(t *testing.T) {
	store := NewMemoryStore()
	ch := store.Subscribe()
	defer store.Unsubscribe(ch)

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			store.Update(LectureView{JobID: "job-1", Attempts: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Update() blocked on a full subscriber buffer")
	}

	if len(ch) != subscriberBuffer {
		t.Errorf("buffered updates = %d, want %d", len(ch), subscriberBuffer)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(3)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				store.Update(LectureView{JobID: "job", Attempts: n*100 + j})
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = store.GetAll()
				_, _ = store.Get("job")
			}
		}()
		go func() {
			defer wg.Done()
			ch := store.Subscribe()
			store.Unsubscribe(ch)
		}()
	}
	wg.Wait()

	if len(store.GetAll()) != 1 {
		t.Errorf("GetAll() = %d items, want 1", len(store.GetAll()))
	}
}

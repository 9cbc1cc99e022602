package poller

import (
	"testing"
	"time"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"PENDING", StatusPending},
		{"processing", StatusProcessing},
		{" Completed ", StatusCompleted},
		{"failed", StatusFailed},
		{"", StatusUnknown},
		{"done", StatusUnknown},
		{"UNKNOWN", StatusUnknown},
	}

	for _, tt := range tests {
		if got := NormalizeStatus(tt.raw); got != tt.want {
			t.Errorf("NormalizeStatus(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range []string{"COMPLETED", "failed", " Failed"} {
		if !IsTerminal(s) {
			t.Errorf("IsTerminal(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"PENDING", "PROCESSING", "UNKNOWN", "whatever", ""} {
		if IsTerminal(s) {
			t.Errorf("IsTerminal(%q) = true, want false", s)
		}
	}
}

func TestBackoffDelay(t *testing.T) {
	want := []int{2000, 3200, 5120, 8192, 13107, 20972, 30000, 30000, 30000}
	for n, w := range want {
		if got := BackoffDelay(n); got != time.Duration(w)*time.Millisecond {
			t.Errorf("BackoffDelay(%d) = %v, want %dms", n, got, w)
		}
	}
}

// TestBackoffDelay_NonDecreasing verifies the delay never shrinks, even far
// past the ceiling where the float math overflows.
func TestBackoffDelay_NonDecreasing(t *testing.T) {
	prev := BackoffDelay(0)
	for n := 1; n < 2000; n++ {
		d := BackoffDelay(n)
		if d < prev {
			t.Fatalf("BackoffDelay(%d) = %v < BackoffDelay(%d) = %v", n, d, n-1, prev)
		}
		if d > 30*time.Second {
			t.Fatalf("BackoffDelay(%d) = %v exceeds ceiling", n, d)
		}
		prev = d
	}
}

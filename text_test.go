package lectureassist

import (
	"strings"
	"testing"
)

func TestParseViewMode(t *testing.T) {
	tests := []struct {
		in      string
		want    ViewMode
		wantErr bool
	}{
		{"", ViewBoth, false},
		{"both", ViewBoth, false},
		{" Summary ", ViewSummary, false},
		{"TRANSCRIPT", ViewTranscript, false},
		{"slides", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseViewMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseViewMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseViewMode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSnapshot_Text(t *testing.T) {
	snap := Snapshot{
		JobID:      "abc",
		Status:     StatusCompleted,
		Title:      "Week 1",
		Summary:    "Cells divide.",
		Transcript: "Today we look at mitosis.\n",
	}

	want := "Week 1\n" +
		"======\n" +
		"Status: COMPLETED\n" +
		"\nSummary\n-------\nCells divide.\n" +
		"\nTranscript\n----------\nToday we look at mitosis.\n"
	if got := snap.Text(ViewBoth); got != want {
		t.Errorf("Text(both) =\n%s\nwant\n%s", got, want)
	}

	summary := snap.Text(ViewSummary)
	if !strings.Contains(summary, "Cells divide.") || strings.Contains(summary, "Transcript") {
		t.Errorf("Text(summary) = %q", summary)
	}

	transcript := snap.Text(ViewTranscript)
	if strings.Contains(transcript, "Summary") || !strings.Contains(transcript, "mitosis") {
		t.Errorf("Text(transcript) = %q", transcript)
	}
}

func TestSnapshot_Text_Pending(t *testing.T) {
	snap := Snapshot{JobID: "abc", Status: StatusProcessing}

	got := snap.Text(ViewBoth)
	if !strings.HasPrefix(got, "abc\n===\n") {
		t.Errorf("Text() should fall back to the job id as title, got %q", got)
	}
	if strings.Count(got, "(not available yet)") != 2 {
		t.Errorf("Text() = %q, want both sections marked unavailable", got)
	}
}

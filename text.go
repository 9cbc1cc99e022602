package lectureassist

import (
	"fmt"
	"strings"
)

// ViewMode selects which sections of a lecture are rendered.
type ViewMode string

const (
	// ViewBoth renders the summary followed by the transcript.
	ViewBoth ViewMode = "both"

	// ViewSummary renders only the summary.
	ViewSummary ViewMode = "summary"

	// ViewTranscript renders only the transcript.
	ViewTranscript ViewMode = "transcript"
)

// ParseViewMode parses a view mode name. An empty string selects [ViewBoth].
func ParseViewMode(s string) (ViewMode, error) {
	switch m := ViewMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ViewBoth, nil
	case ViewBoth, ViewSummary, ViewTranscript:
		return m, nil
	default:
		return "", fmt.Errorf("unknown view mode %q (expected both, summary or transcript)", s)
	}
}

// Text renders the snapshot as plain text: a title line, the status, then
// the sections selected by mode. An unknown mode renders both sections.
//
// This is the format used for terminal output and text downloads.
func (s Snapshot) Text(mode ViewMode) string {
	var b strings.Builder

	title := s.Title
	if title == "" {
		title = s.JobID
	}
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", len([]rune(title))))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Status: %s\n", s.Status)

	if mode != ViewTranscript {
		writeSection(&b, "Summary", s.Summary)
	}
	if mode != ViewSummary {
		writeSection(&b, "Transcript", s.Transcript)
	}
	return b.String()
}

func writeSection(b *strings.Builder, heading, body string) {
	b.WriteString("\n")
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("-", len(heading)))
	b.WriteString("\n")
	if body == "" {
		b.WriteString("(not available yet)\n")
		return
	}
	b.WriteString(strings.TrimRight(body, "\n"))
	b.WriteString("\n")
}

package gias

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Markers that indicate the publishing service returned an error or
// maintenance page instead of data. Matched case-sensitively anywhere in
// the content.
var htmlMarkers = []string{"<!DOCTYPE", "<html", "<body", "<head"}

// Validate classifies raw downloaded content as a plausible CSV extract.
// It returns nil for content that looks tabular, or an error describing why
// the content was rejected. Pure; no side effects.
func Validate(content string) error {
	for _, marker := range htmlMarkers {
		if strings.Contains(content, marker) {
			return eris.New("contains HTML markup")
		}
	}

	// Only the first three lines are inspected: real extracts start with a
	// comma-separated header row.
	lines := strings.Split(content, "\n")
	n := len(lines)
	if n > 3 {
		n = 3
	}
	for _, line := range lines[:n] {
		if strings.Contains(line, ",") {
			return nil
		}
	}
	return eris.New("lacks comma separators")
}

package gias

import (
	"fmt"
	"math"
)

// SizeChange compares a freshly downloaded file's size against the previous
// copy and returns an advisory warning when the deviation exceeds
// thresholdPercent. The empty string means no warning. The comparison is
// strict: a change exactly at the threshold does not warn. A zero-byte prior
// file is not a meaningful baseline and never warns.
func SizeChange(newSize, oldSize int64, thresholdPercent float64, label string) string {
	if oldSize == 0 {
		return ""
	}

	percentDiff := math.Abs(float64(newSize-oldSize)/float64(oldSize)) * 100
	if percentDiff <= thresholdPercent {
		return ""
	}

	direction := "decreased"
	if newSize > oldSize {
		direction = "increased"
	}
	return fmt.Sprintf("%s %s in size by %.2f%% (%d -> %d bytes)",
		label, direction, percentDiff, oldSize, newSize)
}

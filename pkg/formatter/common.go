package formatter

import (
	"fmt"
	"io"
	"time"
)

// printTimestamp prints the scan completion time and duration
func printTimestamp(w io.Writer, completedAt time.Time, scanDuration time.Duration) {
	timeStr := completedAt.Format("2006-01-02 15:04:05")
	durationStr := fmt.Sprintf("%.2fs", scanDuration.Seconds())

	fmt.Fprintf(w, "Scan completed at %s (took %s)\n", timeStr, durationStr)
}

// yesNo formats a boolean as Yes or No
func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

package tasks

import (
	"fmt"
	"time"
)

// FormatDuration renders the elapsed time of a task. Concluded tasks get a
// compact fixed unit; running tasks render as "Running (Ns)".
func FormatDuration(start time.Time, end *time.Time, now time.Time) string {
	if end == nil {
		return fmt.Sprintf("Running (%ds)", int(now.Sub(start).Seconds()))
	}

	d := end.Sub(start)
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	default:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
}

package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
)

// IsCron reports whether the schedule is a syntactically valid 5-field cron
// expression.
func IsCron(schedule string) bool {
	_, err := cron.ParseStandard(schedule)
	return err == nil
}

// ParseOneTime parses a schedule as an absolute RFC 3339 timestamp. A
// schedule that is neither valid cron nor parseable here is inert.
func ParseOneTime(schedule string) (time.Time, error) {
	return time.Parse(time.RFC3339, schedule)
}

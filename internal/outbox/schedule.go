package outbox

import (
	"fmt"
	"strings"
	"time"
)

// Schedule is the recognized cleanup schedule surface: "@midnight" and
// "@daily" run at the next UTC midnight and every 24h after, "@every <dur>"
// runs on a fixed interval. Nothing else is accepted.
type Schedule struct {
	every         time.Duration
	alignMidnight bool
}

func ParseSchedule(expr string) (Schedule, error) {
	switch expr {
	case "@midnight", "@daily":
		return Schedule{every: 24 * time.Hour, alignMidnight: true}, nil
	}
	if rest, ok := strings.CutPrefix(expr, "@every "); ok {
		d, err := time.ParseDuration(rest)
		if err != nil {
			return Schedule{}, fmt.Errorf("invalid schedule duration %q: %w", rest, err)
		}
		if d <= 0 {
			return Schedule{}, fmt.Errorf("schedule duration must be positive, got %q", rest)
		}
		return Schedule{every: d}, nil
	}
	return Schedule{}, fmt.Errorf("unrecognized schedule expression %q", expr)
}

// Next returns the first run time after now.
func (s Schedule) Next(now time.Time) time.Time {
	if s.alignMidnight {
		return now.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	}
	return now.Add(s.every)
}

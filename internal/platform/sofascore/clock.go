package sofascore

import (
	"strings"
	"time"
)

// Phase labels that mean the match is over.
var terminalPhases = []string{"finished", "ended", "full time", "after extra time", "after penalties"}

// IsTerminalStatus reports whether a provider phase label means the fixture
// has finished.
func IsTerminalStatus(status string) bool {
	s := strings.ToLower(status)
	for _, term := range terminalPhases {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}

const halfLength = 45

// ElapsedMinute estimates the match clock from the start of the current
// period. First and second half minutes are capped at 45 per half; halftime
// and a missing period start yield nil. Other phases (extra time, breaks)
// report raw minutes since the period started.
func ElapsedMinute(periodStart *time.Time, status string, now time.Time) *int {
	if periodStart == nil {
		return nil
	}
	elapsed := int(now.Sub(*periodStart).Minutes())
	s := strings.ToLower(status)

	var minute int
	switch {
	case strings.Contains(s, "1st") || strings.Contains(s, "first"):
		minute = clamp(elapsed, 0, halfLength)
	case strings.Contains(s, "2nd") || strings.Contains(s, "second"):
		minute = halfLength + clamp(elapsed, 0, halfLength)
	case strings.Contains(s, "halftime") || strings.Contains(s, "half time"):
		return nil
	default:
		if elapsed < 0 {
			return nil
		}
		minute = elapsed
	}
	return &minute
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

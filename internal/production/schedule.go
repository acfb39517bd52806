package production

import (
	"fmt"
	"math"
	"time"
)

// Priority buckets an order by how close its due date is.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityVeryHigh Priority = "very_high"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

func daysUntil(due, now time.Time) int {
	return int(math.Floor(due.Sub(now).Hours() / 24))
}

func PriorityFor(due, now time.Time) Priority {
	switch d := daysUntil(due, now); {
	case d < 0:
		return PriorityCritical
	case d <= 2:
		return PriorityVeryHigh
	case d <= 5:
		return PriorityHigh
	case d <= 10:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// RemainingLabel renders the time left before the due date the way the
// console displays it.
func RemainingLabel(due, now time.Time) string {
	left := due.Sub(now)
	if left < 0 {
		return "¡VENCIDA!"
	}
	hours := int(left.Hours())
	if hours >= 24 {
		return fmt.Sprintf("%dd %dh", hours/24, hours%24)
	}
	return fmt.Sprintf("%dh", hours)
}

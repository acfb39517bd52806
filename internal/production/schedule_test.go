package production

import (
	"testing"
	"time"
)

func TestPriorityFor(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		due  time.Time
		want Priority
	}{
		{"past due", now.Add(-2 * time.Hour), PriorityCritical},
		{"due today", now, PriorityVeryHigh},
		{"two days", now.AddDate(0, 0, 2), PriorityVeryHigh},
		{"three days", now.AddDate(0, 0, 3), PriorityHigh},
		{"five days", now.AddDate(0, 0, 5), PriorityHigh},
		{"six days", now.AddDate(0, 0, 6), PriorityMedium},
		{"ten days", now.AddDate(0, 0, 10), PriorityMedium},
		{"eleven days", now.AddDate(0, 0, 11), PriorityLow},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := PriorityFor(tc.due, now); got != tc.want {
				t.Fatalf("PriorityFor(%s) = %s, want %s", tc.name, got, tc.want)
			}
		})
	}
}

func TestRemainingLabel(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		due  time.Time
		want string
	}{
		{"overdue", now.Add(-time.Minute), "¡VENCIDA!"},
		{"hours only", now.Add(7*time.Hour + 30*time.Minute), "7h"},
		{"days and hours", now.Add(2*24*time.Hour + 5*time.Hour), "2d 5h"},
		{"exactly now", now, "0h"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := RemainingLabel(tc.due, now); got != tc.want {
				t.Fatalf("RemainingLabel(%s) = %q, want %q", tc.name, got, tc.want)
			}
		})
	}
}

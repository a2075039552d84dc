package queue

import "time"

// Canonical daily publication slots, expressed as hours of the day.
const (
	SlotAHour = 12
	SlotBHour = 18
)

// NextSlot returns the next canonical publication instant strictly after
// now, in the given location: 12:00 today, else 18:00 today, else 12:00
// tomorrow. Scheduled times are never user supplied.
func NextSlot(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)

	slotA := time.Date(local.Year(), local.Month(), local.Day(), SlotAHour, 0, 0, 0, loc)
	slotB := time.Date(local.Year(), local.Month(), local.Day(), SlotBHour, 0, 0, 0, loc)

	switch {
	case local.Before(slotA):
		return slotA
	case local.Before(slotB):
		return slotB
	default:
		return slotA.AddDate(0, 0, 1)
	}
}

package domain

import "time"

// LockPolicy decides whether a booking may still be edited or cancelled based on the
// date of its schedule. The schedule date is a calendar date and is compared with the
// calendar day of now.
type LockPolicy string

const (
	// LockWhenUpcoming locks bookings whose schedule date is after today.
	LockWhenUpcoming LockPolicy = "upcoming"
	// LockWhenPast locks bookings whose schedule date is before today.
	LockWhenPast LockPolicy = "past"
)

func ParseLockPolicy(s string) (LockPolicy, error) {
	switch p := LockPolicy(s); p {
	case LockWhenUpcoming, LockWhenPast:
		return p, nil
	default:
		return "", validationError("unknown lock policy %q", s)
	}
}

func (p LockPolicy) Locked(scheduleDate, now time.Time) bool {
	y, m, d := scheduleDate.Date()
	schedule := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	today := truncateToDay(now)

	switch p {
	case LockWhenPast:
		return schedule.Before(today)
	default:
		return schedule.After(today)
	}
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

package domain

import "context"

type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "available"
	SeatStatusHeld      SeatStatus = "held"
)

type Seat struct {
	ID         int
	ScheduleID int
	SeatNumber string
	Status     SeatStatus
}

func (s Seat) Available() bool {
	return s.Status == SeatStatusAvailable
}

func SeatIDs(seats []Seat) []int {
	ids := make([]int, len(seats))
	for i, seat := range seats {
		ids[i] = seat.ID
	}

	return ids
}

type SeatRepository interface {
	GetByScheduleId(ctx context.Context, scheduleID int) ([]Seat, error)
	// GetForUpdate locks and returns the seats of the schedule matching seatIDs, ordered by id.
	// Unknown ids are omitted from the result.
	GetForUpdate(ctx context.Context, scheduleID int, seatIDs []int) ([]Seat, error)
	UpdateStatus(ctx context.Context, seatIDs []int, status SeatStatus) error
}

package booking

import (
	"context"
	"slices"

	"github.com/metinatakli/screening-booking/internal/domain"
)

// SeatRegistry owns seat availability. Its methods must run inside a transaction
// started by domain.Transactor: FindSeats locks the rows it returns and Reserve relies
// on those locks to make its check-then-update atomic.
type SeatRegistry struct {
	seats domain.SeatRepository
}

func NewSeatRegistry(seats domain.SeatRepository) *SeatRegistry {
	return &SeatRegistry{
		seats: seats,
	}
}

// FindSeats locks and returns the requested seats of a schedule ordered by id. If any id
// does not resolve, a *domain.SeatError wrapping domain.ErrRecordNotFound lists them.
func (r *SeatRegistry) FindSeats(ctx context.Context, scheduleID int, seatIDs []int) ([]domain.Seat, error) {
	seats, err := r.seats.GetForUpdate(ctx, scheduleID, seatIDs)
	if err != nil {
		return nil, err
	}

	found := make(map[int]bool, len(seats))
	for _, seat := range seats {
		found[seat.ID] = true
	}

	var missing []int
	for _, id := range seatIDs {
		if !found[id] {
			missing = append(missing, id)
		}
	}

	if len(missing) > 0 {
		return nil, &domain.SeatError{Err: domain.ErrRecordNotFound, SeatIDs: missing}
	}

	return seats, nil
}

// Reserve marks every seat as held. Nothing is written unless all seats are available.
func (r *SeatRegistry) Reserve(ctx context.Context, seats []domain.Seat) error {
	if len(seats) == 0 {
		return nil
	}

	var taken []int
	for _, seat := range seats {
		if !seat.Available() {
			taken = append(taken, seat.ID)
		}
	}

	if len(taken) > 0 {
		return &domain.SeatError{Err: domain.ErrSeatUnavailable, SeatIDs: taken}
	}

	err := r.seats.UpdateStatus(ctx, domain.SeatIDs(seats), domain.SeatStatusHeld)
	if err != nil {
		return err
	}

	for i := range seats {
		seats[i].Status = domain.SeatStatusHeld
	}

	return nil
}

// Release makes the seats available again. Seats that are already available are left alone.
func (r *SeatRegistry) Release(ctx context.Context, seats []domain.Seat) error {
	held := slices.DeleteFunc(slices.Clone(seats), domain.Seat.Available)
	if len(held) == 0 {
		return nil
	}

	err := r.seats.UpdateStatus(ctx, domain.SeatIDs(held), domain.SeatStatusAvailable)
	if err != nil {
		return err
	}

	for i := range seats {
		seats[i].Status = domain.SeatStatusAvailable
	}

	return nil
}

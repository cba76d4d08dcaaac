package booking

import (
	"errors"
	"fmt"
	"slices"

	"github.com/metinatakli/screening-booking/internal/domain"
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrValidation, fmt.Sprintf(format, args...))
}

// normalizeSeatIDs rejects an empty or malformed seat set and collapses duplicate ids.
func normalizeSeatIDs(seatIDs []int) ([]int, error) {
	if len(seatIDs) == 0 {
		return nil, validationError("at least one seat must be selected")
	}

	for _, id := range seatIDs {
		if id < 1 {
			return nil, validationError("seat id %d must be greater than zero", id)
		}
	}

	return dedupe(seatIDs), nil
}

// normalizeSelections merges repeated service ids by summing their quantities. A zero
// quantity counts as one so merging never loses the default.
func normalizeSelections(selections []domain.ServiceSelection) ([]domain.ServiceSelection, error) {
	merged := make([]domain.ServiceSelection, 0, len(selections))
	index := make(map[int]int, len(selections))

	for _, sel := range selections {
		if sel.ServiceID < 1 {
			return nil, validationError("service id %d must be greater than zero", sel.ServiceID)
		}

		if sel.Quantity < 0 {
			return nil, validationError("quantity of service %d must not be negative", sel.ServiceID)
		}

		quantity := sel.Quantity
		if quantity == 0 {
			quantity = 1
		}

		if i, ok := index[sel.ServiceID]; ok {
			merged[i].Quantity += quantity
			continue
		}

		index[sel.ServiceID] = len(merged)
		merged = append(merged, domain.ServiceSelection{ServiceID: sel.ServiceID, Quantity: quantity})
	}

	return merged, nil
}

// dedupe returns the distinct ids in ascending order.
func dedupe(ids []int) []int {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// asInvalidSeat turns a seat lookup miss into domain.ErrInvalidSeat: the ids were
// supplied for a schedule they do not belong to.
func asInvalidSeat(err error) error {
	var seatErr *domain.SeatError
	if errors.As(err, &seatErr) && errors.Is(seatErr.Err, domain.ErrRecordNotFound) {
		return &domain.SeatError{Err: domain.ErrInvalidSeat, SeatIDs: seatErr.SeatIDs}
	}

	return err
}

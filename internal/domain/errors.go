package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRecordNotFound   = errors.New("record not found")
	ErrInvalidSeat      = errors.New("seat does not belong to the schedule")
	ErrSeatUnavailable  = errors.New("seat(s) are already reserved")
	ErrBookingLocked    = errors.New("booking can no longer be changed")
	ErrBookingCancelled = errors.New("booking is already cancelled")
	ErrValidation       = errors.New("invalid booking input")
)

// SeatError reports which seats caused a seat level failure.
type SeatError struct {
	Err     error
	SeatIDs []int
}

func (e *SeatError) Error() string {
	return fmt.Sprintf("%s: %v", e.Err, e.SeatIDs)
}

func (e *SeatError) Unwrap() error {
	return e.Err
}

// ServiceError reports service ids that could not be resolved.
type ServiceError struct {
	Err        error
	ServiceIDs []int
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: service(s) %v", e.Err, e.ServiceIDs)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type Booking struct {
	ID         int
	UserID     int
	ScheduleID int
	TotalPrice decimal.Decimal
	Status     BookingStatus
	Schedule   *Schedule
	Seats      []Seat
	Services   []ServiceLine
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (b *Booking) Cancelled() bool {
	return b.Status == BookingStatusCancelled
}

// Confirmation is the read model shown to a user after booking a schedule.
type Confirmation struct {
	Booking    Booking
	Schedule   Schedule
	Seats      []Seat
	TotalPrice decimal.Decimal
}

type BookingRepository interface {
	Create(ctx context.Context, booking *Booking) error
	GetById(ctx context.Context, id int) (*Booking, error)
	GetByIdForUpdate(ctx context.Context, id int) (*Booking, error)
	GetAll(ctx context.Context, pagination Pagination) ([]Booking, *Metadata, error)
	// GetLatestByUserAndSchedule returns the newest booking that is not cancelled.
	GetLatestByUserAndSchedule(ctx context.Context, userID, scheduleID int) (*Booking, error)
	Update(ctx context.Context, booking *Booking) error
	AttachSeats(ctx context.Context, bookingID int, seatIDs []int) error
	DetachSeats(ctx context.Context, bookingID int) error
	AttachServices(ctx context.Context, bookingID int, lines []ServiceLine) error
	DetachServices(ctx context.Context, bookingID int) error
}

// Transactor runs fn inside a single database transaction. Repositories called with the
// context passed to fn participate in that transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

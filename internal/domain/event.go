package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type BookingEventType string

const (
	BookingCreated   BookingEventType = "booking.created"
	BookingUpdated   BookingEventType = "booking.updated"
	BookingCancelled BookingEventType = "booking.cancelled"
)

// BookingEvent describes a committed booking state change.
type BookingEvent struct {
	ID         string           `json:"id"`
	Type       BookingEventType `json:"type"`
	BookingID  int              `json:"bookingId"`
	UserID     int              `json:"userId"`
	ScheduleID int              `json:"scheduleId"`
	SeatIDs    []int            `json:"seatIds"`
	TotalPrice decimal.Decimal  `json:"totalPrice"`
	Status     BookingStatus    `json:"status"`
	OccurredAt time.Time        `json:"occurredAt"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event BookingEvent) error
}

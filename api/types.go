// Package api holds the JSON request and response bodies of the HTTP API.
package api

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Message   string    `json:"message"`
	RequestId string    `json:"requestId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ValidationError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type ValidationErrorResponse struct {
	Message          string            `json:"message"`
	RequestId        string            `json:"requestId,omitempty"`
	Timestamp        time.Time         `json:"timestamp"`
	ValidationErrors []ValidationError `json:"validationErrors"`
}

// SeatErrorResponse is returned when a booking request names seats that are taken or
// do not belong to the schedule.
type SeatErrorResponse struct {
	Message   string    `json:"message"`
	RequestId string    `json:"requestId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	SeatIds   []int     `json:"seatIds"`
}

type SystemInfo struct {
	Environment string `json:"environment"`
	Version     string `json:"version"`
}

type HealthcheckResponse struct {
	Status     string     `json:"status"`
	SystemInfo SystemInfo `json:"systemInfo"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AlreadyLoggedInResponse struct {
	Message string `json:"message"`
}

type Metadata struct {
	CurrentPage  int `json:"currentPage"`
	FirstPage    int `json:"firstPage"`
	LastPage     int `json:"lastPage"`
	PageSize     int `json:"pageSize"`
	TotalRecords int `json:"totalRecords"`
}

type ListBookingsParams struct {
	Page     *int `validate:"omitempty,min=1"`
	PageSize *int `validate:"omitempty,min=1,max=100"`
}

type ServiceSelection struct {
	ServiceId int `json:"serviceId" validate:"required,min=1"`
	Quantity  int `json:"quantity" validate:"min=0,max=20"`
}

type CreateBookingRequest struct {
	ScheduleId int                `json:"scheduleId" validate:"required,min=1"`
	SeatIds    []int              `json:"seatIds" validate:"required,min=1,max=10,unique,dive,min=1"`
	Services   []ServiceSelection `json:"services" validate:"omitempty,max=20,dive"`
}

type UpdateBookingRequest struct {
	SeatIds []int `json:"seatIds" validate:"required,min=1,max=10,unique,dive,min=1"`
	// A missing services field keeps the services of the booking.
	Services *[]ServiceSelection `json:"services" validate:"omitempty,max=20,dive"`
}

type Film struct {
	Id          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	PosterUrl   string `json:"posterUrl"`
}

type Schedule struct {
	Id     int                `json:"id"`
	FilmId int                `json:"filmId"`
	Date   openapi_types.Date `json:"date"`
	Price  decimal.Decimal    `json:"price"`
}

type Seat struct {
	Id         int    `json:"id"`
	SeatNumber string `json:"seatNumber"`
	Available  bool   `json:"available"`
}

type Service struct {
	Id    int             `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type ServiceLine struct {
	ServiceId int             `json:"serviceId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

type BookingResponse struct {
	Id         int             `json:"id"`
	UserId     int             `json:"userId"`
	ScheduleId int             `json:"scheduleId"`
	Status     string          `json:"status"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Seats      []Seat          `json:"seats"`
	Services   []ServiceLine   `json:"services"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

type BookingSummary struct {
	Id         int                `json:"id"`
	ScheduleId int                `json:"scheduleId"`
	FilmTitle  string             `json:"filmTitle"`
	Date       openapi_types.Date `json:"date"`
	Status     string             `json:"status"`
	Seats      []Seat             `json:"seats"`
	Services   []ServiceLine      `json:"services"`
	TotalPrice decimal.Decimal    `json:"totalPrice"`
	CreatedAt  time.Time          `json:"createdAt"`
}

type BookingsResponse struct {
	Bookings []BookingSummary `json:"bookings"`
	Metadata Metadata         `json:"metadata"`
}

type BookingContextResponse struct {
	Schedule           Schedule   `json:"schedule"`
	Film               Film       `json:"film"`
	AvailableSchedules []Schedule `json:"availableSchedules"`
	Seats              []Seat     `json:"seats"`
	Services           []Service  `json:"services"`
}

type ConfirmationResponse struct {
	BookingId  int             `json:"bookingId"`
	Status     string          `json:"status"`
	Schedule   Schedule        `json:"schedule"`
	Film       Film            `json:"film"`
	Seats      []Seat          `json:"seats"`
	Services   []ServiceLine   `json:"services"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Film struct {
	ID          int
	Title       string
	Description string
	Duration    int
	PosterUrl   string
}

type Schedule struct {
	ID     int
	FilmID int
	Price  decimal.Decimal
	Date   time.Time
	Film   *Film
}

type ScheduleRepository interface {
	GetById(ctx context.Context, id int) (*Schedule, error)
	GetByFilmId(ctx context.Context, filmID int) ([]Schedule, error)
}

// ScheduleContext aggregates everything a client needs to start a booking for a schedule.
type ScheduleContext struct {
	Schedule           Schedule
	Film               Film
	AvailableSchedules []Schedule
	Seats              []Seat
	Services           []Service
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/screening-booking/internal/domain"
)

type PostgresSeatRepository struct {
	db *pgxpool.Pool
}

func NewPostgresSeatRepository(db *pgxpool.Pool) *PostgresSeatRepository {
	return &PostgresSeatRepository{
		db: db,
	}
}

func (p *PostgresSeatRepository) GetByScheduleId(ctx context.Context, scheduleID int) ([]domain.Seat, error) {
	query := `
		SELECT id, schedule_id, seat_number, status
		FROM seats
		WHERE schedule_id = $1
		ORDER BY id
	`

	rows, err := conn(ctx, p.db).Query(ctx, query, scheduleID)
	if err != nil {
		return nil, err
	}

	return collectSeats(rows)
}

func (p *PostgresSeatRepository) GetForUpdate(
	ctx context.Context,
	scheduleID int,
	seatIDs []int) ([]domain.Seat, error) {

	// Rows are locked in id order so that concurrent bookings over overlapping
	// seat sets always acquire their locks in the same order.
	query := `
		SELECT id, schedule_id, seat_number, status
		FROM seats
		WHERE schedule_id = $1 AND id = ANY($2)
		ORDER BY id
		FOR UPDATE
	`

	rows, err := conn(ctx, p.db).Query(ctx, query, scheduleID, seatIDs)
	if err != nil {
		return nil, err
	}

	return collectSeats(rows)
}

func (p *PostgresSeatRepository) UpdateStatus(ctx context.Context, seatIDs []int, status domain.SeatStatus) error {
	if len(seatIDs) == 0 {
		return nil
	}

	query := `
		UPDATE seats
		SET status = $1
		WHERE id = ANY($2)
	`

	_, err := conn(ctx, p.db).Exec(ctx, query, string(status), seatIDs)
	return err
}

func collectSeats(rows pgx.Rows) ([]domain.Seat, error) {
	defer rows.Close()

	seats := make([]domain.Seat, 0)

	for rows.Next() {
		var seat domain.Seat

		err := rows.Scan(
			&seat.ID,
			&seat.ScheduleID,
			&seat.SeatNumber,
			&seat.Status,
		)
		if err != nil {
			return nil, err
		}

		seats = append(seats, seat)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return seats, nil
}

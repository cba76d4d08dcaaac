package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/screening-booking/internal/domain"
)

type PostgresScheduleRepository struct {
	db *pgxpool.Pool
}

func NewPostgresScheduleRepository(db *pgxpool.Pool) *PostgresScheduleRepository {
	return &PostgresScheduleRepository{
		db: db,
	}
}

func (p *PostgresScheduleRepository) GetById(ctx context.Context, id int) (*domain.Schedule, error) {
	query := `
		SELECT s.id, s.films_id, s.price, s.date, f.id, f.title, f.description, f.duration, f.poster_url
		FROM schedules s
		JOIN films f ON s.films_id = f.id
		WHERE s.id = $1
	`

	var schedule domain.Schedule
	var film domain.Film

	err := conn(ctx, p.db).QueryRow(ctx, query, id).Scan(
		&schedule.ID,
		&schedule.FilmID,
		&schedule.Price,
		&schedule.Date,
		&film.ID,
		&film.Title,
		&film.Description,
		&film.Duration,
		&film.PosterUrl,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	schedule.Film = &film

	return &schedule, nil
}

func (p *PostgresScheduleRepository) GetByFilmId(ctx context.Context, filmID int) ([]domain.Schedule, error) {
	query := `
		SELECT id, films_id, price, date
		FROM schedules
		WHERE films_id = $1
		ORDER BY date, id
	`

	rows, err := conn(ctx, p.db).Query(ctx, query, filmID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schedules := make([]domain.Schedule, 0)

	for rows.Next() {
		var schedule domain.Schedule

		err = rows.Scan(&schedule.ID, &schedule.FilmID, &schedule.Price, &schedule.Date)
		if err != nil {
			return nil, err
		}

		schedules = append(schedules, schedule)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return schedules, nil
}

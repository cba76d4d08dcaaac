package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/screening-booking/internal/domain"
)

type PostgresBookingRepository struct {
	db *pgxpool.Pool
}

func NewPostgresBookingRepository(db *pgxpool.Pool) *PostgresBookingRepository {
	return &PostgresBookingRepository{
		db: db,
	}
}

const bookingColumns = `
	b.id,
	b.user_id,
	b.schedule_id,
	b.total_price,
	b.status,
	b.created_at,
	b.updated_at,
	s.id,
	s.films_id,
	s.price,
	s.date,
	f.id,
	f.title,
	f.description,
	f.duration,
	f.poster_url
`

const bookingJoins = `
	FROM bookings b
	JOIN schedules s ON b.schedule_id = s.id
	JOIN films f ON s.films_id = f.id
`

func (p *PostgresBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	query := `
		INSERT INTO bookings (user_id, schedule_id, total_price, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	return conn(ctx, p.db).QueryRow(
		ctx,
		query,
		booking.UserID,
		booking.ScheduleID,
		booking.TotalPrice,
		string(booking.Status),
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
}

func (p *PostgresBookingRepository) GetById(ctx context.Context, id int) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + bookingJoins + ` WHERE b.id = $1`

	return p.getOne(ctx, query, id)
}

func (p *PostgresBookingRepository) GetByIdForUpdate(ctx context.Context, id int) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + bookingJoins + ` WHERE b.id = $1 FOR UPDATE OF b`

	return p.getOne(ctx, query, id)
}

func (p *PostgresBookingRepository) GetLatestByUserAndSchedule(
	ctx context.Context,
	userID,
	scheduleID int) (*domain.Booking, error) {

	query := `SELECT ` + bookingColumns + bookingJoins + `
		WHERE b.user_id = $1 AND b.schedule_id = $2 AND b.status <> 'cancelled'
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT 1
	`

	return p.getOne(ctx, query, userID, scheduleID)
}

func (p *PostgresBookingRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Booking, error) {
	booking, err := scanBooking(conn(ctx, p.db).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	bookings := []domain.Booking{*booking}

	err = p.expand(ctx, bookings)
	if err != nil {
		return nil, err
	}

	return &bookings[0], nil
}

func (p *PostgresBookingRepository) GetAll(
	ctx context.Context,
	pagination domain.Pagination) ([]domain.Booking, *domain.Metadata, error) {

	query := `SELECT COUNT(*) OVER(), ` + bookingColumns + bookingJoins + `
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := conn(ctx, p.db).Query(ctx, query, pagination.Limit(), pagination.Offset())
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	totalRecords := 0

	for rows.Next() {
		var booking *domain.Booking

		booking, err = scanBooking(rows, &totalRecords)
		if err != nil {
			return nil, nil, err
		}

		bookings = append(bookings, *booking)
	}

	if err = rows.Err(); err != nil {
		return nil, nil, err
	}

	err = p.expand(ctx, bookings)
	if err != nil {
		return nil, nil, err
	}

	metadata := domain.NewMetadata(totalRecords, pagination.Page, pagination.PageSize)

	return bookings, metadata, nil
}

func (p *PostgresBookingRepository) Update(ctx context.Context, booking *domain.Booking) error {
	query := `
		UPDATE bookings
		SET total_price = $1, status = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING updated_at
	`

	err := conn(ctx, p.db).QueryRow(
		ctx,
		query,
		booking.TotalPrice,
		string(booking.Status),
		booking.ID,
	).Scan(&booking.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrRecordNotFound
		}

		return err
	}

	return nil
}

func (p *PostgresBookingRepository) AttachSeats(ctx context.Context, bookingID int, seatIDs []int) error {
	if len(seatIDs) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(seatIDs))
	for _, seatID := range seatIDs {
		rows = append(rows, []any{bookingID, seatID})
	}

	_, err := conn(ctx, p.db).CopyFrom(
		ctx,
		pgx.Identifier{"booking_seats"},
		[]string{"booking_id", "seat_id"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return &domain.SeatError{Err: domain.ErrSeatUnavailable, SeatIDs: seatIDs}
		}

		return err
	}

	return nil
}

func (p *PostgresBookingRepository) DetachSeats(ctx context.Context, bookingID int) error {
	_, err := conn(ctx, p.db).Exec(ctx, `DELETE FROM booking_seats WHERE booking_id = $1`, bookingID)
	return err
}

func (p *PostgresBookingRepository) AttachServices(
	ctx context.Context,
	bookingID int,
	lines []domain.ServiceLine) error {

	if len(lines) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, []any{bookingID, line.ServiceID, line.EffectiveQuantity()})
	}

	_, err := conn(ctx, p.db).CopyFrom(
		ctx,
		pgx.Identifier{"booking_services"},
		[]string{"booking_id", "service_id", "quantity"},
		pgx.CopyFromRows(rows),
	)

	return err
}

func (p *PostgresBookingRepository) DetachServices(ctx context.Context, bookingID int) error {
	_, err := conn(ctx, p.db).Exec(ctx, `DELETE FROM booking_services WHERE booking_id = $1`, bookingID)
	return err
}

// expand loads the seats and service lines of the given bookings in two round trips.
func (p *PostgresBookingRepository) expand(ctx context.Context, bookings []domain.Booking) error {
	if len(bookings) == 0 {
		return nil
	}

	ids := make([]int, len(bookings))
	index := make(map[int]int, len(bookings))

	for i, b := range bookings {
		ids[i] = b.ID
		index[b.ID] = i
		bookings[i].Seats = make([]domain.Seat, 0)
		bookings[i].Services = make([]domain.ServiceLine, 0)
	}

	err := p.retrieveBookingSeats(ctx, ids, func(bookingID int, seat domain.Seat) {
		i := index[bookingID]
		bookings[i].Seats = append(bookings[i].Seats, seat)
	})
	if err != nil {
		return err
	}

	return p.retrieveBookingServices(ctx, ids, func(bookingID int, line domain.ServiceLine) {
		i := index[bookingID]
		bookings[i].Services = append(bookings[i].Services, line)
	})
}

func (p *PostgresBookingRepository) retrieveBookingSeats(
	ctx context.Context,
	bookingIDs []int,
	add func(bookingID int, seat domain.Seat)) error {

	query := `
		SELECT bs.booking_id, s.id, s.schedule_id, s.seat_number, s.status
		FROM booking_seats bs
		JOIN seats s ON bs.seat_id = s.id
		WHERE bs.booking_id = ANY($1)
		ORDER BY s.id
	`

	rows, err := conn(ctx, p.db).Query(ctx, query, bookingIDs)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var bookingID int
		var seat domain.Seat

		err := rows.Scan(&bookingID, &seat.ID, &seat.ScheduleID, &seat.SeatNumber, &seat.Status)
		if err != nil {
			return err
		}

		add(bookingID, seat)
	}

	return rows.Err()
}

func (p *PostgresBookingRepository) retrieveBookingServices(
	ctx context.Context,
	bookingIDs []int,
	add func(bookingID int, line domain.ServiceLine)) error {

	query := `
		SELECT bsv.booking_id, sv.id, sv.name, sv.price, bsv.quantity
		FROM booking_services bsv
		JOIN services sv ON bsv.service_id = sv.id
		WHERE bsv.booking_id = ANY($1)
		ORDER BY sv.id
	`

	rows, err := conn(ctx, p.db).Query(ctx, query, bookingIDs)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var bookingID int
		var line domain.ServiceLine

		err := rows.Scan(&bookingID, &line.ServiceID, &line.Name, &line.UnitPrice, &line.Quantity)
		if err != nil {
			return err
		}

		add(bookingID, line)
	}

	return rows.Err()
}

// scanBooking scans bookingColumns; any extra destinations are scanned first.
func scanBooking(row pgx.Row, prefix ...any) (*domain.Booking, error) {
	var booking domain.Booking
	var schedule domain.Schedule
	var film domain.Film

	dest := append(prefix,
		&booking.ID,
		&booking.UserID,
		&booking.ScheduleID,
		&booking.TotalPrice,
		&booking.Status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
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

	err := row.Scan(dest...)
	if err != nil {
		return nil, err
	}

	schedule.Film = &film
	booking.Schedule = &schedule

	return &booking, nil
}

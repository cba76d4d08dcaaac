// Package booking implements the booking lifecycle: reserving seats, pricing bookings and
// keeping seat state consistent with booking state across create, edit and cancel.
package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/metinatakli/screening-booking/internal/domain"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/metinatakli/screening-booking/internal/booking"

type CreateParams struct {
	UserID     int
	ScheduleID int
	SeatIDs    []int
	Services   []domain.ServiceSelection
}

type EditParams struct {
	SeatIDs []int
	// Services replaces the service lines of the booking. A nil slice keeps the current lines.
	Services []domain.ServiceSelection
}

type Manager struct {
	tx        domain.Transactor
	bookings  domain.BookingRepository
	schedules domain.ScheduleRepository
	seats     domain.SeatRepository
	services  domain.ServiceRepository
	registry  *SeatRegistry
	publisher domain.EventPublisher
	logger    *slog.Logger

	lockPolicy           domain.LockPolicy
	unknownServicePolicy domain.UnknownServicePolicy
	now                  func() time.Time

	tracer  trace.Tracer
	metrics managerMetrics
}

type managerMetrics struct {
	created       metric.Int64Counter
	updated       metric.Int64Counter
	cancelled     metric.Int64Counter
	seatConflicts metric.Int64Counter
}

type Option func(*Manager)

func WithLockPolicy(policy domain.LockPolicy) Option {
	return func(m *Manager) {
		m.lockPolicy = policy
	}
}

func WithUnknownServicePolicy(policy domain.UnknownServicePolicy) Option {
	return func(m *Manager) {
		m.unknownServicePolicy = policy
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func WithPublisher(publisher domain.EventPublisher) Option {
	return func(m *Manager) {
		m.publisher = publisher
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func NewManager(
	tx domain.Transactor,
	bookings domain.BookingRepository,
	schedules domain.ScheduleRepository,
	seats domain.SeatRepository,
	services domain.ServiceRepository,
	opts ...Option) *Manager {

	m := &Manager{
		tx:                   tx,
		bookings:             bookings,
		schedules:            schedules,
		seats:                seats,
		services:             services,
		registry:             NewSeatRegistry(seats),
		publisher:            noopPublisher{},
		logger:               slog.Default(),
		lockPolicy:           domain.LockWhenUpcoming,
		unknownServicePolicy: domain.UnknownServiceSkip,
		now:                  time.Now,
		tracer:               otel.Tracer(instrumentationName),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.metrics = newManagerMetrics(m.logger)

	return m
}

func newManagerMetrics(logger *slog.Logger) managerMetrics {
	meter := otel.Meter(instrumentationName)

	// On error the otel API still returns a usable no-op instrument.
	created, err1 := meter.Int64Counter("bookings.created", metric.WithDescription("Bookings created"))
	updated, err2 := meter.Int64Counter("bookings.updated", metric.WithDescription("Bookings edited"))
	cancelled, err3 := meter.Int64Counter("bookings.cancelled", metric.WithDescription("Bookings cancelled"))
	conflicts, err4 := meter.Int64Counter(
		"bookings.seat_conflicts",
		metric.WithDescription("Reservations rejected because a seat was already held"),
	)

	if err := errors.Join(err1, err2, err3, err4); err != nil {
		logger.Error("failed to create booking metrics", "error", err)
	}

	return managerMetrics{
		created:       created,
		updated:       updated,
		cancelled:     cancelled,
		seatConflicts: conflicts,
	}
}

// Create reserves the requested seats of a schedule and records a pending booking for them.
// All writes happen in one transaction: if any step after the reservation fails, the
// transaction is rolled back and every seat reserved by this call is available again.
func (m *Manager) Create(ctx context.Context, params CreateParams) (*domain.Booking, error) {
	ctx, span := m.tracer.Start(ctx, "booking.Create", trace.WithAttributes(
		attribute.Int("schedule.id", params.ScheduleID),
		attribute.Int("user.id", params.UserID),
	))
	defer span.End()

	if params.UserID < 1 {
		return nil, validationError("user id must be greater than zero")
	}

	seatIDs, err := normalizeSeatIDs(params.SeatIDs)
	if err != nil {
		return nil, err
	}

	selections, err := normalizeSelections(params.Services)
	if err != nil {
		return nil, err
	}

	schedule, err := m.schedules.GetById(ctx, params.ScheduleID)
	if err != nil {
		return nil, err
	}

	var booking *domain.Booking

	err = m.tx.WithinTx(ctx, func(ctx context.Context) error {
		seats, err := m.registry.FindSeats(ctx, schedule.ID, seatIDs)
		if err != nil {
			return asInvalidSeat(err)
		}

		err = m.registry.Reserve(ctx, seats)
		if err != nil {
			return err
		}

		total, err := domain.ComputeTotal(schedule.Price, len(seats), nil)
		if err != nil {
			return err
		}

		b := &domain.Booking{
			UserID:     params.UserID,
			ScheduleID: schedule.ID,
			TotalPrice: total,
			Status:     domain.BookingStatusPending,
		}

		err = m.bookings.Create(ctx, b)
		if err != nil {
			return err
		}

		err = m.bookings.AttachSeats(ctx, b.ID, domain.SeatIDs(seats))
		if err != nil {
			return err
		}

		lines, err := m.resolveServices(ctx, selections)
		if err != nil {
			return err
		}

		err = m.bookings.AttachServices(ctx, b.ID, lines)
		if err != nil {
			return err
		}

		b.TotalPrice, err = domain.ComputeTotal(schedule.Price, len(seats), lines)
		if err != nil {
			return err
		}

		err = m.bookings.Update(ctx, b)
		if err != nil {
			return err
		}

		b.Schedule = schedule
		b.Seats = seats
		b.Services = lines
		booking = b

		return nil
	})
	if err != nil {
		m.recordFailure(ctx, span, "create", err, "schedule_id", params.ScheduleID, "seat_ids", seatIDs)
		return nil, err
	}

	m.metrics.created.Add(ctx, 1)
	m.logger.InfoContext(ctx, "booking created",
		"booking_id", booking.ID,
		"schedule_id", booking.ScheduleID,
		"seat_ids", domain.SeatIDs(booking.Seats),
		"total_price", booking.TotalPrice.String(),
	)
	m.publish(ctx, domain.BookingCreated, booking, domain.SeatIDs(booking.Seats))

	return booking, nil
}

// Edit replaces the seats and optionally the services of a booking. Seats joining the
// booking are checked and held before seats leaving it are released, all in one
// transaction, so a failed edit leaves the booking exactly as it was.
func (m *Manager) Edit(ctx context.Context, bookingID int, params EditParams) (*domain.Booking, error) {
	ctx, span := m.tracer.Start(ctx, "booking.Edit", trace.WithAttributes(attribute.Int("booking.id", bookingID)))
	defer span.End()

	seatIDs, err := normalizeSeatIDs(params.SeatIDs)
	if err != nil {
		return nil, err
	}

	var selections []domain.ServiceSelection
	if params.Services != nil {
		selections, err = normalizeSelections(params.Services)
		if err != nil {
			return nil, err
		}
	}

	var booking *domain.Booking

	err = m.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, schedule, err := m.loadMutable(ctx, bookingID)
		if err != nil {
			return err
		}

		current := make(map[int]bool, len(b.Seats))
		for _, seat := range b.Seats {
			current[seat.ID] = true
		}

		requested := make(map[int]bool, len(seatIDs))
		for _, id := range seatIDs {
			requested[id] = true
		}

		lockIDs := append(domain.SeatIDs(b.Seats), seatIDs...)

		locked, err := m.registry.FindSeats(ctx, b.ScheduleID, dedupe(lockIDs))
		if err != nil {
			return asInvalidSeat(err)
		}

		var joining, leaving, next []domain.Seat
		for _, seat := range locked {
			switch {
			case requested[seat.ID] && !current[seat.ID]:
				joining = append(joining, seat)
			case !requested[seat.ID] && current[seat.ID]:
				leaving = append(leaving, seat)
			}
		}

		err = m.registry.Reserve(ctx, joining)
		if err != nil {
			return err
		}

		err = m.registry.Release(ctx, leaving)
		if err != nil {
			return err
		}

		for _, seat := range locked {
			if requested[seat.ID] {
				seat.Status = domain.SeatStatusHeld
				next = append(next, seat)
			}
		}

		err = m.bookings.DetachSeats(ctx, b.ID)
		if err != nil {
			return err
		}

		err = m.bookings.AttachSeats(ctx, b.ID, domain.SeatIDs(next))
		if err != nil {
			return err
		}

		lines := b.Services
		if params.Services != nil {
			lines, err = m.resolveServices(ctx, selections)
			if err != nil {
				return err
			}

			err = m.bookings.DetachServices(ctx, b.ID)
			if err != nil {
				return err
			}

			err = m.bookings.AttachServices(ctx, b.ID, lines)
			if err != nil {
				return err
			}
		}

		b.TotalPrice, err = domain.ComputeTotal(schedule.Price, len(next), lines)
		if err != nil {
			return err
		}

		err = m.bookings.Update(ctx, b)
		if err != nil {
			return err
		}

		b.Schedule = schedule
		b.Seats = next
		b.Services = lines
		booking = b

		return nil
	})
	if err != nil {
		m.recordFailure(ctx, span, "edit", err, "booking_id", bookingID, "seat_ids", seatIDs)
		return nil, err
	}

	m.metrics.updated.Add(ctx, 1)
	m.logger.InfoContext(ctx, "booking updated",
		"booking_id", booking.ID,
		"seat_ids", domain.SeatIDs(booking.Seats),
		"total_price", booking.TotalPrice.String(),
	)
	m.publish(ctx, domain.BookingUpdated, booking, domain.SeatIDs(booking.Seats))

	return booking, nil
}

// Cancel releases every seat of the booking, detaches its seats and services and marks it
// cancelled. The booking row is kept with a zero total since it no longer holds anything.
func (m *Manager) Cancel(ctx context.Context, bookingID int) error {
	ctx, span := m.tracer.Start(ctx, "booking.Cancel", trace.WithAttributes(attribute.Int("booking.id", bookingID)))
	defer span.End()

	var cancelled *domain.Booking
	var released []int

	err := m.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, _, err := m.loadMutable(ctx, bookingID)
		if err != nil {
			return err
		}

		released = domain.SeatIDs(b.Seats)

		if len(released) > 0 {
			seats, err := m.registry.FindSeats(ctx, b.ScheduleID, released)
			if err != nil {
				return err
			}

			err = m.registry.Release(ctx, seats)
			if err != nil {
				return err
			}
		}

		err = m.bookings.DetachSeats(ctx, b.ID)
		if err != nil {
			return err
		}

		err = m.bookings.DetachServices(ctx, b.ID)
		if err != nil {
			return err
		}

		b.Status = domain.BookingStatusCancelled
		b.TotalPrice = decimal.Zero

		err = m.bookings.Update(ctx, b)
		if err != nil {
			return err
		}

		b.Seats = []domain.Seat{}
		b.Services = []domain.ServiceLine{}
		cancelled = b

		return nil
	})
	if err != nil {
		m.recordFailure(ctx, span, "cancel", err, "booking_id", bookingID)
		return err
	}

	m.metrics.cancelled.Add(ctx, 1)
	m.logger.InfoContext(ctx, "booking cancelled", "booking_id", bookingID, "released_seat_ids", released)
	m.publish(ctx, domain.BookingCancelled, cancelled, released)

	return nil
}

func (m *Manager) Get(ctx context.Context, bookingID int) (*domain.Booking, error) {
	return m.bookings.GetById(ctx, bookingID)
}

// List returns bookings newest first. Page and page size must both be at least one.
func (m *Manager) List(ctx context.Context, pagination domain.Pagination) ([]domain.Booking, *domain.Metadata, error) {
	if pagination.Page < 1 || pagination.PageSize < 1 {
		return nil, nil, validationError("page %d and page size %d must be greater than zero",
			pagination.Page, pagination.PageSize)
	}

	return m.bookings.GetAll(ctx, pagination)
}

// LatestForUserAndSchedule returns the most recent active booking of a user for a schedule.
// Absence is not an error: found is false and both booking and error are nil.
func (m *Manager) LatestForUserAndSchedule(
	ctx context.Context,
	userID,
	scheduleID int) (booking *domain.Booking, found bool, err error) {

	booking, err = m.bookings.GetLatestByUserAndSchedule(ctx, userID, scheduleID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, false, nil
		}

		return nil, false, err
	}

	return booking, true, nil
}

func (m *Manager) Confirmation(ctx context.Context, userID, scheduleID int) (*domain.Confirmation, bool, error) {
	booking, found, err := m.LatestForUserAndSchedule(ctx, userID, scheduleID)
	if err != nil || !found {
		return nil, false, err
	}

	schedule := booking.Schedule
	if schedule == nil || schedule.Film == nil {
		schedule, err = m.schedules.GetById(ctx, booking.ScheduleID)
		if err != nil {
			return nil, false, err
		}
	}

	return &domain.Confirmation{
		Booking:    *booking,
		Schedule:   *schedule,
		Seats:      booking.Seats,
		TotalPrice: booking.TotalPrice,
	}, true, nil
}

// ScheduleContext gathers what a client needs to start booking a schedule: the schedule and
// its film, the other schedules of the film, the seats with their status and the services.
func (m *Manager) ScheduleContext(ctx context.Context, scheduleID int) (*domain.ScheduleContext, error) {
	schedule, err := m.schedules.GetById(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	siblings, err := m.schedules.GetByFilmId(ctx, schedule.FilmID)
	if err != nil {
		return nil, err
	}

	seats, err := m.seats.GetByScheduleId(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	services, err := m.services.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	film := domain.Film{ID: schedule.FilmID}
	if schedule.Film != nil {
		film = *schedule.Film
	}

	return &domain.ScheduleContext{
		Schedule:           *schedule,
		Film:               film,
		AvailableSchedules: siblings,
		Seats:              seats,
		Services:           services,
	}, nil
}

// loadMutable locks the booking row and checks that it may still change.
func (m *Manager) loadMutable(ctx context.Context, bookingID int) (*domain.Booking, *domain.Schedule, error) {
	b, err := m.bookings.GetByIdForUpdate(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}

	if b.Cancelled() {
		return nil, nil, domain.ErrBookingCancelled
	}

	schedule, err := m.schedules.GetById(ctx, b.ScheduleID)
	if err != nil {
		return nil, nil, err
	}

	if m.lockPolicy.Locked(schedule.Date, m.now()) {
		return nil, nil, domain.ErrBookingLocked
	}

	return b, schedule, nil
}

func (m *Manager) resolveServices(
	ctx context.Context,
	selections []domain.ServiceSelection) ([]domain.ServiceLine, error) {

	lines := make([]domain.ServiceLine, 0, len(selections))
	if len(selections) == 0 {
		return lines, nil
	}

	ids := make([]int, len(selections))
	for i, s := range selections {
		ids[i] = s.ServiceID
	}

	services, err := m.services.GetByIds(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[int]domain.Service, len(services))
	for _, s := range services {
		byID[s.ID] = s
	}

	var missing []int

	for _, sel := range selections {
		service, ok := byID[sel.ServiceID]
		if !ok {
			missing = append(missing, sel.ServiceID)
			continue
		}

		lines = append(lines, domain.ServiceLine{
			ServiceID: service.ID,
			Name:      service.Name,
			UnitPrice: service.Price,
			Quantity:  sel.Quantity,
		})
	}

	if len(missing) > 0 {
		if m.unknownServicePolicy == domain.UnknownServiceReject {
			return nil, &domain.ServiceError{Err: domain.ErrRecordNotFound, ServiceIDs: missing}
		}

		m.logger.WarnContext(ctx, "skipping unknown services", "service_ids", missing)
	}

	return lines, nil
}

func (m *Manager) publish(ctx context.Context, eventType domain.BookingEventType, b *domain.Booking, seatIDs []int) {
	event := domain.BookingEvent{
		Type:       eventType,
		BookingID:  b.ID,
		UserID:     b.UserID,
		ScheduleID: b.ScheduleID,
		SeatIDs:    seatIDs,
		TotalPrice: b.TotalPrice,
		Status:     b.Status,
		OccurredAt: m.now().UTC(),
	}

	err := m.publisher.Publish(ctx, event)
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to publish booking event", "type", eventType, "booking_id", b.ID, "error", err)
	}
}

func (m *Manager) recordFailure(ctx context.Context, span trace.Span, op string, err error, attrs ...any) {
	span.RecordError(err)

	attrs = append(attrs, "error", err)

	switch {
	case errors.Is(err, domain.ErrSeatUnavailable):
		m.metrics.seatConflicts.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
		m.logger.WarnContext(ctx, "booking "+op+" rejected: seats unavailable", attrs...)
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidSeat),
		errors.Is(err, domain.ErrRecordNotFound),
		errors.Is(err, domain.ErrBookingLocked),
		errors.Is(err, domain.ErrBookingCancelled):
		m.logger.WarnContext(ctx, "booking "+op+" rejected", attrs...)
	default:
		m.logger.ErrorContext(ctx, "booking "+op+" failed", attrs...)
	}
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, domain.BookingEvent) error {
	return nil
}

package booking

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/metinatakli/screening-booking/internal/domain"
)

type inTxKey struct{}

// memStore is an in-memory implementation of every repository the manager uses. Transactions
// are serialized and rolled back by restoring a snapshot, which gives the same visible
// behavior as row locks held until commit.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	schedules       map[int]domain.Schedule
	seats           map[int]domain.Seat
	services        map[int]domain.Service
	bookings        map[int]domain.Booking
	bookingSeats    map[int][]int
	bookingServices map[int][]domain.ServiceLine
	nextBookingID   int
	clock           time.Time

	// failOn makes the named operation return the error.
	failOn map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		schedules:       map[int]domain.Schedule{},
		seats:           map[int]domain.Seat{},
		services:        map[int]domain.Service{},
		bookings:        map[int]domain.Booking{},
		bookingSeats:    map[int][]int{},
		bookingServices: map[int][]domain.ServiceLine{},
		nextBookingID:   1,
		clock:           time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		failOn:          map[string]error{},
	}
}

type memSnapshot struct {
	seats           map[int]domain.Seat
	bookings        map[int]domain.Booking
	bookingSeats    map[int][]int
	bookingServices map[int][]domain.ServiceLine
	nextBookingID   int
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := memSnapshot{
		seats:           maps.Clone(s.seats),
		bookings:        maps.Clone(s.bookings),
		bookingSeats:    make(map[int][]int, len(s.bookingSeats)),
		bookingServices: make(map[int][]domain.ServiceLine, len(s.bookingServices)),
		nextBookingID:   s.nextBookingID,
	}

	for k, v := range s.bookingSeats {
		snap.bookingSeats[k] = slices.Clone(v)
	}

	for k, v := range s.bookingServices {
		snap.bookingServices[k] = slices.Clone(v)
	}

	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seats = snap.seats
	s.bookings = snap.bookings
	s.bookingSeats = snap.bookingSeats
	s.bookingServices = snap.bookingServices
	s.nextBookingID = snap.nextBookingID
}

func (s *memStore) fail(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.failOn[op]
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(inTxKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()

	err := fn(context.WithValue(ctx, inTxKey{}, true))
	if err != nil {
		s.restore(snap)
		return err
	}

	return nil
}

// seed helpers

func (s *memStore) addSchedule(schedule domain.Schedule) {
	s.schedules[schedule.ID] = schedule
}

func (s *memStore) addSeats(scheduleID int, ids ...int) {
	for _, id := range ids {
		s.seats[id] = domain.Seat{
			ID:         id,
			ScheduleID: scheduleID,
			SeatNumber: string(rune('A'+id%26)) + "1",
			Status:     domain.SeatStatusAvailable,
		}
	}
}

func (s *memStore) addService(service domain.Service) {
	s.services[service.ID] = service
}

func (s *memStore) seatStatus(id int) domain.SeatStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.seats[id].Status
}

func (s *memStore) heldSeats() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var held []int
	for id, seat := range s.seats {
		if !seat.Available() {
			held = append(held, id)
		}
	}

	slices.Sort(held)
	return held
}

func (s *memStore) bookingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.bookings)
}

// ScheduleRepository

func (s *memStore) GetById(ctx context.Context, id int) (*domain.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedule, ok := s.schedules[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}

	return &schedule, nil
}

func (s *memStore) GetByFilmId(ctx context.Context, filmID int) ([]domain.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var schedules []domain.Schedule
	for _, schedule := range s.schedules {
		if schedule.FilmID == filmID {
			schedules = append(schedules, schedule)
		}
	}

	slices.SortFunc(schedules, func(a, b domain.Schedule) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return a.ID - b.ID
	})

	return schedules, nil
}

// seatRepo and the other adapters exist because several repositories share method names.

type memSeatRepo struct{ *memStore }

func (r memSeatRepo) GetByScheduleId(ctx context.Context, scheduleID int) ([]domain.Seat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var seats []domain.Seat
	for _, seat := range r.seats {
		if seat.ScheduleID == scheduleID {
			seats = append(seats, seat)
		}
	}

	slices.SortFunc(seats, func(a, b domain.Seat) int { return a.ID - b.ID })

	return seats, nil
}

func (r memSeatRepo) GetForUpdate(ctx context.Context, scheduleID int, seatIDs []int) ([]domain.Seat, error) {
	if err := r.fail("GetForUpdate"); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var seats []domain.Seat
	for _, id := range seatIDs {
		seat, ok := r.seats[id]
		if ok && seat.ScheduleID == scheduleID {
			seats = append(seats, seat)
		}
	}

	slices.SortFunc(seats, func(a, b domain.Seat) int { return a.ID - b.ID })

	return seats, nil
}

func (r memSeatRepo) UpdateStatus(ctx context.Context, seatIDs []int, status domain.SeatStatus) error {
	if err := r.fail("UpdateStatus:" + string(status)); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range seatIDs {
		seat := r.seats[id]
		seat.Status = status
		r.seats[id] = seat
	}

	return nil
}

type memServiceRepo struct{ *memStore }

func (r memServiceRepo) GetAll(ctx context.Context) ([]domain.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	services := slices.Collect(maps.Values(r.services))
	slices.SortFunc(services, func(a, b domain.Service) int { return a.ID - b.ID })

	return services, nil
}

func (r memServiceRepo) GetByIds(ctx context.Context, ids []int) ([]domain.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var services []domain.Service
	for _, id := range ids {
		if service, ok := r.services[id]; ok {
			services = append(services, service)
		}
	}

	return services, nil
}

type memBookingRepo struct{ *memStore }

func (r memBookingRepo) Create(ctx context.Context, booking *domain.Booking) error {
	if err := r.fail("Create"); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	booking.ID = r.nextBookingID
	booking.CreatedAt = r.clock.Add(time.Duration(booking.ID) * time.Second)
	booking.UpdatedAt = booking.CreatedAt
	r.nextBookingID++

	stored := *booking
	stored.Schedule, stored.Seats, stored.Services = nil, nil, nil
	r.bookings[booking.ID] = stored

	return nil
}

func (r memBookingRepo) GetById(ctx context.Context, id int) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.expand(id)
}

func (r memBookingRepo) GetByIdForUpdate(ctx context.Context, id int) (*domain.Booking, error) {
	return r.GetById(ctx, id)
}

func (r memBookingRepo) GetAll(
	ctx context.Context,
	pagination domain.Pagination) ([]domain.Booking, *domain.Metadata, error) {

	r.mu.Lock()
	defer r.mu.Unlock()

	ids := slices.Sorted(maps.Keys(r.bookings))
	slices.Reverse(ids)

	start := min(pagination.Offset(), len(ids))
	end := min(start+pagination.Limit(), len(ids))

	bookings := make([]domain.Booking, 0, end-start)
	for _, id := range ids[start:end] {
		b, err := r.expand(id)
		if err != nil {
			return nil, nil, err
		}
		bookings = append(bookings, *b)
	}

	return bookings, domain.NewMetadata(len(ids), pagination.Page, pagination.PageSize), nil
}

func (r memBookingRepo) GetLatestByUserAndSchedule(
	ctx context.Context,
	userID,
	scheduleID int) (*domain.Booking, error) {

	r.mu.Lock()
	defer r.mu.Unlock()

	latest := 0
	for id, b := range r.bookings {
		if b.UserID == userID && b.ScheduleID == scheduleID && !b.Cancelled() && id > latest {
			latest = id
		}
	}

	return r.expand(latest)
}

func (r memBookingRepo) Update(ctx context.Context, booking *domain.Booking) error {
	if err := r.fail("Update"); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.bookings[booking.ID]
	if !ok {
		return domain.ErrRecordNotFound
	}

	stored.TotalPrice = booking.TotalPrice
	stored.Status = booking.Status
	r.bookings[booking.ID] = stored

	return nil
}

func (r memBookingRepo) AttachSeats(ctx context.Context, bookingID int, seatIDs []int) error {
	if err := r.fail("AttachSeats"); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Mirrors the unique index on booking_seats.seat_id.
	var taken []int
	for owner, ids := range r.bookingSeats {
		if owner == bookingID {
			continue
		}
		for _, id := range seatIDs {
			if slices.Contains(ids, id) {
				taken = append(taken, id)
			}
		}
	}

	if len(taken) > 0 {
		return &domain.SeatError{Err: domain.ErrSeatUnavailable, SeatIDs: taken}
	}

	r.bookingSeats[bookingID] = append(r.bookingSeats[bookingID], seatIDs...)

	return nil
}

func (r memBookingRepo) DetachSeats(ctx context.Context, bookingID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.bookingSeats, bookingID)

	return nil
}

func (r memBookingRepo) AttachServices(ctx context.Context, bookingID int, lines []domain.ServiceLine) error {
	if err := r.fail("AttachServices"); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.bookingServices[bookingID] = append(r.bookingServices[bookingID], lines...)

	return nil
}

func (r memBookingRepo) DetachServices(ctx context.Context, bookingID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.bookingServices, bookingID)

	return nil
}

// expand must be called with mu held.
func (r memBookingRepo) expand(id int) (*domain.Booking, error) {
	b, ok := r.bookings[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}

	if schedule, ok := r.schedules[b.ScheduleID]; ok {
		b.Schedule = &schedule
	}

	b.Seats = []domain.Seat{}
	for _, seatID := range slices.Sorted(slices.Values(r.bookingSeats[id])) {
		b.Seats = append(b.Seats, r.seats[seatID])
	}

	b.Services = append([]domain.ServiceLine{}, r.bookingServices[id]...)

	return &b, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.BookingEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event domain.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []domain.BookingEventType {
	p.mu.Lock()
	defer p.mu.Unlock()

	types := make([]domain.BookingEventType, len(p.events))
	for i, e := range p.events {
		types[i] = e.Type
	}

	return types
}

package app

import (
	"net/http"

	"github.com/metinatakli/screening-booking/api"
	"github.com/metinatakli/screening-booking/internal/booking"
	"github.com/metinatakli/screening-booking/internal/domain"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

func (app *Application) ListBookings(w http.ResponseWriter, r *http.Request) {
	params, err := readListBookingsParams(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(params)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	bookings, metadata, err := app.bookings.List(r.Context(), toPagination(params))
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	resp := api.BookingsResponse{
		Bookings: toBookingSummaries(bookings),
		Metadata: toApiMetadata(metadata),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) CreateBooking(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	var input api.CreateBookingRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	b, err := app.bookings.Create(r.Context(), booking.CreateParams{
		UserID:     app.contextGetUserId(r),
		ScheduleID: input.ScheduleId,
		SeatIDs:    input.SeatIds,
		Services:   toServiceSelections(input.Services),
	})
	if err != nil {
		logger.Warn("booking creation failed", "schedule_id", input.ScheduleId, "error", err)
		app.bookingErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, toBookingResponse(b), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingId, err := readIDParam(r, "bookingId", "booking")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	b, err := app.bookings.Get(r.Context(), bookingId)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toBookingResponse(b), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	bookingId, err := readIDParam(r, "bookingId", "booking")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input api.UpdateBookingRequest

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	if !app.ownsBooking(w, r, bookingId) {
		return
	}

	params := booking.EditParams{SeatIDs: input.SeatIds}
	if input.Services != nil {
		params.Services = toServiceSelections(*input.Services)
	}

	b, err := app.bookings.Edit(r.Context(), bookingId, params)
	if err != nil {
		app.contextGetLogger(r).Warn("booking update failed", "booking_id", bookingId, "error", err)
		app.bookingErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toBookingResponse(b), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) CancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingId, err := readIDParam(r, "bookingId", "booking")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if !app.ownsBooking(w, r, bookingId) {
		return
	}

	err = app.bookings.Cancel(r.Context(), bookingId)
	if err != nil {
		app.contextGetLogger(r).Warn("booking cancellation failed", "booking_id", bookingId, "error", err)
		app.bookingErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ownsBooking writes a not found response unless the booking belongs to the session user.
func (app *Application) ownsBooking(w http.ResponseWriter, r *http.Request, bookingId int) bool {
	b, err := app.bookings.Get(r.Context(), bookingId)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return false
	}

	if b.UserID != app.contextGetUserId(r) {
		app.contextGetLogger(r).Warn("attempt to modify a booking of another user", "booking_id", bookingId)
		app.notFoundResponse(w, r)
		return false
	}

	return true
}

func toServiceSelections(in []api.ServiceSelection) []domain.ServiceSelection {
	out := make([]domain.ServiceSelection, len(in))
	for i, s := range in {
		out[i] = domain.ServiceSelection{ServiceID: s.ServiceId, Quantity: s.Quantity}
	}

	return out
}

func toBookingResponse(b *domain.Booking) api.BookingResponse {
	return api.BookingResponse{
		Id:         b.ID,
		UserId:     b.UserID,
		ScheduleId: b.ScheduleID,
		Status:     string(b.Status),
		TotalPrice: b.TotalPrice,
		Seats:      toApiSeats(b.Seats),
		Services:   toApiServiceLines(b.Services),
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

func toBookingSummaries(bookings []domain.Booking) []api.BookingSummary {
	summaries := make([]api.BookingSummary, len(bookings))

	for i, b := range bookings {
		summary := &summaries[i]

		summary.Id = b.ID
		summary.ScheduleId = b.ScheduleID
		summary.Status = string(b.Status)
		summary.Seats = toApiSeats(b.Seats)
		summary.Services = toApiServiceLines(b.Services)
		summary.TotalPrice = b.TotalPrice
		summary.CreatedAt = b.CreatedAt

		if b.Schedule != nil {
			summary.Date = openapi_types.Date{Time: b.Schedule.Date}
			if b.Schedule.Film != nil {
				summary.FilmTitle = b.Schedule.Film.Title
			}
		}
	}

	return summaries
}

func toApiSeats(seats []domain.Seat) []api.Seat {
	out := make([]api.Seat, len(seats))
	for i, s := range seats {
		out[i] = api.Seat{Id: s.ID, SeatNumber: s.SeatNumber, Available: s.Available()}
	}

	return out
}

func toApiServiceLines(lines []domain.ServiceLine) []api.ServiceLine {
	out := make([]api.ServiceLine, len(lines))
	for i, l := range lines {
		out[i] = api.ServiceLine{
			ServiceId: l.ServiceID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.EffectiveQuantity(),
		}
	}

	return out
}

func toApiMetadata(m *domain.Metadata) api.Metadata {
	return api.Metadata{
		CurrentPage:  m.CurrentPage,
		FirstPage:    m.FirstPage,
		LastPage:     m.LastPage,
		PageSize:     m.PageSize,
		TotalRecords: m.TotalRecords,
	}
}

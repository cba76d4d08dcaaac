package app

import (
	"net/http"

	"github.com/metinatakli/screening-booking/api"
	"github.com/metinatakli/screening-booking/internal/domain"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

func (app *Application) GetBookingContext(w http.ResponseWriter, r *http.Request) {
	scheduleId, err := readIDParam(r, "scheduleId", "schedule")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	sc, err := app.bookings.ScheduleContext(r.Context(), scheduleId)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	resp := api.BookingContextResponse{
		Schedule:           toApiSchedule(sc.Schedule),
		Film:               toApiFilm(sc.Film),
		AvailableSchedules: make([]api.Schedule, len(sc.AvailableSchedules)),
		Seats:              toApiSeats(sc.Seats),
		Services:           make([]api.Service, len(sc.Services)),
	}

	for i, s := range sc.AvailableSchedules {
		resp.AvailableSchedules[i] = toApiSchedule(s)
	}

	for i, s := range sc.Services {
		resp.Services[i] = api.Service{Id: s.ID, Name: s.Name, Price: s.Price}
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetConfirmation(w http.ResponseWriter, r *http.Request) {
	scheduleId, err := readIDParam(r, "scheduleId", "schedule")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	confirmation, found, err := app.bookings.Confirmation(r.Context(), app.contextGetUserId(r), scheduleId)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	if !found {
		app.notFoundResponse(w, r)
		return
	}

	var film api.Film
	if confirmation.Schedule.Film != nil {
		film = toApiFilm(*confirmation.Schedule.Film)
	}

	resp := api.ConfirmationResponse{
		BookingId:  confirmation.Booking.ID,
		Status:     string(confirmation.Booking.Status),
		Schedule:   toApiSchedule(confirmation.Schedule),
		Film:       film,
		Seats:      toApiSeats(confirmation.Seats),
		Services:   toApiServiceLines(confirmation.Booking.Services),
		TotalPrice: confirmation.TotalPrice,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toApiSchedule(s domain.Schedule) api.Schedule {
	return api.Schedule{
		Id:     s.ID,
		FilmId: s.FilmID,
		Date:   openapi_types.Date{Time: s.Date},
		Price:  s.Price,
	}
}

func toApiFilm(f domain.Film) api.Film {
	return api.Film{
		Id:          f.ID,
		Title:       f.Title,
		Description: f.Description,
		Duration:    f.Duration,
		PosterUrl:   f.PosterUrl,
	}
}

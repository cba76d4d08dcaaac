package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/metinatakli/screening-booking/api"
	"github.com/metinatakli/screening-booking/internal/domain"
	appvalidator "github.com/metinatakli/screening-booking/internal/validator"
)

const (
	ErrInternalServer     = "The server encountered a problem and could not process your request"
	ErrNotFound           = "The requested resource not found"
	ErrUnauthorized       = "You must be authenticated to access this resource"
	ErrInvalidCredentials = "Invalid authentication credentials"
	ErrFailedValidation   = "One or more fields have invalid values"
	ErrSeatsUnavailable   = "One or more seats are already reserved"
	ErrSeatsInvalid       = "One or more seats do not belong to the schedule"
	ErrUnknownServices    = "One or more services do not exist"
	ErrBookingLocked      = "The booking can no longer be changed"
	ErrBookingCancelled   = "The booking is already cancelled"
)

func (app *Application) logError(r *http.Request, err error) {
	app.contextGetLogger(r).Error(err.Error())
}

// The errorResponse() method is a generic helper for sending JSON-formatted error
// messages to the client with a given status code.
func (app *Application) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	resp := api.ErrorResponse{
		Message:   message,
		RequestId: middleware.GetReqID(r.Context()),
		Timestamp: time.Now(),
	}

	err := app.writeJSON(w, status, resp, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(500)
	}
}

func (app *Application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)
	app.errorResponse(w, r, http.StatusInternalServerError, ErrInternalServer)
}

func (app *Application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusNotFound, ErrNotFound)
}

func (app *Application) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusMethodNotAllowed, "The "+r.Method+" method is not supported for this resource")
}

func (app *Application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (app *Application) unauthorizedAccessResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusUnauthorized, ErrUnauthorized)
}

func (app *Application) invalidCredentialsResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusUnauthorized, ErrInvalidCredentials)
}

func (app *Application) failedValidationResponse(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		app.badRequestResponse(w, r, err)
		return
	}

	resp := api.ValidationErrorResponse{
		Message:          ErrFailedValidation,
		RequestId:        middleware.GetReqID(r.Context()),
		Timestamp:        time.Now(),
		ValidationErrors: make([]api.ValidationError, len(validationErrors)),
	}

	for i, fe := range validationErrors {
		resp.ValidationErrors[i] = api.ValidationError{
			Field: fe.Field(),
			Issue: appvalidator.ValidationMessage(fe),
		}
	}

	err = app.writeJSON(w, http.StatusUnprocessableEntity, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) seatErrorResponse(w http.ResponseWriter, r *http.Request, status int, message string, seatIDs []int) {
	resp := api.SeatErrorResponse{
		Message:   message,
		RequestId: middleware.GetReqID(r.Context()),
		Timestamp: time.Now(),
		SeatIds:   seatIDs,
	}

	err := app.writeJSON(w, status, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// bookingErrorResponse maps errors of the booking core to HTTP responses.
func (app *Application) bookingErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var (
		seatErr    *domain.SeatError
		serviceErr *domain.ServiceError
	)

	seatIDs := []int{}
	if errors.As(err, &seatErr) {
		seatIDs = seatErr.SeatIDs
	}

	switch {
	case errors.Is(err, domain.ErrSeatUnavailable):
		app.seatErrorResponse(w, r, http.StatusConflict, ErrSeatsUnavailable, seatIDs)
	case errors.Is(err, domain.ErrInvalidSeat):
		app.seatErrorResponse(w, r, http.StatusUnprocessableEntity, ErrSeatsInvalid, seatIDs)
	case errors.Is(err, domain.ErrValidation):
		app.errorResponse(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &serviceErr):
		app.errorResponse(w, r, http.StatusUnprocessableEntity, ErrUnknownServices)
	case errors.Is(err, domain.ErrRecordNotFound):
		app.notFoundResponse(w, r)
	case errors.Is(err, domain.ErrBookingCancelled):
		app.errorResponse(w, r, http.StatusConflict, ErrBookingCancelled)
	case errors.Is(err, domain.ErrBookingLocked):
		app.errorResponse(w, r, http.StatusLocked, ErrBookingLocked)
	default:
		app.serverErrorResponse(w, r, err)
	}
}

package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"dirwa-booking/internal/converter"
	"dirwa-booking/internal/usecase"
	"dirwa-booking/pkg/response"
	"dirwa-booking/pkg/validator"
)

// writeError maps usecase errors to HTTP responses. Anything unrecognised
// becomes a 500 carrying fallback, never the internal error text.
func writeError(w http.ResponseWriter, err error, fallback string) {
	var validation *usecase.ValidationError
	var conflict *usecase.SlotConflictError
	var courseNotFound *usecase.CourseNotFoundError
	var disabled *usecase.DisabledDateError

	switch {
	case errors.As(err, &validation):
		response.Error(w, http.StatusBadRequest, validation.Error(), map[string]string{validation.Field: validation.Message})
	case errors.As(err, &courseNotFound):
		response.Error(w, http.StatusNotFound, courseNotFound.Error(), map[string]interface{}{
			"validCourses": converter.TrainingCoursesToResponses(courseNotFound.ValidCourses),
		})
	case errors.As(err, &conflict):
		response.Conflict(w, "Selected time slot is already booked", conflict.Slot)
	case errors.As(err, &disabled):
		response.Error(w, http.StatusConflict, disabled.Error(), map[string]string{
			"date":   disabled.Date,
			"reason": disabled.Reason,
		})
	case errors.Is(err, usecase.ErrBookingNotFound),
		errors.Is(err, usecase.ErrCalendarNotFound),
		errors.Is(err, usecase.ErrExperienceNotFound),
		errors.Is(err, usecase.ErrRestNotFound),
		errors.Is(err, usecase.ErrCategoryNotFound),
		errors.Is(err, usecase.ErrPlantNotFound),
		errors.Is(err, usecase.ErrPaymentNotFound),
		errors.Is(err, usecase.ErrAuditLogNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, usecase.ErrForbidden):
		response.Forbidden(w, err.Error())
	case errors.Is(err, usecase.ErrCalendarExists):
		response.Conflict(w, err.Error(), nil)
	case errors.Is(err, usecase.ErrDateAlreadyDisabled),
		errors.Is(err, usecase.ErrRefundRejected):
		response.BadRequest(w, err.Error())
	case errors.Is(err, usecase.ErrGatewayUnavailable):
		response.ServiceUnavailable(w, "Payment gateway is temporarily unavailable")
	default:
		response.InternalServerError(w, fallback)
	}
}

// decodeAndValidate reads a JSON body into req and validates it. An empty body
// decodes as an empty object. It writes the 400 response itself and reports
// false when the request must stop.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validator.CustomValidator, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return false
	}

	if err := v.Validate(req); err != nil {
		response.Error(w, http.StatusBadRequest, v.FirstError(err), v.FormatValidationErrors(err))
		return false
	}
	return true
}

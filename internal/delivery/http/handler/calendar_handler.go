package handler

import (
	"net/http"

	"dirwa-booking/internal/delivery/dto"
	"dirwa-booking/internal/usecase"
	"dirwa-booking/pkg/response"
	"dirwa-booking/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type CalendarHandler struct {
	calendarUsecase usecase.CalendarUsecase
	validator       *validator.CustomValidator
}

func NewCalendarHandler(calendarUsecase usecase.CalendarUsecase, validator *validator.CustomValidator) *CalendarHandler {
	return &CalendarHandler{
		calendarUsecase: calendarUsecase,
		validator:       validator,
	}
}

// GetCalendar returns an entity's calendar, created with default prices on first read
// @Summary Get calendar of an entity
// @Tags Calendar
// @Produce json
// @Param entityId path string true "Entity ID"
// @Param month query string false "Month, YYYY-MM"
// @Success 200 {object} response.Response
// @Router /calendar/{entityId} [get]
func (h *CalendarHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	entityID, ok := uuidFromPath(w, r, "entityId", "Invalid entity ID")
	if !ok {
		return
	}

	calendar, err := h.calendarUsecase.GetCalendar(r.Context(), entityID, r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, err, "Failed to get calendar")
		return
	}

	response.Success(w, http.StatusOK, "Calendar retrieved successfully", calendar)
}

func (h *CalendarHandler) CheckDate(w http.ResponseWriter, r *http.Request) {
	entityID, ok := uuidFromPath(w, r, "entityId", "Invalid entity ID")
	if !ok {
		return
	}

	result, err := h.calendarUsecase.CheckDate(r.Context(), entityID, mux.Vars(r)["date"])
	if err != nil {
		writeError(w, err, "Failed to check date")
		return
	}

	response.Success(w, http.StatusOK, "Date checked successfully", result)
}

func (h *CalendarHandler) CreateCalendar(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCalendarRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	calendar, err := h.calendarUsecase.CreateCalendar(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Failed to create calendar")
		return
	}

	response.Success(w, http.StatusCreated, "Calendar created successfully", calendar)
}

func (h *CalendarHandler) UpdatePrices(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := uuidFromPath(w, r, "id", "Invalid calendar ID")
	if !ok {
		return
	}

	var req dto.UpdateCalendarPricesRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	calendar, err := h.calendarUsecase.UpdatePrices(r.Context(), calendarID, &req)
	if err != nil {
		writeError(w, err, "Failed to update calendar prices")
		return
	}

	response.Success(w, http.StatusOK, "Calendar prices updated successfully", calendar)
}

func (h *CalendarHandler) AddDisabledDate(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := uuidFromPath(w, r, "id", "Invalid calendar ID")
	if !ok {
		return
	}

	var req dto.AddDisabledDateRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	calendar, err := h.calendarUsecase.AddDisabledDate(r.Context(), calendarID, &req)
	if err != nil {
		writeError(w, err, "Failed to disable date")
		return
	}

	response.Success(w, http.StatusCreated, "Date disabled successfully", calendar)
}

func (h *CalendarHandler) RemoveDisabledDate(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := uuidFromPath(w, r, "id", "Invalid calendar ID")
	if !ok {
		return
	}
	dateID, ok := uuidFromPath(w, r, "dateId", "Invalid disabled date ID")
	if !ok {
		return
	}

	calendar, err := h.calendarUsecase.RemoveDisabledDate(r.Context(), calendarID, dateID)
	if err != nil {
		writeError(w, err, "Failed to enable date")
		return
	}

	response.Success(w, http.StatusOK, "Date enabled successfully", calendar)
}

func uuidFromPath(w http.ResponseWriter, r *http.Request, key, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[key])
	if err != nil {
		response.Error(w, http.StatusBadRequest, message, nil)
		return uuid.Nil, false
	}
	return id, true
}

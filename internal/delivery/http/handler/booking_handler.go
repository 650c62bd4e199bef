package handler

import (
	"net/http"
	"strconv"

	"dirwa-booking/internal/delivery/dto"
	"dirwa-booking/internal/domain/entity"
	"dirwa-booking/internal/domain/repository"
	"dirwa-booking/internal/usecase"
	"dirwa-booking/pkg/response"
	"dirwa-booking/pkg/validator"

	"github.com/google/uuid"
)

type BookingHandler struct {
	bookingFactory usecase.BookingFactory
	bookingUsecase usecase.BookingUsecase
	validator      *validator.CustomValidator
}

func NewBookingHandler(bookingFactory usecase.BookingFactory, bookingUsecase usecase.BookingUsecase, validator *validator.CustomValidator) *BookingHandler {
	return &BookingHandler{
		bookingFactory: bookingFactory,
		bookingUsecase: bookingUsecase,
		validator:      validator,
	}
}

// CreateBooking handles generic experience bookings
// @Summary Create a booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Param request body dto.CreateBookingRequest true "Create Booking Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /bookings [post]
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBookingRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	result, err := h.bookingFactory.CreateGeneric(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Failed to create booking")
		return
	}

	respondCreated(w, result)
}

// CreateRestBooking handles rest stays over one or more check-in days
// @Summary Create a rest booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Param request body dto.CreateRestBookingRequest true "Create Rest Booking Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /bookings/rest [post]
func (h *BookingHandler) CreateRestBooking(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateRestBookingRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	result, err := h.bookingFactory.CreateRest(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Failed to create rest booking")
		return
	}

	respondCreated(w, result)
}

// CreateHorseTrainingBooking books one session per appointment under a shared order
// @Summary Create horse training bookings
// @Tags Bookings
// @Accept json
// @Produce json
// @Param request body dto.CreateHorseTrainingBookingRequest true "Create Horse Training Booking Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /bookings/horse [post]
func (h *BookingHandler) CreateHorseTrainingBooking(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateHorseTrainingBookingRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	result, err := h.bookingFactory.CreateHorseTraining(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Failed to create horse training booking")
		return
	}

	respondCreated(w, result)
}

func (h *BookingHandler) CreatePlantOrder(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePlantOrderRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	result, err := h.bookingFactory.CreatePlantOrder(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Failed to create plant order")
		return
	}

	respondCreated(w, result)
}

func respondCreated(w http.ResponseWriter, result *dto.CreateBookingResponse) {
	message := "Booking created successfully"
	if result.Message != "" {
		message = result.Message
	}
	response.Success(w, http.StatusCreated, message, result)
}

// GetAllBookings lists bookings for the back office
// @Summary List bookings
// @Tags Bookings
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param variant query string false "generic, rest, horse_training or plants"
// @Param bookingStatus query string false "confirmed or cancelled"
// @Param paymentStatus query string false "pending, paid, partially_paid or failed"
// @Param phone query string false "Customer phone"
// @Param from query string false "First day, YYYY-MM-DD"
// @Param to query string false "Last day, YYYY-MM-DD"
// @Success 200 {object} response.Response
// @Router /bookings [get]
func (h *BookingHandler) GetAllBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	filter := repository.BookingFilter{
		Variant:       entity.BookingVariant(q.Get("variant")),
		BookingStatus: entity.BookingStatus(q.Get("bookingStatus")),
		PaymentStatus: entity.PaymentStatus(q.Get("paymentStatus")),
		Phone:         q.Get("phone"),
		From:          q.Get("from"),
		To:            q.Get("to"),
	}

	result, err := h.bookingUsecase.ListBookings(r.Context(), filter, page, limit)
	if err != nil {
		writeError(w, err, "Failed to get bookings")
		return
	}

	response.SuccessWithMeta(w, http.StatusOK, "Bookings retrieved successfully", result.Bookings, response.NewMeta(page, limit, result.Total))
}

func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := bookingIDFromPath(w, r)
	if !ok {
		return
	}

	booking, err := h.bookingUsecase.GetBooking(r.Context(), bookingID)
	if err != nil {
		writeError(w, err, "Failed to get booking")
		return
	}

	response.Success(w, http.StatusOK, "Booking retrieved successfully", booking)
}

func (h *BookingHandler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := bookingIDFromPath(w, r)
	if !ok {
		return
	}

	var req dto.UpdateBookingRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	booking, err := h.bookingUsecase.UpdateBooking(r.Context(), bookingID, &req)
	if err != nil {
		writeError(w, err, "Failed to update booking")
		return
	}

	response.Success(w, http.StatusOK, "Booking updated successfully", booking)
}

// CancelBooking is idempotent: cancelling a cancelled booking returns it unchanged.
func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := bookingIDFromPath(w, r)
	if !ok {
		return
	}

	var req dto.CancelBookingRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	booking, err := h.bookingUsecase.CancelBooking(r.Context(), bookingID, req.Reason)
	if err != nil {
		writeError(w, err, "Failed to cancel booking")
		return
	}

	response.Success(w, http.StatusOK, "Booking cancelled successfully", booking)
}

func (h *BookingHandler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := bookingIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.bookingUsecase.DeleteBooking(r.Context(), bookingID); err != nil {
		writeError(w, err, "Failed to delete booking")
		return
	}

	response.Success(w, http.StatusOK, "Booking deleted successfully", nil)
}

// GetFinance aggregates non-cancelled bookings between from and to (inclusive, optional).
func (h *BookingHandler) GetFinance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	report, err := h.bookingUsecase.Finance(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, err, "Failed to get finance report")
		return
	}

	response.Success(w, http.StatusOK, "Finance report retrieved successfully", report)
}

func bookingIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	return uuidFromPath(w, r, "id", "Invalid booking ID")
}

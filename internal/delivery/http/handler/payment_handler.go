package handler

import (
	"encoding/json"
	"net/http"

	"dirwa-booking/internal/delivery/dto"
	"dirwa-booking/internal/usecase"
	"dirwa-booking/pkg/response"
	"dirwa-booking/pkg/validator"

	"github.com/gorilla/mux"
)

type PaymentHandler struct {
	paymentUsecase usecase.PaymentUsecase
	validator      *validator.CustomValidator
}

func NewPaymentHandler(paymentUsecase usecase.PaymentUsecase, validator *validator.CustomValidator) *PaymentHandler {
	return &PaymentHandler{
		paymentUsecase: paymentUsecase,
		validator:      validator,
	}
}

func (h *PaymentHandler) CreatePaymentLink(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePaymentLinkRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	link, err := h.paymentUsecase.CreatePaymentLink(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Failed to create payment link")
		return
	}

	response.Success(w, http.StatusCreated, "Payment link created successfully", link)
}

func (h *PaymentHandler) CreateOrderPayment(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateOrderPaymentRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	link, err := h.paymentUsecase.CreateOrderPayment(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Failed to create order payment")
		return
	}

	response.Success(w, http.StatusCreated, "Payment link created successfully", link)
}

func (h *PaymentHandler) GetPaymentChannels(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	channels, err := h.paymentUsecase.GetPaymentChannels(r.Context(), vars["sessionId"], vars["uuid"])
	if err != nil {
		writeError(w, err, "Failed to get payment channels")
		return
	}

	response.Success(w, http.StatusOK, "Payment channels retrieved successfully", channels)
}

// HandleCallback accepts the gateway's POST notification or its browser redirect.
// Either way only the reference is read and the gateway is queried for the outcome.
// @Summary Payment gateway callback
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body dto.PaymentCallbackRequest false "Callback payload"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /payment/callback [post]
func (h *PaymentHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	var req dto.PaymentCallbackRequest
	if r.Method == http.MethodGet {
		q := r.URL.Query()
		req = dto.PaymentCallbackRequest{
			Reference:       q.Get("reference"),
			ReferenceUpper:  q.Get("Reference"),
			ReferenceNo:     q.Get("ReferenceNo"),
			ClientReference: q.Get("ClientReference"),
		}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	status, err := h.paymentUsecase.HandleCallback(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Failed to process payment callback")
		return
	}

	response.Success(w, http.StatusOK, "Payment status updated", status)
}

// VerifyPayment re-queries the gateway for a reference and updates its bookings.
func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	status, err := h.paymentUsecase.Reconcile(r.Context(), mux.Vars(r)["reference"])
	if err != nil {
		writeError(w, err, "Failed to verify payment")
		return
	}

	response.Success(w, http.StatusOK, "Payment verified", status)
}

func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	status, err := h.paymentUsecase.GetPayment(r.Context(), mux.Vars(r)["paymentId"])
	if err != nil {
		writeError(w, err, "Failed to get payment")
		return
	}

	response.Success(w, http.StatusOK, "Payment retrieved successfully", status)
}

func (h *PaymentHandler) Refund(w http.ResponseWriter, r *http.Request) {
	var req dto.RefundRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	result, err := h.paymentUsecase.Refund(r.Context(), mux.Vars(r)["paymentId"], &req)
	if err != nil {
		writeError(w, err, "Failed to refund payment")
		return
	}

	response.Success(w, http.StatusOK, "Refund submitted successfully", result)
}

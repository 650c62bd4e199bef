package dto

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type CreatePaymentLinkRequest struct {
	Reference   string          `json:"reference" validate:"required,max=100"`
	Amount      decimal.Decimal `json:"amount"`
	Name        string          `json:"name" validate:"required"`
	Email       string          `json:"email" validate:"omitempty,email"`
	Mobile      string          `json:"mobile" validate:"required"`
	Description string          `json:"description"`
}

type CreateOrderPaymentRequest struct {
	BookingID uuid.UUID `json:"bookingId" validate:"required"`
}

// PaymentCallbackRequest accepts the reference under any of the names the gateway uses.
// Status fields in the payload are ignored; the gateway is always re-queried.
type PaymentCallbackRequest struct {
	Reference       string `json:"reference"`
	ReferenceUpper  string `json:"Reference"`
	ReferenceNo     string `json:"ReferenceNo"`
	ClientReference string `json:"ClientReference"`
}

func (r *PaymentCallbackRequest) PaymentReference() string {
	for _, ref := range []string{r.Reference, r.ReferenceUpper, r.ReferenceNo, r.ClientReference} {
		if ref != "" {
			return ref
		}
	}
	return ""
}

type RefundRequest struct {
	Amount *decimal.Decimal `json:"amount"`
	Reason string           `json:"reason" validate:"omitempty,max=500"`
}

// Response DTOs

type PaymentLinkResponse struct {
	PaymentURL string `json:"paymentUrl"`
	Reference  string `json:"reference"`
	SessionID  string `json:"sessionId"`
	UUID       string `json:"uuid"`
	Sandbox    bool   `json:"sandbox"`
}

type PaymentStatusResponse struct {
	Reference         string            `json:"reference"`
	TransactionID     string            `json:"transactionId,omitempty"`
	StatusCode        string            `json:"statusCode"`
	StatusDescription string            `json:"statusDescription,omitempty"`
	Amount            decimal.Decimal   `json:"amount"`
	PaymentSuccessful bool              `json:"paymentSuccessful"`
	PaymentStatus     string            `json:"paymentStatus"`
	Bookings          []BookingResponse `json:"bookings,omitempty"`
}

type PaymentChannelsResponse struct {
	SessionID string          `json:"sessionId"`
	UUID      string          `json:"uuid"`
	Channels  json.RawMessage `json:"channels"`
}

type RefundResponse struct {
	Reference     string          `json:"reference"`
	TransactionID string          `json:"transactionId"`
	RefundID      string          `json:"refundId,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Message       string          `json:"message,omitempty"`
}

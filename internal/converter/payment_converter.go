package converter

import (
	"dirwa-booking/internal/delivery/dto"
	"dirwa-booking/pkg/paymentgateway"
)

func PaymentLinkToResponse(link paymentgateway.PaymentLink) *dto.PaymentLinkResponse {
	return &dto.PaymentLinkResponse{
		PaymentURL: link.PaymentURL,
		Reference:  link.Reference,
		SessionID:  link.SessionID,
		UUID:       link.UUID,
		Sandbox:    link.Sandbox,
	}
}

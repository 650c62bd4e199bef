package usecase

import (
	"context"
	"encoding/json"

	"dirwa-booking/pkg/paymentgateway"

	"github.com/shopspring/decimal"
)

// PaymentGateway is the part of paymentgateway.Client the usecases depend on.
type PaymentGateway interface {
	GenerateLink(ctx context.Context, req paymentgateway.LinkRequest) paymentgateway.PaymentLink
	VerifyPaymentByReference(ctx context.Context, reference string) (*paymentgateway.Verification, error)
	PaymentChannels(ctx context.Context, sessionID, uuid string) (json.RawMessage, error)
	Refund(ctx context.Context, transactionID string, amount decimal.Decimal) (*paymentgateway.RefundResult, error)
}

var _ PaymentGateway = (*paymentgateway.Client)(nil)

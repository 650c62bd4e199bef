package usecase

import (
	"context"
	"errors"
	"strings"

	"dirwa-booking/internal/converter"
	"dirwa-booking/internal/delivery/dto"
	"dirwa-booking/internal/delivery/http/middleware"
	"dirwa-booking/internal/domain/entity"
	"dirwa-booking/internal/domain/repository"
	"dirwa-booking/internal/service"
	"dirwa-booking/pkg/paymentgateway"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type PaymentUsecase interface {
	CreatePaymentLink(ctx context.Context, req *dto.CreatePaymentLinkRequest) (*dto.PaymentLinkResponse, error)
	CreateOrderPayment(ctx context.Context, req *dto.CreateOrderPaymentRequest) (*dto.PaymentLinkResponse, error)
	GetPaymentChannels(ctx context.Context, sessionID, uuid string) (*dto.PaymentChannelsResponse, error)
	HandleCallback(ctx context.Context, req *dto.PaymentCallbackRequest) (*dto.PaymentStatusResponse, error)
	Reconcile(ctx context.Context, reference string) (*dto.PaymentStatusResponse, error)
	GetPayment(ctx context.Context, reference string) (*dto.PaymentStatusResponse, error)
	Refund(ctx context.Context, reference string, req *dto.RefundRequest) (*dto.RefundResponse, error)
}

type paymentUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	bookingRepo  repository.BookingRepository
	gateway      PaymentGateway
	auditService service.AuditService
}

func NewPaymentUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	bookingRepo repository.BookingRepository,
	gateway PaymentGateway,
	auditService service.AuditService,
) PaymentUsecase {
	return &paymentUsecase{
		db:           db,
		log:          log,
		bookingRepo:  bookingRepo,
		gateway:      gateway,
		auditService: auditService,
	}
}

func (u *paymentUsecase) CreatePaymentLink(ctx context.Context, req *dto.CreatePaymentLinkRequest) (*dto.PaymentLinkResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, newValidationError("amount", "must be greater than zero")
	}

	link := u.gateway.GenerateLink(ctx, paymentgateway.LinkRequest{
		Email:       req.Email,
		Name:        req.Name,
		Mobile:      req.Mobile,
		Description: req.Description,
		Reference:   req.Reference,
		Amount:      req.Amount,
	})
	return converter.PaymentLinkToResponse(link), nil
}

// CreateOrderPayment issues a fresh link for an existing booking. Bookings that
// already share a reference keep it, and the link covers all of them.
func (u *paymentUsecase) CreateOrderPayment(ctx context.Context, req *dto.CreateOrderPaymentRequest) (*dto.PaymentLinkResponse, error) {
	db := u.db.WithContext(ctx)

	booking, err := u.bookingRepo.FindByID(db, req.BookingID)
	if err != nil {
		u.log.Warnf("Failed to find booking %s: %+v", req.BookingID, err)
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	if booking.IsCancelled() {
		return nil, newValidationError("bookingId", "booking is cancelled")
	}
	if booking.PaymentStatus == entity.PaymentStatusPaid && booking.TotalPaid.GreaterThanOrEqual(booking.Amount) {
		return nil, newValidationError("bookingId", "booking is already paid")
	}

	group := []entity.Booking{*booking}
	reference := booking.Reference()
	if reference != "" {
		group, err = u.bookingRepo.FindByReference(db, reference)
		if err != nil {
			u.log.Warnf("Failed to find bookings for reference %s: %+v", reference, err)
			return nil, err
		}
	} else if booking.OrderID != nil {
		reference = *booking.OrderID
	} else {
		reference = booking.ID.String()
	}

	amount := decimal.Zero
	for _, b := range group {
		if !b.IsCancelled() {
			amount = amount.Add(b.Amount.Sub(b.TotalPaid))
		}
	}
	if !amount.IsPositive() {
		return nil, newValidationError("bookingId", "nothing left to pay")
	}

	link := u.gateway.GenerateLink(ctx, paymentgateway.LinkRequest{
		Email:       booking.UserEmail,
		Name:        booking.UserName,
		Mobile:      booking.UserPhone,
		Description: booking.ExperienceType,
		Reference:   reference,
		Amount:      amount,
	})

	tx := db.Begin()
	defer tx.Rollback()

	for i := range group {
		if group[i].IsCancelled() {
			continue
		}
		group[i].AttachPaymentLink(link.Reference)
		if err := u.bookingRepo.Save(tx, &group[i]); err != nil {
			u.log.Warnf("Failed to attach payment reference to booking %s: %+v", group[i].ID, err)
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed to commit transaction: %+v", err)
		return nil, err
	}

	return converter.PaymentLinkToResponse(link), nil
}

func (u *paymentUsecase) GetPaymentChannels(ctx context.Context, sessionID, uuid string) (*dto.PaymentChannelsResponse, error) {
	if sessionID == "" {
		return nil, newValidationError("sessionId", "is required")
	}
	if uuid == "" {
		return nil, newValidationError("uuid", "is required")
	}

	channels, err := u.gateway.PaymentChannels(ctx, sessionID, uuid)
	if err != nil {
		u.log.WithField("session_id", sessionID).Warnf("Failed to fetch payment channels: %+v", err)
		return nil, ErrGatewayUnavailable
	}

	return &dto.PaymentChannelsResponse{
		SessionID: sessionID,
		UUID:      uuid,
		Channels:  channels,
	}, nil
}

// HandleCallback reconciles the reference named in a gateway callback.
// Status fields of the callback are never trusted.
func (u *paymentUsecase) HandleCallback(ctx context.Context, req *dto.PaymentCallbackRequest) (*dto.PaymentStatusResponse, error) {
	reference := req.PaymentReference()
	if reference == "" {
		return nil, newValidationError("reference", "is required")
	}
	return u.Reconcile(ctx, reference)
}

// Reconcile re-queries the gateway and applies its verdict to every booking
// carrying the reference. Bookings whose state is already current are not saved.
func (u *paymentUsecase) Reconcile(ctx context.Context, reference string) (*dto.PaymentStatusResponse, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, newValidationError("reference", "is required")
	}

	bookings, err := u.bookingRepo.FindByReference(u.db.WithContext(ctx), reference)
	if err != nil {
		u.log.Warnf("Failed to find bookings for reference %s: %+v", reference, err)
		return nil, err
	}
	if len(bookings) == 0 {
		return nil, ErrPaymentNotFound
	}

	verification, err := u.verify(ctx, reference)
	if err != nil {
		return nil, err
	}

	status := PaymentStatusFromOutcome(verification.Outcome)

	var changed []*entity.Booking
	for i := range bookings {
		if bookings[i].ApplyGatewayOutcome(status) {
			changed = append(changed, &bookings[i])
		}
	}

	if len(changed) > 0 {
		tx := u.db.WithContext(ctx).Begin()
		defer tx.Rollback()

		for _, b := range changed {
			if err := u.bookingRepo.Save(tx, b); err != nil {
				u.log.Warnf("Failed to save reconciled booking %s: %+v", b.ID, err)
				return nil, err
			}
		}

		if err := tx.Commit().Error; err != nil {
			u.log.Warnf("Failed to commit transaction: %+v", err)
			return nil, err
		}
	}

	u.log.WithFields(logrus.Fields{
		"reference": reference,
		"status":    status,
		"changed":   len(changed),
	}).Info("Payment reconciled")

	return statusResponse(reference, verification, status, bookings), nil
}

// GetPayment reports the gateway's view of a payment without touching any booking.
func (u *paymentUsecase) GetPayment(ctx context.Context, reference string) (*dto.PaymentStatusResponse, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, newValidationError("reference", "is required")
	}

	bookings, err := u.bookingRepo.FindByReference(u.db.WithContext(ctx), reference)
	if err != nil {
		u.log.Warnf("Failed to find bookings for reference %s: %+v", reference, err)
		return nil, err
	}
	if len(bookings) == 0 {
		return nil, ErrPaymentNotFound
	}

	verification, err := u.verify(ctx, reference)
	if err != nil {
		return nil, err
	}

	return statusResponse(reference, verification, PaymentStatusFromOutcome(verification.Outcome), bookings), nil
}

// Refund returns money of a settled payment. Without an amount the whole
// settled amount is refunded.
func (u *paymentUsecase) Refund(ctx context.Context, reference string, req *dto.RefundRequest) (*dto.RefundResponse, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, newValidationError("reference", "is required")
	}

	bookings, err := u.bookingRepo.FindByReference(u.db.WithContext(ctx), reference)
	if err != nil {
		u.log.Warnf("Failed to find bookings for reference %s: %+v", reference, err)
		return nil, err
	}
	if len(bookings) == 0 {
		return nil, ErrPaymentNotFound
	}

	verification, err := u.verify(ctx, reference)
	if err != nil {
		return nil, err
	}
	if !verification.PaymentSuccessful {
		return nil, newValidationError("reference", "payment is not settled")
	}

	amount := verification.Amount
	if req.Amount != nil {
		amount = *req.Amount
	}
	if !amount.IsPositive() {
		return nil, newValidationError("amount", "must be greater than zero")
	}
	if amount.GreaterThan(verification.Amount) {
		return nil, newValidationError("amount", "must not exceed the settled amount %s", verification.Amount.StringFixed(2))
	}

	result, err := u.gateway.Refund(ctx, verification.TransactionID, amount)
	if err != nil {
		logger := u.log.WithFields(logrus.Fields{"reference": reference, "transaction_id": verification.TransactionID})
		if errors.Is(err, paymentgateway.ErrRefundRejected) {
			logger.Warnf("Refund rejected: %+v", err)
			return nil, ErrRefundRejected
		}
		logger.Warnf("Refund failed: %+v", err)
		return nil, ErrGatewayUnavailable
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	if err := u.auditService.LogCreate(ctx, tx, middleware.GetActorFromContext(ctx), entity.AuditActionPaymentRefund, "payment", reference, map[string]interface{}{
		"transaction_id": verification.TransactionID,
		"refund_id":      result.RefundID,
		"amount":         amount.StringFixed(2),
		"reason":         req.Reason,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed to commit transaction: %+v", err)
		return nil, err
	}

	return &dto.RefundResponse{
		Reference:     reference,
		TransactionID: verification.TransactionID,
		RefundID:      result.RefundID,
		Amount:        amount,
		Message:       result.Message,
	}, nil
}

func (u *paymentUsecase) verify(ctx context.Context, reference string) (*paymentgateway.Verification, error) {
	verification, err := u.gateway.VerifyPaymentByReference(ctx, reference)
	if err != nil {
		u.log.WithField("reference", reference).Warnf("Failed to verify payment: %+v", err)
		return nil, ErrGatewayUnavailable
	}
	return verification, nil
}

// PaymentStatusFromOutcome maps a gateway outcome to a booking payment status.
func PaymentStatusFromOutcome(outcome paymentgateway.Outcome) entity.PaymentStatus {
	switch outcome {
	case paymentgateway.OutcomeSuccess:
		return entity.PaymentStatusPaid
	case paymentgateway.OutcomePending:
		return entity.PaymentStatusPending
	default:
		return entity.PaymentStatusFailed
	}
}

func statusResponse(reference string, v *paymentgateway.Verification, status entity.PaymentStatus, bookings []entity.Booking) *dto.PaymentStatusResponse {
	return &dto.PaymentStatusResponse{
		Reference:         reference,
		TransactionID:     v.TransactionID,
		StatusCode:        v.StatusCode,
		StatusDescription: v.StatusDescription,
		Amount:            v.Amount,
		PaymentSuccessful: v.PaymentSuccessful,
		PaymentStatus:     string(status),
		Bookings:          converter.BookingsToResponses(bookings),
	}
}

package entity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BookingStatus represents the lifecycle status of a booking
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// PaymentStatus represents the payment state of a booking
type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "pending"
	PaymentStatusPaid          PaymentStatus = "paid"
	PaymentStatusPartiallyPaid PaymentStatus = "partially_paid"
	PaymentStatusFailed        PaymentStatus = "failed"
)

// PaymentAmount selects whether the customer pays everything up front.
type PaymentAmount string

const (
	PaymentAmountFull    PaymentAmount = "full"
	PaymentAmountPartial PaymentAmount = "partial"
)

// ErrNegativeAmount is returned by the save hook when a money field is below zero.
var ErrNegativeAmount = errors.New("money fields must not be negative")

// Booking is the persisted booking aggregate shared by every variant.
// Variant-specific data lives in Details, see booking_variant.go.
type Booking struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Variant            BookingVariant  `gorm:"type:varchar(20);not null;index" json:"variant"`
	EntityID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"entity_id"`
	UserID             uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	UserName           string          `gorm:"type:varchar(255);not null" json:"user_name"`
	UserPhone          string          `gorm:"type:varchar(20);not null;index" json:"user_phone"`
	UserEmail          string          `gorm:"type:varchar(255)" json:"user_email"`
	ExperienceType     string          `gorm:"type:varchar(50)" json:"experience_type"`
	Date               string          `gorm:"type:varchar(10);not null;index" json:"date"`
	TimeSlot           string          `gorm:"type:varchar(50);not null;default:''" json:"time_slot"`
	CheckInDates       pq.StringArray  `gorm:"type:text[]" json:"check_in_dates,omitempty"`
	Amount             decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	TotalPrice         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`
	TotalPaid          decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_paid"`
	PaymentAmount      PaymentAmount   `gorm:"type:varchar(10);not null;default:'full'" json:"payment_amount"`
	PaymentMethod      string          `gorm:"type:varchar(50)" json:"payment_method"`
	PaymentStatus      PaymentStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"payment_status"`
	BookingStatus      BookingStatus   `gorm:"type:varchar(20);not null;default:'confirmed';index" json:"booking_status"`
	PaymentReference   *string         `gorm:"type:varchar(100);index" json:"payment_reference,omitempty"`
	OrderID            *string         `gorm:"type:varchar(100);uniqueIndex" json:"order_id,omitempty"`
	CancellationReason string          `gorm:"type:text" json:"cancellation_reason,omitempty"`
	Details            datatypes.JSON  `gorm:"type:jsonb" json:"details,omitempty"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Booking) TableName() string {
	return "bookings"
}

// BeforeSave rejects negative money fields.
func (b *Booking) BeforeSave(tx *gorm.DB) error {
	if b.Amount.IsNegative() || b.TotalPrice.IsNegative() || b.TotalPaid.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

// IsCancelled checks if booking is cancelled
func (b *Booking) IsCancelled() bool {
	return b.BookingStatus == BookingStatusCancelled
}

// Cancel moves the booking to the terminal cancelled state.
// Returns false when it was already cancelled.
func (b *Booking) Cancel(reason string) bool {
	if b.IsCancelled() {
		return false
	}
	b.BookingStatus = BookingStatusCancelled
	b.CancellationReason = reason
	return true
}

// Reference returns the payment reference or an empty string.
func (b *Booking) Reference() string {
	if b.PaymentReference == nil {
		return ""
	}
	return *b.PaymentReference
}

// AssignOrderID derives the human-readable order id from the persisted identity.
// It must only be called after the first save.
func (b *Booking) AssignOrderID(now time.Time) error {
	if b.ID == uuid.Nil {
		return errors.New("order id requires a persisted booking")
	}
	hex := strings.ReplaceAll(b.ID.String(), "-", "")
	orderID := fmt.Sprintf("DIRW-%s-%d", hex[len(hex)-6:], now.UnixMilli())
	b.OrderID = &orderID
	return nil
}

// Dates returns every calendar day this booking occupies.
func (b *Booking) Dates() []string {
	if len(b.CheckInDates) > 0 {
		return []string(b.CheckInDates)
	}
	return []string{b.Date}
}

// PresetPaymentStatus derives the creation-time payment status from the payment amount choice.
func PresetPaymentStatus(amount PaymentAmount) PaymentStatus {
	if amount == PaymentAmountFull {
		return PaymentStatusPaid
	}
	return PaymentStatusPartiallyPaid
}

// AttachPaymentLink records a gateway reference and resets the payment status to pending
// until the gateway confirms the payment.
func (b *Booking) AttachPaymentLink(reference string) {
	b.PaymentReference = &reference
	b.PaymentStatus = PaymentStatusPending
}

// ApplyGatewayOutcome maps a verified gateway outcome onto the booking.
// Returns true when any field changed.
func (b *Booking) ApplyGatewayOutcome(outcome PaymentStatus) bool {
	before := *b
	switch outcome {
	case PaymentStatusPaid:
		b.PaymentStatus = PaymentStatusPaid
		// cancelled is terminal
		if !b.IsCancelled() {
			b.BookingStatus = BookingStatusConfirmed
		}
		b.TotalPaid = b.Amount
	case PaymentStatusPending:
		b.PaymentStatus = PaymentStatusPending
	default:
		b.PaymentStatus = PaymentStatusFailed
	}
	return before.PaymentStatus != b.PaymentStatus ||
		before.BookingStatus != b.BookingStatus ||
		!before.TotalPaid.Equal(b.TotalPaid)
}

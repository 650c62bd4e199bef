package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditLog is an append-only trail of administrative changes.
type AuditLog struct {
	ID        int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    *uuid.UUID        `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Action    string            `gorm:"type:varchar(100);not null;index" json:"action"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"autoCreateTime;index" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// Common audit actions
const (
	AuditActionBookingUpdate   = "booking.update"
	AuditActionBookingCancel   = "booking.cancel"
	AuditActionBookingDelete   = "booking.delete"
	AuditActionPaymentRefund   = "payment.refund"
	AuditActionCalendarCreate  = "calendar.create"
	AuditActionCalendarPrices  = "calendar.prices"
	AuditActionCalendarDisable = "calendar.disable_date"
)

package repository

import (
	"dirwa-booking/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BookingFilter narrows booking listings. Zero values are ignored.
type BookingFilter struct {
	Variant       entity.BookingVariant
	BookingStatus entity.BookingStatus
	PaymentStatus entity.PaymentStatus
	Phone         string
	From          string
	To            string
}

// FinanceRow is one aggregated bucket of the finance report.
type FinanceRow struct {
	Variant       entity.BookingVariant
	PaymentStatus entity.PaymentStatus
	Count         int64
	TotalPrice    decimal.Decimal
	TotalPaid     decimal.Decimal
}

type BookingRepository interface {
	Create(db *gorm.DB, booking *entity.Booking) error
	Save(db *gorm.DB, booking *entity.Booking) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Booking, error)
	FindByReference(db *gorm.DB, reference string) ([]entity.Booking, error)
	FindAll(db *gorm.DB, filter BookingFilter, limit, offset int) ([]entity.Booking, int64, error)
	CancelBooking(db *gorm.DB, id uuid.UUID, reason string) (int64, error)
	Delete(db *gorm.DB, id uuid.UUID) (int64, error)
	Finance(db *gorm.DB, from, to string) ([]FinanceRow, error)
}

type BookingSlotRepository interface {
	FindActive(db *gorm.DB, slots []entity.Slot) ([]entity.BookingSlot, error)
	CreateBatch(db *gorm.DB, slots []entity.BookingSlot) error
	DeleteByBooking(db *gorm.DB, bookingID uuid.UUID) (int64, error)
}

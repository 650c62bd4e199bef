package repository

import (
	"errors"

	"dirwa-booking/internal/domain/entity"
	domainRepo "dirwa-booking/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type bookingRepository struct{}

func NewBookingRepository() domainRepo.BookingRepository {
	return &bookingRepository{}
}

func (r *bookingRepository) Create(db *gorm.DB, booking *entity.Booking) error {
	return db.Create(booking).Error
}

func (r *bookingRepository) Save(db *gorm.DB, booking *entity.Booking) error {
	return db.Save(booking).Error
}

func (r *bookingRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Booking, error) {
	var booking entity.Booking
	err := db.Where("id = ?", id).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByReference(db *gorm.DB, reference string) ([]entity.Booking, error) {
	var bookings []entity.Booking
	err := db.Where("payment_reference = ?", reference).
		Order("date ASC, time_slot ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) FindAll(db *gorm.DB, filter domainRepo.BookingFilter, limit, offset int) ([]entity.Booking, int64, error) {
	query := db.Model(&entity.Booking{})

	if filter.Variant != "" {
		query = query.Where("variant = ?", filter.Variant)
	}
	if filter.BookingStatus != "" {
		query = query.Where("booking_status = ?", filter.BookingStatus)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.Phone != "" {
		query = query.Where("user_phone = ?", filter.Phone)
	}
	if filter.From != "" {
		query = query.Where("date >= ?", filter.From)
	}
	if filter.To != "" {
		query = query.Where("date <= ?", filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var bookings []entity.Booking
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&bookings).Error
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// CancelBooking cancels a booking only if it is not already cancelled.
// Returns affected rows: 1 = cancelled now, 0 = already cancelled or missing.
func (r *bookingRepository) CancelBooking(db *gorm.DB, id uuid.UUID, reason string) (int64, error) {
	result := db.Model(&entity.Booking{}).
		Where("id = ? AND booking_status <> ?", id, entity.BookingStatusCancelled).
		Updates(map[string]interface{}{
			"booking_status":      entity.BookingStatusCancelled,
			"cancellation_reason": reason,
		})
	return result.RowsAffected, result.Error
}

func (r *bookingRepository) Delete(db *gorm.DB, id uuid.UUID) (int64, error) {
	result := db.Where("id = ?", id).Delete(&entity.Booking{})
	return result.RowsAffected, result.Error
}

func (r *bookingRepository) Finance(db *gorm.DB, from, to string) ([]domainRepo.FinanceRow, error) {
	query := db.Model(&entity.Booking{}).
		Select(`variant, payment_status, COUNT(*) AS count,
			COALESCE(SUM(total_price), 0) AS total_price,
			COALESCE(SUM(total_paid), 0) AS total_paid`).
		Where("booking_status <> ?", entity.BookingStatusCancelled)

	if from != "" {
		query = query.Where("date >= ?", from)
	}
	if to != "" {
		query = query.Where("date <= ?", to)
	}

	var rows []domainRepo.FinanceRow
	err := query.Group("variant, payment_status").Order("variant, payment_status").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

package repository

import (
	"dirwa-booking/internal/domain/entity"
	domainRepo "dirwa-booking/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type bookingSlotRepository struct{}

func NewBookingSlotRepository() domainRepo.BookingSlotRepository {
	return &bookingSlotRepository{}
}

// FindActive returns the stored slots matching any of the requested tuples.
func (r *bookingSlotRepository) FindActive(db *gorm.DB, slots []entity.Slot) ([]entity.BookingSlot, error) {
	if len(slots) == 0 {
		return nil, nil
	}

	tuples := make([][]interface{}, 0, len(slots))
	for _, s := range slots {
		tuples = append(tuples, []interface{}{s.EntityID, s.Date, s.TimeSlot})
	}

	var found []entity.BookingSlot
	err := db.Where("(entity_id, date, time_slot) IN ?", tuples).Find(&found).Error
	if err != nil {
		return nil, err
	}
	return found, nil
}

// CreateBatch inserts slot rows. A duplicate slot surfaces as gorm.ErrDuplicatedKey
// when the connection is opened with TranslateError.
func (r *bookingSlotRepository) CreateBatch(db *gorm.DB, slots []entity.BookingSlot) error {
	if len(slots) == 0 {
		return nil
	}
	return db.Create(&slots).Error
}

func (r *bookingSlotRepository) DeleteByBooking(db *gorm.DB, bookingID uuid.UUID) (int64, error) {
	result := db.Where("booking_id = ?", bookingID).Delete(&entity.BookingSlot{})
	return result.RowsAffected, result.Error
}

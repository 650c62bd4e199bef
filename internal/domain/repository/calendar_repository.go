package repository

import (
	"dirwa-booking/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CalendarRepository interface {
	Create(db *gorm.DB, calendar *entity.Calendar) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Calendar, error)
	FindActiveByEntity(db *gorm.DB, entityID uuid.UUID) (*entity.Calendar, error)
	UpdatePrices(db *gorm.DB, calendar *entity.Calendar) error
	UpsertCustomPrice(db *gorm.DB, price *entity.CalendarCustomPrice) error
	DeleteCustomPrice(db *gorm.DB, calendarID uuid.UUID, date string) error
	AddDisabledDate(db *gorm.DB, date *entity.CalendarDisabledDate) error
	RemoveDisabledDate(db *gorm.DB, calendarID, dateID uuid.UUID) (int64, error)
}

package repository

import (
	"errors"

	"dirwa-booking/internal/domain/entity"
	domainRepo "dirwa-booking/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type calendarRepository struct{}

func NewCalendarRepository() domainRepo.CalendarRepository {
	return &calendarRepository{}
}

func (r *calendarRepository) Create(db *gorm.DB, calendar *entity.Calendar) error {
	return db.Omit("DisabledDates", "CustomPrices").Create(calendar).Error
}

func (r *calendarRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Calendar, error) {
	var calendar entity.Calendar
	err := r.preload(db).Where("id = ?", id).First(&calendar).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &calendar, nil
}

func (r *calendarRepository) FindActiveByEntity(db *gorm.DB, entityID uuid.UUID) (*entity.Calendar, error) {
	var calendar entity.Calendar
	err := r.preload(db).Where("entity_id = ? AND is_active = ?", entityID, true).First(&calendar).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &calendar, nil
}

func (r *calendarRepository) UpdatePrices(db *gorm.DB, calendar *entity.Calendar) error {
	return db.Model(&entity.Calendar{}).
		Where("id = ?", calendar.ID).
		Updates(map[string]interface{}{
			"base_price":    calendar.BasePrice,
			"weekend_price": calendar.WeekendPrice,
		}).Error
}

func (r *calendarRepository) UpsertCustomPrice(db *gorm.DB, price *entity.CalendarCustomPrice) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "calendar_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"price"}),
	}).Create(price).Error
}

func (r *calendarRepository) DeleteCustomPrice(db *gorm.DB, calendarID uuid.UUID, date string) error {
	return db.Where("calendar_id = ? AND date = ?", calendarID, date).
		Delete(&entity.CalendarCustomPrice{}).Error
}

func (r *calendarRepository) AddDisabledDate(db *gorm.DB, date *entity.CalendarDisabledDate) error {
	return db.Create(date).Error
}

func (r *calendarRepository) RemoveDisabledDate(db *gorm.DB, calendarID, dateID uuid.UUID) (int64, error) {
	result := db.Where("id = ? AND calendar_id = ?", dateID, calendarID).Delete(&entity.CalendarDisabledDate{})
	return result.RowsAffected, result.Error
}

func (r *calendarRepository) preload(db *gorm.DB) *gorm.DB {
	return db.
		Preload("DisabledDates", func(db *gorm.DB) *gorm.DB { return db.Order("date ASC") }).
		Preload("CustomPrices", func(db *gorm.DB) *gorm.DB { return db.Order("date ASC") })
}

package repository

import (
	"errors"

	"dirwa-booking/internal/domain/entity"
	domainRepo "dirwa-booking/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type catalogRepository struct{}

func NewCatalogRepository() domainRepo.CatalogRepository {
	return &catalogRepository{}
}

func (r *catalogRepository) FindExperience(db *gorm.DB, id uuid.UUID) (*entity.Experience, error) {
	var experience entity.Experience
	if err := db.Where("id = ?", id).First(&experience).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &experience, nil
}

func (r *catalogRepository) FindRest(db *gorm.DB, id uuid.UUID) (*entity.Rest, error) {
	var rest entity.Rest
	if err := db.Where("id = ?", id).First(&rest).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &rest, nil
}

func (r *catalogRepository) FindTrainingCategory(db *gorm.DB, id uuid.UUID) (*entity.TrainingCategory, error) {
	var category entity.TrainingCategory
	err := db.Preload("Courses", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		Where("id = ?", id).
		First(&category).Error
	if err != nil {
		return nil, notFoundAsNil(err)
	}
	return &category, nil
}

func (r *catalogRepository) FindPlants(db *gorm.DB, ids []uuid.UUID) ([]entity.Plant, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var plants []entity.Plant
	if err := db.Where("id IN ?", ids).Find(&plants).Error; err != nil {
		return nil, err
	}
	return plants, nil
}

// notFoundAsNil turns gorm.ErrRecordNotFound into a nil error.
func notFoundAsNil(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

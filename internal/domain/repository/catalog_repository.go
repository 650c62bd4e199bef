package repository

import (
	"dirwa-booking/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogRepository gives read-only access to bookable catalog entries.
// Every finder returns (nil, nil) when the record does not exist.
type CatalogRepository interface {
	FindExperience(db *gorm.DB, id uuid.UUID) (*entity.Experience, error)
	FindRest(db *gorm.DB, id uuid.UUID) (*entity.Rest, error)
	FindTrainingCategory(db *gorm.DB, id uuid.UUID) (*entity.TrainingCategory, error)
	FindPlants(db *gorm.DB, ids []uuid.UUID) ([]entity.Plant, error)
}

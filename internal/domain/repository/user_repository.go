package repository

import (
	"dirwa-booking/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.User, error)
	FindByPhone(db *gorm.DB, phone string) (*entity.User, error)
	// UpsertByPhone inserts user only when no row with the same phone exists
	// and returns the stored row either way.
	UpsertByPhone(db *gorm.DB, user *entity.User) (*entity.User, error)
}

package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Catalog entities are maintained elsewhere; the booking core only reads them.

type Experience struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	Type      string          `gorm:"type:varchar(50)" json:"type"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Experience) TableName() string {
	return "experiences"
}

type Rest struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name             string          `gorm:"type:varchar(255);not null" json:"name"`
	BasePrice        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"base_price"`
	WeekendSurcharge decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"weekend_surcharge"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Rest) TableName() string {
	return "rests"
}

// WeekendPrice is the base price plus the weekend surcharge.
func (r *Rest) WeekendPrice() decimal.Decimal {
	return r.BasePrice.Add(r.WeekendSurcharge)
}

type TrainingCategory struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relationships
	Courses []TrainingCourse `gorm:"foreignKey:CategoryID" json:"courses"`
}

func (TrainingCategory) TableName() string {
	return "training_categories"
}

// FindCourse returns the course with id inside this category, or nil.
func (c *TrainingCategory) FindCourse(id uuid.UUID) *TrainingCourse {
	for i := range c.Courses {
		if c.Courses[i].ID == id {
			return &c.Courses[i]
		}
	}
	return nil
}

type TrainingCourse struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CategoryID uuid.UUID       `gorm:"type:uuid;not null;index" json:"category_id"`
	Name       string          `gorm:"type:varchar(255);not null" json:"name"`
	Price      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
}

func (TrainingCourse) TableName() string {
	return "training_courses"
}

type Plant struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Plant) TableName() string {
	return "plants"
}

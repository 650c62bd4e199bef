package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type CreateCalendarRequest struct {
	EntityID     uuid.UUID        `json:"entityId" validate:"required"`
	BasePrice    *decimal.Decimal `json:"basePrice"`
	WeekendPrice *decimal.Decimal `json:"weekendPrice"`
}

// CustomPriceRequest sets a day override; a null price removes it.
type CustomPriceRequest struct {
	Date  string           `json:"date" validate:"required,day"`
	Price *decimal.Decimal `json:"price"`
}

type UpdateCalendarPricesRequest struct {
	BasePrice    *decimal.Decimal     `json:"basePrice"`
	WeekendPrice *decimal.Decimal     `json:"weekendPrice"`
	CustomPrices []CustomPriceRequest `json:"customPrices" validate:"omitempty,dive"`
}

type AddDisabledDateRequest struct {
	Date        string `json:"date" validate:"required"`
	Reason      string `json:"reason" validate:"omitempty,max=100"`
	Description string `json:"description"`
}

// Response DTOs

type DisabledDateResponse struct {
	ID          uuid.UUID `json:"id"`
	Date        string    `json:"date"`
	Reason      string    `json:"reason,omitempty"`
	Description string    `json:"description,omitempty"`
}

type CustomPriceResponse struct {
	Date  string          `json:"date"`
	Price decimal.Decimal `json:"price"`
}

type CalendarDayResponse struct {
	Date        string          `json:"date"`
	Price       decimal.Decimal `json:"price"`
	Available   bool            `json:"available"`
	Weekend     bool            `json:"weekend"`
	CustomPrice bool            `json:"customPrice"`
	Reason      string          `json:"reason,omitempty"`
}

type CalendarResponse struct {
	ID            uuid.UUID              `json:"id"`
	EntityID      uuid.UUID              `json:"entityId"`
	BasePrice     decimal.Decimal        `json:"basePrice"`
	WeekendPrice  decimal.Decimal        `json:"weekendPrice"`
	IsActive      bool                   `json:"isActive"`
	DisabledDates []DisabledDateResponse `json:"disabledDates"`
	CustomPrices  []CustomPriceResponse  `json:"customPrices"`
	Month         string                 `json:"month,omitempty"`
	Days          []CalendarDayResponse  `json:"days,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

type DateCheckResponse struct {
	Date        string          `json:"date"`
	Available   bool            `json:"available"`
	Price       decimal.Decimal `json:"price"`
	Weekend     bool            `json:"weekend"`
	Reason      string          `json:"reason,omitempty"`
	Description string          `json:"description,omitempty"`
}

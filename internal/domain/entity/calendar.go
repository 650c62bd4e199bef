package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DayLayout is the calendar-day format used for every date comparison.
const DayLayout = "2006-01-02"

// Default prices for calendars created lazily on first read.
var (
	DefaultBasePrice    = decimal.NewFromInt(450)
	DefaultWeekendPrice = decimal.NewFromInt(600)
)

// Calendar holds the pricing and availability of one bookable entity.
// At most one active calendar exists per entity.
type Calendar struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	EntityID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"entity_id"`
	BasePrice    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"base_price"`
	WeekendPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"weekend_price"`
	IsActive     bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	DisabledDates []CalendarDisabledDate `gorm:"foreignKey:CalendarID;constraint:OnDelete:CASCADE" json:"disabled_dates"`
	CustomPrices  []CalendarCustomPrice  `gorm:"foreignKey:CalendarID;constraint:OnDelete:CASCADE" json:"custom_prices"`
}

func (Calendar) TableName() string {
	return "calendars"
}

// CalendarDisabledDate marks a single calendar day as unavailable.
type CalendarDisabledDate struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CalendarID  uuid.UUID `gorm:"type:uuid;not null;index" json:"calendar_id"`
	Date        string    `gorm:"type:varchar(10);not null" json:"date"`
	Reason      string    `gorm:"type:varchar(100)" json:"reason"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (CalendarDisabledDate) TableName() string {
	return "calendar_disabled_dates"
}

// CalendarCustomPrice overrides the computed price of a single day.
type CalendarCustomPrice struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CalendarID uuid.UUID       `gorm:"type:uuid;not null;index" json:"calendar_id"`
	Date       string          `gorm:"type:varchar(10);not null" json:"date"`
	Price      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
}

func (CalendarCustomPrice) TableName() string {
	return "calendar_custom_prices"
}

// NewDefaultCalendar builds an unsaved calendar with the documented default prices.
func NewDefaultCalendar(entityID uuid.UUID) *Calendar {
	return &Calendar{
		EntityID:     entityID,
		BasePrice:    DefaultBasePrice,
		WeekendPrice: DefaultWeekendPrice,
		IsActive:     true,
	}
}

// DayKey formats t as a calendar-day string in t's own location.
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}

// ParseDay parses a YYYY-MM-DD string (or an RFC3339 timestamp) as a calendar day in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if d, err := time.ParseInLocation(DayLayout, s, loc); err == nil {
		return d, nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	local := ts.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc), nil
}

// IsWeekend reports whether day falls on Friday or Saturday.
func IsWeekend(day time.Time) bool {
	wd := day.Weekday()
	return wd == time.Friday || wd == time.Saturday
}

// DayPrice returns the price of day: custom override first, then weekend, then base.
func (c *Calendar) DayPrice(day time.Time) decimal.Decimal {
	key := DayKey(day)
	for _, cp := range c.CustomPrices {
		if cp.Date == key {
			return cp.Price
		}
	}
	if IsWeekend(day) {
		return c.WeekendPrice
	}
	return c.BasePrice
}

// IsAvailable is false iff day appears in the disabled dates.
func (c *Calendar) IsAvailable(day time.Time) bool {
	return c.FindDisabledDate(DayKey(day)) == nil
}

// FindDisabledDate returns the disabled-date entry for a calendar-day key, if any.
func (c *Calendar) FindDisabledDate(key string) *CalendarDisabledDate {
	for i := range c.DisabledDates {
		if c.DisabledDates[i].Date == key {
			return &c.DisabledDates[i]
		}
	}
	return nil
}

// HasCustomPrice reports whether day carries a price override.
func (c *Calendar) HasCustomPrice(day time.Time) bool {
	key := DayKey(day)
	for _, cp := range c.CustomPrices {
		if cp.Date == key {
			return true
		}
	}
	return false
}

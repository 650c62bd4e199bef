package entity

import (
	"time"

	"github.com/google/uuid"
)

// BookingSlot is one occupied (entity, day, time slot) tuple of an active booking.
// The unique index makes double-booking impossible at the storage layer.
type BookingSlot struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	BookingID uuid.UUID `gorm:"type:uuid;not null;index" json:"booking_id"`
	EntityID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_booking_slots_unique" json:"entity_id"`
	Date      string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_booking_slots_unique" json:"date"`
	TimeSlot  string    `gorm:"type:varchar(50);not null;default:'';uniqueIndex:idx_booking_slots_unique" json:"time_slot"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (BookingSlot) TableName() string {
	return "booking_slots"
}

// Slot identifies a bookable slot independent of any booking.
type Slot struct {
	EntityID uuid.UUID `json:"entity_id"`
	Date     string    `json:"date"`
	TimeSlot string    `json:"time_slot,omitempty"`
}

func (s Slot) String() string {
	if s.TimeSlot == "" {
		return s.Date
	}
	return s.Date + " " + s.TimeSlot
}

// SlotsFor lists the slots a booking occupies. Horse training sessions occupy a
// time slot; generic and rest bookings occupy whole days; plant orders occupy nothing.
func SlotsFor(b *Booking) []Slot {
	if b.Variant == VariantPlants {
		return nil
	}
	timeSlot := ""
	if b.Variant == VariantHorseTraining {
		timeSlot = b.TimeSlot
	}

	dates := b.Dates()
	slots := make([]Slot, 0, len(dates))
	for _, d := range dates {
		slots = append(slots, Slot{EntityID: b.EntityID, Date: d, TimeSlot: timeSlot})
	}
	return slots
}

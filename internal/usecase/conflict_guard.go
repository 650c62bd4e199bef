package usecase

import (
	"errors"

	"dirwa-booking/internal/domain/entity"
	"dirwa-booking/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConflictGuard keeps two active bookings from occupying the same slot.
//
// Check is the early, read-only test used to report a friendly conflict before
// anything is written. Reserve is the authoritative one: slot rows carry a unique
// index, so of two transactions that both passed Check only one can commit.
type ConflictGuard struct {
	slotRepo repository.BookingSlotRepository
}

func NewConflictGuard(slotRepo repository.BookingSlotRepository) *ConflictGuard {
	return &ConflictGuard{slotRepo: slotRepo}
}

// Check returns the requested slots that are already taken, in request order.
// A slot requested twice in the same call counts as a conflict from its second occurrence.
func (g *ConflictGuard) Check(db *gorm.DB, slots []entity.Slot) ([]entity.Slot, error) {
	if len(slots) == 0 {
		return nil, nil
	}

	active, err := g.slotRepo.FindActive(db, slots)
	if err != nil {
		return nil, err
	}

	taken := make(map[entity.Slot]struct{}, len(active))
	for _, s := range active {
		taken[entity.Slot{EntityID: s.EntityID, Date: s.Date, TimeSlot: s.TimeSlot}] = struct{}{}
	}

	var conflicts []entity.Slot
	requested := make(map[entity.Slot]struct{}, len(slots))
	for _, s := range slots {
		_, isTaken := taken[s]
		_, isRepeated := requested[s]
		if isTaken || isRepeated {
			conflicts = append(conflicts, s)
		}
		requested[s] = struct{}{}
	}
	return conflicts, nil
}

// Reserve records the slots of a booking inside tx.
func (g *ConflictGuard) Reserve(tx *gorm.DB, bookingID uuid.UUID, slots []entity.Slot) error {
	if len(slots) == 0 {
		return nil
	}

	rows := make([]entity.BookingSlot, len(slots))
	for i, s := range slots {
		rows[i] = entity.BookingSlot{
			BookingID: bookingID,
			EntityID:  s.EntityID,
			Date:      s.Date,
			TimeSlot:  s.TimeSlot,
		}
	}

	if err := g.slotRepo.CreateBatch(tx, rows); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// the index does not say which row collided
			return &SlotConflictError{Slot: slots[0]}
		}
		return err
	}
	return nil
}

// Release frees every slot held by a booking. Releasing twice is a no-op.
func (g *ConflictGuard) Release(tx *gorm.DB, bookingID uuid.UUID) error {
	_, err := g.slotRepo.DeleteByBooking(tx, bookingID)
	return err
}

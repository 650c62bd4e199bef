package usecase

import (
	"testing"

	"dirwa-booking/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConflictGuard(t *testing.T) {
	course := uuid.New()
	morning := entity.Slot{EntityID: course, Date: "2025-08-10", TimeSlot: "09:00-10:00"}
	evening := entity.Slot{EntityID: course, Date: "2025-08-10", TimeSlot: "17:00-18:00"}
	nextDay := entity.Slot{EntityID: course, Date: "2025-08-11", TimeSlot: "09:00-10:00"}

	t.Run("Check Reports Taken Slots In Request Order", func(t *testing.T) {
		slots := newFakeSlotRepo()
		guard := NewConflictGuard(slots)
		require.NoError(t, guard.Reserve(nil, uuid.New(), []entity.Slot{nextDay, morning}))

		conflicts, err := guard.Check(nil, []entity.Slot{evening, morning, nextDay})
		require.NoError(t, err)
		assert.Equal(t, []entity.Slot{morning, nextDay}, conflicts)
	})

	t.Run("Check Flags Repeats Within One Request", func(t *testing.T) {
		guard := NewConflictGuard(newFakeSlotRepo())

		conflicts, err := guard.Check(nil, []entity.Slot{evening, morning, evening})
		require.NoError(t, err)
		assert.Equal(t, []entity.Slot{evening}, conflicts)
	})

	t.Run("Other Entity Does Not Conflict", func(t *testing.T) {
		slots := newFakeSlotRepo()
		guard := NewConflictGuard(slots)
		require.NoError(t, guard.Reserve(nil, uuid.New(), []entity.Slot{morning}))

		other := morning
		other.EntityID = uuid.New()
		conflicts, err := guard.Check(nil, []entity.Slot{other})
		require.NoError(t, err)
		assert.Empty(t, conflicts)
	})

	t.Run("Reserve Maps Unique Violation", func(t *testing.T) {
		slots := newFakeSlotRepo()
		guard := NewConflictGuard(slots)
		require.NoError(t, guard.Reserve(nil, uuid.New(), []entity.Slot{evening}))

		err := guard.Reserve(nil, uuid.New(), []entity.Slot{morning, evening})
		var conflict *SlotConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, morning, conflict.Slot)
		assert.ErrorIs(t, err, ErrSlotConflict)
		assert.Equal(t, 1, slots.count())
	})

	t.Run("Release Frees Slots", func(t *testing.T) {
		slots := newFakeSlotRepo()
		guard := NewConflictGuard(slots)
		bookingID := uuid.New()
		require.NoError(t, guard.Reserve(nil, bookingID, []entity.Slot{morning, evening}))

		require.NoError(t, guard.Release(nil, bookingID))
		require.NoError(t, guard.Release(nil, bookingID))
		assert.Equal(t, 0, slots.count())

		require.NoError(t, guard.Reserve(nil, uuid.New(), []entity.Slot{morning}))
	})

	t.Run("No Slots", func(t *testing.T) {
		guard := NewConflictGuard(newFakeSlotRepo())
		conflicts, err := guard.Check(nil, nil)
		require.NoError(t, err)
		assert.Empty(t, conflicts)
		assert.NoError(t, guard.Reserve(nil, uuid.New(), nil))
	})
}

package entity

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingAssignOrderID(t *testing.T) {
	t.Run("Requires identity", func(t *testing.T) {
		b := &Booking{}
		assert.Error(t, b.AssignOrderID(time.Now()))
		assert.Nil(t, b.OrderID)
	})

	t.Run("Uses last six hex digits and timestamp", func(t *testing.T) {
		id := uuid.MustParse("3f2a9c1e-7b44-4d1a-9e2f-00000abc1234")
		b := &Booking{ID: id}
		now := time.UnixMilli(1754800000000)

		require.NoError(t, b.AssignOrderID(now))
		assert.Equal(t, "DIRW-bc1234-1754800000000", *b.OrderID)
		assert.True(t, strings.HasPrefix(*b.OrderID, "DIRW-"))
	})
}

func TestBookingCancel(t *testing.T) {
	b := &Booking{BookingStatus: BookingStatusConfirmed}

	assert.True(t, b.Cancel("weather"))
	assert.Equal(t, BookingStatusCancelled, b.BookingStatus)
	assert.Equal(t, "weather", b.CancellationReason)

	assert.False(t, b.Cancel("again"))
	assert.Equal(t, "weather", b.CancellationReason)
}

func TestPaymentStatusTransitions(t *testing.T) {
	t.Run("Preset from payment amount", func(t *testing.T) {
		assert.Equal(t, PaymentStatusPaid, PresetPaymentStatus(PaymentAmountFull))
		assert.Equal(t, PaymentStatusPartiallyPaid, PresetPaymentStatus(PaymentAmountPartial))
		assert.Equal(t, PaymentStatusPartiallyPaid, PresetPaymentStatus(""))
	})

	t.Run("Payment link overwrites preset to pending", func(t *testing.T) {
		b := &Booking{PaymentStatus: PresetPaymentStatus(PaymentAmountFull)}
		b.AttachPaymentLink("ref-1")
		assert.Equal(t, PaymentStatusPending, b.PaymentStatus)
		assert.Equal(t, "ref-1", b.Reference())
	})
}

func TestBookingApplyGatewayOutcome(t *testing.T) {
	amount := decimal.NewFromInt(300)

	t.Run("Success marks paid and confirmed", func(t *testing.T) {
		b := &Booking{Amount: amount, PaymentStatus: PaymentStatusPending, BookingStatus: BookingStatusConfirmed}
		assert.True(t, b.ApplyGatewayOutcome(PaymentStatusPaid))
		assert.Equal(t, PaymentStatusPaid, b.PaymentStatus)
		assert.True(t, b.TotalPaid.Equal(amount))

		assert.False(t, b.ApplyGatewayOutcome(PaymentStatusPaid), "second identical outcome is a no-op")
	})

	t.Run("Unknown outcome fails", func(t *testing.T) {
		b := &Booking{PaymentStatus: PaymentStatusPending}
		assert.True(t, b.ApplyGatewayOutcome("declined"))
		assert.Equal(t, PaymentStatusFailed, b.PaymentStatus)
	})

	t.Run("Cancelled stays cancelled", func(t *testing.T) {
		b := &Booking{Amount: amount, BookingStatus: BookingStatusCancelled}
		b.ApplyGatewayOutcome(PaymentStatusPaid)
		assert.Equal(t, BookingStatusCancelled, b.BookingStatus)
	})
}

func TestBookingBeforeSave(t *testing.T) {
	b := &Booking{Amount: decimal.NewFromInt(-1)}
	assert.ErrorIs(t, b.BeforeSave(nil), ErrNegativeAmount)

	b.Amount = decimal.Zero
	assert.NoError(t, b.BeforeSave(nil))
}

func TestBookingDetailsRoundTrip(t *testing.T) {
	categoryID := uuid.New()
	b := &Booking{}
	require.NoError(t, b.SetDetails(HorseTrainingDetails{ParentName: "Sara", Age: 9, NumberPersons: 1, SelectedCategoryID: categoryID, AgreedToTerms: true}))
	assert.Equal(t, VariantHorseTraining, b.Variant)

	d, err := b.DecodeDetails()
	require.NoError(t, err)
	horse, ok := d.(*HorseTrainingDetails)
	require.True(t, ok)
	assert.Equal(t, categoryID, horse.SelectedCategoryID)

	b.Variant = "unknown"
	_, err = b.DecodeDetails()
	assert.Error(t, err)
}

func TestSlotsFor(t *testing.T) {
	entityID := uuid.New()

	rest := &Booking{Variant: VariantRest, EntityID: entityID, Date: "2025-08-10", CheckInDates: []string{"2025-08-10", "2025-08-11"}}
	assert.Len(t, SlotsFor(rest), 2)

	horse := &Booking{Variant: VariantHorseTraining, EntityID: entityID, Date: "2025-08-10", TimeSlot: "16:00"}
	slots := SlotsFor(horse)
	require.Len(t, slots, 1)
	assert.Equal(t, "2025-08-10 16:00", slots[0].String())

	generic := &Booking{Variant: VariantGeneric, EntityID: entityID, Date: "2025-08-10", TimeSlot: "16:00"}
	slots = SlotsFor(generic)
	require.Len(t, slots, 1)
	assert.Equal(t, "2025-08-10", slots[0].String(), "generic bookings hold the whole day")

	plants := &Booking{Variant: VariantPlants, EntityID: entityID, Date: "2025-08-10"}
	assert.Empty(t, SlotsFor(plants))
}

func TestPlantOrderItemLineTotal(t *testing.T) {
	item := PlantOrderItem{UnitPrice: decimal.RequireFromString("12.50"), Quantity: 3}
	assert.Equal(t, "37.50", item.LineTotal().StringFixed(2))
}

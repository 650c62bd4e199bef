package entity

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// BookingVariant tags the kind of booking and the shape of its Details payload.
type BookingVariant string

const (
	VariantGeneric       BookingVariant = "generic"
	VariantRest          BookingVariant = "rest"
	VariantHorseTraining BookingVariant = "horse_training"
	VariantPlants        BookingVariant = "plants"
)

// VariantDetails is implemented by every variant payload.
type VariantDetails interface {
	Variant() BookingVariant
}

type GenericDetails struct {
	NumberPersons int    `json:"number_persons,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

func (GenericDetails) Variant() BookingVariant { return VariantGeneric }

type RestDetails struct {
	Overnight    bool   `json:"overnight"`
	CardLastFour string `json:"card_last_four_digits,omitempty"`
}

func (RestDetails) Variant() BookingVariant { return VariantRest }

type HorseTrainingDetails struct {
	ParentName         string    `json:"parent_name,omitempty"`
	Age                int       `json:"age"`
	PreviousTraining   bool      `json:"previous_training"`
	NumberPersons      int       `json:"number_persons"`
	SelectedCategoryID uuid.UUID `json:"selected_category_id"`
	AgreedToTerms      bool      `json:"agreed_to_terms"`
}

func (HorseTrainingDetails) Variant() BookingVariant { return VariantHorseTraining }

type PlantOrderItem struct {
	PlantID   uuid.UUID       `json:"plant_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// LineTotal is unit price times quantity.
func (i PlantOrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type PlantOrderDetails struct {
	RecipientPerson string           `json:"recipient_person"`
	DeliveryAddress string           `json:"delivery_address"`
	OrderItems      []PlantOrderItem `json:"order_items"`
}

func (PlantOrderDetails) Variant() BookingVariant { return VariantPlants }

// SetDetails stores the payload and tags the booking with its variant.
func (b *Booking) SetDetails(d VariantDetails) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal %s details: %w", d.Variant(), err)
	}
	b.Variant = d.Variant()
	b.Details = datatypes.JSON(raw)
	return nil
}

// DecodeDetails returns the typed payload for the booking's variant.
func (b *Booking) DecodeDetails() (VariantDetails, error) {
	var d VariantDetails
	switch b.Variant {
	case VariantGeneric:
		d = &GenericDetails{}
	case VariantRest:
		d = &RestDetails{}
	case VariantHorseTraining:
		d = &HorseTrainingDetails{}
	case VariantPlants:
		d = &PlantOrderDetails{}
	default:
		return nil, fmt.Errorf("unknown booking variant %q", b.Variant)
	}
	if len(b.Details) == 0 {
		return d, nil
	}
	if err := json.Unmarshal(b.Details, d); err != nil {
		return nil, fmt.Errorf("decode %s details: %w", b.Variant, err)
	}
	return d, nil
}

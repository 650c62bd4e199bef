package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	FullName string   `json:"fullName" validate:"required"`
	Date     string   `json:"date" validate:"required,day"`
	CheckIn  []string `json:"checkIn" validate:"required,min=1,dive,day"`
}

func TestCustomValidator(t *testing.T) {
	v := NewValidator()

	t.Run("Valid", func(t *testing.T) {
		err := v.Validate(sampleRequest{FullName: "Noura", Date: "2025-08-10", CheckIn: []string{"2025-08-10"}})
		assert.NoError(t, err)
	})

	t.Run("First missing field uses json name", func(t *testing.T) {
		err := v.Validate(sampleRequest{Date: "2025-08-10", CheckIn: []string{"2025-08-10"}})
		require.Error(t, err)
		assert.Equal(t, "fullName is required", v.FirstError(err))
	})

	t.Run("Malformed day", func(t *testing.T) {
		err := v.Validate(sampleRequest{FullName: "Noura", Date: "10/08/2025", CheckIn: []string{"2025-08-10"}})
		require.Error(t, err)
		errs := v.FormatValidationErrors(err)
		assert.Equal(t, "date must be a date in YYYY-MM-DD format", errs["date"])
	})

	t.Run("Empty check-in list", func(t *testing.T) {
		err := v.Validate(sampleRequest{FullName: "Noura", Date: "2025-08-10", CheckIn: []string{}})
		require.Error(t, err)
		assert.Equal(t, map[string]string{"checkIn": "checkIn must contain at least 1 item(s)"}, v.FormatValidationErrors(err))
	})
}

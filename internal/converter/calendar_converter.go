package converter

import (
	"dirwa-booking/internal/delivery/dto"
	"dirwa-booking/internal/domain/entity"
)

func CalendarToResponse(calendar *entity.Calendar) *dto.CalendarResponse {
	if calendar == nil {
		return nil
	}

	response := &dto.CalendarResponse{
		ID:            calendar.ID,
		EntityID:      calendar.EntityID,
		BasePrice:     calendar.BasePrice,
		WeekendPrice:  calendar.WeekendPrice,
		IsActive:      calendar.IsActive,
		DisabledDates: make([]dto.DisabledDateResponse, len(calendar.DisabledDates)),
		CustomPrices:  make([]dto.CustomPriceResponse, len(calendar.CustomPrices)),
		CreatedAt:     calendar.CreatedAt,
		UpdatedAt:     calendar.UpdatedAt,
	}

	for i, d := range calendar.DisabledDates {
		response.DisabledDates[i] = dto.DisabledDateResponse{
			ID:          d.ID,
			Date:        d.Date,
			Reason:      d.Reason,
			Description: d.Description,
		}
	}
	for i, p := range calendar.CustomPrices {
		response.CustomPrices[i] = dto.CustomPriceResponse{Date: p.Date, Price: p.Price}
	}

	return response
}

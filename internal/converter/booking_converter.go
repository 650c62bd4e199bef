package converter

import (
	"encoding/json"

	"dirwa-booking/internal/delivery/dto"
	"dirwa-booking/internal/domain/entity"
)

// BookingToResponse converts a Booking entity to BookingResponse DTO
func BookingToResponse(booking *entity.Booking) *dto.BookingResponse {
	if booking == nil {
		return nil
	}

	response := &dto.BookingResponse{
		ID:                 booking.ID,
		Variant:            string(booking.Variant),
		EntityID:           booking.EntityID,
		UserID:             booking.UserID,
		UserName:           booking.UserName,
		UserPhone:          booking.UserPhone,
		UserEmail:          booking.UserEmail,
		ExperienceType:     booking.ExperienceType,
		Date:               booking.Date,
		TimeSlot:           booking.TimeSlot,
		CheckInDates:       []string(booking.CheckInDates),
		Amount:             booking.Amount,
		TotalPrice:         booking.TotalPrice,
		TotalPaid:          booking.TotalPaid,
		PaymentAmount:      string(booking.PaymentAmount),
		PaymentMethod:      booking.PaymentMethod,
		PaymentStatus:      string(booking.PaymentStatus),
		BookingStatus:      string(booking.BookingStatus),
		PaymentReference:   booking.Reference(),
		CancellationReason: booking.CancellationReason,
		CreatedAt:          booking.CreatedAt,
		UpdatedAt:          booking.UpdatedAt,
	}

	if booking.OrderID != nil {
		response.OrderID = *booking.OrderID
	}
	if len(booking.Details) > 0 {
		response.Details = json.RawMessage(booking.Details)
	}

	return response
}

// BookingsToResponses converts a slice of Booking entities to slice of BookingResponse DTOs
func BookingsToResponses(bookings []entity.Booking) []dto.BookingResponse {
	responses := make([]dto.BookingResponse, len(bookings))
	for i := range bookings {
		responses[i] = *BookingToResponse(&bookings[i])
	}
	return responses
}

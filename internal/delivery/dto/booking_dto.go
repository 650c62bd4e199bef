package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type CreateBookingRequest struct {
	FullName      string           `json:"fullName" validate:"required"`
	Phone         string           `json:"phone" validate:"required"`
	Email         string           `json:"email" validate:"omitempty,email"`
	ExperienceID  uuid.UUID        `json:"experienceId" validate:"required"`
	Date          string           `json:"date" validate:"required,day"`
	TimeSlot      string           `json:"timeSlot" validate:"omitempty,max=50"`
	NumberPersons int              `json:"numberPersons" validate:"omitempty,gte=1"`
	Amount        *decimal.Decimal `json:"amount"`
	PaymentMethod string           `json:"paymentMethod"`
	Notes         string           `json:"notes" validate:"omitempty,max=500"`
}

type CreateRestBookingRequest struct {
	FullName      string    `json:"fullName" validate:"required"`
	Phone         string    `json:"phone" validate:"required"`
	Email         string    `json:"email" validate:"omitempty,email"`
	RestID        uuid.UUID `json:"restId" validate:"required"`
	CheckIn       []string  `json:"checkIn" validate:"required,min=1,dive,day"`
	Overnight     bool      `json:"overnight"`
	PaymentAmount string    `json:"paymentAmount" validate:"omitempty,oneof=full partial"`
	PaymentMethod string    `json:"paymentMethod"`
	CardLastFour  string    `json:"cardLastFourDigits" validate:"omitempty,len=4,numeric"`
}

type AppointmentRequest struct {
	Date     string `json:"date" validate:"required,day"`
	TimeSlot string `json:"timeSlot" validate:"required,max=50"`
}

type CreateHorseTrainingBookingRequest struct {
	FullName         string               `json:"fullName" validate:"required"`
	Phone            string               `json:"phone" validate:"required"`
	Email            string               `json:"email" validate:"omitempty,email"`
	CategoryID       uuid.UUID            `json:"categoryId" validate:"required"`
	CourseID         uuid.UUID            `json:"courseId" validate:"required"`
	Appointments     []AppointmentRequest `json:"appointments" validate:"required,min=1,dive"`
	ParentName       string               `json:"parentName"`
	Age              int                  `json:"age" validate:"omitempty,gte=1,lte=120"`
	PreviousTraining bool                 `json:"previousTraining"`
	NumberPersons    int                  `json:"numberPersons" validate:"omitempty,gte=1"`
	AgreedToTerms    bool                 `json:"agreedToTerms"`
	PaymentMethod    string               `json:"paymentMethod"`
}

type PlantOrderItemRequest struct {
	PlantID  uuid.UUID `json:"plantId" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,gte=1"`
}

type CreatePlantOrderRequest struct {
	FullName        string                  `json:"fullName" validate:"required"`
	Phone           string                  `json:"phone" validate:"required"`
	Email           string                  `json:"email" validate:"omitempty,email"`
	RecipientPerson string                  `json:"recipientPerson"`
	DeliveryAddress string                  `json:"deliveryAddress" validate:"required"`
	DeliveryDate    string                  `json:"deliveryDate" validate:"omitempty,day"`
	Items           []PlantOrderItemRequest `json:"items" validate:"required,min=1,dive"`
	PaymentMethod   string                  `json:"paymentMethod"`
}

// UpdateBookingRequest patches a booking. Nil fields are left unchanged.
type UpdateBookingRequest struct {
	UserName      *string  `json:"userName" validate:"omitempty,min=1"`
	UserEmail     *string  `json:"userEmail" validate:"omitempty,email"`
	Date          *string  `json:"date" validate:"omitempty,day"`
	TimeSlot      *string  `json:"timeSlot" validate:"omitempty,max=50"`
	CheckIn       []string `json:"checkIn" validate:"omitempty,dive,day"`
	PaymentStatus *string  `json:"paymentStatus" validate:"omitempty,oneof=pending paid partially_paid failed"`
	PaymentMethod *string  `json:"paymentMethod"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// Response DTOs

type BookingResponse struct {
	ID                 uuid.UUID       `json:"id"`
	Variant            string          `json:"variant"`
	EntityID           uuid.UUID       `json:"entityId"`
	UserID             uuid.UUID       `json:"userId"`
	UserName           string          `json:"userName"`
	UserPhone          string          `json:"userPhone"`
	UserEmail          string          `json:"userEmail,omitempty"`
	ExperienceType     string          `json:"experienceType,omitempty"`
	Date               string          `json:"date"`
	TimeSlot           string          `json:"timeSlot,omitempty"`
	CheckInDates       []string        `json:"checkInDates,omitempty"`
	Amount             decimal.Decimal `json:"amount"`
	TotalPrice         decimal.Decimal `json:"totalPrice"`
	TotalPaid          decimal.Decimal `json:"totalPaid"`
	PaymentAmount      string          `json:"paymentAmount"`
	PaymentMethod      string          `json:"paymentMethod,omitempty"`
	PaymentStatus      string          `json:"paymentStatus"`
	BookingStatus      string          `json:"bookingStatus"`
	PaymentReference   string          `json:"paymentReference,omitempty"`
	OrderID            string          `json:"orderId,omitempty"`
	CancellationReason string          `json:"cancellationReason,omitempty"`
	Details            json.RawMessage `json:"details,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
	Total    int64             `json:"total"`
}

// CreateBookingResponse carries the created bookings and either a payment link
// or a message asking the customer to contact support.
type CreateBookingResponse struct {
	Bookings []BookingResponse    `json:"bookings"`
	Payment  *PaymentLinkResponse `json:"payment,omitempty"`
	Message  string               `json:"message,omitempty"`
}

type FinanceBucket struct {
	Count      int64           `json:"count"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	TotalPaid  decimal.Decimal `json:"totalPaid"`
}

type FinanceResponse struct {
	From            string                   `json:"from,omitempty"`
	To              string                   `json:"to,omitempty"`
	Totals          FinanceBucket            `json:"totals"`
	ByPaymentStatus map[string]FinanceBucket `json:"byPaymentStatus"`
	ByVariant       map[string]FinanceBucket `json:"byVariant"`
}

type TrainingCourseResponse struct {
	ID    uuid.UUID       `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

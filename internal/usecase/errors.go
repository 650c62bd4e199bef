package usecase

import (
	"errors"
	"fmt"

	"dirwa-booking/internal/domain/entity"

	"github.com/google/uuid"
)

var (
	ErrBookingNotFound    = errors.New("booking not found")
	ErrCalendarNotFound   = errors.New("calendar not found")
	ErrExperienceNotFound = errors.New("experience not found")
	ErrRestNotFound       = errors.New("rest not found")
	ErrCategoryNotFound   = errors.New("training category not found")
	ErrCourseNotFound     = errors.New("course not found in training category")
	ErrPlantNotFound      = errors.New("plant not found")
	ErrPaymentNotFound    = errors.New("no booking found for payment reference")
	ErrAuditLogNotFound   = errors.New("audit log not found")

	ErrForbidden = errors.New("booking does not belong to you")

	ErrCalendarExists      = errors.New("an active calendar already exists for this entity")
	ErrDateAlreadyDisabled = errors.New("date is already disabled")
	ErrDateDisabled        = errors.New("date is not available")
	ErrSlotConflict        = errors.New("slot is already booked")

	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrRefundRejected     = errors.New("refund rejected by payment gateway")
)

// ValidationError reports the first missing or malformed field of a request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// SlotConflictError carries the first conflicting slot of a request.
type SlotConflictError struct {
	Slot entity.Slot
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("slot %s is already booked", e.Slot)
}

func (e *SlotConflictError) Is(target error) bool {
	return target == ErrSlotConflict
}

// CourseNotFoundError lists the courses that do exist in the requested category.
type CourseNotFoundError struct {
	CategoryID   uuid.UUID
	ValidCourses []entity.TrainingCourse
}

func (e *CourseNotFoundError) Error() string {
	return fmt.Sprintf("course not found in training category %s", e.CategoryID)
}

func (e *CourseNotFoundError) Is(target error) bool {
	return target == ErrCourseNotFound
}

// DisabledDateError reports a requested day that is disabled on the calendar.
type DisabledDateError struct {
	Date   string
	Reason string
}

func (e *DisabledDateError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("date %s is not available", e.Date)
	}
	return fmt.Sprintf("date %s is not available: %s", e.Date, e.Reason)
}

func (e *DisabledDateError) Is(target error) bool {
	return target == ErrDateDisabled
}

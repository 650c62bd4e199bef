package usecase

import (
	"context"
	"strings"
	"time"

	"dirwa-booking/internal/converter"
	"dirwa-booking/internal/delivery/dto"
	"dirwa-booking/internal/delivery/http/middleware"
	"dirwa-booking/internal/domain/entity"
	"dirwa-booking/internal/domain/repository"
	"dirwa-booking/internal/service"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type BookingUsecase interface {
	ListBookings(ctx context.Context, filter repository.BookingFilter, page, limit int) (*dto.BookingListResponse, error)
	GetBooking(ctx context.Context, bookingID uuid.UUID) (*dto.BookingResponse, error)
	UpdateBooking(ctx context.Context, bookingID uuid.UUID, req *dto.UpdateBookingRequest) (*dto.BookingResponse, error)
	CancelBooking(ctx context.Context, bookingID uuid.UUID, reason string) (*dto.BookingResponse, error)
	DeleteBooking(ctx context.Context, bookingID uuid.UUID) error
	Finance(ctx context.Context, from, to string) (*dto.FinanceResponse, error)
}

type bookingUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	loc          *time.Location
	bookingRepo  repository.BookingRepository
	guard        *ConflictGuard
	calendar     CalendarUsecase
	auditService service.AuditService
	notifier     service.NotificationDispatcher
}

func NewBookingUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	loc *time.Location,
	bookingRepo repository.BookingRepository,
	guard *ConflictGuard,
	calendar CalendarUsecase,
	auditService service.AuditService,
	notifier service.NotificationDispatcher,
) BookingUsecase {
	if loc == nil {
		loc = time.UTC
	}
	return &bookingUsecase{
		db:           db,
		log:          log,
		loc:          loc,
		bookingRepo:  bookingRepo,
		guard:        guard,
		calendar:     calendar,
		auditService: auditService,
		notifier:     notifier,
	}
}

func (u *bookingUsecase) ListBookings(ctx context.Context, filter repository.BookingFilter, page, limit int) (*dto.BookingListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	bookings, total, err := u.bookingRepo.FindAll(u.db.WithContext(ctx), filter, limit, (page-1)*limit)
	if err != nil {
		u.log.Warnf("Failed to list bookings: %+v", err)
		return nil, err
	}

	return &dto.BookingListResponse{
		Bookings: converter.BookingsToResponses(bookings),
		Total:    total,
	}, nil
}

func (u *bookingUsecase) GetBooking(ctx context.Context, bookingID uuid.UUID) (*dto.BookingResponse, error) {
	booking, err := u.find(u.db.WithContext(ctx), bookingID)
	if err != nil {
		return nil, err
	}
	return converter.BookingToResponse(booking), nil
}

// UpdateBooking patches a booking. Changing its days or time slot moves its slot
// reservation, which fails with a conflict when the new slot is taken.
func (u *bookingUsecase) UpdateBooking(ctx context.Context, bookingID uuid.UUID, req *dto.UpdateBookingRequest) (*dto.BookingResponse, error) {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	booking, err := u.find(tx, bookingID)
	if err != nil {
		return nil, err
	}
	old := *booking
	old.CheckInDates = append(pq.StringArray(nil), booking.CheckInDates...)

	if req.UserName != nil {
		name := strings.TrimSpace(*req.UserName)
		if name == "" {
			return nil, newValidationError("userName", "must not be empty")
		}
		booking.UserName = name
	}
	if req.UserEmail != nil {
		booking.UserEmail = *req.UserEmail
	}
	if req.PaymentMethod != nil {
		booking.PaymentMethod = *req.PaymentMethod
	}
	if req.PaymentStatus != nil {
		booking.PaymentStatus = entity.PaymentStatus(*req.PaymentStatus)
	}

	slotsChanged, err := u.applySchedule(booking, req)
	if err != nil {
		return nil, err
	}

	if slotsChanged && !booking.IsCancelled() && booking.Variant == entity.VariantRest {
		if err := u.requote(ctx, booking); err != nil {
			return nil, err
		}
	}

	if slotsChanged && !booking.IsCancelled() {
		if err := u.guard.Release(tx, booking.ID); err != nil {
			u.log.Warnf("Failed to release slots of booking %s: %+v", booking.ID, err)
			return nil, err
		}
		slots := entity.SlotsFor(booking)
		conflicts, err := u.guard.Check(tx, slots)
		if err != nil {
			u.log.Warnf("Failed to check booking conflicts: %+v", err)
			return nil, err
		}
		if len(conflicts) > 0 {
			return nil, &SlotConflictError{Slot: conflicts[0]}
		}
		if err := u.guard.Reserve(tx, booking.ID, slots); err != nil {
			return nil, err
		}
	}

	if err := u.bookingRepo.Save(tx, booking); err != nil {
		u.log.Warnf("Failed to update booking %s: %+v", booking.ID, err)
		return nil, err
	}

	if err := u.auditService.LogUpdate(ctx, tx, middleware.GetActorFromContext(ctx), entity.AuditActionBookingUpdate, "booking", booking.ID.String(), old, booking); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed to commit transaction: %+v", err)
		return nil, err
	}

	if err := u.notifier.NotifyAdminUpdate(ctx, &old, booking); err != nil {
		u.log.Warnf("Failed to queue update notification for booking %s: %+v", booking.ID, err)
	}

	return converter.BookingToResponse(booking), nil
}

// applySchedule moves the booking's days and time slot. Reports whether its slots changed.
func (u *bookingUsecase) applySchedule(booking *entity.Booking, req *dto.UpdateBookingRequest) (bool, error) {
	before := entity.SlotsFor(booking)

	if len(req.CheckIn) > 0 {
		days := make(pq.StringArray, 0, len(req.CheckIn))
		for _, d := range req.CheckIn {
			day, err := entity.ParseDay(d, u.loc)
			if err != nil {
				return false, newValidationError("checkIn", "%q is not a valid date", d)
			}
			days = append(days, entity.DayKey(day))
		}
		booking.CheckInDates = days
		booking.Date = days[0]
	} else if req.Date != nil {
		day, err := entity.ParseDay(*req.Date, u.loc)
		if err != nil {
			return false, newValidationError("date", "must be formatted as YYYY-MM-DD")
		}
		booking.Date = entity.DayKey(day)
		if len(booking.CheckInDates) > 0 {
			booking.CheckInDates = pq.StringArray{booking.Date}
		}
	}
	if req.TimeSlot != nil {
		booking.TimeSlot = strings.TrimSpace(*req.TimeSlot)
	}

	after := entity.SlotsFor(booking)
	if len(before) != len(after) {
		return true, nil
	}
	for i := range before {
		if before[i] != after[i] {
			return true, nil
		}
	}
	return false, nil
}

// requote prices a rest booking's days against its calendar, rejecting disabled
// days. A partial payment keeps its share of the new total.
func (u *bookingUsecase) requote(ctx context.Context, booking *entity.Booking) error {
	quote, err := u.calendar.QuoteStay(ctx, booking.EntityID, booking.Dates())
	if err != nil {
		return err
	}

	share := decimal.NewFromInt(1)
	if booking.PaymentAmount == entity.PaymentAmountPartial && booking.TotalPrice.IsPositive() {
		share = booking.Amount.Div(booking.TotalPrice)
	}

	booking.CheckInDates = pq.StringArray(quote.Days)
	booking.Date = quote.Days[0]
	booking.TotalPrice = quote.Total
	booking.Amount = quote.Total.Mul(share).Round(2)
	return nil
}

// CancelBooking moves a booking to cancelled and frees its slots. Cancelling a
// cancelled booking returns it unchanged without side effects.
func (u *bookingUsecase) CancelBooking(ctx context.Context, bookingID uuid.UUID, reason string) (*dto.BookingResponse, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, newValidationError("reason", "is required")
	}

	booking, err := u.find(u.db.WithContext(ctx), bookingID)
	if err != nil {
		return nil, err
	}
	if !canCancel(ctx, booking) {
		return nil, ErrForbidden
	}
	if booking.IsCancelled() {
		return converter.BookingToResponse(booking), nil
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	rows, err := u.bookingRepo.CancelBooking(tx, booking.ID, reason)
	if err != nil {
		u.log.Warnf("Failed to cancel booking %s: %+v", booking.ID, err)
		return nil, err
	}
	if rows == 0 {
		// lost a race with another cancel
		current, err := u.find(u.db.WithContext(ctx), bookingID)
		if err != nil {
			return nil, err
		}
		return converter.BookingToResponse(current), nil
	}

	old := *booking
	booking.Cancel(reason)

	if err := u.guard.Release(tx, booking.ID); err != nil {
		u.log.Warnf("Failed to release slots of booking %s: %+v", booking.ID, err)
		return nil, err
	}

	if err := u.auditService.LogUpdate(ctx, tx, middleware.GetActorFromContext(ctx), entity.AuditActionBookingCancel, "booking", booking.ID.String(), old, booking); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed to commit transaction: %+v", err)
		return nil, err
	}

	if err := u.notifier.NotifyAdminCancellation(ctx, booking); err != nil {
		u.log.Warnf("Failed to queue cancellation notification for booking %s: %+v", booking.ID, err)
	}
	if err := u.notifier.NotifyAdminUpdate(ctx, &old, booking); err != nil {
		u.log.Warnf("Failed to queue update notification for booking %s: %+v", booking.ID, err)
	}

	u.log.Infof("Booking cancelled: id=%s", booking.ID)
	return converter.BookingToResponse(booking), nil
}

// canCancel admits admins and the customer who owns the booking.
func canCancel(ctx context.Context, booking *entity.Booking) bool {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return false
	}
	if roleID, _ := middleware.GetRoleIDFromContext(ctx); roleID == entity.RoleIDAdmin {
		return true
	}
	return booking.UserID == userID
}

func (u *bookingUsecase) DeleteBooking(ctx context.Context, bookingID uuid.UUID) error {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	booking, err := u.find(tx, bookingID)
	if err != nil {
		return err
	}

	if err := u.guard.Release(tx, booking.ID); err != nil {
		u.log.Warnf("Failed to release slots of booking %s: %+v", booking.ID, err)
		return err
	}

	rows, err := u.bookingRepo.Delete(tx, booking.ID)
	if err != nil {
		u.log.Warnf("Failed to delete booking %s: %+v", booking.ID, err)
		return err
	}
	if rows == 0 {
		return ErrBookingNotFound
	}

	if err := u.auditService.LogDelete(ctx, tx, middleware.GetActorFromContext(ctx), entity.AuditActionBookingDelete, "booking", booking.ID.String(), booking); err != nil {
		return err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed to commit transaction: %+v", err)
		return err
	}

	u.log.Infof("Booking deleted: id=%s", booking.ID)
	return nil
}

// Finance aggregates booking totals by payment status and by variant.
// Cancelled bookings are excluded by the repository.
func (u *bookingUsecase) Finance(ctx context.Context, from, to string) (*dto.FinanceResponse, error) {
	var err error
	if from, err = u.normalizeDay("from", from); err != nil {
		return nil, err
	}
	if to, err = u.normalizeDay("to", to); err != nil {
		return nil, err
	}

	rows, err := u.bookingRepo.Finance(u.db.WithContext(ctx), from, to)
	if err != nil {
		u.log.Warnf("Failed to aggregate finance report: %+v", err)
		return nil, err
	}

	response := &dto.FinanceResponse{
		From:            from,
		To:              to,
		Totals:          dto.FinanceBucket{TotalPrice: decimal.Zero, TotalPaid: decimal.Zero},
		ByPaymentStatus: make(map[string]dto.FinanceBucket),
		ByVariant:       make(map[string]dto.FinanceBucket),
	}
	for _, row := range rows {
		response.Totals = addBucket(response.Totals, row)
		response.ByPaymentStatus[string(row.PaymentStatus)] = addBucket(response.ByPaymentStatus[string(row.PaymentStatus)], row)
		response.ByVariant[string(row.Variant)] = addBucket(response.ByVariant[string(row.Variant)], row)
	}
	return response, nil
}

func addBucket(b dto.FinanceBucket, row repository.FinanceRow) dto.FinanceBucket {
	return dto.FinanceBucket{
		Count:      b.Count + row.Count,
		TotalPrice: b.TotalPrice.Add(row.TotalPrice),
		TotalPaid:  b.TotalPaid.Add(row.TotalPaid),
	}
}

func (u *bookingUsecase) normalizeDay(field, value string) (string, error) {
	if value == "" {
		return "", nil
	}
	day, err := entity.ParseDay(value, u.loc)
	if err != nil {
		return "", newValidationError(field, "must be formatted as YYYY-MM-DD")
	}
	return entity.DayKey(day), nil
}

func (u *bookingUsecase) find(db *gorm.DB, bookingID uuid.UUID) (*entity.Booking, error) {
	booking, err := u.bookingRepo.FindByID(db, bookingID)
	if err != nil {
		u.log.Warnf("Failed to find booking %s: %+v", bookingID, err)
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}

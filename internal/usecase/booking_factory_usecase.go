package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dirwa-booking/internal/converter"
	"dirwa-booking/internal/delivery/dto"
	"dirwa-booking/internal/delivery/http/middleware"
	"dirwa-booking/internal/domain/entity"
	"dirwa-booking/internal/domain/repository"
	"dirwa-booking/internal/service"
	"dirwa-booking/pkg/paymentgateway"
	"dirwa-booking/pkg/validator"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MessageContactSupport is returned when a booking was created but its payment link
// could not be attached.
const MessageContactSupport = "Booking created. Please contact support to complete payment."

const (
	experienceTypeOvernight = "overnight"
	experienceTypeDayUse    = "day_use"
	experienceTypeTraining  = "horse_training"
	experienceTypePlants    = "plants"
)

type BookingFactory interface {
	CreateGeneric(ctx context.Context, req *dto.CreateBookingRequest) (*dto.CreateBookingResponse, error)
	CreateRest(ctx context.Context, req *dto.CreateRestBookingRequest) (*dto.CreateBookingResponse, error)
	CreateHorseTraining(ctx context.Context, req *dto.CreateHorseTrainingBookingRequest) (*dto.CreateBookingResponse, error)
	CreatePlantOrder(ctx context.Context, req *dto.CreatePlantOrderRequest) (*dto.CreateBookingResponse, error)
}

type bookingFactory struct {
	db           *gorm.DB
	log          *logrus.Logger
	loc          *time.Location
	now          func() time.Time
	partialRatio decimal.Decimal
	userRepo     repository.UserRepository
	bookingRepo  repository.BookingRepository
	catalogRepo  repository.CatalogRepository
	guard        *ConflictGuard
	calendar     CalendarUsecase
	gateway      PaymentGateway
	notifier     service.NotificationDispatcher
}

func NewBookingFactory(
	db *gorm.DB,
	log *logrus.Logger,
	loc *time.Location,
	partialRatio float64,
	userRepo repository.UserRepository,
	bookingRepo repository.BookingRepository,
	catalogRepo repository.CatalogRepository,
	guard *ConflictGuard,
	calendar CalendarUsecase,
	gateway PaymentGateway,
	notifier service.NotificationDispatcher,
) BookingFactory {
	if loc == nil {
		loc = time.UTC
	}
	if partialRatio <= 0 || partialRatio > 1 {
		partialRatio = 0.5
	}
	return &bookingFactory{
		db:           db,
		log:          log,
		loc:          loc,
		now:          time.Now,
		partialRatio: decimal.NewFromFloat(partialRatio),
		userRepo:     userRepo,
		bookingRepo:  bookingRepo,
		catalogRepo:  catalogRepo,
		guard:        guard,
		calendar:     calendar,
		gateway:      gateway,
		notifier:     notifier,
	}
}

// customer is the contact data shared by every variant request.
type customer struct {
	name  string
	phone string
	email string
}

// bookingPlan is everything the shared create flow needs from a variant.
type bookingPlan struct {
	customer    customer
	bookings    []*entity.Booking
	description string
	linkAmount  decimal.Decimal
	// fanOut bookings get an order id and share the aggregate total.
	fanOut bool
}

func (u *bookingFactory) CreateGeneric(ctx context.Context, req *dto.CreateBookingRequest) (*dto.CreateBookingResponse, error) {
	day, err := entity.ParseDay(req.Date, u.loc)
	if err != nil {
		return nil, newValidationError("date", "must be formatted as YYYY-MM-DD")
	}

	experience, err := u.catalogRepo.FindExperience(u.db.WithContext(ctx), req.ExperienceID)
	if err != nil {
		u.log.Warnf("Failed to find experience %s: %+v", req.ExperienceID, err)
		return nil, err
	}
	if experience == nil {
		return nil, ErrExperienceNotFound
	}

	amount := experience.Price
	if req.Amount != nil && isStaff(ctx) {
		if req.Amount.IsNegative() {
			return nil, newValidationError("amount", "must not be negative")
		}
		amount = *req.Amount
	}

	booking := &entity.Booking{
		EntityID:       experience.ID,
		ExperienceType: experience.Type,
		Date:           entity.DayKey(day),
		TimeSlot:       strings.TrimSpace(req.TimeSlot),
		Amount:         amount,
		TotalPrice:     amount,
		PaymentAmount:  entity.PaymentAmountFull,
		PaymentMethod:  req.PaymentMethod,
		PaymentStatus:  entity.PaymentStatusPending,
		BookingStatus:  entity.BookingStatusConfirmed,
	}
	if err := booking.SetDetails(entity.GenericDetails{NumberPersons: req.NumberPersons, Notes: req.Notes}); err != nil {
		return nil, err
	}

	return u.create(ctx, &bookingPlan{
		customer:    customer{name: req.FullName, phone: validator.NormalizePhone(req.Phone), email: req.Email},
		bookings:    []*entity.Booking{booking},
		description: experience.Name,
		linkAmount:  amount,
	})
}

func (u *bookingFactory) CreateRest(ctx context.Context, req *dto.CreateRestBookingRequest) (*dto.CreateBookingResponse, error) {
	if len(req.CheckIn) == 0 {
		return nil, newValidationError("checkIn", "at least one date is required")
	}

	rest, err := u.catalogRepo.FindRest(u.db.WithContext(ctx), req.RestID)
	if err != nil {
		u.log.Warnf("Failed to find rest %s: %+v", req.RestID, err)
		return nil, err
	}
	if rest == nil {
		return nil, ErrRestNotFound
	}

	quote, err := u.calendar.QuoteStay(ctx, rest.ID, req.CheckIn)
	if err != nil {
		return nil, err
	}

	paymentAmount := entity.PaymentAmount(req.PaymentAmount)
	if paymentAmount == "" {
		paymentAmount = entity.PaymentAmountFull
	}
	charged := quote.Total
	if paymentAmount == entity.PaymentAmountPartial {
		charged = quote.Total.Mul(u.partialRatio).Round(2)
	}

	experienceType := experienceTypeDayUse
	if req.Overnight {
		experienceType = experienceTypeOvernight
	}

	booking := &entity.Booking{
		EntityID:       rest.ID,
		ExperienceType: experienceType,
		Date:           quote.Days[0],
		CheckInDates:   pq.StringArray(quote.Days),
		Amount:         charged,
		TotalPrice:     quote.Total,
		PaymentAmount:  paymentAmount,
		PaymentMethod:  req.PaymentMethod,
		PaymentStatus:  entity.PresetPaymentStatus(paymentAmount),
		BookingStatus:  entity.BookingStatusConfirmed,
	}
	if err := booking.SetDetails(entity.RestDetails{Overnight: req.Overnight, CardLastFour: req.CardLastFour}); err != nil {
		return nil, err
	}

	return u.create(ctx, &bookingPlan{
		customer:    customer{name: req.FullName, phone: validator.NormalizePhone(req.Phone), email: req.Email},
		bookings:    []*entity.Booking{booking},
		description: rest.Name,
		linkAmount:  charged,
	})
}

func (u *bookingFactory) CreateHorseTraining(ctx context.Context, req *dto.CreateHorseTrainingBookingRequest) (*dto.CreateBookingResponse, error) {
	if len(req.Appointments) == 0 {
		return nil, newValidationError("appointments", "at least one appointment is required")
	}

	category, err := u.catalogRepo.FindTrainingCategory(u.db.WithContext(ctx), req.CategoryID)
	if err != nil {
		u.log.Warnf("Failed to find training category %s: %+v", req.CategoryID, err)
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}

	course := category.FindCourse(req.CourseID)
	if course == nil {
		return nil, &CourseNotFoundError{CategoryID: category.ID, ValidCourses: category.Courses}
	}

	details := entity.HorseTrainingDetails{
		ParentName:         req.ParentName,
		Age:                req.Age,
		PreviousTraining:   req.PreviousTraining,
		NumberPersons:      req.NumberPersons,
		SelectedCategoryID: category.ID,
		AgreedToTerms:      req.AgreedToTerms,
	}

	bookings := make([]*entity.Booking, 0, len(req.Appointments))
	for i, appt := range req.Appointments {
		day, err := entity.ParseDay(appt.Date, u.loc)
		if err != nil {
			return nil, newValidationError(fmt.Sprintf("appointments[%d].date", i), "must be formatted as YYYY-MM-DD")
		}
		timeSlot := strings.TrimSpace(appt.TimeSlot)
		if timeSlot == "" {
			return nil, newValidationError(fmt.Sprintf("appointments[%d].timeSlot", i), "is required")
		}

		booking := &entity.Booking{
			EntityID:       course.ID,
			ExperienceType: experienceTypeTraining,
			Date:           entity.DayKey(day),
			TimeSlot:       timeSlot,
			Amount:         course.Price,
			TotalPrice:     course.Price,
			PaymentAmount:  entity.PaymentAmountFull,
			PaymentMethod:  req.PaymentMethod,
			PaymentStatus:  entity.PaymentStatusPending,
			BookingStatus:  entity.BookingStatusConfirmed,
		}
		if err := booking.SetDetails(details); err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}

	return u.create(ctx, &bookingPlan{
		customer:    customer{name: req.FullName, phone: validator.NormalizePhone(req.Phone), email: req.Email},
		bookings:    bookings,
		description: course.Name,
		linkAmount:  course.Price.Mul(decimal.NewFromInt(int64(len(bookings)))),
		fanOut:      true,
	})
}

func (u *bookingFactory) CreatePlantOrder(ctx context.Context, req *dto.CreatePlantOrderRequest) (*dto.CreateBookingResponse, error) {
	phone, err := validator.NormalizeInternationalPhone(req.Phone)
	if err != nil {
		return nil, &ValidationError{Field: "phone", Message: err.Error()}
	}
	if len(req.Items) == 0 {
		return nil, newValidationError("items", "at least one item is required")
	}

	deliveryDay := u.now().In(u.loc)
	if req.DeliveryDate != "" {
		deliveryDay, err = entity.ParseDay(req.DeliveryDate, u.loc)
		if err != nil {
			return nil, newValidationError("deliveryDate", "must be formatted as YYYY-MM-DD")
		}
	}

	ids := make([]uuid.UUID, 0, len(req.Items))
	for _, item := range req.Items {
		ids = append(ids, item.PlantID)
	}
	plants, err := u.catalogRepo.FindPlants(u.db.WithContext(ctx), ids)
	if err != nil {
		u.log.Warnf("Failed to find plants: %+v", err)
		return nil, err
	}
	byID := make(map[uuid.UUID]entity.Plant, len(plants))
	for _, p := range plants {
		byID[p.ID] = p
	}

	total := decimal.Zero
	items := make([]entity.PlantOrderItem, 0, len(req.Items))
	for i, item := range req.Items {
		if item.Quantity < 1 {
			return nil, newValidationError(fmt.Sprintf("items[%d].quantity", i), "must be at least 1")
		}
		plant, ok := byID[item.PlantID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrPlantNotFound, item.PlantID)
		}
		line := entity.PlantOrderItem{
			PlantID:   plant.ID,
			Name:      plant.Name,
			UnitPrice: plant.Price,
			Quantity:  item.Quantity,
		}
		total = total.Add(line.LineTotal())
		items = append(items, line)
	}

	recipient := strings.TrimSpace(req.RecipientPerson)
	if recipient == "" {
		recipient = req.FullName
	}

	booking := &entity.Booking{
		EntityID:       items[0].PlantID,
		ExperienceType: experienceTypePlants,
		Date:           entity.DayKey(deliveryDay),
		Amount:         total,
		TotalPrice:     total,
		PaymentAmount:  entity.PaymentAmountFull,
		PaymentMethod:  req.PaymentMethod,
		PaymentStatus:  entity.PaymentStatusPending,
		BookingStatus:  entity.BookingStatusConfirmed,
	}
	if err := booking.SetDetails(entity.PlantOrderDetails{
		RecipientPerson: recipient,
		DeliveryAddress: req.DeliveryAddress,
		OrderItems:      items,
	}); err != nil {
		return nil, err
	}

	return u.create(ctx, &bookingPlan{
		customer:    customer{name: req.FullName, phone: phone, email: req.Email},
		bookings:    []*entity.Booking{booking},
		description: "Plant order",
		linkAmount:  total,
	})
}

// create persists the planned bookings, then attaches a payment link and
// queues notifications. Only the persist step can fail the request.
func (u *bookingFactory) create(ctx context.Context, plan *bookingPlan) (*dto.CreateBookingResponse, error) {
	if err := u.persist(ctx, plan); err != nil {
		return nil, err
	}

	response := &dto.CreateBookingResponse{}

	reference := plan.bookings[0].ID.String()
	if plan.fanOut && plan.bookings[0].OrderID != nil {
		reference = *plan.bookings[0].OrderID
	}

	link := u.gateway.GenerateLink(ctx, paymentgateway.LinkRequest{
		Email:       plan.customer.email,
		Name:        plan.bookings[0].UserName,
		Mobile:      plan.customer.phone,
		Description: plan.description,
		Reference:   reference,
		Amount:      plan.linkAmount,
	})

	if err := u.attachPaymentLink(ctx, plan, link.Reference); err != nil {
		u.log.WithField("reference", reference).Errorf("Failed to attach payment link to bookings: %+v", err)
		response.Message = MessageContactSupport
	} else {
		response.Payment = converter.PaymentLinkToResponse(link)
	}

	for _, b := range plan.bookings {
		response.Bookings = append(response.Bookings, *converter.BookingToResponse(b))
	}

	u.notify(ctx, plan.bookings)

	u.log.Infof("Bookings created: variant=%s, count=%d, reference=%s, sandbox=%t",
		plan.bookings[0].Variant, len(plan.bookings), reference, link.Sandbox)
	return response, nil
}

func (u *bookingFactory) persist(ctx context.Context, plan *bookingPlan) error {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	user, err := u.resolveUser(ctx, tx, plan.customer)
	if err != nil {
		return err
	}

	var slots []entity.Slot
	for _, b := range plan.bookings {
		b.UserID = user.ID
		b.UserName = user.FullName
		b.UserPhone = plan.customer.phone
		b.UserEmail = plan.customer.email
		if b.UserEmail == "" {
			b.UserEmail = user.Email
		}
		slots = append(slots, entity.SlotsFor(b)...)
	}

	conflicts, err := u.guard.Check(tx, slots)
	if err != nil {
		u.log.Warnf("Failed to check booking conflicts: %+v", err)
		return err
	}
	if len(conflicts) > 0 {
		return &SlotConflictError{Slot: conflicts[0]}
	}

	for _, b := range plan.bookings {
		if err := u.bookingRepo.Create(tx, b); err != nil {
			u.log.Warnf("Failed to create booking: %+v", err)
			return err
		}

		if plan.fanOut {
			if err := b.AssignOrderID(u.now()); err != nil {
				return err
			}
			if err := u.bookingRepo.Save(tx, b); err != nil {
				u.log.Warnf("Failed to save order id of booking %s: %+v", b.ID, err)
				return err
			}
		}

		if err := u.guard.Reserve(tx, b.ID, entity.SlotsFor(b)); err != nil {
			if !errors.Is(err, ErrSlotConflict) {
				u.log.Warnf("Failed to reserve slots of booking %s: %+v", b.ID, err)
			}
			return err
		}
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed to commit transaction: %+v", err)
		return err
	}
	return nil
}

// resolveUser prefers the authenticated user, otherwise finds or creates one by phone.
func (u *bookingFactory) resolveUser(ctx context.Context, tx *gorm.DB, c customer) (*entity.User, error) {
	if userID, ok := middleware.GetUserIDFromContext(ctx); ok {
		user, err := u.userRepo.FindByID(tx, userID)
		if err != nil {
			u.log.Warnf("Failed to find session user %s: %+v", userID, err)
			return nil, err
		}
		if user != nil {
			return user, nil
		}
	}

	if c.phone == "" {
		return nil, newValidationError("phone", "is required")
	}

	name := strings.TrimSpace(c.name)
	if name == "" {
		name = placeholderName(c.phone)
	}

	user, err := u.userRepo.UpsertByPhone(tx, &entity.User{
		RoleID:   entity.RoleIDCustomer,
		Phone:    c.phone,
		Email:    c.email,
		FullName: name,
	})
	if err != nil {
		u.log.Warnf("Failed to upsert user by phone: %+v", err)
		return nil, err
	}
	return user, nil
}

// attachPaymentLink stores the reference on every booking of the plan. On failure
// the in-memory bookings are left as they were persisted.
func (u *bookingFactory) attachPaymentLink(ctx context.Context, plan *bookingPlan, reference string) error {
	patched := make([]entity.Booking, len(plan.bookings))
	for i, b := range plan.bookings {
		patched[i] = *b
		patched[i].AttachPaymentLink(reference)
		if plan.fanOut {
			patched[i].TotalPrice = plan.linkAmount
		}
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	for i := range patched {
		if err := u.bookingRepo.Save(tx, &patched[i]); err != nil {
			return err
		}
	}
	if err := tx.Commit().Error; err != nil {
		return err
	}

	for i, b := range plan.bookings {
		*b = patched[i]
	}
	return nil
}

func (u *bookingFactory) notify(ctx context.Context, bookings []*entity.Booking) {
	if err := u.notifier.SendBookingConfirmation(ctx, bookings[0]); err != nil {
		u.log.Warnf("Failed to queue booking confirmation: %+v", err)
	}
	for _, b := range bookings {
		if err := u.notifier.NotifyAdminNewBooking(ctx, b); err != nil {
			u.log.Warnf("Failed to queue admin notification for booking %s: %+v", b.ID, err)
		}
	}
}

func placeholderName(phone string) string {
	digits := phone
	if len(digits) > 4 {
		digits = digits[len(digits)-4:]
	}
	return "Guest " + digits
}

// isStaff reports whether the caller may price a booking by hand.
func isStaff(ctx context.Context) bool {
	roleID, ok := middleware.GetRoleIDFromContext(ctx)
	return ok && (roleID == entity.RoleIDAdmin || roleID == entity.RoleIDStaff)
}

package usecase

import (
	"context"
	"errors"
	"time"

	"dirwa-booking/internal/converter"
	"dirwa-booking/internal/delivery/dto"
	"dirwa-booking/internal/delivery/http/middleware"
	"dirwa-booking/internal/domain/entity"
	"dirwa-booking/internal/domain/repository"
	"dirwa-booking/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const monthLayout = "2006-01"

// StayQuote is the price of a set of calendar days.
type StayQuote struct {
	Days  []string
	Total decimal.Decimal
}

type CalendarUsecase interface {
	GetOrCreate(ctx context.Context, entityID uuid.UUID) (*entity.Calendar, error)
	GetCalendar(ctx context.Context, entityID uuid.UUID, month string) (*dto.CalendarResponse, error)
	CheckDate(ctx context.Context, entityID uuid.UUID, date string) (*dto.DateCheckResponse, error)
	CreateCalendar(ctx context.Context, req *dto.CreateCalendarRequest) (*dto.CalendarResponse, error)
	UpdatePrices(ctx context.Context, calendarID uuid.UUID, req *dto.UpdateCalendarPricesRequest) (*dto.CalendarResponse, error)
	AddDisabledDate(ctx context.Context, calendarID uuid.UUID, req *dto.AddDisabledDateRequest) (*dto.CalendarResponse, error)
	RemoveDisabledDate(ctx context.Context, calendarID, dateID uuid.UUID) (*dto.CalendarResponse, error)
	QuoteStay(ctx context.Context, entityID uuid.UUID, days []string) (*StayQuote, error)
}

type calendarUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	loc          *time.Location
	now          func() time.Time
	calendarRepo repository.CalendarRepository
	catalogRepo  repository.CatalogRepository
	cache        service.CalendarCache
	auditService service.AuditService
}

func NewCalendarUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	loc *time.Location,
	calendarRepo repository.CalendarRepository,
	catalogRepo repository.CatalogRepository,
	cache service.CalendarCache,
	auditService service.AuditService,
) CalendarUsecase {
	if loc == nil {
		loc = time.UTC
	}
	if cache == nil {
		cache = service.NoopCalendarCache{}
	}
	return &calendarUsecase{
		db:           db,
		log:          log,
		loc:          loc,
		now:          time.Now,
		calendarRepo: calendarRepo,
		catalogRepo:  catalogRepo,
		cache:        cache,
		auditService: auditService,
	}
}

// GetOrCreate returns the active calendar of an entity, creating it with default
// prices on first read. Calendars of rests are seeded from the rest's prices.
func (u *calendarUsecase) GetOrCreate(ctx context.Context, entityID uuid.UUID) (*entity.Calendar, error) {
	if calendar, ok := u.cache.Get(ctx, entityID); ok {
		return calendar, nil
	}

	db := u.db.WithContext(ctx)
	calendar, err := u.calendarRepo.FindActiveByEntity(db, entityID)
	if err != nil {
		u.log.Warnf("Failed to find calendar for entity %s: %+v", entityID, err)
		return nil, err
	}

	if calendar == nil {
		calendar, err = u.createDefault(db, entityID)
		if err != nil {
			return nil, err
		}
	}

	u.cache.Set(ctx, calendar)
	return calendar, nil
}

func (u *calendarUsecase) createDefault(db *gorm.DB, entityID uuid.UUID) (*entity.Calendar, error) {
	calendar := entity.NewDefaultCalendar(entityID)

	rest, err := u.catalogRepo.FindRest(db, entityID)
	if err != nil {
		u.log.Warnf("Failed to find rest %s: %+v", entityID, err)
		return nil, err
	}
	if rest != nil {
		calendar.BasePrice = rest.BasePrice
		calendar.WeekendPrice = rest.WeekendPrice()
	}

	if err := u.calendarRepo.Create(db, calendar); err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			u.log.Warnf("Failed to create calendar for entity %s: %+v", entityID, err)
			return nil, err
		}

		// a concurrent first read created it
		existing, findErr := u.calendarRepo.FindActiveByEntity(db, entityID)
		if findErr != nil {
			u.log.Warnf("Failed to reload calendar for entity %s: %+v", entityID, findErr)
			return nil, findErr
		}
		if existing == nil {
			return nil, err
		}
		return existing, nil
	}

	u.log.Infof("Calendar created lazily: entity=%s, base=%s, weekend=%s", entityID, calendar.BasePrice, calendar.WeekendPrice)
	return calendar, nil
}

// GetCalendar returns the calendar with one entry per day of month (YYYY-MM).
// An empty month means the current month.
func (u *calendarUsecase) GetCalendar(ctx context.Context, entityID uuid.UUID, month string) (*dto.CalendarResponse, error) {
	var first time.Time
	if month == "" {
		now := u.now().In(u.loc)
		first = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, u.loc)
	} else {
		parsed, err := time.ParseInLocation(monthLayout, month, u.loc)
		if err != nil {
			return nil, newValidationError("month", "must be formatted as YYYY-MM")
		}
		first = parsed
	}

	calendar, err := u.GetOrCreate(ctx, entityID)
	if err != nil {
		return nil, err
	}

	response := converter.CalendarToResponse(calendar)
	response.Month = first.Format(monthLayout)
	for day := first; day.Month() == first.Month(); day = day.AddDate(0, 0, 1) {
		entry := dto.CalendarDayResponse{
			Date:        entity.DayKey(day),
			Price:       calendar.DayPrice(day),
			Available:   calendar.IsAvailable(day),
			Weekend:     entity.IsWeekend(day),
			CustomPrice: calendar.HasCustomPrice(day),
		}
		if disabled := calendar.FindDisabledDate(entry.Date); disabled != nil {
			entry.Reason = disabled.Reason
		}
		response.Days = append(response.Days, entry)
	}

	return response, nil
}

func (u *calendarUsecase) CheckDate(ctx context.Context, entityID uuid.UUID, date string) (*dto.DateCheckResponse, error) {
	day, err := entity.ParseDay(date, u.loc)
	if err != nil {
		return nil, newValidationError("date", "must be formatted as YYYY-MM-DD")
	}

	calendar, err := u.GetOrCreate(ctx, entityID)
	if err != nil {
		return nil, err
	}

	response := &dto.DateCheckResponse{
		Date:      entity.DayKey(day),
		Available: calendar.IsAvailable(day),
		Price:     calendar.DayPrice(day),
		Weekend:   entity.IsWeekend(day),
	}
	if disabled := calendar.FindDisabledDate(response.Date); disabled != nil {
		response.Reason = disabled.Reason
		response.Description = disabled.Description
	}
	return response, nil
}

func (u *calendarUsecase) CreateCalendar(ctx context.Context, req *dto.CreateCalendarRequest) (*dto.CalendarResponse, error) {
	calendar := entity.NewDefaultCalendar(req.EntityID)
	if req.BasePrice != nil {
		calendar.BasePrice = *req.BasePrice
	}
	if req.WeekendPrice != nil {
		calendar.WeekendPrice = *req.WeekendPrice
	}
	if calendar.BasePrice.IsNegative() {
		return nil, newValidationError("basePrice", "must not be negative")
	}
	if calendar.WeekendPrice.IsNegative() {
		return nil, newValidationError("weekendPrice", "must not be negative")
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	existing, err := u.calendarRepo.FindActiveByEntity(tx, req.EntityID)
	if err != nil {
		u.log.Warnf("Failed to find calendar for entity %s: %+v", req.EntityID, err)
		return nil, err
	}
	if existing != nil {
		return nil, ErrCalendarExists
	}

	if err := u.calendarRepo.Create(tx, calendar); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCalendarExists
		}
		u.log.Warnf("Failed to create calendar: %+v", err)
		return nil, err
	}

	if err := u.auditService.LogCreate(ctx, tx, middleware.GetActorFromContext(ctx), entity.AuditActionCalendarCreate, "calendar", calendar.ID.String(), calendar); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed to commit transaction: %+v", err)
		return nil, err
	}

	u.cache.Invalidate(ctx, calendar.EntityID)
	return converter.CalendarToResponse(calendar), nil
}

// UpdatePrices changes base/weekend prices and upserts per-day overrides.
// An override with a null price is removed.
func (u *calendarUsecase) UpdatePrices(ctx context.Context, calendarID uuid.UUID, req *dto.UpdateCalendarPricesRequest) (*dto.CalendarResponse, error) {
	if req.BasePrice != nil && req.BasePrice.IsNegative() {
		return nil, newValidationError("basePrice", "must not be negative")
	}
	if req.WeekendPrice != nil && req.WeekendPrice.IsNegative() {
		return nil, newValidationError("weekendPrice", "must not be negative")
	}

	overrides := make([]dto.CustomPriceRequest, 0, len(req.CustomPrices))
	for _, cp := range req.CustomPrices {
		day, err := entity.ParseDay(cp.Date, u.loc)
		if err != nil {
			return nil, newValidationError("customPrices.date", "must be formatted as YYYY-MM-DD")
		}
		if cp.Price != nil && cp.Price.IsNegative() {
			return nil, newValidationError("customPrices.price", "must not be negative")
		}
		overrides = append(overrides, dto.CustomPriceRequest{Date: entity.DayKey(day), Price: cp.Price})
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	calendar, err := u.calendarRepo.FindByID(tx, calendarID)
	if err != nil {
		u.log.Warnf("Failed to find calendar %s: %+v", calendarID, err)
		return nil, err
	}
	if calendar == nil {
		return nil, ErrCalendarNotFound
	}
	old := *calendar

	if req.BasePrice != nil {
		calendar.BasePrice = *req.BasePrice
	}
	if req.WeekendPrice != nil {
		calendar.WeekendPrice = *req.WeekendPrice
	}
	if err := u.calendarRepo.UpdatePrices(tx, calendar); err != nil {
		u.log.Warnf("Failed to update calendar prices: %+v", err)
		return nil, err
	}

	for _, cp := range overrides {
		if cp.Price == nil {
			err = u.calendarRepo.DeleteCustomPrice(tx, calendar.ID, cp.Date)
		} else {
			err = u.calendarRepo.UpsertCustomPrice(tx, &entity.CalendarCustomPrice{
				CalendarID: calendar.ID,
				Date:       cp.Date,
				Price:      *cp.Price,
			})
		}
		if err != nil {
			u.log.Warnf("Failed to update custom price for %s: %+v", cp.Date, err)
			return nil, err
		}
	}

	if err := u.auditService.LogUpdate(ctx, tx, middleware.GetActorFromContext(ctx), entity.AuditActionCalendarPrices, "calendar", calendar.ID.String(), old, req); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed to commit transaction: %+v", err)
		return nil, err
	}

	return u.reload(ctx, calendar)
}

func (u *calendarUsecase) AddDisabledDate(ctx context.Context, calendarID uuid.UUID, req *dto.AddDisabledDateRequest) (*dto.CalendarResponse, error) {
	day, err := entity.ParseDay(req.Date, u.loc)
	if err != nil {
		return nil, newValidationError("date", "must be formatted as YYYY-MM-DD")
	}
	key := entity.DayKey(day)

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	calendar, err := u.calendarRepo.FindByID(tx, calendarID)
	if err != nil {
		u.log.Warnf("Failed to find calendar %s: %+v", calendarID, err)
		return nil, err
	}
	if calendar == nil {
		return nil, ErrCalendarNotFound
	}
	if calendar.FindDisabledDate(key) != nil {
		return nil, ErrDateAlreadyDisabled
	}

	disabled := &entity.CalendarDisabledDate{
		CalendarID:  calendar.ID,
		Date:        key,
		Reason:      req.Reason,
		Description: req.Description,
	}
	if err := u.calendarRepo.AddDisabledDate(tx, disabled); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDateAlreadyDisabled
		}
		u.log.Warnf("Failed to add disabled date: %+v", err)
		return nil, err
	}

	if err := u.auditService.LogCreate(ctx, tx, middleware.GetActorFromContext(ctx), entity.AuditActionCalendarDisable, "calendar_disabled_date", disabled.ID.String(), disabled); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed to commit transaction: %+v", err)
		return nil, err
	}

	return u.reload(ctx, calendar)
}

// RemoveDisabledDate succeeds even when the entry is already gone.
func (u *calendarUsecase) RemoveDisabledDate(ctx context.Context, calendarID, dateID uuid.UUID) (*dto.CalendarResponse, error) {
	db := u.db.WithContext(ctx)

	calendar, err := u.calendarRepo.FindByID(db, calendarID)
	if err != nil {
		u.log.Warnf("Failed to find calendar %s: %+v", calendarID, err)
		return nil, err
	}
	if calendar == nil {
		return nil, ErrCalendarNotFound
	}

	rows, err := u.calendarRepo.RemoveDisabledDate(db, calendar.ID, dateID)
	if err != nil {
		u.log.Warnf("Failed to remove disabled date %s: %+v", dateID, err)
		return nil, err
	}
	if rows == 0 {
		u.log.Debugf("Disabled date %s already absent from calendar %s", dateID, calendarID)
	}

	return u.reload(ctx, calendar)
}

// QuoteStay sums the day prices of the requested days after checking that
// none of them is disabled. Days are returned normalized, in request order.
func (u *calendarUsecase) QuoteStay(ctx context.Context, entityID uuid.UUID, days []string) (*StayQuote, error) {
	if len(days) == 0 {
		return nil, newValidationError("checkIn", "at least one date is required")
	}

	parsed := make([]time.Time, 0, len(days))
	seen := make(map[string]struct{}, len(days))
	for _, d := range days {
		day, err := entity.ParseDay(d, u.loc)
		if err != nil {
			return nil, newValidationError("checkIn", "%q is not a valid date", d)
		}
		key := entity.DayKey(day)
		if _, dup := seen[key]; dup {
			return nil, newValidationError("checkIn", "date %s is listed twice", key)
		}
		seen[key] = struct{}{}
		parsed = append(parsed, day)
	}

	calendar, err := u.GetOrCreate(ctx, entityID)
	if err != nil {
		return nil, err
	}

	quote := &StayQuote{Total: decimal.Zero}
	for _, day := range parsed {
		key := entity.DayKey(day)
		if disabled := calendar.FindDisabledDate(key); disabled != nil {
			return nil, &DisabledDateError{Date: key, Reason: disabled.Reason}
		}
		quote.Days = append(quote.Days, key)
		quote.Total = quote.Total.Add(calendar.DayPrice(day))
	}
	return quote, nil
}

// reload drops the cached copy and returns the stored calendar.
func (u *calendarUsecase) reload(ctx context.Context, calendar *entity.Calendar) (*dto.CalendarResponse, error) {
	u.cache.Invalidate(ctx, calendar.EntityID)

	fresh, err := u.calendarRepo.FindByID(u.db.WithContext(ctx), calendar.ID)
	if err != nil {
		u.log.Warnf("Failed to reload calendar %s: %+v", calendar.ID, err)
		return nil, err
	}
	if fresh == nil {
		return nil, ErrCalendarNotFound
	}
	return converter.CalendarToResponse(fresh), nil
}

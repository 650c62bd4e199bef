package usecase

import (
	"context"
	"encoding/json"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"dirwa-booking/internal/domain/entity"
	"dirwa-booking/internal/domain/repository"
	"dirwa-booking/pkg/paymentgateway"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

var riyadh = time.FixedZone("AST", 3*60*60)

// =============================================================================
// Repositories
// =============================================================================

type fakeUserRepo struct {
	mu      sync.Mutex
	byPhone map[string]entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byPhone: make(map[string]entity.User)}
}

func (r *fakeUserRepo) FindByID(_ *gorm.DB, id uuid.UUID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byPhone {
		if u.ID == id {
			user := u
			return &user, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByPhone(_ *gorm.DB, phone string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byPhone[phone]; ok {
		return &u, nil
	}
	return nil, nil
}

func (r *fakeUserRepo) UpsertByPhone(_ *gorm.DB, user *entity.User) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byPhone[user.Phone]; ok {
		return &u, nil
	}
	stored := *user
	stored.ID = uuid.New()
	r.byPhone[stored.Phone] = stored
	return &stored, nil
}

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]entity.Booking
	saves    int
	saveErr  error
	finance  []repository.FinanceRow
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]entity.Booking)}
}

func (r *fakeBookingRepo) put(b entity.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[b.ID] = b
}

func (r *fakeBookingRepo) get(id uuid.UUID) entity.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bookings[id]
}

func (r *fakeBookingRepo) Create(_ *gorm.DB, booking *entity.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	booking.CreatedAt = time.Now()
	r.bookings[booking.ID] = *booking
	return nil
}

func (r *fakeBookingRepo) Save(_ *gorm.DB, booking *entity.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	r.bookings[booking.ID] = *booking
	return nil
}

func (r *fakeBookingRepo) FindByID(_ *gorm.DB, id uuid.UUID) (*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.bookings[id]; ok {
		return &b, nil
	}
	return nil, nil
}

func (r *fakeBookingRepo) FindByReference(_ *gorm.DB, reference string) ([]entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Booking
	for _, b := range r.bookings {
		if b.Reference() == reference {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (r *fakeBookingRepo) FindAll(_ *gorm.DB, filter repository.BookingFilter, limit, offset int) ([]entity.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Booking
	for _, b := range r.bookings {
		if filter.Variant != "" && b.Variant != filter.Variant {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	total := int64(len(out))
	if offset >= len(out) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], total, nil
}

func (r *fakeBookingRepo) CancelBooking(_ *gorm.DB, id uuid.UUID, reason string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.IsCancelled() {
		return 0, nil
	}
	b.Cancel(reason)
	r.bookings[id] = b
	return 1, nil
}

func (r *fakeBookingRepo) Delete(_ *gorm.DB, id uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[id]; !ok {
		return 0, nil
	}
	delete(r.bookings, id)
	return 1, nil
}

func (r *fakeBookingRepo) Finance(_ *gorm.DB, _, _ string) ([]repository.FinanceRow, error) {
	return r.finance, nil
}

// fakeSlotRepo enforces the unique slot index the way the database does.
type fakeSlotRepo struct {
	mu    sync.Mutex
	slots map[entity.Slot]uuid.UUID
	// hideActive makes FindActive report nothing, as if a concurrent
	// transaction had not committed yet.
	hideActive bool
	releases   int
}

func newFakeSlotRepo() *fakeSlotRepo {
	return &fakeSlotRepo{slots: make(map[entity.Slot]uuid.UUID)}
}

func (r *fakeSlotRepo) FindActive(_ *gorm.DB, slots []entity.Slot) ([]entity.BookingSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hideActive {
		return nil, nil
	}
	var out []entity.BookingSlot
	for _, s := range slots {
		if id, ok := r.slots[s]; ok {
			out = append(out, entity.BookingSlot{BookingID: id, EntityID: s.EntityID, Date: s.Date, TimeSlot: s.TimeSlot})
		}
	}
	return out, nil
}

func (r *fakeSlotRepo) CreateBatch(_ *gorm.DB, rows []entity.BookingSlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range rows {
		if _, ok := r.slots[entity.Slot{EntityID: row.EntityID, Date: row.Date, TimeSlot: row.TimeSlot}]; ok {
			return gorm.ErrDuplicatedKey
		}
	}
	for _, row := range rows {
		r.slots[entity.Slot{EntityID: row.EntityID, Date: row.Date, TimeSlot: row.TimeSlot}] = row.BookingID
	}
	return nil
}

func (r *fakeSlotRepo) DeleteByBooking(_ *gorm.DB, bookingID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.releases++
	var n int64
	for s, id := range r.slots {
		if id == bookingID {
			delete(r.slots, s)
			n++
		}
	}
	return n, nil
}

func (r *fakeSlotRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}

type fakeCalendarRepo struct {
	mu        sync.Mutex
	calendars map[uuid.UUID]*entity.Calendar
	creates   int
}

func newFakeCalendarRepo() *fakeCalendarRepo {
	return &fakeCalendarRepo{calendars: make(map[uuid.UUID]*entity.Calendar)}
}

func (r *fakeCalendarRepo) clone(c *entity.Calendar) *entity.Calendar {
	out := *c
	out.DisabledDates = append([]entity.CalendarDisabledDate(nil), c.DisabledDates...)
	out.CustomPrices = append([]entity.CalendarCustomPrice(nil), c.CustomPrices...)
	return &out
}

func (r *fakeCalendarRepo) Create(_ *gorm.DB, calendar *entity.Calendar) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.calendars {
		if c.EntityID == calendar.EntityID && c.IsActive {
			return gorm.ErrDuplicatedKey
		}
	}
	calendar.ID = uuid.New()
	r.creates++
	r.calendars[calendar.ID] = r.clone(calendar)
	return nil
}

func (r *fakeCalendarRepo) FindByID(_ *gorm.DB, id uuid.UUID) (*entity.Calendar, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.calendars[id]; ok {
		return r.clone(c), nil
	}
	return nil, nil
}

func (r *fakeCalendarRepo) FindActiveByEntity(_ *gorm.DB, entityID uuid.UUID) (*entity.Calendar, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.calendars {
		if c.EntityID == entityID && c.IsActive {
			return r.clone(c), nil
		}
	}
	return nil, nil
}

func (r *fakeCalendarRepo) UpdatePrices(_ *gorm.DB, calendar *entity.Calendar) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.calendars[calendar.ID]
	c.BasePrice = calendar.BasePrice
	c.WeekendPrice = calendar.WeekendPrice
	return nil
}

func (r *fakeCalendarRepo) UpsertCustomPrice(_ *gorm.DB, price *entity.CalendarCustomPrice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.calendars[price.CalendarID]
	for i := range c.CustomPrices {
		if c.CustomPrices[i].Date == price.Date {
			c.CustomPrices[i].Price = price.Price
			return nil
		}
	}
	price.ID = uuid.New()
	c.CustomPrices = append(c.CustomPrices, *price)
	return nil
}

func (r *fakeCalendarRepo) DeleteCustomPrice(_ *gorm.DB, calendarID uuid.UUID, date string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.calendars[calendarID]
	kept := c.CustomPrices[:0]
	for _, cp := range c.CustomPrices {
		if cp.Date != date {
			kept = append(kept, cp)
		}
	}
	c.CustomPrices = kept
	return nil
}

func (r *fakeCalendarRepo) AddDisabledDate(_ *gorm.DB, date *entity.CalendarDisabledDate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.calendars[date.CalendarID]
	for _, d := range c.DisabledDates {
		if d.Date == date.Date {
			return gorm.ErrDuplicatedKey
		}
	}
	date.ID = uuid.New()
	c.DisabledDates = append(c.DisabledDates, *date)
	return nil
}

func (r *fakeCalendarRepo) RemoveDisabledDate(_ *gorm.DB, calendarID, dateID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.calendars[calendarID]
	for i, d := range c.DisabledDates {
		if d.ID == dateID {
			c.DisabledDates = append(c.DisabledDates[:i], c.DisabledDates[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

type fakeCatalogRepo struct {
	experiences map[uuid.UUID]entity.Experience
	rests       map[uuid.UUID]entity.Rest
	categories  map[uuid.UUID]entity.TrainingCategory
	plants      map[uuid.UUID]entity.Plant
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		experiences: make(map[uuid.UUID]entity.Experience),
		rests:       make(map[uuid.UUID]entity.Rest),
		categories:  make(map[uuid.UUID]entity.TrainingCategory),
		plants:      make(map[uuid.UUID]entity.Plant),
	}
}

func (r *fakeCatalogRepo) FindExperience(_ *gorm.DB, id uuid.UUID) (*entity.Experience, error) {
	if e, ok := r.experiences[id]; ok {
		return &e, nil
	}
	return nil, nil
}

func (r *fakeCatalogRepo) FindRest(_ *gorm.DB, id uuid.UUID) (*entity.Rest, error) {
	if e, ok := r.rests[id]; ok {
		return &e, nil
	}
	return nil, nil
}

func (r *fakeCatalogRepo) FindTrainingCategory(_ *gorm.DB, id uuid.UUID) (*entity.TrainingCategory, error) {
	if e, ok := r.categories[id]; ok {
		return &e, nil
	}
	return nil, nil
}

func (r *fakeCatalogRepo) FindPlants(_ *gorm.DB, ids []uuid.UUID) ([]entity.Plant, error) {
	var out []entity.Plant
	for _, id := range ids {
		if p, ok := r.plants[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeAuditRepo struct {
	mu   sync.Mutex
	logs []entity.AuditLog
}

func (r *fakeAuditRepo) Create(_ *gorm.DB, log *entity.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	log.ID = int64(len(r.logs) + 1)
	r.logs = append(r.logs, *log)
	return nil
}

func (r *fakeAuditRepo) FindByID(_ *gorm.DB, id int64) (*entity.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.logs {
		if l.ID == id {
			return &l, nil
		}
	}
	return nil, nil
}

func (r *fakeAuditRepo) FindAll(_ *gorm.DB, limit, offset int) ([]entity.AuditLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := int64(len(r.logs))
	if offset >= len(r.logs) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(r.logs) {
		end = len(r.logs)
	}
	return r.logs[offset:end], total, nil
}

func (r *fakeAuditRepo) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.logs))
	for i, l := range r.logs {
		out[i] = l.Action
	}
	return out
}

// =============================================================================
// Collaborators
// =============================================================================

type fakeGateway struct {
	mu           sync.Mutex
	links        []paymentgateway.LinkRequest
	verification *paymentgateway.Verification
	verifyErr    error
	verifyCalls  int
	channels     json.RawMessage
	refund       *paymentgateway.RefundResult
	refundErr    error
}

func (g *fakeGateway) GenerateLink(_ context.Context, req paymentgateway.LinkRequest) paymentgateway.PaymentLink {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.links = append(g.links, req)
	return paymentgateway.PaymentLink{
		PaymentURL: "https://pay.example.com/" + req.Reference,
		Reference:  req.Reference,
		SessionID:  "session-1",
		UUID:       "uuid-1",
	}
}

func (g *fakeGateway) VerifyPaymentByReference(_ context.Context, reference string) (*paymentgateway.Verification, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verifyCalls++
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	v := *g.verification
	v.Reference = reference
	return &v, nil
}

func (g *fakeGateway) PaymentChannels(_ context.Context, _, _ string) (json.RawMessage, error) {
	return g.channels, nil
}

func (g *fakeGateway) Refund(_ context.Context, transactionID string, _ decimal.Decimal) (*paymentgateway.RefundResult, error) {
	if g.refundErr != nil {
		return nil, g.refundErr
	}
	return g.refund, nil
}

type recordingNotifier struct {
	mu            sync.Mutex
	confirmations []entity.Booking
	adminNew      []entity.Booking
	updates       [][2]entity.Booking
	cancellations []entity.Booking
}

func (n *recordingNotifier) SendBookingConfirmation(_ context.Context, b *entity.Booking) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmations = append(n.confirmations, *b)
	return nil
}

func (n *recordingNotifier) NotifyAdminNewBooking(_ context.Context, b *entity.Booking) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.adminNew = append(n.adminNew, *b)
	return nil
}

func (n *recordingNotifier) NotifyAdminUpdate(_ context.Context, oldB, newB *entity.Booking) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updates = append(n.updates, [2]entity.Booking{*oldB, *newB})
	return nil
}

func (n *recordingNotifier) NotifyAdminCancellation(_ context.Context, b *entity.Booking) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancellations = append(n.cancellations, *b)
	return nil
}

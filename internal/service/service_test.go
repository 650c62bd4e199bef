package service

import (
	"context"
	"testing"
	"time"

	"dirwa-booking/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeAuditRepo struct {
	logs []entity.AuditLog
}

func (r *fakeAuditRepo) Create(_ *gorm.DB, log *entity.AuditLog) error {
	r.logs = append(r.logs, *log)
	return nil
}

func (r *fakeAuditRepo) FindByID(_ *gorm.DB, _ int64) (*entity.AuditLog, error) {
	return nil, nil
}

func (r *fakeAuditRepo) FindAll(_ *gorm.DB, _, _ int) ([]entity.AuditLog, int64, error) {
	return r.logs, int64(len(r.logs)), nil
}

func TestAuditService_LogDelete(t *testing.T) {
	repo := &fakeAuditRepo{}
	svc := NewAuditService(quietLogger(), repo)
	actor := uuid.New()
	booking := sampleBooking()

	err := svc.LogDelete(context.Background(), nil, &actor,
		entity.AuditActionBookingDelete, "booking", booking.ID.String(), booking)
	require.NoError(t, err)

	require.Len(t, repo.logs, 1)
	entry := repo.logs[0]
	assert.Equal(t, entity.AuditActionBookingDelete, entry.Action)
	assert.Equal(t, &actor, entry.UserID)
	assert.Equal(t, "booking", entry.Metadata["entity"])
	assert.Equal(t, booking, entry.Metadata["old_value"])
	assert.Nil(t, entry.Metadata["new_value"])
}

func TestCalendarCacheKey(t *testing.T) {
	id := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	assert.Equal(t, "calendar:entity:11111111-2222-3333-4444-555555555555", CalendarCacheKey(id))
}

func TestRedisCalendarCache_UnavailableRedisIsAMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	cache := NewRedisCalendarCache(client, time.Minute, quietLogger())
	cal := entity.NewDefaultCalendar(uuid.New())

	cache.Set(context.Background(), cal)
	got, ok := cache.Get(context.Background(), cal.EntityID)
	assert.False(t, ok)
	assert.Nil(t, got)
	cache.Invalidate(context.Background(), cal.EntityID)
}

func TestNoopCalendarCache(t *testing.T) {
	var cache CalendarCache = NoopCalendarCache{}
	cal := entity.NewDefaultCalendar(uuid.New())

	cache.Set(context.Background(), cal)
	_, ok := cache.Get(context.Background(), cal.EntityID)
	assert.False(t, ok)
}

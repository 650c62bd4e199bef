package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"dirwa-booking/config"
	"dirwa-booking/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func sampleBooking() *entity.Booking {
	return &entity.Booking{
		ID:            uuid.MustParse("6f1c7a52-3b0e-4d59-9a1f-5c2d8ebc1234"),
		Variant:       entity.VariantRest,
		UserName:      "Noura",
		UserPhone:     "+966501234567",
		Date:          "2025-08-10",
		TotalPrice:    decimal.NewFromInt(3900),
		BookingStatus: entity.BookingStatusConfirmed,
		PaymentStatus: entity.PaymentStatusPending,
	}
}

func TestRelayNotifier_PostsJSON(t *testing.T) {
	var got Message
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	n := NewRelayNotifier(config.NotificationConfig{
		RelayURL:   server.URL,
		RelayToken: "relay-token",
		AdminPhone: "+966500000001",
	}, quietLogger())

	err := n.NotifyAdminNewBooking(context.Background(), sampleBooking())
	require.NoError(t, err)
	assert.Equal(t, "Bearer relay-token", auth)
	assert.Equal(t, "+966500000001", got.To)
	assert.Equal(t, KindAdminNewBooking, got.Kind)
	assert.Contains(t, got.Body, "3900.00")
}

func TestRelayNotifier_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	t.Run("Non 2xx", func(t *testing.T) {
		n := NewRelayNotifier(config.NotificationConfig{RelayURL: server.URL}, quietLogger())
		err := n.SendBookingConfirmation(context.Background(), sampleBooking())
		assert.Error(t, err)
	})

	t.Run("Missing admin recipient", func(t *testing.T) {
		n := NewRelayNotifier(config.NotificationConfig{RelayURL: server.URL}, quietLogger())
		err := n.NotifyAdminCancellation(context.Background(), sampleBooking())
		assert.ErrorContains(t, err, "no recipient")
	})
}

func TestAdminUpdateMessage_ListsChangedFieldsOnly(t *testing.T) {
	oldB := sampleBooking()
	newB := sampleBooking()
	newB.BookingStatus = entity.BookingStatusCancelled

	msg := adminUpdateMessage("+966500000001", oldB, newB)

	assert.Contains(t, msg.Body, "booking status: confirmed -> cancelled")
	assert.NotContains(t, msg.Body, "payment status")
	assert.NotContains(t, msg.Body, "date:")
}

type flakyNotifier struct {
	mu       sync.Mutex
	failures int
	calls    int32
	done     chan struct{}
}

func (f *flakyNotifier) SendBookingConfirmation(context.Context, *entity.Booking) error {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return errors.New("relay down")
	}
	close(f.done)
	return nil
}

func (f *flakyNotifier) NotifyAdminNewBooking(context.Context, *entity.Booking) error {
	atomic.AddInt32(&f.calls, 1)
	return errors.New("relay down")
}

func (f *flakyNotifier) NotifyAdminUpdate(context.Context, *entity.Booking, *entity.Booking) error {
	return nil
}

func (f *flakyNotifier) NotifyAdminCancellation(context.Context, *entity.Booking) error {
	return nil
}

func TestAsyncDispatcher_RetriesUntilSuccess(t *testing.T) {
	next := &flakyNotifier{failures: 2, done: make(chan struct{})}
	d := NewAsyncDispatcher(next, 2, 0, 3, quietLogger())
	d.backoff = time.Millisecond

	err := d.SendBookingConfirmation(context.Background(), sampleBooking())
	assert.NoError(t, err)

	select {
	case <-next.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notification was never delivered")
	}
	d.Drain()
	assert.Equal(t, int32(3), atomic.LoadInt32(&next.calls))
}

func TestAsyncDispatcher_FailuresAreSwallowed(t *testing.T) {
	next := &flakyNotifier{done: make(chan struct{})}
	d := NewAsyncDispatcher(next, 1, 0, 2, quietLogger())
	d.backoff = time.Millisecond

	err := d.NotifyAdminNewBooking(context.Background(), sampleBooking())
	assert.NoError(t, err)

	d.Drain()
	assert.Equal(t, int32(2), atomic.LoadInt32(&next.calls))

	// dropped after drain
	assert.NoError(t, d.NotifyAdminNewBooking(context.Background(), sampleBooking()))
	d.Drain()
	assert.Equal(t, int32(2), atomic.LoadInt32(&next.calls))
}

type stuckNotifier struct {
	release chan struct{}
	started chan struct{}
	calls   int32
}

func (s *stuckNotifier) SendBookingConfirmation(context.Context, *entity.Booking) error {
	return nil
}

func (s *stuckNotifier) NotifyAdminNewBooking(ctx context.Context, _ *entity.Booking) error {
	if atomic.AddInt32(&s.calls, 1) == 1 {
		close(s.started)
	}
	<-s.release
	return nil
}

func (s *stuckNotifier) NotifyAdminUpdate(context.Context, *entity.Booking, *entity.Booking) error {
	return nil
}

func (s *stuckNotifier) NotifyAdminCancellation(context.Context, *entity.Booking) error {
	return nil
}

func TestAsyncDispatcher_StuckRelayNeverBlocksCaller(t *testing.T) {
	next := &stuckNotifier{release: make(chan struct{}), started: make(chan struct{})}
	d := NewAsyncDispatcher(next, 1, 2, 1, quietLogger())

	require.NoError(t, d.NotifyAdminNewBooking(context.Background(), sampleBooking()))
	select {
	case <-next.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first notification never started")
	}

	// worker busy: two queue up, one sits in the feeder, the rest are dropped
	start := time.Now()
	for i := 0; i < 10; i++ {
		require.NoError(t, d.NotifyAdminNewBooking(context.Background(), sampleBooking()))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	close(next.release)
	d.Drain()
	calls := atomic.LoadInt32(&next.calls)
	assert.GreaterOrEqual(t, calls, int32(3))
	assert.Less(t, calls, int32(11))
}

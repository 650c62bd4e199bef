package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"dirwa-booking/config"
	"dirwa-booking/internal/domain/entity"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
)

// NotificationDispatcher sends booking notifications to customers and administrators.
type NotificationDispatcher interface {
	SendBookingConfirmation(ctx context.Context, booking *entity.Booking) error
	NotifyAdminNewBooking(ctx context.Context, booking *entity.Booking) error
	NotifyAdminUpdate(ctx context.Context, oldBooking, newBooking *entity.Booking) error
	NotifyAdminCancellation(ctx context.Context, booking *entity.Booking) error
}

// Message is one outbound text message.
type Message struct {
	To   string `json:"to"`
	Kind string `json:"kind"`
	Body string `json:"message"`
}

const (
	KindBookingConfirmation = "booking_confirmation"
	KindAdminNewBooking     = "admin_new_booking"
	KindAdminUpdate         = "admin_update"
	KindAdminCancellation   = "admin_cancellation"
)

func confirmationMessage(b *entity.Booking) Message {
	body := fmt.Sprintf("Hello %s, your booking for %s is received.", b.UserName, strings.Join(b.Dates(), ", "))
	if b.TimeSlot != "" {
		body += " Time: " + b.TimeSlot + "."
	}
	if b.OrderID != nil {
		body += " Order: " + *b.OrderID + "."
	}
	return Message{To: b.UserPhone, Kind: KindBookingConfirmation, Body: body}
}

func adminNewBookingMessage(admin string, b *entity.Booking) Message {
	return Message{
		To:   admin,
		Kind: KindAdminNewBooking,
		Body: fmt.Sprintf("New %s booking %s by %s (%s) on %s, total %s.",
			b.Variant, b.ID, b.UserName, b.UserPhone, strings.Join(b.Dates(), ", "), b.TotalPrice.StringFixed(2)),
	}
}

// adminUpdateMessage lists only the fields that changed.
func adminUpdateMessage(admin string, oldB, newB *entity.Booking) Message {
	var changes []string
	diff := func(field, before, after string) {
		if before != after {
			changes = append(changes, fmt.Sprintf("%s: %s -> %s", field, before, after))
		}
	}
	diff("date", strings.Join(oldB.Dates(), ","), strings.Join(newB.Dates(), ","))
	diff("time", oldB.TimeSlot, newB.TimeSlot)
	diff("booking status", string(oldB.BookingStatus), string(newB.BookingStatus))
	diff("payment status", string(oldB.PaymentStatus), string(newB.PaymentStatus))
	diff("total", oldB.TotalPrice.StringFixed(2), newB.TotalPrice.StringFixed(2))
	if len(changes) == 0 {
		changes = append(changes, "no visible changes")
	}
	return Message{
		To:   admin,
		Kind: KindAdminUpdate,
		Body: fmt.Sprintf("Booking %s updated. %s.", newB.ID, strings.Join(changes, "; ")),
	}
}

func adminCancellationMessage(admin string, b *entity.Booking) Message {
	return Message{
		To:   admin,
		Kind: KindAdminCancellation,
		Body: fmt.Sprintf("Booking %s by %s on %s was cancelled. Reason: %s",
			b.ID, b.UserName, strings.Join(b.Dates(), ", "), b.CancellationReason),
	}
}

// =============================================================================
// RelayNotifier
// =============================================================================

// RelayNotifier posts messages as JSON to an SMS/WhatsApp relay.
type RelayNotifier struct {
	url        string
	token      string
	adminPhone string
	client     *http.Client
	log        *logrus.Logger
}

func NewRelayNotifier(cfg config.NotificationConfig, log *logrus.Logger) *RelayNotifier {
	return &RelayNotifier{
		url:        cfg.RelayURL,
		token:      cfg.RelayToken,
		adminPhone: cfg.AdminPhone,
		client:     &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

func (n *RelayNotifier) SendBookingConfirmation(ctx context.Context, booking *entity.Booking) error {
	return n.send(ctx, confirmationMessage(booking))
}

func (n *RelayNotifier) NotifyAdminNewBooking(ctx context.Context, booking *entity.Booking) error {
	return n.send(ctx, adminNewBookingMessage(n.adminPhone, booking))
}

func (n *RelayNotifier) NotifyAdminUpdate(ctx context.Context, oldBooking, newBooking *entity.Booking) error {
	return n.send(ctx, adminUpdateMessage(n.adminPhone, oldBooking, newBooking))
}

func (n *RelayNotifier) NotifyAdminCancellation(ctx context.Context, booking *entity.Booking) error {
	return n.send(ctx, adminCancellationMessage(n.adminPhone, booking))
}

func (n *RelayNotifier) send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("%s: no recipient", msg.Kind)
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msg.Kind, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("relay %s: %w", msg.Kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("relay %s: unexpected status %d", msg.Kind, resp.StatusCode)
	}

	n.log.WithFields(logrus.Fields{"kind": msg.Kind, "to": msg.To}).Debug("Notification delivered")
	return nil
}

// =============================================================================
// LogNotifier
// =============================================================================

// LogNotifier writes messages to the log. Used when no relay is configured.
type LogNotifier struct {
	adminPhone string
	log        *logrus.Logger
}

func NewLogNotifier(adminPhone string, log *logrus.Logger) *LogNotifier {
	return &LogNotifier{adminPhone: adminPhone, log: log}
}

func (n *LogNotifier) SendBookingConfirmation(_ context.Context, booking *entity.Booking) error {
	n.write(confirmationMessage(booking))
	return nil
}

func (n *LogNotifier) NotifyAdminNewBooking(_ context.Context, booking *entity.Booking) error {
	n.write(adminNewBookingMessage(n.adminPhone, booking))
	return nil
}

func (n *LogNotifier) NotifyAdminUpdate(_ context.Context, oldBooking, newBooking *entity.Booking) error {
	n.write(adminUpdateMessage(n.adminPhone, oldBooking, newBooking))
	return nil
}

func (n *LogNotifier) NotifyAdminCancellation(_ context.Context, booking *entity.Booking) error {
	n.write(adminCancellationMessage(n.adminPhone, booking))
	return nil
}

func (n *LogNotifier) write(msg Message) {
	n.log.WithFields(logrus.Fields{"kind": msg.Kind, "to": msg.To}).Info(msg.Body)
}

// =============================================================================
// AsyncDispatcher
// =============================================================================

// AsyncDispatcher runs notifications as background tasks on a bounded worker pool.
// Every call returns immediately with a nil error. Sends wait in a bounded queue
// and are dropped with a warning when it is full, so a stuck relay never holds up
// the caller. Each send is attempted up to maxAttempts times and failures are
// only logged.
//
// Callers must dispatch after their transaction commits.
type AsyncDispatcher struct {
	next        NotificationDispatcher
	pool        *pool.Pool
	queue       chan func()
	fed         chan struct{}
	maxAttempts int
	backoff     time.Duration
	log         *logrus.Logger

	mu     sync.RWMutex
	closed bool
}

func NewAsyncDispatcher(next NotificationDispatcher, workers, queueSize, maxAttempts int, log *logrus.Logger) *AsyncDispatcher {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	d := &AsyncDispatcher{
		next:        next,
		pool:        pool.New().WithMaxGoroutines(workers),
		queue:       make(chan func(), queueSize),
		fed:         make(chan struct{}),
		maxAttempts: maxAttempts,
		backoff:     500 * time.Millisecond,
		log:         log,
	}
	go d.feed()
	return d
}

// feed hands queued sends to the pool. pool.Go blocks while every worker is
// busy, which is why it runs here and not in dispatch.
func (d *AsyncDispatcher) feed() {
	defer close(d.fed)
	for task := range d.queue {
		d.pool.Go(task)
	}
}

func (d *AsyncDispatcher) SendBookingConfirmation(_ context.Context, booking *entity.Booking) error {
	b := *booking
	d.dispatch(KindBookingConfirmation, func(ctx context.Context) error {
		return d.next.SendBookingConfirmation(ctx, &b)
	})
	return nil
}

func (d *AsyncDispatcher) NotifyAdminNewBooking(_ context.Context, booking *entity.Booking) error {
	b := *booking
	d.dispatch(KindAdminNewBooking, func(ctx context.Context) error {
		return d.next.NotifyAdminNewBooking(ctx, &b)
	})
	return nil
}

func (d *AsyncDispatcher) NotifyAdminUpdate(_ context.Context, oldBooking, newBooking *entity.Booking) error {
	o, n := *oldBooking, *newBooking
	d.dispatch(KindAdminUpdate, func(ctx context.Context) error {
		return d.next.NotifyAdminUpdate(ctx, &o, &n)
	})
	return nil
}

func (d *AsyncDispatcher) NotifyAdminCancellation(_ context.Context, booking *entity.Booking) error {
	b := *booking
	d.dispatch(KindAdminCancellation, func(ctx context.Context) error {
		return d.next.NotifyAdminCancellation(ctx, &b)
	})
	return nil
}

// Drain waits for queued notifications. Later dispatches are dropped.
// Safe to call multiple times.
func (d *AsyncDispatcher) Drain() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	<-d.fed
	d.pool.Wait()
	d.log.Info("Notification dispatcher drained")
}

func (d *AsyncDispatcher) dispatch(kind string, send func(ctx context.Context) error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.log.Warnf("Dropping %s notification: dispatcher is shut down", kind)
		return
	}

	task := func() {
		for attempt := 1; attempt <= d.maxAttempts; attempt++ {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			err := send(ctx)
			cancel()
			if err == nil {
				return
			}

			d.log.WithFields(logrus.Fields{
				"kind":    kind,
				"attempt": attempt,
			}).Warnf("Notification failed: %+v", err)

			if attempt < d.maxAttempts {
				time.Sleep(d.backoff * time.Duration(attempt))
			}
		}
		d.log.Errorf("Giving up on %s notification after %d attempts", kind, d.maxAttempts)
	}

	select {
	case d.queue <- task:
	default:
		d.log.Warnf("Dropping %s notification: queue is full", kind)
	}
}

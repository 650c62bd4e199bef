package http

import (
	"net/http"

	"dirwa-booking/internal/delivery/http/handler"
	"dirwa-booking/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router          *mux.Router
	bookingHandler  *handler.BookingHandler
	calendarHandler *handler.CalendarHandler
	paymentHandler  *handler.PaymentHandler
	auditLogHandler *handler.AuditLogHandler
	authMiddleware  *middleware.AuthMiddleware
	corsMiddleware  *middleware.CORSMiddleware
}

func NewRouter(
	bookingHandler *handler.BookingHandler,
	calendarHandler *handler.CalendarHandler,
	paymentHandler *handler.PaymentHandler,
	auditLogHandler *handler.AuditLogHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
) *Router {
	return &Router{
		router:          mux.NewRouter(),
		bookingHandler:  bookingHandler,
		calendarHandler: calendarHandler,
		paymentHandler:  paymentHandler,
		auditLogHandler: auditLogHandler,
		authMiddleware:  authMiddleware,
		corsMiddleware:  corsMiddleware,
	}
}

func (r *Router) Setup() *mux.Router {
	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Public and admin routes share paths, so middleware wraps each route
	// instead of splitting them into subrouters.
	optional := func(h http.HandlerFunc) http.Handler {
		return r.authMiddleware.OptionalAuthenticate(h)
	}
	authenticated := func(h http.HandlerFunc) http.Handler {
		return r.authMiddleware.Authenticate(h)
	}
	staff := func(h http.HandlerFunc) http.Handler {
		return r.authMiddleware.Authenticate(middleware.RequireStaff(h))
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return r.authMiddleware.Authenticate(middleware.RequireAdmin(h))
	}

	// Booking creation (public, session user is picked up when present)
	api.Handle("/bookings", optional(r.bookingHandler.CreateBooking)).Methods(http.MethodPost)
	api.Handle("/bookings/rest", optional(r.bookingHandler.CreateRestBooking)).Methods(http.MethodPost)
	api.Handle("/bookings/horse", optional(r.bookingHandler.CreateHorseTrainingBooking)).Methods(http.MethodPost)
	api.Handle("/bookings/plants", optional(r.bookingHandler.CreatePlantOrder)).Methods(http.MethodPost)

	api.Handle("/bookings/{id}/cancel", authenticated(r.bookingHandler.CancelBooking)).Methods(http.MethodPatch)

	// Booking management (staff read, admin write)
	api.Handle("/bookings", staff(r.bookingHandler.GetAllBookings)).Methods(http.MethodGet)
	api.Handle("/bookings/finance", staff(r.bookingHandler.GetFinance)).Methods(http.MethodGet)
	api.Handle("/bookings/{id}", staff(r.bookingHandler.GetBooking)).Methods(http.MethodGet)
	api.Handle("/bookings/{id}", admin(r.bookingHandler.UpdateBooking)).Methods(http.MethodPut)
	api.Handle("/bookings/{id}", admin(r.bookingHandler.DeleteBooking)).Methods(http.MethodDelete)

	// Calendar (public reads, admin writes)
	api.HandleFunc("/calendar/{entityId}", r.calendarHandler.GetCalendar).Methods(http.MethodGet)
	api.HandleFunc("/calendar/{entityId}/check-date/{date}", r.calendarHandler.CheckDate).Methods(http.MethodGet)
	api.Handle("/calendar", admin(r.calendarHandler.CreateCalendar)).Methods(http.MethodPost)
	api.Handle("/calendar/{id}/prices", admin(r.calendarHandler.UpdatePrices)).Methods(http.MethodPut)
	api.Handle("/calendar/{id}/disabled-dates", admin(r.calendarHandler.AddDisabledDate)).Methods(http.MethodPost)
	api.Handle("/calendar/{id}/disabled-dates/{dateId}", admin(r.calendarHandler.RemoveDisabledDate)).Methods(http.MethodDelete)

	// Payments
	api.HandleFunc("/payment/link", r.paymentHandler.CreatePaymentLink).Methods(http.MethodPost)
	api.HandleFunc("/payment/channels/{sessionId}/{uuid}", r.paymentHandler.GetPaymentChannels).Methods(http.MethodGet)
	api.HandleFunc("/payment/callback", r.paymentHandler.HandleCallback).Methods(http.MethodPost, http.MethodGet)
	api.HandleFunc("/payment/verify/{reference}", r.paymentHandler.VerifyPayment).Methods(http.MethodGet)
	api.Handle("/payment/order", admin(r.paymentHandler.CreateOrderPayment)).Methods(http.MethodPost)
	api.Handle("/payment/{paymentId}", admin(r.paymentHandler.GetPayment)).Methods(http.MethodGet)
	api.Handle("/payment/{paymentId}/refund", admin(r.paymentHandler.Refund)).Methods(http.MethodPost)

	// Audit logs (admin)
	api.Handle("/audit-logs", admin(r.auditLogHandler.GetAllAuditLogs)).Methods(http.MethodGet)
	api.Handle("/audit-logs/{id}", admin(r.auditLogHandler.GetAuditLog)).Methods(http.MethodGet)

	// Add CORS middleware
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type RouterConfig struct {
	Slots    SlotService
	Holds    HoldService
	Bookings BookingService
	PgPool   *pgxpool.Pool
	Redis    *redis.Client
	Env      string
	Version  string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	h := NewHandler(cfg.Slots, cfg.Holds, cfg.Bookings)

	r.Route("/slots", func(r chi.Router) {
		r.Get("/available", h.ListAvailableSlots)
		r.Post("/generate", h.GenerateSlots)
		r.Post("/{slotID}/hold", h.CreateHold)
		r.Delete("/{slotID}/hold/{token}", h.ReleaseHold)
	})

	r.Route("/bookings", func(r chi.Router) {
		r.Post("/", h.CreateBooking)
		r.Get("/number/{number}", h.GetBookingByNumber)
		r.Get("/doctor/{doctorID}", h.ListDoctorBookings)
		r.Get("/patient/{patientID}", h.ListPatientBookings)
		r.Get("/{bookingID}", h.GetBooking)
		r.Post("/{bookingID}/confirm", h.ConfirmBooking)
		r.Post("/{bookingID}/reject", h.RejectBooking)
		r.Post("/{bookingID}/cancel", h.CancelBooking)
		r.Post("/{bookingID}/complete", h.CompleteBooking)
	})

	r.Route("/requests", func(r chi.Router) {
		r.Post("/", h.CreateRequest)
		r.Get("/doctor/{doctorID}", h.ListDoctorRequests)
		r.Post("/{requestID}/accept", h.AcceptRequest)
		r.Post("/{requestID}/reject", h.RejectRequest)
	})

	return r
}

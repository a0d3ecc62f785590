package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/careslot/doctor-booking/internal/booking"
	"github.com/careslot/doctor-booking/internal/config"
	"github.com/careslot/doctor-booking/internal/db"
	"github.com/careslot/doctor-booking/internal/hold"
	"github.com/careslot/doctor-booking/internal/payment"
	redisclient "github.com/careslot/doctor-booking/internal/redis"
	"github.com/careslot/doctor-booking/internal/schedule"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("slot-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running slot worker in env=%s interval=%s window_days=%d",
		cfg.Env, cfg.WorkerInterval, cfg.SlotWindowDays)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}()
	log.Println("connected to Redis")

	scheduleRepo := schedule.NewPgRepository(pgPool)
	bookingRepo := booking.NewPgRepository(pgPool)

	holds := hold.NewManager(redisclient.NewExpiringStore(rdb), cfg.HoldTTL)
	resolver := schedule.NewResolver(scheduleRepo)
	materializer := schedule.NewMaterializer(scheduleRepo, resolver, holds)
	bookingSvc := booking.NewService(bookingRepo, holds, payment.Noop{}, cfg.RequestTTL)

	w := &worker{
		repo:         scheduleRepo,
		materializer: materializer,
		bookings:     bookingSvc,
		windowDays:   cfg.SlotWindowDays,
	}

	// Run once at startup
	w.runOnce(rootCtx)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Println("shutdown signal received, stopping slot worker")
			return
		case <-ticker.C:
			w.runOnce(rootCtx)
		}
	}
}

type worker struct {
	repo         schedule.Repository
	materializer *schedule.Materializer
	bookings     *booking.Service
	windowDays   int
}

// runOnce materializes the rolling slot window for every doctor and reaps
// expired pending requests.
func (w *worker) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	start := time.Now()

	doctorIDs, err := w.repo.ListDoctorIDs(runCtx)
	if err != nil {
		log.Printf("list doctors error: %v", err)
		return
	}

	today := schedule.DateOnly(time.Now().UTC())
	windowEnd := today.AddDate(0, 0, w.windowDays)

	generated := 0
	for _, doctorID := range doctorIDs {
		if err := w.materializer.GenerateRange(runCtx, doctorID, today, windowEnd); err != nil {
			log.Printf("generate slots error doctor_id=%s err=%v", doctorID, err)
			continue
		}
		generated++
	}

	if err := w.bookings.ExpireRequests(runCtx); err != nil {
		log.Printf("expire requests error: %v", err)
	}

	log.Printf("slot worker run complete doctors=%d/%d duration=%s",
		generated, len(doctorIDs), time.Since(start))
}

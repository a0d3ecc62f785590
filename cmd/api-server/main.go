package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/careslot/doctor-booking/internal/api"
	"github.com/careslot/doctor-booking/internal/booking"
	"github.com/careslot/doctor-booking/internal/config"
	"github.com/careslot/doctor-booking/internal/db"
	"github.com/careslot/doctor-booking/internal/hold"
	"github.com/careslot/doctor-booking/internal/payment"
	redisclient "github.com/careslot/doctor-booking/internal/redis"
	"github.com/careslot/doctor-booking/internal/schedule"
)

const version = "0.1.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running in env=%s http_port=%s", cfg.Env, cfg.HTTPPort)

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

	// Connect Redis
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

	holdStore := redisclient.NewExpiringStore(rdb)
	holds := hold.NewManager(holdStore, cfg.HoldTTL)

	resolver := schedule.NewResolver(scheduleRepo)
	materializer := schedule.NewMaterializer(scheduleRepo, resolver, holds)

	var payments booking.PaymentLinkCreator = payment.Noop{}
	if cfg.PaymentServiceURL != "" {
		payments = payment.NewClient(cfg.PaymentServiceURL)
		log.Printf("payment links enabled url=%s", cfg.PaymentServiceURL)
	}

	bookingSvc := booking.NewService(bookingRepo, holds, payments, cfg.RequestTTL)

	router := api.NewRouter(api.RouterConfig{
		Slots:    materializer,
		Holds:    holds,
		Bookings: bookingSvc,
		PgPool:   pgPool,
		Redis:    rdb,
		Env:      cfg.Env,
		Version:  version,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("listening on :%s", cfg.HTTPPort)
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	case <-rootCtx.Done():
		log.Println("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown error: %v", err)
	}

	log.Println("api-server stopped")
}

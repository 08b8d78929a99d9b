package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-seat-booking/internal/config"
	"github.com/iliyamo/cinema-seat-booking/internal/database"
	"github.com/iliyamo/cinema-seat-booking/internal/handler"
	"github.com/iliyamo/cinema-seat-booking/internal/logger"
	"github.com/iliyamo/cinema-seat-booking/internal/middleware"
	"github.com/iliyamo/cinema-seat-booking/internal/queue"
	"github.com/iliyamo/cinema-seat-booking/internal/repository"
	"github.com/iliyamo/cinema-seat-booking/internal/router"
	"github.com/iliyamo/cinema-seat-booking/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, cfgErr := config.Load()
	log := logger.Must(cfg.Env, cfg.LogLevel)
	defer func() { _ = log.Sync() }()
	if cfgErr != nil {
		log.Fatal("invalid configuration", zap.Error(cfgErr))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]handler.Check{}

	// Booking history: MySQL when configured, memory otherwise.
	var bookingRepo repository.BookingRepo = repository.NewMemoryBookingRepo()
	if cfg.DB.Enabled() {
		db, err := database.Open(ctx, cfg.DB)
		if err != nil {
			log.Fatal("mysql connect failed", zap.String("host", cfg.DB.Host), zap.Error(err))
		}
		defer db.Close()
		bookingRepo = repository.NewMySQLBookingRepo(db)
		checks["mysql"] = db.PingContext
		log.Info("booking history stored in mysql", zap.String("host", cfg.DB.Host), zap.String("db", cfg.DB.Name))
	} else {
		log.Info("booking history kept in memory")
	}

	var publisher queue.Publisher = queue.NopPublisher{}
	if cfg.AMQP.Enabled {
		publisher = queue.NewAMQPPublisher(cfg.AMQP.URL, log.Named("amqp"))
	} else {
		log.Info("booking.confirmed publishing disabled")
	}

	if cfg.TicketSecret == "" {
		log.Warn("TICKET_SECRET not set, mobile tickets disabled")
	}

	catalog := repository.NewSeededCatalogRepo()
	bookings := service.NewBookingService(bookingRepo, catalog, publisher, cfg.TicketSecret, log.Named("bookings"))
	sessions := service.NewSessionManager(catalog, bookings, cfg.SessionTTL, cfg.DefaultBasePrice, log.Named("sessions"))
	go sessions.RunSweeper(ctx, cfg.SessionSweepInterval)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log.Named("http")))

	cache := echo.MiddlewareFunc(func(next echo.HandlerFunc) echo.HandlerFunc { return next })
	if rdb := config.NewRedisClient(ctx); rdb != nil {
		defer rdb.Close()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		e.Use(middleware.NewTokenBucket(cfg.RateLimit, redis.Scripter(rdb), log.Named("ratelimit")))
		cache = middleware.NewRedisCache(cfg.Cache, rdb, log.Named("cache"))
	} else {
		log.Warn("redis unavailable, rate limiting and response cache disabled")
	}

	router.RegisterRoutes(e, router.Handlers{
		Health:   &handler.HealthHandler{Checks: checks},
		Theaters: &handler.TheaterHandler{Catalog: catalog},
		Sessions: &handler.SessionHandler{Sessions: sessions},
		Bookings: &handler.BookingHandler{Bookings: bookings},
	}, cache)

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", zap.Error(err))
	}
	// Confirmed dialogs that were never dismissed still become bookings.
	sessions.SweepExpired(shutdownCtx, time.Now().Add(cfg.SessionTTL+time.Second))
}

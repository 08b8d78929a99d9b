package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-seat-booking/internal/config"
	"github.com/iliyamo/cinema-seat-booking/internal/logger"
	"github.com/iliyamo/cinema-seat-booking/internal/queue"
)

func main() {
	_ = godotenv.Load()

	log := logger.Must(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logPath := os.Getenv("BOOKING_LOG_PATH")
	if logPath == "" {
		logPath = "logs/booking.log"
	}

	c := &queue.BookingLogConsumer{
		URL:     config.AMQPURL(),
		LogPath: logPath,
		Log:     log.Named("consumer"),
	}
	log.Info("booking consumer started", zap.String("queue", queue.BookingQueueName), zap.String("log_path", logPath))
	if err := c.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("booking consumer stopped", zap.Error(err))
	}
	log.Info("booking consumer stopped")
}

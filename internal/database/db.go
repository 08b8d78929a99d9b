package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/iliyamo/cinema-seat-booking/internal/config"
)

// Schema creates the booking history table. It is idempotent.
const Schema = `CREATE TABLE IF NOT EXISTS booking_history (
	id           BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
	booking_id   VARCHAR(32)     NOT NULL,
	theater_id   BIGINT UNSIGNED NOT NULL,
	status       VARCHAR(16)     NOT NULL,
	record       JSON            NOT NULL,
	mticket      TEXT            NOT NULL,
	booked_at    DATETIME(3)     NOT NULL,
	cancelled_at DATETIME(3)     NULL,
	UNIQUE KEY uq_booking_history_booking_id (booking_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// DSN builds the driver connection string for cfg.
func DSN(cfg config.DBConfig) string {
	auth := cfg.User
	if cfg.Pass != "" {
		auth = fmt.Sprintf("%s:%s", cfg.User, cfg.Pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, cfg.Host, cfg.Port, cfg.Name)
}

// Open connects to MySQL, verifies the connection and applies Schema.
func Open(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", DSN(cfg))
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}

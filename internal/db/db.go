package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/inhahackathon/foodmarket/config"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const (
	driverName      = "postgres"
	applicationName = "foodmarket"

	pingTimeout    = 5 * time.Second
	connectTimeout = 10 * time.Second
	retryBackoff   = time.Second
	connMaxIdle    = 2 * time.Minute

	fallbackMaxOpen  = 25
	fallbackMaxIdle  = 5
	fallbackLifetime = 30 * time.Minute
)

// MigrationsURL is the golang-migrate source for the schema, relative to the repository root.
const MigrationsURL = "file://internal/db/migrations"

// DSN renders cfg as a lib/pq connection URL.
func DSN(cfg config.DatabaseConfig) string {
	q := url.Values{}
	q.Set("sslmode", "disable")
	if cfg.UseSSL {
		q.Set("sslmode", "require")
	}
	q.Set("application_name", applicationName)
	q.Set("connect_timeout", strconv.Itoa(int(connectTimeout.Seconds())))

	return (&url.URL{
		Scheme:   driverName,
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:     cfg.DBName,
		RawQuery: q.Encode(),
	}).String()
}

// Open returns a pooled handle once the database answers a ping. Pings are
// retried ConnectRetries times so the server can start alongside postgres.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger logrus.FieldLogger) (*sql.DB, error) {
	conn, err := sql.Open(driverName, DSN(cfg))
	if err != nil {
		return nil, err
	}
	configurePool(conn, cfg)

	for attempt := 0; ; attempt++ {
		err = ping(ctx, conn)
		if err == nil {
			return conn, nil
		}
		if attempt >= cfg.ConnectRetries || ctx.Err() != nil {
			break
		}
		if logger != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"host":    cfg.Host,
				"attempt": attempt + 1,
			}).Warn("database not ready, retrying")
		}
		timer := time.NewTimer(retryBackoff * time.Duration(attempt+1))
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}

	_ = conn.Close()
	return nil, fmt.Errorf("ping %s:%d: %w", cfg.Host, cfg.Port, err)
}

func configurePool(conn *sql.DB, cfg config.DatabaseConfig) {
	conn.SetMaxOpenConns(orDefault(cfg.MaxOpenConns, fallbackMaxOpen))
	conn.SetMaxIdleConns(orDefault(cfg.MaxIdleConns, fallbackMaxIdle))
	conn.SetConnMaxIdleTime(connMaxIdle)
	if cfg.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	} else {
		conn.SetConnMaxLifetime(fallbackLifetime)
	}
}

func ping(ctx context.Context, conn *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return conn.PingContext(ctx)
}

func orDefault(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

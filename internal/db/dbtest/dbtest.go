// Package dbtest starts a throwaway Postgres container for integration tests.
package dbtest

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strconv"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/inhahackathon/foodmarket/config"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	image    = "postgres:17-alpine"
	user     = "test"
	password = "test"
	dbName   = "foodmarket"
)

// StartPostgres runs a postgres container and returns a config pointing at it.
// The returned func terminates the container.
func StartPostgres(ctx context.Context) (config.DatabaseConfig, func()) {
	req := testcontainers.ContainerRequest{
		Image:        image,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     user,
			"POSTGRES_PASSWORD": password,
			"POSTGRES_DB":       dbName,
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	cont, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		log.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := cont.Host(ctx)
	if err != nil {
		log.Fatalf("failed to get host: %v", err)
	}
	port, err := cont.MappedPort(ctx, "5432/tcp")
	if err != nil {
		log.Fatalf("failed to get port: %v", err)
	}
	portNum, err := strconv.Atoi(port.Port())
	if err != nil {
		log.Fatalf("invalid mapped port %q: %v", port.Port(), err)
	}

	closer := func() {
		_ = cont.Terminate(ctx)
	}
	return config.DatabaseConfig{
		Host:     host,
		Port:     portNum,
		User:     user,
		Password: password,
		DBName:   dbName,
	}, closer
}

// Reset drops every table and re-applies the migrations in folder.
func Reset(t *testing.T, db *sql.DB, folder string) {
	t.Helper()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	require.NoError(t, err, "postgres driver")

	migrator, err := migrate.NewWithDatabaseInstance("file://"+folder, dbName, driver)
	require.NoError(t, err, "create migrator")

	if err := migrator.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("failed to drop existing db objects: %v", err)
	}
	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("failed to run migrations: %v", err)
	}
}

// InsertID runs an INSERT ... RETURNING id statement and returns the id.
func InsertID(t *testing.T, db *sql.DB, query string, args ...any) int64 {
	t.Helper()

	var id int64
	require.NoError(t, db.QueryRow(query, args...).Scan(&id))
	return id
}

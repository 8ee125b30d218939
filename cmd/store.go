package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/proportfolio/gallery/internal/client"
	"github.com/proportfolio/gallery/internal/config"
	"github.com/proportfolio/gallery/internal/localstore"
	"github.com/proportfolio/gallery/internal/repositories"
	"github.com/proportfolio/gallery/internal/services"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// migrationsTable keeps this app's migration history apart from other apps sharing the database
const migrationsTable = "gallery_schema_migrations"

// openStore connects the configured key-value store. MySQL is migrated before use.
// The returned func releases the connection.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (services.KeyValueStore, func(), error) {
	if cfg.Store == config.StoreRedis {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		return repositories.NewRedisStorageRepository(rdb, cfg.Redis.TTL, log), func() { _ = rdb.Close() }, nil
	}

	db, err := connectDB(cfg.DSN())
	if err != nil {
		return nil, nil, err
	}
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return repositories.NewStorageRepository(db, log), func() { _ = db.Close() }, nil
}

// newBackends returns the auth and portfolio backends selected by BACKEND.
// The local backend is seeded when empty unless SEED=false.
func newBackends(ctx context.Context, cfg *config.Config, store services.KeyValueStore, log *zap.Logger) (services.AuthBackend, services.PortfolioBackend, error) {
	if cfg.Backend == config.BackendLocal {
		backend := localstore.NewBackend(store, log)
		if cfg.Seed {
			if _, err := backend.Seed(ctx); err != nil {
				return nil, nil, fmt.Errorf("failed to seed local backend: %w", err)
			}
		}
		return backend, backend, nil
	}

	c := client.NewClient(cfg.Remote.AuthURL, cfg.Remote.PortfolioURL, cfg.Remote.Timeout, log)
	return c, c, nil
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// newMigrator opens the migration source next to the binary or one directory up
func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	driver, err := mysql.WithInstance(db, &mysql.Config{
		MigrationsTable: migrationsTable,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		if _, err := os.Stat("../migrations"); err == nil {
			migrationPath = "file://../migrations"
		}
	}

	m, err := migrate.NewWithDatabaseInstance(migrationPath, "mysql", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

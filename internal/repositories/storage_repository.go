package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/proportfolio/gallery/internal/models"
	"go.uber.org/zap"
)

type storageRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStorageRepository creates a key-value store backed by the local_storage table
func NewStorageRepository(db *sql.DB, logger *zap.Logger) *storageRepository {
	return &storageRepository{
		db:     db,
		logger: logger,
	}
}

// Get retrieves the value stored under key.
// Returns models.ErrNotFound if there is no such key.
func (r *storageRepository) Get(ctx context.Context, key string) (string, error) {
	query := `
		SELECT value
		FROM local_storage
		WHERE storage_key = ?
	`

	var value string
	err := r.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", models.ErrNotFound
		}
		r.logger.Error("failed to query storage value", zap.Error(err), zap.String("key", key))
		return "", fmt.Errorf("failed to query storage value: %w", err)
	}

	return value, nil
}

// Set inserts or replaces the value stored under key
func (r *storageRepository) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO local_storage (storage_key, value)
		VALUES (?, ?)
		ON DUPLICATE KEY UPDATE value = VALUES(value)
	`

	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		r.logger.Error("failed to save storage value", zap.Error(err), zap.String("key", key))
		return fmt.Errorf("failed to save storage value: %w", err)
	}

	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (r *storageRepository) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM local_storage WHERE storage_key = ?`

	if _, err := r.db.ExecContext(ctx, query, key); err != nil {
		r.logger.Error("failed to delete storage value", zap.Error(err), zap.String("key", key))
		return fmt.Errorf("failed to delete storage value: %w", err)
	}

	return nil
}

package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/proportfolio/gallery/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Storage keys of the local backend
const (
	usersKey           = "portfolio_users"
	worksKey           = "portfolio_works"
	favoritesKeyPrefix = "portfolio_favorites:"
)

// Store is the interface that wraps methods of the key-value store the backend keeps its data in.
type Store interface {
	// Method Get retrieves the value stored under "key".
	//
	// If there is no such key, models.ErrNotFound is returned.
	Get(ctx context.Context, key string) (string, error)
	// Method Set stores "value" under "key", replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Method Delete removes "key".
	Delete(ctx context.Context, key string) error
}

// storedUser is a user record together with its password hash
type storedUser struct {
	models.User
	PasswordHash string `json:"password_hash"`
}

// localBackend serves the auth and portfolio contracts from a key-value store.
// Every operation is a read-modify-write of whole JSON documents, serialised by mu.
type localBackend struct {
	store    Store
	hashCost int
	logger   *zap.Logger

	mu sync.Mutex
}

// NewBackend creates a new local backend over "store"
func NewBackend(store Store, logger *zap.Logger) *localBackend {
	return &localBackend{
		store:    store,
		hashCost: bcrypt.DefaultCost,
		logger:   logger,
	}
}

// loadJSON decodes the document under key into dst. A missing key leaves dst untouched.
func (b *localBackend) loadJSON(ctx context.Context, key string, dst any) error {
	raw, err := b.store.Get(ctx, key)
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func (b *localBackend) saveJSON(ctx context.Context, key string, src any) error {
	data, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := b.store.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (b *localBackend) loadUsers(ctx context.Context) ([]storedUser, error) {
	users := []storedUser{}
	if err := b.loadJSON(ctx, usersKey, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (b *localBackend) loadWorks(ctx context.Context) ([]models.Work, error) {
	works := []models.Work{}
	if err := b.loadJSON(ctx, worksKey, &works); err != nil {
		return nil, err
	}
	return works, nil
}

func (b *localBackend) loadFavorites(ctx context.Context, userID int) (map[int]bool, error) {
	ids := []int{}
	if err := b.loadJSON(ctx, favoritesKey(userID), &ids); err != nil {
		return nil, err
	}
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// saveFavorites stores the favorite ids of a user in the order of "works"
func (b *localBackend) saveFavorites(ctx context.Context, userID int, favorites map[int]bool, works []models.Work) error {
	ids := []int{}
	for _, w := range works {
		if favorites[w.ID] {
			ids = append(ids, w.ID)
		}
	}
	if len(ids) == 0 {
		return b.store.Delete(ctx, favoritesKey(userID))
	}
	return b.saveJSON(ctx, favoritesKey(userID), ids)
}

func favoritesKey(userID int) string {
	return favoritesKeyPrefix + strconv.Itoa(userID)
}

package localstore

import (
	"context"
	"fmt"
	"time"

	"github.com/proportfolio/gallery/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// SeedPassword is the password of every seeded user
const SeedPassword = "portfolio"

type seedWork struct {
	owner       int
	title       string
	description string
	image       string
}

var seedUsers = []models.User{
	{ID: 1, Username: "anna", DisplayName: "Anna Petrova"},
	{ID: 2, Username: "marco", DisplayName: "Marco Rossi"},
	{ID: 3, Username: "yuki", DisplayName: "Yuki Tanaka"},
}

// Oldest first; stored newest first.
var seedWorks = []seedWork{
	{1, "Morning Fog", "Watercolor study of the river at dawn", "https://picsum.photos/seed/fog/800/600"},
	{2, "Concrete Lines", "Brutalist facades, shot on 35mm", "https://picsum.photos/seed/concrete/800/600"},
	{3, "Koi", "Ink on rice paper", "https://picsum.photos/seed/koi/800/600"},
	{1, "Night Market", "", "https://picsum.photos/seed/market/800/600"},
	{2, "Still Life with Lemons", "Oil on canvas, 40x50", "https://picsum.photos/seed/lemons/800/600"},
	{3, "Paper Cranes", "A thousand folds", "https://picsum.photos/seed/cranes/800/600"},
}

// Seed fills an empty store with mock users and works.
// It reports false without touching anything when users or works already exist.
func (b *localBackend) Seed(ctx context.Context) (bool, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), b.hashCost)
	if err != nil {
		return false, fmt.Errorf("failed to hash seed password: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	users, err := b.loadUsers(ctx)
	if err != nil {
		return false, err
	}
	works, err := b.loadWorks(ctx)
	if err != nil {
		return false, err
	}
	if len(users) > 0 || len(works) > 0 {
		return false, nil
	}

	for _, u := range seedUsers {
		users = append(users, storedUser{User: u, PasswordHash: string(hash)})
	}

	start := time.Now().Add(-time.Duration(len(seedWorks)) * 24 * time.Hour)
	for i, w := range seedWorks {
		works = append([]models.Work{{
			ID:          i + 1,
			UserID:      w.owner,
			Title:       w.title,
			Description: w.description,
			ImageURL:    w.image,
			CreatedAt:   models.NewTimestamp(start.Add(time.Duration(i) * 24 * time.Hour)),
		}}, works...)
	}

	if err := b.saveJSON(ctx, usersKey, users); err != nil {
		return false, err
	}
	if err := b.saveJSON(ctx, worksKey, works); err != nil {
		return false, err
	}

	b.logger.Info("local store seeded", zap.Int("users", len(users)), zap.Int("works", len(works)))
	return true, nil
}

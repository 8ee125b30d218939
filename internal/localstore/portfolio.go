package localstore

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/proportfolio/gallery/internal/models"
	"go.uber.org/zap"
)

var (
	errImageRequired = &models.ServiceError{Status: http.StatusBadRequest, Message: "Image URL required"}
	errWorkNotFound  = &models.ServiceError{Status: http.StatusNotFound, Message: "Work not found"}
)

// ListWorks returns all works, newest first, flagged with the viewer's favorites
func (b *localBackend) ListWorks(ctx context.Context, viewerID int) ([]models.Work, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	works, err := b.loadWorks(ctx)
	if err != nil {
		return nil, err
	}
	favorites := map[int]bool{}
	if viewerID > 0 {
		if favorites, err = b.loadFavorites(ctx, viewerID); err != nil {
			return nil, err
		}
	}
	for i := range works {
		works[i].IsFavorite = favorites[works[i].ID]
	}
	return works, nil
}

// ListFavorites returns the works favorited by the viewer, newest first
func (b *localBackend) ListFavorites(ctx context.Context, viewerID int) ([]models.Work, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	works, err := b.loadWorks(ctx)
	if err != nil {
		return nil, err
	}
	favorites, err := b.loadFavorites(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	out := []models.Work{}
	for _, w := range works {
		if favorites[w.ID] {
			w.IsFavorite = true
			out = append(out, w)
		}
	}
	return out, nil
}

// ToggleFavorite flips the membership of the work in the viewer's favorites
func (b *localBackend) ToggleFavorite(ctx context.Context, viewerID, workID int) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	works, err := b.loadWorks(ctx)
	if err != nil {
		return false, err
	}
	if !slices.ContainsFunc(works, func(w models.Work) bool { return w.ID == workID }) {
		return false, errWorkNotFound
	}
	favorites, err := b.loadFavorites(ctx, viewerID)
	if err != nil {
		return false, err
	}

	favorites[workID] = !favorites[workID]
	if err := b.saveFavorites(ctx, viewerID, favorites, works); err != nil {
		return false, err
	}
	return favorites[workID], nil
}

// AddWork stores a new work in front of the list. A blank title becomes "Untitled".
func (b *localBackend) AddWork(ctx context.Context, work models.NewWork) (*models.Work, error) {
	if work.ImageURL == "" {
		return nil, errImageRequired
	}
	title := strings.TrimSpace(work.Title)
	if title == "" {
		title = "Untitled"
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	works, err := b.loadWorks(ctx)
	if err != nil {
		return nil, err
	}
	nextID := 1
	for _, w := range works {
		if w.ID >= nextID {
			nextID = w.ID + 1
		}
	}

	created := models.Work{
		ID:          nextID,
		UserID:      work.UserID,
		Title:       title,
		Description: work.Description,
		ImageURL:    work.ImageURL,
		CreatedAt:   models.NewTimestamp(time.Now()),
	}
	works = append([]models.Work{created}, works...)
	if err := b.saveJSON(ctx, worksKey, works); err != nil {
		return nil, err
	}

	b.logger.Info("local work added", zap.Int("work_id", created.ID), zap.Int("user_id", created.UserID))
	return &created, nil
}

// DeleteWork removes the work and its favorite memberships. Deleting a missing work succeeds.
func (b *localBackend) DeleteWork(ctx context.Context, workID int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	works, err := b.loadWorks(ctx)
	if err != nil {
		return err
	}
	kept := make([]models.Work, 0, len(works))
	for _, w := range works {
		if w.ID != workID {
			kept = append(kept, w)
		}
	}
	if err := b.saveJSON(ctx, worksKey, kept); err != nil {
		return err
	}

	users, err := b.loadUsers(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		favorites, err := b.loadFavorites(ctx, u.ID)
		if err != nil {
			return err
		}
		if !favorites[workID] {
			continue
		}
		delete(favorites, workID)
		if err := b.saveFavorites(ctx, u.ID, favorites, kept); err != nil {
			return err
		}
	}
	return nil
}

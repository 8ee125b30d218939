package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/proportfolio/gallery/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrRefreshFailed is wrapped by errors of a failed refetch.
// After a successful write it means the write took effect but the lists are stale.
var ErrRefreshFailed = errors.New("failed to refresh gallery")

type galleryService struct {
	portfolio PortfolioBackend
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewGalleryService creates a new gallery service
func NewGalleryService(portfolio PortfolioBackend, logger *zap.Logger) *galleryService {
	return &galleryService{
		portfolio: portfolio,
		validate:  validator.New(),
		logger:    logger,
	}
}

// Refresh re-fetches all works and the viewer's favorites and replaces both lists wholesale.
//
// Both lists are fetched concurrently and swapped in only if both calls succeed,
// so a failed refresh leaves the lists as they were and only marks them stale.
// With nobody logged in the lists are cleared.
func (s *galleryService) Refresh(ctx context.Context, st *State) error {
	viewerID := st.viewerID()
	if viewerID == 0 {
		st.replaceGallery(0, []models.Work{}, []models.Work{})
		return nil
	}

	var works, favorites []models.Work
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		works, err = s.portfolio.ListWorks(gctx, viewerID)
		return err
	})
	g.Go(func() error {
		var err error
		favorites, err = s.portfolio.ListFavorites(gctx, viewerID)
		return err
	})
	if err := g.Wait(); err != nil {
		st.markStale()
		s.logger.Error("failed to refresh gallery", zap.Int("viewer_id", viewerID), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	if works == nil {
		works = []models.Work{}
	}
	if favorites == nil {
		favorites = []models.Work{}
	}
	if !st.replaceGallery(viewerID, works, favorites) {
		s.logger.Debug("dropping gallery fetched for a previous viewer", zap.Int("viewer_id", viewerID))
	}
	return nil
}

// ToggleFavorite flips the favorite status of a cached work for the session user.
//
// The flip is applied to the state optimistically and reconciled by a full refresh.
// If the backend rejects it, the previous lists are restored. Toggling a work that
// is not in the cached list is a no-op.
func (s *galleryService) ToggleFavorite(ctx context.Context, st *State, workID int) error {
	viewerID, previous, ok := st.flipFavorite(workID)
	if !ok {
		return nil
	}

	if _, err := s.portfolio.ToggleFavorite(ctx, viewerID, workID); err != nil {
		st.restoreGallery(previous)
		s.logger.Error("failed to toggle favorite", zap.Int("work_id", workID), zap.Error(err))
		return fmt.Errorf("failed to toggle favorite: %w", err)
	}

	return s.Refresh(ctx, st)
}

// AddWork creates a work owned by the session user.
//
// A blank or overlong title or a missing image fails with a *models.ValidationError
// before any backend call and without touching the state.
func (s *galleryService) AddWork(ctx context.Context, st *State, input models.WorkInput) (*models.Work, error) {
	sess := st.Session()
	if sess.User == nil {
		return nil, models.ErrNotAuthenticated
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, models.ErrEmptyTitle
	}
	if input.ImageURL == "" {
		return nil, models.ErrMissingImage
	}

	newWork := models.NewWork{
		UserID:      sess.User.ID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		ImageURL:    input.ImageURL,
	}
	if err := validateStruct(s.validate, newWork); err != nil {
		return nil, err
	}

	work, err := s.portfolio.AddWork(ctx, newWork)
	if err != nil {
		s.logger.Error("failed to add work", zap.Int("user_id", sess.User.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to add work: %w", err)
	}
	s.logger.Info("work added", zap.Int("work_id", work.ID), zap.Int("user_id", sess.User.ID))

	if err := s.Refresh(ctx, st); err != nil {
		return work, err
	}
	return work, nil
}

// DeleteWork removes a work owned by the session user, or any work when the session is admin-elevated.
//
// The ownership check only spares a pointless call; the backend decides.
func (s *galleryService) DeleteWork(ctx context.Context, st *State, workID int) error {
	snap := st.Snapshot()
	if snap.Session.User == nil {
		return models.ErrNotAuthenticated
	}

	work := snap.Find(workID)
	if !snap.Session.IsAdminElevated && (work == nil || !snap.Session.CanDelete(work)) {
		return &models.PermissionError{Action: "delete this work"}
	}

	if err := s.portfolio.DeleteWork(ctx, workID); err != nil {
		s.logger.Error("failed to delete work", zap.Int("work_id", workID), zap.Error(err))
		return fmt.Errorf("failed to delete work: %w", err)
	}
	s.logger.Info("work deleted",
		zap.Int("work_id", workID),
		zap.Int("user_id", snap.Session.User.ID),
		zap.Bool("admin", snap.Session.IsAdminElevated),
	)

	return s.Refresh(ctx, st)
}

package services

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/proportfolio/gallery/internal/models"
	"go.uber.org/zap"
)

// Storage keys, suffixed with the browser session id
const (
	userKeyPrefix  = "portfolio_user:"
	adminKeyPrefix = "portfolio_admin:"
)

// sessionService implements the session store of every browser
type sessionService struct {
	auth         AuthBackend
	store        KeyValueStore
	validate     *validator.Validate
	adminSecret  string
	persistAdmin bool
	logger       *zap.Logger

	mu     sync.Mutex
	states map[string]*State
}

// NewSessionService creates a new session service.
//
// "adminSecret" is the fixed admin elevation secret; an empty value disables elevation.
// It is a shared secret handed to every operator, not an access-control boundary:
// deletions are authorized by the backend, the elevation only unlocks the UI.
// "persistAdmin" keeps the elevation across restarts, as the local-only backend does.
func NewSessionService(
	auth AuthBackend,
	store KeyValueStore,
	adminSecret string,
	persistAdmin bool,
	logger *zap.Logger,
) *sessionService {
	return &sessionService{
		auth:         auth,
		store:        store,
		validate:     validator.New(),
		adminSecret:  adminSecret,
		persistAdmin: persistAdmin,
		logger:       logger,
		states:       make(map[string]*State),
	}
}

// Restore returns the state of the browser session "sessionID".
//
// The first time a session is seen its user is read back from the store,
// so a login survives a restart of the process.
func (s *sessionService) Restore(ctx context.Context, sessionID string) (*State, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}

	s.mu.Lock()
	if st, ok := s.states[sessionID]; ok {
		st.touch(time.Now())
		s.mu.Unlock()
		return st, nil
	}
	s.mu.Unlock()

	// Store reads run without s.mu held
	st := NewState(sessionID)
	user, err := s.loadUser(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		st.setUser(user)
		if s.persistAdmin {
			elevated, err := s.loadAdmin(ctx, sessionID)
			if err != nil {
				return nil, err
			}
			st.setAdminElevated(elevated)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.states[sessionID]; ok {
		existing.touch(time.Now())
		return existing, nil
	}
	s.states[sessionID] = st
	return st, nil
}

// Sweep drops the in-memory state of sessions idle for longer than maxIdle.
// Persisted users are restored on the next request.
func (s *sessionService) Sweep(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	removed := 0
	for id, st := range s.states {
		if st.idleSince().Before(cutoff) {
			delete(s.states, id)
			removed++
		}
	}
	return removed
}

// Login checks the credentials with the auth backend and stores the user in the session
func (s *sessionService) Login(ctx context.Context, st *State, req models.LoginRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}

	user, err := s.auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		s.logger.Info("login rejected", zap.String("username", req.Username), zap.Error(err))
		return nil, fmt.Errorf("failed to login: %w", err)
	}

	if err := s.saveUser(ctx, st, user); err != nil {
		return nil, err
	}
	s.logger.Info("user logged in", zap.Int("user_id", user.ID))
	return user, nil
}

// Register creates an account and stores the new user in the session.
// An empty display name defaults to the username.
func (s *sessionService) Register(ctx context.Context, st *State, req models.RegisterRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}
	if req.DisplayName == "" {
		req.DisplayName = req.Username
	}

	user, err := s.auth.Register(ctx, req.Username, req.Password, req.DisplayName)
	if err != nil {
		s.logger.Info("registration rejected", zap.String("username", req.Username), zap.Error(err))
		return nil, fmt.Errorf("failed to register: %w", err)
	}

	if err := s.saveUser(ctx, st, user); err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.Int("user_id", user.ID))
	return user, nil
}

// UpdateProfile applies a partial profile update for the session user.
// Only provided fields change; an empty update returns the current user without a backend call.
func (s *sessionService) UpdateProfile(ctx context.Context, st *State, upd models.ProfileUpdate) (*models.User, error) {
	sess := st.Session()
	if sess.User == nil {
		return nil, models.ErrNotAuthenticated
	}
	if upd.DisplayName != nil {
		name := strings.TrimSpace(*upd.DisplayName)
		if name == "" {
			return nil, &models.ValidationError{Field: "display_name", Message: "display_name must not be empty"}
		}
		upd.DisplayName = &name
	}
	if err := validateStruct(s.validate, upd); err != nil {
		return nil, err
	}
	if upd.IsEmpty() {
		return sess.User, nil
	}

	user, err := s.auth.UpdateProfile(ctx, sess.User.ID, upd)
	if err != nil {
		s.logger.Error("failed to update profile", zap.Int("user_id", sess.User.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	if err := s.saveUser(ctx, st, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Logout clears the user, the admin elevation and the cached gallery. It is idempotent.
// The in-memory state is cleared even when the store cannot be updated.
func (s *sessionService) Logout(ctx context.Context, st *State) error {
	sessionID := st.Session().ID
	st.reset()

	var errs []error
	if err := s.store.Delete(ctx, userKeyPrefix+sessionID); err != nil {
		errs = append(errs, err)
	}
	if err := s.store.Delete(ctx, adminKeyPrefix+sessionID); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		s.logger.Error("failed to clear stored session", zap.String("session_id", sessionID), zap.Error(errors.Join(errs...)))
		return fmt.Errorf("failed to clear stored session: %w", errors.Join(errs...))
	}
	return nil
}

// ElevateAdmin compares "secret" with the configured admin secret and, on a match,
// elevates the session. Elevation requires a logged-in user and lasts until logout.
func (s *sessionService) ElevateAdmin(ctx context.Context, st *State, secret string) bool {
	sess := st.Session()
	if sess.User == nil || s.adminSecret == "" {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(s.adminSecret)) != 1 {
		s.logger.Warn("admin elevation rejected", zap.Int("user_id", sess.User.ID))
		return false
	}

	st.setAdminElevated(true)
	if s.persistAdmin {
		if err := s.store.Set(ctx, adminKeyPrefix+sess.ID, "true"); err != nil {
			s.logger.Error("failed to persist admin elevation", zap.Error(err))
		}
	}
	s.logger.Info("admin elevation granted", zap.Int("user_id", sess.User.ID))
	return true
}

// saveUser persists the user first and updates the state only once the store accepted it
func (s *sessionService) saveUser(ctx context.Context, st *State, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if err := s.store.Set(ctx, userKeyPrefix+st.Session().ID, string(data)); err != nil {
		s.logger.Error("failed to persist user", zap.Error(err))
		return fmt.Errorf("failed to persist session: %w", err)
	}
	st.setUser(user)
	return nil
}

func (s *sessionService) loadUser(ctx context.Context, sessionID string) (*models.User, error) {
	raw, err := s.store.Get(ctx, userKeyPrefix+sessionID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("failed to restore session", zap.String("session_id", sessionID), zap.Error(err))
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil || user.ID == 0 {
		// A corrupt record is treated as no saved user.
		s.logger.Warn("discarding unreadable stored user", zap.String("session_id", sessionID))
		if delErr := s.store.Delete(ctx, userKeyPrefix+sessionID); delErr != nil {
			s.logger.Error("failed to delete unreadable stored user", zap.Error(delErr))
		}
		return nil, nil
	}
	return &user, nil
}

func (s *sessionService) loadAdmin(ctx context.Context, sessionID string) (bool, error) {
	raw, err := s.store.Get(ctx, adminKeyPrefix+sessionID)
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to restore admin elevation: %w", err)
	}
	return raw == "true", nil
}

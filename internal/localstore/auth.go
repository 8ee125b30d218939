package localstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/proportfolio/gallery/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	errInvalidCredentials = &models.AuthError{Kind: models.AuthInvalidCredentials, Message: "Invalid credentials"}
	errUsernameTaken      = &models.AuthError{Kind: models.AuthUsernameTaken, Message: "Username already exists"}
	errMissingCredentials = &models.AuthError{Kind: models.AuthValidation, Message: "Username and password required"}
	errPasswordTooLong    = &models.AuthError{Kind: models.AuthValidation, Message: "Password must be at most 72 bytes"}
	errUserNotFound       = &models.ServiceError{Status: http.StatusNotFound, Message: "User not found"}
)

// Login checks the password against the stored bcrypt hash
func (b *localBackend) Login(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, errMissingCredentials
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	users, err := b.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Username != username {
			continue
		}
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
			if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
				b.logger.Error("failed to compare password hash", zap.Int("user_id", u.ID), zap.Error(err))
			}
			return nil, errInvalidCredentials
		}
		user := u.User
		return &user, nil
	}
	return nil, errInvalidCredentials
}

// Register creates a user with a fresh id. "displayName" defaults to the username.
func (b *localBackend) Register(ctx context.Context, username, password, displayName string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, errMissingCredentials
	}
	if displayName == "" {
		displayName = username
	}

	hash, err := b.hashPassword(password)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	users, err := b.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	nextID := 1
	for _, u := range users {
		if u.Username == username {
			return nil, errUsernameTaken
		}
		if u.ID >= nextID {
			nextID = u.ID + 1
		}
	}

	created := storedUser{
		User:         models.User{ID: nextID, Username: username, DisplayName: displayName},
		PasswordHash: string(hash),
	}
	users = append(users, created)
	if err := b.saveJSON(ctx, usersKey, users); err != nil {
		return nil, err
	}

	b.logger.Info("local user registered", zap.Int("user_id", created.ID))
	user := created.User
	return &user, nil
}

// UpdateProfile applies the provided fields to the stored user
func (b *localBackend) UpdateProfile(ctx context.Context, userID int, upd models.ProfileUpdate) (*models.User, error) {
	var hash []byte
	if upd.NewPassword != nil {
		var err error
		hash, err = b.hashPassword(*upd.NewPassword)
		if err != nil {
			return nil, err
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	users, err := b.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID != userID {
			continue
		}
		if upd.DisplayName != nil {
			users[i].DisplayName = *upd.DisplayName
		}
		if upd.AvatarURL != nil {
			users[i].AvatarURL = *upd.AvatarURL
		}
		if hash != nil {
			users[i].PasswordHash = string(hash)
		}
		if err := b.saveJSON(ctx, usersKey, users); err != nil {
			return nil, err
		}
		user := users[i].User
		return &user, nil
	}
	return nil, errUserNotFound
}

// hashPassword hashes with bcrypt, which only accepts up to 72 bytes
func (b *localBackend) hashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.hashCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, errPasswordTooLong
	}
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/proportfolio/gallery/internal/models"
)

type authRequest struct {
	Action      string `json:"action"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
}

type profileRequest struct {
	UserID int `json:"user_id"`
	models.ProfileUpdate
}

// Login checks credentials with the auth service and returns the user
func (c *Client) Login(ctx context.Context, username, password string) (*models.User, error) {
	env, err := c.do(ctx, "login", http.MethodPost, c.authURL, authRequest{
		Action:   "login",
		Username: username,
		Password: password,
	}, true)
	if err != nil {
		return nil, toAuthError(err)
	}
	return userFrom(env)
}

// Register creates an account and returns the new user
func (c *Client) Register(ctx context.Context, username, password, displayName string) (*models.User, error) {
	env, err := c.do(ctx, "register", http.MethodPost, c.authURL, authRequest{
		Action:      "register",
		Username:    username,
		Password:    password,
		DisplayName: displayName,
	}, true)
	if err != nil {
		return nil, toAuthError(err)
	}
	return userFrom(env)
}

// UpdateProfile sends the non-nil fields of upd and returns the refreshed user
func (c *Client) UpdateProfile(ctx context.Context, userID int, upd models.ProfileUpdate) (*models.User, error) {
	env, err := c.do(ctx, "update profile", http.MethodPut, c.authURL, profileRequest{
		UserID:        userID,
		ProfileUpdate: upd,
	}, true)
	if err != nil {
		return nil, toAuthError(err)
	}
	return userFrom(env)
}

func userFrom(env *envelope) (*models.User, error) {
	if env.User == nil {
		return nil, &models.NetworkError{Op: "auth", Err: fmt.Errorf("response carries no user")}
	}
	return env.User, nil
}

// toAuthError maps client-side failures reported by the auth service to AuthError.
// Network errors and server failures pass through unchanged.
func toAuthError(err error) error {
	var svcErr *models.ServiceError
	if !errors.As(err, &svcErr) {
		return err
	}

	switch {
	case svcErr.Status == http.StatusUnauthorized:
		return &models.AuthError{Kind: models.AuthInvalidCredentials, Message: svcErr.Message}
	case strings.Contains(strings.ToLower(svcErr.Message), "already exists"):
		return &models.AuthError{Kind: models.AuthUsernameTaken, Message: svcErr.Message}
	case svcErr.Status < http.StatusInternalServerError:
		return &models.AuthError{Kind: models.AuthValidation, Message: svcErr.Message}
	default:
		return err
	}
}

package services

import (
	"context"

	"github.com/proportfolio/gallery/internal/models"
)

// AuthBackend is the interface that wraps methods of the auth service.
type AuthBackend interface {
	// Method Login checks the credentials and returns the matching user.
	//
	// If the credentials are rejected, an *models.AuthError carrying the backend's message is returned together with "nil" value.
	Login(ctx context.Context, username, password string) (*models.User, error)
	// Method Register creates an account and returns the new user.
	//
	// "displayName" parameter is stored as given.
	// If the username is taken or the input is rejected, an *models.AuthError is returned together with "nil" value.
	Register(ctx context.Context, username, password, displayName string) (*models.User, error)
	// Method UpdateProfile applies the non-nil fields of "upd" to the user identified by "userID" and returns the refreshed user.
	UpdateProfile(ctx context.Context, userID int, upd models.ProfileUpdate) (*models.User, error)
}

// PortfolioBackend is the interface that wraps methods of the portfolio service.
type PortfolioBackend interface {
	// Method ListWorks retrieves all works, newest first, with IsFavorite set relative to "viewerID".
	ListWorks(ctx context.Context, viewerID int) ([]models.Work, error)
	// Method ListFavorites retrieves the works favorited by "viewerID".
	ListFavorites(ctx context.Context, viewerID int) ([]models.Work, error)
	// Method ToggleFavorite flips the favorite membership of ("viewerID", "workID") and returns the new membership.
	ToggleFavorite(ctx context.Context, viewerID, workID int) (bool, error)
	// Method AddWork creates a work and returns it.
	AddWork(ctx context.Context, work models.NewWork) (*models.Work, error)
	// Method DeleteWork removes a work and its favorite memberships.
	//
	// The backend is the authority on whether the caller may delete it.
	DeleteWork(ctx context.Context, workID int) error
}

// KeyValueStore is the interface that wraps methods of the local persistent store.
type KeyValueStore interface {
	// Method Get retrieves the value stored under "key".
	//
	// If there is no such key, models.ErrNotFound is returned.
	Get(ctx context.Context, key string) (string, error)
	// Method Set stores "value" under "key", replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Method Delete removes "key". Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/proportfolio/gallery/internal/models"
)

type toggleFavoriteRequest struct {
	Action string `json:"action"`
	UserID int    `json:"user_id"`
	WorkID int    `json:"work_id"`
}

type addWorkRequest struct {
	Action string `json:"action"`
	models.NewWork
}

// ListWorks returns every work, newest first, with IsFavorite set for viewerID.
// A zero viewerID lists works without favorite flags.
func (c *Client) ListWorks(ctx context.Context, viewerID int) ([]models.Work, error) {
	params := url.Values{}
	if viewerID > 0 {
		params.Set("user_id", strconv.Itoa(viewerID))
	}
	target, err := withQuery(c.portfolioURL, params)
	if err != nil {
		return nil, err
	}

	env, err := c.do(ctx, "list works", http.MethodGet, target, nil, false)
	if err != nil {
		return nil, err
	}
	return nonNil(env.Works), nil
}

// ListFavorites returns the works favorited by viewerID
func (c *Client) ListFavorites(ctx context.Context, viewerID int) ([]models.Work, error) {
	target, err := withQuery(c.portfolioURL, url.Values{
		"action":  {"favorites"},
		"user_id": {strconv.Itoa(viewerID)},
	})
	if err != nil {
		return nil, err
	}

	env, err := c.do(ctx, "list favorites", http.MethodGet, target, nil, false)
	if err != nil {
		return nil, err
	}
	return nonNil(env.Works), nil
}

// ToggleFavorite flips the favorite membership of (viewerID, workID) and returns the new state
func (c *Client) ToggleFavorite(ctx context.Context, viewerID, workID int) (bool, error) {
	env, err := c.do(ctx, "toggle favorite", http.MethodPost, c.portfolioURL, toggleFavoriteRequest{
		Action: "toggle_favorite",
		UserID: viewerID,
		WorkID: workID,
	}, true)
	if err != nil {
		return false, err
	}
	return env.IsFavorite, nil
}

// AddWork creates a work; the image travels as an embedded data URL
func (c *Client) AddWork(ctx context.Context, work models.NewWork) (*models.Work, error) {
	env, err := c.do(ctx, "add work", http.MethodPost, c.portfolioURL, addWorkRequest{
		Action:  "add_work",
		NewWork: work,
	}, true)
	if err != nil {
		return nil, err
	}
	if env.Work == nil {
		return nil, &models.NetworkError{Op: "add work", Err: fmt.Errorf("response carries no work")}
	}
	return env.Work, nil
}

// DeleteWork removes a work together with its favorite memberships
func (c *Client) DeleteWork(ctx context.Context, workID int) error {
	target, err := withQuery(c.portfolioURL, url.Values{"work_id": {strconv.Itoa(workID)}})
	if err != nil {
		return err
	}

	_, err = c.do(ctx, "delete work", http.MethodDelete, target, nil, true)
	return err
}

func nonNil(works []models.Work) []models.Work {
	if works == nil {
		return []models.Work{}
	}
	return works
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/proportfolio/gallery/internal/middleware"
	"github.com/proportfolio/gallery/internal/models"
	"github.com/proportfolio/gallery/internal/services"
	"go.uber.org/zap"
)

// SessionResponse is the body of GET /api/v1/session
type SessionResponse struct {
	Authenticated   bool         `json:"authenticated"`
	User            *models.User `json:"user,omitempty"`
	IsAdminElevated bool         `json:"is_admin_elevated"`
}

// WorksResponse is the body of the works and favorites endpoints
type WorksResponse struct {
	Works []models.Work `json:"works"`
}

// APIHandler serves a read-only JSON view of the caller's session and gallery
type APIHandler struct {
	BaseHandler
	gallery GalleryService
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(gallery GalleryService, logger *zap.Logger) *APIHandler {
	return &APIHandler{
		BaseHandler: BaseHandler{logger: logger},
		gallery:     gallery,
	}
}

// RegisterRoutes registers all API handler routes
func (h *APIHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/session", h.GetSession)
		r.Get("/works", h.GetWorks)
		r.Get("/favorites", h.GetFavorites)
	})
}

// GetSession handles GET /api/v1/session
// @Summary Get the current session
// @Description Get the user logged in with the session cookie and the admin elevation flag
// @Tags session
// @Produce json
// @Success 200 {object} SessionResponse
// @Router /api/v1/session [get]
func (h *APIHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess := middleware.StateFromContext(r.Context()).Session()
	h.respondJSON(w, http.StatusOK, SessionResponse{
		Authenticated:   sess.IsAuthenticated(),
		User:            sess.User,
		IsAdminElevated: sess.IsAdminElevated,
	})
}

// GetWorks handles GET /api/v1/works
// @Summary Get all works
// @Description Get all works, newest first, with is_favorite relative to the session user
// @Tags works
// @Produce json
// @Param owner query int false "Only works owned by this user id"
// @Success 200 {object} WorksResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /api/v1/works [get]
func (h *APIHandler) GetWorks(w http.ResponseWriter, r *http.Request) {
	owner := 0
	if ownerParam := r.URL.Query().Get("owner"); ownerParam != "" {
		var err error
		owner, err = strconv.Atoi(ownerParam)
		if err != nil || owner <= 0 {
			h.respondError(w, http.StatusBadRequest, "invalid owner parameter")
			return
		}
	}

	snap, ok := h.loadedSnapshot(w, r)
	if !ok {
		return
	}

	works := snap.Works
	if owner > 0 {
		works = snap.OwnedBy(owner)
	}
	h.respondJSON(w, http.StatusOK, WorksResponse{Works: works})
}

// GetFavorites handles GET /api/v1/favorites
// @Summary Get favorite works
// @Description Get the works favorited by the session user
// @Tags works
// @Produce json
// @Success 200 {object} WorksResponse
// @Failure 401 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /api/v1/favorites [get]
func (h *APIHandler) GetFavorites(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.loadedSnapshot(w, r)
	if !ok {
		return
	}
	h.respondJSON(w, http.StatusOK, WorksResponse{Works: snap.Favorites})
}

// loadedSnapshot returns the caller's gallery, fetching it first if it was never loaded.
// It writes the error response itself and reports false on failure.
func (h *APIHandler) loadedSnapshot(w http.ResponseWriter, r *http.Request) (services.Snapshot, bool) {
	st := middleware.StateFromContext(r.Context())
	snap := st.Snapshot()
	if !snap.Session.IsAuthenticated() {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return services.Snapshot{}, false
	}
	if snap.Loaded {
		return snap, true
	}

	if err := h.gallery.Refresh(r.Context(), st); err != nil {
		h.logger.Error("failed to load gallery", zap.Error(err))
		h.respondError(w, http.StatusBadGateway, describeError(err))
		return services.Snapshot{}, false
	}
	return st.Snapshot(), true
}

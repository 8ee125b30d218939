package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/proportfolio/gallery/internal/media"
	"github.com/proportfolio/gallery/internal/middleware"
	"github.com/proportfolio/gallery/internal/models"
	"github.com/proportfolio/gallery/internal/services"
	"github.com/proportfolio/gallery/internal/view"
	"go.uber.org/zap"
)

// SessionService is the interface that wraps methods for session business logic.
type SessionService interface {
	// Method Login checks the credentials with the auth backend and stores the user in "st".
	//
	// If the input is rejected before the backend call, a *models.ValidationError is returned.
	// If the backend rejects the credentials, the returned error wraps a *models.AuthError with the message to show.
	Login(ctx context.Context, st *services.State, req models.LoginRequest) (*models.User, error)
	// Method Register creates an account and stores the new user in "st".
	//
	// Please reference Login method for more information about error values.
	Register(ctx context.Context, st *services.State, req models.RegisterRequest) (*models.User, error)
	// Method UpdateProfile applies the non-nil fields of "upd" to the session user.
	UpdateProfile(ctx context.Context, st *services.State, upd models.ProfileUpdate) (*models.User, error)
	// Method Logout clears the user, the admin elevation and the cached gallery of "st".
	//
	// The state is cleared even when an error is returned.
	Logout(ctx context.Context, st *services.State) error
	// Method ElevateAdmin elevates "st" when "secret" matches the configured admin secret.
	ElevateAdmin(ctx context.Context, st *services.State, secret string) bool
}

// GalleryService is the interface that wraps methods for gallery business logic.
type GalleryService interface {
	// Method Refresh re-fetches the works and favorites of the session user into "st".
	//
	// On error the state is left as it was.
	Refresh(ctx context.Context, st *services.State) error
	// Method ToggleFavorite flips the favorite status of a cached work.
	ToggleFavorite(ctx context.Context, st *services.State, workID int) error
	// Method AddWork creates a work owned by the session user.
	//
	// A blank title or a missing image fails with a *models.ValidationError before any backend call.
	AddWork(ctx context.Context, st *services.State, input models.WorkInput) (*models.Work, error)
	// Method DeleteWork removes a work.
	//
	// If the session is neither the owner nor admin-elevated, a *models.PermissionError is returned without a backend call.
	DeleteWork(ctx context.Context, st *services.State, workID int) error
}

// pageData is the template input: the page model plus the path forms return to
type pageData struct {
	view.Page
	ReturnTo string
}

// ViewHandler serves the HTML screens and form actions of the gallery
type ViewHandler struct {
	BaseHandler
	sessions SessionService
	gallery  GalleryService
	renderer *templateRenderer
}

// NewViewHandler creates a new view handler
func NewViewHandler(sessions SessionService, gallery GalleryService, logger *zap.Logger) (*ViewHandler, error) {
	renderer, err := newTemplateRenderer(logger)
	if err != nil {
		return nil, err
	}
	return &ViewHandler{
		BaseHandler: BaseHandler{logger: logger},
		sessions:    sessions,
		gallery:     gallery,
		renderer:    renderer,
	}, nil
}

// RegisterRoutes registers all view handler routes
func (h *ViewHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.screen(view.ScreenLanding))
	r.Get("/gallery", h.screen(view.ScreenGallery))
	r.Get("/favorites", h.screen(view.ScreenFavorites))
	r.Get("/settings", h.screen(view.ScreenSettings))
	r.Get("/works/{id}", h.WorkDetail)

	r.Post("/auth/login", h.Login)
	r.Post("/auth/register", h.Register)
	r.Post("/auth/logout", h.Logout)
	r.Post("/admin/elevate", h.ElevateAdmin)
	r.Post("/profile", h.UpdateProfile)
	r.Post("/works", h.AddWork)
	r.Post("/works/{id}/favorite", h.ToggleFavorite)
	r.Post("/works/{id}/delete", h.DeleteWork)
}

// screen returns the GET handler of a screen. "modal" and "tab" query parameters select the dialog and settings tab.
func (h *ViewHandler) screen(screen view.Screen) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		h.renderPage(w, r, screen, view.ParseModal(q.Get("modal")), view.Params{Tab: view.ParseTab(q.Get("tab"))})
	}
}

// WorkDetail handles GET /works/{id}
func (h *ViewHandler) WorkDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	h.renderPage(w, r, view.ScreenGallery, view.ModalWork, view.Params{WorkID: id})
}

func (h *ViewHandler) renderPage(w http.ResponseWriter, r *http.Request, screen view.Screen, modal view.Modal, params view.Params) {
	st := middleware.StateFromContext(r.Context())
	if st == nil {
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}

	if pre := st.Snapshot(); pre.Session.IsAuthenticated() && !pre.Loaded {
		if err := h.gallery.Refresh(r.Context(), st); err != nil {
			st.Notify(models.NotificationError, "Could not load works", describeError(err))
		}
	}

	notices := st.TakeNotifications()
	var draft *models.WorkInput
	if modal == view.ModalAddWork {
		draft = st.TakeDraft()
	}
	snap := st.Snapshot()
	snap.Notifications = notices
	snap.Draft = draft

	page := view.Build(snap, screen, modal, params)
	h.renderer.render(w, http.StatusOK, "layout", pageData{Page: page, ReturnTo: returnPath(page)})
}

// Login handles POST /auth/login
func (h *ViewHandler) Login(w http.ResponseWriter, r *http.Request) {
	st := middleware.StateFromContext(r.Context())
	req := models.LoginRequest{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}

	user, err := h.sessions.Login(r.Context(), st, req)
	if err != nil {
		st.Notify(models.NotificationError, "Login failed", describeError(err))
		h.redirect(w, r, "/?modal=login")
		return
	}

	h.refresh(r, st)
	st.Notify(models.NotificationSuccess, fmt.Sprintf("Welcome back, %s!", user.DisplayName), "")
	h.redirect(w, r, "/gallery")
}

// Register handles POST /auth/register
func (h *ViewHandler) Register(w http.ResponseWriter, r *http.Request) {
	st := middleware.StateFromContext(r.Context())
	req := models.RegisterRequest{
		Username:    r.PostFormValue("username"),
		Password:    r.PostFormValue("password"),
		DisplayName: r.PostFormValue("display_name"),
	}

	user, err := h.sessions.Register(r.Context(), st, req)
	if err != nil {
		st.Notify(models.NotificationError, "Registration failed", describeError(err))
		h.redirect(w, r, "/?modal=register")
		return
	}

	h.refresh(r, st)
	st.Notify(models.NotificationSuccess, fmt.Sprintf("Welcome, %s!", user.DisplayName), "Your account has been created")
	h.redirect(w, r, "/gallery")
}

// Logout handles POST /auth/logout
func (h *ViewHandler) Logout(w http.ResponseWriter, r *http.Request) {
	st := middleware.StateFromContext(r.Context())
	if err := h.sessions.Logout(r.Context(), st); err != nil {
		h.logger.Warn("logout left stored session behind", zap.Error(err))
	}
	st.Notify(models.NotificationSuccess, "Logged out", "")
	h.redirect(w, r, "/")
}

// ElevateAdmin handles POST /admin/elevate
func (h *ViewHandler) ElevateAdmin(w http.ResponseWriter, r *http.Request) {
	st := middleware.StateFromContext(r.Context())
	if !st.Session().IsAuthenticated() {
		h.redirect(w, r, "/?modal=login")
		return
	}

	if !h.sessions.ElevateAdmin(r.Context(), st, r.PostFormValue("password")) {
		st.Notify(models.NotificationError, "Access denied", "Wrong password")
		h.redirect(w, r, "/settings?modal=admin")
		return
	}
	st.Notify(models.NotificationSuccess, "Admin mode enabled", "You can now delete any work")
	h.redirect(w, r, "/settings?tab=admin")
}

// AddWork handles POST /works
func (h *ViewHandler) AddWork(w http.ResponseWriter, r *http.Request) {
	st := middleware.StateFromContext(r.Context())
	if !st.Session().IsAuthenticated() {
		h.redirect(w, r, "/?modal=login")
		return
	}

	if err := r.ParseMultipartForm(media.MaxImageSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		st.Notify(models.NotificationError, "Upload failed", "The upload could not be read")
		h.redirect(w, r, "/gallery?modal=add-work")
		return
	}
	input := models.WorkInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	}

	image, err := media.FormImage(r, "image")
	if err == nil {
		input.ImageURL = image
		_, err = h.gallery.AddWork(r.Context(), st, input)
	}
	if err != nil && !isRefreshError(err) {
		st.KeepDraft(input)
		st.Notify(models.NotificationError, "Could not publish", describeError(err))
		h.redirect(w, r, "/gallery?modal=add-work")
		return
	}

	st.Notify(models.NotificationSuccess, "Work published", "")
	h.redirect(w, r, "/gallery")
}

// ToggleFavorite handles POST /works/{id}/favorite
func (h *ViewHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	st := middleware.StateFromContext(r.Context())
	back := safeReturn(r.PostFormValue("return"), "/gallery")
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.redirect(w, r, back)
		return
	}

	if err := h.gallery.ToggleFavorite(r.Context(), st, id); err != nil && !isRefreshError(err) {
		st.Notify(models.NotificationError, "Could not update favorites", describeError(err))
	}
	h.redirect(w, r, back)
}

// DeleteWork handles POST /works/{id}/delete
func (h *ViewHandler) DeleteWork(w http.ResponseWriter, r *http.Request) {
	st := middleware.StateFromContext(r.Context())
	back := safeReturn(r.PostFormValue("return"), "/gallery")
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.redirect(w, r, back)
		return
	}

	if err := h.gallery.DeleteWork(r.Context(), st, id); err != nil && !isRefreshError(err) {
		st.Notify(models.NotificationError, "Could not delete", describeError(err))
		h.redirect(w, r, back)
		return
	}
	st.Notify(models.NotificationSuccess, "Work deleted", "")
	h.redirect(w, r, back)
}

// UpdateProfile handles POST /profile
func (h *ViewHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	st := middleware.StateFromContext(r.Context())
	if !st.Session().IsAuthenticated() {
		h.redirect(w, r, "/?modal=login")
		return
	}

	if err := r.ParseMultipartForm(media.MaxImageSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		st.Notify(models.NotificationError, "Upload failed", "The upload could not be read")
		h.redirect(w, r, "/settings")
		return
	}

	var upd models.ProfileUpdate
	if _, ok := r.Form["display_name"]; ok {
		name := r.FormValue("display_name")
		if current := st.Session().User; current == nil || name != current.DisplayName {
			upd.DisplayName = &name
		}
	}
	if password := r.FormValue("new_password"); password != "" {
		upd.NewPassword = &password
	}
	avatar, err := media.FormImage(r, "avatar")
	if err == nil && avatar != "" {
		upd.AvatarURL = &avatar
	}
	if err == nil {
		_, err = h.sessions.UpdateProfile(r.Context(), st, upd)
	}
	if err != nil {
		st.Notify(models.NotificationError, "Could not save profile", describeError(err))
		h.redirect(w, r, "/settings")
		return
	}

	st.Notify(models.NotificationSuccess, "Profile updated", "")
	h.redirect(w, r, "/settings")
}

// refresh reloads the gallery after a login; a failure is shown but does not undo the login
func (h *ViewHandler) refresh(r *http.Request, st *services.State) {
	if err := h.gallery.Refresh(r.Context(), st); err != nil {
		st.Notify(models.NotificationError, "Could not load works", describeError(err))
	}
}

// isRefreshError reports whether err only failed the refetch that follows a successful write.
// The write took effect; the stale list is reloaded on the next page view.
func isRefreshError(err error) bool {
	return errors.Is(err, services.ErrRefreshFailed)
}

// describeError turns an error into the text shown to the user
func describeError(err error) string {
	var (
		authErr    *models.AuthError
		validErr   *models.ValidationError
		permErr    *models.PermissionError
		serviceErr *models.ServiceError
		netErr     *models.NetworkError
	)
	switch {
	case errors.As(err, &authErr):
		return authErr.Message
	case errors.As(err, &validErr):
		return validErr.Message
	case errors.As(err, &permErr):
		return "You are " + permErr.Error()
	case errors.As(err, &serviceErr):
		return serviceErr.Message
	case errors.As(err, &netErr):
		return "Could not reach the server, please try again"
	case errors.Is(err, media.ErrNotImage), errors.Is(err, media.ErrTooLarge):
		return err.Error()
	default:
		return "Something went wrong"
	}
}

// safeReturn accepts only local paths as redirect targets
func safeReturn(target, fallback string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return fallback
	}
	return target
}

// returnPath is the path a form posted from page should come back to
func returnPath(page view.Page) string {
	switch page.Screen {
	case view.ScreenFavorites:
		return "/favorites"
	case view.ScreenSettings:
		return "/settings?tab=" + string(page.Tab)
	case view.ScreenLanding:
		return "/"
	default:
		return "/gallery"
	}
}

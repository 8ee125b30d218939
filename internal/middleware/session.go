package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/proportfolio/gallery/internal/services"
	"go.uber.org/zap"
)

// SessionCookieName is the cookie carrying the browser session id
const SessionCookieName = "portfolio_session"

// sessionCookieMaxAge keeps the browser session for a year, like local storage would
const sessionCookieMaxAge = 365 * 24 * 60 * 60

// StateRestorer is the interface that wraps the Restore method of the session service.
type StateRestorer interface {
	// Method Restore returns the state of the browser session "sessionID", creating it on first use.
	Restore(ctx context.Context, sessionID string) (*services.State, error)
}

// SessionMiddleware resolves the browser session cookie to its application state.
//
// A missing or malformed cookie starts a new session. The state is available
// to handlers through StateFromContext.
func SessionMiddleware(restorer StateRestorer, secure bool, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := ""
			if cookie, err := r.Cookie(SessionCookieName); err == nil {
				if _, err := uuid.Parse(cookie.Value); err == nil {
					sessionID = cookie.Value
				}
			}
			if sessionID == "" {
				sessionID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookieName,
					Value:    sessionID,
					Path:     "/",
					MaxAge:   sessionCookieMaxAge,
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			st, err := restorer.Restore(r.Context(), sessionID)
			if err != nil {
				logger.Error("failed to restore session",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.Error(err),
				)
				writeError(w, r, http.StatusServiceUnavailable, "session store unavailable")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithState(r.Context(), st)))
		})
	}
}

// StateFromContext returns the state attached by SessionMiddleware, or nil
func StateFromContext(ctx context.Context) *services.State {
	st, _ := ctx.Value(stateKey).(*services.State)
	return st
}

// WithState attaches st to ctx
func WithState(ctx context.Context, st *services.State) context.Context {
	return context.WithValue(ctx, stateKey, st)
}

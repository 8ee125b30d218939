package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/proportfolio/gallery/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockRestorer is a mock implementation of StateRestorer
type mockRestorer struct {
	states map[string]*services.State
	err    error
}

func (m *mockRestorer) Restore(ctx context.Context, sessionID string) (*services.State, error) {
	if m.err != nil {
		return nil, m.err
	}
	if st, ok := m.states[sessionID]; ok {
		return st, nil
	}
	st := services.NewState(sessionID)
	m.states[sessionID] = st
	return st, nil
}

func TestRequestIDMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expectID func(t *testing.T, id string)
	}{
		{
			name:   "keeps caller id",
			header: "abc-123",
			expectID: func(t *testing.T, id string) {
				assert.Equal(t, "abc-123", id)
			},
		},
		{
			name: "generates id",
			expectID: func(t *testing.T, id string) {
				assert.Len(t, id, 36)
			},
		},
		{
			name:   "replaces oversized id",
			header: strings.Repeat("x", 100),
			expectID: func(t *testing.T, id string) {
				assert.Len(t, id, 36)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetRequestID(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("X-Request-ID", tt.header)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			tt.expectID(t, seen)
			assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	tests := []struct {
		path        string
		contentType string
	}{
		{path: "/api/v1/works", contentType: "application/json"},
		{path: "/gallery", contentType: "text/plain; charset=utf-8"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), "internal server error")
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	tests := []struct {
		name           string
		allowed        []string
		origin         string
		preflight      bool
		expectedOrigin string
		expectedStatus int
	}{
		{name: "allowed origin", allowed: []string{"https://a.example"}, origin: "https://A.example", expectedOrigin: "https://A.example", expectedStatus: http.StatusTeapot},
		{name: "other origin", allowed: []string{"https://a.example"}, origin: "https://b.example", expectedOrigin: "", expectedStatus: http.StatusTeapot},
		{name: "wildcard echoes origin", allowed: []string{"*"}, origin: "https://b.example", expectedOrigin: "https://b.example", expectedStatus: http.StatusTeapot},
		{name: "preflight", allowed: []string{"*"}, origin: "https://b.example", preflight: true, expectedOrigin: "https://b.example", expectedStatus: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := http.MethodGet
			if tt.preflight {
				method = http.MethodOptions
			}
			req := httptest.NewRequest(method, "/api/v1/works", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", "GET")
			}
			rec := httptest.NewRecorder()

			CORSMiddleware(tt.allowed)(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.expectedOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	h := RequestSizeLimitMiddleware(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/works", strings.NewReader("0123456789")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/works", strings.NewReader("0123")))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoggerMiddleware(t *testing.T) {
	h := LoggerMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("ok"))
	}))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestSessionMiddleware(t *testing.T) {
	restorer := &mockRestorer{states: map[string]*services.State{}}
	var seen *services.State
	h := SessionMiddleware(restorer, false, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = StateFromContext(r.Context())
	}))

	t.Run("new browser gets a cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, SessionCookieName, cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
		require.NotNil(t, seen)
		assert.Equal(t, cookies[0].Value, seen.Session().ID)
	})

	t.Run("known cookie reuses the state", func(t *testing.T) {
		sid := "6f1c1e8e-4b7a-4f7e-9d57-0c8d6f1b2a3c"
		existing := services.NewState(sid)
		restorer.states[sid] = existing
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sid})
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		assert.Empty(t, rec.Result().Cookies())
		assert.Same(t, existing, seen)
	})

	t.Run("malformed cookie starts over", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "../../etc/passwd"})
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		require.Len(t, rec.Result().Cookies(), 1)
		assert.NotEqual(t, "../../etc/passwd", seen.Session().ID)
	})

	t.Run("store failure", func(t *testing.T) {
		failing := SessionMiddleware(&mockRestorer{err: errors.New("down")}, false, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run")
		}))
		rec := httptest.NewRecorder()

		failing.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/session", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

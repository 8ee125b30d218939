package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	_ "github.com/go-sql-driver/mysql"
	"github.com/proportfolio/gallery/internal/config"
	"github.com/proportfolio/gallery/internal/handlers"
	"github.com/proportfolio/gallery/internal/localstore"
	"github.com/proportfolio/gallery/internal/middleware"
	"github.com/proportfolio/gallery/internal/repositories"
	"github.com/proportfolio/gallery/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testAdminSecret = "integration-secret"

var (
	testDB     *sql.DB
	testLogger *zap.Logger
)

// TestMain connects to the test database. Tests skip when it is unreachable.
func TestMain(m *testing.M) {
	var err error
	testLogger, err = zap.NewDevelopment()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	cfg, err := config.LoadTestConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load test config: %v", err))
	}
	dsn := "root:password@tcp(localhost:3306)/gallery_test?parseTime=true&charset=utf8mb4"
	if cfg.HasDatabase() {
		dsn = cfg.DSN()
	}

	db, err := sql.Open("mysql", dsn)
	if err == nil && db.Ping() == nil {
		testDB = db
		setupTestSchema(testDB)
	} else if db != nil {
		_ = db.Close()
	}

	code := m.Run()

	if testDB != nil {
		testDB.Close()
	}
	os.Exit(code)
}

// setupTestSchema creates the local_storage table
func setupTestSchema(db *sql.DB) {
	query := `
		CREATE TABLE IF NOT EXISTS local_storage (
			storage_key VARCHAR(255) NOT NULL,
			value LONGTEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			PRIMARY KEY (storage_key)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;
	`
	db.Exec(query)
}

// requireDB skips the test without a database and clears the store around it
func requireDB(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	if testDB == nil {
		t.Skip("Skipping integration tests: test database is not reachable")
	}

	_, err := testDB.Exec("DELETE FROM local_storage")
	require.NoError(t, err, "Failed to clear test data")
	t.Cleanup(func() {
		_, err := testDB.Exec("DELETE FROM local_storage")
		require.NoError(t, err, "Failed to cleanup test data")
	})
}

// startServer starts the gallery over the local backend stored in MySQL.
// Each call is a fresh process: no in-memory session survives between two servers.
func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := repositories.NewStorageRepository(testDB, testLogger)

	backend := localstore.NewBackend(store, testLogger)
	_, err := backend.Seed(context.Background())
	require.NoError(t, err)

	sessionSvc := services.NewSessionService(backend, store, testAdminSecret, true, testLogger)
	gallerySvc := services.NewGalleryService(backend, testLogger)

	viewHandler, err := handlers.NewViewHandler(sessionSvc, gallerySvc, testLogger)
	require.NoError(t, err)
	apiHandler := handlers.NewAPIHandler(gallerySvc, testLogger)

	r := chi.NewRouter()
	r.Use(middleware.SessionMiddleware(sessionSvc, false, testLogger))
	viewHandler.RegisterRoutes(r)
	apiHandler.RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func postForm(t *testing.T, c *http.Client, target string, values url.Values) string {
	t.Helper()
	resp, err := c.PostForm(target, values)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.Request.URL.Path
}

func getJSON(t *testing.T, c *http.Client, target string, dst any) int {
	t.Helper()
	resp, err := c.Get(target)
	require.NoError(t, err)
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
	}
	return resp.StatusCode
}

func TestIntegration_SeedOnce(t *testing.T) {
	requireDB(t)
	store := repositories.NewStorageRepository(testDB, testLogger)
	backend := localstore.NewBackend(store, testLogger)

	seeded, err := backend.Seed(context.Background())
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = backend.Seed(context.Background())
	require.NoError(t, err)
	assert.False(t, seeded)

	var count int
	require.NoError(t, testDB.QueryRow("SELECT COUNT(*) FROM local_storage WHERE storage_key IN ('portfolio_users', 'portfolio_works')").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestIntegration_SessionSurvivesRestart(t *testing.T) {
	requireDB(t)
	first := startServer(t)
	c := newBrowser(t)

	landed := postForm(t, c, first.URL+"/auth/login", url.Values{
		"username": {"anna"},
		"password": {localstore.SeedPassword},
	})
	require.Equal(t, "/gallery", landed)
	postForm(t, c, first.URL+"/admin/elevate", url.Values{"password": {testAdminSecret}})

	// Cookies are scoped by host, so the same jar is sent to the second server
	second := startServer(t)

	var session handlers.SessionResponse
	status := getJSON(t, c, second.URL+"/api/v1/session", &session)

	require.Equal(t, http.StatusOK, status)
	assert.True(t, session.Authenticated)
	require.NotNil(t, session.User)
	assert.Equal(t, "anna", session.User.Username)
	assert.True(t, session.IsAdminElevated)
}

func TestIntegration_FavoritesPersist(t *testing.T) {
	requireDB(t)
	srv := startServer(t)
	c := newBrowser(t)
	postForm(t, c, srv.URL+"/auth/login", url.Values{
		"username": {"marco"},
		"password": {localstore.SeedPassword},
	})

	postForm(t, c, srv.URL+"/works/3/favorite", url.Values{"return": {"/gallery"}})

	var favorites handlers.WorksResponse
	status := getJSON(t, c, srv.URL+"/api/v1/favorites", &favorites)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, favorites.Works, 1)
	assert.Equal(t, 3, favorites.Works[0].ID)
	assert.True(t, favorites.Works[0].IsFavorite)

	var raw string
	require.NoError(t, testDB.QueryRow("SELECT value FROM local_storage WHERE storage_key = ?", "portfolio_favorites:2").Scan(&raw))
	assert.JSONEq(t, `[3]`, raw)
}

func TestIntegration_LogoutClearsStoredUser(t *testing.T) {
	requireDB(t)
	srv := startServer(t)
	c := newBrowser(t)
	postForm(t, c, srv.URL+"/auth/login", url.Values{
		"username": {"yuki"},
		"password": {localstore.SeedPassword},
	})

	landed := postForm(t, c, srv.URL+"/auth/logout", nil)
	assert.Equal(t, "/", landed)

	var count int
	require.NoError(t, testDB.QueryRow("SELECT COUNT(*) FROM local_storage WHERE storage_key LIKE 'portfolio_user:%'").Scan(&count))
	assert.Zero(t, count)

	status := getJSON(t, c, srv.URL+"/api/v1/works", &handlers.WorksResponse{})
	assert.Equal(t, http.StatusUnauthorized, status)
}

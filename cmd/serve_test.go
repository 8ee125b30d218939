package main

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/proportfolio/gallery/internal/client"
	"github.com/proportfolio/gallery/internal/config"
	"github.com/proportfolio/gallery/internal/localstore"
	"github.com/proportfolio/gallery/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingSweeper struct {
	calls   atomic.Int32
	maxIdle atomic.Int64
}

func (s *countingSweeper) Sweep(maxIdle time.Duration) int {
	s.calls.Add(1)
	s.maxIdle.Store(int64(maxIdle))
	return 1
}

func TestSweepSessions(t *testing.T) {
	sweeper := &countingSweeper{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sweepSessions(ctx, sweeper, 5*time.Millisecond, time.Hour, zap.NewNop())
		close(done)
	}()

	assert.Eventually(t, func() bool { return sweeper.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(time.Hour), sweeper.maxIdle.Load())

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

func TestSweepSessions_Disabled(t *testing.T) {
	sweeper := &countingSweeper{}

	// Returns immediately without a ticker
	sweepSessions(context.Background(), sweeper, 0, time.Hour, zap.NewNop())

	assert.Zero(t, sweeper.calls.Load())
}

type memoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", models.ErrNotFound
	}
	return v, nil
}

func (m *memoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func TestNewBackends(t *testing.T) {
	ctx := context.Background()

	t.Run("local seeds the store", func(t *testing.T) {
		store := &memoryStore{data: map[string]string{}}
		cfg := &config.Config{Backend: config.BackendLocal, Seed: true}

		auth, portfolio, err := newBackends(ctx, cfg, store, zap.NewNop())

		require.NoError(t, err)
		user, err := auth.Login(ctx, "anna", localstore.SeedPassword)
		require.NoError(t, err)
		works, err := portfolio.ListWorks(ctx, user.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, works)
	})

	t.Run("local without seed stays empty", func(t *testing.T) {
		store := &memoryStore{data: map[string]string{}}
		cfg := &config.Config{Backend: config.BackendLocal}

		_, portfolio, err := newBackends(ctx, cfg, store, zap.NewNop())

		require.NoError(t, err)
		works, err := portfolio.ListWorks(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, works)
	})

	t.Run("remote uses the http client", func(t *testing.T) {
		cfg := &config.Config{
			Backend: config.BackendRemote,
			Remote: config.RemoteConfig{
				AuthURL:      "http://localhost:9999/auth",
				PortfolioURL: "http://localhost:9999/portfolio",
				Timeout:      time.Second,
			},
		}

		auth, portfolio, err := newBackends(ctx, cfg, &memoryStore{data: map[string]string{}}, zap.NewNop())

		require.NoError(t, err)
		assert.IsType(t, &client.Client{}, auth)
		assert.IsType(t, &client.Client{}, portfolio)
	})
}

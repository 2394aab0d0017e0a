package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"elevmaint/backend/services/maintenance-service/internal/kvstore"
	"elevmaint/backend/services/maintenance-service/internal/repository"
)

var errStoreDown = errors.New("store unavailable")

// flakyStore wraps a memory store and fails the first failPuts writes.
type flakyStore struct {
	*kvstore.MemoryStore

	mu       sync.Mutex
	failPuts int
	failAll  bool
	puts     []string
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemoryStore: kvstore.NewMemoryStore()}
}

func (s *flakyStore) Put(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	s.puts = append(s.puts, key)
	if s.failAll || s.failPuts > 0 {
		if s.failPuts > 0 {
			s.failPuts--
		}
		s.mu.Unlock()
		return errStoreDown
	}
	s.mu.Unlock()
	return s.MemoryStore.Put(ctx, key, value)
}

func (s *flakyStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.down() {
		return nil, errStoreDown
	}
	return s.MemoryStore.Get(ctx, key)
}

func (s *flakyStore) GetByPrefix(ctx context.Context, prefix string) ([][]byte, error) {
	if s.down() {
		return nil, errStoreDown
	}
	return s.MemoryStore.GetByPrefix(ctx, prefix)
}

func (s *flakyStore) down() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failAll
}

func (s *flakyStore) putKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.puts...)
}

func newTestReplicator(t *testing.T, store kvstore.Store) *Replicator {
	t.Helper()
	r := NewReplicator(
		repository.NewSessionRepository(store),
		repository.NewElevatorRepository(store),
		ReplicatorConfig{Timeout: time.Second, RetryBackoff: -1},
		zap.NewNop(),
		nil,
	)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = r.Close(ctx)
	})
	return r
}

func flush(t *testing.T, r *Replicator) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Flush(ctx))
}

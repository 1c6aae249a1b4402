package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/wmslite/pkg/types"
)

// newTestStore attaches and initializes a store on a fresh file.
func newTestStore(t testing.TB, mutate ...func(*types.Config)) *Store {
	t.Helper()
	return newTestStoreWithLogger(t, zap.NewNop(), mutate...)
}

func newTestStoreWithLogger(t testing.TB, logger *zap.Logger, mutate ...func(*types.Config)) *Store {
	t.Helper()
	cfg := types.Config{
		DBPath:         filepath.Join(t.TempDir(), "wms.db"),
		PoolSize:       3,
		AcquireTimeout: 2 * time.Second,
	}
	for _, m := range mutate {
		m(&cfg)
	}

	s := NewStore(logger)
	require.NoError(t, s.Attach(cfg))
	t.Cleanup(func() { _ = s.Detach() })
	require.NoError(t, s.Init(context.Background()))
	return s
}

// newTestPool creates an initialized pool of the given size.
func newTestPool(t *testing.T, size int, opts ...PoolOption) *Pool {
	t.Helper()
	p := NewPool(PoolConfig{
		Path:           filepath.Join(t.TempDir(), "wms.db"),
		Size:           size,
		AcquireTimeout: 2 * time.Second,
	}, opts...)
	t.Cleanup(func() { _ = p.Close() })
	require.NoError(t, Initialize(context.Background(), p))
	return p
}

// scoped runs fn in its own scope and fails the test on error.
func scoped[T any](t testing.TB, s *Store, fn func(ctx context.Context, tx *sqlx.Tx) (T, error)) T {
	t.Helper()
	var out T
	err := s.Scope(context.Background(), func(tx *sqlx.Tx) error {
		var err error
		out, err = fn(context.Background(), tx)
		return err
	})
	require.NoError(t, err)
	return out
}

// scopedErr runs fn in its own scope and returns the scope's error.
func scopedErr(s *Store, fn func(ctx context.Context, tx *sqlx.Tx) error) error {
	return s.Scope(context.Background(), func(tx *sqlx.Tx) error {
		return fn(context.Background(), tx)
	})
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

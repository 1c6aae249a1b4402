// Tests for the connection pool: capacity, exhaustion, replacement of
// broken connections, and single initialization.
package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/wmslite/pkg/types"
)

// countingDialer wraps the file dialer, counting dials and failing them
// while fail is set.
type countingDialer struct {
	base  Dialer
	dials atomic.Int32
	fail  atomic.Bool
}

func newCountingDialer(path string) *countingDialer {
	return &countingDialer{base: fileDialer(path)}
}

func (d *countingDialer) dial(ctx context.Context) (*sqlx.DB, error) {
	d.dials.Add(1)
	if d.fail.Load() {
		return nil, errors.New("storage unavailable")
	}
	return d.base(ctx)
}

func TestPoolNeverExceedsCapacity(t *testing.T) {
	const size = 3
	p := newTestPool(t, size)
	ctx := context.Background()

	var current, peak atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	for range 24 {
		g.Go(func() error {
			c, err := p.Acquire(gctx, 5*time.Second)
			if err != nil {
				return err
			}
			n := current.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			current.Add(-1)
			return p.Release(c)
		})
	}
	require.NoError(t, g.Wait())

	assert.LessOrEqual(t, int(peak.Load()), size)
	stats := p.Stats()
	assert.Equal(t, size, stats.Capacity)
	assert.Equal(t, size, stats.Idle)
	assert.Equal(t, 0, stats.InUse)
}

func TestPoolAcquire(t *testing.T) {
	tests := []struct {
		name  string
		check func(t *testing.T, p *Pool)
	}{
		{
			name: "exhausted pool times out with ErrPoolExhausted",
			check: func(t *testing.T, p *Pool) {
				ctx := context.Background()
				a, err := p.Acquire(ctx, 0)
				require.NoError(t, err)
				b, err := p.Acquire(ctx, 0)
				require.NoError(t, err)

				start := time.Now()
				_, err = p.Acquire(ctx, 50*time.Millisecond)
				assert.ErrorIs(t, err, types.ErrPoolExhausted)
				assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

				require.NoError(t, p.Release(a))
				c, err := p.Acquire(ctx, 50*time.Millisecond)
				require.NoError(t, err)
				require.NoError(t, p.Release(b))
				require.NoError(t, p.Release(c))
			},
		},
		{
			name: "waiting acquirer is served as soon as a connection is released",
			check: func(t *testing.T, p *Pool) {
				ctx := context.Background()
				a, err := p.Acquire(ctx, 0)
				require.NoError(t, err)
				b, err := p.Acquire(ctx, 0)
				require.NoError(t, err)

				got := make(chan *Conn, 1)
				errc := make(chan error, 1)
				go func() {
					c, err := p.Acquire(ctx, 5*time.Second)
					if err != nil {
						errc <- err
						return
					}
					got <- c
				}()

				time.Sleep(20 * time.Millisecond)
				require.NoError(t, p.Release(a))

				select {
				case c := <-got:
					assert.Equal(t, a.ID(), c.ID())
					require.NoError(t, p.Release(c))
				case err := <-errc:
					t.Fatalf("acquire failed: %v", err)
				case <-time.After(2 * time.Second):
					t.Fatal("waiter was not served after release")
				}
				require.NoError(t, p.Release(b))
			},
		},
		{
			name: "cancelled context stops the wait",
			check: func(t *testing.T, p *Pool) {
				a, err := p.Acquire(context.Background(), 0)
				require.NoError(t, err)
				b, err := p.Acquire(context.Background(), 0)
				require.NoError(t, err)

				ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
				defer cancel()
				_, err = p.Acquire(ctx, 5*time.Second)
				assert.ErrorIs(t, err, context.DeadlineExceeded)

				require.NoError(t, p.Release(a))
				require.NoError(t, p.Release(b))
			},
		},
		{
			name: "cancelled context with idle connections keeps capacity",
			check: func(t *testing.T, p *Pool) {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				for range 40 {
					_, err := p.Acquire(ctx, 0)
					assert.ErrorIs(t, err, context.Canceled)
					assert.NotErrorIs(t, err, types.ErrPoolCorruption)
				}

				st := p.Stats()
				assert.Equal(t, p.Capacity(), st.Idle)
				assert.Zero(t, st.InUse)
				assert.Zero(t, st.Lost)
				assert.Zero(t, st.Replacements)

				c, err := p.Acquire(context.Background(), 0)
				require.NoError(t, err)
				require.NoError(t, p.Release(c))
			},
		},
		{
			name: "broken idle connection is replaced on acquire",
			check: func(t *testing.T, p *Pool) {
				ctx := context.Background()
				a, err := p.Acquire(ctx, 0)
				require.NoError(t, err)
				require.NoError(t, a.close())
				p.mu.Lock()
				delete(p.out, a)
				p.mu.Unlock()
				p.idle <- a

				// Drain the healthy one first so the broken one is handed out.
				b, err := p.Acquire(ctx, 0)
				require.NoError(t, err)
				c, err := p.Acquire(ctx, 0)
				require.NoError(t, err)

				ids := []string{b.ID(), c.ID()}
				assert.NotContains(t, ids, a.ID())
				assert.Equal(t, 1, p.Stats().Replacements)

				require.NoError(t, p.Release(b))
				require.NoError(t, p.Release(c))
				assert.Equal(t, 2, p.Stats().Idle)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, newTestPool(t, 2))
		})
	}
}

func TestPoolRelease(t *testing.T) {
	tests := []struct {
		name  string
		check func(t *testing.T, p *Pool)
	}{
		{
			name: "releasing nil is a no-op",
			check: func(t *testing.T, p *Pool) {
				assert.NoError(t, p.Release(nil))
			},
		},
		{
			name: "broken connection is replaced and capacity is kept",
			check: func(t *testing.T, p *Pool) {
				ctx := context.Background()
				c, err := p.Acquire(ctx, 0)
				require.NoError(t, err)
				require.NoError(t, c.close())

				require.NoError(t, p.Release(c))

				next, err := p.Acquire(ctx, 0)
				require.NoError(t, err)
				assert.NotEqual(t, c.ID(), next.ID())
				require.NoError(t, p.Release(next))

				stats := p.Stats()
				assert.Equal(t, 1, stats.Capacity)
				assert.Equal(t, 1, stats.Idle)
				assert.Equal(t, 1, stats.Replacements)
				assert.Equal(t, 0, stats.Lost)
			},
		},
		{
			name: "releasing twice is refused",
			check: func(t *testing.T, p *Pool) {
				c, err := p.Acquire(context.Background(), 0)
				require.NoError(t, err)
				require.NoError(t, p.Release(c))
				assert.ErrorIs(t, p.Release(c), types.ErrInvalidArgument)
			},
		},
		{
			name: "connection from another pool is refused",
			check: func(t *testing.T, p *Pool) {
				other := newTestPool(t, 1)
				c, err := other.Acquire(context.Background(), 0)
				require.NoError(t, err)
				assert.ErrorIs(t, p.Release(c), types.ErrInvalidArgument)
				require.NoError(t, other.Release(c))
			},
		},
		{
			name: "uncommitted transaction is rolled back on release",
			check: func(t *testing.T, p *Pool) {
				ctx := context.Background()
				c, err := p.Acquire(ctx, 0)
				require.NoError(t, err)
				tx, err := c.Begin(ctx)
				require.NoError(t, err)
				_, err = tx.ExecContext(ctx, "INSERT INTO categories (name) VALUES ('Dangling')")
				require.NoError(t, err)
				require.NoError(t, p.Release(c))

				var n int
				require.NoError(t, p.Scope(ctx, func(tx *sqlx.Tx) error {
					return tx.GetContext(ctx, &n, "SELECT COUNT(*) FROM categories")
				}))
				assert.Equal(t, 0, n)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, newTestPool(t, 1))
		})
	}
}

func TestPoolCorruptionWhenReplacementFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wms.db")
	d := newCountingDialer(path)
	p := NewPool(PoolConfig{Path: path, Size: 1}, WithDialer(d.dial))
	t.Cleanup(func() { _ = p.Close() })

	ctx := context.Background()
	c, err := p.Acquire(ctx, 0)
	require.NoError(t, err)
	require.NoError(t, c.close())
	d.fail.Store(true)

	err = p.Release(c)
	assert.ErrorIs(t, err, types.ErrPoolCorruption)
	assert.Equal(t, 1, p.Stats().Lost)

	_, err = p.Acquire(ctx, 20*time.Millisecond)
	assert.ErrorIs(t, err, types.ErrPoolExhausted)
}

func TestPoolOpensOnce(t *testing.T) {
	const size = 4
	path := filepath.Join(t.TempDir(), "wms.db")
	d := newCountingDialer(path)
	p := NewPool(PoolConfig{Path: path, Size: size}, WithDialer(d.dial))
	t.Cleanup(func() { _ = p.Close() })

	g, ctx := errgroup.WithContext(context.Background())
	for range 16 {
		g.Go(func() error {
			c, err := p.Acquire(ctx, 5*time.Second)
			if err != nil {
				return err
			}
			return p.Release(c)
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(size), d.dials.Load())
	assert.Equal(t, size, p.Stats().Idle)
}

func TestPoolFillFailureIsSticky(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wms.db")
	d := newCountingDialer(path)
	d.fail.Store(true)
	p := NewPool(PoolConfig{Path: path, Size: 2}, WithDialer(d.dial))
	t.Cleanup(func() { _ = p.Close() })

	_, err := p.Acquire(context.Background(), 0)
	require.Error(t, err)
	_, err2 := p.Acquire(context.Background(), 0)
	assert.Equal(t, err, err2)
	assert.Equal(t, int32(1), d.dials.Load())
}

func TestPoolClose(t *testing.T) {
	p := newTestPool(t, 1)
	ctx := context.Background()

	held, err := p.Acquire(ctx, 0)
	require.NoError(t, err)

	errc := make(chan error, 1)
	go func() {
		_, err := p.Acquire(ctx, 5*time.Second)
		errc <- err
	}()
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, p.Close())
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, types.ErrPoolClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter was not woken by Close")
	}

	assert.NoError(t, p.Release(held))
	_, err = p.Acquire(ctx, 0)
	assert.ErrorIs(t, err, types.ErrPoolClosed)
	assert.NoError(t, p.Close())
}

func TestPutIdleAfterClose(t *testing.T) {
	p := newTestPool(t, 1)
	ctx := context.Background()

	c, err := p.Acquire(ctx, 0)
	require.NoError(t, err)
	require.NoError(t, p.Close())

	// A release that passed its closed check before Close ran still ends
	// here; the connection must be closed, not parked in the drained pool.
	p.putIdle(c)
	assert.Zero(t, len(p.idle))
	assert.Error(t, c.probe(ctx))
}

func TestFileDSN(t *testing.T) {
	dsn := fileDSN("/tmp/wms.db")
	assert.Contains(t, dsn, "/tmp/wms.db?")
	assert.Contains(t, dsn, "_txlock=immediate")
	assert.Contains(t, dsn, "busy_timeout%285000%29")
	assert.Contains(t, dsn, "journal_mode%28WAL%29")
}

// Package sqlite implements the pooled, transactional data-access layer of the
// warehouse store on top of a single SQLite file: the connection pool, the
// transaction scope, schema initialization, and the domain repositories.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/wmslite/pkg/types"
)

// driverName is the database/sql driver registered by modernc.org/sqlite.
const driverName = "sqlite"

// busyTimeout bounds how long a statement waits on a file lock held by
// another pooled connection.
const busyTimeout = 5 * time.Second

// Dialer opens one new storage connection.
type Dialer func(ctx context.Context) (*sqlx.DB, error)

// PoolConfig sizes a Pool.
type PoolConfig struct {
	Path           string
	Size           int
	AcquireTimeout time.Duration
}

// PoolStats is a point-in-time view of the pool.
type PoolStats struct {
	Capacity     int
	Idle         int
	InUse        int
	Replacements int
	Lost         int
}

// PoolOption customizes a Pool.
type PoolOption func(*Pool)

// WithLogger sets the logger used for pool events.
func WithLogger(l *zap.Logger) PoolOption {
	return func(p *Pool) { p.logger = l }
}

// WithDialer replaces the function used to open connections.
func WithDialer(d Dialer) PoolOption {
	return func(p *Pool) { p.dial = d }
}

// Pool owns a fixed number of reusable storage connections. It is filled
// exactly once, on first use; afterwards the number of connections it owns
// (idle plus checked out) stays at Size. A connection that fails its liveness
// probe is replaced transparently; if the replacement cannot be opened the
// pool reports ErrPoolCorruption.
type Pool struct {
	cfg    PoolConfig
	dial   Dialer
	logger *zap.Logger

	once    sync.Once
	initErr error
	idle    chan *Conn
	done    chan struct{}

	mu           sync.Mutex
	closed       bool
	out          map[*Conn]struct{}
	replacements int
	lost         int
}

// NewPool creates an unfilled pool. No connection is opened until the first
// Open, Acquire, or Scope call.
func NewPool(cfg PoolConfig, opts ...PoolOption) *Pool {
	if cfg.Size < 1 {
		cfg.Size = types.DefaultPoolSize
	}
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = types.DefaultAcquireTimeout
	}
	p := &Pool{
		cfg:    cfg,
		logger: zap.NewNop(),
		idle:   make(chan *Conn, cfg.Size),
		done:   make(chan struct{}),
		out:    make(map[*Conn]struct{}),
	}
	p.dial = fileDialer(cfg.Path)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Path returns the store file the pool connects to.
func (p *Pool) Path() string {
	return p.cfg.Path
}

// Capacity returns the fixed number of connections the pool manages.
func (p *Pool) Capacity() int {
	return p.cfg.Size
}

// Open fills the pool if it has not been filled yet. Concurrent callers
// block until the single fill finishes and all observe its result.
func (p *Pool) Open(ctx context.Context) error {
	p.once.Do(func() {
		p.initErr = p.fill(context.WithoutCancel(ctx))
	})
	return p.initErr
}

func (p *Pool) fill(ctx context.Context) error {
	conns := make([]*Conn, 0, p.cfg.Size)
	for range p.cfg.Size {
		c, err := p.newConn(ctx)
		if err != nil {
			for _, c := range conns {
				_ = c.close()
			}
			return fmt.Errorf("opening pool connection: %w", err)
		}
		conns = append(conns, c)
	}
	for _, c := range conns {
		p.idle <- c
	}
	p.logger.Info("connection pool ready",
		zap.String("path", p.cfg.Path),
		zap.Int("capacity", p.cfg.Size))
	return nil
}

func (p *Pool) newConn(ctx context.Context) (*Conn, error) {
	db, err := p.dial(ctx)
	if err != nil {
		return nil, err
	}
	return &Conn{id: newConnID(), db: db}, nil
}

// Acquire checks out a healthy connection, waiting up to timeout for one to
// become idle. A timeout <= 0 uses the pool's configured acquire timeout.
// Returns ErrPoolExhausted if none became idle in time.
func (p *Pool) Acquire(ctx context.Context, timeout time.Duration) (*Conn, error) {
	if err := p.Open(ctx); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = p.cfg.AcquireTimeout
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var c *Conn
	select {
	case c = <-p.idle:
	case <-p.done:
		return nil, types.ErrPoolClosed
	case <-timer.C:
		return nil, fmt.Errorf("%w: no connection became idle within %s", types.ErrPoolExhausted, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		_ = c.close()
		return nil, types.ErrPoolClosed
	}
	p.mu.Unlock()

	// The caller gave up; the connection is still healthy and goes back.
	if err := ctx.Err(); err != nil {
		p.putIdle(c)
		return nil, err
	}

	// Probe and replacement must not fail on the caller's cancellation.
	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.AcquireTimeout)
	defer cancel()
	if err := c.probe(hctx); err != nil {
		p.logger.Warn("idle connection failed probe",
			zap.String("conn", c.id), zap.Error(err))
		fresh, err := p.replace(hctx, c)
		if err != nil {
			return nil, err
		}
		c = fresh
	}

	p.mu.Lock()
	p.out[c] = struct{}{}
	p.mu.Unlock()
	return c, nil
}

// Release returns a checked-out connection. Any open transaction is rolled
// back first, then the connection is probed; a connection that fails either
// step is closed and replaced so capacity never shrinks. Releasing nil is a
// no-op.
func (p *Pool) Release(c *Conn) error {
	if c == nil {
		return nil
	}

	p.mu.Lock()
	if _, ok := p.out[c]; !ok {
		p.mu.Unlock()
		return fmt.Errorf("%w: connection %s is not checked out from this pool", types.ErrInvalidArgument, c.id)
	}
	delete(p.out, c)
	closed := p.closed
	p.mu.Unlock()

	if closed {
		return c.close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.AcquireTimeout)
	defer cancel()

	err := c.rollback()
	if err == nil {
		err = c.probe(ctx)
	}
	if err != nil {
		p.logger.Warn("released connection is unhealthy",
			zap.String("conn", c.id), zap.Error(err))
		fresh, rerr := p.replace(ctx, c)
		if rerr != nil {
			return rerr
		}
		c = fresh
	}

	p.putIdle(c)
	return nil
}

// putIdle returns c to the idle set, or closes it if the pool was closed in
// the meantime. The send happens under mu so Close cannot drain idle between
// the check and the send; idle has room for every owned connection, so the
// send never blocks.
func (p *Pool) putIdle(c *Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		_ = c.close()
		return
	}
	p.idle <- c
}

// replace closes a broken connection and opens a new one in its slot.
func (p *Pool) replace(ctx context.Context, broken *Conn) (*Conn, error) {
	_ = broken.close()

	fresh, err := p.newConn(ctx)
	if err != nil {
		p.mu.Lock()
		p.lost++
		p.mu.Unlock()
		p.logger.Error("could not replace broken connection",
			zap.String("conn", broken.id), zap.Error(err))
		return nil, fmt.Errorf("%w: replacing connection %s: %v", types.ErrPoolCorruption, broken.id, err)
	}
	if err := fresh.probe(ctx); err != nil {
		_ = fresh.close()
		p.mu.Lock()
		p.lost++
		p.mu.Unlock()
		p.logger.Error("replacement connection failed probe",
			zap.String("conn", fresh.id), zap.Error(err))
		return nil, fmt.Errorf("%w: replacement for %s failed probe: %v", types.ErrPoolCorruption, broken.id, err)
	}

	p.mu.Lock()
	p.replacements++
	p.mu.Unlock()
	p.logger.Info("replaced broken connection",
		zap.String("old", broken.id), zap.String("new", fresh.id))
	return fresh, nil
}

// Stats reports the current pool occupancy.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PoolStats{
		Capacity:     p.cfg.Size,
		Idle:         len(p.idle),
		InUse:        len(p.out),
		Replacements: p.replacements,
		Lost:         p.lost,
	}
}

// Close closes every idle connection and refuses further acquisitions.
// Connections still checked out are closed when released. Close is
// idempotent.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.done)
	p.mu.Unlock()

	var errs []error
	for {
		select {
		case c := <-p.idle:
			if err := c.close(); err != nil {
				errs = append(errs, err)
			}
		default:
			return errors.Join(errs...)
		}
	}
}

// Conn is one pooled storage connection. While checked out it is owned
// exclusively by its holder.
type Conn struct {
	id string
	db *sqlx.DB
	tx *sqlx.Tx
}

// ID returns a unique identifier for the connection, stable for its lifetime.
func (c *Conn) ID() string {
	return c.id
}

// Begin starts a transaction on the connection. Only one transaction may be
// open at a time.
func (c *Conn) Begin(ctx context.Context) (*sqlx.Tx, error) {
	if c.tx != nil {
		return nil, fmt.Errorf("%w: connection %s already has an open transaction", types.ErrInvalidArgument, c.id)
	}
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	c.tx = tx
	return tx, nil
}

// Commit commits the open transaction.
func (c *Conn) Commit() error {
	if c.tx == nil {
		return fmt.Errorf("%w: connection %s has no open transaction", types.ErrInvalidArgument, c.id)
	}
	tx := c.tx
	c.tx = nil
	return tx.Commit()
}

// rollback discards the open transaction, if any.
func (c *Conn) rollback() error {
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

// abort ends any engine-level transaction left open after a failed commit.
// database/sql marks the Tx done even when COMMIT itself fails, so the
// ROLLBACK is issued directly; "no transaction is active" is expected.
func (c *Conn) abort(ctx context.Context) {
	c.tx = nil
	_, _ = c.db.ExecContext(ctx, "ROLLBACK")
}

func (c *Conn) probe(ctx context.Context) error {
	var one int
	return c.db.QueryRowxContext(ctx, "SELECT 1").Scan(&one)
}

func (c *Conn) close() error {
	return c.db.Close()
}

// fileDialer opens single-connection handles on the SQLite file at path.
// Each handle is pinned to one physical connection so a pooled Conn maps to
// exactly one engine connection.
func fileDialer(path string) Dialer {
	dsn := fileDSN(path)
	return func(ctx context.Context) (*sqlx.DB, error) {
		db, err := sqlx.Open(driverName, dsn)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}
}

// fileDSN builds the modernc.org/sqlite DSN. Transactions take the write
// lock at BEGIN so concurrent scopes serialize on busy_timeout instead of
// failing on lock upgrade. Foreign keys stay off: cascades are explicit.
func fileDSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "foreign_keys(0)")
	q.Set("_txlock", "immediate")
	return path + "?" + q.Encode()
}

// newConnID returns a time-ordered identifier for a connection.
func newConnID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

package sqlite

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/wmslite/pkg/types"
)

// Store wires a Pool to the repositories that run inside its scopes.
// Repository methods take the Querier handed to a Scope callback, so several
// operations can share one transaction.
type Store struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	logger   *zap.Logger
	pool     *Pool

	Products  *Products
	Locations *Locations
	Zones     *Zones
	Orders    *Orders
	Inventory *Inventory
	History   *History
}

// NewStore creates a detached store. Call Attach to bind it to a file.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{logger: logger}
}

// Attach validates config, builds the connection pool, and creates the
// repositories. The pool is filled lazily on first use; call Init to apply
// the schema. Returns ErrAlreadyAttached if already attached.
func (s *Store) Attach(config types.Config, opts ...PoolOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attached {
		return types.ErrAlreadyAttached
	}

	config = config.WithDefaults()
	if err := config.Validate(); err != nil {
		return err
	}

	poolOpts := append([]PoolOption{WithLogger(s.logger.Named("pool"))}, opts...)
	s.pool = NewPool(PoolConfig{
		Path:           config.DBPath,
		Size:           config.PoolSize,
		AcquireTimeout: config.AcquireTimeout,
	}, poolOpts...)
	s.config = config

	repoLog := s.logger.Named("repo")
	s.Products = NewProducts(repoLog, config.StockPolicy)
	s.Locations = NewLocations()
	s.Orders = NewOrders()
	s.Zones = NewZones(repoLog, s.Locations, s.Orders)
	s.Inventory = NewInventory()
	s.History = NewHistory()

	s.attached = true
	return nil
}

// Init applies the schema and seeds the built-in order types.
func (s *Store) Init(ctx context.Context) error {
	pool, err := s.currentPool()
	if err != nil {
		return err
	}
	if err := Initialize(ctx, pool); err != nil {
		return err
	}

	ots, err := DefaultOrderTypes()
	if err != nil {
		return err
	}
	return pool.Scope(ctx, func(tx *sqlx.Tx) error {
		n, err := SeedOrderTypes(ctx, tx, s.Orders, ots)
		if err != nil {
			return err
		}
		if n > 0 {
			s.logger.Info("seeded order types", zap.Int("count", n))
		}
		return nil
	})
}

// Scope runs fn as one unit of work on a pooled connection.
// See Pool.Scope for the commit and rollback rules.
func (s *Store) Scope(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	pool, err := s.currentPool()
	if err != nil {
		return err
	}
	return pool.Scope(ctx, fn)
}

// Pool returns the store's connection pool, or nil when detached.
func (s *Store) Pool() *Pool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pool
}

// Config returns the effective configuration, defaults applied.
func (s *Store) Config() types.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

func (s *Store) currentPool() (*Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return nil, types.ErrStoreDetached
	}
	return s.pool, nil
}

// Detach closes the pool. After Detach, Scope and Init return
// ErrStoreDetached. Detach is idempotent.
func (s *Store) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil
	}
	s.attached = false
	if err := s.pool.Close(); err != nil {
		return fmt.Errorf("closing pool: %w", err)
	}
	return nil
}

package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/wmslite/pkg/types"
)

// Querier is the statement surface repositories run against. *sqlx.Tx
// satisfies it, so every repository call inside a scope shares the scope's
// connection and transaction.
type Querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

var _ Querier = (*sqlx.Tx)(nil)

// Scope runs fn as one unit of work on one pooled connection.
//
// The connection is acquired with the pool's default timeout. If fn returns
// nil the transaction is committed; a failed commit is rolled back and
// reported as ErrCommitFailure. If fn returns an error (or panics) the
// transaction is rolled back and the error is returned unchanged. The
// connection is released on every path. Scopes do not nest: fn must not call
// Scope on the same pool.
func (p *Pool) Scope(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	conn, err := p.Acquire(ctx, 0)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := p.Release(conn); rerr != nil {
			p.logger.Error("releasing scope connection",
				zap.String("conn", conn.ID()), zap.Error(rerr))
			if err == nil {
				err = rerr
			}
		}
	}()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = conn.rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := conn.rollback(); rbErr != nil {
			p.logger.Warn("rolling back failed unit of work",
				zap.String("conn", conn.ID()), zap.Error(rbErr))
		}
		return err
	}

	if err := conn.Commit(); err != nil {
		conn.abort(context.WithoutCancel(ctx))
		p.logger.Warn("commit failed",
			zap.String("conn", conn.ID()), zap.Error(err))
		return fmt.Errorf("%w: %v", types.ErrCommitFailure, err)
	}
	return nil
}

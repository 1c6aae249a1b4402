// Tests for built-in order type seeding.
package sqlite

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/wmslite/pkg/types"
)

func TestDefaultOrderTypes(t *testing.T) {
	ots, err := DefaultOrderTypes()
	require.NoError(t, err)
	require.Len(t, ots, 5)

	byCode := make(map[string]types.OrderType, len(ots))
	for _, ot := range ots {
		byCode[ot.Code] = ot
	}
	assert.Equal(t, []string{"Picking", "Dispatch", "Storage"}, byCode[types.OrderTypeOutbound].AllowedSourceZones)
	assert.True(t, byCode[types.OrderTypeTransfer].RequiresSourceLocation)
	assert.False(t, byCode[types.OrderTypeTransfer].AffectsStock)
	assert.Empty(t, byCode[types.OrderTypeStockIn].AllowedDestinationZones)
}

func TestSeedOrderTypesIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ots, err := DefaultOrderTypes()
	require.NoError(t, err)

	// Init already seeded; a second pass inserts nothing.
	n := scoped(t, s, func(ctx context.Context, tx *sqlx.Tx) (int, error) {
		return SeedOrderTypes(ctx, tx, s.Orders, ots)
	})
	assert.Zero(t, n)

	extra := append(ots, types.OrderType{Code: "RETURN", Name: "Customer return"})
	n = scoped(t, s, func(ctx context.Context, tx *sqlx.Tx) (int, error) {
		return SeedOrderTypes(ctx, tx, s.Orders, extra)
	})
	assert.Equal(t, 1, n)
}

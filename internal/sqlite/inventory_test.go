// Tests for inventory placements.
package sqlite

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/wmslite/pkg/types"
)

func TestInventory(t *testing.T) {
	s := newTestStore(t)

	type ids struct{ product, location int64 }
	f := scoped(t, s, func(ctx context.Context, tx *sqlx.Tx) (ids, error) {
		p, _, err := s.Products.AddProduct(ctx, tx, types.NewProduct{SKU: "HAM-1", Name: "Hammer"})
		if err != nil {
			return ids{}, err
		}
		l, err := s.Locations.AddLocation(ctx, tx, "Storage", "01", "02", "03")
		return ids{p, l}, err
	})

	scoped(t, s, func(ctx context.Context, tx *sqlx.Tx) (int64, error) {
		return s.Inventory.AddInventory(ctx, tx, types.Inventory{
			ProductID: f.product, LocationID: f.location, Quantity: 2, MinQuantity: 5, MaxQuantity: intPtr(50),
		})
	})
	scoped(t, s, func(ctx context.Context, tx *sqlx.Tx) (int64, error) {
		return s.Inventory.AddInventory(ctx, tx, types.Inventory{
			ProductID: f.product, LocationID: f.location, Quantity: 20, MinQuantity: 5,
		})
	})

	levels := scoped(t, s, func(ctx context.Context, tx *sqlx.Tx) ([]types.InventoryLevel, error) {
		return s.Inventory.InventoryLevels(ctx, tx)
	})
	require.Len(t, levels, 2)
	assert.Equal(t, "Hammer", levels[0].ProductName)
	assert.Equal(t, "Storage", levels[0].Zone)
	assert.Equal(t, "02", levels[0].Shelf)
	assert.True(t, levels[0].Low())
	require.NotNil(t, levels[0].MaxQuantity)
	assert.Equal(t, 50, *levels[0].MaxQuantity)
	assert.False(t, levels[1].Low())
	assert.Nil(t, levels[1].MaxQuantity)

	low := scoped(t, s, func(ctx context.Context, tx *sqlx.Tx) (int, error) {
		return s.Inventory.LowStockCount(ctx, tx)
	})
	assert.Equal(t, 1, low)

	for _, inv := range []types.Inventory{
		{ProductID: 999, LocationID: f.location},
		{ProductID: f.product, LocationID: 999},
	} {
		err := scopedErr(s, func(ctx context.Context, tx *sqlx.Tx) error {
			_, err := s.Inventory.AddInventory(ctx, tx, inv)
			return err
		})
		assert.ErrorIs(t, err, types.ErrNotFound)
	}
}

package sqlite

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/wmslite/pkg/types"
)

// Inventory manages product placements at locations.
type Inventory struct{}

// NewInventory creates an inventory repository.
func NewInventory() *Inventory {
	return &Inventory{}
}

// AddInventory places quantity of a product at a location and returns the
// placement ID. Returns ErrNotFound if the product or location is missing.
func (r *Inventory) AddInventory(ctx context.Context, q Querier, inv types.Inventory) (int64, error) {
	var exists int
	if err := q.GetContext(ctx, &exists,
		"SELECT 1 FROM products WHERE product_id = ?", inv.ProductID); err != nil {
		return 0, notFound(err, fmt.Sprintf("product %d", inv.ProductID))
	}
	if err := q.GetContext(ctx, &exists,
		"SELECT 1 FROM locations WHERE location_id = ?", inv.LocationID); err != nil {
		return 0, notFound(err, fmt.Sprintf("location %d", inv.LocationID))
	}

	res, err := q.ExecContext(ctx,
		`INSERT INTO inventory (product_id, location_id, quantity, min_quantity, max_quantity)
		 VALUES (?, ?, ?, ?, ?)`,
		inv.ProductID, inv.LocationID, inv.Quantity, inv.MinQuantity, inv.MaxQuantity)
	if err != nil {
		return 0, mapExecErr(err, "adding inventory")
	}
	return res.LastInsertId()
}

// InventoryLevels returns every placement joined with its product and
// location.
func (r *Inventory) InventoryLevels(ctx context.Context, q Querier) ([]types.InventoryLevel, error) {
	levels := []types.InventoryLevel{}
	err := q.SelectContext(ctx, &levels,
		`SELECT i.inventory_id, i.product_id, i.location_id, i.quantity, i.min_quantity, i.max_quantity,
			p.name AS product_name, p.sku, l.zone, l.aisle, l.shelf, l.position
		 FROM inventory i
		 JOIN products p ON i.product_id = p.product_id
		 JOIN locations l ON i.location_id = l.location_id
		 ORDER BY l.zone, l.aisle, l.shelf, l.position, i.inventory_id`)
	if err != nil {
		return nil, fmt.Errorf("listing inventory levels: %w", err)
	}
	return levels, nil
}

// LowStockCount returns how many placements are at or below their minimum.
func (r *Inventory) LowStockCount(ctx context.Context, q Querier) (int, error) {
	var n int
	if err := q.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM inventory WHERE quantity <= min_quantity"); err != nil {
		return 0, fmt.Errorf("counting low stock: %w", err)
	}
	return n, nil
}

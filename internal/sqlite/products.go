package sqlite

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/wmslite/pkg/types"
)

// Products manages categories and products, including the only code path
// that mutates product stock.
type Products struct {
	logger *zap.Logger
	policy types.StockPolicy
}

// NewProducts creates a product repository applying the given stock policy.
func NewProducts(logger *zap.Logger, policy types.StockPolicy) *Products {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy == "" {
		policy = types.StockAllowNegative
	}
	return &Products{logger: logger, policy: policy}
}

// AddCategory inserts a category and returns its ID.
// Returns ErrConstraintViolation if the name is already taken.
func (r *Products) AddCategory(ctx context.Context, q Querier, name string) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("%w: category name must not be empty", types.ErrInvalidArgument)
	}
	res, err := q.ExecContext(ctx, "INSERT INTO categories (name) VALUES (?)", name)
	if err != nil {
		return 0, mapExecErr(err, fmt.Sprintf("adding category %q", name))
	}
	return res.LastInsertId()
}

// ListCategories returns all categories ordered by name.
func (r *Products) ListCategories(ctx context.Context, q Querier) ([]types.Category, error) {
	cats := []types.Category{}
	if err := q.SelectContext(ctx, &cats,
		"SELECT category_id, name FROM categories ORDER BY name ASC"); err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return cats, nil
}

// DeleteCategory deletes the category and returns true, or returns false
// without deleting when products still reference it.
// Returns ErrNotFound if the category does not exist.
func (r *Products) DeleteCategory(ctx context.Context, q Querier, id int64) (bool, error) {
	var refs int
	if err := q.GetContext(ctx, &refs,
		"SELECT COUNT(*) FROM products WHERE category_id = ?", id); err != nil {
		return false, fmt.Errorf("counting products of category %d: %w", id, err)
	}
	if refs > 0 {
		return false, nil
	}

	res, err := q.ExecContext(ctx, "DELETE FROM categories WHERE category_id = ?", id)
	if err != nil {
		return false, fmt.Errorf("deleting category %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, fmt.Errorf("%w: category %d", types.ErrNotFound, id)
	}
	return true, nil
}

// AddProduct inserts a product and reports whether its SKU collided with an
// existing row. A collision does not reject the insert: the new row is
// stored with is_duplicate set and existing rows are left untouched.
func (r *Products) AddProduct(ctx context.Context, q Querier, p types.NewProduct) (id int64, isDuplicate bool, err error) {
	if p.SKU == "" || p.Name == "" {
		return 0, false, fmt.Errorf("%w: product sku and name are required", types.ErrInvalidArgument)
	}

	var existing int
	if err := q.GetContext(ctx, &existing,
		"SELECT COUNT(*) FROM products WHERE sku = ?", p.SKU); err != nil {
		return 0, false, fmt.Errorf("checking sku %q: %w", p.SKU, err)
	}
	isDuplicate = existing > 0

	res, err := q.ExecContext(ctx,
		`INSERT INTO products (sku, code, name, description, category_id, min_stock, max_stock, stock, is_duplicate)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.SKU, p.Code, p.Name, p.Description, p.CategoryID, p.MinStock, p.MaxStock, p.Stock, isDuplicate)
	if err != nil {
		return 0, false, mapExecErr(err, fmt.Sprintf("adding product %q", p.SKU))
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, false, err
	}
	if isDuplicate {
		r.logger.Info("product stored with duplicate sku",
			zap.String("sku", p.SKU), zap.Int64("product_id", id))
	}
	return id, isDuplicate, nil
}

const productColumns = `p.product_id, p.sku, p.code, p.name, p.description, p.category_id,
	c.name AS category_name, p.min_stock, p.max_stock, p.stock, p.is_duplicate`

const productFrom = ` FROM products p LEFT JOIN categories c ON p.category_id = c.category_id`

// Product returns the product with the given ID.
func (r *Products) Product(ctx context.Context, q Querier, id int64) (*types.Product, error) {
	var p types.Product
	err := q.GetContext(ctx, &p, "SELECT "+productColumns+productFrom+" WHERE p.product_id = ?", id)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("product %d", id))
	}
	return &p, nil
}

// ProductBySKU returns the first product stored with sku.
func (r *Products) ProductBySKU(ctx context.Context, q Querier, sku string) (*types.Product, error) {
	var p types.Product
	err := q.GetContext(ctx, &p,
		"SELECT "+productColumns+productFrom+" WHERE p.sku = ? ORDER BY p.product_id ASC LIMIT 1", sku)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("product with sku %q", sku))
	}
	return &p, nil
}

// ListProducts returns all products with their category names.
func (r *Products) ListProducts(ctx context.Context, q Querier) ([]types.Product, error) {
	products := []types.Product{}
	if err := q.SelectContext(ctx, &products,
		"SELECT "+productColumns+productFrom+" ORDER BY p.product_id ASC"); err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return products, nil
}

// AdjustStock adds delta to the product's stock and returns the new value.
// Under StockAllowNegative the result is not clamped. Under StockFloorZero
// a result below zero is refused with ErrInsufficientStock.
// Returns ErrNotFound if the product does not exist.
func (r *Products) AdjustStock(ctx context.Context, q Querier, productID int64, delta int) (int, error) {
	var stock int
	if err := q.GetContext(ctx, &stock,
		"SELECT stock FROM products WHERE product_id = ?", productID); err != nil {
		return 0, notFound(err, fmt.Sprintf("product %d", productID))
	}

	next := stock + delta
	if next < 0 && r.policy == types.StockFloorZero {
		return stock, fmt.Errorf("%w: product %d has %d, adjustment %d", types.ErrInsufficientStock, productID, stock, delta)
	}

	if _, err := q.ExecContext(ctx,
		"UPDATE products SET stock = ? WHERE product_id = ?", next, productID); err != nil {
		return 0, fmt.Errorf("updating stock of product %d: %w", productID, err)
	}
	if next < 0 {
		r.logger.Warn("stock is negative",
			zap.Int64("product_id", productID), zap.Int("stock", next))
	}
	return next, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/wmslite/pkg/types"
)

// Orders manages order types, orders, and order items. Items are only
// created and removed through this repository.
type Orders struct{}

// NewOrders creates an order repository.
func NewOrders() *Orders {
	return &Orders{}
}

// orderTypeRow is the stored form of an OrderType; zone lists are
// comma-joined and NULL when empty.
type orderTypeRow struct {
	ID                          int64          `db:"type_id"`
	Code                        string         `db:"code"`
	Name                        string         `db:"name"`
	Description                 string         `db:"description"`
	RequiresSourceLocation      bool           `db:"requires_source_location"`
	RequiresDestinationLocation bool           `db:"requires_destination_location"`
	AffectsStock                bool           `db:"affects_stock"`
	AllowedSourceZones          sql.NullString `db:"allowed_source_zones"`
	AllowedDestinationZones     sql.NullString `db:"allowed_destination_zones"`
}

func (r orderTypeRow) hydrate() types.OrderType {
	return types.OrderType{
		ID:                          r.ID,
		Code:                        r.Code,
		Name:                        r.Name,
		Description:                 r.Description,
		RequiresSourceLocation:      r.RequiresSourceLocation,
		RequiresDestinationLocation: r.RequiresDestinationLocation,
		AffectsStock:                r.AffectsStock,
		AllowedSourceZones:          types.ParseZoneList(r.AllowedSourceZones.String),
		AllowedDestinationZones:     types.ParseZoneList(r.AllowedDestinationZones.String),
	}
}

const orderTypeColumns = `type_id, code, name, description, requires_source_location,
	requires_destination_location, affects_stock, allowed_source_zones, allowed_destination_zones`

// AddOrderType inserts an order type and returns its ID.
// Returns ErrConstraintViolation if the code is already taken.
func (r *Orders) AddOrderType(ctx context.Context, q Querier, ot types.OrderType) (int64, error) {
	if ot.Code == "" || ot.Name == "" {
		return 0, fmt.Errorf("%w: order type code and name are required", types.ErrInvalidArgument)
	}
	res, err := q.ExecContext(ctx,
		`INSERT INTO order_types (code, name, description, requires_source_location,
			requires_destination_location, affects_stock, allowed_source_zones, allowed_destination_zones)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ot.Code, ot.Name, ot.Description, ot.RequiresSourceLocation, ot.RequiresDestinationLocation,
		ot.AffectsStock, nullString(types.JoinZoneList(ot.AllowedSourceZones)),
		nullString(types.JoinZoneList(ot.AllowedDestinationZones)))
	if err != nil {
		return 0, mapExecErr(err, fmt.Sprintf("adding order type %q", ot.Code))
	}
	return res.LastInsertId()
}

// OrderTypeByCode returns the order type with the given code.
func (r *Orders) OrderTypeByCode(ctx context.Context, q Querier, code string) (*types.OrderType, error) {
	var row orderTypeRow
	if err := q.GetContext(ctx, &row,
		"SELECT "+orderTypeColumns+" FROM order_types WHERE code = ?", code); err != nil {
		return nil, notFound(err, fmt.Sprintf("order type %q", code))
	}
	ot := row.hydrate()
	return &ot, nil
}

// ListOrderTypes returns all order types ordered by ID.
func (r *Orders) ListOrderTypes(ctx context.Context, q Querier) ([]types.OrderType, error) {
	var rows []orderTypeRow
	if err := q.SelectContext(ctx, &rows,
		"SELECT "+orderTypeColumns+" FROM order_types ORDER BY type_id ASC"); err != nil {
		return nil, fmt.Errorf("listing order types: %w", err)
	}
	out := make([]types.OrderType, len(rows))
	for i, row := range rows {
		out[i] = row.hydrate()
	}
	return out, nil
}

// orderRow is the stored form of an Order.
type orderRow struct {
	types.Order
	CreatedAt string `db:"created_at"`
}

func (r orderRow) hydrate() (types.Order, error) {
	o := r.Order
	ts, err := parseTime(r.CreatedAt)
	if err != nil {
		return types.Order{}, fmt.Errorf("order %d: %w", o.ID, err)
	}
	o.Timestamp = ts
	return o, nil
}

type orderSummaryRow struct {
	orderRow
	TypeCode  sql.NullString `db:"type_code"`
	TypeName  sql.NullString `db:"type_name"`
	ItemCount int            `db:"item_count"`
}

const orderColumns = `o.order_id, o.order_number, o.type_id, o.source_location_id,
	o.destination_location_id, o.status, o.created_at`

// CreateOrder inserts an order and returns its ID. An empty status means
// pending; any other value must belong to the closed status set.
func (r *Orders) CreateOrder(ctx context.Context, q Querier, o types.NewOrder) (int64, error) {
	if o.OrderNumber == "" {
		return 0, fmt.Errorf("%w: order number must not be empty", types.ErrInvalidArgument)
	}
	status := types.StatusPending
	if o.Status != "" {
		st, err := types.ParseOrderStatus(string(o.Status))
		if err != nil {
			return 0, err
		}
		status = st
	}

	res, err := q.ExecContext(ctx,
		`INSERT INTO orders (order_number, type_id, source_location_id, destination_location_id, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		o.OrderNumber, o.TypeID, o.SourceLocationID, o.DestinationLocationID, string(status), now())
	if err != nil {
		return 0, mapExecErr(err, fmt.Sprintf("creating order %q", o.OrderNumber))
	}
	return res.LastInsertId()
}

// Order returns the order with the given ID.
func (r *Orders) Order(ctx context.Context, q Querier, id int64) (*types.Order, error) {
	var row orderRow
	if err := q.GetContext(ctx, &row,
		"SELECT "+orderColumns+" FROM orders o WHERE o.order_id = ?", id); err != nil {
		return nil, notFound(err, fmt.Sprintf("order %d", id))
	}
	o, err := row.hydrate()
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// OrderByNumber returns the oldest order with the given order number.
func (r *Orders) OrderByNumber(ctx context.Context, q Querier, number string) (*types.Order, error) {
	var row orderRow
	if err := q.GetContext(ctx, &row,
		"SELECT "+orderColumns+" FROM orders o WHERE o.order_number = ? ORDER BY o.order_id ASC LIMIT 1",
		number); err != nil {
		return nil, notFound(err, fmt.Sprintf("order %q", number))
	}
	o, err := row.hydrate()
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListOrders returns every order with its type and item count, newest first.
func (r *Orders) ListOrders(ctx context.Context, q Querier) ([]types.OrderSummary, error) {
	var rows []orderSummaryRow
	err := q.SelectContext(ctx, &rows,
		`SELECT `+orderColumns+`, ot.code AS type_code, ot.name AS type_name,
			COUNT(oi.order_item_id) AS item_count
		 FROM orders o
		 LEFT JOIN order_types ot ON o.type_id = ot.type_id
		 LEFT JOIN order_items oi ON o.order_id = oi.order_id
		 GROUP BY o.order_id
		 ORDER BY o.order_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	out := make([]types.OrderSummary, 0, len(rows))
	for _, row := range rows {
		o, err := row.hydrate()
		if err != nil {
			return nil, err
		}
		out = append(out, types.OrderSummary{
			Order:     o,
			TypeCode:  row.TypeCode.String,
			TypeName:  row.TypeName.String,
			ItemCount: row.ItemCount,
		})
	}
	return out, nil
}

// AddOrderItems inserts all items for an order. The first failing insert
// aborts the batch with an error; run it inside a scope so the items already
// inserted are rolled back with it.
// Returns ErrNotFound if the order or an item's product does not exist.
func (r *Orders) AddOrderItems(ctx context.Context, q Querier, orderID int64, items []types.OrderItemInput) error {
	var exists int
	if err := q.GetContext(ctx, &exists,
		"SELECT 1 FROM orders WHERE order_id = ?", orderID); err != nil {
		return notFound(err, fmt.Sprintf("order %d", orderID))
	}

	for i, item := range items {
		if err := q.GetContext(ctx, &exists,
			"SELECT 1 FROM products WHERE product_id = ?", item.ProductID); err != nil {
			return notFound(err, fmt.Sprintf("product %d for item %d of order %d", item.ProductID, i, orderID))
		}
		if _, err := q.ExecContext(ctx,
			"INSERT INTO order_items (order_id, product_id, quantity) VALUES (?, ?, ?)",
			orderID, item.ProductID, item.Quantity); err != nil {
			return mapExecErr(err, fmt.Sprintf("adding item %d of order %d", i, orderID))
		}
	}
	return nil
}

// OrderItems returns the items of an order with their product details.
func (r *Orders) OrderItems(ctx context.Context, q Querier, orderID int64) ([]types.OrderItemDetail, error) {
	items := []types.OrderItemDetail{}
	err := q.SelectContext(ctx, &items,
		`SELECT oi.order_item_id, oi.order_id, oi.product_id, oi.quantity,
			p.name AS product_name, p.sku, p.code
		 FROM order_items oi
		 JOIN products p ON oi.product_id = p.product_id
		 WHERE oi.order_id = ?
		 ORDER BY oi.order_item_id ASC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("listing items of order %d: %w", orderID, err)
	}
	return items, nil
}

// UpdateStatus moves an order to status. The value must belong to the
// closed status set (ErrInvalidArgument), the order must exist (ErrNotFound),
// and the move must follow the lifecycle pending -> in_progress -> completed
// with cancellation from any non-terminal status (ErrInvalidTransition).
func (r *Orders) UpdateStatus(ctx context.Context, q Querier, orderID int64, status string) error {
	next, err := types.ParseOrderStatus(status)
	if err != nil {
		return err
	}

	var current types.OrderStatus
	if err := q.GetContext(ctx, &current,
		"SELECT status FROM orders WHERE order_id = ?", orderID); err != nil {
		return notFound(err, fmt.Sprintf("order %d", orderID))
	}
	if !types.CanTransition(current, next) {
		return fmt.Errorf("%w: order %d from %s to %s", types.ErrInvalidTransition, orderID, current, next)
	}

	res, err := q.ExecContext(ctx,
		"UPDATE orders SET status = ? WHERE order_id = ?", string(next), orderID)
	if err != nil {
		return mapExecErr(err, fmt.Sprintf("updating status of order %d", orderID))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: order %d", types.ErrNotFound, orderID)
	}
	return nil
}

// DeleteOrder removes an order's items and then the order itself. Returns
// ErrNotFound if the order row did not exist; inside a scope that error
// also rolls back the item delete.
func (r *Orders) DeleteOrder(ctx context.Context, q Querier, orderID int64) error {
	if _, err := q.ExecContext(ctx,
		"DELETE FROM order_items WHERE order_id = ?", orderID); err != nil {
		return fmt.Errorf("deleting items of order %d: %w", orderID, err)
	}
	res, err := q.ExecContext(ctx, "DELETE FROM orders WHERE order_id = ?", orderID)
	if err != nil {
		return fmt.Errorf("deleting order %d: %w", orderID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: order %d", types.ErrNotFound, orderID)
	}
	return nil
}

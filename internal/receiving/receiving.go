// Package receiving implements the stock reception and location assignment
// workflows. Each workflow runs as one unit of work on the store and leaves
// an audit entry whether it succeeds or fails.
package receiving

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/wmslite/internal/sqlite"
	"github.com/mesh-intelligence/wmslite/pkg/types"
)

// Audit vocabulary written to the process history.
const (
	OperationReceiving  = "receiving"
	OperationAssignment = "location_assignment"

	SubFinalizeOrder  = "finalize_order"
	SubFinalizeError  = "finalize_error"
	SubAssignLocation = "assign_location"
	SubAssignError    = "assign_error"

	StatusCompleted = "completed"
	StatusError     = "error"
)

// ErrZoneRefused is returned when the destination zone is not allowed for
// the receipt's order type.
var ErrZoneRefused = errors.New("zone not allowed for order type")

// ReceiptItem is one received product line.
type ReceiptItem struct {
	SKU      string `json:"sku" yaml:"sku"`
	Quantity int    `json:"quantity" yaml:"quantity"`
}

// Receipt describes goods received against an order number. An empty
// OrderNumber gets a generated one; an empty TypeCode means INBOUND.
type Receipt struct {
	OrderNumber     string        `json:"order_number" yaml:"order_number"`
	TypeCode        string        `json:"type_code" yaml:"type_code"`
	DestinationZone string        `json:"destination_zone,omitempty" yaml:"destination_zone,omitempty"`
	UserID          string        `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	Items           []ReceiptItem `json:"items" yaml:"items"`
}

// Result reports a completed reception.
type Result struct {
	OrderID     int64          `json:"order_id"`
	OrderNumber string         `json:"order_number"`
	Replaced    bool           `json:"replaced"`
	Stock       map[string]int `json:"stock,omitempty"`
}

// Assignment places stock of a product at a location.
type Assignment struct {
	SKU         string `json:"sku"`
	LocationID  int64  `json:"location_id"`
	Quantity    int    `json:"quantity"`
	MinQuantity int    `json:"min_quantity"`
	MaxQuantity *int   `json:"max_quantity,omitempty"`
	UserID      string `json:"user_id,omitempty"`
}

// Service runs the workflows against a Store.
type Service struct {
	store  *sqlite.Store
	logger *zap.Logger
}

// New creates a workflow service over an attached store.
func New(store *sqlite.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// Receive records a completed reception in one unit of work. The destination
// zone, if given, is validated for the order type and provisioned on first
// use. An existing order with the same number is replaced with its items.
// Stock is increased per line when the order type affects stock. On failure
// nothing is kept except a failure entry in the process history, and the
// original error is returned.
func (s *Service) Receive(ctx context.Context, r Receipt) (*Result, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	if r.TypeCode == "" {
		r.TypeCode = types.OrderTypeInbound
	}
	if r.OrderNumber == "" {
		r.OrderNumber = "RCV-" + strings.ToUpper(uuid.NewString()[:8])
	}

	var res *Result
	err := s.store.Scope(ctx, func(tx *sqlx.Tx) error {
		var err error
		res, err = s.receive(ctx, tx, r)
		return err
	})
	if err != nil {
		s.logFailure(ctx, OperationReceiving, SubFinalizeError, r.UserID,
			fmt.Sprintf("order %s: %v", r.OrderNumber, err), err)
		return nil, err
	}

	s.logger.Info("reception completed",
		zap.String("order_number", res.OrderNumber),
		zap.Int64("order_id", res.OrderID),
		zap.Int("items", len(r.Items)),
		zap.Bool("replaced", res.Replaced))
	return res, nil
}

func (s *Service) receive(ctx context.Context, tx *sqlx.Tx, r Receipt) (*Result, error) {
	ot, err := s.store.Orders.OrderTypeByCode(ctx, tx, r.TypeCode)
	if err != nil {
		return nil, err
	}

	var dest *int64
	if r.DestinationZone != "" {
		ok, err := s.store.Zones.ValidateZoneForOrderType(ctx, tx, r.DestinationZone, ot.Code, false)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %q for %s", ErrZoneRefused, r.DestinationZone, ot.Code)
		}
		locs, err := s.store.Locations.LocationsByZone(ctx, tx, r.DestinationZone)
		if err != nil {
			return nil, err
		}
		if len(locs) > 0 {
			dest = &locs[0].ID
		}
	}

	res := &Result{OrderNumber: r.OrderNumber}
	existing, err := s.store.Orders.OrderByNumber(ctx, tx, r.OrderNumber)
	switch {
	case err == nil:
		if err := s.store.Orders.DeleteOrder(ctx, tx, existing.ID); err != nil {
			return nil, err
		}
		res.Replaced = true
	case !errors.Is(err, types.ErrNotFound):
		return nil, err
	}

	res.OrderID, err = s.store.Orders.CreateOrder(ctx, tx, types.NewOrder{
		OrderNumber:           r.OrderNumber,
		TypeID:                ot.ID,
		DestinationLocationID: dest,
		Status:                types.StatusCompleted,
	})
	if err != nil {
		return nil, err
	}

	inputs := make([]types.OrderItemInput, 0, len(r.Items))
	for _, item := range r.Items {
		p, err := s.store.Products.ProductBySKU(ctx, tx, item.SKU)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, types.OrderItemInput{ProductID: p.ID, Quantity: item.Quantity})
	}
	if err := s.store.Orders.AddOrderItems(ctx, tx, res.OrderID, inputs); err != nil {
		return nil, err
	}

	if ot.AffectsStock {
		res.Stock = make(map[string]int, len(inputs))
		for i, in := range inputs {
			stock, err := s.store.Products.AdjustStock(ctx, tx, in.ProductID, in.Quantity)
			if err != nil {
				return nil, err
			}
			res.Stock[r.Items[i].SKU] = stock
		}
	}

	_, err = s.store.History.LogProcess(ctx, tx, types.NewProcessEntry{
		OperationType: OperationReceiving,
		SubOperation:  SubFinalizeOrder,
		Status:        StatusCompleted,
		Details:       fmt.Sprintf("order %s completed with %d products", r.OrderNumber, len(r.Items)),
		UserID:        r.UserID,
	})
	return res, err
}

func (r Receipt) validate() error {
	if len(r.Items) == 0 {
		return fmt.Errorf("%w: receipt has no items", types.ErrInvalidArgument)
	}
	for i, item := range r.Items {
		if item.SKU == "" {
			return fmt.Errorf("%w: item %d has no sku", types.ErrInvalidArgument, i)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("%w: item %d (%s) quantity must be positive", types.ErrInvalidArgument, i, item.SKU)
		}
	}
	return nil
}

// AssignLocation places stock of a product at a location and records the
// assignment in the process history, in one unit of work. Returns the new
// inventory ID.
func (s *Service) AssignLocation(ctx context.Context, a Assignment) (int64, error) {
	if a.SKU == "" {
		return 0, fmt.Errorf("%w: sku must not be empty", types.ErrInvalidArgument)
	}
	if a.Quantity < 0 {
		return 0, fmt.Errorf("%w: quantity must not be negative", types.ErrInvalidArgument)
	}

	var id int64
	err := s.store.Scope(ctx, func(tx *sqlx.Tx) error {
		p, err := s.store.Products.ProductBySKU(ctx, tx, a.SKU)
		if err != nil {
			return err
		}
		loc, err := s.store.Locations.Location(ctx, tx, a.LocationID)
		if err != nil {
			return err
		}
		id, err = s.store.Inventory.AddInventory(ctx, tx, types.Inventory{
			ProductID:   p.ID,
			LocationID:  loc.ID,
			Quantity:    a.Quantity,
			MinQuantity: a.MinQuantity,
			MaxQuantity: a.MaxQuantity,
		})
		if err != nil {
			return err
		}
		_, err = s.store.History.LogProcess(ctx, tx, types.NewProcessEntry{
			OperationType: OperationAssignment,
			SubOperation:  SubAssignLocation,
			Status:        StatusCompleted,
			Details:       fmt.Sprintf("product %s (sku %s) assigned to %s", p.Name, p.SKU, loc.Code()),
			UserID:        a.UserID,
		})
		return err
	})
	if err != nil {
		s.logFailure(ctx, OperationAssignment, SubAssignError, a.UserID,
			fmt.Sprintf("assigning %s to location %d: %v", a.SKU, a.LocationID, err), err)
		return 0, err
	}
	return id, nil
}

// logFailure appends a failure entry in its own unit of work. A failure to
// record it is logged and otherwise ignored so the caller sees the original
// error.
func (s *Service) logFailure(ctx context.Context, op, sub, user, details string, cause error) {
	s.logger.Warn("workflow failed",
		zap.String("operation", op), zap.String("sub_operation", sub), zap.Error(cause))
	ctx = context.WithoutCancel(ctx)
	err := s.store.Scope(ctx, func(tx *sqlx.Tx) error {
		_, err := s.store.History.LogProcess(ctx, tx, types.NewProcessEntry{
			OperationType: op,
			SubOperation:  sub,
			Status:        StatusError,
			Details:       details,
			UserID:        user,
		})
		return err
	})
	if err != nil {
		s.logger.Error("recording workflow failure", zap.Error(err))
	}
}

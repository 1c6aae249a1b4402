package types

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// OrderStatus is the lifecycle state of an Order.
type OrderStatus string

// Order statuses. The set is closed.
const (
	StatusPending    OrderStatus = "pending"
	StatusInProgress OrderStatus = "in_progress"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every valid status in lifecycle order.
var OrderStatuses = []OrderStatus{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}

// orderTransitions maps each status to the statuses reachable from it.
// completed and cancelled are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  nil,
	StatusCancelled:  nil,
}

// ParseOrderStatus validates s against the closed status set.
// Returns ErrInvalidArgument for any other value.
func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(s)
	if _, ok := orderTransitions[st]; !ok {
		return "", fmt.Errorf("%w: status %q must be one of %s", ErrInvalidArgument, s, statusList())
	}
	return st, nil
}

// Terminal reports whether no transition leaves s.
func (s OrderStatus) Terminal() bool {
	return len(orderTransitions[s]) == 0
}

// CanTransition reports whether an order in status from may move to status
// to. Staying in the same status is allowed.
func CanTransition(from, to OrderStatus) bool {
	if from == to {
		return true
	}
	return slices.Contains(orderTransitions[from], to)
}

func statusList() string {
	names := make([]string, len(OrderStatuses))
	for i, s := range OrderStatuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// Order type codes with built-in meaning.
const (
	OrderTypeStockIn  = "STOCK_IN"
	OrderTypeInbound  = "INBOUND"
	OrderTypeOutbound = "OUTBOUND"
	OrderTypeTransfer = "TRANSFER"
	OrderTypeZoneMove = "ZONE_MOVE"
)

// anyZone is the wildcard entry of an allowed-zone list.
const anyZone = "*"

// OrderType describes a kind of order and the zones its source and
// destination may be in. An empty zone list allows any zone.
type OrderType struct {
	ID                          int64    `json:"id"`
	Code                        string   `json:"code" yaml:"code"`
	Name                        string   `json:"name" yaml:"name"`
	Description                 string   `json:"description" yaml:"description"`
	RequiresSourceLocation      bool     `json:"requires_source_location" yaml:"requires_source_location"`
	RequiresDestinationLocation bool     `json:"requires_destination_location" yaml:"requires_destination_location"`
	AffectsStock                bool     `json:"affects_stock" yaml:"affects_stock"`
	AllowedSourceZones          []string `json:"allowed_source_zones,omitempty" yaml:"allowed_source_zones"`
	AllowedDestinationZones     []string `json:"allowed_destination_zones,omitempty" yaml:"allowed_destination_zones"`
}

// AllowsZone reports whether zone is permitted on the source (isSource) or
// destination side of this order type. STOCK_IN destinations accept any
// zone regardless of the configured list.
func (ot OrderType) AllowsZone(zone string, isSource bool) bool {
	if ot.Code == OrderTypeStockIn && !isSource {
		return true
	}
	allowed := ot.AllowedDestinationZones
	if isSource {
		allowed = ot.AllowedSourceZones
	}
	if len(allowed) == 0 {
		return true
	}
	return slices.Contains(allowed, anyZone) || slices.Contains(allowed, zone)
}

// ParseZoneList splits a comma-joined zone list. Blank entries are dropped;
// an empty input yields nil.
func ParseZoneList(s string) []string {
	var zones []string
	for _, z := range strings.Split(s, ",") {
		if z = strings.TrimSpace(z); z != "" {
			zones = append(zones, z)
		}
	}
	return zones
}

// JoinZoneList is the inverse of ParseZoneList.
func JoinZoneList(zones []string) string {
	return strings.Join(zones, ",")
}

// Order is a warehouse movement document.
type Order struct {
	ID                    int64       `db:"order_id" json:"id"`
	OrderNumber           string      `db:"order_number" json:"order_number"`
	TypeID                int64       `db:"type_id" json:"type_id"`
	SourceLocationID      *int64      `db:"source_location_id" json:"source_location_id,omitempty"`
	DestinationLocationID *int64      `db:"destination_location_id" json:"destination_location_id,omitempty"`
	Status                OrderStatus `db:"status" json:"status"`
	Timestamp             time.Time   `db:"-" json:"timestamp"`
}

// NewOrder carries the fields for an order insert. An empty Status means
// StatusPending.
type NewOrder struct {
	OrderNumber           string
	TypeID                int64
	SourceLocationID      *int64
	DestinationLocationID *int64
	Status                OrderStatus
}

// OrderSummary is an Order joined with its type and item count.
type OrderSummary struct {
	Order
	TypeCode  string `json:"type_code"`
	TypeName  string `json:"type_name"`
	ItemCount int    `json:"item_count"`
}

// OrderItem is one product line of an Order.
type OrderItem struct {
	ID        int64 `db:"order_item_id" json:"id"`
	OrderID   int64 `db:"order_id" json:"order_id"`
	ProductID int64 `db:"product_id" json:"product_id"`
	Quantity  int   `db:"quantity" json:"quantity"`
}

// OrderItemInput is one line passed to an item batch insert.
type OrderItemInput struct {
	ProductID int64 `json:"product_id" yaml:"product_id"`
	Quantity  int   `json:"quantity" yaml:"quantity"`
}

// OrderItemDetail is an OrderItem joined with its product.
type OrderItemDetail struct {
	OrderItem
	ProductName string `db:"product_name" json:"product_name"`
	SKU         string `db:"sku" json:"sku"`
	Code        string `db:"code" json:"code"`
}

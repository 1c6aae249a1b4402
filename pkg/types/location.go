package types

import "fmt"

// Location is a single storage slot. A zone exists only as the zone label
// shared by one or more locations.
type Location struct {
	ID       int64  `db:"location_id" json:"id"`
	Zone     string `db:"zone" json:"zone"`
	Aisle    string `db:"aisle" json:"aisle"`
	Shelf    string `db:"shelf" json:"shelf"`
	Position string `db:"position" json:"position"`
}

// Code renders the location as zone-aisle-shelf-position.
func (l Location) Code() string {
	return fmt.Sprintf("%s-%s-%s-%s", l.Zone, l.Aisle, l.Shelf, l.Position)
}

// GridSize is the aisle x shelf x position extent of a provisioned zone.
type GridSize struct {
	Aisles    int
	Shelves   int
	Positions int
}

// DefaultGrid is the grid provisioned for a zone on first use.
var DefaultGrid = GridSize{Aisles: 3, Shelves: 4, Positions: 5}

// Cells returns the number of locations the grid spans.
func (g GridSize) Cells() int {
	return g.Aisles * g.Shelves * g.Positions
}

// Validate rejects grids with a non-positive dimension.
func (g GridSize) Validate() error {
	if g.Aisles < 1 || g.Shelves < 1 || g.Positions < 1 {
		return fmt.Errorf("%w: grid %dx%dx%d", ErrInvalidArgument, g.Aisles, g.Shelves, g.Positions)
	}
	return nil
}

// CoordinateLabel formats a 1-based grid coordinate as a zero-padded
// two-digit label.
func CoordinateLabel(n int) string {
	return fmt.Sprintf("%02d", n)
}

// Inventory places a quantity of a product at a location with reorder
// thresholds.
type Inventory struct {
	ID          int64 `db:"inventory_id" json:"id"`
	ProductID   int64 `db:"product_id" json:"product_id"`
	LocationID  int64 `db:"location_id" json:"location_id"`
	Quantity    int   `db:"quantity" json:"quantity"`
	MinQuantity int   `db:"min_quantity" json:"min_quantity"`
	MaxQuantity *int  `db:"max_quantity" json:"max_quantity,omitempty"`
}

// InventoryLevel is an Inventory row joined with its product and location.
type InventoryLevel struct {
	Inventory
	ProductName string `db:"product_name" json:"product_name"`
	SKU         string `db:"sku" json:"sku"`
	Zone        string `db:"zone" json:"zone"`
	Aisle       string `db:"aisle" json:"aisle"`
	Shelf       string `db:"shelf" json:"shelf"`
	Position    string `db:"position" json:"position"`
}

// Low reports whether the placement is at or below its minimum.
func (l InventoryLevel) Low() bool {
	return l.Quantity <= l.MinQuantity
}

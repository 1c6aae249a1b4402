package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoordinateLabel(t *testing.T) {
	assert.Equal(t, "01", CoordinateLabel(1))
	assert.Equal(t, "09", CoordinateLabel(9))
	assert.Equal(t, "12", CoordinateLabel(12))
	assert.Equal(t, "100", CoordinateLabel(100))
}

func TestGridSize(t *testing.T) {
	assert.Equal(t, 60, DefaultGrid.Cells())
	assert.NoError(t, DefaultGrid.Validate())
	assert.ErrorIs(t, GridSize{Aisles: 0, Shelves: 1, Positions: 1}.Validate(), ErrInvalidArgument)
	assert.ErrorIs(t, GridSize{Aisles: 1, Shelves: 1, Positions: -2}.Validate(), ErrInvalidArgument)
}

func TestLocationCode(t *testing.T) {
	l := Location{Zone: "B", Aisle: "01", Shelf: "02", Position: "03"}
	assert.Equal(t, "B-01-02-03", l.Code())
}

func TestInventoryLevelLow(t *testing.T) {
	assert.True(t, InventoryLevel{Inventory: Inventory{Quantity: 2, MinQuantity: 2}}.Low())
	assert.False(t, InventoryLevel{Inventory: Inventory{Quantity: 3, MinQuantity: 2}}.Low())
}

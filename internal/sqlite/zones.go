package sqlite

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/wmslite/pkg/types"
)

// Zones provisions location grids and checks zones against order-type
// policy.
type Zones struct {
	logger    *zap.Logger
	locations *Locations
	orders    *Orders
}

// NewZones creates a zone provisioner over the given repositories.
func NewZones(logger *zap.Logger, locations *Locations, orders *Orders) *Zones {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Zones{logger: logger, locations: locations, orders: orders}
}

// CreateZoneGrid inserts one location per cell of grid, labelling each axis
// with zero-padded two-digit coordinates starting at 01. A failed insert is
// logged and skipped; the IDs of the locations actually created are
// returned.
func (z *Zones) CreateZoneGrid(ctx context.Context, q Querier, zone string, grid types.GridSize) ([]int64, error) {
	if zone == "" {
		return nil, fmt.Errorf("%w: zone must not be empty", types.ErrInvalidArgument)
	}
	if err := grid.Validate(); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, grid.Cells())
	for a := 1; a <= grid.Aisles; a++ {
		for s := 1; s <= grid.Shelves; s++ {
			for p := 1; p <= grid.Positions; p++ {
				if err := ctx.Err(); err != nil {
					return ids, err
				}
				aisle, shelf, pos := types.CoordinateLabel(a), types.CoordinateLabel(s), types.CoordinateLabel(p)
				id, err := z.locations.AddLocation(ctx, q, zone, aisle, shelf, pos)
				if err != nil {
					z.logger.Warn("skipping grid location",
						zap.String("zone", zone),
						zap.String("aisle", aisle),
						zap.String("shelf", shelf),
						zap.String("position", pos),
						zap.Error(err))
					continue
				}
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

// ValidateZoneForOrderType reports whether zone may be used on the source
// (isSource) or destination side of the order type with the given code.
// Unknown order types are refused. When the zone is allowed but has no
// locations yet, a DefaultGrid is provisioned for it before returning; the
// result is then whether any location was created.
func (z *Zones) ValidateZoneForOrderType(ctx context.Context, q Querier, zone, orderTypeCode string, isSource bool) (bool, error) {
	if zone == "" {
		return false, fmt.Errorf("%w: zone must not be empty", types.ErrInvalidArgument)
	}
	ot, err := z.orders.OrderTypeByCode(ctx, q, orderTypeCode)
	if errors.Is(err, types.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if !ot.AllowsZone(zone, isSource) {
		return false, nil
	}

	n, err := z.locations.ZoneLocationCount(ctx, q, zone)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}

	ids, err := z.CreateZoneGrid(ctx, q, zone, types.DefaultGrid)
	if err != nil {
		return false, err
	}
	z.logger.Info("provisioned zone on first use",
		zap.String("zone", zone),
		zap.String("order_type", orderTypeCode),
		zap.Int("locations", len(ids)))
	return len(ids) > 0, nil
}

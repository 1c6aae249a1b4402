// Tests for zone grid provisioning and order-type zone validation.
package sqlite

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mesh-intelligence/wmslite/pkg/types"
)

func zoneCount(t *testing.T, s *Store, zone string) int {
	t.Helper()
	return scoped(t, s, func(ctx context.Context, tx *sqlx.Tx) (int, error) {
		return s.Locations.ZoneLocationCount(ctx, tx, zone)
	})
}

func TestCreateZoneGrid(t *testing.T) {
	t.Run("creates one location per cell with two-digit labels", func(t *testing.T) {
		s := newTestStore(t)
		ids := scoped(t, s, func(ctx context.Context, tx *sqlx.Tx) ([]int64, error) {
			return s.Zones.CreateZoneGrid(ctx, tx, "B", types.GridSize{Aisles: 2, Shelves: 2, Positions: 2})
		})
		assert.Len(t, ids, 8)

		locs := scoped(t, s, func(ctx context.Context, tx *sqlx.Tx) ([]types.Location, error) {
			return s.Locations.LocationsByZone(ctx, tx, "B")
		})
		require.Len(t, locs, 8)
		assert.Equal(t, "B-01-01-01", locs[0].Code())
		assert.Equal(t, "B-01-01-02", locs[1].Code())
		assert.Equal(t, "B-02-02-02", locs[7].Code())
	})

	t.Run("existing cells are logged and skipped", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		s := newTestStoreWithLogger(t, zap.New(core))

		scoped(t, s, func(ctx context.Context, tx *sqlx.Tx) (int64, error) {
			return s.Locations.AddLocation(ctx, tx, "B", "01", "01", "01")
		})
		ids := scoped(t, s, func(ctx context.Context, tx *sqlx.Tx) ([]int64, error) {
			return s.Zones.CreateZoneGrid(ctx, tx, "B", types.GridSize{Aisles: 1, Shelves: 1, Positions: 3})
		})
		assert.Len(t, ids, 2)
		assert.Equal(t, 3, zoneCount(t, s, "B"))

		skipped := logs.FilterMessage("skipping grid location").All()
		require.Len(t, skipped, 1)
		assert.Equal(t, "01", skipped[0].ContextMap()["position"])
	})

	t.Run("invalid arguments are refused", func(t *testing.T) {
		s := newTestStore(t)
		for _, tc := range []struct {
			zone string
			grid types.GridSize
		}{
			{"", types.GridSize{Aisles: 1, Shelves: 1, Positions: 1}},
			{"B", types.GridSize{Aisles: 0, Shelves: 1, Positions: 1}},
			{"B", types.GridSize{Aisles: 1, Shelves: -1, Positions: 1}},
		} {
			err := scopedErr(s, func(ctx context.Context, tx *sqlx.Tx) error {
				_, err := s.Zones.CreateZoneGrid(ctx, tx, tc.zone, tc.grid)
				return err
			})
			assert.ErrorIs(t, err, types.ErrInvalidArgument)
		}
	})
}

func TestValidateZoneForOrderType(t *testing.T) {
	tests := []struct {
		name      string
		zone      string
		code      string
		isSource  bool
		want      bool
		wantCount int
	}{
		{name: "stock-in destination provisions a new zone", zone: "NewZone", code: types.OrderTypeStockIn, want: true, wantCount: 60},
		{name: "allowed inbound destination is provisioned", zone: "Receiving", code: types.OrderTypeInbound, want: true, wantCount: 60},
		{name: "inbound destination outside the list is refused", zone: "Dispatch", code: types.OrderTypeInbound, want: false, wantCount: 0},
		{name: "outbound source outside the list is refused", zone: "Receiving", code: types.OrderTypeOutbound, isSource: true, want: false, wantCount: 0},
		{name: "unknown order type is refused", zone: "Storage", code: "NOPE", want: false, wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			got := scoped(t, s, func(ctx context.Context, tx *sqlx.Tx) (bool, error) {
				return s.Zones.ValidateZoneForOrderType(ctx, tx, tt.zone, tt.code, tt.isSource)
			})
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantCount, zoneCount(t, s, tt.zone))
		})
	}

	t.Run("populated zone is accepted without provisioning", func(t *testing.T) {
		s := newTestStore(t)
		scoped(t, s, func(ctx context.Context, tx *sqlx.Tx) (int64, error) {
			return s.Locations.AddLocation(ctx, tx, "Storage", "09", "09", "09")
		})
		got := scoped(t, s, func(ctx context.Context, tx *sqlx.Tx) (bool, error) {
			return s.Zones.ValidateZoneForOrderType(ctx, tx, "Storage", types.OrderTypeInbound, false)
		})
		assert.True(t, got)
		assert.Equal(t, 1, zoneCount(t, s, "Storage"))
	})

	t.Run("empty zone is refused", func(t *testing.T) {
		s := newTestStore(t)
		err := scopedErr(s, func(ctx context.Context, tx *sqlx.Tx) error {
			_, err := s.Zones.ValidateZoneForOrderType(ctx, tx, "", types.OrderTypeStockIn, false)
			return err
		})
		assert.ErrorIs(t, err, types.ErrInvalidArgument)
	})
}

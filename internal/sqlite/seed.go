package sqlite

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/wmslite/pkg/types"
)

//go:embed order_types.yaml
var orderTypesYAML []byte

// DefaultOrderTypes returns the order types seeded into a new store.
func DefaultOrderTypes() ([]types.OrderType, error) {
	var ots []types.OrderType
	if err := yaml.Unmarshal(orderTypesYAML, &ots); err != nil {
		return nil, fmt.Errorf("parsing built-in order types: %w", err)
	}
	return ots, nil
}

// SeedOrderTypes inserts each order type whose code does not exist yet and
// returns how many were inserted. Seeding is idempotent.
func SeedOrderTypes(ctx context.Context, q Querier, orders *Orders, ots []types.OrderType) (int, error) {
	inserted := 0
	for _, ot := range ots {
		_, err := orders.OrderTypeByCode(ctx, q, ot.Code)
		if err == nil {
			continue
		}
		if !errors.Is(err, types.ErrNotFound) {
			return inserted, err
		}
		if _, err := orders.AddOrderType(ctx, q, ot); err != nil {
			return inserted, fmt.Errorf("seeding order type %q: %w", ot.Code, err)
		}
		inserted++
	}
	return inserted, nil
}

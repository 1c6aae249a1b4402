package sqlite

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/wmslite/pkg/types"
)

// Locations manages storage slots. Zones are not stored on their own: a
// zone exists while at least one location carries its label.
type Locations struct{}

// NewLocations creates a location repository.
func NewLocations() *Locations {
	return &Locations{}
}

const locationColumns = "location_id, zone, aisle, shelf, position"

// AddLocation inserts a location and returns its ID.
// Returns ErrConstraintViolation if the exact (zone, aisle, shelf, position)
// tuple already exists.
func (r *Locations) AddLocation(ctx context.Context, q Querier, zone, aisle, shelf, position string) (int64, error) {
	if zone == "" {
		return 0, fmt.Errorf("%w: zone must not be empty", types.ErrInvalidArgument)
	}
	res, err := q.ExecContext(ctx,
		"INSERT INTO locations (zone, aisle, shelf, position) VALUES (?, ?, ?, ?)",
		zone, aisle, shelf, position)
	if err != nil {
		return 0, mapExecErr(err, fmt.Sprintf("adding location %s-%s-%s-%s", zone, aisle, shelf, position))
	}
	return res.LastInsertId()
}

// Location returns the location with the given ID.
func (r *Locations) Location(ctx context.Context, q Querier, id int64) (*types.Location, error) {
	var l types.Location
	if err := q.GetContext(ctx, &l,
		"SELECT "+locationColumns+" FROM locations WHERE location_id = ?", id); err != nil {
		return nil, notFound(err, fmt.Sprintf("location %d", id))
	}
	return &l, nil
}

// ListLocations returns every location ordered by zone and coordinates.
func (r *Locations) ListLocations(ctx context.Context, q Querier) ([]types.Location, error) {
	locs := []types.Location{}
	if err := q.SelectContext(ctx, &locs,
		"SELECT "+locationColumns+" FROM locations ORDER BY zone, aisle, shelf, position"); err != nil {
		return nil, fmt.Errorf("listing locations: %w", err)
	}
	return locs, nil
}

// LocationsByZone returns the locations of one zone ordered by coordinates.
func (r *Locations) LocationsByZone(ctx context.Context, q Querier, zone string) ([]types.Location, error) {
	locs := []types.Location{}
	if err := q.SelectContext(ctx, &locs,
		"SELECT "+locationColumns+" FROM locations WHERE zone = ? ORDER BY aisle, shelf, position", zone); err != nil {
		return nil, fmt.Errorf("listing locations of zone %q: %w", zone, err)
	}
	return locs, nil
}

// AvailableZones returns the distinct zone labels in use, sorted.
func (r *Locations) AvailableZones(ctx context.Context, q Querier) ([]string, error) {
	zones := []string{}
	if err := q.SelectContext(ctx, &zones,
		"SELECT DISTINCT zone FROM locations ORDER BY zone"); err != nil {
		return nil, fmt.Errorf("listing zones: %w", err)
	}
	return zones, nil
}

// ZoneLocationCount returns how many locations carry the zone label.
func (r *Locations) ZoneLocationCount(ctx context.Context, q Querier, zone string) (int, error) {
	var n int
	if err := q.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM locations WHERE zone = ?", zone); err != nil {
		return 0, fmt.Errorf("counting locations of zone %q: %w", zone, err)
	}
	return n, nil
}

// UpdateLocation rewrites a location's coordinates. It returns false if no
// location has the ID.
func (r *Locations) UpdateLocation(ctx context.Context, q Querier, l types.Location) (bool, error) {
	res, err := q.ExecContext(ctx,
		"UPDATE locations SET zone = ?, aisle = ?, shelf = ?, position = ? WHERE location_id = ?",
		l.Zone, l.Aisle, l.Shelf, l.Position, l.ID)
	if err != nil {
		return false, mapExecErr(err, fmt.Sprintf("updating location %d", l.ID))
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteLocation removes a location. It returns false if no location has
// the ID.
func (r *Locations) DeleteLocation(ctx context.Context, q Querier, id int64) (bool, error) {
	res, err := q.ExecContext(ctx, "DELETE FROM locations WHERE location_id = ?", id)
	if err != nil {
		return false, fmt.Errorf("deleting location %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/wmslite/internal/receiving"
	"github.com/mesh-intelligence/wmslite/internal/sqlite"
	"github.com/mesh-intelligence/wmslite/pkg/types"
)

func newLocationCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "location",
		Short: "Manage storage locations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <zone> <aisle> <shelf> <position>",
		Short: "Create a single location",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc := types.Location{Zone: args[0], Aisle: args[1], Shelf: args[2], Position: args[3]}
			err := a.inScope(cmd, func(ctx context.Context, s *sqlite.Store, tx *sqlx.Tx) error {
				var err error
				loc.ID, err = s.Locations.AddLocation(ctx, tx, loc.Zone, loc.Aisle, loc.Shelf, loc.Position)
				return err
			})
			if err != nil {
				return err
			}
			return a.emit(cmd, loc, func(w io.Writer) {
				fmt.Fprintf(w, "Created location %d: %s\n", loc.ID, loc.Code())
			})
		},
	})

	var zone string
	list := &cobra.Command{
		Use:   "list",
		Short: "List locations, optionally of one zone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var locs []types.Location
			err := a.inScope(cmd, func(ctx context.Context, s *sqlite.Store, tx *sqlx.Tx) error {
				var err error
				if zone != "" {
					locs, err = s.Locations.LocationsByZone(ctx, tx, zone)
				} else {
					locs, err = s.Locations.ListLocations(ctx, tx)
				}
				return err
			})
			if err != nil {
				return err
			}
			return a.emit(cmd, locs, func(w io.Writer) {
				if len(locs) == 0 {
					fmt.Fprintln(w, "No locations found.")
					return
				}
				fmt.Fprintln(w, "ID\tZONE\tAISLE\tSHELF\tPOSITION")
				for _, l := range locs {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", l.ID, l.Zone, l.Aisle, l.Shelf, l.Position)
				}
				fmt.Fprintf(w, "Total: %d location(s)\n", len(locs))
			})
		},
	}
	list.Flags().StringVar(&zone, "zone", "", "only list locations of this zone")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "zones",
		Short: "List the zones in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var zones []string
			err := a.inScope(cmd, func(ctx context.Context, s *sqlite.Store, tx *sqlx.Tx) error {
				var err error
				zones, err = s.Locations.AvailableZones(ctx, tx)
				return err
			})
			if err != nil {
				return err
			}
			return a.emit(cmd, zones, func(w io.Writer) {
				if len(zones) == 0 {
					fmt.Fprintln(w, "No zones found.")
					return
				}
				for _, z := range zones {
					fmt.Fprintln(w, z)
				}
			})
		},
	})

	return cmd
}

func newInventoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Place stock at locations and inspect levels",
	}

	var (
		asg      receiving.Assignment
		maxQty   int
		location int64
	)
	assign := &cobra.Command{
		Use:   "assign <sku>",
		Short: "Place a quantity of a product at a location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asg.SKU = args[0]
			asg.LocationID = location
			asg.MaxQuantity = optionalInt(cmd, "max", maxQty)

			var id int64
			err := a.withStore(cmd, func(ctx context.Context, s *sqlite.Store) error {
				var err error
				id, err = receiving.New(s, a.logger).AssignLocation(ctx, asg)
				return err
			})
			if err != nil {
				return err
			}
			return a.emit(cmd, map[string]any{"inventory_id": id}, func(w io.Writer) {
				fmt.Fprintf(w, "Assigned %s to location %d (inventory %d)\n", asg.SKU, asg.LocationID, id)
			})
		},
	}
	assign.Flags().Int64Var(&location, "location", 0, "location ID (required)")
	assign.Flags().IntVar(&asg.Quantity, "qty", 0, "quantity placed")
	assign.Flags().IntVar(&asg.MinQuantity, "min", 0, "reorder threshold")
	assign.Flags().IntVar(&maxQty, "max", 0, "maximum quantity (unset means no maximum)")
	assign.Flags().StringVar(&asg.UserID, "user", "", "user recorded in the process history")
	_ = assign.MarkFlagRequired("location")
	cmd.AddCommand(assign)

	cmd.AddCommand(&cobra.Command{
		Use:   "levels",
		Short: "List stock placements with product and location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				levels []types.InventoryLevel
				low    int
			)
			err := a.inScope(cmd, func(ctx context.Context, s *sqlite.Store, tx *sqlx.Tx) error {
				var err error
				if levels, err = s.Inventory.InventoryLevels(ctx, tx); err != nil {
					return err
				}
				low, err = s.Inventory.LowStockCount(ctx, tx)
				return err
			})
			if err != nil {
				return err
			}
			result := map[string]any{"levels": levels, "low_stock": low}
			return a.emit(cmd, result, func(w io.Writer) {
				if len(levels) == 0 {
					fmt.Fprintln(w, "No inventory found.")
					return
				}
				fmt.Fprintln(w, "SKU\tPRODUCT\tLOCATION\tQTY\tMIN\tMAX\tLOW")
				for _, l := range levels {
					code := types.Location{Zone: l.Zone, Aisle: l.Aisle, Shelf: l.Shelf, Position: l.Position}.Code()
					flag := ""
					if l.Low() {
						flag = "yes"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
						l.SKU, l.ProductName, code, l.Quantity, l.MinQuantity, intOrDash(l.MaxQuantity), flag)
				}
				fmt.Fprintf(w, "Low stock: %d placement(s)\n", low)
			})
		},
	})

	return cmd
}

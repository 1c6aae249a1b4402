package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/wmslite/internal/sqlite"
	"github.com/mesh-intelligence/wmslite/pkg/types"
)

func newZoneCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zone",
		Short: "Provision and validate zones",
	}

	grid := types.DefaultGrid
	gridCmd := &cobra.Command{
		Use:   "grid <zone>",
		Short: "Create an aisle x shelf x position grid of locations",
		Long: `Grid creates one location per cell, labelling each coordinate with two
digits starting at 01. Cells that already exist are skipped.

Example:
  wms zone grid B --aisles 2 --shelves 2 --positions 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ids []int64
			err := a.inScope(cmd, func(ctx context.Context, s *sqlite.Store, tx *sqlx.Tx) error {
				var err error
				ids, err = s.Zones.CreateZoneGrid(ctx, tx, args[0], grid)
				return err
			})
			if err != nil {
				return err
			}
			result := map[string]any{"zone": args[0], "created": len(ids), "cells": grid.Cells(), "ids": ids}
			return a.emit(cmd, result, func(w io.Writer) {
				fmt.Fprintf(w, "Created %d of %d locations in zone %s\n", len(ids), grid.Cells(), args[0])
			})
		},
	}
	gridCmd.Flags().IntVar(&grid.Aisles, "aisles", grid.Aisles, "number of aisles")
	gridCmd.Flags().IntVar(&grid.Shelves, "shelves", grid.Shelves, "shelves per aisle")
	gridCmd.Flags().IntVar(&grid.Positions, "positions", grid.Positions, "positions per shelf")
	cmd.AddCommand(gridCmd)

	var isSource bool
	validate := &cobra.Command{
		Use:   "validate <zone> <order-type-code>",
		Short: "Check a zone against an order type, provisioning it on first use",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ok bool
			err := a.inScope(cmd, func(ctx context.Context, s *sqlite.Store, tx *sqlx.Tx) error {
				var err error
				ok, err = s.Zones.ValidateZoneForOrderType(ctx, tx, args[0], args[1], isSource)
				return err
			})
			if err != nil {
				return err
			}
			side := "destination"
			if isSource {
				side = "source"
			}
			result := map[string]any{"zone": args[0], "order_type": args[1], "side": side, "valid": ok}
			if err := a.emit(cmd, result, func(w io.Writer) {
				verdict := "allowed"
				if !ok {
					verdict = "not allowed"
				}
				fmt.Fprintf(w, "Zone %s is %s as %s for %s\n", args[0], verdict, side, args[1])
			}); err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: zone %s refused for %s", types.ErrInvalidArgument, args[0], args[1])
			}
			return nil
		},
	}
	validate.Flags().BoolVar(&isSource, "source", false, "validate the zone as the order's source")
	cmd.AddCommand(validate)

	return cmd
}

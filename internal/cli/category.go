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

func newCategoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage product categories",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id int64
			err := a.inScope(cmd, func(ctx context.Context, s *sqlite.Store, tx *sqlx.Tx) error {
				var err error
				id, err = s.Products.AddCategory(ctx, tx, args[0])
				return err
			})
			if err != nil {
				return err
			}
			cat := types.Category{ID: id, Name: args[0]}
			return a.emit(cmd, cat, func(w io.Writer) {
				fmt.Fprintf(w, "Created category %d: %s\n", cat.ID, cat.Name)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cats []types.Category
			err := a.inScope(cmd, func(ctx context.Context, s *sqlite.Store, tx *sqlx.Tx) error {
				var err error
				cats, err = s.Products.ListCategories(ctx, tx)
				return err
			})
			if err != nil {
				return err
			}
			return a.emit(cmd, cats, func(w io.Writer) {
				if len(cats) == 0 {
					fmt.Fprintln(w, "No categories found.")
					return
				}
				fmt.Fprintln(w, "ID\tNAME")
				for _, c := range cats {
					fmt.Fprintf(w, "%d\t%s\n", c.ID, c.Name)
				}
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category no product refers to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "category id")
			if err != nil {
				return err
			}
			var deleted bool
			err = a.inScope(cmd, func(ctx context.Context, s *sqlite.Store, tx *sqlx.Tx) error {
				deleted, err = s.Products.DeleteCategory(ctx, tx, id)
				return err
			})
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("%w: category %d is still used by products", types.ErrInvalidArgument, id)
			}
			return a.emit(cmd, map[string]any{"id": id, "deleted": true}, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted category %d\n", id)
			})
		},
	})

	return cmd
}

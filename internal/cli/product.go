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

func newProductCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Manage products and stock",
	}
	cmd.AddCommand(newProductAddCmd(a), newProductListCmd(a), newProductStockCmd(a))
	return cmd
}

func newProductAddCmd(a *app) *cobra.Command {
	var (
		p          types.NewProduct
		categoryID int64
		maxStock   int
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a product",
		Long: `Add creates a product. A SKU that already exists is accepted; the new
product is stored with its duplicate flag set.

Example:
  wms product add --sku HAM-1 --name Hammer --min 2 --max 20 --stock 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("category-id") {
				p.CategoryID = &categoryID
			}
			p.MaxStock = optionalInt(cmd, "max", maxStock)

			var (
				id  int64
				dup bool
			)
			err := a.inScope(cmd, func(ctx context.Context, s *sqlite.Store, tx *sqlx.Tx) error {
				var err error
				id, dup, err = s.Products.AddProduct(ctx, tx, p)
				return err
			})
			if err != nil {
				return err
			}
			result := map[string]any{"id": id, "sku": p.SKU, "is_duplicate": dup}
			return a.emit(cmd, result, func(w io.Writer) {
				fmt.Fprintf(w, "Created product %d (%s)\n", id, p.SKU)
				if dup {
					fmt.Fprintf(w, "Warning: SKU %s already existed; the product is flagged as a duplicate\n", p.SKU)
				}
			})
		},
	}
	cmd.Flags().StringVar(&p.SKU, "sku", "", "stock-keeping unit (required)")
	cmd.Flags().StringVar(&p.Name, "name", "", "product name (required)")
	cmd.Flags().StringVar(&p.Code, "code", "", "internal product code")
	cmd.Flags().StringVar(&p.Description, "description", "", "free-text description")
	cmd.Flags().Int64Var(&categoryID, "category-id", 0, "category the product belongs to")
	cmd.Flags().IntVar(&p.MinStock, "min", 0, "minimum stock")
	cmd.Flags().IntVar(&maxStock, "max", 0, "maximum stock (unset means no maximum)")
	cmd.Flags().IntVar(&p.Stock, "stock", 0, "initial stock")
	_ = cmd.MarkFlagRequired("sku")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newProductListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List products with their category and stock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var products []types.Product
			err := a.inScope(cmd, func(ctx context.Context, s *sqlite.Store, tx *sqlx.Tx) error {
				var err error
				products, err = s.Products.ListProducts(ctx, tx)
				return err
			})
			if err != nil {
				return err
			}
			return a.emit(cmd, products, func(w io.Writer) {
				if len(products) == 0 {
					fmt.Fprintln(w, "No products found.")
					return
				}
				fmt.Fprintln(w, "ID\tSKU\tNAME\tCATEGORY\tSTOCK\tMIN\tMAX\tDUP")
				for _, p := range products {
					category := "-"
					if p.CategoryName != nil {
						category = *p.CategoryName
					}
					dup := ""
					if p.IsDuplicate {
						dup = "yes"
					}
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
						p.ID, p.SKU, p.Name, category, p.Stock, p.MinStock, intOrDash(p.MaxStock), dup)
				}
				fmt.Fprintf(w, "Total: %d product(s)\n", len(products))
			})
		},
	}
}

func newProductStockCmd(a *app) *cobra.Command {
	var delta int
	cmd := &cobra.Command{
		Use:   "stock <product-id>",
		Short: "Adjust a product's stock by a signed amount",
		Long: `Stock adds --delta to the product's stock. Whether stock may go below
zero is decided by the stock_policy setting.

Example:
  wms product stock 3 --delta 10
  wms product stock 3 --delta=-4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "product id")
			if err != nil {
				return err
			}

			var stock int
			err = a.inScope(cmd, func(ctx context.Context, s *sqlite.Store, tx *sqlx.Tx) error {
				stock, err = s.Products.AdjustStock(ctx, tx, id, delta)
				return err
			})
			if err != nil {
				return err
			}
			return a.emit(cmd, map[string]any{"id": id, "stock": stock}, func(w io.Writer) {
				fmt.Fprintf(w, "Product %d stock: %d\n", id, stock)
			})
		},
	}
	cmd.Flags().IntVar(&delta, "delta", 0, "signed stock change (required)")
	_ = cmd.MarkFlagRequired("delta")
	return cmd
}

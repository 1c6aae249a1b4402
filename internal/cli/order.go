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

func newOrderCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Manage orders and their items",
	}
	cmd.AddCommand(
		newOrderCreateCmd(a),
		newOrderItemsCmd(a),
		newOrderStatusCmd(a),
		newOrderDeleteCmd(a),
		newOrderListCmd(a),
		newOrderReceiveCmd(a),
		newOrderTypesCmd(a),
	)
	return cmd
}

func newOrderCreateCmd(a *app) *cobra.Command {
	var (
		typeCode string
		status   string
		src, dst int64
	)
	cmd := &cobra.Command{
		Use:   "create <order-number>",
		Short: "Create an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o := types.NewOrder{OrderNumber: args[0], Status: types.OrderStatus(status)}
			if cmd.Flags().Changed("source") {
				o.SourceLocationID = &src
			}
			if cmd.Flags().Changed("destination") {
				o.DestinationLocationID = &dst
			}

			var id int64
			err := a.inScope(cmd, func(ctx context.Context, s *sqlite.Store, tx *sqlx.Tx) error {
				ot, err := s.Orders.OrderTypeByCode(ctx, tx, typeCode)
				if err != nil {
					return err
				}
				o.TypeID = ot.ID
				id, err = s.Orders.CreateOrder(ctx, tx, o)
				return err
			})
			if err != nil {
				return err
			}
			return a.emit(cmd, map[string]any{"id": id, "order_number": o.OrderNumber}, func(w io.Writer) {
				fmt.Fprintf(w, "Created order %d (%s)\n", id, o.OrderNumber)
			})
		},
	}
	cmd.Flags().StringVar(&typeCode, "type", types.OrderTypeInbound, "order type code")
	cmd.Flags().StringVar(&status, "status", "", "initial status (default: pending)")
	cmd.Flags().Int64Var(&src, "source", 0, "source location ID")
	cmd.Flags().Int64Var(&dst, "destination", 0, "destination location ID")
	return cmd
}

func newOrderItemsCmd(a *app) *cobra.Command {
	var add []string
	cmd := &cobra.Command{
		Use:   "items <order-id>",
		Short: "List an order's items, adding new ones first",
		Long: `Items lists the products on an order. Each --add PRODUCT_ID:QTY is inserted
first; the batch is all-or-nothing.

Example:
  wms order items 4 --add 1:10 --add 2:5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orderID, err := parseID(args[0], "order id")
			if err != nil {
				return err
			}
			inputs := make([]types.OrderItemInput, 0, len(add))
			for _, pair := range add {
				key, qty, err := parsePair(pair)
				if err != nil {
					return err
				}
				productID, err := parseID(key, "product id")
				if err != nil {
					return err
				}
				inputs = append(inputs, types.OrderItemInput{ProductID: productID, Quantity: qty})
			}

			var items []types.OrderItemDetail
			err = a.inScope(cmd, func(ctx context.Context, s *sqlite.Store, tx *sqlx.Tx) error {
				if len(inputs) > 0 {
					if err := s.Orders.AddOrderItems(ctx, tx, orderID, inputs); err != nil {
						return err
					}
				}
				items, err = s.Orders.OrderItems(ctx, tx, orderID)
				return err
			})
			if err != nil {
				return err
			}
			return a.emit(cmd, items, func(w io.Writer) {
				if len(items) == 0 {
					fmt.Fprintln(w, "No items found.")
					return
				}
				fmt.Fprintln(w, "ID\tSKU\tPRODUCT\tQTY")
				for _, it := range items {
					fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", it.ID, it.SKU, it.ProductName, it.Quantity)
				}
			})
		},
	}
	cmd.Flags().StringArrayVar(&add, "add", nil, "item to add as PRODUCT_ID:QTY (repeatable)")
	return cmd
}

func newOrderStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <order-id> <status>",
		Short: "Move an order to a new status",
		Long: `Status moves an order along pending -> in_progress -> completed. Any
non-terminal order may be cancelled.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "order id")
			if err != nil {
				return err
			}
			err = a.inScope(cmd, func(ctx context.Context, s *sqlite.Store, tx *sqlx.Tx) error {
				return s.Orders.UpdateStatus(ctx, tx, id, args[1])
			})
			if err != nil {
				return err
			}
			return a.emit(cmd, map[string]any{"id": id, "status": args[1]}, func(w io.Writer) {
				fmt.Fprintf(w, "Order %d is now %s\n", id, args[1])
			})
		},
	}
}

func newOrderDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <order-id>",
		Short: "Delete an order and its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "order id")
			if err != nil {
				return err
			}
			err = a.inScope(cmd, func(ctx context.Context, s *sqlite.Store, tx *sqlx.Tx) error {
				return s.Orders.DeleteOrder(ctx, tx, id)
			})
			if err != nil {
				return err
			}
			return a.emit(cmd, map[string]any{"id": id, "deleted": true}, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted order %d\n", id)
			})
		},
	}
}

func newOrderListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List orders, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var orders []types.OrderSummary
			err := a.inScope(cmd, func(ctx context.Context, s *sqlite.Store, tx *sqlx.Tx) error {
				var err error
				orders, err = s.Orders.ListOrders(ctx, tx)
				return err
			})
			if err != nil {
				return err
			}
			return a.emit(cmd, orders, func(w io.Writer) {
				if len(orders) == 0 {
					fmt.Fprintln(w, "No orders found.")
					return
				}
				fmt.Fprintln(w, "ID\tNUMBER\tTYPE\tSTATUS\tITEMS\tSOURCE\tDEST\tCREATED")
				for _, o := range orders {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
						o.ID, o.OrderNumber, orDash(o.TypeCode), o.Status, o.ItemCount,
						idOrDash(o.SourceLocationID), idOrDash(o.DestinationLocationID),
						o.Timestamp.Local().Format("2006-01-02 15:04"))
				}
				fmt.Fprintf(w, "Total: %d order(s)\n", len(orders))
			})
		},
	}
}

func newOrderReceiveCmd(a *app) *cobra.Command {
	var (
		r     receiving.Receipt
		items []string
	)
	cmd := &cobra.Command{
		Use:   "receive",
		Short: "Record received goods as a completed order",
		Long: `Receive records goods received against an order number in one unit of
work: the order is created as completed, its items are added, and stock is
increased when the order type affects stock. An order with the same number
is replaced. A failure leaves no changes except an error entry in the process
history.

Example:
  wms order receive --number PO-1 --zone Receiving --item HAM-1:10 --item SAW-1:2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, pair := range items {
				sku, qty, err := parsePair(pair)
				if err != nil {
					return err
				}
				r.Items = append(r.Items, receiving.ReceiptItem{SKU: sku, Quantity: qty})
			}

			var res *receiving.Result
			err := a.withStore(cmd, func(ctx context.Context, s *sqlite.Store) error {
				var err error
				res, err = receiving.New(s, a.logger).Receive(ctx, r)
				return err
			})
			if err != nil {
				return err
			}
			return a.emit(cmd, res, func(w io.Writer) {
				verb := "Received"
				if res.Replaced {
					verb = "Re-received"
				}
				fmt.Fprintf(w, "%s order %s (id %d) with %d item(s)\n", verb, res.OrderNumber, res.OrderID, len(r.Items))
				for _, it := range r.Items {
					if stock, ok := res.Stock[it.SKU]; ok {
						fmt.Fprintf(w, "  %s\t+%d\tstock %d\n", it.SKU, it.Quantity, stock)
					}
				}
			})
		},
	}
	cmd.Flags().StringVar(&r.OrderNumber, "number", "", "order number (default: generated)")
	cmd.Flags().StringVar(&r.TypeCode, "type", types.OrderTypeInbound, "order type code")
	cmd.Flags().StringVar(&r.DestinationZone, "zone", "", "destination zone, provisioned on first use")
	cmd.Flags().StringVar(&r.UserID, "user", "", "user recorded in the process history")
	cmd.Flags().StringArrayVar(&items, "item", nil, "received item as SKU:QTY (repeatable, required)")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}

func newOrderTypesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List order types and their zone rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var ots []types.OrderType
			err := a.inScope(cmd, func(ctx context.Context, s *sqlite.Store, tx *sqlx.Tx) error {
				var err error
				ots, err = s.Orders.ListOrderTypes(ctx, tx)
				return err
			})
			if err != nil {
				return err
			}
			return a.emit(cmd, ots, func(w io.Writer) {
				fmt.Fprintln(w, "CODE\tNAME\tSTOCK\tSOURCE ZONES\tDESTINATION ZONES")
				for _, ot := range ots {
					stock := "no"
					if ot.AffectsStock {
						stock = "yes"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", ot.Code, ot.Name, stock,
						orDash(types.JoinZoneList(ot.AllowedSourceZones)),
						orDash(types.JoinZoneList(ot.AllowedDestinationZones)))
				}
			})
		},
	}
}

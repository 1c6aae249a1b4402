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

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Record and read the process history",
	}

	var e types.NewProcessEntry
	logCmd := &cobra.Command{
		Use:   "log",
		Short: "Append an entry to the process history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var id int64
			err := a.inScope(cmd, func(ctx context.Context, s *sqlite.Store, tx *sqlx.Tx) error {
				var err error
				id, err = s.History.LogProcess(ctx, tx, e)
				return err
			})
			if err != nil {
				return err
			}
			return a.emit(cmd, map[string]any{"id": id}, func(w io.Writer) {
				fmt.Fprintf(w, "Logged entry %d\n", id)
			})
		},
	}
	logCmd.Flags().StringVar(&e.OperationType, "operation", "", "operation type (required)")
	logCmd.Flags().StringVar(&e.SubOperation, "sub", "", "sub-operation")
	logCmd.Flags().StringVar(&e.Status, "status", "", "outcome (required)")
	logCmd.Flags().StringVar(&e.Details, "details", "", "free-text details")
	logCmd.Flags().StringVar(&e.UserID, "user", "", "user who performed the operation")
	_ = logCmd.MarkFlagRequired("operation")
	_ = logCmd.MarkFlagRequired("status")
	cmd.AddCommand(logCmd)

	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List process history entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var entries []types.ProcessHistoryEntry
			err := a.inScope(cmd, func(ctx context.Context, s *sqlite.Store, tx *sqlx.Tx) error {
				var err error
				entries, err = s.History.ListHistory(ctx, tx, limit)
				return err
			})
			if err != nil {
				return err
			}
			return a.emit(cmd, entries, func(w io.Writer) {
				if len(entries) == 0 {
					fmt.Fprintln(w, "No history found.")
					return
				}
				fmt.Fprintln(w, "ID\tTIME\tOPERATION\tSUB\tSTATUS\tUSER\tDETAILS")
				for _, h := range entries {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
						h.ID, h.Timestamp.Local().Format("2006-01-02 15:04:05"), h.OperationType,
						orDash(h.SubOperation), h.Status, orDash(h.UserID), h.Details)
				}
			})
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 0, "maximum number of entries (0 = no limit)")
	cmd.AddCommand(listCmd)

	return cmd
}

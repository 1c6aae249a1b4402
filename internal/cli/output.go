package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/wmslite/internal/sqlite"
	"github.com/mesh-intelligence/wmslite/pkg/types"
)

// withStore attaches a store for the command, applies the schema, runs fn,
// and detaches.
func (a *app) withStore(cmd *cobra.Command, fn func(ctx context.Context, s *sqlite.Store) error) error {
	cfg, err := a.storeConfig()
	if err != nil {
		return err
	}
	s := sqlite.NewStore(a.logger)
	if err := s.Attach(cfg); err != nil {
		return err
	}
	defer func() { _ = s.Detach() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.Init(ctx); err != nil {
		return systemErr(err)
	}
	return fn(ctx, s)
}

// inScope runs fn as one unit of work on an attached store.
func (a *app) inScope(cmd *cobra.Command, fn func(ctx context.Context, s *sqlite.Store, tx *sqlx.Tx) error) error {
	return a.withStore(cmd, func(ctx context.Context, s *sqlite.Store) error {
		return s.Scope(ctx, func(tx *sqlx.Tx) error {
			return fn(ctx, s, tx)
		})
	})
}

// emit writes v as indented JSON in --json mode, otherwise calls human with
// a tab-aligned writer.
func (a *app) emit(cmd *cobra.Command, v any, human func(w io.Writer)) error {
	out := cmd.OutOrStdout()
	if a.jsonMode {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal output: %w", err)
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	human(w)
	if err := w.Flush(); err != nil {
		return err
	}
	// Trim the padding tabwriter leaves on the last column.
	for _, line := range strings.Split(strings.TrimSuffix(sb.String(), "\n"), "\n") {
		fmt.Fprintln(out, strings.TrimRight(line, " "))
	}
	return nil
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: %s %q must be a positive integer", types.ErrInvalidArgument, what, s)
	}
	return id, nil
}

// parsePair splits KEY:QTY into its parts.
func parsePair(s string) (string, int, error) {
	key, qty, ok := strings.Cut(s, ":")
	if !ok || key == "" {
		return "", 0, fmt.Errorf("%w: %q must look like KEY:QTY", types.ErrInvalidArgument, s)
	}
	n, err := strconv.Atoi(qty)
	if err != nil {
		return "", 0, fmt.Errorf("%w: quantity in %q: %v", types.ErrInvalidArgument, s, err)
	}
	return key, n, nil
}

// optionalInt returns nil unless the flag was set.
func optionalInt(cmd *cobra.Command, name string, v int) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func intOrDash(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func idOrDash(v *int64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatInt(*v, 10)
}

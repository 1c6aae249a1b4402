// Tests for the process history log.
package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/wmslite/pkg/types"
)

func TestHistory(t *testing.T) {
	s := newTestStore(t)
	before := time.Now().Add(-time.Second)

	for _, e := range []types.NewProcessEntry{
		{OperationType: "receiving", SubOperation: "receive_order", Status: "success", Details: "PO-1"},
		{OperationType: "receiving", SubOperation: "receive_order", Status: "failure", UserID: "alice"},
		{OperationType: "zone", Status: "success"},
	} {
		scoped(t, s, func(ctx context.Context, tx *sqlx.Tx) (int64, error) {
			return s.History.LogProcess(ctx, tx, e)
		})
	}

	all := scoped(t, s, func(ctx context.Context, tx *sqlx.Tx) ([]types.ProcessHistoryEntry, error) {
		return s.History.ListHistory(ctx, tx, 0)
	})
	require.Len(t, all, 3)
	assert.Equal(t, "zone", all[0].OperationType)
	assert.Empty(t, all[0].SubOperation)
	assert.Equal(t, "alice", all[1].UserID)
	assert.Equal(t, "PO-1", all[2].Details)
	for _, e := range all {
		assert.True(t, e.Timestamp.After(before))
	}

	limited := scoped(t, s, func(ctx context.Context, tx *sqlx.Tx) ([]types.ProcessHistoryEntry, error) {
		return s.History.ListHistory(ctx, tx, 2)
	})
	assert.Len(t, limited, 2)

	err := scopedErr(s, func(ctx context.Context, tx *sqlx.Tx) error {
		_, err := s.History.LogProcess(ctx, tx, types.NewProcessEntry{OperationType: "zone"})
		return err
	})
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestParseTime(t *testing.T) {
	ts, err := parseTime("2024-03-01 10:20:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC), ts)

	_, err = parseTime("yesterday")
	assert.Error(t, err)
}

func TestStoredTimestampsSortAsText(t *testing.T) {
	a := time.Date(2024, 3, 1, 10, 20, 30, 100_000_000, time.UTC).Format(timeLayout)
	b := time.Date(2024, 3, 1, 10, 20, 30, 120_000_000, time.UTC).Format(timeLayout)
	assert.Less(t, a, b)

	parsed, err := parseTime(b)
	require.NoError(t, err)
	assert.Equal(t, 120_000_000, parsed.Nanosecond())
}

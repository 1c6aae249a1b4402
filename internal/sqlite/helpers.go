package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlitedriver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mesh-intelligence/wmslite/pkg/types"
)

// timeLayout is the text form of stored timestamps. The fraction is fixed
// width so text order matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// legacyTimeLayout matches SQLite's CURRENT_TIMESTAMP text.
const legacyTimeLayout = "2006-01-02 15:04:05"

// now returns the current time as stored in timestamp columns.
func now() string {
	return time.Now().UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	if t, lerr := time.Parse(legacyTimeLayout, s); lerr == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
}

// isConstraint reports whether err is a SQLite constraint failure
// (UNIQUE, CHECK, NOT NULL, ...).
func isConstraint(err error) bool {
	var se *sqlitedriver.Error
	if errors.As(err, &se) {
		return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}

// mapExecErr converts engine constraint failures into ErrConstraintViolation
// and wraps anything else with what.
func mapExecErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if isConstraint(err) {
		return fmt.Errorf("%w: %s: %v", types.ErrConstraintViolation, what, err)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// notFound maps sql.ErrNoRows to ErrNotFound and wraps anything else.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", types.ErrNotFound, what)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// nullString stores an empty string as NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

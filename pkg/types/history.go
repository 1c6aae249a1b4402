package types

import "time"

// ProcessHistoryEntry is one audit record. Entries are append-only.
type ProcessHistoryEntry struct {
	ID            int64     `json:"id"`
	OperationType string    `json:"operation_type"`
	SubOperation  string    `json:"sub_operation"`
	Status        string    `json:"status"`
	Details       string    `json:"details,omitempty"`
	UserID        string    `json:"user_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewProcessEntry carries the fields for an audit insert. Empty Details and
// UserID are stored as NULL.
type NewProcessEntry struct {
	OperationType string
	SubOperation  string
	Status        string
	Details       string
	UserID        string
}

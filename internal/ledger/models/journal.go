package models

import (
	"time"

	"github.com/google/uuid"
)

// JournalEntry is one accepted operation in commit order. Seq starts at 1 and
// has no gaps; replaying entries in Seq order rebuilds the ledger.
type JournalEntry struct {
	ID         uuid.UUID `json:"id"`
	Seq        uint64    `json:"seq"`
	Op         Operation `json:"op"`
	RequestID  string    `json:"request_id,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

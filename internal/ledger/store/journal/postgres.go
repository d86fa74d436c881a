package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"dua/internal/ledger/models"
	"dua/internal/platform/postgres"
	"dua/pkg/platform/sentinel"
	txcontext "dua/pkg/platform/tx"
)

// PostgresStore keeps the journal in ledger_journal, one row per entry, with
// seq as primary key. Appends join the transaction in context when present.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const journalSchema = `
	CREATE TABLE IF NOT EXISTS ledger_journal (
		seq          BIGINT PRIMARY KEY,
		id           UUID NOT NULL UNIQUE,
		kind         TEXT NOT NULL,
		payload      JSONB NOT NULL,
		request_id   TEXT NOT NULL DEFAULT '',
		recorded_at  TIMESTAMPTZ NOT NULL
	)
`

// EnsureSchema creates the journal table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, journalSchema); err != nil {
		return fmt.Errorf("create journal schema: %w", err)
	}
	return nil
}

// Append inserts entry when it directly follows the last stored seq. A lost
// race on the primary key is reported as sentinel.ErrConflict.
func (s *PostgresStore) Append(ctx context.Context, entry models.JournalEntry) error {
	payload, err := json.Marshal(entry.Op)
	if err != nil {
		return fmt.Errorf("marshal journal op: %w", err)
	}

	exec := txcontext.Executor(ctx, s.db)
	var last int64
	if err := exec.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM ledger_journal`).Scan(&last); err != nil {
		return fmt.Errorf("read journal head: %w", err)
	}
	if want := uint64(last) + 1; entry.Seq != want { //nolint:gosec // seq is never negative
		return fmt.Errorf("append seq %d, want %d: %w", entry.Seq, want, sentinel.ErrConflict)
	}

	query := `
		INSERT INTO ledger_journal (seq, id, kind, payload, request_id, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = exec.ExecContext(ctx, query,
		int64(entry.Seq), //nolint:gosec // checked against MAX(seq) above
		entry.ID,
		string(entry.Op.Kind),
		payload,
		entry.RequestID,
		entry.RecordedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("append seq %d: %w", entry.Seq, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return nil
}

// List returns all entries in seq order.
func (s *PostgresStore) List(ctx context.Context) ([]models.JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, payload, request_id, recorded_at
		FROM ledger_journal
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []models.JournalEntry
	for rows.Next() {
		var (
			seq     int64
			payload []byte
			entry   models.JournalEntry
		)
		if err := rows.Scan(&seq, &entry.ID, &payload, &entry.RequestID, &entry.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		if err := json.Unmarshal(payload, &entry.Op); err != nil {
			return nil, fmt.Errorf("decode journal entry %d: %w", seq, err)
		}
		entry.Seq = uint64(seq) //nolint:gosec // primary key values are positive
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) Health(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"

	audit "dua/pkg/platform/audit"
	txcontext "dua/pkg/platform/tx"

	"github.com/google/uuid"
)

// Store implements audit.Store on the ledger_audit_events table. Appends join
// the transaction in context when there is one.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const schema = `
	CREATE TABLE IF NOT EXISTS ledger_audit_events (
		id          UUID PRIMARY KEY,
		category    TEXT NOT NULL,
		timestamp   TIMESTAMPTZ NOT NULL,
		action      TEXT NOT NULL,
		actor       TEXT NOT NULL,
		subject     TEXT NOT NULL DEFAULT '',
		amount      TEXT NOT NULL DEFAULT '',
		role        TEXT NOT NULL DEFAULT '',
		feature     TEXT NOT NULL DEFAULT '',
		decision    TEXT NOT NULL,
		reason      TEXT NOT NULL DEFAULT '',
		seq         BIGINT NOT NULL DEFAULT 0,
		request_id  TEXT NOT NULL DEFAULT '',
		client_ip   TEXT NOT NULL DEFAULT '',
		user_agent  TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS ledger_audit_events_actor_idx ON ledger_audit_events (actor, timestamp);
`

// EnsureSchema creates the audit table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create audit schema: %w", err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	category := event.Category
	if category == "" {
		category = audit.CategoryFor(event.Action, event.Decision)
	}
	query := `
		INSERT INTO ledger_audit_events (
			id, category, timestamp, action, actor, subject, amount,
			role, feature, decision, reason, seq, request_id, client_ip, user_agent
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query,
		uuid.New(),
		string(category),
		event.Timestamp,
		event.Action,
		event.Actor,
		event.Subject,
		event.Amount,
		event.Role,
		event.Feature,
		event.Decision,
		event.Reason,
		int64(event.Seq), //nolint:gosec // journal sequences stay far below MaxInt64
		event.RequestID,
		event.ClientIP,
		event.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByActor returns events emitted for one caller, oldest first.
func (s *Store) ListByActor(ctx context.Context, actor string) ([]audit.Event, error) {
	query := `
		SELECT category, timestamp, action, actor, subject, amount,
			   role, feature, decision, reason, seq, request_id, client_ip, user_agent
		FROM ledger_audit_events
		WHERE actor = $1
		ORDER BY timestamp ASC
	`
	rows, err := s.db.QueryContext(ctx, query, actor)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			category string
			seq      int64
			event    audit.Event
		)
		err := rows.Scan(
			&category,
			&event.Timestamp,
			&event.Action,
			&event.Actor,
			&event.Subject,
			&event.Amount,
			&event.Role,
			&event.Feature,
			&event.Decision,
			&event.Reason,
			&seq,
			&event.RequestID,
			&event.ClientIP,
			&event.UserAgent,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		event.Seq = uint64(seq) //nolint:gosec // written from a uint64 above
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

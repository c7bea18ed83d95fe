package audit

import (
	"context"
	"database/sql"
	"errors"

	"vpbx-platform/pkg/utils"
)

// Schema creates the journal table. INSERT-only by convention; nothing in
// this service updates or deletes rows.
const Schema = `
CREATE TABLE IF NOT EXISTS vpbx_command_audit (
	id            UUID PRIMARY KEY,
	type          TEXT NOT NULL,
	endpoint      TEXT NOT NULL DEFAULT '',
	command_id    TEXT NOT NULL DEFAULT '',
	actor_user_id TEXT NOT NULL DEFAULT '',
	actor_role    TEXT NOT NULL DEFAULT '',
	ip_address    TEXT NOT NULL DEFAULT '',
	message       TEXT NOT NULL DEFAULT '',
	metadata      JSONB,
	created_at    TIMESTAMPTZ NOT NULL
)`

const insertEventSQL = `
INSERT INTO vpbx_command_audit
	(id, type, endpoint, command_id, actor_user_id, actor_role, ip_address, message, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// PostgresRepo appends events to Postgres through the pgx database/sql driver.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

// EnsureSchema creates the table if missing.
func (r *PostgresRepo) EnsureSchema(ctx context.Context) error {
	if r.db == nil {
		return errors.New("audit: db is nil")
	}
	return utils.Migrate(ctx, r.db, Schema)
}

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	if r.db == nil {
		return errors.New("audit: db is nil")
	}
	var meta any
	if e.Metadata != "" {
		meta = e.Metadata
	}
	_, err := r.db.ExecContext(ctx, insertEventSQL,
		e.ID, string(e.Type), e.Endpoint, e.CommandID,
		e.ActorUserID, e.ActorRole, e.IPAddress, e.Message,
		meta, e.CreatedAt,
	)
	return err
}

package journal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tezgate/tezgate/internal/tezos"
)

// PostgresRepository persists journal entries in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a journal backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the journal table when it does not exist yet.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `CREATE TABLE IF NOT EXISTS transfer_journal (
        id UUID PRIMARY KEY,
        direction TEXT NOT NULL,
        asset TEXT NOT NULL,
        address TEXT NOT NULL,
        amount_minimal BIGINT NOT NULL,
        operation_reference TEXT NOT NULL DEFAULT '',
        status TEXT NOT NULL,
        detail TEXT NOT NULL DEFAULT '',
        created_at TIMESTAMPTZ NOT NULL
    )`)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `CREATE INDEX IF NOT EXISTS transfer_journal_address_idx
        ON transfer_journal (address, created_at DESC)`)
	return err
}

// Record inserts one journal entry.
func (r *PostgresRepository) Record(ctx context.Context, entry Entry) error {
	id, err := uuid.Parse(entry.ID)
	if err != nil {
		id = uuid.New()
	}
	_, err = r.db.Exec(ctx, `INSERT INTO transfer_journal
        (id, direction, asset, address, amount_minimal, operation_reference, status, detail, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, entry.Direction, string(entry.Asset), entry.Address, entry.AmountMinimal,
		entry.OperationReference, entry.Status, entry.Detail, entry.CreatedAt.UTC())
	return err
}

// ListByAddress fetches recent entries for the address, newest first.
func (r *PostgresRepository) ListByAddress(ctx context.Context, address string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `SELECT id, direction, asset, address, amount_minimal,
        operation_reference, status, detail, created_at
        FROM transfer_journal WHERE address = $1
        ORDER BY created_at DESC LIMIT $2`, address, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			entry     Entry
			id        uuid.UUID
			asset     string
			createdAt time.Time
		)
		if err := rows.Scan(&id, &entry.Direction, &asset, &entry.Address, &entry.AmountMinimal,
			&entry.OperationReference, &entry.Status, &entry.Detail, &createdAt); err != nil {
			return nil, err
		}
		entry.ID = id.String()
		entry.Asset = tezos.Asset(asset)
		entry.CreatedAt = createdAt.UTC()
		out = append(out, entry)
	}
	return out, rows.Err()
}

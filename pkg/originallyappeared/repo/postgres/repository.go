package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	oa "github.com/krues8dr/originallyappeared/pkg/originallyappeared"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements originallyappeared.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) oa.Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) oa.Repository {
	return &Repository{db: pool}
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return oa.ErrRecordNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("duplicate entry in %s: %s", operation, pgErr.ConstraintName)
		case "23503": // foreign_key_violation
			return oa.ErrRecordNotFound
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

const recordColumns = `id, record_type, slug, title, body, created_at, updated_at`

func scanRecord(row pgx.Row) (*oa.Record, error) {
	var record oa.Record
	var recordType string
	if err := row.Scan(&record.ID, &recordType, &record.Slug, &record.Title,
		&record.Body, &record.CreatedAt, &record.UpdatedAt); err != nil {
		return nil, err
	}
	record.Type = oa.RecordType(recordType)
	return &record, nil
}

// Record operations

func (r *Repository) CreateRecord(ctx context.Context, record *oa.Record) error {
	query := `
		INSERT INTO records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		record.ID, string(record.Type), record.Slug, record.Title,
		record.Body, record.CreatedAt, record.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("create record", err)
	}
	return nil
}

func (r *Repository) GetRecord(ctx context.Context, id uuid.UUID) (*oa.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE id = $1`

	record, err := scanRecord(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, r.handlePostgresError("get record", err)
	}
	return record, nil
}

func (r *Repository) GetRecordBySlug(ctx context.Context, slug string) (*oa.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE slug = $1`

	record, err := scanRecord(r.db.QueryRow(ctx, query, slug))
	if err != nil {
		return nil, r.handlePostgresError("get record by slug", err)
	}
	return record, nil
}

func (r *Repository) UpdateRecord(ctx context.Context, record *oa.Record) error {
	query := `
		UPDATE records SET
			record_type = $2, slug = $3, title = $4, body = $5, updated_at = $6
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		record.ID, string(record.Type), record.Slug, record.Title, record.Body, time.Now().UTC())
	if err != nil {
		return r.handlePostgresError("update record", err)
	}
	if tag.RowsAffected() == 0 {
		return oa.ErrRecordNotFound
	}
	return nil
}

// DeleteRecord removes the record; its metadata follows through ON DELETE CASCADE.
func (r *Repository) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM records WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete record", err)
	}
	if tag.RowsAffected() == 0 {
		return oa.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) ListRecords(ctx context.Context) ([]*oa.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, r.handlePostgresError("list records", err)
	}
	defer rows.Close()

	var records []*oa.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, r.handlePostgresError("scan record", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// Record metadata operations

func (r *Repository) GetRecordMeta(ctx context.Context, recordID uuid.UUID, key string) (string, error) {
	query := `SELECT meta_value FROM record_meta WHERE record_id = $1 AND meta_key = $2`

	var value string
	err := r.db.QueryRow(ctx, query, recordID, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", r.handlePostgresError("get record meta", err)
	}
	return value, nil
}

func (r *Repository) SetRecordMeta(ctx context.Context, recordID uuid.UUID, key, value string) error {
	query := `
		INSERT INTO record_meta (record_id, meta_key, meta_value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (record_id, meta_key) DO UPDATE SET
			meta_value = EXCLUDED.meta_value,
			updated_at = EXCLUDED.updated_at`

	if _, err := r.db.Exec(ctx, query, recordID, key, value); err != nil {
		return r.handlePostgresError("set record meta", err)
	}
	return nil
}

package imports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// PGStore is the Postgres-backed BatchStore.
type PGStore struct {
	db DBTX
}

// NewPGStore creates a batch store on top of a pgx pool or transaction.
func NewPGStore(db DBTX) *PGStore {
	return &PGStore{db: db}
}

const batchSchema = `
CREATE TABLE IF NOT EXISTS import_batches (
	id                 UUID PRIMARY KEY,
	entity_type        TEXT NOT NULL,
	status             TEXT NOT NULL,
	payload            JSONB NOT NULL,
	total_rows         INT NOT NULL,
	imported_rows      INT NOT NULL DEFAULT 0,
	failed_rows        INT NOT NULL DEFAULT 0,
	error_details      JSONB,
	critical_error     TEXT,
	original_file_name TEXT,
	created_by         TEXT,
	created_at         TIMESTAMPTZ NOT NULL,
	updated_at         TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS import_batches_pending_idx
	ON import_batches (created_at) WHERE status = 'PENDING';
`

// EnsureSchema creates the import_batches table when it does not exist.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, batchSchema); err != nil {
		return fmt.Errorf("ensure import_batches schema: %w", err)
	}
	return nil
}

const batchColumns = `id, entity_type, status, payload, total_rows, imported_rows,
	failed_rows, error_details, critical_error, original_file_name, created_by,
	created_at, updated_at`

func (s *PGStore) Create(ctx context.Context, batch *Batch) error {
	payload, err := json.Marshal(batch.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO import_batches (`+batchColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		batch.ID, string(batch.EntityType), string(batch.Status), payload,
		batch.Summary.TotalRows, batch.Summary.Imported, batch.Summary.FailedRows,
		marshalRowErrors(batch.ErrorDetails), nullText(batch.CriticalError),
		nullText(batch.OriginalFileName), nullText(batch.CreatedBy),
		batch.CreatedAt, batch.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert import batch: %w", err)
	}
	return nil
}

func (s *PGStore) Save(ctx context.Context, batch *Batch) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE import_batches
		SET status = $2, imported_rows = $3, failed_rows = $4,
			error_details = $5, critical_error = $6, updated_at = now()
		WHERE id = $1`,
		batch.ID, string(batch.Status),
		batch.Summary.Imported, batch.Summary.FailedRows,
		marshalRowErrors(batch.ErrorDetails), nullText(batch.CriticalError),
	)
	if err != nil {
		return fmt.Errorf("save import batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBatchNotFound
	}
	return nil
}

func (s *PGStore) FindByID(ctx context.Context, id uuid.UUID) (*Batch, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+batchColumns+`
		FROM import_batches WHERE id = $1`, id)
	return scanBatch(row)
}

// Claim is a single conditional update: only one caller can move a batch
// from PENDING to PROCESSING, so duplicate dispatch invocations cannot
// double-process it.
func (s *PGStore) Claim(ctx context.Context, id uuid.UUID) (*Batch, bool, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE import_batches
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3
		RETURNING `+batchColumns,
		id, string(StatusProcessing), string(StatusPending))

	batch, err := scanBatch(row)
	if err != nil {
		if errors.Is(err, ErrBatchNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return batch, true, nil
}

func (s *PGStore) FindPendingOlderThan(ctx context.Context, age time.Duration, limit int) ([]uuid.UUID, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id FROM import_batches
		WHERE status = $1 AND created_at < now() - $2::interval
		ORDER BY created_at
		LIMIT $3`,
		string(StatusPending), fmt.Sprintf("%f seconds", age.Seconds()), limit)
	if err != nil {
		return nil, fmt.Errorf("find pending batches: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanBatch(row pgx.Row) (*Batch, error) {
	var (
		b             Batch
		entityType    string
		status        string
		payload       []byte
		errorDetails  []byte
		criticalError pgtype.Text
		fileName      pgtype.Text
		createdBy     pgtype.Text
	)

	err := row.Scan(&b.ID, &entityType, &status, &payload,
		&b.Summary.TotalRows, &b.Summary.Imported, &b.Summary.FailedRows,
		&errorDetails, &criticalError, &fileName, &createdBy,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBatchNotFound
		}
		return nil, fmt.Errorf("scan import batch: %w", err)
	}

	b.EntityType = EntityType(entityType)
	b.Status = BatchStatus(status)
	if err := json.Unmarshal(payload, &b.Payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	if len(errorDetails) > 0 {
		if err := json.Unmarshal(errorDetails, &b.ErrorDetails); err != nil {
			return nil, fmt.Errorf("unmarshal error details: %w", err)
		}
	}
	b.CriticalError = criticalError.String
	b.OriginalFileName = fileName.String
	b.CreatedBy = createdBy.String
	return &b, nil
}

// marshalRowErrors serializes row errors for the JSONB column, keeping the
// column NULL while no row has failed.
func marshalRowErrors(errs []RowError) any {
	if len(errs) == 0 {
		return nil
	}
	data, err := json.Marshal(errs)
	if err != nil {
		return nil
	}
	return data
}

func nullText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

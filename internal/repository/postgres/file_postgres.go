package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Nitish-kumar777/storage-app/internal/model"
	"github.com/Nitish-kumar777/storage-app/internal/repository"
)

const recordColumns = `id, owner_id, name, size_bytes, mime_type, resource_type, url, object_host_id,
		inline_data, format, width, height, duration_seconds, upload_key, created_at`

// listColumns omits the inline bytes; listings never need them.
const listColumns = `id, owner_id, name, size_bytes, mime_type, resource_type, url, object_host_id,
		NULL::bytea AS inline_data, format, width, height, duration_seconds, upload_key, created_at`

// FilePostgres is a PostgreSQL implementation of repository.FileRepository and
// repository.UploadIntentRepository. It uses database/sql with parameterized queries
// and contains no business logic.
type FilePostgres struct {
	db *sql.DB
}

// NewFilePostgres creates a new FilePostgres repository.
func NewFilePostgres(db *sql.DB) *FilePostgres {
	return &FilePostgres{db: db}
}

var (
	_ repository.FileRepository         = (*FilePostgres)(nil)
	_ repository.UploadIntentRepository = (*FilePostgres)(nil)
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*model.FileRecord, error) {
	var (
		rec          model.FileRecord
		resourceType string
		url          sql.NullString
		objectHostID sql.NullString
		format       sql.NullString
		width        sql.NullInt64
		height       sql.NullInt64
		duration     sql.NullFloat64
		uploadKey    sql.NullString
	)
	if err := row.Scan(
		&rec.ID,
		&rec.OwnerID,
		&rec.Name,
		&rec.SizeBytes,
		&rec.MimeType,
		&resourceType,
		&url,
		&objectHostID,
		&rec.InlineData,
		&format,
		&width,
		&height,
		&duration,
		&uploadKey,
		&rec.CreatedAt,
	); err != nil {
		return nil, err
	}
	rec.ResourceType = model.ResourceType(resourceType)
	rec.URL = url.String
	rec.ObjectHostID = objectHostID.String
	rec.Format = format.String
	rec.UploadKey = uploadKey.String
	if width.Valid {
		w := int(width.Int64)
		rec.Width = &w
	}
	if height.Valid {
		h := int(height.Int64)
		rec.Height = &h
	}
	if duration.Valid {
		d := duration.Float64
		rec.DurationSeconds = &d
	}
	return &rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func insertArgs(rec *model.FileRecord) []any {
	return []any{
		rec.ID,
		rec.OwnerID,
		rec.Name,
		rec.SizeBytes,
		rec.MimeType,
		string(rec.ResourceType),
		nullString(rec.URL),
		nullString(rec.ObjectHostID),
		rec.InlineData,
		nullString(rec.Format),
		nullInt(rec.Width),
		nullInt(rec.Height),
		nullFloat(rec.DurationSeconds),
		nullString(rec.UploadKey),
		rec.CreatedAt,
	}
}

const insertRecordSQL = `
		INSERT INTO files (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING ` + recordColumns

// FindByIDAndOwner fetches a single record scoped by owner.
func (r *FilePostgres) FindByIDAndOwner(ctx context.Context, id, ownerID string) (*model.FileRecord, error) {
	q := `SELECT ` + recordColumns + ` FROM files WHERE id = $1 AND owner_id = $2`
	return scanRecord(r.db.QueryRowContext(ctx, q, id, ownerID))
}

// FindByUploadKey fetches the record committed under an idempotency key.
func (r *FilePostgres) FindByUploadKey(ctx context.Context, ownerID, key string) (*model.FileRecord, error) {
	q := `SELECT ` + listColumns + ` FROM files WHERE owner_id = $1 AND upload_key = $2`
	return scanRecord(r.db.QueryRowContext(ctx, q, ownerID, key))
}

// ListByOwner returns an owner's records ordered newest first.
func (r *FilePostgres) ListByOwner(ctx context.Context, ownerID string) ([]model.FileRecord, error) {
	q := `SELECT ` + listColumns + ` FROM files WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.FileRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// SumSizeByOwner returns the summed size of an owner's records (0 when there are none).
func (r *FilePostgres) SumSizeByOwner(ctx context.Context, ownerID string) (int64, error) {
	const q = `SELECT COALESCE(SUM(size_bytes), 0) FROM files WHERE owner_id = $1`
	var total int64
	if err := r.db.QueryRowContext(ctx, q, ownerID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// ExistsByObjectKey reports whether any record references the object key.
func (r *FilePostgres) ExistsByObjectKey(ctx context.Context, key string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM files WHERE object_host_id = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, key).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// DeleteByIDAndOwner removes a record scoped by owner and reports whether a row was deleted.
func (r *FilePostgres) DeleteByIDAndOwner(ctx context.Context, id, ownerID string) (bool, error) {
	const q = `DELETE FROM files WHERE id = $1 AND owner_id = $2`
	res, err := r.db.ExecContext(ctx, q, id, ownerID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Begin inserts a pending upload intent. A duplicate key yields repository.ErrIntentExists.
func (r *FilePostgres) Begin(ctx context.Context, intent *model.UploadIntent) error {
	const q = `
		INSERT INTO upload_intents (id, owner_id, object_key, size_bytes, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, q,
		intent.ID,
		intent.OwnerID,
		intent.ObjectKey,
		intent.SizeBytes,
		intent.CreatedAt,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrIntentExists
	}
	return nil
}

// Commit stores the record and drops its intent atomically.
func (r *FilePostgres) Commit(ctx context.Context, intentID string, rec *model.FileRecord) (*model.FileRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stored, err := scanRecord(tx.QueryRowContext(ctx, insertRecordSQL, insertArgs(rec)...))
	if err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM upload_intents WHERE id = $1`, intentID); err != nil {
		return nil, fmt.Errorf("delete intent: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return stored, nil
}

// Abandon removes an intent. It does not return an error if the row does not exist.
func (r *FilePostgres) Abandon(ctx context.Context, intentID string) error {
	const q = `DELETE FROM upload_intents WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, intentID)
	return err
}

// ListStale returns the oldest intents created before the cutoff.
func (r *FilePostgres) ListStale(ctx context.Context, before time.Time, limit int) ([]model.UploadIntent, error) {
	const q = `
		SELECT id, owner_id, object_key, size_bytes, created_at
		FROM upload_intents
		WHERE created_at < $1
		ORDER BY created_at ASC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, q, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.UploadIntent, 0)
	for rows.Next() {
		var in model.UploadIntent
		if err := rows.Scan(&in.ID, &in.OwnerID, &in.ObjectKey, &in.SizeBytes, &in.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, in)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

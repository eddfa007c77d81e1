package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Nitish-kumar777/storage-app/internal/model"
)

// ErrIntentExists is returned by Begin when an intent with the same idempotency key is already pending.
var ErrIntentExists = errors.New("upload intent already exists")

// FileRepository defines data access for file records using SQL queries only.
// Every read and delete is scoped by owner. Missing rows surface as sql.ErrNoRows.
type FileRepository interface {
	// FindByIDAndOwner returns a record only when it belongs to ownerID.
	FindByIDAndOwner(ctx context.Context, id, ownerID string) (*model.FileRecord, error)

	// FindByUploadKey returns the record committed by a previous upload attempt with the same key.
	FindByUploadKey(ctx context.Context, ownerID, key string) (*model.FileRecord, error)

	// ListByOwner returns an owner's records newest first. Inline bytes are not loaded.
	ListByOwner(ctx context.Context, ownerID string) ([]model.FileRecord, error)

	// SumSizeByOwner returns the total size_bytes over an owner's records.
	SumSizeByOwner(ctx context.Context, ownerID string) (int64, error)

	// ExistsByObjectKey reports whether a committed record references the object key.
	ExistsByObjectKey(ctx context.Context, key string) (bool, error)

	// DeleteByIDAndOwner removes a record. It reports false if nothing matched.
	DeleteByIDAndOwner(ctx context.Context, id, ownerID string) (bool, error)
}

// UploadIntentRepository persists the provisional phase of two-phase uploads.
type UploadIntentRepository interface {
	// Begin records the intent before any object host write.
	Begin(ctx context.Context, intent *model.UploadIntent) error

	// Commit inserts the record and removes the intent in one transaction.
	Commit(ctx context.Context, intentID string, rec *model.FileRecord) (*model.FileRecord, error)

	// Abandon removes an intent whose object has been compensated. Missing intents are not an error.
	Abandon(ctx context.Context, intentID string) error

	// ListStale returns intents created before the cutoff, oldest first.
	ListStale(ctx context.Context, before time.Time, limit int) ([]model.UploadIntent, error)
}

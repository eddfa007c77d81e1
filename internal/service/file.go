package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Nitish-kumar777/storage-app/internal/model"
	"github.com/Nitish-kumar777/storage-app/internal/repository"
	"github.com/Nitish-kumar777/storage-app/internal/storage"
)

var tracer = otel.Tracer("github.com/Nitish-kumar777/storage-app/internal/service")

// UploadInput is one file handed to the upload orchestrator.
// Size is the declared byte count and must be known up front for the quota check.
type UploadInput struct {
	OwnerID        string
	Name           string
	MimeType       string
	Size           int64
	Body           io.Reader
	IdempotencyKey string
}

// UploadResult is the per-file outcome of a batch upload. Exactly one of Record and Err is set.
type UploadResult struct {
	Name   string
	Record *model.FileRecord
	Err    error
}

// DeleteRequest addresses a file by record id, or by object key for host-only entries.
type DeleteRequest struct {
	OwnerID      string
	FileID       string
	ObjectHostID string
}

// DeleteResult reports what a delete actually removed.
type DeleteResult struct {
	RecordDeleted bool `json:"recordDeleted"`
	ObjectDeleted bool `json:"objectDeleted"`
}

// Listing is the merged dashboard view of an owner's storage.
type Listing struct {
	Usage       model.Usage
	Records     []model.FileRecord
	HostEntries []model.ObjectHostEntry
}

// ListingEntry is one row of the merged listing.
type ListingEntry struct {
	FileID     string    `json:"fileId"`
	FileName   string    `json:"fileName"`
	FileSize   int64     `json:"fileSize"`
	FileType   string    `json:"fileType"`
	FileURL    string    `json:"fileUrl,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
}

const (
	EntrySourceRecord = "record"
	EntrySourceObject = "object"
)

// Entries merges records and host objects, newest first. Objects are not deduplicated against records.
func (l *Listing) Entries() []ListingEntry {
	out := make([]ListingEntry, 0, len(l.Records)+len(l.HostEntries))
	for _, r := range l.Records {
		out = append(out, ListingEntry{
			FileID:     r.ID,
			FileName:   r.Name,
			FileSize:   r.SizeBytes,
			FileType:   EntrySourceRecord,
			FileURL:    r.URL,
			UploadedAt: r.CreatedAt,
		})
	}
	for _, e := range l.HostEntries {
		out = append(out, ListingEntry{
			FileID:     e.PublicID,
			FileName:   baseName(e.PublicID),
			FileSize:   e.Bytes,
			FileType:   EntrySourceObject,
			FileURL:    e.SecureURL,
			UploadedAt: e.CreatedAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out
}

// RecordListing is the records-only view. Usage still covers both sources.
type RecordListing struct {
	Usage   model.Usage
	Records []model.FileRecord
}

// FileService defines the storage dashboard use cases. Every call is scoped to one owner.
type FileService interface {
	// Upload validates, admits against the quota and stores one file in two phases.
	Upload(ctx context.Context, in UploadInput) (*model.FileRecord, error)

	// UploadBatch admits files against a single usage snapshot in order and uploads the admitted ones concurrently.
	// A per-file failure never fails the batch.
	UploadBatch(ctx context.Context, ownerID string, inputs []UploadInput) ([]UploadResult, error)

	// Usage returns the owner's aggregate consumption.
	Usage(ctx context.Context, ownerID string) (model.Usage, error)

	// ListFiles returns records and live host objects.
	ListFiles(ctx context.Context, ownerID string) (*Listing, error)

	// ListRecords returns records only, newest first.
	ListRecords(ctx context.Context, ownerID string) (*RecordListing, error)

	// ResolveDownload turns a record into a signed redirect, a stored URL or inline bytes.
	ResolveDownload(ctx context.Context, ownerID, fileID string) (*model.DownloadTarget, error)

	// Delete removes a file's object and record. Deleting something that does not exist succeeds.
	Delete(ctx context.Context, req DeleteRequest) (*DeleteResult, error)
}

// fileService is a concrete implementation of FileService.
type fileService struct {
	files   repository.FileRepository
	intents repository.UploadIntentRepository
	host    storage.ObjectHost
	metrics *Metrics
	log     *slog.Logger
	opts    Options
	now     func() time.Time
}

// NewFileService constructs a new FileService.
func NewFileService(
	files repository.FileRepository,
	intents repository.UploadIntentRepository,
	host storage.ObjectHost,
	metrics *Metrics,
	logger *slog.Logger,
	opts Options,
) FileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &fileService{
		files:   files,
		intents: intents,
		host:    host,
		metrics: metrics,
		log:     logger,
		opts:    opts.withDefaults(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *fileService) recordRead() retryPolicy {
	return retryPolicy{attempts: s.opts.RetryAttempts, interval: s.opts.RetryInterval, timeout: s.opts.RecordTimeout}
}

func (s *fileService) hostRead() retryPolicy {
	return retryPolicy{attempts: s.opts.RetryAttempts, interval: s.opts.RetryInterval, timeout: s.opts.HostTimeout}
}

func (s *fileService) recordCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opts.RecordTimeout)
}

func (s *fileService) hostCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opts.HostTimeout)
}

func failSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

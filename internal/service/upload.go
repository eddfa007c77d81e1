package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"github.com/Nitish-kumar777/storage-app/internal/model"
	"github.com/Nitish-kumar777/storage-app/internal/repository"
	"github.com/Nitish-kumar777/storage-app/internal/storage"
	"github.com/Nitish-kumar777/storage-app/internal/validation"
)

func (s *fileService) Upload(ctx context.Context, in UploadInput) (*model.FileRecord, error) {
	ctx, span := tracer.Start(ctx, "FileService.Upload")
	defer span.End()
	span.SetAttributes(ownerAttr(in.OwnerID))

	in.MimeType = validation.NormalizeMimeType(in.MimeType)
	if err := s.validate(in); err != nil {
		s.metrics.upload(uploadRejected)
		return nil, err
	}

	if rec, err := s.replay(ctx, in); err != nil || rec != nil {
		if err != nil {
			failSpan(span, err)
		}
		return rec, err
	}

	usage, _, err := s.computeUsage(ctx, in.OwnerID)
	if err != nil {
		failSpan(span, err)
		return nil, err
	}
	if err := admit(usage, usage.UsedBytes, in.Size); err != nil {
		s.metrics.upload(uploadRejected)
		return nil, err
	}

	rec, err := s.store(ctx, in)
	if err != nil {
		failSpan(span, err)
		return nil, err
	}
	return rec, nil
}

func (s *fileService) UploadBatch(ctx context.Context, ownerID string, inputs []UploadInput) ([]UploadResult, error) {
	ctx, span := tracer.Start(ctx, "FileService.UploadBatch")
	defer span.End()
	span.SetAttributes(ownerAttr(ownerID))

	if err := validation.ValidateOwnerID(ownerID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no files provided", ErrInvalidRequest)
	}

	usage, _, err := s.computeUsage(ctx, ownerID)
	if err != nil {
		failSpan(span, err)
		return nil, err
	}

	results := make([]UploadResult, len(inputs))
	admitted := make([]int, 0, len(inputs))
	reserved := usage.UsedBytes

	for i := range inputs {
		in := &inputs[i]
		in.OwnerID = ownerID
		in.MimeType = validation.NormalizeMimeType(in.MimeType)
		results[i].Name = in.Name

		if err := s.validate(*in); err != nil {
			s.metrics.upload(uploadRejected)
			results[i].Err = err
			continue
		}
		rec, err := s.replay(ctx, *in)
		if err != nil || rec != nil {
			results[i].Record, results[i].Err = rec, err
			continue
		}
		if err := admit(usage, reserved, in.Size); err != nil {
			s.metrics.upload(uploadRejected)
			results[i].Err = err
			continue
		}
		reserved += in.Size
		admitted = append(admitted, i)
	}

	var g errgroup.Group
	g.SetLimit(s.opts.UploadConcurrency)
	for _, i := range admitted {
		g.Go(func() error {
			results[i].Record, results[i].Err = s.store(ctx, inputs[i])
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}

// validate applies the checks in order: presence, type, size.
func (s *fileService) validate(in UploadInput) error {
	if err := validation.ValidateOwnerID(in.OwnerID); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if in.Body == nil || strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: file is required", ErrInvalidRequest)
	}
	if in.Size < 0 {
		return fmt.Errorf("%w: file size is unknown", ErrInvalidRequest)
	}
	if !validation.IsAllowedMimeType(in.MimeType) {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, in.MimeType)
	}
	if s.opts.MaxUploadBytes > 0 && in.Size > s.opts.MaxUploadBytes {
		return fmt.Errorf("%w: maximum size is %d MB", ErrFileTooLarge, s.opts.MaxUploadBytes/(1<<20))
	}
	return nil
}

// replay returns the record already committed under the idempotency key, if any.
func (s *fileService) replay(ctx context.Context, in UploadInput) (*model.FileRecord, error) {
	if in.IdempotencyKey == "" {
		return nil, nil
	}
	rec, err := s.committed(ctx, in.OwnerID, in.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("lookup upload key: %w", err)
	}
	if rec != nil {
		s.metrics.upload(uploadReplayed)
	}
	return rec, nil
}

func (s *fileService) committed(ctx context.Context, ownerID, key string) (*model.FileRecord, error) {
	rec, err := retryRead(ctx, s.recordRead(), func(ctx context.Context) (*model.FileRecord, error) {
		return s.files.FindByUploadKey(ctx, ownerID, key)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// intentID is deterministic per (owner, key) so concurrent retries collide on the same intent row.
func intentID(ownerID, key string) string {
	if key == "" {
		return uuid.NewString()
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(ownerID+"\x00"+key)).String()
}

// store runs the two-phase write: intent, object put, then record commit.
func (s *fileService) store(ctx context.Context, in UploadInput) (*model.FileRecord, error) {
	now := s.now()
	resourceType := validation.ResourceTypeFor(in.MimeType)
	intent := &model.UploadIntent{
		ID:        intentID(in.OwnerID, in.IdempotencyKey),
		OwnerID:   in.OwnerID,
		ObjectKey: storage.ObjectKey(s.opts.Namespace, in.OwnerID, in.Name),
		SizeBytes: in.Size,
		CreatedAt: now,
	}

	bctx, cancel := s.recordCtx(ctx)
	err := s.intents.Begin(bctx, intent)
	cancel()
	if errors.Is(err, repository.ErrIntentExists) {
		s.metrics.upload(uploadRejected)
		return nil, ErrUploadInProgress
	}
	if err != nil {
		s.metrics.upload(uploadFailed)
		return nil, fmt.Errorf("begin upload: %w", err)
	}

	var width, height *int
	if resourceType == model.ResourceImage {
		width, height = imageDimensions(in.Body)
	}

	opts := storage.PutObjectOptions{
		Size:        in.Size,
		ContentType: in.MimeType,
		Metadata: map[string]string{
			"original-filename": in.Name,
			"owner-id":          in.OwnerID,
		},
	}
	if resourceType == model.ResourceVideo {
		opts.PartSize = s.opts.VideoPartSize
	}

	pctx, cancel := context.WithTimeout(ctx, s.opts.UploadTimeout)
	info, err := s.host.Put(pctx, intent.ObjectKey, in.Body, opts)
	cancel()
	if err != nil {
		s.metrics.upload(uploadFailed)
		s.compensate(ctx, intent)
		return nil, fmt.Errorf("%w: upload to object host: %w", ErrUpstreamUnavailable, err)
	}

	size := info.Size
	if size <= 0 {
		size = in.Size
	}
	rec := &model.FileRecord{
		ID:           uuid.NewString(),
		OwnerID:      in.OwnerID,
		Name:         in.Name,
		SizeBytes:    size,
		MimeType:     in.MimeType,
		ResourceType: resourceType,
		URL:          s.host.PublicURL(intent.ObjectKey),
		ObjectHostID: intent.ObjectKey,
		Format:       strings.TrimPrefix(strings.ToLower(path.Ext(in.Name)), "."),
		Width:        width,
		Height:       height,
		UploadKey:    in.IdempotencyKey,
		CreatedAt:    now,
	}

	cctx, cancel := s.recordCtx(ctx)
	stored, err := s.intents.Commit(cctx, intent.ID, rec)
	cancel()
	if err != nil {
		s.compensate(ctx, intent)
		// A concurrent attempt with the same key may have committed first.
		if in.IdempotencyKey != "" {
			if existing, lerr := s.committed(ctx, in.OwnerID, in.IdempotencyKey); lerr == nil && existing != nil {
				s.metrics.upload(uploadReplayed)
				return existing, nil
			}
		}
		s.metrics.upload(uploadFailed)
		return nil, fmt.Errorf("commit upload: %w", err)
	}

	s.metrics.committed(stored.SizeBytes)
	s.log.InfoContext(ctx, "file uploaded",
		"owner_id", stored.OwnerID,
		"file_id", stored.ID,
		"object_key", stored.ObjectHostID,
		"size_bytes", stored.SizeBytes,
	)
	return stored, nil
}

// compensate removes the object of a failed upload and then its intent.
// If the object cannot be removed the intent stays behind for the reconciler.
func (s *fileService) compensate(ctx context.Context, intent *model.UploadIntent) {
	ctx = context.WithoutCancel(ctx)

	hctx, cancel := s.hostCtx(ctx)
	err := s.host.Delete(hctx, intent.ObjectKey)
	cancel()
	if err != nil {
		s.log.WarnContext(ctx, "compensating delete failed, leaving intent for reconcile",
			"intent_id", intent.ID,
			"object_key", intent.ObjectKey,
			"error", err,
		)
		return
	}

	rctx, cancel := s.recordCtx(ctx)
	defer cancel()
	if err := s.intents.Abandon(rctx, intent.ID); err != nil {
		s.log.WarnContext(ctx, "abandon upload intent failed",
			"intent_id", intent.ID,
			"error", err,
		)
	}
}

// imageDimensions reads the image header and rewinds the body. Non-seekable bodies are left untouched.
func imageDimensions(body io.Reader) (width, height *int) {
	rs, ok := body.(io.ReadSeeker)
	if !ok {
		return nil, nil
	}
	start, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, nil
	}
	cfg, _, err := image.DecodeConfig(rs)
	if _, serr := rs.Seek(start, io.SeekStart); serr != nil || err != nil {
		return nil, nil
	}
	return &cfg.Width, &cfg.Height
}

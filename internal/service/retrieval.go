package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Nitish-kumar777/storage-app/internal/model"
	"github.com/Nitish-kumar777/storage-app/internal/storage"
	"github.com/Nitish-kumar777/storage-app/internal/validation"
)

func (s *fileService) ListFiles(ctx context.Context, ownerID string) (*Listing, error) {
	ctx, span := tracer.Start(ctx, "FileService.ListFiles")
	defer span.End()
	span.SetAttributes(ownerAttr(ownerID))

	if err := validation.ValidateOwnerID(ownerID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	records, err := s.listRecords(ctx, ownerID)
	if err != nil {
		failSpan(span, err)
		return nil, err
	}
	usage, objects, err := s.computeUsage(ctx, ownerID)
	if err != nil {
		failSpan(span, err)
		return nil, err
	}

	return &Listing{
		Usage:       usage,
		Records:     records,
		HostEntries: s.hostEntries(objects),
	}, nil
}

func (s *fileService) ListRecords(ctx context.Context, ownerID string) (*RecordListing, error) {
	ctx, span := tracer.Start(ctx, "FileService.ListRecords")
	defer span.End()
	span.SetAttributes(ownerAttr(ownerID))

	if err := validation.ValidateOwnerID(ownerID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	records, err := s.listRecords(ctx, ownerID)
	if err != nil {
		failSpan(span, err)
		return nil, err
	}
	usage, _, err := s.computeUsage(ctx, ownerID)
	if err != nil {
		failSpan(span, err)
		return nil, err
	}
	return &RecordListing{Usage: usage, Records: records}, nil
}

func (s *fileService) listRecords(ctx context.Context, ownerID string) ([]model.FileRecord, error) {
	records, err := retryRead(ctx, s.recordRead(), func(ctx context.Context) ([]model.FileRecord, error) {
		return s.files.ListByOwner(ctx, ownerID)
	})
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// findOwned loads the record only if it belongs to ownerID. Anything else is ErrNotFound.
func (s *fileService) findOwned(ctx context.Context, ownerID, fileID string) (*model.FileRecord, error) {
	if !isUUID(fileID) {
		return nil, ErrNotFound
	}
	rec, err := retryRead(ctx, s.recordRead(), func(ctx context.Context) (*model.FileRecord, error) {
		return s.files.FindByIDAndOwner(ctx, fileID, ownerID)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find record: %w", err)
	}
	return rec, nil
}

func (s *fileService) ResolveDownload(ctx context.Context, ownerID, fileID string) (*model.DownloadTarget, error) {
	ctx, span := tracer.Start(ctx, "FileService.ResolveDownload")
	defer span.End()
	span.SetAttributes(ownerAttr(ownerID))

	if err := validation.ValidateOwnerID(ownerID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if strings.TrimSpace(fileID) == "" {
		return nil, fmt.Errorf("%w: fileId is required", ErrInvalidRequest)
	}

	rec, err := s.findOwned(ctx, ownerID, fileID)
	if err != nil {
		return nil, err
	}

	loc, ok := rec.Location()
	if !ok {
		s.log.ErrorContext(ctx, "file record has no location",
			"owner_id", ownerID,
			"file_id", rec.ID,
		)
		return nil, ErrNoContent
	}

	switch loc.Kind {
	case model.LocationObjectHost:
		hctx, cancel := s.hostCtx(ctx)
		defer cancel()
		expiresAt := s.now().Add(s.opts.DownloadURLTTL)
		u, err := s.host.PresignGet(hctx, loc.Ref, s.opts.DownloadURLTTL, rec.Name)
		if err != nil {
			failSpan(span, err)
			return nil, fmt.Errorf("%w: presign download: %w", ErrUpstreamUnavailable, err)
		}
		return &model.DownloadTarget{
			Kind:      model.DownloadRedirect,
			URL:       u,
			ExpiresAt: expiresAt,
			MimeType:  rec.MimeType,
			Name:      rec.Name,
			Length:    rec.SizeBytes,
		}, nil
	case model.LocationURL:
		return &model.DownloadTarget{
			Kind:     model.DownloadDirect,
			URL:      loc.Ref,
			MimeType: rec.MimeType,
			Name:     rec.Name,
			Length:   rec.SizeBytes,
		}, nil
	default:
		return &model.DownloadTarget{
			Kind:     model.DownloadInline,
			Data:     rec.InlineData,
			MimeType: rec.MimeType,
			Name:     rec.Name,
			Length:   int64(len(rec.InlineData)),
		}, nil
	}
}

func (s *fileService) Delete(ctx context.Context, req DeleteRequest) (*DeleteResult, error) {
	ctx, span := tracer.Start(ctx, "FileService.Delete")
	defer span.End()
	span.SetAttributes(ownerAttr(req.OwnerID))

	if err := validation.ValidateOwnerID(req.OwnerID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if strings.TrimSpace(req.FileID) == "" {
		return nil, fmt.Errorf("%w: fileId is required", ErrInvalidRequest)
	}

	rec, err := s.findOwned(ctx, req.OwnerID, req.FileID)
	switch {
	case err == nil:
		return s.deleteRecord(ctx, rec)
	case !errors.Is(err, ErrNotFound):
		failSpan(span, err)
		return nil, err
	}

	// No record: the id may be an object key from the merged listing.
	key := req.ObjectHostID
	if key == "" && !isUUID(req.FileID) {
		key = req.FileID
	}
	res, err := s.deleteObject(ctx, req.OwnerID, key)
	if err != nil {
		failSpan(span, err)
		return nil, err
	}
	return res, nil
}

// deleteRecord removes the host object first so a host failure keeps the record.
func (s *fileService) deleteRecord(ctx context.Context, rec *model.FileRecord) (*DeleteResult, error) {
	res := &DeleteResult{}
	if rec.ObjectHostID != "" {
		hctx, cancel := s.hostCtx(ctx)
		err := s.host.Delete(hctx, rec.ObjectHostID)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("%w: delete object: %w", ErrUpstreamUnavailable, err)
		}
		res.ObjectDeleted = true
	}

	rctx, cancel := s.recordCtx(ctx)
	defer cancel()
	deleted, err := s.files.DeleteByIDAndOwner(rctx, rec.ID, rec.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("delete record: %w", err)
	}
	res.RecordDeleted = deleted

	s.log.InfoContext(ctx, "file deleted",
		"owner_id", rec.OwnerID,
		"file_id", rec.ID,
		"object_key", rec.ObjectHostID,
	)
	return res, nil
}

// deleteObject removes a host-only object. Keys outside the owner's folder, or still
// referenced by a record, are left alone.
func (s *fileService) deleteObject(ctx context.Context, ownerID, key string) (*DeleteResult, error) {
	if key == "" || !storage.Owns(s.opts.Namespace, ownerID, key) {
		return &DeleteResult{}, nil
	}

	referenced, err := retryRead(ctx, s.recordRead(), func(ctx context.Context) (bool, error) {
		return s.files.ExistsByObjectKey(ctx, key)
	})
	if err != nil {
		return nil, fmt.Errorf("check object references: %w", err)
	}
	if referenced {
		return &DeleteResult{}, nil
	}

	hctx, cancel := s.hostCtx(ctx)
	defer cancel()
	if err := s.host.Delete(hctx, key); err != nil {
		return nil, fmt.Errorf("%w: delete object: %w", ErrUpstreamUnavailable, err)
	}
	s.log.InfoContext(ctx, "object deleted", "owner_id", ownerID, "object_key", key)
	return &DeleteResult{ObjectDeleted: true}, nil
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

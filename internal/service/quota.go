package service

import (
	"context"
	"fmt"
	"path"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Nitish-kumar777/storage-app/internal/model"
	"github.com/Nitish-kumar777/storage-app/internal/storage"
	"github.com/Nitish-kumar777/storage-app/internal/validation"
)

// Usage sums record sizes and object sizes under the owner's folder.
// Record Store failures are fatal; an object host failure only marks the result degraded.
func (s *fileService) Usage(ctx context.Context, ownerID string) (model.Usage, error) {
	ctx, span := tracer.Start(ctx, "FileService.Usage")
	defer span.End()
	span.SetAttributes(ownerAttr(ownerID))

	if err := validation.ValidateOwnerID(ownerID); err != nil {
		return model.Usage{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	usage, _, err := s.computeUsage(ctx, ownerID)
	if err != nil {
		failSpan(span, err)
		return model.Usage{}, err
	}
	return usage, nil
}

// computeUsage also returns the host objects it enumerated so listings need a single host call.
func (s *fileService) computeUsage(ctx context.Context, ownerID string) (model.Usage, []storage.ObjectInfo, error) {
	usage := model.Usage{LimitBytes: s.opts.QuotaBytes}

	recordBytes, err := retryRead(ctx, s.recordRead(), func(ctx context.Context) (int64, error) {
		return s.files.SumSizeByOwner(ctx, ownerID)
	})
	if err != nil {
		return model.Usage{}, nil, fmt.Errorf("sum record sizes: %w", err)
	}
	usage.RecordBytes = recordBytes

	objects, err := s.listObjects(ctx, ownerID)
	if err != nil {
		usage.Degraded = true
		s.metrics.degraded()
		s.log.WarnContext(ctx, "object host listing failed, usage is partial",
			"owner_id", ownerID,
			"error", err,
		)
	}
	for _, o := range objects {
		usage.HostBytes += o.Size
	}
	usage.UsedBytes = usage.RecordBytes + usage.HostBytes

	return usage, objects, nil
}

func (s *fileService) listObjects(ctx context.Context, ownerID string) ([]storage.ObjectInfo, error) {
	prefix := storage.OwnerPrefix(s.opts.Namespace, ownerID)
	return retryRead(ctx, s.hostRead(), func(ctx context.Context) ([]storage.ObjectInfo, error) {
		return s.host.List(ctx, prefix, s.opts.HostListLimit)
	})
}

// admit rejects size when it would push usage past the limit.
func admit(usage model.Usage, used, size int64) error {
	if used+size > usage.LimitBytes {
		return &QuotaExceededError{Used: used, Limit: usage.LimitBytes, Requested: size}
	}
	return nil
}

func (s *fileService) hostEntries(objects []storage.ObjectInfo) []model.ObjectHostEntry {
	out := make([]model.ObjectHostEntry, 0, len(objects))
	for _, o := range objects {
		out = append(out, model.ObjectHostEntry{
			PublicID:  o.Key,
			Bytes:     o.Size,
			SecureURL: s.host.PublicURL(o.Key),
			CreatedAt: o.LastModified,
			Format:    o.Format(),
		})
	}
	return out
}

func baseName(key string) string {
	return path.Base(key)
}

func ownerAttr(ownerID string) attribute.KeyValue {
	return attribute.String("storage.owner_id", ownerID)
}

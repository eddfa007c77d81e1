package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrUnsupportedType     = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
	ErrNotFound            = errors.New("file not found")
	ErrNoContent           = errors.New("file has no stored content")
	ErrUploadInProgress    = errors.New("an upload with this idempotency key is still in progress")
	ErrUpstreamUnavailable = errors.New("storage backend unavailable")
)

// QuotaExceededError rejects an upload that would push usage past the limit.
type QuotaExceededError struct {
	Used      int64
	Limit     int64
	Requested int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("storage quota exceeded: %d of %d bytes used, %d requested", e.Used, e.Limit, e.Requested)
}

// IsQuotaExceeded unwraps err into a *QuotaExceededError.
func IsQuotaExceeded(err error) (*QuotaExceededError, bool) {
	var qe *QuotaExceededError
	if errors.As(err, &qe) {
		return qe, true
	}
	return nil, false
}

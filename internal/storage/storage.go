package storage

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Package storage contains the Object Host abstraction: an S3-compatible bucket in which every
// owner's objects live under <namespace>/<ownerId>/. Implementations stream and never touch local disk.

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1 and the implementation
// will buffer/chunk as supported by the backend.
// PartSize is a multipart hint; zero lets the backend choose.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	PartSize    uint64
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

// Format returns the key's extension without the dot, lower-cased.
func (o ObjectInfo) Format() string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(o.Key), "."))
}

// ObjectHost is the bucket as seen by the service layer.
type ObjectHost interface {
	// Put uploads an object under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Delete removes an object by key. Removing an absent object is not an error.
	Delete(ctx context.Context, key string) error
	// List enumerates at most limit objects under prefix.
	List(ctx context.Context, prefix string, limit int) ([]ObjectInfo, error)
	// PresignGet returns a time-limited URL that downloads the object as an attachment named filename.
	PresignGet(ctx context.Context, key string, expiry time.Duration, filename string) (string, error)
	// PublicURL is the stable, unsigned URL of an object.
	PublicURL(key string) string
}

// OwnerPrefix is the folder holding every object of one owner. It always ends with a slash.
func OwnerPrefix(namespace, ownerID string) string {
	return strings.Trim(namespace, "/") + "/" + ownerID + "/"
}

// ObjectKey returns a fresh, never reused key for a new upload of a file named name.
func ObjectKey(namespace, ownerID, name string) string {
	return OwnerPrefix(namespace, ownerID) + uuid.NewString() + strings.ToLower(path.Ext(name))
}

// Owns reports whether key lies strictly inside the owner's folder.
func Owns(namespace, ownerID, key string) bool {
	prefix := OwnerPrefix(namespace, ownerID)
	if !strings.HasPrefix(key, prefix) || len(key) == len(prefix) {
		return false
	}
	return !strings.Contains(key, "..")
}

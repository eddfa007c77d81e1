package validation

import (
	"fmt"
	"mime"
	"strings"

	"github.com/Nitish-kumar777/storage-app/internal/model"
)

// allowedMimeTypes is the upload allow-list, keyed by normalized MIME type.
var allowedMimeTypes = map[string]model.ResourceType{
	"image/jpeg": model.ResourceImage,
	"image/png":  model.ResourceImage,
	"image/gif":  model.ResourceImage,
	"image/webp": model.ResourceImage,

	"video/mp4":       model.ResourceVideo,
	"video/quicktime": model.ResourceVideo,
	"video/x-msvideo": model.ResourceVideo,

	"audio/mpeg": model.ResourceAudio,
	"audio/wav":  model.ResourceAudio,
	"audio/mp3":  model.ResourceAudio,

	"application/pdf":               model.ResourceRaw,
	"application/msword":            model.ResourceRaw,
	"application/vnd.ms-powerpoint": model.ResourceRaw,
	"application/vnd.ms-excel":      model.ResourceRaw,
	"application/zip":               model.ResourceRaw,
	"text/plain":                    model.ResourceRaw,

	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   model.ResourceRaw,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": model.ResourceRaw,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         model.ResourceRaw,
}

// NormalizeMimeType lower-cases the type and drops parameters such as charset.
func NormalizeMimeType(s string) string {
	s = strings.TrimSpace(s)
	if mt, _, err := mime.ParseMediaType(s); err == nil {
		return mt
	}
	return strings.ToLower(s)
}

// IsAllowedMimeType reports whether uploads of this type are accepted.
func IsAllowedMimeType(mimeType string) bool {
	_, ok := allowedMimeTypes[NormalizeMimeType(mimeType)]
	return ok
}

// ResourceTypeFor maps an allowed MIME type to its resource group. Unknown types are raw.
func ResourceTypeFor(mimeType string) model.ResourceType {
	if rt, ok := allowedMimeTypes[NormalizeMimeType(mimeType)]; ok {
		return rt
	}
	return model.ResourceRaw
}

const maxOwnerIDLength = 128

// ValidateOwnerID rejects identifiers that could escape the owner's object folder.
func ValidateOwnerID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("owner id is required")
	}
	if len(id) > maxOwnerIDLength {
		return fmt.Errorf("owner id is too long")
	}
	if strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return fmt.Errorf("owner id contains invalid characters")
	}
	return nil
}

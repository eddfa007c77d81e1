package model

import "time"

// ResourceType groups allow-listed MIME types by how the object host should treat them.
type ResourceType string

const (
	ResourceImage ResourceType = "image"
	ResourceVideo ResourceType = "video"
	ResourceAudio ResourceType = "audio"
	ResourceRaw   ResourceType = "raw"
)

// FileRecord is the Record Store entry for one uploaded file.
// At least one of URL, ObjectHostID or InlineData must be set for the file to be retrievable.
// DurationSeconds is only read back from existing rows: the object host does not probe media,
// so uploads leave it nil and clients see a null duration.
type FileRecord struct {
	ID              string       `json:"id"`
	OwnerID         string       `json:"ownerId"`
	Name            string       `json:"name"`
	SizeBytes       int64        `json:"sizeBytes"`
	MimeType        string       `json:"mimeType"`
	ResourceType    ResourceType `json:"resourceType"`
	URL             string       `json:"url,omitempty"`
	ObjectHostID    string       `json:"objectHostId,omitempty"`
	InlineData      []byte       `json:"-"`
	Format          string       `json:"format,omitempty"`
	Width           *int         `json:"width,omitempty"`
	Height          *int         `json:"height,omitempty"`
	DurationSeconds *float64     `json:"duration,omitempty"`
	UploadKey       string       `json:"-"`
	CreatedAt       time.Time    `json:"createdAt"`
}

// HasInlineData reports whether the bytes are stored inside the record itself.
func (r *FileRecord) HasInlineData() bool {
	return len(r.InlineData) > 0
}

// Location resolves where the record's bytes live. ok is false when the record
// carries no location at all, which is a data-integrity error.
func (r *FileRecord) Location() (loc FileLocation, ok bool) {
	switch {
	case r.ObjectHostID != "":
		return FileLocation{Kind: LocationObjectHost, Ref: r.ObjectHostID}, true
	case r.URL != "":
		return FileLocation{Kind: LocationURL, Ref: r.URL}, true
	case r.HasInlineData():
		return FileLocation{Kind: LocationInline, Ref: r.ID}, true
	default:
		return FileLocation{}, false
	}
}

// ObjectHostEntry is an object enumerated live from the object host.
// It is never persisted by this service.
type ObjectHostEntry struct {
	PublicID  string    `json:"publicId"`
	Bytes     int64     `json:"bytes"`
	SecureURL string    `json:"secureUrl"`
	CreatedAt time.Time `json:"createdAt"`
	Format    string    `json:"format"`
}

// UploadIntent marks an upload between the object host write and the record commit.
// An intent that outlives the reconcile grace period points at a possibly orphaned object.
type UploadIntent struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	ObjectKey string    `json:"objectKey"`
	SizeBytes int64     `json:"sizeBytes"`
	CreatedAt time.Time `json:"createdAt"`
}

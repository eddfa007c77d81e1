package model

import "time"

// LocationKind tags which backing store holds a file's bytes.
type LocationKind string

const (
	LocationObjectHost LocationKind = "object_host"
	LocationURL        LocationKind = "url"
	LocationInline     LocationKind = "inline"
)

// FileLocation is resolved server-side from a FileRecord, never from client input.
type FileLocation struct {
	Kind LocationKind
	Ref  string
}

// DownloadKind is the shape of a resolved download.
type DownloadKind string

const (
	DownloadRedirect DownloadKind = "redirect"
	DownloadDirect   DownloadKind = "direct"
	DownloadInline   DownloadKind = "inline"
)

// DownloadTarget is what a download request resolves to.
// Redirect targets carry a fresh signed URL and its expiry; inline targets carry the bytes.
type DownloadTarget struct {
	Kind      DownloadKind
	URL       string
	ExpiresAt time.Time
	Data      []byte
	MimeType  string
	Name      string
	Length    int64
}

// Usage is an owner's aggregate storage consumption.
// Degraded is set when the object host could not be enumerated and HostBytes is partial.
type Usage struct {
	UsedBytes   int64 `json:"used"`
	LimitBytes  int64 `json:"limit"`
	RecordBytes int64 `json:"recordBytes"`
	HostBytes   int64 `json:"hostBytes"`
	Degraded    bool  `json:"degraded"`
}

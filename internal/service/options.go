package service

import (
	"time"

	"github.com/Nitish-kumar777/storage-app/internal/config"
)

// Options are the immutable rules a FileService is built with.
type Options struct {
	Namespace         string
	QuotaBytes        int64
	MaxUploadBytes    int64
	DownloadURLTTL    time.Duration
	UploadConcurrency int
	VideoPartSize     uint64
	HostListLimit     int

	RecordTimeout time.Duration
	HostTimeout   time.Duration
	UploadTimeout time.Duration

	RetryAttempts int
	RetryInterval time.Duration
}

// OptionsFromConfig picks the service rules out of the application config.
func OptionsFromConfig(cfg *config.AppConfig) Options {
	return Options{
		Namespace:         cfg.MinIO.Namespace,
		QuotaBytes:        cfg.Storage.QuotaBytes,
		MaxUploadBytes:    cfg.Storage.MaxUploadBytes,
		DownloadURLTTL:    cfg.Storage.DownloadURLTTL,
		UploadConcurrency: cfg.Storage.UploadConcurrency,
		VideoPartSize:     cfg.MinIO.VideoPartSize,
		HostListLimit:     cfg.MinIO.ListLimit,
		RecordTimeout:     cfg.Database.Timeout,
		HostTimeout:       cfg.MinIO.Timeout,
		UploadTimeout:     cfg.MinIO.UploadTimeout,
		RetryAttempts:     cfg.Retry.MaxAttempts,
		RetryInterval:     cfg.Retry.InitialInterval,
	}
}

func (o Options) withDefaults() Options {
	if o.Namespace == "" {
		o.Namespace = "user_uploads"
	}
	if o.DownloadURLTTL <= 0 {
		o.DownloadURLTTL = time.Hour
	}
	if o.UploadConcurrency <= 0 {
		o.UploadConcurrency = 1
	}
	if o.RecordTimeout <= 0 {
		o.RecordTimeout = 5 * time.Second
	}
	if o.HostTimeout <= 0 {
		o.HostTimeout = 10 * time.Second
	}
	if o.UploadTimeout <= 0 {
		o.UploadTimeout = 5 * time.Minute
	}
	if o.RetryAttempts <= 0 {
		o.RetryAttempts = 1
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = 100 * time.Millisecond
	}
	return o
}

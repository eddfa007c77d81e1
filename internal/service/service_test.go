package service

import (
	"bytes"
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	repoMocks "github.com/Nitish-kumar777/storage-app/internal/repository/mocks"
	storeMocks "github.com/Nitish-kumar777/storage-app/internal/storage/mocks"
)

const (
	mb    = int64(1 << 20)
	owner = "u1"
)

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

type fixture struct {
	files   *repoMocks.MockFileRepository
	intents *repoMocks.MockUploadIntentRepository
	host    *storeMocks.MockObjectHost
	metrics *Metrics
	logs    *bytes.Buffer
	svc     *fileService
}

func testOptions() Options {
	return Options{
		Namespace:         "user_uploads",
		QuotaBytes:        1 << 30,
		MaxUploadBytes:    100 * mb,
		DownloadURLTTL:    time.Hour,
		UploadConcurrency: 2,
		VideoPartSize:     6000000,
		HostListLimit:     500,
		RecordTimeout:     time.Second,
		HostTimeout:       time.Second,
		UploadTimeout:     time.Second,
		RetryAttempts:     3,
		RetryInterval:     time.Millisecond,
	}
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	metrics, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	f := &fixture{
		files:   new(repoMocks.MockFileRepository),
		intents: new(repoMocks.MockUploadIntentRepository),
		host:    new(storeMocks.MockObjectHost),
		metrics: metrics,
		logs:    &bytes.Buffer{},
	}
	logger := slog.New(slog.NewJSONHandler(f.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	f.svc = NewFileService(f.files, f.intents, f.host, metrics, logger, opts).(*fileService)
	f.svc.now = func() time.Time { return fixedNow }
	f.host.On("PublicURL", mock.Anything).Return("http://minio:9000/files/obj").Maybe()
	return f
}

func (f *fixture) assertExpectations(t *testing.T) {
	t.Helper()
	f.files.AssertExpectations(t)
	f.intents.AssertExpectations(t)
	f.host.AssertExpectations(t)
}

func errNoRows() error {
	return sql.ErrNoRows
}

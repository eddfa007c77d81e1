package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Nitish-kumar777/storage-app/internal/http/middleware"
	"github.com/Nitish-kumar777/storage-app/internal/model"
	"github.com/Nitish-kumar777/storage-app/internal/service"
	serviceMocks "github.com/Nitish-kumar777/storage-app/internal/service/mocks"
)

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), false),
	})
}

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var body errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func jsonRequest(method, target string, body any) *http.Request {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(b))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

type formFile struct {
	field, name, contentType, content string
}

func multipartRequest(t *testing.T, target string, fields map[string]string, files ...formFile) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.name))
		h.Set("Content-Type", f.contentType)
		part, err := writer.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
	return req
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := newTestApp()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp).Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := newTestApp()
	app.Get("/healthz", LivenessProbe())

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListFiles(t *testing.T) {
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	t.Run("merges records and objects", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newTestApp()
		app.Get("/files/:ownerId", ListFiles(mockSvc))

		listing := &service.Listing{
			Usage:   model.Usage{UsedBytes: 30, LimitBytes: 100, RecordBytes: 10, HostBytes: 20},
			Records: []model.FileRecord{{ID: uuid.NewString(), Name: "a.png", SizeBytes: 10, CreatedAt: older}},
			HostEntries: []model.ObjectHostEntry{
				{PublicID: "user_uploads/u1/x.pdf", Bytes: 20, CreatedAt: newer},
			},
		}
		mockSvc.On("ListFiles", mock.Anything, "u1").Return(listing, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/files/u1", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body listFilesResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.True(t, body.Success)
		assert.Equal(t, int64(30), body.StorageInfo.UsedBytes)
		require.Len(t, body.Files, 2)
		assert.Equal(t, service.EntrySourceObject, body.Files[0].FileType)
		assert.Equal(t, service.EntrySourceRecord, body.Files[1].FileType)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid owner", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newTestApp()
		app.Get("/files/:ownerId", ListFiles(mockSvc))

		mockSvc.On("ListFiles", mock.Anything, "u1").
			Return(nil, fmt.Errorf("%w: bad owner", service.ErrInvalidRequest)).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/files/u1", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_REQUEST", decodeError(t, resp).Code)
	})

	t.Run("subject mismatch", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newTestApp()
		app.Get("/files/:ownerId", func(c *fiber.Ctx) error {
			c.Locals(middleware.SubjectLocalKey, "someone-else")
			return c.Next()
		}, ListFiles(mockSvc))

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/files/u1", nil))

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "FORBIDDEN", decodeError(t, resp).Code)
		mockSvc.AssertNotCalled(t, "ListFiles", mock.Anything, mock.Anything)
	})
}

func TestDeleteFile(t *testing.T) {
	id := uuid.NewString()

	tests := []struct {
		name       string
		body       any
		setupMocks func(*serviceMocks.MockFileService)
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name: "record",
			body: deleteFileRequest{FileID: id, FileType: service.EntrySourceRecord},
			setupMocks: func(m *serviceMocks.MockFileService) {
				m.On("Delete", mock.Anything, service.DeleteRequest{OwnerID: "u1", FileID: id}).
					Return(&service.DeleteResult{RecordDeleted: true, ObjectDeleted: true}, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantMsg:    "File deleted successfully",
		},
		{
			name: "object entry",
			body: deleteFileRequest{FileID: "user_uploads/u1/k.pdf", FileType: service.EntrySourceObject},
			setupMocks: func(m *serviceMocks.MockFileService) {
				m.On("Delete", mock.Anything, service.DeleteRequest{
					OwnerID:      "u1",
					FileID:       "user_uploads/u1/k.pdf",
					ObjectHostID: "user_uploads/u1/k.pdf",
				}).Return(&service.DeleteResult{ObjectDeleted: true}, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantMsg:    "File deleted successfully",
		},
		{
			name: "object still referenced by a record",
			body: deleteFileRequest{FileID: "user_uploads/u1/kept.pdf", FileType: service.EntrySourceObject},
			setupMocks: func(m *serviceMocks.MockFileService) {
				m.On("Delete", mock.Anything, mock.Anything).Return(&service.DeleteResult{}, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantMsg:    "Nothing to delete",
		},
		{
			name:       "missing fileId",
			body:       deleteFileRequest{},
			setupMocks: func(m *serviceMocks.MockFileService) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name: "object host down",
			body: deleteFileRequest{FileID: id},
			setupMocks: func(m *serviceMocks.MockFileService) {
				m.On("Delete", mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("%w: timeout", service.ErrUpstreamUnavailable)).Once()
			},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "UPSTREAM_UNAVAILABLE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(serviceMocks.MockFileService)
			tt.setupMocks(mockSvc)
			app := newTestApp()
			app.Delete("/files/:ownerId", DeleteFile(mockSvc))

			resp, _ := app.Test(jsonRequest(http.MethodDelete, "/files/u1", tt.body))

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, resp).Code)
			}
			if tt.wantMsg != "" {
				var body deleteResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, tt.wantMsg, body.Message)
				assert.True(t, body.Success)
			}
			mockSvc.AssertExpectations(t)
		})
	}
}

func TestUploadFile(t *testing.T) {
	width, height := 4, 3

	t.Run("success", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newTestApp()
		app.Post("/upload/file", UploadFile(mockSvc))

		rec := &model.FileRecord{
			ID:           uuid.NewString(),
			OwnerID:      "u1",
			Name:         "cat.png",
			SizeBytes:    5,
			MimeType:     "image/png",
			ResourceType: model.ResourceImage,
			URL:          "http://minio/bucket/user_uploads/u1/k.png",
			ObjectHostID: "user_uploads/u1/k.png",
			Format:       "png",
			Width:        &width,
			Height:       &height,
		}
		mockSvc.On("Upload", mock.Anything, mock.MatchedBy(func(in service.UploadInput) bool {
			return in.OwnerID == "u1" && in.Name == "cat.png" && in.MimeType == "image/png" &&
				in.Size == 5 && in.IdempotencyKey == "retry-1"
		})).Return(rec, nil).Once()

		req := multipartRequest(t, "/upload/file", map[string]string{"userId": "u1"},
			formFile{field: "file", name: "cat.png", contentType: "image/png", content: "hello"})
		req.Header.Set(IdempotencyKeyHeader, "retry-1")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var body uploadResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.True(t, body.Success)
		assert.Equal(t, rec.ID, body.FileID)
		assert.Equal(t, rec.ObjectHostID, body.PublicID)
		assert.Equal(t, "image/png", body.FileType)
		require.NotNil(t, body.Metadata.Width)
		assert.Equal(t, 4, *body.Metadata.Width)
		assert.Equal(t, model.ResourceImage, body.Metadata.ResourceType)
		assert.Nil(t, body.Metadata.Duration)
		mockSvc.AssertExpectations(t)
	})

	t.Run("missing userId", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newTestApp()
		app.Post("/upload/file", UploadFile(mockSvc))

		req := multipartRequest(t, "/upload/file", nil,
			formFile{field: "file", name: "a.txt", contentType: "text/plain", content: "x"})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_REQUEST", decodeError(t, resp).Code)
	})

	t.Run("quota exceeded", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newTestApp()
		app.Post("/upload/file", UploadFile(mockSvc))

		mockSvc.On("Upload", mock.Anything, mock.Anything).
			Return(nil, &service.QuotaExceededError{Used: 90, Limit: 100, Requested: 20}).Once()

		req := multipartRequest(t, "/upload/file", map[string]string{"userId": "u1"},
			formFile{field: "file", name: "a.txt", contentType: "text/plain", content: "x"})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "QUOTA_EXCEEDED", body.Code)
		require.NotNil(t, body.Used)
		require.NotNil(t, body.Limit)
		assert.Equal(t, int64(90), *body.Used)
		assert.Equal(t, int64(100), *body.Limit)
	})

	t.Run("in progress", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newTestApp()
		app.Post("/upload/file", UploadFile(mockSvc))

		mockSvc.On("Upload", mock.Anything, mock.Anything).Return(nil, service.ErrUploadInProgress).Once()

		req := multipartRequest(t, "/upload/file", map[string]string{"userId": "u1"},
			formFile{field: "file", name: "a.txt", contentType: "text/plain", content: "x"})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "UPLOAD_IN_PROGRESS", decodeError(t, resp).Code)
	})
}

func TestUploadFolder(t *testing.T) {
	mockSvc := new(serviceMocks.MockFileService)
	app := newTestApp()
	app.Post("/upload/folder", UploadFolder(mockSvc))

	rec := &model.FileRecord{ID: uuid.NewString(), Name: "a.txt", MimeType: "text/plain", SizeBytes: 1}
	mockSvc.On("UploadBatch", mock.Anything, "u1", mock.MatchedBy(func(in []service.UploadInput) bool {
		return len(in) == 2 &&
			in[0].Name == "a.txt" && in[0].IdempotencyKey == "batch:0" &&
			in[1].Name == "b.exe" && in[1].IdempotencyKey == "batch:1"
	})).Return([]service.UploadResult{
		{Name: "a.txt", Record: rec},
		{Name: "b.exe", Err: fmt.Errorf("%w: application/x-msdownload", service.ErrUnsupportedType)},
	}, nil).Once()

	req := multipartRequest(t, "/upload/folder", map[string]string{"userId": "u1"},
		formFile{field: "files", name: "a.txt", contentType: "text/plain", content: "a"},
		formFile{field: "files", name: "b.exe", contentType: "application/x-msdownload", content: "b"},
	)
	req.Header.Set(IdempotencyKeyHeader, "batch")
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body folderResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Success)
	require.Len(t, body.Results, 2)
	assert.True(t, body.Results[0].Success)
	assert.Equal(t, rec.ID, body.Results[0].File.FileID)
	assert.False(t, body.Results[1].Success)
	assert.Equal(t, "UNSUPPORTED_TYPE", body.Results[1].Code)
	mockSvc.AssertExpectations(t)
}

func TestListUserFiles(t *testing.T) {
	mockSvc := new(serviceMocks.MockFileService)
	app := newTestApp()
	app.Get("/user/:ownerId/files", ListUserFiles(mockSvc))

	mockSvc.On("ListRecords", mock.Anything, "u1").Return(&service.RecordListing{
		Usage:   model.Usage{UsedBytes: 10, LimitBytes: 100},
		Records: []model.FileRecord{{ID: uuid.NewString(), Name: "a.txt", InlineData: []byte("secret")}},
	}, nil).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/user/u1/files", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")

	var body listUserFilesResponse
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Len(t, body.Files, 1)
	assert.Equal(t, int64(100), body.StorageInfo.LimitBytes)
	mockSvc.AssertExpectations(t)
}

func TestDeleteUserFile(t *testing.T) {
	id := uuid.NewString()
	mockSvc := new(serviceMocks.MockFileService)
	app := newTestApp()
	app.Delete("/user/:ownerId/files", DeleteUserFile(mockSvc))

	mockSvc.On("Delete", mock.Anything, service.DeleteRequest{
		OwnerID:      "u1",
		FileID:       id,
		ObjectHostID: "legacy-id",
	}).Return(&service.DeleteResult{RecordDeleted: true}, nil).Once()

	resp, _ := app.Test(jsonRequest(http.MethodDelete, "/user/u1/files",
		userFileRequest{FileID: id, CloudinaryPublicID: "legacy-id"}))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body deleteResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.True(t, body.RecordDeleted)
	assert.False(t, body.ObjectDeleted)
	mockSvc.AssertExpectations(t)
}

func TestDownloadUserFile(t *testing.T) {
	id := uuid.NewString()
	expires := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)

	t.Run("redirect", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newTestApp()
		app.Post("/user/:ownerId/files/download", DownloadUserFile(mockSvc))

		mockSvc.On("ResolveDownload", mock.Anything, "u1", id).Return(&model.DownloadTarget{
			Kind:      model.DownloadRedirect,
			URL:       "http://minio/signed",
			ExpiresAt: expires,
		}, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/user/u1/files/download", userFileRequest{FileID: id}))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body downloadResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "http://minio/signed", body.DownloadURL)
		require.NotNil(t, body.ExpiresAt)
		assert.True(t, expires.Equal(*body.ExpiresAt))
	})

	t.Run("direct", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newTestApp()
		app.Post("/user/:ownerId/files/download", DownloadUserFile(mockSvc))

		mockSvc.On("ResolveDownload", mock.Anything, "u1", id).Return(&model.DownloadTarget{
			Kind: model.DownloadDirect,
			URL:  "https://cdn.example.com/a.pdf",
		}, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/user/u1/files/download", userFileRequest{FileID: id}))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "https://cdn.example.com/a.pdf", body["downloadUrl"])
		assert.NotContains(t, body, "expiresAt")
	})

	t.Run("inline", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newTestApp()
		app.Post("/user/:ownerId/files/download", DownloadUserFile(mockSvc))

		mockSvc.On("ResolveDownload", mock.Anything, "u1", id).Return(&model.DownloadTarget{
			Kind:     model.DownloadInline,
			Data:     []byte("hello"),
			MimeType: "text/plain",
			Name:     "notes.txt",
			Length:   5,
		}, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/user/u1/files/download", userFileRequest{FileID: id}))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/plain", resp.Header.Get(fiber.HeaderContentType))
		assert.Equal(t, "5", resp.Header.Get(fiber.HeaderContentLength))
		assert.True(t, strings.HasPrefix(resp.Header.Get(fiber.HeaderContentDisposition), "attachment"))
		assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "notes.txt")
		raw, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "hello", string(raw))
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newTestApp()
		app.Post("/user/:ownerId/files/download", DownloadUserFile(mockSvc))

		mockSvc.On("ResolveDownload", mock.Anything, "u1", "nope").Return(nil, service.ErrNotFound).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/user/u1/files/download", userFileRequest{FileID: "nope"}))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Code)
	})

	t.Run("no content", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newTestApp()
		app.Post("/user/:ownerId/files/download", DownloadUserFile(mockSvc))

		mockSvc.On("ResolveDownload", mock.Anything, "u1", id).Return(nil, service.ErrNoContent).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/user/u1/files/download", userFileRequest{FileID: id}))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "NO_CONTENT", body.Code)
		assert.Empty(t, body.Details)
	})
}

func TestErrorHandler_DevelopmentDetails(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), true),
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("pq: connection refused")
	})

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decodeError(t, resp)
	assert.Equal(t, "INTERNAL_ERROR", body.Code)
	assert.Equal(t, "pq: connection refused", body.Details)
}

func TestRouting(t *testing.T) {
	app := newTestApp()
	mockSvc := new(serviceMocks.MockFileService)
	RegisterRoutes(app, nil, mockSvc, nil)

	t.Run("not found route", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/non-existent", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		// Health endpoint only allows GET
		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/health", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, resp).Code)
	})

	t.Run("auth runs before owner routes", func(t *testing.T) {
		app := newTestApp()
		deny := func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}
		RegisterRoutes(app, nil, mockSvc, deny)

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/files/u1", nil))

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp).Code)
		mockSvc.AssertNotCalled(t, "ListFiles", mock.Anything, mock.Anything)
	})
}

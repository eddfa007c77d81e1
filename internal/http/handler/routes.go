package handler

import (
	"context"
	"database/sql"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Nitish-kumar777/storage-app/internal/http/middleware"
	"github.com/Nitish-kumar777/storage-app/internal/model"
	"github.com/Nitish-kumar777/storage-app/internal/service"
)

// IdempotencyKeyHeader lets clients retry an upload without storing it twice.
const IdempotencyKeyHeader = "Idempotency-Key"

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// auth may be nil, in which case owner routes are not token-protected.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc service.FileService, auth fiber.Handler) {
	protect := func(h fiber.Handler) []fiber.Handler {
		if auth == nil {
			return []fiber.Handler{h}
		}
		return []fiber.Handler{auth, h}
	}

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Get("/files/:ownerId", protect(ListFiles(svc))...)
	app.Delete("/files/:ownerId", protect(DeleteFile(svc))...)

	app.Post("/upload/file", protect(UploadFile(svc))...)
	app.Post("/upload/folder", protect(UploadFolder(svc))...)

	app.Get("/user/:ownerId/files", protect(ListUserFiles(svc))...)
	app.Delete("/user/:ownerId/files", protect(DeleteUserFile(svc))...)
	app.Post("/user/:ownerId/files/download", protect(DownloadUserFile(svc))...)
}

// authorizeOwner rejects requests whose verified subject is not the addressed owner.
// Without the auth middleware there is no subject and every owner is accepted.
func authorizeOwner(c *fiber.Ctx, ownerID string) error {
	sub, ok := middleware.SubjectFromCtx(c)
	if ok && sub != ownerID {
		return fiber.NewError(fiber.StatusForbidden, "forbidden")
	}
	return nil
}

// HealthCheck checks DB connectivity only.
//
// @Summary Readiness probe
// @Tags health
// @Success 200 {object} map[string]string
// @Failure 503 {object} errorPayload
// @Router /health [get]
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a simple liveness probe.
//
// @Summary Liveness probe
// @Tags health
// @Success 200
// @Router /healthz [get]
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

type listFilesResponse struct {
	Success     bool                   `json:"success"`
	StorageInfo model.Usage            `json:"storageInfo"`
	Files       []service.ListingEntry `json:"files"`
}

// ListFiles returns the merged dashboard listing.
//
// @Summary List records and stored objects
// @Tags files
// @Produce json
// @Param ownerId path string true "Owner ID"
// @Success 200 {object} listFilesResponse
// @Failure 400 {object} errorPayload
// @Router /files/{ownerId} [get]
func ListFiles(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID := c.Params("ownerId")
		if err := authorizeOwner(c, ownerID); err != nil {
			return err
		}
		listing, err := svc.ListFiles(c.UserContext(), ownerID)
		if err != nil {
			return err
		}
		return c.JSON(listFilesResponse{
			Success:     true,
			StorageInfo: listing.Usage,
			Files:       listing.Entries(),
		})
	}
}

type deleteFileRequest struct {
	FileID   string `json:"fileId"`
	FileType string `json:"fileType"`
}

type deleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	service.DeleteResult
}

func deleteMessage(res *service.DeleteResult) string {
	if !res.RecordDeleted && !res.ObjectDeleted {
		return "Nothing to delete"
	}
	return "File deleted successfully"
}

// DeleteFile deletes an entry of the merged listing. fileType is only a hint.
//
// @Summary Delete a listed file
// @Tags files
// @Accept json
// @Produce json
// @Param ownerId path string true "Owner ID"
// @Param body body deleteFileRequest true "File to delete"
// @Success 200 {object} deleteResponse
// @Failure 400 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /files/{ownerId} [delete]
func DeleteFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID := c.Params("ownerId")
		if err := authorizeOwner(c, ownerID); err != nil {
			return err
		}
		var req deleteFileRequest
		if err := c.BodyParser(&req); err != nil || req.FileID == "" {
			return writeError(c, fiber.StatusBadRequest, "INVALID_REQUEST", "missing required fields")
		}

		dr := service.DeleteRequest{OwnerID: ownerID, FileID: req.FileID}
		if req.FileType == service.EntrySourceObject || req.FileType == "cloudinary" {
			dr.ObjectHostID = req.FileID
		}
		res, err := svc.Delete(c.UserContext(), dr)
		if err != nil {
			return err
		}
		return c.JSON(deleteResponse{Success: true, Message: deleteMessage(res), DeleteResult: *res})
	}
}

type uploadMetadata struct {
	Width        *int               `json:"width"`
	Height       *int               `json:"height"`
	Duration     *float64           `json:"duration"`
	Format       string             `json:"format"`
	ResourceType model.ResourceType `json:"resourceType"`
}

type uploadResponse struct {
	Success  bool           `json:"success"`
	URL      string         `json:"url"`
	PublicID string         `json:"publicId"`
	FileID   string         `json:"fileId"`
	FileName string         `json:"fileName"`
	FileSize int64          `json:"fileSize"`
	FileType string         `json:"fileType"`
	Metadata uploadMetadata `json:"metadata"`
}

func newUploadResponse(rec *model.FileRecord) uploadResponse {
	return uploadResponse{
		Success:  true,
		URL:      rec.URL,
		PublicID: rec.ObjectHostID,
		FileID:   rec.ID,
		FileName: rec.Name,
		FileSize: rec.SizeBytes,
		FileType: rec.MimeType,
		Metadata: uploadMetadata{
			Width:        rec.Width,
			Height:       rec.Height,
			Duration:     rec.DurationSeconds,
			Format:       rec.Format,
			ResourceType: rec.ResourceType,
		},
	}
}

// partMimeType reads the part's declared type, falling back to the extension.
func partMimeType(fh *multipart.FileHeader) string {
	if ct := fh.Header.Get(fiber.HeaderContentType); ct != "" {
		return ct
	}
	if ct := mime.TypeByExtension(filepath.Ext(fh.Filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// UploadFile stores one file (multipart/form-data, fields: file, userId).
//
// @Summary Upload a file
// @Tags upload
// @Accept mpfd
// @Produce json
// @Param file formData file true "File"
// @Param userId formData string true "Owner ID"
// @Param Idempotency-Key header string false "Retry token"
// @Success 201 {object} uploadResponse
// @Failure 400 {object} errorPayload
// @Failure 403 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Router /upload/file [post]
func UploadFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID := c.FormValue("userId")
		fh, err := c.FormFile("file")
		if err != nil || ownerID == "" {
			return writeError(c, fiber.StatusBadRequest, "INVALID_REQUEST", "file and userId are required")
		}
		if err := authorizeOwner(c, ownerID); err != nil {
			return err
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		rec, err := svc.Upload(c.UserContext(), service.UploadInput{
			OwnerID:        ownerID,
			Name:           fh.Filename,
			MimeType:       partMimeType(fh),
			Size:           fh.Size,
			Body:           f,
			IdempotencyKey: c.Get(IdempotencyKeyHeader),
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(newUploadResponse(rec))
	}
}

type folderResult struct {
	FileName string          `json:"fileName"`
	Success  bool            `json:"success"`
	File     *uploadResponse `json:"file,omitempty"`
	Error    string          `json:"error,omitempty"`
	Code     string          `json:"code,omitempty"`
}

type folderResponse struct {
	Success bool           `json:"success"`
	Results []folderResult `json:"results"`
}

// UploadFolder stores several files (multipart/form-data, fields: files, userId) and reports per file.
//
// @Summary Upload a folder
// @Tags upload
// @Accept mpfd
// @Produce json
// @Param files formData file true "Files"
// @Param userId formData string true "Owner ID"
// @Success 200 {object} folderResponse
// @Failure 400 {object} errorPayload
// @Router /upload/folder [post]
func UploadFolder(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_REQUEST", "multipart form is required")
		}
		ownerID := ""
		if v := form.Value["userId"]; len(v) > 0 {
			ownerID = v[0]
		}
		headers := form.File["files"]
		if ownerID == "" || len(headers) == 0 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_REQUEST", "files and userId are required")
		}
		if err := authorizeOwner(c, ownerID); err != nil {
			return err
		}

		key := c.Get(IdempotencyKeyHeader)
		inputs := make([]service.UploadInput, 0, len(headers))
		for i, fh := range headers {
			f, err := fh.Open()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			defer f.Close()

			in := service.UploadInput{
				Name:     fh.Filename,
				MimeType: partMimeType(fh),
				Size:     fh.Size,
				Body:     f,
			}
			if key != "" {
				in.IdempotencyKey = key + ":" + strconv.Itoa(i)
			}
			inputs = append(inputs, in)
		}

		results, err := svc.UploadBatch(c.UserContext(), ownerID, inputs)
		if err != nil {
			return err
		}

		out := folderResponse{Success: true, Results: make([]folderResult, 0, len(results))}
		for _, r := range results {
			fr := folderResult{FileName: r.Name}
			if r.Err != nil {
				cl := classify(r.Err)
				fr.Error, fr.Code = cl.message, cl.code
				out.Success = false
			} else {
				res := newUploadResponse(r.Record)
				fr.Success, fr.File = true, &res
			}
			out.Results = append(out.Results, fr)
		}
		return c.JSON(out)
	}
}

type listUserFilesResponse struct {
	Success     bool               `json:"success"`
	Files       []model.FileRecord `json:"files"`
	StorageInfo model.Usage        `json:"storageInfo"`
}

// ListUserFiles returns the owner's records only.
//
// @Summary List file records
// @Tags files
// @Produce json
// @Param ownerId path string true "Owner ID"
// @Success 200 {object} listUserFilesResponse
// @Router /user/{ownerId}/files [get]
func ListUserFiles(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID := c.Params("ownerId")
		if err := authorizeOwner(c, ownerID); err != nil {
			return err
		}
		listing, err := svc.ListRecords(c.UserContext(), ownerID)
		if err != nil {
			return err
		}
		return c.JSON(listUserFilesResponse{Success: true, Files: listing.Records, StorageInfo: listing.Usage})
	}
}

type userFileRequest struct {
	FileID             string `json:"fileId"`
	ObjectHostID       string `json:"objectHostId"`
	CloudinaryPublicID string `json:"cloudinaryPublicId"`
}

func (r userFileRequest) hostID() string {
	if r.ObjectHostID != "" {
		return r.ObjectHostID
	}
	return r.CloudinaryPublicID
}

// DeleteUserFile deletes a record and its stored object.
//
// @Summary Delete a file record
// @Tags files
// @Accept json
// @Produce json
// @Param ownerId path string true "Owner ID"
// @Param body body userFileRequest true "File to delete"
// @Success 200 {object} deleteResponse
// @Failure 400 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /user/{ownerId}/files [delete]
func DeleteUserFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID := c.Params("ownerId")
		if err := authorizeOwner(c, ownerID); err != nil {
			return err
		}
		var req userFileRequest
		if err := c.BodyParser(&req); err != nil || req.FileID == "" {
			return writeError(c, fiber.StatusBadRequest, "INVALID_REQUEST", "fileId is required")
		}
		res, err := svc.Delete(c.UserContext(), service.DeleteRequest{
			OwnerID:      ownerID,
			FileID:       req.FileID,
			ObjectHostID: req.hostID(),
		})
		if err != nil {
			return err
		}
		return c.JSON(deleteResponse{Success: true, Message: deleteMessage(res), DeleteResult: *res})
	}
}

type downloadResponse struct {
	DownloadURL string     `json:"downloadUrl"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

// DownloadUserFile resolves a download. Any object id in the body is ignored; the record decides.
//
// @Summary Resolve a download
// @Tags files
// @Accept json
// @Produce json,octet-stream
// @Param ownerId path string true "Owner ID"
// @Param body body userFileRequest true "File to download"
// @Success 200 {object} downloadResponse
// @Failure 404 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /user/{ownerId}/files/download [post]
func DownloadUserFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID := c.Params("ownerId")
		if err := authorizeOwner(c, ownerID); err != nil {
			return err
		}
		var req userFileRequest
		if err := c.BodyParser(&req); err != nil || req.FileID == "" {
			return writeError(c, fiber.StatusBadRequest, "INVALID_REQUEST", "fileId is required")
		}

		target, err := svc.ResolveDownload(c.UserContext(), ownerID, req.FileID)
		if err != nil {
			return err
		}

		switch target.Kind {
		case model.DownloadInline:
			c.Set(fiber.HeaderContentType, target.MimeType)
			c.Set(fiber.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": target.Name}))
			c.Set(fiber.HeaderContentLength, strconv.FormatInt(target.Length, 10))
			return c.Send(target.Data)
		case model.DownloadRedirect:
			expires := target.ExpiresAt
			return c.JSON(downloadResponse{DownloadURL: target.URL, ExpiresAt: &expires})
		default:
			return c.JSON(downloadResponse{DownloadURL: target.URL})
		}
	}
}

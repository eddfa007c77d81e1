package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/Nitish-kumar777/storage-app/internal/http/middleware"
	"github.com/Nitish-kumar777/storage-app/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id"`
	Used      *int64 `json:"used,omitempty"`
	Limit     *int64 `json:"limit,omitempty"`
	Details   string `json:"details,omitempty"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_REQUEST", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromCtx(c),
	})
}

// classified is the client-facing shape of an error.
type classified struct {
	status   int
	code     string
	message  string
	quota    *service.QuotaExceededError
	internal bool
}

// classify maps service and framework errors to status, code and a safe message.
func classify(err error) classified {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch fe.Code {
		case fiber.StatusBadRequest:
			return classified{status: fe.Code, code: "BAD_REQUEST", message: "bad request"}
		case fiber.StatusUnauthorized:
			return classified{status: fe.Code, code: "UNAUTHORIZED", message: fe.Message}
		case fiber.StatusForbidden:
			return classified{status: fe.Code, code: "FORBIDDEN", message: fe.Message}
		case fiber.StatusNotFound:
			return classified{status: fe.Code, code: "NOT_FOUND", message: "resource not found"}
		case fiber.StatusMethodNotAllowed:
			return classified{status: fe.Code, code: "METHOD_NOT_ALLOWED", message: "method not allowed"}
		case fiber.StatusRequestEntityTooLarge:
			return classified{status: fe.Code, code: "PAYLOAD_TOO_LARGE", message: "request body too large"}
		default:
			return classified{status: fe.Code, code: "INTERNAL_ERROR", message: "internal server error", internal: fe.Code >= 500}
		}
	}

	if qe, ok := service.IsQuotaExceeded(err); ok {
		return classified{status: fiber.StatusForbidden, code: "QUOTA_EXCEEDED", message: "storage limit reached", quota: qe}
	}

	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		return classified{status: fiber.StatusBadRequest, code: "INVALID_REQUEST", message: err.Error()}
	case errors.Is(err, service.ErrUnsupportedType):
		return classified{status: fiber.StatusBadRequest, code: "UNSUPPORTED_TYPE", message: "unsupported file type"}
	case errors.Is(err, service.ErrFileTooLarge):
		return classified{status: fiber.StatusBadRequest, code: "FILE_TOO_LARGE", message: err.Error()}
	case errors.Is(err, service.ErrNotFound):
		return classified{status: fiber.StatusNotFound, code: "NOT_FOUND", message: "file not found"}
	case errors.Is(err, service.ErrUploadInProgress):
		return classified{status: fiber.StatusConflict, code: "UPLOAD_IN_PROGRESS", message: "upload already in progress"}
	case errors.Is(err, service.ErrNoContent):
		return classified{status: fiber.StatusInternalServerError, code: "NO_CONTENT", message: "no downloadable content found", internal: true}
	case errors.Is(err, service.ErrUpstreamUnavailable):
		return classified{status: fiber.StatusInternalServerError, code: "UPSTREAM_UNAVAILABLE", message: "storage backend unavailable", internal: true}
	default:
		return classified{status: fiber.StatusInternalServerError, code: "INTERNAL_ERROR", message: "internal server error", internal: true}
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
// Internal errors are logged at ERROR; their detail reaches the client only in development.
func ErrorHandler(logger *slog.Logger, development bool) fiber.ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *fiber.Ctx, err error) error {
		cl := classify(err)

		res := errorPayload{
			Error:     cl.message,
			Code:      cl.code,
			RequestID: requestIDFromCtx(c),
		}
		if cl.quota != nil {
			res.Used = &cl.quota.Used
			res.Limit = &cl.quota.Limit
		}
		if cl.internal {
			logger.ErrorContext(c.UserContext(), "request failed",
				"request_id", res.RequestID,
				"method", c.Method(),
				"path", c.Path(),
				"code", cl.code,
				"error", err,
			)
			if development {
				res.Details = err.Error()
			}
		}
		return c.Status(cl.status).JSON(res)
	}
}

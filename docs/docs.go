// Package docs holds the Swagger 2.0 document served at /swagger/*.
// It is maintained by hand alongside the handler annotations; docs_test checks every route is listed.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/files/{ownerId}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["files"],
                "summary": "List records and stored objects",
                "parameters": [
                    {"type": "string", "description": "Owner ID", "name": "ownerId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.listFilesResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            },
            "delete": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["files"],
                "summary": "Delete a listed file",
                "parameters": [
                    {"type": "string", "description": "Owner ID", "name": "ownerId", "in": "path", "required": true},
                    {"description": "File to delete", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.deleteFileRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.deleteResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/health": {
            "get": {
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/healthz": {
            "get": {
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/upload/file": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["upload"],
                "summary": "Upload a file",
                "parameters": [
                    {"type": "file", "description": "File", "name": "file", "in": "formData", "required": true},
                    {"type": "string", "description": "Owner ID", "name": "userId", "in": "formData", "required": true},
                    {"type": "string", "description": "Retry token", "name": "Idempotency-Key", "in": "header"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.uploadResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/upload/folder": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["upload"],
                "summary": "Upload a folder",
                "parameters": [
                    {"type": "file", "description": "Files", "name": "files", "in": "formData", "required": true},
                    {"type": "string", "description": "Owner ID", "name": "userId", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.folderResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/user/{ownerId}/files": {
            "get": {
                "produces": ["application/json"],
                "tags": ["files"],
                "summary": "List file records",
                "parameters": [
                    {"type": "string", "description": "Owner ID", "name": "ownerId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.listUserFilesResponse"}}
                }
            },
            "delete": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["files"],
                "summary": "Delete a file record",
                "parameters": [
                    {"type": "string", "description": "Owner ID", "name": "ownerId", "in": "path", "required": true},
                    {"description": "File to delete", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.userFileRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.deleteResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/user/{ownerId}/files/download": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json", "application/octet-stream"],
                "tags": ["files"],
                "summary": "Resolve a download",
                "parameters": [
                    {"type": "string", "description": "Owner ID", "name": "ownerId", "in": "path", "required": true},
                    {"description": "File to download", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.userFileRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.downloadResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        }
    },
    "definitions": {
        "handler.deleteFileRequest": {
            "type": "object",
            "properties": {
                "fileId": {"type": "string"},
                "fileType": {"type": "string"}
            }
        },
        "handler.deleteResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "objectDeleted": {"type": "boolean"},
                "recordDeleted": {"type": "boolean"},
                "success": {"type": "boolean"}
            }
        },
        "handler.downloadResponse": {
            "type": "object",
            "properties": {
                "downloadUrl": {"type": "string"},
                "expiresAt": {"type": "string"}
            }
        },
        "handler.errorPayload": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "details": {"type": "string"},
                "error": {"type": "string"},
                "limit": {"type": "integer"},
                "request_id": {"type": "string"},
                "success": {"type": "boolean"},
                "used": {"type": "integer"}
            }
        },
        "handler.folderResponse": {
            "type": "object",
            "properties": {
                "results": {"type": "array", "items": {"$ref": "#/definitions/handler.folderResult"}},
                "success": {"type": "boolean"}
            }
        },
        "handler.folderResult": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "error": {"type": "string"},
                "file": {"$ref": "#/definitions/handler.uploadResponse"},
                "fileName": {"type": "string"},
                "success": {"type": "boolean"}
            }
        },
        "handler.listFilesResponse": {
            "type": "object",
            "properties": {
                "files": {"type": "array", "items": {"$ref": "#/definitions/service.ListingEntry"}},
                "storageInfo": {"$ref": "#/definitions/model.Usage"},
                "success": {"type": "boolean"}
            }
        },
        "handler.listUserFilesResponse": {
            "type": "object",
            "properties": {
                "files": {"type": "array", "items": {"$ref": "#/definitions/model.FileRecord"}},
                "storageInfo": {"$ref": "#/definitions/model.Usage"},
                "success": {"type": "boolean"}
            }
        },
        "handler.uploadMetadata": {
            "type": "object",
            "properties": {
                "duration": {"type": "number"},
                "format": {"type": "string"},
                "height": {"type": "integer"},
                "resourceType": {"type": "string"},
                "width": {"type": "integer"}
            }
        },
        "handler.uploadResponse": {
            "type": "object",
            "properties": {
                "fileId": {"type": "string"},
                "fileName": {"type": "string"},
                "fileSize": {"type": "integer"},
                "fileType": {"type": "string"},
                "metadata": {"$ref": "#/definitions/handler.uploadMetadata"},
                "publicId": {"type": "string"},
                "success": {"type": "boolean"},
                "url": {"type": "string"}
            }
        },
        "handler.userFileRequest": {
            "type": "object",
            "properties": {
                "cloudinaryPublicId": {"type": "string"},
                "fileId": {"type": "string"},
                "objectHostId": {"type": "string"}
            }
        },
        "model.FileRecord": {
            "type": "object",
            "properties": {
                "createdAt": {"type": "string"},
                "duration": {"type": "number"},
                "format": {"type": "string"},
                "height": {"type": "integer"},
                "id": {"type": "string"},
                "mimeType": {"type": "string"},
                "name": {"type": "string"},
                "objectHostId": {"type": "string"},
                "ownerId": {"type": "string"},
                "resourceType": {"type": "string"},
                "sizeBytes": {"type": "integer"},
                "url": {"type": "string"},
                "width": {"type": "integer"}
            }
        },
        "model.Usage": {
            "type": "object",
            "properties": {
                "degraded": {"type": "boolean"},
                "hostBytes": {"type": "integer"},
                "limit": {"type": "integer"},
                "recordBytes": {"type": "integer"},
                "used": {"type": "integer"}
            }
        },
        "service.ListingEntry": {
            "type": "object",
            "properties": {
                "fileId": {"type": "string"},
                "fileName": {"type": "string"},
                "fileSize": {"type": "integer"},
                "fileType": {"type": "string"},
                "fileUrl": {"type": "string"},
                "uploadedAt": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Storage API",
	Description:      "Per-owner file storage: uploads, listings, downloads and deletes with a shared quota.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

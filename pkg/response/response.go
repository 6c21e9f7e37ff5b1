package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the JSON envelope shared by every REST endpoint.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details. IDs carries related resource ids, e.g.
// the existing chat behind a duplicate personal chat.
type ErrorInfo struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	IDs     []string `json:"ids,omitempty"`
}

// Error codes.
const (
	CodeBadRequest      = "BAD_REQUEST"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeIllegalState    = "ILLEGAL_STATE"
	CodeValidation      = "VALIDATION_FAILED"
	CodeUpstream        = "UPSTREAM_UNAVAILABLE"
	CodeInternal        = "INTERNAL_ERROR"
	CodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
)

// Success sends a 200 response.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// Created sends a 201 response.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

// NoContent sends an empty 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error aborts the chain with an error envelope.
func Error(c *gin.Context, statusCode int, code, message string, ids ...string) {
	c.AbortWithStatusJSON(statusCode, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
			IDs:     ids,
		},
	})
}

// BadRequest sends a 400 error response.
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, CodeBadRequest, message)
}

// Unauthorized sends a 401 error response.
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, CodeUnauthorized, message)
}

// Forbidden sends a 403 error response.
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, CodeForbidden, message)
}

// NotFound sends a 404 error response.
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, CodeNotFound, message)
}

// Conflict sends a 409 error response.
func Conflict(c *gin.Context, message string, ids ...string) {
	Error(c, http.StatusConflict, CodeConflict, message, ids...)
}

// BadGateway sends a 502 when a dependency could not be reached.
func BadGateway(c *gin.Context, message string) {
	Error(c, http.StatusBadGateway, CodeUpstream, message)
}

// InternalError sends a 500 error response. message must not carry internals.
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, CodeInternal, message)
}

package response

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Envelope is the JSON shape every endpoint responds with. Data and Error are
// mutually exclusive; Metadata always carries the correlation ID so a quiz
// taker's report can be matched to server logs.
type Envelope struct {
	Data       interface{} `json:"data"`
	Error      *ErrorBody  `json:"error,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Metadata   Metadata    `json:"metadata"`
}

// ErrorBody carries the machine-readable code plus an optional per-field
// breakdown for validation failures.
type ErrorBody struct {
	Code    ErrCode           `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Pagination describes the page window of a list response.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// Metadata is attached to every envelope. ElapsedMS measures from the
// instant RequestIDMiddleware saw the request.
type Metadata struct {
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

// Success sends data with the given status code.
func Success(c *gin.Context, statusCode int, data interface{}) {
	write(c, statusCode, Envelope{Data: data})
}

// SuccessWithPagination sends a page of data with its window description.
func SuccessWithPagination(c *gin.Context, statusCode int, data interface{}, pagination *Pagination) {
	write(c, statusCode, Envelope{Data: data, Pagination: pagination})
}

// Fail sends an error envelope for the given code.
func Fail(c *gin.Context, statusCode int, code ErrCode) {
	write(c, statusCode, Envelope{
		Error: &ErrorBody{Code: code, Message: GetMessage(code)},
	})
}

// FailWithFields sends an error envelope with per-field validation details.
func FailWithFields(c *gin.Context, statusCode int, code ErrCode, fields map[string]string) {
	write(c, statusCode, Envelope{
		Error: &ErrorBody{Code: code, Message: GetMessage(code), Fields: fields},
	})
}

// AbortFail sends an error envelope and stops the middleware chain. Used by
// the auth and rate-limit middlewares.
func AbortFail(c *gin.Context, statusCode int, code ErrCode) {
	c.Abort()
	write(c, statusCode, Envelope{
		Error: &ErrorBody{Code: code, Message: GetMessage(code)},
	})
}

func write(c *gin.Context, statusCode int, env Envelope) {
	env.Metadata = buildMetadata(c)
	c.JSON(statusCode, env)
}

func buildMetadata(c *gin.Context) Metadata {
	id, ok := c.Value(ContextKeyRequestID).(string)
	if !ok || id == "" {
		// Middleware not applied (direct handler tests).
		id = uuid.New().String()
	}

	var elapsed int64
	if startedAt, ok := c.Value(contextKeyStartedAt).(time.Time); ok {
		elapsed = time.Since(startedAt).Milliseconds()
	}

	return Metadata{
		RequestID: id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		ElapsedMS: elapsed,
	}
}

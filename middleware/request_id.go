package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

// ContextRequestIDKey stores the request ID in Gin context for log enrichment.
const ContextRequestIDKey = "request_id"

// RequestID assigns a correlation ID to every request, honoring one supplied
// by the client, and echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		ctx.Set(ContextRequestIDKey, id)
		ctx.Writer.Header().Set(RequestIDHeader, id)
		ctx.Next()
	}
}

// Package httperr renders the uniform error envelope used by every handler:
// {"error": kind, "message": ..., "details": {...}}.
package httperr

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	KindNotFound     = "not_found"
	KindForbidden    = "forbidden"
	KindUnauthorized = "unauthorized"
	KindValidation   = "validation_error"
	KindHTTP         = "http_error"
	KindInternal     = "internal_error"
)

func Abort(ctx *gin.Context, status int, kind string, message string, details map[string]interface{}) {
	if details == nil {
		details = map[string]interface{}{}
	}

	ctx.AbortWithStatusJSON(status, gin.H{
		"error":   kind,
		"message": message,
		"details": details,
	})
}

func NotFound(ctx *gin.Context, message string) {
	Abort(ctx, http.StatusNotFound, KindNotFound, message, nil)
}

func Forbidden(ctx *gin.Context, message string) {
	Abort(ctx, http.StatusForbidden, KindForbidden, message, nil)
}

func Unauthorized(ctx *gin.Context, message string) {
	Abort(ctx, http.StatusUnauthorized, KindUnauthorized, message, nil)
}

func Validation(ctx *gin.Context, message string, details map[string]interface{}) {
	Abort(ctx, http.StatusUnprocessableEntity, KindValidation, message, details)
}

func BadRequest(ctx *gin.Context, message string) {
	Abort(ctx, http.StatusBadRequest, KindHTTP, message, nil)
}

func Internal(ctx *gin.Context, message string) {
	Abort(ctx, http.StatusInternalServerError, KindInternal, message, nil)
}

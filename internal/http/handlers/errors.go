package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/glucopredict/domain"
)

// StatusFor maps an error kind to the HTTP status returned to clients
func StatusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation, domain.KindInvalidInput:
		return http.StatusBadRequest
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindUnauthenticated, domain.KindExpired, domain.KindInvalid:
		return http.StatusUnauthorized
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindUnreachable, domain.KindConfigMissing:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes {"error": message}. Only client-facing kinds carry
// their own message; everything else is logged and replaced by fallback.
func RespondError(c *gin.Context, log *slog.Logger, err error, fallback string) {
	status := StatusFor(err)

	msg := fallback
	switch domain.KindOf(err) {
	case domain.KindValidation, domain.KindInvalidInput, domain.KindConflict,
		domain.KindUnauthenticated, domain.KindExpired, domain.KindInvalid, domain.KindNotFound:
		msg = domain.MessageOf(err, fallback)
	case domain.KindUnreachable, domain.KindConfigMissing:
		msg = "Service temporarily unavailable"
	}

	if status >= http.StatusInternalServerError && log != nil {
		log.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"error", err,
		)
	}
	c.JSON(status, gin.H{"error": msg})
}

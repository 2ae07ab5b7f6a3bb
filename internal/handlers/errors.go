package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"restock/api/internal/repository"
	"restock/api/internal/security"
	"restock/api/internal/service"
)

// writeError maps domain failures to HTTP statuses. Every auth failure
// kind collapses to 401 on the wire; the distinct kinds exist for callers
// of the service layer, not for remote clients.
func (h HandlerSet) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
	case errors.Is(err, service.ErrTooManyAttempts):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too_many_attempts"})
	case errors.Is(err, security.ErrTokenExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token_expired"})
	case errors.Is(err, service.ErrTokenRevoked):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token_revoked"})
	case errors.Is(err, service.ErrWrongTokenType),
		errors.Is(err, security.ErrTokenMalformed),
		errors.Is(err, security.ErrTokenSignatureInvalid),
		errors.Is(err, repository.ErrTokenNotFound):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
	case errors.Is(err, repository.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "email_taken"})
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrRequestNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	default:
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}

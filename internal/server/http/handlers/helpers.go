package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/craftlane/fulfillment/internal/domain/errors"
)

// respondError maps the domain error taxonomy to HTTP status codes. Token
// mismatch and already-decided stay distinct so the customer sees "link
// invalid" vs "link already used".
func respondError(c *gin.Context, err error) {
	var (
		validationErr *domainErrors.ValidationError
		transitionErr *domainErrors.TransitionError
	)

	switch {
	case errors.Is(err, domainErrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "error": "not found"})
	case errors.Is(err, domainErrors.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"code": "already_exists", "error": "already exists"})
	case errors.Is(err, domainErrors.ErrTokenMismatch):
		c.JSON(http.StatusForbidden, gin.H{"code": "token_mismatch", "error": "approval link is invalid"})
	case errors.Is(err, domainErrors.ErrAlreadyDecided):
		c.JSON(http.StatusConflict, gin.H{"code": "already_decided", "error": "approval link was already used"})
	case errors.Is(err, domainErrors.ErrMaxRetriesExceeded):
		c.JSON(http.StatusConflict, gin.H{"code": "max_retries_exceeded", "error": "notification permanently failed"})
	case errors.Is(err, domainErrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"code": "conflict", "error": "concurrent update, refresh and retry"})
	case errors.As(err, &transitionErr):
		c.JSON(http.StatusConflict, gin.H{"code": "illegal_transition", "error": transitionErr.Error()})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"code": "validation", "error": validationErr.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"code": "internal", "error": "internal error"})
	}
}

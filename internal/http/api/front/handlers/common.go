// Package handlers implements the gin handlers of the public API.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/entrefine/lifeos/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Context keys set by the auth middleware.
const (
	ContextUserID = "userID"
	ContextUser   = "user"
)

// TenantHeader selects an explicit tenant for tenant-scoped endpoints.
const TenantHeader = "X-Tenant-ID"

// CurrentUserID returns the authenticated user's id from the gin context.
func CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}

// mustUserID aborts with 401 when the middleware did not run.
func mustUserID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := CurrentUserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
	}
	return id, ok
}

// writeError translates domain errors to HTTP statuses. Anything outside
// the domain taxonomy is a 500 with the detail kept out of the response.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrRefreshTokenNotFound):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrBadRequest),
		errors.Is(err, domain.ErrAmbiguousTenantContext):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// pathUUID parses a UUID path parameter, answering 400 on garbage.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// queryInt parses an optional integer query parameter; absent or garbage
// values come back as zero and let the service apply its default.
func queryInt(c *gin.Context, name string) int {
	raw := c.Query(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

// requestedTenantID reads the optional tenant header.
func requestedTenantID(c *gin.Context) (*uuid.UUID, bool) {
	raw := c.GetHeader(TenantHeader)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tenant id"})
		return nil, false
	}
	return &id, true
}

package handlers

import (
	"net/http"

	"attendly/internal/apperrors"
	"attendly/internal/cache"
	"attendly/internal/logger"
	"attendly/internal/metrics"
	"attendly/internal/service"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	services     *service.Services
	valkeyClient *cache.ValkeyClient
	metrics      *metrics.Metrics
}

func NewHandlers(services *service.Services, valkeyClient *cache.ValkeyClient, m *metrics.Metrics) *Handlers {
	return &Handlers{
		services:     services,
		valkeyClient: valkeyClient,
		metrics:      m,
	}
}

// statusFor maps a business error code to its HTTP status. Unknown codes
// fall through to 500.
func statusFor(code string) int {
	switch code {
	case "EVENT_NOT_FOUND":
		return http.StatusNotFound
	case "ALREADY_CONFIRMED", "WAITLIST_DISABLED", "EVENT_FULL",
		"NOT_ATTENDING", "ALREADY_CHECKED_IN", "NOT_WAITLISTED":
		return http.StatusConflict
	case "ORGANIZER_CANNOT_LEAVE", "INSUFFICIENT_PRIVILEGES", "FEEDBACK_NOT_ELIGIBLE":
		return http.StatusForbidden
	case "INVALID_FEEDBACK_RATING":
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError renders a business error as its stable code, everything else
// as an opaque 500.
func (h *Handlers) respondError(c *gin.Context, err error) {
	if apperrors.IsBusiness(err) {
		code := apperrors.Code(err)
		if h.metrics != nil {
			h.metrics.BusinessErrors.WithLabelValues(code).Inc()
		}
		c.JSON(statusFor(code), gin.H{
			"error": err.Error(),
			"code":  code,
		})
		return
	}

	logger.WithContext(c.Request.Context()).Error("Request failed",
		"error", err,
		"method", c.Request.Method,
		"path", c.Request.URL.Path)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

// currentUserID returns the authenticated user id set by the auth middleware.
func currentUserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// requireUser aborts with 401 unless the auth middleware identified a user.
func requireUser(c *gin.Context) (int64, bool) {
	id, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return id, ok
}

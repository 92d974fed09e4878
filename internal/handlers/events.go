package handlers

import (
	"net/http"
	"strconv"

	"attendly/internal/logger"
	"attendly/internal/models"

	"github.com/gin-gonic/gin"
)

// Events handlers

func eventIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return 0, false
	}
	return id, true
}

// CreateEvent - POST /api/events
func (h *Handlers) CreateEvent(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.MaxAttendees != nil && *req.MaxAttendees < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "max_attendees must be >= 1"})
		return
	}

	response, err := h.services.Events.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// GetEvent - GET /api/events/:id
func (h *Handlers) GetEvent(c *gin.Context) {
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}

	event, err := h.services.Events.GetByID(c.Request.Context(), eventID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// GetCapacity - GET /api/events/:id/capacity
// Serves the snapshot from Valkey when possible; the cache is invalidated
// after every committed transition, so a hit is never stale.
func (h *Handlers) GetCapacity(c *gin.Context) {
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if h.valkeyClient != nil {
		if snap, err := h.valkeyClient.GetSnapshot(ctx, eventID); err == nil && snap != nil {
			c.JSON(http.StatusOK, snap)
			return
		}
	}

	snap, err := h.services.Attendance.Capacity(ctx, eventID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if h.valkeyClient != nil {
		if err := h.valkeyClient.SetSnapshot(ctx, eventID, snap); err != nil {
			logger.WithContext(ctx).Warn("Failed to cache capacity snapshot",
				"error", err, "event_id", eventID)
		}
	}

	c.JSON(http.StatusOK, snap)
}

// GetAttendanceLog - GET /api/events/:id/log
func (h *Handlers) GetAttendanceLog(c *gin.Context) {
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}

	entries, err := h.services.Events.Log(c.Request.Context(), eventID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if entries == nil {
		entries = []models.AttendanceLogEntry{}
	}

	c.JSON(http.StatusOK, entries)
}

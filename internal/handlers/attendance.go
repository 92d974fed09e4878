package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Attendance handlers

func targetUserParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return 0, false
	}
	return id, true
}

// Join - POST /api/events/:id/attendance
func (h *Handlers) Join(c *gin.Context) {
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	response, err := h.services.Attendance.Join(c.Request.Context(), eventID, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Leave - DELETE /api/events/:id/attendance
func (h *Handlers) Leave(c *gin.Context) {
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	response, err := h.services.Attendance.Leave(c.Request.Context(), eventID, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ConfirmAttendee - POST /api/events/:id/attendance/:userId/confirm
func (h *Handlers) ConfirmAttendee(c *gin.Context) {
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}
	targetID, ok := targetUserParam(c)
	if !ok {
		return
	}
	actorID, ok := requireUser(c)
	if !ok {
		return
	}

	response, err := h.services.Attendance.Confirm(c.Request.Context(), eventID, actorID, targetID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// WaitlistAttendee - POST /api/events/:id/attendance/:userId/waitlist
func (h *Handlers) WaitlistAttendee(c *gin.Context) {
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}
	targetID, ok := targetUserParam(c)
	if !ok {
		return
	}
	actorID, ok := requireUser(c)
	if !ok {
		return
	}

	response, err := h.services.Attendance.Waitlist(c.Request.Context(), eventID, actorID, targetID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// CancelAttendee - POST /api/events/:id/attendance/:userId/cancel
func (h *Handlers) CancelAttendee(c *gin.Context) {
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}
	targetID, ok := targetUserParam(c)
	if !ok {
		return
	}
	actorID, ok := requireUser(c)
	if !ok {
		return
	}

	response, err := h.services.Attendance.CancelFor(c.Request.Context(), eventID, actorID, targetID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// CheckInAttendee - POST /api/events/:id/attendance/:userId/checkin
func (h *Handlers) CheckInAttendee(c *gin.Context) {
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}
	targetID, ok := targetUserParam(c)
	if !ok {
		return
	}
	actorID, ok := requireUser(c)
	if !ok {
		return
	}

	response, err := h.services.Attendance.CheckIn(c.Request.Context(), eventID, actorID, targetID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// MarkNoShow - POST /api/events/:id/attendance/:userId/noshow
func (h *Handlers) MarkNoShow(c *gin.Context) {
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}
	targetID, ok := targetUserParam(c)
	if !ok {
		return
	}
	actorID, ok := requireUser(c)
	if !ok {
		return
	}

	response, err := h.services.Attendance.MarkNoShow(c.Request.Context(), eventID, actorID, targetID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// SweepEvent - POST /api/events/:id/sweep
// On-demand reconciliation for one event, same work as the background
// sweeper does across upcoming events.
func (h *Handlers) SweepEvent(c *gin.Context) {
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}
	if _, ok := requireUser(c); !ok {
		return
	}

	result, err := h.services.Sweep.SweepEvent(c.Request.Context(), eventID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

package handlers

import (
	"net/http"

	"attendly/internal/models"

	"github.com/gin-gonic/gin"
)

// Feedback handlers

// SubmitFeedback - POST /api/events/:id/feedback
func (h *Handlers) SubmitFeedback(c *gin.Context) {
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req models.SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.services.Feedback.Submit(c.Request.Context(), eventID, userID, &req); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListFeedback - GET /api/events/:id/feedback
func (h *Handlers) ListFeedback(c *gin.Context) {
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}

	records, err := h.services.Feedback.List(c.Request.Context(), eventID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if records == nil {
		records = []models.FeedbackRecord{}
	}

	c.JSON(http.StatusOK, records)
}

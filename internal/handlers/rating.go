package handlers

import (
	"net/http"

	"jeeforces/internal/models"
	"jeeforces/internal/services"

	"github.com/gin-gonic/gin"
)

type RatingHandler struct {
	ratings *services.RatingService
}

func NewRatingHandler(ratings *services.RatingService) *RatingHandler {
	return &RatingHandler{ratings: ratings}
}

// QueueRatings accepts new ratings for a contest's participants. They are applied
// asynchronously by the rating workers.
func (h *RatingHandler) QueueRatings(c *gin.Context) {
	contestID, ok := objectIDParam(c, "id", contestNotFound)
	if !ok {
		return
	}

	var req models.RatingUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	queued, err := h.ratings.EnqueueContestRatings(c.Request.Context(), contestID, req.Updates)
	if err != nil {
		respondError(c, err, "queue rating updates")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Rating updates queued for processing",
		"queued":  queued,
	})
}

func (h *RatingHandler) RegisterRoutes(admin *gin.RouterGroup) {
	admin.POST("/contests/:id/ratings", h.QueueRatings)
}

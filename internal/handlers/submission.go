package handlers

import (
	"net/http"

	"jeeforces/internal/middlewares"
	"jeeforces/internal/models"
	"jeeforces/internal/services"

	"github.com/gin-gonic/gin"
)

type SubmissionHandler struct {
	problems *services.ProblemService
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(problems *services.ProblemService) *SubmissionHandler {
	return &SubmissionHandler{problems: problems}
}

// CreateSubmission grades an answer and records it as the caller's final submission.
func (h *SubmissionHandler) CreateSubmission(c *gin.Context) {
	user, ok := identity(c)
	if !ok {
		return
	}
	problemID, ok := objectIDParam(c, "id", problemNotFound)
	if !ok {
		return
	}

	var req models.SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	submission, err := h.problems.Submit(c.Request.Context(), user.ID, problemID, &req)
	if err != nil {
		respondError(c, err, "process submission")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"submission": submission})
}

// GetSubmissions returns the caller's submissions for a problem, newest first.
func (h *SubmissionHandler) GetSubmissions(c *gin.Context) {
	user, ok := identity(c)
	if !ok {
		return
	}
	problemID, ok := objectIDParam(c, "id", problemNotFound)
	if !ok {
		return
	}

	submissions, err := h.problems.History(c.Request.Context(), user.ID, problemID)
	if err != nil {
		respondError(c, err, "retrieve submissions")
		return
	}

	c.JSON(http.StatusOK, gin.H{"submissions": submissions})
}

func (h *SubmissionHandler) RegisterRoutes(api *gin.RouterGroup) {
	problemGroup := api.Group("/problems/:id", middlewares.RequireSession())
	{
		problemGroup.POST("/submit", h.CreateSubmission)
		problemGroup.GET("/submissions", h.GetSubmissions)
	}
}

package handlers

import (
	"net/http"

	"jeeforces/internal/middlewares"
	"jeeforces/internal/models"
	"jeeforces/internal/services"

	"github.com/gin-gonic/gin"
)

type AgentHandler struct {
	problems *services.ProblemService
}

func NewAgentHandler(problems *services.ProblemService) *AgentHandler {
	return &AgentHandler{problems: problems}
}

// PracticeSet returns a random set of problems matching the requested tags and difficulty.
func (h *AgentHandler) PracticeSet(c *gin.Context) {
	var req models.PracticeSetRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
			return
		}
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	problems, err := h.problems.PracticeSet(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "build practice set")
		return
	}
	c.JSON(http.StatusOK, gin.H{"problems": problems})
}

func (h *AgentHandler) RegisterRoutes(api *gin.RouterGroup, limit gin.HandlerFunc) {
	api.POST("/agent/practice-set", middlewares.RequireSession(), limit, h.PracticeSet)
}

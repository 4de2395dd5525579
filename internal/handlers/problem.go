package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"jeeforces/internal/middlewares"
	"jeeforces/internal/models"
	"jeeforces/internal/services"

	"github.com/gin-gonic/gin"
)

const problemNotFound = "Problem not found"

type ProblemHandler struct {
	problems *services.ProblemService
}

// NewProblemHandler creates a new problem handler
func NewProblemHandler(problems *services.ProblemService) *ProblemHandler {
	return &ProblemHandler{problems: problems}
}

// GetProblems lists problems, newest first, optionally filtered by tag and difficulty.
func (h *ProblemHandler) GetProblems(c *gin.Context) {
	filter := models.ProblemFilter{
		Tag: strings.ToLower(strings.TrimSpace(c.Query("tag"))),
	}

	if raw := c.Query("difficulty"); raw != "" {
		difficulty, err := strconv.Atoi(raw)
		if _, known := models.DifficultyLabel(difficulty); err != nil || !known {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid difficulty"})
			return
		}
		filter.Difficulty = difficulty
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		filter.Limit = limit
	}

	problems, err := h.problems.ListProblems(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "retrieve problems")
		return
	}

	c.JSON(http.StatusOK, gin.H{"problems": problems})
}

// GetProblemByID returns a single problem without its answer.
func (h *ProblemHandler) GetProblemByID(c *gin.Context) {
	id, ok := objectIDParam(c, "id", problemNotFound)
	if !ok {
		return
	}

	problem, err := h.problems.GetProblem(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "retrieve problem")
		return
	}

	c.JSON(http.StatusOK, gin.H{"problem": problem.View()})
}

func (h *ProblemHandler) CreateProblem(c *gin.Context) {
	author, ok := identity(c)
	if !ok {
		return
	}

	var req models.CreateProblemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	problem, err := h.problems.CreateProblem(c.Request.Context(), author.ID, &req)
	if err != nil {
		respondError(c, err, "create problem")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"problem": problem.View()})
}

func (h *ProblemHandler) RegisterRoutes(api *gin.RouterGroup) {
	problemGroup := api.Group("/problems")
	{
		problemGroup.GET("", h.GetProblems)
		problemGroup.GET("/:id", h.GetProblemByID)
		problemGroup.POST("", middlewares.RequireAdmin(), h.CreateProblem)
	}
}

package handlers

import (
	"errors"
	"net/http"

	"jeeforces/internal/middlewares"
	"jeeforces/internal/models"
	"jeeforces/internal/services"

	"github.com/gin-gonic/gin"
)

const contestNotFound = "Contest not found"

type ContestHandler struct {
	contests *services.ContestService
}

func NewContestHandler(contests *services.ContestService) *ContestHandler {
	return &ContestHandler{contests: contests}
}

func (h *ContestHandler) ListContests(c *gin.Context) {
	contests, err := h.contests.ListContests(c.Request.Context())
	if err != nil {
		respondError(c, err, "retrieve contests")
		return
	}
	c.JSON(http.StatusOK, gin.H{"contests": contests})
}

func (h *ContestHandler) GetContest(c *gin.Context) {
	id, ok := objectIDParam(c, "id", contestNotFound)
	if !ok {
		return
	}

	contest, status, err := h.contests.GetContest(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "retrieve contest")
		return
	}
	c.JSON(http.StatusOK, gin.H{"contest": contest, "status": status})
}

func (h *ContestHandler) CreateContest(c *gin.Context) {
	creator, ok := identity(c)
	if !ok {
		return
	}

	var req models.CreateContestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contest, err := h.contests.CreateContest(c.Request.Context(), creator.ID, &req)
	if err != nil {
		respondError(c, err, "create contest")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"contest": contest})
}

// Register adds the caller to the contest. Registering twice is a client error.
func (h *ContestHandler) Register(c *gin.Context) {
	user, ok := identity(c)
	if !ok {
		return
	}
	contestID, ok := objectIDParam(c, "id", contestNotFound)
	if !ok {
		return
	}

	if err := h.contests.Register(c.Request.Context(), contestID, user.ID); err != nil {
		if errors.Is(err, services.ErrAlreadyRegistered) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Already registered"})
			return
		}
		respondError(c, err, "register for contest")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Registered successfully"})
}

func (h *ContestHandler) Leaderboard(c *gin.Context) {
	id, ok := objectIDParam(c, "id", contestNotFound)
	if !ok {
		return
	}

	board, err := h.contests.Leaderboard(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "retrieve leaderboard")
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": board})
}

func (h *ContestHandler) RegisterRoutes(api *gin.RouterGroup) {
	contestGroup := api.Group("/contests")
	{
		contestGroup.GET("", h.ListContests)
		contestGroup.GET("/:id", h.GetContest)
		contestGroup.GET("/:id/leaderboard", h.Leaderboard)
		contestGroup.POST("", middlewares.RequireAdmin(), h.CreateContest)
		contestGroup.POST("/:id/register", h.Register)
	}
}

package handlers

import (
	"net/http"

	"jeeforces/internal/middlewares"
	"jeeforces/internal/models"
	"jeeforces/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// UpdateProfile replaces the caller's profile fields. All four fields are required.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "All fields are required"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), id.ID, &req)
	if err != nil {
		respondError(c, err, "update profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    user.Public(),
	})
}

func (h *UserHandler) CountUsers(c *gin.Context) {
	count, err := h.users.CountUsers(c.Request.Context())
	if err != nil {
		respondError(c, err, "count users")
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	profile, err := h.users.PublicProfile(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err, "retrieve user")
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/update-profile", middlewares.RequireSession(), h.UpdateProfile)
	api.GET("/user/count", h.CountUsers)
	api.GET("/users/:username", h.GetProfile)
}

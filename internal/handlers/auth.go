package handlers

import (
	"net/http"

	"jeeforces/internal/middlewares"
	"jeeforces/internal/models"
	"jeeforces/internal/services"

	"github.com/gin-gonic/gin"
)

type CookieConfig struct {
	TTLSeconds int
	Secure     bool
}

type AuthHandler struct {
	auth           *services.AuthService
	cookie         CookieConfig
	verifyRedirect string
}

func NewAuthHandler(auth *services.AuthService, cookie CookieConfig, verifyRedirect string) *AuthHandler {
	return &AuthHandler{
		auth:           auth,
		cookie:         cookie,
		verifyRedirect: verifyRedirect,
	}
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.auth.SignUp(c.Request.Context(), &req); err != nil {
		respondError(c, err, "register user")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Account created. Check your email to verify it.",
	})
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	token, user, err := h.auth.SignIn(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "sign in")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(services.SessionCookieName, token, h.cookie.TTLSeconds, "/", "", h.cookie.Secure, true)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user": services.Identity{
			ID:       user.ID,
			Username: user.Username,
			Role:     user.Role,
		},
	})
}

// SignOut clears the session cookie. Sessions are stateless, so there is nothing to revoke.
func (h *AuthHandler) SignOut(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(services.SessionCookieName, "", -1, "/", "", h.cookie.Secure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Signed out successfully"})
}

func (h *AuthHandler) Session(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": id})
}

// Verify consumes an email verification link and sends the browser on to the sign-in page.
func (h *AuthHandler) Verify(c *gin.Context) {
	if err := h.auth.Verify(c.Request.Context(), c.Query("token")); err != nil {
		respondError(c, err, "verify email")
		return
	}
	c.Redirect(http.StatusFound, h.verifyRedirect)
}

func (h *AuthHandler) RegisterRoutes(api *gin.RouterGroup, limit gin.HandlerFunc) {
	authGroup := api.Group("/auth")
	{
		authGroup.GET("/verify", h.Verify)
		authGroup.POST("/sign-up", limit, h.SignUp)
		authGroup.POST("/sign-in", limit, h.SignIn)
		authGroup.POST("/sign-out", h.SignOut)
		authGroup.GET("/session", middlewares.RequireSession(), h.Session)
	}
}

package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"jeeforces/internal/logger"
	"jeeforces/internal/middlewares"
	"jeeforces/internal/models"
	"jeeforces/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	discussionNotFound     = "Discussion not found"
	defaultDiscussionLimit = 50
)

type DiscussionHandler struct {
	discussions *services.DiscussionService
}

func NewDiscussionHandler(discussions *services.DiscussionService) *DiscussionHandler {
	return &DiscussionHandler{discussions: discussions}
}

func (h *DiscussionHandler) ListDiscussions(c *gin.Context) {
	limit := int64(defaultDiscussionLimit)
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = n
	}

	discussions, err := h.discussions.ListDiscussions(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err, "retrieve discussions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"discussions": discussions})
}

func (h *DiscussionHandler) GetDiscussion(c *gin.Context) {
	id, ok := objectIDParam(c, "id", discussionNotFound)
	if !ok {
		return
	}

	discussion, err := h.discussions.GetDiscussion(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "retrieve discussion")
		return
	}
	c.JSON(http.StatusOK, gin.H{"discussion": discussion})
}

func (h *DiscussionHandler) CreateDiscussion(c *gin.Context) {
	author, ok := identity(c)
	if !ok {
		return
	}

	var req models.CreateDiscussionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	discussion, err := h.discussions.CreateDiscussion(c.Request.Context(), author.ID, &req)
	if err != nil {
		respondError(c, err, "create discussion")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"discussion": discussion})
}

// commentText reads {text} from the body. A body that does not decode yields no
// text, so the caller answers with its "text is required" message rather than a
// generic bind error.
func commentText(c *gin.Context) string {
	var req models.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Log.Debug("Comment body did not decode", zap.Error(err))
		return ""
	}
	return strings.TrimSpace(req.Text)
}

// AddComment checks the session first, then the text, then the discussion id.
func (h *DiscussionHandler) AddComment(c *gin.Context) {
	author, ok := identity(c)
	if !ok {
		return
	}
	text := commentText(c)
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Comment text is required"})
		return
	}
	id, ok := objectIDParam(c, "id", discussionNotFound)
	if !ok {
		return
	}

	discussion, err := h.discussions.AddComment(c.Request.Context(), id, author.ID, text)
	if err != nil {
		respondError(c, err, "add comment")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"discussion": discussion})
}

func (h *DiscussionHandler) AddReply(c *gin.Context) {
	author, ok := identity(c)
	if !ok {
		return
	}
	text := commentText(c)
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Reply text is required"})
		return
	}
	id, ok := objectIDParam(c, "id", discussionNotFound)
	if !ok {
		return
	}
	commentID, ok := objectIDParam(c, "commentId", discussionNotFound)
	if !ok {
		return
	}

	discussion, err := h.discussions.AddReply(c.Request.Context(), id, commentID, author.ID, text)
	if err != nil {
		respondError(c, err, "add reply")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"discussion": discussion})
}

func (h *DiscussionHandler) RegisterRoutes(api *gin.RouterGroup) {
	discussionGroup := api.Group("/discussions")
	{
		discussionGroup.GET("", h.ListDiscussions)
		discussionGroup.GET("/:id", h.GetDiscussion)
		discussionGroup.POST("", middlewares.RequireSession(), h.CreateDiscussion)
		discussionGroup.POST("/:id/comment", h.AddComment)
		discussionGroup.POST("/:id/comments/:commentId/reply", h.AddReply)
	}
}

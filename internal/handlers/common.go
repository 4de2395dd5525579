package handlers

import (
	"net/http"

	"jeeforces/internal/logger"
	"jeeforces/internal/middlewares"
	"jeeforces/internal/services"
	"jeeforces/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// respondError writes err as a JSON error. Failures that do not map to a client error
// are logged and answered with a generic message built from action.
func respondError(c *gin.Context, err error, action string) {
	status := utils.HTTPStatusFromError(err)
	if status == http.StatusInternalServerError {
		logger.Log.Error("Failed to "+action,
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		c.JSON(status, gin.H{"error": "Failed to " + action})
		return
	}

	msg, ok := utils.PublicMessage(err)
	if !ok {
		msg = err.Error()
	}
	c.JSON(status, gin.H{"error": msg})
}

// objectIDParam parses a path parameter as an ObjectID. A malformed id cannot name an
// existing document, so it is answered with notFound.
func objectIDParam(c *gin.Context, name, notFound string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
		return primitive.NilObjectID, false
	}
	return id, true
}

// identity returns the session identity or answers 401.
func identity(c *gin.Context) (*services.Identity, bool) {
	id, ok := middlewares.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, false
	}
	return id, true
}

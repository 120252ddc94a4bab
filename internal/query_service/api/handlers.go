// Package api exposes the query engine over HTTP. It owns no wire format
// beyond a thin JSON binding; the engine itself stays a library.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lifequery/internal/models"
	"lifequery/internal/queryengine"
	"lifequery/internal/queryengine/ports"
	"lifequery/pkg/httpmiddleware"
	"lifequery/pkg/logger"
)

// API provides the HTTP handlers for the query service.
type API struct {
	engine *queryengine.Engine
	logger *logger.Logger
}

// NewAPI creates a new API handler.
func NewAPI(engine *queryengine.Engine, logger *logger.Logger) *API {
	return &API{engine: engine, logger: logger}
}

type queryPayload struct {
	Text    string               `json:"text" binding:"required"`
	History []models.ChatMessage `json:"history"`
}

// QueryHandler answers a personal query for the authenticated user.
func (a *API) QueryHandler(c *gin.Context) {
	userID := c.GetString(httpmiddleware.ContextKeyUserID)

	var payload queryPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		a.logger.WithError(err).Warn("invalid query payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	result, err := a.engine.Answer(c.Request.Context(), models.Query{
		Text:                payload.Text,
		UserID:              userID,
		ConversationHistory: payload.History,
	})
	if err != nil {
		a.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CircleQueryHandler answers a query over a shared circle's data.
func (a *API) CircleQueryHandler(c *gin.Context) {
	userID := c.GetString(httpmiddleware.ContextKeyUserID)
	circleID := c.Param("id")

	var payload queryPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		a.logger.WithError(err).Warn("invalid circle query payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	result, err := a.engine.AnswerCircle(c.Request.Context(), models.Query{
		Text:                payload.Text,
		UserID:              userID,
		ConversationHistory: payload.History,
	}, circleID)
	if err != nil {
		a.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// respondError maps engine errors onto HTTP statuses. Fatal dependency
// failures surface as 502 so callers can distinguish them from bad input.
func (a *API) respondError(c *gin.Context, err error) {
	var depErr *ports.DependencyError

	switch {
	case errors.Is(err, ports.ErrNotCircleMember):
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this circle"})
	case errors.As(err, &depErr):
		a.logger.WithError(err).Error("dependency failure while answering query")
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream dependency failed"})
	default:
		a.logger.WithError(err).Error("failed to answer query")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to answer query"})
	}
}

package api

import (
	"github.com/gin-gonic/gin"

	"lifequery/pkg/httpmiddleware"
	"lifequery/pkg/ratelimiter"
)

// RegisterRoutes registers all routes of the query service. The limiter is
// optional; nil disables per-user throttling.
func RegisterRoutes(router *gin.Engine, api *API, limiter *ratelimiter.Keyed) {
	v1 := router.Group("/api/v1")
	v1.Use(httpmiddleware.RequestID(), httpmiddleware.UserIdentity())
	if limiter != nil {
		v1.Use(httpmiddleware.PerUserRateLimit(limiter))
	}
	{
		v1.POST("/query", api.QueryHandler)
		v1.POST("/circles/:id/query", api.CircleQueryHandler)
	}
}

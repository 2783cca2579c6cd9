package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck reports whether a dependency is reachable
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type RouterParams struct {
	Handler      *Handler
	WebSocket    http.HandlerFunc
	HealthChecks []HealthCheck
	Logger       zerolog.Logger
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(params RouterParams) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(RequestLogger(params.Logger.With().Str("component", "http").Logger()))

	h := params.Handler

	router.GET("/health", healthHandler(params.HealthChecks))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if params.WebSocket != nil {
		router.GET("/ws", gin.WrapF(params.WebSocket))
	}

	auctions := router.Group("/auctions")
	{
		auctions.GET("", h.ListPublicAuctions)
		auctions.GET("/:id", h.GetAuction)
		auctions.GET("/:id/bids", h.ListBids)
		auctions.POST("/:id/bids", Authenticated(), h.PlaceBid)
	}

	admin := router.Group("/admin", Authenticated(), AdminOnly())
	{
		admin.POST("/listings", h.CreateListing)
		admin.GET("/listings/:id", h.GetListing)
		admin.DELETE("/listings/:id", h.DeleteListing)

		admin.GET("/auctions", h.ListAllAuctions)
		admin.POST("/auctions", h.CreateAuction)
		admin.PATCH("/auctions/:id", h.EditAuction)
		admin.POST("/auctions/:id/cancel", h.CancelAuction)
	}

	return router
}

func healthHandler(checks []HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		failures := gin.H{}
		for _, check := range checks {
			if err := check.Check(ctx); err != nil {
				failures[check.Name] = err.Error()
			}
		}
		if len(failures) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "failures": failures})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "listing-auction-service"})
	}
}

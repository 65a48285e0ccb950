package http

import (
	"github.com/gin-gonic/gin"
	"github.com/outfity/trend-radar/internal/config"
	"github.com/outfity/trend-radar/internal/http/controller"
	"github.com/outfity/trend-radar/internal/http/middleware"
)

// InitRouter wires the middleware stack and the trend endpoints onto the
// given gin engine. The /health endpoint stays open; everything under /api
// requires the bearer token.
func InitRouter(conf *config.Config, server *gin.Engine, ctr *controller.Controller, trendCtr *controller.TrendController) *gin.Engine {
	server.Use(middleware.Recovery())
	server.Use(middleware.CORS())
	server.Use(middleware.Logger())

	server.GET("/health", ctr.Ping)

	api := server.Group("/api", middleware.Auth(conf.APIToken))
	trends := api.Group("/trends")
	{
		trends.POST("/hybrid-radar/scrape-only", trendCtr.ScrapeOnly)
		trends.GET("", trendCtr.ListTrends)
		trends.POST("/cleanup", trendCtr.Cleanup)
		trends.DELETE("/:id", trendCtr.DeleteTrend)
	}

	return server
}

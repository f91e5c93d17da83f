package router

import (
	"ytcbow/handler"
	"ytcbow/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const serviceName = "ytcbow"

func Setup(h *handler.Handler) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"*"},
		ExposeHeaders: []string{"Content-Length"},
	}))
	r.Use(middleware.PrometheusMiddleware(serviceName))

	r.GET("/api/channels/:id", h.GetChannel)
	r.GET("/api/videos", h.ListVideos)
	r.GET("/api/videos/:id", h.GetVideo)
	r.GET("/api/videos/:id/comments", h.GetComments)
	r.POST("/api/crawl/:channelId", h.TriggerCrawl)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy", "service": serviceName})
	})

	return r
}

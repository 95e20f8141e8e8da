package api

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cardwatch/cardwatch/internal/api/handlers"
	"github.com/cardwatch/cardwatch/internal/metrics"
	"github.com/cardwatch/cardwatch/internal/services"
)

// SetupRouter wires the HTTP API over the catalog services.
func SetupRouter(importService *services.ImportService, searchService *services.SearchService, estimator *services.EstimatorService, refreshWorker *services.RefreshWorker) *gin.Engine {
	router := gin.Default()

	// CORS configuration - allow origins from environment or use defaults
	config := cors.DefaultConfig()
	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		config.AllowOrigins = strings.Split(corsOrigins, ",")
	} else {
		config.AllowOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(config))
	router.Use(observeRequests())

	cardHandler := handlers.NewCardHandler(searchService, refreshWorker)
	importHandler := handlers.NewImportHandler(importService)
	estimateHandler := handlers.NewEstimateHandler(estimator, refreshWorker)

	api := router.Group("/api")
	{
		cards := api.Group("/cards")
		{
			cards.GET("/search", cardHandler.SearchCards)
			cards.GET("/lookup", cardHandler.LookupCard)
			cards.GET("/:id", cardHandler.GetCard)
			cards.POST("/:id/refresh-price", cardHandler.RefreshCardPrice)
		}

		api.POST("/import", importHandler.ImportCards)
		api.GET("/estimate", estimateHandler.Estimate)
		api.GET("/prices/status", estimateHandler.GetRefreshStatus)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

// observeRequests records request counts and latency per route.
func observeRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

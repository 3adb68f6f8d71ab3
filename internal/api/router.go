package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hypernova-labs/client-service/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// RouterOptions agrupa las dependencias del router
type RouterOptions struct {
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	Limiter        WindowCounter
	RateLimit      int
	RateWindow     time.Duration
	InngestHandler http.Handler
	EnableCORS     bool
	Logger         *logrus.Logger
}

// NewRouter configura el router principal
func NewRouter(apiHandler *API, opts RouterOptions) *gin.Engine {
	router := gin.New()

	router.Use(RequestLogger(opts.Logger))
	router.Use(Recovery(opts.Logger))
	router.Use(Metrics(opts.Metrics))

	// Middleware de CORS para desarrollo
	if opts.EnableCORS {
		router.Use(func(c *gin.Context) {
			c.Header("Access-Control-Allow-Origin", "*")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-Request-ID")
			c.Header("Access-Control-Expose-Headers", "Location, X-Request-ID")

			if c.Request.Method == http.MethodOptions {
				c.AbortWithStatus(http.StatusNoContent)
				return
			}

			c.Next()
		})
	}

	router.GET("/health", apiHandler.Health)

	if opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	if opts.InngestHandler != nil {
		router.Any("/api/inngest", gin.WrapH(opts.InngestHandler))
	}

	clients := router.Group(clientsBasePath)
	clients.Use(RateLimit(opts.Limiter, opts.RateLimit, opts.RateWindow, opts.Metrics, opts.Logger))
	{
		clients.POST("", apiHandler.CreateClient)
		clients.GET("", apiHandler.ListClients)
		clients.GET("/count", apiHandler.CountClients)
		clients.GET("/export", apiHandler.ExportRoster)
		clients.POST("/export", apiHandler.ArchiveRoster)
		clients.GET("/country/:code", apiHandler.ListClientsByCountry)
		clients.GET("/:id", apiHandler.GetClient)
		clients.PATCH("/:id", apiHandler.UpdateClient)
		clients.DELETE("/:id", apiHandler.DeleteClient)
	}

	return router
}

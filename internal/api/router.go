// Package api is the HTTP front end: extraction on demand, email rendering and metrics.
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sjsage522/portalevents/config"
	"sjsage522/portalevents/logger"
	"sjsage522/portalevents/services/cache"
)

const (
	corsMaxAgeHours = 12
	maxBodyBytes    = 2 << 20
)

// Deps are the collaborators of the router. Cache and Gatherer may be nil.
type Deps struct {
	Config    *config.Config
	Extractor Extractor
	Cache     *cache.ResultCache
	Gatherer  prometheus.Gatherer
	Log       *logger.Logger
}

// NewRouter builds the gin engine
func NewRouter(deps Deps) *gin.Engine {
	if deps.Log == nil {
		deps.Log = logger.ForAPI()
	}

	router := gin.New()

	// CORS middleware - must be first
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Content-Length", "Accept"},
		ExposeHeaders:   []string{"Content-Length", cacheHeader},
		MaxAge:          corsMaxAgeHours * time.Hour,
	}))
	router.Use(ginLogger(deps.Log))
	router.Use(gin.Recovery())
	router.Use(limitBody(maxBodyBytes))

	h := &handler{
		cfg:       deps.Config,
		extractor: deps.Extractor,
		cache:     deps.Cache,
		log:       deps.Log,
	}

	routes := router.Group("/api")
	routes.GET("/health", h.health)
	routes.POST("/scrape", h.scrape)
	routes.POST("/email", h.email)

	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// Built web UI
	if deps.Config != nil && deps.Config.StaticDir != "" {
		router.NoRoute(gin.WrapH(http.FileServer(http.Dir(deps.Config.StaticDir))))
	}

	return router
}

func ginLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		log.Debug().
			Str("method", method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	}
}

func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}

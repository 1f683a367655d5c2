package webserver

import (
	"crypto/rand"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/stake-plus/mmr-scorecard/src/ai/core"
	"github.com/stake-plus/mmr-scorecard/src/chat"
	"github.com/stake-plus/mmr-scorecard/src/config"
	"github.com/stake-plus/mmr-scorecard/src/dataset"
	"github.com/stake-plus/mmr-scorecard/src/metrics"
)

// Deps are the collaborators the HTTP API is built from. DB, Redis, Store,
// Metrics and Gatherer are optional.
type Deps struct {
	Config  config.APIConfig
	Catalog *dataset.Catalog
	AI      core.Client

	DB    *gorm.DB
	Redis *redis.Client
	Store chat.Store

	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// New builds the gin engine serving the API.
func New(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Store == nil {
		d.Store = chat.NewMemoryStore()
	}
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(d.Logger.Named("http")))
	attachRoutes(r, d)
	return r
}

func attachRoutes(r *gin.Engine, d Deps) {
	cfg := d.Config
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		_, _ = rand.Read(secret)
		d.Logger.Warn("JWT_SECRET not set; session tokens will not survive a restart")
	}

	limiter := NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	cache, _ := lru.New[uint64, cachedAnswer](max(cfg.CacheSize, 1))

	healthH := NewHealth(d)
	queryH := NewQuery(d, secret, cache)
	sessionH := NewSessions(d.Store, secret)
	catalogH := NewCatalog(d.Catalog, d.Metrics)
	adminH := NewAdmin(d.DB)

	r.GET("/healthz", healthH.Live)

	api := r.Group("/api")
	{
		api.GET("/health", healthH.Ready)
		api.GET("/mmr/info", healthH.Info)
		api.POST("/mmr/query", RateLimitMiddleware(limiter), queryH.Query)
	}

	v1 := r.Group("/v1")
	{
		v1.POST("/session", sessionH.Create)
		v1.GET("/profiles", catalogH.List)
		v1.GET("/profiles/:slug", catalogH.Get)
		v1.GET("/categories", catalogH.Categories)
		v1.GET("/rollup", catalogH.Rollup)
		v1.GET("/rules", catalogH.Rules)
		v1.POST("/evaluate", RateLimitMiddleware(limiter), catalogH.Evaluate)

		secured := v1.Group("/session", JWTMiddleware(secret))
		secured.GET("/history", sessionH.History)
		secured.DELETE("/history", sessionH.Clear)
	}

	admin := v1.Group("/admin")
	admin.Use(AdminMiddleware(cfg.AdminTokenHash))
	{
		admin.GET("/conversations/:sid", adminH.Conversations)
	}

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "If-None-Match"},
		ExposeHeaders: []string{"Content-Length", "ETag"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}

// RequestLogger logs one line per request.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch s := c.Writer.Status(); {
		case s >= 500:
			log.Error("request", fields...)
		case s >= 400:
			log.Warn("request", fields...)
		default:
			log.Debug("request", fields...)
		}
	}
}

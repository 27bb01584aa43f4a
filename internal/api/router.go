package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/charstudio/internal/api/handlers"
	"github.com/your-org/charstudio/internal/api/ws"
	"github.com/your-org/charstudio/internal/auth"
)

type RouterConfig struct {
	Service        handlers.CharacterService
	Verifier       *auth.Verifier
	Hub            *ws.Hub
	Checks         []handlers.ReadinessCheck
	AllowedOrigins []string
	MaxBodyBytes   int64
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(corsMiddleware(cfg.AllowedOrigins))
	if cfg.MaxBodyBytes > 0 {
		r.Use(BodyLimitMiddleware(cfg.MaxBodyBytes))
	}

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.Checks...)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 (with auth)
	v1 := r.Group("/v1")
	v1.Use(auth.BearerMiddleware(cfg.Verifier))

	// WebSocket
	if cfg.Hub != nil {
		v1.GET("/ws", cfg.Hub.HandleWS)
	}

	// Characters
	charH := handlers.NewCharacterHandler(cfg.Service)
	v1.GET("/characters", charH.List)
	v1.GET("/characters/:id", charH.Get)
	v1.GET("/characters/:id/image", charH.Image)
	v1.POST("/characters/pair", charH.CreatePair)
	v1.POST("/visualizations", charH.Visualize)

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		cfg := cors.DefaultConfig()
		cfg.AllowAllOrigins = true
		cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
		return cors.New(cfg)
	}
	return cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	})
}

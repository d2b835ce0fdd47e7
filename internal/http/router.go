package httpx

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/you/glucopredict/internal/http/handlers"
	"github.com/you/glucopredict/internal/http/middleware"
	"github.com/you/glucopredict/internal/logging"
)

// Handlers groups everything the router mounts
type Handlers struct {
	Auth        *handlers.AuthHandlers
	Predictions *handlers.PredictionHandlers
	Health      *handlers.HealthHandlers
	AuthMW      *middleware.AuthMW
}

// BuildRouter wires routes, CORS for allowedOrigins, recovery and request logging.
func BuildRouter(h Handlers, allowedOrigins []string, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logging.OrNop(log)))
	r.Use(cors.New(corsConfig(allowedOrigins)))

	r.GET("/", h.Health.Root)
	r.GET("/health", h.Health.Health)

	auth := r.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)

	r.POST("/predict/public", h.Predictions.PredictPublic)

	v := r.Group("/").Use(h.AuthMW.RequireAuth())
	v.GET("/auth/profile", h.Auth.Profile)
	v.DELETE("/auth/profile", h.Auth.Deactivate)
	v.POST("/predict", h.Predictions.Predict)
	v.GET("/predictions", h.Predictions.History)
	v.GET("/predictions/stats", h.Predictions.Stats)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports store reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyChecker reports whether the model artifacts are loaded
type ReadyChecker interface {
	Ready(ctx context.Context) error
}

// HealthHandlers serves liveness and the root banner
type HealthHandlers struct {
	db      Pinger
	model   ReadyChecker
	timeout time.Duration
	now     func() time.Time
}

// NewHealthHandlers creates health handlers. model may be nil.
func NewHealthHandlers(db Pinger, model ReadyChecker) *HealthHandlers {
	return &HealthHandlers{db: db, model: model, timeout: 2 * time.Second, now: time.Now}
}

// Health always answers 200; status is degraded when the store is down.
func (h *HealthHandlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status, database := "healthy", "connected"
	if h.db == nil || h.db.Ping(ctx) != nil {
		status, database = "degraded", "disconnected"
	}

	model := "not_loaded"
	if h.model != nil && h.model.Ready(ctx) == nil {
		model = "loaded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"database":  database,
		"model":     model,
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// Root is the API banner
func (h *HealthHandlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "GlucoPredict API"})
}

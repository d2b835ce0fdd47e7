package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/you/glucopredict/domain"
	"github.com/you/glucopredict/internal/http/middleware"
	"github.com/you/glucopredict/internal/logging"
)

// PredictionHandlers serves classification and history endpoints
type PredictionHandlers struct {
	predictions domain.PredictionService
	logger      *slog.Logger
}

// NewPredictionHandlers creates new prediction handlers
func NewPredictionHandlers(predictions domain.PredictionService, log *slog.Logger) *PredictionHandlers {
	return &PredictionHandlers{
		predictions: predictions,
		logger:      logging.OrNop(log).With("component", "prediction_handlers"),
	}
}

// Predict classifies the body and records it for the authenticated user
func (h *PredictionHandlers) Predict(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		RespondError(c, h.logger, domain.ErrUnauthorized, "")
		return
	}
	h.classify(c, user)
}

// PredictPublic classifies the body without authentication or persistence
func (h *PredictionHandlers) PredictPublic(c *gin.Context) {
	h.classify(c, nil)
}

func (h *PredictionHandlers) classify(c *gin.Context, user *domain.User) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil || raw == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	resp, err := h.predictions.Classify(c.Request.Context(), user, raw)
	if err != nil {
		RespondError(c, h.logger, err, "Prediction failed")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// History lists the authenticated user's predictions, newest first
func (h *PredictionHandlers) History(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		RespondError(c, h.logger, domain.ErrUnauthorized, "")
		return
	}

	limit, err := queryInt(c, "limit", domain.DefaultListLimit)
	if err != nil {
		RespondError(c, h.logger, err, "")
		return
	}
	skip, err := queryInt(c, "skip", 0)
	if err != nil {
		RespondError(c, h.logger, err, "")
		return
	}
	_, skip = domain.ClampPaging(limit, skip)

	list, limit, err := h.predictions.History(c.Request.Context(), user, limit, skip)
	if err != nil {
		RespondError(c, h.logger, err, "Failed to load predictions")
		return
	}
	if list == nil {
		list = []domain.Prediction{}
	}

	c.JSON(http.StatusOK, gin.H{
		"predictions": list,
		"count":       len(list),
		"limit":       limit,
		"skip":        skip,
	})
}

// Stats summarises the authenticated user's predictions
func (h *PredictionHandlers) Stats(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		RespondError(c, h.logger, domain.ErrUnauthorized, "")
		return
	}

	stats, err := h.predictions.Stats(c.Request.Context(), user)
	if err != nil {
		RespondError(c, h.logger, err, "Failed to load statistics")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	v, ok := c.GetQuery(name)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, domain.ValidationError(name, "Invalid value for parameter: "+name)
	}
	return n, nil
}

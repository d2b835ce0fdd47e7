package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/glucopredict/domain"
	"github.com/you/glucopredict/internal/http/middleware"
	"github.com/you/glucopredict/internal/mocks"
)

const featureJSON = `{"pregnancies":2,"glucose":140,"bloodPressure":80,"skinThickness":25,"insulin":100,"bmi":32.5,"diabetesPedigree":0.6,"age":45}`

// newPredictionRouter mounts the handlers behind a stub that injects user when non-nil
func newPredictionRouter(svc domain.PredictionService, user *domain.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewPredictionHandlers(svc, nil)

	r := gin.New()
	withUser := func(c *gin.Context) {
		if user != nil {
			middleware.SetCurrentUser(c, user)
		}
		c.Next()
	}
	r.POST("/predict", withUser, h.Predict)
	r.POST("/predict/public", h.PredictPublic)
	r.GET("/predictions", withUser, h.History)
	r.GET("/predictions/stats", withUser, h.Stats)
	return r
}

func TestPredictionHandlers_Predict(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		body           string
		classifyErr    error
		expectedStatus int
		expectedError  string
		wantIdentity   bool
	}{
		{
			name:           "authenticated prediction",
			path:           "/predict",
			body:           featureJSON,
			expectedStatus: http.StatusOK,
			wantIdentity:   true,
		},
		{
			name:           "public prediction carries no identity",
			path:           "/predict/public",
			body:           featureJSON,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing field",
			path:           "/predict",
			body:           `{"glucose":140}`,
			classifyErr:    domain.ValidationError("age", "Missing field: age"),
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Missing field: age",
		},
		{
			name:           "array body",
			path:           "/predict/public",
			body:           `[1,2,3]`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid request body",
		},
		{
			name:           "null body",
			path:           "/predict/public",
			body:           `null`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid request body",
		},
		{
			name:           "model not ready is a generic 500",
			path:           "/predict",
			body:           featureJSON,
			classifyErr:    domain.WrapError(domain.KindNotReady, "model artifacts are not available", errors.New("open artifacts/diabetes_model.json: no such file")),
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "Prediction failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := mocks.NewMockPredictionService()
			var gotIdentity *domain.User
			var gotRaw map[string]any
			svc.ClassifyFunc = func(ctx context.Context, identity *domain.User, raw map[string]any) (*domain.PredictionResponse, error) {
				gotIdentity, gotRaw = identity, raw
				if tt.classifyErr != nil {
					return nil, tt.classifyErr
				}
				resp := &domain.PredictionResponse{
					Risk:           domain.RiskHigh,
					Message:        "High Risk of Diabetes",
					Probabilities:  map[string]float64{"normal": 0.2, "high": 0.8},
					PredictedClass: 1,
					ModelAccuracy:  86.4,
					ResponseTimeMs: 1.5,
				}
				if identity != nil {
					resp.PredictionID = "pred-1"
				}
				return resp, nil
			}

			r := newPredictionRouter(svc, createTestUserForHandler(t))
			req := httptest.NewRequest(http.MethodPost, tt.path, bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, tt.expectedStatus, w.Code)
			body := decodeBody(t, w)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, body["error"])
				assert.NotContains(t, w.Body.String(), "no such file")
				return
			}

			assert.Equal(t, "high", body["risk"])
			assert.Equal(t, float64(1), body["predicted_class"])
			assert.Equal(t, 86.4, body["model_accuracy"])
			assert.Equal(t, 140.0, gotRaw["glucose"])
			if tt.wantIdentity {
				require.NotNil(t, gotIdentity)
				assert.Equal(t, "user-1", gotIdentity.ID)
				assert.Equal(t, "pred-1", body["prediction_id"])
			} else {
				assert.Nil(t, gotIdentity)
				assert.NotContains(t, body, "prediction_id")
			}
		})
	}
}

func TestPredictionHandlers_History(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		query          string
		expectedStatus int
		wantLimit      int
		wantSkip       int
	}{
		{name: "defaults", query: "", expectedStatus: http.StatusOK, wantLimit: 50, wantSkip: 0},
		{name: "explicit", query: "?limit=10&skip=20", expectedStatus: http.StatusOK, wantLimit: 10, wantSkip: 20},
		{name: "clamped", query: "?limit=1000&skip=-5", expectedStatus: http.StatusOK, wantLimit: 100, wantSkip: 0},
		{name: "non numeric limit", query: "?limit=ten", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := mocks.NewMockPredictionService()
			var passedSkip = -1
			svc.HistoryFunc = func(ctx context.Context, user *domain.User, limit, skip int) ([]domain.Prediction, int, error) {
				passedSkip = skip
				limit, _ = domain.ClampPaging(limit, skip)
				return []domain.Prediction{{ID: "p-1", UserID: user.ID, RiskLevel: domain.RiskNormal, CreatedAt: created}}, limit, nil
			}

			r := newPredictionRouter(svc, createTestUserForHandler(t))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/predictions"+tt.query, nil))

			require.Equal(t, tt.expectedStatus, w.Code)
			body := decodeBody(t, w)
			if tt.expectedStatus != http.StatusOK {
				assert.Equal(t, "Invalid value for parameter: limit", body["error"])
				return
			}
			assert.Equal(t, float64(1), body["count"])
			assert.Equal(t, float64(tt.wantLimit), body["limit"])
			assert.Equal(t, float64(tt.wantSkip), body["skip"])
			assert.Equal(t, tt.wantSkip, passedSkip)

			list := body["predictions"].([]interface{})
			first := list[0].(map[string]interface{})
			assert.Equal(t, "p-1", first["id"])
			assert.Equal(t, "normal", first["risk_level"])
			assert.Contains(t, first, "glucose")
		})
	}
}

func TestPredictionHandlers_Stats(t *testing.T) {
	latest := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := mocks.NewMockPredictionService()
	svc.StatsFunc = func(ctx context.Context, user *domain.User) (*domain.PredictionStats, error) {
		return &domain.PredictionStats{
			TotalCount:       4,
			RiskDistribution: map[string]int64{"normal": 3, "high": 1},
			LatestPrediction: &latest,
		}, nil
	}

	r := newPredictionRouter(svc, createTestUserForHandler(t))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/predictions/stats", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(4), body["totalCount"])
	assert.Equal(t, map[string]interface{}{"normal": float64(3), "high": float64(1)}, body["riskDistribution"])
	assert.Equal(t, "2024-05-01T12:00:00Z", body["latestPrediction"])
}

func TestPredictionHandlers_RequireUser(t *testing.T) {
	r := newPredictionRouter(mocks.NewMockPredictionService(), nil)

	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/predict"},
		{http.MethodGet, "/predictions"},
		{http.MethodGet, "/predictions/stats"},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(route.method, route.path, bytes.NewBufferString(featureJSON)))
		assert.Equal(t, http.StatusUnauthorized, w.Code, route.path)
	}
}

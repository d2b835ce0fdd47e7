package e2e

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/glucopredict/internal/infrastructure/auth"
)

func register(t *testing.T, s *TestServer, email string) (userID, token string) {
	t.Helper()

	status, body := s.Do(t, http.MethodPost, "/auth/register", "", map[string]any{
		"email":    email,
		"password": "secure123",
		"name":     "Flow Tester",
	})
	require.Equal(t, http.StatusCreated, status, body)
	user := body["user"].(map[string]any)
	return user["id"].(string), body["token"].(string)
}

func TestPredictionFlow(t *testing.T) {
	s := NewTestServer(t)

	email := uniqueEmail()
	userID, _ := register(t, s, "  "+strings.ToUpper(email)+" ")

	status, body := s.Do(t, http.MethodPost, "/auth/login", "", map[string]any{
		"email":    email,
		"password": "secure123",
	})
	require.Equal(t, http.StatusOK, status, body)
	token := body["token"].(string)
	assert.Equal(t, userID, body["user"].(map[string]any)["id"])
	assert.Equal(t, email, body["user"].(map[string]any)["email"])

	status, body = s.Do(t, http.MethodPost, "/predict", token, features(140))
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "high", body["risk"])
	assert.Equal(t, "High Risk of Diabetes", body["message"])
	assert.Equal(t, float64(1), body["predicted_class"])
	assert.Equal(t, 86.4, body["model_accuracy"])
	predictionID, _ := body["prediction_id"].(string)
	require.NotEmpty(t, predictionID)

	probs := body["probabilities"].(map[string]any)
	assert.InDelta(t, 1.0, probs["normal"].(float64)+probs["high"].(float64), 1e-6)

	status, body = s.Do(t, http.MethodGet, "/predictions", token, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, float64(1), body["count"])
	list := body["predictions"].([]any)
	require.Len(t, list, 1)
	row := list[0].(map[string]any)
	assert.Equal(t, predictionID, row["id"])
	assert.Equal(t, userID, row["user_id"])
	assert.Equal(t, float64(140), row["glucose"])
	assert.Equal(t, "high", row["risk_level"])

	status, body = s.Do(t, http.MethodGet, "/predictions/stats", token, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, float64(1), body["totalCount"])
	assert.Equal(t, map[string]any{"high": float64(1)}, body["riskDistribution"])
	assert.NotNil(t, body["latestPrediction"])

	status, body = s.Do(t, http.MethodGet, "/auth/profile", token, nil)
	require.Equal(t, http.StatusOK, status, body)
	profile := body["user"].(map[string]any)
	assert.Equal(t, float64(1), profile["prediction_count"])
	assert.Equal(t, float64(1), profile["login_count"])
	assert.Equal(t, "Flow Tester", profile["name"])
	assert.NotNil(t, profile["last_login"])
}

func TestPublicPredictionIsNotPersisted(t *testing.T) {
	s := NewTestServer(t)
	_, token := register(t, s, uniqueEmail())

	status, body := s.Do(t, http.MethodPost, "/predict/public", "", features(80))
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "normal", body["risk"])
	assert.NotContains(t, body, "prediction_id")

	status, body = s.Do(t, http.MethodGet, "/predictions", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), body["count"])
}

func TestPredictValidation(t *testing.T) {
	s := NewTestServer(t)
	_, token := register(t, s, uniqueEmail())

	missing := features(140)
	delete(missing, "age")
	status, body := s.Do(t, http.MethodPost, "/predict", token, missing)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Missing field: age", body["error"])

	invalid := features(140)
	invalid["bmi"] = "heavy"
	status, body = s.Do(t, http.MethodPost, "/predict", token, invalid)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid value for field: bmi", body["error"])

	numericStrings := features(140)
	numericStrings["glucose"] = "140"
	status, body = s.Do(t, http.MethodPost, "/predict", token, numericStrings)
	assert.Equal(t, http.StatusOK, status, body)
}

func TestPredictRejectsBadTokens(t *testing.T) {
	s := NewTestServer(t)
	userID, _ := register(t, s, uniqueEmail())

	past := func() time.Time { return time.Now().Add(-48 * time.Hour) }
	expired, err := auth.NewJWTServiceWithClock(testSecret, time.Hour, past).Issue(userID, "x@example.com")
	require.NoError(t, err)

	forged, err := auth.NewJWTService("some-other-secret", time.Hour).Issue(userID, "x@example.com")
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		message string
	}{
		{name: "no token", token: "", message: "Authentication token is missing"},
		{name: "malformed", token: "not.a.jwt", message: "Invalid token"},
		{name: "expired", token: expired, message: "Token has expired"},
		{name: "wrong signature", token: forged, message: "Invalid token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := s.Do(t, http.MethodPost, "/predict", tt.token, features(140))
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, tt.message, body["error"])
		})
	}
}

func TestDuplicateRegistrationAndDeactivation(t *testing.T) {
	s := NewTestServer(t)
	email := uniqueEmail()
	_, token := register(t, s, email)

	status, body := s.Do(t, http.MethodPost, "/auth/register", "", map[string]any{
		"email":    strings.ToUpper(email),
		"password": "secure123",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "User with this email already exists", body["error"])

	status, _ = s.Do(t, http.MethodDelete, "/auth/profile", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, body = s.Do(t, http.MethodGet, "/auth/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Account is deactivated", body["error"])

	status, body = s.Do(t, http.MethodPost, "/auth/login", "", map[string]any{
		"email":    email,
		"password": "secure123",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Account is deactivated", body["error"])
}

func TestUserStoreFailureIsUnavailable(t *testing.T) {
	s := NewTestServer(t)
	_, token := register(t, s, uniqueEmail())

	db, err := s.Container.DB.Handle(context.Background())
	require.NoError(t, err)
	require.NoError(t, db.Migrator().DropTable("users"))

	status, body := s.Do(t, http.MethodGet, "/auth/profile", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "Service temporarily unavailable", body["error"])
}

func TestHealth(t *testing.T) {
	s := NewTestServer(t)

	status, body := s.Do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "connected", body["database"])
	assert.Equal(t, "loaded", body["model"])
	assert.NotEmpty(t, body["timestamp"])

	status, body = s.Do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "GlucoPredict API", body["message"])
}

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/you/glucopredict/internal/app"
	"github.com/you/glucopredict/internal/config"
)

const testSecret = "e2e-test-secret-key-for-jwt-signing"

// TestServer wraps the fully wired application behind an httptest server
type TestServer struct {
	Server    *httptest.Server
	Container *app.Container
	Config    *config.Config
	Client    *http.Client
}

// NewTestServer builds the real container over a temporary sqlite database
// and artifact files written into a temp dir.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	modelPath, scalerPath := writeArtifacts(t, dir)

	cfg := &config.Config{
		App: config.AppConfig{
			Port:           "0",
			AllowedOrigins: []string{"http://localhost:5173"},
		},
		Database: config.DatabaseConfig{DSN: "sqlite://" + filepath.Join(dir, "gluco.db")},
		JWT:      config.JWTConfig{Secret: testSecret, ExpirationHours: 24},
		Model: config.ModelConfig{
			ModelPath:  modelPath,
			ScalerPath: scalerPath,
			Accuracy:   86.4,
		},
		Redis: config.RedisConfig{StatsTTL: time.Minute},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("invalid test config: %v", err)
	}

	c, err := app.NewContainer(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("failed to build container: %v", err)
	}

	ts := &TestServer{
		Server:    httptest.NewServer(c.Router),
		Container: c,
		Config:    cfg,
		Client:    &http.Client{Timeout: 10 * time.Second},
	}
	t.Cleanup(func() {
		ts.Server.Close()
		if err := c.Close(); err != nil {
			t.Errorf("close container: %v", err)
		}
	})
	return ts
}

// Do sends a JSON request and decodes the JSON response body
func (s *TestServer) Do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			data, err := json.Marshal(b)
			if err != nil {
				t.Fatalf("marshal request: %v", err)
			}
			reader = bytes.NewBuffer(data)
		}
	}

	req, err := http.NewRequest(method, s.Server.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && err != io.EOF {
		t.Fatalf("decode %s %s response: %v", method, path, err)
	}
	return resp.StatusCode, out
}

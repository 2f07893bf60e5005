package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/todo-api/internal/config"
	"github.com/yourusername/todo-api/internal/metrics"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Port:               "0",
		GinMode:            gin.TestMode,
		JWTSecret:          "test-secret",
		TokenTTLDays:       1,
		BcryptCost:         4,
		StorageDriver:      config.DriverSQLite,
		DatabasePath:       filepath.Join(t.TempDir(), "api.db"),
		CORSAllowedOrigins: "*",
		LogLevel:           "error",
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	st, err := openStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("openStore returned error: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	purger, shutdown, err := setupJobs(cfg, st, logger)
	if err != nil {
		t.Fatalf("setupJobs returned error: %v", err)
	}
	t.Cleanup(shutdown)

	router, err := newRouter(cfg, st, purger, metrics.New(), logger)
	if err != nil {
		t.Fatalf("newRouter returned error: %v", err)
	}
	return router
}

func call(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestPublicEndpoints(t *testing.T) {
	router := newTestRouter(t, testConfig(t))

	rec := call(t, router, http.MethodGet, "/", "", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "API is running..." {
		t.Fatalf("unexpected root response: %d %q", rec.Code, rec.Body.String())
	}

	rec = call(t, router, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if payload["status"] != "ok" {
		t.Fatalf("unexpected health payload: %v", payload)
	}
}

func TestRegisterCreateAndMetrics(t *testing.T) {
	router := newTestRouter(t, testConfig(t))

	rec := call(t, router, http.MethodPost, "/api/v1/users", "", gin.H{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "Sup3r$ecret",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: unexpected status %d body=%s", rec.Code, rec.Body.String())
	}
	var session struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &session); err != nil || session.Token == "" {
		t.Fatalf("missing token: %v body=%s", err, rec.Body.String())
	}

	rec = call(t, router, http.MethodPost, "/api/v1/todos", session.Token, gin.H{"title": "ship it"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create todo: unexpected status %d body=%s", rec.Code, rec.Body.String())
	}

	rec = call(t, router, http.MethodGet, "/api/v1/todos", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without token, got %d", rec.Code)
	}

	rec = call(t, router, http.MethodGet, "/metrics", "", nil)
	body := rec.Body.String()
	for _, want := range []string{
		`todo_auth_registrations_total{outcome="success"} 1`,
		`todo_auth_token_checks_total{result="missing"} 1`,
		`route="/api/v1/todos"`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	cfg := testConfig(t)
	cfg.CORSAllowedOrigins = "http://app.test"
	router := newTestRouter(t, cfg)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/todos", nil)
	req.Header.Set("Origin", "http://app.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://app.test" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestOpenRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.StorageDriver = config.DriverRedis
	cfg.RedisURL = "redis://" + mr.Addr()

	st, err := openStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("openStore returned error: %v", err)
	}
	defer st.Close()

	if _, err := st.ListTodos(context.Background(), "nobody"); err != nil {
		t.Fatalf("ListTodos returned error: %v", err)
	}
}

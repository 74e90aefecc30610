package routes

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"taskbridge-bot/api/middleware"
	"taskbridge-bot/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testSecret = "s3cret-token"

type recordingProcessor struct {
	calls int
}

func (r *recordingProcessor) HandleWebhook([]byte) error {
	r.calls++
	return nil
}

func createTestRouter(t *testing.T) (*gin.Engine, *recordingProcessor, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(zapcore.DebugLevel)
	log := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}
	processor := &recordingProcessor{}

	router := gin.New()
	SetupRoutes(router, log, processor, "Todoist", testSecret)
	return router, processor, logs
}

func TestSetupRoutes_Endpoints(t *testing.T) {
	router, _, _ := createTestRouter(t)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/v1/health", http.StatusOK},
		{http.MethodPost, "/api/v1/telegram/webhook", http.StatusUnauthorized},
		{http.MethodGet, "/nonexistent", http.StatusNotFound},
		{http.MethodPost, "/health", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+"_"+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestSetupRoutes_WebhookForwardsBody(t *testing.T) {
	router, processor, _ := createTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/telegram/webhook", bytes.NewBufferString(`{"update_id":1}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.TelegramSecretHeader, testSecret)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, processor.calls)
}

func TestSetupRoutes_WebhookRejectsForgedUpdates(t *testing.T) {
	forged := `{"update_id":1,"message":{"message_id":1,"date":0,"from":{"id":42},"chat":{"id":42,"type":"private"},"text":"Купить молоко"}}`

	tests := []struct {
		name   string
		secret string
		set    bool
	}{
		{name: "missing header"},
		{name: "wrong secret", secret: "guess", set: true},
		{name: "empty header", secret: "", set: true},
		{name: "secret prefix", secret: testSecret[:5], set: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, processor, logs := createTestRouter(t)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/telegram/webhook", bytes.NewBufferString(forged))
			req.Header.Set("Content-Type", "application/json")
			if tt.set {
				req.Header.Set(middleware.TelegramSecretHeader, tt.secret)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, 0, processor.calls)
			assert.Equal(t, 1, logs.FilterMessage("Rejected webhook request with invalid secret token").Len())
		})
	}
}

func TestSetupRoutes_EmptySecretRejectsEverything(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, _ := observer.New(zapcore.DebugLevel)
	log := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}
	processor := &recordingProcessor{}

	router := gin.New()
	SetupRoutes(router, log, processor, "Todoist", "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/telegram/webhook", bytes.NewBufferString(`{"update_id":1}`))
	req.Header.Set(middleware.TelegramSecretHeader, "")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, processor.calls)
}

func TestSetupRoutes_RequestID(t *testing.T) {
	router, _, logs := createTestRouter(t)

	t.Run("generated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(middleware.RequestIDHeader, "req-123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "req-123", w.Header().Get(middleware.RequestIDHeader))

		completed := logs.FilterMessage("Request completed").FilterField(zap.String("request_id", "req-123")).All()
		require.Len(t, completed, 1)
		assert.EqualValues(t, http.StatusOK, completed[0].ContextMap()["status_code"])
	})
}

func TestSetupRoutes_RecoversFromPanics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, _ := observer.New(zapcore.DebugLevel)
	log := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}

	router := gin.New()
	SetupRoutes(router, log, panickingProcessor{}, "Todoist", testSecret)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/telegram/webhook", bytes.NewBufferString(`{"update_id":1}`))
	req.Header.Set(middleware.TelegramSecretHeader, testSecret)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

type panickingProcessor struct{}

func (panickingProcessor) HandleWebhook([]byte) error {
	panic("boom")
}

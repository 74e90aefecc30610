package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"taskbridge-bot/internal/config"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestCompleter(t *testing.T, url string) *YandexCompleter {
	t.Helper()
	c := NewYandexCompleter(config.LLMConfig{
		Backend:     config.LLMBackendYandex,
		APIEndpoint: url,
		APIKey:      "secret",
		FolderID:    "b1g",
		Model:       "yandexgpt/latest",
		Temperature: 0.3,
		MaxTokens:   300,
		Timeout:     5,
		MaxRetries:  2,
	}, zaptest.NewLogger(t))
	c.newBackoff = func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2)
	}
	return c
}

func TestYandexCompleter_Complete(t *testing.T) {
	var got YandexRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Api-Key secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":{"alternatives":[{"message":{"role":"assistant","text":"{\"content\":\"Buy milk\"}"},"status":"ALTERNATIVE_STATUS_FINAL"}],"modelVersion":"23.10.2024"}}`))
	}))
	defer server.Close()

	c := newTestCompleter(t, server.URL)
	answer, err := c.Complete(context.Background(), "prompt text")

	require.NoError(t, err)
	assert.Equal(t, `{"content":"Buy milk"}`, answer)
	assert.Equal(t, "gpt://b1g/yandexgpt/latest", got.ModelURI)
	assert.Equal(t, "300", got.CompletionOptions.MaxTokens)
	assert.False(t, got.CompletionOptions.Stream)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "prompt text", got.Messages[0].Text)
}

func TestYandexCompleter_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"result":{"alternatives":[{"message":{"role":"assistant","text":"ok"}}]}}`))
	}))
	defer server.Close()

	answer, err := newTestCompleter(t, server.URL).Complete(context.Background(), "p")

	require.NoError(t, err)
	assert.Equal(t, "ok", answer)
	assert.Equal(t, int32(3), calls.Load())
}

func TestYandexCompleter_DoesNotRetryAuthErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"grpcCode":16,"httpCode":401,"message":"Unknown api key","httpStatus":"Unauthorized"}}`))
	}))
	defer server.Close()

	_, err := newTestCompleter(t, server.URL).Complete(context.Background(), "p")

	require.Error(t, err)
	var apiErr APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, ErrorCodeInvalidAPIKey, apiErr.Code())
	assert.Equal(t, "Unknown api key", apiErr.Details)
	assert.Equal(t, int32(1), calls.Load())
}

func TestYandexCompleter_EmptyAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":{"alternatives":[]}}`))
	}))
	defer server.Close()

	_, err := newTestCompleter(t, server.URL).Complete(context.Background(), "p")

	var apiErr APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, ErrorCodeEmptyAnswer, apiErr.Code())
	assert.False(t, IsRetryable(err))
}

func TestYandexCompleter_MissingKey(t *testing.T) {
	c := NewYandexCompleter(config.LLMConfig{}, zaptest.NewLogger(t))

	_, err := c.Complete(context.Background(), "p")

	var cfgErr ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "api_key", cfgErr.Field)
}

func TestHandleHTTPError(t *testing.T) {
	tests := []struct {
		status    int
		header    string
		wantCode  string
		retryable bool
	}{
		{http.StatusForbidden, "", ErrorCodeInsufficientQuota, false},
		{http.StatusNotFound, "", ErrorCodeModelNotFound, false},
		{http.StatusRequestEntityTooLarge, "", ErrorCodeRequestTooLarge, false},
		{http.StatusTooManyRequests, "7", "RATE_LIMIT_EXCEEDED", true},
		{http.StatusBadGateway, "", ErrorCodeServiceUnavailable, true},
		{http.StatusTeapot, "", ErrorCodeUnknown, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			resp := &http.Response{StatusCode: tt.status, Header: http.Header{}}
			if tt.header != "" {
				resp.Header.Set("Retry-After", tt.header)
			}
			err := handleHTTPError(resp, []byte("boom"))

			var llmErr LLMError
			require.True(t, errors.As(err, &llmErr))
			assert.Equal(t, tt.wantCode, llmErr.Code())
			assert.Equal(t, tt.retryable, IsRetryable(err))
		})
	}

	rl := handleHTTPError(&http.Response{StatusCode: http.StatusTooManyRequests, Header: http.Header{"Retry-After": {"7"}}}, nil)
	assert.Equal(t, 7, rl.(RateLimitError).RetryAfter)
}

func TestNewCompleter_UnknownBackend(t *testing.T) {
	_, err := NewCompleter(context.Background(), config.LLMConfig{Backend: "openai"}, zaptest.NewLogger(t))
	assert.Error(t, err)

	c, err := NewCompleter(context.Background(), config.LLMConfig{Backend: config.LLMBackendYandex, Model: "m"}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "Yandex", c.GetModelInfo().Provider)
}

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"taskbridge-bot/internal/config"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// YandexCompleter implements Completer over the YandexGPT foundation models
// completion API.
type YandexCompleter struct {
	config     config.LLMConfig
	logger     *zap.Logger
	httpClient *http.Client
	newBackoff func() backoff.BackOff
}

// YandexRequest represents the request structure of the completion API
type YandexRequest struct {
	ModelURI          string                  `json:"modelUri"`
	CompletionOptions YandexCompletionOptions `json:"completionOptions"`
	Messages          []YandexMessage         `json:"messages"`
}

// YandexCompletionOptions holds the generation parameters
type YandexCompletionOptions struct {
	Stream      bool    `json:"stream"`
	Temperature float64 `json:"temperature"`
	MaxTokens   string  `json:"maxTokens"`
}

// YandexMessage is one chat message
type YandexMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// YandexResponse represents the response of the completion API
type YandexResponse struct {
	Result *struct {
		Alternatives []struct {
			Message YandexMessage `json:"message"`
			Status  string        `json:"status"`
		} `json:"alternatives"`
		ModelVersion string `json:"modelVersion"`
	} `json:"result,omitempty"`
	Error *YandexError `json:"error,omitempty"`
}

// YandexError represents an error body from the API
type YandexError struct {
	GRPCCode   int    `json:"grpcCode"`
	HTTPCode   int    `json:"httpCode"`
	Message    string `json:"message"`
	HTTPStatus string `json:"httpStatus"`
}

// NewYandexCompleter creates a completer with a bounded timeout and an
// exponential retry budget of cfg.MaxRetries.
func NewYandexCompleter(cfg config.LLMConfig, logger *zap.Logger) *YandexCompleter {
	maxRetries := uint64(cfg.MaxRetries)
	return &YandexCompleter{
		config: cfg,
		logger: logger,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		newBackoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 1 * time.Second
			b.MaxInterval = 10 * time.Second
			b.MaxElapsedTime = time.Minute
			b.Multiplier = 2.0
			return backoff.WithMaxRetries(b, maxRetries)
		},
	}
}

// Complete implements the Completer interface
func (p *YandexCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if p.config.APIKey == "" {
		return "", newConfigurationError(BackendYandexGPT, "api_key", "API key is required")
	}

	req := YandexRequest{
		ModelURI: p.modelURI(),
		CompletionOptions: YandexCompletionOptions{
			Stream:      false,
			Temperature: p.config.Temperature,
			MaxTokens:   strconv.Itoa(p.config.MaxTokens),
		},
		Messages: []YandexMessage{{Role: "user", Text: prompt}},
	}

	var answer string
	operation := func() error {
		var err error
		answer, err = p.callAPI(ctx, req)
		if err != nil {
			if IsRetryable(err) {
				p.logger.Warn("Retryable completion error, will retry", zap.Error(err))
				return err
			}
			return backoff.Permanent(err)
		}
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(p.newBackoff(), ctx)); err != nil {
		p.logger.Error("Completion failed after retries", zap.Error(err))
		return "", err
	}

	return answer, nil
}

// GetModelInfo implements the Completer interface
func (p *YandexCompleter) GetModelInfo() ModelInfo {
	return ModelInfo{
		Name:      p.config.Model,
		Provider:  "Yandex",
		MaxTokens: p.config.MaxTokens,
	}
}

func (p *YandexCompleter) modelURI() string {
	if strings.HasPrefix(p.config.Model, "gpt://") {
		return p.config.Model
	}
	return fmt.Sprintf("gpt://%s/%s", p.config.FolderID, p.config.Model)
}

func (p *YandexCompleter) callAPI(ctx context.Context, req YandexRequest) (string, error) {
	requestBody, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.APIEndpoint, bytes.NewReader(requestBody))
	if err != nil {
		return "", newNetworkError(BackendYandexGPT, "create_request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Api-Key "+p.config.APIKey)
	if p.config.FolderID != "" {
		httpReq.Header.Set("x-folder-id", p.config.FolderID)
	}

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", newNetworkError(BackendYandexGPT, "http_request", err)
	}
	defer httpResp.Body.Close()

	responseBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", newNetworkError(BackendYandexGPT, "read_response", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return "", handleHTTPError(httpResp, responseBody)
	}

	return parseYandexResponse(responseBody)
}

func parseYandexResponse(body []byte) (string, error) {
	var resp YandexResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", newYandexAPIError(http.StatusOK, ErrorCodeMalformedAnswer, "Failed to parse API response", err.Error())
	}
	if resp.Error != nil {
		return "", newYandexBodyError(resp.Error)
	}
	if resp.Result == nil || len(resp.Result.Alternatives) == 0 {
		return "", newYandexAPIError(http.StatusOK, ErrorCodeEmptyAnswer, "No alternatives in API response", string(body))
	}
	return resp.Result.Alternatives[0].Message.Text, nil
}

// handleHTTPError creates appropriate error based on HTTP status code
func handleHTTPError(resp *http.Response, body []byte) error {
	errorMsg := string(body)
	var parsed YandexResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil {
		errorMsg = parsed.Error.Message
	}

	switch status := resp.StatusCode; status {
	case http.StatusUnauthorized:
		return newYandexAPIError(status, ErrorCodeInvalidAPIKey, "Invalid API key", errorMsg)
	case http.StatusForbidden:
		return newYandexAPIError(status, ErrorCodeInsufficientQuota, "Insufficient quota or permissions", errorMsg)
	case http.StatusNotFound:
		return newYandexAPIError(status, ErrorCodeModelNotFound, "Model not found", errorMsg)
	case http.StatusRequestEntityTooLarge:
		return newYandexAPIError(status, ErrorCodeRequestTooLarge, "Request too large", errorMsg)
	case http.StatusTooManyRequests:
		return RateLimitError{Backend: BackendYandexGPT, RetryAfter: retryAfterSeconds(resp.Header.Get("Retry-After")), ErrorMsg: errorMsg}
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return newYandexAPIError(status, ErrorCodeServiceUnavailable, "Service unavailable", errorMsg)
	default:
		return newYandexAPIError(status, ErrorCodeUnknown, errorMsg, string(body))
	}
}

func retryAfterSeconds(header string) int {
	if secs, err := strconv.Atoi(strings.TrimSpace(header)); err == nil && secs >= 0 {
		return secs
	}
	return defaultRetryAfter
}

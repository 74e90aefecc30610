package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"taskbridge-bot/internal/config"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiCompleter implements Completer over the Google Gen AI SDK.
type GeminiCompleter struct {
	client *genai.Client
	config config.LLMConfig
	logger *zap.Logger
}

// NewGeminiCompleter creates a Gemini API client. cfg.Model defaults to
// gemini-2.0-flash when it still carries the YandexGPT default.
func NewGeminiCompleter(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (*GeminiCompleter, error) {
	if cfg.APIKey == "" {
		return nil, newConfigurationError(BackendGemini, "api_key", "API key is required")
	}
	if cfg.Model == "" || cfg.Model == "yandexgpt/latest" {
		cfg.Model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiCompleter{client: client, config: cfg, logger: logger}, nil
}

// Complete implements the Completer interface
func (g *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(g.config.Timeout)*time.Second)
		defer cancel()
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.config.Model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr(float32(g.config.Temperature)),
			MaxOutputTokens: int32(g.config.MaxTokens),
		},
	)
	if err != nil {
		g.logger.Error("Gemini completion failed", zap.Error(err))
		return "", newGeminiError(err)
	}

	text := resp.Text()
	if text == "" {
		return "", APIError{Backend: BackendGemini, HTTPStatus: http.StatusOK, ErrorCode: ErrorCodeEmptyAnswer, ErrorMsg: "Gemini returned no text"}
	}
	return text, nil
}

// GetModelInfo implements the Completer interface
func (g *GeminiCompleter) GetModelInfo() ModelInfo {
	return ModelInfo{
		Name:      g.config.Model,
		Provider:  "Google",
		MaxTokens: g.config.MaxTokens,
	}
}

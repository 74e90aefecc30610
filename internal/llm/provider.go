package llm

import (
	"context"
	"fmt"

	"taskbridge-bot/internal/config"

	"go.uber.org/zap"
)

// Completer sends a single prompt to a language model and returns the raw
// text of its first answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)

	// GetModelInfo returns metadata about the model being used
	GetModelInfo() ModelInfo
}

// ModelInfo contains metadata about the LLM model
type ModelInfo struct {
	Name      string `json:"name"`
	Provider  string `json:"provider"`
	MaxTokens int    `json:"max_tokens"`
}

// NewCompleter builds the Completer selected by cfg.Backend.
func NewCompleter(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (Completer, error) {
	switch cfg.Backend {
	case config.LLMBackendYandex, "":
		return NewYandexCompleter(cfg, logger), nil
	case config.LLMBackendGemini:
		return NewGeminiCompleter(ctx, cfg, logger)
	default:
		return nil, newConfigurationError("", "backend", fmt.Sprintf("unknown backend %q", cfg.Backend))
	}
}

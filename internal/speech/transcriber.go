// Package speech converts voice messages to text with an ordered list of
// recognition models.
package speech

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Recognizer runs one recognition model over an OGG/Opus audio stream.
type Recognizer interface {
	Recognize(ctx context.Context, model string, audio io.Reader) (string, error)
}

// Transcriber tries each model in order and returns the first non-empty
// transcript.
type Transcriber struct {
	recognizer Recognizer
	models     []string
	logger     *zap.Logger
	tempDir    string
}

func NewTranscriber(recognizer Recognizer, models []string, logger *zap.Logger) *Transcriber {
	return &Transcriber{
		recognizer: recognizer,
		models:     models,
		logger:     logger,
	}
}

// Transcribe spools audio to a temporary file that is removed on every
// return path. A model error is logged and the next model is tried; when no
// model yields text a *TranscriptionError is returned.
func (t *Transcriber) Transcribe(ctx context.Context, audio io.Reader) (string, error) {
	f, err := os.CreateTemp(t.tempDir, "voice-*.ogg")
	if err != nil {
		return "", fmt.Errorf("failed to create temp audio file: %w", err)
	}
	defer func() {
		f.Close()
		if err := os.Remove(f.Name()); err != nil && !os.IsNotExist(err) {
			t.logger.Warn("Failed to remove temp audio file", zap.String("path", f.Name()), zap.Error(err))
		}
	}()

	if _, err := io.Copy(f, audio); err != nil {
		return "", fmt.Errorf("failed to store audio: %w", err)
	}

	terr := &TranscriptionError{}
	for _, model := range t.models {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("transcription cancelled: %w", err)
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return "", fmt.Errorf("failed to rewind audio: %w", err)
		}

		text, err := t.recognizer.Recognize(ctx, model, f)
		if err != nil {
			t.logger.Warn("Recognition model failed", zap.String("model", model), zap.Error(err))
			terr.Attempts = append(terr.Attempts, Attempt{Model: model, Err: err})
			continue
		}

		text = strings.TrimSpace(text)
		if text == "" {
			t.logger.Debug("Recognition model returned empty text", zap.String("model", model))
			terr.Attempts = append(terr.Attempts, Attempt{Model: model})
			continue
		}

		t.logger.Info("Speech recognized", zap.String("model", model), zap.Int("length", len(text)))
		return text, nil
	}

	return "", terr
}

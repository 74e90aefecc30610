package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"taskbridge-bot/internal/config"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// SpeechKitRecognizer calls the Yandex SpeechKit v1 synchronous
// recognition API.
type SpeechKitRecognizer struct {
	config     config.SpeechKitConfig
	logger     *zap.Logger
	httpClient *http.Client
	newBackoff func() backoff.BackOff
}

type recognizeResponse struct {
	Result       string `json:"result"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

func NewSpeechKitRecognizer(cfg config.SpeechKitConfig, logger *zap.Logger) *SpeechKitRecognizer {
	maxRetries := uint64(cfg.MaxRetries)
	return &SpeechKitRecognizer{
		config: cfg,
		logger: logger,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		newBackoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			b.MaxElapsedTime = 30 * time.Second
			return backoff.WithMaxRetries(b, maxRetries)
		},
	}
}

// Recognize implements Recognizer. The audio is buffered so transient
// failures can be retried with the same payload.
func (r *SpeechKitRecognizer) Recognize(ctx context.Context, model string, audio io.Reader) (string, error) {
	payload, err := io.ReadAll(audio)
	if err != nil {
		return "", fmt.Errorf("failed to read audio: %w", err)
	}

	query := url.Values{}
	query.Set("topic", model)
	query.Set("lang", r.config.Language)
	query.Set("profanityFilter", "false")
	query.Set("format", "oggopus")
	endpoint := r.config.APIEndpoint + "?" + query.Encode()

	var text string
	operation := func() error {
		var err error
		text, err = r.call(ctx, endpoint, payload)
		if err != nil {
			var rerr *RecognitionError
			if errors.As(err, &rerr) && !rerr.Temporary() {
				return backoff.Permanent(err)
			}
			r.logger.Debug("Retrying speech recognition", zap.String("model", model), zap.Error(err))
			return err
		}
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(r.newBackoff(), ctx)); err != nil {
		return "", err
	}
	return text, nil
}

func (r *SpeechKitRecognizer) call(ctx context.Context, endpoint string, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Authorization", "Api-Key "+r.config.APIKey)
	req.Header.Set("Content-Type", "audio/ogg")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("speech request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read speech response: %w", err)
	}

	var parsed recognizeResponse
	decodeErr := json.Unmarshal(body, &parsed)

	if resp.StatusCode == http.StatusOK && decodeErr != nil {
		return "", &RecognitionError{
			StatusCode: resp.StatusCode,
			ErrorCode:  ErrorCodeMalformedResponse,
			ErrorMsg:   fmt.Sprintf("undecodable response body: %v", decodeErr),
		}
	}

	if resp.StatusCode != http.StatusOK || parsed.ErrorCode != "" {
		msg := parsed.ErrorMessage
		if msg == "" {
			msg = string(body)
		}
		return "", &RecognitionError{
			StatusCode: resp.StatusCode,
			ErrorCode:  parsed.ErrorCode,
			ErrorMsg:   msg,
		}
	}
	return parsed.Result, nil
}

package yougile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"taskbridge-bot/internal/config"
	"taskbridge-bot/internal/tasks"

	"go.uber.org/zap"
)

const providerName = "Yougile"

// Client creates tasks through the Yougile REST API v2. Yougile boards are
// flat, so the client does not resolve project names.
type Client struct {
	config     config.YougileConfig
	logger     *zap.Logger
	httpClient *http.Client
}

// CreateTaskRequest is the JSON body of POST /tasks.
type CreateTaskRequest struct {
	Title       string `json:"title"`
	ColumnID    string `json:"columnId"`
	Description string `json:"description,omitempty"`
}

// createTaskResponse covers both the success body and the error body, which
// share the endpoint.
type createTaskResponse struct {
	ID         string `json:"id"`
	StatusCode int    `json:"statusCode"`
	Message    any    `json:"message"`
	Error      string `json:"error"`
}

func NewClient(cfg config.YougileConfig, logger *zap.Logger) *Client {
	return &Client{
		config: cfg,
		logger: logger.With(zap.String("provider", providerName)),
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

func (c *Client) Name() string {
	return providerName
}

func (c *Client) Dialect() tasks.Dialect {
	return tasks.DialectYougile
}

// CreateTask posts the task into the configured column. Success means the
// response carries a non-empty id; Yougile may answer 200 with an error body.
func (c *Client) CreateTask(ctx context.Context, task tasks.ResolvedTask) (*tasks.CreatedTask, error) {
	req := CreateTaskRequest{
		Title:       task.Content,
		ColumnID:    c.config.ColumnID,
		Description: task.Description,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task: %w", err)
	}

	endpoint := strings.TrimRight(c.config.BaseURL, "/") + "/tasks"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.config.Token)
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, tasks.NewTransportError(providerName, "create task", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, tasks.NewTransportError(providerName, "create task", err)
	}

	var resp createTaskResponse
	decodeErr := json.Unmarshal(respBody, &resp)

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		pe := tasks.NewStatusError(providerName, "create task", httpResp.StatusCode, respBody)
		if decodeErr == nil {
			if msg := resp.errorMessage(); msg != "" {
				pe.ErrorMsg = msg
			}
		}
		return nil, pe
	}

	if decodeErr != nil || resp.ID == "" {
		msg := "response has no task id"
		if decodeErr == nil && resp.errorMessage() != "" {
			msg = resp.errorMessage()
		}
		return nil, &tasks.ProviderError{
			Provider:   providerName,
			Operation:  "create task",
			StatusCode: httpResp.StatusCode,
			ErrorMsg:   msg,
			Cause:      decodeErr,
		}
	}

	c.logger.Info("Task created",
		zap.String("task_id", resp.ID),
		zap.String("column_id", req.ColumnID))

	return &tasks.CreatedTask{ID: resp.ID, Content: req.Title}, nil
}

func (r createTaskResponse) errorMessage() string {
	switch m := r.Message.(type) {
	case string:
		return m
	case []any:
		parts := make([]string, 0, len(m))
		for _, p := range m {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, "; ")
	}
	return r.Error
}

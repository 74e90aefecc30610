package todoist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"taskbridge-bot/internal/config"
	"taskbridge-bot/internal/tasks"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	providerName = "Todoist"
	pageLimit    = "200"
)

// Client talks to the Todoist REST API v1. It implements tasks.Provider and
// tasks.ProjectDirectory.
type Client struct {
	config     config.TodoistConfig
	logger     *zap.Logger
	httpClient *http.Client
	newBackoff func() backoff.BackOff
}

// CreateTaskRequest is the JSON body of POST /tasks.
type CreateTaskRequest struct {
	Content     string   `json:"content"`
	Description string   `json:"description,omitempty"`
	ProjectID   string   `json:"project_id,omitempty"`
	SectionID   string   `json:"section_id,omitempty"`
	ParentID    string   `json:"parent_id,omitempty"`
	Order       int      `json:"order,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	Priority    int      `json:"priority,omitempty"`
	DueString   string   `json:"due_string,omitempty"`
	DueDate     string   `json:"due_date,omitempty"`
	DueDatetime string   `json:"due_datetime,omitempty"`
	DueLang     string   `json:"due_lang,omitempty"`
}

type taskResponse struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

type page[T any] struct {
	Results    []T     `json:"results"`
	NextCursor *string `json:"next_cursor"`
}

// NewClient creates a Todoist client with a bounded timeout on every call.
func NewClient(cfg config.TodoistConfig, logger *zap.Logger) *Client {
	maxRetries := uint64(cfg.MaxRetries)
	return &Client{
		config: cfg,
		logger: logger.With(zap.String("provider", providerName)),
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

func (c *Client) Name() string {
	return providerName
}

func (c *Client) Dialect() tasks.Dialect {
	return tasks.DialectTodoist
}

// CreateTask creates a task. When the first attempt fails and a due string was
// sent, it retries exactly once without the due string and flags the result.
func (c *Client) CreateTask(ctx context.Context, task tasks.ResolvedTask) (*tasks.CreatedTask, error) {
	req := c.BuildRequest(task)

	created, err := c.postTask(ctx, req)
	if err == nil {
		return created, nil
	}
	if req.DueString == "" {
		return nil, err
	}

	c.logger.Warn("Task rejected, retrying without due string",
		zap.String("due_string", req.DueString),
		zap.Error(err))

	req.DueString = ""
	req.DueLang = ""
	created, retryErr := c.postTask(ctx, req)
	if retryErr != nil {
		return nil, fmt.Errorf("retry without due string failed: %w (original error: %w)", retryErr, err)
	}

	created.DueDropped = true
	return created, nil
}

// BuildRequest maps a resolved task onto the wire body, applying configured
// defaults. A section is only ever sent together with a project; the default
// section only applies to the default project.
func (c *Client) BuildRequest(task tasks.ResolvedTask) CreateTaskRequest {
	req := CreateTaskRequest{
		Content:     task.Content,
		Description: task.Description,
		ParentID:    task.ParentID,
		Order:       task.Order,
		Labels:      task.Labels,
		DueString:   task.DueString,
		DueDate:     task.DueDate,
		DueDatetime: task.DueDatetime,
	}
	if task.Priority.IsValid() {
		req.Priority = int(task.Priority)
	}
	if req.DueString != "" {
		req.DueLang = c.config.DueLang
	}

	switch {
	case task.ProjectID != "":
		req.ProjectID = task.ProjectID
		req.SectionID = task.SectionID
		if req.SectionID == "" && task.ProjectID == c.config.DefaultProjectID {
			req.SectionID = c.config.DefaultSectionID
		}
	case c.config.DefaultProjectID != "":
		req.ProjectID = c.config.DefaultProjectID
		req.SectionID = c.config.DefaultSectionID
	}

	return req
}

func (c *Client) postTask(ctx context.Context, req CreateTaskRequest) (*tasks.CreatedTask, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task: %w", err)
	}

	respBody, err := c.do(ctx, http.MethodPost, "/tasks", nil, body, "create task")
	if err != nil {
		return nil, err
	}

	// A 2xx means the task exists; an unreadable body still counts as created.
	var resp taskResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		c.logger.Warn("Task created but response could not be decoded",
			zap.Error(err),
			zap.Int("body_size", len(respBody)))
		resp = taskResponse{}
	}
	if resp.Content == "" {
		resp.Content = req.Content
	}

	c.logger.Info("Task created",
		zap.String("task_id", resp.ID),
		zap.String("project_id", req.ProjectID),
		zap.Bool("with_due", req.DueString != ""))

	return &tasks.CreatedTask{ID: resp.ID, Content: resp.Content, URL: resp.URL}, nil
}

// Projects lists every project of the account, following pagination.
func (c *Client) Projects(ctx context.Context) ([]tasks.Project, error) {
	return listAll[tasks.Project](ctx, c, "/projects", url.Values{}, "list projects")
}

// Sections lists every section of a project, following pagination.
func (c *Client) Sections(ctx context.Context, projectID string) ([]tasks.Section, error) {
	q := url.Values{}
	q.Set("project_id", projectID)
	return listAll[tasks.Section](ctx, c, "/sections", q, "list sections")
}

func listAll[T any](ctx context.Context, c *Client, path string, query url.Values, operation string) ([]T, error) {
	var all []T
	query.Set("limit", pageLimit)
	for {
		var p page[T]
		err := backoff.Retry(func() error {
			body, err := c.do(ctx, http.MethodGet, path, query, nil, operation)
			if err != nil {
				var pe *tasks.ProviderError
				if errors.As(err, &pe) && pe.Temporary() {
					c.logger.Warn("Retryable error listing", zap.String("path", path), zap.Error(err))
					return err
				}
				return backoff.Permanent(err)
			}
			if err := json.Unmarshal(body, &p); err != nil {
				return backoff.Permanent(&tasks.ProviderError{
					Provider:  providerName,
					Operation: operation,
					ErrorMsg:  "malformed response",
					Cause:     err,
				})
			}
			return nil
		}, backoff.WithContext(c.newBackoff(), ctx))
		if err != nil {
			return nil, err
		}

		all = append(all, p.Results...)
		if p.NextCursor == nil || *p.NextCursor == "" {
			return all, nil
		}
		query.Set("cursor", *p.NextCursor)
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, operation string) ([]byte, error) {
	endpoint := strings.TrimRight(c.config.BaseURL, "/") + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.config.Token)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, tasks.NewTransportError(providerName, operation, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, tasks.NewTransportError(providerName, operation, err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, tasks.NewStatusError(providerName, operation, httpResp.StatusCode, respBody)
	}
	return respBody, nil
}

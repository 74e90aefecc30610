package todoist

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"taskbridge-bot/internal/common"
	"taskbridge-bot/internal/config"
	"taskbridge-bot/internal/tasks"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   map[string]any
}

type fakeTodoist struct {
	t        *testing.T
	mu       sync.Mutex
	requests []recordedRequest
	handler  func(w http.ResponseWriter, r *http.Request, n int)
}

func (f *fakeTodoist) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	rec := recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Auth:   r.Header.Get("Authorization"),
	}
	if b, _ := io.ReadAll(r.Body); len(b) > 0 {
		assert.NoError(f.t, json.Unmarshal(b, &rec.Body))
	}
	f.requests = append(f.requests, rec)
	n := len(f.requests)
	f.mu.Unlock()

	f.handler(w, r, n)
}

func newTestClient(t *testing.T, cfg config.TodoistConfig, handler func(w http.ResponseWriter, r *http.Request, n int)) (*Client, *fakeTodoist) {
	t.Helper()
	fake := &fakeTodoist{t: t, handler: handler}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg.BaseURL = srv.URL
	cfg.Token = "secret"
	if cfg.Timeout == 0 {
		cfg.Timeout = 5
	}
	c := NewClient(cfg, zaptest.NewLogger(t))
	c.newBackoff = func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2)
	}
	return c, fake
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestBuildRequest(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.TodoistConfig
		task tasks.ResolvedTask
		want CreateTaskRequest
	}{
		{
			name: "no project anywhere",
			task: tasks.ResolvedTask{TaskIntent: tasks.TaskIntent{Content: "Позвонить маме", DueString: "завтра", Priority: common.PriorityUrgent}},
			want: CreateTaskRequest{Content: "Позвонить маме", DueString: "завтра", Priority: 4},
		},
		{
			name: "default project and section applied",
			cfg:  config.TodoistConfig{DefaultProjectID: "p-def", DefaultSectionID: "s-def"},
			task: tasks.ResolvedTask{TaskIntent: tasks.TaskIntent{Content: "Task"}},
			want: CreateTaskRequest{Content: "Task", ProjectID: "p-def", SectionID: "s-def"},
		},
		{
			name: "default section without default project is ignored",
			cfg:  config.TodoistConfig{DefaultSectionID: "s-def"},
			task: tasks.ResolvedTask{TaskIntent: tasks.TaskIntent{Content: "Task"}},
			want: CreateTaskRequest{Content: "Task"},
		},
		{
			name: "resolved project overrides defaults and skips default section",
			cfg:  config.TodoistConfig{DefaultProjectID: "p-def", DefaultSectionID: "s-def"},
			task: tasks.ResolvedTask{TaskIntent: tasks.TaskIntent{Content: "Task"}, ProjectID: "p-1"},
			want: CreateTaskRequest{Content: "Task", ProjectID: "p-1"},
		},
		{
			name: "resolved project and section",
			cfg:  config.TodoistConfig{DefaultProjectID: "p-def", DefaultSectionID: "s-def"},
			task: tasks.ResolvedTask{TaskIntent: tasks.TaskIntent{Content: "Task"}, ProjectID: "p-1", SectionID: "s-1"},
			want: CreateTaskRequest{Content: "Task", ProjectID: "p-1", SectionID: "s-1"},
		},
		{
			name: "resolved default project keeps default section",
			cfg:  config.TodoistConfig{DefaultProjectID: "p-def", DefaultSectionID: "s-def"},
			task: tasks.ResolvedTask{TaskIntent: tasks.TaskIntent{Content: "Task"}, ProjectID: "p-def"},
			want: CreateTaskRequest{Content: "Task", ProjectID: "p-def", SectionID: "s-def"},
		},
		{
			name: "due lang only with due string",
			cfg:  config.TodoistConfig{DueLang: "ru"},
			task: tasks.ResolvedTask{TaskIntent: tasks.TaskIntent{Content: "Task", DueDate: "2026-10-20", Labels: []string{"home"}, Priority: common.Priority(9)}},
			want: CreateTaskRequest{Content: "Task", DueDate: "2026-10-20", Labels: []string{"home"}},
		},
		{
			name: "all optional fields",
			cfg:  config.TodoistConfig{DueLang: "ru"},
			task: tasks.ResolvedTask{TaskIntent: tasks.TaskIntent{
				Content: "Task", Description: "raw", DueString: "в пятницу", DueDatetime: "2026-10-20T10:00:00Z",
				Priority: common.PriorityHigh, ParentID: "t-1", Order: 3,
			}},
			want: CreateTaskRequest{
				Content: "Task", Description: "raw", DueString: "в пятницу", DueDatetime: "2026-10-20T10:00:00Z",
				DueLang: "ru", Priority: 3, ParentID: "t-1", Order: 3,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(tt.cfg, zaptest.NewLogger(t))
			if diff := cmp.Diff(tt.want, c.BuildRequest(tt.task)); diff != "" {
				t.Errorf("BuildRequest() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCreateTask_Success(t *testing.T) {
	c, fake := newTestClient(t, config.TodoistConfig{}, func(w http.ResponseWriter, r *http.Request, n int) {
		writeJSON(w, http.StatusOK, map[string]any{"id": "t-100", "content": "Позвонить маме"})
	})

	created, err := c.CreateTask(context.Background(), tasks.ResolvedTask{TaskIntent: tasks.TaskIntent{
		Content:     "Позвонить маме",
		Description: "Завтра позвонить маме, важно",
		DueString:   "завтра",
		Priority:    common.PriorityUrgent,
	}})
	require.NoError(t, err)

	assert.Equal(t, "t-100", created.ID)
	assert.Equal(t, "Позвонить маме", created.Content)
	assert.False(t, created.DueDropped)

	require.Len(t, fake.requests, 1)
	req := fake.requests[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/tasks", req.Path)
	assert.Equal(t, "Bearer secret", req.Auth)
	assert.Equal(t, map[string]any{
		"content":     "Позвонить маме",
		"description": "Завтра позвонить маме, важно",
		"due_string":  "завтра",
		"priority":    float64(4),
	}, req.Body)
}

func TestCreateTask_RetriesWithoutDueString(t *testing.T) {
	c, fake := newTestClient(t, config.TodoistConfig{DueLang: "ru"}, func(w http.ResponseWriter, r *http.Request, n int) {
		if n == 1 {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Date is invalid"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": "t-2", "content": "Task"})
	})

	created, err := c.CreateTask(context.Background(), tasks.ResolvedTask{TaskIntent: tasks.TaskIntent{
		Content:   "Task",
		DueString: "послепослезавтра",
	}})
	require.NoError(t, err)
	assert.True(t, created.DueDropped)
	assert.Equal(t, "t-2", created.ID)

	require.Len(t, fake.requests, 2)
	assert.Equal(t, "послепослезавтра", fake.requests[0].Body["due_string"])
	assert.Equal(t, "ru", fake.requests[0].Body["due_lang"])
	assert.NotContains(t, fake.requests[1].Body, "due_string")
	assert.NotContains(t, fake.requests[1].Body, "due_lang")
	assert.Equal(t, "Task", fake.requests[1].Body["content"])
}

func TestCreateTask_UndecodableSuccessIsNotRetried(t *testing.T) {
	c, fake := newTestClient(t, config.TodoistConfig{}, func(w http.ResponseWriter, r *http.Request, n int) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<html>ok</html>")
	})

	created, err := c.CreateTask(context.Background(), tasks.ResolvedTask{TaskIntent: tasks.TaskIntent{
		Content:   "Позвонить маме",
		DueString: "завтра",
	}})
	require.NoError(t, err)
	assert.Empty(t, created.ID)
	assert.Equal(t, "Позвонить маме", created.Content)
	assert.False(t, created.DueDropped)
	assert.Len(t, fake.requests, 1)
}

func TestCreateTask_BothAttemptsFail(t *testing.T) {
	c, fake := newTestClient(t, config.TodoistConfig{}, func(w http.ResponseWriter, r *http.Request, n int) {
		if n == 1 {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Date is invalid"})
			return
		}
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "maintenance"})
	})

	_, err := c.CreateTask(context.Background(), tasks.ResolvedTask{TaskIntent: tasks.TaskIntent{
		Content:   "Task",
		DueString: "завтра",
	}})
	require.Error(t, err)
	assert.Len(t, fake.requests, 2)

	assert.Contains(t, err.Error(), "retry without due string failed")
	assert.Contains(t, err.Error(), "original error")
	assert.Contains(t, err.Error(), "Date is invalid")
	assert.Contains(t, err.Error(), "maintenance")

	var pe *tasks.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, http.StatusServiceUnavailable, pe.StatusCode)
}

func TestCreateTask_NoRetryWithoutDueString(t *testing.T) {
	c, fake := newTestClient(t, config.TodoistConfig{}, func(w http.ResponseWriter, r *http.Request, n int) {
		writeJSON(w, http.StatusForbidden, map[string]any{"error": "forbidden"})
	})

	_, err := c.CreateTask(context.Background(), tasks.ResolvedTask{TaskIntent: tasks.TaskIntent{Content: "Task"}})
	require.Error(t, err)
	assert.Len(t, fake.requests, 1)

	var pe *tasks.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, http.StatusForbidden, pe.StatusCode)
	assert.False(t, pe.Temporary())
}

func TestProjects_FollowsCursor(t *testing.T) {
	c, fake := newTestClient(t, config.TodoistConfig{}, func(w http.ResponseWriter, r *http.Request, n int) {
		assert.Equal(t, "/projects", r.URL.Path)
		if r.URL.Query().Get("cursor") == "" {
			writeJSON(w, http.StatusOK, map[string]any{
				"results":     []map[string]any{{"id": "1", "name": "Inbox"}},
				"next_cursor": "abc",
			})
			return
		}
		assert.Equal(t, "abc", r.URL.Query().Get("cursor"))
		writeJSON(w, http.StatusOK, map[string]any{
			"results":     []map[string]any{{"id": "2", "name": "Work", "parent_id": "1"}},
			"next_cursor": nil,
		})
	})

	projects, err := c.Projects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []tasks.Project{{ID: "1", Name: "Inbox"}, {ID: "2", Name: "Work", ParentID: "1"}}, projects)
	assert.Len(t, fake.requests, 2)
}

func TestSections_RetriesTransientFailures(t *testing.T) {
	c, fake := newTestClient(t, config.TodoistConfig{}, func(w http.ResponseWriter, r *http.Request, n int) {
		if n == 1 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "busy"})
			return
		}
		assert.Equal(t, "p-1", r.URL.Query().Get("project_id"))
		writeJSON(w, http.StatusOK, map[string]any{
			"results": []map[string]any{{"id": "s-1", "name": "Backlog", "project_id": "p-1"}},
		})
	})

	sections, err := c.Sections(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, []tasks.Section{{ID: "s-1", Name: "Backlog", ProjectID: "p-1"}}, sections)
	assert.Len(t, fake.requests, 2)
}

func TestSections_PermanentFailureNotRetried(t *testing.T) {
	c, fake := newTestClient(t, config.TodoistConfig{}, func(w http.ResponseWriter, r *http.Request, n int) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "bad token"})
	})

	_, err := c.Sections(context.Background(), "p-1")
	require.Error(t, err)
	assert.True(t, tasks.IsProviderError(err))
	assert.Len(t, fake.requests, 1)
}

func TestClientIdentity(t *testing.T) {
	c := NewClient(config.TodoistConfig{}, zaptest.NewLogger(t))
	assert.Equal(t, "Todoist", c.Name())
	assert.Equal(t, tasks.DialectTodoist, c.Dialect())

	var _ tasks.Provider = c
	var _ tasks.ProjectDirectory = c
}

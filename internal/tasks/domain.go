package tasks

import (
	"context"

	"taskbridge-bot/internal/common"
)

// DefaultContent is the title used whenever a task title cannot be extracted.
const DefaultContent = "Новая задача"

// TaskIntent is the provider-agnostic description of a task extracted from a
// user's message. Content is never empty once extraction completes.
type TaskIntent struct {
	Content     string          `json:"content"`
	Description string          `json:"description,omitempty"`
	DueString   string          `json:"due_string,omitempty"`
	DueDate     string          `json:"due_date,omitempty"`
	DueDatetime string          `json:"due_datetime,omitempty"`
	Priority    common.Priority `json:"priority,omitempty"`
	Labels      []string        `json:"labels,omitempty"`
	ProjectName string          `json:"project_name,omitempty"`
	SectionName string          `json:"section_name,omitempty"`
	ParentID    string          `json:"parent_id,omitempty"`
	Order       int             `json:"order,omitempty"`
}

// HasDue reports whether the intent carries any due date information.
func (t TaskIntent) HasDue() bool {
	return t.DueString != "" || t.DueDate != "" || t.DueDatetime != ""
}

// DefaultIntent is the intent produced when nothing could be extracted from raw.
func DefaultIntent(raw string) TaskIntent {
	return TaskIntent{
		Content:     DefaultContent,
		Description: raw,
	}
}

// ResolvedTask is a TaskIntent whose human-readable project and section names
// have been replaced by provider identifiers. The embedded intent never carries
// names; SectionID is only set together with ProjectID.
type ResolvedTask struct {
	TaskIntent
	ProjectID string `json:"project_id,omitempty"`
	SectionID string `json:"section_id,omitempty"`
}

// Unresolved wraps an intent without touching the provider, dropping names.
func Unresolved(intent TaskIntent) ResolvedTask {
	intent.ProjectName = ""
	intent.SectionName = ""
	return ResolvedTask{TaskIntent: intent}
}

// CreatedTask is what a provider reports back after a successful create call.
type CreatedTask struct {
	ID      string
	Content string
	URL     string
	// DueDropped is set when the task was only accepted after removing its
	// natural-language due string.
	DueDropped bool
}

// Project is a provider-owned grouping of tasks.
type Project struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Order    int    `json:"child_order,omitempty"`
	ParentID string `json:"parent_id,omitempty"`
}

// Section is a sub-grouping of tasks inside a project.
type Section struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ProjectID string `json:"project_id"`
	Order     int    `json:"section_order,omitempty"`
}

// Provider creates tasks in one external task tracker.
type Provider interface {
	// Name is the human-readable provider name shown to users.
	Name() string
	// Dialect selects the extraction prompt and key set for this provider.
	Dialect() Dialect
	CreateTask(ctx context.Context, task ResolvedTask) (*CreatedTask, error)
}

// ProjectDirectory lists projects and sections of a provider that supports
// resolving names to identifiers.
type ProjectDirectory interface {
	Projects(ctx context.Context) ([]Project, error)
	Sections(ctx context.Context, projectID string) ([]Section, error)
}

// Dialect identifies the JSON key set a provider expects from extraction.
type Dialect string

const (
	// DialectTodoist uses content, due_string, priority, labels,
	// project_name and section_name.
	DialectTodoist Dialect = "todoist"
	// DialectYougile uses a single title with the due date folded into it.
	DialectYougile Dialect = "yougile"
)

// Package resolver maps human-readable project and section names in a
// TaskIntent to provider identifiers.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"taskbridge-bot/internal/tasks"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

const (
	KindProject = "project"
	KindSection = "section"
)

// ResolutionError is returned in strict mode when a name cannot be resolved
// or the directory cannot be listed.
type ResolutionError struct {
	Kind  string
	Name  string
	Cause error
}

func (e *ResolutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to resolve %s %q: %v", e.Kind, e.Name, e.Cause)
	}
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

func (e *ResolutionError) Unwrap() error {
	return e.Cause
}

func (e *ResolutionError) Code() string {
	return "RESOLUTION_FAILED"
}

func (e *ResolutionError) Message() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

func (e *ResolutionError) Temporary() bool {
	return e.Cause != nil
}

// Resolver looks names up in a live project directory on every call.
type Resolver struct {
	directory tasks.ProjectDirectory
	strict    bool
	logger    *zap.Logger
}

// New returns a Resolver. A nil directory makes Resolve a pass-through that
// only strips the names.
func New(directory tasks.ProjectDirectory, strict bool, logger *zap.Logger) *Resolver {
	return &Resolver{
		directory: directory,
		strict:    strict,
		logger:    logger,
	}
}

// Resolve replaces project and section names with identifiers. In lenient
// mode a miss or a listing failure drops the field and never returns an
// error. The returned task never carries names.
func (r *Resolver) Resolve(ctx context.Context, intent tasks.TaskIntent) (tasks.ResolvedTask, error) {
	resolved := tasks.Unresolved(intent)
	if r.directory == nil || intent.ProjectName == "" {
		return resolved, nil
	}

	projects, err := r.directory.Projects(ctx)
	if err != nil {
		return r.miss(resolved, KindProject, intent.ProjectName, err)
	}
	project, ok := FindProject(projects, intent.ProjectName)
	if !ok {
		return r.miss(resolved, KindProject, intent.ProjectName, nil)
	}
	resolved.ProjectID = project.ID

	if intent.SectionName == "" {
		return resolved, nil
	}

	sections, err := r.directory.Sections(ctx, project.ID)
	if err != nil {
		return r.miss(resolved, KindSection, intent.SectionName, err)
	}
	section, ok := FindSection(sections, intent.SectionName)
	if !ok {
		return r.miss(resolved, KindSection, intent.SectionName, nil)
	}
	resolved.SectionID = section.ID

	return resolved, nil
}

func (r *Resolver) miss(resolved tasks.ResolvedTask, kind, name string, cause error) (tasks.ResolvedTask, error) {
	if r.strict {
		return tasks.ResolvedTask{}, &ResolutionError{Kind: kind, Name: name, Cause: cause}
	}

	if cause != nil {
		r.logger.Warn("Directory lookup failed, dropping name",
			zap.String("kind", kind),
			zap.String("name", name),
			zap.Error(cause))
	} else {
		r.logger.Info("Name not found, dropping it",
			zap.String("kind", kind),
			zap.String("name", name))
	}
	return resolved, nil
}

// FindProject returns the first project whose name matches name ignoring
// case and surrounding whitespace.
func FindProject(projects []tasks.Project, name string) (tasks.Project, bool) {
	return findFirst(projects, name, func(p tasks.Project) string { return p.Name })
}

// FindSection is FindProject for sections.
func FindSection(sections []tasks.Section, name string) (tasks.Section, bool) {
	return findFirst(sections, name, func(s tasks.Section) string { return s.Name })
}

func findFirst[T any](items []T, name string, nameOf func(T) string) (T, bool) {
	fold := cases.Fold()
	want := fold.String(strings.TrimSpace(name))
	for _, item := range items {
		if fold.String(strings.TrimSpace(nameOf(item))) == want {
			return item, true
		}
	}
	var zero T
	return zero, false
}

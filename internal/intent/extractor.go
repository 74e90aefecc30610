// Package intent turns a free-form utterance into a TaskIntent by asking a
// language model for a constrained JSON object.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"taskbridge-bot/internal/common"
	"taskbridge-bot/internal/llm"
	"taskbridge-bot/internal/tasks"

	"go.uber.org/zap"
)

// Extractor builds prompts for one provider dialect and parses the answers.
type Extractor struct {
	completer llm.Completer
	dialect   tasks.Dialect
	logger    *zap.Logger
}

func NewExtractor(completer llm.Completer, dialect tasks.Dialect, logger *zap.Logger) *Extractor {
	return &Extractor{
		completer: completer,
		dialect:   dialect,
		logger:    logger,
	}
}

// Extract never fails. Any completer error, panic or unparsable answer
// degrades to tasks.DefaultIntent with the trimmed raw text as description.
func (e *Extractor) Extract(ctx context.Context, raw string) (intent tasks.TaskIntent) {
	text := strings.TrimSpace(raw)

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Intent extraction panicked, using default intent",
				zap.Any("panic", r))
			intent = tasks.DefaultIntent(text)
		}
	}()

	answer, err := e.completer.Complete(ctx, BuildPrompt(e.dialect, text))
	if err != nil {
		e.logger.Warn("LLM completion failed, using default intent", zap.Error(err))
		return tasks.DefaultIntent(text)
	}

	parsed, err := Parse(answer, text)
	if err != nil {
		e.logger.Warn("Could not parse LLM answer, using default intent",
			zap.Error(err),
			zap.String("answer", answer))
		return tasks.DefaultIntent(text)
	}

	e.logger.Debug("Extracted task intent",
		zap.String("content", parsed.Content),
		zap.String("due_string", parsed.DueString),
		zap.String("project_name", parsed.ProjectName))
	return parsed
}

// Parse reads the greedy span from the first '{' to the last '}' of answer
// as a JSON object and maps its keys onto a TaskIntent. description is
// always set to raw. A missing or empty title yields tasks.DefaultContent.
func Parse(answer, raw string) (tasks.TaskIntent, error) {
	start := strings.Index(answer, "{")
	end := strings.LastIndex(answer, "}")
	if start < 0 || end < start {
		return tasks.TaskIntent{}, fmt.Errorf("no JSON object in answer")
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(answer[start:end+1]), &fields); err != nil {
		return tasks.TaskIntent{}, fmt.Errorf("invalid JSON object: %w", err)
	}

	intent := tasks.TaskIntent{
		Content:     firstString(fields, "content", "title"),
		Description: raw,
		DueString:   stringField(fields, "due_string"),
		DueDate:     stringField(fields, "due_date"),
		DueDatetime: stringField(fields, "due_datetime"),
		Priority:    common.ParsePriority(fields["priority"]),
		Labels:      labelsField(fields["labels"]),
		ProjectName: stringField(fields, "project_name"),
		SectionName: stringField(fields, "section_name"),
		ParentID:    stringField(fields, "parent_id"),
		Order:       intField(fields["order"]),
	}
	if intent.Content == "" {
		intent.Content = tasks.DefaultContent
	}
	return intent, nil
}

func firstString(fields map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := stringField(fields, key); s != "" {
			return s
		}
	}
	return ""
}

func stringField(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func labelsField(v any) []string {
	var labels []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			labels = append(labels, s)
		}
	}

	switch l := v.(type) {
	case []any:
		for _, item := range l {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	case string:
		for _, s := range strings.Split(l, ",") {
			add(s)
		}
	}
	return labels
}

func intField(v any) int {
	switch n := v.(type) {
	case float64:
		if n == float64(int(n)) {
			return int(n)
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
	}
	return 0
}

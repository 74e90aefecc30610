package common

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Priority is a task priority on the 1 (normal) to 4 (urgent) scale used by
// task providers. Zero means unset.
type Priority int

const (
	PriorityUnset  Priority = 0
	PriorityNormal Priority = 1
	PriorityMedium Priority = 2
	PriorityHigh   Priority = 3
	PriorityUrgent Priority = 4
)

// IsValid checks if the Priority is within the provider scale
func (p Priority) IsValid() bool {
	return p >= PriorityNormal && p <= PriorityUrgent
}

// IsSet reports whether a priority was specified at all
func (p Priority) IsSet() bool {
	return p != PriorityUnset
}

func (p Priority) String() string {
	switch p {
	case PriorityNormal:
		return "normal"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityUrgent:
		return "urgent"
	default:
		return "unset"
	}
}

// UnmarshalJSON accepts both numbers and numeric strings, since language
// models emit either. Out-of-range values decode to PriorityUnset.
func (p *Priority) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = ParsePriority(raw)
	return nil
}

// ParsePriority converts a loosely typed value into a Priority.
func ParsePriority(v any) Priority {
	var n int
	switch val := v.(type) {
	case float64:
		if val != float64(int(val)) {
			return PriorityUnset
		}
		n = int(val)
	case int:
		n = val
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return PriorityUnset
		}
		n = parsed
	default:
		return PriorityUnset
	}
	p := Priority(n)
	if !p.IsValid() {
		return PriorityUnset
	}
	return p
}

// ValidationError reports a field that does not satisfy a constraint
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

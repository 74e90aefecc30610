package config

import (
	"fmt"
	"strings"
)

// ConfigurationError is returned when the process configuration is incomplete
// or inconsistent. It is always fatal.
type ConfigurationError struct {
	Reason string
	Fields []string
}

func NewConfigurationError(reason string, fields ...string) ConfigurationError {
	return ConfigurationError{Reason: reason, Fields: fields}
}

func (e ConfigurationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("configuration error: %s", e.Reason)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Reason, strings.Join(e.Fields, ", "))
}

func (e ConfigurationError) Code() string {
	return "CONFIGURATION_ERROR"
}

func (e ConfigurationError) Message() string {
	return e.Reason
}

func (e ConfigurationError) Temporary() bool {
	return false
}

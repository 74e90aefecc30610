package speech

import (
	"fmt"
	"strings"
)

// Attempt records the outcome of one model during a transcription.
type Attempt struct {
	Model string
	Err   error
}

// TranscriptionError is returned when no model produced a non-empty
// transcript.
type TranscriptionError struct {
	Attempts []Attempt
}

func (e *TranscriptionError) Error() string {
	if len(e.Attempts) == 0 {
		return "transcription failed: no models configured"
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		if a.Err != nil {
			parts = append(parts, fmt.Sprintf("%s: %v", a.Model, a.Err))
		} else {
			parts = append(parts, a.Model+": empty result")
		}
	}
	return "transcription failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes the per-model causes to errors.Is and errors.As.
func (e *TranscriptionError) Unwrap() []error {
	var errs []error
	for _, a := range e.Attempts {
		if a.Err != nil {
			errs = append(errs, a.Err)
		}
	}
	return errs
}

func (e *TranscriptionError) Code() string {
	return "TRANSCRIPTION_FAILED"
}

func (e *TranscriptionError) Message() string {
	return "speech could not be recognized"
}

func (e *TranscriptionError) Temporary() bool {
	return false
}

// ErrorCodeMalformedResponse marks a 200 answer whose body is not the
// expected JSON.
const ErrorCodeMalformedResponse = "MALFORMED_RESPONSE"

// RecognitionError is a non-success answer from the speech backend.
type RecognitionError struct {
	StatusCode int
	ErrorCode  string
	ErrorMsg   string
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("speech recognition error (HTTP %d): %s - %s", e.StatusCode, e.ErrorCode, e.ErrorMsg)
}

func (e *RecognitionError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

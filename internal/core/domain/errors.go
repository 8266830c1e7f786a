package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrFileNotFound is returned when the extractor exited successfully but no
	// artifact carrying the request id could be found.
	ErrFileNotFound = errors.New("downloaded file not found")

	// ErrExtractorUnavailable is returned when no invocation strategy could
	// launch the extractor.
	ErrExtractorUnavailable = errors.New("extractor could not be launched")

	// ErrResultNotFound is returned by result stores for unknown ids.
	ErrResultNotFound = errors.New("result not found")
)

// ErrorKind is the caller facing category of a failed download.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindExtraction ErrorKind = "extraction"
	KindNetwork    ErrorKind = "network"
	KindNotFound   ErrorKind = "not_found"
	KindAccess     ErrorKind = "access"
	KindTimeout    ErrorKind = "timeout"
	KindInternal   ErrorKind = "internal"
)

// UserMessage returns the text shown to users for a kind of failure.
func UserMessage(kind ErrorKind) string {
	switch kind {
	case KindValidation:
		return "Please provide a valid Instagram or TikTok URL."
	case KindExtraction:
		return "Unable to process this video. It may be private, unavailable, or blocked."
	case KindNetwork:
		return "Network error while contacting the platform. Please try again later."
	case KindNotFound:
		return "The requested video could not be found."
	case KindAccess:
		return "This video requires a login or is restricted."
	case KindTimeout:
		return "The download took too long and was stopped. Please try again."
	default:
		return "An unexpected error occurred while processing the download."
	}
}

// StepError records which orchestration step failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s step failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

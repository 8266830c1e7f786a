package service

import (
	"context"
	"errors"
	"strings"

	"reelgrab/internal/adapters/process"
	"reelgrab/internal/core/domain"
)

var (
	accessPatterns = []string{
		"login required", "log in", "sign in", "authentication", "permission",
		"http error 401", "http error 403", "forbidden", "cookies",
	}
	notFoundPatterns = []string{
		"http error 404", "404: not found", "not found", "does not exist", "no longer available",
	}
	networkPatterns = []string{
		"timed out", "timeout", "connection", "network", "unable to resolve",
		"name resolution", "temporary failure", "getaddrinfo", "http error 5",
	}
)

// Classify maps an orchestration error to the category callers act on.
// Structured errors from the process layer are inspected first; only
// unstructured errors fall back to matching on their message.
func Classify(err error) domain.ErrorKind {
	if err == nil {
		return ""
	}

	var timeoutErr *process.TimeoutError
	if errors.As(err, &timeoutErr) || errors.Is(err, context.DeadlineExceeded) {
		return domain.KindTimeout
	}

	switch {
	case errors.Is(err, domain.ErrFileNotFound):
		return domain.KindExtraction
	case errors.Is(err, domain.ErrExtractorUnavailable):
		return domain.KindInternal
	case errors.Is(err, domain.ErrResultNotFound):
		return domain.KindNotFound
	}

	var exitErr *process.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.ToLower(exitErr.Stderr)
		switch {
		case containsAny(stderr, accessPatterns...):
			return domain.KindAccess
		case containsAny(stderr, notFoundPatterns...):
			return domain.KindNotFound
		case containsAny(stderr, networkPatterns...):
			return domain.KindNetwork
		default:
			return domain.KindExtraction
		}
	}

	// A caller that went away is not a fault of the target content.
	if errors.Is(err, context.Canceled) {
		return domain.KindInternal
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "yt-dlp", "yt_dlp", "extractor"):
		return domain.KindExtraction
	case containsAny(msg, networkPatterns...):
		return domain.KindNetwork
	case containsAny(msg, notFoundPatterns...):
		return domain.KindNotFound
	case containsAny(msg, accessPatterns...):
		return domain.KindAccess
	default:
		return domain.KindInternal
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

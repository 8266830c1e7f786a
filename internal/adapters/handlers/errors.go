package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"reelgrab/internal/core/domain"
	"reelgrab/internal/service"
)

// ErrorDto is the body of every error response.
type ErrorDto struct {
	Message string           `json:"message"`
	Kind    domain.ErrorKind `json:"kind"`
}

var kindStatus = map[domain.ErrorKind]int{
	domain.KindValidation: http.StatusBadRequest,
	domain.KindNotFound:   http.StatusNotFound,
	domain.KindAccess:     http.StatusForbidden,
	domain.KindExtraction: http.StatusUnprocessableEntity,
	domain.KindNetwork:    http.StatusServiceUnavailable,
	domain.KindTimeout:    http.StatusGatewayTimeout,
	domain.KindInternal:   http.StatusInternalServerError,
}

// StatusFor returns the HTTP status code for a kind of failure.
func StatusFor(kind domain.ErrorKind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func kindFor(status int) domain.ErrorKind {
	for kind, s := range kindStatus {
		if s == status {
			return kind
		}
	}
	if status < http.StatusInternalServerError {
		return domain.KindValidation
	}
	return domain.KindInternal
}

// ErrorResponse converts a handler error to a status and body. echo errors
// keep their status; anything else is classified.
func ErrorResponse(err error) (int, ErrorDto) {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, ErrorDto{Message: fmt.Sprint(httpErr.Message), Kind: kindFor(httpErr.Code)}
	}

	kind := service.Classify(err)
	return StatusFor(kind), ErrorDto{Message: domain.UserMessage(kind), Kind: kind}
}

func handleError(err error, ec echo.Context) {
	if ec.Response().Committed {
		return
	}

	status, body := ErrorResponse(err)
	if status >= http.StatusInternalServerError {
		log.Errorf("%s %s failed (%d %s): %v\n", ec.Request().Method, ec.Request().URL.Path, status, body.Kind, err)
	} else {
		log.Debugf("%s %s rejected (%d %s): %v\n", ec.Request().Method, ec.Request().URL.Path, status, body.Kind, err)
	}

	if ec.Request().Method == http.MethodHead {
		err = ec.NoContent(status)
	} else {
		err = ec.JSON(status, body)
	}
	if err != nil {
		log.Errorf("Failed to write error response: %v\n", err)
	}
}

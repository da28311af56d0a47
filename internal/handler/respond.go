package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pulse-workout-sessions/internal/session"
)

// requestTimeout bounds the store work of one request.
const requestTimeout = 5 * time.Second

var statusByKind = map[*session.Error]int{
	session.ErrMissingParameter: http.StatusBadRequest,
	session.ErrUnsupportedType:  http.StatusBadRequest,
	session.ErrReadEmpty:        http.StatusNotFound,
	session.ErrSessionClosed:    http.StatusConflict,
	session.ErrUpdateFailed:     http.StatusConflict,
	session.ErrWriteFailed:      http.StatusInternalServerError,
	session.ErrRangeFailed:      http.StatusInternalServerError,
	session.ErrStoreInternal:    http.StatusInternalServerError,
}

// fail writes err as {"errorCode", "error"}.  Errors without a kind become
// a bare 500.
func fail(c echo.Context, op string, err error) error {
	var kind *session.Error
	if !errors.As(err, &kind) {
		log.Printf("handler: %s: %v", op, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		log.Printf("handler: %s: %v", op, err)
	}
	return c.JSON(status, echo.Map{"errorCode": kind.Code, "error": err.Error()})
}

func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
}

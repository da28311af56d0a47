package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/pulse-workout-sessions/internal/session"
)

func TestFailMapsKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   int
	}{
		{fmt.Errorf("%w: workoutId", session.ErrMissingParameter), http.StatusBadRequest, 4031},
		{session.ErrUnsupportedType, http.StatusBadRequest, 4032},
		{fmt.Errorf("%w: finishSession sessions: gone", session.ErrReadEmpty), http.StatusNotFound, 4021},
		{session.ErrSessionClosed, http.StatusConflict, 4034},
		{fmt.Errorf("%w: x", session.ErrUpdateFailed), http.StatusConflict, 4023},
		{fmt.Errorf("%w: x", session.ErrStoreInternal), http.StatusInternalServerError, 4027},
	}
	e := echo.New()
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		require.NoError(t, fail(c, "op", tc.err))
		require.Equal(t, tc.status, rec.Code, tc.err.Error())

		var body struct {
			ErrorCode int    `json:"errorCode"`
			Error     string `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, tc.code, body.ErrorCode)
		require.Equal(t, tc.err.Error(), body.Error)
	}
}

func TestFailWithoutKindIsInternal(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, fail(c, "op", errors.New("boom")))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "boom")
}

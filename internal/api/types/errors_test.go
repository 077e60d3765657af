package types

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/invmap/engine/pkg/errors"
)

func TestHTTPStatus(t *testing.T) {
	cases := map[appErr.Code]int{
		appErr.CodeInvalid:       http.StatusBadRequest,
		appErr.CodeNotFound:      http.StatusNotFound,
		appErr.CodeAlreadyExists: http.StatusConflict,
		appErr.CodeConflict:      http.StatusConflict,
		appErr.CodeUnauthorized:  http.StatusUnauthorized,
		appErr.CodeUnavailable:   http.StatusServiceUnavailable,
		appErr.CodeInternal:      http.StatusInternalServerError,
	}
	for code, want := range cases {
		require.Equal(t, want, HTTPStatus(appErr.New(code, "x")), code)
	}
	require.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestFromAppErrorHidesInternals(t *testing.T) {
	e := FromAppError(appErr.Wrap(errors.New("pq: relation does not exist"), appErr.CodeInternal, "list location failed"))
	require.Equal(t, &APIError{Code: "internal", Message: "list location failed"}, e)

	e = FromAppError(errors.New("pq: secret detail"))
	require.Equal(t, "unexpected error", e.Message)
	require.Nil(t, FromAppError(nil))
}

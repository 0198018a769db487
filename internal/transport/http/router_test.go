package httpserver

import (
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func TestStatusLabel(t *testing.T) {
	require.Equal(t, http.StatusOK, statusLabel(nil, http.StatusOK))
	require.Equal(t, http.StatusNoContent, statusLabel(nil, http.StatusNoContent))
	require.Equal(t, http.StatusNotFound, statusLabel(echo.NewHTTPError(http.StatusNotFound, "missing"), http.StatusOK))
	require.Equal(t, http.StatusInternalServerError, statusLabel(errors.New("boom"), http.StatusOK),
		"plain errors must not be recorded as the uncommitted 200")
}

package token

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

func cookie(name, value string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

// AutoRefreshMiddleware validates the access cookie and silently rotates
// an expired one from the refresh cookie.
func (t *TokenService) AutoRefreshMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		newAccess, newRefresh, _, err := t.CheckCookie(c)
		if err != nil {
			return err
		}

		if newRefresh != "" {
			c.SetCookie(cookie("accessToken", newAccess, time.Now().Add(AccessTTL)))
			c.SetCookie(cookie("refreshToken", newRefresh, time.Now().Add(RefreshTTL)))
		}
		return next(c)
	}
}

func (t *TokenService) AutoRefreshMiddlewareAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		newAccess, newRefresh, role, err := t.CheckCookie(c)
		if err != nil {
			return err
		}
		if role != "admin" {
			return echo.NewHTTPError(http.StatusForbidden, "you don't have enough rights")
		}

		if newRefresh != "" {
			c.SetCookie(cookie("accessToken", newAccess, time.Now().Add(AccessTTL)))
			c.SetCookie(cookie("refreshToken", newRefresh, time.Now().Add(RefreshTTL)))
		}
		return next(c)
	}
}

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gospelline/storefront/internal/config"
	"github.com/gospelline/storefront/internal/models"
	"github.com/gospelline/storefront/internal/service/token"
)

var testSecret = []byte("test-secret")

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	return db
}

func authCookie(t *testing.T, userID uint) *http.Cookie {
	t.Helper()
	access, err := token.SignAccessToken(userID, "user", testSecret)
	require.NoError(t, err)
	return &http.Cookie{Name: "accessToken", Value: access, Path: "/"}
}

func TestNameFromEmail(t *testing.T) {
	cases := map[string]string{
		"jane.doe@example.com":  "Jane Doe",
		"john_smith@sample.org": "John Smith",
		"ada-lovelace@math.io":  "Ada Lovelace",
		"solo@x.dev":            "Solo",
		"noatsign":              "Noatsign",
		"":                      "",
	}
	for in, want := range cases {
		require.Equal(t, want, NameFromEmail(in), "input %q", in)
	}
}

func TestResolveProfileFallbackChain(t *testing.T) {
	user := models.User{Email: "jane.doe@example.com", DisplayName: "JD"}

	// profile row wins
	got := ResolveProfile(user, models.Profile{FullName: "Jane From Profile", AvatarURL: "https://a/img.png"})
	require.Equal(t, "Jane From Profile", got.UserName)
	require.Equal(t, "https://a/img.png", got.AvatarURL)

	// then auth metadata
	got = ResolveProfile(user, models.Profile{})
	require.Equal(t, "JD", got.UserName)

	// then the email heuristic
	user.DisplayName = ""
	got = ResolveProfile(user, models.Profile{})
	require.Equal(t, "Jane Doe", got.UserName)
	require.Equal(t, "jane.doe@example.com", got.UserEmail)
}

func TestGetProfileEndpoint(t *testing.T) {
	db := newTestDB(t)
	e := echo.New()
	h := &ProfileHandler{DB: db, JWTSecret: testSecret}

	require.NoError(t, db.Create(&models.User{ID: 1, Email: "sam_jones@example.com", PasswordHash: "x"}).Error)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.AddCookie(authCookie(t, 1))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.GetProfile(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp UserProfile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Sam Jones", resp.UserName)
	require.Equal(t, "sam_jones@example.com", resp.UserEmail)
}

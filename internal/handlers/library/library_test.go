package library

import (
	"bytes"
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

func doJSON(e *echo.Echo, method, target string, body interface{}, cookies ...*http.Cookie) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	return rec, e.NewContext(req, rec)
}

func TestLessonsGatedOnPurchase(t *testing.T) {
	db := newTestDB(t)
	e := echo.New()
	h := &LibraryHandler{DB: db, JWTSecret: testSecret}
	ck := authCookie(t, 1)

	require.NoError(t, db.Create(&models.Product{ID: 1, Title: "Course", Price: 1000}).Error)
	require.NoError(t, db.Create(&models.CourseLesson{ProductID: 1, Title: "Intro", Position: 1}).Error)
	require.NoError(t, db.Create(&models.CourseLesson{ProductID: 1, Title: "Deep dive", Position: 2}).Error)

	_, c := doJSON(e, http.MethodGet, "/api/v1/products/1/lessons", nil, ck)
	c.SetParamNames("id")
	c.SetParamValues("1")
	err := h.Lessons(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusForbidden, he.Code)

	require.NoError(t, db.Create(&models.Purchase{UserID: 1, ProductID: 1, AmountPaid: 1000}).Error)

	rec, c := doJSON(e, http.MethodGet, "/api/v1/products/1/lessons", nil, ck)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Lessons(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var lessons []models.CourseLesson
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lessons))
	require.Len(t, lessons, 2)
	require.Equal(t, "Intro", lessons[0].Title)
}

func TestProgressUpsert(t *testing.T) {
	db := newTestDB(t)
	e := echo.New()
	h := &LibraryHandler{DB: db, JWTSecret: testSecret}
	ck := authCookie(t, 1)

	require.NoError(t, db.Create(&models.CourseLesson{ID: 10, ProductID: 1, Title: "Intro", Position: 1}).Error)

	rec, c := doJSON(e, http.MethodPut, "/api/v1/lessons/10/progress", map[string]any{
		"position_seconds": 30,
	}, ck)
	c.SetParamNames("id")
	c.SetParamValues("10")
	require.NoError(t, h.UpdateProgress(c))
	require.Equal(t, http.StatusOK, rec.Code)

	rec, c = doJSON(e, http.MethodPut, "/api/v1/lessons/10/progress", map[string]any{
		"position_seconds": 95,
		"completed":        true,
	}, ck)
	c.SetParamNames("id")
	c.SetParamValues("10")
	require.NoError(t, h.UpdateProgress(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []models.WatchProgress
	require.NoError(t, db.Where("user_id = ? AND lesson_id = ?", 1, 10).Find(&rows).Error)
	require.Len(t, rows, 1, "progress must upsert, not accumulate rows")
	require.Equal(t, 95, rows[0].PositionSeconds)
	require.True(t, rows[0].Completed)
}

func TestLibraryList(t *testing.T) {
	db := newTestDB(t)
	e := echo.New()
	h := &LibraryHandler{DB: db, JWTSecret: testSecret}
	ck := authCookie(t, 1)

	require.NoError(t, db.Create(&models.Product{ID: 1, Title: "Mine", Price: 1000}).Error)
	require.NoError(t, db.Create(&models.Purchase{UserID: 1, ProductID: 1, AmountPaid: 1000}).Error)
	require.NoError(t, db.Create(&models.Purchase{UserID: 2, ProductID: 1, AmountPaid: 1000}).Error)

	rec, c := doJSON(e, http.MethodGet, "/api/v1/library", nil, ck)
	require.NoError(t, h.List(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []libraryEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	require.Equal(t, "Mine", entries[0].Product.Title)
}

package cart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
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

func seedProduct(t *testing.T, db *gorm.DB, id uint, price int64) {
	t.Helper()
	require.NoError(t, db.Create(&models.Product{
		ID:    id,
		Title: fmt.Sprintf("Course %d", id),
		Price: price,
	}).Error)
}

func cartTotal(t *testing.T, db *gorm.DB, h *CartHandler, e *echo.Echo, ck *http.Cookie) CartResponse {
	t.Helper()
	rec, c := doJSON(e, http.MethodGet, "/api/v1/cart", nil, ck)
	require.NoError(t, h.GetCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp CartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestAddToCartIncrementsExistingByOne(t *testing.T) {
	db := newTestDB(t)
	e := echo.New()
	h := &CartHandler{DB: db, JWTSecret: testSecret}
	ck := authCookie(t, 1)

	seedProduct(t, db, 3, 1500)

	for i := 0; i < 3; i++ {
		rec, c := doJSON(e, http.MethodPost, "/api/v1/cart", map[string]uint{"product_id": 3}, ck)
		require.NoError(t, h.AddToCart(c))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	var rows []models.CartItem
	require.NoError(t, db.Where("user_id = ?", 1).Find(&rows).Error)
	require.Len(t, rows, 1, "repeated adds must not create duplicate rows")
	require.Equal(t, uint(3), rows[0].Quantity)
}

func TestAddToCartUnknownProduct(t *testing.T) {
	db := newTestDB(t)
	e := echo.New()
	h := &CartHandler{DB: db, JWTSecret: testSecret}
	ck := authCookie(t, 1)

	_, c := doJSON(e, http.MethodPost, "/api/v1/cart", map[string]uint{"product_id": 99}, ck)
	err := h.AddToCart(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusNotFound, he.Code)
}

func TestTotalIsDerivedFoldAfterEveryMutation(t *testing.T) {
	db := newTestDB(t)
	e := echo.New()
	h := &CartHandler{DB: db, JWTSecret: testSecret}
	ck := authCookie(t, 1)

	seedProduct(t, db, 1, 1000)
	seedProduct(t, db, 2, 2500)

	check := func(want int64) {
		t.Helper()
		resp := cartTotal(t, db, h, e, ck)
		var sum int64
		for _, line := range resp.Items {
			sum += line.Price * int64(line.Quantity)
		}
		require.Equal(t, sum, resp.Total)
		require.Equal(t, want, resp.Total)
	}

	rec, c := doJSON(e, http.MethodPost, "/api/v1/cart", map[string]uint{"product_id": 1}, ck)
	require.NoError(t, h.AddToCart(c))
	require.Equal(t, http.StatusOK, rec.Code)
	check(1000)

	_, c = doJSON(e, http.MethodPost, "/api/v1/cart", map[string]uint{"product_id": 2}, ck)
	require.NoError(t, h.AddToCart(c))
	check(3500)

	_, c = doJSON(e, http.MethodPost, "/api/v1/cart", map[string]uint{"product_id": 1}, ck)
	require.NoError(t, h.AddToCart(c))
	check(4500)

	_, c = doJSON(e, http.MethodPut, "/api/v1/cart/2", map[string]int{"quantity": 4}, ck)
	c.SetParamNames("productID")
	c.SetParamValues("2")
	require.NoError(t, h.UpdateQuantity(c))
	check(12000)

	_, c = doJSON(e, http.MethodDelete, "/api/v1/cart/1", nil, ck)
	c.SetParamNames("productID")
	c.SetParamValues("1")
	require.NoError(t, h.RemoveFromCart(c))
	check(10000)
}

func TestUpdateQuantityScenario(t *testing.T) {
	db := newTestDB(t)
	e := echo.New()
	h := &CartHandler{DB: db, JWTSecret: testSecret}
	ck := authCookie(t, 1)

	seedProduct(t, db, 1, 1000)
	require.NoError(t, db.Create(&models.CartItem{UserID: 1, ProductID: 1, Quantity: 2}).Error)

	_, c := doJSON(e, http.MethodPut, "/api/v1/cart/1", map[string]int{"quantity": 3}, ck)
	c.SetParamNames("productID")
	c.SetParamValues("1")
	require.NoError(t, h.UpdateQuantity(c))

	resp := cartTotal(t, db, h, e, ck)
	require.Equal(t, int64(3000), resp.Total)
}

func TestUpdateQuantityNonPositiveRemoves(t *testing.T) {
	db := newTestDB(t)
	e := echo.New()
	h := &CartHandler{DB: db, JWTSecret: testSecret}
	ck := authCookie(t, 1)

	seedProduct(t, db, 1, 1000)

	for _, qty := range []int{0, -5} {
		require.NoError(t, db.Create(&models.CartItem{UserID: 1, ProductID: 1, Quantity: 2}).Error)

		rec, c := doJSON(e, http.MethodPut, "/api/v1/cart/1", map[string]int{"quantity": qty}, ck)
		c.SetParamNames("productID")
		c.SetParamValues("1")
		require.NoError(t, h.UpdateQuantity(c))
		require.Equal(t, http.StatusOK, rec.Code)

		var count int64
		require.NoError(t, db.Model(&models.CartItem{}).Where("user_id = ?", 1).Count(&count).Error)
		require.Zero(t, count, "quantity %d must remove the row", qty)
	}
}

func TestClearCart(t *testing.T) {
	db := newTestDB(t)
	e := echo.New()
	h := &CartHandler{DB: db, JWTSecret: testSecret}
	ck := authCookie(t, 1)

	seedProduct(t, db, 1, 1000)
	seedProduct(t, db, 2, 2000)
	require.NoError(t, db.Create(&models.CartItem{UserID: 1, ProductID: 1, Quantity: 1}).Error)
	require.NoError(t, db.Create(&models.CartItem{UserID: 1, ProductID: 2, Quantity: 2}).Error)
	require.NoError(t, db.Create(&models.CartItem{UserID: 2, ProductID: 1, Quantity: 1}).Error)

	rec, c := doJSON(e, http.MethodDelete, "/api/v1/cart", nil, ck)
	require.NoError(t, h.ClearCart(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	var mine, theirs int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("user_id = ?", 1).Count(&mine).Error)
	require.NoError(t, db.Model(&models.CartItem{}).Where("user_id = ?", 2).Count(&theirs).Error)
	require.Zero(t, mine)
	require.Equal(t, int64(1), theirs, "clearing one user's cart must not touch another's")
}

func TestExpiredAccessWithValidRefreshServesRequest(t *testing.T) {
	db := newTestDB(t)
	e := echo.New()
	refreshSecret := []byte("test-refresh-secret")
	h := &CartHandler{DB: db, JWTSecret: testSecret}
	svc := &token.TokenService{DB: db, JWTSecret: testSecret, RefreshSecret: refreshSecret}

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  1,
		"role": "user",
		"exp":  time.Now().Add(-time.Minute).Unix(),
	}).SignedString(testSecret)
	require.NoError(t, err)

	refresh, err := token.SignRefreshToken(1, "user", refreshSecret)
	require.NoError(t, err)
	require.NoError(t, token.SaveRefreshToken(db, refresh, 1, "user"))

	rec, c := doJSON(e, http.MethodGet, "/api/v1/cart", nil,
		&http.Cookie{Name: "accessToken", Value: expired, Path: "/"},
		&http.Cookie{Name: "refreshToken", Value: refresh, Path: "/"})

	require.NoError(t, svc.AutoRefreshMiddleware(h.GetCart)(c))
	require.Equal(t, http.StatusOK, rec.Code, "a rotated session must serve the request, not 401")
}

func TestGetCartRequiresAuth(t *testing.T) {
	db := newTestDB(t)
	e := echo.New()
	h := &CartHandler{DB: db, JWTSecret: testSecret}

	_, c := doJSON(e, http.MethodGet, "/api/v1/cart", nil)
	err := h.GetCart(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

package saved

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/gospelline/storefront/internal/events"
	"github.com/gospelline/storefront/internal/handlers"
	"github.com/gospelline/storefront/internal/models"
)

const guestTokenHeader = "X-Guest-Token"

type SavedHandler struct {
	DB        *gorm.DB
	Guests    GuestStore
	Producer  *events.Producer
	JWTSecret []byte
}

func (h *SavedHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, events.TopicUserEvents, fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

type savedLine struct {
	ProductID uint   `json:"product_id"`
	Title     string `json:"title"`
	ImageURL  string `json:"image"`
	Creator   string `json:"creator"`
	Price     string `json:"price"`
	Brand     string `json:"brand,omitempty"`
}

func (h *SavedHandler) line(productID uint, brand string) savedLine {
	line := savedLine{ProductID: productID, Brand: brand}
	var p models.Product
	if err := h.DB.First(&p, productID).Error; err == nil {
		line.Title = p.Title
		line.ImageURL = p.ImageURL
		line.Creator = p.Instructor
		line.Price = fmt.Sprintf("%.2f", float64(p.Price)/100)
		if line.Brand == "" {
			line.Brand = p.Brand
		}
	}
	return line
}

// --- authenticated path ---

func (h *SavedHandler) List(c echo.Context) error {
	userID, err := handlers.GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var rows []models.SavedItem
	if err := h.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&rows).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	out := make([]savedLine, 0, len(rows))
	for _, row := range rows {
		out = append(out, h.line(row.ProductID, row.Brand))
	}
	return c.JSON(http.StatusOK, out)
}

// Toggle flips the saved state and reports the final state. On a store
// failure nothing is written, so the client's optimistic flip reverts.
func (h *SavedHandler) Toggle(c echo.Context) error {
	userID, err := handlers.GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var req struct {
		ProductID uint   `json:"product_id"`
		Brand     string `json:"brand"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	if req.ProductID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "product_id is required")
	}

	var existing models.SavedItem
	tx := h.DB.Where("user_id = ? AND product_id = ?", userID, req.ProductID).First(&existing)
	if tx.Error == nil {
		if err := h.DB.Delete(&existing).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		h.publish(c, map[string]any{
			"type":      "saved_item_removed",
			"userID":    userID,
			"productID": req.ProductID,
		})
		return c.JSON(http.StatusOK, echo.Map{"saved": false, "product_id": req.ProductID})
	}
	if !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, tx.Error.Error())
	}

	item := models.SavedItem{
		UserID:    userID,
		ProductID: req.ProductID,
		Brand:     req.Brand,
		CreatedAt: time.Now(),
	}
	if err := h.DB.Create(&item).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.publish(c, map[string]any{
		"type":      "saved_item_added",
		"userID":    userID,
		"productID": req.ProductID,
	})
	return c.JSON(http.StatusOK, echo.Map{"saved": true, "product_id": req.ProductID})
}

func (h *SavedHandler) IsSaved(c echo.Context) error {
	userID, err := handlers.GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	productID, err := strconv.Atoi(c.Param("productID"))
	if err != nil || productID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	var count int64
	if err := h.DB.Model(&models.SavedItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"saved": count > 0})
}

// --- guest path ---

func (h *SavedHandler) guestToken(c echo.Context) (string, error) {
	token := c.Request().Header.Get(guestTokenHeader)
	if token == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "missing guest token")
	}
	if h.Guests == nil {
		return "", echo.NewHTTPError(http.StatusServiceUnavailable, "guest store unavailable")
	}
	return token, nil
}

func (h *SavedHandler) GuestList(c echo.Context) error {
	token, err := h.guestToken(c)
	if err != nil {
		return err
	}

	ids, err := h.Guests.Members(c.Request().Context(), token)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	out := make([]savedLine, 0, len(ids))
	for _, raw := range ids {
		id, convErr := strconv.ParseUint(raw, 10, 64)
		if convErr != nil {
			continue
		}
		out = append(out, h.line(uint(id), ""))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *SavedHandler) GuestToggle(c echo.Context) error {
	token, err := h.guestToken(c)
	if err != nil {
		return err
	}

	var req struct {
		ProductID uint `json:"product_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	if req.ProductID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "product_id is required")
	}

	ctx := c.Request().Context()
	raw := strconv.FormatUint(uint64(req.ProductID), 10)

	has, err := h.Guests.Has(ctx, token, raw)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if has {
		if err := h.Guests.Remove(ctx, token, raw); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, echo.Map{"saved": false, "product_id": req.ProductID})
	}
	if err := h.Guests.Add(ctx, token, raw); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"saved": true, "product_id": req.ProductID})
}

func (h *SavedHandler) GuestIsSaved(c echo.Context) error {
	token, err := h.guestToken(c)
	if err != nil {
		return err
	}

	productID, err := strconv.Atoi(c.Param("productID"))
	if err != nil || productID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	has, err := h.Guests.Has(c.Request().Context(), token, strconv.Itoa(productID))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"saved": has})
}

// --- merge ---

// Merge runs once when a guest establishes a session: guest-only ids are
// pushed to the remote table, ids already present remotely are left
// untouched, and the guest set is cleared. Ids are string-compared so a
// stray non-numeric member can never collide with a remote row.
func (h *SavedHandler) Merge(c echo.Context) error {
	userID, err := handlers.GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}
	token, err := h.guestToken(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	guestIDs, err := h.Guests.Members(ctx, token)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var remote []models.SavedItem
	if err := h.DB.Where("user_id = ?", userID).Find(&remote).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	remoteSet := make(map[string]bool, len(remote))
	for _, row := range remote {
		remoteSet[strconv.FormatUint(uint64(row.ProductID), 10)] = true
	}

	pushed := 0
	for _, raw := range guestIDs {
		if remoteSet[raw] {
			continue
		}
		id, convErr := strconv.ParseUint(raw, 10, 64)
		if convErr != nil {
			continue
		}
		item := models.SavedItem{
			UserID:    userID,
			ProductID: uint(id),
			CreatedAt: time.Now(),
		}
		if err := h.DB.Create(&item).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		pushed++
	}

	if err := h.Guests.Clear(ctx, token); err != nil {
		c.Logger().Errorf("guest store clear error: %v", err)
	}

	var merged []models.SavedItem
	if err := h.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&merged).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	out := make([]savedLine, 0, len(merged))
	for _, row := range merged {
		out = append(out, h.line(row.ProductID, row.Brand))
	}

	h.publish(c, map[string]any{
		"type":   "saved_items_merged",
		"userID": userID,
		"pushed": pushed,
	})
	return c.JSON(http.StatusOK, echo.Map{"items": out, "pushed": pushed})
}

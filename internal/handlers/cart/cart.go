package cart

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/gospelline/storefront/internal/events"
	"github.com/gospelline/storefront/internal/handlers"
	"github.com/gospelline/storefront/internal/metrics"
	"github.com/gospelline/storefront/internal/models"
)

type CartHandler struct {
	DB        *gorm.DB
	Producer  *events.Producer
	JWTSecret []byte
}

// Line is a cart row joined with its product. LineTotal and the cart
// total are always derived on read, never stored.
type Line struct {
	ProductID uint   `json:"product_id"`
	Title     string `json:"title"`
	Price     int64  `json:"price"`
	ImageURL  string `json:"image"`
	Creator   string `json:"creator"`
	Quantity  uint   `json:"quantity"`
	LineTotal int64  `json:"line_total"`
}

type CartResponse struct {
	Items []Line `json:"items"`
	Total int64  `json:"total"`
}

func (h *CartHandler) loadCart(userID uint) (CartResponse, error) {
	var items []models.CartItem
	if err := h.DB.Where("user_id = ?", userID).Order("id ASC").Find(&items).Error; err != nil {
		return CartResponse{}, err
	}

	resp := CartResponse{Items: make([]Line, 0, len(items))}
	for _, it := range items {
		var p models.Product
		if err := h.DB.First(&p, it.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return CartResponse{}, err
		}
		line := Line{
			ProductID: it.ProductID,
			Title:     p.Title,
			Price:     p.Price,
			ImageURL:  p.ImageURL,
			Creator:   p.Instructor,
			Quantity:  it.Quantity,
			LineTotal: p.Price * int64(it.Quantity),
		}
		resp.Items = append(resp.Items, line)
		resp.Total += line.LineTotal
	}
	return resp, nil
}

func (h *CartHandler) GetCart(c echo.Context) error {
	userID, err := handlers.GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	resp, err := h.loadCart(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, resp)
}

// AddToCart increments an existing row's quantity by exactly 1, or
// inserts with quantity 1. The read-then-write pair is not atomic; two
// concurrent adds can undercount, which the remote store accepts.
func (h *CartHandler) AddToCart(c echo.Context) error {
	userID, err := handlers.GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var req struct {
		ProductID uint `json:"product_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	var product models.Product
	if err := h.DB.First(&product, req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var item models.CartItem
	tx := h.DB.Where("user_id = ? AND product_id = ?", userID, req.ProductID).First(&item)
	if tx.Error == nil {
		item.Quantity += 1
		if err := h.DB.Save(&item).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	} else if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		item = models.CartItem{UserID: userID, ProductID: req.ProductID, Quantity: 1}
		if err := h.DB.Create(&item).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	} else {
		return echo.NewHTTPError(http.StatusInternalServerError, tx.Error.Error())
	}

	metrics.CartMutationsTotal.WithLabelValues("add").Inc()
	h.publish(c, map[string]any{
		"type":      "cart_item_added",
		"userID":    userID,
		"productID": req.ProductID,
		"quantity":  item.Quantity,
	})
	return c.JSON(http.StatusOK, item)
}

// UpdateQuantity with a non-positive quantity behaves exactly like
// removing the item. No zero-quantity row can ever exist.
func (h *CartHandler) UpdateQuantity(c echo.Context) error {
	userID, err := handlers.GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	productID, err := strconv.Atoi(c.Param("productID"))
	if err != nil || productID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	if req.Quantity <= 0 {
		return h.removeItem(c, userID, uint(productID))
	}

	var item models.CartItem
	if err := h.DB.Where("user_id = ? AND product_id = ?", userID, productID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "item not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	item.Quantity = uint(req.Quantity)
	if err := h.DB.Save(&item).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	metrics.CartMutationsTotal.WithLabelValues("update_quantity").Inc()
	h.publish(c, map[string]any{
		"type":      "cart_quantity_updated",
		"userID":    userID,
		"productID": productID,
		"quantity":  item.Quantity,
	})
	return c.JSON(http.StatusOK, item)
}

func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	userID, err := handlers.GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	productID, err := strconv.Atoi(c.Param("productID"))
	if err != nil || productID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	return h.removeItem(c, userID, uint(productID))
}

func (h *CartHandler) removeItem(c echo.Context, userID, productID uint) error {
	if err := h.DB.
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartItem{}).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	metrics.CartMutationsTotal.WithLabelValues("remove").Inc()
	h.publish(c, map[string]any{
		"type":      "cart_item_removed",
		"userID":    userID,
		"productID": productID,
	})
	return c.JSON(http.StatusOK, map[string]any{"deleted_item": productID})
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	userID, err := handlers.GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	if err := h.DB.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	metrics.CartMutationsTotal.WithLabelValues("clear").Inc()
	h.publish(c, map[string]any{
		"type":   "cart_cleared",
		"userID": userID,
	})
	return c.NoContent(http.StatusNoContent)
}

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/gospelline/storefront/internal/brand"
	"github.com/gospelline/storefront/internal/models"
)

// BrandHandler serves the shared storefront shell parameterized per
// brand. There is one handler, not one page tree per brand.
type BrandHandler struct {
	DB *gorm.DB
}

func (h *BrandHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, brand.All())
}

func (h *BrandHandler) Dashboard(c echo.Context) error {
	slug := c.Param("slug")
	if !brand.Known(slug) {
		return echo.NewHTTPError(http.StatusNotFound, "unknown brand")
	}
	b := brand.Resolve(slug)

	query := h.DB.Model(&models.Product{}).Order("id DESC").Limit(12)
	if b.Slug != brand.DefaultSlug {
		query = query.Where("brand = ?", b.Slug)
	}

	var featured []models.Product
	if err := query.Find(&featured).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"brand":    b,
		"featured": featured,
	})
}

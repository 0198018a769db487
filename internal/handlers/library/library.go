package library

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/gospelline/storefront/internal/handlers"
	"github.com/gospelline/storefront/internal/models"
)

type LibraryHandler struct {
	DB        *gorm.DB
	JWTSecret []byte
}

type libraryEntry struct {
	Purchase models.Purchase `json:"purchase"`
	Product  models.Product  `json:"product"`
}

// List returns the session user's purchased courses.
func (h *LibraryHandler) List(c echo.Context) error {
	userID, err := handlers.GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var purchases []models.Purchase
	if err := h.DB.Where("user_id = ?", userID).Order("purchased_at DESC").Find(&purchases).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	out := make([]libraryEntry, 0, len(purchases))
	for _, p := range purchases {
		entry := libraryEntry{Purchase: p}
		if err := h.DB.First(&entry.Product, p.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		out = append(out, entry)
	}
	return c.JSON(http.StatusOK, out)
}

// Lessons is gated on ownership: playback is only available for
// purchased products.
func (h *LibraryHandler) Lessons(c echo.Context) error {
	userID, err := handlers.GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	productID, err := strconv.Atoi(c.Param("id"))
	if err != nil || productID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	var owned int64
	if err := h.DB.Model(&models.Purchase{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&owned).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if owned == 0 {
		return echo.NewHTTPError(http.StatusForbidden, "course not purchased")
	}

	var lessons []models.CourseLesson
	if err := h.DB.Where("product_id = ?", productID).Order("position ASC").Find(&lessons).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, lessons)
}

func (h *LibraryHandler) UpdateProgress(c echo.Context) error {
	userID, err := handlers.GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	lessonID, err := strconv.Atoi(c.Param("id"))
	if err != nil || lessonID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid lesson id")
	}

	var req struct {
		PositionSeconds int  `json:"position_seconds"`
		Completed       bool `json:"completed"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	if req.PositionSeconds < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "position must be non-negative")
	}

	var lesson models.CourseLesson
	if err := h.DB.First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "lesson not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var progress models.WatchProgress
	tx := h.DB.Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&progress)
	if tx.Error != nil {
		if !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusInternalServerError, tx.Error.Error())
		}
		progress = models.WatchProgress{UserID: userID, LessonID: uint(lessonID)}
	}

	progress.PositionSeconds = req.PositionSeconds
	progress.Completed = req.Completed
	progress.UpdatedAt = time.Now()

	if err := h.DB.Save(&progress).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, progress)
}

func (h *LibraryHandler) GetProgress(c echo.Context) error {
	userID, err := handlers.GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	lessonID, err := strconv.Atoi(c.Param("id"))
	if err != nil || lessonID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid lesson id")
	}

	var progress models.WatchProgress
	if err := h.DB.Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&progress).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusOK, models.WatchProgress{UserID: userID, LessonID: uint(lessonID)})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, progress)
}

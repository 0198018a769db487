package handlers

import (
	"errors"
	"net/http"
	"strings"
	"unicode"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/gospelline/storefront/internal/models"
)

type ProfileHandler struct {
	DB        *gorm.DB
	JWTSecret []byte
}

// UserProfile is derived per request, never persisted on its own.
type UserProfile struct {
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
	AvatarURL string `json:"avatarUrl"`
}

func (h *ProfileHandler) GetProfile(c echo.Context) error {
	userID, err := GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}

	var profile models.Profile
	profErr := h.DB.Where("user_id = ?", userID).First(&profile).Error
	if profErr != nil && !errors.Is(profErr, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, profErr.Error())
	}

	return c.JSON(http.StatusOK, ResolveProfile(user, profile))
}

func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	userID, err := GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var req struct {
		FullName  string `json:"full_name"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	var profile models.Profile
	if err := h.DB.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		profile = models.Profile{UserID: userID}
	}

	if req.FullName != "" {
		profile.FullName = req.FullName
	}
	if req.AvatarURL != "" {
		profile.AvatarURL = req.AvatarURL
	}

	if err := h.DB.Save(&profile).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, profile)
}

// ResolveProfile derives the display identity. Fallback order: stored
// profile row, auth metadata, then a heuristic from the email local-part.
func ResolveProfile(user models.User, profile models.Profile) UserProfile {
	name := profile.FullName
	if name == "" {
		name = user.DisplayName
	}
	if name == "" {
		name = NameFromEmail(user.Email)
	}
	return UserProfile{
		UserName:  name,
		UserEmail: user.Email,
		AvatarURL: profile.AvatarURL,
	}
}

// NameFromEmail turns "jane.doe@example.com" into "Jane Doe".
func NameFromEmail(email string) string {
	local := email
	if at := strings.Index(email, "@"); at >= 0 {
		local = email[:at]
	}
	local = strings.Map(func(r rune) rune {
		switch r {
		case '.', '_', '-':
			return ' '
		}
		return r
	}, local)

	words := strings.Fields(local)
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

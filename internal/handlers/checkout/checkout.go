package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/gospelline/storefront/internal/brand"
	"github.com/gospelline/storefront/internal/events"
	"github.com/gospelline/storefront/internal/handlers"
	"github.com/gospelline/storefront/internal/metrics"
	"github.com/gospelline/storefront/internal/models"
	"github.com/gospelline/storefront/internal/paystack"
)

type CheckoutHandler struct {
	DB         *gorm.DB
	Paystack   *paystack.Client
	Producer   *events.Producer
	JWTSecret  []byte
	AppBaseURL string
}

func (h *CheckoutHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, events.TopicPaymentEvents, fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

type billingDetails struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Initialize validates the cart, recomputes the authoritative total from
// the products table (client prices are never trusted), and asks the
// gateway for a hosted payment page. Once the URL is returned the flow
// is one-way; completion arrives via the webhook.
func (h *CheckoutHandler) Initialize(c echo.Context) error {
	userID, err := handlers.GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var req struct {
		BillingDetails billingDetails `json:"billing_details"`
		Brand          string         `json:"brand"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	var items []models.CartItem
	if err := h.DB.Where("user_id = ?", userID).Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if len(items) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "cart is empty")
	}

	if req.BillingDetails.Name == "" || req.BillingDetails.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "billing name and email are required")
	}

	var total int64
	cartSnapshot := make([]paystack.CartEntry, 0, len(items))
	for _, it := range items {
		var p models.Product
		if err := h.DB.First(&p, it.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return echo.NewHTTPError(http.StatusBadRequest, "product not found")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		total += p.Price * int64(it.Quantity)
		cartSnapshot = append(cartSnapshot, paystack.CartEntry{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}

	b := brand.Resolve(req.Brand)
	reference := uuid.NewString()

	init, err := h.Paystack.InitializeTransaction(c.Request().Context(), paystack.InitializeRequest{
		Email:       req.BillingDetails.Email,
		Amount:      total,
		Reference:   reference,
		CallbackURL: h.AppBaseURL + b.CallbackPath,
		Metadata: paystack.Metadata{
			UserID: userID,
			Type:   "checkout",
			Brand:  b.Slug,
			Cart:   cartSnapshot,
		},
	})
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	metrics.PaymentsInitializedTotal.WithLabelValues("checkout").Inc()
	h.publish(c, map[string]any{
		"type":      "payment_initialized",
		"userID":    userID,
		"reference": init.Reference,
		"amount":    total,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"authorization_url": init.AuthorizationURL,
		"reference":         init.Reference,
	})
}

func (h *CheckoutHandler) InitializeDonation(c echo.Context) error {
	userID, err := handlers.GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var req struct {
		Amount       int64  `json:"amount"`
		Brand        string `json:"brand"`
		ProductID    *uint  `json:"product_id"`
		ProductTitle string `json:"product_title"`
		Email        string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	if req.Amount <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "amount must be a positive number")
	}

	email := req.Email
	if email == "" {
		var user models.User
		if err := h.DB.First(&user, userID).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		email = user.Email
	}

	b := brand.Resolve(req.Brand)
	reference := uuid.NewString()

	init, err := h.Paystack.InitializeTransaction(c.Request().Context(), paystack.InitializeRequest{
		Email:       email,
		Amount:      req.Amount,
		Reference:   reference,
		CallbackURL: h.AppBaseURL + b.DonationPath + "?donation=success",
		Metadata: paystack.Metadata{
			UserID:       userID,
			Type:         "donation",
			Brand:        b.Slug,
			ProductID:    req.ProductID,
			ProductTitle: req.ProductTitle,
		},
	})
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	metrics.PaymentsInitializedTotal.WithLabelValues("donation").Inc()
	h.publish(c, map[string]any{
		"type":      "donation_initialized",
		"userID":    userID,
		"reference": init.Reference,
		"amount":    req.Amount,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"authorization_url": init.AuthorizationURL,
		"reference":         init.Reference,
	})
}

// PaymentStatus is the server-confirmed completion signal. The client
// polls it after returning from the gateway instead of trusting a query
// parameter on the return URL.
func (h *CheckoutHandler) PaymentStatus(c echo.Context) error {
	userID, err := handlers.GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	reference := c.Param("reference")
	if reference == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing reference")
	}

	var purchases []models.Purchase
	if err := h.DB.Where("user_id = ? AND payment_reference = ?", userID, reference).
		Find(&purchases).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if len(purchases) == 0 {
		return c.JSON(http.StatusOK, echo.Map{"status": "pending"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "confirmed", "purchases": purchases})
}

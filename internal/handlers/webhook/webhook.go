package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/gospelline/storefront/internal/events"
	"github.com/gospelline/storefront/internal/metrics"
	"github.com/gospelline/storefront/internal/models"
	"github.com/gospelline/storefront/internal/paystack"
	"github.com/gospelline/storefront/internal/realtime"
)

const SignatureHeader = "x-paystack-signature"

// PaystackHandler is the authoritative boundary: purchase rows are only
// ever written here, after the gateway's signature checks out.
type PaystackHandler struct {
	DB       *gorm.DB
	Secret   []byte
	Hub      *realtime.Hub
	Producer *events.Producer
}

type gatewayEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string            `json:"reference"`
		Amount    int64             `json:"amount"`
		Metadata  paystack.Metadata `json:"metadata"`
	} `json:"data"`
}

// Sign computes the hex HMAC-SHA512 of a raw webhook body.
func Sign(body, secret []byte) string {
	mac := hmac.New(sha512.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (h *PaystackHandler) Handle(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cannot read body"})
	}

	signature := c.Request().Header.Get(SignatureHeader)
	expected := Sign(body, h.Secret)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		metrics.WebhookRejectedTotal.Inc()
		return c.String(http.StatusUnauthorized, "Invalid signature")
	}

	var event gatewayEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cannot parse event"})
	}

	if event.Event != "charge.success" {
		return c.String(http.StatusOK, "OK")
	}

	// Donation charges are acknowledged but not persisted.
	if event.Data.Metadata.Type == "donation" {
		return c.String(http.StatusOK, "OK")
	}

	if err := h.recordPurchases(c, event); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	return c.String(http.StatusOK, "OK")
}

// recordPurchases re-fetches authoritative prices, inserts one purchase
// row per cart entry and deletes the matching cart rows. No idempotency
// key is checked; a gateway retry after a partial failure can duplicate
// rows. Any store failure returns an error so the gateway retries the
// whole delivery.
func (h *PaystackHandler) recordPurchases(c echo.Context, event gatewayEvent) error {
	userID := event.Data.Metadata.UserID
	if userID == 0 {
		return fmt.Errorf("missing user id in metadata")
	}

	for _, entry := range event.Data.Metadata.Cart {
		var p models.Product
		if err := h.DB.First(&p, entry.ProductID).Error; err != nil {
			return fmt.Errorf("product %d: %w", entry.ProductID, err)
		}

		purchase := models.Purchase{
			UserID:           userID,
			ProductID:        entry.ProductID,
			AmountPaid:       p.Price * int64(entry.Quantity),
			PaymentProvider:  "paystack",
			PaymentReference: event.Data.Reference,
			PurchasedAt:      time.Now(),
		}
		if err := h.DB.Create(&purchase).Error; err != nil {
			return fmt.Errorf("insert purchase: %w", err)
		}

		if err := h.DB.
			Where("user_id = ? AND product_id = ?", userID, entry.ProductID).
			Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("clear cart item: %w", err)
		}
	}

	metrics.PaymentsConfirmedTotal.Inc()
	h.notify(c, userID, event)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, events.TopicPaymentEvents, fmt.Sprint(userID), map[string]any{
		"type":      "payment_confirmed",
		"userID":    userID,
		"reference": event.Data.Reference,
		"amount":    event.Data.Amount,
	}); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}

	return nil
}

// notify is best-effort: a failed notification insert never fails the
// webhook, the purchase rows are already durable.
func (h *PaystackHandler) notify(c echo.Context, userID uint, event gatewayEvent) {
	n := models.Notification{
		UserID:    userID,
		Title:     "Purchase successful",
		Message:   fmt.Sprintf("Your payment %s has been confirmed.", event.Data.Reference),
		Type:      "purchase",
		CreatedAt: time.Now(),
	}
	if len(event.Data.Metadata.Cart) == 1 {
		id := event.Data.Metadata.Cart[0].ProductID
		n.RelatedProductID = &id
	}

	if err := h.DB.Create(&n).Error; err != nil {
		c.Logger().Errorf("notification insert error: %v", err)
		return
	}

	if h.Hub != nil {
		h.Hub.Push(userID, realtime.Event{Type: "INSERT", Table: "notifications", Payload: n})
		metrics.NotificationsPushedTotal.Inc()
	}
}

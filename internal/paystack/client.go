package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// CartEntry is the per-item snapshot carried through gateway metadata so
// the webhook can reconcile the charge against the user's cart.
type CartEntry struct {
	ProductID uint `json:"product_id"`
	Quantity  uint `json:"quantity"`
}

type Metadata struct {
	UserID       uint        `json:"user_id"`
	Type         string      `json:"type"` // checkout or donation
	Brand        string      `json:"brand,omitempty"`
	Cart         []CartEntry `json:"cart,omitempty"`
	ProductID    *uint       `json:"product_id,omitempty"`
	ProductTitle string      `json:"product_title,omitempty"`
}

type InitializeRequest struct {
	Email       string   `json:"email"`
	Amount      int64    `json:"amount"` // minor currency unit
	Reference   string   `json:"reference"`
	CallbackURL string   `json:"callback_url"`
	Metadata    Metadata `json:"metadata"`
}

type InitializeResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type Client struct {
	BaseURL    string
	SecretKey  string
	HTTPClient *http.Client
}

func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		BaseURL:    baseURL,
		SecretKey:  secretKey,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// InitializeTransaction asks the gateway for a hosted payment page. The
// caller redirects the browser to AuthorizationURL; everything after
// that happens on the gateway's side until the webhook fires.
func (c *Client) InitializeTransaction(ctx context.Context, req InitializeRequest) (*InitializeResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("paystack: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/transaction/initialize", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("paystack: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.SecretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("paystack: request failed: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		Status  bool               `json:"status"`
		Message string             `json:"message"`
		Data    InitializeResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("paystack: decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !body.Status {
		return nil, fmt.Errorf("paystack: initialize failed: %s", body.Message)
	}
	return &body.Data, nil
}

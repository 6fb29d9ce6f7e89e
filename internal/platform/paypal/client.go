package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"novelreader-backend/internal/common/config"
)

// Client is a thin PayPal REST client covering the two checkout calls the
// payment flow consumes: order creation and capture.
type Client struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
	secret     string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// Order is the result of a created checkout order.
type Order struct {
	OrderID     string
	ApprovalURL string
}

// CaptureResult carries the processor's final status for a capture attempt.
type CaptureResult struct {
	Status string
}

// StatusCompleted is the only capture status that releases coins.
const StatusCompleted = "COMPLETED"

func NewClient(cfg *config.Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:  strings.TrimRight(cfg.PayPal.BaseURL, "/"),
		clientID: cfg.PayPal.ClientID,
		secret:   cfg.PayPal.Secret,
	}
}

// Configured reports whether processor credentials are present. Callers fail
// closed before any external side effect when this is false.
func (c *Client) Configured() bool {
	return c.clientID != "" && c.secret != ""
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (c *Client) getAccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/oauth2/token",
		strings.NewReader("grant_type=client_credentials"))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.clientID, c.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token request returned %d: %s", resp.StatusCode, string(body))
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	c.accessToken = token.AccessToken
	// Refresh one minute early so an in-flight call never carries a stale token.
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn)*time.Second - time.Minute)

	return c.accessToken, nil
}

type orderRequest struct {
	Intent             string              `json:"intent"`
	PurchaseUnits      []purchaseUnit      `json:"purchase_units"`
	ApplicationContext *applicationContext `json:"application_context,omitempty"`
}

type purchaseUnit struct {
	Amount      amount `json:"amount"`
	Description string `json:"description,omitempty"`
}

type amount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type applicationContext struct {
	ReturnURL string `json:"return_url,omitempty"`
	CancelURL string `json:"cancel_url,omitempty"`
}

type orderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  []struct {
		Href string `json:"href"`
		Rel  string `json:"rel"`
	} `json:"links"`
}

// CreateOrder creates a checkout order and returns its ID together with the
// URL the buyer must be redirected to for approval.
func (c *Client) CreateOrder(ctx context.Context, amountUSD float64, description, returnURL, cancelURL string) (*Order, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("paypal credentials are not configured")
	}

	token, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	payload := orderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []purchaseUnit{{
			Amount: amount{
				CurrencyCode: "USD",
				Value:        fmt.Sprintf("%.2f", amountUSD),
			},
			Description: description,
		}},
		ApplicationContext: &applicationContext{
			ReturnURL: returnURL,
			CancelURL: cancelURL,
		},
	}

	var order orderResponse
	if err := c.post(ctx, token, "/v2/checkout/orders", payload, &order); err != nil {
		return nil, err
	}

	approvalURL := ""
	for _, link := range order.Links {
		if link.Rel == "approve" {
			approvalURL = link.Href
			break
		}
	}
	if order.ID == "" || approvalURL == "" {
		return nil, fmt.Errorf("order response missing id or approval link")
	}

	return &Order{OrderID: order.ID, ApprovalURL: approvalURL}, nil
}

// CaptureOrder captures previously approved funds for the order.
func (c *Client) CaptureOrder(ctx context.Context, orderID string) (*CaptureResult, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("paypal credentials are not configured")
	}
	if orderID == "" {
		return nil, fmt.Errorf("order id is required")
	}

	token, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	var order orderResponse
	path := "/v2/checkout/orders/" + orderID + "/capture"
	if err := c.post(ctx, token, path, struct{}{}, &order); err != nil {
		return nil, err
	}

	return &CaptureResult{Status: order.Status}, nil
}

func (c *Client) post(ctx context.Context, token, path string, payload, dest interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request to %s returned %d: %s", path, resp.StatusCode, string(respBody))
	}

	return json.NewDecoder(resp.Body).Decode(dest)
}

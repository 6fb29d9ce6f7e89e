package paypal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novelreader-backend/internal/common/config"
)

func newTestClient(baseURL string) *Client {
	cfg := &config.Config{}
	cfg.PayPal.ClientID = "client-id"
	cfg.PayPal.Secret = "client-secret"
	cfg.PayPal.BaseURL = baseURL
	return NewClient(cfg)
}

func tokenHandler(t *testing.T, tokenCalls *int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(tokenCalls, 1)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "client-id", user)
		assert.Equal(t, "client-secret", pass)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "test-token",
			"expires_in":   3600,
		})
	}
}

func TestConfigured(t *testing.T) {
	cfg := &config.Config{}
	assert.False(t, NewClient(cfg).Configured())

	cfg.PayPal.ClientID = "id"
	assert.False(t, NewClient(cfg).Configured())

	cfg.PayPal.Secret = "secret"
	assert.True(t, NewClient(cfg).Configured())
}

func TestCreateOrder(t *testing.T) {
	var tokenCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", tokenHandler(t, &tokenCalls))
	mux.HandleFunc("/v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "CAPTURE", payload["intent"])

		units := payload["purchase_units"].([]interface{})
		require.Len(t, units, 1)
		amount := units[0].(map[string]interface{})["amount"].(map[string]interface{})
		assert.Equal(t, "USD", amount["currency_code"])
		assert.Equal(t, "4.99", amount["value"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "ORDER-123",
			"status": "CREATED",
			"links": []map[string]string{
				{"href": "https://paypal.example/self", "rel": "self"},
				{"href": "https://paypal.example/approve", "rel": "approve"},
			},
		})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(srv.URL)
	order, err := client.CreateOrder(context.Background(), 4.99, "Basic pack", "https://app/return", "https://app/cancel")

	require.NoError(t, err)
	assert.Equal(t, "ORDER-123", order.OrderID)
	assert.Equal(t, "https://paypal.example/approve", order.ApprovalURL)
}

func TestCreateOrderMissingApprovalLink(t *testing.T) {
	var tokenCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", tokenHandler(t, &tokenCalls))
	mux.HandleFunc("/v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "ORDER-123",
			"status": "CREATED",
			"links":  []map[string]string{},
		})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := newTestClient(srv.URL).CreateOrder(context.Background(), 4.99, "", "", "")
	assert.Error(t, err)
}

func TestCaptureOrder(t *testing.T) {
	var tokenCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", tokenHandler(t, &tokenCalls))
	mux.HandleFunc("/v2/checkout/orders/ORDER-123/capture", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "ORDER-123",
			"status": "COMPLETED",
		})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	result, err := newTestClient(srv.URL).CaptureOrder(context.Background(), "ORDER-123")

	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, result.Status)
}

func TestCaptureOrderRequiresID(t *testing.T) {
	_, err := newTestClient("https://paypal.example").CaptureOrder(context.Background(), "")
	assert.Error(t, err)
}

func TestAccessTokenReused(t *testing.T) {
	var tokenCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", tokenHandler(t, &tokenCalls))
	mux.HandleFunc("/v2/checkout/orders/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "ORDER-1",
			"status": "COMPLETED",
		})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(srv.URL)

	_, err := client.CaptureOrder(context.Background(), "ORDER-1")
	require.NoError(t, err)
	_, err = client.CaptureOrder(context.Background(), "ORDER-1")
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls))
}

func TestErrorStatusSurfaced(t *testing.T) {
	var tokenCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", tokenHandler(t, &tokenCalls))
	mux.HandleFunc("/v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"name":"UNPROCESSABLE_ENTITY"}`))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := newTestClient(srv.URL).CreateOrder(context.Background(), 1.00, "", "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}

func TestUnconfiguredClientRejectsCalls(t *testing.T) {
	client := NewClient(&config.Config{})

	_, err := client.CreateOrder(context.Background(), 1.00, "", "", "")
	assert.Error(t, err)

	_, err = client.CaptureOrder(context.Background(), "ORDER-1")
	assert.Error(t, err)
}

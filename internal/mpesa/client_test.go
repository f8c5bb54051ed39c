package mpesa

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(authURL, pushURL, queryURL string) Config {
	return Config{
		ConsumerKey:    "key",
		ConsumerSecret: "secret",
		Shortcode:      "174379",
		Passkey:        "passkey",
		AuthURL:        authURL,
		STKPushURL:     pushURL,
		STKQueryURL:    queryURL,
		CallbackURL:    "https://example.com/api/payments/callback",
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := testConfig("a", "b", "c")
	require.NoError(t, cfg.Validate())

	cfg.Passkey = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "passkey")
}

func TestPasswordDerivation(t *testing.T) {
	c := NewClient(testConfig("a", "b", "c"))

	at := time.Date(2026, 8, 29, 14, 30, 15, 0, time.UTC)
	password, timestamp := c.Password(at)

	assert.Equal(t, "20260829143015", timestamp)
	decoded, err := base64.StdEncoding.DecodeString(password)
	require.NoError(t, err)
	assert.Equal(t, "174379passkey20260829143015", string(decoded))
}

func TestTokenIsCachedUntilExpiry(t *testing.T) {
	var authCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authCalls++
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token": "tok-1",
			"expires_in":   "3599",
		})
	}))
	defer srv.Close()

	now := time.Now()
	c := NewClient(testConfig(srv.URL, "", ""),
		WithHTTPClient(srv.Client()),
		WithClock(func() time.Time { return now }),
	)

	tok, err := c.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	tok, err = c.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.Equal(t, 1, authCalls, "second call must hit the cache")

	// Advance past expiry; the next call refreshes.
	now = now.Add(3600 * time.Second)
	_, err = c.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, authCalls)
}

func TestTokenAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL, "", ""), WithHTTPClient(srv.Client()))

	_, err := c.Token(context.Background())
	require.Error(t, err)
}

func TestSTKPushPayload(t *testing.T) {
	var captured stkPushPayload
	mux := http.NewServeMux()
	mux.HandleFunc("/auth", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok", "expires_in": "3599"})
	})
	mux.HandleFunc("/push", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(STKPushResponse{
			MerchantRequestID: "m-1",
			CheckoutRequestID: "c-1",
			ResponseCode:      "0",
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	at := time.Date(2026, 8, 29, 14, 30, 15, 0, time.UTC)
	c := NewClient(testConfig(srv.URL+"/auth", srv.URL+"/push", ""),
		WithHTTPClient(srv.Client()),
		WithClock(func() time.Time { return at }),
	)

	resp, err := c.STKPush(context.Background(), STKPushRequest{
		Phone:       "254712345678",
		Amount:      decimal.RequireFromString("2552.49"),
		Reference:   "order-1",
		Description: "Order order-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "c-1", resp.CheckoutRequestID)

	assert.Equal(t, "174379", captured.BusinessShortCode)
	assert.Equal(t, "CustomerPayBillOnline", captured.TransactionType)
	assert.Equal(t, "2552", captured.Amount, "amount is sent in whole shillings")
	assert.Equal(t, "254712345678", captured.PartyA)
	assert.Equal(t, "174379", captured.PartyB)
	assert.Equal(t, "254712345678", captured.PhoneNumber)
	assert.Equal(t, "https://example.com/api/payments/callback", captured.CallBackURL)
	assert.Equal(t, "order-1", captured.AccountReference)
	assert.Equal(t, "20260829143015", captured.Timestamp)

	wantPassword, _ := c.Password(at)
	assert.Equal(t, wantPassword, captured.Password)
}

func TestSTKQueryPayload(t *testing.T) {
	var captured stkQueryPayload
	mux := http.NewServeMux()
	mux.HandleFunc("/auth", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok", "expires_in": "3599"})
	})
	mux.HandleFunc("/query", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(STKQueryResponse{
			CheckoutRequestID: captured.CheckoutRequestID,
			ResultCode:        "0",
			ResultDesc:        "Processed successfully",
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(testConfig(srv.URL+"/auth", "", srv.URL+"/query"), WithHTTPClient(srv.Client()))

	resp, err := c.STKQuery(context.Background(), "checkout-42")
	require.NoError(t, err)

	assert.Equal(t, "checkout-42", captured.CheckoutRequestID)
	assert.Equal(t, "0", resp.ResultCode)
}

func TestSTKPushProviderError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok", "expires_in": "3599"})
	})
	mux.HandleFunc("/push", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"errorMessage":"Invalid Access Token"}`, http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(testConfig(srv.URL+"/auth", srv.URL+"/push", ""), WithHTTPClient(srv.Client()))

	_, err := c.STKPush(context.Background(), STKPushRequest{
		Phone:  "254712345678",
		Amount: decimal.NewFromInt(10),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid Access Token")
}

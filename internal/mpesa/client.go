// Package mpesa is a client for the Daraja payment API: OAuth token fetch,
// STK push and STK push status query.
package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// transactionType is the STK push transaction type constant for paybill
// shortcodes.
const transactionType = "CustomerPayBillOnline"

// tokenExpirySkew is subtracted from the provider's expires_in so a token is
// refreshed slightly before the provider rejects it.
const tokenExpirySkew = 10 * time.Second

// Config holds the provider credentials and endpoints. All fields are
// required; Validate is called at startup.
type Config struct {
	ConsumerKey    string
	ConsumerSecret string
	Shortcode      string
	Passkey        string
	AuthURL        string
	STKPushURL     string
	STKQueryURL    string
	CallbackURL    string
}

// Validate reports the first missing credential.
func (c Config) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"consumer key", c.ConsumerKey},
		{"consumer secret", c.ConsumerSecret},
		{"shortcode", c.Shortcode},
		{"passkey", c.Passkey},
		{"auth URL", c.AuthURL},
		{"STK push URL", c.STKPushURL},
		{"STK query URL", c.STKQueryURL},
		{"callback URL", c.CallbackURL},
	} {
		if f.value == "" {
			return errors.Errorf("mpesa %s is required", f.name)
		}
	}
	return nil
}

// accessToken is the single-slot token cache entry.
type accessToken struct {
	value     string
	expiresAt time.Time
}

// Client talks to the Daraja API. The token cache is owned by the client and
// guarded by a mutex; concurrent refreshes during an expiry window are
// harmless because the auth call is idempotent.
type Client struct {
	cfg  Config
	http *http.Client
	now  func() time.Time

	mu    sync.Mutex
	token accessToken
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a Client with a finite request timeout.
func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 15 * time.Second},
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CallbackURL returns the configured callback endpoint, used as the
// CallBackURL field on push requests.
func (c *Client) CallbackURL() string { return c.cfg.CallbackURL }

// authResponse is the provider's token grant body. expires_in arrives as a
// string.
type authResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// Token returns a valid bearer token, fetching a new one only when the
// cached token is absent or expired. Fetch failures surface to the caller;
// retries belong to the poller, not this layer.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	cached := c.token
	c.mu.Unlock()

	if cached.value != "" && cached.expiresAt.After(c.now()) {
		return cached.value, nil
	}
	return c.fetchToken(ctx)
}

// fetchToken requests a fresh token with basic auth and stores it in the
// cache slot.
func (c *Client) fetchToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.AuthURL, nil)
	if err != nil {
		return "", errors.Wrap(err, "build auth request")
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "auth request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.Errorf("auth request failed: %s", resp.Status)
	}

	var body authResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", errors.Wrap(err, "decode auth response")
	}
	if body.AccessToken == "" {
		return "", errors.New("auth response missing access_token")
	}

	ttl := 3599 * time.Second
	if secs, err := time.ParseDuration(body.ExpiresIn + "s"); err == nil && secs > 0 {
		ttl = secs
	}

	c.mu.Lock()
	c.token = accessToken{
		value:     body.AccessToken,
		expiresAt: c.now().Add(ttl - tokenExpirySkew),
	}
	c.mu.Unlock()

	return body.AccessToken, nil
}

// Password derives the STK request password for the given instant:
// base64(shortcode || passkey || timestamp), timestamp YYYYMMDDHHMMSS local.
func (c *Client) Password(t time.Time) (password, timestamp string) {
	timestamp = t.Format("20060102150405")
	password = base64.StdEncoding.EncodeToString([]byte(c.cfg.Shortcode + c.cfg.Passkey + timestamp))
	return password, timestamp
}

// STKPushRequest holds the caller-facing push parameters. Phone must already
// be in international 254XXXXXXXXX form.
type STKPushRequest struct {
	Phone       string
	Amount      decimal.Decimal
	Reference   string
	Description string
}

// STKPushResponse is the provider's synchronous acceptance body.
type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// stkPushPayload is the wire body for the push endpoint.
type stkPushPayload struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            string `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// STKPush sends a payment prompt to the customer's phone. The response is
// returned for any 2xx status; callers decide what a non-zero ResponseCode
// means.
func (c *Client) STKPush(ctx context.Context, req STKPushRequest) (*STKPushResponse, error) {
	password, timestamp := c.Password(c.now())
	payload := stkPushPayload{
		BusinessShortCode: c.cfg.Shortcode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   transactionType,
		Amount:            req.Amount.StringFixed(0),
		PartyA:            req.Phone,
		PartyB:            c.cfg.Shortcode,
		PhoneNumber:       req.Phone,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  req.Reference,
		TransactionDesc:   req.Description,
	}

	var resp STKPushResponse
	if err := c.post(ctx, c.cfg.STKPushURL, payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// STKQueryResponse is the provider's push status body. ResultCode is present
// only once the push has been resolved on the provider side.
type STKQueryResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	ResultCode          string `json:"ResultCode"`
	ResultDesc          string `json:"ResultDesc"`
}

// stkQueryPayload is the wire body for the query endpoint.
type stkQueryPayload struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
}

// STKQuery asks the provider for the outcome of a previously accepted push.
func (c *Client) STKQuery(ctx context.Context, checkoutRequestID string) (*STKQueryResponse, error) {
	password, timestamp := c.Password(c.now())
	payload := stkQueryPayload{
		BusinessShortCode: c.cfg.Shortcode,
		Password:          password,
		Timestamp:         timestamp,
		CheckoutRequestID: checkoutRequestID,
	}

	var resp STKQueryResponse
	if err := c.post(ctx, c.cfg.STKQueryURL, payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// post sends an authorized JSON request and decodes a JSON response.
func (c *Client) post(ctx context.Context, url string, payload, out any) error {
	token, err := c.Token(ctx)
	if err != nil {
		return errors.Wrap(err, "get access token")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("provider returned %s: %s", resp.Status, snippet)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

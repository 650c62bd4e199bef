// Package paymentgateway is the client of the hosted payment-link gateway.
//
// Link generation never fails from the caller's point of view: when the gateway cannot be
// reached the client returns a deterministic sandbox link instead.
package paymentgateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"dirwa-booking/config"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrNoToken is returned by calls that cannot fall back when no access token is available.
	ErrNoToken = errors.New("payment gateway: no access token")

	// ErrUnexpectedResponse wraps non-2xx or malformed gateway responses.
	ErrUnexpectedResponse = errors.New("payment gateway: unexpected response")
)

// tokenExpiryBuffer is subtracted from the provider's expires_in.
const tokenExpiryBuffer = 5 * time.Minute

// Client talks to the payment gateway. Safe for concurrent use.
type Client struct {
	cfg        config.PaymentConfig
	log        *logrus.Logger
	httpClient *http.Client
	now        func() time.Time

	// token cache
	mu          sync.RWMutex
	token       string
	tokenExpiry time.Time
	refresh     singleflight.Group
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func NewClient(cfg config.PaymentConfig, log *logrus.Logger, opts ...Option) *Client {
	if cfg.TokenTimeout <= 0 {
		cfg.TokenTimeout = 15 * time.Second
	}
	if cfg.LinkTimeout <= 0 {
		cfg.LinkTimeout = 30 * time.Second
	}
	if cfg.StatusTimeout <= 0 {
		cfg.StatusTimeout = 15 * time.Second
	}
	if cfg.RefundPath == "" {
		cfg.RefundPath = "RefundTransaction"
	}

	c := &Client{
		cfg:        cfg,
		log:        log,
		httpClient: &http.Client{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// tokenResponse is the password-grant response.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// AccessToken returns the cached token while it is valid, otherwise fetches a new one.
// Concurrent refreshes are coalesced. Any failure yields an empty string.
func (c *Client) AccessToken(ctx context.Context) string {
	if token, ok := c.cachedToken(); ok {
		return token
	}

	v, _, _ := c.refresh.Do("token", func() (interface{}, error) {
		if token, ok := c.cachedToken(); ok {
			return token, nil
		}
		return c.fetchToken(ctx), nil
	})
	token, _ := v.(string)
	return token
}

func (c *Client) cachedToken() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.token == "" || !c.now().Before(c.tokenExpiry) {
		return "", false
	}
	return c.token, true
}

func (c *Client) fetchToken(ctx context.Context) string {
	// shared by every caller waiting on the same refresh
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.TokenTimeout)
	defer cancel()

	logger := c.log.WithField("endpoint", c.cfg.TokenURL)

	form := url.Values{
		"grant_type":    {"password"},
		"username":      {c.cfg.Username},
		"password":      {c.cfg.Password},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		logger.Warnf("Failed to build token request: %+v", err)
		return ""
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	var body tokenResponse
	if err := c.do(req, &body); err != nil {
		logger.Warnf("Failed to obtain gateway token: %+v", err)
		return ""
	}
	if body.AccessToken == "" {
		logger.Warn("Gateway token response has no access_token")
		return ""
	}

	expiry := c.now().Add(time.Duration(body.ExpiresIn)*time.Second - tokenExpiryBuffer)

	c.mu.Lock()
	c.token = body.AccessToken
	c.tokenExpiry = expiry
	c.mu.Unlock()

	logger.WithField("expires_at", expiry).Debug("Gateway token refreshed")
	return body.AccessToken
}

// do sends req and decodes a 2xx JSON body into out.
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d: %s", ErrUnexpectedResponse, resp.StatusCode, truncate(string(raw), 200))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrUnexpectedResponse, err)
	}
	return nil
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.cfg.APIBaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) authorizedRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	token := c.AccessToken(ctx)
	if token == "" {
		return nil, ErrNoToken
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

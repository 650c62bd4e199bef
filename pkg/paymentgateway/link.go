package paymentgateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// maxDescriptionRunes is the longest description the gateway accepts.
const maxDescriptionRunes = 39

var descriptionDisallowed = regexp.MustCompile(`[^a-zA-Z0-9\x{0600}-\x{06FF}\s]`)

// LinkRequest describes one payment link.
type LinkRequest struct {
	Email       string
	Name        string
	Mobile      string
	Description string
	Reference   string
	Amount      decimal.Decimal
}

// PaymentLink is the result of GenerateLink. Sandbox is true for fallback links.
type PaymentLink struct {
	PaymentURL string `json:"paymentUrl"`
	Reference  string `json:"reference"`
	SessionID  string `json:"sessionId"`
	UUID       string `json:"uuid"`
	Sandbox    bool   `json:"sandbox"`
}

type generateLinkRequest struct {
	ProjectCode    string `json:"ProjectCode"`
	Description    string `json:"Description"`
	Amount         string `json:"Amount"`
	CustomerEmail  string `json:"CustomerEmail"`
	CustomerMobile string `json:"CustomerMobile"`
	CustomerName   string `json:"CustomerName"`
	Reference      string `json:"Reference"`
	SecureHash     string `json:"SecureHash"`
	Currency       string `json:"Currency"`
	Language       string `json:"Language"`
}

type generateLinkResponse struct {
	PaymentURL string `json:"PaymentUrl"`
	SessionID  string `json:"SessionId"`
	UUID       string `json:"Uuid"`
}

// FormatAmount renders amount with exactly two decimals.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// SanitizeDescription truncates to the gateway limit, then keeps only
// latin letters, digits, Arabic script and whitespace.
func SanitizeDescription(s string) string {
	runes := []rune(s)
	if len(runes) > maxDescriptionRunes {
		runes = runes[:maxDescriptionRunes]
	}
	return descriptionDisallowed.ReplaceAllString(string(runes), "")
}

// ComputeSecureHash signs the ordered concatenation
// Email + Name + Mobile + Description + ProjectCode + Reference + Amount
// with HMAC-SHA256 keyed by secret, base64 encoded.
func ComputeSecureHash(secret, projectCode string, req LinkRequest) string {
	var b strings.Builder
	b.WriteString(req.Email)
	b.WriteString(req.Name)
	b.WriteString(req.Mobile)
	b.WriteString(req.Description)
	b.WriteString(projectCode)
	b.WriteString(req.Reference)
	b.WriteString(FormatAmount(req.Amount))

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// SecureHash signs req with the configured client secret and project code.
func (c *Client) SecureHash(req LinkRequest) string {
	return ComputeSecureHash(c.cfg.ClientSecret, c.cfg.ProjectCode, req)
}

// GenerateLink requests a hosted payment page. It always returns a usable link:
// any gateway failure produces a sandbox link derived from reference, amount and time.
func (c *Client) GenerateLink(ctx context.Context, req LinkRequest) PaymentLink {
	req.Description = SanitizeDescription(req.Description)

	logger := c.log.WithFields(logrus.Fields{
		"reference": req.Reference,
		"amount":    FormatAmount(req.Amount),
		"endpoint":  "GenerateLinks",
	})

	link, err := c.generateLink(ctx, req)
	if err != nil {
		logger.Warnf("Payment link generation failed, using sandbox link: %+v", err)
		return c.FallbackLink(req.Reference, req.Amount)
	}

	logger.Info("Payment link generated")
	return link
}

func (c *Client) generateLink(ctx context.Context, req LinkRequest) (PaymentLink, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.LinkTimeout)
	defer cancel()

	payload, err := json.Marshal(generateLinkRequest{
		ProjectCode:    c.cfg.ProjectCode,
		Description:    req.Description,
		Amount:         FormatAmount(req.Amount),
		CustomerEmail:  req.Email,
		CustomerMobile: req.Mobile,
		CustomerName:   req.Name,
		Reference:      req.Reference,
		SecureHash:     c.SecureHash(req),
		Currency:       c.cfg.Currency,
		Language:       c.cfg.Language,
	})
	if err != nil {
		return PaymentLink{}, fmt.Errorf("marshal link request: %w", err)
	}

	httpReq, err := c.authorizedRequest(ctx, http.MethodPost, c.endpoint("GenerateLinks"), bytes.NewReader(payload))
	if err != nil {
		return PaymentLink{}, err
	}

	var resp generateLinkResponse
	if err := c.do(httpReq, &resp); err != nil {
		return PaymentLink{}, err
	}
	if resp.PaymentURL == "" || resp.SessionID == "" || resp.UUID == "" {
		return PaymentLink{}, fmt.Errorf("%w: missing PaymentUrl, SessionId or Uuid", ErrUnexpectedResponse)
	}

	return PaymentLink{
		PaymentURL: resp.PaymentURL,
		Reference:  req.Reference,
		SessionID:  resp.SessionID,
		UUID:       resp.UUID,
	}, nil
}

// FallbackLink derives a sandbox link from (reference, amount, now).
// The same inputs at the same instant always give the same link.
func (c *Client) FallbackLink(reference string, amount decimal.Decimal) PaymentLink {
	ts := c.now().UnixMilli()
	sessionID := derivedID("session", reference, amount, ts)
	transactionID := derivedID("transaction", reference, amount, ts)

	return PaymentLink{
		PaymentURL: fmt.Sprintf("https://sandbox.%s/payment/%s/%s", c.sandboxHost(), sessionID, transactionID),
		Reference:  reference,
		SessionID:  sessionID,
		UUID:       transactionID,
		Sandbox:    true,
	}
}

func derivedID(kind, reference string, amount decimal.Decimal, ts int64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%d", kind, reference, FormatAmount(amount), ts)))
	return hex.EncodeToString(sum[:])[:24]
}

func (c *Client) sandboxHost() string {
	if c.cfg.SandboxHost != "" {
		return c.cfg.SandboxHost
	}
	if u, err := url.Parse(c.cfg.APIBaseURL); err == nil && u.Hostname() != "" {
		return strings.TrimPrefix(u.Hostname(), "api.")
	}
	return "localhost"
}

package paymentgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// StatusCodeSuccess is the provider code of a settled transaction.
const StatusCodeSuccess = "0000"

// Outcome is the normalized result of a status query.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePending Outcome = "pending"
	OutcomeFailed  Outcome = "failed"
)

// ErrRefundRejected is returned when the gateway declines a refund.
var ErrRefundRejected = errors.New("payment gateway: refund rejected")

// Verification is the gateway's view of a transaction.
type Verification struct {
	Reference         string          `json:"reference"`
	TransactionID     string          `json:"transactionId"`
	StatusCode        string          `json:"statusCode"`
	StatusDescription string          `json:"statusDescription"`
	Amount            decimal.Decimal `json:"amount"`
	PaymentSuccessful bool            `json:"paymentSuccessful"`
	Outcome           Outcome         `json:"outcome"`
}

type transactionStatusResponse struct {
	Success           bool            `json:"success"`
	TransactionStatus string          `json:"TransactionStatus"`
	StatusDescription string          `json:"StatusDescription"`
	TransactionID     string          `json:"TransactionID"`
	Amount            decimal.Decimal `json:"Amount"`
}

// ClassifyStatus maps a provider status code and description to an Outcome.
// Only '0000' counts as success.
func ClassifyStatus(code, description string) Outcome {
	if code == StatusCodeSuccess {
		return OutcomeSuccess
	}
	text := strings.ToLower(code + " " + description)
	for _, marker := range []string{"pending", "progress", "initiated", "processing"} {
		if strings.Contains(text, marker) {
			return OutcomePending
		}
	}
	return OutcomeFailed
}

// VerifyPaymentByReference queries the transaction status for a client reference.
// Errors mean the gateway could not be asked; they never mean "failed payment".
func (c *Client) VerifyPaymentByReference(ctx context.Context, reference string) (*Verification, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.StatusTimeout)
	defer cancel()

	target := c.endpoint("GetTransactionDetailStatusByClientReference") + "?" +
		url.Values{"ReferenceNo": {reference}}.Encode()

	req, err := c.authorizedRequest(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	var resp transactionStatusResponse
	if err := c.do(req, &resp); err != nil {
		c.log.WithFields(logrus.Fields{
			"reference": reference,
			"endpoint":  "GetTransactionDetailStatusByClientReference",
		}).Warnf("Transaction status query failed: %+v", err)
		return nil, err
	}

	outcome := ClassifyStatus(resp.TransactionStatus, resp.StatusDescription)
	return &Verification{
		Reference:         reference,
		TransactionID:     resp.TransactionID,
		StatusCode:        resp.TransactionStatus,
		StatusDescription: resp.StatusDescription,
		Amount:            resp.Amount,
		PaymentSuccessful: outcome == OutcomeSuccess,
		Outcome:           outcome,
	}, nil
}

// PaymentChannels returns the gateway's channel list for a session unchanged.
func (c *Client) PaymentChannels(ctx context.Context, sessionID, uuid string) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.StatusTimeout)
	defer cancel()

	target := c.endpoint("PaymentChannels") + "?" + url.Values{"SessionID": {sessionID}, "uuid": {uuid}}.Encode()
	req, err := c.authorizedRequest(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	var channels json.RawMessage
	if err := c.do(req, &channels); err != nil {
		return nil, err
	}
	return channels, nil
}

type refundRequest struct {
	TransactionID string `json:"TransactionID"`
	Amount        string `json:"Amount"`
	ProjectCode   string `json:"ProjectCode"`
}

// RefundResult is the gateway's answer to a refund.
type RefundResult struct {
	TransactionID string `json:"transactionId"`
	RefundID      string `json:"refundId"`
	Message       string `json:"message"`
}

type refundResponse struct {
	Success  bool   `json:"success"`
	RefundID string `json:"RefundID"`
	Message  string `json:"Message"`
}

// Refund asks the gateway to refund amount of a settled transaction.
func (c *Client) Refund(ctx context.Context, transactionID string, amount decimal.Decimal) (*RefundResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.LinkTimeout)
	defer cancel()

	payload, err := json.Marshal(refundRequest{
		TransactionID: transactionID,
		Amount:        FormatAmount(amount),
		ProjectCode:   c.cfg.ProjectCode,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal refund request: %w", err)
	}

	req, err := c.authorizedRequest(ctx, http.MethodPost, c.endpoint(c.cfg.RefundPath), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	var resp refundResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("%w: %s", ErrRefundRejected, resp.Message)
	}

	c.log.WithFields(logrus.Fields{
		"transaction_id": transactionID,
		"amount":         FormatAmount(amount),
		"refund_id":      resp.RefundID,
	}).Info("Refund accepted")

	return &RefundResult{TransactionID: transactionID, RefundID: resp.RefundID, Message: resp.Message}, nil
}

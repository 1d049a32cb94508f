// Package paystack implements the gateway contract against the Paystack
// REST API.
package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/esusuhq/esusu/internal/apperror"
	"github.com/esusuhq/esusu/internal/gateway"
)

const defaultBaseURL = "https://api.paystack.co"

// Ensure Client implements gateway.Gateway.
var _ gateway.Gateway = (*Client)(nil)

// Client talks to the Paystack API with bearer authentication and a bounded
// per-call timeout.
type Client struct {
	baseURL   string
	secretKey string
	currency  string
	http      *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithTimeout bounds each API call. A call past the deadline is a transient
// gateway failure.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New creates a Paystack client. currency tags transfers and refunds
// (Paystack wants it spelled out per request).
func New(secretKey, currency string, opts ...Option) *Client {
	c := &Client{
		baseURL:   defaultBaseURL,
		secretKey: secretKey,
		currency:  currency,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the response wrapper every Paystack endpoint shares.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// call performs one API request and decodes the shared envelope. A transport
// failure or non-2xx status is transient; status=false in the body is a
// business rejection.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body any) (*envelope, error) {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &apperror.GatewayError{Msg: "paystack request failed", Transient: true, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperror.GatewayError{Msg: "paystack response read failed", Transient: true, Err: err}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &apperror.GatewayError{Msg: "paystack response malformed", Transient: true, Err: err}
	}

	if resp.StatusCode >= 500 {
		return nil, &apperror.GatewayError{
			Msg:       fmt.Sprintf("paystack unavailable (%d): %s", resp.StatusCode, env.Message),
			Transient: true,
		}
	}
	if !env.Status {
		return nil, &apperror.GatewayError{Msg: env.Message}
	}

	return &env, nil
}

// VerifyAccount resolves an account number against a bank code.
// https://paystack.com/docs/transfers/single-transfers#verify-the-account-number
func (c *Client) VerifyAccount(ctx context.Context, accountNumber, bankCode string) (*gateway.AccountVerification, error) {
	query := url.Values{
		"account_number": {accountNumber},
		"bank_code":      {bankCode},
	}

	env, err := c.call(ctx, http.MethodGet, "/bank/resolve", query, nil)
	if err != nil {
		return nil, err
	}

	var data struct {
		AccountName string `json:"account_name"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, &apperror.GatewayError{Msg: "paystack resolve payload malformed", Transient: true, Err: err}
	}

	return &gateway.AccountVerification{AccountName: data.AccountName}, nil
}

// CreateTransferRecipient registers a nuban transfer target.
// https://paystack.com/docs/transfers/single-transfers#create-a-transfer-recipient
func (c *Client) CreateTransferRecipient(ctx context.Context, name, accountNumber, bankCode, currency string) (*gateway.TransferRecipient, error) {
	body := map[string]string{
		"type":           "nuban",
		"name":           name,
		"account_number": accountNumber,
		"bank_code":      bankCode,
		"currency":       currency,
	}

	env, err := c.call(ctx, http.MethodPost, "/transferrecipient", nil, body)
	if err != nil {
		return nil, err
	}

	var data struct {
		RecipientCode string `json:"recipient_code"`
		Details       struct {
			AccountName string `json:"account_name"`
			BankName    string `json:"bank_name"`
		} `json:"details"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, &apperror.GatewayError{Msg: "paystack recipient payload malformed", Transient: true, Err: err}
	}

	return &gateway.TransferRecipient{
		RecipientCode: data.RecipientCode,
		BankName:      data.Details.BankName,
		AccountName:   data.Details.AccountName,
	}, nil
}

// VerifyTransaction confirms the status of a transaction reference.
// https://paystack.com/docs/api/#transaction-verify
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*gateway.TransactionVerification, error) {
	env, err := c.call(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, nil)
	if err != nil {
		return nil, err
	}

	var data struct {
		Status        string `json:"status"`
		Reference     string `json:"reference"`
		Amount        int64  `json:"amount"`
		Authorization struct {
			AuthorizationCode string `json:"authorization_code"`
			Signature         string `json:"signature"`
			Last4             string `json:"last4"`
			ExpMonth          string `json:"exp_month"`
			ExpYear           string `json:"exp_year"`
		} `json:"authorization"`
		Customer struct {
			Email string `json:"email"`
		} `json:"customer"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, &apperror.GatewayError{Msg: "paystack verify payload malformed", Transient: true, Err: err}
	}

	return &gateway.TransactionVerification{
		Status:        data.Status,
		Reference:     data.Reference,
		AmountMinor:   data.Amount,
		CustomerEmail: data.Customer.Email,
		Authorization: gateway.CardAuthorization{
			AuthorizationCode: data.Authorization.AuthorizationCode,
			Signature:         data.Authorization.Signature,
			Last4:             data.Authorization.Last4,
			ExpMonth:          data.Authorization.ExpMonth,
			ExpYear:           data.Authorization.ExpYear,
		},
	}, nil
}

// ChargeSavedInstrument charges a saved card authorization.
// https://paystack.com/docs/payments/recurring-charges/#charge-the-authorization
func (c *Client) ChargeSavedInstrument(ctx context.Context, authorizationCode, email string, amountMinor int64) (*gateway.ChargeResult, error) {
	body := map[string]any{
		"authorization_code": authorizationCode,
		"email":              email,
		"amount":             amountMinor,
	}

	env, err := c.call(ctx, http.MethodPost, "/transaction/charge_authorization", nil, body)
	if err != nil {
		return nil, err
	}

	var data struct {
		Status    string `json:"status"`
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, &apperror.GatewayError{Msg: "paystack charge payload malformed", Transient: true, Err: err}
	}

	return &gateway.ChargeResult{
		Status:      data.Status,
		Reference:   data.Reference,
		AmountMinor: data.Amount,
	}, nil
}

// InitiateTransfer sends amountMinor from the balance to a recipient.
// https://paystack.com/docs/transfers/single-transfers#initiate-a-transfer
func (c *Client) InitiateTransfer(ctx context.Context, recipientCode string, amountMinor int64) (*gateway.TransferResult, error) {
	body := map[string]any{
		"source":    "balance",
		"currency":  c.currency,
		"recipient": recipientCode,
		"amount":    amountMinor,
	}

	env, err := c.call(ctx, http.MethodPost, "/transfer", nil, body)
	if err != nil {
		return nil, err
	}

	var data struct {
		Status    string `json:"status"`
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, &apperror.GatewayError{Msg: "paystack transfer payload malformed", Transient: true, Err: err}
	}

	return &gateway.TransferResult{
		Status:      data.Status,
		Reference:   data.Reference,
		AmountMinor: data.Amount,
	}, nil
}

// Refund reverses the transaction behind reference.
// https://paystack.com/docs/payments/refunds/#creating-a-refund
func (c *Client) Refund(ctx context.Context, reference string) error {
	body := map[string]string{"transaction": reference}

	_, err := c.call(ctx, http.MethodPost, "/refund", nil, body)
	return err
}

// Package cardpay implements the external charge capability against a
// Stripe-style card-processing HTTP API. It exposes exactly one operation
// and classifies every failure into the closed payment outcome taxonomy.
package cardpay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/payment"
)

// Config holds provider credentials and endpoint settings. The secret key is
// injected here at construction time, never read from ambient global state.
type Config struct {
	// BaseURL is the provider API root, e.g. https://api.cardpay.example.
	BaseURL string
	// SecretKey authenticates requests via the Authorization header.
	SecretKey string
}

// Client implements payment.Charger over HTTP.
type Client struct {
	cfg  Config
	http *http.Client
}

var _ payment.Charger = (*Client)(nil)

// New creates a Client. The http.Client controls transport concerns
// (instrumentation, proxies); per-charge deadlines come from the context.
func New(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{cfg: cfg, http: httpClient}
}

// chargeResponse is the provider wire format for both outcomes.
type chargeResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Charge posts a charge for the given amount in minor units. Failures are
// returned as *payment.ProviderError; the caller can rely on the taxonomy
// being exhaustive.
func (c *Client) Charge(ctx context.Context, req payment.ChargeRequest) (*payment.Charge, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.AmountMinor, 10))
	form.Set("currency", req.Currency)
	form.Set("source", req.Token)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/v1/charges", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "build charge request")
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &payment.ProviderError{
			Kind:    payment.KindNetworkError,
			Message: "reading provider response failed",
			Err:     err,
		}
	}

	var cr chargeResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, &payment.ProviderError{
			Kind:    payment.KindUnknown,
			Message: "unparseable provider response",
			Err:     err,
		}
	}

	if resp.StatusCode == http.StatusOK && cr.ID != "" {
		return &payment.Charge{ID: cr.ID}, nil
	}

	return nil, classifyAPIError(resp.StatusCode, cr)
}

// classifyTransportError maps request transport failures: deadline expiry
// means the provider is unreachable or overloaded, anything else is a
// network fault.
func classifyTransportError(err error) *payment.ProviderError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &payment.ProviderError{
			Kind:    payment.KindProviderUnavailable,
			Message: "payment provider timed out",
			Err:     err,
		}
	}
	return &payment.ProviderError{
		Kind:    payment.KindNetworkError,
		Message: "network communication with the payment provider failed",
		Err:     err,
	}
}

// classifyAPIError maps provider error types and HTTP status codes onto the
// outcome taxonomy.
func classifyAPIError(status int, cr chargeResponse) *payment.ProviderError {
	msg := ""
	errType := ""
	if cr.Error != nil {
		msg = cr.Error.Message
		errType = cr.Error.Type
	}

	switch errType {
	case "card_error":
		return &payment.ProviderError{Kind: payment.KindCardDeclined, Message: msg}
	case "rate_limit_error":
		return &payment.ProviderError{Kind: payment.KindRateLimited, Message: "rate limit error"}
	case "invalid_request_error":
		return &payment.ProviderError{Kind: payment.KindInvalidRequest, Message: "invalid parameters"}
	case "authentication_error":
		return &payment.ProviderError{Kind: payment.KindAuthFailed, Message: "not authenticated"}
	case "api_connection_error":
		return &payment.ProviderError{Kind: payment.KindNetworkError, Message: "network error"}
	}

	switch {
	case status == http.StatusPaymentRequired:
		return &payment.ProviderError{Kind: payment.KindCardDeclined, Message: msg}
	case status == http.StatusTooManyRequests:
		return &payment.ProviderError{Kind: payment.KindRateLimited, Message: "rate limit error"}
	case status == http.StatusBadRequest:
		return &payment.ProviderError{Kind: payment.KindInvalidRequest, Message: "invalid parameters"}
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return &payment.ProviderError{Kind: payment.KindAuthFailed, Message: "not authenticated"}
	case status >= 500:
		return &payment.ProviderError{Kind: payment.KindProviderUnavailable, Message: "payment provider unavailable"}
	}

	return &payment.ProviderError{
		Kind:    payment.KindUnknown,
		Message: "something went wrong, you were not charged",
	}
}

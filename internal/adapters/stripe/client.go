// internal/adapters/stripe/client.go
package stripead

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"

	"aircnc/internal/adapters/observability"
	"aircnc/internal/domain"
)

type Client struct {
	pi paymentintent.Client
}

// Options tune the backend; an empty BaseURL talks to api.stripe.com.
type Options struct {
	BaseURL    string
	MaxRetries int64
}

func New(key string, opt Options) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("stripe secret key is required")
	}
	cfg := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(opt.MaxRetries),
		HTTPClient:        &http.Client{Timeout: 20 * time.Second},
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}
	if opt.BaseURL != "" {
		cfg.URL = stripe.String(opt.BaseURL)
	}
	b := stripe.GetBackendWithConfig(stripe.APIBackend, cfg)
	return &Client{pi: paymentintent.Client{B: b, Key: key}}, nil
}

func (c *Client) CreateIntent(ctx context.Context, amount int64, currency string, methods []string) (domain.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amount),
		Currency:           stripe.String(currency),
		PaymentMethodTypes: stripe.StringSlice(methods),
	}
	params.Context = ctx

	start := time.Now()
	pi, err := c.pi.New(params)
	if err != nil {
		status := http.StatusBadGateway
		var se *stripe.Error
		if errors.As(err, &se) && se.HTTPStatusCode != 0 {
			status = se.HTTPStatusCode
		}
		observability.ObserveExternal("stripe", "payment_intents", status, time.Since(start))
		return domain.PaymentIntent{}, &domain.UpstreamError{Service: "stripe", Status: status, Err: err}
	}
	observability.ObserveExternal("stripe", "payment_intents", http.StatusOK, time.Since(start))

	return domain.PaymentIntent{
		ID:           pi.ID,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		ClientSecret: pi.ClientSecret,
	}, nil
}

// Unconfigured answers every intent with an upstream failure; used when no secret key is set.
type Unconfigured struct{}

func (Unconfigured) CreateIntent(context.Context, int64, string, []string) (domain.PaymentIntent, error) {
	return domain.PaymentIntent{}, &domain.UpstreamError{
		Service: "stripe",
		Status:  http.StatusServiceUnavailable,
		Err:     errors.New("payments are not configured"),
	}
}

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"aircnc/internal/adapters/observability"
	"aircnc/internal/domain"
)

const currency = "usd"

var paymentMethods = []string{"card"}

// maxAmount is the largest charge the processor accepts, in cents.
const maxAmount = 99_999_999

var (
	hundred  = decimal.NewFromInt(100)
	oneCent  = decimal.NewFromInt(1)
	maxCents = decimal.NewFromInt(maxAmount)
)

type PaymentService struct {
	processor domain.PaymentProcessor
}

func NewPaymentService(p domain.PaymentProcessor) *PaymentService {
	return &PaymentService{processor: p}
}

// Amount converts a major-unit price into integer cents, rounding half away from zero.
func Amount(price json.Number) (int64, error) {
	if price == "" {
		return 0, fmt.Errorf("price is required: %w", domain.ErrInvalidRequest)
	}
	d, err := decimal.NewFromString(price.String())
	if err != nil {
		return 0, fmt.Errorf("price %q is not a number: %w", price, domain.ErrInvalidRequest)
	}
	cents := d.Mul(hundred).Round(0)
	if cents.LessThan(oneCent) {
		return 0, fmt.Errorf("price must be positive: %w", domain.ErrInvalidRequest)
	}
	if cents.GreaterThan(maxCents) {
		return 0, fmt.Errorf("price %s exceeds the %d cent limit: %w", price, maxAmount, domain.ErrInvalidRequest)
	}
	return cents.IntPart(), nil
}

// CreateIntent returns the client secret of a new card payment intent for price.
func (s *PaymentService) CreateIntent(ctx context.Context, price json.Number) (string, error) {
	amount, err := Amount(price)
	if err != nil {
		observability.ObservePaymentIntent("invalid")
		return "", err
	}
	pi, err := s.processor.CreateIntent(ctx, amount, currency, paymentMethods)
	if err != nil {
		observability.ObservePaymentIntent("failed")
		var ue *domain.UpstreamError
		if errors.As(err, &ue) {
			return "", err
		}
		return "", &domain.UpstreamError{Service: "payments", Err: err}
	}
	observability.ObservePaymentIntent("created")
	return pi.ClientSecret, nil
}

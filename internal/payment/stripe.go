package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
)

// StripeProcessor implements Processor with Stripe PaymentIntents.
type StripeProcessor struct {
	api      *client.API
	currency string
	product  string
}

// NewStripeProcessor constructs a StripeProcessor. backends may be nil to use
// Stripe's default HTTP backends.
func NewStripeProcessor(secretKey, currency, product string, backends *stripe.Backends) *StripeProcessor {
	api := &client.API{}
	api.Init(secretKey, backends)
	return &StripeProcessor{api: api, currency: currency, product: product}
}

// CreateIntent creates an intent for amount (minor units) with automatic
// payment method selection.
func (p *StripeProcessor) CreateIntent(ctx context.Context, amount int64) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(p.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if p.product != "" {
		params.AddMetadata("product", p.product)
	}

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return fromStripe(pi), nil
}

// GetIntent fetches the live state of an intent.
func (p *StripeProcessor) GetIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := p.api.PaymentIntents.Get(id, params)
	if err != nil {
		var serr *stripe.Error
		if errors.As(err, &serr) &&
			(serr.Code == stripe.ErrorCodeResourceMissing || serr.HTTPStatusCode == http.StatusNotFound) {
			return nil, ErrIntentNotFound
		}
		return nil, fmt.Errorf("retrieve payment intent: %w", err)
	}
	return fromStripe(pi), nil
}

func fromStripe(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		ClientSecret: pi.ClientSecret,
	}
}

package payments

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

// StripeGateway backs checkout with Stripe PaymentIntents.
type StripeGateway struct {
	sc            *client.API
	webhookSecret string
}

func NewStripe(secretKey, webhookSecret string) *StripeGateway {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &StripeGateway{sc: sc, webhookSecret: webhookSecret}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(req.AmountMinorUnits),
		Currency:    stripe.String(req.Currency),
		Description: stripe.String(req.Description),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.sc.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// VerifyWebhook checks the signature on a raw webhook body and reduces the
// Stripe event to the gateway-neutral form. Tampered or mis-signed payloads
// fail here and never reach the order lifecycle.
func (g *StripeGateway) VerifyWebhook(payload []byte, signature string) (*Event, error) {
	ev, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("verify webhook signature: %w", err)
	}

	out := &Event{ID: ev.ID, Type: string(ev.Type)}
	switch ev.Type {
	case stripe.EventTypePaymentIntentSucceeded, stripe.EventTypePaymentIntentPaymentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent: %w", err)
		}
		out.IntentID = pi.ID
		out.Metadata = pi.Metadata
	}
	return out, nil
}

package payments

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/soultouch-za/storefront/internal/inventory"
)

// ErrNotConfigured is returned when no gateway credentials were provided.
// The API surfaces it as 503 so the storefront can show a maintenance notice
// instead of a broken checkout.
var ErrNotConfigured = errors.New("payment gateway not configured")

// IntentRequest asks the gateway to open a payment for one order.
type IntentRequest struct {
	AmountMinorUnits int64
	Currency         string
	Description      string
	Metadata         map[string]string
}

// Intent is the gateway's handle for a pending payment. ClientSecret goes
// back to the browser so the card form can confirm against the gateway
// directly.
type Intent struct {
	ID           string
	ClientSecret string
}

type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
}

// Event is a verified webhook notification, already reduced to the fields
// the order lifecycle needs.
type Event struct {
	ID       string
	Type     string
	IntentID string
	Metadata map[string]string
}

const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

// Metadata keys set on the intent at checkout and read back off the webhook.
const (
	MetaOrderID     = "orderId"
	MetaOrderNumber = "orderNumber"
	MetaOrderItems  = "orderItems"
)

func (e Event) OrderID() string { return e.Metadata[MetaOrderID] }

// ItemsMetadata decodes the order lines stashed in the intent metadata at
// checkout, so the webhook handler can settle inventory without a DB read.
func (e Event) ItemsMetadata() ([]inventory.Line, error) {
	raw, ok := e.Metadata[MetaOrderItems]
	if !ok || raw == "" {
		return nil, nil
	}
	var lines []inventory.Line
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

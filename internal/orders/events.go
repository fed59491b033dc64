package orders

import (
	"encoding/json"
	"time"

	"github.com/soultouch-za/storefront/internal/inventory"
)

const (
	EventOrderPlaced        = "OrderPlaced"
	EventPaymentSucceeded   = "PaymentSucceeded"
	EventPaymentFailed      = "PaymentFailed"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventReservationExpired = "ReservationExpired"
)

// Envelope wraps every lifecycle event published to the order stream.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type OrderPlacedPayload struct {
	OrderID     string           `json:"order_id"`
	OrderNumber string           `json:"order_number"`
	UserID      string           `json:"user_id,omitempty"`
	Items       []inventory.Line `json:"items"`
	Total       int64            `json:"total"`
}

type PaymentSucceededPayload struct {
	OrderID         string           `json:"order_id"`
	PaymentIntentID string           `json:"payment_intent_id"`
	Items           []inventory.Line `json:"items"`
}

type PaymentFailedPayload struct {
	OrderID         string           `json:"order_id"`
	PaymentIntentID string           `json:"payment_intent_id"`
	Items           []inventory.Line `json:"items"`
}

type OrderStatusChangedPayload struct {
	OrderID string `json:"order_id"`
	From    Status `json:"from"`
	To      Status `json:"to"`
}

type ReservationExpiredPayload struct {
	OrderID string           `json:"order_id"`
	Items   []inventory.Line `json:"items"`
}

package notify

import (
	"context"
	"time"
)

// LineItem is one row of the email order table.
type LineItem struct {
	ProductName string
	Brand       string
	Size        string
	Quantity    int64
	Price       int64
}

// Snapshot carries everything an email template needs, decoupled from the
// order storage types.
type Snapshot struct {
	OrderNumber     string
	CustomerName    string
	CustomerEmail   string
	DeliveryAddress string
	DeliveryCity    string
	DeliveryMethod  string
	Items           []LineItem
	Subtotal        int64
	DeliveryCost    int64
	Total           int64
	PlacedAt        time.Time
}

type Notifier interface {
	SendOrderConfirmation(ctx context.Context, s Snapshot) error
	SendShippingNotification(ctx context.Context, s Snapshot) error
	SendDeliveryConfirmation(ctx context.Context, s Snapshot) error
}

// Nop is used when SMTP is not configured; the lifecycle proceeds without
// emails instead of failing orders.
type Nop struct{}

func (Nop) SendOrderConfirmation(context.Context, Snapshot) error    { return nil }
func (Nop) SendShippingNotification(context.Context, Snapshot) error { return nil }
func (Nop) SendDeliveryConfirmation(context.Context, Snapshot) error { return nil }

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/soultouch-za/storefront/internal/inventory"
	"github.com/soultouch-za/storefront/internal/kafka"
	"github.com/soultouch-za/storefront/internal/notify"
	"github.com/soultouch-za/storefront/internal/orders"
	"github.com/soultouch-za/storefront/internal/payments"
)

// OrderStore is the slice of the order repository the controller drives.
type OrderStore interface {
	CreateOrderTx(ctx context.Context, o *orders.Order, lines []inventory.Line) ([]orders.Item, error)
	GetOrder(ctx context.Context, id string) (*orders.Order, []orders.Item, error)
	SetPaymentIntent(ctx context.Context, orderID, intentID string) error
	MarkPaymentSucceeded(ctx context.Context, orderID, intentID string) (bool, error)
	MarkPaymentFailed(ctx context.Context, orderID, intentID string) (bool, error)
	SetOrderStatus(ctx context.Context, orderID string, status orders.Status) (orders.Status, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]orders.Order, error)
}

// Publisher is the async event stream edge; satisfied by kafka.Producer.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// OutOfStockError carries the per-line shortfalls back to the storefront so
// the cart can show which size sold out.
type OutOfStockError struct {
	Shortfalls []inventory.Shortfall
}

func (e *OutOfStockError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		parts = append(parts, fmt.Sprintf("%s size %s (want %d, have %d)",
			s.ProductID, s.Size, s.Requested, s.Available))
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}

var ErrInvalidInput = errors.New("invalid checkout input")

// Controller runs the order lifecycle: checkout opens an order and a payment,
// webhooks settle it, admin updates move fulfilment along, and the sweeper
// reclaims reservations whose payment never arrived.
type Controller struct {
	Ledger   inventory.Ledger
	Orders   OrderStore
	Gateway  payments.Gateway
	Notifier notify.Notifier
	Stream   Publisher
	Cache    Cache

	Service          string
	DeliveryStandard int64
	DeliveryExpress  int64

	Now func() time.Time
}

func (c *Controller) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now().UTC()
}

type CheckoutInput struct {
	UserID             string           `json:"userId"`
	CustomerName       string           `json:"customerName"`
	CustomerEmail      string           `json:"customerEmail"`
	CustomerPhone      string           `json:"customerPhone"`
	DeliveryAddress    string           `json:"deliveryAddress"`
	DeliveryCity       string           `json:"deliveryCity"`
	DeliveryPostalCode string           `json:"deliveryPostalCode"`
	DeliveryMethod     string           `json:"deliveryMethod"`
	PaymentMethod      string           `json:"paymentMethod"`
	Items              []inventory.Line `json:"items"`
}

type CheckoutResult struct {
	Order        *orders.Order `json:"order"`
	Items        []orders.Item `json:"items"`
	ClientSecret string        `json:"clientSecret"`
	IntentID     string        `json:"paymentIntentId"`
}

func (in CheckoutInput) validate() error {
	switch {
	case len(in.Items) == 0:
		return fmt.Errorf("%w: empty cart", ErrInvalidInput)
	case in.CustomerName == "" || in.CustomerEmail == "":
		return fmt.Errorf("%w: customer name and email are required", ErrInvalidInput)
	case in.DeliveryAddress == "" || in.DeliveryCity == "":
		return fmt.Errorf("%w: delivery address is required", ErrInvalidInput)
	}
	for _, ln := range in.Items {
		if ln.ProductID == "" || ln.Size == "" || ln.Quantity <= 0 {
			return fmt.Errorf("%w: each item needs productId, size and a positive quantity", ErrInvalidInput)
		}
	}
	switch in.DeliveryMethod {
	case "standard", "express":
	default:
		return fmt.Errorf("%w: deliveryMethod must be standard or express", ErrInvalidInput)
	}
	return nil
}

// Checkout validates the cart, places the order, reserves stock and opens a
// payment intent. The reservation happens after the order row exists so a
// failed payment (or the sweeper) can always find what to release.
func (c *Controller) Checkout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if c.Gateway == nil {
		return nil, payments.ErrNotConfigured
	}

	if short, err := c.Ledger.CheckAvailability(ctx, in.Items); err != nil {
		return nil, fmt.Errorf("check availability: %w", err)
	} else if len(short) > 0 {
		return nil, &OutOfStockError{Shortfalls: short}
	}

	now := c.now()
	o := &orders.Order{
		ID:                 uuid.NewString(),
		OrderNumber:        orders.NewOrderNumber(now),
		UserID:             in.UserID,
		CustomerName:       in.CustomerName,
		CustomerEmail:      in.CustomerEmail,
		CustomerPhone:      in.CustomerPhone,
		DeliveryAddress:    in.DeliveryAddress,
		DeliveryCity:       in.DeliveryCity,
		DeliveryPostalCode: in.DeliveryPostalCode,
		DeliveryMethod:     in.DeliveryMethod,
		PaymentMethod:      in.PaymentMethod,
		DeliveryCost:       c.deliveryCost(in.DeliveryMethod),
		PaymentStatus:      orders.PaymentPending,
		OrderStatus:        orders.StatusPlaced,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	items, err := c.Orders.CreateOrderTx(ctx, o, in.Items)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	short, err := c.Ledger.Reserve(ctx, in.Items)
	if err != nil {
		c.abandonOrder(ctx, o.ID)
		return nil, fmt.Errorf("reserve stock: %w", err)
	}
	if len(short) > 0 {
		// Lost the race for the last units between check and reserve. Reserve
		// already rolled back its partial holds, so the order must leave
		// pending here: a pending row with no hold would be "released" again
		// by the sweeper, corrupting other orders' reservations.
		c.abandonOrder(ctx, o.ID)
		return nil, &OutOfStockError{Shortfalls: short}
	}

	intent, err := c.Gateway.CreateIntent(ctx, payments.IntentRequest{
		AmountMinorUnits: o.Total * 100,
		Currency:         "zar",
		Description:      fmt.Sprintf("Soultouch ZA order %s", o.OrderNumber),
		Metadata: map[string]string{
			payments.MetaOrderID:     o.ID,
			payments.MetaOrderNumber: o.OrderNumber,
			payments.MetaOrderItems:  string(kafka.MustMarshal(in.Items)),
		},
	})
	if err != nil {
		if rerr := c.Ledger.Release(ctx, in.Items); rerr != nil {
			log.Printf("release after intent failure order=%s: %v", o.ID, rerr)
		}
		c.abandonOrder(ctx, o.ID)
		return nil, fmt.Errorf("open payment: %w", err)
	}
	o.PaymentIntentID = intent.ID
	if err := c.Orders.SetPaymentIntent(ctx, o.ID, intent.ID); err != nil {
		log.Printf("store intent id order=%s: %v", o.ID, err)
	}

	c.publish(orders.EventOrderPlaced, o.ID, orders.OrderPlacedPayload{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		Items:       in.Items,
		Total:       o.Total,
	})
	c.cacheStatus(ctx, o.ID, o.OrderStatus, o.PaymentStatus)

	return &CheckoutResult{
		Order:        o,
		Items:        items,
		ClientSecret: intent.ClientSecret,
		IntentID:     intent.ID,
	}, nil
}

// abandonOrder takes a checkout that failed after its order row was written
// out of pending. The row no longer holds any reservation, so it must not
// stay where ReleaseExpired would find it and release stock it does not own.
func (c *Controller) abandonOrder(ctx context.Context, orderID string) {
	if _, err := c.Orders.MarkPaymentFailed(ctx, orderID, ""); err != nil {
		log.Printf("abandon order=%s: %v", orderID, err)
		return
	}
	c.cacheStatus(ctx, orderID, orders.StatusPlaced, orders.PaymentFailed)
}

func (c *Controller) deliveryCost(method string) int64 {
	if method == "express" {
		return c.DeliveryExpress
	}
	return c.DeliveryStandard
}

// HandlePaymentSucceeded settles a verified success notification. The Redis
// seen-set is a fast path; the conditional pending->succeeded transition in
// the store is what actually guarantees commit-once and email-once.
func (c *Controller) HandlePaymentSucceeded(ctx context.Context, ev payments.Event) error {
	orderID := ev.OrderID()
	if orderID == "" {
		log.Printf("payment succeeded event %s without order metadata, ignoring", ev.ID)
		return nil
	}
	if seen, err := c.seenEvent(ctx, ev.ID); err != nil {
		log.Printf("dedup lookup event=%s: %v", ev.ID, err)
	} else if seen {
		return nil
	}

	transitioned, err := c.Orders.MarkPaymentSucceeded(ctx, orderID, ev.IntentID)
	if err != nil {
		return fmt.Errorf("mark payment succeeded order=%s: %w", orderID, err)
	}
	if !transitioned {
		c.markEvent(ctx, ev.ID)
		return nil
	}

	lines, err := c.eventLines(ctx, ev, orderID)
	if err != nil {
		return err
	}
	if err := c.Ledger.Commit(ctx, lines); err != nil {
		// The payment row already transitioned; do not fail the webhook or a
		// retry would be skipped by the guard. Flag for reconciliation.
		log.Printf("commit stock order=%s: %v", orderID, err)
	}

	o, items, err := c.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load order %s: %w", orderID, err)
	}
	if err := c.Notifier.SendOrderConfirmation(ctx, snapshot(o, items)); err != nil {
		log.Printf("confirmation email order=%s: %v", orderID, err)
	}

	c.publish(orders.EventPaymentSucceeded, orderID, orders.PaymentSucceededPayload{
		OrderID:         orderID,
		PaymentIntentID: ev.IntentID,
		Items:           lines,
	})
	c.cacheStatus(ctx, orderID, orders.StatusPaymentConfirmed, orders.PaymentSucceeded)
	c.markEvent(ctx, ev.ID)
	return nil
}

// HandlePaymentFailed releases the reservation so the stock goes back on
// sale. The order itself stays placed; the customer may retry payment.
func (c *Controller) HandlePaymentFailed(ctx context.Context, ev payments.Event) error {
	orderID := ev.OrderID()
	if orderID == "" {
		log.Printf("payment failed event %s without order metadata, ignoring", ev.ID)
		return nil
	}
	if seen, err := c.seenEvent(ctx, ev.ID); err != nil {
		log.Printf("dedup lookup event=%s: %v", ev.ID, err)
	} else if seen {
		return nil
	}

	transitioned, err := c.Orders.MarkPaymentFailed(ctx, orderID, ev.IntentID)
	if err != nil {
		return fmt.Errorf("mark payment failed order=%s: %w", orderID, err)
	}
	if !transitioned {
		c.markEvent(ctx, ev.ID)
		return nil
	}

	lines, err := c.eventLines(ctx, ev, orderID)
	if err != nil {
		return err
	}
	if err := c.Ledger.Release(ctx, lines); err != nil {
		log.Printf("release stock order=%s: %v", orderID, err)
	}

	c.publish(orders.EventPaymentFailed, orderID, orders.PaymentFailedPayload{
		OrderID:         orderID,
		PaymentIntentID: ev.IntentID,
		Items:           lines,
	})
	c.cacheStatus(ctx, orderID, orders.StatusPlaced, orders.PaymentFailed)
	c.markEvent(ctx, ev.ID)
	return nil
}

// eventLines prefers the order lines stashed in the intent metadata and
// falls back to the item snapshots in the store.
func (c *Controller) eventLines(ctx context.Context, ev payments.Event, orderID string) ([]inventory.Line, error) {
	lines, err := ev.ItemsMetadata()
	if err != nil {
		log.Printf("bad items metadata event=%s: %v", ev.ID, err)
	}
	if len(lines) > 0 {
		return lines, nil
	}
	_, items, err := c.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order %s: %w", orderID, err)
	}
	for _, it := range items {
		lines = append(lines, inventory.Line{ProductID: it.ProductID, Size: it.Size, Quantity: it.Quantity})
	}
	return lines, nil
}

// SetOrderStatus applies an admin status change. Jumps outside the declared
// progression are allowed but logged. Shipped and delivered trigger emails.
func (c *Controller) SetOrderStatus(ctx context.Context, orderID string, to orders.Status) (*orders.Order, error) {
	if !orders.ValidStatus(to) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, to)
	}
	prev, err := c.Orders.SetOrderStatus(ctx, orderID, to)
	if err != nil {
		return nil, err
	}
	if prev != to && !orders.CanAdvance(prev, to) {
		log.Printf("order %s status jump %s -> %s", orderID, prev, to)
	}

	o, items, err := c.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch to {
	case orders.StatusShipped:
		if err := c.Notifier.SendShippingNotification(ctx, snapshot(o, items)); err != nil {
			log.Printf("shipping email order=%s: %v", orderID, err)
		}
	case orders.StatusDelivered:
		if err := c.Notifier.SendDeliveryConfirmation(ctx, snapshot(o, items)); err != nil {
			log.Printf("delivery email order=%s: %v", orderID, err)
		}
	}

	c.publish(orders.EventOrderStatusChanged, orderID, orders.OrderStatusChangedPayload{
		OrderID: orderID, From: prev, To: to,
	})
	c.cacheStatus(ctx, orderID, to, o.PaymentStatus)
	return o, nil
}

// ReleaseExpired fails every order still pending payment past the cutoff and
// returns its reservation to the pool. Returns how many orders were swept.
// The pending->failed guard makes it safe against a webhook racing the
// sweep: whoever transitions first owns the stock movement.
func (c *Controller) ReleaseExpired(ctx context.Context, cutoff time.Time) (int, error) {
	stale, err := c.Orders.ListPendingBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list stale orders: %w", err)
	}

	swept := 0
	for _, o := range stale {
		transitioned, err := c.Orders.MarkPaymentFailed(ctx, o.ID, o.PaymentIntentID)
		if err != nil {
			log.Printf("sweep order=%s: %v", o.ID, err)
			continue
		}
		if !transitioned {
			continue
		}
		_, items, err := c.Orders.GetOrder(ctx, o.ID)
		if err != nil {
			log.Printf("sweep load order=%s: %v", o.ID, err)
			continue
		}
		var lines []inventory.Line
		for _, it := range items {
			lines = append(lines, inventory.Line{ProductID: it.ProductID, Size: it.Size, Quantity: it.Quantity})
		}
		if err := c.Ledger.Release(ctx, lines); err != nil {
			log.Printf("sweep release order=%s: %v", o.ID, err)
			continue
		}
		c.publish(orders.EventReservationExpired, o.ID, orders.ReservationExpiredPayload{
			OrderID: o.ID, Items: lines,
		})
		c.cacheStatus(ctx, o.ID, o.OrderStatus, orders.PaymentFailed)
		swept++
	}
	return swept, nil
}

func (c *Controller) publish(eventType, orderID string, payload any) {
	if c.Stream == nil {
		return
	}
	env := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    c.now(),
		Producer:      c.Service,
		CorrelationID: orderID,
		Payload:       kafka.MustMarshal(payload),
	}
	c.Stream.Publish(orders.PartitionKey(orderID), kafka.MustMarshal(env))
}

func (c *Controller) cacheStatus(ctx context.Context, orderID string, st orders.Status, pay orders.PaymentStatus) {
	if c.Cache == nil {
		return
	}
	if err := c.Cache.SetStatus(ctx, orderID, st, pay); err != nil {
		log.Printf("status cache order=%s: %v", orderID, err)
	}
}

func (c *Controller) seenEvent(ctx context.Context, eventID string) (bool, error) {
	if c.Cache == nil {
		return false, nil
	}
	return c.Cache.SeenEvent(ctx, eventID)
}

func (c *Controller) markEvent(ctx context.Context, eventID string) {
	if c.Cache == nil {
		return
	}
	if err := c.Cache.MarkEvent(ctx, eventID); err != nil {
		log.Printf("dedup mark event=%s: %v", eventID, err)
	}
}

func snapshot(o *orders.Order, items []orders.Item) notify.Snapshot {
	s := notify.Snapshot{
		OrderNumber:     o.OrderNumber,
		CustomerName:    o.CustomerName,
		CustomerEmail:   o.CustomerEmail,
		DeliveryAddress: o.DeliveryAddress,
		DeliveryCity:    o.DeliveryCity,
		DeliveryMethod:  o.DeliveryMethod,
		Subtotal:        o.Subtotal,
		DeliveryCost:    o.DeliveryCost,
		Total:           o.Total,
		PlacedAt:        o.CreatedAt,
	}
	for _, it := range items {
		s.Items = append(s.Items, notify.LineItem{
			ProductName: it.ProductName,
			Brand:       it.Brand,
			Size:        it.Size,
			Quantity:    it.Quantity,
			Price:       it.Price,
		})
	}
	return s
}

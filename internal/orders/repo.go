package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/soultouch-za/storefront/internal/inventory"
)

var ErrNotFound = errors.New("order not found")

type Repo struct{ DB *pgxpool.Pool }

// CreateOrderTx persists the order and its item snapshots in one transaction.
// Name, brand and price are read from the products table inside the
// transaction rather than trusted from the client; Subtotal and Total on the
// order are filled in from those prices before the row is written.
func (r *Repo) CreateOrderTx(ctx context.Context, o *Order, lines []inventory.Line) ([]Item, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	type snapshot struct {
		name, brand, imageURL string
		price                 int64
	}
	products := map[string]snapshot{}
	for _, ln := range lines {
		if _, ok := products[ln.ProductID]; ok {
			continue
		}
		var s snapshot
		err := tx.QueryRow(ctx,
			`SELECT name, brand, price, image_url FROM products WHERE id=$1`,
			ln.ProductID).Scan(&s.name, &s.brand, &s.price, &s.imageURL)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product not found: %s", ln.ProductID)
		}
		if err != nil {
			return nil, err
		}
		products[ln.ProductID] = s
	}

	o.Subtotal = 0
	for _, ln := range lines {
		if ln.Quantity <= 0 {
			return nil, fmt.Errorf("invalid quantity for product %s", ln.ProductID)
		}
		o.Subtotal += products[ln.ProductID].price * ln.Quantity
	}
	o.Total = o.Subtotal + o.DeliveryCost

	_, err = tx.Exec(ctx, `
		INSERT INTO orders(
			id, order_number, user_id,
			customer_name, customer_email, customer_phone,
			delivery_address, delivery_city, delivery_postal_code,
			delivery_method, payment_method,
			subtotal, delivery_cost, total,
			payment_status, order_status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$17)`,
		o.ID, o.OrderNumber, o.UserID,
		o.CustomerName, o.CustomerEmail, o.CustomerPhone,
		o.DeliveryAddress, o.DeliveryCity, o.DeliveryPostalCode,
		o.DeliveryMethod, o.PaymentMethod,
		o.Subtotal, o.DeliveryCost, o.Total,
		o.PaymentStatus, o.OrderStatus, o.CreatedAt)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(lines))
	for _, ln := range lines {
		s := products[ln.ProductID]
		it := Item{
			ID:          uuid.NewString(),
			OrderID:     o.ID,
			ProductID:   ln.ProductID,
			ProductName: s.name,
			Brand:       s.brand,
			Size:        ln.Size,
			Quantity:    ln.Quantity,
			Price:       s.price,
			ImageURL:    s.imageURL,
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items(id, order_id, product_id, product_name, brand, size, quantity, price, image_url)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			it.ID, it.OrderID, it.ProductID, it.ProductName, it.Brand, it.Size, it.Quantity, it.Price, it.ImageURL)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return items, nil
}

const orderColumns = `
	id, order_number, COALESCE(user_id, ''),
	customer_name, customer_email, customer_phone,
	delivery_address, delivery_city, delivery_postal_code,
	delivery_method, payment_method,
	subtotal, delivery_cost, total,
	payment_status, COALESCE(payment_intent_id, ''), order_status,
	created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID,
		&o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&o.DeliveryAddress, &o.DeliveryCity, &o.DeliveryPostalCode,
		&o.DeliveryMethod, &o.PaymentMethod,
		&o.Subtotal, &o.DeliveryCost, &o.Total,
		&o.PaymentStatus, &o.PaymentIntentID, &o.OrderStatus,
		&o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Repo) GetOrder(ctx context.Context, id string) (*Order, []Item, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if err != nil {
		return nil, nil, err
	}
	items, err := r.ItemsForOrder(ctx, o.ID)
	if err != nil {
		return nil, nil, err
	}
	return o, items, nil
}

func (r *Repo) GetByNumber(ctx context.Context, orderNumber string) (*Order, []Item, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_number=$1`, orderNumber))
	if err != nil {
		return nil, nil, err
	}
	items, err := r.ItemsForOrder(ctx, o.ID)
	if err != nil {
		return nil, nil, err
	}
	return o, items, nil
}

func (r *Repo) ItemsForOrder(ctx context.Context, orderID string) ([]Item, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, product_id, product_name, brand, size, quantity, price, image_url
		FROM order_items WHERE order_id=$1 ORDER BY product_name, size`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName,
			&it.Brand, &it.Size, &it.Quantity, &it.Price, &it.ImageURL); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// MarkPaymentSucceeded transitions pending -> succeeded/payment-confirmed.
// The WHERE clause on payment_status makes webhook redelivery a no-op: only
// the first delivery reports transitioned=true, and only that caller may
// commit inventory and send the confirmation email.
func (r *Repo) MarkPaymentSucceeded(ctx context.Context, orderID, intentID string) (bool, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders
		SET payment_status=$2, payment_intent_id=$3, order_status=$4, updated_at=now()
		WHERE id=$1 AND payment_status=$5`,
		orderID, PaymentSucceeded, intentID, StatusPaymentConfirmed, PaymentPending)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// MarkPaymentFailed transitions pending -> failed. The order stays in
// `placed` so the customer may retry payment on the same order.
func (r *Repo) MarkPaymentFailed(ctx context.Context, orderID, intentID string) (bool, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders
		SET payment_status=$2, payment_intent_id=$3, updated_at=now()
		WHERE id=$1 AND payment_status=$4`,
		orderID, PaymentFailed, intentID, PaymentPending)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// SetPaymentIntent records the gateway intent id on a freshly placed order.
func (r *Repo) SetPaymentIntent(ctx context.Context, orderID, intentID string) error {
	ct, err := r.DB.Exec(ctx,
		`UPDATE orders SET payment_intent_id=$2, updated_at=now() WHERE id=$1`,
		orderID, intentID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetOrderStatus persists the new status and returns the previous one.
func (r *Repo) SetOrderStatus(ctx context.Context, orderID string, status Status) (Status, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var prev Status
	err = tx.QueryRow(ctx,
		`SELECT order_status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&prev)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}

	_, err = tx.Exec(ctx,
		`UPDATE orders SET order_status=$2, updated_at=now() WHERE id=$1`,
		orderID, status)
	if err != nil {
		return "", err
	}
	return prev, tx.Commit(ctx)
}

func (r *Repo) queryOrders(ctx context.Context, sql string, args ...any) ([]Order, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *Repo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return r.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id=$1 ORDER BY created_at DESC`, userID)
}

func (r *Repo) ListAll(ctx context.Context) ([]Order, error) {
	return r.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

// ListPendingBefore returns orders still awaiting payment that were created
// before the cutoff. The sweeper releases their reservations.
func (r *Repo) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]Order, error) {
	return r.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE payment_status=$1 AND created_at < $2 ORDER BY created_at`,
		PaymentPending, cutoff)
}

func (r *Repo) Stats(ctx context.Context) (*Stats, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	s := &Stats{TotalOrders: len(all)}
	for _, o := range all {
		if o.PaymentStatus == PaymentSucceeded {
			s.TotalRevenue += o.Total
		}
		switch o.OrderStatus {
		case StatusPlaced, StatusPaymentConfirmed:
			s.PendingOrders++
		case StatusDelivered:
			s.CompletedOrders++
		}
	}
	if len(all) > 10 {
		all = all[:10]
	}
	s.RecentOrders = all
	return s, nil
}

// RecordEvent appends a lifecycle event to the audit trail. The unique
// constraint on event_id makes redelivered events harmless.
func (r *Repo) RecordEvent(ctx context.Context, env Envelope) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO order_events(event_id, event_type, order_id, occurred_at, payload)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (event_id) DO NOTHING`,
		env.EventID, env.EventType, env.CorrelationID, env.OccurredAt, []byte(env.Payload))
	return err
}

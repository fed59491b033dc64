package redisx

import "time"

const (
	// Cache of order status for GET/track endpoints:
	// order_status:{order_id} -> {"orderStatus":"...","paymentStatus":"..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup for webhook/event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Admin session token: admin_session:{token} -> username
	KeyAdminSession = "admin_session:%s"
)

var (
	TTLStatusCache  = 5 * time.Minute
	TTLDedup        = 48 * time.Hour
	TTLAdminSession = 24 * time.Hour
)

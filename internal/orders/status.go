package orders

// Status is the fulfilment state of an order.
type Status string

const (
	StatusPlaced           Status = "placed"
	StatusPaymentConfirmed Status = "payment-confirmed"
	StatusPreparing        Status = "preparing"
	StatusShipped          Status = "shipped"
	StatusOutForDelivery   Status = "out-for-delivery"
	StatusDelivered        Status = "delivered"
	StatusCancelled        Status = "cancelled"
)

// PaymentStatus tracks the payment independently of fulfilment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

func ValidStatus(s Status) bool {
	switch s {
	case StatusPlaced, StatusPaymentConfirmed, StatusPreparing, StatusShipped,
		StatusOutForDelivery, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

var validNext = map[Status]map[Status]bool{
	StatusPlaced:           {StatusPaymentConfirmed: true, StatusCancelled: true},
	StatusPaymentConfirmed: {StatusPreparing: true, StatusCancelled: true},
	StatusPreparing:        {StatusShipped: true, StatusCancelled: true},
	StatusShipped:          {StatusOutForDelivery: true},
	StatusOutForDelivery:   {StatusDelivered: true},
	StatusDelivered:        {},
	StatusCancelled:        {},
}

// CanAdvance reports whether `to` is the declared next step after `from`.
// Admin status updates are not constrained by this table, since an admin may
// jump states to correct mistakes. Jumps that fall outside it are logged.
func CanAdvance(from, to Status) bool {
	return validNext[from][to]
}

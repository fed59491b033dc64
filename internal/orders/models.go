package orders

import "time"

// Order is a customer purchase. Monetary fields are whole rand;
// Total = Subtotal + DeliveryCost.
type Order struct {
	ID          string `json:"id"`
	OrderNumber string `json:"orderNumber"`
	UserID      string `json:"userId,omitempty"` // empty for guest checkouts

	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	CustomerPhone string `json:"customerPhone"`

	DeliveryAddress    string `json:"deliveryAddress"`
	DeliveryCity       string `json:"deliveryCity"`
	DeliveryPostalCode string `json:"deliveryPostalCode"`
	DeliveryMethod     string `json:"deliveryMethod"` // standard, express
	PaymentMethod      string `json:"paymentMethod"`  // card

	Subtotal     int64 `json:"subtotal"`
	DeliveryCost int64 `json:"deliveryCost"`
	Total        int64 `json:"total"`

	PaymentStatus   PaymentStatus `json:"paymentStatus"`
	PaymentIntentID string        `json:"paymentIntentId,omitempty"`
	OrderStatus     Status        `json:"orderStatus"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Item is an immutable snapshot of a cart line taken at order creation.
// Price and descriptive fields stay fixed even if the catalog changes later.
type Item struct {
	ID          string `json:"id"`
	OrderID     string `json:"orderId"`
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Brand       string `json:"brand"`
	Size        string `json:"size"`
	Quantity    int64  `json:"quantity"`
	Price       int64  `json:"price"` // per unit, whole rand
	ImageURL    string `json:"imageUrl"`
}

// Stats backs the admin dashboard.
type Stats struct {
	TotalOrders     int     `json:"totalOrders"`
	TotalRevenue    int64   `json:"totalRevenue"`
	PendingOrders   int     `json:"pendingOrders"`
	CompletedOrders int     `json:"completedOrders"`
	RecentOrders    []Order `json:"recentOrders"`
}

package inventory

// Record tracks stock for one (product, size) pair.
//
// Invariant maintained by every ledger operation:
//
//	Available == max(0, StockLevel - Reserved)
//
// StockLevel is the number of units physically owned, Reserved the units held
// against in-flight orders, Available what a new checkout may still claim.
type Record struct {
	ID         string
	ProductID  string
	Size       string
	StockLevel int64
	Reserved   int64
	Available  int64
}

// Line is one cart line addressed at the ledger.
type Line struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Quantity  int64  `json:"quantity"`
}

// Shortfall reports a line whose requested quantity exceeds available stock.
type Shortfall struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Requested int64  `json:"requested"`
	Available int64  `json:"available"`
}

package inventory

import (
	"context"

	"github.com/soultouch-za/storefront/internal/config"
)

// Ledger owns per-(product, size) stock counters. Reserve places a temporary
// hold pending payment, Commit turns a hold into a permanent stock reduction,
// Release returns held units to the available pool.
type Ledger interface {
	// CheckAvailability is side-effect free. It returns one shortfall per line
	// whose available count is below the requested quantity. Lines without an
	// inventory record are treated according to the configured stock policy.
	CheckAvailability(ctx context.Context, items []Line) ([]Shortfall, error)

	// Reserve atomically claims available stock for each line. Lines without a
	// record are skipped. If any line loses the race for the last units, the
	// lines already reserved by this call are released again and the failed
	// lines are returned as shortfalls; no partial reservation survives.
	Reserve(ctx context.Context, items []Line) ([]Shortfall, error)

	// Release undoes a reservation after payment failure or cancellation.
	Release(ctx context.Context, items []Line) error

	// Commit removes reserved units from owned stock after payment success.
	// Available is unchanged: the units leave StockLevel and Reserved together.
	Commit(ctx context.Context, items []Line) error

	// SetStockLevel is the administrative stock edit; available is recomputed
	// against the current reservation count.
	SetStockLevel(ctx context.Context, recordID string, level int64) error

	// ListForProduct returns all size records for a product.
	ListForProduct(ctx context.Context, productID string) ([]Record, error)
}

// Policy returns whether a missing record counts as available.
func assumeAvailable(p config.StockPolicy) bool { return p != config.StockStrict }

package orders

import (
	"fmt"
	"math/rand"
	"time"
)

// NewOrderNumber builds the human-readable order reference, e.g.
// ST-45678901-0042. The first part is the last eight digits of the creation
// time in unix millis; the random suffix keeps two checkouts in the same
// millisecond from colliding on the unique order_number column.
func NewOrderNumber(now time.Time) string {
	ms := fmt.Sprintf("%d", now.UnixMilli())
	if len(ms) > 8 {
		ms = ms[len(ms)-8:]
	}
	return fmt.Sprintf("ST-%s-%04d", ms, rand.Intn(10000))
}

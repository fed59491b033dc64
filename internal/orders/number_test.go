package orders

import (
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestNewOrderNumberFormat(t *testing.T) {
	at := time.UnixMilli(1712345678901)
	got := NewOrderNumber(at)
	if !strings.HasPrefix(got, "ST-45678901-") {
		t.Fatalf("got %q", got)
	}
	if !regexp.MustCompile(`^ST-\d{8}-\d{4}$`).MatchString(got) {
		t.Fatalf("unexpected shape %q", got)
	}
}

func TestNewOrderNumberShortTimestamp(t *testing.T) {
	// Fewer than eight digits of millis: keep what there is.
	got := NewOrderNumber(time.UnixMilli(1234567))
	if !strings.HasPrefix(got, "ST-1234567-") {
		t.Fatalf("got %q", got)
	}
}

// Checkouts landing on the same millisecond must still get distinct numbers.
func TestNewOrderNumberSameInstantDiffers(t *testing.T) {
	at := time.UnixMilli(1712345678901)
	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		seen[NewOrderNumber(at)] = true
	}
	if len(seen) < 2 {
		t.Fatalf("10 draws in one millisecond produced a single number")
	}
}

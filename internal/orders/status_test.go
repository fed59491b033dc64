package orders

import "testing"

func TestValidStatus(t *testing.T) {
	for _, s := range []Status{StatusPlaced, StatusPaymentConfirmed, StatusPreparing,
		StatusShipped, StatusOutForDelivery, StatusDelivered, StatusCancelled} {
		if !ValidStatus(s) {
			t.Errorf("%s should be valid", s)
		}
	}
	if ValidStatus("refunded") || ValidStatus("") {
		t.Errorf("unknown statuses must be invalid")
	}
}

func TestCanAdvance(t *testing.T) {
	steps := []Status{StatusPlaced, StatusPaymentConfirmed, StatusPreparing,
		StatusShipped, StatusOutForDelivery, StatusDelivered}
	for i := 0; i < len(steps)-1; i++ {
		if !CanAdvance(steps[i], steps[i+1]) {
			t.Errorf("%s -> %s should advance", steps[i], steps[i+1])
		}
	}

	if CanAdvance(StatusDelivered, StatusPlaced) {
		t.Errorf("delivered is terminal")
	}
	if CanAdvance(StatusPlaced, StatusShipped) {
		t.Errorf("placed -> shipped skips payment")
	}
	if !CanAdvance(StatusPreparing, StatusCancelled) {
		t.Errorf("preparing orders may still cancel")
	}
}

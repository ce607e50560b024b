package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	got, err := ParseOrderStatus(" paid ")
	if err != nil || got != OrderStatusPaid {
		t.Fatalf("expected Paid, got %q err=%v", got, err)
	}
	if _, err := ParseOrderStatus("shipped"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestParseAddressTypeDefaultsHome(t *testing.T) {
	got, err := ParseAddressType("")
	if err != nil || got != AddressTypeHome {
		t.Fatalf("expected Home, got %q err=%v", got, err)
	}
	got, err = ParseAddressType("office")
	if err != nil || got != AddressTypeOffice {
		t.Fatalf("expected Office, got %q err=%v", got, err)
	}
	if _, err := ParseAddressType("castle"); err == nil {
		t.Fatal("expected error for unknown address type")
	}
}

func TestParseCartAction(t *testing.T) {
	for _, raw := range []string{"add", "ADD", "remove"} {
		action, err := ParseCartAction(raw)
		if err != nil || !action.IsValid() {
			t.Fatalf("expected %q to parse, got %q err=%v", raw, action, err)
		}
	}
	if _, err := ParseCartAction("toggle"); err == nil {
		t.Fatal("expected invalid action error")
	}
}

func TestOutboxEventTypes(t *testing.T) {
	if !EventOrderCreated.IsValid() || !EventOrderPaid.IsValid() || !AggregateOrder.IsValid() {
		t.Fatal("expected order events to be valid")
	}
	if _, err := ParseOutboxEventType("order.refunded"); err == nil {
		t.Fatal("expected unknown event type to fail")
	}
}

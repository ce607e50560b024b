package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestOrderTotalCost(t *testing.T) {
	order := Order{Cost: 2000, GST: 360, Shipping: 200}
	if got := order.TotalCost(); got != 2560 {
		t.Fatalf("expected 2560, got %d", got)
	}
}

func TestBeforeCreateAssignsIDOnlyWhenMissing(t *testing.T) {
	item := &CartItem{}
	if err := item.BeforeCreate(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.ID == uuid.Nil {
		t.Fatal("expected id to be generated")
	}

	fixed := uuid.New()
	variant := &ProductVariant{ID: fixed}
	if err := variant.BeforeCreate(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if variant.ID != fixed {
		t.Fatalf("expected existing id to be preserved")
	}
}

package limits

import (
	"errors"
	"testing"
)

func TestBudgetCharge(t *testing.T) {
	b := NewBudget(10)
	if err := b.Charge(4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := b.Charge(6); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := b.Charge(1)
	var memErr MaxMemoryError
	if !errors.As(err, &memErr) || memErr.Limit != 10 {
		t.Fatalf("expected MaxMemoryError, got %v", err)
	}
}

func TestBudgetUnlimited(t *testing.T) {
	b := NewBudget(0)
	if err := b.Charge(1_000_000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Used() != 1_000_000 {
		t.Fatalf("unlimited budget should still track usage, got %d", b.Used())
	}
}

func TestBudgetRelease(t *testing.T) {
	b := NewBudget(8)
	_ = b.Charge(8)
	b.Release(5)
	if b.Used() != 3 {
		t.Fatalf("expected 3 used, got %d", b.Used())
	}
	if err := b.Charge(5); err != nil {
		t.Fatalf("released bytes should be reusable: %v", err)
	}
	b.Release(100)
	if b.Used() != 0 {
		t.Fatalf("release below zero should clamp, got %d", b.Used())
	}
}

package invoice

import (
	"testing"
	"time"
)

func TestMarkVerified_Monotonic(t *testing.T) {
	inv := &Invoice{ID: 1}
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if !inv.MarkVerified("0xatt", VerifiedByAttestor, first) {
		t.Fatal("first verification should report a change")
	}
	if inv.MarkVerified("0xorc", VerifiedByOracle, first.Add(time.Hour)) {
		t.Fatal("second verification should be a no-op")
	}
	if inv.VerifiedBy != "0xatt" || inv.VerifiedVia != VerifiedByAttestor || !inv.VerifiedAt.Equal(first) {
		t.Fatalf("verification fields changed: %+v", inv)
	}
}

func TestLockUnlock(t *testing.T) {
	inv := &Invoice{ID: 1}
	if err := inv.Lock(7); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if !inv.Locked() {
		t.Fatal("expected locked")
	}
	if err := inv.Lock(8); err != ErrAlreadyLocked {
		t.Fatalf("want ErrAlreadyLocked, got %v", err)
	}
	if err := inv.Unlock(8); err != ErrLockMismatch {
		t.Fatalf("want ErrLockMismatch, got %v", err)
	}
	if err := inv.Unlock(7); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if inv.Locked() {
		t.Fatal("expected unlocked")
	}
}

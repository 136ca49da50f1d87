package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/doa-network/staking-vault/internal/domain/stake"
)

func position(id, owner string, principal int64) stake.Position {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return stake.Position{
		ID:           id,
		Owner:        owner,
		Principal:    principal,
		StakeTime:    t0,
		UnlockTime:   t0.Add(30 * time.Second),
		RewardTime:   t0.Add(60 * time.Second),
		Status:       stake.StatusActive,
		DepositTxRef: "dep-" + id,
	}
}

func TestStore_CreateGetRoundTrip(t *testing.T) {
	store := New()
	ctx := context.Background()

	want := position("p1", "owner-a", 100)
	if _, err := store.CreatePosition(ctx, want); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.GetPosition(ctx, "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestStore_DuplicateID(t *testing.T) {
	store := New()
	ctx := context.Background()

	if _, err := store.CreatePosition(ctx, position("p1", "owner-a", 100)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.CreatePosition(ctx, position("p1", "owner-b", 5)); !errors.Is(err, stake.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestStore_GetUnknown(t *testing.T) {
	store := New()
	if _, err := store.GetPosition(context.Background(), "missing"); !errors.Is(err, stake.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ListMostRecentFirst(t *testing.T) {
	store := New()
	ctx := context.Background()

	for _, id := range []string{"p1", "p2", "p3"} {
		if _, err := store.CreatePosition(ctx, position(id, "owner-a", 10)); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	if _, err := store.CreatePosition(ctx, position("other", "owner-b", 10)); err != nil {
		t.Fatalf("create other: %v", err)
	}

	got, err := store.ListPositions(ctx, "owner-a")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 positions, got %d", len(got))
	}
	for i, want := range []string{"p3", "p2", "p1"} {
		if got[i].ID != want {
			t.Fatalf("position %d = %s, want %s", i, got[i].ID, want)
		}
	}
}

func TestStore_SettleTransition(t *testing.T) {
	store := New()
	ctx := context.Background()
	settledAt := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	if _, err := store.CreatePosition(ctx, position("p1", "owner-a", 100)); err != nil {
		t.Fatalf("create: %v", err)
	}

	settled, err := store.SettlePosition(ctx, "p1", "tx-settle", settledAt)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if settled.Status != stake.StatusSettled {
		t.Fatalf("status = %s, want settled", settled.Status)
	}
	if settled.SettlementTxRef != "tx-settle" {
		t.Fatalf("settlement ref = %s", settled.SettlementTxRef)
	}

	// Settled positions stay in the store as the audit trail.
	got, err := store.GetPosition(ctx, "p1")
	if err != nil {
		t.Fatalf("get after settle: %v", err)
	}
	if !got.Settled() {
		t.Fatal("position lost its settled status")
	}
}

func TestStore_SettleTwiceIsAnError(t *testing.T) {
	store := New()
	ctx := context.Background()
	settledAt := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	if _, err := store.CreatePosition(ctx, position("p1", "owner-a", 100)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.SettlePosition(ctx, "p1", "tx-1", settledAt); err != nil {
		t.Fatalf("first settle: %v", err)
	}

	before, _ := store.GetPosition(ctx, "p1")
	if _, err := store.SettlePosition(ctx, "p1", "tx-2", settledAt.Add(time.Minute)); !errors.Is(err, stake.ErrAlreadySettled) {
		t.Fatalf("expected ErrAlreadySettled, got %v", err)
	}
	after, _ := store.GetPosition(ctx, "p1")

	if before != after {
		t.Fatalf("failed settle mutated the position: %+v vs %+v", before, after)
	}
}

func TestStore_SettleUnknown(t *testing.T) {
	store := New()
	if _, err := store.SettlePosition(context.Background(), "missing", "tx", time.Now()); !errors.Is(err, stake.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"

	"github.com/doa-network/staking-vault/internal/domain/stake"
)

func TestStoreIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	store := New(db)
	ctx := context.Background()
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	pos := stake.Position{
		ID:           "it-" + now.Format("20060102150405.000000"),
		Owner:        "4fYNw3dojWmQ4dXtSGE9epjRGy9pFSx62YypT7avPYvA",
		Principal:    10,
		StakeTime:    now,
		UnlockTime:   now.Add(30 * time.Second),
		RewardTime:   now.Add(60 * time.Second),
		Status:       stake.StatusActive,
		DepositTxRef: "sig-deposit",
	}

	created, err := store.CreatePosition(ctx, pos)
	if err != nil {
		t.Fatalf("create position: %v", err)
	}
	if _, err := store.CreatePosition(ctx, pos); !errors.Is(err, stake.ErrDuplicateID) {
		t.Fatalf("duplicate create: got %v, want ErrDuplicateID", err)
	}

	got, err := store.GetPosition(ctx, created.ID)
	if err != nil {
		t.Fatalf("get position: %v", err)
	}
	if got.Principal != pos.Principal || got.Status != stake.StatusActive {
		t.Fatalf("unexpected position: %+v", got)
	}

	settledAt := now.Add(61 * time.Second)
	settled, err := store.SettlePosition(ctx, created.ID, "sig-withdraw", settledAt)
	if err != nil {
		t.Fatalf("settle position: %v", err)
	}
	if settled.Status != stake.StatusSettled || settled.SettlementTxRef != "sig-withdraw" {
		t.Fatalf("unexpected settled position: %+v", settled)
	}

	if _, err := store.SettlePosition(ctx, created.ID, "sig-again", settledAt); !errors.Is(err, stake.ErrAlreadySettled) {
		t.Fatalf("second settle: got %v, want ErrAlreadySettled", err)
	}
	if _, err := store.SettlePosition(ctx, "missing", "sig", settledAt); !errors.Is(err, stake.ErrNotFound) {
		t.Fatalf("settle missing: got %v, want ErrNotFound", err)
	}
}

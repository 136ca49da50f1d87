// Package ledger defines the stake position store.
package ledger

import (
	"context"
	"time"

	"github.com/doa-network/staking-vault/internal/domain/stake"
)

// Store persists stake positions. Positions are append-only apart from the
// single active-to-settled transition; settled positions remain as the audit
// trail. Implementations must make SettlePosition's status check atomic with
// the update so concurrent withdrawals of one position cannot both succeed.
type Store interface {
	// CreatePosition inserts a new active position. Fails with
	// stake.ErrDuplicateID if the id is already present.
	CreatePosition(ctx context.Context, p stake.Position) (stake.Position, error)

	// GetPosition looks up a position by id. Fails with stake.ErrNotFound.
	GetPosition(ctx context.Context, id string) (stake.Position, error)

	// ListPositions returns the owner's positions, most recent first.
	ListPositions(ctx context.Context, owner string) ([]stake.Position, error)

	// SettlePosition transitions active -> settled. Fails with
	// stake.ErrNotFound for unknown ids and stake.ErrAlreadySettled if the
	// position has already completed; a second settle is an error, not a
	// no-op, so double withdrawal stays detectable.
	SettlePosition(ctx context.Context, id, txRef string, settledAt time.Time) (stake.Position, error)
}

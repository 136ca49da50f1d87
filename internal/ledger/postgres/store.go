// Package postgres provides a PostgreSQL-backed ledger store.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/doa-network/staking-vault/internal/domain/stake"
	"github.com/doa-network/staking-vault/internal/ledger"
)

// Store implements ledger.Store backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ ledger.Store = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the positions table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS stake_positions (
			id                TEXT PRIMARY KEY,
			owner             TEXT NOT NULL,
			principal         BIGINT NOT NULL,
			stake_time        TIMESTAMPTZ NOT NULL,
			unlock_time       TIMESTAMPTZ NOT NULL,
			reward_time       TIMESTAMPTZ NOT NULL,
			status            TEXT NOT NULL,
			deposit_tx_ref    TEXT NOT NULL,
			settlement_tx_ref TEXT NOT NULL DEFAULT '',
			settled_at        TIMESTAMPTZ,
			created_seq       BIGSERIAL
		)
	`)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS stake_positions_owner_idx
		ON stake_positions (owner, created_seq DESC)
	`)
	return err
}

func (s *Store) CreatePosition(ctx context.Context, p stake.Position) (stake.Position, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stake_positions
			(id, owner, principal, stake_time, unlock_time, reward_time, status, deposit_tx_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, p.Owner, p.Principal, p.StakeTime, p.UnlockTime, p.RewardTime, p.Status, p.DepositTxRef)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return stake.Position{}, stake.ErrDuplicateID
		}
		return stake.Position{}, err
	}
	return p, nil
}

func (s *Store) GetPosition(ctx context.Context, id string) (stake.Position, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner, principal, stake_time, unlock_time, reward_time,
		       status, deposit_tx_ref, settlement_tx_ref, settled_at
		FROM stake_positions
		WHERE id = $1
	`, id)

	p, err := scanPosition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return stake.Position{}, stake.ErrNotFound
	}
	return p, err
}

func (s *Store) ListPositions(ctx context.Context, owner string) ([]stake.Position, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner, principal, stake_time, unlock_time, reward_time,
		       status, deposit_tx_ref, settlement_tx_ref, settled_at
		FROM stake_positions
		WHERE ($1 = '' OR owner = $1)
		ORDER BY created_seq DESC
	`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]stake.Position, 0)
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// SettlePosition performs the active -> settled transition. The status
// predicate lives in the UPDATE itself so the check and the mutation are one
// atomic statement.
func (s *Store) SettlePosition(ctx context.Context, id, txRef string, settledAt time.Time) (stake.Position, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE stake_positions
		SET status = $2, settlement_tx_ref = $3, settled_at = $4
		WHERE id = $1 AND status = $5
	`, id, stake.StatusSettled, txRef, settledAt.UTC(), stake.StatusActive)
	if err != nil {
		return stake.Position{}, err
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		existing, err := s.GetPosition(ctx, id)
		if err != nil {
			return stake.Position{}, err
		}
		if existing.Settled() {
			return stake.Position{}, stake.ErrAlreadySettled
		}
		return stake.Position{}, stake.ErrNotFound
	}

	return s.GetPosition(ctx, id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPosition(row scanner) (stake.Position, error) {
	var (
		p         stake.Position
		settledAt sql.NullTime
	)
	err := row.Scan(
		&p.ID, &p.Owner, &p.Principal, &p.StakeTime, &p.UnlockTime, &p.RewardTime,
		&p.Status, &p.DepositTxRef, &p.SettlementTxRef, &settledAt,
	)
	if err != nil {
		return stake.Position{}, err
	}
	if settledAt.Valid {
		p.SettledAt = settledAt.Time
	}
	return p, nil
}

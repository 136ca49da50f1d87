package vault

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/doa-network/staking-vault/internal/chain"
	"github.com/doa-network/staking-vault/internal/domain/stake"
	"github.com/doa-network/staking-vault/internal/economics"
	"github.com/doa-network/staking-vault/internal/ledger"
	"github.com/doa-network/staking-vault/internal/metrics"
	"github.com/doa-network/staking-vault/internal/txmgr"
	"github.com/doa-network/staking-vault/internal/wallet"
	"github.com/doa-network/staking-vault/pkg/logger"
)

// Executor performs one confirmed funds movement.
type Executor interface {
	Execute(ctx context.Context, op txmgr.Operation) (string, error)
}

// BalanceReader is the read-only balance oracle. After any mutating
// operation the engine re-queries it rather than fabricating a local
// post-transaction balance.
type BalanceReader interface {
	Balance(ctx context.Context, addr chain.Address) (uint64, error)
}

// Params fixes the engine's on-chain identities and economics.
type Params struct {
	ProgramID chain.Address
	Treasury  chain.Address
	Schedule  economics.Schedule
}

// Engine orchestrates deposits and withdrawals for one wallet session.
type Engine struct {
	params   Params
	signer   wallet.Signer
	tx       Executor
	balances BalanceReader
	store    ledger.Store
	log      *logger.Logger
	now      func() time.Time
}

// Option adjusts engine construction.
type Option func(*Engine)

// WithClock injects the time source. Tests use this to pin tier boundaries.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine builds a vault engine. The schedule is validated here so a
// misconfigured window pair (penalty >= lock) cannot reach classification.
func NewEngine(params Params, signer wallet.Signer, tx Executor, balances BalanceReader, store ledger.Store, log *logger.Logger, opts ...Option) (*Engine, error) {
	if err := params.Schedule.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schedule: %w", err)
	}
	if log == nil {
		log = logger.NewDefault("vault")
	}
	e := &Engine{
		params:   params,
		signer:   signer,
		tx:       tx,
		balances: balances,
		store:    store,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// DepositReceipt reports a confirmed deposit.
type DepositReceipt struct {
	PositionID string `json:"position_id"`
	TxRef      string `json:"tx_ref"`
	Vault      string `json:"vault"`
}

// WithdrawalReceipt reports a confirmed withdrawal.
type WithdrawalReceipt struct {
	PositionID string     `json:"position_id"`
	Tier       stake.Tier `json:"tier"`
	Payout     int64      `json:"payout"`
	TxRef      string     `json:"tx_ref"`
}

// Balances is a point-in-time read of the three relevant accounts.
type Balances struct {
	Wallet   uint64 `json:"wallet"`
	Vault    uint64 `json:"vault"`
	Treasury uint64 `json:"treasury"`
}

// VaultAddress returns the connected wallet's vault account.
func (e *Engine) VaultAddress() (chain.Address, error) {
	owner, err := e.signer.PublicKey()
	if err != nil {
		return chain.ZeroAddress, err
	}
	addr, _, err := DeriveVaultAddress(e.params.ProgramID, owner)
	return addr, err
}

// Deposit moves amount lamports from the wallet into its vault and records a
// new active position. A failed transfer leaves no ledger trace.
func (e *Engine) Deposit(ctx context.Context, amount int64) (DepositReceipt, error) {
	if amount <= 0 {
		metrics.RecordDeposit("rejected")
		return DepositReceipt{}, stake.ErrInvalidAmount
	}

	owner, err := e.signer.PublicKey()
	if err != nil {
		metrics.RecordDeposit("rejected")
		return DepositReceipt{}, err
	}

	vaultAddr, _, err := DeriveVaultAddress(e.params.ProgramID, owner)
	if err != nil {
		return DepositReceipt{}, err
	}

	ref, err := e.tx.Execute(ctx, txmgr.Operation{
		From:              owner,
		To:                vaultAddr,
		Lamports:          uint64(amount),
		CreateDestination: true,
	})
	if err != nil {
		metrics.RecordDeposit("failed")
		return DepositReceipt{}, err
	}

	now := e.now().UTC()
	position := stake.Position{
		ID:           uuid.NewString(),
		Owner:        owner.String(),
		Principal:    amount,
		StakeTime:    now,
		UnlockTime:   e.params.Schedule.UnlockTime(now),
		RewardTime:   e.params.Schedule.RewardTime(now),
		Status:       stake.StatusActive,
		DepositTxRef: ref,
	}

	if _, err := e.store.CreatePosition(ctx, position); err != nil {
		// Funds moved but the record could not be written; surface the
		// reference so the position can be reconciled manually.
		e.log.WithError(err).Errorf("deposit %s confirmed but position not recorded", ref)
		metrics.RecordDeposit("failed")
		return DepositReceipt{}, fmt.Errorf("record position for tx %s: %w", ref, err)
	}

	e.log.Infof("deposit of %d lamports confirmed in %s, position %s", amount, ref, position.ID)
	metrics.RecordDeposit("confirmed")
	return DepositReceipt{PositionID: position.ID, TxRef: ref, Vault: vaultAddr.String()}, nil
}

// Withdraw settles a position under the tier in force right now. A locked
// position is refused before any transfer is attempted; a failed payout
// leaves the position active so the withdrawal can be retried.
func (e *Engine) Withdraw(ctx context.Context, positionID string) (WithdrawalReceipt, error) {
	owner, err := e.signer.PublicKey()
	if err != nil {
		metrics.RecordWithdrawal("", "rejected")
		return WithdrawalReceipt{}, err
	}

	position, err := e.store.GetPosition(ctx, positionID)
	if err != nil {
		metrics.RecordWithdrawal("", "rejected")
		return WithdrawalReceipt{}, err
	}
	if position.Owner != owner.String() {
		metrics.RecordWithdrawal("", "rejected")
		return WithdrawalReceipt{}, stake.ErrNotOwner
	}
	if position.Settled() {
		metrics.RecordWithdrawal("", "rejected")
		return WithdrawalReceipt{}, stake.ErrAlreadySettled
	}

	tier, payout := e.params.Schedule.Classify(e.now(), position)
	if tier == stake.TierLocked {
		metrics.RecordWithdrawal(string(tier), "rejected")
		return WithdrawalReceipt{}, stake.ErrWithdrawalLocked
	}

	// The penalty payout comes out of the vault itself; the reward payout
	// exceeds principal, so it is funded from the treasury.
	source, _, err := DeriveVaultAddress(e.params.ProgramID, owner)
	if err != nil {
		return WithdrawalReceipt{}, err
	}
	if tier == stake.TierRewardEligible {
		source = e.params.Treasury
	}

	ref, err := e.tx.Execute(ctx, txmgr.Operation{
		From:     source,
		To:       owner,
		Lamports: uint64(payout),
	})
	if err != nil {
		metrics.RecordWithdrawal(string(tier), "failed")
		return WithdrawalReceipt{}, err
	}

	if _, err := e.store.SettlePosition(ctx, positionID, ref, e.now()); err != nil {
		e.log.WithError(err).Errorf("payout %s confirmed but position %s not settled", ref, positionID)
		metrics.RecordWithdrawal(string(tier), "failed")
		return WithdrawalReceipt{}, fmt.Errorf("settle position for tx %s: %w", ref, err)
	}

	e.log.Infof("position %s settled via %s (%s, payout %d)", positionID, ref, tier, payout)
	metrics.RecordWithdrawal(string(tier), "confirmed")
	return WithdrawalReceipt{PositionID: positionID, Tier: tier, Payout: payout, TxRef: ref}, nil
}

// Balances reads the wallet, vault and treasury balances from the ledger.
func (e *Engine) Balances(ctx context.Context) (Balances, error) {
	owner, err := e.signer.PublicKey()
	if err != nil {
		return Balances{}, err
	}
	vaultAddr, _, err := DeriveVaultAddress(e.params.ProgramID, owner)
	if err != nil {
		return Balances{}, err
	}

	walletBal, err := e.balances.Balance(ctx, owner)
	if err != nil {
		return Balances{}, fmt.Errorf("wallet balance: %w", err)
	}
	vaultBal, err := e.balances.Balance(ctx, vaultAddr)
	if err != nil {
		return Balances{}, fmt.Errorf("vault balance: %w", err)
	}
	treasuryBal, err := e.balances.Balance(ctx, e.params.Treasury)
	if err != nil {
		return Balances{}, fmt.Errorf("treasury balance: %w", err)
	}

	return Balances{Wallet: walletBal, Vault: vaultBal, Treasury: treasuryBal}, nil
}

// Positions returns the wallet's positions with their live tier projection,
// most recent first.
func (e *Engine) Positions(ctx context.Context) ([]PositionView, error) {
	owner, err := e.signer.PublicKey()
	if err != nil {
		return nil, err
	}

	positions, err := e.store.ListPositions(ctx, owner.String())
	if err != nil {
		return nil, err
	}

	now := e.now()
	views := make([]PositionView, 0, len(positions))
	for _, p := range positions {
		views = append(views, newPositionView(now, e.params.Schedule, p))
	}
	return views, nil
}

// Package txmgr executes funds movements against the ledger network: it
// builds a transaction under a fresh blockhash token, signs it, submits it
// with a bounded retry budget and waits for finality.
package txmgr

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doa-network/staking-vault/internal/chain"
	"github.com/doa-network/staking-vault/internal/domain/stake"
	"github.com/doa-network/staking-vault/internal/metrics"
	"github.com/doa-network/staking-vault/internal/wallet"
	"github.com/doa-network/staking-vault/pkg/logger"
)

// MaxAttempts is the submission retry budget. A stale freshness token at
// submission, or a token that expires on chain before the transaction lands,
// consumes one attempt; each retry fetches a new token. A wall-clock
// confirmation timeout never retries.
const MaxAttempts = 3

// Ledger is the network submission boundary the manager depends on.
type Ledger interface {
	LatestBlockhash(ctx context.Context) (chain.BlockhashToken, error)
	BlockHeight(ctx context.Context) (uint64, error)
	AccountExists(ctx context.Context, addr chain.Address) (bool, error)
	SendTransaction(ctx context.Context, encoded string) (string, error)
	SignatureStatus(ctx context.Context, signature string) (*chain.SignatureStatus, error)
}

// Operation is one atomic funds movement.
type Operation struct {
	From     chain.Address
	To       chain.Address
	Lamports uint64

	// CreateDestination prepends an account-creation step when the
	// destination does not exist yet. The check is re-run on every attempt,
	// so the step is added at most once and skipped once the account shows
	// up.
	CreateDestination bool
}

// Manager owns the submit/confirm lifecycle. It holds no domain state; every
// side effect is a network submission.
type Manager struct {
	ledger         Ledger
	signer         wallet.Signer
	log            *logger.Logger
	pollInterval   time.Duration
	confirmTimeout time.Duration
}

// Option adjusts manager construction.
type Option func(*Manager)

// WithPollInterval overrides the confirmation poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(m *Manager) { m.pollInterval = d }
}

// WithConfirmTimeout overrides the wall-clock confirmation cap.
func WithConfirmTimeout(d time.Duration) Option {
	return func(m *Manager) { m.confirmTimeout = d }
}

// New creates a transaction manager.
func New(ledger Ledger, signer wallet.Signer, log *logger.Logger, opts ...Option) *Manager {
	if log == nil {
		log = logger.NewDefault("txmgr")
	}
	m := &Manager{
		ledger:         ledger,
		signer:         signer,
		log:            log,
		pollInterval:   chain.DefaultPollInterval,
		confirmTimeout: chain.DefaultConfirmTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Execute performs one funds movement and returns the confirming transaction
// reference. A failed or timed-out movement surfaces as *stake.TransactionError;
// it is never silently treated as successful.
func (m *Manager) Execute(ctx context.Context, op Operation) (string, error) {
	payer, err := m.signer.PublicKey()
	if err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		token, err := m.ledger.LatestBlockhash(ctx)
		if err != nil {
			metrics.RecordTxAttempt("token_error")
			return "", &stake.TransactionError{Stage: "submit", Cause: fmt.Errorf("fetch blockhash: %w", err)}
		}

		tx := chain.NewTransaction(token, payer)
		if op.CreateDestination {
			exists, err := m.ledger.AccountExists(ctx, op.To)
			if err != nil {
				metrics.RecordTxAttempt("account_check_error")
				return "", &stake.TransactionError{Stage: "submit", Cause: fmt.Errorf("check destination: %w", err)}
			}
			if !exists {
				tx.AddCreateAccount(payer, op.To, 0)
			}
		}
		tx.AddTransfer(op.From, op.To, op.Lamports)

		signature, err := m.signer.Sign(tx.Message())
		if err != nil {
			return "", err
		}
		tx.Attach(signature)

		encoded, err := tx.Encode()
		if err != nil {
			return "", &stake.TransactionError{Stage: "submit", Cause: err}
		}

		ref, err := m.ledger.SendTransaction(ctx, encoded)
		if err != nil {
			if chain.IsBlockhashExpired(err) && attempt < MaxAttempts {
				m.log.WithError(err).Warnf("submission attempt %d rejected, refreshing blockhash", attempt)
				metrics.RecordTxAttempt("stale_token")
				lastErr = err
				continue
			}
			metrics.RecordTxAttempt("submit_error")
			return "", &stake.TransactionError{Stage: "submit", Cause: err}
		}

		outcome, err := m.confirm(ctx, ref, token)
		switch outcome {
		case outcomeConfirmed:
			metrics.RecordTxAttempt("confirmed")
			return ref, nil
		case outcomeFailed:
			metrics.RecordTxAttempt("failed")
			return "", &stake.TransactionError{Stage: "confirm", Cause: err}
		case outcomeTimedOut:
			// The submitted transaction's blockhash is still valid, so it may
			// yet land; resubmitting would risk moving the funds twice.
			metrics.RecordTxAttempt("timeout")
			return "", &stake.TransactionError{Stage: "confirm", Cause: err}
		case outcomeExpired:
			m.log.Warnf("transaction %s expired before finality (attempt %d)", ref, attempt)
			metrics.RecordTxAttempt("expired")
			lastErr = err
		}
	}

	if lastErr == nil {
		lastErr = errors.New("retry budget exhausted")
	}
	return "", &stake.TransactionError{Stage: "confirm", Cause: lastErr}
}

type confirmOutcome int

const (
	outcomeConfirmed confirmOutcome = iota
	outcomeFailed
	outcomeExpired
	outcomeTimedOut
)

// confirm polls signature status until the network reports finality, an
// execution error, or the freshness token's validity window closes. The
// polling context is detached from caller cancellation: an abandoned deposit
// or withdrawal may still confirm on chain, and that outcome must be
// observed so the ledger is reconciled rather than left behind.
//
// Expiry and timeout are distinct outcomes. Only outcomeExpired (the chain
// advanced past the token's last valid height, so the old transaction can
// never land) is safe to retry with a fresh token; outcomeTimedOut (the
// wall-clock cap elapsed while the token was still valid) is terminal.
func (m *Manager) confirm(ctx context.Context, ref string, token chain.BlockhashToken) (confirmOutcome, error) {
	started := time.Now()
	pollCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-pollCtx.Done():
			return outcomeTimedOut, fmt.Errorf("confirmation timed out after %s: %w", m.confirmTimeout, pollCtx.Err())
		case <-ticker.C:
			status, err := m.ledger.SignatureStatus(pollCtx, ref)
			if err != nil {
				m.log.WithError(err).Debugf("status poll for %s failed", ref)
				continue
			}

			if status == nil {
				height, err := m.ledger.BlockHeight(pollCtx)
				if err != nil {
					continue
				}
				if height > token.LastValidBlockHeight {
					return outcomeExpired, fmt.Errorf("blockhash expired at height %d before transaction %s landed", height, ref)
				}
				continue
			}

			if status.Failed() {
				return outcomeFailed, fmt.Errorf("execution error: %v", status.Err)
			}
			if status.Finalized() {
				metrics.ObserveConfirmLatency(time.Since(started))
				return outcomeConfirmed, nil
			}
		}
	}
}

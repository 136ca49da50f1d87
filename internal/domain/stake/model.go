// Package stake defines the staking vault domain model.
package stake

import "time"

// Position status values.
const (
	StatusActive  = "active"
	StatusSettled = "settled"
)

// Tier identifies the withdrawal economics regime that applies to a position
// at a given instant. It is computed, never stored.
type Tier string

const (
	TierEarlyPenalty   Tier = "early_penalty"
	TierLocked         Tier = "locked"
	TierRewardEligible Tier = "reward_eligible"
)

// Position is one deposit's lifecycle record. Timestamps are UTC. The ledger
// store is the only writer; a position moves from active to settled exactly
// once, via a confirmed payout.
type Position struct {
	ID              string
	Owner           string // base58 wallet address
	Principal       int64  // lamports
	StakeTime       time.Time
	UnlockTime      time.Time
	RewardTime      time.Time
	Status          string
	DepositTxRef    string
	SettlementTxRef string
	SettledAt       time.Time
}

// Settled reports whether the position has completed its lifecycle.
func (p Position) Settled() bool {
	return p.Status == StatusSettled
}

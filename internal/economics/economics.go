// Package economics implements the time-tiered withdrawal rules. It is pure:
// the caller injects the current time and no state is held.
package economics

import (
	"fmt"
	"time"

	"github.com/doa-network/staking-vault/internal/domain/stake"
)

// Defaults for a production schedule. The penalty window must stay shorter
// than the lock window.
const (
	DefaultPenaltyWindow    = 24 * time.Hour
	DefaultLockWindow       = 720 * time.Hour
	DefaultPenaltyRateBps   = 1000 // 10%
	DefaultRewardMultiplier = 2
)

const bpsDenominator = 10000

// Schedule holds the staking windows and payout rates.
type Schedule struct {
	PenaltyWindow    time.Duration
	LockWindow       time.Duration
	PenaltyRateBps   int64
	RewardMultiplier int64
}

// DefaultSchedule returns the production schedule.
func DefaultSchedule() Schedule {
	return Schedule{
		PenaltyWindow:    DefaultPenaltyWindow,
		LockWindow:       DefaultLockWindow,
		PenaltyRateBps:   DefaultPenaltyRateBps,
		RewardMultiplier: DefaultRewardMultiplier,
	}
}

// Validate checks the schedule invariants.
func (s Schedule) Validate() error {
	if s.PenaltyWindow <= 0 {
		return fmt.Errorf("penalty window must be positive, got %s", s.PenaltyWindow)
	}
	if s.PenaltyWindow >= s.LockWindow {
		return fmt.Errorf("penalty window %s must be shorter than lock window %s", s.PenaltyWindow, s.LockWindow)
	}
	if s.PenaltyRateBps < 0 || s.PenaltyRateBps > bpsDenominator {
		return fmt.Errorf("penalty rate %d out of range [0, %d]", s.PenaltyRateBps, bpsDenominator)
	}
	if s.RewardMultiplier < 1 {
		return fmt.Errorf("reward multiplier must be at least 1, got %d", s.RewardMultiplier)
	}
	return nil
}

// UnlockTime returns when the early-penalty window ends.
func (s Schedule) UnlockTime(stakeTime time.Time) time.Time {
	return stakeTime.Add(s.PenaltyWindow)
}

// RewardTime returns when the position becomes reward eligible.
func (s Schedule) RewardTime(stakeTime time.Time) time.Time {
	return stakeTime.Add(s.LockWindow)
}

// Classify maps an instant onto exactly one withdrawal tier and the payout it
// carries. The windows are half-open: [stake, unlock) pays with penalty,
// [unlock, reward) refuses withdrawal, [reward, inf) pays the reward.
// Payouts truncate toward zero so a withdrawal never manufactures value.
func (s Schedule) Classify(now time.Time, p stake.Position) (stake.Tier, int64) {
	switch {
	case now.Before(p.UnlockTime):
		return stake.TierEarlyPenalty, p.Principal * (bpsDenominator - s.PenaltyRateBps) / bpsDenominator
	case now.Before(p.RewardTime):
		return stake.TierLocked, 0
	default:
		return stake.TierRewardEligible, p.Principal * s.RewardMultiplier
	}
}

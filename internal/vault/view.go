package vault

import (
	"fmt"
	"time"

	"github.com/doa-network/staking-vault/internal/domain/stake"
	"github.com/doa-network/staking-vault/internal/economics"
)

// PositionView is the read-only projection consumed by the presentation
// layer: the position plus its live-recomputed tier and countdowns.
type PositionView struct {
	ID              string     `json:"id"`
	Owner           string     `json:"owner"`
	Principal       int64      `json:"principal"`
	StakeTime       time.Time  `json:"stake_time"`
	UnlockTime      time.Time  `json:"unlock_time"`
	RewardTime      time.Time  `json:"reward_time"`
	Status          string     `json:"status"`
	DepositTxRef    string     `json:"deposit_tx_ref"`
	SettlementTxRef string     `json:"settlement_tx_ref,omitempty"`
	Tier            stake.Tier `json:"tier"`
	Payout          int64      `json:"payout"`
	TimeUntilUnlock string     `json:"time_until_unlock"`
	TimeUntilReward string     `json:"time_until_reward"`
}

func newPositionView(now time.Time, schedule economics.Schedule, p stake.Position) PositionView {
	tier, payout := schedule.Classify(now, p)
	return PositionView{
		ID:              p.ID,
		Owner:           p.Owner,
		Principal:       p.Principal,
		StakeTime:       p.StakeTime,
		UnlockTime:      p.UnlockTime,
		RewardTime:      p.RewardTime,
		Status:          p.Status,
		DepositTxRef:    p.DepositTxRef,
		SettlementTxRef: p.SettlementTxRef,
		Tier:            tier,
		Payout:          payout,
		TimeUntilUnlock: FormatCountdown(p.UnlockTime.Sub(now)),
		TimeUntilReward: FormatCountdown(p.RewardTime.Sub(now)),
	}
}

// FormatCountdown renders a remaining duration as HH:MM:SS, clamping elapsed
// durations to zero.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	seconds := int64(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}

package economics

import (
	"testing"
	"time"

	"github.com/doa-network/staking-vault/internal/domain/stake"
)

func testSchedule() Schedule {
	return Schedule{
		PenaltyWindow:    30 * time.Second,
		LockWindow:       60 * time.Second,
		PenaltyRateBps:   1000,
		RewardMultiplier: 2,
	}
}

func testPosition(s Schedule, stakeTime time.Time, principal int64) stake.Position {
	return stake.Position{
		ID:         "pos-1",
		Principal:  principal,
		StakeTime:  stakeTime,
		UnlockTime: s.UnlockTime(stakeTime),
		RewardTime: s.RewardTime(stakeTime),
		Status:     stake.StatusActive,
	}
}

func TestSchedule_WindowInvariants(t *testing.T) {
	s := testSchedule()
	if err := s.Validate(); err != nil {
		t.Fatalf("valid schedule rejected: %v", err)
	}

	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p := testPosition(s, t0, 100)
	if got := p.UnlockTime; !got.Equal(t0.Add(s.PenaltyWindow)) {
		t.Fatalf("unlock time %v, want stake+penalty window", got)
	}
	if got := p.RewardTime; !got.Equal(t0.Add(s.LockWindow)) {
		t.Fatalf("reward time %v, want stake+lock window", got)
	}
	if !p.UnlockTime.Before(p.RewardTime) {
		t.Fatalf("unlock %v must precede reward %v", p.UnlockTime, p.RewardTime)
	}
}

func TestSchedule_ValidateRejectsInvertedWindows(t *testing.T) {
	s := testSchedule()
	s.PenaltyWindow = s.LockWindow
	if err := s.Validate(); err == nil {
		t.Fatal("expected error for penalty window >= lock window")
	}

	s = testSchedule()
	s.PenaltyRateBps = 10001
	if err := s.Validate(); err == nil {
		t.Fatal("expected error for out-of-range penalty rate")
	}
}

func TestSchedule_ClassifyTiers(t *testing.T) {
	s := testSchedule()
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p := testPosition(s, t0, 10)

	cases := []struct {
		name   string
		now    time.Time
		tier   stake.Tier
		payout int64
	}{
		{"at stake time", t0, stake.TierEarlyPenalty, 9},
		{"within penalty window", t0.Add(1 * time.Second), stake.TierEarlyPenalty, 9},
		{"just before unlock", p.UnlockTime.Add(-time.Nanosecond), stake.TierEarlyPenalty, 9},
		{"exactly at unlock", p.UnlockTime, stake.TierLocked, 0},
		{"within lock window", t0.Add(31 * time.Second), stake.TierLocked, 0},
		{"just before reward", p.RewardTime.Add(-time.Nanosecond), stake.TierLocked, 0},
		{"exactly at reward", p.RewardTime, stake.TierRewardEligible, 20},
		{"long after reward", t0.Add(24 * time.Hour), stake.TierRewardEligible, 20},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tier, payout := s.Classify(tc.now, p)
			if tier != tc.tier {
				t.Fatalf("tier = %s, want %s", tier, tc.tier)
			}
			if payout != tc.payout {
				t.Fatalf("payout = %d, want %d", payout, tc.payout)
			}
		})
	}
}

func TestSchedule_PayoutTruncatesTowardZero(t *testing.T) {
	s := testSchedule()
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// 7 * 0.9 = 6.3; the payout must never round up.
	p := testPosition(s, t0, 7)
	if _, payout := s.Classify(t0, p); payout != 6 {
		t.Fatalf("payout = %d, want 6", payout)
	}

	p = testPosition(s, t0, 1)
	if _, payout := s.Classify(t0, p); payout != 0 {
		t.Fatalf("payout = %d, want 0", payout)
	}
}

func TestSchedule_ClassifyIsTotal(t *testing.T) {
	s := testSchedule()
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p := testPosition(s, t0, 100)

	// Sweep one second at a time across both boundaries; every instant must
	// map to exactly one tier, in non-decreasing order.
	last := stake.TierEarlyPenalty
	order := map[stake.Tier]int{
		stake.TierEarlyPenalty:   0,
		stake.TierLocked:         1,
		stake.TierRewardEligible: 2,
	}
	for offset := time.Duration(0); offset <= 90*time.Second; offset += time.Second {
		tier, _ := s.Classify(t0.Add(offset), p)
		if _, known := order[tier]; !known {
			t.Fatalf("unknown tier %s at offset %s", tier, offset)
		}
		if order[tier] < order[last] {
			t.Fatalf("tier regressed from %s to %s at offset %s", last, tier, offset)
		}
		last = tier
	}
}

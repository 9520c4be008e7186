// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package settlement

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/focus/staking/group"
)

const (
	// DefaultBonusBps is the bonus pool rate, 10% of the completers' share of the collected stakes.
	DefaultBonusBps = uint64(1000)
	bpsDenominator  = 10000
)

// Policy tunes the settlement.
type Policy struct {
	BonusBps                uint64 // bonus pool in basis points of the collected total, weighted by completion
	RefundWhenNoneCompleted bool   // refund every stake when nobody completed instead of forfeiting them
}

// DefaultPolicy forfeits all stakes when nobody completed.
func DefaultPolicy() Policy {
	return Policy{BonusBps: DefaultBonusBps}
}

// Calculator computes payouts of finalized groups.
type Calculator struct {
	policy Policy
}

func New(policy Policy) *Calculator {
	return &Calculator{policy: policy}
}

// Compute derives the payouts from the final snapshot of a group.
//
//	pool  = collected * bps * completed / (joined * 10000)
//	share = pool / completed
//
// A completed participant receives its stake plus share, everybody else receives nothing.
// Integer division rounds down, the dust stays in the remainder.
func (c *Calculator) Compute(snap *group.Snapshot) (*group.Settlement, error) {
	if snap.State != group.StateFinalized {
		return nil, errors.Errorf("settlement: group %d is %v", snap.ID, snap.State)
	}
	completed := snap.CountStatus(group.StatusCompleted)
	if completed != snap.TotalCompleted {
		return nil, errors.Errorf("settlement: %d completed participants, total completed is %d", completed, snap.TotalCompleted)
	}
	if snap.CountStatus(group.StatusActive) != 0 {
		return nil, errors.Errorf("settlement: group %d still has active participants", snap.ID)
	}

	var (
		joined = uint64(snap.JoinedCount())
		share  = new(big.Int)
		result = &group.Settlement{
			Payouts:   make([]*big.Int, 0, joined),
			Remainder: new(big.Int).Set(snap.TotalCollected),
		}
	)
	if completed > 0 {
		pool := new(big.Int).Mul(snap.TotalCollected, new(big.Int).SetUint64(c.policy.BonusBps))
		pool.Mul(pool, new(big.Int).SetUint64(completed))
		pool.Quo(pool, new(big.Int).SetUint64(joined*bpsDenominator))
		share.Quo(pool, new(big.Int).SetUint64(completed))
	}

	for _, p := range snap.Participants {
		payout := new(big.Int)
		switch {
		case p.Status == group.StatusCompleted:
			payout.Add(p.Stake, share)
		case completed == 0 && c.policy.RefundWhenNoneCompleted:
			payout.Set(p.Stake)
		}
		result.Payouts = append(result.Payouts, payout)
		result.Remainder.Sub(result.Remainder, payout)
	}
	return result, nil
}

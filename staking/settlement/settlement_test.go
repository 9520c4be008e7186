// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package settlement

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/focus/staking/group"
	"github.com/vechain/focus/thor"
)

func snapshot(stake int64, statuses ...group.Status) *group.Snapshot {
	snap := &group.Snapshot{
		ID:             1,
		State:          group.StateFinalized,
		TotalCollected: big.NewInt(stake * int64(len(statuses))),
	}
	for i, s := range statuses {
		snap.Participants = append(snap.Participants, group.Participant{
			Address: thor.BytesToAddress([]byte{byte(i + 1)}),
			Stake:   big.NewInt(stake),
			Status:  s,
		})
		if s == group.StatusCompleted {
			snap.TotalCompleted++
		}
	}
	return snap
}

func amounts(vals ...int64) []*big.Int {
	out := make([]*big.Int, 0, len(vals))
	for _, v := range vals {
		out = append(out, big.NewInt(v))
	}
	return out
}

func assertAmounts(t *testing.T, want []*big.Int, got []*big.Int) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Zero(t, want[i].Cmp(got[i]), "payout %d: want %s, got %s", i, want[i], got[i])
	}
}

func TestCompute(t *testing.T) {
	var (
		c = group.StatusCompleted
		d = group.StatusDroppedOut
	)
	tests := []struct {
		name      string
		policy    Policy
		stake     int64
		statuses  []group.Status
		payouts   []*big.Int
		remainder int64
	}{
		{"two of three", DefaultPolicy(), 100, []group.Status{c, c, d}, amounts(110, 110, 0), 80},
		{"one of three", DefaultPolicy(), 100, []group.Status{d, c, d}, amounts(0, 110, 0), 190},
		{"all complete", DefaultPolicy(), 100, []group.Status{c, c}, amounts(110, 110), -20},
		{"none complete", DefaultPolicy(), 100, []group.Status{d, d, d}, amounts(0, 0, 0), 300},
		{"none complete refund", Policy{BonusBps: 1000, RefundWhenNoneCompleted: true}, 100, []group.Status{d, d}, amounts(100, 100), 0},
		{"refund ignored when someone completed", Policy{BonusBps: 1000, RefundWhenNoneCompleted: true}, 100, []group.Status{c, d}, amounts(110, 0), 90},
		{"no bonus", Policy{}, 100, []group.Status{c, d}, amounts(100, 0), 100},
		{"rounds down", DefaultPolicy(), 7, []group.Status{c, c, d}, amounts(7, 7, 0), 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := New(tt.policy).Compute(snapshot(tt.stake, tt.statuses...))
			require.NoError(t, err)
			assertAmounts(t, tt.payouts, res.Payouts)
			assert.Equal(t, big.NewInt(tt.remainder).String(), res.Remainder.String())
		})
	}
}

func TestCompute_Rejects(t *testing.T) {
	calc := New(DefaultPolicy())

	snap := snapshot(100, group.StatusCompleted, group.StatusDroppedOut)
	snap.State = group.StateStarted
	_, err := calc.Compute(snap)
	assert.Error(t, err)

	snap = snapshot(100, group.StatusCompleted, group.StatusDroppedOut)
	snap.TotalCompleted = 2
	_, err = calc.Compute(snap)
	assert.Error(t, err)

	snap = snapshot(100, group.StatusCompleted, group.StatusActive)
	_, err = calc.Compute(snap)
	assert.Error(t, err)
}

func TestCompute_ThroughGroup(t *testing.T) {
	creator := thor.BytesToAddress([]byte("creator"))
	members := []thor.Address{
		thor.BytesToAddress([]byte("a")),
		thor.BytesToAddress([]byte("b")),
		thor.BytesToAddress([]byte("c")),
	}
	g, err := group.New(0, group.Params{
		Unit:            group.StakeUnit{Type: group.TokenNative},
		StakeAmount:     big.NewInt(100),
		MaxSize:         3,
		SessionDuration: 100,
		MaxInactivity:   10,
	}, creator, nil)
	require.NoError(t, err)
	for _, m := range members {
		require.NoError(t, g.Join(m, big.NewInt(100), 0))
	}
	require.NoError(t, g.Start(creator, 0))
	require.NoError(t, g.MarkCompleted(members[0], 50))
	require.NoError(t, g.MarkCompleted(members[1], 60))
	// members[2] keeps pinging but never completes
	require.NoError(t, g.Ping(members[2], 99))

	require.NoError(t, g.Finalize(creator, 100, New(DefaultPolicy()).Compute))

	want := amounts(110, 110, 0)
	for i, m := range members {
		payout, err := g.Payout(m)
		require.NoError(t, err)
		assert.Zero(t, want[i].Cmp(payout))
	}
}

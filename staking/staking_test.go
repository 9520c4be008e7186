// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/focus/lvldb"
	"github.com/vechain/focus/staking/group"
	"github.com/vechain/focus/staking/registry"
	"github.com/vechain/focus/staking/reverts"
	"github.com/vechain/focus/staking/settlement"
	"github.com/vechain/focus/thor"
)

var (
	creator = thor.BytesToAddress([]byte("creator"))
	bot     = thor.BytesToAddress([]byte("bot"))
	pool    = thor.BytesToAddress([]byte("pool"))
	alice   = thor.BytesToAddress([]byte("alice"))
	bob     = thor.BytesToAddress([]byte("bob"))
	carol   = thor.BytesToAddress([]byte("carol"))
)

func newStaking(t *testing.T, cfg Config) *Staking {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	reg, err := registry.New(db, 64)
	require.NoError(t, err)
	return New(reg, cfg)
}

func defaultParams() group.Params {
	return group.Params{
		Unit:            group.StakeUnit{Type: group.TokenNative},
		StakeAmount:     big.NewInt(100),
		MaxSize:         3,
		SessionDuration: 3600,
		MaxInactivity:   300,
	}
}

func TestSession(t *testing.T) {
	s := newStaking(t, Config{
		Policy:        settlement.DefaultPolicy(),
		DefaultBot:    &bot,
		CommunityPool: &pool,
	})

	id, err := s.CreateGroup(defaultParams(), creator)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), id)
	assert.Equal(t, uint64(1), s.NextGroupID())

	for _, who := range []thor.Address{alice, bob, carol} {
		require.NoError(t, s.JoinGroup(id, who, big.NewInt(100), 1000))
	}
	require.NoError(t, s.StartSession(id, bot, 1100))
	assert.Equal(t, []uint64{id}, s.Started())

	state, err := s.GetGroupState(id)
	require.NoError(t, err)
	assert.Equal(t, group.StateStarted, state)

	// carol stays alive until the end but never completes
	for now := uint64(1300); now < 4700; now += 200 {
		require.NoError(t, s.UserPing(id, carol, now))
		if now < 2000 {
			require.NoError(t, s.UserPing(id, alice, now))
			require.NoError(t, s.UserPing(id, bob, now))
		}
	}
	require.NoError(t, s.MarkCompleted(id, alice, 2000))
	require.NoError(t, s.MarkCompleted(id, bob, 2100))

	candidates, err := s.AFKCandidates(id, 4600)
	require.NoError(t, err)
	assert.Empty(t, candidates)

	assert.True(t, reverts.Is(s.FinalizeGroup(id, bot, 4699), reverts.KindTooEarly))
	due, err := s.Due(id, 4700)
	require.NoError(t, err)
	assert.True(t, due)
	require.NoError(t, s.FinalizeGroup(id, bot, 4700))
	assert.Empty(t, s.Started())

	summary, err := s.GetGroupSummary(id)
	require.NoError(t, err)
	assert.Equal(t, group.StateFinalized, summary.State)
	assert.Equal(t, uint64(2), summary.TotalCompleted)
	assert.Equal(t, big.NewInt(300), summary.TotalCollected)
	assert.Equal(t, big.NewInt(80), summary.Settlement.Remainder)

	p, err := s.GetParticipant(id, 2)
	require.NoError(t, err)
	assert.Equal(t, carol, p.Address)
	assert.Equal(t, group.StatusDroppedOut, p.Status)

	want := map[thor.Address]int64{alice: 110, bob: 110, carol: 0}
	for who, amount := range want {
		payout, err := s.Payout(id, who)
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(amount).String(), payout.String())

		got, err := s.Withdraw(id, who, 5000)
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(amount).String(), got.String())

		_, err = s.Withdraw(id, who, 5001)
		assert.True(t, reverts.Is(err, reverts.KindAlreadyWithdrawn))
	}

	_, err = s.SweepRemainder(id, creator, 5000)
	assert.True(t, reverts.Is(err, reverts.KindUnauthorized))
	swept, err := s.SweepRemainder(id, pool, 5000)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(80), swept)
	_, err = s.SweepRemainder(id, pool, 5000)
	assert.True(t, reverts.Is(err, reverts.KindAlreadyWithdrawn))
}

func TestAFK(t *testing.T) {
	s := newStaking(t, Config{Policy: settlement.DefaultPolicy()})

	id, err := s.CreateGroup(defaultParams(), creator)
	require.NoError(t, err)
	require.NoError(t, s.JoinGroup(id, alice, big.NewInt(100), 0))
	require.NoError(t, s.JoinGroup(id, bob, big.NewInt(100), 0))
	require.NoError(t, s.StartSession(id, creator, 0))

	require.NoError(t, s.UserPing(id, alice, 250))
	assert.True(t, reverts.Is(s.MarkAFK(id, bob, creator, 300), reverts.KindStillAlive))
	// no bot configured
	assert.True(t, reverts.Is(s.MarkAFK(id, bob, bot, 301), reverts.KindUnauthorized))

	candidates, err := s.AFKCandidates(id, 301)
	require.NoError(t, err)
	assert.Equal(t, []thor.Address{bob}, candidates)
	require.NoError(t, s.MarkAFK(id, bob, creator, 301))

	assert.True(t, reverts.Is(s.UserPing(id, bob, 302), reverts.KindNotActiveParticipant))
	assert.True(t, reverts.Is(s.MarkCompleted(id, bob, 302), reverts.KindNotActiveParticipant))

	require.NoError(t, s.SetBot(id, creator, &bot))
	require.NoError(t, s.MarkCompleted(id, alice, 400))
	require.NoError(t, s.FinalizeGroup(id, bot, 3600))

	// one of two completed: pool = 200 * 10% * 1 / 2 = 10
	payout, err := s.Payout(id, alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(110), payout)
	payout, err = s.Payout(id, bob)
	require.NoError(t, err)
	assert.Zero(t, payout.Sign())

	// no community pool configured
	_, err = s.SweepRemainder(id, pool, 4000)
	assert.True(t, reverts.Is(err, reverts.KindUnauthorized))
}

func TestAliveIsNotCompleted(t *testing.T) {
	s := newStaking(t, Config{Policy: settlement.DefaultPolicy()})

	id, err := s.CreateGroup(group.Params{
		Unit:            group.StakeUnit{Type: group.TokenNative},
		StakeAmount:     big.NewInt(1),
		MaxSize:         3,
		SessionDuration: 60,
		MaxInactivity:   30,
	}, creator)
	require.NoError(t, err)
	for _, who := range []thor.Address{alice, bob, carol} {
		require.NoError(t, s.JoinGroup(id, who, big.NewInt(1), 0))
	}
	require.NoError(t, s.StartSession(id, creator, 0))
	for _, now := range []uint64{10, 20} {
		require.NoError(t, s.UserPing(id, alice, now))
		require.NoError(t, s.UserPing(id, bob, now))
	}
	require.NoError(t, s.MarkAFK(id, carol, creator, 31))
	require.NoError(t, s.FinalizeGroup(id, creator, 60))

	snap, err := s.GetGroupSummary(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), snap.TotalCompleted)
	for i, p := range snap.Participants {
		assert.Equal(t, group.StatusDroppedOut, p.Status, "participant %d", i)
		payout, err := s.Payout(id, p.Address)
		require.NoError(t, err)
		assert.Zero(t, payout.Sign())
	}
	assert.Equal(t, big.NewInt(3), snap.Settlement.Remainder)
}

func TestNoneCompleted(t *testing.T) {
	for _, refund := range []bool{false, true} {
		s := newStaking(t, Config{Policy: settlement.Policy{BonusBps: 1000, RefundWhenNoneCompleted: refund}})

		id, err := s.CreateGroup(defaultParams(), creator)
		require.NoError(t, err)
		require.NoError(t, s.JoinGroup(id, alice, big.NewInt(100), 0))
		require.NoError(t, s.JoinGroup(id, bob, big.NewInt(100), 0))
		require.NoError(t, s.StartSession(id, creator, 0))
		require.NoError(t, s.FinalizeGroup(id, creator, 3600))

		amount, err := s.Withdraw(id, alice, 3700)
		require.NoError(t, err)
		if refund {
			assert.Equal(t, big.NewInt(100), amount)
		} else {
			assert.Zero(t, amount.Sign())
		}
	}
}

func TestErrors(t *testing.T) {
	s := newStaking(t, Config{Policy: settlement.DefaultPolicy()})

	_, err := s.CreateGroup(group.Params{StakeAmount: big.NewInt(0), MaxSize: 2, SessionDuration: 1, MaxInactivity: 1}, creator)
	assert.True(t, reverts.Is(err, reverts.KindInvalidParameters))
	assert.Equal(t, uint64(0), s.NextGroupID())

	_, err = s.GetGroupSummary(0)
	assert.True(t, reverts.Is(err, reverts.KindNotFound))
	_, err = s.GetGroupState(0)
	assert.True(t, reverts.Is(err, reverts.KindNotFound))
	assert.True(t, reverts.Is(s.JoinGroup(0, alice, big.NewInt(100), 0), reverts.KindNotFound))

	id, err := s.CreateGroup(defaultParams(), creator)
	require.NoError(t, err)
	_, err = s.GetParticipant(id, 0)
	assert.True(t, reverts.Is(err, reverts.KindNotFound))
	_, err = s.Payout(id, alice)
	assert.True(t, reverts.Is(err, reverts.KindInvalidState))
	_, err = s.Withdraw(id, alice, 0)
	assert.True(t, reverts.Is(err, reverts.KindInvalidState))
	assert.True(t, reverts.Is(s.StartSession(id, creator, 0), reverts.KindInsufficientParticipants))
	assert.True(t, reverts.Is(s.JoinGroup(id, alice, big.NewInt(5), 0), reverts.KindStakeMismatch))
}

// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package liveness

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/focus/staking/ledger"
	"github.com/vechain/focus/staking/reverts"
	"github.com/vechain/focus/thor"
)

var (
	alice = thor.BytesToAddress([]byte("alice"))
	bob   = thor.BytesToAddress([]byte("bob"))
	carol = thor.BytesToAddress([]byte("carol"))
)

func newTracked(t *testing.T, now uint64, who ...thor.Address) (*ledger.Ledger, *Tracker) {
	l := ledger.New(big.NewInt(1))
	tr := New(l)
	for _, p := range who {
		_, err := l.Deposit(p, big.NewInt(1))
		require.NoError(t, err)
		require.NoError(t, tr.Track(p, now))
	}
	return l, tr
}

func TestTouch(t *testing.T) {
	_, tr := newTracked(t, 100, alice, bob)

	last, err := tr.LastAlive(alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), last)

	require.NoError(t, tr.Touch(alice, 150))
	last, _ = tr.LastAlive(alice)
	assert.Equal(t, uint64(150), last)

	// never decreases
	require.NoError(t, tr.Touch(alice, 120))
	last, _ = tr.LastAlive(alice)
	assert.Equal(t, uint64(150), last)

	err = tr.Touch(carol, 150)
	assert.True(t, reverts.Is(err, reverts.KindNotActiveParticipant))
	_, err = tr.LastAlive(carol)
	assert.True(t, reverts.Is(err, reverts.KindNotActiveParticipant))
}

func TestTouchAll(t *testing.T) {
	_, tr := newTracked(t, 10, alice, bob, carol)
	require.NoError(t, tr.Touch(bob, 50))

	tr.TouchAll(40)
	assert.Equal(t, []uint64{40, 50, 40}, tr.Snapshot())
}

func TestExpired(t *testing.T) {
	_, tr := newTracked(t, 1000, alice)

	tests := []struct {
		now     uint64
		expired bool
	}{
		{999, false},
		{1000, false},
		{1060, false},
		{1061, true},
	}
	for _, tt := range tests {
		expired, err := tr.Expired(alice, tt.now, 60)
		require.NoError(t, err)
		assert.Equal(t, tt.expired, expired, "now=%d", tt.now)
	}

	silence, err := tr.Silence(alice, 500)
	require.NoError(t, err)
	assert.Zero(t, silence)
}

func TestRestoreAndClone(t *testing.T) {
	l, tr := newTracked(t, 7, alice, bob)

	_, err := Restore(l, []uint64{1})
	assert.Error(t, err)
	assert.False(t, reverts.IsRevertErr(err))

	restored, err := Restore(l, []uint64{3, 4})
	require.NoError(t, err)
	last, _ := restored.LastAlive(bob)
	assert.Equal(t, uint64(4), last)

	clone := tr.Clone(l.Clone())
	require.NoError(t, clone.Touch(alice, 99))
	last, _ = tr.LastAlive(alice)
	assert.Equal(t, uint64(7), last)
}

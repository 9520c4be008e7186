// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package group

import (
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/focus/staking/ledger"
	"github.com/vechain/focus/staking/liveness"
	"github.com/vechain/focus/thor"
)

// body is the stored form of a group.
// The settlement remainder is not stored, it is derived from the collected total and the payouts.
type body struct {
	ID             uint64
	Params         Params
	Creator        thor.Address
	Bot            *thor.Address `rlp:"nil"`
	State          State
	StartTimestamp uint64
	TotalCompleted uint64
	Settled        bool
	RemainderSwept bool
	Participants   []*participantBody
}

type participantBody struct {
	Address   thor.Address
	Stake     *big.Int
	Status    Status
	LastAlive uint64
	Withdrawn bool
	Paid      *big.Int
	Payout    *big.Int // zero until settled
}

// EncodeRLP implements rlp.Encoder.
func (g *Group) EncodeRLP(w io.Writer) error {
	b := body{
		ID:             g.id,
		Params:         g.params,
		Creator:        g.creator,
		Bot:            g.bot,
		State:          g.state,
		StartTimestamp: g.startTimestamp,
		TotalCompleted: g.totalCompleted,
		Settled:        g.settlement != nil,
		RemainderSwept: g.remainderSwept,
	}
	lastAlive := g.liveness.Snapshot()
	for i, acc := range g.ledger.Accounts() {
		payout := new(big.Int)
		if g.settlement != nil {
			payout = g.settlement.Payouts[i]
		}
		b.Participants = append(b.Participants, &participantBody{
			Address:   acc.Address,
			Stake:     acc.Stake,
			Status:    g.statuses[i],
			LastAlive: lastAlive[i],
			Withdrawn: acc.Withdrawn,
			Paid:      acc.Paid,
			Payout:    payout,
		})
	}
	return rlp.Encode(w, &b)
}

// DecodeRLP implements rlp.Decoder.
func (g *Group) DecodeRLP(s *rlp.Stream) error {
	var b body
	if err := s.Decode(&b); err != nil {
		return err
	}
	if err := b.Params.Validate(); err != nil {
		return errors.Wrap(err, "decode group params")
	}

	var (
		accounts  = make([]*ledger.Account, 0, len(b.Participants))
		statuses  = make([]Status, 0, len(b.Participants))
		lastAlive = make([]uint64, 0, len(b.Participants))
		payouts   = make([]*big.Int, 0, len(b.Participants))
	)
	for _, p := range b.Participants {
		accounts = append(accounts, &ledger.Account{
			Address:   p.Address,
			Stake:     p.Stake,
			Withdrawn: p.Withdrawn,
			Paid:      p.Paid,
		})
		statuses = append(statuses, p.Status)
		lastAlive = append(lastAlive, p.LastAlive)
		payouts = append(payouts, p.Payout)
	}

	l := ledger.Restore(b.Params.StakeAmount, accounts)
	tracker, err := liveness.Restore(l, lastAlive)
	if err != nil {
		return err
	}

	*g = Group{
		id:             b.ID,
		params:         b.Params,
		creator:        b.Creator,
		bot:            b.Bot,
		state:          b.State,
		startTimestamp: b.StartTimestamp,
		totalCompleted: b.TotalCompleted,
		statuses:       statuses,
		ledger:         l,
		liveness:       tracker,
		remainderSwept: b.RemainderSwept,
	}
	if b.Settled {
		remainder := l.TotalCollected()
		for _, p := range payouts {
			remainder.Sub(remainder, p)
		}
		g.settlement = &Settlement{Payouts: payouts, Remainder: remainder}
	}
	return nil
}

// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"

	"github.com/vechain/focus/staking/reverts"
	"github.com/vechain/focus/thor"
)

// Account is one participant's entry in a group's ledger.
type Account struct {
	Address   thor.Address // the participant identity
	Stake     *big.Int     // the amount deposited at join
	Withdrawn bool         // whether the settled amount has been paid out
	Paid      *big.Int     // the amount paid out at withdrawal, zero before
}

func (a *Account) clone() *Account {
	return &Account{
		Address:   a.Address,
		Stake:     new(big.Int).Set(a.Stake),
		Withdrawn: a.Withdrawn,
		Paid:      new(big.Int).Set(a.Paid),
	}
}

// Ledger keeps the custody accounting of a single group.
// It is not safe for concurrent use; the owner serializes access.
type Ledger struct {
	stakeAmount    *big.Int
	totalCollected *big.Int
	totalPaid      *big.Int
	accounts       []*Account
	index          map[thor.Address]int
}

// New creates an empty ledger that accepts deposits of exactly stakeAmount.
func New(stakeAmount *big.Int) *Ledger {
	return &Ledger{
		stakeAmount:    new(big.Int).Set(stakeAmount),
		totalCollected: big.NewInt(0),
		totalPaid:      big.NewInt(0),
		index:          make(map[thor.Address]int),
	}
}

// Restore rebuilds a ledger from persisted accounts. The totals are derived from the accounts,
// so the collected total always equals the sum of stakes.
func Restore(stakeAmount *big.Int, accounts []*Account) *Ledger {
	l := New(stakeAmount)
	for _, acc := range accounts {
		acc = acc.clone()
		l.index[acc.Address] = len(l.accounts)
		l.accounts = append(l.accounts, acc)
		l.totalCollected.Add(l.totalCollected, acc.Stake)
		l.totalPaid.Add(l.totalPaid, acc.Paid)
	}
	return l
}

// Clone returns a deep copy.
func (l *Ledger) Clone() *Ledger {
	return Restore(l.stakeAmount, l.accounts)
}

// TotalCollected returns the sum of all deposited stakes.
func (l *Ledger) TotalCollected() *big.Int {
	return new(big.Int).Set(l.totalCollected)
}

// TotalPaid returns the sum of all withdrawals.
func (l *Ledger) TotalPaid() *big.Int {
	return new(big.Int).Set(l.totalPaid)
}

// Balance returns collected minus paid. It is negative once bonuses paid out exceed the forfeited stakes.
func (l *Ledger) Balance() *big.Int {
	return new(big.Int).Sub(l.totalCollected, l.totalPaid)
}

// Len returns the number of accounts, i.e. the joined count.
func (l *Ledger) Len() int {
	return len(l.accounts)
}

// IndexOf returns the join index of the participant.
func (l *Ledger) IndexOf(participant thor.Address) (int, bool) {
	i, ok := l.index[participant]
	return i, ok
}

// Account returns a copy of the account at index i.
func (l *Ledger) Account(i int) (*Account, bool) {
	if i < 0 || i >= len(l.accounts) {
		return nil, false
	}
	return l.accounts[i].clone(), true
}

// Accounts returns copies of all accounts in join order.
func (l *Ledger) Accounts() []*Account {
	accounts := make([]*Account, 0, len(l.accounts))
	for _, acc := range l.accounts {
		accounts = append(accounts, acc.clone())
	}
	return accounts
}

// CheckDeposit runs the deposit guards without mutating the ledger.
func (l *Ledger) CheckDeposit(participant thor.Address, amount *big.Int) error {
	if _, ok := l.index[participant]; ok {
		return reverts.New(reverts.KindAlreadyJoined, "participant already joined")
	}
	if amount == nil || amount.Cmp(l.stakeAmount) != 0 {
		return reverts.Newf(reverts.KindStakeMismatch, "stake must be exactly %s", l.stakeAmount)
	}
	return nil
}

// Deposit records the participant's stake and returns its join index.
func (l *Ledger) Deposit(participant thor.Address, amount *big.Int) (int, error) {
	if err := l.CheckDeposit(participant, amount); err != nil {
		return 0, err
	}

	i := len(l.accounts)
	l.accounts = append(l.accounts, &Account{
		Address: participant,
		Stake:   new(big.Int).Set(amount),
		Paid:    big.NewInt(0),
	})
	l.index[participant] = i
	l.totalCollected.Add(l.totalCollected, amount)

	return i, nil
}

// CheckDebit runs the withdrawal guards without mutating the ledger.
func (l *Ledger) CheckDebit(participant thor.Address) (int, error) {
	i, ok := l.index[participant]
	if !ok {
		return 0, reverts.New(reverts.KindNotEntitled, "not a participant of the group")
	}
	if l.accounts[i].Withdrawn {
		return 0, reverts.New(reverts.KindAlreadyWithdrawn, "already withdrawn")
	}
	return i, nil
}

// Debit pays the settled amount out to the participant, exactly once.
func (l *Ledger) Debit(participant thor.Address, payout *big.Int) (*big.Int, error) {
	i, err := l.CheckDebit(participant)
	if err != nil {
		return nil, err
	}

	acc := l.accounts[i]
	acc.Withdrawn = true
	acc.Paid = new(big.Int).Set(payout)
	l.totalPaid.Add(l.totalPaid, payout)

	return new(big.Int).Set(payout), nil
}

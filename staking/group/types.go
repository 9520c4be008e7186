// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package group

import (
	"math/big"

	"github.com/vechain/focus/staking/reverts"
	"github.com/vechain/focus/thor"
)

// State is the lifecycle state of a group.
type State uint8

const (
	StateCreated   State = iota // accepting joins
	StateStarted                // session running
	StateFinalized              // settled, terminal
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "Created"
	case StateStarted:
		return "Started"
	case StateFinalized:
		return "Finalized"
	default:
		return "Unknown"
	}
}

// Status is the session status of a participant.
type Status uint8

const (
	StatusActive     Status = iota // on join
	StatusCompleted                // finished the session
	StatusDroppedOut               // marked AFK, or still active at finalize
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "Active"
	case StatusCompleted:
		return "Completed"
	case StatusDroppedOut:
		return "DroppedOut"
	default:
		return "Unknown"
	}
}

// TokenType is the kind of asset staked by a group.
type TokenType uint8

const (
	TokenNative TokenType = iota
	TokenERC20
)

func (t TokenType) String() string {
	switch t {
	case TokenNative:
		return "NATIVE"
	case TokenERC20:
		return "ERC20"
	default:
		return "Unknown"
	}
}

// StakeUnit identifies the staked asset.
type StakeUnit struct {
	Type  TokenType
	Token *thor.Address `rlp:"nil"` // the token contract, only for ERC20
}

// Params are the immutable parameters a group is created with.
type Params struct {
	Unit            StakeUnit
	StakeAmount     *big.Int // exact amount every participant deposits
	MaxSize         uint64   // maximum number of participants
	SessionDuration uint64   // seconds from start until the group can be finalized
	MaxInactivity   uint64   // seconds of silence after which a participant can be marked AFK
}

// Validate checks the numeric and stake unit invariants.
func (p *Params) Validate() error {
	switch p.Unit.Type {
	case TokenNative:
		if p.Unit.Token != nil && !p.Unit.Token.IsZero() {
			return reverts.New(reverts.KindInvalidParameters, "native stake must not name a token")
		}
	case TokenERC20:
		if p.Unit.Token == nil || p.Unit.Token.IsZero() {
			return reverts.New(reverts.KindInvalidParameters, "erc20 stake requires a token address")
		}
	default:
		return reverts.Newf(reverts.KindInvalidParameters, "unknown token type %d", p.Unit.Type)
	}
	if p.StakeAmount == nil || p.StakeAmount.Sign() <= 0 {
		return reverts.New(reverts.KindInvalidParameters, "stake amount must be positive")
	}
	if p.MaxSize < 2 {
		return reverts.New(reverts.KindInvalidParameters, "max size must be greater than 1")
	}
	if p.SessionDuration == 0 {
		return reverts.New(reverts.KindInvalidParameters, "session duration must be positive")
	}
	if p.MaxInactivity == 0 {
		return reverts.New(reverts.KindInvalidParameters, "max inactivity must be positive")
	}
	return nil
}

func (p *Params) clone() Params {
	c := Params{
		Unit:            StakeUnit{Type: p.Unit.Type},
		StakeAmount:     new(big.Int).Set(p.StakeAmount),
		MaxSize:         p.MaxSize,
		SessionDuration: p.SessionDuration,
		MaxInactivity:   p.MaxInactivity,
	}
	if p.Unit.Token != nil {
		token := *p.Unit.Token
		c.Unit.Token = &token
	}
	return c
}

// Settlement is the result of settling a finalized group.
type Settlement struct {
	Payouts   []*big.Int // per participant, in join order
	Remainder *big.Int   // collected minus the sum of payouts, negative when bonuses exceed forfeits
}

func (s *Settlement) clone() *Settlement {
	c := &Settlement{
		Payouts:   make([]*big.Int, 0, len(s.Payouts)),
		Remainder: new(big.Int).Set(s.Remainder),
	}
	for _, p := range s.Payouts {
		c.Payouts = append(c.Payouts, new(big.Int).Set(p))
	}
	return c
}

// SettleFunc computes the settlement of a group from its final snapshot.
type SettleFunc func(snap *Snapshot) (*Settlement, error)

// Participant is a read-only view of one participant.
type Participant struct {
	Address     thor.Address
	Stake       *big.Int
	Status      Status
	LastAliveTs uint64
	Withdrawn   bool
}

// Snapshot is a deep copy of a group, safe to hand out to readers.
type Snapshot struct {
	ID             uint64
	Params         Params
	Creator        thor.Address
	Bot            *thor.Address
	State          State
	StartTimestamp uint64
	TotalCollected *big.Int
	TotalPaid      *big.Int
	Balance        *big.Int // collected minus paid to participants
	TotalCompleted uint64
	Participants   []Participant
	Settlement     *Settlement // nil until finalized
	RemainderSwept bool
}

// JoinedCount returns the number of participants.
func (s *Snapshot) JoinedCount() int {
	return len(s.Participants)
}

// CountStatus returns the number of participants in the given status.
func (s *Snapshot) CountStatus(status Status) uint64 {
	var n uint64
	for _, p := range s.Participants {
		if p.Status == status {
			n++
		}
	}
	return n
}

// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package groups

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/vechain/focus/staking/group"
	"github.com/vechain/focus/thor"
)

type CreateGroup struct {
	Creator         thor.Address          `json:"creator"`
	TokenType       string                `json:"tokenType"`
	Token           *thor.Address         `json:"token,omitempty"`
	StakeAmount     *math.HexOrDecimal256 `json:"stakeAmount"`
	MaxSize         uint64                `json:"maxSize"`
	SessionDuration uint64                `json:"sessionDuration"`
	MaxInactivity   uint64                `json:"maxInactivity"`
}

func requireAddress(name string, addr thor.Address) error {
	if addr.IsZero() {
		return errors.Errorf("%s: required", name)
	}
	return nil
}

func (c *CreateGroup) Validate() error {
	return requireAddress("creator", c.Creator)
}

func parseTokenType(s string) (group.TokenType, error) {
	switch strings.ToUpper(s) {
	case "", group.TokenNative.String():
		return group.TokenNative, nil
	case group.TokenERC20.String():
		return group.TokenERC20, nil
	default:
		return 0, errors.Errorf("unknown token type %q", s)
	}
}

// Params converts the request into group parameters. Semantic validation is left to the registry.
func (c *CreateGroup) Params() (group.Params, error) {
	tokenType, err := parseTokenType(c.TokenType)
	if err != nil {
		return group.Params{}, err
	}
	if c.StakeAmount == nil {
		return group.Params{}, errors.New("stakeAmount: required")
	}
	return group.Params{
		Unit:            group.StakeUnit{Type: tokenType, Token: c.Token},
		StakeAmount:     (*big.Int)(c.StakeAmount),
		MaxSize:         c.MaxSize,
		SessionDuration: c.SessionDuration,
		MaxInactivity:   c.MaxInactivity,
	}, nil
}

type CreateGroupResult struct {
	ID uint64 `json:"id"`
}

type NextGroupID struct {
	NextID uint64 `json:"nextId"`
}

type Join struct {
	Participant thor.Address          `json:"participant"`
	Amount      *math.HexOrDecimal256 `json:"amount"`
}

func (j *Join) Validate() error {
	if err := requireAddress("participant", j.Participant); err != nil {
		return err
	}
	if j.Amount == nil {
		return errors.New("amount: required")
	}
	return nil
}

// ParticipantCall is the body of ping, complete and withdraw.
type ParticipantCall struct {
	Participant thor.Address `json:"participant"`
}

func (p *ParticipantCall) Validate() error {
	return requireAddress("participant", p.Participant)
}

// CallerCall is the body of start, finalize and sweep.
type CallerCall struct {
	Caller thor.Address `json:"caller"`
}

func (c *CallerCall) Validate() error {
	return requireAddress("caller", c.Caller)
}

type MarkAFK struct {
	Caller thor.Address `json:"caller"`
	Target thor.Address `json:"target"`
}

func (m *MarkAFK) Validate() error {
	if err := requireAddress("caller", m.Caller); err != nil {
		return err
	}
	return requireAddress("target", m.Target)
}

// SetBot is the body of the bot update. A null bot clears the delegate.
type SetBot struct {
	Caller thor.Address  `json:"caller"`
	Bot    *thor.Address `json:"bot"`
}

func (b *SetBot) Validate() error {
	return requireAddress("caller", b.Caller)
}

type Amount struct {
	Amount *math.HexOrDecimal256 `json:"amount"`
}

type State struct {
	State string `json:"state"`
}

type Summary struct {
	ID              uint64                `json:"id"`
	TokenType       string                `json:"tokenType"`
	Token           *thor.Address         `json:"token"`
	StakeAmount     *math.HexOrDecimal256 `json:"stakeAmount"`
	MaxSize         uint64                `json:"maxSize"`
	SessionDuration uint64                `json:"sessionDuration"`
	MaxInactivity   uint64                `json:"maxInactivity"`
	State           string                `json:"state"`
	Started         bool                  `json:"started"`
	Finalized       bool                  `json:"finalized"`
	StartTimestamp  uint64                `json:"startTimestamp"`
	TotalCollected  *math.HexOrDecimal256 `json:"totalCollected"`
	TotalCompleted  uint64                `json:"totalCompleted"`
	Balance         *math.HexOrDecimal256 `json:"balance"`
	JoinedCount     int                   `json:"joinedCount"`
	Creator         thor.Address          `json:"creator"`
	Bot             *thor.Address         `json:"bot"`
	Remainder       *math.HexOrDecimal256 `json:"remainder"`
	RemainderSwept  bool                  `json:"remainderSwept"`
}

func convertSummary(snap *group.Snapshot) *Summary {
	s := &Summary{
		ID:              snap.ID,
		TokenType:       snap.Params.Unit.Type.String(),
		Token:           snap.Params.Unit.Token,
		StakeAmount:     (*math.HexOrDecimal256)(snap.Params.StakeAmount),
		MaxSize:         snap.Params.MaxSize,
		SessionDuration: snap.Params.SessionDuration,
		MaxInactivity:   snap.Params.MaxInactivity,
		State:           snap.State.String(),
		Started:         snap.State != group.StateCreated,
		Finalized:       snap.State == group.StateFinalized,
		StartTimestamp:  snap.StartTimestamp,
		TotalCollected:  (*math.HexOrDecimal256)(snap.TotalCollected),
		TotalCompleted:  snap.TotalCompleted,
		Balance:         (*math.HexOrDecimal256)(snap.Balance),
		JoinedCount:     snap.JoinedCount(),
		Creator:         snap.Creator,
		Bot:             snap.Bot,
		RemainderSwept:  snap.RemainderSwept,
	}
	if snap.Settlement != nil {
		s.Remainder = (*math.HexOrDecimal256)(snap.Settlement.Remainder)
	}
	return s
}

type Participant struct {
	Address     thor.Address          `json:"address"`
	Stake       *math.HexOrDecimal256 `json:"stake"`
	Status      string                `json:"status"`
	LastAliveTs uint64                `json:"lastAliveTs"`
	Withdrawn   bool                  `json:"withdrawn"`
}

func convertParticipant(p *group.Participant) *Participant {
	return &Participant{
		Address:     p.Address,
		Stake:       (*math.HexOrDecimal256)(p.Stake),
		Status:      p.Status.String(),
		LastAliveTs: p.LastAliveTs,
		Withdrawn:   p.Withdrawn,
	}
}

// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/vechain/focus/log"
	"github.com/vechain/focus/staking/group"
	"github.com/vechain/focus/staking/registry"
	"github.com/vechain/focus/staking/reverts"
	"github.com/vechain/focus/staking/settlement"
	"github.com/vechain/focus/thor"
)

var logger = log.WithContext("pkg", "staking")

func SetLogger(l log.Logger) {
	logger = l
}

// Config holds the deployment wide settings.
type Config struct {
	Policy        settlement.Policy
	DefaultBot    *thor.Address // assigned to every new group, nil for none
	CommunityPool *thor.Address // the only caller allowed to sweep remainders, nil disables sweeping
}

// Staking exposes the operations on focus session groups.
type Staking struct {
	registry      *registry.Registry
	calculator    *settlement.Calculator
	defaultBot    *thor.Address
	communityPool *thor.Address
}

// New creates the staking service on top of an opened registry.
func New(reg *registry.Registry, cfg Config) *Staking {
	metricActiveSessions().Set(int64(len(reg.Started())))
	return &Staking{
		registry:      reg,
		calculator:    settlement.New(cfg.Policy),
		defaultBot:    copyAddress(cfg.DefaultBot),
		communityPool: copyAddress(cfg.CommunityPool),
	}
}

func copyAddress(addr *thor.Address) *thor.Address {
	if addr == nil || addr.IsZero() {
		return nil
	}
	a := *addr
	return &a
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case reverts.IsRevertErr(err):
		return reverts.KindOf(err).String()
	default:
		return "error"
	}
}

// update runs fn on group id and records the outcome.
func (s *Staking) update(op string, id uint64, fn func(g *group.Group) error) error {
	err := s.registry.Update(id, fn)
	metricOperations().AddWithLabel(1, map[string]string{"op": op, "result": result(err)})
	return err
}

//
// Getters - no state change
//

// NextGroupID returns the number of groups ever created.
func (s *Staking) NextGroupID() uint64 {
	return s.registry.NextGroupID()
}

// GetGroupSummary returns a deep copy of the group.
func (s *Staking) GetGroupSummary(id uint64) (*group.Snapshot, error) {
	return s.registry.Get(id)
}

// GetGroupState returns the lifecycle state of the group.
func (s *Staking) GetGroupState(id uint64) (group.State, error) {
	var state group.State
	err := s.registry.View(id, func(g *group.Group) error {
		state = g.State()
		return nil
	})
	return state, err
}

// GetParticipant returns the participant at join index of the group.
func (s *Staking) GetParticipant(id uint64, index int) (group.Participant, error) {
	var p group.Participant
	err := s.registry.View(id, func(g *group.Group) (err error) {
		p, err = g.Participant(index)
		return
	})
	return p, err
}

// Payout returns the settled amount of a participant of a finalized group.
func (s *Staking) Payout(id uint64, participant thor.Address) (*big.Int, error) {
	var payout *big.Int
	err := s.registry.View(id, func(g *group.Group) (err error) {
		payout, err = g.Payout(participant)
		return
	})
	return payout, err
}

// Started returns the ids of running sessions.
func (s *Staking) Started() []uint64 {
	return s.registry.Started()
}

// AFKCandidates returns the participants of group id that can be marked AFK at now.
func (s *Staking) AFKCandidates(id uint64, now uint64) ([]thor.Address, error) {
	var candidates []thor.Address
	err := s.registry.View(id, func(g *group.Group) error {
		candidates = g.AFKCandidates(now)
		return nil
	})
	return candidates, err
}

// Due reports whether group id can be finalized at now.
func (s *Staking) Due(id uint64, now uint64) (bool, error) {
	var due bool
	err := s.registry.View(id, func(g *group.Group) error {
		due = g.Due(now)
		return nil
	})
	return due, err
}

//
// Setters - state change
//

// CreateGroup creates a group owned by creator, delegated to the default bot if one is configured.
func (s *Staking) CreateGroup(params group.Params, creator thor.Address) (uint64, error) {
	logger.Debug("creating group", "creator", creator, "unit", params.Unit.Type, "stake", params.StakeAmount,
		"maxSize", params.MaxSize, "duration", params.SessionDuration, "inactivity", params.MaxInactivity)

	id, err := s.registry.Create(params, creator, s.defaultBot)
	metricOperations().AddWithLabel(1, map[string]string{"op": "create", "result": result(err)})
	if err != nil {
		logger.Info("create group failed", "creator", creator, "error", err)
		return 0, err
	}

	metricGroupsCreated().Add(1)
	logger.Info("created group", "id", id, "creator", creator)
	return id, nil
}

// JoinGroup deposits the participant's stake into group id.
func (s *Staking) JoinGroup(id uint64, participant thor.Address, amount *big.Int, now uint64) error {
	logger.Debug("joining group", "id", id, "participant", participant, "amount", amount, "now", now)

	if err := s.update("join", id, func(g *group.Group) error {
		return g.Join(participant, amount, now)
	}); err != nil {
		logger.Info("join group failed", "id", id, "participant", participant, "error", err)
		return err
	}

	logger.Info("joined group", "id", id, "participant", participant)
	return nil
}

// StartSession starts the session of group id.
func (s *Staking) StartSession(id uint64, caller thor.Address, now uint64) error {
	logger.Debug("starting session", "id", id, "caller", caller, "now", now)

	if err := s.update("start", id, func(g *group.Group) error {
		return g.Start(caller, now)
	}); err != nil {
		logger.Info("start session failed", "id", id, "caller", caller, "error", err)
		return err
	}

	metricActiveSessions().Add(1)
	logger.Info("started session", "id", id)
	return nil
}

// UserPing records a liveness signal of the participant.
func (s *Staking) UserPing(id uint64, participant thor.Address, now uint64) error {
	logger.Trace("ping", "id", id, "participant", participant, "now", now)

	if err := s.update("ping", id, func(g *group.Group) error {
		return g.Ping(participant, now)
	}); err != nil {
		logger.Debug("ping failed", "id", id, "participant", participant, "error", err)
		return err
	}
	return nil
}

// MarkAFK drops out a silent participant. Only the creator or the bot may call it.
func (s *Staking) MarkAFK(id uint64, target, caller thor.Address, now uint64) error {
	logger.Debug("marking afk", "id", id, "target", target, "caller", caller, "now", now)

	if err := s.update("afk", id, func(g *group.Group) error {
		return g.MarkAFK(target, caller, now)
	}); err != nil {
		logger.Info("mark afk failed", "id", id, "target", target, "error", err)
		return err
	}

	logger.Info("marked afk", "id", id, "target", target)
	return nil
}

// MarkCompleted records that the participant finished the session.
func (s *Staking) MarkCompleted(id uint64, participant thor.Address, now uint64) error {
	logger.Debug("marking completed", "id", id, "participant", participant, "now", now)

	if err := s.update("complete", id, func(g *group.Group) error {
		return g.MarkCompleted(participant, now)
	}); err != nil {
		logger.Info("mark completed failed", "id", id, "participant", participant, "error", err)
		return err
	}

	logger.Info("marked completed", "id", id, "participant", participant)
	return nil
}

// FinalizeGroup ends the session of group id and settles it.
func (s *Staking) FinalizeGroup(id uint64, caller thor.Address, now uint64) error {
	logger.Debug("finalizing group", "id", id, "caller", caller, "now", now)

	var snap *group.Snapshot
	if err := s.update("finalize", id, func(g *group.Group) error {
		if err := g.Finalize(caller, now, s.calculator.Compute); err != nil {
			return err
		}
		snap = g.Snapshot()
		return nil
	}); err != nil {
		logger.Info("finalize group failed", "id", id, "caller", caller, "error", err)
		return err
	}

	metricActiveSessions().Add(-1)
	stake := snap.Params.StakeAmount
	for _, payout := range snap.Settlement.Payouts {
		ratio := new(big.Int).Mul(payout, big.NewInt(100))
		metricPayoutRatio().Observe(ratio.Quo(ratio, stake).Int64())
	}
	logger.Info("finalized group", "id", id, "completed", snap.TotalCompleted,
		"joined", snap.JoinedCount(), "remainder", snap.Settlement.Remainder)
	return nil
}

// Withdraw pays out the participant's settled amount, exactly once.
func (s *Staking) Withdraw(id uint64, participant thor.Address, now uint64) (*big.Int, error) {
	logger.Debug("withdrawing", "id", id, "participant", participant, "now", now)

	var amount *big.Int
	if err := s.update("withdraw", id, func(g *group.Group) (err error) {
		amount, err = g.Withdraw(participant)
		return
	}); err != nil {
		logger.Info("withdraw failed", "id", id, "participant", participant, "error", err)
		return nil, err
	}

	logger.Info("withdrew", "id", id, "participant", participant, "amount", amount)
	return amount, nil
}

// SetBot replaces the delegate of group id. A nil bot clears it.
func (s *Staking) SetBot(id uint64, caller thor.Address, bot *thor.Address) error {
	logger.Debug("setting bot", "id", id, "caller", caller, "bot", bot)

	if err := s.update("bot", id, func(g *group.Group) error {
		return g.SetBot(caller, bot)
	}); err != nil {
		logger.Info("set bot failed", "id", id, "caller", caller, "error", err)
		return err
	}

	logger.Info("set bot", "id", id, "bot", bot)
	return nil
}

// SweepRemainder releases the positive remainder of a finalized group to the community pool.
func (s *Staking) SweepRemainder(id uint64, caller thor.Address, now uint64) (*big.Int, error) {
	logger.Debug("sweeping remainder", "id", id, "caller", caller, "now", now)

	if s.communityPool == nil || caller != *s.communityPool {
		err := reverts.New(reverts.KindUnauthorized, "caller is not the community pool")
		metricOperations().AddWithLabel(1, map[string]string{"op": "sweep", "result": result(err)})
		logger.Info("sweep remainder failed", "id", id, "caller", caller, "error", err)
		return nil, err
	}

	var amount *big.Int
	if err := s.update("sweep", id, func(g *group.Group) (err error) {
		amount, err = g.SweepRemainder()
		return
	}); err != nil {
		logger.Info("sweep remainder failed", "id", id, "caller", caller, "error", err)
		return nil, err
	}

	logger.Info("swept remainder", "id", id, "amount", amount)
	return amount, nil
}

// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package group

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/focus/staking/ledger"
	"github.com/vechain/focus/staking/liveness"
	"github.com/vechain/focus/staking/reverts"
	"github.com/vechain/focus/thor"
)

// Group is the session state machine of one staking group.
// Every operation checks all of its guards before mutating, so a returned error leaves the group untouched.
// A Group is not safe for concurrent use.
type Group struct {
	id             uint64
	params         Params
	creator        thor.Address
	bot            *thor.Address
	state          State
	startTimestamp uint64
	totalCompleted uint64
	statuses       []Status
	ledger         *ledger.Ledger
	liveness       *liveness.Tracker
	settlement     *Settlement
	remainderSwept bool
}

// New creates a group in the Created state.
func New(id uint64, params Params, creator thor.Address, bot *thor.Address) (*Group, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if creator.IsZero() {
		return nil, reverts.New(reverts.KindInvalidParameters, "creator must not be the zero address")
	}
	l := ledger.New(params.StakeAmount)
	g := &Group{
		id:       id,
		params:   params.clone(),
		creator:  creator,
		ledger:   l,
		liveness: liveness.New(l),
	}
	if bot != nil {
		b := *bot
		g.bot = &b
	}
	return g, nil
}

func (g *Group) ID() uint64 {
	return g.id
}

func (g *Group) Params() Params {
	return g.params.clone()
}

func (g *Group) Creator() thor.Address {
	return g.creator
}

func (g *Group) Bot() *thor.Address {
	if g.bot == nil {
		return nil
	}
	bot := *g.bot
	return &bot
}

func (g *Group) State() State {
	return g.state
}

func (g *Group) StartTimestamp() uint64 {
	return g.startTimestamp
}

func (g *Group) TotalCompleted() uint64 {
	return g.totalCompleted
}

func (g *Group) TotalCollected() *big.Int {
	return g.ledger.TotalCollected()
}

func (g *Group) JoinedCount() int {
	return g.ledger.Len()
}

// IsAuthorized reports whether caller is the creator or the configured bot.
func (g *Group) IsAuthorized(caller thor.Address) bool {
	return caller == g.creator || (g.bot != nil && caller == *g.bot)
}

// Deadline returns the earliest time the group can be finalized. Zero before start.
func (g *Group) Deadline() uint64 {
	if g.state == StateCreated {
		return 0
	}
	return g.startTimestamp + g.params.SessionDuration
}

func (g *Group) activeIndex(participant thor.Address) (int, error) {
	i, ok := g.ledger.IndexOf(participant)
	if !ok || g.statuses[i] != StatusActive {
		return 0, reverts.New(reverts.KindNotActiveParticipant, "participant is not active")
	}
	return i, nil
}

// Join deposits the participant's stake. The join time is the first liveness signal.
func (g *Group) Join(participant thor.Address, amount *big.Int, now uint64) error {
	if g.state != StateCreated {
		return reverts.New(reverts.KindInvalidState, "group is not accepting participants")
	}
	if participant.IsZero() {
		return reverts.New(reverts.KindInvalidParameters, "participant must not be the zero address")
	}
	if uint64(g.ledger.Len()) >= g.params.MaxSize {
		return reverts.New(reverts.KindGroupFull, "group is full")
	}
	if err := g.ledger.CheckDeposit(participant, amount); err != nil {
		return err
	}

	if _, err := g.ledger.Deposit(participant, amount); err != nil {
		return err
	}
	g.statuses = append(g.statuses, StatusActive)
	return g.liveness.Track(participant, now)
}

// Start begins the session. Everyone is considered alive at start.
func (g *Group) Start(caller thor.Address, now uint64) error {
	if !g.IsAuthorized(caller) {
		return reverts.New(reverts.KindUnauthorized, "caller is neither creator nor bot")
	}
	if g.state != StateCreated {
		return reverts.New(reverts.KindInvalidState, "group already started")
	}
	if g.ledger.Len() < 2 {
		return reverts.New(reverts.KindInsufficientParticipants, "at least 2 participants are required")
	}

	g.state = StateStarted
	g.startTimestamp = now
	g.liveness.TouchAll(now)
	return nil
}

// Ping records a liveness signal.
func (g *Group) Ping(participant thor.Address, now uint64) error {
	if g.state != StateStarted {
		return reverts.New(reverts.KindInvalidState, "session is not running")
	}
	if _, err := g.activeIndex(participant); err != nil {
		return err
	}
	return g.liveness.Touch(participant, now)
}

// MarkAFK drops out a participant who has been silent for longer than the inactivity limit.
func (g *Group) MarkAFK(target, caller thor.Address, now uint64) error {
	if !g.IsAuthorized(caller) {
		return reverts.New(reverts.KindUnauthorized, "caller is neither creator nor bot")
	}
	if g.state != StateStarted {
		return reverts.New(reverts.KindInvalidState, "session is not running")
	}
	i, err := g.activeIndex(target)
	if err != nil {
		return err
	}
	expired, err := g.liveness.Expired(target, now, g.params.MaxInactivity)
	if err != nil {
		return err
	}
	if !expired {
		return reverts.New(reverts.KindStillAlive, "participant is still alive")
	}

	g.statuses[i] = StatusDroppedOut
	return nil
}

// MarkCompleted records that the participant finished the session.
func (g *Group) MarkCompleted(participant thor.Address, _ uint64) error {
	if g.state != StateStarted {
		return reverts.New(reverts.KindInvalidState, "session is not running")
	}
	i, err := g.activeIndex(participant)
	if err != nil {
		return err
	}

	g.statuses[i] = StatusCompleted
	return nil
}

// Finalize ends the session. Participants still Active are stored as DroppedOut,
// then settle is called once on the final snapshot and its result is cached.
func (g *Group) Finalize(caller thor.Address, now uint64, settle SettleFunc) error {
	if !g.IsAuthorized(caller) {
		return reverts.New(reverts.KindUnauthorized, "caller is neither creator nor bot")
	}
	if g.state != StateStarted {
		return reverts.New(reverts.KindInvalidState, "session is not running")
	}
	if now < g.Deadline() {
		return reverts.Newf(reverts.KindTooEarly, "session ends at %d", g.Deadline())
	}

	statuses := make([]Status, len(g.statuses))
	var completed uint64
	for i, s := range g.statuses {
		if s == StatusActive {
			s = StatusDroppedOut
		}
		if s == StatusCompleted {
			completed++
		}
		statuses[i] = s
	}

	snap := g.snapshot(StateFinalized, statuses, completed)
	settlement, err := settle(snap)
	if err != nil {
		return errors.Wrap(err, "settle")
	}
	if settlement == nil || len(settlement.Payouts) != len(statuses) || settlement.Remainder == nil {
		return errors.New("settle: malformed settlement")
	}
	remainder := g.ledger.TotalCollected()
	for _, p := range settlement.Payouts {
		if p == nil || p.Sign() < 0 {
			return errors.New("settle: negative payout")
		}
		remainder.Sub(remainder, p)
	}
	if remainder.Cmp(settlement.Remainder) != 0 {
		return errors.Errorf("settle: remainder %s, want %s", settlement.Remainder, remainder)
	}

	g.statuses = statuses
	g.totalCompleted = completed
	g.state = StateFinalized
	g.settlement = settlement.clone()
	return nil
}

// Payout returns the settled amount of the participant.
func (g *Group) Payout(participant thor.Address) (*big.Int, error) {
	if g.state != StateFinalized {
		return nil, reverts.New(reverts.KindInvalidState, "group is not finalized")
	}
	i, ok := g.ledger.IndexOf(participant)
	if !ok {
		return nil, reverts.New(reverts.KindNotEntitled, "not a participant of the group")
	}
	return new(big.Int).Set(g.settlement.Payouts[i]), nil
}

// Withdraw pays out the participant's settled amount, exactly once. A zero payout still counts.
func (g *Group) Withdraw(participant thor.Address) (*big.Int, error) {
	if g.state != StateFinalized {
		return nil, reverts.New(reverts.KindInvalidState, "group is not finalized")
	}
	i, err := g.ledger.CheckDebit(participant)
	if err != nil {
		return nil, err
	}
	return g.ledger.Debit(participant, g.settlement.Payouts[i])
}

// SetBot replaces the delegate. A nil bot clears it. Only the creator may call it, before finalize.
func (g *Group) SetBot(caller thor.Address, bot *thor.Address) error {
	if caller != g.creator {
		return reverts.New(reverts.KindUnauthorized, "only the creator can set the bot")
	}
	if g.state == StateFinalized {
		return reverts.New(reverts.KindInvalidState, "group is finalized")
	}

	if bot == nil || bot.IsZero() {
		g.bot = nil
		return nil
	}
	b := *bot
	g.bot = &b
	return nil
}

// Remainder returns collected minus payouts of a finalized group.
func (g *Group) Remainder() (*big.Int, error) {
	if g.state != StateFinalized {
		return nil, reverts.New(reverts.KindInvalidState, "group is not finalized")
	}
	return new(big.Int).Set(g.settlement.Remainder), nil
}

// SweepRemainder releases the positive remainder of a finalized group, exactly once.
func (g *Group) SweepRemainder() (*big.Int, error) {
	if g.state != StateFinalized {
		return nil, reverts.New(reverts.KindInvalidState, "group is not finalized")
	}
	if g.remainderSwept {
		return nil, reverts.New(reverts.KindAlreadyWithdrawn, "remainder already swept")
	}
	if g.settlement.Remainder.Sign() <= 0 {
		return nil, reverts.New(reverts.KindNotEntitled, "no remainder to sweep")
	}

	g.remainderSwept = true
	return new(big.Int).Set(g.settlement.Remainder), nil
}

// AFKCandidates returns the active participants that can be marked AFK at now.
func (g *Group) AFKCandidates(now uint64) []thor.Address {
	if g.state != StateStarted {
		return nil
	}
	var candidates []thor.Address
	for i, acc := range g.ledger.Accounts() {
		if g.statuses[i] != StatusActive {
			continue
		}
		if expired, err := g.liveness.Expired(acc.Address, now, g.params.MaxInactivity); err == nil && expired {
			candidates = append(candidates, acc.Address)
		}
	}
	return candidates
}

// Due reports whether the group can be finalized at now.
func (g *Group) Due(now uint64) bool {
	return g.state == StateStarted && now >= g.Deadline()
}

// Participant returns the participant at join index i.
func (g *Group) Participant(i int) (Participant, error) {
	acc, ok := g.ledger.Account(i)
	if !ok {
		return Participant{}, reverts.Newf(reverts.KindNotFound, "no participant at index %d", i)
	}
	last, err := g.liveness.LastAlive(acc.Address)
	if err != nil {
		return Participant{}, err
	}
	return Participant{
		Address:     acc.Address,
		Stake:       acc.Stake,
		Status:      g.statuses[i],
		LastAliveTs: last,
		Withdrawn:   acc.Withdrawn,
	}, nil
}

// Snapshot returns a deep copy of the group.
func (g *Group) Snapshot() *Snapshot {
	snap := g.snapshot(g.state, g.statuses, g.totalCompleted)
	if g.settlement != nil {
		snap.Settlement = g.settlement.clone()
	}
	return snap
}

func (g *Group) snapshot(state State, statuses []Status, completed uint64) *Snapshot {
	lastAlive := g.liveness.Snapshot()
	accounts := g.ledger.Accounts()
	participants := make([]Participant, 0, len(accounts))
	for i, acc := range accounts {
		participants = append(participants, Participant{
			Address:     acc.Address,
			Stake:       acc.Stake,
			Status:      statuses[i],
			LastAliveTs: lastAlive[i],
			Withdrawn:   acc.Withdrawn,
		})
	}
	return &Snapshot{
		ID:             g.id,
		Params:         g.params.clone(),
		Creator:        g.creator,
		Bot:            g.Bot(),
		State:          state,
		StartTimestamp: g.startTimestamp,
		TotalCollected: g.ledger.TotalCollected(),
		TotalPaid:      g.ledger.TotalPaid(),
		Balance:        g.ledger.Balance(),
		TotalCompleted: completed,
		Participants:   participants,
		RemainderSwept: g.remainderSwept,
	}
}

// Clone returns a deep copy that can be mutated independently.
func (g *Group) Clone() *Group {
	l := g.ledger.Clone()
	c := &Group{
		id:             g.id,
		params:         g.params.clone(),
		creator:        g.creator,
		bot:            g.Bot(),
		state:          g.state,
		startTimestamp: g.startTimestamp,
		totalCompleted: g.totalCompleted,
		statuses:       append([]Status(nil), g.statuses...),
		ledger:         l,
		liveness:       g.liveness.Clone(l),
		remainderSwept: g.remainderSwept,
	}
	if g.settlement != nil {
		c.settlement = g.settlement.clone()
	}
	return c
}

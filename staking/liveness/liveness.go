// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package liveness

import (
	"github.com/pkg/errors"

	"github.com/vechain/focus/staking/ledger"
	"github.com/vechain/focus/staking/reverts"
	"github.com/vechain/focus/thor"
)

// Tracker records the last-alive timestamp of every participant of a group.
// Membership is owned by the ledger, the tracker keeps one timestamp per ledger account.
type Tracker struct {
	ledger    *ledger.Ledger
	lastAlive []uint64
}

// New creates a tracker for an empty ledger.
func New(l *ledger.Ledger) *Tracker {
	return &Tracker{
		ledger:    l,
		lastAlive: make([]uint64, l.Len()),
	}
}

// Restore rebuilds a tracker from persisted timestamps, one per ledger account in join order.
func Restore(l *ledger.Ledger, lastAlive []uint64) (*Tracker, error) {
	if len(lastAlive) != l.Len() {
		return nil, errors.Errorf("liveness: %d timestamps for %d accounts", len(lastAlive), l.Len())
	}
	return &Tracker{
		ledger:    l,
		lastAlive: append([]uint64(nil), lastAlive...),
	}, nil
}

// Clone returns a copy bound to the given ledger, which must be a clone of the tracked one.
func (t *Tracker) Clone(l *ledger.Ledger) *Tracker {
	return &Tracker{
		ledger:    l,
		lastAlive: append([]uint64(nil), t.lastAlive...),
	}
}

func (t *Tracker) index(participant thor.Address) (int, error) {
	i, ok := t.ledger.IndexOf(participant)
	if !ok || i >= len(t.lastAlive) {
		return 0, reverts.New(reverts.KindNotActiveParticipant, "not a participant of the group")
	}
	return i, nil
}

// Track starts tracking a freshly deposited participant.
func (t *Tracker) Track(participant thor.Address, now uint64) error {
	i, ok := t.ledger.IndexOf(participant)
	if !ok {
		return reverts.New(reverts.KindNotActiveParticipant, "not a participant of the group")
	}
	for len(t.lastAlive) <= i {
		t.lastAlive = append(t.lastAlive, 0)
	}
	t.lastAlive[i] = now
	return nil
}

// Touch records that the participant was alive at now. The timestamp never decreases.
func (t *Tracker) Touch(participant thor.Address, now uint64) error {
	i, err := t.index(participant)
	if err != nil {
		return err
	}
	if now > t.lastAlive[i] {
		t.lastAlive[i] = now
	}
	return nil
}

// TouchAll records every participant as alive at now.
func (t *Tracker) TouchAll(now uint64) {
	for i := range t.lastAlive {
		if now > t.lastAlive[i] {
			t.lastAlive[i] = now
		}
	}
}

// LastAlive returns the participant's last-alive timestamp.
func (t *Tracker) LastAlive(participant thor.Address) (uint64, error) {
	i, err := t.index(participant)
	if err != nil {
		return 0, err
	}
	return t.lastAlive[i], nil
}

// Silence returns how long the participant has been silent at now, zero if now is not after the last ping.
func (t *Tracker) Silence(participant thor.Address, now uint64) (uint64, error) {
	last, err := t.LastAlive(participant)
	if err != nil {
		return 0, err
	}
	if now <= last {
		return 0, nil
	}
	return now - last, nil
}

// Expired reports whether the participant has been silent for strictly more than maxInactivity.
func (t *Tracker) Expired(participant thor.Address, now, maxInactivity uint64) (bool, error) {
	silence, err := t.Silence(participant, now)
	if err != nil {
		return false, err
	}
	return silence > maxInactivity, nil
}

// Snapshot returns the timestamps in join order.
func (t *Tracker) Snapshot() []uint64 {
	return append([]uint64(nil), t.lastAlive...)
}

// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package keeper

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vechain/focus/log"
	"github.com/vechain/focus/metrics"
	"github.com/vechain/focus/staking"
	"github.com/vechain/focus/staking/reverts"
	"github.com/vechain/focus/thor"
)

var (
	logger = log.WithContext("pkg", "keeper")

	metricActions = metrics.LazyLoadCounterVec("keeper_actions_count", []string{"action", "result"})
)

// Options configure a keeper.
type Options struct {
	Interval    time.Duration // time between two rounds
	Concurrency int           // groups processed in parallel per round
}

// Keeper enforces deadlines on behalf of a delegate identity. Every round it drops out silent
// participants and finalizes the sessions that are due.
type Keeper struct {
	staking  *staking.Staking
	identity thor.Address
	options  Options
	clock    func() uint64
}

// Stats counts what a round did.
type Stats struct {
	MarkedAFK atomic.Int64
	Finalized atomic.Int64
}

// New creates a keeper acting as identity. The clock returns the current unix time in seconds.
func New(s *staking.Staking, identity thor.Address, options Options, clock func() uint64) *Keeper {
	if options.Concurrency < 1 {
		options.Concurrency = 1
	}
	if options.Interval <= 0 {
		options.Interval = 10 * time.Second
	}
	return &Keeper{
		staking:  s,
		identity: identity,
		options:  options,
		clock:    clock,
	}
}

// Run processes rounds until ctx is done.
func (k *Keeper) Run(ctx context.Context) {
	logger.Debug("enter keeper loop", "identity", k.identity, "interval", k.options.Interval)
	defer logger.Debug("leave keeper loop")

	ticker := time.NewTicker(k.options.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats, err := k.Round(ctx, k.clock())
			if err != nil {
				logger.Warn("keeper round failed", "err", err)
				continue
			}
			if n, m := stats.MarkedAFK.Load(), stats.Finalized.Load(); n > 0 || m > 0 {
				logger.Info("keeper round", "afk", n, "finalized", m)
			}
		}
	}
}

// Round handles every running session once at now.
func (k *Keeper) Round(ctx context.Context, now uint64) (*Stats, error) {
	var stats Stats

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(k.options.Concurrency)
	for _, id := range k.staking.Started() {
		if egCtx.Err() != nil {
			break
		}
		eg.Go(func() error {
			return k.handle(id, now, &stats)
		})
	}
	if err := eg.Wait(); err != nil {
		return &stats, err
	}
	return &stats, ctx.Err()
}

// expected reports whether err is a revert caused by racing with participants or other callers.
func expected(err error) bool {
	switch reverts.KindOf(err) {
	case reverts.KindStillAlive,
		reverts.KindTooEarly,
		reverts.KindNotActiveParticipant,
		reverts.KindInvalidState,
		reverts.KindUnauthorized:
		return true
	}
	return false
}

func record(action string, err error) {
	res := "ok"
	if err != nil {
		res = reverts.KindOf(err).String()
	}
	metricActions().AddWithLabel(1, map[string]string{"action": action, "result": res})
}

func (k *Keeper) handle(id uint64, now uint64, stats *Stats) error {
	candidates, err := k.staking.AFKCandidates(id, now)
	if err != nil {
		return err
	}
	for _, target := range candidates {
		err := k.staking.MarkAFK(id, target, k.identity, now)
		record("afk", err)
		switch {
		case err == nil:
			stats.MarkedAFK.Add(1)
		case reverts.Is(err, reverts.KindUnauthorized):
			logger.Debug("not a delegate of group", "id", id)
			return nil
		case !expected(err):
			return err
		}
	}

	due, err := k.staking.Due(id, now)
	if err != nil || !due {
		return err
	}
	err = k.staking.FinalizeGroup(id, k.identity, now)
	record("finalize", err)
	switch {
	case err == nil:
		stats.Finalized.Add(1)
	case !expected(err):
		return err
	}
	return nil
}

// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import "github.com/vechain/focus/metrics"

var (
	metricGroupsCreated  = metrics.LazyLoadCounter("staking_groups_created_count")
	metricOperations     = metrics.LazyLoadCounterVec("staking_operations_count", []string{"op", "result"})
	metricActiveSessions = metrics.LazyLoadGauge("staking_active_sessions")
	metricPayoutRatio    = metrics.LazyLoadHistogram("staking_payout_ratio_percent", metrics.BucketPayoutRatio)
)

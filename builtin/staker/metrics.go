// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import "github.com/vechain/stakeweight/metrics"

var (
	metricEntryCount    = metrics.LazyLoadCounterVec("staker_entry_count", []string{"op", "result"})
	metricRegistryCalls = metrics.LazyLoadCounterVec("staker_registry_calls_count", []string{"call"})
	metricWeightChanges = metrics.LazyLoadCounterVec("staker_registry_transitions_count", []string{"transition"})
)

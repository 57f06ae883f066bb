// Copyright 2024-2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package data

import (
	"sort"
	"time"
)

// SearchDirection controls which side of the target date a nearest-price
// lookup may resolve to.
type SearchDirection int

const (
	// SearchForward resolves to the first observation at or after the target.
	SearchForward SearchDirection = iota
	// SearchBackward resolves to the last observation at or before the target.
	SearchBackward
)

// NearestPrice finds the observation nearest to target in the given
// direction. The lookup fails with ErrPriceUnavailable when the nearest
// candidate is more than maxGapDays calendar days from the target; an
// explicit unavailable result keeps failure semantics auditable instead of
// silently taking a best-effort match far from the bound.
//
// prices must be sorted ascending by date (Store.Prices guarantees this).
func NearestPrice(prices []*PriceObservation, target time.Time, dir SearchDirection, maxGapDays int) (*PriceObservation, error) {
	if len(prices) == 0 {
		return nil, ErrNoPriceHistory
	}

	// index of first observation >= target
	idx := sort.Search(len(prices), func(i int) bool {
		return !prices[i].Date.Before(target)
	})

	var candidate *PriceObservation
	switch dir {
	case SearchForward:
		if idx == len(prices) {
			return nil, ErrPriceUnavailable
		}
		candidate = prices[idx]
	case SearchBackward:
		if idx < len(prices) && prices[idx].Date.Equal(target) {
			candidate = prices[idx]
		} else if idx == 0 {
			return nil, ErrPriceUnavailable
		} else {
			candidate = prices[idx-1]
		}
	}

	gap := candidate.Date.Sub(target)
	if gap < 0 {
		gap = -gap
	}
	if gap > time.Duration(maxGapDays)*24*time.Hour {
		return nil, ErrPriceUnavailable
	}

	return candidate, nil
}

// CountTradingDays counts observations in [begin, end]. Used for the
// minimum-coverage eligibility screen.
func CountTradingDays(prices []*PriceObservation, begin, end time.Time) int {
	lo := sort.Search(len(prices), func(i int) bool {
		return !prices[i].Date.Before(begin)
	})
	hi := sort.Search(len(prices), func(i int) bool {
		return prices[i].Date.After(end)
	})
	if hi < lo {
		return 0
	}
	return hi - lo
}

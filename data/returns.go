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
	"time"
)

const (
	// Winsorization bounds for holding-period returns. Values outside are
	// clipped to the bound so the symbol stays in the sample.
	WinsorLower = -0.99
	WinsorUpper = 10.0

	// DelistBankruptcyReturn replaces the computed return for liquidation
	// type exits (Shumway 1997 delisting-bias correction).
	DelistBankruptcyReturn = -0.30

	// DefaultMaxGapDays is the calendar-day tolerance for resolving the
	// July 1 / June 30 price bounds. Fixed for the whole backtest so the
	// holding-period convention stays consistent across years.
	DefaultMaxGapDays = 10

	// DefaultMinTradingDays is the minimum price coverage over the year
	// before formation for a symbol to be universe-eligible.
	DefaultMinTradingDays = 200
)

// Winsorize clips a return to the (WinsorLower, WinsorUpper) bounds.
func Winsorize(r float64) float64 {
	if r < WinsorLower {
		return WinsorLower
	}
	if r > WinsorUpper {
		return WinsorUpper
	}
	return r
}

// ReturnBuilder computes July–June holding-period returns with delisting
// adjustment (Fama-French annual rebalancing convention). Formation month,
// day, holding period, and the price lookup tolerance are configurable but
// fixed for the life of the builder.
type ReturnBuilder struct {
	store *Store

	FormationMonth time.Month
	FormationDay   int
	HoldingMonths  int
	MaxGapDays     int
}

func NewReturnBuilder(store *Store) *ReturnBuilder {
	return &ReturnBuilder{
		store:          store,
		FormationMonth: time.July,
		FormationDay:   1,
		HoldingMonths:  12,
		MaxGapDays:     DefaultMaxGapDays,
	}
}

// HoldingPeriod returns the [begin, end] dates for a formation year: with
// defaults, July 1 of year T through June 30 of year T+1.
func (rb *ReturnBuilder) HoldingPeriod(formationYear int) (time.Time, time.Time) {
	begin := time.Date(formationYear, rb.FormationMonth, rb.FormationDay, 0, 0, 0, 0, time.UTC)
	end := begin.AddDate(0, rb.HoldingMonths, 0).AddDate(0, 0, -1)
	return begin, end
}

// Return computes the holding-period return for a symbol and formation
// year. The begin price is the nearest observation at or after the period
// start (forward search); the end price is the nearest at or before the
// period end (backward search). Either bound unresolvable within
// MaxGapDays fails the computation with ErrPriceUnavailable: the symbol is
// excluded from that year's ranking only.
//
// Delisting adjustment: a liquidation-type exit inside the window forces
// the return to DelistBankruptcyReturn exactly, regardless of prices. A
// merger-type exit keeps the realized return through the delisting date.
// The result is winsorized to (WinsorLower, WinsorUpper).
func (rb *ReturnBuilder) Return(symbol string, formationYear int) (float64, error) {
	begin, end := rb.HoldingPeriod(formationYear)

	delist := rb.store.DelistingBetween(symbol, begin, end)
	if delist != nil && delist.Bankruptcy() {
		// fixed override; never compounded with the price return
		return DelistBankruptcyReturn, nil
	}

	prices := rb.store.Prices(symbol)
	if len(prices) == 0 {
		return 0, ErrNoPriceHistory
	}

	effectiveEnd := end
	if delist != nil && delist.Date.Before(end) {
		effectiveEnd = delist.Date
	}

	p0, err := NearestPrice(prices, begin, SearchForward, rb.MaxGapDays)
	if err != nil {
		return 0, err
	}
	p1, err := NearestPrice(prices, effectiveEnd, SearchBackward, rb.MaxGapDays)
	if err != nil {
		return 0, err
	}
	if !p1.Date.After(p0.Date) {
		return 0, ErrPriceUnavailable
	}

	return Winsorize(p1.AdjClose/p0.AdjClose - 1), nil
}

// TrailingAnnualReturns computes up to `years` holding-period returns for
// the formation years immediately before formationYear, oldest first.
// Years whose return cannot be resolved are simply omitted; the caller
// decides whether a short history is a quality penalty or an exclusion.
func (rb *ReturnBuilder) TrailingAnnualReturns(symbol string, formationYear int, years int) []float64 {
	rets := make([]float64, 0, years)
	for y := formationYear - years; y < formationYear; y++ {
		r, err := rb.Return(symbol, y)
		if err != nil {
			continue
		}
		rets = append(rets, r)
	}
	return rets
}

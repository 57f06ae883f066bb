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
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Store holds the validated point-in-time research dataset: income
// statements, company profiles, adjusted price series, delist events, and
// the risk-free series. Records are validated on the way in and immutable
// afterwards.
//
// Loading is single-threaded; once loaded the store is read-only and safe
// to share across goroutines. Price series are sorted on first read after
// a mutation, and that deferred sort is mutex-guarded so concurrent
// readers never observe a sort in progress.
type Store struct {
	financials map[string]map[int]*FinancialRecord
	profiles   map[string]*CompanyProfile
	prices     map[string][]*PriceObservation
	delistings map[string][]*DelistEvent
	riskFree   map[int]float64

	sortMu       sync.Mutex
	pricesSorted map[string]bool
}

func NewStore() *Store {
	return &Store{
		financials:   make(map[string]map[int]*FinancialRecord),
		profiles:     make(map[string]*CompanyProfile),
		prices:       make(map[string][]*PriceObservation),
		delistings:   make(map[string][]*DelistEvent),
		riskFree:     make(map[int]float64),
		pricesSorted: make(map[string]bool),
	}
}

// AddFinancial validates and stores an income statement row. There is one
// record per (symbol, fiscal year); duplicates are rejected, not merged.
func (s *Store) AddFinancial(rec *FinancialRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	byYear, ok := s.financials[rec.Symbol]
	if !ok {
		byYear = make(map[int]*FinancialRecord)
		s.financials[rec.Symbol] = byYear
	}
	if _, exists := byYear[rec.FiscalYear]; exists {
		log.Warn().Str("Symbol", rec.Symbol).Int("FiscalYear", rec.FiscalYear).
			Msg("rejecting duplicate financial record")
		return ErrDuplicateRecord
	}
	byYear[rec.FiscalYear] = rec
	return nil
}

func (s *Store) SetProfile(p *CompanyProfile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.profiles[p.Symbol] = p
	return nil
}

func (s *Store) AddPrice(p *PriceObservation) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.prices[p.Symbol] = append(s.prices[p.Symbol], p)
	s.pricesSorted[p.Symbol] = false
	return nil
}

func (s *Store) AddDelisting(d *DelistEvent) error {
	if err := d.Validate(); err != nil {
		return err
	}
	s.delistings[d.Symbol] = append(s.delistings[d.Symbol], d)
	return nil
}

func (s *Store) SetRiskFreeRate(year int, rate float64) {
	s.riskFree[year] = rate
}

// Financial returns the income statement for a symbol and fiscal year.
func (s *Store) Financial(symbol string, fiscalYear int) (*FinancialRecord, bool) {
	byYear, ok := s.financials[symbol]
	if !ok {
		return nil, false
	}
	rec, ok := byYear[fiscalYear]
	return rec, ok
}

// FinancialYears returns the number of fiscal years on record for a symbol.
func (s *Store) FinancialYears(symbol string) int {
	return len(s.financials[symbol])
}

func (s *Store) Profile(symbol string) (*CompanyProfile, bool) {
	p, ok := s.profiles[symbol]
	return p, ok
}

// Prices returns the date-ordered price series for a symbol. The series is
// sorted on first read after a mutation, under sortMu so the shared store
// stays safe for concurrent readers.
func (s *Store) Prices(symbol string) []*PriceObservation {
	s.sortMu.Lock()
	defer s.sortMu.Unlock()

	series := s.prices[symbol]
	if !s.pricesSorted[symbol] && len(series) > 1 {
		sort.Slice(series, func(i, j int) bool {
			return series[i].Date.Before(series[j].Date)
		})
		s.pricesSorted[symbol] = true
	}
	return series
}

// DelistingBetween returns the first delist event for symbol whose date
// falls in [begin, end], or nil.
func (s *Store) DelistingBetween(symbol string, begin, end time.Time) *DelistEvent {
	var found *DelistEvent
	for _, d := range s.delistings[symbol] {
		if d.Date.Before(begin) || d.Date.After(end) {
			continue
		}
		if found == nil || d.Date.Before(found.Date) {
			found = d
		}
	}
	return found
}

// RiskFreeRate returns the annual risk-free rate for a year.
func (s *Store) RiskFreeRate(year int) (float64, bool) {
	r, ok := s.riskFree[year]
	return r, ok
}

// RiskFreeRates returns a copy of the full risk-free series.
func (s *Store) RiskFreeRates() map[int]float64 {
	out := make(map[int]float64, len(s.riskFree))
	for y, r := range s.riskFree {
		out[y] = r
	}
	return out
}

// Symbols returns every symbol with a company profile, sorted. Profile
// presence is the anchor for universe membership.
func (s *Store) Symbols() []string {
	symbols := make([]string, 0, len(s.profiles))
	for sym := range s.profiles {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	return symbols
}

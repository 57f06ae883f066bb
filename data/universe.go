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
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

// UniverseSnapshot is the set of symbols eligible at a formation date,
// built once per formation year. Membership is "as of" the formation date
// only; snapshots are never revised after the fact.
type UniverseSnapshot struct {
	FormationDate time.Time          `json:"formationDate"`
	Symbols       []string           `json:"symbols"`
	SectorWeights map[Sector]float64 `json:"sectorWeights"`

	// Approximate is set when membership was derived from current
	// constituents rather than a point-in-time membership source. Carried
	// into output metadata as a data-quality caveat.
	Approximate bool `json:"approximate"`
}

// HighRDWeight sums the snapshot weights of the structurally R&D intensive
// sectors.
func (snap *UniverseSnapshot) HighRDWeight() float64 {
	var total float64
	for sector, w := range snap.SectorWeights {
		if sector.HighRD() {
			total += w
		}
	}
	return total
}

// SectorAdjustment returns the diversification multiplier for a sector:
// the sector's universe weight over the combined high-R&D weight. Sectors
// outside the high-R&D group are not adjusted.
func (snap *UniverseSnapshot) SectorAdjustment(sector Sector) float64 {
	if !sector.HighRD() {
		return 1.0
	}
	highRD := snap.HighRDWeight()
	if highRD <= 0 {
		return 1.0
	}
	return snap.SectorWeights[sector] / highRD
}

// Universe produces point-in-time membership snapshots. The engine accepts
// the abstraction so a caller can substitute a higher-fidelity membership
// source without touching the core.
type Universe interface {
	Snapshot(ctx context.Context, formationDate time.Time) (*UniverseSnapshot, error)
}

// StoreUniverse approximates index membership from the loaded dataset:
// a symbol is eligible when it has a profile, its sector is not excluded,
// and its price series covers at least MinTradingDays observations over
// the year before the formation date. Snapshots are flagged Approximate
// because only current constituents are observable this way.
type StoreUniverse struct {
	store          *Store
	exclusions     *ExclusionLog
	MinTradingDays int
}

func NewStoreUniverse(store *Store, exclusions *ExclusionLog) *StoreUniverse {
	return &StoreUniverse{
		store:          store,
		exclusions:     exclusions,
		MinTradingDays: DefaultMinTradingDays,
	}
}

func (u *StoreUniverse) Snapshot(_ context.Context, formationDate time.Time) (*UniverseSnapshot, error) {
	snap := &UniverseSnapshot{
		FormationDate: formationDate,
		Symbols:       make([]string, 0, 500),
		SectorWeights: make(map[Sector]float64),
		Approximate:   true,
	}

	year := formationDate.Year()
	lookbackBegin := formationDate.AddDate(-1, 0, 0)

	var totalCap float64
	capBySector := make(map[Sector]float64)

	for _, symbol := range u.store.Symbols() {
		profile, _ := u.store.Profile(symbol)
		if profile.Sector.Excluded() {
			u.exclude(symbol, year, "excluded sector: "+string(profile.Sector))
			continue
		}

		days := CountTradingDays(u.store.Prices(symbol), lookbackBegin, formationDate)
		if days < u.MinTradingDays {
			u.exclude(symbol, year, "insufficient price history")
			continue
		}

		snap.Symbols = append(snap.Symbols, symbol)
		totalCap += profile.MarketCap
		capBySector[profile.Sector] += profile.MarketCap
	}

	if len(snap.Symbols) == 0 {
		return nil, ErrEmptyUniverse
	}

	if totalCap > 0 {
		for sector, cap := range capBySector {
			snap.SectorWeights[sector] = cap / totalCap
		}
	}

	log.Debug().Time("FormationDate", formationDate).Int("NSymbols", len(snap.Symbols)).
		Bool("Approximate", snap.Approximate).Msg("built universe snapshot")
	return snap, nil
}

func (u *StoreUniverse) exclude(symbol string, year int, reason string) {
	if u.exclusions != nil {
		u.exclusions.Add(symbol, year, reason)
	}
}

// MembershipUniverse builds snapshots from an explicit per-year membership
// table (true point-in-time constituents). Profiles and coverage screens
// still apply, but snapshots are not flagged approximate.
type MembershipUniverse struct {
	store          *Store
	members        map[int][]string
	exclusions     *ExclusionLog
	MinTradingDays int
}

func NewMembershipUniverse(store *Store, members map[int][]string, exclusions *ExclusionLog) *MembershipUniverse {
	return &MembershipUniverse{
		store:          store,
		members:        members,
		exclusions:     exclusions,
		MinTradingDays: DefaultMinTradingDays,
	}
}

func (u *MembershipUniverse) Snapshot(_ context.Context, formationDate time.Time) (*UniverseSnapshot, error) {
	year := formationDate.Year()
	symbols := append([]string{}, u.members[year]...)
	sort.Strings(symbols)

	snap := &UniverseSnapshot{
		FormationDate: formationDate,
		Symbols:       make([]string, 0, len(symbols)),
		SectorWeights: make(map[Sector]float64),
	}

	lookbackBegin := formationDate.AddDate(-1, 0, 0)

	var totalCap float64
	capBySector := make(map[Sector]float64)

	for _, symbol := range symbols {
		profile, ok := u.store.Profile(symbol)
		if !ok {
			u.exclude(symbol, year, "no company profile")
			continue
		}
		if profile.Sector.Excluded() {
			u.exclude(symbol, year, "excluded sector: "+string(profile.Sector))
			continue
		}
		if CountTradingDays(u.store.Prices(symbol), lookbackBegin, formationDate) < u.MinTradingDays {
			u.exclude(symbol, year, "insufficient price history")
			continue
		}

		snap.Symbols = append(snap.Symbols, symbol)
		totalCap += profile.MarketCap
		capBySector[profile.Sector] += profile.MarketCap
	}

	if len(snap.Symbols) == 0 {
		return nil, ErrEmptyUniverse
	}

	if totalCap > 0 {
		for sector, cap := range capBySector {
			snap.SectorWeights[sector] = cap / totalCap
		}
	}

	return snap, nil
}

func (u *MembershipUniverse) exclude(symbol string, year int, reason string) {
	if u.exclusions != nil {
		u.exclusions.Add(symbol, year, reason)
	}
}

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

/*
 * R&D Alpha scoring engine
 *
 * Composite score = (RD_Intensity_capped x Sector_Adj x Momentum x Quality) / Volatility
 *
 * RD intensity uses FY(T-1) financials for a year-T formation so only data
 * available at the formation date enters the score (no look-ahead).
 *
 * Reference: Lev & Sougiannis (1996), Chan, Lakonishok & Sougiannis (2001)
 */

package scoring

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/finsoeasy/rd-alpha/data"
	"github.com/finsoeasy/rd-alpha/observability/opentelemetry"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrExcluded marks a hard exclusion: the symbol cannot be scored this
	// formation year. Recorded in the exclusion log, never fatal to a run.
	ErrExcluded = errors.New("symbol excluded from formation year")
)

// Score is the full per-symbol breakdown for one formation year. Derived
// data: recomputed every formation year and never mutated afterwards.
type Score struct {
	Symbol        string      `json:"symbol"`
	FormationYear int         `json:"formationYear"`
	Sector        data.Sector `json:"sector"`

	// RDIntensity is the raw R&D/revenue ratio in percent; Capped applies
	// the sector cap.
	RDIntensity       float64 `json:"rdIntensity"`
	RDIntensityCapped float64 `json:"rdIntensityCapped"`

	SectorAdjustment float64 `json:"sectorAdjustment"`
	Momentum         float64 `json:"momentum"`
	Quality          float64 `json:"quality"`
	Volatility       float64 `json:"volatility"`

	Composite float64 `json:"composite"`
}

// Scorer computes composite scores against a point-in-time store. All
// parameters live in the Config; a Scorer is safe for concurrent use.
type Scorer struct {
	cfg        Config
	store      *data.Store
	returns    *data.ReturnBuilder
	exclusions *data.ExclusionLog
}

func New(cfg Config, store *data.Store, returns *data.ReturnBuilder, exclusions *data.ExclusionLog) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{cfg: cfg, store: store, returns: returns, exclusions: exclusions}, nil
}

// Score computes the composite for one symbol at formation year T using
// FY(T-1) financials. Missing or non-positive revenue is a hard exclusion;
// every other missing input degrades the quality factor instead.
//
// universeMean is the equal-weighted trailing return of the snapshot,
// shared across all symbols in the formation year.
func (s *Scorer) Score(symbol string, formationYear int, snap *data.UniverseSnapshot, universeMean float64) (*Score, error) {
	rec, ok := s.store.Financial(symbol, formationYear-1)
	if !ok {
		s.exclude(symbol, formationYear, "missing prior fiscal year financials")
		return nil, ErrExcluded
	}
	if rec.Revenue <= 0 {
		s.exclude(symbol, formationYear, "non-positive revenue")
		return nil, ErrExcluded
	}

	sector := data.SectorOther
	if profile, ok := s.store.Profile(symbol); ok {
		sector = profile.Sector
	}

	rawIntensity := rec.RDExpense / rec.Revenue
	capped := math.Min(rawIntensity, s.cfg.Cap(sector))

	trailing := s.returns.TrailingAnnualReturns(symbol, formationYear, s.cfg.HistoryYears)

	score := &Score{
		Symbol:            symbol,
		FormationYear:     formationYear,
		Sector:            sector,
		RDIntensity:       rawIntensity * 100,
		RDIntensityCapped: capped * 100,
		SectorAdjustment:  snap.SectorAdjustment(sector),
		Momentum:          s.momentum(trailing, universeMean),
		Quality:           s.quality(rec, sector, trailing),
		Volatility:        s.volatility(trailing),
	}
	score.Composite = score.RDIntensityCapped * score.SectorAdjustment *
		score.Momentum * score.Quality / score.Volatility

	return score, nil
}

// ScoreUniverse scores every symbol in the snapshot for a formation year.
// Symbol scoring is embarrassingly parallel; results are merged by the
// snapshot's symbol order so output is deterministic regardless of
// completion order, then ranked by composite descending.
func (s *Scorer) ScoreUniverse(ctx context.Context, formationYear int, snap *data.UniverseSnapshot) ([]*Score, error) {
	_, span := otel.Tracer(opentelemetry.Name).Start(ctx, "scoring.ScoreUniverse")
	span.SetAttributes(attribute.Int("formation_year", formationYear))
	defer span.End()

	universeMean := s.universeMeanReturn(formationYear, snap)

	results := make([]*Score, len(snap.Symbols))
	var wg sync.WaitGroup
	for ii := range snap.Symbols {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			symbol := snap.Symbols[idx]
			score, err := s.Score(symbol, formationYear, snap, universeMean)
			if err != nil {
				// already recorded in the exclusion log
				return
			}
			results[idx] = score
		}(ii)
	}
	wg.Wait()

	scores := make([]*Score, 0, len(results))
	for _, sc := range results {
		if sc != nil {
			scores = append(scores, sc)
		}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Composite != scores[j].Composite {
			return scores[i].Composite > scores[j].Composite
		}
		return scores[i].Symbol < scores[j].Symbol
	})

	log.Debug().Int("FormationYear", formationYear).Int("NScored", len(scores)).
		Int("NUniverse", len(snap.Symbols)).Msg("scored universe")
	return scores, nil
}

// momentum builds the persistence factor from the trailing excess return.
// With no usable history the factor stays neutral; the thin history is
// already penalized through the quality score.
func (s *Scorer) momentum(trailing []float64, universeMean float64) float64 {
	if len(trailing) == 0 {
		return 1.0
	}
	excess := annualize(trailing) - universeMean
	factor := 1.0 + s.cfg.MomentumSlope*excess
	if factor < s.cfg.MomentumMin {
		return s.cfg.MomentumMin
	}
	if factor > s.cfg.MomentumMax {
		return s.cfg.MomentumMax
	}
	return factor
}

// quality scores data completeness in [0, 1]: revenue, R&D expense, a
// known sector, and a full trailing return history each contribute a
// quarter. Revenue is always present here since missing revenue is a hard
// exclusion.
func (s *Scorer) quality(rec *data.FinancialRecord, sector data.Sector, trailing []float64) float64 {
	present := 1 // revenue
	if rec.RDExpense > 0 {
		present++
	}
	if sector != data.SectorOther {
		present++
	}
	if len(trailing) >= s.cfg.HistoryYears {
		present++
	}
	return float64(present) / 4.0
}

func (s *Scorer) volatility(trailing []float64) float64 {
	vol := s.cfg.DefaultVolatility
	if len(trailing) >= 2 {
		vol = stat.StdDev(trailing, nil)
	}
	return math.Max(vol, s.cfg.VolatilityFloor)
}

// universeMeanReturn is the equal-weighted average of the snapshot
// symbols' trailing annualized returns, the benchmark for the momentum
// excess.
func (s *Scorer) universeMeanReturn(formationYear int, snap *data.UniverseSnapshot) float64 {
	var sum float64
	var n int
	for _, symbol := range snap.Symbols {
		trailing := s.returns.TrailingAnnualReturns(symbol, formationYear, s.cfg.HistoryYears)
		if len(trailing) == 0 {
			continue
		}
		sum += annualize(trailing)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// annualize compounds annual returns into a geometric mean rate.
func annualize(returns []float64) float64 {
	growth := 1.0
	for _, r := range returns {
		growth *= 1 + r
	}
	if growth <= 0 {
		return -1
	}
	return math.Pow(growth, 1.0/float64(len(returns))) - 1
}

func (s *Scorer) exclude(symbol string, year int, reason string) {
	if s.exclusions != nil {
		s.exclusions.Add(symbol, year, reason)
	}
}

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
 * Annual-rebalance portfolio backtester
 *
 * One iteration per formation year: snapshot the universe at July 1, score
 * it, hold the top N equal-weighted for twelve months, realize July–June
 * returns with delisting adjustment, deduct transaction costs, rebalance.
 * Formation years are processed strictly in chronological order; holdings
 * and weights for a year are fixed once the portfolio is formed.
 *
 * Reference: Fama & French (1992), Shumway (1997)
 */

package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finsoeasy/rd-alpha/data"
	"github.com/finsoeasy/rd-alpha/metrics"
	"github.com/finsoeasy/rd-alpha/observability/opentelemetry"
	"github.com/finsoeasy/rd-alpha/scoring"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gonum.org/v1/gonum/stat"
)

var ErrInvalidConfiguration = errors.New("invalid backtest configuration")

// Config parameterizes a single backtest run. Immutable once handed to a
// Backtester; multiple parameterizations can run side by side.
type Config struct {
	StartYear int
	EndYear   int

	// NHoldings is the portfolio size (top N by composite score).
	NHoldings int

	// MaxPerSector caps holdings from any one sector. Zero means the
	// default of max(1, NHoldings/4).
	MaxPerSector int

	// TransactionCostBps is the round-trip cost in basis points, scaled by
	// turnover and deducted once per rebalance.
	TransactionCostBps float64

	// RiskFree supplies annual rates by year; DefaultRiskFree fills gaps.
	RiskFree        map[int]float64
	DefaultRiskFree float64
}

func DefaultConfig(startYear, endYear int) Config {
	return Config{
		StartYear:          startYear,
		EndYear:            endYear,
		NHoldings:          20,
		TransactionCostBps: 10,
		DefaultRiskFree:    0.02,
	}
}

// Validate fails fast; a configuration problem is fatal and reported
// before any formation-year processing begins.
func (c Config) Validate() error {
	if c.NHoldings <= 0 {
		return fmt.Errorf("%w: n holdings must be positive", ErrInvalidConfiguration)
	}
	if c.StartYear > c.EndYear {
		return fmt.Errorf("%w: start year after end year", ErrInvalidConfiguration)
	}
	if c.TransactionCostBps < 0 {
		return fmt.Errorf("%w: transaction cost may not be negative", ErrInvalidConfiguration)
	}
	if c.MaxPerSector < 0 {
		return fmt.Errorf("%w: max per sector may not be negative", ErrInvalidConfiguration)
	}
	return nil
}

func (c Config) maxPerSector() int {
	if c.MaxPerSector > 0 {
		return c.MaxPerSector
	}
	max := c.NHoldings / 4
	if max < 1 {
		max = 1
	}
	return max
}

func (c Config) riskFreeRate(year int) float64 {
	if r, ok := c.RiskFree[year]; ok {
		return r
	}
	return c.DefaultRiskFree
}

// Holding is a single position with its formation weight.
type Holding struct {
	Symbol string      `json:"symbol"`
	Weight float64     `json:"weight"`
	Score  float64     `json:"score"`
	Sector data.Sector `json:"sector"`
}

// Portfolio is the fixed set of holdings for one formation year. Created
// at rebalance and immutable for its holding period.
type Portfolio struct {
	FormationYear int       `json:"formationYear"`
	FormationDate time.Time `json:"formationDate"`
	Holdings      []Holding `json:"holdings"`
}

// Backtester drives the annual formation loop. Construct with New; the
// zero value is not usable.
type Backtester struct {
	cfg        Config
	universe   data.Universe
	scorer     *scoring.Scorer
	returns    *data.ReturnBuilder
	exclusions *data.ExclusionLog
}

func New(cfg Config, universe data.Universe, scorer *scoring.Scorer, returns *data.ReturnBuilder, exclusions *data.ExclusionLog) (*Backtester, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Backtester{
		cfg:        cfg,
		universe:   universe,
		scorer:     scorer,
		returns:    returns,
		exclusions: exclusions,
	}, nil
}

// Run executes the backtest over [StartYear, EndYear]. Per-symbol failures
// are recovered locally and recorded as exclusions; a run always completes
// with a result unless the context is cancelled or the universe is empty
// for a year. Cancellation stops before the next formation year; partial
// years are never emitted.
func (bt *Backtester) Run(ctx context.Context) (*Result, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "backtest.Run")
	span.SetAttributes(
		attribute.Int("start_year", bt.cfg.StartYear),
		attribute.Int("end_year", bt.cfg.EndYear),
	)
	defer span.End()

	result := &Result{
		RunID:     uuid.New().String(),
		StartYear: bt.cfg.StartYear,
		EndYear:   bt.cfg.EndYear,
		Years:     make([]YearResult, 0, bt.cfg.EndYear-bt.cfg.StartYear+1),
	}

	var prev *Portfolio
	for year := bt.cfg.StartYear; year <= bt.cfg.EndYear; year++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		formationDate, _ := bt.returns.HoldingPeriod(year)
		snap, err := bt.universe.Snapshot(ctx, formationDate)
		if err != nil {
			return nil, err
		}
		if snap.Approximate {
			result.ApproximateUniverse = true
		}

		scores, err := bt.scorer.ScoreUniverse(ctx, year, snap)
		if err != nil {
			return nil, err
		}

		portfolio := bt.formPortfolio(year, formationDate, scores)
		gross, held := bt.realize(portfolio)
		benchmark := bt.benchmarkReturn(snap, year)

		to := 1.0 // initial portfolio is 100% turnover
		if prev != nil {
			to = turnover(prev.Holdings, portfolio.Holdings)
		}
		cost := to * bt.cfg.TransactionCostBps / 10_000

		yr := YearResult{
			Year:            year,
			GrossReturn:     gross,
			NetReturn:       gross - cost,
			BenchmarkReturn: benchmark,
			Turnover:        to,
			Cost:            cost,
			NScored:         len(scores),
			NHeld:           held,
		}
		result.Years = append(result.Years, yr)
		result.Portfolios = append(result.Portfolios, portfolio)
		prev = portfolio

		log.Info().Int("FormationYear", year).Float64("NetReturn", yr.NetReturn).
			Float64("Turnover", to).Int("NHeld", held).Msg("completed formation year")
	}

	bt.summarize(result)
	if bt.exclusions != nil {
		result.Exclusions = bt.exclusions.Entries()
	}
	return result, nil
}

// formPortfolio selects the top N by composite score, honoring the
// per-sector concentration limit, and assigns equal weights. Equal
// weighting is deliberate: cap weighting lets mega-caps dilute the R&D
// signal.
func (bt *Backtester) formPortfolio(year int, formationDate time.Time, scores []*scoring.Score) *Portfolio {
	maxPerSector := bt.cfg.maxPerSector()
	sectorCounts := make(map[data.Sector]int)

	selected := make([]Holding, 0, bt.cfg.NHoldings)
	for _, sc := range scores {
		if len(selected) >= bt.cfg.NHoldings {
			break
		}
		if sectorCounts[sc.Sector] >= maxPerSector {
			bt.exclude(sc.Symbol, year, "sector concentration limit")
			continue
		}
		sectorCounts[sc.Sector]++
		selected = append(selected, Holding{
			Symbol: sc.Symbol,
			Score:  sc.Composite,
			Sector: sc.Sector,
		})
	}

	if len(selected) > 0 {
		w := 1.0 / float64(len(selected))
		for ii := range selected {
			selected[ii].Weight = w
		}
	}

	return &Portfolio{
		FormationYear: year,
		FormationDate: formationDate,
		Holdings:      selected,
	}
}

// realize computes the portfolio's holding-period return as the weighted
// average over holdings with resolvable returns. Unresolvable holdings are
// excluded from the average and recorded; they do not abort the year.
func (bt *Backtester) realize(p *Portfolio) (float64, int) {
	var sum float64
	var held int
	for _, h := range p.Holdings {
		r, err := bt.returns.Return(h.Symbol, p.FormationYear)
		if err != nil {
			bt.exclude(h.Symbol, p.FormationYear, "holding-period return unavailable")
			continue
		}
		sum += r
		held++
	}
	if held == 0 {
		return 0, 0
	}
	// holdings are equal-weighted, so the realized average re-weights over
	// the names that actually resolved
	return sum / float64(held), held
}

// benchmarkReturn is the equal-weighted return of the whole snapshot, used
// for comparison only; it never feeds back into selection.
func (bt *Backtester) benchmarkReturn(snap *data.UniverseSnapshot, year int) float64 {
	var sum float64
	var n int
	for _, symbol := range snap.Symbols {
		r, err := bt.returns.Return(symbol, year)
		if err != nil {
			continue
		}
		sum += r
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func (bt *Backtester) summarize(result *Result) {
	if len(result.Years) == 0 {
		return
	}

	rets := make([]float64, len(result.Years))
	var rfSum float64
	for ii, yr := range result.Years {
		rets[ii] = yr.NetReturn
		rfSum += bt.cfg.riskFreeRate(yr.Year)
	}

	result.Cumulative = metrics.CumulativeSeries(rets)
	growth := result.Cumulative[len(result.Cumulative)-1]
	result.TotalReturn = growth - 1

	annualized := metrics.AnnualizedReturn(growth, len(rets))
	vol := metrics.Volatility(rets)
	result.AnnualizedReturn = NullableFloat(annualized)
	result.Volatility = NullableFloat(vol)
	result.SharpeRatio = NullableFloat(metrics.SharpeRatio(annualized, rfSum/float64(len(rets)), vol))
	result.MaxDrawdown = NullableFloat(metrics.MaxDrawdown(result.Cumulative))

	benchRets := make([]float64, len(result.Years))
	for ii, yr := range result.Years {
		benchRets[ii] = yr.BenchmarkReturn
	}
	result.BenchmarkMeanReturn = stat.Mean(benchRets, nil)
}

// turnover measures the fraction of the portfolio replaced at a rebalance:
// (added + removed) / (2 x average size).
func turnover(old, new []Holding) float64 {
	oldSet := make(map[string]bool, len(old))
	for _, h := range old {
		oldSet[h.Symbol] = true
	}
	newSet := make(map[string]bool, len(new))
	for _, h := range new {
		newSet[h.Symbol] = true
	}

	var added, removed int
	for sym := range newSet {
		if !oldSet[sym] {
			added++
		}
	}
	for sym := range oldSet {
		if !newSet[sym] {
			removed++
		}
	}

	avgSize := float64(len(old)+len(new)) / 2
	if avgSize == 0 {
		return 0
	}
	return float64(added+removed) / (2 * avgSize)
}

func (bt *Backtester) exclude(symbol string, year int, reason string) {
	if bt.exclusions != nil {
		bt.exclusions.Add(symbol, year, reason)
	}
}

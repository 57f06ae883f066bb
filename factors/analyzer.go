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
 * R&D factor premium analysis
 *
 * Sorts the scored universe into quintiles each formation year, tracks
 * equal-weighted quintile returns, and tests the Q5-Q1 spread with
 * Newey-West standard errors to control for serial correlation in annual
 * rebalanced returns. A separate Fama-MacBeth path regresses returns on
 * scores period by period.
 *
 * Reference: Fama & MacBeth (1973), Newey & West (1987)
 */

package factors

import (
	"context"
	"errors"
	"fmt"

	"github.com/finsoeasy/rd-alpha/observability/opentelemetry"
	"github.com/finsoeasy/rd-alpha/scoring"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gonum.org/v1/gonum/stat"
)

const nQuintiles = 5

var (
	ErrInvalidConfiguration = errors.New("invalid analyzer configuration")
	ErrNoScores             = errors.New("no scores supplied for analysis period")
)

// Config parameterizes the analyzer.
type Config struct {
	// Lags for the Newey-West standard error correction. Zero reduces to
	// the plain homoskedastic t-statistic.
	Lags int

	// MinYears is the sample size below which spread statistics are
	// reported as insufficient data rather than a numeric result.
	MinYears int

	RiskFree        map[int]float64
	DefaultRiskFree float64
}

func DefaultConfig() Config {
	return Config{
		Lags:            3,
		MinYears:        5,
		DefaultRiskFree: 0.02,
	}
}

func (c Config) Validate() error {
	if c.Lags < 0 {
		return fmt.Errorf("%w: lags may not be negative", ErrInvalidConfiguration)
	}
	if c.MinYears < 2 {
		return fmt.Errorf("%w: min years must be at least 2", ErrInvalidConfiguration)
	}
	return nil
}

func (c Config) riskFreeRate(year int) float64 {
	if r, ok := c.RiskFree[year]; ok {
		return r
	}
	return c.DefaultRiskFree
}

// QuintileStats summarizes one quintile over the sample period. Years is
// the number of formation years observed, not a symbol count.
type QuintileStats struct {
	Quintile    int     `json:"quintile"`
	MeanReturn  float64 `json:"meanReturn"`
	StdDev      float64 `json:"stdDev"`
	SharpeRatio float64 `json:"sharpeRatio"`
	Years       int     `json:"years"`
}

// SpreadStats is the Q5-Q1 long/short result. When the sample is too small
// for the requested statistic, InsufficientData is set and the numeric
// fields are zero, never silent NaN.
type SpreadStats struct {
	Mean             float64 `json:"mean"`
	TStat            float64 `json:"tStat"`
	PValue           float64 `json:"pValue"`
	Lags             int     `json:"lags"`
	Years            int     `json:"years"`
	Significance     string  `json:"significance"`
	InsufficientData bool    `json:"insufficientData"`
}

// Report is the full factor analysis output: plain structured data,
// suitable for any tabular or JSON rendering.
type Report struct {
	StartYear int `json:"startYear"`
	EndYear   int `json:"endYear"`

	Quintiles    []QuintileStats   `json:"quintiles"`
	Spread       SpreadStats       `json:"spread"`
	SpreadSeries map[int]float64   `json:"spreadSeries"`
	FamaMacBeth  *FamaMacBethStats `json:"famaMacBeth,omitempty"`

	ApproximateUniverse bool `json:"approximateUniverse"`
}

// ReturnFunc resolves the holding-period return for a symbol and formation
// year. data.ReturnBuilder.Return satisfies it.
type ReturnFunc func(symbol string, formationYear int) (float64, error)

// Analyzer reads per-year scores and returns, producing its own report.
// It never mutates the scores or the backtester's output.
type Analyzer struct {
	cfg     Config
	scores  map[int][]*scoring.Score
	returns ReturnFunc
}

func New(cfg Config, scores map[int][]*scoring.Score, returns ReturnFunc) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Analyzer{cfg: cfg, scores: scores, returns: returns}, nil
}

// Analyze partitions each formation year into quintiles by composite
// score (independently re-sorted every year, not a fixed cohort), tracks
// equal-weighted quintile returns, and tests the Q5-Q1 spread.
func (a *Analyzer) Analyze(ctx context.Context, startYear, endYear int) (*Report, error) {
	_, span := otel.Tracer(opentelemetry.Name).Start(ctx, "factors.Analyze")
	span.SetAttributes(attribute.Int("start_year", startYear), attribute.Int("end_year", endYear))
	defer span.End()

	if startYear > endYear {
		return nil, fmt.Errorf("%w: start year after end year", ErrInvalidConfiguration)
	}

	quintileReturns := make([][]float64, nQuintiles)
	spreadSeries := make(map[int]float64)
	spreads := make([]float64, 0, endYear-startYear+1)
	var anyScores bool

	for year := startYear; year <= endYear; year++ {
		scores := a.scores[year]
		if len(scores) < nQuintiles {
			continue
		}
		anyScores = true

		buckets := assignQuintiles(scores)
		yearReturns := make([]float64, nQuintiles)
		yearHasReturn := make([]bool, nQuintiles)

		for q, bucket := range buckets {
			var sum float64
			var n int
			for _, sc := range bucket {
				r, err := a.returns(sc.Symbol, year)
				if err != nil {
					continue
				}
				sum += r
				n++
			}
			if n == 0 {
				continue
			}
			yearReturns[q] = sum / float64(n)
			yearHasReturn[q] = true
			quintileReturns[q] = append(quintileReturns[q], yearReturns[q])
		}

		if yearHasReturn[nQuintiles-1] && yearHasReturn[0] {
			spread := yearReturns[nQuintiles-1] - yearReturns[0]
			spreads = append(spreads, spread)
			spreadSeries[year] = spread
		}
	}

	if !anyScores {
		return nil, ErrNoScores
	}

	report := &Report{
		StartYear:    startYear,
		EndYear:      endYear,
		Quintiles:    a.quintileStats(quintileReturns, startYear, endYear),
		Spread:       a.spreadStats(spreads),
		SpreadSeries: spreadSeries,
	}

	fm := a.famaMacBeth(startYear, endYear)
	report.FamaMacBeth = fm

	log.Debug().Int("StartYear", startYear).Int("EndYear", endYear).
		Int("SpreadYears", len(spreads)).Msg("factor analysis complete")
	return report, nil
}

// assignQuintiles partitions scores into five buckets by composite score
// ascending: bucket 0 is the lowest fifth, bucket 4 the highest. The
// partition is exhaustive and disjoint, and bucket sizes differ by at most
// one when the count is not divisible by five.
func assignQuintiles(scores []*scoring.Score) [][]*scoring.Score {
	// scores arrive ranked descending from the scorer; walk from the tail
	// so bucket 0 fills with the lowest scores
	n := len(scores)
	base := n / nQuintiles
	remainder := n % nQuintiles

	buckets := make([][]*scoring.Score, nQuintiles)
	idx := n - 1
	for q := 0; q < nQuintiles; q++ {
		size := base
		if q < remainder {
			size++
		}
		buckets[q] = make([]*scoring.Score, 0, size)
		for ii := 0; ii < size; ii++ {
			buckets[q] = append(buckets[q], scores[idx])
			idx--
		}
	}
	return buckets
}

func (a *Analyzer) quintileStats(quintileReturns [][]float64, startYear, endYear int) []QuintileStats {
	var rfSum float64
	var rfN int
	for y := startYear; y <= endYear; y++ {
		rfSum += a.cfg.riskFreeRate(y)
		rfN++
	}
	avgRF := rfSum / float64(rfN)

	out := make([]QuintileStats, nQuintiles)
	for q := 0; q < nQuintiles; q++ {
		rets := quintileReturns[q]
		qs := QuintileStats{Quintile: q + 1, Years: len(rets)}
		if len(rets) >= 1 {
			qs.MeanReturn = stat.Mean(rets, nil)
		}
		if len(rets) >= 2 {
			qs.StdDev = stat.StdDev(rets, nil)
			if qs.StdDev > 0 {
				qs.SharpeRatio = (qs.MeanReturn - avgRF) / qs.StdDev
			}
		}
		out[q] = qs
	}
	return out
}

func (a *Analyzer) spreadStats(spreads []float64) SpreadStats {
	stats := SpreadStats{Lags: a.cfg.Lags, Years: len(spreads)}
	if len(spreads) < a.cfg.MinYears {
		stats.InsufficientData = true
		return stats
	}

	stats.Mean = stat.Mean(spreads, nil)
	t, err := NeweyWestTStat(spreads, a.cfg.Lags)
	if err != nil {
		stats.InsufficientData = true
		return stats
	}
	stats.TStat = t
	stats.PValue = StudentTPValue(t, len(spreads)-1)
	stats.Significance = SignificanceStars(stats.PValue)
	return stats
}

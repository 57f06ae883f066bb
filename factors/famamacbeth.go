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

package factors

import (
	"gonum.org/v1/gonum/mat"
)

// FamaMacBethStats summarizes the cross-sectional regression test: each
// period returns are regressed on the composite score, then the
// time-series mean of the period slopes is tested against zero.
type FamaMacBethStats struct {
	MeanCoefficient  float64 `json:"meanCoefficient"`
	TStat            float64 `json:"tStat"`
	PValue           float64 `json:"pValue"`
	Periods          int     `json:"periods"`
	Significance     string  `json:"significance"`
	InsufficientData bool    `json:"insufficientData"`
}

// famaMacBeth runs the period-by-period cross-sectional path. It is kept
// separate from the quintile-spread path because it operates on raw
// (score, return) pairs each period rather than pre-aggregated quintiles.
func (a *Analyzer) famaMacBeth(startYear, endYear int) *FamaMacBethStats {
	slopes := make([]float64, 0, endYear-startYear+1)

	for year := startYear; year <= endYear; year++ {
		scores := a.scores[year]
		if len(scores) < 3 {
			continue
		}

		xs := make([]float64, 0, len(scores))
		ys := make([]float64, 0, len(scores))
		for _, sc := range scores {
			r, err := a.returns(sc.Symbol, year)
			if err != nil {
				continue
			}
			xs = append(xs, sc.Composite)
			ys = append(ys, r)
		}
		if len(xs) < 3 {
			continue
		}

		slope, ok := crossSectionalSlope(xs, ys)
		if !ok {
			continue
		}
		slopes = append(slopes, slope)
	}

	stats := &FamaMacBethStats{Periods: len(slopes)}
	if len(slopes) < a.cfg.MinYears {
		stats.InsufficientData = true
		return stats
	}

	var sum float64
	for _, s := range slopes {
		sum += s
	}
	stats.MeanCoefficient = sum / float64(len(slopes))

	t, err := NeweyWestTStat(slopes, a.cfg.Lags)
	if err != nil {
		stats.InsufficientData = true
		return stats
	}
	stats.TStat = t
	stats.PValue = StudentTPValue(t, len(slopes)-1)
	stats.Significance = SignificanceStars(stats.PValue)
	return stats
}

// crossSectionalSlope solves the single-period OLS [1 x] beta = y by QR
// and returns the slope on the score.
func crossSectionalSlope(xs, ys []float64) (float64, bool) {
	n := len(xs)
	design := mat.NewDense(n, 2, nil)
	for ii := 0; ii < n; ii++ {
		design.Set(ii, 0, 1)
		design.Set(ii, 1, xs[ii])
	}
	response := mat.NewDense(n, 1, ys)

	var qr mat.QR
	qr.Factorize(design)

	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, response); err != nil {
		return 0, false
	}
	return beta.At(1, 0), true
}

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
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var ErrInsufficientSample = errors.New("insufficient sample for statistic")

// NeweyWestTStat tests whether the mean of a time series differs from
// zero, with standard errors corrected for serial correlation using
// Bartlett-kernel weights w_l = 1 - l/(L+1).
//
// Autocovariances are normalized by (n-1), so with zero lags the statistic
// reduces exactly to the standard homoskedastic t-statistic on the same
// series.
func NeweyWestTStat(series []float64, lags int) (float64, error) {
	n := len(series)
	if n < 2 {
		return 0, ErrInsufficientSample
	}
	if lags >= n {
		lags = n - 1
	}

	mean := stat.Mean(series, nil)
	resid := make([]float64, n)
	for ii, v := range series {
		resid[ii] = v - mean
	}

	norm := float64(n - 1)

	// gamma_0 is the sample variance of the series
	var variance float64
	for _, e := range resid {
		variance += e * e
	}
	variance /= norm

	longRun := variance
	for lag := 1; lag <= lags; lag++ {
		var gamma float64
		for t := lag; t < n; t++ {
			gamma += resid[t] * resid[t-lag]
		}
		gamma /= norm
		weight := 1.0 - float64(lag)/float64(lags+1)
		longRun += 2 * weight * gamma
	}

	if longRun <= 0 {
		return 0, ErrInsufficientSample
	}

	se := math.Sqrt(longRun / float64(n))
	return mean / se, nil
}

// StudentTPValue is the two-sided p-value of a t-statistic with df degrees
// of freedom.
func StudentTPValue(t float64, df int) float64 {
	if df < 1 {
		return 1.0
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
	return 2 * (1 - dist.CDF(math.Abs(t)))
}

// SignificanceStars maps a p-value to the conventional reporting tiers:
// * p<0.10, ** p<0.05, *** p<0.01.
func SignificanceStars(p float64) string {
	switch {
	case p < 0.01:
		return "***"
	case p < 0.05:
		return "**"
	case p < 0.10:
		return "*"
	default:
		return ""
	}
}

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

// Package metrics provides the stateless performance calculations shared
// by the backtester and the factor analyzer. Functions return NaN rather
// than panic when a series is too short to support the statistic.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// CumulativeSeries compounds a sequence of period returns into a growth
// series: element i is the value of $1 after periods 0..i.
func CumulativeSeries(returns []float64) []float64 {
	series := make([]float64, len(returns))
	growth := 1.0
	for ii, r := range returns {
		growth *= 1 + r
		series[ii] = growth
	}
	return series
}

// AnnualizedReturn converts terminal growth (the final value of $1) over
// `years` periods into a geometric mean annual return.
func AnnualizedReturn(growth float64, years int) float64 {
	if years <= 0 || growth <= 0 {
		return math.NaN()
	}
	return math.Pow(growth, 1.0/float64(years)) - 1
}

// Volatility is the sample standard deviation of a return series. NaN for
// fewer than 2 observations.
func Volatility(returns []float64) float64 {
	if len(returns) < 2 {
		return math.NaN()
	}
	return stat.StdDev(returns, nil)
}

// SharpeRatio is the excess return over the risk-free rate per unit of
// volatility.
func SharpeRatio(annualReturn, riskFree, volatility float64) float64 {
	if volatility <= 0 || math.IsNaN(volatility) {
		return math.NaN()
	}
	return (annualReturn - riskFree) / volatility
}

// MaxDrawdown computes the largest peak-to-trough decline of a
// time-ordered cumulative growth series, returned as a positive fraction
// (0.25 means a 25% decline). NaN for fewer than 2 points.
func MaxDrawdown(cumulative []float64) float64 {
	if len(cumulative) < 2 {
		return math.NaN()
	}

	peak := cumulative[0]
	var maxDD float64
	for _, v := range cumulative {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := (peak - v) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

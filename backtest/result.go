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

package backtest

import (
	"io"
	"math"

	"github.com/finsoeasy/rd-alpha/data"

	"github.com/goccy/go-json"
)

// NullableFloat is a float64 that encodes NaN and infinities as JSON null.
// Summary statistics that need more observations than the run produced
// (a single-year run has no volatility) stay serializable.
type NullableFloat float64

func (f NullableFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func (f *NullableFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = NullableFloat(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = NullableFloat(v)
	return nil
}

// YearResult is the realized outcome of one formation year. Fixed once the
// year completes; later data corrections only affect future formations.
type YearResult struct {
	Year            int     `json:"year"`
	GrossReturn     float64 `json:"grossReturn"`
	NetReturn       float64 `json:"netReturn"`
	BenchmarkReturn float64 `json:"benchmarkReturn"`
	Turnover        float64 `json:"turnover"`
	Cost            float64 `json:"cost"`
	NScored         int     `json:"nScored"`
	NHeld           int     `json:"nHeld"`
}

// Result is the append-only output of a full run: the per-year series,
// the compounded series, summary metrics, and the exclusion audit trail.
type Result struct {
	RunID     string `json:"runId"`
	StartYear int    `json:"startYear"`
	EndYear   int    `json:"endYear"`

	Years      []YearResult `json:"years"`
	Portfolios []*Portfolio `json:"portfolios"`
	Cumulative []float64    `json:"cumulative"`

	TotalReturn         float64       `json:"totalReturn"`
	AnnualizedReturn    NullableFloat `json:"annualizedReturn"`
	Volatility          NullableFloat `json:"volatility"`
	SharpeRatio         NullableFloat `json:"sharpeRatio"`
	MaxDrawdown         NullableFloat `json:"maxDrawdown"`
	BenchmarkMeanReturn float64       `json:"benchmarkMeanReturn"`

	// ApproximateUniverse flags that at least one snapshot was built from
	// current constituents rather than point-in-time membership.
	ApproximateUniverse bool `json:"approximateUniverse"`

	Exclusions []data.Exclusion `json:"exclusions"`
}

// WriteJSON serializes the result. The engine does not dictate
// persistence; this is a convenience for the CLI and API layers.
func (r *Result) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

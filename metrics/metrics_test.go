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

package metrics_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/finsoeasy/rd-alpha/metrics"
)

var _ = Describe("When compounding a return series", func() {
	It("tracks the growth of a dollar", func() {
		series := metrics.CumulativeSeries([]float64{0.10, -0.05, 0.20})
		Expect(series).To(HaveLen(3))
		Expect(series[0]).To(BeNumerically("~", 1.10, 1e-12))
		Expect(series[1]).To(BeNumerically("~", 1.045, 1e-12))
		Expect(series[2]).To(BeNumerically("~", 1.254, 1e-12))
	})

	It("returns an empty series for empty input", func() {
		Expect(metrics.CumulativeSeries(nil)).To(BeEmpty())
	})
})

var _ = Describe("When annualizing terminal growth", func() {
	It("recovers the geometric mean rate", func() {
		// 21% over two years is 10% a year
		Expect(metrics.AnnualizedReturn(1.21, 2)).To(BeNumerically("~", 0.10, 1e-12))
	})

	It("is NaN for degenerate inputs", func() {
		Expect(math.IsNaN(metrics.AnnualizedReturn(1.21, 0))).To(BeTrue())
		Expect(math.IsNaN(metrics.AnnualizedReturn(-0.5, 3))).To(BeTrue())
	})
})

var _ = Describe("When measuring volatility", func() {
	It("is the sample standard deviation", func() {
		vol := metrics.Volatility([]float64{0.10, 0.20})
		Expect(vol).To(BeNumerically("~", math.Sqrt(0.005), 1e-12))
	})

	It("is NaN below two observations", func() {
		Expect(math.IsNaN(metrics.Volatility([]float64{0.10}))).To(BeTrue())
		Expect(math.IsNaN(metrics.Volatility(nil))).To(BeTrue())
	})
})

var _ = Describe("When computing the Sharpe ratio", func() {
	It("is excess return per unit of volatility", func() {
		Expect(metrics.SharpeRatio(0.12, 0.02, 0.20)).To(BeNumerically("~", 0.5, 1e-12))
	})

	It("is NaN for non-positive volatility", func() {
		Expect(math.IsNaN(metrics.SharpeRatio(0.12, 0.02, 0))).To(BeTrue())
		Expect(math.IsNaN(metrics.SharpeRatio(0.12, 0.02, math.NaN()))).To(BeTrue())
	})
})

var _ = Describe("When computing the maximum drawdown", func() {
	It("finds the largest peak to trough decline", func() {
		dd := metrics.MaxDrawdown([]float64{1.0, 1.5, 0.9, 1.2, 1.8, 1.35})
		// 1.5 down to 0.9 is a 40% decline
		Expect(dd).To(BeNumerically("~", 0.40, 1e-12))
	})

	It("is zero for a monotonic rise", func() {
		Expect(metrics.MaxDrawdown([]float64{1.0, 1.1, 1.2})).To(Equal(0.0))
	})

	It("is NaN below two points", func() {
		Expect(math.IsNaN(metrics.MaxDrawdown([]float64{1.0}))).To(BeTrue())
	})
})

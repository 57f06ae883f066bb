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

package factors_test

import (
	"context"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/finsoeasy/rd-alpha/data"
	"github.com/finsoeasy/rd-alpha/factors"
	"github.com/finsoeasy/rd-alpha/scoring"
)

// rankedScores builds n scores with composite n, n-1, ..., 1 so that
// symbol S01 is the strongest and Sn the weakest.
func rankedScores(year, n int) []*scoring.Score {
	scores := make([]*scoring.Score, 0, n)
	for ii := 0; ii < n; ii++ {
		scores = append(scores, &scoring.Score{
			Symbol:        fmt.Sprintf("S%02d", ii+1),
			FormationYear: year,
			Sector:        data.SectorTechnology,
			Composite:     float64(n - ii),
		})
	}
	return scores
}

// alignedReturns gives higher returns to higher ranked symbols, with a
// year dependent tilt so the spread series is not constant.
func alignedReturns(symbol string, year int) (float64, error) {
	var rank int
	if _, err := fmt.Sscanf(symbol, "S%02d", &rank); err != nil {
		return 0, err
	}
	base := 0.12 - 0.01*float64(rank-1)
	tilt := 1.0 + 0.1*float64(year%3)
	return base * tilt, nil
}

var _ = Describe("When validating the analyzer configuration", func() {
	It("accepts the defaults", func() {
		Expect(factors.DefaultConfig().Validate()).To(Succeed())
	})

	It("rejects negative lags", func() {
		cfg := factors.DefaultConfig()
		cfg.Lags = -1
		Expect(cfg.Validate()).To(MatchError(factors.ErrInvalidConfiguration))
	})

	It("rejects a minimum sample below two years", func() {
		cfg := factors.DefaultConfig()
		cfg.MinYears = 1
		Expect(cfg.Validate()).To(MatchError(factors.ErrInvalidConfiguration))
	})
})

var _ = Describe("When analyzing the factor over a full sample", func() {
	var report *factors.Report

	BeforeEach(func() {
		scores := make(map[int][]*scoring.Score)
		for year := 2015; year <= 2024; year++ {
			scores[year] = rankedScores(year, 10)
		}

		analyzer, err := factors.New(factors.DefaultConfig(), scores, alignedReturns)
		Expect(err).To(BeNil())

		report, err = analyzer.Analyze(context.Background(), 2015, 2024)
		Expect(err).To(BeNil())
	})

	It("observes every quintile in every year", func() {
		Expect(report.Quintiles).To(HaveLen(5))
		for _, q := range report.Quintiles {
			Expect(q.Years).To(Equal(10))
		}
	})

	It("orders quintile mean returns with the score alignment", func() {
		for q := 1; q < len(report.Quintiles); q++ {
			Expect(report.Quintiles[q].MeanReturn).To(
				BeNumerically(">", report.Quintiles[q-1].MeanReturn))
		}
	})

	It("finds a positive and significant long/short spread", func() {
		Expect(report.Spread.InsufficientData).To(BeFalse())
		Expect(report.Spread.Mean).To(BeNumerically(">", 0))
		Expect(report.Spread.TStat).To(BeNumerically(">", 2))
		Expect(report.Spread.PValue).To(BeNumerically("<", 0.05))
		Expect(report.Spread.Significance).NotTo(BeEmpty())
		Expect(report.Spread.Years).To(Equal(10))
	})

	It("reports the per-year spread series", func() {
		Expect(report.SpreadSeries).To(HaveLen(10))
		for _, spread := range report.SpreadSeries {
			Expect(spread).To(BeNumerically(">", 0))
		}
	})

	It("finds a positive cross-sectional slope", func() {
		Expect(report.FamaMacBeth).NotTo(BeNil())
		Expect(report.FamaMacBeth.InsufficientData).To(BeFalse())
		Expect(report.FamaMacBeth.MeanCoefficient).To(BeNumerically(">", 0))
	})
})

var _ = Describe("When the sample has uneven quintile sizes", func() {
	It("keeps the partition exhaustive with sizes differing by at most one", func() {
		scores := make(map[int][]*scoring.Score)
		for year := 2017; year <= 2024; year++ {
			scores[year] = rankedScores(year, 12)
		}

		analyzer, err := factors.New(factors.DefaultConfig(), scores, alignedReturns)
		Expect(err).To(BeNil())

		report, err := analyzer.Analyze(context.Background(), 2017, 2024)
		Expect(err).To(BeNil())

		// 12 symbols split 3/3/2/2/2; every quintile still observed yearly
		for _, q := range report.Quintiles {
			Expect(q.Years).To(Equal(8))
		}
		// the top quintile holds only the two strongest names
		Expect(report.Quintiles[4].MeanReturn).To(
			BeNumerically(">", report.Quintiles[3].MeanReturn))
	})
})

var _ = Describe("When the sample is too small", func() {
	It("reports insufficient data instead of a spurious statistic", func() {
		scores := make(map[int][]*scoring.Score)
		for year := 2021; year <= 2023; year++ {
			scores[year] = rankedScores(year, 10)
		}

		analyzer, err := factors.New(factors.DefaultConfig(), scores, alignedReturns)
		Expect(err).To(BeNil())

		report, err := analyzer.Analyze(context.Background(), 2021, 2023)
		Expect(err).To(BeNil())
		Expect(report.Spread.InsufficientData).To(BeTrue())
		Expect(report.Spread.TStat).To(Equal(0.0))
	})

	It("skips years with fewer symbols than quintiles", func() {
		scores := map[int][]*scoring.Score{
			2022: rankedScores(2022, 3),
		}
		analyzer, err := factors.New(factors.DefaultConfig(), scores, alignedReturns)
		Expect(err).To(BeNil())

		_, err = analyzer.Analyze(context.Background(), 2022, 2022)
		Expect(err).To(MatchError(factors.ErrNoScores))
	})

	It("fails on an inverted year range", func() {
		analyzer, err := factors.New(factors.DefaultConfig(), map[int][]*scoring.Score{}, alignedReturns)
		Expect(err).To(BeNil())
		_, err = analyzer.Analyze(context.Background(), 2024, 2015)
		Expect(err).To(MatchError(factors.ErrInvalidConfiguration))
	})
})

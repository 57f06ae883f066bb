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

package scoring_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/finsoeasy/rd-alpha/data"
	"github.com/finsoeasy/rd-alpha/scoring"
)

// seedTradedSymbol gives a symbol FY2022 financials, a profile, and a full
// year of weekday prices ahead of a 2023 formation.
func seedTradedSymbol(store *data.Store, symbol string, rdExpense float64) {
	Expect(store.AddFinancial(&data.FinancialRecord{
		Symbol: symbol, FiscalYear: 2022, Revenue: 10e9, RDExpense: rdExpense, Period: "FY",
	})).To(Succeed())
	Expect(store.SetProfile(&data.CompanyProfile{
		Symbol: symbol, Name: symbol, Sector: data.SectorTechnology, MarketCap: 100e9,
	})).To(Succeed())

	for d := day("2022-07-01"); d.Before(day("2023-07-01")); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		Expect(store.AddPrice(&data.PriceObservation{
			Symbol: symbol, Date: d, AdjClose: 100,
		})).To(Succeed())
	}
}

var _ = Describe("When scoring a range of formation years", func() {
	var (
		store      *data.Store
		exclusions *data.ExclusionLog
		returns    *data.ReturnBuilder
	)

	BeforeEach(func() {
		store = data.NewStore()
		exclusions = data.NewExclusionLog()

		seedTradedSymbol(store, "HIGH", 2.0e9)
		seedTradedSymbol(store, "LOW", 0.5e9)

		returns = data.NewReturnBuilder(store)
	})

	It("ranks each year and reports approximate membership", func() {
		universe := data.NewStoreUniverse(store, exclusions)

		scores, approximate, err := scoring.ScoreYears(context.Background(), scoring.DefaultConfig(),
			store, universe, returns, exclusions, 2023, 2023)
		Expect(err).To(BeNil())
		Expect(approximate).To(BeTrue())
		Expect(scores[2023]).To(HaveLen(2))
		Expect(scores[2023][0].Symbol).To(Equal("HIGH"))
	})

	It("does not flag explicit point-in-time membership", func() {
		universe := data.NewMembershipUniverse(store, map[int][]string{
			2023: {"HIGH", "LOW"},
		}, exclusions)

		scores, approximate, err := scoring.ScoreYears(context.Background(), scoring.DefaultConfig(),
			store, universe, returns, exclusions, 2023, 2023)
		Expect(err).To(BeNil())
		Expect(approximate).To(BeFalse())
		Expect(scores[2023]).To(HaveLen(2))
	})

	It("fails on an empty universe", func() {
		empty := data.NewStore()
		universe := data.NewStoreUniverse(empty, nil)

		_, _, err := scoring.ScoreYears(context.Background(), scoring.DefaultConfig(),
			empty, universe, data.NewReturnBuilder(empty), nil, 2023, 2023)
		Expect(err).To(MatchError(data.ErrEmptyUniverse))
	})
})

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

package data_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/finsoeasy/rd-alpha/data"
)

// addDailyPrices inserts one observation per weekday in [begin, end).
func addDailyPrices(store *data.Store, symbol string, begin, end time.Time, close float64) {
	for d := begin; d.Before(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		Expect(store.AddPrice(&data.PriceObservation{
			Symbol: symbol, Date: d, AdjClose: close,
		})).To(Succeed())
	}
}

var _ = Describe("When building a universe snapshot from the store", func() {
	var (
		store      *data.Store
		exclusions *data.ExclusionLog
		universe   *data.StoreUniverse
		formation  time.Time
	)

	BeforeEach(func() {
		store = data.NewStore()
		exclusions = data.NewExclusionLog()
		universe = data.NewStoreUniverse(store, exclusions)
		formation = day("2023-07-01")

		Expect(store.SetProfile(&data.CompanyProfile{
			Symbol: "TECH", Name: "Tech Co", Sector: data.SectorTechnology, MarketCap: 600e9,
		})).To(Succeed())
		Expect(store.SetProfile(&data.CompanyProfile{
			Symbol: "PHRM", Name: "Pharma Co", Sector: data.SectorPharmaceuticals, MarketCap: 200e9,
		})).To(Succeed())
		Expect(store.SetProfile(&data.CompanyProfile{
			Symbol: "INDL", Name: "Industrial Co", Sector: data.SectorOther, MarketCap: 200e9,
		})).To(Succeed())
		Expect(store.SetProfile(&data.CompanyProfile{
			Symbol: "BANK", Name: "Bank Co", Sector: data.SectorFinancials, MarketCap: 300e9,
		})).To(Succeed())
		Expect(store.SetProfile(&data.CompanyProfile{
			Symbol: "THIN", Name: "Thin History Co", Sector: data.SectorTechnology, MarketCap: 50e9,
		})).To(Succeed())

		lookback := formation.AddDate(-1, 0, 0)
		addDailyPrices(store, "TECH", lookback, formation, 100)
		addDailyPrices(store, "PHRM", lookback, formation, 80)
		addDailyPrices(store, "INDL", lookback, formation, 60)
		addDailyPrices(store, "BANK", lookback, formation, 40)
		// THIN only trades the last two months
		addDailyPrices(store, "THIN", formation.AddDate(0, -2, 0), formation, 20)
	})

	It("includes only symbols with comparable sectors and enough coverage", func() {
		snap, err := universe.Snapshot(context.Background(), formation)
		Expect(err).To(BeNil())
		Expect(snap.Symbols).To(ConsistOf("TECH", "PHRM", "INDL"))
		Expect(snap.Approximate).To(BeTrue())
	})

	It("records why each symbol was dropped", func() {
		_, err := universe.Snapshot(context.Background(), formation)
		Expect(err).To(BeNil())

		reasons := make(map[string]string)
		for _, e := range exclusions.Entries() {
			reasons[e.Symbol] = e.Reason
		}
		Expect(reasons["BANK"]).To(ContainSubstring("excluded sector"))
		Expect(reasons["THIN"]).To(ContainSubstring("insufficient price history"))
	})

	It("weights sectors by market cap over the eligible set", func() {
		snap, err := universe.Snapshot(context.Background(), formation)
		Expect(err).To(BeNil())

		// eligible cap: 600 + 200 + 200 = 1000
		Expect(snap.SectorWeights[data.SectorTechnology]).To(BeNumerically("~", 0.60, 1e-12))
		Expect(snap.SectorWeights[data.SectorPharmaceuticals]).To(BeNumerically("~", 0.20, 1e-12))
		Expect(snap.SectorWeights[data.SectorOther]).To(BeNumerically("~", 0.20, 1e-12))

		var total float64
		for _, w := range snap.SectorWeights {
			total += w
		}
		Expect(total).To(BeNumerically("~", 1.0, 1e-12))
	})

	It("computes the diversification adjustment against the high R&D weight", func() {
		snap, err := universe.Snapshot(context.Background(), formation)
		Expect(err).To(BeNil())

		Expect(snap.HighRDWeight()).To(BeNumerically("~", 0.80, 1e-12))
		Expect(snap.SectorAdjustment(data.SectorTechnology)).To(BeNumerically("~", 0.75, 1e-12))
		Expect(snap.SectorAdjustment(data.SectorPharmaceuticals)).To(BeNumerically("~", 0.25, 1e-12))
		// non high-R&D sectors are never adjusted
		Expect(snap.SectorAdjustment(data.SectorOther)).To(Equal(1.0))
	})

	It("fails with an explicit error when nothing is eligible", func() {
		empty := data.NewStoreUniverse(data.NewStore(), nil)
		_, err := empty.Snapshot(context.Background(), formation)
		Expect(err).To(MatchError(data.ErrEmptyUniverse))
	})
})

var _ = Describe("When building snapshots from an explicit membership table", func() {
	It("uses the per-year member list and is not flagged approximate", func() {
		store := data.NewStore()
		formation := day("2023-07-01")
		lookback := formation.AddDate(-1, 0, 0)

		Expect(store.SetProfile(&data.CompanyProfile{
			Symbol: "TECH", Name: "Tech Co", Sector: data.SectorTechnology, MarketCap: 600e9,
		})).To(Succeed())
		Expect(store.SetProfile(&data.CompanyProfile{
			Symbol: "PHRM", Name: "Pharma Co", Sector: data.SectorPharmaceuticals, MarketCap: 200e9,
		})).To(Succeed())
		addDailyPrices(store, "TECH", lookback, formation, 100)
		addDailyPrices(store, "PHRM", lookback, formation, 80)

		members := map[int][]string{
			2023: {"TECH", "GHOST"},
		}
		universe := data.NewMembershipUniverse(store, members, nil)

		snap, err := universe.Snapshot(context.Background(), formation)
		Expect(err).To(BeNil())
		// PHRM is in the store but not a member; GHOST has no profile
		Expect(snap.Symbols).To(ConsistOf("TECH"))
		Expect(snap.Approximate).To(BeFalse())
	})
})

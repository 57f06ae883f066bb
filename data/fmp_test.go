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

	"github.com/jarcoal/httpmock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/viper"

	"github.com/finsoeasy/rd-alpha/data"
)

var _ = Describe("When fetching from the fundamentals provider", func() {
	var client *data.FMPClient

	BeforeEach(func() {
		httpmock.Activate()
		viper.Set("fmp.api_key", "test-key")
		viper.Set("cache.local_size", 16)
		viper.Set("cache.redis", false)

		var err error
		client, err = data.NewFMPClient()
		Expect(err).To(BeNil())
	})

	AfterEach(func() {
		client.Close()
		httpmock.DeactivateAndReset()
		viper.Set("fmp.api_key", "")
	})

	Context("income statements", func() {
		BeforeEach(func() {
			httpmock.RegisterResponder("GET",
				"https://financialmodelingprep.com/api/v3/income-statement/RDCO",
				httpmock.NewStringResponder(200, `[
					{"symbol": "RDCO", "calendarYear": "2022", "period": "FY",
					 "revenue": 10000000000, "researchAndDevelopmentExpenses": 1500000000},
					{"symbol": "RDCO", "calendarYear": "2021", "period": "FY",
					 "revenue": 9000000000, "researchAndDevelopmentExpenses": 1200000000}
				]`))
		})

		It("decodes rows into financial records", func() {
			records, err := client.IncomeStatements(context.Background(), "RDCO", 5)
			Expect(err).To(BeNil())
			Expect(records).To(HaveLen(2))
			Expect(records[0].Symbol).To(Equal("RDCO"))
			Expect(records[0].FiscalYear).To(Equal(2022))
			Expect(records[0].Revenue).To(Equal(10e9))
			Expect(records[0].RDExpense).To(Equal(1.5e9))
			Expect(records[0].Period).To(Equal("FY"))
		})

		It("serves repeated requests from the cache", func() {
			_, err := client.IncomeStatements(context.Background(), "RDCO", 5)
			Expect(err).To(BeNil())
			_, err = client.IncomeStatements(context.Background(), "RDCO", 5)
			Expect(err).To(BeNil())
			Expect(httpmock.GetTotalCallCount()).To(Equal(1))
		})
	})

	Context("profiles", func() {
		It("decodes the profile and normalizes the sector", func() {
			httpmock.RegisterResponder("GET",
				"https://financialmodelingprep.com/api/v3/profile/RDCO",
				httpmock.NewStringResponder(200, `[
					{"symbol": "RDCO", "companyName": "RD Co",
					 "sector": "Information Technology", "industry": "Software",
					 "mktCap": 600000000000}
				]`))

			profile, err := client.Profile(context.Background(), "RDCO")
			Expect(err).To(BeNil())
			Expect(profile.Name).To(Equal("RD Co"))
			Expect(profile.Sector).To(Equal(data.SectorTechnology))
			Expect(profile.MarketCap).To(Equal(600e9))
		})

		It("reports an unknown symbol for an empty response", func() {
			httpmock.RegisterResponder("GET",
				"https://financialmodelingprep.com/api/v3/profile/NOPE",
				httpmock.NewStringResponder(200, `[]`))

			_, err := client.Profile(context.Background(), "NOPE")
			Expect(err).To(MatchError(data.ErrUnknownSymbol))
		})
	})

	Context("historical prices", func() {
		It("returns observations in ascending date order", func() {
			httpmock.RegisterResponder("GET",
				"https://financialmodelingprep.com/api/v3/historical-price-full/RDCO",
				httpmock.NewStringResponder(200, `{
					"symbol": "RDCO",
					"historical": [
						{"date": "2024-06-28", "adjClose": 115},
						{"date": "2023-07-03", "adjClose": 100}
					]
				}`))

			from := time.Date(2023, time.July, 1, 0, 0, 0, 0, time.UTC)
			to := time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC)
			prices, err := client.HistoricalPrices(context.Background(), "RDCO", from, to)
			Expect(err).To(BeNil())
			Expect(prices).To(HaveLen(2))
			Expect(prices[0].Date.Before(prices[1].Date)).To(BeTrue())
			Expect(prices[0].AdjClose).To(Equal(100.0))
			Expect(prices[1].AdjClose).To(Equal(115.0))
		})
	})

	Context("error handling", func() {
		It("surfaces a non-200 response as an error", func() {
			httpmock.RegisterResponder("GET",
				"https://financialmodelingprep.com/api/v3/profile/RDCO",
				httpmock.NewStringResponder(429, `{"error": "rate limited"}`))

			_, err := client.Profile(context.Background(), "RDCO")
			Expect(err).To(MatchError(data.ErrProviderStatus))
		})
	})
})

var _ = Describe("When constructing the provider client", func() {
	It("requires an API key", func() {
		viper.Set("fmp.api_key", "")
		_, err := data.NewFMPClient()
		Expect(err).To(MatchError(data.ErrMissingAPIKey))
	})
})

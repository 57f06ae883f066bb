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
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/finsoeasy/rd-alpha/data"
)

func obs(symbol string, date string, close float64) *data.PriceObservation {
	d, err := time.Parse("2006-01-02", date)
	Expect(err).To(BeNil())
	return &data.PriceObservation{Symbol: symbol, Date: d, AdjClose: close}
}

func day(date string) time.Time {
	d, err := time.Parse("2006-01-02", date)
	Expect(err).To(BeNil())
	return d
}

var _ = Describe("When looking up the nearest price", func() {
	var prices []*data.PriceObservation

	BeforeEach(func() {
		prices = []*data.PriceObservation{
			obs("RDCO", "2023-07-03", 100),
			obs("RDCO", "2023-07-05", 101),
			obs("RDCO", "2023-07-31", 104),
			obs("RDCO", "2024-06-28", 115),
		}
	})

	Context("searching forward", func() {
		It("resolves an exact match", func() {
			p, err := data.NearestPrice(prices, day("2023-07-05"), data.SearchForward, 10)
			Expect(err).To(BeNil())
			Expect(p.AdjClose).To(Equal(101.0))
		})

		It("resolves to the next observation after a weekend", func() {
			p, err := data.NearestPrice(prices, day("2023-07-01"), data.SearchForward, 10)
			Expect(err).To(BeNil())
			Expect(p.AdjClose).To(Equal(100.0))
		})

		It("fails when the gap exceeds the tolerance", func() {
			p, err := data.NearestPrice(prices, day("2023-08-20"), data.SearchForward, 10)
			Expect(p).To(BeNil())
			Expect(err).To(MatchError(data.ErrPriceUnavailable))
		})

		It("fails past the end of the series", func() {
			_, err := data.NearestPrice(prices, day("2024-07-15"), data.SearchForward, 10)
			Expect(err).To(MatchError(data.ErrPriceUnavailable))
		})
	})

	Context("searching backward", func() {
		It("resolves to the last observation before the target", func() {
			p, err := data.NearestPrice(prices, day("2024-06-30"), data.SearchBackward, 10)
			Expect(err).To(BeNil())
			Expect(p.AdjClose).To(Equal(115.0))
		})

		It("fails before the start of the series", func() {
			_, err := data.NearestPrice(prices, day("2023-06-15"), data.SearchBackward, 10)
			Expect(err).To(MatchError(data.ErrPriceUnavailable))
		})

		It("fails when the gap exceeds the tolerance", func() {
			_, err := data.NearestPrice(prices, day("2024-06-01"), data.SearchBackward, 10)
			Expect(err).To(MatchError(data.ErrPriceUnavailable))
		})
	})

	Context("with no price history", func() {
		It("fails with a distinct error", func() {
			_, err := data.NearestPrice(nil, day("2023-07-01"), data.SearchForward, 10)
			Expect(err).To(MatchError(data.ErrNoPriceHistory))
		})
	})
})

var _ = Describe("When counting trading days", func() {
	It("counts observations inside the window inclusively", func() {
		prices := []*data.PriceObservation{
			obs("RDCO", "2023-07-03", 100),
			obs("RDCO", "2023-07-05", 101),
			obs("RDCO", "2023-07-31", 104),
			obs("RDCO", "2024-06-28", 115),
		}
		Expect(data.CountTradingDays(prices, day("2023-07-03"), day("2023-07-31"))).To(Equal(3))
		Expect(data.CountTradingDays(prices, day("2023-08-01"), day("2024-06-01"))).To(Equal(0))
		Expect(data.CountTradingDays(prices, day("2023-01-01"), day("2024-12-31"))).To(Equal(4))
	})
})

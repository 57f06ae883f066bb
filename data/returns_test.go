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
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/finsoeasy/rd-alpha/data"
)

var _ = Describe("When winsorizing a return", func() {
	It("clips at both bounds and passes interior values through", func() {
		Expect(data.Winsorize(-0.995)).To(Equal(data.WinsorLower))
		Expect(data.Winsorize(11.0)).To(Equal(data.WinsorUpper))
		Expect(data.Winsorize(0.15)).To(Equal(0.15))
		Expect(data.Winsorize(-0.50)).To(Equal(-0.50))
	})
})

var _ = Describe("When computing a holding period return", func() {
	var (
		store   *data.Store
		builder *data.ReturnBuilder
	)

	BeforeEach(func() {
		store = data.NewStore()
		builder = data.NewReturnBuilder(store)
	})

	Context("for a symbol that trades through the full window", func() {
		BeforeEach(func() {
			// July 1 2023 is a Saturday; first trade Monday July 3
			Expect(store.AddPrice(obs("RDCO", "2023-07-03", 100))).To(Succeed())
			Expect(store.AddPrice(obs("RDCO", "2024-06-28", 115))).To(Succeed())
		})

		It("uses the nearest tradable prices on either side of the bounds", func() {
			r, err := builder.Return("RDCO", 2023)
			Expect(err).To(BeNil())
			Expect(r).To(BeNumerically("~", 0.15, 1e-12))
		})

		It("is invariant under a uniform price rescale", func() {
			Expect(store.AddPrice(obs("SPLT", "2023-07-03", 400))).To(Succeed())
			Expect(store.AddPrice(obs("SPLT", "2024-06-28", 460))).To(Succeed())

			r1, err := builder.Return("RDCO", 2023)
			Expect(err).To(BeNil())
			r2, err := builder.Return("SPLT", 2023)
			Expect(err).To(BeNil())
			Expect(r2).To(BeNumerically("~", r1, 1e-12))
		})
	})

	Context("for a bankruptcy delisting inside the window", func() {
		BeforeEach(func() {
			Expect(store.AddPrice(obs("BUST", "2023-07-03", 50))).To(Succeed())
			Expect(store.AddPrice(obs("BUST", "2023-11-10", 2))).To(Succeed())
			Expect(store.AddDelisting(&data.DelistEvent{
				Symbol: "BUST", Date: day("2023-11-15"), Code: 410,
			})).To(Succeed())
		})

		It("forces the fixed liquidation return regardless of prices", func() {
			r, err := builder.Return("BUST", 2023)
			Expect(err).To(BeNil())
			Expect(r).To(Equal(data.DelistBankruptcyReturn))
		})

		It("is idempotent across repeated computation", func() {
			r1, err := builder.Return("BUST", 2023)
			Expect(err).To(BeNil())
			r2, err := builder.Return("BUST", 2023)
			Expect(err).To(BeNil())
			Expect(r2).To(Equal(r1))
		})
	})

	Context("for a merger delisting inside the window", func() {
		BeforeEach(func() {
			Expect(store.AddPrice(obs("MRGR", "2023-07-03", 100))).To(Succeed())
			Expect(store.AddPrice(obs("MRGR", "2024-01-04", 108))).To(Succeed())
			Expect(store.AddDelisting(&data.DelistEvent{
				Symbol: "MRGR", Date: day("2024-01-05"), Code: 520,
			})).To(Succeed())
		})

		It("keeps the realized return through the delisting date", func() {
			r, err := builder.Return("MRGR", 2023)
			Expect(err).To(BeNil())
			Expect(r).To(BeNumerically("~", 0.08, 1e-12))
		})
	})

	Context("for a symbol with no usable end price", func() {
		BeforeEach(func() {
			Expect(store.AddPrice(obs("GONE", "2023-07-03", 100))).To(Succeed())
			Expect(store.AddPrice(obs("GONE", "2023-12-01", 90))).To(Succeed())
		})

		It("fails with an explicit unavailable error", func() {
			_, err := builder.Return("GONE", 2023)
			Expect(err).To(MatchError(data.ErrPriceUnavailable))
		})
	})

	Context("for a symbol with no price history at all", func() {
		It("fails with a no-history error", func() {
			_, err := builder.Return("NODATA", 2023)
			Expect(err).To(MatchError(data.ErrNoPriceHistory))
		})
	})

	Context("for an extreme collapse without delisting", func() {
		BeforeEach(func() {
			Expect(store.AddPrice(obs("CRSH", "2023-07-03", 1000))).To(Succeed())
			Expect(store.AddPrice(obs("CRSH", "2024-06-28", 1))).To(Succeed())
		})

		It("winsorizes the raw return at the lower bound", func() {
			r, err := builder.Return("CRSH", 2023)
			Expect(err).To(BeNil())
			Expect(r).To(Equal(data.WinsorLower))
		})
	})
})

var _ = Describe("When computing the holding period bounds", func() {
	It("spans July 1 of the formation year through June 30 of the next", func() {
		builder := data.NewReturnBuilder(data.NewStore())
		begin, end := builder.HoldingPeriod(2023)
		Expect(begin).To(Equal(day("2023-07-01")))
		Expect(end).To(Equal(day("2024-06-30")))
	})
})

var _ = Describe("When collecting trailing annual returns", func() {
	It("omits years that cannot be resolved", func() {
		store := data.NewStore()
		builder := data.NewReturnBuilder(store)

		// only the 2022 formation year resolves
		Expect(store.AddPrice(obs("PART", "2022-07-01", 100))).To(Succeed())
		Expect(store.AddPrice(obs("PART", "2023-06-30", 110))).To(Succeed())

		trailing := builder.TrailingAnnualReturns("PART", 2023, 3)
		Expect(trailing).To(HaveLen(1))
		Expect(trailing[0]).To(BeNumerically("~", 0.10, 1e-12))
	})
})

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
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/finsoeasy/rd-alpha/data"
)

func writeFile(dir, name, contents string) {
	Expect(os.WriteFile(filepath.Join(dir, name), []byte(contents), 0600)).To(Succeed())
}

var _ = Describe("When loading the store from a csv directory", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "rdalpha-csv")
		Expect(err).To(BeNil())

		writeFile(dir, "income_statements.csv",
			"symbol,fiscal_year,revenue,rd_expense,period\n"+
				"RDCO,2022,10000000000,1500000000,FY\n"+
				"RDCO,bad-year,1,1,FY\n")
		writeFile(dir, "company_profiles.csv",
			"symbol,name,sector,industry,market_cap\n"+
				"RDCO,RD Co,Information Technology,Software,600000000000\n")
		writeFile(dir, "prices.csv",
			"symbol,date,adj_close\n"+
				"RDCO,2023-07-03,100\n"+
				"RDCO,2024-06-28,115\n")
	})

	AfterEach(func() {
		Expect(os.RemoveAll(dir)).To(Succeed())
	})

	It("loads the required files and skips unparseable rows", func() {
		store, err := data.LoadStoreFromDir(dir)
		Expect(err).To(BeNil())

		rec, ok := store.Financial("RDCO", 2022)
		Expect(ok).To(BeTrue())
		Expect(rec.RDExpense).To(Equal(1.5e9))

		profile, ok := store.Profile("RDCO")
		Expect(ok).To(BeTrue())
		Expect(profile.Sector).To(Equal(data.SectorTechnology))

		Expect(store.Prices("RDCO")).To(HaveLen(2))
	})

	It("loads the optional files when present", func() {
		writeFile(dir, "delist_events.csv",
			"symbol,date,code\nBUST,2023-11-15,410\n")
		writeFile(dir, "risk_free.csv",
			"year,rate\n2023,0.045\n")

		store, err := data.LoadStoreFromDir(dir)
		Expect(err).To(BeNil())

		ev := store.DelistingBetween("BUST", day("2023-07-01"), day("2024-06-30"))
		Expect(ev).NotTo(BeNil())

		rate, ok := store.RiskFreeRate(2023)
		Expect(ok).To(BeTrue())
		Expect(rate).To(Equal(0.045))
	})

	It("fails when a required file is missing", func() {
		Expect(os.Remove(filepath.Join(dir, "prices.csv"))).To(Succeed())
		_, err := data.LoadStoreFromDir(dir)
		Expect(err).To(MatchError(data.ErrMissingDataFile))
	})
})

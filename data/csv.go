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

package data

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

var ErrMissingDataFile = errors.New("required data file is missing")

// LoadStoreFromDir builds a Store from a directory of CSV files. Required:
// income_statements.csv, company_profiles.csv, prices.csv. Optional:
// delist_events.csv, risk_free.csv. Rows that fail validation are logged
// and skipped.
func LoadStoreFromDir(dir string) (*Store, error) {
	store := NewStore()

	if err := loadFinancialsCSV(store, filepath.Join(dir, "income_statements.csv")); err != nil {
		return nil, err
	}
	if err := loadProfilesCSV(store, filepath.Join(dir, "company_profiles.csv")); err != nil {
		return nil, err
	}
	if err := loadPricesCSV(store, filepath.Join(dir, "prices.csv")); err != nil {
		return nil, err
	}
	if err := loadDelistingsCSV(store, filepath.Join(dir, "delist_events.csv")); err != nil {
		return nil, err
	}
	if err := loadRiskFreeCSV(store, filepath.Join(dir, "risk_free.csv")); err != nil {
		return nil, err
	}

	return store, nil
}

func readCSV(fn string, required bool) ([][]string, error) {
	fh, err := os.Open(fn)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil, nil
		}
		if os.IsNotExist(err) {
			log.Error().Str("FileName", fn).Msg("required data file is missing")
			return nil, ErrMissingDataFile
		}
		return nil, err
	}
	defer fh.Close()

	reader := csv.NewReader(fh)
	rows, err := reader.ReadAll()
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("could not parse csv file")
		return nil, err
	}
	if len(rows) > 0 {
		rows = rows[1:] // header
	}
	return rows, nil
}

func loadFinancialsCSV(store *Store, fn string) error {
	rows, err := readCSV(fn, true)
	if err != nil {
		return err
	}
	// symbol,fiscal_year,revenue,rd_expense,period
	for _, row := range rows {
		if len(row) < 5 {
			log.Warn().Str("FileName", fn).Msg("skipping short income statement row")
			continue
		}
		year, err1 := strconv.Atoi(row[1])
		revenue, err2 := strconv.ParseFloat(row[2], 64)
		rdExpense, err3 := strconv.ParseFloat(row[3], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			log.Warn().Str("Symbol", row[0]).Msg("skipping unparseable income statement row")
			continue
		}
		rec := &FinancialRecord{
			Symbol:     row[0],
			FiscalYear: year,
			Revenue:    revenue,
			RDExpense:  rdExpense,
			Period:     row[4],
		}
		if err := store.AddFinancial(rec); err != nil {
			log.Warn().Err(err).Str("Symbol", rec.Symbol).Int("FiscalYear", rec.FiscalYear).
				Msg("rejecting income statement row")
		}
	}
	return nil
}

func loadProfilesCSV(store *Store, fn string) error {
	rows, err := readCSV(fn, true)
	if err != nil {
		return err
	}
	// symbol,name,sector,industry,market_cap
	for _, row := range rows {
		if len(row) < 5 {
			log.Warn().Str("FileName", fn).Msg("skipping short profile row")
			continue
		}
		marketCap, err := strconv.ParseFloat(row[4], 64)
		if err != nil {
			log.Warn().Str("Symbol", row[0]).Msg("skipping unparseable profile row")
			continue
		}
		profile := &CompanyProfile{
			Symbol:    row[0],
			Name:      row[1],
			Sector:    ParseSector(row[2]),
			Industry:  row[3],
			MarketCap: marketCap,
		}
		if err := store.SetProfile(profile); err != nil {
			log.Warn().Err(err).Str("Symbol", profile.Symbol).Msg("rejecting profile row")
		}
	}
	return nil
}

func loadPricesCSV(store *Store, fn string) error {
	rows, err := readCSV(fn, true)
	if err != nil {
		return err
	}
	// symbol,date,adj_close
	for _, row := range rows {
		if len(row) < 3 {
			log.Warn().Str("FileName", fn).Msg("skipping short price row")
			continue
		}
		date, err1 := time.Parse("2006-01-02", row[1])
		adjClose, err2 := strconv.ParseFloat(row[2], 64)
		if err1 != nil || err2 != nil {
			log.Warn().Str("Symbol", row[0]).Msg("skipping unparseable price row")
			continue
		}
		obs := &PriceObservation{
			Symbol:   row[0],
			Date:     date,
			AdjClose: adjClose,
		}
		if err := store.AddPrice(obs); err != nil {
			log.Warn().Err(err).Str("Symbol", obs.Symbol).Msg("rejecting price row")
		}
	}
	return nil
}

func loadDelistingsCSV(store *Store, fn string) error {
	rows, err := readCSV(fn, false)
	if err != nil {
		return err
	}
	// symbol,date,code
	for _, row := range rows {
		if len(row) < 3 {
			log.Warn().Str("FileName", fn).Msg("skipping short delist row")
			continue
		}
		date, err1 := time.Parse("2006-01-02", row[1])
		code, err2 := strconv.Atoi(row[2])
		if err1 != nil || err2 != nil {
			log.Warn().Str("Symbol", row[0]).Msg("skipping unparseable delist row")
			continue
		}
		ev := &DelistEvent{
			Symbol: row[0],
			Date:   date,
			Code:   code,
		}
		if err := store.AddDelisting(ev); err != nil {
			log.Warn().Err(err).Str("Symbol", ev.Symbol).Msg("rejecting delist row")
		}
	}
	return nil
}

func loadRiskFreeCSV(store *Store, fn string) error {
	rows, err := readCSV(fn, false)
	if err != nil {
		return err
	}
	// year,rate
	for _, row := range rows {
		if len(row) < 2 {
			log.Warn().Str("FileName", fn).Msg("skipping short risk free row")
			continue
		}
		year, err1 := strconv.Atoi(row[0])
		rate, err2 := strconv.ParseFloat(row[1], 64)
		if err1 != nil || err2 != nil {
			log.Warn().Msg("skipping unparseable risk free row")
			continue
		}
		store.SetRiskFreeRate(year, rate)
	}
	return nil
}

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
	"context"

	"github.com/finsoeasy/rd-alpha/data/database"

	"github.com/rs/zerolog/log"
)

// LoadStoreFromDB builds a Store from the research schema: tables
// income_statements, company_profiles, eod_prices, delist_events, and
// risk_free. Rows that fail validation are logged and skipped; the loader
// never guesses at malformed input.
func LoadStoreFromDB(ctx context.Context) (*Store, error) {
	store := NewStore()
	conn := database.Get()

	rows, err := conn.Query(ctx, "SELECT symbol, fiscal_year, revenue, rd_expense, period FROM income_statements")
	if err != nil {
		log.Error().Err(err).Msg("could not query income statements")
		return nil, err
	}
	for rows.Next() {
		rec := &FinancialRecord{}
		if err := rows.Scan(&rec.Symbol, &rec.FiscalYear, &rec.Revenue, &rec.RDExpense, &rec.Period); err != nil {
			log.Error().Err(err).Msg("could not scan income statement row")
			return nil, err
		}
		if err := store.AddFinancial(rec); err != nil {
			log.Warn().Err(err).Str("Symbol", rec.Symbol).Int("FiscalYear", rec.FiscalYear).
				Msg("rejecting income statement row")
		}
	}

	rows, err = conn.Query(ctx, "SELECT symbol, name, sector, industry, market_cap FROM company_profiles")
	if err != nil {
		log.Error().Err(err).Msg("could not query company profiles")
		return nil, err
	}
	for rows.Next() {
		var sector string
		profile := &CompanyProfile{}
		if err := rows.Scan(&profile.Symbol, &profile.Name, &sector, &profile.Industry, &profile.MarketCap); err != nil {
			log.Error().Err(err).Msg("could not scan company profile row")
			return nil, err
		}
		profile.Sector = ParseSector(sector)
		if err := store.SetProfile(profile); err != nil {
			log.Warn().Err(err).Str("Symbol", profile.Symbol).Msg("rejecting company profile row")
		}
	}

	rows, err = conn.Query(ctx, "SELECT symbol, event_date, adj_close FROM eod_prices ORDER BY symbol, event_date")
	if err != nil {
		log.Error().Err(err).Msg("could not query prices")
		return nil, err
	}
	for rows.Next() {
		obs := &PriceObservation{}
		if err := rows.Scan(&obs.Symbol, &obs.Date, &obs.AdjClose); err != nil {
			log.Error().Err(err).Msg("could not scan price row")
			return nil, err
		}
		if err := store.AddPrice(obs); err != nil {
			log.Warn().Err(err).Str("Symbol", obs.Symbol).Msg("rejecting price row")
		}
	}

	rows, err = conn.Query(ctx, "SELECT symbol, event_date, delist_code FROM delist_events")
	if err != nil {
		log.Error().Err(err).Msg("could not query delist events")
		return nil, err
	}
	for rows.Next() {
		ev := &DelistEvent{}
		if err := rows.Scan(&ev.Symbol, &ev.Date, &ev.Code); err != nil {
			log.Error().Err(err).Msg("could not scan delist event row")
			return nil, err
		}
		if err := store.AddDelisting(ev); err != nil {
			log.Warn().Err(err).Str("Symbol", ev.Symbol).Msg("rejecting delist event row")
		}
	}

	rows, err = conn.Query(ctx, "SELECT year, rate FROM risk_free")
	if err != nil {
		log.Error().Err(err).Msg("could not query risk free rates")
		return nil, err
	}
	for rows.Next() {
		var year int
		var rate float64
		if err := rows.Scan(&year, &rate); err != nil {
			log.Error().Err(err).Msg("could not scan risk free row")
			return nil, err
		}
		store.SetRiskFreeRate(year, rate)
	}

	return store, nil
}

// SaveFinancials upserts income statement rows; used by the fetch command.
func SaveFinancials(ctx context.Context, records []*FinancialRecord) error {
	conn := database.Get()
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			log.Warn().Err(err).Str("Symbol", rec.Symbol).Msg("skipping invalid financial record")
			continue
		}
		_, err := conn.Exec(ctx,
			`INSERT INTO income_statements (symbol, fiscal_year, revenue, rd_expense, period)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (symbol, fiscal_year) DO NOTHING`,
			rec.Symbol, rec.FiscalYear, rec.Revenue, rec.RDExpense, rec.Period)
		if err != nil {
			return err
		}
	}
	return nil
}

// SaveProfile upserts a company profile.
func SaveProfile(ctx context.Context, profile *CompanyProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	_, err := database.Get().Exec(ctx,
		`INSERT INTO company_profiles (symbol, name, sector, industry, market_cap)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (symbol) DO UPDATE SET sector=$3, industry=$4, market_cap=$5`,
		profile.Symbol, profile.Name, string(profile.Sector), profile.Industry, profile.MarketCap)
	return err
}

// SavePrices inserts price observations; used by the fetch command.
func SavePrices(ctx context.Context, observations []*PriceObservation) error {
	conn := database.Get()
	for _, obs := range observations {
		if err := obs.Validate(); err != nil {
			log.Warn().Err(err).Str("Symbol", obs.Symbol).Time("Date", obs.Date).
				Msg("skipping invalid price observation")
			continue
		}
		_, err := conn.Exec(ctx,
			`INSERT INTO eod_prices (symbol, event_date, adj_close)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (symbol, event_date) DO NOTHING`,
			obs.Symbol, obs.Date.Format("2006-01-02"), obs.AdjClose)
		if err != nil {
			return err
		}
	}
	return nil
}

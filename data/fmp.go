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
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/finsoeasy/rd-alpha/common"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const fmpBaseURL = "https://financialmodelingprep.com/api/v3"

var (
	ErrProviderStatus = errors.New("provider returned a non-200 status")
	ErrMissingAPIKey  = errors.New("fmp.api_key is not set")
)

// FMPClient fetches fundamentals, profiles and end-of-day prices from
// Financial Modeling Prep. Responses are cached and requests are spaced
// out to stay under the provider rate limit.
type FMPClient struct {
	apiKey   string
	baseURL  string
	client   *http.Client
	cache    *common.Cache
	throttle *time.Ticker
}

// NewFMPClient builds a client from viper settings (fmp.api_key, optional
// fmp.base_url for tests).
func NewFMPClient() (*FMPClient, error) {
	apiKey := viper.GetString("fmp.api_key")
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	baseURL := viper.GetString("fmp.base_url")
	if baseURL == "" {
		baseURL = fmpBaseURL
	}

	cache, err := common.NewCache()
	if err != nil {
		return nil, err
	}

	return &FMPClient{
		apiKey:   apiKey,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 30 * time.Second},
		cache:    cache,
		throttle: time.NewTicker(200 * time.Millisecond),
	}, nil
}

// Close stops the rate-limit ticker.
func (f *FMPClient) Close() {
	f.throttle.Stop()
}

func (f *FMPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	cacheKey := "fmp:" + path + "?" + params.Encode()
	if body, err := f.cache.Get(ctx, cacheKey); err == nil {
		return body, nil
	}

	params.Set("apikey", f.apiKey)
	reqURL := fmt.Sprintf("%s%s?%s", f.baseURL, path, params.Encode())

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-f.throttle.C:
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		log.Error().Err(err).Str("Path", path).Msg("provider request failed")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Error().Int("StatusCode", resp.StatusCode).Str("Path", path).
			Msg("provider returned an error status")
		return nil, ErrProviderStatus
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if err := f.cache.Set(ctx, cacheKey, body); err != nil {
		log.Warn().Err(err).Str("Path", path).Msg("could not cache provider response")
	}
	return body, nil
}

type fmpIncomeStatement struct {
	Symbol                    string  `json:"symbol"`
	CalendarYear              string  `json:"calendarYear"`
	Period                    string  `json:"period"`
	Revenue                   float64 `json:"revenue"`
	ResearchAndDevelopmentExp float64 `json:"researchAndDevelopmentExpenses"`
}

// IncomeStatements returns annual income statement rows for symbol, most
// recent first, limited to the requested number of fiscal years.
func (f *FMPClient) IncomeStatements(ctx context.Context, symbol string, limit int) ([]*FinancialRecord, error) {
	params := url.Values{}
	params.Set("period", "annual")
	params.Set("limit", fmt.Sprintf("%d", limit))

	body, err := f.get(ctx, "/income-statement/"+symbol, params)
	if err != nil {
		return nil, err
	}

	var raw []fmpIncomeStatement
	if err := json.Unmarshal(body, &raw); err != nil {
		log.Error().Err(err).Str("Symbol", symbol).Msg("could not decode income statements")
		return nil, err
	}

	records := make([]*FinancialRecord, 0, len(raw))
	for _, stmt := range raw {
		var year int
		if _, err := fmt.Sscanf(stmt.CalendarYear, "%d", &year); err != nil {
			log.Warn().Str("Symbol", symbol).Str("CalendarYear", stmt.CalendarYear).
				Msg("skipping income statement with unparseable year")
			continue
		}
		records = append(records, &FinancialRecord{
			Symbol:     stmt.Symbol,
			FiscalYear: year,
			Revenue:    stmt.Revenue,
			RDExpense:  stmt.ResearchAndDevelopmentExp,
			Period:     stmt.Period,
		})
	}
	return records, nil
}

type fmpProfile struct {
	Symbol      string  `json:"symbol"`
	CompanyName string  `json:"companyName"`
	Sector      string  `json:"sector"`
	Industry    string  `json:"industry"`
	MktCap      float64 `json:"mktCap"`
}

// Profile returns the company profile for symbol.
func (f *FMPClient) Profile(ctx context.Context, symbol string) (*CompanyProfile, error) {
	body, err := f.get(ctx, "/profile/"+symbol, nil)
	if err != nil {
		return nil, err
	}

	var raw []fmpProfile
	if err := json.Unmarshal(body, &raw); err != nil {
		log.Error().Err(err).Str("Symbol", symbol).Msg("could not decode profile")
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrUnknownSymbol
	}

	return &CompanyProfile{
		Symbol:    raw[0].Symbol,
		Name:      raw[0].CompanyName,
		Sector:    ParseSector(raw[0].Sector),
		Industry:  raw[0].Industry,
		MarketCap: raw[0].MktCap,
	}, nil
}

type fmpHistorical struct {
	Symbol     string `json:"symbol"`
	Historical []struct {
		Date     string  `json:"date"`
		AdjClose float64 `json:"adjClose"`
	} `json:"historical"`
}

// HistoricalPrices returns adjusted daily closes for symbol between the
// given dates, in ascending date order.
func (f *FMPClient) HistoricalPrices(ctx context.Context, symbol string, from, to time.Time) ([]*PriceObservation, error) {
	params := url.Values{}
	params.Set("from", from.Format("2006-01-02"))
	params.Set("to", to.Format("2006-01-02"))

	body, err := f.get(ctx, "/historical-price-full/"+symbol, params)
	if err != nil {
		return nil, err
	}

	var raw fmpHistorical
	if err := json.Unmarshal(body, &raw); err != nil {
		log.Error().Err(err).Str("Symbol", symbol).Msg("could not decode historical prices")
		return nil, err
	}

	observations := make([]*PriceObservation, 0, len(raw.Historical))
	for _, bar := range raw.Historical {
		date, err := time.Parse("2006-01-02", bar.Date)
		if err != nil {
			log.Warn().Str("Symbol", symbol).Str("Date", bar.Date).
				Msg("skipping price bar with unparseable date")
			continue
		}
		observations = append(observations, &PriceObservation{
			Symbol:   symbol,
			Date:     date,
			AdjClose: bar.AdjClose,
		})
	}

	// FMP returns most-recent-first; the store sorts ascending.
	for i, j := 0, len(observations)-1; i < j; i, j = i+1, j-1 {
		observations[i], observations[j] = observations[j], observations[i]
	}
	return observations, nil
}

type fmpConstituent struct {
	Symbol string `json:"symbol"`
}

// Constituents returns the current S&P 500 member symbols; used to seed a
// fetch universe when no explicit symbol list is given.
func (f *FMPClient) Constituents(ctx context.Context) ([]string, error) {
	body, err := f.get(ctx, "/sp500_constituent", nil)
	if err != nil {
		return nil, err
	}

	var raw []fmpConstituent
	if err := json.Unmarshal(body, &raw); err != nil {
		log.Error().Err(err).Msg("could not decode constituents")
		return nil, err
	}

	symbols := make([]string, 0, len(raw))
	for _, c := range raw {
		symbols = append(symbols, c.Symbol)
	}
	return symbols, nil
}

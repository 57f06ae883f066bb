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

package handler

import (
	"github.com/finsoeasy/rd-alpha/backtest"
	"github.com/finsoeasy/rd-alpha/data"
	"github.com/finsoeasy/rd-alpha/scoring"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// BacktestRequest is the POST body for /v1/backtest.
type BacktestRequest struct {
	StartYear          int     `json:"startYear"`
	EndYear            int     `json:"endYear"`
	NHoldings          int     `json:"nHoldings"`
	MaxPerSector       int     `json:"maxPerSector"`
	TransactionCostBps float64 `json:"transactionCostBps"`
}

// RunBacktest executes a backtest over the loaded dataset and returns the
// full result, one entry per formation year plus summary statistics.
func RunBacktest(c *fiber.Ctx) error {
	store := getStore()
	if store == nil {
		return fiber.ErrServiceUnavailable
	}

	var req BacktestRequest
	if err := c.BodyParser(&req); err != nil {
		log.Warn().Err(err).Msg("could not parse backtest request body")
		return fiber.ErrBadRequest
	}

	cfg := backtest.DefaultConfig(req.StartYear, req.EndYear)
	if req.NHoldings > 0 {
		cfg.NHoldings = req.NHoldings
	}
	if req.MaxPerSector > 0 {
		cfg.MaxPerSector = req.MaxPerSector
	}
	if req.TransactionCostBps > 0 {
		cfg.TransactionCostBps = req.TransactionCostBps
	}
	cfg.RiskFree = store.RiskFreeRates()

	exclusions := data.NewExclusionLog()
	returns := data.NewReturnBuilder(store)

	scorer, err := scoring.New(scoring.DefaultConfig(), store, returns, exclusions)
	if err != nil {
		log.Error().Err(err).Msg("could not build scorer")
		return fiber.ErrInternalServerError
	}

	bt, err := backtest.New(cfg, data.NewStoreUniverse(store, exclusions), scorer, returns, exclusions)
	if err != nil {
		log.Warn().Err(err).Int("StartYear", req.StartYear).Int("EndYear", req.EndYear).
			Msg("invalid backtest configuration")
		return fiber.ErrBadRequest
	}

	result, err := bt.Run(c.UserContext())
	if err != nil {
		log.Error().Err(err).Msg("backtest run failed")
		return fiber.ErrInternalServerError
	}

	return c.JSON(result)
}

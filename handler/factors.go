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
	"strconv"

	"github.com/finsoeasy/rd-alpha/data"
	"github.com/finsoeasy/rd-alpha/factors"
	"github.com/finsoeasy/rd-alpha/scoring"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// FactorReport runs quintile and spread analysis over the loaded dataset.
// Query parameters: startYear, endYear (required); lags (optional).
func FactorReport(c *fiber.Ctx) error {
	store := getStore()
	if store == nil {
		return fiber.ErrServiceUnavailable
	}

	startYear, err1 := strconv.Atoi(c.Query("startYear"))
	endYear, err2 := strconv.Atoi(c.Query("endYear"))
	if err1 != nil || err2 != nil {
		log.Warn().Str("StartYear", c.Query("startYear")).Str("EndYear", c.Query("endYear")).
			Msg("factor report called with invalid year range")
		return fiber.ErrBadRequest
	}

	cfg := factors.DefaultConfig()
	if lagsStr := c.Query("lags"); lagsStr != "" {
		lags, err := strconv.Atoi(lagsStr)
		if err != nil {
			log.Warn().Str("Lags", lagsStr).Msg("factor report called with invalid lags")
			return fiber.ErrBadRequest
		}
		cfg.Lags = lags
	}
	cfg.RiskFree = store.RiskFreeRates()

	exclusions := data.NewExclusionLog()
	returns := data.NewReturnBuilder(store)

	universe := data.NewStoreUniverse(store, exclusions)
	scores, approximate, err := scoring.ScoreYears(c.UserContext(), scoring.DefaultConfig(), store, universe, returns, exclusions, startYear, endYear)
	if err != nil {
		log.Error().Err(err).Msg("could not score universe for factor report")
		return fiber.ErrInternalServerError
	}

	analyzer, err := factors.New(cfg, scores, returns.Return)
	if err != nil {
		log.Warn().Err(err).Msg("invalid analyzer configuration")
		return fiber.ErrBadRequest
	}

	report, err := analyzer.Analyze(c.UserContext(), startYear, endYear)
	if err != nil {
		log.Error().Err(err).Msg("factor analysis failed")
		return fiber.ErrInternalServerError
	}
	report.ApproximateUniverse = approximate

	return c.JSON(report)
}

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
	"github.com/finsoeasy/rd-alpha/scoring"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// GetScores returns the ranked composite scores for one formation year,
// with the full component breakdown per symbol.
func GetScores(c *fiber.Ctx) error {
	store := getStore()
	if store == nil {
		return fiber.ErrServiceUnavailable
	}

	year, err := strconv.Atoi(c.Params("year"))
	if err != nil {
		log.Warn().Str("Year", c.Params("year")).Msg("scores called with invalid year")
		return fiber.ErrBadRequest
	}

	exclusions := data.NewExclusionLog()
	returns := data.NewReturnBuilder(store)

	universe := data.NewStoreUniverse(store, exclusions)
	scores, approximate, err := scoring.ScoreYears(c.UserContext(), scoring.DefaultConfig(), store, universe, returns, exclusions, year, year)
	if err != nil {
		log.Error().Err(err).Int("Year", year).Msg("could not score universe")
		return fiber.ErrInternalServerError
	}

	return c.JSON(fiber.Map{
		"formationYear":       year,
		"scores":              scores[year],
		"exclusions":          exclusions.Entries(),
		"approximateUniverse": approximate,
	})
}

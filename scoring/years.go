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

package scoring

import (
	"context"

	"github.com/finsoeasy/rd-alpha/data"
)

// ScoreYears scores every formation year in [startYear, endYear] against
// that year's universe snapshot. The boolean reports whether any snapshot
// had approximate membership; callers carry it into output metadata so a
// survivorship-biased result is never presented as point-in-time.
func ScoreYears(ctx context.Context, cfg Config, store *data.Store, universe data.Universe, returns *data.ReturnBuilder, exclusions *data.ExclusionLog, startYear, endYear int) (map[int][]*Score, bool, error) {
	scorer, err := New(cfg, store, returns, exclusions)
	if err != nil {
		return nil, false, err
	}

	scores := make(map[int][]*Score, endYear-startYear+1)
	var approximate bool

	for year := startYear; year <= endYear; year++ {
		formationDate, _ := returns.HoldingPeriod(year)
		snap, err := universe.Snapshot(ctx, formationDate)
		if err != nil {
			return nil, false, err
		}
		if snap.Approximate {
			approximate = true
		}

		yearScores, err := scorer.ScoreUniverse(ctx, year, snap)
		if err != nil {
			return nil, false, err
		}
		scores[year] = yearScores
	}
	return scores, approximate, nil
}

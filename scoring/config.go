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
	"errors"
	"fmt"

	"github.com/finsoeasy/rd-alpha/data"
)

var ErrInvalidConfig = errors.New("invalid scoring configuration")

// Config is the immutable parameterization of the scoring engine. Multiple
// scorers with different cap tables can run in one process without
// interfering; nothing here is global.
type Config struct {
	// SectorCaps maps sector to the maximum R&D intensity (as a decimal
	// ratio, e.g. 2.0 = 200%) credited before scaling to percent. Sectors
	// not listed use DefaultCap.
	SectorCaps map[data.Sector]float64
	DefaultCap float64

	// Volatility handling: trailing standard deviation of annual returns,
	// floored to avoid division blow-up; DefaultVolatility substitutes when
	// history is too thin to estimate.
	VolatilityFloor   float64
	DefaultVolatility float64

	// Momentum factor: 1 + MomentumSlope x prior 3yr excess return,
	// clamped to [MomentumMin, MomentumMax].
	MomentumSlope float64
	MomentumMin   float64
	MomentumMax   float64

	// HistoryYears is the trailing window for momentum and volatility and
	// the history requirement in the quality score.
	HistoryYears int
}

// DefaultConfig mirrors the published methodology: 200% caps for the
// healthcare complex, 100% elsewhere.
func DefaultConfig() Config {
	return Config{
		SectorCaps: map[data.Sector]float64{
			data.SectorHealthcare:      2.00,
			data.SectorBiotechnology:   2.00,
			data.SectorPharmaceuticals: 2.00,
		},
		DefaultCap:        1.00,
		VolatilityFloor:   0.10,
		DefaultVolatility: 0.25,
		MomentumSlope:     0.1,
		MomentumMin:       0.5,
		MomentumMax:       2.0,
		HistoryYears:      3,
	}
}

// Validate fails fast on a bad parameterization, before any formation-year
// processing begins.
func (c Config) Validate() error {
	if c.DefaultCap <= 0 {
		return fmt.Errorf("%w: default cap must be positive", ErrInvalidConfig)
	}
	for sector, cap := range c.SectorCaps {
		if cap <= 0 {
			return fmt.Errorf("%w: cap for sector %s must be positive", ErrInvalidConfig, sector)
		}
	}
	if c.VolatilityFloor <= 0 {
		return fmt.Errorf("%w: volatility floor must be positive", ErrInvalidConfig)
	}
	if c.DefaultVolatility < c.VolatilityFloor {
		return fmt.Errorf("%w: default volatility below floor", ErrInvalidConfig)
	}
	if c.MomentumMin <= 0 || c.MomentumMax < c.MomentumMin {
		return fmt.Errorf("%w: momentum bounds are inverted", ErrInvalidConfig)
	}
	if c.HistoryYears < 1 {
		return fmt.Errorf("%w: history years must be at least 1", ErrInvalidConfig)
	}
	return nil
}

// Cap returns the R&D intensity cap for a sector.
func (c Config) Cap(sector data.Sector) float64 {
	if cap, ok := c.SectorCaps[sector]; ok {
		return cap
	}
	return c.DefaultCap
}

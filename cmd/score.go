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

package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/finsoeasy/rd-alpha/common"
	"github.com/finsoeasy/rd-alpha/data"
	"github.com/finsoeasy/rd-alpha/scoring"

	json "github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	scoreJSON bool
	scoreTop  int
)

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "print scores as JSON")
	scoreCmd.Flags().IntVar(&scoreTop, "top", 0, "only print the top N symbols")
}

var scoreCmd = &cobra.Command{
	Use:        "score [flags] FormationYear",
	Short:      "Rank the universe by composite R&D intensity score",
	Args:       cobra.ExactArgs(1),
	ArgAliases: []string{"FormationYear"},
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()
		ctx := context.Background()

		year, err := strconv.Atoi(args[0])
		if err != nil {
			log.Fatal().Str("FormationYear", args[0]).Msg("formation year must be an integer")
		}

		store, err := loadStore(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not load dataset")
		}

		exclusions := data.NewExclusionLog()
		returns := data.NewReturnBuilder(store)

		universe := data.NewStoreUniverse(store, exclusions)
		scores, approximate, err := scoring.ScoreYears(ctx, scoring.DefaultConfig(), store, universe, returns, exclusions, year, year)
		if err != nil {
			log.Fatal().Err(err).Int("FormationYear", year).Msg("could not score universe")
		}

		ranked := scores[year]
		if scoreTop > 0 && scoreTop < len(ranked) {
			ranked = ranked[:scoreTop]
		}

		if scoreJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(ranked); err != nil {
				log.Fatal().Err(err).Msg("could not encode scores")
			}
			return
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"#", "Symbol", "Sector", "R&D %", "Capped %", "Sector Adj", "Momentum", "Quality", "Volatility", "Composite"})
		for i, s := range ranked {
			t.AppendRow(table.Row{
				i + 1, s.Symbol, s.Sector,
				fmt.Sprintf("%.2f", s.RDIntensity),
				fmt.Sprintf("%.2f", s.RDIntensityCapped),
				fmt.Sprintf("%.3f", s.SectorAdjustment),
				fmt.Sprintf("%.3f", s.Momentum),
				fmt.Sprintf("%.2f", s.Quality),
				fmt.Sprintf("%.3f", s.Volatility),
				fmt.Sprintf("%.3f", s.Composite),
			})
		}
		t.Render()

		if n := exclusions.Len(); n > 0 {
			fmt.Printf("\n%d symbols excluded from formation year %d\n", n, year)
		}

		if approximate {
			fmt.Println("\nNote: universe membership approximated from current constituents; results are subject to survivorship bias")
		}
	},
}

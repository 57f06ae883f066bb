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
	"sort"
	"strconv"

	"github.com/finsoeasy/rd-alpha/common"
	"github.com/finsoeasy/rd-alpha/data"
	"github.com/finsoeasy/rd-alpha/factors"
	"github.com/finsoeasy/rd-alpha/scoring"

	json "github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	analyzeJSON bool
	analyzeLags int
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print full report as JSON")
	analyzeCmd.Flags().IntVar(&analyzeLags, "lags", 3, "Newey-West lag count (0 = plain t-statistic)")
}

var analyzeCmd = &cobra.Command{
	Use:        "analyze [flags] StartYear EndYear",
	Short:      "Run quintile and long/short spread analysis of the R&D intensity factor",
	Args:       cobra.ExactArgs(2),
	ArgAliases: []string{"StartYear", "EndYear"},
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()
		ctx := context.Background()

		startYear, err1 := strconv.Atoi(args[0])
		endYear, err2 := strconv.Atoi(args[1])
		if err1 != nil || err2 != nil {
			log.Fatal().Str("StartYear", args[0]).Str("EndYear", args[1]).
				Msg("start and end year must be integers")
		}

		store, err := loadStore(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not load dataset")
		}

		exclusions := data.NewExclusionLog()
		returns := data.NewReturnBuilder(store)

		universe := data.NewStoreUniverse(store, exclusions)
		scores, approximate, err := scoring.ScoreYears(ctx, scoring.DefaultConfig(), store, universe, returns, exclusions, startYear, endYear)
		if err != nil {
			log.Fatal().Err(err).Msg("could not score universe")
		}

		cfg := factors.DefaultConfig()
		cfg.Lags = analyzeLags
		cfg.RiskFree = store.RiskFreeRates()

		analyzer, err := factors.New(cfg, scores, returns.Return)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid analyzer configuration")
		}

		report, err := analyzer.Analyze(ctx, startYear, endYear)
		if err != nil {
			log.Fatal().Err(err).Msg("factor analysis failed")
		}
		report.ApproximateUniverse = approximate

		if analyzeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				log.Fatal().Err(err).Msg("could not encode report")
			}
			return
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Quintile", "Mean Return", "Std Dev", "Sharpe", "Years"})
		for _, q := range report.Quintiles {
			t.AppendRow(table.Row{
				fmt.Sprintf("Q%d", q.Quintile),
				fmt.Sprintf("%.2f%%", q.MeanReturn*100),
				fmt.Sprintf("%.2f%%", q.StdDev*100),
				fmt.Sprintf("%.2f", q.SharpeRatio),
				q.Years,
			})
		}
		t.Render()

		fmt.Println()
		if report.Spread.InsufficientData {
			fmt.Printf("Q5-Q1 spread: insufficient data (%d years)\n", report.Spread.Years)
		} else {
			fmt.Printf("Q5-Q1 spread: %.2f%% (t=%.2f, p=%.4f, lags=%d) %s\n",
				report.Spread.Mean*100, report.Spread.TStat, report.Spread.PValue,
				report.Spread.Lags, report.Spread.Significance)
		}

		if fm := report.FamaMacBeth; fm != nil && !fm.InsufficientData {
			fmt.Printf("Fama-MacBeth slope: %.4f (t=%.2f, p=%.4f, %d periods) %s\n",
				fm.MeanCoefficient, fm.TStat, fm.PValue, fm.Periods, fm.Significance)
		}

		years := make([]int, 0, len(report.SpreadSeries))
		for year := range report.SpreadSeries {
			years = append(years, year)
		}
		sort.Ints(years)
		fmt.Println("\nAnnual Q5-Q1 spreads:")
		for _, year := range years {
			fmt.Printf("  %d: %7.2f%%\n", year, report.SpreadSeries[year]*100)
		}

		if report.ApproximateUniverse {
			fmt.Println("\nNote: universe membership approximated from current constituents; results are subject to survivorship bias")
		}
	},
}

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

	"github.com/finsoeasy/rd-alpha/backtest"
	"github.com/finsoeasy/rd-alpha/common"
	"github.com/finsoeasy/rd-alpha/data"
	"github.com/finsoeasy/rd-alpha/scoring"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	backtestJSON      bool
	backtestHoldings  int
	backtestMaxSector int
	backtestCostBps   float64
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().BoolVar(&backtestJSON, "json", false, "print full result as JSON")
	backtestCmd.Flags().IntVarP(&backtestHoldings, "holdings", "n", 20, "number of portfolio holdings")
	backtestCmd.Flags().IntVar(&backtestMaxSector, "max-per-sector", 0, "max holdings per sector (0 = holdings/4)")
	backtestCmd.Flags().Float64Var(&backtestCostBps, "cost-bps", 10, "round-trip transaction cost in basis points")
}

var backtestCmd = &cobra.Command{
	Use:        "backtest [flags] StartYear EndYear",
	Short:      "Backtest the R&D intensity portfolio over a range of formation years",
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

		cfg := backtest.DefaultConfig(startYear, endYear)
		cfg.NHoldings = backtestHoldings
		cfg.MaxPerSector = backtestMaxSector
		cfg.TransactionCostBps = backtestCostBps
		cfg.RiskFree = store.RiskFreeRates()

		exclusions := data.NewExclusionLog()
		returns := data.NewReturnBuilder(store)

		scorer, err := scoring.New(scoring.DefaultConfig(), store, returns, exclusions)
		if err != nil {
			log.Fatal().Err(err).Msg("could not build scorer")
		}

		bt, err := backtest.New(cfg, data.NewStoreUniverse(store, exclusions), scorer, returns, exclusions)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid backtest configuration")
		}

		result, err := bt.Run(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("backtest run failed")
		}

		if backtestJSON {
			if err := result.WriteJSON(os.Stdout); err != nil {
				log.Fatal().Err(err).Msg("could not write result")
			}
			return
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Year", "Gross", "Net", "Benchmark", "Turnover", "Cost", "Scored", "Held"})
		for _, yr := range result.Years {
			t.AppendRow(table.Row{
				yr.Year,
				fmt.Sprintf("%.2f%%", yr.GrossReturn*100),
				fmt.Sprintf("%.2f%%", yr.NetReturn*100),
				fmt.Sprintf("%.2f%%", yr.BenchmarkReturn*100),
				fmt.Sprintf("%.2f", yr.Turnover),
				fmt.Sprintf("%.2f%%", yr.Cost*100),
				yr.NScored,
				yr.NHeld,
			})
		}
		t.Render()

		fmt.Printf("\nTotal Return:      %.2f%%\n", result.TotalReturn*100)
		fmt.Printf("Annualized Return: %.2f%%\n", result.AnnualizedReturn*100)
		fmt.Printf("Volatility:        %.2f%%\n", result.Volatility*100)
		fmt.Printf("Sharpe Ratio:      %.2f\n", result.SharpeRatio)
		fmt.Printf("Max Drawdown:      %.2f%%\n", result.MaxDrawdown*100)
		fmt.Printf("Benchmark Mean:    %.2f%%\n", result.BenchmarkMeanReturn*100)

		if result.ApproximateUniverse {
			fmt.Println("\nNote: universe membership approximated from current constituents; results are subject to survivorship bias")
		}
	},
}

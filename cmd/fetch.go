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
	"time"

	"github.com/finsoeasy/rd-alpha/common"
	"github.com/finsoeasy/rd-alpha/data"
	"github.com/finsoeasy/rd-alpha/data/database"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	fetchYears    int
	fetchFrom     string
	fetchTo       string
	fetchSchedule bool
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().IntVar(&fetchYears, "years", 15, "number of fiscal years of income statements to fetch")
	fetchCmd.Flags().StringVar(&fetchFrom, "from", "2000-01-01", "start date for price history")
	fetchCmd.Flags().StringVar(&fetchTo, "to", "", "end date for price history (default today)")
	fetchCmd.Flags().BoolVar(&fetchSchedule, "schedule", false, "keep running and refresh the dataset daily")
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [flags] [Symbol...]",
	Short: "Download fundamentals, profiles and prices into the database",
	Long: `Download annual income statements, company profiles and adjusted daily
closes from Financial Modeling Prep and store them in the database. With
no symbols, the current S&P 500 constituent list is used.`,
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()
		ctx := context.Background()

		if err := database.Connect(ctx); err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}

		from, err := time.Parse("2006-01-02", fetchFrom)
		if err != nil {
			log.Fatal().Str("From", fetchFrom).Msg("could not parse from date")
		}
		to := time.Now().UTC().Truncate(24 * time.Hour)
		if fetchTo != "" {
			if to, err = time.Parse("2006-01-02", fetchTo); err != nil {
				log.Fatal().Str("To", fetchTo).Msg("could not parse to date")
			}
		}

		client, err := data.NewFMPClient()
		if err != nil {
			log.Fatal().Err(err).Msg("could not build provider client")
		}
		defer client.Close()

		job := func() {
			fetchAll(ctx, client, args, from, to)
		}
		job()

		if fetchSchedule {
			tz, _ := time.LoadLocation("America/New_York")
			scheduler := gocron.NewScheduler(tz)
			if _, err := scheduler.Every(1).Day().At("22:00").Do(job); err != nil {
				log.Fatal().Err(err).Msg("could not schedule fetch job")
			}
			log.Info().Msg("scheduled daily dataset refresh")
			scheduler.StartBlocking()
		}
	},
}

func fetchAll(ctx context.Context, client *data.FMPClient, symbols []string, from, to time.Time) {
	if len(symbols) == 0 {
		var err error
		symbols, err = client.Constituents(ctx)
		if err != nil {
			log.Error().Err(err).Msg("could not fetch constituent list")
			return
		}
		log.Info().Int("NumSymbols", len(symbols)).Msg("fetched constituent list")
	}

	for _, symbol := range symbols {
		profile, err := client.Profile(ctx, symbol)
		if err != nil {
			log.Warn().Err(err).Str("Symbol", symbol).Msg("could not fetch profile")
			continue
		}
		if err := data.SaveProfile(ctx, profile); err != nil {
			log.Error().Err(err).Str("Symbol", symbol).Msg("could not save profile")
			continue
		}

		financials, err := client.IncomeStatements(ctx, symbol, fetchYears)
		if err != nil {
			log.Warn().Err(err).Str("Symbol", symbol).Msg("could not fetch income statements")
			continue
		}
		if err := data.SaveFinancials(ctx, financials); err != nil {
			log.Error().Err(err).Str("Symbol", symbol).Msg("could not save income statements")
			continue
		}

		prices, err := client.HistoricalPrices(ctx, symbol, from, to)
		if err != nil {
			log.Warn().Err(err).Str("Symbol", symbol).Msg("could not fetch prices")
			continue
		}
		if err := data.SavePrices(ctx, prices); err != nil {
			log.Error().Err(err).Str("Symbol", symbol).Msg("could not save prices")
			continue
		}

		log.Info().Str("Symbol", symbol).Int("NumFinancials", len(financials)).
			Int("NumPrices", len(prices)).Msg("fetched symbol")
	}
}

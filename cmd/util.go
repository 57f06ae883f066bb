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

	"github.com/finsoeasy/rd-alpha/data"
	"github.com/finsoeasy/rd-alpha/data/database"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// loadStore loads the research dataset: from a CSV directory when
// data.dir is set, otherwise from the database.
func loadStore(ctx context.Context) (*data.Store, error) {
	if dir := viper.GetString("data.dir"); dir != "" {
		log.Info().Str("DataDir", dir).Msg("loading dataset from csv directory")
		return data.LoadStoreFromDir(dir)
	}

	if err := database.Connect(ctx); err != nil {
		return nil, err
	}
	log.Info().Msg("loading dataset from database")
	return data.LoadStoreFromDB(ctx)
}

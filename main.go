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

package main

import (
	"errors"

	"github.com/finsoeasy/rd-alpha/cmd"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func configureViper() {
	viper.SetConfigName("config")
	viper.SetConfigType("toml")
	viper.AddConfigPath("/etc/rd-alpha/")
	viper.AddConfigPath("$HOME/.config/rd-alpha")
	viper.AddConfigPath(".")

	var notFound viper.ConfigFileNotFoundError
	if err := viper.ReadInConfig(); err != nil {
		// a config file is optional; all settings have flag or env equivalents
		if !errors.As(err, &notFound) {
			log.Panic().Err(err).Msg("fatal error reading config file")
		}
	}
}

func main() {
	configureViper()
	cmd.Execute()
}

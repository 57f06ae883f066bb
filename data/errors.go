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

package data

import "errors"

var (
	ErrInvalidSymbol     = errors.New("symbol may not be empty")
	ErrInvalidFiscalYear = errors.New("fiscal year outside supported range")
	ErrInvalidRevenue    = errors.New("revenue may not be negative")
	ErrInvalidRDExpense  = errors.New("rd expense may not be negative")
	ErrInvalidPeriod     = errors.New("only FY period records are supported")
	ErrInvalidMarketCap  = errors.New("market cap may not be negative")
	ErrInvalidDate       = errors.New("date may not be zero")
	ErrInvalidPrice      = errors.New("adjusted close must be positive")
	ErrInvalidDelistCode = errors.New("delist code outside supported range")

	ErrDuplicateRecord  = errors.New("record already exists for symbol and fiscal year")
	ErrUnknownSymbol    = errors.New("symbol not present in store")
	ErrNoPriceHistory   = errors.New("no price history for symbol")
	ErrPriceUnavailable = errors.New("no price within the lookup window")
	ErrEmptyUniverse    = errors.New("universe snapshot contains no symbols")
)

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

import (
	"strings"
	"sync"
	"time"
)

// Sector is the GICS-style classification used for R&D intensity caps and
// the diversification adjustment. It is a closed enumeration; anything the
// upstream provider reports outside of it maps to SectorOther.
type Sector string

const (
	SectorTechnology      Sector = "Technology"
	SectorHealthcare      Sector = "Healthcare"
	SectorBiotechnology   Sector = "Biotechnology"
	SectorPharmaceuticals Sector = "Pharmaceuticals"
	SectorFinancials      Sector = "Financials"
	SectorUtilities       Sector = "Utilities"
	SectorREITs           Sector = "REITs"
	SectorOther           Sector = "Other"
)

// ParseSector normalizes a provider-reported sector string to the closed
// enumeration. Common aliases from FMP and S&P sector naming are folded in.
func ParseSector(s string) Sector {
	switch strings.TrimSpace(s) {
	case "Technology", "Information Technology":
		return SectorTechnology
	case "Healthcare", "Health Care":
		return SectorHealthcare
	case "Biotechnology":
		return SectorBiotechnology
	case "Pharmaceuticals":
		return SectorPharmaceuticals
	case "Financials", "Financial Services":
		return SectorFinancials
	case "Utilities":
		return SectorUtilities
	case "REITs", "Real Estate":
		return SectorREITs
	default:
		return SectorOther
	}
}

// Excluded reports whether companies in the sector are dropped from the
// universe entirely. Financials, utilities, and REITs either do not report
// R&D or report it in a way that is not comparable across the universe.
func (s Sector) Excluded() bool {
	switch s {
	case SectorFinancials, SectorUtilities, SectorREITs:
		return true
	}
	return false
}

// HighRD reports whether the sector is structurally R&D intensive. These
// sectors are downweighted by the diversification adjustment and receive
// a higher intensity cap.
func (s Sector) HighRD() bool {
	switch s {
	case SectorTechnology, SectorHealthcare, SectorBiotechnology, SectorPharmaceuticals:
		return true
	}
	return false
}

// FinancialRecord is a single validated annual income statement row.
// Records are immutable once added to a Store; there is exactly one per
// (symbol, fiscal year).
type FinancialRecord struct {
	Symbol     string  `json:"symbol"`
	FiscalYear int     `json:"fiscalYear"`
	Revenue    float64 `json:"revenue"`
	RDExpense  float64 `json:"rdExpense"`
	Period     string  `json:"period"`
}

// Validate rejects malformed rows before they enter the store. The engine
// fails fast on bad input rather than guessing.
func (r *FinancialRecord) Validate() error {
	if r.Symbol == "" {
		return ErrInvalidSymbol
	}
	if r.FiscalYear < 1900 || r.FiscalYear > 2200 {
		return ErrInvalidFiscalYear
	}
	if r.Revenue < 0 {
		return ErrInvalidRevenue
	}
	if r.RDExpense < 0 {
		return ErrInvalidRDExpense
	}
	if r.Period == "" {
		r.Period = "FY"
	}
	if r.Period != "FY" {
		return ErrInvalidPeriod
	}
	return nil
}

// CompanyProfile carries the sector classification used for capping and
// the market cap used for universe sector weights.
type CompanyProfile struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Sector    Sector  `json:"sector"`
	Industry  string  `json:"industry"`
	MarketCap float64 `json:"marketCap"`
}

func (p *CompanyProfile) Validate() error {
	if p.Symbol == "" {
		return ErrInvalidSymbol
	}
	if p.Sector == "" {
		p.Sector = SectorOther
	}
	if p.MarketCap < 0 {
		return ErrInvalidMarketCap
	}
	return nil
}

// PriceObservation is a single adjusted close. Observations for a symbol
// form a date-ordered series in the store.
type PriceObservation struct {
	Symbol   string    `json:"symbol"`
	Date     time.Time `json:"date"`
	AdjClose float64   `json:"adjClose"`
}

func (p *PriceObservation) Validate() error {
	if p.Symbol == "" {
		return ErrInvalidSymbol
	}
	if p.Date.IsZero() {
		return ErrInvalidDate
	}
	if p.AdjClose <= 0 {
		return ErrInvalidPrice
	}
	return nil
}

// DelistEvent marks a security leaving the universe mid-holding-period.
// Codes follow the CRSP convention: 2xx and 5xx are merger/exchange type
// exits, 4xx are liquidations and bankruptcies.
type DelistEvent struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	Code   int       `json:"code"`
}

func (d *DelistEvent) Validate() error {
	if d.Symbol == "" {
		return ErrInvalidSymbol
	}
	if d.Date.IsZero() {
		return ErrInvalidDate
	}
	if d.Code < 100 || d.Code > 999 {
		return ErrInvalidDelistCode
	}
	return nil
}

// Bankruptcy reports whether the delisting is a liquidation-type exit whose
// holding-period return is overridden with a fixed adjustment.
func (d *DelistEvent) Bankruptcy() bool {
	return d.Code >= 400 && d.Code < 500
}

// Merger reports whether the delisting is a merger-type exit. These keep
// the realized return through the delisting date.
func (d *DelistEvent) Merger() bool {
	return (d.Code >= 200 && d.Code < 300) || (d.Code >= 500 && d.Code < 600)
}

// Exclusion records a symbol/year dropped from a formation year and why.
// Exclusions are audit entries, not errors; a run always completes.
type Exclusion struct {
	Symbol string `json:"symbol"`
	Year   int    `json:"year"`
	Reason string `json:"reason"`
}

// ExclusionLog is the per-run audit trail of everything that was dropped.
// Safe for concurrent use; symbol scoring fans out within a formation year.
type ExclusionLog struct {
	mu      sync.Mutex
	entries []Exclusion
}

func NewExclusionLog() *ExclusionLog {
	return &ExclusionLog{entries: make([]Exclusion, 0, 100)}
}

func (l *ExclusionLog) Add(symbol string, year int, reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Exclusion{Symbol: symbol, Year: year, Reason: reason})
}

// Entries returns a copy of the audit trail in insertion order.
func (l *ExclusionLog) Entries() []Exclusion {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Exclusion, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *ExclusionLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

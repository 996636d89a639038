package journey

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

// this file contains functions to handle the import/export format.
// It should remain human readable, single file, and readable by the browser app.

// ExportVersion is the version written in export files.
const ExportVersion = "1.0"

// MaxImportSize is the largest file Import accepts, in bytes.
const MaxImportSize = 5 << 20

// Rate bounds accepted from users and imported files.
var (
	MinRate = decimal.RequireFromString("0.01")
	MaxRate = decimal.NewFromInt(100)
)

// ValidateRate checks that rate is a plausible USD to CNY rate.
func ValidateRate(rate decimal.Decimal) error {
	if rate.LessThan(MinRate) || rate.GreaterThan(MaxRate) {
		return invalidf("exchange rate %s is not within %s and %s", rate, MinRate, MaxRate)
	}
	return nil
}

type exportFile struct {
	Version      string          `json:"version"`
	ExportDate   time.Time       `json:"exportDate"`
	ExchangeRate decimal.Decimal `json:"exchangeRate"`
	Entries      []LedgerEntry   `json:"entries"`
}

// Export writes entries and rate to w in the export format.
func Export(w io.Writer, entries []LedgerEntry, rate decimal.Decimal, now time.Time) error {
	if entries == nil {
		entries = []LedgerEntry{}
	}
	f := exportFile{
		Version:      ExportVersion,
		ExportDate:   now.UTC().Truncate(time.Millisecond),
		ExchangeRate: rate,
		Entries:      entries,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("cannot export entries: %w", err)
	}
	return nil
}

// ImportResult is the content of an accepted import file.
type ImportResult struct {
	Entries  []LedgerEntry
	Rate     decimal.Decimal // zero when the file carries no usable rate
	Rejected int             // records that failed validation
}

// Import reads an export file, or a remote document, from r.
//
// Each entry must have an id, a valid date, and non negative numeric profit and
// loss, otherwise it is skipped. The import fails when no entry is valid, when
// the file is larger than MaxImportSize, or when it is not json; it never
// returns a partial result with an error.
func Import(r io.Reader, now time.Time) (*ImportResult, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImportSize+1))
	if err != nil {
		return nil, fmt.Errorf("cannot read import file: %w", err)
	}
	if len(data) > MaxImportSize {
		return nil, invalidf("import file is larger than %d MB", MaxImportSize>>20)
	}

	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: import file: %w", ErrParse, err)
	}
	if raw.Entries == nil {
		return nil, invalidf("import file has no entries")
	}

	res := &ImportResult{Entries: make([]LedgerEntry, 0, len(raw.Entries))}
	for _, item := range raw.Entries {
		e, ok := validateImported(item, now)
		if !ok {
			res.Rejected++
			continue
		}
		res.Entries = append(res.Entries, e)
	}
	if len(res.Entries) == 0 {
		return nil, invalidf("no valid entry found among %d", len(raw.Entries))
	}
	if rate, ok := coerceAmount(raw.ExchangeRate); ok && ValidateRate(rate) == nil {
		res.Rate = rate
	}
	SortEntries(res.Entries)
	return res, nil
}

func validateImported(item json.RawMessage, now time.Time) (LedgerEntry, bool) {
	var r rawEntry
	if err := json.Unmarshal(item, &r); err != nil {
		return LedgerEntry{}, false
	}
	id, ok := coerceID(r.ID)
	if !ok {
		return LedgerEntry{}, false
	}
	on, ok := coerceDate(r.Date)
	if !ok {
		return LedgerEntry{}, false
	}
	profit, ok := coerceAmount(r.Profit)
	if !ok || profit.IsNegative() {
		return LedgerEntry{}, false
	}
	loss, ok := coerceAmount(r.Loss)
	if !ok || loss.IsNegative() {
		return LedgerEntry{}, false
	}
	e := LedgerEntry{
		ID:     id,
		Date:   on,
		Profit: profit,
		Loss:   loss,
		Note:   SanitizeNote(coerceString(r.Note)),
	}
	if pnl, ok := coerceAmount(r.PnL); ok && !pnl.IsZero() {
		e.PnL = pnl
	} else {
		e.PnL = profit.Sub(loss)
	}
	if e.CreatedAt, ok = coerceTime(r.CreatedAt); !ok {
		e.CreatedAt = now.UTC().Truncate(time.Millisecond)
	}
	return e, true
}

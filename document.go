package journey

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Versions of the remote document format.
const (
	// DocumentVersion is written on every push.
	DocumentVersion = "1.1"
	// InitialVersion is written when a remote document is created.
	InitialVersion = "1.0"
)

// Document is the payload of the remote copy.
type Document struct {
	Version        string            `json:"version"`
	SyncDate       time.Time         `json:"syncDate"`
	ExchangeRate   decimal.Decimal   `json:"exchangeRate"`
	Entries        []LedgerEntry     `json:"entries"`
	AccountEntries []AccountSnapshot `json:"accountEntries"`
}

// NewDocument returns the document describing s, dated now.
func NewDocument(s State, now time.Time) *Document {
	doc := &Document{
		Version:        DocumentVersion,
		SyncDate:       now.UTC().Truncate(time.Millisecond),
		ExchangeRate:   s.Rate,
		Entries:        s.Entries,
		AccountEntries: s.Snapshots,
	}
	// empty collections are written as [] not null.
	if doc.Entries == nil {
		doc.Entries = []LedgerEntry{}
	}
	if doc.AccountEntries == nil {
		doc.AccountEntries = []AccountSnapshot{}
	}
	return doc
}

// InitialContent is the payload of a freshly created remote document.
func InitialContent() []byte {
	b, _ := json.MarshalIndent(struct {
		Version string        `json:"version"`
		Entries []LedgerEntry `json:"entries"`
	}{InitialVersion, []LedgerEntry{}}, "", "  ")
	return b
}

// Encode returns the indented json of the document.
func (d *Document) Encode() ([]byte, error) {
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("cannot encode document: %w", err)
	}
	return b, nil
}

// rawDocument is the permissive shape of a document written by any version of
// any client.
type rawDocument struct {
	Version        string            `json:"version"`
	ExchangeRate   json.RawMessage   `json:"exchangeRate"`
	Entries        []json.RawMessage `json:"entries"`
	AccountEntries []json.RawMessage `json:"accountEntries"`
}

type rawEntry struct {
	ID        json.RawMessage `json:"id"`
	Date      json.RawMessage `json:"date"`
	Profit    json.RawMessage `json:"profit"`
	Loss      json.RawMessage `json:"loss"`
	PnL       json.RawMessage `json:"pnl"`
	Note      json.RawMessage `json:"note"`
	CreatedAt json.RawMessage `json:"createdAt"`
}

type rawSnapshot struct {
	ID        json.RawMessage `json:"id"`
	Date      json.RawMessage `json:"date"`
	Binance   json.RawMessage `json:"binance"`
	OKX       json.RawMessage `json:"okx"`
	Wallet    json.RawMessage `json:"wallet"`
	Total     json.RawMessage `json:"total"`
	CreatedAt json.RawMessage `json:"createdAt"`
}

// DecodeDocument parses a remote payload and repairs its records.
//
// Entries without an id or a date, and snapshots without a date, are dropped.
// Amounts that are not numbers become zero, notes are sanitized. Snapshots
// missing an id or a creation time get now.
//
// A payload that is not a json object fails with ErrParse.
func DecodeDocument(data []byte, now time.Time) (*Document, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: remote document: %w", ErrParse, err)
	}
	doc := &Document{
		Version:        raw.Version,
		Entries:        make([]LedgerEntry, 0, len(raw.Entries)),
		AccountEntries: make([]AccountSnapshot, 0, len(raw.AccountEntries)),
	}
	doc.ExchangeRate, _ = coerceAmount(raw.ExchangeRate)

	for _, item := range raw.Entries {
		if e, ok := sanitizeEntry(item); ok {
			doc.Entries = append(doc.Entries, e)
		}
	}
	for _, item := range raw.AccountEntries {
		if s, ok := sanitizeSnapshot(item, now); ok {
			doc.AccountEntries = append(doc.AccountEntries, s)
		}
	}
	return doc, nil
}

func sanitizeEntry(item json.RawMessage) (LedgerEntry, bool) {
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
	e := LedgerEntry{ID: id, Date: on, Note: SanitizeNote(coerceString(r.Note))}
	e.Profit, _ = coerceAmount(r.Profit)
	e.Loss, _ = coerceAmount(r.Loss)
	e.PnL, _ = coerceAmount(r.PnL)
	e.CreatedAt, _ = coerceTime(r.CreatedAt)
	return e, true
}

func sanitizeSnapshot(item json.RawMessage, now time.Time) (AccountSnapshot, bool) {
	var r rawSnapshot
	if err := json.Unmarshal(item, &r); err != nil {
		return AccountSnapshot{}, false
	}
	on, ok := coerceDate(r.Date)
	if !ok {
		return AccountSnapshot{}, false
	}
	s := AccountSnapshot{Date: on}
	if s.ID, ok = coerceID(r.ID); !ok {
		s.ID = now.UnixMilli()
	}
	s.Binance, _ = coerceAmount(r.Binance)
	s.OKX, _ = coerceAmount(r.OKX)
	s.Wallet, _ = coerceAmount(r.Wallet)
	s.Total, _ = coerceAmount(r.Total)
	if s.CreatedAt, ok = coerceTime(r.CreatedAt); !ok {
		s.CreatedAt = now.UTC().Truncate(time.Millisecond)
	}
	return s, true
}

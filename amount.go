package journey

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/etnz/cryptojourney/date"
	"github.com/shopspring/decimal"
)

func init() {
	// amounts travel as plain json numbers, the way the browser app wrote them.
	decimal.MarshalJSONWithoutQuotes = true
}

// MaxNoteLength is the maximum number of characters kept in a note.
const MaxNoteLength = 200

// MaxAmount is the largest amount accepted from user input.
var MaxAmount = decimal.NewFromInt(999999999)

// SanitizeNote trims s and clamps it to MaxNoteLength characters.
func SanitizeNote(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= MaxNoteLength {
		return s
	}
	return string([]rune(s)[:MaxNoteLength])
}

// ParseAmount parses a user supplied amount. Empty means zero.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, invalidf("amount %q is not a number", s)
	}
	return d, nil
}

// coerceAmount reads a json value as an amount the way a lenient client would:
// numbers and numeric strings are accepted, anything else is zero.
func coerceAmount(raw json.RawMessage) (d decimal.Decimal, ok bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return decimal.Zero, false
	}
	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero, false
		}
		s = strings.TrimSpace(s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// coerceID reads a record identifier, a millisecond timestamp written either as
// a number or a string. Zero is not an identifier.
func coerceID(raw json.RawMessage) (int64, bool) {
	d, ok := coerceAmount(raw)
	if !ok || d.IsZero() {
		return 0, false
	}
	return d.IntPart(), true
}

// coerceDate reads a calendar day, tolerating a full timestamp.
func coerceDate(raw json.RawMessage) (date.Date, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return date.Date{}, false
	}
	s = strings.TrimSpace(s)
	if d, err := date.Parse(s); err == nil {
		return d, true
	}
	if len(s) > 10 && s[10] == 'T' {
		if d, err := date.Parse(s[:10]); err == nil {
			return d, true
		}
	}
	return date.Date{}, false
}

// coerceTime reads a timestamp written as RFC 3339 or as milliseconds since epoch.
func coerceTime(raw json.RawMessage) (time.Time, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, false
	}
	if raw[0] == '"' {
		var t time.Time
		if err := json.Unmarshal(raw, &t); err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	ms, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms).UTC(), true
}

func coerceString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

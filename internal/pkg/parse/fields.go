// Package parse holds the tolerant field converters shared by all detectors.
// Scraped snapshot fields arrive either already-numeric or as decorated text
// (currency symbols, thousands separators, percent signs, comma decimals).
// Every converter is total: garbage degrades to 0 or a zero time, never an error.
package parse

import (
	"strconv"
	"strings"
	"time"
)

var moneyCleaner = strings.NewReplacer(
	"€", "",
	"$", "",
	"£", "",
	"₺", "",
	",", "",
	" ", "",
	"\u00a0", "",
)

// Money converts a wagered-amount field to a float. Strings like "€1,234" or
// "1 234" parse to 1234; empty or invalid input yields 0.
func Money(v any) float64 {
	if f, ok := asFloat(v); ok {
		return f
	}
	s, ok := v.(string)
	if !ok {
		return 0
	}
	s = moneyCleaner.Replace(strings.TrimSpace(s))
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// Percent converts a share field to a float. "12.5%" parses to 12.5; empty or
// invalid input yields 0.
func Percent(v any) float64 {
	if f, ok := asFloat(v); ok {
		return f
	}
	s, ok := v.(string)
	if !ok {
		return 0
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, "%", ""))
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// Odds converts a decimal-odds field to a float. Accepts numbers, dot or comma
// decimal strings ("1.85", "1,85"). "-" and empty mean no price and yield 0.
func Odds(v any) float64 {
	if f, ok := asFloat(v); ok {
		return f
	}
	s, ok := v.(string)
	if !ok {
		return 0
	}
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// Timestamp converts a scrape-timestamp string to a UTC instant. Accepts
// T-separated ISO forms (trailing Z or ±HH:MM offset notation is dropped) and
// space-separated "2006-01-02 15:04:05". Returns the zero time when the string
// cannot be parsed; callers treat a zero time as "unparseable", not an error.
func Timestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}

	if strings.Contains(s, "T") {
		s = trimOffset(strings.TrimSuffix(s, "Z"))
		for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC()
			}
		}
		return time.Time{}
	}

	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t.UTC()
	}
	return time.Time{}
}

// trimOffset strips a trailing explicit ±HH:MM offset, if present.
func trimOffset(s string) string {
	if len(s) < 6 {
		return s
	}
	tail := s[len(s)-6:]
	if (tail[0] == '+' || tail[0] == '-') && tail[3] == ':' {
		return s[:len(s)-6]
	}
	return s
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}

package models

import (
	"sort"
	"time"

	"github.com/hazardyk27-sudo/smartxflow-sub001/internal/pkg/parse"
)

// Snapshot is one scrape observation of a market: the raw match display
// fields plus the per-side amount/odds/share values keyed by upstream field
// name. Values may be numeric or decorated strings; accessors run them
// through the parse converters.
type Snapshot struct {
	Home    string `json:"home"`
	Away    string `json:"away"`
	League  string `json:"league"`
	Kickoff string `json:"kickoff"`

	ScrapedAt time.Time      `json:"scraped_at"`
	Fields    map[string]any `json:"fields"`
}

func (s Snapshot) field(name string) any {
	if s.Fields == nil || name == "" {
		return nil
	}
	return s.Fields[name]
}

// Amount returns the money wagered on a side, 0 when absent or malformed.
func (s Snapshot) Amount(mt MarketType, side string) float64 {
	return parse.Money(s.field(FieldsFor(mt, side).Amount))
}

// Odds returns the decimal odds of a side, 0 when absent or malformed.
func (s Snapshot) Odds(mt MarketType, side string) float64 {
	return parse.Odds(s.field(FieldsFor(mt, side).Odds))
}

// Share returns the money-share percentage of a side, 0 when absent or malformed.
func (s Snapshot) Share(mt MarketType, side string) float64 {
	return parse.Percent(s.field(FieldsFor(mt, side).Share))
}

// TotalVolume sums the wagered amounts over all sides of the market.
func (s Snapshot) TotalVolume(mt MarketType) float64 {
	var total float64
	for _, side := range Sides(mt) {
		total += s.Amount(mt, side)
	}
	return total
}

// MatchName is the human-readable fixture label used in alarm messages.
func (s Snapshot) MatchName() string {
	if s.Home == "" && s.Away == "" {
		return "unknown match"
	}
	return s.Home + " vs " + s.Away
}

// SortHistory orders snapshots by scrape time ascending (oldest first), the
// order every detector expects: first entry is the opening snapshot, last is
// the current one.
func SortHistory(history []Snapshot) {
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].ScrapedAt.Before(history[j].ScrapedAt)
	})
}

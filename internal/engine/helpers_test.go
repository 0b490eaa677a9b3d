package engine

import (
	"time"

	"github.com/hazardyk27-sudo/smartxflow-sub001/internal/pkg/models"
)

var testBase = time.Date(2025, 1, 25, 12, 0, 0, 0, time.UTC)

// sideValues is one side's amount/odds/share triple for building test snapshots.
type sideValues struct {
	amount float64
	odds   float64
	share  float64
}

// snap1x2 builds one 1x2 observation taken minsFromStart minutes into the window.
func snap1x2(minsFromStart int, s1, sX, s2 sideValues) models.Snapshot {
	return models.Snapshot{
		Home:      "Galatasaray",
		Away:      "Fenerbahce",
		League:    "Super Lig",
		Kickoff:   "2025-01-25T20:00:00Z",
		ScrapedAt: testBase.Add(time.Duration(minsFromStart) * time.Minute),
		Fields: map[string]any{
			"Amt1": s1.amount, "Odds1": s1.odds, "Pct1": s1.share,
			"AmtX": sX.amount, "OddsX": sX.odds, "PctX": sX.share,
			"Amt2": s2.amount, "Odds2": s2.odds, "Pct2": s2.share,
		},
	}
}

func testRef(market, side string) MatchRef {
	return MatchRef{
		MatchID:   "abc123def456",
		MatchName: "Galatasaray vs Fenerbahce",
		Market:    market,
		Side:      side,
	}
}

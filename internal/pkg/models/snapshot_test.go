package models

import (
	"testing"
	"time"
)

func TestSnapshotAccessors(t *testing.T) {
	snap := Snapshot{
		Home: "Galatasaray",
		Away: "Fenerbahce",
		Fields: map[string]any{
			"Amt1":  "€1,250",
			"Odds1": "1,85",
			"Pct1":  "42%",
			"AmtX":  800.0,
			"OddsX": 3.4,
			"PctX":  28.0,
			"Amt2":  "950",
			"Odds2": "-",
			"Pct2":  nil,
		},
	}

	if got := snap.Amount(Market1X2, "1"); got != 1250 {
		t.Errorf("Amount(1) = %v, want 1250", got)
	}
	if got := snap.Odds(Market1X2, "1"); got != 1.85 {
		t.Errorf("Odds(1) = %v, want 1.85", got)
	}
	if got := snap.Share(Market1X2, "1"); got != 42 {
		t.Errorf("Share(1) = %v, want 42", got)
	}
	if got := snap.Odds(Market1X2, "2"); got != 0 {
		t.Errorf("suspended odds should read as 0, got %v", got)
	}
	if got := snap.Share(Market1X2, "2"); got != 0 {
		t.Errorf("missing share should read as 0, got %v", got)
	}
	if got := snap.TotalVolume(Market1X2); got != 3000 {
		t.Errorf("TotalVolume = %v, want 3000", got)
	}
}

func TestSnapshotAccessors_NilFields(t *testing.T) {
	var snap Snapshot
	if got := snap.Amount(Market1X2, "1"); got != 0 {
		t.Errorf("nil fields should read as 0, got %v", got)
	}
	if got := snap.TotalVolume(MarketBTTS); got != 0 {
		t.Errorf("nil fields total should be 0, got %v", got)
	}
}

func TestMatchName(t *testing.T) {
	snap := Snapshot{Home: "Galatasaray", Away: "Fenerbahce"}
	if got := snap.MatchName(); got != "Galatasaray vs Fenerbahce" {
		t.Errorf("MatchName = %q", got)
	}

	var empty Snapshot
	if got := empty.MatchName(); got != "unknown match" {
		t.Errorf("MatchName on empty snapshot = %q, want \"unknown match\"", got)
	}
}

func TestSortHistory(t *testing.T) {
	base := time.Date(2025, 1, 25, 12, 0, 0, 0, time.UTC)
	history := []Snapshot{
		{Home: "c", ScrapedAt: base.Add(20 * time.Minute)},
		{Home: "a", ScrapedAt: base},
		{Home: "b", ScrapedAt: base.Add(10 * time.Minute)},
	}
	SortHistory(history)
	if history[0].Home != "a" || history[1].Home != "b" || history[2].Home != "c" {
		t.Errorf("history not sorted oldest-first: %v, %v, %v", history[0].Home, history[1].Home, history[2].Home)
	}
}

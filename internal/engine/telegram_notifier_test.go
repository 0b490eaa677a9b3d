package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/hazardyk27-sudo/smartxflow-sub001/internal/pkg/models"
)

func TestFormatAlarm(t *testing.T) {
	record := models.AlarmRecord{
		ID:        "test-id",
		MatchName: "Galatasaray vs Fenerbahce",
		Market:    "moneyway_1x2",
		Side:      "1",
		Category:  models.CategorySharp,
		IsAlarm:   true,
		Severity:  3,
		Score:     86,
		Message:   "Sharp money on 1: score 86 with 15000 total volume (3/3 signals)",
		CreatedAt: time.Date(2025, 1, 25, 14, 30, 0, 0, time.UTC),
	}

	msg := formatAlarm(record)

	for _, want := range []string{
		"Sharp Money Alert",
		"❗❗❗",
		"Galatasaray vs Fenerbahce",
		"Moneyway 1x2",
		"side 1",
		"2025-01-25 14:30 UTC",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatAlarm_ReversalCriteriaLine(t *testing.T) {
	record := models.AlarmRecord{
		MatchName:     "Galatasaray vs Fenerbahce",
		Market:        "moneyway_1x2",
		Side:          "2",
		Category:      models.CategoryReversal,
		Severity:      1,
		ConditionsMet: 2,
		Message:       "Reversal attempt on 2 logged: 2/3 criteria",
		CreatedAt:     time.Now().UTC(),
	}
	msg := formatAlarm(record)
	if !strings.Contains(msg, "Criteria: 2/3") {
		t.Errorf("reversal message should carry the criteria line:\n%s", msg)
	}
}

func TestFormatAlarm_UnknownCategory(t *testing.T) {
	record := models.AlarmRecord{
		MatchName: "Galatasaray vs Fenerbahce",
		Market:    "moneyway_1x2",
		Side:      "X",
		Category:  "mystery",
		Severity:  1,
		CreatedAt: time.Now().UTC(),
	}
	msg := formatAlarm(record)
	if !strings.Contains(msg, "mystery Alert") {
		t.Errorf("unknown category should fall back to the raw name:\n%s", msg)
	}
}

func TestEscapeMarkdown(t *testing.T) {
	got := escapeMarkdown("FC_Midtjylland *strong* [sharp]")
	want := "FC\\_Midtjylland \\*strong\\* \\[sharp\\]"
	if got != want {
		t.Errorf("escapeMarkdown = %q, want %q", got, want)
	}
}

func TestFormatMarket(t *testing.T) {
	tests := []struct {
		market   string
		expected string
	}{
		{"moneyway_1x2", "Moneyway 1x2"},
		{"dropping_ou25", "Dropping Ou25"},
		{"btts", "Btts"},
	}
	for _, tt := range tests {
		if got := formatMarket(tt.market); got != tt.expected {
			t.Errorf("formatMarket(%q) = %q, want %q", tt.market, got, tt.expected)
		}
	}
}

package engine

import (
	"testing"

	"github.com/hazardyk27-sudo/smartxflow-sub001/internal/pkg/config"
	"github.com/hazardyk27-sudo/smartxflow-sub001/internal/pkg/models"
)

func newTestFreeze() *FreezeDetector {
	return NewFreezeDetector(config.DefaultDetectorConfig().Freeze)
}

func TestFreeze_MinHistory(t *testing.T) {
	d := newTestFreeze()
	history := []models.Snapshot{
		snap1x2(0, sideValues{1000, 1.80, 9}, sideValues{800, 3.40, 41}, sideValues{900, 2.50, 50}),
		snap1x2(10, sideValues{5000, 1.80, 9}, sideValues{800, 3.40, 41}, sideValues{900, 2.50, 50}),
	}
	if record := d.Check(history, "moneyway_1x2", "1"); record != nil {
		t.Errorf("two snapshots should not record, got %+v", record)
	}
}

func TestFreeze_HighestLevelWins(t *testing.T) {
	d := newTestFreeze()
	// Odds flat across five scrapes (50 min), 3500 fresh money, 9% share: the
	// L3 band matches and must win over the also-matching L1 band.
	history := []models.Snapshot{
		snap1x2(0, sideValues{1000, 1.80, 5}, sideValues{800, 3.40, 45}, sideValues{900, 2.50, 50}),
		snap1x2(10, sideValues{1500, 1.80, 6}, sideValues{800, 3.40, 44}, sideValues{900, 2.50, 50}),
		snap1x2(20, sideValues{2000, 1.80, 7}, sideValues{800, 3.45, 43}, sideValues{900, 2.50, 50}),
		snap1x2(30, sideValues{3000, 1.80, 8}, sideValues{800, 3.45, 43}, sideValues{900, 2.45, 49}),
		snap1x2(40, sideValues{6500, 1.80, 9}, sideValues{800, 3.50, 42}, sideValues{900, 2.45, 49}),
	}
	record := d.Check(history, "moneyway_1x2", "1")
	if record == nil {
		t.Fatal("expected a freeze record, got nil")
	}
	if record.Severity != 3 {
		t.Errorf("severity = %d, want 3", record.Severity)
	}
	if record.Category != models.CategoryLineFreeze {
		t.Errorf("category = %q, want %q", record.Category, models.CategoryLineFreeze)
	}
	if record.Score != 50 {
		t.Errorf("score = %v, want 50 (freeze minutes)", record.Score)
	}
	extra, ok := record.Extra.(models.FreezeExtra)
	if !ok {
		t.Fatalf("extra should be FreezeExtra, got %T", record.Extra)
	}
	if extra.FreezeDuration != 50 {
		t.Errorf("freeze duration = %d, want 50", extra.FreezeDuration)
	}
	if extra.Level != 3 {
		t.Errorf("level = %d, want 3", extra.Level)
	}
}

func TestFreeze_ShortFreezeNil(t *testing.T) {
	d := newTestFreeze()
	// The price only settled on the latest scrape: 10 min is under the gate.
	history := []models.Snapshot{
		snap1x2(0, sideValues{1000, 2.00, 9}, sideValues{800, 3.40, 41}, sideValues{900, 2.50, 50}),
		snap1x2(10, sideValues{2000, 1.90, 9}, sideValues{800, 3.40, 41}, sideValues{900, 2.50, 50}),
		snap1x2(20, sideValues{5000, 1.80, 9}, sideValues{800, 3.40, 41}, sideValues{900, 2.50, 50}),
	}
	if record := d.Check(history, "moneyway_1x2", "1"); record != nil {
		t.Errorf("10 min freeze should not record, got %+v", record)
	}
}

func TestFreeze_NoInflowNil(t *testing.T) {
	d := newTestFreeze()
	// Frozen for 30 min but barely any fresh money and a tiny share.
	history := []models.Snapshot{
		snap1x2(0, sideValues{1000, 1.80, 2}, sideValues{800, 3.40, 48}, sideValues{900, 2.50, 50}),
		snap1x2(10, sideValues{1050, 1.80, 2}, sideValues{800, 3.40, 48}, sideValues{900, 2.50, 50}),
		snap1x2(20, sideValues{1150, 1.80, 2}, sideValues{800, 3.40, 48}, sideValues{900, 2.50, 50}),
	}
	if record := d.Check(history, "moneyway_1x2", "1"); record != nil {
		t.Errorf("freeze without inflow should not record, got %+v", record)
	}
}

func TestFreeze_Level2ViaMarketMovement(t *testing.T) {
	d := newTestFreeze()
	// 30 min freeze, 1600 fresh money, 4.5% share. L3 fails on share, L2 fires
	// because the rest of the market moved 3% while the line held.
	history := []models.Snapshot{
		snap1x2(0, sideValues{1000, 1.80, 4}, sideValues{800, 3.40, 46}, sideValues{900, 2.00, 50}),
		snap1x2(10, sideValues{1400, 1.80, 4}, sideValues{800, 3.40, 46}, sideValues{900, 2.00, 50}),
		snap1x2(20, sideValues{3000, 1.80, 4.5}, sideValues{800, 3.40, 45.5}, sideValues{900, 2.06, 50}),
	}
	record := d.Check(history, "moneyway_1x2", "1")
	if record == nil {
		t.Fatal("expected a freeze record, got nil")
	}
	if record.Severity != 2 {
		t.Errorf("severity = %d, want 2", record.Severity)
	}
	extra := record.Extra.(models.FreezeExtra)
	if extra.MarketMovement < 2.0 {
		t.Errorf("market movement = %v, want >= 2.0", extra.MarketMovement)
	}
}

func TestFreeze_MissingOddsNotFrozen(t *testing.T) {
	d := newTestFreeze()
	// No current price: missing data must never read as a frozen line.
	history := []models.Snapshot{
		snap1x2(0, sideValues{1000, 0, 9}, sideValues{800, 3.40, 41}, sideValues{900, 2.50, 50}),
		snap1x2(10, sideValues{2000, 0, 9}, sideValues{800, 3.40, 41}, sideValues{900, 2.50, 50}),
		snap1x2(20, sideValues{5000, 0, 9}, sideValues{800, 3.40, 41}, sideValues{900, 2.50, 50}),
	}
	if record := d.Check(history, "moneyway_1x2", "1"); record != nil {
		t.Errorf("missing odds should not read as frozen, got %+v", record)
	}
}

func TestMarketMovement(t *testing.T) {
	prev := snap1x2(0, sideValues{1000, 1.80, 10}, sideValues{800, 3.00, 40}, sideValues{900, 2.00, 50})
	cur := snap1x2(10, sideValues{1500, 1.80, 10}, sideValues{800, 3.06, 40}, sideValues{900, 1.96, 50})

	// X moved 2%, side 2 moved 2%; side 1 is excluded.
	got := marketMovement(prev, cur, models.Market1X2, "1")
	if got < 3.9 || got > 4.1 {
		t.Errorf("marketMovement = %v, want ~4.0", got)
	}
}

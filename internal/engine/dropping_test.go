package engine

import (
	"testing"

	"github.com/hazardyk27-sudo/smartxflow-sub001/internal/pkg/config"
	"github.com/hazardyk27-sudo/smartxflow-sub001/internal/pkg/models"
)

func newTestDropping() *DroppingDetector {
	return NewDroppingDetector(config.DefaultDetectorConfig().Dropping)
}

func TestCheckOpenDrop_ThresholdBoundary(t *testing.T) {
	d := newTestDropping()

	// 4.00 -> 3.7204 is a 6.99% drop: below the bar, no record.
	history := []models.Snapshot{
		snap1x2(0, sideValues{1000, 4.00, 30}, sideValues{800, 3.40, 30}, sideValues{900, 2.10, 40}),
		snap1x2(10, sideValues{1200, 3.7204, 32}, sideValues{800, 3.40, 29}, sideValues{900, 2.10, 39}),
	}
	if records := d.CheckOpenDrop(history, "moneyway_1x2"); len(records) != 0 {
		t.Errorf("6.99%% drop should not record, got %d records", len(records))
	}

	// 4.00 -> 3.72 is a 7.00% drop: exactly at the bar, records.
	history[1] = snap1x2(10, sideValues{1200, 3.72, 32}, sideValues{800, 3.40, 29}, sideValues{900, 2.10, 39})
	records := d.CheckOpenDrop(history, "moneyway_1x2")
	if len(records) != 1 {
		t.Fatalf("7.00%% drop should record once, got %d records", len(records))
	}
	rec := records[0]
	if !rec.IsAlarm || rec.IsPreview {
		t.Errorf("open drop record should be a real alarm, got is_alarm=%v is_preview=%v", rec.IsAlarm, rec.IsPreview)
	}
	if rec.Category != models.CategoryDropping {
		t.Errorf("category = %q, want %q", rec.Category, models.CategoryDropping)
	}
	if rec.Side != "1" {
		t.Errorf("side = %q, want 1", rec.Side)
	}
}

func TestCheckOpenDrop_ShortHistory(t *testing.T) {
	d := newTestDropping()
	history := []models.Snapshot{
		snap1x2(0, sideValues{1000, 4.00, 30}, sideValues{800, 3.40, 30}, sideValues{900, 2.10, 40}),
	}
	if records := d.CheckOpenDrop(history, "moneyway_1x2"); records != nil {
		t.Errorf("single snapshot should yield no records, got %d", len(records))
	}
}

func TestCheckOpenDrop_PlaceholderOpenSkipped(t *testing.T) {
	d := newTestDropping()
	// Opening odds 1.00 look like an unset placeholder; the side is skipped no
	// matter how far the current price sits below it.
	history := []models.Snapshot{
		snap1x2(0, sideValues{1000, 1.00, 30}, sideValues{800, 3.40, 30}, sideValues{900, 2.10, 40}),
		snap1x2(10, sideValues{5000, 0.50, 60}, sideValues{800, 3.40, 20}, sideValues{900, 2.10, 20}),
	}
	if records := d.CheckOpenDrop(history, "moneyway_1x2"); len(records) != 0 {
		t.Errorf("placeholder opening odds should be skipped, got %d records", len(records))
	}
}

func TestCheckOpenDrop_CountsAllDroppingSides(t *testing.T) {
	d := newTestDropping()
	// Sides 1 and 2 both drop more than 7%; X stays put.
	history := []models.Snapshot{
		snap1x2(0, sideValues{1000, 4.00, 30}, sideValues{800, 3.40, 30}, sideValues{900, 2.50, 40}),
		snap1x2(10, sideValues{2000, 3.60, 35}, sideValues{800, 3.40, 25}, sideValues{1500, 2.25, 40}),
	}
	records := d.CheckOpenDrop(history, "moneyway_1x2")
	if len(records) != 2 {
		t.Fatalf("expected 2 dropping sides, got %d", len(records))
	}
	for _, rec := range records {
		extra, ok := rec.Extra.(models.DroppingExtra)
		if !ok {
			t.Fatalf("extra should be DroppingExtra, got %T", rec.Extra)
		}
		if extra.DroppingSidesCount != 2 {
			t.Errorf("side %s: dropping_sides_count = %d, want 2", rec.Side, extra.DroppingSidesCount)
		}
	}
}

func TestCheckPersistentDrop(t *testing.T) {
	d := newTestDropping()
	ref := testRef("dropping_1x2", "1")

	tests := []struct {
		name         string
		dropPct      float64
		minutes      int
		wantNil      bool
		wantAlarm    bool
		wantSeverity int
		wantScore    float64
	}{
		{"below bar", 6.9, 100, true, false, 0, 0},
		{"held long enough L1", 8.5, 45, false, true, 1, 8.5},
		{"building L2", 12.3, 15, false, false, 2, 12.3},
		{"exactly at persistence gate", 8.0, 30, false, true, 1, 8.0},
		{"one minute short", 8.0, 29, false, false, 1, 8.0},
		{"deep drop L3", 16.0, 30, false, true, 3, 16.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := d.CheckPersistentDrop(ref, tt.dropPct, tt.minutes)
			if tt.wantNil {
				if record != nil {
					t.Fatalf("expected nil, got %+v", record)
				}
				return
			}
			if record == nil {
				t.Fatal("expected a record, got nil")
			}
			if record.IsAlarm != tt.wantAlarm {
				t.Errorf("is_alarm = %v, want %v", record.IsAlarm, tt.wantAlarm)
			}
			if record.IsPreview == tt.wantAlarm {
				t.Errorf("is_preview = %v, should be the inverse of is_alarm", record.IsPreview)
			}
			if record.Severity != tt.wantSeverity {
				t.Errorf("severity = %d, want %d", record.Severity, tt.wantSeverity)
			}
			if record.Score != tt.wantScore {
				t.Errorf("score = %v, want %v", record.Score, tt.wantScore)
			}
			extra, ok := record.Extra.(models.DroppingExtra)
			if !ok {
				t.Fatalf("extra should be DroppingExtra, got %T", record.Extra)
			}
			if extra.MinutesPersisted != tt.minutes {
				t.Errorf("minutes_persisted = %d, want %d", extra.MinutesPersisted, tt.minutes)
			}
			if extra.Level != tt.wantSeverity {
				t.Errorf("level = %d, want %d", extra.Level, tt.wantSeverity)
			}
		})
	}
}

func TestDropLevel(t *testing.T) {
	d := newTestDropping()
	tests := []struct {
		dropPct  float64
		expected int
	}{
		{0, 0},
		{6.99, 0},
		{7.0, 1},
		{9.99, 1},
		{10.0, 2},
		{14.99, 2},
		{15.0, 3},
		{40.0, 3},
	}
	for _, tt := range tests {
		if got := d.dropLevel(tt.dropPct); got != tt.expected {
			t.Errorf("dropLevel(%v) = %d, want %d", tt.dropPct, got, tt.expected)
		}
	}
}

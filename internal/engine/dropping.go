package engine

import (
	"fmt"
	"math"

	"github.com/hazardyk27-sudo/smartxflow-sub001/internal/pkg/config"
	"github.com/hazardyk27-sudo/smartxflow-sub001/internal/pkg/models"
)

// DroppingDetector flags sides whose odds dropped from the opening snapshot.
// Two variants: CheckOpenDrop compares open vs current odds over a history,
// CheckPersistentDrop bands an already-measured drop by level and promotes it
// once it has held long enough.
type DroppingDetector struct {
	cfg config.DroppingConfig
}

func NewDroppingDetector(cfg config.DroppingConfig) *DroppingDetector {
	return &DroppingDetector{cfg: cfg}
}

// CheckOpenDrop emits one record per side whose open-to-current drop clears
// the percentage bar. Sides with placeholder opening odds (≤1.01) or missing
// current odds are skipped. Every emitted record carries the total count of
// sides that cleared the bar in this evaluation.
func (d *DroppingDetector) CheckOpenDrop(history []models.Snapshot, market string) []models.AlarmRecord {
	if len(history) < 2 {
		return nil
	}
	mt := models.MarketTypeOf(market)
	open := history[0]
	cur := history[len(history)-1]

	type sideDrop struct {
		side      string
		dropPct   float64
		dropValue float64
		volume    float64
	}
	var drops []sideDrop
	for _, side := range models.Sides(mt) {
		dropPct := openDropPercent(history, mt, side)
		if dropPct < d.cfg.MinDropPercent {
			continue
		}
		openOdds := open.Odds(mt, side)
		curOdds := cur.Odds(mt, side)
		drops = append(drops, sideDrop{
			side:      side,
			dropPct:   dropPct,
			dropValue: openOdds - curOdds,
			volume:    cur.Amount(mt, side),
		})
	}

	var records []models.AlarmRecord
	for _, drop := range drops {
		records = append(records, buildRecord(recordSpec{
			Ref:      refFor(history, market, drop.side),
			Category: models.CategoryDropping,
			IsAlarm:  true,
			Score:    drop.dropPct,
			Message: fmt.Sprintf("Odds on %s dropped %.1f%% from open (%d side(s) dropping)",
				drop.side, drop.dropPct, len(drops)),
			Extra: models.DroppingExtra{
				DropPercent:        drop.dropPct,
				DropValue:          drop.dropValue,
				SelectionVolume:    drop.volume,
				DroppingSidesCount: len(drops),
			},
		}))
	}
	return records
}

// openDropPercent measures a side's open-to-current odds drop in percent.
// Returns 0 on short histories or when the opening odds look like an unset
// placeholder (≤1.01) or the current odds are missing.
func openDropPercent(history []models.Snapshot, mt models.MarketType, side string) float64 {
	if len(history) < 2 {
		return 0
	}
	openOdds := history[0].Odds(mt, side)
	curOdds := history[len(history)-1].Odds(mt, side)
	if openOdds <= 1.01 || curOdds <= 0 {
		return 0
	}
	return (openOdds - curOdds) / openOdds * 100
}

// dropLevel bands a drop percentage: <7 -> 0, [7,10) -> 1, [10,15) -> 2, >=15 -> 3.
func (d *DroppingDetector) dropLevel(dropPct float64) int {
	switch {
	case dropPct < d.cfg.MinDropPercent:
		return 0
	case dropPct < 10:
		return 1
	case dropPct < 15:
		return 2
	default:
		return 3
	}
}

// CheckPersistentDrop bands a sustained drop by level. minutesPersisted is
// how long the drop has held above the bar; once it reaches the persistence
// gate the record is promoted to a real alarm, before that it is a preview.
// Returns nil when the drop is below the bar.
func (d *DroppingDetector) CheckPersistentDrop(ref MatchRef, dropPct float64, minutesPersisted int) *models.AlarmRecord {
	level := d.dropLevel(dropPct)
	if level == 0 {
		return nil
	}

	persistent := minutesPersisted >= d.cfg.PersistenceMinutes

	var message string
	if persistent {
		message = fmt.Sprintf("Persistent odds drop on %s: %.1f%% held for %d min (L%d)",
			ref.Side, dropPct, minutesPersisted, level)
	} else {
		message = fmt.Sprintf("Odds drop on %s building: %.1f%% at %d/%d min (L%d)",
			ref.Side, dropPct, minutesPersisted, d.cfg.PersistenceMinutes, level)
	}

	record := buildRecord(recordSpec{
		Ref:       ref,
		Category:  models.CategoryDropping,
		IsAlarm:   persistent,
		IsPreview: !persistent,
		Severity:  level,
		Score:     math.Round(dropPct*10) / 10,
		Message:   message,
		Extra: models.DroppingExtra{
			DropPercent:      dropPct,
			MinutesPersisted: minutesPersisted,
			Level:            level,
			LevelLabel:       fmt.Sprintf("L%d", level),
		},
	})
	return &record
}

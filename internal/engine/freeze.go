package engine

import (
	"fmt"
	"math"

	"github.com/hazardyk27-sudo/smartxflow-sub001/internal/pkg/config"
	"github.com/hazardyk27-sudo/smartxflow-sub001/internal/pkg/models"
)

// FreezeDetector flags sides whose odds sit still while money keeps flowing
// in. A frozen line under volume inflow usually means the book is holding the
// price on purpose, especially when the rest of the market is moving.
type FreezeDetector struct {
	cfg config.FreezeConfig
}

func NewFreezeDetector(cfg config.FreezeConfig) *FreezeDetector {
	return &FreezeDetector{cfg: cfg}
}

// freezeDuration counts trailing updates (current included, walking backward)
// whose odds stay within the tolerance of the current odds. Each stable
// update is worth one scrape interval in minutes. The walk stops at the first
// moved update, or at odds ≤0 so missing data never reads as frozen.
func (d *FreezeDetector) freezeDuration(history []models.Snapshot, mt models.MarketType, side string) int {
	curOdds := history[len(history)-1].Odds(mt, side)
	if curOdds <= 0 {
		return 0
	}

	duration := 0
	for i := len(history) - 1; i >= 0; i-- {
		odds := history[i].Odds(mt, side)
		if odds <= 0 || math.Abs(odds-curOdds) > d.cfg.OddsTolerance {
			break
		}
		duration += d.cfg.StepMinutes
	}
	return duration
}

// marketMovement sums the relative odds movement of every other side between
// the two most recent snapshots, in percent. Sides without a previous price
// contribute nothing.
func marketMovement(prev, cur models.Snapshot, mt models.MarketType, excludeSide string) float64 {
	var movement float64
	for _, side := range models.Sides(mt) {
		if side == excludeSide {
			continue
		}
		prevOdds := prev.Odds(mt, side)
		if prevOdds <= 0 {
			continue
		}
		movement += math.Abs(cur.Odds(mt, side)-prevOdds) / prevOdds * 100
	}
	return movement
}

// Check evaluates a side for line freeze. Requires at least three snapshots,
// a minimum freeze duration and a volume-inflow gate; the level bands are
// checked strictly highest first.
func (d *FreezeDetector) Check(history []models.Snapshot, market, side string) *models.AlarmRecord {
	if len(history) < 3 {
		return nil
	}
	mt := models.MarketTypeOf(market)
	prev := history[len(history)-2]
	cur := history[len(history)-1]

	duration := d.freezeDuration(history, mt, side)
	if duration < d.cfg.MinDuration {
		return nil
	}

	newMoney := cur.Amount(mt, side) - prev.Amount(mt, side)
	shareNow := cur.Share(mt, side)
	if newMoney < d.cfg.MinNewMoney && shareNow < d.cfg.MinShare {
		return nil
	}

	movement := marketMovement(prev, cur, mt, side)

	var level int
	switch {
	case duration >= 40 && shareNow >= 8.0 && newMoney >= 3000:
		level = 3
	case duration >= d.cfg.MinDuration && shareNow >= 4.0 &&
		(movement >= d.cfg.MarketMovement || newMoney >= 2000):
		level = 2
	case duration >= d.cfg.MinDuration && (newMoney >= d.cfg.MinNewMoney || shareNow >= d.cfg.MinShare):
		level = 1
	default:
		return nil
	}

	record := buildRecord(recordSpec{
		Ref:      refFor(history, market, side),
		Category: models.CategoryLineFreeze,
		IsAlarm:  true,
		Severity: level,
		Score:    float64(duration),
		Message: fmt.Sprintf("Line freeze on %s: odds flat for %d min with %.0f fresh money (%.1f%% share, market moving %.1f%%), L%d",
			side, duration, newMoney, shareNow, movement, level),
		Extra: models.FreezeExtra{
			FreezeDuration: duration,
			NewMoney:       newMoney,
			ShareNow:       shareNow,
			MarketMovement: movement,
			Level:          level,
		},
	})
	return &record
}

package engine

import (
	"fmt"
	"strings"

	"github.com/hazardyk27-sudo/smartxflow-sub001/internal/pkg/config"
	"github.com/hazardyk27-sudo/smartxflow-sub001/internal/pkg/models"
)

// MomentumDetector classifies short-window money bursts between the two most
// recent snapshots. At least two of four criteria must fire, but the level is
// banded purely on fresh money: a burst below the band floor never records,
// no matter how many criteria passed.
type MomentumDetector struct {
	cfg config.MomentumConfig
}

func NewMomentumDetector(cfg config.MomentumConfig) *MomentumDetector {
	return &MomentumDetector{cfg: cfg}
}

func (d *MomentumDetector) moneyThreshold(mt models.MarketType) float64 {
	switch mt {
	case models.MarketOU25:
		return d.cfg.MoneyThresholdOU25
	case models.MarketBTTS:
		return d.cfg.MoneyThresholdBTTS
	default:
		return d.cfg.MoneyThreshold1X2
	}
}

// momentumLevel bands fresh money: <=1500 -> 0 (no record), (1500,3000) -> 1,
// [3000,5000] -> 2, >5000 -> 3.
func momentumLevel(newMoney float64) int {
	switch {
	case newMoney > 5000:
		return 3
	case newMoney >= 3000:
		return 2
	case newMoney > 1500:
		return 1
	default:
		return 0
	}
}

// Check evaluates a side over the two most recent snapshots. Returns nil when
// fewer than two criteria fire or the money band stays at zero.
func (d *MomentumDetector) Check(history []models.Snapshot, market, side string) *models.AlarmRecord {
	if len(history) < 2 {
		return nil
	}
	mt := models.MarketTypeOf(market)
	prev := history[len(history)-2]
	cur := history[len(history)-1]

	newMoney := cur.Amount(mt, side) - prev.Amount(mt, side)
	shareNow := cur.Share(mt, side)
	pctChange := shareNow - prev.Share(mt, side)
	oddsDrop := 0.0
	if prevOdds := prev.Odds(mt, side); prevOdds > 0 {
		oddsDrop = (prevOdds - cur.Odds(mt, side)) / prevOdds * 100
	}

	var fired []string
	if newMoney >= d.moneyThreshold(mt) {
		fired = append(fired, "new_money")
	}
	if shareNow >= d.cfg.MinShare {
		fired = append(fired, "share_now")
	}
	if pctChange >= d.cfg.MinShareChange {
		fired = append(fired, "share_change")
	}
	if oddsDrop >= d.cfg.MinOddsDrop {
		fired = append(fired, "odds_drop")
	}
	if len(fired) < d.cfg.MinCriteria {
		return nil
	}

	level := momentumLevel(newMoney)
	if level == 0 {
		return nil
	}

	record := buildRecord(recordSpec{
		Ref:      refFor(history, market, side),
		Category: models.CategoryMomentumSpike,
		IsAlarm:  true,
		Severity: level,
		Score:    newMoney,
		Message: fmt.Sprintf("Momentum spike on %s: %.0f fresh money, %d/4 criteria (%s), L%d",
			side, newMoney, len(fired), strings.Join(fired, ", "), level),
		Extra: models.MomentumExtra{
			NewMoney:        newMoney,
			ShareNow:        shareNow,
			ShareChange:     pctChange,
			OddsDropPercent: oddsDrop,
			CriteriaFired:   fired,
			Level:           level,
		},
	})
	return &record
}

package engine

import (
	"math"
	"sync"
	"time"

	"github.com/hazardyk27-sudo/smartxflow-sub001/internal/pkg/models"
)

// Sharp signal thresholds for the informational criteria flags and the score
// blend. The classifier itself only gates on volume and total score.
const (
	sharpVolumeShockMoney = 2500.0
	sharpOddsDropPercent  = 5.0
	sharpShareShiftPoints = 8.0
)

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// sharpSignals derives a side's sharp input from the two most recent
// snapshots: a 0-100 blend of fresh money, odds drop and share shift, plus
// the three informational flags.
func sharpSignals(history []models.Snapshot, market, side string) (SharpInput, bool) {
	if len(history) < 2 {
		return SharpInput{}, false
	}
	mt := models.MarketTypeOf(market)
	prev := history[len(history)-2]
	cur := history[len(history)-1]

	newMoney := cur.Amount(mt, side) - prev.Amount(mt, side)
	pctChange := cur.Share(mt, side) - prev.Share(mt, side)
	oddsDrop := 0.0
	if prevOdds := prev.Odds(mt, side); prevOdds > 0 {
		oddsDrop = (prevOdds - cur.Odds(mt, side)) / prevOdds * 100
	}

	score := 40*clamp01(newMoney/5000) + 30*clamp01(oddsDrop/10) + 30*clamp01(pctChange/10)

	return SharpInput{
		Ref:   refFor(history, market, side),
		Score: math.Round(score),
		Criteria: models.SharpCriteria{
			VolumeShock: newMoney >= sharpVolumeShockMoney,
			OddsDrop:    oddsDrop >= sharpOddsDropPercent,
			ShareShift:  pctChange >= sharpShareShiftPoints,
		},
		TotalVolume: cur.TotalVolume(mt),
	}, true
}

// reversalSignals derives a side's reversal input. It only reports ok when a
// prior drop context exists (opening odds were real and the history's low
// point sits at least the dropping bar below them); without that there is
// nothing to reverse and no record should be logged.
func reversalSignals(history []models.Snapshot, market, side string, minDropPercent float64) (ReversalInput, bool) {
	if len(history) < 3 {
		return ReversalInput{}, false
	}
	mt := models.MarketTypeOf(market)

	openOdds := history[0].Odds(mt, side)
	curOdds := history[len(history)-1].Odds(mt, side)
	if openOdds <= 1.01 || curOdds <= 0 {
		return ReversalInput{}, false
	}

	minOdds := openOdds
	for _, snap := range history {
		if odds := snap.Odds(mt, side); odds > 0 && odds < minOdds {
			minOdds = odds
		}
	}
	if (openOdds-minOdds)/openOdds*100 < minDropPercent {
		return ReversalInput{}, false
	}

	// Retracement: how far current odds have climbed back from the low toward open.
	reversalPct := (curOdds - minOdds) / (openOdds - minOdds) * 100
	if reversalPct < 0 {
		reversalPct = 0
	}

	prev := history[len(history)-2]
	prev2 := history[len(history)-3]
	lastDelta := curOdds - prev.Odds(mt, side)
	prevDelta := prev.Odds(mt, side) - prev2.Odds(mt, side)
	momentumChanged := lastDelta != 0 && prevDelta != 0 &&
		(lastDelta > 0) != (prevDelta > 0)

	cur := history[len(history)-1]
	volumeSwitched := (moneyLeader(prev, mt) == side) != (moneyLeader(cur, mt) == side)

	return ReversalInput{
		Ref:             refFor(history, market, side),
		ReversalPercent: reversalPct,
		MomentumChanged: momentumChanged,
		VolumeSwitched:  volumeSwitched,
	}, true
}

// moneyLeader returns the side holding the largest money share in a snapshot.
func moneyLeader(snap models.Snapshot, mt models.MarketType) string {
	leader := ""
	best := 0.0
	for _, side := range models.Sides(mt) {
		if share := snap.Share(mt, side); share > best {
			best = share
			leader = side
		}
	}
	return leader
}

// dropTracker remembers when each (match, market, side) first cleared the
// dropping bar, so the persistence variant can be fed elapsed minutes. It is
// the engine's explicit state object; the detectors stay stateless.
type dropTracker struct {
	mu      sync.Mutex
	started map[string]time.Time
}

func newDropTracker() *dropTracker {
	return &dropTracker{started: make(map[string]time.Time)}
}

// minutes reports how long the key has been dropping. A decayed drop resets
// the clock.
func (t *dropTracker) minutes(key string, dropping bool, now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !dropping {
		delete(t.started, key)
		return 0
	}
	start, ok := t.started[key]
	if !ok {
		t.started[key] = now
		return 0
	}
	return int(now.Sub(start).Minutes())
}

package engine

import (
	"fmt"

	"github.com/hazardyk27-sudo/smartxflow-sub001/internal/pkg/config"
	"github.com/hazardyk27-sudo/smartxflow-sub001/internal/pkg/models"
)

// SharpClassifier maps a pre-computed sharp-money score to a severity. The
// criteria flags are informational only; gating is done by market volume and
// the score itself. This family has no preview state.
type SharpClassifier struct {
	cfg config.SharpConfig
}

func NewSharpClassifier(cfg config.SharpConfig) *SharpClassifier {
	return &SharpClassifier{cfg: cfg}
}

// SharpInput is one side's pre-computed sharp evaluation.
type SharpInput struct {
	Ref         MatchRef
	Score       float64 // 0-100
	Criteria    models.SharpCriteria
	TotalVolume float64
}

func (c *SharpClassifier) minVolume(mt models.MarketType) float64 {
	switch mt {
	case models.MarketOU25:
		return c.cfg.MinVolumeOU25
	case models.MarketBTTS:
		return c.cfg.MinVolumeBTTS
	default:
		return c.cfg.MinVolume1X2
	}
}

// Classify gates on market volume and score, then bands severity:
// score >= 85 -> 3, >= 50 -> 2, else 1. Returns nil when gated out.
func (c *SharpClassifier) Classify(in SharpInput) *models.AlarmRecord {
	mt := models.MarketTypeOf(in.Ref.Market)
	if in.TotalVolume < c.minVolume(mt) {
		return nil
	}
	if in.Score < c.cfg.MinScore {
		return nil
	}

	severity := 1
	switch {
	case in.Score >= 85:
		severity = 3
	case in.Score >= 50:
		severity = 2
	}

	met := in.Criteria.CountTrue()
	record := buildRecord(recordSpec{
		Ref:      in.Ref,
		Category: models.CategorySharp,
		IsAlarm:  true,
		Severity: severity,
		Score:    in.Score,
		Message: fmt.Sprintf("Sharp money on %s: score %.0f with %.0f total volume (%d/3 signals)",
			in.Ref.Side, in.Score, in.TotalVolume, met),
		Extra: models.SharpExtra{
			Criteria:    in.Criteria,
			CriteriaMet: met,
			AllCriteria: met == 3,
			TotalVolume: in.TotalVolume,
		},
	})
	return &record
}

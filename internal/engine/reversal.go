package engine

import (
	"fmt"

	"github.com/hazardyk27-sudo/smartxflow-sub001/internal/pkg/config"
	"github.com/hazardyk27-sudo/smartxflow-sub001/internal/pkg/models"
)

// ReversalDetector confirms a trend-direction flip with three independent
// criteria, one point each. Unlike the other families it always produces a
// record: unconfirmed flips are logged as attempts so the history shows how
// often a reversal built up without completing.
type ReversalDetector struct {
	cfg config.ReversalConfig
}

func NewReversalDetector(cfg config.ReversalConfig) *ReversalDetector {
	return &ReversalDetector{cfg: cfg}
}

// ReversalInput carries the pre-computed reversal conditions for one side.
type ReversalInput struct {
	Ref             MatchRef
	ReversalPercent float64 // retracement of the drop, in percent
	MomentumChanged bool
	VolumeSwitched  bool
}

// Check scores the three criteria. All three met means a confirmed reversal
// alarm at severity 3; anything less is a logged attempt at severity 1.
func (d *ReversalDetector) Check(in ReversalInput) models.AlarmRecord {
	var details []string
	met := 0
	if in.ReversalPercent >= d.cfg.MinRetracementPercent {
		met++
		details = append(details, fmt.Sprintf("retracement %.1f%%", in.ReversalPercent))
	}
	if in.MomentumChanged {
		met++
		details = append(details, "momentum flipped")
	}
	if in.VolumeSwitched {
		met++
		details = append(details, "volume leader switched")
	}

	confirmed := met == 3

	var message string
	severity := 1
	if confirmed {
		severity = 3
		message = fmt.Sprintf("Reversal confirmed on %s: %.1f%% retracement, momentum flipped, volume switched",
			in.Ref.Side, in.ReversalPercent)
	} else {
		message = fmt.Sprintf("Reversal attempt on %s logged: %d/3 criteria", in.Ref.Side, met)
	}

	return buildRecord(recordSpec{
		Ref:           in.Ref,
		Category:      models.CategoryReversal,
		IsAlarm:       confirmed,
		Severity:      severity,
		Score:         in.ReversalPercent,
		ConditionsMet: met,
		Message:       message,
		Extra: models.ReversalExtra{
			ReversalPercent: in.ReversalPercent,
			MomentumChanged: in.MomentumChanged,
			VolumeSwitched:  in.VolumeSwitched,
			CriteriaDetails: details,
		},
	})
}

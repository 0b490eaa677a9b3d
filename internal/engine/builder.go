package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/hazardyk27-sudo/smartxflow-sub001/internal/pkg/models"
)

// MatchRef identifies what a record is about.
type MatchRef struct {
	MatchID   string
	MatchName string
	Market    string
	Side      string
}

// recordSpec carries the category-specific values a detector hands to the builder.
type recordSpec struct {
	Ref           MatchRef
	Category      string
	IsAlarm       bool
	IsPreview     bool
	Severity      int // defaults to 1
	Score         float64
	ConditionsMet int
	Message       string
	Extra         models.AlarmExtra // defaults to NoExtra
}

// buildRecord assembles the canonical AlarmRecord: fresh id, UTC creation
// timestamp, defaults for everything a detector left unset.
func buildRecord(spec recordSpec) models.AlarmRecord {
	if spec.Severity == 0 {
		spec.Severity = 1
	}
	if spec.Extra == nil {
		spec.Extra = models.NoExtra{}
	}

	return models.AlarmRecord{
		ID:            uuid.NewString(),
		MatchID:       spec.Ref.MatchID,
		MatchName:     spec.Ref.MatchName,
		Market:        spec.Ref.Market,
		Side:          spec.Ref.Side,
		Category:      spec.Category,
		IsAlarm:       spec.IsAlarm,
		IsPreview:     spec.IsPreview,
		Severity:      spec.Severity,
		Score:         spec.Score,
		ConditionsMet: spec.ConditionsMet,
		Message:       spec.Message,
		CreatedAt:     time.Now().UTC(),
		Extra:         spec.Extra,
	}
}

// refFor derives the record identity fields from the most recent snapshot of
// a history. Totally safe on empty histories.
func refFor(history []models.Snapshot, market, side string) MatchRef {
	var last models.Snapshot
	if len(history) > 0 {
		last = history[len(history)-1]
	}
	return MatchRef{
		MatchID:   models.ComputeIdentity(last.Home, last.Away, last.League, last.Kickoff),
		MatchName: last.MatchName(),
		Market:    market,
		Side:      side,
	}
}

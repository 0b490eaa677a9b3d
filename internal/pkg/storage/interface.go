package storage

import (
	"context"
	"time"

	"github.com/hazardyk27-sudo/smartxflow-sub001/internal/pkg/models"
)

// MarketKey identifies one tracked (match, market) history.
type MarketKey struct {
	MatchID string
	Market  string
}

// SnapshotStorage keeps the append-only scrape history per (match, market).
type SnapshotStorage interface {
	// AppendSnapshot appends one observation to the history.
	AppendSnapshot(ctx context.Context, matchID, market string, snap models.Snapshot) error
	// GetHistory returns up to limit most recent snapshots, ascending by scrape time.
	GetHistory(ctx context.Context, matchID, market string, limit int) ([]models.Snapshot, error)
	// ListActiveKeys returns the (match, market) keys with history for matches not yet kicked off.
	ListActiveKeys(ctx context.Context) ([]MarketKey, error)
	// CleanStartedMatches drops history for matches whose kickoff has passed.
	CleanStartedMatches(ctx context.Context) error
	Close() error
}

// AlarmStorage persists alarm records: latest state upserted on the dedup
// triple (match_id, market, side) plus an append-only history.
type AlarmStorage interface {
	StoreAlarm(ctx context.Context, record models.AlarmRecord) error
	// GetLastAlarm returns score and creation time of the latest real alarm
	// (previews excluded) for the key and category; zero values when none exists.
	GetLastAlarm(ctx context.Context, matchID, market, side, category string) (float64, time.Time, error)
	Close() error
}

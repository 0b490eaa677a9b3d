package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/hazardyk27-sudo/smartxflow-sub001/internal/pkg/config"
	"github.com/hazardyk27-sudo/smartxflow-sub001/internal/pkg/models"
	"github.com/hazardyk27-sudo/smartxflow-sub001/internal/pkg/parse"
)

// Ensure PostgresSnapshotStorage implements SnapshotStorage
var _ SnapshotStorage = (*PostgresSnapshotStorage)(nil)

// PostgresSnapshotStorage stores the per-(match, market) scrape history.
type PostgresSnapshotStorage struct {
	db *sql.DB
}

// NewPostgresSnapshotStorage opens the connection and initializes the schema.
func NewPostgresSnapshotStorage(cfg *config.PostgresConfig) (*PostgresSnapshotStorage, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	s := &PostgresSnapshotStorage{db: db}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("PostgreSQL snapshot storage initialized successfully")
	return s, nil
}

func (s *PostgresSnapshotStorage) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id SERIAL PRIMARY KEY,
		match_id VARCHAR(12) NOT NULL,
		market VARCHAR(100) NOT NULL,
		home VARCHAR(200) NOT NULL DEFAULT '',
		away VARCHAR(200) NOT NULL DEFAULT '',
		league VARCHAR(200) NOT NULL DEFAULT '',
		kickoff VARCHAR(100) NOT NULL DEFAULT '',
		kickoff_at TIMESTAMP,
		scraped_at TIMESTAMP NOT NULL,
		fields JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_match_market ON snapshots(match_id, market, scraped_at DESC);
	CREATE INDEX IF NOT EXISTS idx_snapshots_kickoff_at ON snapshots(kickoff_at);
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// AppendSnapshot appends one observation. The history is append-only; cycles
// that re-scrape the same state simply add another row.
func (s *PostgresSnapshotStorage) AppendSnapshot(ctx context.Context, matchID, market string, snap models.Snapshot) error {
	fields, err := json.Marshal(snap.Fields)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot fields: %w", err)
	}

	var kickoffAt sql.NullTime
	if t := parse.Timestamp(snap.Kickoff); !t.IsZero() {
		kickoffAt = sql.NullTime{Time: t, Valid: true}
	}

	query := `
	INSERT INTO snapshots (match_id, market, home, away, league, kickoff, kickoff_at, scraped_at, fields)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.db.ExecContext(ctx, query,
		matchID, market, snap.Home, snap.Away, snap.League, snap.Kickoff, kickoffAt, snap.ScrapedAt, fields,
	)
	if err != nil {
		return fmt.Errorf("failed to append snapshot: %w", err)
	}
	return nil
}

// GetHistory returns up to limit most recent snapshots in ascending scrape order.
func (s *PostgresSnapshotStorage) GetHistory(ctx context.Context, matchID, market string, limit int) ([]models.Snapshot, error) {
	query := `
	SELECT home, away, league, kickoff, scraped_at, fields
	FROM snapshots
	WHERE match_id = $1 AND market = $2
	ORDER BY scraped_at DESC
	LIMIT $3
	`
	rows, err := s.db.QueryContext(ctx, query, matchID, market, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot history: %w", err)
	}
	defer rows.Close()

	var history []models.Snapshot
	for rows.Next() {
		var snap models.Snapshot
		var fields []byte
		if err := rows.Scan(&snap.Home, &snap.Away, &snap.League, &snap.Kickoff, &snap.ScrapedAt, &fields); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if err := json.Unmarshal(fields, &snap.Fields); err != nil {
			return nil, fmt.Errorf("failed to unmarshal snapshot fields: %w", err)
		}
		history = append(history, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w", err)
	}

	// Query is newest-first for the LIMIT; detectors want oldest-first.
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}
	return history, nil
}

// ListActiveKeys returns distinct (match_id, market) keys for matches that
// have not kicked off yet (or whose kickoff could not be parsed).
func (s *PostgresSnapshotStorage) ListActiveKeys(ctx context.Context) ([]MarketKey, error) {
	query := `
	SELECT DISTINCT match_id, market
	FROM snapshots
	WHERE kickoff_at IS NULL OR kickoff_at > NOW()
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active keys: %w", err)
	}
	defer rows.Close()

	var keys []MarketKey
	for rows.Next() {
		var key MarketKey
		if err := rows.Scan(&key.MatchID, &key.Market); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// CleanStartedMatches deletes history for matches that have already started.
func (s *PostgresSnapshotStorage) CleanStartedMatches(ctx context.Context) error {
	query := `DELETE FROM snapshots WHERE kickoff_at IS NOT NULL AND kickoff_at < NOW()`
	res, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to clean snapshots: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows > 0 {
		slog.Info("Cleaned snapshots for started matches", "rows_deleted", rows)
	}
	return nil
}

// Close closes the database connection.
func (s *PostgresSnapshotStorage) Close() error {
	return s.db.Close()
}

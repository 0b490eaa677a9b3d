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
)

// Ensure PostgresAlarmStorage implements AlarmStorage
var _ AlarmStorage = (*PostgresAlarmStorage)(nil)

// PostgresAlarmStorage persists alarm records: alarms_latest is upserted on
// the dedup triple (match_id, market, side) so re-scraped cycles do not
// duplicate rows; alarm_history keeps every record.
type PostgresAlarmStorage struct {
	db *sql.DB
}

// NewPostgresAlarmStorage opens the connection and initializes the schema.
func NewPostgresAlarmStorage(cfg *config.PostgresConfig) (*PostgresAlarmStorage, error) {
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

	s := &PostgresAlarmStorage{db: db}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("PostgreSQL alarm storage initialized successfully")
	return s, nil
}

func (s *PostgresAlarmStorage) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS alarms_latest (
		match_id VARCHAR(12) NOT NULL,
		market VARCHAR(100) NOT NULL,
		side VARCHAR(20) NOT NULL,
		alarm_id VARCHAR(36) NOT NULL,
		match_name VARCHAR(500) NOT NULL DEFAULT '',
		category VARCHAR(30) NOT NULL,
		is_alarm BOOLEAN NOT NULL,
		is_preview BOOLEAN NOT NULL,
		severity SMALLINT NOT NULL,
		score DECIMAL(10, 2) NOT NULL,
		conditions_met SMALLINT NOT NULL DEFAULT 0,
		message TEXT NOT NULL DEFAULT '',
		extra JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (match_id, market, side)
	);

	CREATE TABLE IF NOT EXISTS alarm_history (
		id SERIAL PRIMARY KEY,
		alarm_id VARCHAR(36) NOT NULL,
		match_id VARCHAR(12) NOT NULL,
		market VARCHAR(100) NOT NULL,
		side VARCHAR(20) NOT NULL,
		match_name VARCHAR(500) NOT NULL DEFAULT '',
		category VARCHAR(30) NOT NULL,
		is_alarm BOOLEAN NOT NULL,
		is_preview BOOLEAN NOT NULL,
		severity SMALLINT NOT NULL,
		score DECIMAL(10, 2) NOT NULL,
		conditions_met SMALLINT NOT NULL DEFAULT 0,
		message TEXT NOT NULL DEFAULT '',
		extra JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_alarm_history_key ON alarm_history(match_id, market, side, category, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_alarm_history_created_at ON alarm_history(created_at DESC);
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// StoreAlarm upserts the latest state and appends to history.
func (s *PostgresAlarmStorage) StoreAlarm(ctx context.Context, record models.AlarmRecord) error {
	extra, err := json.Marshal(record.Extra)
	if err != nil {
		return fmt.Errorf("failed to marshal alarm extra: %w", err)
	}

	upsert := `
	INSERT INTO alarms_latest (
		match_id, market, side, alarm_id, match_name, category,
		is_alarm, is_preview, severity, score, conditions_met, message, extra, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	ON CONFLICT (match_id, market, side) DO UPDATE SET
		alarm_id = EXCLUDED.alarm_id,
		match_name = EXCLUDED.match_name,
		category = EXCLUDED.category,
		is_alarm = EXCLUDED.is_alarm,
		is_preview = EXCLUDED.is_preview,
		severity = EXCLUDED.severity,
		score = EXCLUDED.score,
		conditions_met = EXCLUDED.conditions_met,
		message = EXCLUDED.message,
		extra = EXCLUDED.extra,
		created_at = EXCLUDED.created_at
	`
	if _, err := s.db.ExecContext(ctx, upsert,
		record.MatchID, record.Market, record.Side, record.ID, record.MatchName, record.Category,
		record.IsAlarm, record.IsPreview, record.Severity, record.Score, record.ConditionsMet,
		record.Message, extra, record.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to upsert alarm: %w", err)
	}

	insert := `
	INSERT INTO alarm_history (
		alarm_id, match_id, market, side, match_name, category,
		is_alarm, is_preview, severity, score, conditions_met, message, extra, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	if _, err := s.db.ExecContext(ctx, insert,
		record.ID, record.MatchID, record.Market, record.Side, record.MatchName, record.Category,
		record.IsAlarm, record.IsPreview, record.Severity, record.Score, record.ConditionsMet,
		record.Message, extra, record.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to append alarm history: %w", err)
	}

	return nil
}

// GetLastAlarm returns score and creation time of the most recent real alarm
// (previews excluded) for the key and category, zero values when none exists.
func (s *PostgresAlarmStorage) GetLastAlarm(ctx context.Context, matchID, market, side, category string) (float64, time.Time, error) {
	query := `
	SELECT score, created_at FROM alarm_history
	WHERE match_id = $1 AND market = $2 AND side = $3 AND category = $4 AND is_alarm = TRUE
	ORDER BY created_at DESC
	LIMIT 1
	`
	var score float64
	var createdAt time.Time
	err := s.db.QueryRowContext(ctx, query, matchID, market, side, category).Scan(&score, &createdAt)
	if err == sql.ErrNoRows {
		return 0, time.Time{}, nil
	}
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to get last alarm: %w", err)
	}
	return score, createdAt, nil
}

// Close closes the database connection.
func (s *PostgresAlarmStorage) Close() error {
	return s.db.Close()
}

package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hazardyk27-sudo/smartxflow-sub001/internal/pkg/config"
	"github.com/hazardyk27-sudo/smartxflow-sub001/internal/pkg/models"
	"github.com/hazardyk27-sudo/smartxflow-sub001/internal/pkg/parse"
	"github.com/hazardyk27-sudo/smartxflow-sub001/internal/pkg/storage"
)

const (
	defaultInterval      = 10 * time.Minute
	defaultWorkers       = 8
	defaultHistoryWindow = 24
	defaultAlarmCooldown = 60 * time.Minute
)

// AlarmNotifier delivers one alarm record to the outside world.
type AlarmNotifier interface {
	SendAlarm(ctx context.Context, record models.AlarmRecord) error
}

type notifiedRecord struct {
	Severity int
	SentAt   time.Time
}

// Engine pulls snapshot histories from storage, runs all detector families
// over them and hands the resulting alarm records to storage and the
// notifier. Evaluations of different (match, market) keys are independent
// and fanned out over a bounded worker pool.
type Engine struct {
	cfg       config.EngineConfig
	snapshots storage.SnapshotStorage
	alarms    storage.AlarmStorage
	fetcher   *HTTPSnapshotClient
	notifier  AlarmNotifier

	dropping *DroppingDetector
	momentum *MomentumDetector
	freeze   *FreezeDetector
	reversal *ReversalDetector
	sharp    *SharpClassifier

	drops *dropTracker

	mu       sync.Mutex
	notified map[string]notifiedRecord
}

func New(cfg config.EngineConfig, snapshots storage.SnapshotStorage, alarms storage.AlarmStorage, notifier AlarmNotifier) *Engine {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = defaultHistoryWindow
	}
	if cfg.AlarmCooldown <= 0 {
		cfg.AlarmCooldown = defaultAlarmCooldown
	}
	cfg.Detectors.Normalize()

	var fetcher *HTTPSnapshotClient
	if cfg.FetcherURL != "" {
		fetcher = NewHTTPSnapshotClient(cfg.FetcherURL)
	}

	return &Engine{
		cfg:       cfg,
		snapshots: snapshots,
		alarms:    alarms,
		fetcher:   fetcher,
		notifier:  notifier,
		dropping:  NewDroppingDetector(cfg.Detectors.Dropping),
		momentum:  NewMomentumDetector(cfg.Detectors.Momentum),
		freeze:    NewFreezeDetector(cfg.Detectors.Freeze),
		reversal:  NewReversalDetector(cfg.Detectors.Reversal),
		sharp:     NewSharpClassifier(cfg.Detectors.Sharp),
		drops:     newDropTracker(),
		notified:  make(map[string]notifiedRecord),
	}
}

// Start runs the evaluation loop until the context is cancelled. The first
// cycle runs immediately.
func (e *Engine) Start(ctx context.Context) error {
	slog.Info("Engine starting", "interval", e.cfg.Interval, "workers", e.cfg.Workers)

	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	e.runCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.Info("Engine stopping")
			return nil
		case <-ticker.C:
			e.runCycle(ctx)
		}
	}
}

func (e *Engine) runCycle(ctx context.Context) {
	start := time.Now()

	if e.fetcher != nil {
		if err := e.ingest(ctx); err != nil {
			slog.Error("Failed to ingest snapshots", "error", err)
		}
	}

	if err := e.snapshots.CleanStartedMatches(ctx); err != nil {
		slog.Warn("Failed to clean started matches", "error", err)
	}

	keys, err := e.snapshots.ListActiveKeys(ctx)
	if err != nil {
		slog.Error("Failed to list active keys", "error", err)
		return
	}

	var (
		wg      sync.WaitGroup
		sem     = make(chan struct{}, e.cfg.Workers)
		mu      sync.Mutex
		emitted int
	)
	for _, key := range keys {
		wg.Add(1)
		sem <- struct{}{}
		go func(key storage.MarketKey) {
			defer wg.Done()
			defer func() { <-sem }()
			n := e.evaluateKey(ctx, key)
			mu.Lock()
			emitted += n
			mu.Unlock()
		}(key)
	}
	wg.Wait()

	slog.Info("Evaluation cycle complete",
		"keys", len(keys), "records", emitted, "duration", time.Since(start))
}

// ingest pulls fresh snapshots from the scraper and appends them to history.
func (e *Engine) ingest(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows, err := e.fetcher.GetSnapshots(reqCtx)
	if err != nil {
		return err
	}

	stored := 0
	for _, row := range rows {
		snap := models.Snapshot{
			Home:      row.Home,
			Away:      row.Away,
			League:    row.League,
			Kickoff:   row.Kickoff,
			ScrapedAt: parse.Timestamp(row.ScrapedAt),
			Fields:    row.Fields,
		}
		if snap.ScrapedAt.IsZero() {
			snap.ScrapedAt = time.Now().UTC()
		}
		matchID := models.ComputeIdentity(snap.Home, snap.Away, snap.League, snap.Kickoff)
		if err := e.snapshots.AppendSnapshot(ctx, matchID, row.Market, snap); err != nil {
			slog.Warn("Failed to append snapshot", "match_id", matchID, "market", row.Market, "error", err)
			continue
		}
		stored++
	}
	slog.Info("Ingested snapshots", "fetched", len(rows), "stored", stored)
	return nil
}

func (e *Engine) evaluateKey(ctx context.Context, key storage.MarketKey) int {
	history, err := e.snapshots.GetHistory(ctx, key.MatchID, key.Market, e.cfg.HistoryWindow)
	if err != nil {
		slog.Error("Failed to load history", "match_id", key.MatchID, "market", key.Market, "error", err)
		return 0
	}

	records := e.EvaluateHistory(history, key.Market, time.Now().UTC())

	for _, record := range records {
		if err := e.alarms.StoreAlarm(ctx, record); err != nil {
			slog.Error("Failed to store alarm", "alarm_id", record.ID, "error", err)
		}
		if e.shouldNotify(ctx, record) {
			if err := e.notifier.SendAlarm(ctx, record); err != nil {
				slog.Error("Failed to send alarm", "alarm_id", record.ID, "error", err)
				continue
			}
			e.markNotified(record)
		}
	}
	return len(records)
}

// EvaluateHistory runs every detector family over one (match, market)
// history. The history is sorted oldest-first before evaluation; the call is
// total and emits zero records on short or malformed histories.
func (e *Engine) EvaluateHistory(history []models.Snapshot, market string, now time.Time) []models.AlarmRecord {
	if len(history) == 0 {
		return nil
	}
	models.SortHistory(history)
	mt := models.MarketTypeOf(market)

	var records []models.AlarmRecord

	records = append(records, e.dropping.CheckOpenDrop(history, market)...)

	for _, side := range models.Sides(mt) {
		ref := refFor(history, market, side)

		dropPct := openDropPercent(history, mt, side)
		trackKey := ref.MatchID + "|" + market + "|" + side
		dropping := dropPct >= e.cfg.Detectors.Dropping.MinDropPercent
		minutes := e.drops.minutes(trackKey, dropping, now)
		if dropping {
			if record := e.dropping.CheckPersistentDrop(ref, dropPct, minutes); record != nil {
				records = append(records, *record)
			}
		}

		if record := e.momentum.Check(history, market, side); record != nil {
			records = append(records, *record)
		}
		if record := e.freeze.Check(history, market, side); record != nil {
			records = append(records, *record)
		}
		if in, ok := sharpSignals(history, market, side); ok {
			if record := e.sharp.Classify(in); record != nil {
				records = append(records, *record)
			}
		}
		if in, ok := reversalSignals(history, market, side, e.cfg.Detectors.Dropping.MinDropPercent); ok {
			records = append(records, e.reversal.Check(in))
		}
	}

	return records
}

// shouldNotify applies the alarm cooldown per (match, market, side, category).
// A severity escalation breaks through the cooldown. Previews and logged
// attempts are stored but never notified.
func (e *Engine) shouldNotify(ctx context.Context, record models.AlarmRecord) bool {
	if e.notifier == nil || !record.IsAlarm {
		return false
	}
	key := notifyKey(record)

	e.mu.Lock()
	last, ok := e.notified[key]
	e.mu.Unlock()
	if ok {
		if time.Since(last.SentAt) < e.cfg.AlarmCooldown && record.Severity <= last.Severity {
			return false
		}
		return true
	}

	// Fresh start: fall back to the last persisted alarm for this key.
	score, sentAt, err := e.alarms.GetLastAlarm(ctx, record.MatchID, record.Market, record.Side, record.Category)
	if err != nil {
		slog.Debug("GetLastAlarm failed", "match_id", record.MatchID, "error", err)
		// Better a duplicate than a missed alarm.
		return true
	}
	if !sentAt.IsZero() && time.Since(sentAt) < e.cfg.AlarmCooldown && record.Score <= score {
		return false
	}
	return true
}

func (e *Engine) markNotified(record models.AlarmRecord) {
	e.mu.Lock()
	e.notified[notifyKey(record)] = notifiedRecord{
		Severity: record.Severity,
		SentAt:   time.Now(),
	}
	e.mu.Unlock()
}

func notifyKey(record models.AlarmRecord) string {
	return record.MatchID + "|" + record.Market + "|" + record.Side + "|" + record.Category
}

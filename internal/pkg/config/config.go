package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Postgres PostgresConfig `yaml:"postgres"`
	Logging  LoggingConfig  `yaml:"logging"`
	Engine   EngineConfig   `yaml:"engine"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`     // debug, info, warn, error (default: info)
	JSONFile string `yaml:"json_file"` // optional path for an additional JSON log file
}

type EngineConfig struct {
	FetcherURL       string        `yaml:"fetcher_url"`       // URL of the scraper's /snapshots endpoint
	Interval         time.Duration `yaml:"interval"`          // evaluation cycle interval (default: 10m)
	Workers          int           `yaml:"workers"`           // parallel (match, market) evaluations (default: 8)
	HistoryWindow    int           `yaml:"history_window"`    // max snapshots pulled per (match, market) (default: 24)
	AlarmCooldown    time.Duration `yaml:"alarm_cooldown"`    // min time between repeated alarms for same key (default: 60m)
	TelegramBotToken string        `yaml:"telegram_bot_token"`
	TelegramChatID   int64         `yaml:"telegram_chat_id"`

	Detectors DetectorConfig `yaml:"detectors"`
}

// DetectorConfig holds per-family thresholds. Zero values are replaced with
// defaults in Normalize, so a partial config keeps the standard behavior.
type DetectorConfig struct {
	Dropping DroppingConfig `yaml:"dropping"`
	Momentum MomentumConfig `yaml:"momentum"`
	Freeze   FreezeConfig   `yaml:"freeze"`
	Reversal ReversalConfig `yaml:"reversal"`
	Sharp    SharpConfig    `yaml:"sharp"`
}

type DroppingConfig struct {
	MinDropPercent     float64 `yaml:"min_drop_percent"`     // open-vs-current emission bar (default: 7.0)
	PersistenceMinutes int     `yaml:"persistence_minutes"`  // promotion gate for the level variant (default: 30)
}

type MomentumConfig struct {
	MoneyThreshold1X2  float64 `yaml:"money_threshold_1x2"`  // default: 1000
	MoneyThresholdOU25 float64 `yaml:"money_threshold_ou25"` // default: 750
	MoneyThresholdBTTS float64 `yaml:"money_threshold_btts"` // default: 500
	MinShare           float64 `yaml:"min_share"`            // default: 6.0
	MinShareChange     float64 `yaml:"min_share_change"`     // default: 7.0
	MinOddsDrop        float64 `yaml:"min_odds_drop"`        // default: 4.0
	MinCriteria        int     `yaml:"min_criteria"`         // default: 2
}

type FreezeConfig struct {
	OddsTolerance   float64 `yaml:"odds_tolerance"`    // max odds delta still counted as frozen (default: 0.02)
	StepMinutes     int     `yaml:"step_minutes"`      // minutes per stable update (default: 10)
	MinDuration     int     `yaml:"min_duration"`      // default: 20
	MinNewMoney     float64 `yaml:"min_new_money"`     // default: 1500
	MinShare        float64 `yaml:"min_share"`         // default: 6.0
	MarketMovement  float64 `yaml:"market_movement"`   // L2 movement bonus bar (default: 2.0)
}

type ReversalConfig struct {
	MinRetracementPercent float64 `yaml:"min_retracement_percent"` // default: 50
}

type SharpConfig struct {
	MinVolume1X2  float64 `yaml:"min_volume_1x2"`  // default: 5000
	MinVolumeOU25 float64 `yaml:"min_volume_ou25"` // default: 3000
	MinVolumeBTTS float64 `yaml:"min_volume_btts"` // default: 2000
	MinScore      float64 `yaml:"min_score"`       // default: 20
}

// DefaultDetectorConfig returns the threshold table the detectors were tuned with.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		Dropping: DroppingConfig{
			MinDropPercent:     7.0,
			PersistenceMinutes: 30,
		},
		Momentum: MomentumConfig{
			MoneyThreshold1X2:  1000,
			MoneyThresholdOU25: 750,
			MoneyThresholdBTTS: 500,
			MinShare:           6.0,
			MinShareChange:     7.0,
			MinOddsDrop:        4.0,
			MinCriteria:        2,
		},
		Freeze: FreezeConfig{
			OddsTolerance:  0.02,
			StepMinutes:    10,
			MinDuration:    20,
			MinNewMoney:    1500,
			MinShare:       6.0,
			MarketMovement: 2.0,
		},
		Reversal: ReversalConfig{
			MinRetracementPercent: 50,
		},
		Sharp: SharpConfig{
			MinVolume1X2:  5000,
			MinVolumeOU25: 3000,
			MinVolumeBTTS: 2000,
			MinScore:      20,
		},
	}
}

// Normalize fills zero-valued thresholds with defaults.
func (c *DetectorConfig) Normalize() {
	def := DefaultDetectorConfig()
	if c.Dropping.MinDropPercent <= 0 {
		c.Dropping.MinDropPercent = def.Dropping.MinDropPercent
	}
	if c.Dropping.PersistenceMinutes <= 0 {
		c.Dropping.PersistenceMinutes = def.Dropping.PersistenceMinutes
	}
	if c.Momentum.MoneyThreshold1X2 <= 0 {
		c.Momentum.MoneyThreshold1X2 = def.Momentum.MoneyThreshold1X2
	}
	if c.Momentum.MoneyThresholdOU25 <= 0 {
		c.Momentum.MoneyThresholdOU25 = def.Momentum.MoneyThresholdOU25
	}
	if c.Momentum.MoneyThresholdBTTS <= 0 {
		c.Momentum.MoneyThresholdBTTS = def.Momentum.MoneyThresholdBTTS
	}
	if c.Momentum.MinShare <= 0 {
		c.Momentum.MinShare = def.Momentum.MinShare
	}
	if c.Momentum.MinShareChange <= 0 {
		c.Momentum.MinShareChange = def.Momentum.MinShareChange
	}
	if c.Momentum.MinOddsDrop <= 0 {
		c.Momentum.MinOddsDrop = def.Momentum.MinOddsDrop
	}
	if c.Momentum.MinCriteria <= 0 {
		c.Momentum.MinCriteria = def.Momentum.MinCriteria
	}
	if c.Freeze.OddsTolerance <= 0 {
		c.Freeze.OddsTolerance = def.Freeze.OddsTolerance
	}
	if c.Freeze.StepMinutes <= 0 {
		c.Freeze.StepMinutes = def.Freeze.StepMinutes
	}
	if c.Freeze.MinDuration <= 0 {
		c.Freeze.MinDuration = def.Freeze.MinDuration
	}
	if c.Freeze.MinNewMoney <= 0 {
		c.Freeze.MinNewMoney = def.Freeze.MinNewMoney
	}
	if c.Freeze.MinShare <= 0 {
		c.Freeze.MinShare = def.Freeze.MinShare
	}
	if c.Freeze.MarketMovement <= 0 {
		c.Freeze.MarketMovement = def.Freeze.MarketMovement
	}
	if c.Reversal.MinRetracementPercent <= 0 {
		c.Reversal.MinRetracementPercent = def.Reversal.MinRetracementPercent
	}
	if c.Sharp.MinVolume1X2 <= 0 {
		c.Sharp.MinVolume1X2 = def.Sharp.MinVolume1X2
	}
	if c.Sharp.MinVolumeOU25 <= 0 {
		c.Sharp.MinVolumeOU25 = def.Sharp.MinVolumeOU25
	}
	if c.Sharp.MinVolumeBTTS <= 0 {
		c.Sharp.MinVolumeBTTS = def.Sharp.MinVolumeBTTS
	}
	if c.Sharp.MinScore <= 0 {
		c.Sharp.MinScore = def.Sharp.MinScore
	}
}

func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.Engine.Detectors.Normalize()

	return &config, nil
}

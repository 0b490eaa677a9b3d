package models

import "time"

// Alarm categories, one per detector family.
const (
	CategorySharp         = "sharp"
	CategoryDropping      = "dropping"
	CategoryReversal      = "reversal"
	CategoryMomentumSpike = "momentum_spike"
	CategoryLineFreeze    = "line_freeze"
)

// AlarmRecord is the canonical output shared by all detector families.
// Records are immutable once built; repeated detections produce new records
// that downstream dedup correlates via (match_id, market, side).
type AlarmRecord struct {
	ID      string `json:"id"`
	MatchID string `json:"match_id"`
	Market  string `json:"market"` // e.g. moneyway_1x2, dropping_ou25
	Side    string `json:"side"`

	Category  string `json:"category"`
	IsAlarm   bool   `json:"is_alarm"`   // counts as a real, user-facing alert
	IsPreview bool   `json:"is_preview"` // logged but not yet promoted
	Severity  int    `json:"severity"`   // 1-3

	Score         float64 `json:"score"`          // category-specific unit (percent, minutes, raw score)
	ConditionsMet int     `json:"conditions_met"` // meaningful for reversal only

	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"created_at"`
	Extra     AlarmExtra `json:"extra"`

	MatchName string `json:"match_name,omitempty"`
}

// AlarmExtra carries the criteria breakdown that produced a record. Each
// family attaches its own struct, so the fields are statically checked while
// the wire representation stays one string-keyed document.
type AlarmExtra interface {
	isAlarmExtra()
}

// NoExtra marshals to an empty document; used when a family has nothing to add.
type NoExtra struct{}

// DroppingExtra covers both dropping variants. The open-vs-current variant
// fills DropValue/SelectionVolume/DroppingSidesCount; the persistence variant
// fills MinutesPersisted/Level/LevelLabel.
type DroppingExtra struct {
	DropPercent        float64 `json:"drop_pct"`
	DropValue          float64 `json:"drop_value,omitempty"`
	SelectionVolume    float64 `json:"selection_volume,omitempty"`
	DroppingSidesCount int     `json:"dropping_sides_count,omitempty"`
	MinutesPersisted   int     `json:"minutes_persisted,omitempty"`
	Level              int     `json:"level,omitempty"`
	LevelLabel         string  `json:"level_label,omitempty"`
}

type MomentumExtra struct {
	NewMoney        float64  `json:"new_money"`
	ShareNow        float64  `json:"share_now"`
	ShareChange     float64  `json:"pct_change"`
	OddsDropPercent float64  `json:"odds_drop"`
	CriteriaFired   []string `json:"criteria_fired"`
	Level           int      `json:"momentum_level"`
}

type FreezeExtra struct {
	FreezeDuration int     `json:"freeze_duration"` // minutes
	NewMoney       float64 `json:"new_money"`
	ShareNow       float64 `json:"share_now"`
	MarketMovement float64 `json:"market_movement"`
	Level          int     `json:"freeze_level"`
}

type ReversalExtra struct {
	ReversalPercent float64  `json:"reversal_pct"`
	MomentumChanged bool     `json:"momentum_changed"`
	VolumeSwitched  bool     `json:"volume_switched"`
	CriteriaDetails []string `json:"criteria_details"` // satisfied criteria, fixed order
}

// SharpCriteria is the closed set of informational sharp-money flags. They
// never gate a record; severity comes from the score alone.
type SharpCriteria struct {
	VolumeShock bool `json:"volume_shock"`
	OddsDrop    bool `json:"odds_drop"`
	ShareShift  bool `json:"share_shift"`
}

func (c SharpCriteria) CountTrue() int {
	n := 0
	for _, v := range []bool{c.VolumeShock, c.OddsDrop, c.ShareShift} {
		if v {
			n++
		}
	}
	return n
}

type SharpExtra struct {
	Criteria    SharpCriteria `json:"criteria"`
	CriteriaMet int           `json:"criteria_met"`
	AllCriteria bool          `json:"all_criteria"`
	TotalVolume float64       `json:"total_volume"`
}

func (NoExtra) isAlarmExtra()       {}
func (DroppingExtra) isAlarmExtra() {}
func (MomentumExtra) isAlarmExtra() {}
func (FreezeExtra) isAlarmExtra()   {}
func (ReversalExtra) isAlarmExtra() {}
func (SharpExtra) isAlarmExtra()    {}

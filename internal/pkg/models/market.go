package models

import "strings"

// MarketType is the structural kind of a market, independent of the tracking
// family carried in the full market name ("moneyway_1x2", "dropping_ou25", ...).
type MarketType string

const (
	Market1X2  MarketType = "1x2"
	MarketOU25 MarketType = "ou25"
	MarketBTTS MarketType = "btts"
)

// SideFields names the snapshot fields holding one side's wagered amount,
// decimal odds and money share.
type SideFields struct {
	Amount string
	Odds   string
	Share  string
}

var marketSides = map[MarketType][]string{
	Market1X2:  {"1", "X", "2"},
	MarketOU25: {"Over", "Under"},
	MarketBTTS: {"Yes", "No"},
}

// The over/under odds fields are named after the side itself on the upstream
// site, unlike 1x2 and btts which carry an Odds prefix.
var marketFields = map[MarketType]map[string]SideFields{
	Market1X2: {
		"1": {Amount: "Amt1", Odds: "Odds1", Share: "Pct1"},
		"X": {Amount: "AmtX", Odds: "OddsX", Share: "PctX"},
		"2": {Amount: "Amt2", Odds: "Odds2", Share: "Pct2"},
	},
	MarketOU25: {
		"Over":  {Amount: "AmtOver", Odds: "Over", Share: "PctOver"},
		"Under": {Amount: "AmtUnder", Odds: "Under", Share: "PctUnder"},
	},
	MarketBTTS: {
		"Yes": {Amount: "AmtYes", Odds: "OddsYes", Share: "PctYes"},
		"No":  {Amount: "AmtNo", Odds: "OddsNo", Share: "PctNo"},
	},
}

// MarketTypeOf extracts the market type from a full market name such as
// "moneyway_1x2" or "dropping_ou25". Unknown names fall back to 1x2.
func MarketTypeOf(market string) MarketType {
	name := market
	if i := strings.LastIndex(market, "_"); i >= 0 {
		name = market[i+1:]
	}
	switch MarketType(strings.ToLower(strings.TrimSpace(name))) {
	case MarketOU25:
		return MarketOU25
	case MarketBTTS:
		return MarketBTTS
	default:
		return Market1X2
	}
}

// Sides returns the ordered side tokens of a market type.
func Sides(mt MarketType) []string {
	if sides, ok := marketSides[mt]; ok {
		return sides
	}
	return marketSides[Market1X2]
}

// FieldsFor resolves the field names carrying a side's values. Unknown market
// types fall back to the 1x2 table; an unknown side yields empty field names,
// which read as zero values from any snapshot.
func FieldsFor(mt MarketType, side string) SideFields {
	fields, ok := marketFields[mt]
	if !ok {
		fields = marketFields[Market1X2]
	}
	return fields[side]
}

package model

import (
	"fmt"
	"strings"
)

// FlagName names one entry of the flag vocabulary.
type FlagName string

const (
	FlagMoved         FlagName = "moved"
	FlagMondayMoved   FlagName = "monday_moved"
	FlagHiddenMileage FlagName = "hidden_mileage"
	FlagNotClosed     FlagName = "not_closed"
	FlagLowRPM        FlagName = "low_rpm"
	FlagNewStart      FlagName = "new_start"
	FlagGoodMove      FlagName = "good_move"
	FlagBadMove       FlagName = "bad_move"
)

// AllFlags lists the vocabulary in display order.
var AllFlags = []FlagName{
	FlagMoved, FlagMondayMoved, FlagHiddenMileage, FlagNotClosed,
	FlagLowRPM, FlagNewStart, FlagGoodMove, FlagBadMove,
}

// Thresholds configures the flag engine.
type Thresholds struct {
	MovedLoadThreshold     float64            `json:"movedLoadThreshold" yaml:"movedLoadThreshold" mapstructure:"moved_load_threshold"`
	NotClosedDaysThreshold int                `json:"notClosedDaysThreshold" yaml:"notClosedDaysThreshold" mapstructure:"not_closed_days_threshold"`
	LowRPMThreshold        float64            `json:"lowRpmThreshold" yaml:"lowRpmThreshold" mapstructure:"low_rpm_threshold"`
	GoodMoveThresholds     GoodMoveThresholds `json:"goodMoveThresholds" yaml:"goodMoveThresholds" mapstructure:"good_move_thresholds"`
}

// GoodMoveThresholds holds the weekly gross limit used to judge a moved load.
type GoodMoveThresholds struct {
	Default    float64            `json:"default" yaml:"default" mapstructure:"default"`
	ByContract map[string]float64 `json:"by_contract,omitempty" yaml:"by_contract,omitempty" mapstructure:"by_contract"`
}

// For returns the contract-specific limit, falling back to the default.
// Contract types match case-insensitively.
func (g GoodMoveThresholds) For(contractType string) float64 {
	ct := strings.TrimSpace(contractType)
	if ct != "" {
		if v, ok := g.ByContract[ct]; ok {
			return v
		}
		for k, v := range g.ByContract {
			if strings.EqualFold(k, ct) {
				return v
			}
		}
	}
	return g.Default
}

// DefaultThresholds is the configuration used when nothing else is supplied.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MovedLoadThreshold:     600,
		NotClosedDaysThreshold: 7,
		LowRPMThreshold:        1.65,
		GoodMoveThresholds:     GoodMoveThresholds{Default: 5000},
	}
}

// Validate rejects negative limits.
func (t Thresholds) Validate() error {
	if t.MovedLoadThreshold < 0 {
		return fmt.Errorf("movedLoadThreshold must be >= 0")
	}
	if t.NotClosedDaysThreshold < 0 {
		return fmt.Errorf("notClosedDaysThreshold must be >= 0")
	}
	if t.LowRPMThreshold < 0 {
		return fmt.Errorf("lowRpmThreshold must be >= 0")
	}
	if t.GoodMoveThresholds.Default < 0 {
		return fmt.Errorf("goodMoveThresholds.default must be >= 0")
	}
	for k, v := range t.GoodMoveThresholds.ByContract {
		if v < 0 {
			return fmt.Errorf("goodMoveThresholds.by_contract[%s] must be >= 0", k)
		}
	}
	return nil
}

// Direction selects which endpoint of a load anchors geographic aggregation.
type Direction string

const (
	// Inbound anchors on the drop-off coordinates.
	Inbound Direction = "inbound"
	// Outbound anchors on the pickup coordinates.
	Outbound Direction = "outbound"
)

// ParseDirection accepts "inbound" or "outbound" in any case.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case Inbound:
		return Inbound, nil
	case Outbound:
		return Outbound, nil
	}
	return "", fmt.Errorf("invalid direction: %q (allowed: inbound, outbound)", s)
}

// Endpoint is one side of a load: its location label and coordinates.
type Endpoint struct {
	Location string
	Lat      Coord
	Lon      Coord
}

// Anchor returns the endpoint a direction clusters on and the opposite one.
func (l Load) Anchor(d Direction) (anchor, other Endpoint) {
	pu := Endpoint{Location: l.PuLocation, Lat: l.PuLatitude, Lon: l.PuLongitude}
	do := Endpoint{Location: l.DoLocation, Lat: l.DoLatitude, Lon: l.DoLongitude}
	if d == Inbound {
		return do, pu
	}
	return pu, do
}

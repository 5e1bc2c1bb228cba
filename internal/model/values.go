package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// LoadID accepts both string and numeric identifiers.
type LoadID string

func (id *LoadID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*id = LoadID(strings.TrimSpace(v))
		return nil
	}
	*id = LoadID(s)
	return nil
}

func (id *LoadID) UnmarshalText(b []byte) error {
	*id = LoadID(strings.TrimSpace(string(b)))
	return nil
}

func (id LoadID) String() string { return string(id) }

// Number is a float that tolerates the formats spreadsheet exports produce:
// JSON numbers, quoted numbers, "$1,200.50", empty strings and null. Anything
// unparseable decodes as 0.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*n = 0
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		s = v
	}
	f, _ := parseNumber(s)
	*n = Number(f)
	return nil
}

func (n *Number) UnmarshalText(b []byte) error {
	f, _ := parseNumber(string(b))
	*n = Number(f)
	return nil
}

// Coord is a latitude or longitude that remembers whether it parsed.
type Coord struct {
	Deg   float64
	Valid bool
}

// NewCoord returns a valid coordinate.
func NewCoord(deg float64) Coord { return Coord{Deg: deg, Valid: finite(deg)} }

func (c *Coord) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*c = Coord{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		s = v
	}
	return c.UnmarshalText([]byte(s))
}

func (c *Coord) UnmarshalText(b []byte) error {
	f, ok := parseNumber(string(b))
	*c = Coord{Deg: f, Valid: ok}
	return nil
}

func (c Coord) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(c.Deg)
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("$", "", ",", "").Replace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || !finite(f) {
		return 0, false
	}
	return f, true
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

var dateLayouts = []string{"2006-01-02", "1/2/2006", "01/02/2006"}

// ParseDate extracts the calendar date of an ISO date or date-time string and
// returns it as UTC midnight. Only the date part is significant.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if len(s) >= 10 && s[4] == '-' {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return t, true
		}
		return time.Time{}, false
	}
	datePart := s
	if i := strings.IndexAny(s, " T"); i > 0 {
		datePart = s[:i]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, datePart); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ClockPart returns the explicit clock value, or the time part of the date
// string when clock is blank.
func ClockPart(clock, date string) string {
	clock = strings.TrimSpace(clock)
	if clock != "" {
		return clock
	}
	date = strings.TrimSpace(date)
	if i := strings.IndexAny(date, "T "); i > 0 && i+1 < len(date) {
		return strings.TrimSpace(date[i+1:])
	}
	return ""
}

// clockOffset returns the time of day from an explicit HH:MM[:SS] value, or
// from the time part of the date string when no explicit value is given.
func clockOffset(clock, date string) time.Duration {
	clock = ClockPart(clock, date)
	if clock == "" {
		return 0
	}
	for _, layout := range []string{"15:04:05", "15:04", "3:04 PM", "3:04PM"} {
		n := len(layout)
		if layout[0] == '3' {
			n = len(clock)
		}
		if len(clock) < n {
			continue
		}
		if t, err := time.Parse(layout, clock[:n]); err == nil {
			return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second
		}
	}
	return 0
}

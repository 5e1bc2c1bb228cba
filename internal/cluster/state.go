package cluster

import (
	"regexp"
	"sort"
	"strings"

	"dispatchboard/internal/model"
	"dispatchboard/internal/team"
)

var stateRe = regexp.MustCompile(`,\s*([A-Za-z]{2})\s*$`)

// StateCode extracts the trailing two-letter code of a "City, ST" location.
func StateCode(location string) (string, bool) {
	m := stateRe.FindStringSubmatch(location)
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]), true
}

// StateSummary describes the loads anchored in one state or province.
type StateSummary struct {
	State       string   `json:"state"`
	Name        string   `json:"name,omitempty"`
	LoadVolume  int      `json:"loadVolume"`
	AvgRPM      float64  `json:"avgRPM"`
	Teams       []string `json:"teams"`
	Dispatchers []string `json:"dispatchers"`
}

type stateAcc struct {
	count int
	rpms  []float64
	teams orderedSet
	disps orderedSet
}

// AggregateByState groups loads by the state code of the direction's anchor
// location. Results are ordered by state code.
func AggregateByState(loads []model.Load, dir model.Direction) []StateSummary {
	out, _ := AggregateByStateWithDiagnostics(loads, dir)
	return out
}

// AggregateByStateWithDiagnostics is AggregateByState plus skipped-row counts.
func AggregateByStateWithDiagnostics(loads []model.Load, dir model.Direction) ([]StateSummary, Diagnostics) {
	diag := Diagnostics{Considered: len(loads)}
	out := []StateSummary{}
	if dir != model.Inbound && dir != model.Outbound {
		diag.Skipped = len(loads)
		return out, diag
	}
	states := map[string]*stateAcc{}
	for _, l := range loads {
		anchor, _ := l.Anchor(dir)
		code, ok := StateCode(anchor.Location)
		if !ok {
			diag.Skipped++
			continue
		}
		acc := states[code]
		if acc == nil {
			acc = &stateAcc{}
			states[code] = acc
		}
		acc.count++
		if rpm := l.RPM(); rpm > 0 {
			acc.rpms = append(acc.rpms, rpm)
		}
		acc.teams.add(team.Resolve(l.Team, l.CompanyName))
		acc.disps.add(l.Dispatcher)
	}
	for code, acc := range states {
		out = append(out, StateSummary{
			State:       code,
			Name:        stateNames[code],
			LoadVolume:  acc.count,
			AvgRPM:      Median(acc.rpms),
			Teams:       acc.teams.list(),
			Dispatchers: acc.disps.list(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].State < out[j].State })
	return out, diag
}

var stateNames = map[string]string{
	"AK": "Alaska", "AL": "Alabama", "AR": "Arkansas", "AZ": "Arizona",
	"CA": "California", "CO": "Colorado", "CT": "Connecticut", "DC": "District of Columbia",
	"DE": "Delaware", "FL": "Florida", "GA": "Georgia", "HI": "Hawaii",
	"IA": "Iowa", "ID": "Idaho", "IL": "Illinois", "IN": "Indiana",
	"KS": "Kansas", "KY": "Kentucky", "LA": "Louisiana", "MA": "Massachusetts",
	"MD": "Maryland", "ME": "Maine", "MI": "Michigan", "MN": "Minnesota",
	"MO": "Missouri", "MS": "Mississippi", "MT": "Montana", "NC": "North Carolina",
	"ND": "North Dakota", "NE": "Nebraska", "NH": "New Hampshire", "NJ": "New Jersey",
	"NM": "New Mexico", "NV": "Nevada", "NY": "New York", "OH": "Ohio",
	"OK": "Oklahoma", "OR": "Oregon", "PA": "Pennsylvania", "RI": "Rhode Island",
	"SC": "South Carolina", "SD": "South Dakota", "TN": "Tennessee", "TX": "Texas",
	"UT": "Utah", "VA": "Virginia", "VT": "Vermont", "WA": "Washington",
	"WI": "Wisconsin", "WV": "West Virginia", "WY": "Wyoming",

	// Canada
	"AB": "Alberta", "BC": "British Columbia", "MB": "Manitoba", "NB": "New Brunswick",
	"NL": "Newfoundland and Labrador", "NS": "Nova Scotia", "ON": "Ontario",
	"PE": "Prince Edward Island", "QC": "Quebec", "SK": "Saskatchewan",
}

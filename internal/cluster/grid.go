// Package cluster reduces load collections into geographic aggregates for
// map rendering: fixed-size grid cells and US states.
//
// Rows whose anchor coordinates or state cannot be parsed are skipped, never
// reported as errors; Diagnostics counts them.
package cluster

import (
	"fmt"
	"math"

	"dispatchboard/internal/model"
	"dispatchboard/internal/team"
)

// Grid sizes outside [MinGridSize, MaxGridSize] degrees are rejected.
const (
	MinGridSize = 1e-6
	MaxGridSize = 45.0
)

// maxBucket keeps bucket indexes well inside int64.
const maxBucket = 1 << 62

// ValidGridSize reports whether g is an accepted grid size.
func ValidGridSize(g float64) bool { return g >= MinGridSize && g <= MaxGridSize }

// GridCell identifies a snapped grid cell by its bucket indexes.
type GridCell struct {
	LatBucket int64
	LonBucket int64
}

// Snap returns the cell containing (lat, lon) for the given grid size.
// Halves round up, so 40.5 and -75.5 land in buckets 41 and -75.
func Snap(lat, lon, gridSize float64) GridCell {
	return GridCell{LatBucket: bucket(lat, gridSize), LonBucket: bucket(lon, gridSize)}
}

func bucket(v, g float64) int64 { return int64(math.Floor(v/g + 0.5)) }

// snappable reports whether (lat, lon) can be bucketed at g without
// overflowing the cell index.
func snappable(lat, lon, g float64) bool {
	for _, q := range []float64{lat / g, lon / g} {
		if math.IsNaN(q) || math.Abs(q) > maxBucket {
			return false
		}
	}
	return true
}

// Center returns the snapped coordinates of the cell.
func (c GridCell) Center(gridSize float64) (lat, lon float64) {
	return float64(c.LatBucket) * gridSize, float64(c.LonBucket) * gridSize
}

// Flow is the opposite endpoint of a cluster's loads, grouped by grid cell.
type Flow struct {
	Name       string  `json:"name"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	LoadVolume int     `json:"loadVolume"`
}

// Summary describes one grid cluster.
type Summary struct {
	Name        string   `json:"name"`
	Lat         float64  `json:"lat"`
	Lon         float64  `json:"lon"`
	CellLat     float64  `json:"cellLat"`
	CellLon     float64  `json:"cellLon"`
	LoadVolume  int      `json:"loadVolume"`
	AvgRPM      float64  `json:"avgRPM"`
	Teams       []string `json:"teams"`
	Dispatchers []string `json:"dispatchers"`
	Flows       []Flow   `json:"flows,omitempty"`
}

// Diagnostics reports data-quality gaps found while aggregating.
type Diagnostics struct {
	Considered int `json:"considered"`
	Skipped    int `json:"skipped"`
}

// Result is the outcome of a grid aggregation.
type Result struct {
	Clusters    []Summary   `json:"clusters"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

type accumulator struct {
	cell    GridCell
	count   int
	sumLat  float64
	sumLon  float64
	names   counter
	rpms    []float64
	teams   orderedSet
	disps   orderedSet
	flows   map[GridCell]*flowAcc
	flowSeq []GridCell
}

type flowAcc struct {
	count int
	names counter
}

// ClusterLoads groups loads into grid cells anchored on the direction's
// endpoint. Cells appear in the order their first load was seen.
func ClusterLoads(loads []model.Load, gridSize float64, dir model.Direction) []Summary {
	return Aggregate(loads, gridSize, dir).Clusters
}

// Aggregate is ClusterLoads plus data-quality diagnostics. A non-positive or
// non-finite grid size, or an unknown direction, yields no clusters. Loads
// whose cell index would not fit at this grid size are skipped.
func Aggregate(loads []model.Load, gridSize float64, dir model.Direction) Result {
	res := Result{Clusters: []Summary{}, Diagnostics: Diagnostics{Considered: len(loads)}}
	if !(gridSize > 0) || math.IsInf(gridSize, 0) || (dir != model.Inbound && dir != model.Outbound) {
		res.Diagnostics.Skipped = len(loads)
		return res
	}

	cells := map[GridCell]*accumulator{}
	var order []GridCell
	for _, l := range loads {
		anchor, other := l.Anchor(dir)
		if !validPoint(anchor) || !snappable(anchor.Lat.Deg, anchor.Lon.Deg, gridSize) {
			res.Diagnostics.Skipped++
			continue
		}
		cell := Snap(anchor.Lat.Deg, anchor.Lon.Deg, gridSize)
		acc := cells[cell]
		if acc == nil {
			acc = &accumulator{cell: cell, flows: map[GridCell]*flowAcc{}}
			cells[cell] = acc
			order = append(order, cell)
		}
		acc.count++
		acc.sumLat += anchor.Lat.Deg
		acc.sumLon += anchor.Lon.Deg
		acc.names.add(anchor.Location)
		if rpm := l.RPM(); rpm > 0 {
			acc.rpms = append(acc.rpms, rpm)
		}
		acc.teams.add(team.Resolve(l.Team, l.CompanyName))
		acc.disps.add(l.Dispatcher)

		if validPoint(other) && snappable(other.Lat.Deg, other.Lon.Deg, gridSize) {
			oc := Snap(other.Lat.Deg, other.Lon.Deg, gridSize)
			f := acc.flows[oc]
			if f == nil {
				f = &flowAcc{}
				acc.flows[oc] = f
				acc.flowSeq = append(acc.flowSeq, oc)
			}
			f.count++
			f.names.add(other.Location)
		}
	}

	for _, cell := range order {
		res.Clusters = append(res.Clusters, cells[cell].summary(gridSize))
	}
	return res
}

func (a *accumulator) summary(gridSize float64) Summary {
	cellLat, cellLon := a.cell.Center(gridSize)
	lat := a.sumLat / float64(a.count)
	lon := a.sumLon / float64(a.count)
	name := a.names.top()
	if name == "" {
		name = fmt.Sprintf("%.2f, %.2f", lat, lon)
	}
	s := Summary{
		Name:        name,
		Lat:         lat,
		Lon:         lon,
		CellLat:     cellLat,
		CellLon:     cellLon,
		LoadVolume:  a.count,
		AvgRPM:      Median(a.rpms),
		Teams:       a.teams.list(),
		Dispatchers: a.disps.list(),
	}
	for _, oc := range a.flowSeq {
		f := a.flows[oc]
		flat, flon := oc.Center(gridSize)
		s.Flows = append(s.Flows, Flow{Name: f.names.top(), Lat: flat, Lon: flon, LoadVolume: f.count})
	}
	return s
}

func validPoint(e model.Endpoint) bool {
	return e.Lat.Valid && e.Lon.Valid &&
		e.Lat.Deg >= -90 && e.Lat.Deg <= 90 && e.Lon.Deg >= -180 && e.Lon.Deg <= 180
}

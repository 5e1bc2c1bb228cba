package flags

import (
	"sort"
	"time"

	"dispatchboard/internal/model"
)

// history is a read-only index of the load set by driver. It is built once
// per evaluation and never mutated afterwards.
type history struct {
	drivers map[string]*driverHistory
}

type driverHistory struct {
	// chrono holds loads with a parseable pickup, ordered by pickup date+time.
	chrono []stamped
	// weeks maps a payroll week start to the non-canceled loads delivered in it.
	weeks map[time.Time][]model.Load
}

type stamped struct {
	at   time.Time
	pos  int // index in the evaluated set
	load model.Load
}

func newHistory(all []model.Load) *history {
	h := &history{drivers: map[string]*driverHistory{}}
	for i, l := range all {
		key := l.DriverKey()
		if key == "" {
			continue
		}
		dh := h.drivers[key]
		if dh == nil {
			dh = &driverHistory{weeks: map[time.Time][]model.Load{}}
			h.drivers[key] = dh
		}
		if at, ok := l.PickupAt(); ok {
			dh.chrono = append(dh.chrono, stamped{at: at, pos: i, load: l})
		}
		if l.IsCanceled() {
			continue
		}
		if do, ok := l.DropoffDate(); ok {
			ws, _ := PayrollWeek(do)
			dh.weeks[ws] = append(dh.weeks[ws], l)
		}
	}
	for _, dh := range h.drivers {
		sort.SliceStable(dh.chrono, func(i, j int) bool { return dh.chrono[i].at.Before(dh.chrono[j].at) })
	}
	return h
}

func (h *history) driver(l model.Load) *driverHistory {
	key := l.DriverKey()
	if key == "" {
		return nil
	}
	return h.drivers[key]
}

// previousValid returns the driver's load immediately preceding l in pickup
// order, skipping canceled and TONU loads. pos is l's index in the evaluated
// set, or -1 when the caller does not know it.
func (dh *driverHistory) previousValid(l model.Load, at time.Time, pos int) (model.Load, bool) {
	idx := dh.locate(l, pos)
	switch {
	case idx >= 0:
	case l.ID == "":
		// unmatched and unidentifiable: only strictly earlier pickups precede it
		idx = sort.Search(len(dh.chrono), func(i int) bool { return !dh.chrono[i].at.Before(at) })
	default:
		// not part of the set: everything picked up no later than l precedes it
		idx = sort.Search(len(dh.chrono), func(i int) bool { return dh.chrono[i].at.After(at) })
	}
	for i := idx - 1; i >= 0; i-- {
		p := dh.chrono[i].load
		if p.IsVoid() || (l.ID != "" && p.ID == l.ID) {
			continue
		}
		return p, true
	}
	return model.Load{}, false
}

// locate finds l in the chronological index, by position first, then by id,
// then by value for loads that carry no id.
func (dh *driverHistory) locate(l model.Load, pos int) int {
	if pos >= 0 {
		for i, s := range dh.chrono {
			if s.pos == pos {
				return i
			}
		}
	}
	for i, s := range dh.chrono {
		if l.ID != "" && s.load.ID == l.ID {
			return i
		}
		if l.ID == "" && s.load == l {
			return i
		}
	}
	return -1
}

// hasDeliveries reports whether any non-canceled load was delivered in the
// payroll week starting at ws.
func (dh *driverHistory) hasDeliveries(ws time.Time) bool {
	return len(dh.weeks[ws]) > 0
}

// grossExcluding sums the week's gross without l itself.
func (dh *driverHistory) grossExcluding(ws time.Time, l model.Load) float64 {
	total := 0.0
	for _, w := range dh.weeks[ws] {
		if l.ID != "" && w.ID == l.ID {
			continue
		}
		total += float64(w.Price)
	}
	if l.ID == "" {
		// without an id the load cannot be told apart from its peers
		total -= float64(l.Price)
	}
	return total
}

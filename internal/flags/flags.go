// Package flags classifies loads against their peer history into a fixed
// vocabulary of operational review flags.
//
// Every function is pure over its arguments: the load, the load set it is
// judged against, and the thresholds. Missing drivers, dates or locations
// never produce an error; the affected flag is simply absent.
package flags

import (
	"regexp"
	"strings"
	"time"

	"dispatchboard/internal/model"
)

// closedStatuses are billing states after which a load no longer needs closing.
var closedStatuses = []string{
	model.StatusPendingToBill,
	model.StatusCanceled,
	model.StatusBilled,
	model.StatusPaid,
	model.StatusMissingPaperwork,
	model.StatusTONU,
	model.StatusBilledPendingAcc,
	model.StatusOpenBalance,
}

// MoveClass is the outcome of judging a moved load against the weekly gross.
type MoveClass int

const (
	MoveNone MoveClass = iota
	MoveGood
	MoveBad
)

// IsMoved reports a load delivered on a Monday whose average miles per
// transit day exceed the configured threshold.
func IsMoved(l model.Load, th model.Thresholds) bool {
	do, ok := l.DropoffDate()
	if !ok || do.Weekday() != time.Monday {
		return false
	}
	pu, ok := l.PickupDate()
	if !ok {
		return false
	}
	days := daysCeil(pu, do) + 1
	if days < 1 {
		days = 1
	}
	return l.TotalMiles()/float64(days) > th.MovedLoadThreshold
}

// IsMondayMoved reports a load picked up and delivered on the same Monday.
func IsMondayMoved(l model.Load) bool {
	pu, ok := l.PickupDate()
	if !ok {
		return false
	}
	do, ok := l.DropoffDate()
	if !ok {
		return false
	}
	return pu.Equal(do) && do.Weekday() == time.Monday
}

// HasHiddenMileage reports a driver whose previous valid drop-off is not where
// this load starts.
func HasHiddenMileage(l model.Load, all []model.Load) bool {
	return hiddenMileage(l, newHistory(all), -1)
}

func hiddenMileage(l model.Load, h *history, pos int) bool {
	dh := h.driver(l)
	if dh == nil {
		return false
	}
	at, ok := l.PickupAt()
	if !ok {
		return false
	}
	prev, ok := dh.previousValid(l, at, pos)
	if !ok {
		return false
	}
	from := NormalizeLocation(prev.DoLocation)
	start := NormalizeLocation(l.StartLocationCity + ", " + l.StartLocationState)
	if isPlaceholder(from) || isPlaceholder(start) {
		return false
	}
	return from != start
}

// IsNotClosed reports a load still open more than the allowed number of days
// after delivery. today is interpreted as a local calendar date.
func IsNotClosed(l model.Load, th model.Thresholds, today time.Time) bool {
	if isClosedStatus(l.Status) {
		return false
	}
	do, ok := l.DropoffDate()
	if !ok {
		return false
	}
	t := civil(today)
	if !do.Before(t) {
		return false
	}
	return daysCeil(do, t) > th.NotClosedDaysThreshold
}

// IsLowRPM reports a positive rate per mile strictly below the threshold.
func IsLowRPM(l model.Load, th model.Thresholds) bool {
	rpm := l.RPM()
	return rpm > 0 && rpm < th.LowRPMThreshold
}

// IsNewStartDriver reports a driver with deliveries in the load's payroll week
// and none in the week before it.
func IsNewStartDriver(l model.Load, all []model.Load) bool {
	return newStart(l, newHistory(all))
}

func newStart(l model.Load, h *history) bool {
	do, ok := l.DropoffDate()
	if !ok || l.DriverKey() == "" {
		return false
	}
	ws, _ := PayrollWeek(do)
	dh := h.driver(l)
	current := !l.IsCanceled()
	if dh != nil && dh.hasDeliveries(ws) {
		current = true
	}
	if !current {
		return false
	}
	return dh == nil || !dh.hasDeliveries(ws.AddDate(0, 0, -7))
}

// ClassifyMove judges a Moved or Monday's-Moved load: the driver's gross for
// the payroll week without this load above the contract threshold is a bad
// move, anything else a good one. Loads that were not moved are MoveNone.
func ClassifyMove(l model.Load, all []model.Load, th model.Thresholds) MoveClass {
	return classifyMove(l, newHistory(all), th)
}

func classifyMove(l model.Load, h *history, th model.Thresholds) MoveClass {
	if !IsMoved(l, th) && !IsMondayMoved(l) {
		return MoveNone
	}
	do, ok := l.DropoffDate()
	if !ok || l.DriverKey() == "" {
		return MoveNone
	}
	ws, _ := PayrollWeek(do)
	gross := -float64(l.Price)
	if dh := h.driver(l); dh != nil {
		gross = dh.grossExcluding(ws, l)
	}
	if gross > th.GoodMoveThresholds.For(l.ContractType) {
		return MoveBad
	}
	return MoveGood
}

var commaSpace = regexp.MustCompile(`\s*,\s*`)
var spaces = regexp.MustCompile(`\s+`)

// NormalizeLocation trims, lowercases and collapses spacing around commas so
// "Dallas ,TX" and "dallas, tx" compare equal.
func NormalizeLocation(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = spaces.ReplaceAllString(s, " ")
	s = commaSpace.ReplaceAllString(s, ", ")
	return strings.Trim(s, ", ")
}

var placeholders = map[string]struct{}{
	"": {}, "-": {}, "n/a": {}, "na": {}, "null": {},
	"undefined": {}, "unknown": {}, "null, null": {}, "undefined, undefined": {},
}

func isPlaceholder(normalized string) bool {
	_, ok := placeholders[normalized]
	return ok
}

func isClosedStatus(status string) bool {
	s := strings.TrimSpace(status)
	for _, c := range closedStatuses {
		if strings.EqualFold(s, c) {
			return true
		}
	}
	return false
}

package flags

import (
	"encoding/json"
	"time"

	"dispatchboard/internal/model"
)

// Set is the collection of flags raised for one load.
type Set map[model.FlagName]struct{}

// Has reports whether f is raised.
func (s Set) Has(f model.FlagName) bool {
	_, ok := s[f]
	return ok
}

// Names lists raised flags in vocabulary order.
func (s Set) Names() []model.FlagName {
	out := make([]model.FlagName, 0, len(s))
	for _, f := range model.AllFlags {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

func (s Set) MarshalJSON() ([]byte, error) { return json.Marshal(s.Names()) }

func (s Set) add(f model.FlagName, on bool) {
	if on {
		s[f] = struct{}{}
	}
}

// Result pairs a load with its flags.
type Result struct {
	ID    model.LoadID `json:"id"`
	RPM   float64      `json:"rpm"`
	Flags Set          `json:"flags"`
}

// Option customizes an Evaluator.
type Option func(*Evaluator)

// WithClock sets the source of "today" for the Not Closed flag.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

// Evaluator computes flags for many loads against one load set. The set is
// indexed once at construction; an Evaluator is immutable afterwards and safe
// for concurrent use.
type Evaluator struct {
	all []model.Load
	th  model.Thresholds
	h   *history
	now func() time.Time
}

// NewEvaluator indexes all for repeated flag computation.
func NewEvaluator(all []model.Load, th model.Thresholds, opts ...Option) *Evaluator {
	e := &Evaluator{all: all, th: th, h: newHistory(all), now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Compute returns the flags raised for l.
func (e *Evaluator) Compute(l model.Load) Set {
	return e.compute(l, -1)
}

func (e *Evaluator) compute(l model.Load, pos int) Set {
	s := Set{}
	s.add(model.FlagMoved, IsMoved(l, e.th))
	s.add(model.FlagMondayMoved, IsMondayMoved(l))
	s.add(model.FlagHiddenMileage, hiddenMileage(l, e.h, pos))
	s.add(model.FlagNotClosed, IsNotClosed(l, e.th, e.now()))
	s.add(model.FlagLowRPM, IsLowRPM(l, e.th))
	s.add(model.FlagNewStart, newStart(l, e.h))
	switch classifyMove(l, e.h, e.th) {
	case MoveGood:
		s.add(model.FlagGoodMove, true)
	case MoveBad:
		s.add(model.FlagBadMove, true)
	}
	return s
}

// ComputeAll flags every load of the indexed set, in input order.
func (e *Evaluator) ComputeAll() []Result {
	out := make([]Result, 0, len(e.all))
	for i, l := range e.all {
		out = append(out, Result{ID: l.ID, RPM: l.RPM(), Flags: e.compute(l, i)})
	}
	return out
}

// ComputeFlags returns the flags for one load judged against all.
func ComputeFlags(l model.Load, all []model.Load, th model.Thresholds) Set {
	return NewEvaluator(all, th).Compute(l)
}

// Summary counts raised flags across a result set.
type Summary struct {
	Loads  int                    `json:"loads"`
	Counts map[model.FlagName]int `json:"counts"`
}

// Summarize counts each flag over results.
func Summarize(results []Result) Summary {
	s := Summary{Loads: len(results), Counts: map[model.FlagName]int{}}
	for _, f := range model.AllFlags {
		s.Counts[f] = 0
	}
	for _, r := range results {
		for f := range r.Flags {
			s.Counts[f]++
		}
	}
	return s
}

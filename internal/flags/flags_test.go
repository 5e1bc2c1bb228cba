package flags

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatchboard/internal/model"
)

func load(id, driver, pu, do string) model.Load {
	return model.Load{ID: model.LoadID(id), Driver: driver, PuDate: pu, DoDate: do, Status: "Delivered"}
}

func date(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func TestPayrollWeek(t *testing.T) {
	start, end := PayrollWeek(date("2024-06-03")) // Monday
	assert.Equal(t, date("2024-05-28"), start)
	assert.Equal(t, date("2024-06-03"), end)

	start, end = PayrollWeek(date("2024-06-04")) // Tuesday
	assert.Equal(t, date("2024-06-04"), start)
	assert.Equal(t, date("2024-06-10"), end)
}

func TestMovedRequiresMondayDelivery(t *testing.T) {
	th := model.DefaultThresholds()
	l := load("1", "A", "2024-06-03", "2024-06-04")
	l.TripMiles = 5000
	assert.False(t, IsMoved(l, th))
}

func TestMovedMilesPerDay(t *testing.T) {
	th := model.DefaultThresholds() // 600 mi/day
	l := load("1", "A", "2024-06-01", "2024-06-03")
	l.TripMiles = 2000
	l.DeadheadMiles = 100 // 2100 / 3 days = 700
	assert.True(t, IsMoved(l, th))

	l.TripMiles = 1400 // 1500 / 3 = 500
	assert.False(t, IsMoved(l, th))
}

func TestMondaySameDayScenario(t *testing.T) {
	l := load("1", "A", "2024-06-03", "2024-06-03")
	l.TripMiles = 50
	l.Price = 100

	assert.InDelta(t, 2.00, l.RPM(), 1e-9)
	assert.True(t, IsMondayMoved(l))
	assert.False(t, IsMoved(l, model.DefaultThresholds()), "50 mi/day is under the threshold")

	th := model.DefaultThresholds()
	th.MovedLoadThreshold = 40
	assert.True(t, IsMoved(l, th), "both predicates hold independently")
	assert.True(t, IsMondayMoved(l))
}

func TestMondayMovedNeedsSameDay(t *testing.T) {
	assert.False(t, IsMondayMoved(load("1", "A", "2024-06-02", "2024-06-03")))
	assert.False(t, IsMondayMoved(load("1", "A", "2024-06-04", "2024-06-04")))
	assert.False(t, IsMondayMoved(load("1", "A", "", "2024-06-03")))
}

func TestHiddenMileage(t *testing.T) {
	first := load("1", "A", "2024-06-01", "2024-06-02")
	first.DoLocation = "Dallas, TX"
	second := load("2", "A", "2024-06-03", "2024-06-04")
	second.StartLocationCity = "Houston"
	second.StartLocationState = "TX"
	all := []model.Load{second, first}

	assert.False(t, HasHiddenMileage(first, all), "first load has no predecessor")
	assert.True(t, HasHiddenMileage(second, all))

	second.StartLocationCity = " dallas"
	second.StartLocationState = "tx "
	all = []model.Load{first, second}
	assert.False(t, HasHiddenMileage(second, all))
}

func TestHiddenMileageSkipsVoidLoads(t *testing.T) {
	first := load("1", "A", "2024-06-01", "2024-06-02")
	first.DoLocation = "Dallas,TX"
	canceled := load("2", "A", "2024-06-02", "2024-06-02")
	canceled.DoLocation = "Austin, TX"
	canceled.Status = "Canceled"
	tonu := load("3", "A", "2024-06-02", "2024-06-02")
	tonu.PuTime = "18:00"
	tonu.DoLocation = "El Paso, TX"
	tonu.Status = "TONU"
	cur := load("4", "A", "2024-06-03", "2024-06-04")
	cur.StartLocationCity = "Dallas"
	cur.StartLocationState = "TX"

	assert.False(t, HasHiddenMileage(cur, []model.Load{first, canceled, tonu, cur}))
}

func TestHiddenMileageOrdersByPickupTime(t *testing.T) {
	morning := load("1", "A", "2024-06-03", "2024-06-03")
	morning.PuTime = "06:00"
	morning.DoLocation = "Tulsa, OK"
	evening := load("2", "A", "2024-06-03", "2024-06-03")
	evening.PuTime = "19:30"
	evening.DoLocation = "Wichita, KS"
	next := load("3", "A", "2024-06-04", "2024-06-05")
	next.StartLocationCity = "Wichita"
	next.StartLocationState = "KS"

	all := []model.Load{evening, next, morning}
	assert.False(t, HasHiddenMileage(next, all))

	evening.StartLocationCity = "Tulsa"
	evening.StartLocationState = "OK"
	assert.False(t, HasHiddenMileage(evening, all))

	next.StartLocationCity = "Tulsa"
	next.StartLocationState = "OK"
	assert.True(t, HasHiddenMileage(next, all), "evening load is the predecessor, not the morning one")
}

func TestHiddenMileageWithoutIDs(t *testing.T) {
	only := load("", "A", "2024-06-01", "2024-06-02")
	only.StartLocationCity = "Houston"
	only.StartLocationState = "TX"
	only.DoLocation = "Dallas, TX"
	assert.False(t, HasHiddenMileage(only, []model.Load{only}), "single load has no predecessor")

	next := load("", "A", "2024-06-03", "2024-06-04")
	next.StartLocationCity = "Dallas"
	next.StartLocationState = "TX"
	next.DoLocation = "Austin, TX"
	all := []model.Load{only, next}
	assert.False(t, HasHiddenMileage(next, all))

	res := NewEvaluator(all, model.DefaultThresholds()).ComputeAll()
	require.Len(t, res, 2)
	assert.NotContains(t, res[0].Flags, model.FlagHiddenMileage)
	assert.NotContains(t, res[1].Flags, model.FlagHiddenMileage)

	next.StartLocationCity = "Waco"
	all = []model.Load{only, next}
	res = NewEvaluator(all, model.DefaultThresholds()).ComputeAll()
	assert.NotContains(t, res[0].Flags, model.FlagHiddenMileage)
	assert.Contains(t, res[1].Flags, model.FlagHiddenMileage)
}

func TestHiddenMileageTiesKeepInputOrder(t *testing.T) {
	first := load("1", "A", "2024-06-03T08:00:00", "2024-06-03")
	first.StartLocationCity = "Enid"
	first.StartLocationState = "OK"
	first.DoLocation = "Tulsa, OK"
	second := load("2", "A", "2024-06-03T08:00:00", "2024-06-03")
	second.StartLocationCity = "Tulsa"
	second.StartLocationState = "OK"
	second.DoLocation = "Wichita, KS"
	next := load("3", "A", "2024-06-04", "2024-06-05")
	next.StartLocationCity = "Wichita"
	next.StartLocationState = "KS"

	all := []model.Load{first, second, next}
	assert.False(t, HasHiddenMileage(second, all), "equal pickup: earlier input row precedes")
	assert.False(t, HasHiddenMileage(next, all), "later input row of a tie is the predecessor")

	// without ids the same order applies
	first.ID, second.ID, next.ID = "", "", ""
	res := NewEvaluator([]model.Load{first, second, next}, model.DefaultThresholds()).ComputeAll()
	require.Len(t, res, 3)
	for _, r := range res {
		assert.NotContains(t, r.Flags, model.FlagHiddenMileage)
	}

	// swapping the input rows swaps the predecessor
	res = NewEvaluator([]model.Load{second, first, next}, model.DefaultThresholds()).ComputeAll()
	assert.Contains(t, res[1].Flags, model.FlagHiddenMileage, "second's drop-off is not where first starts")
	assert.Contains(t, res[2].Flags, model.FlagHiddenMileage, "first is now the latest predecessor")
}

func TestHiddenMileageDegrades(t *testing.T) {
	prev := load("1", "A", "2024-06-01", "2024-06-02")
	prev.DoLocation = "Dallas, TX"
	cur := load("2", "A", "2024-06-03", "2024-06-04")
	assert.False(t, HasHiddenMileage(cur, []model.Load{prev, cur}), "empty start location")

	cur.StartLocationCity = "Houston"
	cur.StartLocationState = "TX"
	cur.Driver = ""
	prev.Driver = ""
	assert.False(t, HasHiddenMileage(cur, []model.Load{prev, cur}), "no driver")

	prev.Driver, cur.Driver = "A", "A"
	prev.DoLocation = "N/A"
	assert.False(t, HasHiddenMileage(cur, []model.Load{prev, cur}), "placeholder drop-off")
}

func TestNotClosed(t *testing.T) {
	th := model.DefaultThresholds() // 7 days
	today := time.Date(2024, 6, 20, 15, 0, 0, 0, time.Local)

	cases := []struct {
		name   string
		do     string
		status string
		want   bool
	}{
		{"ten days open", "2024-06-10", "Delivered", true},
		{"exactly threshold", "2024-06-13", "Delivered", false},
		{"five days", "2024-06-15", "Delivered", false},
		{"delivered today", "2024-06-20", "Delivered", false},
		{"future", "2024-06-25", "In Transit", false},
		{"billed long ago", "2023-01-01", "Billed", false},
		{"canceled long ago", "2023-01-01", "canceled", false},
		{"open balance", "2023-01-01", "Open Balance", false},
		{"no date", "", "Delivered", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := load("1", "A", "", tc.do)
			l.Status = tc.status
			assert.Equal(t, tc.want, IsNotClosed(l, th, today))
		})
	}
}

func TestLowRPMExclusiveBoundary(t *testing.T) {
	th := model.DefaultThresholds()
	th.LowRPMThreshold = 1.65

	l := model.Load{Price: 150, TripMiles: 100}
	assert.True(t, IsLowRPM(l, th))

	l.Price = 165
	assert.False(t, IsLowRPM(l, th))

	l.TripMiles = 0
	assert.False(t, IsLowRPM(l, th), "no rpm is not low rpm")
}

func TestNewStartDriverConsecutiveWeeks(t *testing.T) {
	dates := []string{"2024-06-04", "2024-06-11", "2024-06-18", "2024-06-25", "2024-07-02"}
	var all []model.Load
	for i, d := range dates {
		all = append(all, load(string(rune('a'+i)), "A", d, d))
	}
	for i, l := range all {
		assert.Equal(t, i == 0, IsNewStartDriver(l, all), "load on %s", l.DoDate)
	}
}

func TestNewStartDriverAfterGapWeek(t *testing.T) {
	a := load("1", "B", "2024-06-04", "2024-06-05")
	b := load("2", "B", "2024-06-18", "2024-06-19")
	all := []model.Load{a, b}
	assert.True(t, IsNewStartDriver(a, all))
	assert.True(t, IsNewStartDriver(b, all))

	canceled := load("3", "B", "2024-06-11", "2024-06-12")
	canceled.Status = "Canceled"
	assert.True(t, IsNewStartDriver(b, append(all, canceled)), "canceled loads are not deliveries")
	assert.False(t, IsNewStartDriver(canceled, append(all, canceled)))
}

func moveFixture() ([]model.Load, model.Load) {
	l1 := load("1", "A", "2024-05-28", "2024-05-29")
	l1.Price = 3000
	l2 := load("2", "A", "2024-05-30", "2024-05-31")
	l2.Price = 2500
	other := load("3", "Z", "2024-05-30", "2024-05-31")
	other.Price = 9000
	m := load("4", "A", "2024-06-03", "2024-06-03")
	m.Price = 1000
	m.TripMiles = 400
	m.ContractType = "OO"
	return []model.Load{l1, l2, other, m}, m
}

func TestClassifyMove(t *testing.T) {
	all, m := moveFixture()
	th := model.DefaultThresholds() // default 5000; gross without m is 5500
	assert.Equal(t, MoveBad, ClassifyMove(m, all, th))

	th.GoodMoveThresholds.ByContract = map[string]float64{"oo": 6000}
	assert.Equal(t, MoveGood, ClassifyMove(m, all, th))
}

func TestClassifyMoveOnlyForMovedLoads(t *testing.T) {
	all, _ := moveFixture()
	th := model.DefaultThresholds()
	assert.Equal(t, MoveNone, ClassifyMove(all[0], all, th))

	s := ComputeFlags(all[0], all, th)
	assert.False(t, s.Has(model.FlagGoodMove))
	assert.False(t, s.Has(model.FlagBadMove))
}

func TestComputeIsDeterministic(t *testing.T) {
	all, m := moveFixture()
	th := model.DefaultThresholds()
	clock := WithClock(func() time.Time { return date("2024-06-05") })

	first := NewEvaluator(all, th, clock).Compute(m)
	second := NewEvaluator(all, th, clock).Compute(m)
	assert.Equal(t, first.Names(), second.Names())
	// nothing delivered the week before, so driver A is also a new start
	assert.Equal(t, []model.FlagName{model.FlagMondayMoved, model.FlagNewStart, model.FlagBadMove}, first.Names())
}

func TestComputeAllAndSummarize(t *testing.T) {
	all, _ := moveFixture()
	e := NewEvaluator(all, model.DefaultThresholds(), WithClock(func() time.Time { return date("2024-07-30") }))
	results := e.ComputeAll()
	require.Len(t, results, len(all))
	assert.Equal(t, model.LoadID("1"), results[0].ID)

	sum := Summarize(results)
	assert.Equal(t, 4, sum.Loads)
	assert.Equal(t, 4, sum.Counts[model.FlagNotClosed])
	assert.Equal(t, 1, sum.Counts[model.FlagBadMove])
	assert.Equal(t, 0, sum.Counts[model.FlagGoodMove])
}

func TestSetMarshalsInVocabularyOrder(t *testing.T) {
	s := Set{}
	s.add(model.FlagLowRPM, true)
	s.add(model.FlagMoved, true)
	b, err := s.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `["moved","low_rpm"]`, string(b))
}

func TestNormalizeLocation(t *testing.T) {
	assert.Equal(t, "dallas, tx", NormalizeLocation("  Dallas ,TX "))
	assert.Equal(t, "dallas, tx", NormalizeLocation("dallas,   tx"))
	assert.Equal(t, "dallas", NormalizeLocation("Dallas, "))
	assert.Equal(t, "", NormalizeLocation(" , "))
}

package flags

import "time"

const day = 24 * time.Hour

// PayrollWeek returns the Tuesday..Monday window containing d. Both bounds
// are UTC calendar dates and inclusive.
func PayrollWeek(d time.Time) (start, end time.Time) {
	d = civil(d)
	off := (int(d.Weekday()) - int(time.Tuesday) + 7) % 7
	start = d.AddDate(0, 0, -off)
	return start, start.AddDate(0, 0, 6)
}

// civil truncates t to its calendar date in UTC, keeping the wall-clock
// year/month/day of t's own location.
func civil(t time.Time) time.Time {
	y, m, dd := t.Date()
	return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
}

func within(d, start, end time.Time) bool {
	return !d.Before(start) && !d.After(end)
}

// daysCeil is the number of days from a to b, rounded up.
func daysCeil(a, b time.Time) int {
	h := b.Sub(a).Hours() / 24
	n := int(h)
	if float64(n) < h {
		n++
	}
	return n
}

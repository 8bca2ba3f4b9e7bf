package stats

import "time"

// BusinessDays counts weekdays in the half-open day range [from, to). Both timestamps are
// reduced to their calendar day first. When to precedes from the count is negative.
func BusinessDays(from, to time.Time) int {
	from, to = SnapToDay(from), SnapToDay(to)
	if to.Before(from) {
		return -BusinessDays(to, from)
	}

	days := int(to.Sub(from).Hours() / 24)
	weeks, rest := days/7, days%7
	count := weeks * 5

	// Walk the remaining partial week.
	d := from.AddDate(0, 0, weeks*7)
	for range rest {
		if isWeekday(d) {
			count++
		}
		d = d.AddDate(0, 0, 1)
	}
	return count
}

// InclusiveBusinessDays is the business-day count between two instants counting both ends.
func InclusiveBusinessDays(from, to time.Time) int {
	return BusinessDays(from, to) + 1
}

func isWeekday(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

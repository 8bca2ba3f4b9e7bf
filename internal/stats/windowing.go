package stats

import (
	"time"

	"github.com/cockroachdb/errors"
)

// DefaultDays is the report length used when neither a start nor an end date bounds it.
const DefaultDays = 30

// DateLayout is the ISO calendar date format used for window bounds and table rows.
const DateLayout = "2006-01-02"

var (
	// ErrInvalidDays is returned when a window would contain less than one day.
	ErrInvalidDays = errors.New("days must be at least 1")
	// ErrInvalidDate is returned when a date argument cannot be parsed.
	ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")
	// ErrInvalidWindow is returned when the end date precedes the start date.
	ErrInvalidWindow = errors.New("end date precedes start date")
)

// now is swapped in tests to pin "today".
var now = time.Now

// WindowOptions describes a reporting window. Explicit StartDate and EndDate win; otherwise
// the window spans Days days ending at EndDate (today when zero), or starting at StartDate.
type WindowOptions struct {
	Days      int
	StartDate time.Time
	EndDate   time.Time
}

// ReportWindow is an inclusive range of calendar days in UTC.
type ReportWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewReportWindow resolves options into a concrete window.
func NewReportWindow(opts WindowOptions) (ReportWindow, error) {
	start := SnapToDay(opts.StartDate)
	end := SnapToDay(opts.EndDate)

	switch {
	case !start.IsZero() && !end.IsZero():
		// Both bounds given, days is not consulted.
	case opts.Days < 1:
		return ReportWindow{}, errors.Wrapf(ErrInvalidDays, "got %d", opts.Days)
	case !start.IsZero():
		end = start.AddDate(0, 0, opts.Days-1)
	default:
		if end.IsZero() {
			end = SnapToDay(now())
		}
		start = end.AddDate(0, 0, -(opts.Days - 1))
	}

	if end.Before(start) {
		return ReportWindow{}, errors.Wrapf(ErrInvalidWindow, "%s..%s", start.Format(DateLayout), end.Format(DateLayout))
	}
	return ReportWindow{Start: start, End: end}, nil
}

// SnapToDay normalizes a timestamp to midnight UTC of its calendar day.
func SnapToDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string. An empty string yields the zero time.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(ErrInvalidDate, "%q", s)
	}
	return t, nil
}

// Days returns every calendar day in the window, in order.
func (w ReportWindow) Days() []time.Time {
	var days []time.Time
	for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// DayCount returns the number of calendar days in the window.
func (w ReportWindow) DayCount() int {
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

// Index returns the position of day d in the window, or -1 if it falls outside.
func (w ReportWindow) Index(d time.Time) int {
	d = SnapToDay(d)
	if d.Before(w.Start) || d.After(w.End) {
		return -1
	}
	return int(d.Sub(w.Start).Hours() / 24)
}

// Label returns a human readable description of the window (e.g. "2021-03-15 2021-03-19").
func (w ReportWindow) Label() string {
	return w.Start.Format(DateLayout) + " " + w.End.Format(DateLayout)
}

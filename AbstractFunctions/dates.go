package AbstractFunctions

import (
	"fmt"
	"time"
)

// DateLayout is the wire and storage format of date-only columns.
const DateLayout = "2006-01-02"

// ParseDate reads a YYYY-MM-DD string as midnight local time.
func ParseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD", value)
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Today is the local calendar date.
func Today() string {
	return FormatDate(time.Now())
}

type DueIn string

const (
	DueNone     DueIn = "none"
	DueOneMonth DueIn = "1_month"
	DueTwoMonth DueIn = "2_months"
	Due90Days   DueIn = "90_days"
)

// DueDateFrom adds the chosen offset to base by calendar arithmetic on the
// local date components. DueNone and "" yield nil. Month overflow
// normalises the way time.AddDate does (Jan 31 + 1 month is Mar 2 or 3).
func DueDateFrom(base time.Time, choice DueIn) (*string, error) {
	y, m, d := base.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.Local)

	var due time.Time
	switch choice {
	case "", DueNone:
		return nil, nil
	case DueOneMonth:
		due = day.AddDate(0, 1, 0)
	case DueTwoMonth:
		due = day.AddDate(0, 2, 0)
	case Due90Days:
		due = day.AddDate(0, 0, 90)
	default:
		return nil, fmt.Errorf("unknown due-in choice %q", choice)
	}
	s := FormatDate(due)
	return &s, nil
}

type Lookback string

const (
	Lookback30Days Lookback = "30d"
	Lookback90Days Lookback = "90d"
	LookbackYear   Lookback = "1y"
	LookbackAll    Lookback = "all"
)

// LookbackStart returns the first date inside the window ending at now,
// or nil for LookbackAll.
func LookbackStart(now time.Time, window Lookback) (*string, error) {
	y, m, d := now.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.Local)

	var start time.Time
	switch window {
	case "", LookbackAll:
		return nil, nil
	case Lookback30Days:
		start = day.AddDate(0, 0, -30)
	case Lookback90Days:
		start = day.AddDate(0, 0, -90)
	case LookbackYear:
		start = day.AddDate(-1, 0, 0)
	default:
		return nil, fmt.Errorf("unknown lookback %q", window)
	}
	s := FormatDate(start)
	return &s, nil
}

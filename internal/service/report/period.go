package report

import (
	"fmt"
	"time"

	"github.com/jwalitptl/hairline-crm/internal/model"
	apperrors "github.com/jwalitptl/hairline-crm/pkg/errors"
)

const dateLayout = "2006-01-02"

// ParsePeriod turns a named reporting period into a window in loc. Periods are
// calendar based: week starts on Monday, month and year on their first day, and
// every window ends at the end of today. Custom periods take inclusive
// YYYY-MM-DD bounds. An empty period means all time.
func ParsePeriod(period, startDate, endDate string, now time.Time, loc *time.Location) (model.Window, error) {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)
	today := startOfDay(now)
	end := endOfDay(now)

	switch period {
	case "", model.PeriodAll:
		return model.Window{}, nil
	case model.PeriodToday:
		return model.Window{From: today, To: end}, nil
	case model.PeriodWeek:
		offset := (int(today.Weekday()) + 6) % 7
		return model.Window{From: today.AddDate(0, 0, -offset), To: end}, nil
	case model.PeriodMonth:
		return model.Window{From: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc), To: end}, nil
	case model.PeriodYear:
		return model.Window{From: time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, loc), To: end}, nil
	case model.PeriodCustom:
		return customWindow(startDate, endDate, loc)
	default:
		return model.Window{}, apperrors.BadRequest(fmt.Sprintf("unknown period %q", period), nil)
	}
}

func customWindow(startDate, endDate string, loc *time.Location) (model.Window, error) {
	if startDate == "" || endDate == "" {
		return model.Window{}, apperrors.BadRequest("startDate and endDate are required for a custom period", nil)
	}
	from, err := time.ParseInLocation(dateLayout, startDate, loc)
	if err != nil {
		return model.Window{}, apperrors.BadRequest("startDate must be YYYY-MM-DD", err)
	}
	to, err := time.ParseInLocation(dateLayout, endDate, loc)
	if err != nil {
		return model.Window{}, apperrors.BadRequest("endDate must be YYYY-MM-DD", err)
	}
	if to.Before(from) {
		return model.Window{}, apperrors.BadRequest("endDate is before startDate", nil)
	}
	return model.Window{From: from, To: endOfDay(to)}, nil
}

// Agent filters are rolling windows ending now.
const (
	AgentFilterDay   = "day"
	AgentFilterWeek  = "week"
	AgentFilterMonth = "month"
)

// AgentWindow maps the agents endpoint filter onto a rolling window. An empty
// filter covers all time.
func AgentWindow(filter string, now time.Time) (model.Window, error) {
	switch filter {
	case "":
		return model.Window{}, nil
	case AgentFilterDay:
		return model.Window{From: now.Add(-24 * time.Hour), To: now}, nil
	case AgentFilterWeek:
		return model.Window{From: now.AddDate(0, 0, -7), To: now}, nil
	case AgentFilterMonth:
		return model.Window{From: now.AddDate(0, -1, 0), To: now}, nil
	default:
		return model.Window{}, apperrors.BadRequest(fmt.Sprintf("filter must be one of day, week, month; got %q", filter), nil)
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// LastDays is the window covering the n calendar days that end with the day of
// to, up to to itself.
func LastDays(to time.Time, n int, loc *time.Location) model.Window {
	if loc == nil {
		loc = time.UTC
	}
	if n < 1 {
		n = 1
	}
	return model.Window{From: startOfDay(to.In(loc)).AddDate(0, 0, -(n - 1)), To: to}
}

package layout

import (
	"time"

	"github.com/hylla/planner/internal/domain"
)

// CalendarUnit is one week or month column of the grid.
type CalendarUnit struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	StartDay   int       `json:"start_day"`
	Days       int       `json:"days"`
	Label      string    `json:"label"`
	ShortLabel string    `json:"short_label"`
}

// calendarUnits walks from the unit containing the earliest start to the unit
// containing the latest end. The returned range is [start, end).
func calendarUnits(tasks []domain.Task, cfg Config) (time.Time, time.Time, []CalendarUnit) {
	if len(tasks) == 0 {
		return time.Time{}, time.Time{}, nil
	}
	earliest := tasks[0].Start
	latest := tasks[0].End
	for _, task := range tasks[1:] {
		if task.Start.Before(earliest) {
			earliest = task.Start
		}
		if task.End.After(latest) {
			latest = task.End
		}
	}

	start := unitStart(earliest, cfg)
	end := nextUnit(unitStart(latest, cfg), cfg)
	var units []CalendarUnit
	for cur := start; cur.Before(end); cur = nextUnit(cur, cfg) {
		next := nextUnit(cur, cfg)
		label, short := unitLabels(cur, cfg)
		units = append(units, CalendarUnit{
			Start:      cur,
			End:        next,
			StartDay:   domain.DaysBetween(start, cur),
			Days:       domain.DaysBetween(cur, next),
			Label:      label,
			ShortLabel: short,
		})
	}
	return start, end, units
}

func unitStart(ts time.Time, cfg Config) time.Time {
	day := domain.Day(ts)
	if cfg.Unit == UnitMonth {
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	back := (int(day.Weekday()) - int(cfg.WeekStart) + 7) % 7
	return day.AddDate(0, 0, -back)
}

func nextUnit(ts time.Time, cfg Config) time.Time {
	if cfg.Unit == UnitMonth {
		return ts.AddDate(0, 1, 0)
	}
	return ts.AddDate(0, 0, 7)
}

func unitLabels(ts time.Time, cfg Config) (string, string) {
	if cfg.Unit == UnitMonth {
		return ts.Format("January 2006"), ts.Format("Jan")
	}
	return "Week of " + ts.Format("Jan 2"), ts.Format("Jan 2")
}

package calendar

import (
	"os"
	"time"
)

// Planner computes the processing dates of one orchestration pass.
type Planner struct {
	Cal Calendar
}

func NewPlanner(cal Calendar) *Planner { return &Planner{Cal: cal} }

// TargetDate is today when it is a working day, else the previous working day.
func (p *Planner) TargetDate(now time.Time) time.Time {
	today := Day(now)
	if days := p.Cal.WorkingDays(today, today); len(days) == 1 {
		return today
	}
	return p.Cal.LastWorkday(today)
}

// Window steps back lookback working days from end.
func (p *Planner) Window(end time.Time, lookback int) time.Time {
	start := Day(end)
	for i := 0; i < lookback; i++ {
		start = p.Cal.LastWorkday(start)
	}
	return start
}

// Plan lists working days in [start, end]. When the family has no persisted
// output yet and start is after floor, the window is widened back to floor.
func (p *Planner) Plan(start, end, floor time.Time, outputEmpty bool) []time.Time {
	start, end = Day(start), Day(end)
	if outputEmpty && !floor.IsZero() && start.After(Day(floor)) {
		start = Day(floor)
	}
	if start.After(end) {
		return nil
	}
	return p.Cal.WorkingDays(start, end)
}

// DirEmpty reports whether dir is missing or has no entries.
func DirEmpty(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err != nil || len(entries) == 0
}

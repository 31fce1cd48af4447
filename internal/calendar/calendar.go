package calendar

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
)

// Calendar answers working-day questions. LastWorkday and NextWorkday are strict.
type Calendar interface {
	WorkingDays(start, end time.Time) []time.Time
	NextWorkday(d time.Time) time.Time
	LastWorkday(d time.Time) time.Time
}

// WeekdayCalendar treats Monday to Friday minus holidays as working days.
type WeekdayCalendar struct {
	holidays map[time.Time]struct{}
}

func NewWeekdayCalendar(holidays ...time.Time) *WeekdayCalendar {
	c := &WeekdayCalendar{holidays: make(map[time.Time]struct{}, len(holidays))}
	for _, h := range holidays {
		c.holidays[Day(h)] = struct{}{}
	}
	return c
}

func (c *WeekdayCalendar) IsWorkday(d time.Time) bool {
	d = Day(d)
	if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	_, holiday := c.holidays[d]
	return !holiday
}

func (c *WeekdayCalendar) WorkingDays(start, end time.Time) []time.Time {
	var out []time.Time
	for d := Day(start); !d.After(Day(end)); d = d.AddDate(0, 0, 1) {
		if c.IsWorkday(d) {
			out = append(out, d)
		}
	}
	return out
}

func (c *WeekdayCalendar) NextWorkday(d time.Time) time.Time {
	d = Day(d).AddDate(0, 0, 1)
	for !c.IsWorkday(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func (c *WeekdayCalendar) LastWorkday(d time.Time) time.Time {
	d = Day(d).AddDate(0, 0, -1)
	for !c.IsWorkday(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// SessionCalendar is an explicit sorted list of trading days. Outside the
// covered range it falls back to plain weekdays.
type SessionCalendar struct {
	days     []time.Time
	fallback *WeekdayCalendar
}

func NewSessionCalendar(days []time.Time) *SessionCalendar {
	seen := make(map[time.Time]struct{}, len(days))
	norm := make([]time.Time, 0, len(days))
	for _, d := range days {
		d = Day(d)
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		norm = append(norm, d)
	}
	sort.Slice(norm, func(i, j int) bool { return norm[i].Before(norm[j]) })
	return &SessionCalendar{days: norm, fallback: NewWeekdayCalendar()}
}

// LoadSessionCalendar reads the valuation_date column of table through gorm.
func LoadSessionCalendar(ctx context.Context, db *gorm.DB, table string) (*SessionCalendar, error) {
	var raw []string
	if err := db.WithContext(ctx).Table(table).Order("valuation_date").Pluck("valuation_date", &raw).Error; err != nil {
		return nil, fmt.Errorf("load trading calendar from %s: %w", table, err)
	}
	days := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		d, err := ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("load trading calendar from %s: %w", table, err)
		}
		days = append(days, d)
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("trading calendar %s is empty", table)
	}
	return NewSessionCalendar(days), nil
}

func (c *SessionCalendar) first() time.Time { return c.days[0] }
func (c *SessionCalendar) last() time.Time  { return c.days[len(c.days)-1] }

// WorkingDays uses sessions for the covered part of [start, end] and weekdays
// only for the edges that stick out of the loaded range.
func (c *SessionCalendar) WorkingDays(start, end time.Time) []time.Time {
	start, end = Day(start), Day(end)
	if len(c.days) == 0 || end.Before(c.first()) || start.After(c.last()) {
		return c.fallback.WorkingDays(start, end)
	}
	var out []time.Time
	if start.Before(c.first()) {
		out = append(out, c.fallback.WorkingDays(start, c.first().AddDate(0, 0, -1))...)
		start = c.first()
	}
	i := sort.Search(len(c.days), func(i int) bool { return !c.days[i].Before(start) })
	for ; i < len(c.days) && !c.days[i].After(end); i++ {
		out = append(out, c.days[i])
	}
	if end.After(c.last()) {
		out = append(out, c.fallback.WorkingDays(c.last().AddDate(0, 0, 1), end)...)
	}
	return out
}

func (c *SessionCalendar) NextWorkday(d time.Time) time.Time {
	d = Day(d)
	if len(c.days) == 0 || !d.Before(c.last()) {
		return c.fallback.NextWorkday(d)
	}
	if d.Before(c.first()) {
		if n := c.fallback.NextWorkday(d); n.Before(c.first()) {
			return n
		}
		return c.first()
	}
	i := sort.Search(len(c.days), func(i int) bool { return c.days[i].After(d) })
	return c.days[i]
}

func (c *SessionCalendar) LastWorkday(d time.Time) time.Time {
	d = Day(d)
	if len(c.days) == 0 || !d.After(c.first()) {
		return c.fallback.LastWorkday(d)
	}
	if d.After(c.last()) {
		if p := c.fallback.LastWorkday(d); p.After(c.last()) {
			return p
		}
		return c.last()
	}
	i := sort.Search(len(c.days), func(i int) bool { return !c.days[i].Before(d) })
	return c.days[i-1]
}

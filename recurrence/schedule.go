package recurrence

import (
	"fmt"
	"time"

	"github.com/xraph/steward/id"
)

const dateLayout = "2006-01-02"

// Key identifies one (template, calendar date) generation.
type Key struct {
	TemplateID id.TemplateID `json:"template_id"`
	Date       string        `json:"date"` // YYYY-MM-DD
}

// KeyFor returns the generation key of t on date.
func KeyFor(templateID id.TemplateID, date time.Time) Key {
	return Key{TemplateID: templateID, Date: date.Format(dateLayout)}
}

func (k Key) String() string { return k.TemplateID.String() + "@" + k.Date }

// civil reduces t to its calendar date, in UTC, so dates from different
// locations compare by day.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date returns midnight UTC of t's calendar day.
func Date(t time.Time) time.Time { return civil(t) }

// ShouldGenerate reports whether t produces a task on date. It fails closed:
// inactive templates and dates outside [StartDate, EndDate] never match.
func ShouldGenerate(t *Template, date time.Time) bool {
	if t == nil || !t.IsActive {
		return false
	}

	day := civil(date)
	start := civil(t.StartDate)
	if day.Before(start) {
		return false
	}
	if t.EndDate != nil && day.After(civil(*t.EndDate)) {
		return false
	}

	switch t.Frequency {
	case Daily:
		return true
	case Weekly:
		return hasWeekday(t.DaysOfWeek, day.Weekday())
	case Biweekly:
		return hasWeekday(t.DaysOfWeek, day.Weekday()) && weeksBetween(start, day)%2 == 0
	case Monthly:
		return monthlyMatch(start.Day(), day)
	default:
		return false
	}
}

func hasWeekday(days []int, wd time.Weekday) bool {
	for _, d := range days {
		if d == int(wd) {
			return true
		}
	}
	return false
}

// monday returns the Monday opening the ISO week containing d.
func monday(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// weeksBetween counts ISO weeks from the week of from to the week of to.
func weeksBetween(from, to time.Time) int {
	days := int(monday(to).Sub(monday(from)).Hours() / 24)
	return days / 7
}

func monthlyMatch(anchorDay int, day time.Time) bool {
	last := time.Date(day.Year(), day.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if anchorDay > last {
		return day.Day() == last
	}
	return day.Day() == anchorDay
}

// ParseClock parses an "HH:MM" start time.
func ParseClock(s string) (hour, minute int, err error) {
	tm, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("recurrence: start time %q: %w", s, err)
	}
	return tm.Hour(), tm.Minute(), nil
}

// Window returns the planned start and end of the task t spawns on date,
// in date's location. Without a preferred time the task starts at midnight;
// without a duration it ends when it starts.
func Window(t *Template, date time.Time) (time.Time, time.Time) {
	y, m, d := date.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, date.Location())

	if t.PreferredStartTime != "" {
		if h, mi, err := ParseClock(t.PreferredStartTime); err == nil {
			start = time.Date(y, m, d, h, mi, 0, 0, date.Location())
		}
	}

	end := start
	if t.EstimatedDurationMinutes != nil && *t.EstimatedDurationMinutes > 0 {
		end = start.Add(time.Duration(*t.EstimatedDurationMinutes) * time.Minute)
	}
	return start, end
}

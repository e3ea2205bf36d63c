package timelog

import (
	"time"

	"github.com/xraph/steward/authz"
)

const secondsPerHour = 3600

// SpanCheck classifies a proposed span.
type SpanCheck int

const (
	SpanOK       SpanCheck = iota
	SpanInverted           // end is not after start
	SpanTooShort           // positive but under one whole second
)

// Span measures start..end in whole seconds. The check runs on the supplied
// times. The returned times keep start truncated to the second and put end
// exactly seconds later, so (e-s)/3600 always equals the derived hours.
func Span(start, end time.Time) (s, e time.Time, seconds int64, check SpanCheck) {
	if !end.After(start) {
		return start, end, 0, SpanInverted
	}
	seconds = int64(end.Sub(start) / time.Second)
	if seconds == 0 {
		return start, end, 0, SpanTooShort
	}
	s = start.Truncate(time.Second)
	return s, s.Add(time.Duration(seconds) * time.Second), seconds, SpanOK
}

// Hours converts seconds to hours.
func Hours(seconds int64) float64 {
	return float64(seconds) / secondsPerHour
}

// SetSpan stores the span on e and derives the duration fields. Callers
// validate the span with Span first.
func (e *Entry) SetSpan(start, end time.Time) bool {
	s, en, secs, check := Span(start, end)
	if check != SpanOK {
		return false
	}
	e.StartTime = s
	e.EndTime = en
	e.DurationSeconds = secs
	e.HoursWorked = Hours(secs)
	return true
}

// CanView reports whether the caller may read e. Managers see everything,
// executors only their own entries.
func CanView(e *Entry, g authz.Grants) bool {
	if g.Can(authz.CapManageTimeLogs) {
		return true
	}
	return e.ExecutorID == g.UserID()
}

// CanModify reports whether the caller may change e's span or notes.
// Approved entries are closed to everyone; managers may edit any other entry,
// executors only their own pending ones.
func CanModify(e *Entry, g authz.Grants) bool {
	if e.Status == StatusApproved {
		return false
	}
	if g.Can(authz.CapManageTimeLogs) {
		return true
	}
	return e.ExecutorID == g.UserID() && e.Pending()
}

// CanDelete reports whether the caller may remove e. Only pending entries are
// deletable, by their owner or a manager.
func CanDelete(e *Entry, g authz.Grants) bool {
	if !e.Pending() {
		return false
	}
	return g.Can(authz.CapManageTimeLogs) || e.ExecutorID == g.UserID()
}

// Package schedule decides whether a practice session may be booked on a given day.
package schedule

import (
	"errors"
	"strings"
	"time"

	"github.com/trezcool/drivingschool/core"
)

// DateLayout is the ISO calendar date format used on the wire and in blackout lists.
const DateLayout = "2006-01-02"

var (
	NowFunc = time.Now // mockable

	// errors
	ErrPastDate      = core.NewValidationError(errors.New("date is in the past"))
	ErrNotWorkingDay = core.NewValidationError(errors.New("the school does not work on this day"))
	ErrBlackoutDate  = core.NewValidationError(errors.New("the school does not work on this date"))
	ErrMalformedDate = core.NewValidationError(errors.New("date must be in the YYYY-MM-DD format"))
	ErrUnknownTime   = core.NewValidationError(errors.New("unknown time slot"))
	ErrUnknownPlace  = core.NewValidationError(errors.New("unknown place"))

	// weekday names accepted in working day lists; the school catalog historically used russian names
	weekdayNames = map[time.Weekday][]string{
		time.Monday:    {"Monday", "Понедельник"},
		time.Tuesday:   {"Tuesday", "Вторник"},
		time.Wednesday: {"Wednesday", "Среда"},
		time.Thursday:  {"Thursday", "Четверг"},
		time.Friday:    {"Friday", "Пятница"},
		time.Saturday:  {"Saturday", "Суббота"},
		time.Sunday:    {"Sunday", "Воскресенье"},
	}
)

// Rules are the school availability rules. They are read-only once loaded.
type Rules struct {
	WorkingDays []string // weekday names
	Blackouts   []string // ISO dates
	Times       []string // ordered slot labels
	Places      []string
	Location    *time.Location
}

func (r Rules) location() *time.Location {
	if r.Location == nil {
		return time.Local
	}
	return r.Location
}

// Today returns the current calendar day at midnight in loc.
func Today(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	now := NowFunc().In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
}

// ParseDate parses an ISO calendar date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, ErrMalformedDate
	}
	return d, nil
}

func day(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// IsBookable reports whether date is not earlier than today, weekday is one of the
// working days and date is not a blackout date.
func IsBookable(date time.Time, weekday string, rules Rules) bool {
	loc := rules.location()
	d := day(date, loc)
	if d.Before(Today(loc)) {
		return false
	}
	if !core.ContainsFold(rules.WorkingDays, weekday) {
		return false
	}
	return !contains(rules.Blackouts, d.Format(DateLayout))
}

// Check is IsBookable with the weekday derived from date, reporting why a date is refused.
func (r Rules) Check(date time.Time) error {
	loc := r.location()
	d := day(date, loc)
	if d.Before(Today(loc)) {
		return ErrPastDate
	}
	if !r.IsWorkingDay(d.Weekday()) {
		return ErrNotWorkingDay
	}
	if contains(r.Blackouts, d.Format(DateLayout)) {
		return ErrBlackoutDate
	}
	return nil
}

// IsWorkingDay matches the weekday against WorkingDays under any of its known names.
func (r Rules) IsWorkingDay(wd time.Weekday) bool {
	for _, name := range weekdayNames[wd] {
		if core.ContainsFold(r.WorkingDays, name) {
			return true
		}
	}
	return false
}

// CheckSlot validates the time label and place of a booking.
func (r Rules) CheckSlot(slot, place string) error {
	if !contains(r.Times, slot) {
		return ErrUnknownTime
	}
	if !contains(r.Places, place) {
		return ErrUnknownPlace
	}
	return nil
}

// WeekdayName returns the english name of the date's weekday.
func WeekdayName(date time.Time) string {
	return weekdayNames[date.Weekday()][0]
}

func contains(list []string, s string) bool {
	s = strings.TrimSpace(s)
	for _, item := range list {
		if strings.TrimSpace(item) == s {
			return true
		}
	}
	return false
}

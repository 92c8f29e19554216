package scheduling

import (
	"fmt"
	"time"
)

type ConflictGranularity string

const (
	GranularityDay     ConflictGranularity = "day"
	GranularityInstant ConflictGranularity = "instant"
)

// Policy holds the booking rule set. The clinic runs 1-hour
// consultations, so the last valid start is the closing hour minus one
// appointment; the bounds here are start-time bounds.
type Policy struct {
	Name                 string
	OpeningHour          int
	LastStartHour        int
	EnforceClosedDay     bool
	MinimumLeadTime      time.Duration
	CancellationLeadTime time.Duration
	RequireActivePatient bool
	PatientConflict      ConflictGranularity
}

// The two rule sets observed in production. Strict is the richer one
// and the default; lenient drops the Sunday closure and the
// patient-active check, and widens the booking lead time.
var (
	StrictPolicy = Policy{
		Name:                 "strict",
		OpeningHour:          7,
		LastStartHour:        18,
		EnforceClosedDay:     true,
		MinimumLeadTime:      30 * time.Minute,
		CancellationLeadTime: 24 * time.Hour,
		RequireActivePatient: true,
		PatientConflict:      GranularityDay,
	}

	LenientPolicy = Policy{
		Name:                 "lenient",
		OpeningHour:          7,
		LastStartHour:        18,
		EnforceClosedDay:     false,
		MinimumLeadTime:      24 * time.Hour,
		CancellationLeadTime: 24 * time.Hour,
		RequireActivePatient: false,
		PatientConflict:      GranularityInstant,
	}
)

func PolicyByName(name string) (Policy, error) {
	switch name {
	case "strict", "":
		return StrictPolicy, nil
	case "lenient":
		return LenientPolicy, nil
	default:
		return Policy{}, fmt.Errorf("unknown scheduling profile %q", name)
	}
}

// WithinBusinessHours reports whether t is a valid consultation start,
// [opening, last start] inclusive on both ends.
func (p Policy) WithinBusinessHours(t time.Time) bool {
	secs := t.Hour()*3600 + t.Minute()*60 + t.Second()
	return secs >= p.OpeningHour*3600 && secs <= p.LastStartHour*3600
}

// OnClosedDay reports whether t falls on the clinic's closed day.
func (p Policy) OnClosedDay(t time.Time) bool {
	return p.EnforceClosedDay && t.Weekday() == time.Sunday
}

// DayWindow returns the operating window of t's calendar day, used for
// day-granularity patient conflict checks.
func (p Policy) DayWindow(t time.Time) (time.Time, time.Time) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, p.OpeningHour, 0, 0, 0, t.Location())
	end := time.Date(y, m, d, p.LastStartHour, 0, 0, 0, t.Location())
	return start, end
}

// Package booking decides which dates a doctor can be booked on and runs the
// appointment booking form.
package booking

import (
	"strings"
	"time"

	"github.com/Raheemullah8/hms-portal/internal/appointments"
	"github.com/Raheemullah8/hms-portal/internal/doctors"
)

// ParseDate reads a calendar date as UTC midnight. Full RFC3339 timestamps
// are accepted and moved to UTC.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(appointments.DateLayout, value); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// Weekday is the English weekday name of date in UTC, or "" when date does
// not parse.
func Weekday(date string) string {
	t, ok := ParseDate(date)
	if !ok {
		return ""
	}
	return t.Weekday().String()
}

// AvailableDays lists the template's available day names in template order.
func AvailableDays(template []doctors.AvailabilitySlot) []string {
	var days []string
	for _, slot := range template {
		if slot.IsAvailable {
			days = append(days, slot.Day)
		}
	}
	return days
}

// IsDateBookable reports whether date falls on a day the template marks
// available. Time slots are not considered here; the backend owns them.
func IsDateBookable(template []doctors.AvailabilitySlot, date string) bool {
	day := Weekday(date)
	if day == "" {
		return false
	}
	for _, slot := range template {
		if slot.IsAvailable && slot.Day == day {
			return true
		}
	}
	return false
}

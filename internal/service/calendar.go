package service

import (
	"time"
)

// istOffset is the fixed IST to UTC conversion applied to slot times. Slot
// labels are campus-local (IST), interview timestamps are stored in UTC.
const istOffset = 5*time.Hour + 30*time.Minute

// interviewDuration is fixed regardless of the slot label's printed end time.
const interviewDuration = 60 * time.Minute

// firstMonday returns the first Monday on or after the given date. Day 1 of
// every campaign lands on this date.
func firstMonday(start time.Time) time.Time {
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	switch wd := day.Weekday(); {
	case wd == time.Sunday:
		return day.AddDate(0, 0, 1)
	case wd > time.Monday:
		return day.AddDate(0, 0, 8-int(wd))
	default:
		return day
	}
}

// weekNumber returns the 1-based week a day number falls in.
func weekNumber(dayNumber int) int {
	return (dayNumber + 4) / 5
}

// resolveStartTime converts a (dayNumber, slot label) pair into a concrete
// UTC timestamp relative to the campaign start date. Weekends are skipped:
// day 6 lands on the second Monday.
func resolveStartTime(dayNumber int, slotLabel string, startDate time.Time) time.Time {
	monday := firstMonday(startDate)

	week := (dayNumber - 1) / 5
	weekdayIndex := (dayNumber - 1) % 5
	date := monday.AddDate(0, 0, week*7+weekdayIndex)

	start, ok := parseSlotStart(slotLabel)
	if !ok {
		return date
	}

	local := time.Duration(start.Hours)*time.Hour + time.Duration(start.Minutes)*time.Minute
	return date.Add(local - istOffset)
}

// dayNumberForDate is the inverse of resolveStartTime's date math: given a
// calendar date it returns the working day number, clamping weekends to the
// Friday of that week. Dates before the campaign start map to day 1.
func dayNumberForDate(date time.Time, startDate time.Time) int {
	monday := firstMonday(startDate)
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	if day.Before(monday) {
		return 1
	}

	elapsed := int(day.Sub(monday).Hours() / 24)
	week := elapsed / 7
	weekday := day.Weekday()

	if weekday == time.Saturday || weekday == time.Sunday {
		return week*5 + 5
	}
	return week*5 + int(weekday-time.Monday) + 1
}

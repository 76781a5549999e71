package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/interview-scheduler-api/internal/models"
)

func TestParseSlotStart(t *testing.T) {
	cases := []struct {
		label   string
		ok      bool
		hours   int
		minutes int
	}{
		{"9:30AM-10:30AM", true, 9, 30},
		{"10:30AM-11:30AM", true, 10, 30},
		{"12:30PM-2PM", true, 12, 30},
		{"2PM-3:30PM", true, 14, 0},
		{"7PM-8:30PM", true, 19, 0},
		{"12PM-1PM", true, 12, 0},
		{"12AM-1AM", true, 0, 0},
		{"lunch", false, 0, 0},
		{"", false, 0, 0},
	}

	for _, tc := range cases {
		got, ok := parseSlotStart(tc.label)
		assert.Equal(t, tc.ok, ok, tc.label)
		if tc.ok {
			assert.Equal(t, tc.hours, got.Hours, tc.label)
			assert.Equal(t, tc.minutes, got.Minutes, tc.label)
		}
	}
}

func TestWeekdayForDayCycles(t *testing.T) {
	assert.Equal(t, "monday", weekdayForDay(1))
	assert.Equal(t, "friday", weekdayForDay(5))
	assert.Equal(t, "monday", weekdayForDay(6))
	assert.Equal(t, "wednesday", weekdayForDay(13))
}

func TestCommonSlotsSortedByStartTime(t *testing.T) {
	// Input order is scrambled on purpose; the intersection comes back
	// in chronological order regardless.
	candidate := models.Availability{
		"monday": {"7PM-8:30PM", "9:30AM-10:30AM", "2PM-3:30PM"},
	}
	one := models.Availability{
		"monday": {"9:30AM-10:30AM", "2PM-3:30PM", "7PM-8:30PM"},
	}
	two := models.Availability{
		"monday": {"2PM-3:30PM", "7PM-8:30PM"},
	}

	got := commonSlots(candidate, one, two, "monday")
	require.Equal(t, []string{"2PM-3:30PM", "7PM-8:30PM"}, got)
}

func TestCommonSlotsFullIntersectionSorted(t *testing.T) {
	availability := models.Availability{
		"tuesday": {"7PM-8:30PM", "2PM-3:30PM", "9:30AM-10:30AM", "10:30AM-11:30AM"},
	}

	got := commonSlots(availability, availability, availability, "tuesday")
	require.Equal(t, []string{"9:30AM-10:30AM", "10:30AM-11:30AM", "2PM-3:30PM", "7PM-8:30PM"}, got)
}

func TestAvailabilityScoreCountsAllWeekdays(t *testing.T) {
	shared := models.Availability{
		"monday":  {"9:30AM-10:30AM", "10:30AM-11:30AM"},
		"tuesday": {"2PM-3:30PM"},
	}
	candidate := models.Availability{
		"monday":  {"9:30AM-10:30AM", "10:30AM-11:30AM"},
		"tuesday": {"2PM-3:30PM"},
		"friday":  {"7PM-8:30PM"},
	}

	assert.Equal(t, 3, availabilityScore(candidate, shared, shared))
}

func TestAvailabilityScoreZeroWhenDisjoint(t *testing.T) {
	candidate := models.Availability{"monday": {"9:30AM-10:30AM"}}
	panel := models.Availability{"monday": {"2PM-3:30PM"}}

	assert.Equal(t, 0, availabilityScore(candidate, panel, panel))
}

func TestSlotKeyFormat(t *testing.T) {
	assert.Equal(t, "day3-2PM-3:30PM", slotKey(3, "2PM-3:30PM"))
}

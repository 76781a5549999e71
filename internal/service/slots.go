package service

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/noah-isme/interview-scheduler-api/internal/models"
)

// slotStartPattern matches the start time of a slot label, e.g. "9:30AM-10:30AM"
// or "7PM-8:30PM". Minutes are optional and default to zero.
var slotStartPattern = regexp.MustCompile(`^(\d+)(?::(\d+))?(AM|PM)`)

type slotTime struct {
	Hours   int
	Minutes int
}

func (t slotTime) minuteOfDay() int {
	return t.Hours*60 + t.Minutes
}

// parseSlotStart extracts the start time from a slot label. The second return
// is false when the label does not begin with a parseable time.
func parseSlotStart(label string) (slotTime, bool) {
	m := slotStartPattern.FindStringSubmatch(label)
	if m == nil {
		return slotTime{}, false
	}

	hours, _ := strconv.Atoi(m[1])
	minutes := 0
	if m[2] != "" {
		minutes, _ = strconv.Atoi(m[2])
	}

	switch m[3] {
	case "PM":
		if hours != 12 {
			hours += 12
		}
	case "AM":
		if hours == 12 {
			hours = 0
		}
	}

	return slotTime{Hours: hours, Minutes: minutes}, true
}

// weekdayForDay maps a 1-based day number onto the five-day cycle.
func weekdayForDay(dayNumber int) string {
	return models.Weekdays[(dayNumber-1)%5]
}

// commonSlots returns the candidate's slots on a weekday that both panel
// members also have, ordered by start time so callers always scan the day
// chronologically regardless of how the availability was entered.
func commonSlots(candidate, one, two models.Availability, weekday string) []string {
	oneSet := toSet(one.SlotsFor(weekday))
	twoSet := toSet(two.SlotsFor(weekday))

	var out []string
	for _, slot := range candidate.SlotsFor(weekday) {
		if _, ok := oneSet[slot]; !ok {
			continue
		}
		if _, ok := twoSet[slot]; !ok {
			continue
		}
		out = append(out, slot)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, okA := parseSlotStart(out[i])
		b, okB := parseSlotStart(out[j])
		if !okA || !okB {
			return false
		}
		return a.minuteOfDay() < b.minuteOfDay()
	})
	return out
}

// availabilityScore counts the candidate's three-way slot intersections with
// the panel across the working week. Zero means the candidate can never be
// scheduled with this panel.
func availabilityScore(candidate, one, two models.Availability) int {
	total := 0
	for _, weekday := range models.Weekdays {
		total += len(commonSlots(candidate, one, two, weekday))
	}
	return total
}

// slotKey identifies a bookable (day, slot) cell in the calendar.
func slotKey(dayNumber int, label string) string {
	return fmt.Sprintf("day%d-%s", dayNumber, label)
}

func toSet(slots []string) map[string]struct{} {
	set := make(map[string]struct{}, len(slots))
	for _, s := range slots {
		set[s] = struct{}{}
	}
	return set
}

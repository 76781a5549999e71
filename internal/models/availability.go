package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Weekdays lists the interview days in campaign order. Day numbers map onto
// this cycle: day 1 is monday, day 5 is friday, day 6 is monday again.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday"}

// Availability maps a lowercase weekday name to the slot labels a person is
// free for, e.g. {"monday": ["9AM-10AM", "2PM-3PM"]}.
type Availability map[string][]string

// SlotsFor returns the slot labels for a weekday, never nil.
func (a Availability) SlotsFor(weekday string) []string {
	if a == nil {
		return []string{}
	}
	slots, ok := a[weekday]
	if !ok || slots == nil {
		return []string{}
	}
	return slots
}

// Value marshals the availability to JSON for persistence.
func (a Availability) Value() (driver.Value, error) {
	if a == nil {
		a = Availability{}
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal availability: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSONB payloads into the availability map.
func (a *Availability) Scan(value interface{}) error {
	if value == nil {
		*a = Availability{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for Availability", value)
	}
	if len(data) == 0 {
		*a = Availability{}
		return nil
	}
	if err := json.Unmarshal(data, a); err != nil {
		return fmt.Errorf("unmarshal availability: %w", err)
	}
	return nil
}

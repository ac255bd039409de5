package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// DayLayout is the calendar-day key format used by the daily view.
const DayLayout = "2006-01-02"

func ParseTime(v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// Timestamp is a time.Time that marshals as RFC3339 and as "" when zero.
type Timestamp struct {
	time.Time
}

func Now(t time.Time) Timestamp { return Timestamp{Time: t} }

// SameDay reports whether t and then fall on the same calendar day in loc.
func (t Timestamp) SameDay(then time.Time, loc *time.Location) bool {
	return DayKey(t.Time, loc) == DayKey(then, loc)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(fmt.Sprintf("%q", FormatTime(t.Time))), nil
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var timestamp string
	if err := json.Unmarshal(b, &timestamp); err != nil {
		return err
	}
	if timestamp == "" {
		t.Time = time.Time{}
		return nil
	}
	var err error
	t.Time, err = ParseTime(timestamp)
	return err
}

func (t Timestamp) String() string {
	return t.UTC().Format(time.RFC3339)
}

func FormatTime(v time.Time) string {
	return v.UTC().Format(time.RFC3339Nano)
}

// DayKey returns the calendar day of v in loc, or "" for the zero time.
// A nil loc means the server's local zone.
func DayKey(v time.Time, loc *time.Location) string {
	if v.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	return v.In(loc).Format(DayLayout)
}

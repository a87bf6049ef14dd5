package series

import (
	"fmt"
	"time"
)

// TimeSlot is a coarse bucket of the day.
type TimeSlot string

const (
	Morning   TimeSlot = "morning"
	Afternoon TimeSlot = "afternoon"
	Evening   TimeSlot = "evening"
	Night     TimeSlot = "night"
)

// DateLayout is the ISO date stored in the date column.
const DateLayout = "2006-01-02"

// SlotForHour maps an hour of day (0-23) to its slot:
// [5,11) morning, [11,17) afternoon, [17,23) evening, otherwise night.
func SlotForHour(hour int) TimeSlot {
	switch {
	case hour >= 5 && hour < 11:
		return Morning
	case hour >= 11 && hour < 17:
		return Afternoon
	case hour >= 17 && hour < 23:
		return Evening
	default:
		return Night
	}
}

// Stamp returns the date and slot of t as seen in loc.
func Stamp(t time.Time, loc *time.Location) (string, TimeSlot) {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(DateLayout), SlotForHour(t.Hour())
}

// Order gives the chronological position of a slot within a day.
// Unknown slots sort after night.
func (s TimeSlot) Order() int {
	switch s {
	case Morning:
		return 0
	case Afternoon:
		return 1
	case Evening:
		return 2
	case Night:
		return 3
	}
	return 4
}

func ParseTimeSlot(s string) (TimeSlot, error) {
	switch slot := TimeSlot(s); slot {
	case Morning, Afternoon, Evening, Night:
		return slot, nil
	}
	return "", fmt.Errorf("unknown time slot %q", s)
}

// StatRow is one measurement of one item. (Date, TimeSlot, ItemName) is
// its identity.
type StatRow struct {
	Date      string
	TimeSlot  TimeSlot
	ItemName  string
	WebCount  int
	XCount    int
	Sentiment float64
	TopLinks  string
}

// Key identifies a row within the store.
type Key struct {
	Date     string
	TimeSlot TimeSlot
	ItemName string
}

func (r StatRow) Key() Key {
	return Key{Date: r.Date, TimeSlot: r.TimeSlot, ItemName: r.ItemName}
}

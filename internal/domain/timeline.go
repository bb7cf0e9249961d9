package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// TimeOfDay is a wall-clock time with no date component, held as the
// offset from midnight. Valid values lie in [00:00, 24:00).
type TimeOfDay time.Duration

// ParseTimeOfDay accepts "15:04" or "15:04:05".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return NewTimeOfDay(t.Hour(), t.Minute(), t.Second()), nil
		}
	}
	return 0, fmt.Errorf("%w: invalid time of day %q (want HH:MM)", ErrValidation, s)
}

// NewTimeOfDay builds a TimeOfDay from clock components.
func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay(time.Duration(hour)*time.Hour +
		time.Duration(minute)*time.Minute +
		time.Duration(second)*time.Second)
}

// Valid reports whether t lies within a single day.
func (t TimeOfDay) Valid() bool {
	return t >= 0 && time.Duration(t) < 24*time.Hour
}

// On places t on the calendar date of day, in loc.
func (t TimeOfDay) On(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc).Add(time.Duration(t))
}

// String renders "15:04", or "15:04:05" when seconds are set.
func (t TimeOfDay) String() string {
	d := time.Duration(t)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	if s != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

// MarshalText implements encoding.TextMarshaler.
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TimeOfDay) UnmarshalText(b []byte) error {
	v, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Interval is a half-open time range [Start, End) within one day.
type Interval struct {
	Start TimeOfDay
	End   TimeOfDay
}

// Validate checks both bounds lie within a day and Start is strictly before End.
func (iv Interval) Validate() error {
	if !iv.Start.Valid() || !iv.End.Valid() {
		return fmt.Errorf("%w: times must be between 00:00 and 23:59", ErrValidation)
	}
	if iv.Start >= iv.End {
		return fmt.Errorf("%w: start_time must be before end_time", ErrValidation)
	}
	return nil
}

// Overlaps reports whether the two half-open intervals intersect.
// Intervals that only touch (one ends where the other starts) do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && other.Start < iv.End
}

// TimelineItem is a timed activity within a TripDay, optionally linked to a Place.
// TripID and DayDate are derived from the owning day when read back.
type TimelineItem struct {
	ID        uuid.UUID
	DayID     uuid.UUID
	TripID    uuid.UUID
	DayDate   time.Time
	PlaceID   *uuid.UUID
	Start     TimeOfDay
	End       TimeOfDay
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Interval returns the item's time range.
func (it TimelineItem) Interval() Interval {
	return Interval{Start: it.Start, End: it.End}
}

// DaySchedule is the ordered item list of a single day.
type DaySchedule struct {
	Day   TripDay
	Items []TimelineItem
}

// Conflicts returns the first item overlapping iv, skipping the item whose
// ID equals exclude. It mirrors the storage-level overlap query and is used
// where a day's items are already in memory.
func (s DaySchedule) Conflicts(iv Interval, exclude *uuid.UUID) (TimelineItem, bool) {
	for _, it := range s.Items {
		if exclude != nil && it.ID == *exclude {
			continue
		}
		if it.Interval().Overlaps(iv) {
			return it, true
		}
	}
	return TimelineItem{}, false
}

// BuildSchedules groups items under their days. Days keep their given order;
// items within a day are sorted by start time. Days without items get an
// empty, non-nil item slice. Items whose day is not in days are dropped.
func BuildSchedules(days []TripDay, items []TimelineItem) []DaySchedule {
	byDay := make(map[uuid.UUID][]TimelineItem, len(days))
	for _, it := range items {
		byDay[it.DayID] = append(byDay[it.DayID], it)
	}

	out := make([]DaySchedule, 0, len(days))
	for _, d := range days {
		dayItems := byDay[d.ID]
		if dayItems == nil {
			dayItems = []TimelineItem{}
		}
		sort.SliceStable(dayItems, func(i, j int) bool {
			return dayItems[i].Start < dayItems[j].Start
		})
		out = append(out, DaySchedule{Day: d, Items: dayItems})
	}
	return out
}

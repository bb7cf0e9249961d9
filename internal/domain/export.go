package domain

import "time"

// TimelineEntry is a timeline item as presented to readers, with the name of
// its place resolved. PlaceName is nil when no place is attached.
type TimelineEntry struct {
	Item      TimelineItem
	PlaceName *string
}

// DayTimeline is one day of a trip's timeline: the day's metadata followed
// by its entries in start-time order.
type DayTimeline struct {
	Day     TripDay
	Entries []TimelineEntry
}

// TripExport is everything needed to render a trip's itinerary outside the API.
type TripExport struct {
	Trip Trip
	Days []DayTimeline
}

// ExportRow is a single row in the flat itinerary export.
// It is a denormalized view: one row per timeline item, with day fields
// repeated for every item on that day. Days with no items yield one row with
// zero values for all item fields.
type ExportRow struct {
	// Day fields, repeated for every item on the day.
	Date          time.Time
	DayIndex      int
	ThemeTitle    string
	DayNote       string
	BudgetPlanned *int
	BudgetSpent   *int

	// Item fields, zero values when the day has no items.
	HasItem   bool
	Start     TimeOfDay
	End       TimeOfDay
	PlaceName string
}

// Rows flattens the export into ExportRows, days in order.
func (e TripExport) Rows() []ExportRow {
	var rows []ExportRow
	for _, d := range e.Days {
		base := ExportRow{
			Date:          d.Day.Date,
			DayIndex:      d.Day.DayIndex,
			ThemeTitle:    deref(d.Day.ThemeTitle),
			DayNote:       deref(d.Day.DayNote),
			BudgetPlanned: d.Day.BudgetPlanned,
			BudgetSpent:   d.Day.BudgetSpent,
		}
		if len(d.Entries) == 0 {
			rows = append(rows, base)
			continue
		}
		for _, en := range d.Entries {
			row := base
			row.HasItem = true
			row.Start = en.Item.Start
			row.End = en.Item.End
			row.PlaceName = deref(en.PlaceName)
			rows = append(rows, row)
		}
	}
	return rows
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

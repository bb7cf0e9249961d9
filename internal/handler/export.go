package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/oapi-codegen/runtime"

	"github.com/tripdiary/backend/internal/domain"
)

const (
	exportFormatICS = "ics"
	exportFormatCSV = "csv"

	icsProductID = "-//tripdiary//itinerary//EN"
	icsUIDDomain = "tripdiary"

	icsFloatingLayout = "20060102T150405"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"date", "day_index", "theme_title", "day_note",
	"budget_planned", "budget_spent",
	"start_time", "end_time", "place_name",
}

// ExportTimeline handles GET /trips/{tripId}/timeline/export.
// ?format=ics (default) returns an iCalendar feed; ?format=csv a flat table
// with one row per item and a placeholder row for each empty day.
func (s *Server) ExportTimeline(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	tripID, ok := pathUUID(w, r, "tripId")
	if !ok {
		return
	}
	var format *string
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &format); err != nil {
		writeBadRequest(w, "invalid format")
		return
	}
	f := exportFormatICS
	if format != nil {
		f = strings.ToLower(*format)
	}
	if f != exportFormatICS && f != exportFormatCSV {
		writeBadRequest(w, "format must be ics or csv")
		return
	}

	export, err := s.export.Export(r.Context(), tripID, caller)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	filename := "trip-" + tripID.String() + "." + f
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if f == exportFormatCSV {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buildCSV(export.Rows()))
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(s.buildCalendar(export)))
}

// buildCalendar renders the trip as iCalendar: an all-day event per themed
// day and a timed event per item. Item times are wall-clock times and are
// written as UTC since trips carry no time zone.
func (s *Server) buildCalendar(export domain.TripExport) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)
	if export.Trip.Title != "" {
		cal.SetXWRCalName(export.Trip.Title)
	}
	stamp := s.now().UTC()

	for _, d := range export.Days {
		if d.Day.ThemeTitle != nil && *d.Day.ThemeTitle != "" {
			ev := cal.AddEvent(d.Day.ID.String() + "@" + icsUIDDomain)
			ev.SetDtStampTime(stamp)
			ev.SetAllDayStartAt(d.Day.Date)
			ev.SetAllDayEndAt(d.Day.Date.AddDate(0, 0, 1))
			ev.SetSummary(*d.Day.ThemeTitle)
			if d.Day.DayNote != nil {
				ev.SetDescription(*d.Day.DayNote)
			}
		}
		for _, e := range d.Entries {
			ev := cal.AddEvent(e.Item.ID.String() + "@" + icsUIDDomain)
			ev.SetDtStampTime(stamp)
			// Floating local times: an item at 09:00 stays at 09:00 in any viewer's zone.
			ev.SetProperty(ics.ComponentPropertyDtStart, e.Item.Start.On(d.Day.Date, time.UTC).Format(icsFloatingLayout))
			ev.SetProperty(ics.ComponentPropertyDtEnd, e.Item.End.On(d.Day.Date, time.UTC).Format(icsFloatingLayout))
			summary := "Planned activity"
			if e.PlaceName != nil {
				summary = *e.PlaceName
				ev.SetLocation(*e.PlaceName)
			}
			ev.SetSummary(summary)
		}
	}
	return cal.Serialize()
}

// buildCSV encodes export rows as CSV. Empty optional values are written as
// empty cells.
func buildCSV(rows []domain.ExportRow) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer.Write never returns an error.
	w.Write(csvHeaders)
	for _, r := range rows {
		//nolint:errcheck
		w.Write(rowToCSVRecord(r))
	}
	w.Flush()
	return buf.Bytes()
}

func rowToCSVRecord(r domain.ExportRow) []string {
	start, end := "", ""
	if r.HasItem {
		start, end = r.Start.String(), r.End.String()
	}
	return []string{
		r.Date.Format("2006-01-02"),
		strconv.Itoa(r.DayIndex),
		r.ThemeTitle,
		r.DayNote,
		formatOptionalInt(r.BudgetPlanned),
		formatOptionalInt(r.BudgetSpent),
		start,
		end,
		r.PlaceName,
	}
}

func formatOptionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
